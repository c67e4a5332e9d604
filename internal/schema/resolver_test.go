package schema

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

// mockProber records probed names and succeeds only for the configured set.
type mockProber struct {
	existing map[string]bool
	probed   []string
}

func (m *mockProber) Probe(_ context.Context, table string) error {
	m.probed = append(m.probed, table)
	if m.existing[table] {
		return nil
	}
	return errors.New("relation does not exist")
}

func TestResolveOverrideSkipsProbing(t *testing.T) {
	prober := &mockProber{}
	r := NewResolver(map[string]string{
		"transactions_balance": "Transactions - Balance",
	}, prober)

	got, err := r.Resolve(context.Background(), "transactions_balance")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if got != "Transactions - Balance" {
		t.Errorf("Resolve = %q, want %q", got, "Transactions - Balance")
	}
	if len(prober.probed) != 0 {
		t.Errorf("override must not probe, probed %v", prober.probed)
	}
}

func TestResolveFirstMatchingVariant(t *testing.T) {
	prober := &mockProber{existing: map[string]bool{
		"Transactions-Balance": true,
		"Transactions Balance": true,
	}}
	r := NewResolver(nil, prober)

	got, err := r.Resolve(context.Background(), "Transactions_Balance")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	// "Transactions-Balance" comes before "Transactions Balance" in probe order.
	if got != "Transactions-Balance" {
		t.Errorf("Resolve = %q, want %q", got, "Transactions-Balance")
	}
}

func TestResolveNotFoundListsAttempts(t *testing.T) {
	prober := &mockProber{}
	r := NewResolver(nil, prober)

	_, err := r.Resolve(context.Background(), "Transactions_Balance")
	if err == nil {
		t.Fatal("expected error for missing table")
	}

	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected *NotFoundError, got %T", err)
	}

	want := Variants("Transactions_Balance")
	if !reflect.DeepEqual(nf.Attempted, want) {
		t.Errorf("Attempted = %v, want %v", nf.Attempted, want)
	}
	if !reflect.DeepEqual(prober.probed, want) {
		t.Errorf("probed = %v, want every variant %v", prober.probed, want)
	}
}

func TestVariants(t *testing.T) {
	got := Variants("Transactions_Orders")
	want := []string{
		"Transactions_Orders",
		"Transactions - Orders",
		"Transactions -Orders",
		"Transactions-Orders",
		"Transactions Orders",
		"transactions_orders",
		"TransactionsOrders",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Variants = %v, want %v", got, want)
	}
}

func TestVariantsDeduplicates(t *testing.T) {
	// A name without underscores collapses most variants.
	got := Variants("accounts")
	want := []string{"accounts"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Variants = %v, want %v", got, want)
	}
}
