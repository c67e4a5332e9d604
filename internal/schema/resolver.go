// Package schema resolves logical table names against a legacy database whose
// tables were created under several naming conventions over the years
// ("Transactions_Balance", "Transactions - Balance", "transactions balance"...).
// Resolution is config-first: an explicit override skips probing entirely.
package schema

import (
	"context"
	"fmt"
	"strings"
)

// Prober checks whether a concrete table exists. Satisfied by PgProber;
// narrow interface for testability.
type Prober interface {
	Probe(ctx context.Context, table string) error
}

// NotFoundError reports that no naming variant of a logical table exists.
// Attempted carries every name that was probed, for diagnostics.
type NotFoundError struct {
	Logical   string
	Attempted []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no table found for %q (tried: %s)", e.Logical, strings.Join(e.Attempted, ", "))
}

// Resolver maps logical table names to the concrete names present in the
// database. Construct once at startup and resolve each logical name before
// wiring the store; the resolver itself keeps no cache.
type Resolver struct {
	overrides map[string]string
	prober    Prober
}

func NewResolver(overrides map[string]string, prober Prober) *Resolver {
	if overrides == nil {
		overrides = make(map[string]string)
	}
	return &Resolver{overrides: overrides, prober: prober}
}

// Resolve returns the concrete table name for a logical name. An override
// from configuration is returned as-is without touching the database.
// Otherwise each naming variant is probed in a fixed order and the first one
// that exists wins. A successful probe only proves presence, not shape; a
// table with the wrong columns still fails later at the real query.
func (r *Resolver) Resolve(ctx context.Context, logical string) (string, error) {
	if override, ok := r.overrides[logical]; ok {
		return override, nil
	}

	variants := Variants(logical)
	for _, v := range variants {
		if err := r.prober.Probe(ctx, v); err == nil {
			return v, nil
		}
	}

	return "", &NotFoundError{Logical: logical, Attempted: variants}
}

// Variants generates the deterministic candidate names for a logical table:
// separator substitutions for '_' (spaced dash, dash, space, removed) and a
// lowercase fold. Duplicates are removed preserving first occurrence.
func Variants(base string) []string {
	candidates := []string{
		base,
		strings.ReplaceAll(base, "_", " - "),
		strings.ReplaceAll(base, "_", " -"),
		strings.ReplaceAll(base, "_", "-"),
		strings.ReplaceAll(base, "_", " "),
		strings.ToLower(base),
		strings.ReplaceAll(base, "_", ""),
	}

	seen := make(map[string]bool, len(candidates))
	var out []string
	for _, c := range candidates {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}
