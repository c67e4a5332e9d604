package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Account is a POS customer with a stored balance. Only the latest balance is
// kept on the row; history lives in the ledger.
type Account struct {
	ID        int64
	Name      string
	Balance   pgtype.Numeric
	CreatedAt time.Time
	UpdatedAt time.Time
}

// LedgerEntry is an append-only record of a balance movement. Quantity is
// signed: positive for recharges, negative for purchases. PrevBalance and
// NewBalance snapshot the account balance around the movement.
type LedgerEntry struct {
	ID           uuid.UUID
	AccountID    int64
	Name         pgtype.Text
	Quantity     pgtype.Numeric
	PrevBalance  pgtype.Numeric
	NewBalance   pgtype.Numeric
	Method       pgtype.Text
	Observations pgtype.Text
	RecordedAt   time.Time
}

// Order is a recorded sale. AccountRef is the account id as text, or the
// "EFECTIVO" sentinel for anonymous cash sales. Products is a single
// delimited string, not normalized line items.
type Order struct {
	ID           uuid.UUID
	OrderNumber  int64
	AccountRef   string
	CustomerName string
	Amount       pgtype.Numeric
	Method       string
	Products     string
	RecordedAt   time.Time
}

type Product struct {
	ID       int64
	Category pgtype.Text
	Name     string
	Price    pgtype.Numeric
}

// AllowedEmail is the authentication allow-list: only listed emails may log
// in, with the role recorded on the row.
type AllowedEmail struct {
	ID             uuid.UUID
	Email          string
	Role           string
	HashedPassword pgtype.Text
	CreatedAt      time.Time
}
