package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const getAllowedEmail = `
SELECT id, email, role, hashed_password, created_at
FROM allowed_emails
WHERE email = $1
`

func (q *Queries) GetAllowedEmail(ctx context.Context, email string) (AllowedEmail, error) {
	row := q.db.QueryRow(ctx, getAllowedEmail, email)
	var a AllowedEmail
	err := row.Scan(&a.ID, &a.Email, &a.Role, &a.HashedPassword, &a.CreatedAt)
	return a, err
}

const listAllowedEmails = `
SELECT id, email, role, hashed_password, created_at
FROM allowed_emails
ORDER BY email
`

func (q *Queries) ListAllowedEmails(ctx context.Context) ([]AllowedEmail, error) {
	rows, err := q.db.Query(ctx, listAllowedEmails)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []AllowedEmail
	for rows.Next() {
		var a AllowedEmail
		if err := rows.Scan(&a.ID, &a.Email, &a.Role, &a.HashedPassword, &a.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

const createAllowedEmail = `
INSERT INTO allowed_emails (email, role, hashed_password)
VALUES ($1, $2, $3)
RETURNING id, email, role, hashed_password, created_at
`

type CreateAllowedEmailParams struct {
	Email          string
	Role           string
	HashedPassword pgtype.Text
}

func (q *Queries) CreateAllowedEmail(ctx context.Context, arg CreateAllowedEmailParams) (AllowedEmail, error) {
	row := q.db.QueryRow(ctx, createAllowedEmail, arg.Email, arg.Role, arg.HashedPassword)
	var a AllowedEmail
	err := row.Scan(&a.ID, &a.Email, &a.Role, &a.HashedPassword, &a.CreatedAt)
	return a, err
}

const deleteAllowedEmail = `
DELETE FROM allowed_emails
WHERE id = $1
RETURNING id
`

func (q *Queries) DeleteAllowedEmail(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var deleted uuid.UUID
	err := q.db.QueryRow(ctx, deleteAllowedEmail, id).Scan(&deleted)
	return deleted, err
}
