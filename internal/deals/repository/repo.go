package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sowdesk/sowdesk-backend/internal/deals/domain"
	"github.com/sowdesk/sowdesk-backend/internal/stage"
)

// DealRepository provides persistence operations for the deal mirror.
type DealRepository struct {
	db *pgxpool.Pool
}

// NewDealRepository creates a new deal repository
func NewDealRepository(db *pgxpool.Pool) *DealRepository {
	return &DealRepository{db: db}
}

const dealColumns = `id, name, amount, currency, owner_email, coalesce(assignee,''), status, target_date, synced_at, created_at, updated_at`

// Upsert writes a mirrored CRM record. Assignee and status are locally owned
// and preserved on conflict.
func (r *DealRepository) Upsert(ctx context.Context, d *domain.Deal) error {
	const q = `
INSERT INTO deals (id, name, amount, currency, owner_email, status, target_date, synced_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, now())
ON CONFLICT (id) DO UPDATE
  SET name = EXCLUDED.name,
      amount = EXCLUDED.amount,
      currency = EXCLUDED.currency,
      owner_email = EXCLUDED.owner_email,
      target_date = EXCLUDED.target_date,
      synced_at = now(),
      updated_at = now();
`
	status := d.Status
	if status == "" {
		status = stage.StatusNotSubmitted
	}
	_, err := r.db.Exec(ctx, q,
		d.ID, d.Name, d.Amount, d.Currency, d.OwnerEmail, string(status), d.TargetDate,
	)
	if err != nil {
		return fmt.Errorf("upsert deal: %w", err)
	}
	return nil
}

// Get returns one mirrored deal.
func (r *DealRepository) Get(ctx context.Context, id string) (*domain.Deal, error) {
	q := `SELECT ` + dealColumns + ` FROM deals WHERE id = $1;`

	var d domain.Deal
	err := r.db.QueryRow(ctx, q, id).Scan(
		&d.ID, &d.Name, &d.Amount, &d.Currency, &d.OwnerEmail, &d.Assignee,
		&d.Status, &d.TargetDate, &d.SyncedAt, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get deal: %w", err)
	}
	return &d, nil
}

// List returns deals matching the filter, newest first.
func (r *DealRepository) List(ctx context.Context, f domain.ListFilter) ([]domain.Deal, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Assignee != "" {
		where = append(where, "assignee = "+arg(f.Assignee))
	}
	if f.OwnerEmail != "" {
		where = append(where, "owner_email = "+arg(f.OwnerEmail))
	}
	if f.Status != "" {
		where = append(where, "status = "+arg(string(f.Status)))
	}
	if f.Search != "" {
		where = append(where, "name ILIKE "+arg("%"+f.Search+"%"))
	}
	if f.TargetAfter != nil {
		where = append(where, "target_date >= "+arg(*f.TargetAfter))
	}
	if f.TargetBefore != nil {
		where = append(where, "target_date <= "+arg(*f.TargetBefore))
	}

	q := `SELECT ` + dealColumns + ` FROM deals`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY updated_at DESC"
	if f.Limit > 0 {
		q += " LIMIT " + arg(f.Limit)
	}
	if f.Offset > 0 {
		q += " OFFSET " + arg(f.Offset)
	}

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list deals: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Deal, 0, 16)
	for rows.Next() {
		var d domain.Deal
		if err := rows.Scan(
			&d.ID, &d.Name, &d.Amount, &d.Currency, &d.OwnerEmail, &d.Assignee,
			&d.Status, &d.TargetDate, &d.SyncedAt, &d.CreatedAt, &d.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// SetAssignee updates the one locally mutable CRM field.
func (r *DealRepository) SetAssignee(ctx context.Context, id, assignee string) (*domain.Deal, error) {
	q := `
UPDATE deals
SET assignee = nullif($2, ''), updated_at = now()
WHERE id = $1
RETURNING ` + dealColumns + `;`

	var d domain.Deal
	err := r.db.QueryRow(ctx, q, id, assignee).Scan(
		&d.ID, &d.Name, &d.Amount, &d.Currency, &d.OwnerEmail, &d.Assignee,
		&d.Status, &d.TargetDate, &d.SyncedAt, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("set assignee: %w", err)
	}
	return &d, nil
}

// SetStatus moves the deal through the review workflow.
func (r *DealRepository) SetStatus(ctx context.Context, id string, s stage.DealStatus) (*domain.Deal, error) {
	if !stage.ValidStatus(s) {
		return nil, domain.ErrInvalidStatus
	}

	q := `
UPDATE deals
SET status = $2, updated_at = now()
WHERE id = $1
RETURNING ` + dealColumns + `;`

	var d domain.Deal
	err := r.db.QueryRow(ctx, q, id, string(s)).Scan(
		&d.ID, &d.Name, &d.Amount, &d.Currency, &d.OwnerEmail, &d.Assignee,
		&d.Status, &d.TargetDate, &d.SyncedAt, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("set status: %w", err)
	}
	return &d, nil
}
