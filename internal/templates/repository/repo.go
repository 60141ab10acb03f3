package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/sowdesk/sowdesk-backend/internal/templates/domain"
)

// TemplateRepository provides persistence operations for SOW templates.
type TemplateRepository struct {
	db *sql.DB
}

// NewTemplateRepository creates a new template repository
func NewTemplateRepository(db *sql.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// Create inserts a new template with a generated public ID.
func (r *TemplateRepository) Create(ctx context.Context, name, variant, bodyKey string) (*domain.Template, error) {
	if name == "" {
		return nil, fmt.Errorf("name required")
	}
	if !domain.ValidVariant(variant) {
		return nil, domain.ErrInvalidVariant
	}

	for i := 0; i < 5; i++ {
		publicID, err := domain.NewPublicID("sowtpl")
		if err != nil {
			return nil, err
		}

		const q = `
INSERT INTO sow_templates (public_id, name, variant, body_key)
VALUES ($1, $2, $3, $4)
RETURNING public_id, name, variant, body_key, created_at, updated_at;
`
		var t domain.Template
		err = r.db.QueryRowContext(ctx, q, publicID, name, variant, bodyKey).
			Scan(&t.PublicID, &t.Name, &t.Variant, &t.BodyKey, &t.CreatedAt, &t.UpdatedAt)

		if err == nil {
			return &t, nil
		}

		// unique violation on public_id → retry
		var pgErr *pq.Error
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			continue
		}
		return nil, err
	}

	return nil, fmt.Errorf("failed to generate unique template id")
}

// List returns all non-deleted templates, optionally filtered by variant.
func (r *TemplateRepository) List(ctx context.Context, variant string) ([]domain.Template, error) {
	q := `
SELECT public_id, name, variant, body_key, created_at, updated_at
FROM sow_templates
WHERE deleted_at IS NULL
`
	args := []any{}
	if variant != "" {
		q += ` AND variant = $1`
		args = append(args, variant)
	}
	q += ` ORDER BY created_at DESC;`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Template, 0, 16)
	for rows.Next() {
		var t domain.Template
		if err := rows.Scan(&t.PublicID, &t.Name, &t.Variant, &t.BodyKey, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns a single non-deleted template by public ID.
func (r *TemplateRepository) Get(ctx context.Context, publicID string) (*domain.Template, error) {
	const q = `
SELECT public_id, name, variant, body_key, created_at, updated_at
FROM sow_templates
WHERE public_id = $1 AND deleted_at IS NULL;
`
	var t domain.Template
	err := r.db.QueryRowContext(ctx, q, publicID).
		Scan(&t.PublicID, &t.Name, &t.Variant, &t.BodyKey, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// Rename updates the template's name.
func (r *TemplateRepository) Rename(ctx context.Context, publicID, newName string) (*domain.Template, error) {
	const q = `
UPDATE sow_templates
SET name = $2, updated_at = now()
WHERE public_id = $1 AND deleted_at IS NULL
RETURNING public_id, name, variant, body_key, created_at, updated_at;
`
	var t domain.Template
	err := r.db.QueryRowContext(ctx, q, publicID, newName).
		Scan(&t.PublicID, &t.Name, &t.Variant, &t.BodyKey, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// SetBodyKey points the template at a newly uploaded body object.
func (r *TemplateRepository) SetBodyKey(ctx context.Context, publicID, bodyKey string) (*domain.Template, error) {
	const q = `
UPDATE sow_templates
SET body_key = $2, updated_at = now()
WHERE public_id = $1 AND deleted_at IS NULL
RETURNING public_id, name, variant, body_key, created_at, updated_at;
`
	var t domain.Template
	err := r.db.QueryRowContext(ctx, q, publicID, bodyKey).
		Scan(&t.PublicID, &t.Name, &t.Variant, &t.BodyKey, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// SoftDelete marks a template as deleted.
func (r *TemplateRepository) SoftDelete(ctx context.Context, publicID string) (bool, error) {
	const q = `
UPDATE sow_templates
SET deleted_at = now()
WHERE public_id = $1 AND deleted_at IS NULL;
`
	res, err := r.db.ExecContext(ctx, q, publicID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
