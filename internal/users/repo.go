package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sowdesk/sowdesk-backend/internal/stage"
)

var ErrNotFound = errors.New("user not found")

// User is a dashboard user mirrored from the external user pool on first login.
type User struct {
	ID          string     `json:"id"`
	Subject     string     `json:"subject"`
	Email       string     `json:"email"`
	DisplayName string     `json:"display_name"`
	Role        stage.Role `json:"role"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

type UpsertUser struct {
	Subject     string
	Email       string
	DisplayName string
	Role        stage.Role
}

// EnsureUser inserts or refreshes the row for the authenticated subject.
// Role is taken from the token on first sight only; later changes go
// through SetRole so an admin decision is not overwritten by a stale claim.
func (r *Repo) EnsureUser(ctx context.Context, u UpsertUser) (string, error) {
	if u.Subject == "" {
		return "", fmt.Errorf("subject required")
	}
	if u.Role == "" {
		u.Role = stage.RoleAccountExecutive
	}

	const q = `
insert into users (subject, email, display_name, role, updated_at)
values ($1, nullif($2,''), nullif($3,''), $4, now())
on conflict (subject) do update
set
  email = coalesce(excluded.email, users.email),
  display_name = coalesce(excluded.display_name, users.display_name),
  updated_at = now()
returning id::text;
`
	var id string
	if err := r.db.QueryRow(ctx, q, u.Subject, u.Email, u.DisplayName, string(u.Role)).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

// List returns all users ordered by display name.
func (r *Repo) List(ctx context.Context) ([]User, error) {
	const q = `
select id::text, subject, coalesce(email,''), coalesce(display_name,''), role, created_at, updated_at
from users
order by display_name nulls last, email;
`
	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]User, 0, 16)
	for rows.Next() {
		var u User
		var role string
		if err := rows.Scan(&u.ID, &u.Subject, &u.Email, &u.DisplayName, &role, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		u.Role = stage.Role(role)
		out = append(out, u)
	}
	return out, rows.Err()
}

// Get returns the user for the given subject.
func (r *Repo) Get(ctx context.Context, subject string) (*User, error) {
	const q = `
select id::text, subject, coalesce(email,''), coalesce(display_name,''), role, created_at, updated_at
from users
where subject = $1;
`
	var u User
	var role string
	err := r.db.QueryRow(ctx, q, subject).
		Scan(&u.ID, &u.Subject, &u.Email, &u.DisplayName, &role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	u.Role = stage.Role(role)
	return &u, nil
}

// SetRole changes a user's dashboard role.
func (r *Repo) SetRole(ctx context.Context, subject string, role stage.Role) error {
	const q = `
update users
set role = $2, updated_at = now()
where subject = $1;
`
	tag, err := r.db.Exec(ctx, q, subject, string(role))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
