package admin

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finveiculos/painel-representantes/internal/db"
)

// Repository fornece acesso aos administradores.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByEmail recupera administrador pelo e-mail.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*Administrator, error) {
	const query = `
        SELECT id, name, email, password_hash, active, last_login_at, created_at, updated_at
        FROM administrators
        WHERE email = $1
    `

	normalized := strings.ToLower(strings.TrimSpace(email))
	row := r.pool.QueryRow(ctx, query, normalized)
	return scanAdministrator(row)
}

// GetByID recupera administrador pelo ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Administrator, error) {
	const query = `
        SELECT id, name, email, password_hash, active, last_login_at, created_at, updated_at
        FROM administrators
        WHERE id = $1
    `

	row := r.pool.QueryRow(ctx, query, id)
	return scanAdministrator(row)
}

// List devolve todos os administradores.
func (r *Repository) List(ctx context.Context) ([]Administrator, error) {
	const query = `
        SELECT id, name, email, password_hash, active, last_login_at, created_at, updated_at
        FROM administrators
        ORDER BY created_at ASC
    `

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	admins := []Administrator{}
	for rows.Next() {
		a, err := scanAdministrator(rows)
		if err != nil {
			return nil, err
		}
		admins = append(admins, *a)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return admins, nil
}

// Create insere novo administrador.
func (r *Repository) Create(ctx context.Context, input CreateInput) (*Administrator, error) {
	const query = `
        INSERT INTO administrators (id, name, email, password_hash, active)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, name, email, password_hash, active, last_login_at, created_at, updated_at
    `

	row := r.pool.QueryRow(ctx, query,
		uuid.New(),
		strings.TrimSpace(input.Name),
		strings.ToLower(strings.TrimSpace(input.Email)),
		input.PasswordHash,
		input.Active,
	)

	created, err := scanAdministrator(row)
	if err != nil && db.IsUniqueViolation(err, "administrators_email_key") {
		return nil, ErrDuplicateEmail
	}
	return created, err
}

// UpdatePassword atualiza hash da senha.
func (r *Repository) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	const query = `
        UPDATE administrators SET password_hash = $2, updated_at = now() WHERE id = $1
    `

	tag, err := r.pool.Exec(ctx, query, id, hash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordLogin atualiza o último acesso.
func (r *Repository) RecordLogin(ctx context.Context, id uuid.UUID) error {
	const query = `UPDATE administrators SET last_login_at = now(), updated_at = now() WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanAdministrator(row pgx.Row) (*Administrator, error) {
	var a Administrator
	if err := row.Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.Active, &a.LastLoginAt, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}
