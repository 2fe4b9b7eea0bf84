package contract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finveiculos/painel-representantes/internal/db"
)

const contractColumns = `id, representative_id, client_name, client_document, vehicle, financed_amount,
        commission_percent, commission_amount, status, document_url, signature_url, created_at, updated_at`

// Repository provê acesso à tabela de contratos.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository cria instância do repositório.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create insere o contrato já com a comissão calculada.
func (r *Repository) Create(ctx context.Context, c Contract) (*Contract, error) {
	query := `
        INSERT INTO contracts (id, representative_id, client_name, client_document, vehicle, financed_amount,
            commission_percent, commission_amount, status)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING ` + contractColumns

	row := r.pool.QueryRow(ctx, query,
		c.ID,
		c.RepresentativeID,
		strings.TrimSpace(c.ClientName),
		strings.TrimSpace(c.ClientDocument),
		strings.TrimSpace(c.Vehicle),
		c.FinancedAmount,
		c.CommissionPercent,
		c.CommissionAmount,
		c.Status,
	)

	created, err := scanContract(row)
	if err != nil && db.IsForeignKeyViolation(err) {
		return nil, ErrOwnerNotFound
	}
	return created, err
}

// Get busca um contrato específico.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*Contract, error) {
	query := `SELECT ` + contractColumns + ` FROM contracts WHERE id = $1`

	row := r.pool.QueryRow(ctx, query, id)
	return scanContract(row)
}

// List lista contratos aplicando filtros simples.
func (r *Repository) List(ctx context.Context, filter Filter) ([]Contract, error) {
	base := `SELECT ` + contractColumns + ` FROM contracts`

	var (
		clauses []string
		args    []any
		idx     = 1
	)

	if filter.RepresentativeID != nil {
		clauses = append(clauses, fmt.Sprintf("representative_id = $%d", idx))
		args = append(args, *filter.RepresentativeID)
		idx++
	} else if filter.AdminOwned {
		clauses = append(clauses, "representative_id IS NULL")
	}

	if len(filter.Status) > 0 {
		clauses = append(clauses, fmt.Sprintf("status = ANY($%d)", idx))
		args = append(args, filter.Status)
		idx++
	}

	query := base
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, offset)

	return r.query(ctx, query, args...)
}

// ListByOwner devolve todos os contratos do representante, sem paginação.
func (r *Repository) ListByOwner(ctx context.Context, representativeID uuid.UUID) ([]Contract, error) {
	query := `SELECT ` + contractColumns + ` FROM contracts WHERE representative_id = $1 ORDER BY created_at ASC`
	return r.query(ctx, query, representativeID)
}

// UpdateStatus altera o status do contrato.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*Contract, error) {
	query := `
        UPDATE contracts
        SET status = $2, updated_at = now()
        WHERE id = $1
        RETURNING ` + contractColumns

	row := r.pool.QueryRow(ctx, query, id, status)
	return scanContract(row)
}

// Reassign troca o responsável pelo contrato. owner nulo devolve o contrato à administração.
func (r *Repository) Reassign(ctx context.Context, id uuid.UUID, owner *uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `UPDATE contracts SET representative_id = $2, updated_at = now() WHERE id = $1`, id, owner)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return ErrOwnerNotFound
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete remove o contrato.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM contracts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetFileURL grava a URL pública do documento ou da assinatura.
func (r *Repository) SetFileURL(ctx context.Context, id uuid.UUID, kind FileKind, url string) (*Contract, error) {
	column := "document_url"
	if kind == FileSignature {
		column = "signature_url"
	}

	query := fmt.Sprintf(`
        UPDATE contracts
        SET %s = $2, updated_at = now()
        WHERE id = $1
        RETURNING %s`, column, contractColumns)

	row := r.pool.QueryRow(ctx, query, id, url)
	return scanContract(row)
}

func (r *Repository) query(ctx context.Context, query string, args ...any) ([]Contract, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contracts := []Contract{}
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, err
		}
		contracts = append(contracts, *c)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return contracts, nil
}

func scanContract(row pgx.Row) (*Contract, error) {
	var c Contract
	if err := row.Scan(
		&c.ID,
		&c.RepresentativeID,
		&c.ClientName,
		&c.ClientDocument,
		&c.Vehicle,
		&c.FinancedAmount,
		&c.CommissionPercent,
		&c.CommissionAmount,
		&c.Status,
		&c.DocumentURL,
		&c.SignatureURL,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}
