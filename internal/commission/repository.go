package commission

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finveiculos/painel-representantes/internal/db"
)

// Repository provê acesso às tabelas de planos e faixas de comissão.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository cria instância do repositório.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreatePlan insere um novo plano ativo.
func (r *Repository) CreatePlan(ctx context.Context, name string) (*Plan, error) {
	const query = `
        INSERT INTO commission_plans (id, name, active)
        VALUES ($1, $2, TRUE)
        RETURNING id, name, active, created_at, updated_at
    `

	row := r.pool.QueryRow(ctx, query, uuid.New(), strings.TrimSpace(name))
	return scanPlan(row)
}

// GetPlan busca o plano sem as faixas.
func (r *Repository) GetPlan(ctx context.Context, id uuid.UUID) (*Plan, error) {
	const query = `
        SELECT id, name, active, created_at, updated_at
        FROM commission_plans
        WHERE id = $1
    `

	row := r.pool.QueryRow(ctx, query, id)
	return scanPlan(row)
}

// ListPlans devolve todos os planos ordenados por nome.
func (r *Repository) ListPlans(ctx context.Context) ([]Plan, error) {
	const query = `
        SELECT id, name, active, created_at, updated_at
        FROM commission_plans
        ORDER BY name ASC
    `

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, *p)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return plans, nil
}

// UpdatePlan altera nome e estado do plano.
func (r *Repository) UpdatePlan(ctx context.Context, input UpdatePlanInput) (*Plan, error) {
	const query = `
        UPDATE commission_plans
        SET name = $2, active = $3, updated_at = now()
        WHERE id = $1
        RETURNING id, name, active, created_at, updated_at
    `

	row := r.pool.QueryRow(ctx, query, input.ID, strings.TrimSpace(input.Name), input.Active)
	return scanPlan(row)
}

// DeletePlan remove o plano; as faixas caem em cascata.
func (r *Repository) DeletePlan(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM commission_plans WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListRanges devolve as faixas do plano ordenadas pelo mínimo.
func (r *Repository) ListRanges(ctx context.Context, planID uuid.UUID) ([]CreditRange, error) {
	const query = `
        SELECT id, plan_id, min_amount, max_amount, percent
        FROM commission_ranges
        WHERE plan_id = $1
        ORDER BY min_amount ASC
    `

	rows, err := r.pool.Query(ctx, query, planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ranges := []CreditRange{}
	for rows.Next() {
		var cr CreditRange
		if err := rows.Scan(&cr.ID, &cr.PlanID, &cr.MinAmount, &cr.MaxAmount, &cr.Percent); err != nil {
			return nil, err
		}
		ranges = append(ranges, cr)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return ranges, nil
}

// ReplaceRanges substitui todas as faixas do plano em uma única transação.
func (r *Repository) ReplaceRanges(ctx context.Context, planID uuid.UUID, ranges []CreditRange) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM commission_plans WHERE id = $1 FOR UPDATE)`, planID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}

		if _, err := tx.Exec(ctx, `DELETE FROM commission_ranges WHERE plan_id = $1`, planID); err != nil {
			return err
		}

		batch := &pgx.Batch{}
		for _, cr := range ranges {
			batch.Queue(`INSERT INTO commission_ranges (id, plan_id, min_amount, max_amount, percent) VALUES ($1, $2, $3, $4, $5)`,
				cr.ID, planID, cr.MinAmount, cr.MaxAmount, cr.Percent)
		}
		if batch.Len() == 0 {
			return nil
		}
		results := tx.SendBatch(ctx, batch)
		for range ranges {
			if _, err := results.Exec(); err != nil {
				results.Close()
				return err
			}
		}
		return results.Close()
	})
}

func scanPlan(row pgx.Row) (*Plan, error) {
	var p Plan
	if err := row.Scan(&p.ID, &p.Name, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}
