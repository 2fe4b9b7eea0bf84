package representative

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/finveiculos/painel-representantes/internal/db"
	"github.com/finveiculos/painel-representantes/internal/util"
)

const (
	emailConstraint          = "representatives_email_key"
	commissionCodeConstraint = "representatives_commission_code_key"
)

const representativeColumns = `r.id, r.name, r.email, r.phone, r.cnpj, r.company_name, r.point_of_sale, r.password_hash,
        r.status, r.rejection_reason, r.commission_code, r.commission_plan_id, r.created_at, r.updated_at`

const documentColumns = `id, representative_id, doc_type, status, file_url, file_key, rejection_reason, uploaded_at, reviewed_at, created_at`

const selectWithTotals = `
        SELECT ` + representativeColumns + `,
            COALESCE(c.contracts_count, 0), COALESCE(c.total_sales, 0)
        FROM representatives r
        LEFT JOIN (
            SELECT representative_id,
                COUNT(*) AS contracts_count,
                SUM(financed_amount) FILTER (WHERE status IN ('approved', 'paid')) AS total_sales
            FROM contracts
            WHERE representative_id IS NOT NULL
            GROUP BY representative_id
        ) c ON c.representative_id = r.id`

// Repository provê acesso às tabelas de representantes e documentos.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository cria instância do repositório.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create insere o representante. Email duplicado vira ErrDuplicateEmail.
func (r *Repository) Create(ctx context.Context, rep Representative) (*Representative, error) {
	const query = `
        INSERT INTO representatives AS r (id, name, email, phone, cnpj, company_name, point_of_sale, password_hash,
            status, commission_code, commission_plan_id)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        RETURNING ` + representativeColumns

	row := r.pool.QueryRow(ctx, query,
		rep.ID,
		rep.Name,
		rep.Email,
		rep.Phone,
		rep.CNPJ,
		rep.CompanyName,
		rep.PointOfSale,
		rep.PasswordHash,
		rep.Status,
		rep.CommissionCode,
		rep.CommissionPlanID,
	)

	created, err := scanRepresentative(row)
	if err != nil {
		return nil, mapWriteError(err)
	}
	return created, nil
}

// Get busca o representante com os totais derivados dos contratos.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*Representative, error) {
	row := r.pool.QueryRow(ctx, selectWithTotals+` WHERE r.id = $1`, id)
	return scanWithTotals(row)
}

// GetByEmail busca pelo email normalizado.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*Representative, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+representativeColumns+` FROM representatives r WHERE r.email = $1`, email)
	return scanRepresentative(row)
}

// List lista representantes com filtros de status e busca textual.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Representative, error) {
	var (
		clauses []string
		args    []any
		idx     = 1
	)

	if len(filter.Status) > 0 {
		statuses := make([]string, len(filter.Status))
		for i, s := range filter.Status {
			statuses[i] = string(s)
		}
		clauses = append(clauses, fmt.Sprintf("r.status = ANY($%d)", idx))
		args = append(args, statuses)
		idx++
	}

	if search := strings.TrimSpace(filter.Search); search != "" {
		clause := fmt.Sprintf("r.name ILIKE $%d OR r.email ILIKE $%d OR r.company_name ILIKE $%d", idx, idx, idx)
		args = append(args, "%"+search+"%")
		idx++
		if digits := util.DigitsOnly(search); digits != "" {
			clause += fmt.Sprintf(" OR r.cnpj LIKE $%d", idx)
			args = append(args, "%"+digits+"%")
			idx++
		}
		clauses = append(clauses, "("+clause+")")
	}

	query := selectWithTotals
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

	query += fmt.Sprintf(" ORDER BY r.created_at DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reps := []Representative{}
	for rows.Next() {
		rep, err := scanWithTotals(rows)
		if err != nil {
			return nil, err
		}
		reps = append(reps, *rep)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return reps, nil
}

// UpdateProfile grava somente os campos presentes no patch. Última escrita vence.
func (r *Repository) UpdateProfile(ctx context.Context, id uuid.UUID, patch ProfilePatch) (*Representative, error) {
	setParts := []string{}
	args := []any{}
	idx := 1

	add := func(column string, value *string) {
		if value == nil {
			return
		}
		setParts = append(setParts, fmt.Sprintf("%s = $%d", column, idx))
		args = append(args, *value)
		idx++
	}
	add("name", patch.Name)
	add("email", patch.Email)
	add("phone", patch.Phone)
	add("cnpj", patch.CNPJ)
	add("company_name", patch.CompanyName)
	add("point_of_sale", patch.PointOfSale)

	if len(setParts) == 0 {
		return r.Get(ctx, id)
	}

	setParts = append(setParts, "updated_at = now()")

	args = append(args, id)
	query := fmt.Sprintf(`
        UPDATE representatives AS r
        SET %s
        WHERE r.id = $%d
        RETURNING %s`, strings.Join(setParts, ", "), idx, representativeColumns)

	updated, err := scanRepresentative(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, mapWriteError(err)
	}
	return updated, nil
}

// UpdatePassword troca o hash de senha.
func (r *Repository) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE representatives SET password_hash = $2, updated_at = now() WHERE id = $1`, id, hash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// TransitionStatus troca o status somente se ele ainda for change.From.
// O código de comissão é preenchido apenas quando ausente.
func (r *Repository) TransitionStatus(ctx context.Context, change StatusChange) (*Representative, error) {
	const query = `
        UPDATE representatives AS r
        SET status = $3,
            rejection_reason = $4,
            commission_code = COALESCE(r.commission_code, NULLIF($5, '')),
            updated_at = now()
        WHERE r.id = $1 AND r.status = $2
        RETURNING ` + representativeColumns

	row := r.pool.QueryRow(ctx, query, change.ID, change.From, change.To, change.RejectionReason, change.CommissionCode)
	updated, err := scanRepresentative(row)
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, mapWriteError(err)
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM representatives WHERE id = $1)`, change.ID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}
	return nil, ErrStatusConflict
}

// PromoteIfComplete ativa o representante em um único UPDATE condicional que
// confere os quatro documentos aprovados e o status atual.
func (r *Repository) PromoteIfComplete(ctx context.Context, id uuid.UUID, commissionCode string) (complete, promoted bool, err error) {
	const query = `
        WITH docs AS (
            SELECT COUNT(DISTINCT doc_type) AS approved
            FROM representative_documents
            WHERE representative_id = $1 AND status = 'approved' AND doc_type = ANY($2)
        ), promoted AS (
            UPDATE representatives AS r
            SET status = 'active',
                rejection_reason = NULL,
                commission_code = COALESCE(r.commission_code, $3),
                updated_at = now()
            FROM docs
            WHERE r.id = $1
              AND docs.approved = $4
              AND r.status NOT IN ('active', 'cancelled')
            RETURNING r.id
        )
        SELECT
            EXISTS(SELECT 1 FROM representatives WHERE id = $1),
            (SELECT approved FROM docs) = $4,
            EXISTS(SELECT 1 FROM promoted)
    `

	types := RequiredDocTypes()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}

	var found bool
	err = r.pool.QueryRow(ctx, query, id, names, commissionCode, int64(len(names))).Scan(&found, &complete, &promoted)
	if err != nil {
		return false, false, mapWriteError(err)
	}
	if !found {
		return false, false, ErrNotFound
	}
	return complete, promoted, nil
}

// SetCommissionPlan vincula ou remove o plano de comissão.
func (r *Repository) SetCommissionPlan(ctx context.Context, id uuid.UUID, planID *uuid.UUID) (*Representative, error) {
	const query = `
        UPDATE representatives AS r
        SET commission_plan_id = $2, updated_at = now()
        WHERE r.id = $1
        RETURNING ` + representativeColumns

	updated, err := scanRepresentative(r.pool.QueryRow(ctx, query, id, planID))
	if err != nil {
		return nil, mapWriteError(err)
	}
	return updated, nil
}

// CommissionPlanID devolve o plano vinculado ao representante.
func (r *Repository) CommissionPlanID(ctx context.Context, id uuid.UUID) (*uuid.UUID, error) {
	var planID *uuid.UUID
	err := r.pool.QueryRow(ctx, `SELECT commission_plan_id FROM representatives WHERE id = $1`, id).Scan(&planID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return planID, nil
}

// Delete remove o representante. Contratos ainda vinculados bloqueiam via FK.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM representatives WHERE id = $1`, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return &HasActiveContractsError{}
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// EnsureDocumentPlaceholders cria registros pendentes para os tipos ausentes.
func (r *Repository) EnsureDocumentPlaceholders(ctx context.Context, id uuid.UUID) error {
	const query = `
        INSERT INTO representative_documents (id, representative_id, doc_type)
        SELECT gen_random_uuid(), $1, t
        FROM unnest($2::text[]) AS t
        ON CONFLICT ON CONSTRAINT representative_documents_type_key DO NOTHING
    `

	types := RequiredDocTypes()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}

	if _, err := r.pool.Exec(ctx, query, id, names); err != nil {
		if db.IsForeignKeyViolation(err) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// ListDocuments devolve os documentos do representante.
func (r *Repository) ListDocuments(ctx context.Context, id uuid.UUID) ([]Document, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+documentColumns+` FROM representative_documents WHERE representative_id = $1 ORDER BY doc_type`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return docs, nil
}

// GetDocument busca um documento pelo ID.
func (r *Repository) GetDocument(ctx context.Context, id uuid.UUID) (*Document, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+documentColumns+` FROM representative_documents WHERE id = $1`, id)
	return scanDocument(row)
}

// UpsertDocument grava o arquivo como pendente e limpa o motivo de rejeição.
// Devolve a chave do arquivo substituído, quando havia.
func (r *Repository) UpsertDocument(ctx context.Context, repID uuid.UUID, docType DocType, fileURL, fileKey string) (*Document, *string, error) {
	var (
		doc      *Document
		previous *string
	)

	err := db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
            SELECT file_key FROM representative_documents
            WHERE representative_id = $1 AND doc_type = $2
            FOR UPDATE`, repID, docType).Scan(&previous)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return err
		}

		const upsert = `
            INSERT INTO representative_documents (id, representative_id, doc_type, status, file_url, file_key, uploaded_at)
            VALUES ($1, $2, $3, 'pending', $4, $5, now())
            ON CONFLICT ON CONSTRAINT representative_documents_type_key DO UPDATE
            SET status = 'pending',
                file_url = EXCLUDED.file_url,
                file_key = EXCLUDED.file_key,
                rejection_reason = NULL,
                uploaded_at = now(),
                reviewed_at = NULL
            RETURNING ` + documentColumns

		doc, err = scanDocument(tx.QueryRow(ctx, upsert, uuid.New(), repID, docType, fileURL, fileKey))
		return err
	})
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	return doc, previous, nil
}

// ReviewDocument registra aprovação ou rejeição.
func (r *Repository) ReviewDocument(ctx context.Context, id uuid.UUID, status DocStatus, reason *string) (*Document, error) {
	const query = `
        UPDATE representative_documents
        SET status = $2, rejection_reason = $3, reviewed_at = now()
        WHERE id = $1
        RETURNING ` + documentColumns

	return scanDocument(r.pool.QueryRow(ctx, query, id, status, reason))
}

func mapWriteError(err error) error {
	switch {
	case db.IsUniqueViolation(err, emailConstraint):
		return ErrDuplicateEmail
	case db.IsUniqueViolation(err, commissionCodeConstraint):
		return ErrCommissionCodeTaken
	case db.IsForeignKeyViolation(err):
		return ErrPlanNotFound
	}
	return err
}

func scanRepresentative(row pgx.Row) (*Representative, error) {
	var rep Representative
	if err := row.Scan(representativeDest(&rep)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rep, nil
}

func scanWithTotals(row pgx.Row) (*Representative, error) {
	var (
		rep   Representative
		count int
	)
	rep.TotalSales = new(decimal.Decimal)
	dest := append(representativeDest(&rep), &count, rep.TotalSales)
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	rep.ContractsCount = &count
	return &rep, nil
}

func representativeDest(rep *Representative) []any {
	return []any{
		&rep.ID,
		&rep.Name,
		&rep.Email,
		&rep.Phone,
		&rep.CNPJ,
		&rep.CompanyName,
		&rep.PointOfSale,
		&rep.PasswordHash,
		&rep.Status,
		&rep.RejectionReason,
		&rep.CommissionCode,
		&rep.CommissionPlanID,
		&rep.CreatedAt,
		&rep.UpdatedAt,
	}
}

func scanDocument(row pgx.Row) (*Document, error) {
	var doc Document
	if err := row.Scan(
		&doc.ID,
		&doc.RepresentativeID,
		&doc.Type,
		&doc.Status,
		&doc.FileURL,
		&doc.FileKey,
		&doc.RejectionReason,
		&doc.UploadedAt,
		&doc.ReviewedAt,
		&doc.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}
	return &doc, nil
}
