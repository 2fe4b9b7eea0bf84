package commission

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("plano de comissão não encontrado")
	ErrNoMatchingRange   = errors.New("nenhuma faixa de crédito cobre o valor informado")
	ErrOverlappingRanges = errors.New("faixas de crédito sobrepostas")
	ErrInvalidRange      = errors.New("faixa de crédito inválida")
	ErrPlanInactive      = errors.New("plano de comissão inativo")
)

var hundred = decimal.NewFromInt(100)

// Plan agrupa as faixas de crédito usadas para definir o percentual de comissão.
type Plan struct {
	ID        uuid.UUID     `json:"id"`
	Name      string        `json:"name"`
	Active    bool          `json:"active"`
	Ranges    []CreditRange `json:"ranges"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// CreditRange cobre valores financiados em [MinAmount, MaxAmount).
// MaxAmount nulo indica faixa aberta.
type CreditRange struct {
	ID        uuid.UUID           `json:"id"`
	PlanID    uuid.UUID           `json:"plan_id"`
	MinAmount decimal.Decimal     `json:"min_amount"`
	MaxAmount decimal.NullDecimal `json:"max_amount"`
	Percent   decimal.Decimal     `json:"percent"`
}

// Contains informa se o valor cai dentro da faixa.
func (r CreditRange) Contains(amount decimal.Decimal) bool {
	if amount.LessThan(r.MinAmount) {
		return false
	}
	return !r.MaxAmount.Valid || amount.LessThan(r.MaxAmount.Decimal)
}

// UpdatePlanInput altera nome e estado do plano.
type UpdatePlanInput struct {
	ID     uuid.UUID
	Name   string
	Active bool
}

// CommissionAmount calcula o valor da comissão para o percentual informado.
func CommissionAmount(financed, percent decimal.Decimal) decimal.Decimal {
	return financed.Mul(percent).Div(hundred).Round(2)
}
