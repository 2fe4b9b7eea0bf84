package commission

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// NormalizeRanges ordena as faixas e garante que não haja sobreposição.
func NormalizeRanges(ranges []CreditRange) ([]CreditRange, error) {
	out := make([]CreditRange, len(ranges))
	copy(out, ranges)

	for i, r := range out {
		if r.MinAmount.IsNegative() {
			return nil, fmt.Errorf("%w: faixa %d com mínimo negativo", ErrInvalidRange, i+1)
		}
		if r.MaxAmount.Valid && !r.MaxAmount.Decimal.GreaterThan(r.MinAmount) {
			return nil, fmt.Errorf("%w: faixa %d com máximo menor ou igual ao mínimo", ErrInvalidRange, i+1)
		}
		if r.Percent.IsNegative() || r.Percent.GreaterThan(hundred) {
			return nil, fmt.Errorf("%w: faixa %d com percentual fora de 0-100", ErrInvalidRange, i+1)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].MinAmount.LessThan(out[j].MinAmount)
	})

	for i := 1; i < len(out); i++ {
		prev := out[i-1]
		if !prev.MaxAmount.Valid {
			return nil, fmt.Errorf("%w: faixa aberta deve ser a última", ErrOverlappingRanges)
		}
		if out[i].MinAmount.LessThan(prev.MaxAmount.Decimal) {
			return nil, fmt.Errorf("%w: %s < %s", ErrOverlappingRanges, out[i].MinAmount, prev.MaxAmount.Decimal)
		}
	}

	return out, nil
}

// FindPercent localiza o percentual aplicável ao valor.
func FindPercent(ranges []CreditRange, amount decimal.Decimal) (decimal.Decimal, error) {
	for _, r := range ranges {
		if r.Contains(amount) {
			return r.Percent, nil
		}
	}
	return decimal.Zero, ErrNoMatchingRange
}
