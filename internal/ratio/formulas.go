package ratio

import (
	"math"

	"github.com/wonny/aegis-credit/internal/contracts"
)

// div returns num/den*scale, nil when either side is missing, the
// denominator is zero, or the result is not finite.
func div(num, den *float64, scale float64) *float64 {
	if num == nil || den == nil || *den == 0 {
		return nil
	}
	return finite(*num / *den * scale)
}

// growth returns (cur-prior)/|prior|*100
func growth(cur, prior *float64) *float64 {
	if cur == nil || prior == nil || *prior == 0 {
		return nil
	}
	return finite((*cur - *prior) / math.Abs(*prior) * 100)
}

// sub returns a-b when both exist
func sub(a, b *float64) *float64 {
	if a == nil || b == nil {
		return nil
	}
	return finite(*a - *b)
}

// addOpt returns base plus the optional extras (missing extras count as 0).
// A missing base yields nil.
func addOpt(base *float64, extras ...*float64) *float64 {
	if base == nil {
		return nil
	}
	v := *base
	for _, e := range extras {
		if e != nil {
			v += *e
		}
	}
	return finite(v)
}

// subOpt returns base minus the optional deduction
func subOpt(base, deduction *float64) *float64 {
	if base == nil {
		return nil
	}
	if deduction == nil {
		return finite(*base)
	}
	return finite(*base - *deduction)
}

// totalDebt sums short- and long-term borrowings; nil only when both are missing
func totalDebt(li *contracts.LineItems) *float64 {
	if li.ShortTermDebt == nil && li.LongTermDebt == nil {
		return nil
	}
	var v float64
	if li.ShortTermDebt != nil {
		v += *li.ShortTermDebt
	}
	if li.LongTermDebt != nil {
		v += *li.LongTermDebt
	}
	return &v
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
