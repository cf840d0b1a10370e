package fees

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// minorUnitPlaces is the number of decimal places of the currency minor unit.
const minorUnitPlaces = 2

// Tier is one contiguous amount range with its service fee percentage.
// Max is nil for the unbounded top tier. An amount exactly equal to Max
// belongs to this tier, not the next one.
type Tier struct {
	Name       string           `json:"name"`
	Min        decimal.Decimal  `json:"min_amount"`
	Max        *decimal.Decimal `json:"max_amount"`
	Percentage decimal.Decimal  `json:"fee_percentage"`
}

// Contains reports whether amount falls in this tier's range.
func (t Tier) Contains(amount decimal.Decimal) bool {
	if amount.LessThan(t.Min) {
		return false
	}
	return t.Max == nil || amount.LessThanOrEqual(*t.Max)
}

// Engine maps a monetary amount to the platform service fee using a
// progressive tier table. The table is validated once at construction and
// never mutated afterwards, so an Engine is safe for concurrent use.
type Engine struct {
	tiers []Tier
}

// NewEngine validates that the tiers partition [0, inf) into disjoint,
// contiguous ranges and returns an engine over them. A broken table is a
// deployment mistake and must stop the process at startup.
func NewEngine(tiers []Tier) (*Engine, error) {
	if len(tiers) == 0 {
		return nil, fmt.Errorf("fees: tier table is empty")
	}
	if !tiers[0].Min.IsZero() {
		return nil, fmt.Errorf("fees: first tier %q must start at 0, starts at %s", tiers[0].Name, tiers[0].Min)
	}
	for i, t := range tiers {
		if t.Percentage.IsNegative() || t.Percentage.GreaterThan(decimal.NewFromInt(100)) {
			return nil, fmt.Errorf("fees: tier %q percentage %s out of range [0,100]", t.Name, t.Percentage)
		}
		last := i == len(tiers)-1
		if last {
			if t.Max != nil {
				return nil, fmt.Errorf("fees: last tier %q must be unbounded, has max %s", t.Name, t.Max)
			}
			continue
		}
		if t.Max == nil {
			return nil, fmt.Errorf("fees: tier %q is unbounded but not last", t.Name)
		}
		if t.Max.LessThanOrEqual(t.Min) {
			return nil, fmt.Errorf("fees: tier %q range [%s, %s] is empty", t.Name, t.Min, t.Max)
		}
		if !tiers[i+1].Min.Equal(*t.Max) {
			return nil, fmt.Errorf("fees: gap between tier %q (max %s) and tier %q (min %s)",
				t.Name, t.Max, tiers[i+1].Name, tiers[i+1].Min)
		}
	}
	cp := make([]Tier, len(tiers))
	copy(cp, tiers)
	return &Engine{tiers: cp}, nil
}

// TierFor returns the unique tier whose range contains amount. Negative
// amounts are rejected by the caller before money reaches the engine, so a
// negative here is a programming error and panics.
func (e *Engine) TierFor(amount decimal.Decimal) Tier {
	if amount.IsNegative() {
		panic(fmt.Sprintf("fees: negative amount %s", amount))
	}
	for _, t := range e.tiers {
		if t.Contains(amount) {
			return t
		}
	}
	// Unreachable: the constructor guarantees an exhaustive table.
	panic(fmt.Sprintf("fees: no tier for amount %s", amount))
}

// FeeFor computes the service fee for a single amount, rounded half-up to
// the currency minor unit.
func (e *Engine) FeeFor(amount decimal.Decimal) decimal.Decimal {
	t := e.TierFor(amount)
	return amount.Mul(t.Percentage).Div(decimal.NewFromInt(100)).Round(minorUnitPlaces)
}

// NetFor is the amount the seller keeps after the service fee.
func (e *Engine) NetFor(amount decimal.Decimal) decimal.Decimal {
	return amount.Sub(e.FeeFor(amount))
}

// TotalFeeFor sums FeeFor over each amount independently. Each transaction
// is tier-assigned on its own; fees are never computed on the aggregate.
func (e *Engine) TotalFeeFor(amounts []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(e.FeeFor(a))
	}
	return total
}

// Tiers returns a copy of the tier table.
func (e *Engine) Tiers() []Tier {
	cp := make([]Tier, len(e.tiers))
	copy(cp, e.tiers)
	return cp
}

// DefaultTiers is the platform's standard progressive fee table.
func DefaultTiers() []Tier {
	cap1 := decimal.NewFromInt(20000)
	cap2 := decimal.NewFromInt(100000)
	return []Tier{
		{Name: "small", Min: decimal.Zero, Max: &cap1, Percentage: decimal.NewFromInt(20)},
		{Name: "medium", Min: cap1, Max: &cap2, Percentage: decimal.NewFromInt(15)},
		{Name: "large", Min: cap2, Max: nil, Percentage: decimal.NewFromInt(7)},
	}
}
