package fees

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultTiers())
	require.NoError(t, err)
	return e
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestTierForBoundaries(t *testing.T) {
	e := newTestEngine(t)

	cases := []struct {
		amount string
		tier   string
	}{
		{"0", "small"},
		{"15000", "small"},
		{"20000", "small"}, // exact upper bound stays in the lower tier
		{"20000.01", "medium"},
		{"50000", "medium"},
		{"100000", "medium"},
		{"100000.01", "large"},
		{"150000", "large"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.tier, e.TierFor(d(tc.amount)).Name, "amount %s", tc.amount)
	}
}

func TestTierForNegativePanics(t *testing.T) {
	e := newTestEngine(t)
	assert.Panics(t, func() { e.TierFor(d("-1")) })
}

func TestFeeFor(t *testing.T) {
	e := newTestEngine(t)

	cases := []struct {
		amount string
		fee    string
		net    string
	}{
		{"15000", "3000", "12000"},    // 20%
		{"50000", "7500", "42500"},    // 15%
		{"150000", "10500", "139500"}, // 7%
		{"20000", "4000", "16000"},    // boundary uses the 20% tier
		{"100000", "15000", "85000"},  // boundary uses the 15% tier
	}
	for _, tc := range cases {
		assert.True(t, e.FeeFor(d(tc.amount)).Equal(d(tc.fee)),
			"fee for %s: got %s want %s", tc.amount, e.FeeFor(d(tc.amount)), tc.fee)
		assert.True(t, e.NetFor(d(tc.amount)).Equal(d(tc.net)),
			"net for %s: got %s want %s", tc.amount, e.NetFor(d(tc.amount)), tc.net)
	}
}

func TestFeeForRoundsHalfUp(t *testing.T) {
	e := newTestEngine(t)
	// 0.125 * 20% = 0.025 -> 0.03 at the minor unit.
	assert.True(t, e.FeeFor(d("0.125")).Equal(d("0.03")))
}

func TestFeeForIsPure(t *testing.T) {
	e := newTestEngine(t)
	a := d("20000")
	assert.True(t, e.FeeFor(a).Equal(e.FeeFor(a)))
}

func TestTotalFeeForIsPerTransaction(t *testing.T) {
	e := newTestEngine(t)

	a, b := d("15000"), d("15000")
	total := e.TotalFeeFor([]decimal.Decimal{a, b})
	assert.True(t, total.Equal(e.FeeFor(a).Add(e.FeeFor(b))))

	// Aggregating first would straddle the 20000 boundary and undercharge.
	aggregate := e.FeeFor(a.Add(b))
	assert.False(t, total.Equal(aggregate))
	assert.True(t, total.Equal(d("6000")))
	assert.True(t, aggregate.Equal(d("4500")))
}

func TestNetPlusFeeEqualsAmount(t *testing.T) {
	e := newTestEngine(t)
	for _, s := range []string{"0", "0.01", "19999.99", "20000", "20000.01", "99999.99", "100000", "100000.01", "123456.78"} {
		a := d(s)
		assert.True(t, a.Equal(e.FeeFor(a).Add(e.NetFor(a))), "amount %s", s)
	}
}

func TestNewEngineRejectsBrokenTables(t *testing.T) {
	cap1 := d("100")
	cap2 := d("200")

	cases := []struct {
		name  string
		tiers []Tier
	}{
		{"empty", nil},
		{"not starting at zero", []Tier{{Name: "a", Min: d("1"), Percentage: d("10")}}},
		{"gap between tiers", []Tier{
			{Name: "a", Min: decimal.Zero, Max: &cap1, Percentage: d("10")},
			{Name: "b", Min: cap2, Max: nil, Percentage: d("5")},
		}},
		{"bounded last tier", []Tier{
			{Name: "a", Min: decimal.Zero, Max: &cap1, Percentage: d("10")},
			{Name: "b", Min: cap1, Max: &cap2, Percentage: d("5")},
		}},
		{"unbounded middle tier", []Tier{
			{Name: "a", Min: decimal.Zero, Max: nil, Percentage: d("10")},
			{Name: "b", Min: cap1, Max: nil, Percentage: d("5")},
		}},
		{"percentage above 100", []Tier{{Name: "a", Min: decimal.Zero, Max: nil, Percentage: d("101")}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewEngine(tc.tiers)
			assert.Error(t, err)
		})
	}
}
