package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"plain integer", "100", "100", true},
		{"two decimals", "19.99", "19.99", true},
		{"surrounding whitespace", "  42.50  ", "42.5", true},
		{"negative", "-5", "-5", true},
		{"empty", "", "0", false},
		{"whitespace only", "   ", "0", false},
		{"garbage", "abc", "0", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseAmount(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.True(t, dec(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestResolveRegular(t *testing.T) {
	t.Run("discount wins when positive", func(t *testing.T) {
		got := ResolveRegular(decPtr("80"), decPtr("100"))
		assert.True(t, dec("80").Equal(got))
	})

	t.Run("nil discount falls through to price", func(t *testing.T) {
		got := ResolveRegular(nil, decPtr("100"))
		assert.True(t, dec("100").Equal(got))
	})

	t.Run("zero discount falls through", func(t *testing.T) {
		got := ResolveRegular(decPtr("0"), decPtr("100"))
		assert.True(t, dec("100").Equal(got))
	})

	t.Run("negative discount falls through", func(t *testing.T) {
		got := ResolveRegular(decPtr("-1"), decPtr("100"))
		assert.True(t, dec("100").Equal(got))
	})

	t.Run("nothing positive yields zero", func(t *testing.T) {
		got := ResolveRegular(nil, nil)
		assert.True(t, got.IsZero())
	})
}

func TestResolveWholesale(t *testing.T) {
	t.Run("wholesale wins", func(t *testing.T) {
		got := ResolveWholesale(decPtr("60"), decPtr("80"), decPtr("100"))
		assert.True(t, dec("60").Equal(got))
	})

	t.Run("falls through to discount", func(t *testing.T) {
		got := ResolveWholesale(nil, decPtr("80"), decPtr("100"))
		assert.True(t, dec("80").Equal(got))
	})

	t.Run("falls through to regular", func(t *testing.T) {
		got := ResolveWholesale(nil, nil, decPtr("100"))
		assert.True(t, dec("100").Equal(got))
	})

	t.Run("zero wholesale falls through", func(t *testing.T) {
		got := ResolveWholesale(decPtr("0"), decPtr("80"), decPtr("100"))
		assert.True(t, dec("80").Equal(got))
	})

	t.Run("all missing yields zero", func(t *testing.T) {
		got := ResolveWholesale(nil, nil, nil)
		assert.True(t, got.IsZero())
	})
}

func TestFreight(t *testing.T) {
	tests := []struct {
		amount string
		want   string
	}{
		{"0", "0"},
		{"-10", "0"},
		{"0.99", "0"},
		{"1", "199"},
		{"500", "199"},
		{"1199.99", "199"},
		{"1200", "150"},
		{"1499.99", "150"},
		{"1500", "125"},
		{"2499.99", "125"},
		{"2500", "95"},
		{"2999.99", "95"},
		{"3000", "75"},
		{"3499.99", "75"},
		{"3500", "0"},
		{"10000", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			got := Freight(dec(tt.amount))
			assert.True(t, dec(tt.want).Equal(got), "Freight(%s) = %s, want %s", tt.amount, got, tt.want)
		})
	}
}

// Above the first tier the fee never increases as the subtotal grows.
func TestFreightNonIncreasing(t *testing.T) {
	amounts := []string{"1", "1200", "1500", "2500", "3000", "3500"}
	prev := Freight(dec(amounts[0]))
	for _, a := range amounts[1:] {
		fee := Freight(dec(a))
		require.True(t, fee.LessThanOrEqual(prev), "fee increased at %s", a)
		prev = fee
	}
}

func TestOrderShipping(t *testing.T) {
	assert.True(t, dec("50").Equal(OrderShipping(dec("0"))))
	assert.True(t, dec("50").Equal(OrderShipping(dec("500"))), "exactly at threshold is not free")
	assert.True(t, dec("0").Equal(OrderShipping(dec("500.01"))))
	assert.True(t, dec("0").Equal(OrderShipping(dec("600"))))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, "10.46", Round2(dec("10.455")).StringFixed(2))
	assert.Equal(t, "10.45", Round2(dec("10.454")).StringFixed(2))
	assert.Equal(t, "2.00", Round2(dec("2")).StringFixed(2))
}
