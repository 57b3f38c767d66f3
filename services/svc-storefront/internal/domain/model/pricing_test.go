package model_test

import (
	"testing"

	"github.com/architeacher/storefront/services/svc-storefront/internal/domain/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestAddon_IsFreeAt(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		threshold string
		running   string
		expected  bool
	}{
		{name: "running above threshold", threshold: "100.00", running: "120.00", expected: true},
		{name: "running equal to threshold", threshold: "100.00", running: "100", expected: true},
		{name: "running below threshold", threshold: "100.00", running: "99.99", expected: false},
		{name: "negative threshold never free", threshold: "-1", running: "1000000", expected: false},
		{name: "zero threshold always free", threshold: "0", running: "0", expected: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			addon := model.Addon{Price: dec("20.00"), FreeAbovePrice: dec(tc.threshold)}

			require.Equal(t, tc.expected, addon.IsFreeAt(dec(tc.running)))
		})
	}
}

func TestPriceQuote(t *testing.T) {
	t.Parallel()

	option := func(delta string) model.Option {
		return model.Option{ID: model.NewID(), AdditionalPrice: dec(delta)}
	}

	addon := func(price, threshold string) model.Addon {
		return model.Addon{ID: model.NewID(), Price: dec(price), FreeAbovePrice: dec(threshold)}
	}

	cases := []struct {
		name     string
		base     string
		fold     func(q *model.PriceQuote)
		expected string
	}{
		{
			name:     "base price only",
			base:     "100.00",
			fold:     func(_ *model.PriceQuote) {},
			expected: "100.00",
		},
		{
			name: "option adds its delta",
			base: "100.00",
			fold: func(q *model.PriceQuote) {
				q.ApplyOption(option("15.00"))
			},
			expected: "115.00",
		},
		{
			name: "negative option discounts",
			base: "100.00",
			fold: func(q *model.PriceQuote) {
				q.ApplyOption(option("-30.00"))
			},
			expected: "70.00",
		},
		{
			name: "add-on waived when running price reached threshold",
			base: "100.00",
			fold: func(q *model.PriceQuote) {
				q.ApplyOption(option("20.00"))
				q.ApplyAddon(addon("20.00", "100.00"))
			},
			expected: "120.00",
		},
		{
			name: "add-on charged below threshold",
			base: "80.00",
			fold: func(q *model.PriceQuote) {
				q.ApplyAddon(addon("20.00", "100.00"))
			},
			expected: "100.00",
		},
		{
			name: "earlier add-on can unlock a later promotion",
			base: "80.00",
			fold: func(q *model.PriceQuote) {
				q.ApplyAddon(addon("25.00", "-1"))
				q.ApplyAddon(addon("10.00", "100.00"))
			},
			expected: "105.00",
		},
		{
			name: "same add-ons in reverse order both charged",
			base: "80.00",
			fold: func(q *model.PriceQuote) {
				q.ApplyAddon(addon("10.00", "100.00"))
				q.ApplyAddon(addon("25.00", "-1"))
			},
			expected: "115.00",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			quote := model.NewPriceQuote(dec(tc.base))
			tc.fold(quote)

			require.True(t, dec(tc.expected).Equal(quote.Total()), "expected %s, got %s", tc.expected, quote.Total())
			require.True(t, dec(tc.base).Equal(quote.Base()))
		})
	}
}

func TestPriceQuote_Steps(t *testing.T) {
	t.Parallel()

	opt := model.Option{ID: model.NewID(), AdditionalPrice: dec("20.00")}
	free := model.Addon{ID: model.NewID(), Price: dec("20.00"), FreeAbovePrice: dec("100.00")}

	quote := model.NewPriceQuote(dec("100.00"))
	quote.ApplyOption(opt)
	charged, isFree := quote.ApplyAddon(free)

	require.True(t, isFree)
	require.True(t, charged.IsZero())

	steps := quote.Steps()
	require.Len(t, steps, 2)

	require.Equal(t, model.StepOption, steps[0].Kind)
	require.Equal(t, opt.ID, steps[0].RefID)
	require.True(t, dec("120.00").Equal(steps[0].Running))

	require.Equal(t, model.StepAddon, steps[1].Kind)
	require.Equal(t, free.ID, steps[1].RefID)
	require.True(t, steps[1].Free)
	require.True(t, dec("120.00").Equal(steps[1].Running))

	steps[0].Kind = "mutated"
	require.Equal(t, model.StepOption, quote.Steps()[0].Kind)
}
