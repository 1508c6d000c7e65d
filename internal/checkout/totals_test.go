package checkout

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/types"
)

func cartWith(t *testing.T, lines ...[2]int64) cart.Cart {
	t.Helper()
	c := cart.Cart{}
	for i, line := range lines {
		var ok bool
		c, ok = c.Add(cart.Product{
			ID:    types.ID(string(rune('a' + i))),
			Name:  "item",
			Price: decimal.NewFromInt(line[0]),
			Stock: 100,
		}, int(line[1]))
		require.True(t, ok)
	}
	return c
}

func TestComputeExample(t *testing.T) {
	t.Parallel()

	totals := DefaultPolicy().Compute(cartWith(t, [2]int64{5000, 2}, [2]int64{4000, 1}))
	assert.Equal(t, "14000", totals.Subtotal.String())
	assert.Equal(t, "100", totals.ShippingCharge.String())
	assert.Equal(t, "14100", totals.GrandTotal.String())
}

func TestComputeShippingBoundary(t *testing.T) {
	t.Parallel()

	cases := []struct {
		subtotal int64
		shipping string
	}{
		{subtotal: 14999, shipping: "100"},
		{subtotal: 15000, shipping: "0"},
		{subtotal: 15001, shipping: "0"},
	}
	for _, tc := range cases {
		totals := DefaultPolicy().Compute(cartWith(t, [2]int64{tc.subtotal, 1}))
		assert.Equal(t, tc.shipping, totals.ShippingCharge.String(), "subtotal %d", tc.subtotal)
		assert.True(t, totals.GrandTotal.Equal(totals.Subtotal.Add(totals.ShippingCharge)))
	}
}

func TestComputeIsDeterministicWithFractionalPrices(t *testing.T) {
	t.Parallel()

	c := cart.Cart{}
	for i := 0; i < 10; i++ {
		c, _ = c.Add(cart.Product{ID: types.ID(string(rune('a' + i))), Price: decimal.RequireFromString("0.10"), Stock: 1}, 1)
	}
	first := DefaultPolicy().Compute(c)
	second := DefaultPolicy().Compute(c)
	assert.Equal(t, "1", first.Subtotal.String())
	assert.True(t, first.GrandTotal.Equal(second.GrandTotal))
}

func TestPolicyFromConfig(t *testing.T) {
	t.Parallel()

	policy, err := PolicyFromConfig(config.CheckoutConfig{FreeShippingThreshold: "500", FlatShippingRate: "25.5"})
	require.NoError(t, err)
	totals := policy.Compute(cartWith(t, [2]int64{499, 1}))
	assert.Equal(t, "524.5", totals.GrandTotal.String())

	_, err = PolicyFromConfig(config.CheckoutConfig{FreeShippingThreshold: "lots", FlatShippingRate: "1"})
	assert.Error(t, err)
}
