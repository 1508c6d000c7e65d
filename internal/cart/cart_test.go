package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront/pkg/types"
)

func product(id string, price int64, stock int) Product {
	return Product{
		ID:    types.ID(id),
		Name:  "product " + id,
		Price: decimal.NewFromInt(price),
		Stock: stock,
	}
}

func TestAddRejectsQuantityAboveStock(t *testing.T) {
	t.Parallel()

	c, ok := Cart{}.Add(product("a", 100, 2), 3)
	assert.False(t, ok)
	assert.True(t, c.IsEmpty())
}

func TestAddMergesExistingLine(t *testing.T) {
	t.Parallel()

	c, ok := Cart{}.Add(product("a", 100, 5), 2)
	require.True(t, ok)
	c, ok = c.Add(product("a", 100, 5), 3)
	require.True(t, ok)

	item, found := c.Item("a")
	require.True(t, found)
	assert.Equal(t, 5, item.Quantity)
	assert.Equal(t, 1, c.Len())

	same, ok := c.Add(product("a", 100, 5), 1)
	assert.False(t, ok)
	assert.Equal(t, c, same)
}

func TestAddRefreshesStockSnapshot(t *testing.T) {
	t.Parallel()

	c, _ := Cart{}.Add(product("a", 100, 3), 1)
	c, ok := c.Add(product("a", 120, 10), 1)
	require.True(t, ok)

	item, _ := c.Item("a")
	assert.Equal(t, 10, item.AvailableStock)
	assert.True(t, item.UnitPrice.Equal(decimal.NewFromInt(120)))
}

func TestAddRejectsNonPositiveQuantity(t *testing.T) {
	t.Parallel()

	for _, qty := range []int{0, -1} {
		c, ok := Cart{}.Add(product("a", 100, 5), qty)
		assert.False(t, ok)
		assert.True(t, c.IsEmpty())
	}
}

func TestAddDoesNotMutateReceiver(t *testing.T) {
	t.Parallel()

	base, _ := Cart{}.Add(product("a", 100, 5), 1)
	_, _ = base.Add(product("a", 100, 5), 2)
	_, _ = base.Add(product("b", 100, 5), 2)

	item, _ := base.Item("a")
	assert.Equal(t, 1, item.Quantity)
	assert.Equal(t, 1, base.Len())
}

func TestUpdateQuantityBounds(t *testing.T) {
	t.Parallel()

	c, _ := Cart{}.Add(product("a", 100, 4), 1)

	cases := []struct {
		name string
		id   types.ID
		qty  int
		ok   bool
	}{
		{name: "zero", id: "a", qty: 0, ok: false},
		{name: "above stock", id: "a", qty: 5, ok: false},
		{name: "absent", id: "z", qty: 1, ok: false},
		{name: "at stock", id: "a", qty: 4, ok: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			next, ok := c.UpdateQuantity(tc.id, tc.qty)
			assert.Equal(t, tc.ok, ok)
			item, _ := next.Item("a")
			if tc.ok {
				assert.Equal(t, tc.qty, item.Quantity)
			} else {
				assert.Equal(t, 1, item.Quantity)
			}
		})
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	t.Parallel()

	c, _ := Cart{}.Add(product("a", 100, 4), 1)
	c, _ = c.Add(product("b", 50, 4), 2)

	once := c.Remove("a")
	twice := once.Remove("a")
	assert.Equal(t, once, twice)
	assert.Equal(t, []types.ID{"b"}, ids(twice))
}

func TestSubtotalExample(t *testing.T) {
	t.Parallel()

	c, _ := Cart{}.Add(product("a", 5000, 10), 2)
	c, _ = c.Add(product("b", 4000, 10), 1)

	assert.True(t, c.Subtotal().Equal(decimal.NewFromInt(14000)), c.Subtotal().String())
	assert.Equal(t, 3, c.TotalQuantity())

	c, _ = c.UpdateQuantity("b", 2)
	assert.True(t, c.Subtotal().Equal(decimal.NewFromInt(18000)))
}

func TestQuantityNeverExceedsStock(t *testing.T) {
	t.Parallel()

	c := Cart{}
	p := product("a", 10, 3)
	for i := 0; i < 10; i++ {
		c, _ = c.Add(p, 1)
		c, _ = c.UpdateQuantity("a", i)
		for _, item := range c.Items() {
			require.LessOrEqual(t, item.Quantity, item.AvailableStock)
		}
	}
}

func TestItemsKeepInsertionOrder(t *testing.T) {
	t.Parallel()

	c := Cart{}
	for _, id := range []string{"c", "a", "b"} {
		c, _ = c.Add(product(id, 1, 1), 1)
	}
	assert.Equal(t, []types.ID{"c", "a", "b"}, ids(c))
}

func ids(c Cart) []types.ID {
	out := make([]types.ID, 0, c.Len())
	for _, item := range c.Items() {
		out = append(out, item.ProductID)
	}
	return out
}
