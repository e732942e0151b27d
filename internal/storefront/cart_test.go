package storefront

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"storefront-service/internal/domain"
)

func TestCart_AddUpsertsAndClampsQuantity(t *testing.T) {
	cart := NewCart()
	lamp := domain.Product{ID: 1, Name: "Lamp", Price: 100}
	mug := domain.Product{ID: 2, Name: "Mug", Price: 20}

	cart.Add(lamp, 2)
	cart.Add(mug, 0)
	cart.Add(lamp, 3)

	items := cart.Items()
	assert.Len(t, items, 2)
	assert.Equal(t, int64(1), items[0].ID)
	assert.Equal(t, int32(5), items[0].Quantity)
	assert.Equal(t, int32(1), items[1].Quantity)
	assert.Equal(t, int32(6), cart.Count())
}

func TestCart_UpdateQuantityFloorsAtOne(t *testing.T) {
	cart := NewCart()
	cart.Add(domain.Product{ID: 1}, 3)

	assert.True(t, cart.UpdateQuantity(1, -10))
	assert.Equal(t, int32(1), cart.Items()[0].Quantity)
	assert.True(t, cart.UpdateQuantity(1, 4))
	assert.Equal(t, int32(5), cart.Items()[0].Quantity)
	assert.False(t, cart.UpdateQuantity(99, 1))
}

func TestCart_RemoveAndClear(t *testing.T) {
	cart := NewCart()
	cart.Add(domain.Product{ID: 1}, 1)
	cart.Add(domain.Product{ID: 2}, 1)
	cart.Add(domain.Product{ID: 3}, 1)

	assert.True(t, cart.Remove(2))
	assert.False(t, cart.Remove(2))
	assert.Equal(t, []int64{1, 3}, []int64{cart.Items()[0].ID, cart.Items()[1].ID})

	cart.Clear()
	assert.True(t, cart.Empty())
	assert.Equal(t, int32(0), cart.Count())
}

func TestCart_ItemsIsACopy(t *testing.T) {
	cart := NewCart()
	cart.Add(domain.Product{ID: 1}, 1)

	items := cart.Items()
	items[0].Quantity = 50

	assert.Equal(t, int32(1), cart.Items()[0].Quantity)
}
