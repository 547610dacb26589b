package order

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReservationOrder(t *testing.T) {
	first := mustUUID(t, "11111111-0000-0000-0000-000000000000")
	second := mustUUID(t, "22222222-0000-0000-0000-000000000000")
	third := mustUUID(t, "33333333-0000-0000-0000-000000000000")

	items := []Item{
		{ProductID: third, Quantity: 1},
		{ProductID: first, Quantity: 2},
		{ProductID: second, Quantity: 3},
	}

	sorted := reservationOrder(items)

	require.Len(t, sorted, 3)
	for i := 1; i < len(sorted); i++ {
		assert.Negative(t, bytes.Compare(sorted[i-1].ProductID.Bytes(), sorted[i].ProductID.Bytes()),
			"reservations must run in ascending product-id order")
	}

	// The caller's slice keeps its original line order.
	assert.Equal(t, third, items[0].ProductID)
	assert.Equal(t, first, items[1].ProductID)
	assert.Equal(t, second, items[2].ProductID)
}

func TestReservationOrder_Empty(t *testing.T) {
	assert.Empty(t, reservationOrder(nil))
}
