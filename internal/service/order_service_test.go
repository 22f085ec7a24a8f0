package service

import (
	"testing"

	"sizestock-service/internal/models"
	"sizestock-service/internal/store"

	"github.com/stretchr/testify/assert"
)

func TestValidateLines(t *testing.T) {
	t.Run("accepts valid lines", func(t *testing.T) {
		err := validateLines([]store.CheckoutLine{
			{ProductID: 1, Size: "M", Quantity: 2},
			{ProductID: 2, Size: "XL", Quantity: 1},
		})
		assert.NoError(t, err)
	})

	t.Run("rejects empty order", func(t *testing.T) {
		assert.Error(t, validateLines(nil))
	})

	t.Run("rejects zero quantity before any transaction", func(t *testing.T) {
		err := validateLines([]store.CheckoutLine{{ProductID: 1, Size: "M", Quantity: 0}})
		var invalid *models.InvalidQuantityError
		assert.ErrorAs(t, err, &invalid)
		assert.Equal(t, 0, invalid.Quantity)
	})

	t.Run("rejects negative quantity", func(t *testing.T) {
		err := validateLines([]store.CheckoutLine{{ProductID: 1, Size: "M", Quantity: -3}})
		var invalid *models.InvalidQuantityError
		assert.ErrorAs(t, err, &invalid)
	})

	t.Run("rejects unknown size", func(t *testing.T) {
		err := validateLines([]store.CheckoutLine{{ProductID: 1, Size: "XS", Quantity: 1}})
		var unavailable *models.SizeUnavailableError
		assert.ErrorAs(t, err, &unavailable)
		assert.Equal(t, "XS", unavailable.Size)
	})
}

func TestSortLinesLockOrder(t *testing.T) {
	lines := []store.CheckoutLine{
		{ProductID: 2, Size: "S", Quantity: 1},
		{ProductID: 1, Size: "XL", Quantity: 1},
		{ProductID: 1, Size: "M", Quantity: 1},
		{ProductID: 2, Size: "XXL", Quantity: 1},
	}

	sorted := store.SortLines(lines)

	assert.Equal(t, []store.CheckoutLine{
		{ProductID: 1, Size: "M", Quantity: 1},
		{ProductID: 1, Size: "XL", Quantity: 1},
		{ProductID: 2, Size: "S", Quantity: 1},
		{ProductID: 2, Size: "XXL", Quantity: 1},
	}, sorted)

	// input order is irrelevant: reversed input yields the same lock order
	reversed := make([]store.CheckoutLine, 0, len(lines))
	for i := len(lines) - 1; i >= 0; i-- {
		reversed = append(reversed, lines[i])
	}
	assert.Equal(t, sorted, store.SortLines(reversed))

	// the original slice is untouched
	assert.Equal(t, int64(2), lines[0].ProductID)
}

func TestInsufficientStockShortfall(t *testing.T) {
	err := &models.InsufficientStockError{ProductID: 7, Size: "L", Requested: 5, Available: 3}
	assert.Equal(t, 2, err.Shortfall())
	assert.Contains(t, err.Error(), "size L")
	assert.Contains(t, err.Error(), "requested=5")
}
