package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveStatus(t *testing.T) {
	assert.Equal(t, StatusOutOfStock, DeriveStatus(0))

	for stock := 1; stock <= 100; stock++ {
		assert.Equal(t, StatusInStock, DeriveStatus(stock))
	}
}

func TestSizeRankOrder(t *testing.T) {
	// enumeration order drives seeding remainders and lock ordering
	assert.Equal(t, []string{"S", "M", "L", "XL", "XXL"}, Sizes)

	for i := 1; i < len(Sizes); i++ {
		assert.Less(t, SizeRank(Sizes[i-1]), SizeRank(Sizes[i]))
	}

	assert.Equal(t, -1, SizeRank("XS"))
	assert.Equal(t, -1, SizeRank(""))
}

func TestIsValidSize(t *testing.T) {
	for _, s := range Sizes {
		assert.True(t, IsValidSize(s))
	}
	assert.False(t, IsValidSize("xl")) // sizes are case sensitive
	assert.False(t, IsValidSize("4XL"))
}
