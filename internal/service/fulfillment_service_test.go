package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsDeliveredTransition(t *testing.T) {
	tests := []struct {
		name     string
		previous string
		next     string
		want     bool
	}{
		{"shipped to delivered", "Shipped", "Delivered", true},
		{"placed to completed", "Order Placed", "Completed", true},
		{"case insensitive", "Shipped", "DELIVERED", true},
		{"substring match", "Out for Delivery", "Delivered to customer", true},
		{"unchanged status never triggers", "Delivered", "Delivered", false},
		{"non-terminal transition", "Order Placed", "Shipped", false},
		{"delivery in progress is not delivered", "Order Placed", "Out for Delivery", false},
		{"empty previous", "", "Delivered", true},
		{"empty next", "Shipped", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDeliveredTransition(tt.previous, tt.next))
		})
	}
}
