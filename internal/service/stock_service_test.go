package service

import (
	"testing"

	"sizestock-service/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestDistributeEvenly(t *testing.T) {
	tests := []struct {
		name  string
		total int
		n     int
		want  []int
	}{
		{"exact division", 10, 5, []int{2, 2, 2, 2, 2}},
		{"remainder goes to first sizes", 12, 5, []int{3, 3, 2, 2, 2}},
		{"total smaller than slots", 3, 5, []int{1, 1, 1, 0, 0}},
		{"zero total", 0, 5, []int{0, 0, 0, 0, 0}},
		{"single slot", 7, 1, []int{7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistributeEvenly(tt.total, tt.n)
			assert.Equal(t, tt.want, got)

			sum := 0
			for _, q := range got {
				sum += q
			}
			if tt.total > 0 {
				assert.Equal(t, tt.total, sum)
			}
		})
	}
}

func TestDistributeEvenlySumInvariant(t *testing.T) {
	n := len(models.Sizes)
	for total := 0; total <= 50; total++ {
		got := DistributeEvenly(total, n)
		sum := 0
		for i, q := range got {
			sum += q
			// no slot ever differs from another by more than one unit
			assert.GreaterOrEqual(t, q, total/n)
			assert.LessOrEqual(t, q, total/n+1)
			if i > 0 {
				assert.LessOrEqual(t, got[i], got[i-1])
			}
		}
		assert.Equal(t, total, sum)
	}
}

func TestDefaultRestockQty(t *testing.T) {
	tests := []struct {
		name     string
		initial  int
		divisor  int
		fallback int
		want     int
	}{
		{"from initial stock", 10, 5, 2, 2},
		{"large initial stock", 100, 5, 2, 20},
		{"no initial stock falls back", 0, 5, 2, 2},
		{"computed zero falls back", 4, 5, 2, 2},
		{"negative initial falls back", -1, 5, 2, 2},
		{"custom fallback", 0, 5, 7, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultRestockQty(tt.initial, tt.divisor, tt.fallback))
		})
	}
}
