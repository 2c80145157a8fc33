package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPercentage(t *testing.T) {
	tests := []struct {
		name             string
		completed, total int
		want             float64
	}{
		{"zero lectures", 0, 0, 0},
		{"zero lectures with stale completions", 3, 0, 0},
		{"none done", 0, 4, 0},
		{"half", 2, 4, 50},
		{"all", 4, 4, 100},
		{"stale overcomplete clamps", 5, 4, 100},
		{"third", 1, 3, 100.0 / 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentage(tt.completed, tt.total)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 100.0)
		})
	}
}

func TestNewProgress(t *testing.T) {
	p := NewProgress(nil, 0)
	assert.Equal(t, []string{}, p.LectureCompleted)
	assert.Zero(t, p.Percentage)

	p = NewProgress([]string{"l1", "l2"}, 8)
	assert.Equal(t, 2, p.Completed)
	assert.Equal(t, 8, p.Total)
	assert.InDelta(t, 25, p.Percentage, 1e-9)
}
