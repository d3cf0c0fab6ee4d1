package paginator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGet(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		total  int64
		want   int
		offset int
	}{
		{"empty", "", 25, 1, 0},
		{"garbage", "abc", 25, 1, 0},
		{"negative", "-3", 25, 1, 0},
		{"middle", "2", 25, 2, 10},
		{"last", "3", 25, 3, 20},
		{"past end", "99", 25, 3, 20},
		{"no items", "4", 0, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Get(tt.raw, tt.total, 10)
			assert.Equal(t, tt.want, p.Number)
			assert.Equal(t, tt.offset, p.Offset())
		})
	}
}

func TestPage_Flags(t *testing.T) {
	p := At(2, 25, 10)
	assert.True(t, p.HasNext)
	assert.True(t, p.HasPrev)
	assert.Equal(t, 3, p.TotalPages)

	p = At(3, 25, 10)
	assert.False(t, p.HasNext)
}

func TestPageOf(t *testing.T) {
	assert.Equal(t, 1, PageOf(0, 10))
	assert.Equal(t, 1, PageOf(9, 10))
	assert.Equal(t, 2, PageOf(10, 10))
	assert.Equal(t, 3, PageOf(23, 10))
	assert.Equal(t, 1, PageOf(-1, 10))
}
