package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewOffsetPagination(t *testing.T) {
	cases := []struct {
		name           string
		limit, offset  int
		expectedLimit  int
		expectedOffset int
	}{
		{"zero values use defaults", 0, 0, DefaultLimit, 0},
		{"negative limit uses default", -5, 3, DefaultLimit, 3},
		{"negative offset clamps to zero", 20, -1, 20, 0},
		{"limit is capped", 1000, 40, MaxLimit, 40},
		{"valid values kept", 25, 50, 25, 50},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := NewOffsetPagination(tc.limit, tc.offset)
			assert.Equal(t, tc.expectedLimit, p.Limit)
			assert.Equal(t, tc.expectedOffset, p.Offset)
		})
	}
}
