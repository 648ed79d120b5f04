package cqrs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageNormalize(t *testing.T) {
	tests := []struct {
		name     string
		in       Page
		expected Page
		offset   int
	}{
		{"zero value uses defaults", Page{}, Page{Page: 1, PageSize: DefaultPageSize}, 0},
		{"negative page", Page{Page: -3, PageSize: 10}, Page{Page: 1, PageSize: 10}, 0},
		{"oversized page", Page{Page: 2, PageSize: 500}, Page{Page: 2, PageSize: MaxPageSize}, 100},
		{"third page of five", Page{Page: 3, PageSize: 5}, Page{Page: 3, PageSize: 5}, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.in.Normalize())
			assert.Equal(t, tt.offset, tt.in.Offset())
			assert.Equal(t, tt.expected.PageSize, tt.in.Limit())
		})
	}
}
