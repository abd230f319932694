package params

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePagination(t *testing.T) {
	cases := []struct {
		name   string
		query  string
		limit  int
		page   int
		offset int
	}{
		{"defaults", "", DefaultLimit, 1, 0},
		{"explicit", "limit=50&page=3", 50, 3, 100},
		{"limit capped", "limit=1000", MaxLimit, 1, 0},
		{"non-positive limit", "limit=-4", DefaultLimit, 1, 0},
		{"garbage", "limit=abc&page=zz", DefaultLimit, 1, 0},
		{"zero page", "page=0", DefaultLimit, 1, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q, err := url.ParseQuery(tc.query)
			require.NoError(t, err)
			p := ParsePagination(q)
			assert.Equal(t, tc.limit, p.Limit)
			assert.Equal(t, tc.page, p.Page)
			assert.Equal(t, tc.offset, p.Offset)
		})
	}
}

func TestNewPage(t *testing.T) {
	p := Pagination{Limit: 10, Page: 2, Offset: 10}
	page := NewPage[string](nil, p, 25)

	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
	assert.Equal(t, 25, page.Pagination.Total)
	assert.Equal(t, 3, page.Pagination.TotalPages)
	assert.True(t, page.Pagination.HasPrev)
	assert.True(t, page.Pagination.HasNext)
}

func TestOptionalFilters(t *testing.T) {
	q := url.Values{"hotel_id": {"12"}, "blocked": {"true"}, "bad": {"-1"}}

	id, err := OptionalInt64(q, "hotel_id")
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, int64(12), *id)

	missing, err := OptionalInt64(q, "room_id")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = OptionalInt64(q, "bad")
	assert.Error(t, err)

	b, err := OptionalBool(q, "blocked")
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.True(t, *b)
}
