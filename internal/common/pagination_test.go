package common

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParsePagination(t *testing.T) {
	cases := []struct {
		query         string
		page, perPage int
	}{
		{"", 1, 20},
		{"?page=3&limit=5", 3, 5},
		{"?page=0&limit=-4", 1, 20},
		{"?page=x&limit=500", 1, 100},
		{"?page=%202%20", 2, 20},
	}
	for _, tc := range cases {
		page, perPage := ParsePagination(httptest.NewRequest(http.MethodGet, "/orders"+tc.query, nil), 20, 100)
		require.Equal(t, tc.page, page, tc.query)
		require.Equal(t, tc.perPage, perPage, tc.query)
	}
}
