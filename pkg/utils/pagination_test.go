package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestGetPaginationParams(t *testing.T) {
	cases := []struct {
		query string
		want  PaginationParams
	}{
		{"", PaginationParams{Limit: 20, Offset: 0}},
		{"limit=5&page=3", PaginationParams{Limit: 5, Offset: 10}},
		{"limit=5&offset=7&page=3", PaginationParams{Limit: 5, Offset: 7}},
		{"limit=500", PaginationParams{Limit: 20, Offset: 0}},
		{"limit=-1&page=0", PaginationParams{Limit: 20, Offset: 0}},
	}

	e := echo.New()
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/?"+tc.query, nil)
		c := e.NewContext(req, httptest.NewRecorder())
		assert.Equal(t, tc.want, GetPaginationParams(c), tc.query)
	}
}
