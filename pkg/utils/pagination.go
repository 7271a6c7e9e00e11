package utils

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type PaginationParams struct {
	Limit  int
	Offset int
}

// GetPaginationParams reads limit plus either offset or page from the query string.
// An explicit offset wins over page.
func GetPaginationParams(c echo.Context) PaginationParams {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 || limit > MaxPageSize {
		limit = DefaultPageSize
	}

	if offset, err := strconv.Atoi(c.QueryParam("offset")); err == nil && offset >= 0 {
		return PaginationParams{Limit: limit, Offset: offset}
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page <= 0 {
		page = 1
	}
	return PaginationParams{Limit: limit, Offset: (page - 1) * limit}
}
