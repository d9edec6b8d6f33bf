package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/docsearch/db/searchindex"
	"github.com/meghashyamc/docsearch/services/index"
)

const HeaderPaginationTotalCount = "X-Pagination-Total-Count"

type response struct {
	Data   any      `json:"data"`
	Errors []string `json:"errors"`
}

func writeResponse(c *gin.Context, data interface{}, statusCode int, errors []string) {

	if statusCode == http.StatusNoContent {
		c.JSON(statusCode, nil)
		return

	}

	response := response{
		Data:   data,
		Errors: errors,
	}

	c.JSON(statusCode, response)
}

// statusForError maps service errors to response codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, searchindex.ErrOutOfRange):
		return http.StatusNotFound
	case errors.Is(err, index.ErrIndexNotLoaded):
		return http.StatusServiceUnavailable
	case errors.Is(err, searchindex.ErrMalformedIndex), errors.Is(err, index.ErrFetchFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

type Pagination struct {
	CurrentPage  int  `json:"current_page"`
	PageSize     int  `json:"page_size"`
	TotalPages   int  `json:"total_pages"`
	HasNextPage  bool `json:"has_next_page"`
	HasPrevPage  bool `json:"has_prev_page"`
	TotalResults int  `json:"total_results"`
}

func calculatePagination(total, limit, offset int) Pagination {
	pageSize := limit
	currentPage := (offset / limit) + 1
	totalPages := (total + pageSize - 1) / pageSize

	if totalPages == 0 {
		totalPages = 1
	}

	return Pagination{
		CurrentPage:  currentPage,
		PageSize:     pageSize,
		TotalPages:   totalPages,
		HasNextPage:  currentPage < totalPages,
		HasPrevPage:  currentPage > 1,
		TotalResults: total,
	}
}

type PageParams struct {
	PerPage int `form:"per_page" validate:"min=0,max=100"`
	Page    int `form:"page" validate:"min=0,max=10000"`
}

const defaultResultsPerPage = 20

func (r *PageParams) setDefaults() {
	if r.PerPage == 0 {
		r.PerPage = defaultResultsPerPage
	}

	if r.Page == 0 {
		r.Page = 1
	}
}

func (r *PageParams) limitOffset() (int, int) {
	return r.PerPage, (r.Page - 1) * r.PerPage
}

// paginate returns the window of items selected by limit and offset.
func paginate[T any](items []T, limit, offset int) []T {
	offset = max(offset, 0)
	if limit <= 0 || offset >= len(items) {
		return []T{}
	}
	return items[offset:min(offset+limit, len(items))]
}
