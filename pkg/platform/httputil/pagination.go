package httputil

import (
	"net/http"
	"strconv"
	"strings"

	derrors "tangible/pkg/domain-errors"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// ListParams are the validated paging and sorting parameters every
// listing endpoint accepts.
type ListParams struct {
	Limit     int
	Offset    int
	SortBy    string
	SortOrder string
}

// Pagination is the envelope block returned alongside list items.
type Pagination struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
}

// NewPagination builds the pagination block for a page.
func NewPagination(total, limit, offset int) Pagination {
	return Pagination{
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: offset+limit < total,
	}
}

// ParseListParams validates limit (1-100, default 20), offset (>= 0,
// default 0), and sorting against the endpoint's allowed sort columns.
func ParseListParams(r *http.Request, allowedSorts map[string]bool, defaultSort string) (ListParams, error) {
	params := ListParams{
		Limit:     defaultLimit,
		Offset:    0,
		SortBy:    defaultSort,
		SortOrder: "asc",
	}

	q := r.URL.Query()
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxLimit {
			return ListParams{}, derrors.Newf(derrors.CodeInvalidInput, "limit must be an integer between 1 and %d", maxLimit)
		}
		params.Limit = limit
	}
	if raw := q.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return ListParams{}, derrors.New(derrors.CodeInvalidInput, "offset must be a non-negative integer")
		}
		params.Offset = offset
	}
	if raw := q.Get("sortBy"); raw != "" {
		if !allowedSorts[raw] {
			return ListParams{}, derrors.Newf(derrors.CodeInvalidInput, "unsupported sortBy %q", raw)
		}
		params.SortBy = raw
	}
	if raw := q.Get("sortOrder"); raw != "" {
		order := strings.ToLower(raw)
		if order != "asc" && order != "desc" {
			return ListParams{}, derrors.New(derrors.CodeInvalidInput, "sortOrder must be asc or desc")
		}
		params.SortOrder = order
	}
	return params, nil
}
