package api

import (
	"net/http"
	"strconv"
)

// parsePagination normalizes limit/offset query params.
// limit=50, offset=0. limit capped at 100, minimum 1.
// offset min 0
func parsePagination(limit, offset *int) (int, int) {
	l := 50
	o := 0
	if limit != nil {
		l = *limit
	}
	if offset != nil {
		o = *offset
	}
	if l > 100 {
		l = 100
	}
	if l < 1 {
		l = 1
	}
	if o < 0 {
		o = 0
	}
	return l, o
}

// paginationFromQuery reads ?limit= and ?offset=. Unparseable values are
// treated as absent.
func paginationFromQuery(r *http.Request) (int, int) {
	q := r.URL.Query()
	return parsePagination(intParam(q.Get("limit")), intParam(q.Get("offset")))
}

func intParam(raw string) *int {
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &n
}

type PaginationMeta struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	Count   int  `json:"count"`
	HasMore bool `json:"has_more"`
}

// buildPaginationMeta guesses HasMore from a full page; the stores do not
// count totals.
func buildPaginationMeta(count, limit, offset int) PaginationMeta {
	return PaginationMeta{
		Limit:   limit,
		Offset:  offset,
		Count:   count,
		HasMore: count >= limit,
	}
}
