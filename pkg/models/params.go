package models

import (
	"net/url"
	"strconv"
)

// ListParams are the query parameters shared by the paginated list endpoints.
// Zero values are left out of the query string.
type ListParams struct {
	Page      int
	Limit     int
	Search    string
	Genre     string
	MinRating int
	SortBy    string
	SortOrder string
	Role      string
}

func (p ListParams) Values() url.Values {
	v := url.Values{}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Search != "" {
		v.Set("search", p.Search)
	}
	if p.Genre != "" {
		v.Set("genre", p.Genre)
	}
	if p.MinRating > 0 {
		v.Set("min_rating", strconv.Itoa(p.MinRating))
	}
	if p.SortBy != "" {
		v.Set("sort_by", p.SortBy)
	}
	if p.SortOrder != "" {
		v.Set("sort_order", p.SortOrder)
	}
	if p.Role != "" {
		v.Set("role", p.Role)
	}
	return v
}
