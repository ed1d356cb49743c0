package listquery

import (
	"fmt"
	"strings"

	"github.com/binhbb2204/bookhub/pkg/models"
)

const (
	DefaultPageSize  = 12
	DefaultSortField = "created_at"
	DefaultSortOrder = "desc"
)

// Query is the local state of one list view. It is never persisted.
type Query struct {
	Page          int
	PageSize      int
	SearchTerm    string
	GenreFilter   string
	MinRating     int
	SortField     string
	SortDirection string
}

func DefaultQuery() Query {
	return Query{
		Page:          1,
		PageSize:      DefaultPageSize,
		SortField:     DefaultSortField,
		SortDirection: DefaultSortOrder,
	}
}

func (q Query) Params() models.ListParams {
	return models.ListParams{
		Page:      q.Page,
		Limit:     q.PageSize,
		Search:    q.SearchTerm,
		Genre:     q.GenreFilter,
		MinRating: q.MinRating,
		SortBy:    q.SortField,
		SortOrder: q.SortDirection,
	}
}

// HasActiveFilters reports whether anything differs from the default view.
func (q Query) HasActiveFilters() bool {
	return q.SearchTerm != "" ||
		q.GenreFilter != "" ||
		q.MinRating > 0 ||
		q.SortField != DefaultSortField ||
		q.SortDirection != DefaultSortOrder
}

type SortOption struct {
	Field     string
	Direction string
	Label     string
}

func (o SortOption) Key() string {
	return o.Field + "-" + o.Direction
}

var SortOptions = []SortOption{
	{"created_at", "desc", "Recently Added"},
	{"title", "asc", "Title A-Z"},
	{"title", "desc", "Title Z-A"},
	{"author", "asc", "Author A-Z"},
	{"author", "desc", "Author Z-A"},
	{"average_rating", "desc", "Highest Rated"},
	{"average_rating", "asc", "Lowest Rated"},
	{"review_count", "desc", "Most Reviewed"},
	{"published_year", "desc", "Newest Published"},
	{"published_year", "asc", "Oldest Published"},
}

// ParseSort resolves a "field-direction" key such as "title-asc".
func ParseSort(key string) (SortOption, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, o := range SortOptions {
		if o.Key() == key {
			return o, nil
		}
	}
	keys := make([]string, len(SortOptions))
	for i, o := range SortOptions {
		keys[i] = o.Key()
	}
	return SortOption{}, fmt.Errorf("unknown sort %q (valid: %s)", key, strings.Join(keys, ", "))
}

// RatingOptions are the minimum-rating filter choices; 0 means any rating.
var RatingOptions = []int{0, 4, 3, 2, 1}
