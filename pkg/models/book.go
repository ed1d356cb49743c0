package models

import "time"

type Book struct {
	ID            int64     `json:"id" db:"id"`
	Title         string    `json:"title" db:"title"`
	Author        string    `json:"author" db:"author"`
	Description   string    `json:"description,omitempty" db:"description"`
	ISBN          string    `json:"isbn,omitempty" db:"isbn"`
	Genre         string    `json:"genre,omitempty" db:"genre"`
	PublishedYear int       `json:"published_year,omitempty" db:"published_year"`
	CoverImageURL string    `json:"cover_image_url,omitempty" db:"cover_image_url"`
	AverageRating *float64  `json:"average_rating"` // nil until the book has a review
	ReviewCount   int       `json:"review_count"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// BookInput is the body of create and update requests.
type BookInput struct {
	Title         string `json:"title" validate:"required,max=255"`
	Author        string `json:"author" validate:"required,max=255"`
	Description   string `json:"description,omitempty" validate:"max=2000"`
	ISBN          string `json:"isbn,omitempty" validate:"omitempty,isbn"`
	Genre         string `json:"genre,omitempty" validate:"max=100"`
	PublishedYear int    `json:"published_year,omitempty" validate:"omitempty,gte=1000,lte=2100"`
	CoverImageURL string `json:"cover_image_url,omitempty" validate:"omitempty,url"`
}

type BookListResponse struct {
	Books      []Book         `json:"books"`
	Pagination PaginationMeta `json:"pagination"`
}

type BookResponse struct {
	Book    *Book  `json:"book"`
	Message string `json:"message,omitempty"`
}

type GenresResponse struct {
	Genres []string `json:"genres"`
}

type PaginationMeta struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// NewPaginationMeta derives the page counters from a total row count.
func NewPaginationMeta(page, limit, total int) PaginationMeta {
	if limit <= 0 {
		limit = 1
	}
	if page <= 0 {
		page = 1
	}
	totalPages := (total + limit - 1) / limit
	return PaginationMeta{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type AdminStats struct {
	TotalBooks    int     `json:"total_books"`
	TotalUsers    int     `json:"total_users"`
	TotalReviews  int     `json:"total_reviews"`
	AverageRating float64 `json:"average_rating"`
}
