package models

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

type Review struct {
	ID        int64     `json:"id" db:"id"`
	BookID    int64     `json:"book_id" db:"book_id"`
	BookTitle string    `json:"book_title,omitempty"`
	UserID    int64     `json:"user_id" db:"user_id"`
	Username  string    `json:"username" db:"username"`
	Rating    int       `json:"rating" db:"rating"`
	Comment   string    `json:"comment,omitempty" db:"comment"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type CreateReviewRequest struct {
	BookID  int64  `json:"book_id" validate:"required,gt=0"`
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment,omitempty" validate:"max=1000"`
}

type UpdateReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment,omitempty" validate:"max=1000"`
}

type ReviewResponse struct {
	Review  *Review `json:"review"`
	Message string  `json:"message,omitempty"`
}

type ReviewListResponse struct {
	Reviews    []Review       `json:"reviews"`
	Pagination PaginationMeta `json:"pagination"`
}

// RatingSummary is the per-book aggregate served by /reviews/book/{id}/summary.
type RatingSummary struct {
	BookID        int64       `json:"book_id"`
	AverageRating *float64    `json:"average_rating"`
	ReviewCount   int         `json:"review_count"`
	Distribution  map[int]int `json:"distribution"`
}
