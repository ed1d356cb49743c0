// Package review submits review forms and aggregates ratings for display.
package review

import (
	"context"
	"strings"

	"github.com/binhbb2204/bookhub/internal/api"
	"github.com/binhbb2204/bookhub/internal/validate"
	"github.com/binhbb2204/bookhub/pkg/logger"
	"github.com/binhbb2204/bookhub/pkg/models"
)

const lookupPageSize = 50

// Reviews is implemented by *api.ReviewsAPI.
type Reviews interface {
	ForBook(ctx context.Context, bookID int64, p models.ListParams) (*models.ReviewListResponse, error)
	Create(ctx context.Context, req models.CreateReviewRequest) (*models.Review, error)
	Update(ctx context.Context, id int64, req models.UpdateReviewRequest) (*models.Review, error)
}

type Input struct {
	Rating  int
	Comment string
}

type Result struct {
	Review  *models.Review
	Created bool
}

type Submitter struct {
	reviews Reviews
	log     *logger.Logger
}

func NewSubmitter(reviews Reviews, log *logger.Logger) *Submitter {
	if log == nil {
		log = logger.Nop()
	}
	return &Submitter{reviews: reviews, log: log.WithContext("component", "review_form")}
}

func FromClient(c *api.Client, log *logger.Logger) *Submitter {
	return NewSubmitter(c.Reviews, log)
}

// Submit validates the form, then updates the user's existing review of the
// book or creates a new one. Nothing is sent when validation fails.
func (s *Submitter) Submit(ctx context.Context, bookID, userID int64, in Input) (*Result, error) {
	in.Comment = strings.TrimSpace(in.Comment)
	if err := validate.Rating(in.Rating); err != nil {
		return nil, err
	}
	create := models.CreateReviewRequest{BookID: bookID, Rating: in.Rating, Comment: in.Comment}
	if err := validate.Struct(create); err != nil {
		return nil, err
	}

	existing := s.findExisting(ctx, bookID, userID)
	if existing != nil {
		r, err := s.reviews.Update(ctx, existing.ID, models.UpdateReviewRequest{Rating: in.Rating, Comment: in.Comment})
		if err != nil {
			return nil, err
		}
		s.log.Info("review_updated", "review_id", r.ID, "book_id", bookID)
		return &Result{Review: r}, nil
	}

	r, err := s.reviews.Create(ctx, create)
	if err != nil {
		return nil, err
	}
	s.log.Info("review_created", "review_id", r.ID, "book_id", bookID)
	return &Result{Review: r, Created: true}, nil
}

// Existing returns the user's review of the book, or nil. A failed lookup
// counts as no review.
func (s *Submitter) Existing(ctx context.Context, bookID, userID int64) *models.Review {
	return s.findExisting(ctx, bookID, userID)
}

func (s *Submitter) findExisting(ctx context.Context, bookID, userID int64) *models.Review {
	if userID <= 0 {
		return nil
	}
	for page := 1; ; page++ {
		res, err := s.reviews.ForBook(ctx, bookID, models.ListParams{Page: page, Limit: lookupPageSize})
		if err != nil {
			s.log.Debug("existing_review_lookup_failed", "book_id", bookID, "error", err.Error())
			return nil
		}
		for i := range res.Reviews {
			if res.Reviews[i].UserID == userID {
				r := res.Reviews[i]
				return &r
			}
		}
		if !res.Pagination.HasNext {
			return nil
		}
	}
}
