package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/binhbb2204/bookhub/internal/validate"
	"github.com/binhbb2204/bookhub/pkg/models"
)

type ReviewsAPI struct {
	c *Client
}

func (r *ReviewsAPI) ForBook(ctx context.Context, bookID int64, p models.ListParams) (*models.ReviewListResponse, error) {
	if err := requireID(bookID, "Book"); err != nil {
		return nil, err
	}
	q := p.Values()
	q.Set("book_id", strconv.FormatInt(bookID, 10))
	var res models.ReviewListResponse
	if err := r.c.get(ctx, "/reviews", q, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *ReviewsAPI) Recent(ctx context.Context, limit int) ([]models.Review, error) {
	if limit <= 0 {
		limit = 5
	}
	var res models.ReviewListResponse
	if err := r.c.get(ctx, "/reviews/recent", url.Values{"limit": {strconv.Itoa(limit)}}, &res); err != nil {
		return nil, err
	}
	return res.Reviews, nil
}

func (r *ReviewsAPI) ForUser(ctx context.Context, userID int64, p models.ListParams) (*models.ReviewListResponse, error) {
	if err := requireID(userID, "User"); err != nil {
		return nil, err
	}
	var res models.ReviewListResponse
	if err := r.c.get(ctx, fmt.Sprintf("/reviews/user/%d", userID), p.Values(), &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *ReviewsAPI) Summary(ctx context.Context, bookID int64) (*models.RatingSummary, error) {
	if err := requireID(bookID, "Book"); err != nil {
		return nil, err
	}
	var res models.RatingSummary
	if err := r.c.get(ctx, fmt.Sprintf("/reviews/book/%d/summary", bookID), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *ReviewsAPI) Create(ctx context.Context, req models.CreateReviewRequest) (*models.Review, error) {
	req.Comment = strings.TrimSpace(req.Comment)
	if err := validate.Rating(req.Rating); err != nil {
		return nil, err
	}
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	var res models.ReviewResponse
	if err := r.c.post(ctx, "/reviews", req, &res); err != nil {
		return nil, err
	}
	if res.Review == nil {
		return nil, ErrInvalidResponse
	}
	return res.Review, nil
}

func (r *ReviewsAPI) Update(ctx context.Context, id int64, req models.UpdateReviewRequest) (*models.Review, error) {
	if err := requireID(id, "Review"); err != nil {
		return nil, err
	}
	req.Comment = strings.TrimSpace(req.Comment)
	if err := validate.Rating(req.Rating); err != nil {
		return nil, err
	}
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	var res models.ReviewResponse
	if err := r.c.put(ctx, fmt.Sprintf("/reviews/%d", id), req, &res); err != nil {
		return nil, err
	}
	if res.Review == nil {
		return nil, ErrInvalidResponse
	}
	return res.Review, nil
}

func (r *ReviewsAPI) Delete(ctx context.Context, id int64) error {
	if err := requireID(id, "Review"); err != nil {
		return err
	}
	return r.c.delete(ctx, fmt.Sprintf("/reviews/%d", id), nil)
}
