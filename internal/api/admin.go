package api

import (
	"context"

	"github.com/binhbb2204/bookhub/pkg/models"
	"golang.org/x/sync/errgroup"
)

type AdminAPI struct {
	c *Client
}

type Dashboard struct {
	Stats         models.AdminStats
	RecentBooks   []models.Book
	RecentReviews []models.Review
}

type HealthStatus struct {
	Status string `json:"status"`
}

func (a *AdminAPI) Stats(ctx context.Context) (*models.AdminStats, error) {
	var stats models.AdminStats
	if err := a.c.get(ctx, "/admin/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Dashboard loads stats, the newest books and the newest reviews in parallel.
// Any failure fails the whole dashboard.
func (a *AdminAPI) Dashboard(ctx context.Context) (*Dashboard, error) {
	var d Dashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stats, err := a.Stats(gctx)
		if err != nil {
			return err
		}
		d.Stats = *stats
		return nil
	})
	g.Go(func() error {
		res, err := a.c.Books.List(gctx, models.ListParams{Limit: 5, SortBy: "created_at", SortOrder: "desc"})
		if err != nil {
			return err
		}
		d.RecentBooks = res.Books
		return nil
	})
	g.Go(func() error {
		reviews, err := a.c.Reviews.Recent(gctx, 5)
		if err != nil {
			return err
		}
		d.RecentReviews = reviews
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &d, nil
}

func (a *AdminAPI) Health(ctx context.Context) (*HealthStatus, error) {
	var h HealthStatus
	if err := a.c.get(ctx, "/health", nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}
