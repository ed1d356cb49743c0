package review

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/binhbb2204/bookhub/internal/api"
	"github.com/binhbb2204/bookhub/internal/storage"
	"github.com/binhbb2204/bookhub/internal/validate"
	"github.com/binhbb2204/bookhub/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(f float64) *float64 { return &f }

// reviewServer keeps one review list per book and records each request as
// "METHOD /path".
type reviewServer struct {
	mu       sync.Mutex
	reviews  []models.Review
	requests []string
}

func (rs *reviewServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.requests = append(rs.requests, r.Method+" "+r.URL.Path)
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/reviews":
		json.NewEncoder(w).Encode(models.ReviewListResponse{
			Reviews:    rs.reviews,
			Pagination: models.NewPaginationMeta(1, 50, len(rs.reviews)),
		})
	case r.Method == http.MethodPost && r.URL.Path == "/reviews":
		var req models.CreateReviewRequest
		json.NewDecoder(r.Body).Decode(&req)
		rv := models.Review{ID: int64(len(rs.reviews) + 1), BookID: req.BookID, UserID: 7, Rating: req.Rating, Comment: req.Comment}
		rs.reviews = append(rs.reviews, rv)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(models.ReviewResponse{Review: &rv})
	case r.Method == http.MethodPut:
		var req models.UpdateReviewRequest
		json.NewDecoder(r.Body).Decode(&req)
		rs.reviews[0].Rating = req.Rating
		rs.reviews[0].Comment = req.Comment
		rv := rs.reviews[0]
		json.NewEncoder(w).Encode(models.ReviewResponse{Review: &rv})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newSubmitter(t *testing.T) (*Submitter, *reviewServer) {
	rs := &reviewServer{}
	srv := httptest.NewServer(rs)
	t.Cleanup(srv.Close)
	c := api.New(srv.URL, storage.NewMemoryStore())
	return FromClient(c, nil), rs
}

func TestSubmit_CreateThenUpdate(t *testing.T) {
	s, rs := newSubmitter(t)
	ctx := context.Background()

	first, err := s.Submit(ctx, 3, 7, Input{Rating: 4, Comment: " Loved it "})
	require.NoError(t, err)
	assert.True(t, first.Created)
	assert.Equal(t, "Loved it", first.Review.Comment)

	second, err := s.Submit(ctx, 3, 7, Input{Rating: 5, Comment: "Even better on reread"})
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, 5, second.Review.Rating)

	assert.Equal(t, []string{
		"GET /reviews",
		"POST /reviews",
		"GET /reviews",
		"PUT /reviews/1",
	}, rs.requests)
}

func TestSubmit_InvalidRatingMakesNoRequest(t *testing.T) {
	s, rs := newSubmitter(t)

	for _, rating := range []int{0, 6, -1} {
		_, err := s.Submit(context.Background(), 3, 7, Input{Rating: rating})
		var verrs validate.Errors
		require.ErrorAs(t, err, &verrs)
		assert.Equal(t, "Please select a rating between 1 and 5 stars", verrs.Field("rating"))
	}
	assert.Empty(t, rs.requests)
}

func TestSubmit_LookupFailureFallsBackToCreate(t *testing.T) {
	var methods []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method)
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodGet {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(models.ErrorResponse{Error: "db down"})
			return
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(models.ReviewResponse{Review: &models.Review{ID: 9, BookID: 3, Rating: 2}})
	}))
	defer srv.Close()
	s := FromClient(api.New(srv.URL, storage.NewMemoryStore()), nil)

	res, err := s.Submit(context.Background(), 3, 7, Input{Rating: 2})
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, []string{http.MethodGet, http.MethodPost}, methods)
}

func TestMean_SkipsUnrated(t *testing.T) {
	mean, ok := Mean([]*float64{ptr(5), ptr(3), ptr(4), nil})
	require.True(t, ok)
	assert.InDelta(t, 4.0, mean, 1e-9)

	_, ok = Mean([]*float64{nil, nil})
	assert.False(t, ok)
}

func TestMeanBookRating(t *testing.T) {
	books := []models.Book{
		{ID: 1, AverageRating: ptr(4.5)},
		{ID: 2},
		{ID: 3, AverageRating: ptr(3.5)},
	}
	mean, ok := MeanBookRating(books)
	require.True(t, ok)
	assert.InDelta(t, 4.0, mean, 1e-9)
}

func TestSummarize(t *testing.T) {
	sum := Summarize(3, []models.Review{{Rating: 5}, {Rating: 5}, {Rating: 2}})
	assert.Equal(t, 3, sum.ReviewCount)
	assert.InDelta(t, 4.0, *sum.AverageRating, 1e-9)
	assert.Equal(t, map[int]int{1: 0, 2: 1, 3: 0, 4: 0, 5: 2}, sum.Distribution)

	empty := Summarize(3, nil)
	assert.Nil(t, empty.AverageRating)
	assert.Equal(t, "No ratings", FormatRating(empty.AverageRating))
}

func TestStars(t *testing.T) {
	assert.Equal(t, "★★★★☆", Stars(3.6))
	assert.Equal(t, "☆☆☆☆☆", Stars(0))
	assert.Equal(t, "★★★★★", Stars(7))
	assert.Equal(t, "4.3", FormatRating(ptr(4.26)))
}
