package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/binhbb2204/bookhub/internal/storage"
	"github.com/binhbb2204/bookhub/internal/validate"
	"github.com/binhbb2204/bookhub/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNavigator struct {
	routes []string
}

func (r *recordingNavigator) Navigate(route string) { r.routes = append(r.routes, route) }

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func loggedInStore(t *testing.T) *storage.MemoryStore {
	st := storage.NewMemoryStore()
	require.NoError(t, storage.SaveSession(st, "tok-123", models.User{ID: 1, Username: "reader", Role: models.RoleUser}))
	return st
}

func TestClient_AttachesBearerToken(t *testing.T) {
	var gotAuth, gotRequestID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		respondJSON(w, http.StatusOK, models.GenresResponse{Genres: []string{"Fantasy", "Science Fiction"}})
	}))
	defer srv.Close()

	c := New(srv.URL, loggedInStore(t))
	genres, err := c.Books.Genres(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"Fantasy", "Science Fiction"}, genres)
	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.NotEmpty(t, gotRequestID)
}

func TestClient_NoTokenNoHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		respondJSON(w, http.StatusOK, models.BookListResponse{})
	}))
	defer srv.Close()

	c := New(srv.URL, storage.NewMemoryStore())
	_, err := c.Books.List(context.Background(), models.ListParams{})
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestClient_UnauthorizedClearsSessionAndNavigates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Token expired"})
	}))
	defer srv.Close()

	st := loggedInStore(t)
	nav := &recordingNavigator{}
	hookCalls := 0
	c := New(srv.URL, st, WithNavigator(nav))
	c.OnUnauthorized(func() { hookCalls++ })

	endpoints := map[string]func() error{
		"reviews": func() error { _, err := c.Reviews.ForUser(context.Background(), 1, models.ListParams{}); return err },
		"books":   func() error { return c.Books.Delete(context.Background(), 3) },
		"admin":   func() error { _, err := c.Admin.Stats(context.Background()); return err },
	}
	for name, call := range endpoints {
		require.NoError(t, storage.SaveSession(st, "tok-123", models.User{ID: 1}))

		err := call()
		require.Error(t, err, name)
		assert.True(t, IsUnauthorized(err), name)
		assert.Equal(t, "Token expired", Message(err, "fallback"), name)

		_, hasToken, _ := st.Get(storage.TokenKey)
		_, hasUser, _ := st.Get(storage.UserKey)
		assert.False(t, hasToken, "%s: token not cleared", name)
		assert.False(t, hasUser, "%s: user not cleared", name)
	}

	assert.Equal(t, 3, hookCalls)
	assert.Equal(t, []string{LoginRoute, LoginRoute, LoginRoute}, nav.routes)
	assert.EqualValues(t, 3, c.Metrics().Snapshot().UnauthorizedTotal)
}

func TestClient_LoginUnauthorizedKeepsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Invalid credentials"})
	}))
	defer srv.Close()

	st := loggedInStore(t)
	nav := &recordingNavigator{}
	c := New(srv.URL, st, WithNavigator(nav))

	_, err := c.Auth.Login(context.Background(), "reader@example.com", "wrong")
	require.Error(t, err)
	assert.Equal(t, "Invalid credentials", Message(err, "Login failed"))
	assert.Empty(t, nav.routes)
	assert.Equal(t, "tok-123", storage.Token(st))
}

func TestClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := New(url, storage.NewMemoryStore(), WithTimeout(2*time.Second))
	_, err := c.Books.Get(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNetwork))
	assert.Equal(t, "Network error. Please check your connection.", Message(err, "fallback"))
	assert.EqualValues(t, 1, c.Metrics().Snapshot().FailuresTotal)
}

func TestClient_ServerErrorWithDetails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusConflict, models.ErrorResponse{Details: "You have already reviewed this book"})
	}))
	defer srv.Close()

	c := New(srv.URL, loggedInStore(t))
	_, err := c.Reviews.Create(context.Background(), models.CreateReviewRequest{BookID: 1, Rating: 4})
	require.Error(t, err)
	assert.True(t, IsConflict(err))
	assert.Equal(t, "You have already reviewed this book", Message(err, "Failed to submit review"))
}

func TestClient_ValidationNeverReachesNetwork(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		respondJSON(w, http.StatusOK, map[string]string{})
	}))
	defer srv.Close()

	c := New(srv.URL, loggedInStore(t))
	ctx := context.Background()

	for _, rating := range []int{0, 6, -3} {
		_, err := c.Reviews.Create(ctx, models.CreateReviewRequest{BookID: 1, Rating: rating})
		var verrs validate.Errors
		require.True(t, errors.As(err, &verrs), "rating %d", rating)
		assert.NotEmpty(t, verrs.Field("rating"))

		_, err = c.Reviews.Update(ctx, 9, models.UpdateReviewRequest{Rating: rating})
		require.Error(t, err)
	}

	_, err := c.Books.Create(ctx, models.BookInput{Title: "  ", Author: "Someone"})
	require.Error(t, err)
	_, err = c.Auth.Login(ctx, "bad-email", "pw")
	require.Error(t, err)
	_, err = c.Auth.DemoLogin(ctx, "superuser")
	require.Error(t, err)
	_, err = c.Users.UpdateRole(ctx, 2, "owner")
	require.Error(t, err)
	_, err = c.Books.Get(ctx, 0)
	require.Error(t, err)
	err = c.Users.ChangePassword(ctx, 1, models.ChangePasswordRequest{CurrentPassword: "old", NewPassword: "123"})
	require.Error(t, err)

	assert.EqualValues(t, 0, atomic.LoadInt32(&hits))
}

func TestClient_LoginRejectsIncompleteResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"message": "ok"})
	}))
	defer srv.Close()

	c := New(srv.URL, storage.NewMemoryStore())
	_, err := c.Auth.Login(context.Background(), "reader@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestBooks_ListSendsQueryParams(t *testing.T) {
	var gotQuery map[string][]string
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		respondJSON(w, http.StatusOK, models.BookListResponse{
			Books:      []models.Book{{ID: 1, Title: "Dune"}},
			Pagination: models.NewPaginationMeta(2, 12, 13),
		})
	}))
	defer srv.Close()

	c := New(srv.URL+"/api/", storage.NewMemoryStore())
	res, err := c.Books.Search(context.Background(), "  dune ", models.ListParams{Page: 2, Limit: 12, Genre: "Science Fiction", SortBy: "title", SortOrder: "asc"})
	require.NoError(t, err)

	assert.Equal(t, "/api/books", gotPath)
	assert.Equal(t, "dune", gotQuery["search"][0])
	assert.Equal(t, "Science Fiction", gotQuery["genre"][0])
	assert.Equal(t, "2", gotQuery["page"][0])
	assert.NotContains(t, gotQuery, "min_rating")
	assert.Len(t, res.Books, 1)
	assert.False(t, res.Pagination.HasNext)
	assert.True(t, res.Pagination.HasPrev)
}

func TestAdmin_Dashboard(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/admin/stats", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, models.AdminStats{TotalBooks: 10, TotalUsers: 3, TotalReviews: 7, AverageRating: 4.2})
	})
	mux.HandleFunc("/books", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		respondJSON(w, http.StatusOK, models.BookListResponse{Books: []models.Book{{ID: 10, Title: "Newest"}}})
	})
	mux.HandleFunc("/reviews/recent", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, models.ReviewListResponse{Reviews: []models.Review{{ID: 4, Rating: 5}}})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.URL, loggedInStore(t))
	d, err := c.Admin.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, d.Stats.TotalBooks)
	assert.Equal(t, "Newest", d.RecentBooks[0].Title)
	assert.Equal(t, 5, d.RecentReviews[0].Rating)
}

func TestMessage_Fallbacks(t *testing.T) {
	assert.Equal(t, "", Message(nil, "x"))
	assert.Equal(t, "Not Found", Message(&Error{StatusCode: 404}, "x"))
	assert.Equal(t, "boom", Message(errors.New("boom"), "x"))
	assert.Equal(t, "Title is required", Message(validate.Errors{"title": "Title is required"}, "x"))
}
