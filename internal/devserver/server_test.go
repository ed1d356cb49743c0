package devserver_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/binhbb2204/bookhub/internal/api"
	"github.com/binhbb2204/bookhub/internal/catalog"
	"github.com/binhbb2204/bookhub/internal/devserver"
	"github.com/binhbb2204/bookhub/internal/review"
	"github.com/binhbb2204/bookhub/internal/session"
	"github.com/binhbb2204/bookhub/internal/storage"
	"github.com/binhbb2204/bookhub/pkg/config"
	"github.com/binhbb2204/bookhub/pkg/database"
	"github.com/binhbb2204/bookhub/pkg/models"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type env struct {
	srv     *httptest.Server
	baseURL string
}

func setupServer(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := database.CreateAPITables(db); err != nil {
		t.Fatalf("create tables: %v", err)
	}
	if err := devserver.Seed(context.Background(), db); err != nil {
		t.Fatalf("seed: %v", err)
	}

	s := devserver.New(db, config.DevServerConfig{
		JWTSecret:   "test-secret",
		FrontendURL: "http://localhost:3000",
		TokenTTL:    time.Hour,
	}, nil)
	srv := httptest.NewServer(s.Router())
	t.Cleanup(srv.Close)
	return &env{srv: srv, baseURL: srv.URL + "/api"}
}

// login returns a client and session signed in as the demo account for role.
func (e *env) login(t *testing.T, role string) (*api.Client, *session.Store, *storage.MemoryStore) {
	t.Helper()
	st := storage.NewMemoryStore()
	c := api.New(e.baseURL, st)
	sess := session.NewFromClient(c, st)
	require.NoError(t, sess.DemoLogin(context.Background(), role))
	return c, sess, st
}

func TestHealth(t *testing.T) {
	e := setupServer(t)
	resp, err := http.Get(e.baseURL + "/health")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestProbes(t *testing.T) {
	e := setupServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		resp, err := http.Get(e.srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

func TestBrowseFiltersAndSorts(t *testing.T) {
	e := setupServer(t)
	c := api.New(e.baseURL, storage.NewMemoryStore())
	ctx := context.Background()

	store := catalog.FromClient(c, catalog.WithSequencing())
	browse := store.Browse()

	browse.SetGenre(ctx, "fantasy")
	browse.Wait()
	snap := browse.Snapshot()
	require.NoError(t, snap.Err)
	assert.Len(t, snap.Items, 2)
	assert.Equal(t, 2, snap.Pagination.Total)

	browse.ClearFilters(ctx)
	browse.SetSort(ctx, "title", "asc")
	browse.Wait()
	snap = browse.Snapshot()
	require.NotEmpty(t, snap.Items)
	assert.Equal(t, "1984", snap.Items[0].Title)
	assert.Equal(t, 12, snap.Pagination.Total)

	browse.SetMinRating(ctx, 5)
	browse.Wait()
	snap = browse.Snapshot()
	require.Len(t, snap.Items, 2)
	for _, b := range snap.Items {
		require.NotNil(t, b.AverageRating)
		assert.InDelta(t, 5.0, *b.AverageRating, 1e-9)
	}

	res, err := c.Books.List(ctx, models.ListParams{Search: "austen", Limit: 1})
	require.NoError(t, err)
	assert.Len(t, res.Books, 1)
	assert.True(t, res.Pagination.HasNext)

	genres, err := c.Books.Genres(ctx)
	require.NoError(t, err)
	assert.Contains(t, genres, "Mystery")

	featured, err := c.Books.Featured(ctx, 3)
	require.NoError(t, err)
	require.Len(t, featured, 3)
	assert.Equal(t, 5.0, *featured[0].AverageRating)

	byAuthor, err := c.Books.ByAuthor(ctx, "Jane Austen", models.ListParams{})
	require.NoError(t, err)
	assert.Len(t, byAuthor.Books, 2)
}

func TestReviewSubmitCreatesThenUpdates(t *testing.T) {
	e := setupServer(t)
	c, sess, _ := e.login(t, models.RoleUser)
	ctx := context.Background()
	sub := review.FromClient(c, nil)
	userID := sess.User().ID

	first, err := sub.Submit(ctx, 4, userID, review.Input{Rating: 3, Comment: "Dense but rewarding"})
	require.NoError(t, err)
	assert.True(t, first.Created)

	second, err := sub.Submit(ctx, 4, userID, review.Input{Rating: 5})
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.Review.ID, second.Review.ID)

	summary, err := c.Reviews.Summary(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.ReviewCount)
	assert.Equal(t, 1, summary.Distribution[5])

	_, err = c.Reviews.Create(ctx, models.CreateReviewRequest{BookID: 4, Rating: 2})
	require.Error(t, err)
	assert.True(t, api.IsConflict(err))

	mine, err := c.Reviews.ForUser(ctx, userID, models.ListParams{})
	require.NoError(t, err)
	assert.Equal(t, 6, mine.Pagination.Total)
}

func TestUnauthorizedTokenTearsDownSession(t *testing.T) {
	e := setupServer(t)
	c, sess, st := e.login(t, models.RoleUser)
	ctx := context.Background()

	require.NoError(t, st.Set(storage.TokenKey, "forged"))
	_, err := c.Reviews.Create(ctx, models.CreateReviewRequest{BookID: 4, Rating: 4})
	require.Error(t, err)
	assert.True(t, api.IsUnauthorized(err))

	assert.False(t, sess.IsAuthenticated())
	assert.Zero(t, st.Len())
}

func TestAdminRoutesForbidReaders(t *testing.T) {
	e := setupServer(t)
	c, sess, _ := e.login(t, models.RoleUser)

	_, err := c.Admin.Stats(context.Background())
	require.Error(t, err)
	assert.True(t, api.IsForbidden(err))
	assert.True(t, sess.IsAuthenticated(), "403 must not end the session")
}

func TestAdminManagesCatalogAndUsers(t *testing.T) {
	e := setupServer(t)
	c, sess, _ := e.login(t, models.RoleAdmin)
	ctx := context.Background()
	require.True(t, sess.IsAdmin())

	store := catalog.FromClient(c)
	book, err := store.CreateBook(ctx, models.BookInput{Title: "Kindred", Author: "Octavia E. Butler", Genre: "Fiction", PublishedYear: 1979})
	require.NoError(t, err)
	assert.Nil(t, book.AverageRating)

	updated, err := store.UpdateBook(ctx, book.ID, models.BookInput{Title: "Kindred", Author: "Octavia E. Butler", Genre: "Science Fiction"})
	require.NoError(t, err)
	assert.Equal(t, "Science Fiction", updated.Genre)

	d, err := c.Admin.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 13, d.Stats.TotalBooks)
	assert.Equal(t, 2, d.Stats.TotalUsers)
	assert.Equal(t, "Kindred", d.RecentBooks[0].Title)
	assert.Len(t, d.RecentReviews, 5)

	require.NoError(t, store.DeleteBook(ctx, book.ID))
	_, err = c.Books.Get(ctx, book.ID)
	assert.True(t, api.IsNotFound(err))

	users, err := c.Users.List(ctx, models.ListParams{Role: models.RoleUser})
	require.NoError(t, err)
	require.Len(t, users.Users, 1)
	reader := users.Users[0]

	promoted, err := c.Users.UpdateRole(ctx, reader.ID, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, promoted.Role)

	_, err = c.Users.UpdateRole(ctx, sess.User().ID, models.RoleUser)
	assert.Equal(t, http.StatusBadRequest, api.StatusCode(err))
}

func TestRegisterThenRestoreSession(t *testing.T) {
	e := setupServer(t)
	st := storage.NewMemoryStore()
	c := api.New(e.baseURL, st)
	sess := session.NewFromClient(c, st)
	ctx := context.Background()

	err := sess.Register(ctx, models.RegisterRequest{Username: "newreader", Email: "New@Example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", sess.User().Email)

	err = sess.Register(ctx, models.RegisterRequest{Username: "other", Email: "new@example.com", Password: "secret1"})
	require.Error(t, err)
	assert.Equal(t, "Email already exists", sess.Err())

	// A second process over the same storage restores the session.
	restored := session.NewFromClient(api.New(e.baseURL, st), st)
	require.NoError(t, restored.Validate(ctx))
	assert.True(t, restored.IsAuthenticated())
	assert.Equal(t, "newreader", restored.User().Username)

	require.NoError(t, restored.UpdateProfile(ctx, models.UpdateProfileRequest{Username: "bookworm"}))
	assert.Equal(t, "bookworm", restored.User().Username)
}

func TestChangePassword_WrongCurrentKeepsSession(t *testing.T) {
	e := setupServer(t)
	_, sess, st := e.login(t, models.RoleUser)
	ctx := context.Background()

	err := sess.ChangePassword(ctx, "not-it", "newpass1")
	require.Error(t, err)
	assert.Equal(t, "Current password is incorrect", sess.Err())
	assert.True(t, sess.IsAuthenticated())
	assert.NotEmpty(t, storage.Token(st))

	require.NoError(t, sess.ChangePassword(ctx, "user123", "newpass1"))
	sess.Logout()
	require.NoError(t, sess.Login(ctx, "user@demo.com", "newpass1"))
}

func TestLogin_WrongPassword(t *testing.T) {
	e := setupServer(t)
	st := storage.NewMemoryStore()
	sess := session.NewFromClient(api.New(e.baseURL, st), st)

	err := sess.Login(context.Background(), "user@demo.com", "wrong")
	require.Error(t, err)
	assert.Equal(t, "Invalid credentials", sess.Err())
	assert.False(t, sess.IsAuthenticated())
}
