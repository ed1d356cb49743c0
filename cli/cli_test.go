package cli

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/binhbb2204/bookhub/internal/devserver"
	"github.com/binhbb2204/bookhub/internal/storage"
	"github.com/binhbb2204/bookhub/pkg/config"
	"github.com/binhbb2204/bookhub/pkg/database"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupCLI starts a seeded API server and points a fresh BOOKHUB_HOME at it.
func setupCLI(t *testing.T) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.CreateAPITables(db))
	require.NoError(t, devserver.Seed(context.Background(), db))

	s := devserver.New(db, config.DevServerConfig{
		JWTSecret:   "cli-test-secret",
		FrontendURL: "http://localhost:3000",
		TokenTTL:    time.Hour,
	}, nil)
	srv := httptest.NewServer(s.Router())
	t.Cleanup(srv.Close)

	t.Setenv("BOOKHUB_HOME", t.TempDir())
	t.Setenv("BOOKHUB_API_URL", srv.URL+"/api")
	t.Setenv("BOOKHUB_API_TIMEOUT", "")
	t.Setenv("LOG_LEVEL", "debug")

	out, err := run(t, "init")
	require.NoError(t, err, out)
}

// run executes one command line and returns everything it printed.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := execute(context.Background())
	return buf.String(), err
}

// resetFlags restores flag variables, which outlive a single Execute.
func resetFlags() {
	username, email, adminLogin = "", "", false
	bookSearch, bookGenre, bookMinRating, bookSort, bookPage, bookLimit = "", "", 0, "", 1, 0
	featuredLimit, authorPage, authorLimit = 6, 1, 0
	reviewRating, reviewComment, reviewPage, reviewLimit = 0, "", 1, 10
	exportFormat, exportOutput = "json", ""
	importFile, importDry = "", false
	userPage, userLimit, userRole = 1, 20, ""
	stdinReader = nil
	stdin = os.Stdin
}

func TestConfigSetAndShow(t *testing.T) {
	setupCLI(t)

	_, err := run(t, "config", "set", "display.page_size", "5")
	require.NoError(t, err)

	out, err := run(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "page_size: 5")
	assert.Contains(t, out, "BOOKHUB_API_URL overrides")

	_, err = run(t, "config", "set", "display.page_size", "500")
	assert.Error(t, err)
}

func TestBooksList_FiltersAndSorts(t *testing.T) {
	setupCLI(t)

	out, err := run(t, "books", "list", "--genre", "Fantasy", "--sort", "title-asc")
	require.NoError(t, err, out)
	assert.Contains(t, out, "The Fellowship of the Ring")
	assert.Contains(t, out, "The Hobbit")
	assert.NotContains(t, out, "Dune")
	assert.Less(t, strings.Index(out, "The Fellowship"), strings.Index(out, "The Hobbit"))

	out, err = run(t, "books", "list", "--search", "no such book anywhere")
	require.NoError(t, err)
	assert.Contains(t, out, "No books match your filters.")

	_, err = run(t, "books", "list", "--sort", "sideways")
	assert.Error(t, err)
}

func TestBooksShow(t *testing.T) {
	setupCLI(t)

	out, err := run(t, "books", "show", "1")
	require.NoError(t, err, out)
	assert.Contains(t, out, "The Hobbit")
	assert.Contains(t, out, "A perfect adventure.")

	out, err = run(t, "books", "show", "999")
	assert.Error(t, err)
	assert.Contains(t, out, "Failed to load book")
}

func TestGuard_RequiresLogin(t *testing.T) {
	setupCLI(t)

	out, err := run(t, "reviews", "mine")
	assert.Error(t, err)
	assert.Contains(t, out, "You must be logged in")
}

func TestReviewFlow(t *testing.T) {
	setupCLI(t)

	out, err := run(t, "auth", "demo-login", "user")
	require.NoError(t, err, out)
	assert.Contains(t, out, "demouser")

	out, err = run(t, "auth", "whoami")
	require.NoError(t, err, out)
	assert.Contains(t, out, "user@demo.com")

	out, err = run(t, "reviews", "write", "6", "--rating", "4", "--comment", "Lovely")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Review submitted!")

	out, err = run(t, "reviews", "write", "6", "--rating", "2", "--comment", "Changed my mind")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Review updated!")

	out, err = run(t, "reviews", "summary", "6")
	require.NoError(t, err, out)
	assert.Contains(t, out, "2.0")
	assert.Contains(t, out, "(1 reviews)")

	out, err = run(t, "reviews", "write", "6", "--rating", "9")
	assert.Error(t, err)
	assert.Contains(t, out, "Failed to submit review")

	out, err = run(t, "auth", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out successfully!")

	out, err = run(t, "auth", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "You are not logged in")
}

func TestLogout_RemovesLeftoverUser(t *testing.T) {
	setupCLI(t)
	home := os.Getenv("BOOKHUB_HOME")
	st, err := storage.NewFileStore(filepath.Join(home, "session.yaml"))
	require.NoError(t, err)
	require.NoError(t, st.Set(storage.UserKey, `{"id":7,"username":"ghost"}`))

	out, err := run(t, "auth", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "You are not logged in")

	_, ok, err := st.Get(storage.UserKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLogin_ReadsPasswordFromStdin(t *testing.T) {
	setupCLI(t)

	out, err := runWithStdin(t, "wrong-password\n", "auth", "login", "--email", "user@demo.com")
	assert.Error(t, err)
	assert.Contains(t, out, "Login failed")

	out, err = runWithStdin(t, "user123\n", "auth", "login", "--email", "user@demo.com")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Welcome back, demouser")

	out, err = runWithStdin(t, "user123\n", "auth", "login", "--admin", "--email", "user@demo.com")
	assert.Error(t, err)
	assert.Contains(t, out, "Admin access required")
}

func runWithStdin(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	stdin = strings.NewReader(input)
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := execute(context.Background())
	stdin = os.Stdin
	return buf.String(), err
}

func TestAdmin_GuardAndDashboard(t *testing.T) {
	setupCLI(t)

	_, err := run(t, "auth", "demo-login", "user")
	require.NoError(t, err)
	out, err := run(t, "admin", "dashboard")
	assert.Error(t, err)
	assert.Contains(t, out, "Admin access required")

	_, err = run(t, "auth", "demo-login", "admin")
	require.NoError(t, err)
	out, err = run(t, "admin", "dashboard")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Books:    12")
	assert.Contains(t, out, "Reviews:  5")
}

func TestAdmin_ImportBooks(t *testing.T) {
	setupCLI(t)
	_, err := run(t, "auth", "demo-login", "admin")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "books.csv")
	csv := "title,author,genre,published_year\n" +
		"Middlemarch,George Eliot,Fiction,1871\n" +
		"Orphan Title,,Fiction,\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	out, err := run(t, "admin", "books", "import", "--file", path)
	assert.Error(t, err)
	assert.Contains(t, out, "Imported 1 of 2 books")
	assert.Contains(t, out, "row 3 (Orphan Title)")

	out, err = run(t, "books", "list", "--search", "Middlemarch")
	require.NoError(t, err)
	assert.Contains(t, out, "George Eliot")
}

func TestExportReviews_CSV(t *testing.T) {
	setupCLI(t)
	_, err := run(t, "auth", "demo-login", "user")
	require.NoError(t, err)

	out, err := run(t, "export", "reviews", "--format", "csv")
	require.NoError(t, err, out)
	assert.Contains(t, out, "review_id,book_id,book_title,rating,comment,created_at")
	assert.Contains(t, out, "A perfect adventure.")
}

func TestReadBookCSV(t *testing.T) {
	books, err := readBookCSV(strings.NewReader("Author, Title ,extra\nAusten,Emma,x\n"))
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "Emma", books[0].Title)
	assert.Equal(t, "Austen", books[0].Author)

	_, err = readBookCSV(strings.NewReader("title,genre\nEmma,Romance\n"))
	assert.ErrorContains(t, err, `"author"`)

	_, err = readBookCSV(strings.NewReader("title,author,published_year\nEmma,Austen,soon\n"))
	assert.ErrorContains(t, err, "line 2")
}
