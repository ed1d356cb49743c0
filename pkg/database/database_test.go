package database_test

import (
	"path/filepath"
	"testing"

	"github.com/binhbb2204/bookhub/pkg/database"
)

func TestOpen_CreatesSchema(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "test.db")
	db, err := database.Open(dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	if err := database.CreateAPITables(db); err != nil {
		t.Fatalf("create api tables: %v", err)
	}
	// Second run must be a no-op.
	if err := database.CreateAPITables(db); err != nil {
		t.Fatalf("re-run create api tables: %v", err)
	}
	if err := database.CreateKVTable(db); err != nil {
		t.Fatalf("create kv: %v", err)
	}

	if _, err := db.Exec(`INSERT INTO books (title, author, cover_image_url) VALUES ('Dune', 'Frank Herbert', 'http://x/c.jpg')`); err != nil {
		t.Fatalf("insert book: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO users (username, email, password_hash) VALUES ('ann', 'ann@example.com', 'h')`); err != nil {
		t.Fatalf("insert user: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO reviews (book_id, user_id, rating) VALUES (1, 1, 9)`); err == nil {
		t.Fatal("expected rating check constraint to reject 9")
	}
	if _, err := db.Exec(`INSERT INTO reviews (book_id, user_id, rating) VALUES (1, 1, 4)`); err != nil {
		t.Fatalf("insert review: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO reviews (book_id, user_id, rating) VALUES (1, 1, 5)`); err == nil {
		t.Fatal("expected unique (book_id, user_id) to reject a second review")
	}
}
