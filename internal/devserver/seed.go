package devserver

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/binhbb2204/bookhub/pkg/models"
	"golang.org/x/crypto/bcrypt"
)

var seedBooks = []models.BookInput{
	{Title: "The Hobbit", Author: "J.R.R. Tolkien", Genre: "Fantasy", PublishedYear: 1937, ISBN: "9780547928227",
		Description: "Bilbo Baggins is swept into a quest to reclaim a dwarf kingdom from a dragon."},
	{Title: "The Fellowship of the Ring", Author: "J.R.R. Tolkien", Genre: "Fantasy", PublishedYear: 1954,
		Description: "The first volume of The Lord of the Rings."},
	{Title: "Dune", Author: "Frank Herbert", Genre: "Science Fiction", PublishedYear: 1965, ISBN: "9780441172719",
		Description: "Paul Atreides and the desert planet Arrakis."},
	{Title: "Foundation", Author: "Isaac Asimov", Genre: "Science Fiction", PublishedYear: 1951,
		Description: "A mathematician foresees the fall of the Galactic Empire."},
	{Title: "Pride and Prejudice", Author: "Jane Austen", Genre: "Romance", PublishedYear: 1813, ISBN: "9780141439518",
		Description: "Elizabeth Bennet and Mr. Darcy."},
	{Title: "Emma", Author: "Jane Austen", Genre: "Romance", PublishedYear: 1815,
		Description: "A young matchmaker meddles in the love lives of her friends."},
	{Title: "The Hound of the Baskervilles", Author: "Arthur Conan Doyle", Genre: "Mystery", PublishedYear: 1902,
		Description: "Sherlock Holmes investigates a legendary hound on Dartmoor."},
	{Title: "Murder on the Orient Express", Author: "Agatha Christie", Genre: "Mystery", PublishedYear: 1934,
		Description: "Hercule Poirot solves a murder aboard a snowbound train."},
	{Title: "1984", Author: "George Orwell", Genre: "Dystopian", PublishedYear: 1949, ISBN: "9780451524935",
		Description: "Winston Smith lives under the watch of Big Brother."},
	{Title: "Brave New World", Author: "Aldous Huxley", Genre: "Dystopian", PublishedYear: 1932,
		Description: "A society engineered for stability and pleasure."},
	{Title: "Sapiens", Author: "Yuval Noah Harari", Genre: "Non-Fiction", PublishedYear: 2011,
		Description: "A brief history of humankind."},
	{Title: "The Road", Author: "Cormac McCarthy", Genre: "Fiction", PublishedYear: 2006,
		Description: "A father and son walk through a burned America."},
}

// seedReviews are (book index, rating, comment) written by the demo user.
var seedReviews = []struct {
	book    int
	rating  int
	comment string
}{
	{0, 5, "A perfect adventure."},
	{2, 5, "The best science fiction I have read."},
	{4, 4, "Witty and sharp."},
	{8, 4, "Chilling."},
	{6, 3, "Good, but slow in the middle."},
}

// Seed creates the demo accounts and, on an empty catalog, the sample books
// and reviews. It is safe to run repeatedly.
func Seed(ctx context.Context, db *sql.DB) error {
	for role, acct := range demoAccounts {
		hash, err := bcrypt.GenerateFromPassword([]byte(acct.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash demo password: %w", err)
		}
		_, err = db.ExecContext(ctx,
			`INSERT OR IGNORE INTO users (username, email, password_hash, role) VALUES (?, ?, ?, ?)`,
			acct.Username, acct.Email, string(hash), role)
		if err != nil {
			return fmt.Errorf("failed to seed %s account: %w", role, err)
		}
	}

	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books`).Scan(&count); err != nil {
		return fmt.Errorf("failed to count books: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	ids := make([]int64, len(seedBooks))
	for i, b := range seedBooks {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO books (title, author, description, isbn, genre, published_year) VALUES (?, ?, ?, ?, ?, ?)`,
			b.Title, b.Author, b.Description, b.ISBN, b.Genre, b.PublishedYear)
		if err != nil {
			return fmt.Errorf("failed to seed book %q: %w", b.Title, err)
		}
		ids[i], _ = res.LastInsertId()
	}

	var demoUserID int64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM users WHERE email = ?`, demoAccounts[models.RoleUser].Email).Scan(&demoUserID); err != nil {
		return fmt.Errorf("failed to find demo user: %w", err)
	}
	for _, r := range seedReviews {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO reviews (book_id, user_id, rating, comment) VALUES (?, ?, ?, ?)`,
			ids[r.book], demoUserID, r.rating, r.comment); err != nil {
			return fmt.Errorf("failed to seed review: %w", err)
		}
	}
	return tx.Commit()
}
