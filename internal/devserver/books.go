package devserver

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/binhbb2204/bookhub/pkg/models"
	"github.com/gin-gonic/gin"
)

const bookColumns = `b.id, b.title, b.author, COALESCE(b.description, ''), COALESCE(b.isbn, ''),
    COALESCE(b.genre, ''), COALESCE(b.published_year, 0), COALESCE(b.cover_image_url, ''), b.created_at,
    AVG(r.rating) AS average_rating, COUNT(r.id) AS review_count`

const bookFrom = ` FROM books b LEFT JOIN reviews r ON r.book_id = b.id`

// Sortable columns; anything else falls back to created_at.
var bookSortColumns = map[string]string{
	"created_at":     "b.created_at",
	"title":          "b.title COLLATE NOCASE",
	"author":         "b.author COLLATE NOCASE",
	"average_rating": "average_rating",
	"review_count":   "review_count",
	"published_year": "b.published_year",
}

type bookFilter struct {
	search    string
	genre     string
	author    string
	minRating float64
	sortBy    string
	sortOrder string
}

func bookFilterFromQuery(c *gin.Context) bookFilter {
	f := bookFilter{
		search:    strings.TrimSpace(c.Query("search")),
		genre:     strings.TrimSpace(c.Query("genre")),
		sortBy:    c.DefaultQuery("sort_by", "created_at"),
		sortOrder: strings.ToLower(c.DefaultQuery("sort_order", "desc")),
	}
	if v, err := strconv.ParseFloat(c.Query("min_rating"), 64); err == nil && v > 0 {
		f.minRating = v
	}
	return f
}

// where returns the WHERE and HAVING clauses with their arguments.
func (f bookFilter) where() (string, []interface{}) {
	clause := ` WHERE 1=1`
	var args []interface{}
	if f.search != "" {
		clause += ` AND (b.title LIKE ? OR b.author LIKE ? OR b.description LIKE ? OR b.isbn LIKE ?)`
		like := "%" + f.search + "%"
		args = append(args, like, like, like, like)
	}
	if f.genre != "" {
		clause += ` AND b.genre = ? COLLATE NOCASE`
		args = append(args, f.genre)
	}
	if f.author != "" {
		clause += ` AND b.author = ? COLLATE NOCASE`
		args = append(args, f.author)
	}
	clause += ` GROUP BY b.id`
	if f.minRating > 0 {
		clause += ` HAVING AVG(r.rating) >= ?`
		args = append(args, f.minRating)
	}
	return clause, args
}

func (f bookFilter) orderBy() string {
	col, ok := bookSortColumns[f.sortBy]
	if !ok {
		col = bookSortColumns["created_at"]
	}
	dir := "DESC"
	if f.sortOrder == "asc" {
		dir = "ASC"
	}
	return ` ORDER BY ` + col + ` ` + dir + ` NULLS LAST, b.id ` + dir
}

func (s *Server) queryBooks(ctx context.Context, f bookFilter, page, limit int) ([]models.Book, int, error) {
	where, args := f.where()

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM (SELECT b.id`+bookFrom+where+`)`, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + bookColumns + bookFrom + where + f.orderBy() + ` LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, query, append(args, limit, (page-1)*limit)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	books := []models.Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, 0, err
		}
		books = append(books, b)
	}
	return books, total, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBook(row rowScanner) (models.Book, error) {
	var b models.Book
	var avg sql.NullFloat64
	err := row.Scan(&b.ID, &b.Title, &b.Author, &b.Description, &b.ISBN, &b.Genre,
		&b.PublishedYear, &b.CoverImageURL, &b.CreatedAt, &avg, &b.ReviewCount)
	if err != nil {
		return b, err
	}
	if avg.Valid {
		v := avg.Float64
		b.AverageRating = &v
	}
	return b, nil
}

func (s *Server) bookByID(ctx context.Context, id int64) (*models.Book, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+bookColumns+bookFrom+` WHERE b.id = ? GROUP BY b.id`, id)
	b, err := scanBook(row)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *Server) ListBooks(c *gin.Context) {
	page, limit := pageParams(c)
	books, total, err := s.queryBooks(c.Request.Context(), bookFilterFromQuery(c), page, limit)
	if err != nil {
		s.dbError(c, "list_books_failed", err)
		return
	}
	c.JSON(http.StatusOK, models.BookListResponse{Books: books, Pagination: models.NewPaginationMeta(page, limit, total)})
}

func (s *Server) BooksByAuthor(c *gin.Context) {
	page, limit := pageParams(c)
	f := bookFilterFromQuery(c)
	f.author = strings.TrimSpace(c.Param("author"))
	books, total, err := s.queryBooks(c.Request.Context(), f, page, limit)
	if err != nil {
		s.dbError(c, "list_books_by_author_failed", err)
		return
	}
	c.JSON(http.StatusOK, models.BookListResponse{Books: books, Pagination: models.NewPaginationMeta(page, limit, total)})
}

// FeaturedBooks lists the best-rated books, most reviewed first among ties.
func (s *Server) FeaturedBooks(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	if limit < 1 {
		limit = 6
	}
	if limit > 20 {
		limit = 20
	}
	query := `SELECT ` + bookColumns + bookFrom + ` GROUP BY b.id
        ORDER BY average_rating DESC NULLS LAST, review_count DESC, b.id DESC LIMIT ?`
	rows, err := s.db.QueryContext(c.Request.Context(), query, limit)
	if err != nil {
		s.dbError(c, "featured_books_failed", err)
		return
	}
	defer rows.Close()

	books := []models.Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			s.dbError(c, "featured_books_scan_failed", err)
			return
		}
		books = append(books, b)
	}
	c.JSON(http.StatusOK, models.BookListResponse{Books: books, Pagination: models.NewPaginationMeta(1, limit, len(books))})
}

func (s *Server) Genres(c *gin.Context) {
	rows, err := s.db.QueryContext(c.Request.Context(),
		`SELECT DISTINCT genre FROM books WHERE genre IS NOT NULL AND genre != '' ORDER BY genre`)
	if err != nil {
		s.dbError(c, "genres_failed", err)
		return
	}
	defer rows.Close()

	genres := []string{}
	for rows.Next() {
		var g string
		if err := rows.Scan(&g); err != nil {
			continue
		}
		genres = append(genres, g)
	}
	c.JSON(http.StatusOK, models.GenresResponse{Genres: genres})
}

func (s *Server) GetBook(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	book, err := s.bookByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Book not found"})
			return
		}
		s.dbError(c, "get_book_failed", err)
		return
	}
	c.JSON(http.StatusOK, book)
}

func (s *Server) CreateBook(c *gin.Context) {
	var in models.BookInput
	if !s.bindValid(c, &in) {
		return
	}
	res, err := s.db.ExecContext(c.Request.Context(),
		`INSERT INTO books (title, author, description, isbn, genre, published_year, cover_image_url)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		in.Title, in.Author, in.Description, in.ISBN, in.Genre, in.PublishedYear, in.CoverImageURL)
	if err != nil {
		s.dbError(c, "create_book_failed", err)
		return
	}
	id, _ := res.LastInsertId()
	book, err := s.bookByID(c.Request.Context(), id)
	if err != nil {
		s.dbError(c, "load_book_failed", err)
		return
	}
	s.log.Info("book_created", "book_id", id, "by", c.GetInt64("user_id"))
	c.JSON(http.StatusCreated, models.BookResponse{Book: book, Message: "Book created successfully"})
}

func (s *Server) UpdateBook(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in models.BookInput
	if !s.bindValid(c, &in) {
		return
	}
	res, err := s.db.ExecContext(c.Request.Context(),
		`UPDATE books SET title = ?, author = ?, description = ?, isbn = ?, genre = ?, published_year = ?, cover_image_url = ?
         WHERE id = ?`,
		in.Title, in.Author, in.Description, in.ISBN, in.Genre, in.PublishedYear, in.CoverImageURL, id)
	if err != nil {
		s.dbError(c, "update_book_failed", err)
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Book not found"})
		return
	}
	book, err := s.bookByID(c.Request.Context(), id)
	if err != nil {
		s.dbError(c, "load_book_failed", err)
		return
	}
	c.JSON(http.StatusOK, models.BookResponse{Book: book, Message: "Book updated successfully"})
}

func (s *Server) DeleteBook(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	res, err := s.db.ExecContext(c.Request.Context(), `DELETE FROM books WHERE id = ?`, id)
	if err != nil {
		s.dbError(c, "delete_book_failed", err)
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Book not found"})
		return
	}
	s.log.Info("book_deleted", "book_id", id, "by", c.GetInt64("user_id"))
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Book deleted successfully"})
}
