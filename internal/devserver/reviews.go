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

const reviewSelect = `SELECT r.id, r.book_id, b.title, r.user_id, u.username, r.rating, COALESCE(r.comment, ''),
    r.created_at, r.updated_at
    FROM reviews r
    JOIN users u ON u.id = r.user_id
    JOIN books b ON b.id = r.book_id`

func scanReview(row rowScanner) (models.Review, error) {
	var rv models.Review
	err := row.Scan(&rv.ID, &rv.BookID, &rv.BookTitle, &rv.UserID, &rv.Username, &rv.Rating, &rv.Comment,
		&rv.CreatedAt, &rv.UpdatedAt)
	return rv, err
}

func (s *Server) queryReviews(ctx context.Context, where string, args []interface{}, page, limit int) ([]models.Review, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM reviews r` + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := reviewSelect + where + ` ORDER BY r.created_at DESC, r.id DESC LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, query, append(args, limit, (page-1)*limit)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	reviews := []models.Review{}
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, 0, err
		}
		reviews = append(reviews, rv)
	}
	return reviews, total, rows.Err()
}

func (s *Server) reviewByID(ctx context.Context, id int64) (*models.Review, error) {
	rv, err := scanReview(s.db.QueryRowContext(ctx, reviewSelect+` WHERE r.id = ?`, id))
	if err != nil {
		return nil, err
	}
	return &rv, nil
}

// ListReviews serves GET /reviews?book_id=.
func (s *Server) ListReviews(c *gin.Context) {
	bookID, err := strconv.ParseInt(c.Query("book_id"), 10, 64)
	if err != nil || bookID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "book_id is required"})
		return
	}
	page, limit := pageParams(c)
	reviews, total, err := s.queryReviews(c.Request.Context(), ` WHERE r.book_id = ?`, []interface{}{bookID}, page, limit)
	if err != nil {
		s.dbError(c, "list_reviews_failed", err)
		return
	}
	c.JSON(http.StatusOK, models.ReviewListResponse{Reviews: reviews, Pagination: models.NewPaginationMeta(page, limit, total)})
}

func (s *Server) RecentReviews(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	if limit < 1 {
		limit = 5
	}
	if limit > 50 {
		limit = 50
	}
	reviews, total, err := s.queryReviews(c.Request.Context(), ``, nil, 1, limit)
	if err != nil {
		s.dbError(c, "recent_reviews_failed", err)
		return
	}
	c.JSON(http.StatusOK, models.ReviewListResponse{Reviews: reviews, Pagination: models.NewPaginationMeta(1, limit, total)})
}

func (s *Server) UserReviews(c *gin.Context) {
	userID, ok := idParam(c, "id")
	if !ok {
		return
	}
	page, limit := pageParams(c)
	reviews, total, err := s.queryReviews(c.Request.Context(), ` WHERE r.user_id = ?`, []interface{}{userID}, page, limit)
	if err != nil {
		s.dbError(c, "user_reviews_failed", err)
		return
	}
	c.JSON(http.StatusOK, models.ReviewListResponse{Reviews: reviews, Pagination: models.NewPaginationMeta(page, limit, total)})
}

func (s *Server) RatingSummary(c *gin.Context) {
	bookID, ok := idParam(c, "id")
	if !ok {
		return
	}
	sum := models.RatingSummary{BookID: bookID, Distribution: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}}

	rows, err := s.db.QueryContext(c.Request.Context(),
		`SELECT rating, COUNT(*) FROM reviews WHERE book_id = ? GROUP BY rating`, bookID)
	if err != nil {
		s.dbError(c, "rating_summary_failed", err)
		return
	}
	defer rows.Close()

	total := 0
	for rows.Next() {
		var rating, count int
		if err := rows.Scan(&rating, &count); err != nil {
			continue
		}
		sum.Distribution[rating] = count
		sum.ReviewCount += count
		total += rating * count
	}
	if sum.ReviewCount > 0 {
		avg := float64(total) / float64(sum.ReviewCount)
		sum.AverageRating = &avg
	}
	c.JSON(http.StatusOK, sum)
}

func (s *Server) CreateReview(c *gin.Context) {
	var req models.CreateReviewRequest
	if !s.bindValid(c, &req) {
		return
	}
	ctx := c.Request.Context()
	userID := c.GetInt64("user_id")

	var exists int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books WHERE id = ?`, req.BookID).Scan(&exists); err != nil {
		s.dbError(c, "create_review_failed", err)
		return
	}
	if exists == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Book not found"})
		return
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO reviews (book_id, user_id, rating, comment) VALUES (?, ?, ?, ?)`,
		req.BookID, userID, req.Rating, strings.TrimSpace(req.Comment))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			c.JSON(http.StatusConflict, gin.H{"error": "You have already reviewed this book"})
			return
		}
		s.dbError(c, "create_review_failed", err)
		return
	}
	id, _ := res.LastInsertId()
	rv, err := s.reviewByID(ctx, id)
	if err != nil {
		s.dbError(c, "load_review_failed", err)
		return
	}
	s.log.Info("review_created", "review_id", id, "book_id", req.BookID, "user_id", userID)
	c.JSON(http.StatusCreated, models.ReviewResponse{Review: rv, Message: "Review submitted successfully"})
}

// UpdateReview lets only the author edit a review.
func (s *Server) UpdateReview(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req models.UpdateReviewRequest
	if !s.bindValid(c, &req) {
		return
	}
	ctx := c.Request.Context()

	owner, found := s.reviewOwner(c, id)
	if !found {
		return
	}
	if owner != c.GetInt64("user_id") {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only edit your own reviews"})
		return
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE reviews SET rating = ?, comment = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		req.Rating, strings.TrimSpace(req.Comment), id); err != nil {
		s.dbError(c, "update_review_failed", err)
		return
	}
	rv, err := s.reviewByID(ctx, id)
	if err != nil {
		s.dbError(c, "load_review_failed", err)
		return
	}
	c.JSON(http.StatusOK, models.ReviewResponse{Review: rv, Message: "Review updated successfully"})
}

// DeleteReview is allowed for the author and for admins.
func (s *Server) DeleteReview(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	owner, found := s.reviewOwner(c, id)
	if !found {
		return
	}
	if owner != c.GetInt64("user_id") && c.GetString("role") != models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only delete your own reviews"})
		return
	}
	if _, err := s.db.ExecContext(c.Request.Context(), `DELETE FROM reviews WHERE id = ?`, id); err != nil {
		s.dbError(c, "delete_review_failed", err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Review deleted successfully"})
}

// reviewOwner writes the error response itself when found is false.
func (s *Server) reviewOwner(c *gin.Context, id int64) (owner int64, found bool) {
	err := s.db.QueryRowContext(c.Request.Context(), `SELECT user_id FROM reviews WHERE id = ?`, id).Scan(&owner)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Review not found"})
			return 0, false
		}
		s.dbError(c, "review_lookup_failed", err)
		return 0, false
	}
	return owner, true
}
