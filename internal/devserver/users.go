package devserver

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/binhbb2204/bookhub/pkg/models"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// selfOrAdmin reports whether the caller may act on user id.
func selfOrAdmin(c *gin.Context, id int64) bool {
	return c.GetInt64("user_id") == id || c.GetString("role") == models.RoleAdmin
}

func (s *Server) ListUsers(c *gin.Context) {
	page, limit := pageParams(c)
	where := ` WHERE 1=1`
	var args []interface{}
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		where += ` AND (username LIKE ? OR email LIKE ?)`
		like := "%" + search + "%"
		args = append(args, like, like)
	}
	if role := c.Query("role"); role != "" {
		where += ` AND role = ?`
		args = append(args, role)
	}

	ctx := c.Request.Context()
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`+where, args...).Scan(&total); err != nil {
		s.dbError(c, "count_users_failed", err)
		return
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, username, email, role, created_at FROM users`+where+` ORDER BY id LIMIT ? OFFSET ?`,
		append(args, limit, (page-1)*limit)...)
	if err != nil {
		s.dbError(c, "list_users_failed", err)
		return
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.Role, &u.CreatedAt); err != nil {
			s.dbError(c, "scan_user_failed", err)
			return
		}
		users = append(users, u)
	}
	c.JSON(http.StatusOK, models.UserListResponse{Users: users, Pagination: models.NewPaginationMeta(page, limit, total)})
}

func (s *Server) GetUser(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if !selfOrAdmin(c, id) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}
	user, err := s.loadUser(c, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		s.dbError(c, "get_user_failed", err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateUser changes only the fields present in the body.
func (s *Server) UpdateUser(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if !selfOrAdmin(c, id) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}
	var req models.UpdateProfileRequest
	if !s.bindValid(c, &req) {
		return
	}

	sets := []string{}
	args := []interface{}{}
	if v := strings.TrimSpace(req.Username); v != "" {
		sets = append(sets, "username = ?")
		args = append(args, v)
	}
	if v := strings.ToLower(strings.TrimSpace(req.Email)); v != "" {
		sets = append(sets, "email = ?")
		args = append(args, v)
	}
	if len(sets) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nothing to update"})
		return
	}

	res, err := s.db.ExecContext(c.Request.Context(),
		`UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = ?`, append(args, id)...)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			c.JSON(http.StatusConflict, gin.H{"error": "Username or email already in use"})
			return
		}
		s.dbError(c, "update_user_failed", err)
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	user, err := s.loadUser(c, id)
	if err != nil {
		s.dbError(c, "load_user_failed", err)
		return
	}
	c.JSON(http.StatusOK, models.UserResponse{User: user, Message: "Profile updated successfully"})
}

func (s *Server) ChangePassword(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if c.GetInt64("user_id") != id {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only change your own password"})
		return
	}
	var req models.ChangePasswordRequest
	if !s.bindValid(c, &req) {
		return
	}

	ctx := c.Request.Context()
	var hash string
	if err := s.db.QueryRowContext(ctx, `SELECT password_hash FROM users WHERE id = ?`, id).Scan(&hash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
			return
		}
		s.dbError(c, "password_lookup_failed", err)
		return
	}
	// A wrong current password is a form error: 400, never 401.
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.CurrentPassword)); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Current password is incorrect"})
		return
	}
	newHash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE users SET password_hash = ? WHERE id = ?`, string(newHash), id); err != nil {
		s.dbError(c, "update_password_failed", err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Password changed successfully"})
}

func (s *Server) UpdateRole(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req models.UpdateRoleRequest
	if !s.bindValid(c, &req) {
		return
	}
	if id == c.GetInt64("user_id") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot change your own role"})
		return
	}
	res, err := s.db.ExecContext(c.Request.Context(), `UPDATE users SET role = ? WHERE id = ?`, req.Role, id)
	if err != nil {
		s.dbError(c, "update_role_failed", err)
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	user, err := s.loadUser(c, id)
	if err != nil {
		s.dbError(c, "load_user_failed", err)
		return
	}
	s.log.Info("role_changed", "user_id", id, "role", req.Role)
	c.JSON(http.StatusOK, models.UserResponse{User: user, Message: "Role updated successfully"})
}

func (s *Server) DeleteUser(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if id == c.GetInt64("user_id") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot delete your own account"})
		return
	}
	res, err := s.db.ExecContext(c.Request.Context(), `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		s.dbError(c, "delete_user_failed", err)
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "User deleted successfully"})
}

func (s *Server) AdminStats(c *gin.Context) {
	ctx := c.Request.Context()
	var stats models.AdminStats
	err := s.db.QueryRowContext(ctx, `SELECT
        (SELECT COUNT(*) FROM books),
        (SELECT COUNT(*) FROM users),
        (SELECT COUNT(*) FROM reviews),
        (SELECT COALESCE(AVG(rating), 0) FROM reviews)`).
		Scan(&stats.TotalBooks, &stats.TotalUsers, &stats.TotalReviews, &stats.AverageRating)
	if err != nil {
		s.dbError(c, "admin_stats_failed", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
