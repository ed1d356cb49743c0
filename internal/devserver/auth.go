package devserver

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/binhbb2204/bookhub/pkg/models"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

// Demo accounts created by Seed and used by /auth/demo-login.
var demoAccounts = map[string]struct {
	Username, Email, Password string
}{
	models.RoleUser:  {"demouser", "user@demo.com", "user123"},
	models.RoleAdmin: {"demoadmin", "admin@demo.com", "admin123"},
}

type Claims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

func (s *Server) issueToken(u models.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   u.ID,
		Username: u.Username,
		Role:     u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
			Subject:   fmt.Sprint(u.ID),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
}

func (s *Server) parseToken(raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// AuthMiddleware requires a valid bearer token and puts user_id, username
// and role into the gin context.
func (s *Server) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			return
		}
		claims, err := s.parseToken(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		// The account may have been deleted or demoted since the token was issued.
		var role string
		err = s.db.QueryRowContext(c.Request.Context(), `SELECT role FROM users WHERE id = ?`, claims.UserID).Scan(&role)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Account not found"})
				return
			}
			s.log.Error("auth_lookup_failed", "error", err.Error())
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("username", claims.Username)
		c.Set("role", role)
		c.Next()
	}
}

// AdminOnly must run after AuthMiddleware.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString("role") != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		c.Next()
	}
}

func (s *Server) Register(c *gin.Context) {
	var req models.RegisterRequest
	if !s.bindValid(c, &req) {
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Role == "" {
		req.Role = models.RoleUser
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	res, err := s.db.ExecContext(c.Request.Context(),
		`INSERT INTO users (username, email, password_hash, role) VALUES (?, ?, ?, ?)`,
		req.Username, req.Email, string(hash), req.Role)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: users.username") {
			c.JSON(http.StatusConflict, gin.H{"error": "Username already exists"})
			return
		}
		if strings.Contains(err.Error(), "UNIQUE constraint failed: users.email") {
			c.JSON(http.StatusConflict, gin.H{"error": "Email already exists"})
			return
		}
		s.dbError(c, "insert_user_failed", err)
		return
	}
	id, _ := res.LastInsertId()

	user, err := s.loadUser(c, id)
	if err != nil {
		s.dbError(c, "load_user_failed", err)
		return
	}
	s.respondAuth(c, http.StatusCreated, user, "Registration successful")
}

func (s *Server) Login(c *gin.Context) {
	var req models.LoginRequest
	if !s.bindValid(c, &req) {
		return
	}
	s.login(c, strings.ToLower(strings.TrimSpace(req.Email)), req.Password, "Login successful")
}

func (s *Server) DemoLogin(c *gin.Context) {
	var req models.DemoLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	acct, ok := demoAccounts[req.UserType]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": `Invalid user type. Must be "user" or "admin"`})
		return
	}
	s.login(c, acct.Email, acct.Password, "Demo login successful")
}

func (s *Server) login(c *gin.Context, email, password, message string) {
	var user models.User
	err := s.db.QueryRowContext(c.Request.Context(),
		`SELECT id, username, email, password_hash, role, created_at FROM users WHERE email = ?`, email).
		Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		s.dbError(c, "login_lookup_failed", err)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	s.respondAuth(c, http.StatusOK, &user, message)
}

func (s *Server) respondAuth(c *gin.Context, status int, user *models.User, message string) {
	token, err := s.issueToken(*user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}
	s.log.Info("user_authenticated", "user_id", user.ID, "role", user.Role)
	c.JSON(status, models.AuthResponse{Token: token, User: user, Message: message})
}

func (s *Server) loadUser(c *gin.Context, id int64) (*models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(c.Request.Context(),
		`SELECT id, username, email, role, created_at FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Username, &u.Email, &u.Role, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
