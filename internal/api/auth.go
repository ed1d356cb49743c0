package api

import (
	"context"
	"errors"
	"strings"

	"github.com/binhbb2204/bookhub/internal/validate"
	"github.com/binhbb2204/bookhub/pkg/models"
)

type AuthAPI struct {
	c *Client
}

func (a *AuthAPI) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Role == "" {
		req.Role = models.RoleUser
	}
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	var res models.AuthResponse
	if err := a.c.post(ctx, "/auth/register", req, &res); err != nil {
		return nil, err
	}
	return checkAuth(&res)
}

func (a *AuthAPI) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	req := models.LoginRequest{
		Email:    strings.ToLower(strings.TrimSpace(email)),
		Password: password,
	}
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	var res models.AuthResponse
	if err := a.c.post(ctx, "/auth/login", req, &res); err != nil {
		return nil, err
	}
	return checkAuth(&res)
}

// DemoLogin signs in as the shared demo account for userType (user or admin).
func (a *AuthAPI) DemoLogin(ctx context.Context, userType string) (*models.AuthResponse, error) {
	if userType != models.RoleUser && userType != models.RoleAdmin {
		return nil, errors.New(`Invalid user type. Must be "user" or "admin"`)
	}
	var res models.AuthResponse
	if err := a.c.post(ctx, "/auth/demo-login", models.DemoLoginRequest{UserType: userType}, &res); err != nil {
		return nil, err
	}
	return checkAuth(&res)
}

func checkAuth(res *models.AuthResponse) (*models.AuthResponse, error) {
	if res.Token == "" || res.User == nil || res.User.ID == 0 {
		return nil, ErrInvalidResponse
	}
	return res, nil
}
