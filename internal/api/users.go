package api

import (
	"context"
	"fmt"
	"strings"

	"github.com/binhbb2204/bookhub/internal/validate"
	"github.com/binhbb2204/bookhub/pkg/models"
)

type UsersAPI struct {
	c *Client
}

func (u *UsersAPI) Get(ctx context.Context, id int64) (*models.User, error) {
	if err := requireID(id, "User"); err != nil {
		return nil, err
	}
	var user models.User
	if err := u.c.get(ctx, fmt.Sprintf("/users/%d", id), nil, &user); err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, ErrInvalidResponse
	}
	return &user, nil
}

// List is admin only.
func (u *UsersAPI) List(ctx context.Context, p models.ListParams) (*models.UserListResponse, error) {
	var res models.UserListResponse
	if err := u.c.get(ctx, "/users", p.Values(), &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Update sends only the non-empty fields. The returned user is nil when the
// server does not echo the record back.
func (u *UsersAPI) Update(ctx context.Context, id int64, req models.UpdateProfileRequest) (*models.UserResponse, error) {
	if err := requireID(id, "User"); err != nil {
		return nil, err
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	var res models.UserResponse
	if err := u.c.put(ctx, fmt.Sprintf("/users/%d", id), req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (u *UsersAPI) ChangePassword(ctx context.Context, id int64, req models.ChangePasswordRequest) error {
	if err := requireID(id, "User"); err != nil {
		return err
	}
	if err := validate.Struct(req); err != nil {
		return err
	}
	return u.c.put(ctx, fmt.Sprintf("/users/%d/password", id), req, nil)
}

func (u *UsersAPI) UpdateRole(ctx context.Context, id int64, role string) (*models.User, error) {
	if err := requireID(id, "User"); err != nil {
		return nil, err
	}
	req := models.UpdateRoleRequest{Role: role}
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	var res models.UserResponse
	if err := u.c.put(ctx, fmt.Sprintf("/users/%d/role", id), req, &res); err != nil {
		return nil, err
	}
	if res.User == nil {
		return nil, ErrInvalidResponse
	}
	return res.User, nil
}

func (u *UsersAPI) Delete(ctx context.Context, id int64) error {
	if err := requireID(id, "User"); err != nil {
		return err
	}
	return u.c.delete(ctx, fmt.Sprintf("/users/%d", id), nil)
}
