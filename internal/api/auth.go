package api

import (
	"context"
	"fmt"
)

// Login authenticates against the backend and returns the session token
// and user id. The caller is responsible for persisting them.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var result LoginResult
	err := c.post(ctx, "/api/auth/login", loginRequest{
		Email:    email,
		Password: password,
	}, &result)
	if err != nil {
		return nil, fmt.Errorf("logging in: %w", err)
	}
	if result.Token == "" {
		return nil, fmt.Errorf("logging in: backend returned no token")
	}
	return &result, nil
}
