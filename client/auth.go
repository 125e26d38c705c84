package client

import (
	"context"
	"net/http"

	"github.com/careercompass/compass-client/api"
	clienterrors "github.com/careercompass/compass-client/internal/errors"
	"github.com/careercompass/compass-client/tokens"
)

// Register creates an account and stores the returned token pair.
func (c *Client) Register(ctx context.Context, email, name, password string) (*api.TokenResponse, error) {
	var tr api.TokenResponse
	err := c.do(ctx, requestSpec{
		method: http.MethodPost,
		path:   "/auth/register",
		body:   api.RegisterRequest{Email: email, Name: name, Password: password},
	}, &tr)
	if err != nil {
		return nil, err
	}
	if err := c.tokens.Set(&tr); err != nil {
		return nil, clienterrors.Wrapf(err, "[Client.Register] store tokens")
	}
	return &tr, nil
}

// Login exchanges credentials for a token pair and stores it. A 401 from the
// server surfaces as a login-failed error carrying the server's message.
func (c *Client) Login(ctx context.Context, email, password string) (*api.TokenResponse, error) {
	var tr api.TokenResponse
	err := c.do(ctx, requestSpec{
		method: http.MethodPost,
		path:   "/auth/login",
		body:   api.LoginRequest{Email: email, Password: password},
	}, &tr)
	if err != nil {
		if apiErr, ok := asAPIError(err); ok && apiErr.Status == http.StatusUnauthorized {
			apiErr.kind = clienterrors.ErrLoginFailed
			return nil, apiErr
		}
		return nil, err
	}
	if err := c.tokens.Set(&tr); err != nil {
		return nil, clienterrors.Wrapf(err, "[Client.Login] store tokens")
	}
	return &tr, nil
}

// Refresh exchanges the stored refresh token for a new pair and stores it.
// It is also the RefreshFunc used by the 401 recovery path and by
// tokens.Source, so it deliberately bypasses do(): refresh must never
// recurse into another refresh.
func (c *Client) Refresh(ctx context.Context) (*api.TokenResponse, error) {
	refreshToken := c.tokens.Get(tokens.KindRefresh)
	if refreshToken == "" {
		return nil, clienterrors.ErrNoRefreshToken
	}

	resp, err := c.send(ctx, requestSpec{method: http.MethodPost, path: "/auth/refresh"}, refreshToken)
	if err != nil {
		return nil, clienterrors.Wrapf(err, "[Client.Refresh] send")
	}

	var tr api.TokenResponse
	if err := c.handleResponse(resp, &tr); err != nil {
		return nil, clienterrors.Wrapf(err, "[Client.Refresh] exchange refresh token")
	}
	if err := c.tokens.Set(&tr); err != nil {
		return nil, clienterrors.Wrapf(err, "[Client.Refresh] store tokens")
	}
	return &tr, nil
}

// Me returns the account for the stored access token.
func (c *Client) Me(ctx context.Context) (*api.User, error) {
	var user api.User
	err := c.do(ctx, requestSpec{
		method:      http.MethodGet,
		path:        "/auth/me",
		requireAuth: true,
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ChangePassword updates the account password.
func (c *Client) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	return c.do(ctx, requestSpec{
		method:      http.MethodPut,
		path:        "/auth/password",
		body:        api.PasswordChangeRequest{CurrentPassword: currentPassword, NewPassword: newPassword},
		requireAuth: true,
	}, nil)
}

// DeleteAccount deletes the account and clears the stored tokens.
func (c *Client) DeleteAccount(ctx context.Context) error {
	err := c.do(ctx, requestSpec{
		method:      http.MethodDelete,
		path:        "/auth/account",
		requireAuth: true,
	}, nil)
	if err != nil {
		return err
	}
	if err := c.tokens.Clear(); err != nil {
		return clienterrors.Wrapf(err, "[Client.DeleteAccount] clear tokens")
	}
	return nil
}

func asAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if clienterrors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
