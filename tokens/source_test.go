package tokens_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/careercompass/compass-client/api"
	"github.com/careercompass/compass-client/internal/errors"
	"github.com/careercompass/compass-client/tokens"
	"github.com/careercompass/compass-client/tokens/storefakes"
)

func TestSourceReturnsValidToken(t *testing.T) {
	store := storefakes.NewFakeStore()
	raw := signedToken(t, time.Now().Add(time.Hour))
	require.NoError(t, store.Set(&api.TokenResponse{AccessToken: raw, RefreshToken: "r1"}))

	refreshCalls := 0
	source, err := tokens.NewSource(context.Background(), store, func(context.Context) (*api.TokenResponse, error) {
		refreshCalls++
		return nil, errors.ErrInternal
	})
	require.NoError(t, err)

	token, err := source.Token()
	require.NoError(t, err)
	require.Equal(t, raw, token.AccessToken)
	require.Equal(t, "Bearer", token.TokenType)
	require.Zero(t, refreshCalls)
}

func TestSourceRefreshesExpiredToken(t *testing.T) {
	store := storefakes.NewFakeStore()
	expired := signedToken(t, time.Now().Add(-time.Minute))
	fresh := signedToken(t, time.Now().Add(time.Hour))
	require.NoError(t, store.Set(&api.TokenResponse{AccessToken: expired, RefreshToken: "r1"}))

	refreshCalls := 0
	source, err := tokens.NewSource(context.Background(), store, func(context.Context) (*api.TokenResponse, error) {
		refreshCalls++
		return &api.TokenResponse{AccessToken: fresh, RefreshToken: "r2"}, nil
	})
	require.NoError(t, err)

	token, err := source.Token()
	require.NoError(t, err)
	require.Equal(t, fresh, token.AccessToken)
	require.Equal(t, 1, refreshCalls)

	// The refreshed pair is written back to the store.
	require.Equal(t, fresh, store.Get(tokens.KindAccess))
	require.Equal(t, "r2", store.Get(tokens.KindRefresh))
}

func TestSourceWithoutTokenFailsAuthRequired(t *testing.T) {
	source, err := tokens.NewSource(context.Background(), storefakes.NewFakeStore(), func(context.Context) (*api.TokenResponse, error) {
		return nil, nil
	})
	require.NoError(t, err)

	_, err = source.Token()
	require.ErrorIs(t, err, errors.ErrAuthRequired)
}

func TestSourcePassesThroughOpaqueToken(t *testing.T) {
	// A non-JWT access token has no readable exp claim; the source returns
	// it unchanged and leaves expiry handling to the transport.
	store := storefakes.NewFakeStore()
	require.NoError(t, store.Set(&api.TokenResponse{AccessToken: "opaque-token", RefreshToken: "r1"}))

	source, err := tokens.NewSource(context.Background(), store, func(context.Context) (*api.TokenResponse, error) {
		t.Fatal("refresh must not be called for opaque tokens")
		return nil, nil
	})
	require.NoError(t, err)

	token, err := source.Token()
	require.NoError(t, err)
	require.Equal(t, "opaque-token", token.AccessToken)
}
