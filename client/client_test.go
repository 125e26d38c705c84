package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/careercompass/compass-client/api"
	"github.com/careercompass/compass-client/client"
	"github.com/careercompass/compass-client/internal/errors"
	"github.com/careercompass/compass-client/tokens"
	"github.com/careercompass/compass-client/tokens/storefakes"
)

// recordedRequest captures what the server saw for ordering assertions.
type recordedRequest struct {
	Method string
	Path   string
	Bearer string
}

// testFixture wires a fake token store to a recording test server.
type testFixture struct {
	store  *storefakes.FakeStore
	client *client.Client

	lock     sync.Mutex
	requests []recordedRequest
	handler  http.HandlerFunc
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	f := &testFixture{store: storefakes.NewFakeStore()}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.lock.Lock()
		f.requests = append(f.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Bearer: bearerOf(r),
		})
		f.lock.Unlock()
		f.handler(w, r)
	}))
	t.Cleanup(server.Close)

	c, err := client.New(server.URL, f.store)
	require.NoError(t, err)
	f.client = c
	return f
}

func bearerOf(r *http.Request) string {
	const prefix = "Bearer "
	header := r.Header.Get("Authorization")
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		return header[len(prefix):]
	}
	return ""
}

func (f *testFixture) recorded() []recordedRequest {
	f.lock.Lock()
	defer f.lock.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}

func (f *testFixture) countPath(path string) int {
	count := 0
	for _, req := range f.recorded() {
		if req.Path == path {
			count++
		}
	}
	return count
}

func (f *testFixture) setTokens(t *testing.T, access, refresh string) {
	t.Helper()
	require.NoError(t, f.store.Set(apiTokens(access, refresh)))
}

func apiTokens(access, refresh string) *api.TokenResponse {
	return &api.TokenResponse{AccessToken: access, RefreshToken: refresh}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestRequireAuthFailsBeforeAnyNetworkCall(t *testing.T) {
	f := setupTestFixture(t)
	f.handler = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{})
	}

	_, err := f.client.Me(context.Background())
	require.ErrorIs(t, err, errors.ErrAuthRequired)
	require.Empty(t, f.recorded(), "no request may reach the server without a token")
}

func TestSuccessfulAuthenticatedRequest(t *testing.T) {
	f := setupTestFixture(t)
	f.setTokens(t, "access-1", "refresh-1")
	f.handler = func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "access-1", bearerOf(r))
		require.NotEmpty(t, r.Header.Get("X-Request-ID"))
		writeJSON(w, http.StatusOK, map[string]any{"user_id": 7, "email": "a@b.c", "name": "Ada"})
	}

	user, err := f.client.Me(context.Background())
	require.NoError(t, err)
	require.Equal(t, 7, user.UserID)
	require.Equal(t, "Ada", user.Name)
}

func TestUnauthorizedTriggersSingleRefreshAndSingleRetry(t *testing.T) {
	f := setupTestFixture(t)
	f.setTokens(t, "stale-access", "refresh-1")
	f.handler = func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/auth/refresh":
			require.Equal(t, "refresh-1", bearerOf(r))
			writeJSON(w, http.StatusOK, map[string]any{
				"access_token":  "fresh-access",
				"refresh_token": "fresh-refresh",
				"token_type":    "bearer",
			})
		case bearerOf(r) == "stale-access":
			writeJSON(w, http.StatusUnauthorized, map[string]any{"detail": "Invalid or expired token"})
		default:
			require.Equal(t, "fresh-access", bearerOf(r))
			writeJSON(w, http.StatusOK, map[string]any{"user_id": 7, "email": "a@b.c", "name": "Ada"})
		}
	}

	user, err := f.client.Me(context.Background())
	require.NoError(t, err)
	require.Equal(t, 7, user.UserID)

	require.Equal(t, 1, f.countPath("/auth/refresh"), "exactly one refresh call")
	require.Equal(t, 2, f.countPath("/auth/me"), "original request plus exactly one retry")
	require.Equal(t, "fresh-access", f.store.Get(tokens.KindAccess))
	require.Equal(t, "fresh-refresh", f.store.Get(tokens.KindRefresh))
}

func TestSecondUnauthorizedAfterRefreshIsFinal(t *testing.T) {
	f := setupTestFixture(t)
	f.setTokens(t, "stale-access", "refresh-1")
	f.handler = func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/refresh" {
			writeJSON(w, http.StatusOK, map[string]any{
				"access_token":  "fresh-access",
				"refresh_token": "fresh-refresh",
			})
			return
		}
		writeJSON(w, http.StatusUnauthorized, map[string]any{"detail": "still unauthorized"})
	}

	_, err := f.client.Me(context.Background())
	require.Error(t, err)

	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.Status)
	require.Equal(t, "still unauthorized", apiErr.Message)

	require.Equal(t, 1, f.countPath("/auth/refresh"), "no second refresh after a replayed 401")
	require.Equal(t, 2, f.countPath("/auth/me"))
}

func TestFailedRefreshClearsTokensAndExpiresSession(t *testing.T) {
	f := setupTestFixture(t)
	f.setTokens(t, "stale-access", "dead-refresh")
	f.handler = func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/refresh" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"detail": "Invalid or expired token"})
			return
		}
		writeJSON(w, http.StatusUnauthorized, map[string]any{"detail": "Invalid or expired token"})
	}

	_, err := f.client.Me(context.Background())
	require.ErrorIs(t, err, errors.ErrSessionExpired)

	require.Empty(t, f.store.Get(tokens.KindAccess))
	require.Empty(t, f.store.Get(tokens.KindRefresh))
	require.Equal(t, 1, f.countPath("/auth/me"), "the original request is not replayed")
}

func TestMissingRefreshTokenExpiresSessionWithoutRefreshCall(t *testing.T) {
	f := setupTestFixture(t)
	require.NoError(t, f.store.Set(apiTokens("stale-access", "")))
	f.handler = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"detail": "Invalid or expired token"})
	}

	_, err := f.client.Me(context.Background())
	require.ErrorIs(t, err, errors.ErrSessionExpired)
	require.Zero(t, f.countPath("/auth/refresh"))
	require.Empty(t, f.store.Get(tokens.KindAccess))
}

func TestLoginFailureCarriesServerMessage(t *testing.T) {
	f := setupTestFixture(t)
	f.handler = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"detail": "Invalid email or password"})
	}

	_, err := f.client.Login(context.Background(), "nobody@example.com", "pw")
	require.ErrorIs(t, err, errors.ErrLoginFailed)

	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "Invalid email or password", apiErr.Message)

	// A 401 on login must not trigger any refresh attempt.
	require.Zero(t, f.countPath("/auth/refresh"))
}

func TestLoginStoresTokens(t *testing.T) {
	f := setupTestFixture(t)
	f.handler = func(w http.ResponseWriter, r *http.Request) {
		require.Empty(t, bearerOf(r), "login must not send a bearer token")
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token":  "a1",
			"refresh_token": "r1",
			"token_type":    "bearer",
			"expires_in":    3600,
		})
	}

	tr, err := f.client.Login(context.Background(), "ada@example.com", "pw")
	require.NoError(t, err)
	require.Equal(t, "a1", tr.AccessToken)
	require.Equal(t, "a1", f.store.Get(tokens.KindAccess))
	require.Equal(t, "r1", f.store.Get(tokens.KindRefresh))
}

func TestHTTPErrorWithUnparseableBodyFallsBackToGenericMessage(t *testing.T) {
	f := setupTestFixture(t)
	f.setTokens(t, "access-1", "refresh-1")
	f.handler = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("<html>gateway error</html>"))
	}

	_, err := f.client.Me(context.Background())
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusInternalServerError, apiErr.Status)
	require.Equal(t, "request failed with status 500", apiErr.Message)
}

func TestNotFoundMapsToNotFoundSentinel(t *testing.T) {
	f := setupTestFixture(t)
	f.setTokens(t, "access-1", "refresh-1")
	f.handler = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Resume not found"})
	}

	_, err := f.client.Skills(context.Background(), 42)
	require.ErrorIs(t, err, errors.ErrNotFound)

	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "Resume not found", apiErr.Message)
}

func TestDeleteAccountClearsTokens(t *testing.T) {
	f := setupTestFixture(t)
	f.setTokens(t, "access-1", "refresh-1")
	f.handler = func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		writeJSON(w, http.StatusOK, map[string]any{"message": "deleted"})
	}

	require.NoError(t, f.client.DeleteAccount(context.Background()))
	require.False(t, f.store.IsAuthenticated())
}

func TestNetworkErrorIsDowngradedToGenericMessage(t *testing.T) {
	store := storefakes.NewFakeStore()
	require.NoError(t, store.Set(apiTokens("access-1", "refresh-1")))

	// Nothing listens on this address.
	c, err := client.New("http://127.0.0.1:1", store)
	require.NoError(t, err)

	_, err = c.Me(context.Background())
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Zero(t, apiErr.Status)
	require.Equal(t, "network error, please try again", apiErr.Message)
}
