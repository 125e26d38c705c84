package client

import "net/http"

// RecoveryDecision is the outcome of the one-shot silent recovery policy
// applied after a request fails with 401.
type RecoveryDecision int

const (
	// RecoveryNone: the response stands, no recovery is attempted.
	RecoveryNone RecoveryDecision = iota
	// RecoveryRetryWithToken: refresh succeeded, replay the request exactly
	// once with the new access token. The replay's outcome is final.
	RecoveryRetryWithToken
	// RecoverySessionExpired: refresh failed, clear both tokens and fail.
	RecoverySessionExpired
)

// ShouldAttemptRefresh reports whether a refresh may be tried at all: only a
// 401 on a request that actually carried a bearer token qualifies. A 401
// without a token (e.g. bad login credentials) is a plain HTTP error.
func ShouldAttemptRefresh(status int, tokenAttached bool) bool {
	return status == http.StatusUnauthorized && tokenAttached
}

// DecideRecovery maps a failed response plus the refresh outcome to a
// decision. It is a pure function: the transport performs the refresh and
// the replay, this decides. A second 401 after a replay never reaches here
// again, which is what prevents infinite refresh loops.
func DecideRecovery(status int, tokenAttached bool, refreshErr error) RecoveryDecision {
	if !ShouldAttemptRefresh(status, tokenAttached) {
		return RecoveryNone
	}
	if refreshErr != nil {
		return RecoverySessionExpired
	}
	return RecoveryRetryWithToken
}
