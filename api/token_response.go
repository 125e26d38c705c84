package api

// TokenResponse represents the response from the Career Compass token endpoints.
// Returned from /auth/register, /auth/login, and /auth/refresh.
type TokenResponse struct {
	// AccessToken is the JWT used to access protected resources.
	// Usage: Include in Authorization header: "Bearer <access_token>"
	// Lifespan: Short-lived (hours)
	AccessToken string `json:"access_token"`

	// RefreshToken is exchanged for a new token pair at /auth/refresh.
	// Lifespan: Long-lived (days)
	// Security: Stored encrypted at rest by the token store
	RefreshToken string `json:"refresh_token"`

	// TokenType indicates how to use the access token (always "bearer").
	TokenType string `json:"token_type,omitempty"`

	// ExpiresIn is the lifetime in seconds of the access token.
	// Note: This is a hint - actual expiration is in the JWT's "exp" claim
	ExpiresIn int `json:"expires_in,omitempty"`
}
