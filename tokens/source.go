package tokens

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"

	"github.com/careercompass/compass-client/api"
	clienterrors "github.com/careercompass/compass-client/internal/errors"
)

// expiryLeeway refreshes slightly early so a token does not expire mid-flight.
const expiryLeeway = 30 * time.Second

// RefreshFunc exchanges the stored refresh token for a new pair.
type RefreshFunc func(ctx context.Context) (*api.TokenResponse, error)

// Source adapts a Store to golang.org/x/oauth2's TokenSource, so libraries
// built on x/oauth2 (oauth2.NewClient and friends) can authenticate with
// Career Compass credentials. The refreshed pair is written back to the
// store so both consumers stay consistent.
type Source struct {
	ctx     context.Context
	store   Store
	refresh RefreshFunc
	nowTime func() time.Time
}

var _ oauth2.TokenSource = (*Source)(nil)

// SourceOption configures a Source.
type SourceOption func(*Source)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) SourceOption {
	return func(s *Source) {
		s.nowTime = nowFunc
	}
}

// NewSource builds a TokenSource over the store. The context bounds refresh
// calls triggered from Token().
func NewSource(ctx context.Context, store Store, refresh RefreshFunc, options ...SourceOption) (*Source, error) {
	if store == nil {
		return nil, errors.New("[NewSource] store is required")
	}
	if refresh == nil {
		return nil, errors.New("[NewSource] refresh func is required")
	}
	s := &Source{
		ctx:     ctx,
		store:   store,
		refresh: refresh,
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Token returns the stored access token, refreshing it first when the exp
// claim shows it expired (or nearly so). Tokens without a readable exp claim
// are returned as-is and left to the transport's 401 handling.
func (s *Source) Token() (*oauth2.Token, error) {
	access := s.store.Get(KindAccess)
	if access == "" {
		return nil, clienterrors.ErrAuthRequired
	}

	expiry, err := AccessTokenExpiry(access)
	if err == nil && expiry.After(s.nowTime().Add(expiryLeeway)) {
		return &oauth2.Token{AccessToken: access, TokenType: "Bearer", Expiry: expiry}, nil
	}
	if err != nil {
		return &oauth2.Token{AccessToken: access, TokenType: "Bearer"}, nil
	}

	refreshed, err := s.refresh(s.ctx)
	if err != nil {
		return nil, errors.Wrap(err, "[Source.Token] refresh")
	}
	if err := s.store.Set(refreshed); err != nil {
		return nil, errors.Wrap(err, "[Source.Token] store refreshed tokens")
	}
	expiry, _ = AccessTokenExpiry(refreshed.AccessToken)
	return &oauth2.Token{AccessToken: refreshed.AccessToken, TokenType: "Bearer", Expiry: expiry}, nil
}
