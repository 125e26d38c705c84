// Package dashboard is the data layer behind the views: query results are
// served through the cache keyed by (resource, user, params), and resume
// mutations invalidate every resource derived from the resume. Views consume
// this package and never touch the transport directly.
package dashboard

import (
	"context"
	"encoding/json"
	"io"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/careercompass/compass-client/api"
	"github.com/careercompass/compass-client/client"
	clienterrors "github.com/careercompass/compass-client/internal/errors"
	"github.com/careercompass/compass-client/querycache"
	"github.com/careercompass/compass-client/stream"
)

// Resource names used as cache-key prefixes.
const (
	ResourceRecommendations = "recommendations"
	ResourceSkills          = "skills"
	ResourceAnalysis        = "analysis"
	ResourceRoadmap         = "roadmap"
)

// resumeDerived lists every resource prefix a resume upload invalidates.
var resumeDerived = []string{
	ResourceRecommendations,
	ResourceSkills,
	ResourceAnalysis,
	ResourceRoadmap,
}

const defaultTTL = 5 * time.Minute

// Service combines the API client with the query cache.
type Service struct {
	client *client.Client
	cache  querycache.Store
	log    zerolog.Logger
	ttl    time.Duration
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithTTL overrides the staleness window for cached entries.
func WithTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		s.ttl = ttl
	}
}

// WithLogger sets the service logger.
func WithLogger(log zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.log = log
	}
}

// NewService initializes a Service with required dependencies.
func NewService(apiClient *client.Client, cache querycache.Store, options ...ServiceOption) (*Service, error) {
	if apiClient == nil {
		return nil, errors.New("[NewService] api client is required")
	}
	if cache == nil {
		return nil, errors.New("[NewService] cache store is required")
	}

	s := &Service{
		client: apiClient,
		cache:  cache,
		log:    zerolog.Nop(),
		ttl:    defaultTTL,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Recommendations returns career recommendations, cached per user and
// params.
func (s *Service) Recommendations(ctx context.Context, userID int, params client.RecommendationParams) (*api.RecommendationsResponse, error) {
	key := querycache.Key{
		Resource: ResourceRecommendations,
		UserID:   userID,
		Params:   recommendationParams(params),
	}
	return fetchThrough(ctx, s, key, func() (*api.RecommendationsResponse, error) {
		return s.client.Recommendations(ctx, userID, params)
	})
}

// Skills returns the cached skills analysis for the user.
func (s *Service) Skills(ctx context.Context, userID int) (*api.SkillsResponse, error) {
	key := querycache.Key{Resource: ResourceSkills, UserID: userID}
	return fetchThrough(ctx, s, key, func() (*api.SkillsResponse, error) {
		return s.client.Skills(ctx, userID)
	})
}

// Analysis returns the cached resume analysis for the user.
func (s *Service) Analysis(ctx context.Context, userID int) (*api.AnalysisResponse, error) {
	key := querycache.Key{Resource: ResourceAnalysis, UserID: userID}
	return fetchThrough(ctx, s, key, func() (*api.AnalysisResponse, error) {
		return s.client.Analysis(ctx, userID)
	})
}

// Roadmap returns the cached learning path for the user.
func (s *Service) Roadmap(ctx context.Context, userID int) (*api.RoadmapResponse, error) {
	key := querycache.Key{Resource: ResourceRoadmap, UserID: userID}
	return fetchThrough(ctx, s, key, func() (*api.RoadmapResponse, error) {
		return s.client.Roadmap(ctx, userID)
	})
}

// SearchChunks is a passthrough: search results are not cached.
func (s *Service) SearchChunks(ctx context.Context, userID int, query string) (*api.SearchChunksResponse, error) {
	return s.client.SearchChunks(ctx, userID, query)
}

// UploadResume uploads and processes a resume, then invalidates every
// resume-derived resource for that user so the next query refetches.
func (s *Service) UploadResume(ctx context.Context, userID int, filename string, file io.Reader) (*api.UploadResult, error) {
	result, err := s.client.ProcessResume(ctx, userID, filename, file)
	if err != nil {
		return nil, err
	}
	s.invalidateResumeDerived(ctx, userID)
	return result, nil
}

// UploadResumeStream is the streaming variant of UploadResume; progress
// events are forwarded to onEvent and the same invalidation runs once the
// stream completes.
func (s *Service) UploadResumeStream(ctx context.Context, userID int, filename string, file io.Reader, onEvent stream.ProgressFunc) error {
	if err := s.client.ProcessResumeStream(ctx, userID, filename, file, onEvent); err != nil {
		return err
	}
	s.invalidateResumeDerived(ctx, userID)
	return nil
}

func (s *Service) invalidateResumeDerived(ctx context.Context, userID int) {
	for _, resource := range resumeDerived {
		if err := s.cache.InvalidatePrefix(ctx, resource, userID); err != nil {
			s.log.Err(err).Str("resource", resource).Int("user_id", userID).Msg("cache invalidation failed")
		}
	}
}

// fetchThrough serves key from the cache, falling back to fetch and caching
// the result. Cache failures degrade to a direct fetch, never to an error.
func fetchThrough[T any](ctx context.Context, s *Service, key querycache.Key, fetch func() (*T, error)) (*T, error) {
	if cached, err := s.cache.Get(ctx, key); err == nil {
		var out T
		if err := json.Unmarshal(cached, &out); err == nil {
			return &out, nil
		}
		s.log.Warn().Str("key", key.String()).Msg("dropping undecodable cache entry")
	} else if !clienterrors.Is(err, clienterrors.ErrCacheMiss) {
		s.log.Warn().Err(err).Str("key", key.String()).Msg("cache read failed")
	}

	fresh, err := fetch()
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(fresh); err == nil {
		if err := s.cache.Set(ctx, key, raw, s.ttl); err != nil {
			s.log.Warn().Err(err).Str("key", key.String()).Msg("cache write failed")
		}
	}
	return fresh, nil
}

func recommendationParams(params client.RecommendationParams) string {
	values := url.Values{}
	if params.UserInterests != "" {
		values.Set("user_interests", params.UserInterests)
	}
	if params.CurrentRole != "" {
		values.Set("current_role", params.CurrentRole)
	}
	return values.Encode()
}
