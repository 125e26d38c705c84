package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/careercompass/compass-client/api"
)

// RecommendationParams narrows career recommendations to the user's stated
// interests and current role. Both fields are optional.
type RecommendationParams struct {
	UserInterests string
	CurrentRole   string
}

// Recommendations returns AI-generated career recommendations for the user.
func (c *Client) Recommendations(ctx context.Context, userID int, params RecommendationParams) (*api.RecommendationsResponse, error) {
	query := url.Values{}
	if params.UserInterests != "" {
		query.Set("user_interests", params.UserInterests)
	}
	if params.CurrentRole != "" {
		query.Set("current_role", params.CurrentRole)
	}

	var out api.RecommendationsResponse
	err := c.do(ctx, requestSpec{
		method:      http.MethodGet,
		path:        "/recommendations/" + strconv.Itoa(userID),
		query:       query,
		requireAuth: true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Skills returns the skills analysis for the user's resume.
func (c *Client) Skills(ctx context.Context, userID int) (*api.SkillsResponse, error) {
	var out api.SkillsResponse
	err := c.do(ctx, requestSpec{
		method:      http.MethodGet,
		path:        "/skills/" + strconv.Itoa(userID),
		requireAuth: true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Analysis returns the deep resume analysis for the user.
func (c *Client) Analysis(ctx context.Context, userID int) (*api.AnalysisResponse, error) {
	var out api.AnalysisResponse
	err := c.do(ctx, requestSpec{
		method:      http.MethodGet,
		path:        "/analysis/" + strconv.Itoa(userID),
		requireAuth: true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Roadmap returns the learning path for the user.
func (c *Client) Roadmap(ctx context.Context, userID int) (*api.RoadmapResponse, error) {
	var out api.RoadmapResponse
	err := c.do(ctx, requestSpec{
		method:      http.MethodGet,
		path:        "/roadmap/" + strconv.Itoa(userID),
		requireAuth: true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SearchChunks performs semantic search over the user's stored resume chunks.
func (c *Client) SearchChunks(ctx context.Context, userID int, queryText string) (*api.SearchChunksResponse, error) {
	query := url.Values{}
	query.Set("query", queryText)
	query.Set("user_id", strconv.Itoa(userID))

	var out api.SearchChunksResponse
	err := c.do(ctx, requestSpec{
		method:      http.MethodGet,
		path:        "/search/chunks",
		query:       query,
		requireAuth: true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
