package api

import "encoding/json"

// User is the account record returned by GET /auth/me. It is derived state:
// the server is authoritative and the client refetches it rather than
// persisting it.
type User struct {
	UserID    int     `json:"user_id"`
	Email     string  `json:"email"`
	Name      string  `json:"name"`
	CreatedAt *string `json:"created_at,omitempty"`
}

// RegisterRequest is the body for POST /auth/register.
type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PasswordChangeRequest is the body for PUT /auth/password.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ErrorBody is the FastAPI-style error envelope: {"detail": "..."}.
type ErrorBody struct {
	Detail string `json:"detail"`
}

// ResumeChunk is one parsed resume section.
type ResumeChunk struct {
	Section string `json:"section"`
	Content string `json:"content"`
	Summary string `json:"summary"`
}

// ParsedResume summarizes server-side parsing of an uploaded resume.
type ParsedResume struct {
	Chunks      []ResumeChunk `json:"chunks"`
	Skills      FlexStrings   `json:"skills"`
	Experience  FlexStrings   `json:"experience"`
	TotalChunks int           `json:"total_chunks"`
}

// UploadResult is returned by POST /resume/process when stream=false.
type UploadResult struct {
	Message    string       `json:"message"`
	ResumeID   int          `json:"resume_id"`
	Filename   string       `json:"filename"`
	ParsedData ParsedResume `json:"parsed_data"`
}

// RecommendationsResponse wraps GET /recommendations/{user_id}. The
// recommendations payload is produced by an LLM and its inner shape is not
// stable, so it is surfaced raw.
type RecommendationsResponse struct {
	UserID          int             `json:"user_id"`
	Recommendations json.RawMessage `json:"recommendations"`
}

// SkillsResponse wraps GET /skills/{user_id}.
type SkillsResponse struct {
	UserID         int             `json:"user_id"`
	TargetRole     string          `json:"target_role,omitempty"`
	SkillsAnalysis json.RawMessage `json:"skills_analysis"`
}

// AnalysisResponse wraps GET /analysis/{user_id}.
type AnalysisResponse struct {
	UserID   int             `json:"user_id"`
	ResumeID int             `json:"resume_id"`
	Analysis json.RawMessage `json:"analysis"`
}

// RoadmapResponse wraps GET /roadmap/{user_id}.
type RoadmapResponse struct {
	UserID  int             `json:"user_id"`
	Roadmap json.RawMessage `json:"roadmap"`
}

// ResumeSectionsResponse wraps GET /resume/analyze/{user_id}.
type ResumeSectionsResponse struct {
	UserID   int             `json:"user_id"`
	ResumeID int             `json:"resume_id"`
	Analysis json.RawMessage `json:"analysis"`
}

// SearchChunksResponse wraps GET /search/chunks.
type SearchChunksResponse struct {
	Query   string        `json:"query"`
	Results []SearchChunk `json:"results"`
}

// SearchChunk is one semantic search hit over stored resume chunks.
type SearchChunk struct {
	Section string  `json:"section"`
	Content string  `json:"content"`
	Score   float64 `json:"score,omitempty"`
}

// FlexStrings decodes a JSON value that the AI backend sometimes emits as a
// single string and sometimes as an array of strings. Non-string array
// elements are dropped rather than failing the whole decode.
type FlexStrings []string

func (f *FlexStrings) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*f = FlexStrings{one}
		return nil
	}
	var many []json.RawMessage
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	out := make(FlexStrings, 0, len(many))
	for _, raw := range many {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			out = append(out, s)
		}
	}
	*f = out
	return nil
}

func (f FlexStrings) MarshalJSON() ([]byte, error) {
	return json.Marshal([]string(f))
}
