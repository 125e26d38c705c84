package client

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/careercompass/compass-client/api"
	"github.com/careercompass/compass-client/stream"
	"github.com/careercompass/compass-client/tokens"
)

// ProcessResume uploads a resume as multipart form data with stream=false
// and returns the full processing result once the server has finished.
// The request goes through the normal one-shot recovery path.
func (c *Client) ProcessResume(ctx context.Context, userID int, filename string, file io.Reader) (*api.UploadResult, error) {
	body, contentType, err := multipartBody(filename, file)
	if err != nil {
		return nil, err
	}

	token := c.tokens.Get(tokens.KindAccess)
	if token == "" {
		return nil, newAuthRequiredErr()
	}

	resp, err := c.sendMultipart(ctx, userID, false, body, contentType, token)
	if err != nil {
		return nil, newTransportErr(err)
	}

	if ShouldAttemptRefresh(resp.StatusCode, true) {
		drain(resp.Body)
		refreshed, refreshErr := c.Refresh(ctx)

		switch DecideRecovery(resp.StatusCode, true, refreshErr) {
		case RecoveryRetryWithToken:
			resp, err = c.sendMultipart(ctx, userID, false, body, contentType, refreshed.AccessToken)
			if err != nil {
				return nil, newTransportErr(err)
			}
		case RecoverySessionExpired:
			if clearErr := c.tokens.Clear(); clearErr != nil {
				c.log.Err(clearErr).Msg("failed to clear tokens after refresh failure")
			}
			return nil, newSessionExpiredErr()
		}
	}

	var result api.UploadResult
	if err := c.handleResponse(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ProcessResumeStream uploads a resume with stream=true and forwards each
// NDJSON progress event to onEvent as the server processes the file. The
// bearer token is attached when present but there is no refresh-retry here:
// a partially consumed stream is not replayable. Completion is signalled by
// the end of the byte stream.
func (c *Client) ProcessResumeStream(ctx context.Context, userID int, filename string, file io.Reader, onEvent stream.ProgressFunc) error {
	body, contentType, err := multipartBody(filename, file)
	if err != nil {
		return err
	}

	token := c.tokens.Get(tokens.KindAccess)
	resp, err := c.sendMultipart(ctx, userID, true, body, contentType, token)
	if err != nil {
		return newTransportErr(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return newTransportErr(readErr)
		}
		return newHTTPErr(resp.StatusCode, serverMessage(raw), errorKindFor(resp.StatusCode))
	}

	reader := stream.NewReader(c.log)
	if err := reader.Consume(ctx, resp.Body, onEvent); err != nil {
		return newTransportErr(err)
	}
	return nil
}

// ResumeSections returns the parsed section samples for the user's latest
// resume.
func (c *Client) ResumeSections(ctx context.Context, userID int) (*api.ResumeSectionsResponse, error) {
	var out api.ResumeSectionsResponse
	err := c.do(ctx, requestSpec{
		method:      http.MethodGet,
		path:        "/resume/analyze/" + strconv.Itoa(userID),
		requireAuth: true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) sendMultipart(ctx context.Context, userID int, streamed bool, body []byte, contentType, token string) (*http.Response, error) {
	query := url.Values{}
	query.Set("user_id", strconv.Itoa(userID))
	query.Set("stream", strconv.FormatBool(streamed))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.requestURL("/resume/process", query), bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "[Client.sendMultipart] build request")
	}
	req.Header.Set("Content-Type", contentType)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("X-Request-ID", uuid.New().String())

	c.log.Debug().
		Int("user_id", userID).
		Bool("stream", streamed).
		Msg("resume upload")

	return c.httpClient.Do(req)
}

// multipartBody buffers the file into a multipart form. Resumes are small
// documents; buffering keeps the body replayable for the post-refresh retry.
func multipartBody(filename string, file io.Reader) ([]byte, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, "", newTransportErr(err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, "", newTransportErr(err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", newTransportErr(err)
	}
	return buf.Bytes(), writer.FormDataContentType(), nil
}
