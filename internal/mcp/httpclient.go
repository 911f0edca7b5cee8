package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/claude/gymvoice/internal/models"
	"github.com/claude/gymvoice/internal/voice"
)

// HTTPClient implements Backend by calling the GymVoice REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// the log lives on the remote server (accessed over Tailscale).
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies Backend.
var _ Backend = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
// apiKey is sent on write requests.
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("httpclient: create request: %w", err)
	}
	return c.do(req, path)
}

func (c *HTTPClient) post(ctx context.Context, path string, body any) ([]byte, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: marshal body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("httpclient: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)
	return c.do(req, path)
}

func (c *HTTPClient) do(req *http.Request, path string) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}

	return body, nil
}

func (c *HTTPClient) LogUtterance(ctx context.Context, text, locale string) (voice.Outcome, error) {
	body, err := c.post(ctx, "/api/v1/voice", map[string]string{"text": text, "locale": locale})
	if err != nil {
		return voice.Outcome{}, err
	}
	var out voice.Outcome
	if err := json.Unmarshal(body, &out); err != nil {
		return voice.Outcome{}, fmt.Errorf("httpclient: decode outcome: %w", err)
	}
	return out, nil
}

func (c *HTTPClient) ListExercises(ctx context.Context, includeArchived bool) ([]models.Exercise, error) {
	params := url.Values{}
	if includeArchived {
		params.Set("archived", "true")
	}
	body, err := c.get(ctx, "/api/v1/exercises", params)
	if err != nil {
		return nil, err
	}
	var exercises []models.Exercise
	if err := json.Unmarshal(body, &exercises); err != nil {
		return nil, fmt.Errorf("httpclient: decode exercises: %w", err)
	}
	return exercises, nil
}

func (c *HTTPClient) ActiveSession(ctx context.Context) (uuid.UUID, bool, error) {
	body, err := c.get(ctx, "/api/v1/sessions/active", nil)
	if err != nil {
		return uuid.Nil, false, err
	}
	var resp struct {
		Active    bool       `json:"active"`
		SessionID *uuid.UUID `json:"session_id"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return uuid.Nil, false, fmt.Errorf("httpclient: decode active session: %w", err)
	}
	if !resp.Active || resp.SessionID == nil {
		return uuid.Nil, false, nil
	}
	return *resp.SessionID, true, nil
}

func (c *HTTPClient) SessionSets(ctx context.Context, sessionID uuid.UUID) ([]models.WorkoutSet, error) {
	body, err := c.get(ctx, "/api/v1/sessions/"+sessionID.String()+"/sets", nil)
	if err != nil {
		return nil, err
	}
	var sets []models.WorkoutSet
	if err := json.Unmarshal(body, &sets); err != nil {
		return nil, fmt.Errorf("httpclient: decode sets: %w", err)
	}
	return sets, nil
}

func (c *HTTPClient) SessionSummaries(ctx context.Context, limit int) ([]models.SessionSummary, error) {
	params := url.Values{"limit": {strconv.Itoa(limit)}}
	body, err := c.get(ctx, "/api/v1/sessions", params)
	if err != nil {
		return nil, err
	}
	var sums []models.SessionSummary
	if err := json.Unmarshal(body, &sums); err != nil {
		return nil, fmt.Errorf("httpclient: decode sessions: %w", err)
	}
	return sums, nil
}

func (c *HTTPClient) TimerStatus(ctx context.Context) (TimerStatus, error) {
	body, err := c.get(ctx, "/api/v1/timer", nil)
	if err != nil {
		return TimerStatus{}, err
	}
	var status TimerStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return TimerStatus{}, fmt.Errorf("httpclient: decode timer: %w", err)
	}
	return status, nil
}
