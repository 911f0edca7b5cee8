package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/claude/gymvoice/internal/voice"
)

// Client sends utterances to the GymVoice server over HTTP.
type Client struct {
	serverURL  string
	apiKey     string
	httpClient *http.Client
	backoff    time.Duration
}

// NewClient creates a new HTTP client for the GymVoice server.
func NewClient(serverURL, apiKey string) *Client {
	return &Client{
		serverURL: strings.TrimRight(serverURL, "/"),
		apiKey:    apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		backoff: time.Second,
	}
}

// SendUtterance POSTs one utterance to the voice endpoint and returns the
// recorded outcome. Retries up to 3 times with exponential backoff on
// transport errors and 5xx responses. A 4xx response fails immediately.
func (c *Client) SendUtterance(ctx context.Context, text, locale string) (voice.Outcome, error) {
	data, err := json.Marshal(map[string]string{"text": text, "locale": locale})
	if err != nil {
		return voice.Outcome{}, fmt.Errorf("marshaling utterance: %w", err)
	}

	var lastErr error
	for attempt := range 3 {
		if attempt > 0 {
			select {
			case <-time.After(c.backoff << uint(attempt-1)):
			case <-ctx.Done():
				return voice.Outcome{}, ctx.Err()
			}
		}

		out, retry, err := c.post(ctx, data)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !retry {
			break
		}
	}

	return voice.Outcome{}, fmt.Errorf("after 3 attempts: %w", lastErr)
}

func (c *Client) post(ctx context.Context, data []byte) (voice.Outcome, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serverURL+"/api/v1/voice", bytes.NewReader(data))
	if err != nil {
		return voice.Outcome{}, false, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return voice.Outcome{}, ctx.Err() == nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return voice.Outcome{}, resp.StatusCode >= 500,
			fmt.Errorf("voice request failed (status %d): %s", resp.StatusCode, body)
	}

	var out voice.Outcome
	if err := json.Unmarshal(body, &out); err != nil {
		return voice.Outcome{}, false, fmt.Errorf("decoding outcome: %w", err)
	}
	return out, false, nil
}
