package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// ErrModerationCooldown is returned while the client is backing off after a
// run of rate-limit responses.
var ErrModerationCooldown = errors.New("moderation cooldown active")

// ErrModerationRateLimited is returned when the moderation API answered 429
// on every attempt.
var ErrModerationRateLimited = errors.New("rate limited by moderation API")

// ModerationResult mirrors one result entry from the OpenAI moderation API.
type ModerationResult struct {
	Flagged        bool               `json:"flagged"`
	Categories     map[string]bool    `json:"categories"`
	CategoryScores map[string]float64 `json:"category_scores"`
}

// ModerationClient wraps the OpenAI moderation endpoint with exponential
// backoff on 429s and a cooldown window once retries are exhausted.
type ModerationClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client

	maxAttempts int
	baseDelay   time.Duration
	cooldown    time.Duration

	mu            sync.Mutex
	cooldownUntil time.Time
}

func NewModerationClient(apiKey string) *ModerationClient {
	return &ModerationClient{
		apiKey:      apiKey,
		baseURL:     "https://api.openai.com/v1/moderations",
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		maxAttempts: 3,
		baseDelay:   2 * time.Second,
		cooldown:    30 * time.Second,
	}
}

// CooldownRemaining reports how long callers must wait before the next
// attempt, zero if no cooldown is active.
func (c *ModerationClient) CooldownRemaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	remaining := time.Until(c.cooldownUntil)
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (c *ModerationClient) startCooldown() {
	c.mu.Lock()
	c.cooldownUntil = time.Now().Add(c.cooldown)
	c.mu.Unlock()
}

// Check classifies text. Retries a 429 up to maxAttempts times with
// exponential backoff (2s, 4s, ...); once exhausted it arms the cooldown
// window and returns the rate-limit error.
func (c *ModerationClient) Check(ctx context.Context, text string) (*ModerationResult, error) {
	if remaining := c.CooldownRemaining(); remaining > 0 {
		return nil, fmt.Errorf("%w: retry in %ds", ErrModerationCooldown, int(remaining.Seconds())+1)
	}

	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.baseDelay << (attempt - 1)):
			}
		}

		result, retryable, err := c.callOnce(ctx, text)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
	}

	c.startCooldown()
	return nil, lastErr
}

func (c *ModerationClient) callOnce(ctx context.Context, text string) (*ModerationResult, bool, error) {
	payload, err := json.Marshal(map[string]string{
		"model": "omni-moderation-latest",
		"input": text,
	})
	if err != nil {
		return nil, false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		reset := resp.Header.Get("x-ratelimit-reset-requests")
		if reset == "" {
			reset = "unknown"
		}
		return nil, true, fmt.Errorf("%w, retry after: %s", ErrModerationRateLimited, reset)
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Error.Message != "" {
			return nil, false, fmt.Errorf("moderation API: %s", apiErr.Error.Message)
		}
		return nil, false, fmt.Errorf("moderation API: HTTP %d", resp.StatusCode)
	}

	var body struct {
		Results []ModerationResult `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, false, err
	}
	if len(body.Results) == 0 {
		return nil, false, errors.New("moderation API returned no results")
	}
	return &body.Results[0], false, nil
}
