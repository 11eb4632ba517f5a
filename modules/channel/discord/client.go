package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	maxRetries       = 3
	initialBackoff   = time.Second
	maxResponseBytes = 8 << 20 // 8 MiB — prevent unbounded reads from API responses.
)

// APIError is a non-2xx response from the Discord REST API.
type APIError struct {
	StatusCode int
	Code       int
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("discord: HTTP %d (code %d): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("discord: HTTP %d", e.StatusCode)
}

// apiErrorBody is the JSON error envelope.
type apiErrorBody struct {
	Code       int     `json:"code"`
	Message    string  `json:"message"`
	RetryAfter float64 `json:"retry_after"`
}

// Client is a thin HTTP wrapper around the Discord REST API.
type Client struct {
	token   string
	baseURL string
	http    *http.Client
}

// NewClient creates a new Discord REST API client.
func NewClient(token, baseURL string) *Client {
	return &Client{
		token:   token,
		baseURL: baseURL,
		http: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// do sends a JSON request and decodes the response into T. It handles
// 429 rate limiting with retry_after (max 3 retries).
func do[T any](ctx context.Context, c *Client, method, path string, payload any) (*T, error) {
	var data []byte
	if payload != nil {
		var err error
		data, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("discord: marshal %s request: %w", path, err)
		}
	}

	backoff := initialBackoff

	for attempt := 0; attempt < maxRetries; attempt++ {
		var body io.Reader
		if data != nil {
			body = bytes.NewReader(data)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
		if err != nil {
			return nil, fmt.Errorf("discord: create %s request: %w", path, err)
		}
		req.Header.Set("Authorization", "Bot "+c.token)
		if data != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("discord: %s request failed: %w", path, err)
		}

		respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		_ = resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("discord: read %s response: %w", path, err)
		}

		// Handle rate limiting with retry.
		if resp.StatusCode == http.StatusTooManyRequests && attempt < maxRetries-1 {
			var rateErr apiErrorBody
			if err := json.Unmarshal(respBody, &rateErr); err == nil && rateErr.RetryAfter > 0 {
				backoff = time.Duration(rateErr.RetryAfter * float64(time.Second))
			}

			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
			backoff *= 2
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			apiErr := &APIError{StatusCode: resp.StatusCode}
			var envelope apiErrorBody
			if json.Unmarshal(respBody, &envelope) == nil {
				apiErr.Code = envelope.Code
				apiErr.Message = envelope.Message
			}
			return nil, apiErr
		}

		var out T
		if len(respBody) > 0 {
			if err := json.Unmarshal(respBody, &out); err != nil {
				return nil, fmt.Errorf("discord: decode %s response: %w", path, err)
			}
		}
		return &out, nil
	}

	return nil, fmt.Errorf("discord: %s: max retries exceeded", path)
}

// GetMe returns the bot's own user object, validating the token.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	return do[User](ctx, c, http.MethodGet, "/users/@me", nil)
}

// CreateMessage posts a message to a channel. replyToID, when non-empty,
// makes the message a reply.
func (c *Client) CreateMessage(ctx context.Context, channelID, content, replyToID string) (*Message, error) {
	req := createMessageRequest{Content: content}
	if replyToID != "" {
		req.MessageReference = &messageReference{MessageID: replyToID}
	}
	return do[Message](ctx, c, http.MethodPost, "/channels/"+channelID+"/messages", req)
}

// TriggerTyping shows the typing indicator in a channel for a few
// seconds.
func (c *Client) TriggerTyping(ctx context.Context, channelID string) error {
	_, err := do[struct{}](ctx, c, http.MethodPost, "/channels/"+channelID+"/typing", nil)
	return err
}
