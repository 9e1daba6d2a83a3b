// Package generator asks an OpenAI-compatible chat completion endpoint to
// draft task lists in taskmark markup.
package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var (
	ErrDisabled           = errors.New("generator: no API key configured")
	ErrInvalidKey         = errors.New("generator: invalid API key")
	ErrModelUnavailable   = errors.New("generator: model not available")
	ErrRateLimited        = errors.New("generator: rate limit exceeded")
	ErrServiceUnavailable = errors.New("generator: service temporarily unavailable")
	ErrEmptyResponse      = errors.New("generator: empty response")
	ErrAPI                = errors.New("generator: API request failed")
)

// APIError is a non-2xx answer from the endpoint. It unwraps to one of the
// package sentinels.
type APIError struct {
	Status int
	Body   string
	kind   error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: status=%d body=%s", e.kind, e.Status, e.Body)
}

func (e *APIError) Unwrap() error { return e.kind }

func statusError(status int, body string) error {
	kind := ErrAPI
	switch {
	case status == http.StatusUnauthorized:
		kind = ErrInvalidKey
	case status == http.StatusNotFound:
		kind = ErrModelUnavailable
	case status == http.StatusTooManyRequests:
		kind = ErrRateLimited
	case status >= 500:
		kind = ErrServiceUnavailable
	}
	return &APIError{Status: status, Body: body, kind: kind}
}

// Config configures the client.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// Message is a chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// Client wraps an HTTP client for chat completion calls.
type Client struct {
	httpClient *http.Client
	cfg        Config
}

// NewClient creates a new generator client.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		cfg:        cfg,
	}
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c.cfg.APIKey != ""
}

// Model returns the configured model.
func (c *Client) Model() string {
	return c.cfg.Model
}

// Generate turns a free-form request into a task list. The result is the
// trimmed assistant message; it is not checked against the markup.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if !c.Enabled() {
		return "", ErrDisabled
	}
	resp, err := c.chat(ctx, []Message{
		{Role: "system", Content: SystemPrompt},
		{Role: "user", Content: prompt},
	})
	if err != nil {
		return "", err
	}
	var content string
	if len(resp.Choices) > 0 {
		content = strings.TrimSpace(resp.Choices[0].Message.Content)
	}
	if content == "" {
		return "", ErrEmptyResponse
	}
	return content, nil
}

func (c *Client) chat(ctx context.Context, messages []Message) (*chatResponse, error) {
	reqBody, err := json.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("generator: marshal request: %w", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("generator: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	httpReq.Header.Set("X-Title", "taskmark")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("generator: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, statusError(resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("generator: decode response: %w", err)
	}
	return &out, nil
}
