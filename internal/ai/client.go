// Package ai talks to an OpenRouter-compatible chat-completions API to
// generate quiz questions from a topic brief, and parses the model's reply
// back into question definitions.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrMissingFields = errors.New("ai: topic, description and question counts are required")
	ErrBadResponse   = errors.New("ai: response carries no message content")
)

// DifficultyCounts is how many questions to request per difficulty band.
type DifficultyCounts struct {
	Easy   int `json:"easy" validate:"min=0"`
	Medium int `json:"medium" validate:"min=0"`
	Hard   int `json:"hard" validate:"min=0"`
}

// GenerateRequest mirrors the proxy endpoint's body. All four fields are
// mandatory; a request without mcq or written counts is rejected before
// anything is sent upstream.
type GenerateRequest struct {
	Topic       string            `json:"topic" validate:"required"`
	Description string            `json:"description" validate:"required"`
	MCQ         *DifficultyCounts `json:"mcq" validate:"required"`
	Written     *DifficultyCounts `json:"written" validate:"required"`
}

// Prompt renders the natural-language instruction forwarded upstream.
// Unset count blocks read as all zeroes.
func (r GenerateRequest) Prompt() string {
	var mcq, written DifficultyCounts
	if r.MCQ != nil {
		mcq = *r.MCQ
	}
	if r.Written != nil {
		written = *r.Written
	}
	return fmt.Sprintf(`
Create a quiz on %q.
Description: %q
MCQ: Easy %d, Medium %d, Hard %d
Written: Easy %d, Medium %d, Hard %d
Return only a JSON array of questions.
`, r.Topic, r.Description,
		mcq.Easy, mcq.Medium, mcq.Hard,
		written.Easy, written.Medium, written.Hard)
}

type Client struct {
	baseURL string
	apiKey  string
	model   string
	httpc   *http.Client
}

// NewClient builds a client for an OpenRouter-compatible endpoint. The
// passed http.Client controls timeout behavior; nil means the default
// client (no timeout: callers cancel via context).
func NewClient(baseURL, apiKey, model string, httpc *http.Client) *Client {
	if httpc == nil {
		httpc = http.DefaultClient
	}
	return &Client{baseURL: baseURL, apiKey: apiKey, model: model, httpc: httpc}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Generate forwards the prompt upstream and returns the raw completion
// response body. No retries: a failed call surfaces as an error and the
// caller reports a generic failure.
func (c *Client) Generate(ctx context.Context, gr GenerateRequest) (json.RawMessage, error) {
	body, err := json.Marshal(chatRequest{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: gr.Prompt()}},
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ai: upstream status %d", resp.StatusCode)
	}
	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// Content extracts the assistant message text from a raw completion
// response: choices[0].message.content, falling back to an "output" field.
func Content(raw json.RawMessage) (string, error) {
	var resp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Output json.RawMessage `json:"output"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) > 0 && resp.Choices[0].Message.Content != "" {
		return resp.Choices[0].Message.Content, nil
	}
	if len(resp.Output) > 0 {
		return string(resp.Output), nil
	}
	return "", ErrBadResponse
}
