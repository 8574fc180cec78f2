// Package advisor asks an OpenAI-compatible chat completions endpoint for a
// short advisory on a leave request. It never fails the caller: every error
// becomes advisory text.
package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const UnavailablePrefix = "AI advisory unavailable:"

type Advisor interface {
	Advise(ctx context.Context, contextText, roleHint string) string
}

type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
}

func NewClient(cfg Config, logger ...*zap.Logger) *Client {
	l := zap.L().Named("advisor.client")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("advisor.client")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	return &Client{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}, logger: l}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func systemPrompt(roleHint string) string {
	audience := "a reviewing manager"
	if strings.EqualFold(roleHint, "hr") {
		audience = "an HR officer"
	}
	return "You assist " + audience + " deciding on an employee leave request. " +
		"Reply with 3 to 5 short bullet points covering workload impact, balance, " +
		"and anything worth checking before deciding. Do not decide for them."
}

func (c *Client) Advise(ctx context.Context, contextText, roleHint string) string {
	if c.cfg.APIKey == "" {
		return UnavailablePrefix + " API key is not configured"
	}

	body, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt(roleHint)},
			{Role: "user", Content: contextText},
		},
		MaxTokens:   400,
		Temperature: 0.3,
	})
	if err != nil {
		return unavailable(err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return unavailable(err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("advisor request failed", zap.Error(err))
		return unavailable(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return unavailable(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("advisor non-2xx response",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", truncate(raw, 512)),
		)
		return unavailable(fmt.Errorf("upstream returned %d", resp.StatusCode))
	}

	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return unavailable(fmt.Errorf("decode response: %w", err))
	}
	if len(out.Choices) == 0 {
		return unavailable(fmt.Errorf("no choices returned"))
	}

	text := strings.TrimSpace(out.Choices[0].Message.Content)
	if text == "" {
		return unavailable(fmt.Errorf("empty advisory"))
	}
	return text
}

func unavailable(err error) string {
	return UnavailablePrefix + " " + err.Error()
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
