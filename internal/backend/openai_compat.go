// Copyright 2026 The synthroute Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package backend

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"golang.org/x/time/rate"
)

// Config describes one OpenAI-compatible provider endpoint.
type Config struct {
	// Name is the backend name used in routing decisions and health records.
	Name string `yaml:"name"`

	// BaseURL is the provider base, e.g. "https://api.openai.com/v1".
	BaseURL string `yaml:"base-url"`

	// APIKey is the bearer credential. Empty means unauthenticated.
	APIKey string `yaml:"api-key"`

	// Model is the upstream model identifier to request.
	Model string `yaml:"model"`

	// Timeout bounds each call. Provider-specific; defaults to 15s.
	Timeout time.Duration `yaml:"timeout"`

	// RequestsPerMinute caps the outbound call rate. Zero disables
	// client-side rate limiting.
	RequestsPerMinute int `yaml:"requests-per-minute"`

	// MaxTokens limits the completion length. Zero omits the field.
	MaxTokens int `yaml:"max-tokens"`

	// Temperature is passed through when non-zero.
	Temperature float64 `yaml:"temperature"`

	// SystemPrompt is prepended as a system message when set.
	SystemPrompt string `yaml:"system-prompt"`
}

// OpenAICompat is a stateless adapter for OpenAI-style chat-completions
// providers. Each instance owns its HTTP client and rate limiter.
type OpenAICompat struct {
	cfg     Config
	client  *http.Client
	limiter *rate.Limiter
}

// NewOpenAICompat creates an adapter bound to one provider endpoint.
func NewOpenAICompat(cfg Config) *OpenAICompat {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerMinute > 0 {
		perSecond := rate.Limit(float64(cfg.RequestsPerMinute) / 60.0)
		burst := cfg.RequestsPerMinute / 10
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(perSecond, burst)
	}

	return &OpenAICompat{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: limiter,
	}
}

// Name implements Client.
func (c *OpenAICompat) Name() string { return c.cfg.Name }

// Call implements Client. It builds a chat-completions payload, posts
// it, and extracts the first choice's message content. Any missing or
// empty content field classifies as a malformed response.
func (c *OpenAICompat) Call(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", newCallError(KindTimeout, 0, "rate limit wait: "+err.Error())
		}
	}

	payload, err := c.buildPayload(prompt)
	if err != nil {
		return "", err
	}

	url := strings.TrimSuffix(c.cfg.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
	httpReq.Header.Set("User-Agent", "synthroute")

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return "", newCallError(KindTimeout, 0, err.Error())
		}
		return "", newCallError(KindTransport, 0, err.Error())
	}
	defer func() {
		if errClose := httpResp.Body.Close(); errClose != nil {
			log.Errorf("backend %s: close response body error: %v", c.cfg.Name, errClose)
		}
	}()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return "", newCallError(KindTransport, 0, err.Error())
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		log.Debugf("backend %s: request error, status %d, body: %s", c.cfg.Name, httpResp.StatusCode, truncate(string(body), 512))
		return "", newCallError(KindRejected, httpResp.StatusCode, truncate(string(body), 512))
	}

	if !gjson.ValidBytes(body) {
		return "", newCallError(KindMalformed, 0, "response is not valid JSON")
	}
	content := gjson.GetBytes(body, "choices.0.message.content")
	if !content.Exists() || content.String() == "" {
		return "", newCallError(KindMalformed, 0, "response missing choices[0].message.content")
	}

	return content.String(), nil
}

// buildPayload assembles the chat-completions request body.
func (c *OpenAICompat) buildPayload(prompt string) ([]byte, error) {
	payload := []byte(`{}`)
	var err error

	if payload, err = sjson.SetBytes(payload, "model", c.cfg.Model); err != nil {
		return nil, err
	}

	idx := 0
	if c.cfg.SystemPrompt != "" {
		payload, _ = sjson.SetBytes(payload, "messages.0.role", "system")
		payload, _ = sjson.SetBytes(payload, "messages.0.content", c.cfg.SystemPrompt)
		idx = 1
	}
	payload, _ = sjson.SetBytes(payload, "messages."+strconv.Itoa(idx)+".role", "user")
	payload, _ = sjson.SetBytes(payload, "messages."+strconv.Itoa(idx)+".content", prompt)

	if c.cfg.MaxTokens > 0 {
		payload, _ = sjson.SetBytes(payload, "max_tokens", c.cfg.MaxTokens)
	}
	if c.cfg.Temperature > 0 {
		payload, _ = sjson.SetBytes(payload, "temperature", c.cfg.Temperature)
	}

	return payload, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
