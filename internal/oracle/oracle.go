// Package oracle is the narrow LLM boundary: a single opaque
// text-in/text-out call plus the tolerant JSON extraction the
// orchestrator needs to survive a model that doesn't quite follow the
// output-format instructions.
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/pavank-hl/agentc-trading-go/config"
)

// Oracle is the interface the strategy orchestrator depends on. Kept
// deliberately narrow — one call in, one string out — so a test double
// never needs to know about HTTP, OpenRouter, or JSON envelopes.
type Oracle interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// HTTPOracle calls an OpenRouter-compatible chat-completions endpoint.
type HTTPOracle struct {
	cfg        config.OracleConfig
	httpClient *http.Client
}

// NewHTTPOracle builds an HTTPOracle from oracle configuration.
func NewHTTPOracle(cfg config.OracleConfig) *HTTPOracle {
	timeout := time.Duration(cfg.TimeoutSeconds * float64(time.Second))
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HTTPOracle{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Complete sends system/user prompts to the configured chat-completions
// endpoint and returns the assistant's raw text content.
func (o *HTTPOracle) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	reqBody := chatRequest{
		Model: o.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		MaxTokens:   o.cfg.MaxTokens,
		Temperature: o.cfg.Temperature,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("oracle: marshal request: %w", err)
	}

	url := strings.TrimRight(o.cfg.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("oracle: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.cfg.APIKey)

	resp, err := o.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("oracle: send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("oracle: read response: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("oracle: unmarshal response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("oracle: API error: %s - %s", parsed.Error.Type, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("oracle: empty response")
	}
	return parsed.Choices[0].Message.Content, nil
}

var codeFenceRe = regexp.MustCompile(`(?s)^` + "```" + `(?:json)?\s*\n?(.*?)\n?` + "```" + `$`)

// StripCodeFence removes a surrounding ```json ... ``` or ``` ... ```
// fence, if present, and trims surrounding whitespace.
func StripCodeFence(response string) string {
	response = strings.TrimSpace(response)
	if matches := codeFenceRe.FindStringSubmatch(response); len(matches) > 1 {
		return strings.TrimSpace(matches[1])
	}
	return response
}

// ExtractJSONObject unmarshals content into v. It first tries content
// as-is (after fence-stripping); on failure it falls back to the
// substring between the first '{' and the last '}'. Returns an error
// only if both attempts fail, leaving the caller to decide a safe
// default (e.g. synthesizing HOLD decisions).
func ExtractJSONObject(content string, v any) error {
	content = StripCodeFence(content)

	if err := json.Unmarshal([]byte(content), v); err == nil {
		return nil
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return fmt.Errorf("oracle: no JSON object found in response")
	}

	if err := json.Unmarshal([]byte(content[start:end+1]), v); err != nil {
		return fmt.Errorf("oracle: failed to parse extracted JSON: %w", err)
	}
	return nil
}
