package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Client sends raw chat-completion requests to an OpenAI-compatible
// endpoint (OpenRouter in production) and returns the first choice's
// message, with retry on transient failures. It corresponds to
// OpenRouterProxy in the original implementation and to
// llm.OpenAIClient in the teacher, merged into one concrete type since
// this spec only ever talks to one kind of endpoint.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	retry   retryConfig
	logger  *zap.Logger
}

// NewClient returns a Client posting to baseURL+"/chat/completions"
// with apiKey as a bearer token. baseURL defaults to OpenRouter's API
// if empty.
func NewClient(apiKey, baseURL string, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = "https://openrouter.ai/api/v1"
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		http:    &http.Client{Timeout: 120 * time.Second},
		retry:   defaultRetryConfig(),
		logger:  logger,
	}
}

// rawRequest is the wire-level entry point used by Process; it exists
// separately from Process so tests can exercise retry/backoff without
// going through the framing-aware request builder.
func (c *Client) rawRequest(ctx context.Context, model string, messages []wireMessage, stop []string) (wireMessage, usage, string, error) {
	reqBody := request{Model: model, Messages: messages, Stop: stop}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return wireMessage{}, usage{}, "", fmt.Errorf("marshal request: %w", err)
	}

	resp, err := doWithRetry(ctx, c.retry, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		return c.http.Do(req)
	})
	if err != nil {
		return wireMessage{}, usage{}, "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return wireMessage{}, usage{}, "", fmt.Errorf("read response: %w", err)
	}

	var apiResp response
	if err := json.Unmarshal(raw, &apiResp); err != nil {
		return wireMessage{}, usage{}, "", fmt.Errorf("unmarshal response: %w", err)
	}
	if len(apiResp.Choices) == 0 {
		return wireMessage{}, usage{}, "", fmt.Errorf("no choices in API response")
	}

	c.logger.Debug("llm response",
		zap.String("model", model),
		zap.Int("prompt_tokens", apiResp.Usage.PromptTokens),
		zap.Int("completion_tokens", apiResp.Usage.CompletionTokens),
	)

	choice := apiResp.Choices[0]
	return choice.Message, apiResp.Usage, choice.FinishReason, nil
}
