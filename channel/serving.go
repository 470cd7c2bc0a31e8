package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// defaultServingTimeout bounds a single endpoint invocation.
const defaultServingTimeout = 2 * time.Minute

// httpStatusError reports a non-2xx response from the serving endpoint.
type httpStatusError struct {
	Status int
	Body   string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("endpoint returned status %d: %s", e.Status, e.Body)
}

// Serving talks to a model-serving endpoint over HTTP with bearer auth.
// It sends an OpenAI-compatible chat payload first and falls back to the
// legacy completion format if the endpoint rejects it with a 400.
type Serving struct {
	host       string
	token      string
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewServing creates a serving-endpoint channel.
func NewServing(host, token, endpoint string, logger *slog.Logger) *Serving {
	return &Serving{
		host:     strings.TrimSuffix(host, "/"),
		token:    token,
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: defaultServingTimeout,
		},
		logger: logger,
	}
}

// Name identifies this channel in logs.
func (s *Serving) Name() string {
	return "serving"
}

// endpointURL is the full invocations URL for the configured endpoint.
func (s *Serving) endpointURL() string {
	return fmt.Sprintf("%s/serving-endpoints/%s/invocations", s.host, s.endpoint)
}

// Invoke sends the request and returns the extracted model text.
func (s *Serving) Invoke(ctx context.Context, req Request) (string, error) {
	start := time.Now()

	payload, err := s.post(ctx, buildChatPayload(req))
	if err != nil {
		var statusErr *httpStatusError
		if errors.As(err, &statusErr) && statusErr.Status == http.StatusBadRequest {
			// Endpoint doesn't speak the chat format; try legacy completions.
			s.logger.Info("retrying with legacy completion format", "endpoint", s.endpoint)
			payload, err = s.post(ctx, buildCompletionPayload(req))
		}
		if err != nil {
			return "", err
		}
	}

	s.logger.Info("model response received",
		"endpoint", s.endpoint,
		"elapsed", time.Since(start),
	)

	return ExtractText(payload, s.logger), nil
}

// post sends one JSON payload to the endpoint, retrying transient failures.
func (s *Serving) post(ctx context.Context, payload map[string]any) (map[string]any, error) {
	return retryWithBackoff(ctx, s.logger, "post "+s.endpoint, func() (map[string]any, error) {
		body, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload: %w", err)
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpointURL(), bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		httpReq.Header.Set("Authorization", "Bearer "+s.token)
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := s.httpClient.Do(httpReq)
		if err != nil {
			return nil, fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			return nil, &httpStatusError{
				Status: resp.StatusCode,
				Body:   truncateBody(string(respBody), 200),
			}
		}

		var parsed map[string]any
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
		return parsed, nil
	})
}

// HealthCheck probes the endpoint with a trivial query.
func (s *Serving) HealthCheck(ctx context.Context) bool {
	response, err := s.Invoke(ctx, Request{
		SystemPrompt: "You are a helpful assistant.",
		UserMessage:  "Say 'OK' if you're working.",
		MaxTokens:    10,
	})
	if err != nil {
		s.logger.Warn("health check failed", "error", err)
		return false
	}
	return strings.Contains(strings.ToUpper(response), "OK") || len(response) > 0
}

// buildChatPayload builds an OpenAI-compatible chat completion payload.
func buildChatPayload(req Request) map[string]any {
	payload := map[string]any{
		"messages": []map[string]string{
			{"role": "system", "content": req.SystemPrompt},
			{"role": "user", "content": req.UserMessage},
		},
		"temperature": req.Temperature,
		"max_tokens":  req.MaxTokens,
	}
	if len(req.StopSequences) > 0 {
		payload["stop"] = req.StopSequences
	}
	return payload
}

// buildCompletionPayload builds the legacy single-prompt completion payload.
func buildCompletionPayload(req Request) map[string]any {
	fullPrompt := fmt.Sprintf(`### System Instructions:
%s

### User Request:
%s

### Response:
`, req.SystemPrompt, req.UserMessage)

	return map[string]any{
		"prompt":      fullPrompt,
		"temperature": req.Temperature,
		"max_tokens":  req.MaxTokens,
	}
}

func truncateBody(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
