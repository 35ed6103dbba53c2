// File: internal/agent/agent.go
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pageweaver/pageweaver/internal/config"
)

// Response is a completed agent exchange. Completion holds the raw free-form
// text of the agent; SessionID threads follow-up calls into one conversation.
type Response struct {
	Completion string `json:"completion"`
	SessionID  string `json:"sessionId"`
}

// APIError is a non-2xx answer from the agent runtime.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

// ErrorCode exposes the runtime's machine-readable code to callers that do
// not want to depend on this package's error type.
func (e *APIError) ErrorCode() string { return e.Code }

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("agent runtime error: status %d, code %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("agent runtime error: status %d: %s", e.StatusCode, e.Message)
}

// Client talks to the generative agent runtime over HTTP. Transient upstream
// failures are retried with exponential backoff at this transport level; the
// pipeline above it sees at most one logical invocation.
type Client struct {
	endpoint     string
	agentID      string
	agentAliasID string
	apiKey       string
	httpClient   *http.Client
	maxElapsed   time.Duration
	logger       *zap.Logger
}

type invokeRequest struct {
	InputText string `json:"inputText"`
	SessionID string `json:"sessionId"`
}

type invokeResponse struct {
	Completion string `json:"completion"`
	SessionID  string `json:"sessionId"`
	Error      string `json:"error,omitempty"`
	ErrorCode  string `json:"errorCode,omitempty"`
}

// NewClient initializes the agent runtime client.
func NewClient(cfg config.AgentConfig, logger *zap.Logger) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("agent endpoint is required")
	}
	if cfg.AgentID == "" {
		return nil, fmt.Errorf("agent id is required")
	}
	aliasID := cfg.AgentAliasID
	if aliasID == "" {
		aliasID = "live"
	}

	return &Client{
		endpoint:     cfg.Endpoint,
		agentID:      cfg.AgentID,
		agentAliasID: aliasID,
		apiKey:       cfg.APIKey,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		maxElapsed:   cfg.MaxElapsedTime,
		logger:       logger.Named("agent"),
	}, nil
}

// NewSessionID mints an opaque conversation token.
func NewSessionID() string {
	return "session-" + uuid.NewString()
}

// Invoke sends one prompt to the agent and returns the completion text. When
// sessionID is empty a fresh session is started. The response stream is
// concatenated in delivery order by the runtime before it reaches us.
func (c *Client) Invoke(ctx context.Context, prompt, sessionID string) (*Response, error) {
	if sessionID == "" {
		sessionID = NewSessionID()
	}

	body, err := json.Marshal(invokeRequest{InputText: prompt, SessionID: sessionID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal invoke request: %w", err)
	}

	url := fmt.Sprintf("%s/agents/%s/aliases/%s/invoke", c.endpoint, c.agentID, c.agentAliasID)

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = c.maxElapsed
	b.MaxInterval = 30 * time.Second

	var result *Response

	operation := func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create HTTP request: %w", err))
		}
		httpReq.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		start := time.Now()
		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			c.logger.Warn("Network error during agent invocation, retrying...", zap.Error(err))
			return fmt.Errorf("failed to execute HTTP request: %w", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			return c.classifyAPIError(resp.StatusCode, respBody)
		}

		var payload invokeResponse
		if err := json.Unmarshal(respBody, &payload); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to decode agent response: %w", err))
		}
		if payload.Error != "" {
			return backoff.Permanent(&APIError{
				StatusCode: resp.StatusCode,
				Code:       payload.ErrorCode,
				Message:    payload.Error,
			})
		}

		sid := payload.SessionID
		if sid == "" {
			sid = sessionID
		}

		c.logger.Info("Agent invocation complete",
			zap.Duration("duration", time.Since(start)),
			zap.String("session_id", sid),
			zap.Int("completion_bytes", len(payload.Completion)),
		)

		result = &Response{Completion: payload.Completion, SessionID: sid}
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return nil, err
	}
	return result, nil
}

// VerifyConnection sends a canned prompt to confirm the runtime is reachable
// and the credentials work.
func (c *Client) VerifyConnection(ctx context.Context) error {
	_, err := c.Invoke(ctx, "Hello, this is a connection test.", "")
	if err != nil {
		return fmt.Errorf("agent connection test failed: %w", err)
	}
	return nil
}

// classifyAPIError decides whether a non-2xx status is worth retrying.
func (c *Client) classifyAPIError(statusCode int, body []byte) error {
	var payload invokeResponse
	_ = json.Unmarshal(body, &payload)

	apiErr := &APIError{
		StatusCode: statusCode,
		Code:       payload.ErrorCode,
		Message:    payload.Error,
	}
	if apiErr.Message == "" {
		apiErr.Message = string(body)
	}

	c.logger.Error("Agent runtime returned error status",
		zap.Int("status", statusCode),
		zap.String("code", apiErr.Code),
	)

	switch statusCode {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusInternalServerError:
		return apiErr // Transient, retry.
	default:
		return backoff.Permanent(apiErr)
	}
}
