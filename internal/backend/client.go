package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cosci-dev/cosci/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Client talks to the research service REST API. All calls are paced by a
// shared limiter and carry a generated request id for correlation.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

func New(baseURL string, timeout time.Duration, rps float64, burst int, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), burst),
		logger:     logger,
	}
}

type detectDomainRequest struct {
	ResearchQuestion string `json:"research_question"`
}

// StartRequest carries the parameters of a new research session.
type StartRequest struct {
	ResearchGoal           string `json:"research_goal"`
	SessionID              string `json:"session_id"`
	MaxIterations          int    `json:"max_iterations"`
	HypothesesPerIteration int    `json:"hypotheses_per_iteration"`
}

// StartResponse is the acknowledgement returned by the start endpoint.
type StartResponse struct {
	SessionID     string `json:"session_id"`
	Status        string `json:"status"`
	ResearchGoal  string `json:"research_goal"`
	MaxIterations int    `json:"max_iterations"`
	Message       string `json:"message,omitempty"`
}

// SessionSnapshot is the service-side view of a session, used for a final
// consistency read after completion.
type SessionSnapshot struct {
	SessionID  string              `json:"session_id"`
	Goal       string              `json:"goal,omitempty"`
	Status     string              `json:"status"`
	Iteration  int                 `json:"iteration,omitempty"`
	Hypotheses []domain.Hypothesis `json:"hypotheses,omitempty"`
}

// DetectDomain infers subject-matter context for a research question.
func (c *Client) DetectDomain(ctx context.Context, question string) (*domain.DomainContext, error) {
	var dc domain.DomainContext
	err := c.postJSON(ctx, "/api/research/detect-domain", detectDomainRequest{ResearchQuestion: question}, &dc)
	if err != nil {
		return nil, err
	}
	return &dc, nil
}

// StartResearch asks the service to launch a session. Non-2xx is an error.
func (c *Client) StartResearch(ctx context.Context, req StartRequest) (*StartResponse, error) {
	var ack StartResponse
	if err := c.postJSON(ctx, "/api/research/start", req, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

// CancelSession asks the service to stop an active session. Best effort;
// callers typically log rather than surface failures.
func (c *Client) CancelSession(ctx context.Context, sessionID string) error {
	return c.postJSON(ctx, "/api/research/"+sessionID+"/cancel", struct{}{}, nil)
}

// GetSession fetches the service-side status of a session.
func (c *Client) GetSession(ctx context.Context, sessionID string) (*SessionSnapshot, error) {
	var snap SessionSnapshot
	if err := c.getJSON(ctx, "/api/research/"+sessionID, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Health probes the service liveness endpoint.
func (c *Client) Health(ctx context.Context) error {
	return c.getJSON(ctx, "/api/system/health", nil)
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	c.logger.Debug("api call",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.String("request_id", requestID),
		zap.Duration("duration", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s %s returned status %d: %s", req.Method, req.URL.Path, resp.StatusCode, string(respBody))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}
