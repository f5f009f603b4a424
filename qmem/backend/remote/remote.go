// Package remote submits measurement circuits to a hosted quantum job queue
// over HTTP and exposes the queue's asynchronous jobs through the Job
// contract. The cell drives them to completion with its polling state
// machine.
//
// Wire protocol: POST /jobs with an OpenQASM 2.0 program returns a job id;
// GET /jobs/{id} reports status; GET /jobs/{id}/result returns counts.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/becomeliminal/qmem-go-sdk/qmem"
)

// Config configures the queue client.
type Config struct {
	// BaseURL is the queue service root, e.g. "https://api.example.com/v1".
	BaseURL string

	// Backend names the processor jobs should target.
	Backend string

	// Credentials carry the bearer token and account identity. The client
	// holds them for request signing only; they never reach the slot store.
	Credentials qmem.RemoteCredentials

	// HTTPClient overrides the default client (30s timeout).
	HTTPClient *http.Client
}

// Client implements qmem.Runner against the job-queue service.
type Client struct {
	baseURL string
	backend string
	token   string
	http    *http.Client
	log     zerolog.Logger
}

// Option configures the client.
type Option func(*Client)

// WithLogger sets the client's logger. Default: disabled.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = log.With().Str("component", "qmem-remote").Logger()
	}
}

// New creates a queue client. Missing base URL or credentials are
// configuration errors: a remote-queue cell must not come up without a
// reachable, authenticated backend.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("remote: BaseURL is required")
	}
	if cfg.Backend == "" {
		return nil, fmt.Errorf("remote: Backend is required")
	}
	if cfg.Credentials.Token == "" {
		return nil, fmt.Errorf("remote: credentials token is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		backend: cfg.Backend,
		token:   cfg.Credentials.Token,
		http:    httpClient,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type submitRequest struct {
	Backend string `json:"backend"`
	Name    string `json:"name"`
	Shots   int    `json:"shots"`
	Program string `json:"program"`
}

type jobResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type resultResponse struct {
	Counts map[string]int `json:"counts"`
}

// Run submits the circuit and returns a queued job handle.
func (c *Client) Run(ctx context.Context, circ *qmem.Circuit, shots int) (qmem.Job, error) {
	body, err := json.Marshal(submitRequest{
		Backend: c.backend,
		Name:    circ.Name,
		Shots:   shots,
		Program: circ.QASM(),
	})
	if err != nil {
		return nil, fmt.Errorf("remote: encode submit request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/jobs", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("remote: build submit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", uuid.NewString())

	var resp jobResponse
	if err := c.do(req, &resp); err != nil {
		return nil, fmt.Errorf("remote: submit circuit %q: %w", circ.Name, err)
	}
	if resp.ID == "" {
		return nil, fmt.Errorf("remote: submit circuit %q: service returned no job id", circ.Name)
	}

	c.log.Debug().Str("job", resp.ID).Str("circuit", circ.Name).Int("shots", shots).Msg("job submitted")
	return &job{client: c, id: resp.ID}, nil
}

// do executes an authenticated request and decodes a JSON response.
func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("service returned %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// job is a handle to one queued execution.
type job struct {
	client *Client
	id     string
}

func (j *job) ID() string {
	return j.id
}

// Status fetches the backend-reported state.
func (j *job) Status(ctx context.Context) (qmem.JobState, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, j.client.baseURL+"/jobs/"+j.id, nil)
	if err != nil {
		return "", fmt.Errorf("remote: build status request: %w", err)
	}
	var resp jobResponse
	if err := j.client.do(req, &resp); err != nil {
		return "", fmt.Errorf("remote: job %s status: %w", j.id, err)
	}
	return mapStatus(resp.Status)
}

// Result fetches measurement counts for a DONE job.
func (j *job) Result(ctx context.Context) (qmem.Counts, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, j.client.baseURL+"/jobs/"+j.id+"/result", nil)
	if err != nil {
		return nil, fmt.Errorf("remote: build result request: %w", err)
	}
	var resp resultResponse
	if err := j.client.do(req, &resp); err != nil {
		return nil, fmt.Errorf("remote: job %s result: %w", j.id, err)
	}
	return qmem.Counts(resp.Counts), nil
}

// mapStatus translates wire statuses onto the JobState set.
func mapStatus(s string) (qmem.JobState, error) {
	switch strings.ToLower(s) {
	case "queued", "pending":
		return qmem.JobQueued, nil
	case "running", "in_progress":
		return qmem.JobRunning, nil
	case "done", "completed", "succeeded":
		return qmem.JobDone, nil
	case "error", "failed":
		return qmem.JobError, nil
	case "cancelled", "canceled":
		return qmem.JobCancelled, nil
	default:
		return "", fmt.Errorf("remote: unknown job status %q", s)
	}
}
