// Package backend wraps the HTTP interactions the studio core needs from the
// Agentforge API: agent create/update/fetch, permission snapshots, status
// restore and execution status polls.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/agentforge/agentforge/pkg/models"
)

// DefaultHTTPTimeout bounds every request issued by a client created without
// a custom http.Client.
const DefaultHTTPTimeout = 15 * time.Second

var (
	// ErrUnauthorized indicates the session is no longer allowed to read or
	// write the resource. Callers degrade to restricted behaviour, they do
	// not retry.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound indicates the resource does not exist on the backend.
	ErrNotFound = errors.New("not found")
)

// Client talks to the Agentforge REST API on behalf of one actor.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	actorID    string
}

// NewClient creates an API client. When httpClient is nil a default client
// with a bounded timeout is used.
func NewClient(rawURL, actorID string, httpClient *http.Client) (*Client, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}

	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultHTTPTimeout}
	}

	return &Client{baseURL: parsed, httpClient: httpClient, actorID: actorID}, nil
}

// ActorID returns the actor this client authenticates as.
func (c *Client) ActorID() string {
	return c.actorID
}

// CreateAgent persists a brand new agent and returns the stored entity,
// including the backend-assigned ID and ownership fields.
func (c *Client) CreateAgent(ctx context.Context, agent *models.Agent) (*models.Agent, error) {
	var created models.Agent
	if err := c.do(ctx, http.MethodPost, "/agents", agent, &created); err != nil {
		return nil, err
	}

	return &created, nil
}

// UpdateAgent saves the draft under its persisted ID.
func (c *Client) UpdateAgent(ctx context.Context, id string, agent *models.Agent) (*models.Agent, error) {
	var updated models.Agent
	if err := c.do(ctx, http.MethodPatch, "/agents/"+id, agent, &updated); err != nil {
		return nil, err
	}

	return &updated, nil
}

// FetchAgent retrieves an agent by ID.
func (c *Client) FetchAgent(ctx context.Context, id string) (*models.Agent, error) {
	var agent models.Agent
	if err := c.do(ctx, http.MethodGet, "/agents/"+id, nil, &agent); err != nil {
		return nil, err
	}

	return &agent, nil
}

// PermissionSnapshot fetches the caller's permission snapshot for one agent.
// An authorization failure surfaces as ErrUnauthorized so the caller can
// substitute the restricted snapshot.
func (c *Client) PermissionSnapshot(ctx context.Context, agentID string) (models.PermissionSnapshot, error) {
	var snapshot models.PermissionSnapshot
	if err := c.do(ctx, http.MethodGet, "/agents/"+agentID+"/permissions", nil, &snapshot); err != nil {
		return models.PermissionSnapshot{}, err
	}

	return snapshot, nil
}

// RestoreStatus sets an agent's status back to the given value. Used when an
// edit session on a published agent is cancelled.
func (c *Client) RestoreStatus(ctx context.Context, agentID string, status models.AgentStatus) error {
	payload := map[string]string{"status": string(status)}

	return c.do(ctx, http.MethodPost, "/agents/"+agentID+"/restore-status", payload, nil)
}

// ExecutionStatus polls the current status of one execution.
func (c *Client) ExecutionStatus(ctx context.Context, executionID string) (*models.Execution, error) {
	var execution models.Execution
	if err := c.do(ctx, http.MethodGet, "/executions/"+executionID, nil, &execution); err != nil {
		return nil, err
	}

	return &execution, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, payload, out any) error {
	var body io.Reader

	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}

		body = bytes.NewReader(encoded)
	}

	target := c.baseURL.JoinPath(endpoint).String()

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	if c.actorID != "" {
		req.Header.Set("X-Actor-ID", c.actorID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}

	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode >= http.StatusBadRequest:
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

		return fmt.Errorf("backend returned %d: %s", resp.StatusCode, string(raw))
	}

	if out == nil {
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
