// Package api is a minimal client for the Vercel REST API, covering the
// deployment-listing and deployment-detail endpoints the watcher needs.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Sentinel errors for the two failure modes that get distinct user messages.
var (
	ErrUnauthorized = errors.New("authentication rejected")
	ErrNotFound     = errors.New("not found")
)

// APIError is a non-2xx response from the Vercel API. It unwraps to
// ErrUnauthorized or ErrNotFound for the status codes that matter.
type APIError struct {
	Status  int
	Message string
	Err     error
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("vercel api: HTTP %d", e.Status)
	}
	return fmt.Sprintf("vercel api: HTTP %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

type Client struct {
	BaseURL    string
	Token      string
	TeamID     string
	HTTPClient *http.Client
}

func New(baseURL, token, teamID string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		TeamID:  teamID,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Deployment states returned by the Vercel API.
const (
	StateQueued       = "QUEUED"
	StateBuilding     = "BUILDING"
	StateInitializing = "INITIALIZING"
	StateReady        = "READY"
	StateError        = "ERROR"
	StateCanceled     = "CANCELED"
)

type Deployment struct {
	UID          string `json:"uid"` // v6 list endpoint
	ID           string `json:"id"`  // v13 detail endpoint
	Name         string `json:"name"`
	State        string `json:"state"`
	ReadyState   string `json:"readyState"` // v13 name for the same field
	URL          string `json:"url"`
	ErrorMessage string `json:"errorMessage"`
	Meta         Meta   `json:"meta"`
	CreatedAt    int64  `json:"createdAt"`
}

type Meta struct {
	GithubCommitMessage string `json:"githubCommitMessage"`
	GithubCommitSha     string `json:"githubCommitSha"`
}

// DeploymentID returns the identifier regardless of which endpoint
// produced the record.
func (d *Deployment) DeploymentID() string {
	if d.UID != "" {
		return d.UID
	}
	return d.ID
}

// Status normalizes the state field across the v6 and v13 endpoints.
func (d *Deployment) Status() string {
	if d.State != "" {
		return d.State
	}
	return d.ReadyState
}

// ShortSHA returns the abbreviated commit hash, or "" when the deployment
// was not created from a git commit.
func (d *Deployment) ShortSHA() string {
	sha := d.Meta.GithubCommitSha
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}

// CommitInfo renders "message (abc1234)" for display.
func (d *Deployment) CommitInfo() string {
	msg := d.Meta.GithubCommitMessage
	if msg == "" {
		msg = "n/a"
	}
	if sha := d.ShortSHA(); sha != "" {
		return fmt.Sprintf("%s (%s)", msg, sha)
	}
	return msg
}

// LatestDeployment returns the most recent deployment, filtered to a
// project when one is given, otherwise team-wide.
func (c *Client) LatestDeployment(ctx context.Context, project string) (*Deployment, error) {
	q := url.Values{}
	q.Set("limit", "1")
	if project != "" {
		q.Set("projectId", project)
	}
	if c.TeamID != "" {
		q.Set("teamId", c.TeamID)
	}

	var resp struct {
		Deployments []Deployment `json:"deployments"`
	}
	if err := c.get(ctx, "/v6/deployments?"+q.Encode(), &resp); err != nil {
		return nil, err
	}

	if len(resp.Deployments) == 0 {
		if project != "" {
			return nil, fmt.Errorf("no deployments for project %q: %w", project, ErrNotFound)
		}
		return nil, fmt.Errorf("no deployments for team: %w", ErrNotFound)
	}
	return &resp.Deployments[0], nil
}

// Deployment fetches a single deployment by id. Polling goes through here
// so the watcher stays pinned to the deployment it first observed.
func (c *Client) Deployment(ctx context.Context, id string) (*Deployment, error) {
	path := "/v13/deployments/" + url.PathEscape(id)
	if c.TeamID != "" {
		path += "?teamId=" + url.QueryEscape(c.TeamID)
	}
	var d Deployment
	if err := c.get(ctx, path, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

type User struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// User returns the account the token authenticates as.
func (c *Client) User(ctx context.Context) (*User, error) {
	var resp struct {
		User User `json:"user"`
	}
	if err := c.get(ctx, "/v2/user", &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

func (c *Client) get(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.apiError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

func (c *Client) apiError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode, Message: extractMessage(resp.Body)}
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		apiErr.Err = ErrUnauthorized
		if apiErr.Message == "" {
			apiErr.Message = "invalid or expired token, check VERCEL_TOKEN"
		}
	case http.StatusNotFound:
		apiErr.Err = ErrNotFound
	}
	return apiErr
}

// extractMessage pulls the message out of Vercel's error envelope,
// {"error":{"code":...,"message":...}}, falling back to the raw body.
func extractMessage(body io.Reader) string {
	data, err := io.ReadAll(body)
	if err != nil || len(data) == 0 {
		return ""
	}
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || payload.Error.Message == "" {
		return strings.TrimSpace(string(data))
	}
	return payload.Error.Message
}
