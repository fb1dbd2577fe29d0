// Package monitor implements the polling loop that watches one Vercel
// deployment until it reaches a terminal state or the attempt budget runs out.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"heimdall/api"
)

var (
	// ErrTimeout is returned when the attempt budget is spent while the
	// deployment is still in a non-terminal state. Maps to exit code 2.
	ErrTimeout = errors.New("timed out waiting for deployment to resolve")

	// ErrCanceled is returned when the platform cancels the deployment.
	ErrCanceled = errors.New("deployment was canceled")
)

// DeployError is a terminal ERROR state. Message carries the platform's
// error text verbatim.
type DeployError struct {
	Message string
}

func (e *DeployError) Error() string {
	if e.Message == "" {
		return "deployment failed"
	}
	return "deployment failed: " + e.Message
}

// API is the slice of the Vercel client the monitor needs.
type API interface {
	LatestDeployment(ctx context.Context, project string) (*api.Deployment, error)
	Deployment(ctx context.Context, id string) (*api.Deployment, error)
}

// Reporter receives progress callbacks so the plain and interactive
// frontends can share the same loop.
type Reporter interface {
	// Found fires once, after the initial lookup resolves a deployment.
	Found(d *api.Deployment)
	// Waiting fires before each sleep between polls.
	Waiting(attempt, max int, interval time.Duration)
}

type nopReporter struct{}

func (nopReporter) Found(*api.Deployment)           {}
func (nopReporter) Waiting(int, int, time.Duration) {}

type Monitor struct {
	api         API
	interval    time.Duration
	maxAttempts int
	reporter    Reporter
	sleep       func(time.Duration)
}

type Option func(*Monitor)

func WithInterval(d time.Duration) Option {
	return func(m *Monitor) { m.interval = d }
}

func WithMaxAttempts(n int) Option {
	return func(m *Monitor) { m.maxAttempts = n }
}

func WithReporter(r Reporter) Option {
	return func(m *Monitor) { m.reporter = r }
}

// WithSleep overrides the sleep function between polls. Test seam.
func WithSleep(fn func(time.Duration)) Option {
	return func(m *Monitor) { m.sleep = fn }
}

func New(client API, opts ...Option) *Monitor {
	m := &Monitor{
		api:         client,
		interval:    30 * time.Second,
		maxAttempts: 10,
		reporter:    nopReporter{},
		sleep:       time.Sleep,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Terminal reports whether a deployment state can no longer transition.
// Unrecognized states are treated as in-progress and keep polling against
// the same attempt budget.
func Terminal(state string) bool {
	switch state {
	case api.StateReady, api.StateError, api.StateCanceled:
		return true
	}
	return false
}

// Run resolves the latest deployment for project (team-wide when empty) and
// polls until it settles. The deployment id is pinned after the first
// lookup, so a deployment triggered mid-watch cannot silently switch the
// target. The last observed record is returned alongside the outcome:
// nil for READY, *DeployError for ERROR, ErrCanceled, or ErrTimeout.
func (m *Monitor) Run(ctx context.Context, project string) (*api.Deployment, error) {
	d, err := m.api.LatestDeployment(ctx, project)
	if err != nil {
		return nil, err
	}
	m.reporter.Found(d)

	attempts := 1
	for !Terminal(d.Status()) {
		if attempts >= m.maxAttempts {
			return d, fmt.Errorf("no terminal state after %d checks (%s): %w",
				m.maxAttempts, time.Duration(m.maxAttempts)*m.interval, ErrTimeout)
		}
		m.reporter.Waiting(attempts, m.maxAttempts, m.interval)
		m.sleep(m.interval)

		d, err = m.api.Deployment(ctx, d.DeploymentID())
		if err != nil {
			return nil, err
		}
		attempts++
	}

	switch d.Status() {
	case api.StateError:
		return d, &DeployError{Message: d.ErrorMessage}
	case api.StateCanceled:
		return d, ErrCanceled
	}
	return d, nil
}

// ExitCode maps a Run outcome to the process exit status: 0 success,
// 2 timeout, 1 everything else.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrTimeout):
		return 2
	default:
		return 1
	}
}
