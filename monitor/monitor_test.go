package monitor

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"heimdall/api"
)

// fakeAPI serves a scripted sequence of states. The first call is the
// project lookup; every later call must be a detail fetch by the pinned id.
type fakeAPI struct {
	states      []string
	calls       int
	latestErr   error
	detailErr   error
	detailErrAt int // call count at which detailErr fires, 0 = never
	pinnedID    string
	gotDetail   []string
	errMessage  string
}

func (f *fakeAPI) next() string {
	i := f.calls - 1
	if i >= len(f.states) {
		i = len(f.states) - 1
	}
	return f.states[i]
}

func (f *fakeAPI) LatestDeployment(_ context.Context, project string) (*api.Deployment, error) {
	f.calls++
	if f.latestErr != nil {
		return nil, f.latestErr
	}
	return &api.Deployment{
		UID:          f.pinnedID,
		Name:         project,
		State:        f.next(),
		URL:          "site-abc.vercel.app",
		ErrorMessage: f.errMessage,
		Meta:         api.Meta{GithubCommitMessage: "ship it", GithubCommitSha: "abc1234def"},
	}, nil
}

func (f *fakeAPI) Deployment(_ context.Context, id string) (*api.Deployment, error) {
	f.calls++
	f.gotDetail = append(f.gotDetail, id)
	if f.detailErr != nil && f.calls >= f.detailErrAt {
		return nil, f.detailErr
	}
	return &api.Deployment{
		ID:           f.pinnedID,
		ReadyState:   f.next(),
		URL:          "site-abc.vercel.app",
		ErrorMessage: f.errMessage,
	}, nil
}

func newTestMonitor(f *fakeAPI, sleeps *int, opts ...Option) *Monitor {
	base := []Option{
		WithInterval(30 * time.Second),
		WithSleep(func(time.Duration) { *sleeps++ }),
	}
	return New(f, append(base, opts...)...)
}

func repeat(state string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = state
	}
	return out
}

func TestRunReady(t *testing.T) {
	f := &fakeAPI{pinnedID: "dpl_1", states: []string{api.StateReady}}
	var sleeps int
	m := newTestMonitor(f, &sleeps)

	d, err := m.Run(context.Background(), "my-site")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if ExitCode(err) != 0 {
		t.Errorf("ExitCode = %d, want 0", ExitCode(err))
	}
	if d.URL == "" || d.CommitInfo() == "" {
		t.Error("READY outcome must carry url and commit info")
	}
	if f.calls != 1 {
		t.Errorf("calls = %d, want 1", f.calls)
	}
	if sleeps != 0 {
		t.Errorf("sleeps = %d, want 0", sleeps)
	}
}

func TestRunQueuedThenReady(t *testing.T) {
	// 3 QUEUED then READY: exit 0 and exactly 4 fetches.
	f := &fakeAPI{pinnedID: "dpl_1", states: append(repeat(api.StateQueued, 3), api.StateReady)}
	var sleeps int
	m := newTestMonitor(f, &sleeps)

	_, err := m.Run(context.Background(), "my-site")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if f.calls != 4 {
		t.Errorf("calls = %d, want 4", f.calls)
	}
	if sleeps != 3 {
		t.Errorf("sleeps = %d, want 3", sleeps)
	}
}

func TestRunPinsDeploymentID(t *testing.T) {
	f := &fakeAPI{pinnedID: "dpl_pin", states: []string{api.StateBuilding, api.StateBuilding, api.StateReady}}
	var sleeps int
	m := newTestMonitor(f, &sleeps)

	if _, err := m.Run(context.Background(), "my-site"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(f.gotDetail) != 2 {
		t.Fatalf("detail fetches = %d, want 2", len(f.gotDetail))
	}
	for _, id := range f.gotDetail {
		if id != "dpl_pin" {
			t.Errorf("detail fetch used id %q, want dpl_pin", id)
		}
	}
}

func TestRunError(t *testing.T) {
	f := &fakeAPI{
		pinnedID:   "dpl_1",
		states:     []string{api.StateBuilding, api.StateError},
		errMessage: "Command \"npm run build\" exited with 1",
	}
	var sleeps int
	m := newTestMonitor(f, &sleeps)

	_, err := m.Run(context.Background(), "my-site")
	var de *DeployError
	if !errors.As(err, &de) {
		t.Fatalf("err = %v, want *DeployError", err)
	}
	// Platform error text must survive verbatim.
	if de.Message != "Command \"npm run build\" exited with 1" {
		t.Errorf("Message = %q", de.Message)
	}
	if ExitCode(err) != 1 {
		t.Errorf("ExitCode = %d, want 1", ExitCode(err))
	}
}

func TestRunCanceled(t *testing.T) {
	f := &fakeAPI{pinnedID: "dpl_1", states: []string{api.StateCanceled}}
	var sleeps int
	m := newTestMonitor(f, &sleeps)

	_, err := m.Run(context.Background(), "my-site")
	if !errors.Is(err, ErrCanceled) {
		t.Fatalf("err = %v, want ErrCanceled", err)
	}
	if ExitCode(err) != 1 {
		t.Errorf("ExitCode = %d, want 1", ExitCode(err))
	}
}

func TestRunTimeout(t *testing.T) {
	// 9 BUILDING then a 10th still-non-terminal status: exit 2, budget spent
	// at exactly 10 fetches.
	f := &fakeAPI{pinnedID: "dpl_1", states: repeat(api.StateBuilding, 10)}
	var sleeps int
	m := newTestMonitor(f, &sleeps)

	_, err := m.Run(context.Background(), "my-site")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
	if ExitCode(err) != 2 {
		t.Errorf("ExitCode = %d, want 2", ExitCode(err))
	}
	if f.calls != 10 {
		t.Errorf("calls = %d, want exactly 10", f.calls)
	}
	if sleeps != 9 {
		t.Errorf("sleeps = %d, want 9", sleeps)
	}
}

func TestRunUnknownStateKeepsPolling(t *testing.T) {
	f := &fakeAPI{pinnedID: "dpl_1", states: []string{"PROMOTING", "PROMOTING", api.StateReady}}
	var sleeps int
	m := newTestMonitor(f, &sleeps)

	_, err := m.Run(context.Background(), "my-site")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if f.calls != 3 {
		t.Errorf("calls = %d, want 3", f.calls)
	}
}

func TestRunUnknownStateCountsAgainstBudget(t *testing.T) {
	f := &fakeAPI{pinnedID: "dpl_1", states: repeat("PROMOTING", 10)}
	var sleeps int
	m := newTestMonitor(f, &sleeps)

	_, err := m.Run(context.Background(), "my-site")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
}

func TestRunAuthFailureShortCircuits(t *testing.T) {
	f := &fakeAPI{latestErr: fmt.Errorf("HTTP 401: %w", api.ErrUnauthorized)}
	var sleeps int
	m := newTestMonitor(f, &sleeps)

	_, err := m.Run(context.Background(), "my-site")
	if !errors.Is(err, api.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	if sleeps != 0 {
		t.Errorf("sleeps = %d, want 0 (no polling on auth failure)", sleeps)
	}
	if ExitCode(err) != 1 {
		t.Errorf("ExitCode = %d, want 1", ExitCode(err))
	}
}

func TestRunNotFoundShortCircuits(t *testing.T) {
	f := &fakeAPI{latestErr: fmt.Errorf("no deployments for project %q: %w", "ghost", api.ErrNotFound)}
	var sleeps int
	m := newTestMonitor(f, &sleeps)

	_, err := m.Run(context.Background(), "ghost")
	if !errors.Is(err, api.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if sleeps != 0 {
		t.Errorf("sleeps = %d, want 0", sleeps)
	}
}

func TestRunTransportErrorAborts(t *testing.T) {
	// A request failure mid-poll aborts instead of masking an outage as a
	// slow deployment.
	f := &fakeAPI{
		pinnedID:    "dpl_1",
		states:      repeat(api.StateBuilding, 5),
		detailErr:   errors.New("request failed: connection refused"),
		detailErrAt: 3,
	}
	var sleeps int
	m := newTestMonitor(f, &sleeps)

	_, err := m.Run(context.Background(), "my-site")
	if err == nil || errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want transport abort", err)
	}
	if ExitCode(err) != 1 {
		t.Errorf("ExitCode = %d, want 1", ExitCode(err))
	}
	if f.calls != 3 {
		t.Errorf("calls = %d, want 3 (abort on first failed poll)", f.calls)
	}
}

func TestRunReporterCallbacks(t *testing.T) {
	f := &fakeAPI{pinnedID: "dpl_1", states: []string{api.StateQueued, api.StateReady}}
	var sleeps int
	rep := &recordingReporter{}
	m := newTestMonitor(f, &sleeps, WithReporter(rep))

	if _, err := m.Run(context.Background(), "my-site"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.found != 1 {
		t.Errorf("Found fired %d times, want 1", rep.found)
	}
	if len(rep.waits) != 1 || rep.waits[0] != 1 {
		t.Errorf("Waiting calls = %v, want [1]", rep.waits)
	}
}

type recordingReporter struct {
	found int
	waits []int
}

func (r *recordingReporter) Found(*api.Deployment) { r.found++ }
func (r *recordingReporter) Waiting(attempt, max int, _ time.Duration) {
	r.waits = append(r.waits, attempt)
}

func TestTerminal(t *testing.T) {
	tests := []struct {
		state string
		want  bool
	}{
		{api.StateReady, true},
		{api.StateError, true},
		{api.StateCanceled, true},
		{api.StateQueued, false},
		{api.StateBuilding, false},
		{api.StateInitializing, false},
		{"PROMOTING", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := Terminal(tt.state); got != tt.want {
			t.Errorf("Terminal(%q) = %v, want %v", tt.state, got, tt.want)
		}
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{ErrTimeout, 2},
		{fmt.Errorf("wrapped: %w", ErrTimeout), 2},
		{ErrCanceled, 1},
		{&DeployError{Message: "boom"}, 1},
		{api.ErrUnauthorized, 1},
		{api.ErrNotFound, 1},
		{errors.New("request failed"), 1},
	}
	for _, tt := range tests {
		if got := ExitCode(tt.err); got != tt.want {
			t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
