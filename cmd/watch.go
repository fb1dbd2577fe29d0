package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"heimdall/api"
	"heimdall/style"
)

// Interactive watch: a spinner view over the same monitor loop the plain
// path uses, fed through a channel reporter.

func watchTUI(project string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := newWatchModel(ctx, cancel, project)
	p := tea.NewProgram(m)
	final, err := p.Run()
	if err != nil {
		return err
	}

	wm := final.(watchModel)
	printOutcome(wm.deployment, wm.err)
	return wm.err
}

// --- Messages ---

type watchStarted struct{ ch chan tea.Msg }

type foundMsg struct{ d *api.Deployment }

type waitingMsg struct {
	attempt, max int
	interval     time.Duration
}

type doneMsg struct {
	d   *api.Deployment
	err error
}

// channelReporter forwards monitor callbacks into the bubbletea loop.
type channelReporter struct{ ch chan tea.Msg }

func (r channelReporter) Found(d *api.Deployment) { r.ch <- foundMsg{d: d} }

func (r channelReporter) Waiting(attempt, max int, interval time.Duration) {
	r.ch <- waitingMsg{attempt: attempt, max: max, interval: interval}
}

// --- Model ---

type watchModel struct {
	ctx     context.Context
	cancel  context.CancelFunc
	project string

	spinner    spinner.Model
	deployment *api.Deployment
	attempt    int
	max        int
	err        error
	status     string // "looking" | "watching" | "done"
	startTime  time.Time
	eventCh    chan tea.Msg
}

func newWatchModel(ctx context.Context, cancel context.CancelFunc, project string) watchModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(style.Primary)

	return watchModel{
		ctx:       ctx,
		cancel:    cancel,
		project:   project,
		spinner:   s,
		status:    "looking",
		startTime: time.Now(),
	}
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.startWatch(),
	)
}

// startWatch runs the monitor in the background and returns its event
// channel to the update loop.
func (m watchModel) startWatch() tea.Cmd {
	ctx, project := m.ctx, m.project
	return func() tea.Msg {
		ch := make(chan tea.Msg, 32)
		mon := newMonitor(channelReporter{ch: ch})
		go func() {
			defer close(ch)
			d, err := mon.Run(ctx, project)
			ch <- doneMsg{d: d, err: err}
		}()
		return watchStarted{ch: ch}
	}
}

func waitForEvent(ch chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			m.cancel()
			m.err = fmt.Errorf("watch interrupted")
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case watchStarted:
		m.eventCh = msg.ch
		return m, waitForEvent(m.eventCh)

	case foundMsg:
		m.status = "watching"
		m.deployment = msg.d
		return m, waitForEvent(m.eventCh)

	case waitingMsg:
		m.attempt = msg.attempt
		m.max = msg.max
		return m, waitForEvent(m.eventCh)

	case doneMsg:
		m.status = "done"
		if msg.d != nil {
			m.deployment = msg.d
		}
		m.err = msg.err
		return m, tea.Quit
	}

	return m, nil
}

func (m watchModel) View() string {
	if m.status == "done" {
		// Final record is printed after the program exits.
		return ""
	}

	var b strings.Builder

	b.WriteString(style.Title.Render("⚡ HEIMDALL"))
	b.WriteString("\n")

	target := "latest team deployment"
	if m.project != "" {
		target = m.project
	}
	b.WriteString(style.Key.Render("watching"))
	b.WriteString(style.Bold.Render(target))
	b.WriteString("\n")

	if m.deployment != nil {
		b.WriteString(style.Key.Render("id"))
		b.WriteString(style.DimText.Render(m.deployment.DeploymentID()))
		b.WriteString("\n")
		b.WriteString(style.Key.Render("commit"))
		b.WriteString(style.CommitText.Render(m.deployment.CommitInfo()))
		b.WriteString("\n")
		b.WriteString(style.Key.Render("state"))
		b.WriteString(style.StateDot(m.deployment.Status()))
		b.WriteString(" " + m.deployment.Status())
		b.WriteString("\n")
	}

	b.WriteString("\n")

	elapsed := time.Since(m.startTime).Round(time.Second)
	switch m.status {
	case "looking":
		b.WriteString(m.spinner.View() + style.DimText.Render(" Resolving latest deployment..."))
	case "watching":
		progress := ""
		if m.max > 0 {
			progress = fmt.Sprintf(" [%d/%d]", m.attempt, m.max)
		}
		b.WriteString(m.spinner.View() + style.DimText.Render(fmt.Sprintf(" Deployment in progress... (%s)%s", elapsed, progress)))
	}

	b.WriteString("\n")
	return b.String()
}
