package style

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	Primary = lipgloss.Color("#7C3AED")
	Green   = lipgloss.Color("#10B981")
	Red     = lipgloss.Color("#EF4444")
	Yellow  = lipgloss.Color("#F59E0B")
	Cyan    = lipgloss.Color("#06B6D4")
	Dim     = lipgloss.Color("#6B7280")
	White   = lipgloss.Color("#F9FAFB")

	// Text styles
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary).
		MarginBottom(1)

	Bold = lipgloss.NewStyle().Bold(true).Foreground(White)

	Healthy   = lipgloss.NewStyle().Foreground(Green).Bold(true)
	Unhealthy = lipgloss.NewStyle().Foreground(Red).Bold(true)
	Warning   = lipgloss.NewStyle().Foreground(Yellow)

	DimText = lipgloss.NewStyle().Foreground(Dim)

	CommitText = lipgloss.NewStyle().Foreground(Cyan)

	// Status indicators
	DotHealthy   = Healthy.Render("●")
	DotUnhealthy = Unhealthy.Render("●")
	DotBuilding  = Warning.Render("●")
	DotDim       = DimText.Render("●")

	// Error box
	ErrorBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Red).
			Foreground(Red).
			Padding(0, 1).
			MarginTop(1)

	// Success box
	SuccessBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Green).
			Foreground(Green).
			Padding(0, 1).
			MarginTop(1)

	// Timeout box
	WarnBox = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Yellow).
		Foreground(Yellow).
		Padding(0, 1).
		MarginTop(1)

	// Key-value
	Key = lipgloss.NewStyle().Foreground(Dim).Width(10)
	Val = lipgloss.NewStyle().Foreground(White)
)

// StateDot returns a colored dot for a Vercel deployment state.
func StateDot(state string) string {
	switch state {
	case "READY":
		return DotHealthy
	case "ERROR", "CANCELED":
		return DotUnhealthy
	case "QUEUED", "BUILDING", "INITIALIZING":
		return DotBuilding
	default:
		return DotDim
	}
}

// StateStyle returns the text style matching a deployment state.
func StateStyle(state string) lipgloss.Style {
	switch state {
	case "READY":
		return Healthy
	case "ERROR", "CANCELED":
		return Unhealthy
	case "QUEUED", "BUILDING", "INITIALIZING":
		return Warning
	default:
		return DimText
	}
}
