package output

import "github.com/charmbracelet/lipgloss"

// Status symbols.
const (
	SymbolSuccess = "✓"
	SymbolError   = "✗"
	SymbolWarning = "!"
)

// Styles holds the lipgloss styles used by the text mode.
type Styles struct {
	Header1 lipgloss.Style
	Header2 lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Muted   lipgloss.Style
	Name    lipgloss.Style
	Kind    lipgloss.Style
	Key     lipgloss.Style
}

// DefaultStyles returns the colored terminal styles.
func DefaultStyles() *Styles {
	return &Styles{
		Header1: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Header2: lipgloss.NewStyle().Bold(true),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Name:    lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
		Kind:    lipgloss.NewStyle().Foreground(lipgloss.Color("13")),
		Key:     lipgloss.NewStyle().Bold(true),
	}
}

// PlainStyles returns styles that render text unchanged.
func PlainStyles() *Styles {
	plain := lipgloss.NewStyle()
	return &Styles{
		Header1: plain,
		Header2: plain,
		Success: plain,
		Error:   plain,
		Warning: plain,
		Muted:   plain,
		Name:    plain,
		Kind:    plain,
		Key:     plain,
	}
}
