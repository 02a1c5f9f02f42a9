package bubbletea

import tea "github.com/charmbracelet/bubbletea"

// SetRunning puts the model in a running state.
func SetRunning(m Model) (Model, tea.Cmd) {
	m.running = true
	return m, nil
}

// SetRunningWithCancel puts the model in a running state with a cancel function.
func SetRunningWithCancel(m Model, cancel func()) (Model, tea.Cmd) {
	m.running = true
	m.cancel = cancel
	return m, nil
}

// RenderContent exports renderContent for testing.
func RenderContent(m Model) string {
	return m.renderContent()
}

// TruncateGraphemes exports truncateGraphemes for testing.
var TruncateGraphemes = truncateGraphemes

// FormatSize exports formatSize for testing.
var FormatSize = formatSize
