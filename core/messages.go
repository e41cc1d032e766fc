package core

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type StatusMsg struct {
	Text  string
	IsErr bool
}

// ScheduledMsg carries a deferred callback back onto the update loop.
type ScheduledMsg struct {
	Fn func()
}

// ExecutedMsg reports a command the palette ran.
type ExecutedMsg struct {
	CommandID string
	Label     string
	Err       error
}

func StatusCmd(text string) tea.Cmd {
	return func() tea.Msg { return StatusMsg{Text: text} }
}

func ErrorCmd(err error) tea.Cmd {
	return func() tea.Msg {
		if err == nil {
			return StatusMsg{Text: "", IsErr: false}
		}
		return StatusMsg{Text: err.Error(), IsErr: true}
	}
}

func ScheduleCmd(delay time.Duration, fn func()) tea.Cmd {
	if fn == nil {
		return nil
	}
	return tea.Tick(delay, func(time.Time) tea.Msg { return ScheduledMsg{Fn: fn} })
}
