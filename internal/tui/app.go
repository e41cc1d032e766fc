// Package tui hosts the command palette in a bubbletea program.
package tui

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/palette/core"
	"github.com/jask/palette/internal/command"
	"github.com/jask/palette/internal/history"
	"github.com/jask/palette/internal/ranking"
)

type Options struct {
	Title      string
	Keys       *core.KeyRegistry
	FocusDelay time.Duration
	PageSize   int
	Logger     *slog.Logger
}

// App is the bubbletea model. It implements core.Host for its palette: the
// key handler is attached while the palette is open and scheduled
// callbacks are delivered as core.ScheduledMsg on the update loop.
type App struct {
	ctx     context.Context
	palette *core.Palette
	keys    *core.KeyRegistry
	logger  *slog.Logger
	input   textinput.Model

	keyHandler func(key string) bool
	pending    []tea.Cmd
	runErr     error

	title     string
	width     int
	height    int
	offset    int
	pageSize  int
	status    string
	statusErr bool
	lastRun   string
	quitting  bool
}

func New(ctx context.Context, engine *ranking.Engine, source command.Source, store *history.Store, opts Options) *App {
	if opts.Keys == nil {
		opts.Keys = core.NewKeyRegistry(core.DefaultKeyBindings())
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Title == "" {
		opts.Title = "palette"
	}
	if opts.FocusDelay <= 0 {
		opts.FocusDelay = core.DefaultFocusDelay
	}
	if opts.PageSize <= 0 {
		opts.PageSize = core.DefaultPageSize
	}
	inp := textinput.New()
	inp.Placeholder = "Type a command"
	inp.Prompt = "> "
	inp.CharLimit = 256

	a := &App{
		ctx:      ctx,
		keys:     opts.Keys,
		logger:   opts.Logger,
		input:    inp,
		title:    opts.Title,
		pageSize: opts.PageSize,
		status:   "Ready",
	}
	a.palette = core.NewPalette(engine, source, store, a,
		core.WithFocusDelay(opts.FocusDelay),
		core.WithKeyRegistry(opts.Keys),
		core.WithPaletteLogger(opts.Logger),
	)
	return a
}

// Run starts the program on the alternate screen with mouse hover events.
func Run(ctx context.Context, app *App) error {
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseAllMotion(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func (a *App) Palette() *core.Palette { return a.palette }

func (a *App) Init() tea.Cmd {
	return nil
}

func (a *App) AttachKeys(handler func(key string) bool) {
	a.keyHandler = handler
}

func (a *App) DetachKeys() {
	a.keyHandler = nil
	a.input.Blur()
	a.input.SetValue("")
	a.offset = 0
}

func (a *App) Schedule(delay time.Duration, fn func()) {
	a.pending = append(a.pending, core.ScheduleCmd(delay, fn))
}

func (a *App) FocusQuery() {
	a.pending = append(a.pending, a.input.Focus())
}

func (a *App) ReportError(err error) {
	a.runErr = err
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		return a, nil
	case core.ScheduledMsg:
		if msg.Fn != nil {
			msg.Fn()
		}
		return a, a.flush()
	case core.StatusMsg:
		a.status = msg.Text
		a.statusErr = msg.IsErr
		return a, nil
	case core.ExecutedMsg:
		a.logger.Info("command executed", "command", msg.CommandID, "error", msg.Err)
		a.lastRun = msg.Label
		if msg.Err != nil {
			return a, core.ErrorCmd(msg.Err)
		}
		return a, core.StatusCmd("Ran " + msg.Label)
	case tea.MouseMsg:
		return a, a.handleMouse(msg)
	case tea.KeyMsg:
		if a.keyHandler != nil {
			return a, a.handlePaletteKey(msg)
		}
		switch {
		case a.keys.IsAction(msg, core.ActionOpen, core.ScopeApp):
			a.palette.Open(a.ctx)
			return a, a.flush()
		case a.keys.IsAction(msg, core.ActionQuit, core.ScopeApp), msg.Type == tea.KeyCtrlC:
			a.quitting = true
			return a, tea.Quit
		}
	}
	return a, nil
}

func (a *App) handlePaletteKey(msg tea.KeyMsg) tea.Cmd {
	sel, hadSel := a.palette.Selected()
	confirming := a.keys.IsAction(msg, core.ActionSelect, core.ScopePalette)
	a.runErr = nil
	if a.keyHandler(msg.String()) {
		if confirming && hadSel && !a.palette.IsOpen() {
			a.pending = append(a.pending, executed(sel.Command, a.runErr))
		}
		a.syncOffset()
		return a.flush()
	}
	if msg.Type == tea.KeyCtrlC {
		a.palette.Cancel()
		a.quitting = true
		return tea.Quit
	}
	before := a.input.Value()
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	if a.input.Value() != before {
		a.palette.SetQuery(a.input.Value())
		a.syncOffset()
	}
	a.pending = append(a.pending, cmd)
	return a.flush()
}

func (a *App) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if !a.palette.IsOpen() {
		return nil
	}
	row, ok := a.layout().rowAt(msg.X, msg.Y)
	if !ok {
		return nil
	}
	switch {
	case msg.Action == tea.MouseActionMotion:
		a.palette.Hover(row)
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		a.palette.Hover(row)
		sel, _ := a.palette.Selected()
		err := a.palette.Confirm(a.ctx)
		a.pending = append(a.pending, executed(sel.Command, err))
	case msg.Button == tea.MouseButtonWheelDown:
		a.palette.MoveDown()
	case msg.Button == tea.MouseButtonWheelUp:
		a.palette.MoveUp()
	}
	a.syncOffset()
	return a.flush()
}

func (a *App) syncOffset() {
	a.offset = core.VisibleWindow(a.palette.Cursor(), a.offset, len(a.palette.Rows()), a.pageSize)
}

func (a *App) flush() tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(a.pending))
	for _, c := range a.pending {
		if c != nil {
			cmds = append(cmds, c)
		}
	}
	a.pending = nil
	switch len(cmds) {
	case 0:
		return nil
	case 1:
		return cmds[0]
	default:
		return tea.Batch(cmds...)
	}
}

func (a *App) openKey() string {
	for _, b := range a.keys.BindingsForScope(core.ScopeApp) {
		if b.Action == core.ActionOpen && len(b.Keys) > 0 {
			return b.Keys[0]
		}
	}
	return "ctrl+k"
}

func executed(cmd command.Command, err error) tea.Cmd {
	return func() tea.Msg { return core.ExecutedMsg{CommandID: cmd.ID, Label: cmd.Label, Err: err} }
}
