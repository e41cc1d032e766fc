package core

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/jask/palette/internal/command"
	"github.com/jask/palette/internal/history"
	"github.com/jask/palette/internal/ranking"
)

const (
	DefaultFocusDelay = 10 * time.Millisecond
	DefaultPageSize   = 10
)

// Host is the surface the palette is mounted in. AttachKeys installs a
// handler that returns true when it consumed the key.
type Host interface {
	AttachKeys(handler func(key string) bool)
	DetachKeys()
	Schedule(delay time.Duration, fn func())
	FocusQuery()
}

// ErrorReporter is implemented by hosts that want to hear about command
// failures raised while handling a key.
type ErrorReporter interface {
	ReportError(err error)
}

type PaletteOption func(*Palette)

func WithFocusDelay(d time.Duration) PaletteOption {
	return func(p *Palette) {
		if d >= 0 {
			p.focusDelay = d
		}
	}
}

func WithKeyRegistry(r *KeyRegistry) PaletteOption {
	return func(p *Palette) {
		if r != nil {
			p.keys = r
		}
	}
}

func WithPaletteLogger(logger *slog.Logger) PaletteOption {
	return func(p *Palette) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// Palette tracks whether the command palette is open, what was typed and
// which ranked row is selected. Rows are recomputed on open and on every
// query change.
type Palette struct {
	engine  *ranking.Engine
	source  command.Source
	history *history.Store
	host    Host
	keys    *KeyRegistry
	logger  *slog.Logger

	focusDelay time.Duration

	open       bool
	query      string
	cursor     int
	groups     []ranking.Group
	rows       []ranking.Match
	suggestion command.Command
	suggested  bool
}

// NewPalette wires a palette. A nil store ranks without history and a nil
// host is replaced by one that ignores every call.
func NewPalette(engine *ranking.Engine, source command.Source, store *history.Store, host Host, opts ...PaletteOption) *Palette {
	if engine == nil {
		engine = ranking.NewEngine(ranking.DefaultOptions(), nil)
	}
	if host == nil {
		host = nopHost{}
	}
	p := &Palette{
		engine:     engine,
		source:     source,
		history:    store,
		host:       host,
		keys:       NewKeyRegistry(DefaultKeyBindings()),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		focusDelay: DefaultFocusDelay,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Palette) IsOpen() bool  { return p.open }
func (p *Palette) Query() string { return p.query }
func (p *Palette) Cursor() int   { return p.cursor }

func (p *Palette) Groups() []ranking.Group {
	out := make([]ranking.Group, len(p.groups))
	for i, g := range p.groups {
		out[i] = ranking.Group{Name: g.Name, Matches: append([]ranking.Match(nil), g.Matches...)}
	}
	return out
}

// Rows returns matches in display order; Cursor indexes this slice.
func (p *Palette) Rows() []ranking.Match {
	return append([]ranking.Match(nil), p.rows...)
}

func (p *Palette) Selected() (ranking.Match, bool) {
	if !p.open || len(p.rows) == 0 {
		return ranking.Match{}, false
	}
	return p.rows[p.cursor], true
}

// Suggestion is the closest label when a non-empty query matched nothing.
func (p *Palette) Suggestion() (command.Command, bool) {
	return p.suggestion, p.suggested
}

func (p *Palette) Open(ctx context.Context) {
	if p.open {
		return
	}
	if p.history != nil {
		p.history.Load(ctx)
	}
	p.open = true
	p.query = ""
	p.recompute()
	p.host.AttachKeys(func(key string) bool { return p.HandleKey(ctx, key) })
	p.host.Schedule(p.focusDelay, func() {
		if p.open {
			p.host.FocusQuery()
		}
	})
	p.logger.Debug("palette opened", "rows", len(p.rows))
}

func (p *Palette) SetQuery(q string) {
	if !p.open {
		return
	}
	p.query = q
	p.recompute()
}

func (p *Palette) MoveDown() {
	p.cursor = moveBoundedCursor(p.cursor, len(p.rows), 1)
}

func (p *Palette) MoveUp() {
	p.cursor = moveBoundedCursor(p.cursor, len(p.rows), -1)
}

// Hover selects row i when it exists. It never executes.
func (p *Palette) Hover(i int) {
	if !p.open || i < 0 || i >= len(p.rows) {
		return
	}
	p.cursor = i
}

// Confirm runs the selected command, records the use and closes. The
// command's error is returned after the palette has closed.
func (p *Palette) Confirm(ctx context.Context) error {
	sel, ok := p.Selected()
	if !ok {
		return nil
	}
	err := sel.Command.Run(ctx)
	if err != nil {
		p.logger.Warn("command failed", "command", sel.Command.ID, "error", err)
	}
	if p.history != nil {
		p.history.RecordUsage(ctx, sel.Command.ID)
	}
	p.close()
	return err
}

func (p *Palette) Cancel() {
	if !p.open {
		return
	}
	p.close()
}

// HandleKey applies the palette key contract. It returns false for keys
// it does not own so they reach the query field.
func (p *Palette) HandleKey(ctx context.Context, key string) bool {
	if !p.open {
		return false
	}
	switch p.keys.Action(key, ScopePalette) {
	case ActionClose:
		p.Cancel()
	case ActionDown:
		p.MoveDown()
	case ActionUp:
		p.MoveUp()
	case ActionSelect:
		if err := p.Confirm(ctx); err != nil {
			if r, ok := p.host.(ErrorReporter); ok {
				r.ReportError(err)
			}
		}
	default:
		return false
	}
	return true
}

func (p *Palette) close() {
	p.open = false
	p.query = ""
	p.cursor = 0
	p.groups = nil
	p.rows = nil
	p.suggestion, p.suggested = command.Command{}, false
	p.host.DetachKeys()
	p.logger.Debug("palette closed")
}

func (p *Palette) recompute() {
	var catalog command.Catalog
	if p.source != nil {
		catalog = p.source.Commands()
	}
	q := strings.TrimSpace(p.query)
	results := p.engine.Rank(catalog, q, p.historyView())
	p.groups = ranking.GroupForDisplay(results, q != "")
	p.rows = ranking.Flatten(p.groups)
	p.cursor = 0
	p.suggestion, p.suggested = command.Command{}, false
	if q != "" && len(p.rows) == 0 {
		p.suggestion, p.suggested = p.engine.Suggest(catalog, q)
	}
}

// historyView avoids handing the engine a typed nil interface.
func (p *Palette) historyView() ranking.History {
	if p.history == nil {
		return nil
	}
	return p.history
}

func moveBoundedCursor(cursor, count, delta int) int {
	if count <= 0 {
		return 0
	}
	next := cursor + delta
	if next < 0 {
		return 0
	}
	if next >= count {
		return count - 1
	}
	return next
}

// VisibleWindow returns the scroll offset that keeps cursor inside a page
// of pageSize rows out of count. A non-positive pageSize uses DefaultPageSize.
func VisibleWindow(cursor, offset, count, pageSize int) int {
	limit := pageSize
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if count <= limit {
		return 0
	}
	if cursor < offset {
		offset = cursor
	}
	if cursor > offset+limit-1 {
		offset = cursor - limit + 1
	}
	offset = min(offset, count-limit)
	return max(offset, 0)
}

type nopHost struct{}

func (nopHost) AttachKeys(func(string) bool)   {}
func (nopHost) DetachKeys()                    {}
func (nopHost) Schedule(time.Duration, func()) {}
func (nopHost) FocusQuery()                    {}
