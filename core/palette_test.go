package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jask/palette/internal/command"
	"github.com/jask/palette/internal/history"
	"github.com/jask/palette/internal/ranking"
	"github.com/jask/palette/internal/testutil"
)

type fakeHost struct {
	handler  func(string) bool
	attached int
	detached int
	delays   []time.Duration
	pending  []func()
	focused  int
	errs     []error
}

func (h *fakeHost) AttachKeys(fn func(string) bool) { h.handler = fn; h.attached++ }
func (h *fakeHost) DetachKeys()                     { h.handler = nil; h.detached++ }
func (h *fakeHost) FocusQuery()                     { h.focused++ }
func (h *fakeHost) ReportError(err error)           { h.errs = append(h.errs, err) }
func (h *fakeHost) Schedule(d time.Duration, fn func()) {
	h.delays = append(h.delays, d)
	h.pending = append(h.pending, fn)
}

func (h *fakeHost) runPending() {
	fns := h.pending
	h.pending = nil
	for _, fn := range fns {
		fn()
	}
}

type fixture struct {
	palette *Palette
	host    *fakeHost
	store   *history.Store
	ran     []string
}

func newFixture(t *testing.T, fail string) *fixture {
	t.Helper()
	f := &fixture{host: &fakeHost{}}
	exec := func(id string) func(context.Context) error {
		return func(context.Context) error {
			f.ran = append(f.ran, id)
			if id == fail {
				return errors.New("boom")
			}
			return nil
		}
	}
	catalog := command.Static{
		{ID: "open", Label: "Open Archive", Section: "File", Execute: exec("open")},
		{ID: "save", Label: "Save Archive", Section: "File", Execute: exec("save")},
		{ID: "grid", Label: "Grid", Section: "View", Execute: exec("grid")},
	}
	clock := testutil.NewManualClock(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	f.store = history.New(history.NewMemoryStorage(), history.WithClock(clock))
	f.palette = NewPalette(ranking.NewEngine(ranking.DefaultOptions(), nil), catalog, f.store, f.host)
	return f
}

func rowIDs(rows []ranking.Match) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Command.ID)
	}
	return out
}

func TestOpenAttachesKeysAndSchedulesFocus(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	f.palette.Open(ctx)
	if !f.palette.IsOpen() {
		t.Fatalf("expected palette open")
	}
	if f.host.attached != 1 || f.host.handler == nil {
		t.Fatalf("expected one key handler attached, got %d", f.host.attached)
	}
	if len(f.host.delays) != 1 || f.host.delays[0] != DefaultFocusDelay {
		t.Fatalf("focus delays = %v, want [%v]", f.host.delays, DefaultFocusDelay)
	}
	if f.host.focused != 0 {
		t.Fatalf("focus must wait for the scheduled callback")
	}
	f.host.runPending()
	if f.host.focused != 1 {
		t.Fatalf("focused = %d, want 1", f.host.focused)
	}

	f.palette.Open(ctx)
	if f.host.attached != 1 {
		t.Fatalf("reopening an open palette attached again")
	}
}

func TestOpenShowsCatalogWithEmptyQuery(t *testing.T) {
	f := newFixture(t, "")
	f.palette.Open(context.Background())

	if f.palette.Query() != "" || f.palette.Cursor() != 0 {
		t.Fatalf("open state = (%q, %d), want empty query at 0", f.palette.Query(), f.palette.Cursor())
	}
	got := rowIDs(f.palette.Rows())
	want := []string{"open", "save", "grid"}
	if len(got) != len(want) {
		t.Fatalf("rows = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("rows = %v, want %v", got, want)
		}
	}
	if groups := f.palette.Groups(); len(groups) != 2 || groups[0].Name != "File" || groups[1].Name != "View" {
		t.Fatalf("unexpected groups %+v", groups)
	}
}

func TestMoveDoesNotWrap(t *testing.T) {
	f := newFixture(t, "")
	f.palette.Open(context.Background())

	f.palette.MoveUp()
	if f.palette.Cursor() != 0 {
		t.Fatalf("move up at top = %d, want 0", f.palette.Cursor())
	}
	for range 5 {
		f.palette.MoveDown()
	}
	if f.palette.Cursor() != 2 {
		t.Fatalf("move down past end = %d, want 2", f.palette.Cursor())
	}
	f.palette.MoveUp()
	if f.palette.Cursor() != 1 {
		t.Fatalf("cursor = %d, want 1", f.palette.Cursor())
	}
}

func TestSetQueryResetsCursor(t *testing.T) {
	f := newFixture(t, "")
	f.palette.Open(context.Background())
	f.palette.MoveDown()

	f.palette.SetQuery("archive")
	if f.palette.Cursor() != 0 {
		t.Fatalf("cursor after query = %d, want 0", f.palette.Cursor())
	}
	groups := f.palette.Groups()
	if len(groups) != 1 || groups[0].Name != ranking.GroupSearchResults {
		t.Fatalf("unexpected groups for search %+v", groups)
	}
	if got := rowIDs(f.palette.Rows()); len(got) != 2 || got[0] != "open" || got[1] != "save" {
		t.Fatalf("rows = %v", got)
	}
}

func TestSetQueryWhileClosedIsIgnored(t *testing.T) {
	f := newFixture(t, "")
	f.palette.SetQuery("grid")
	if f.palette.Query() != "" || len(f.palette.Rows()) != 0 {
		t.Fatalf("closed palette accepted a query")
	}
}

func TestHoverSelectsWithoutExecuting(t *testing.T) {
	f := newFixture(t, "")
	f.palette.Open(context.Background())

	f.palette.Hover(2)
	if f.palette.Cursor() != 2 {
		t.Fatalf("cursor = %d, want 2", f.palette.Cursor())
	}
	f.palette.Hover(7)
	f.palette.Hover(-1)
	if f.palette.Cursor() != 2 {
		t.Fatalf("out of range hover moved cursor to %d", f.palette.Cursor())
	}
	if len(f.ran) != 0 || !f.palette.IsOpen() {
		t.Fatalf("hover executed or closed: ran=%v", f.ran)
	}
}

func TestConfirmExecutesRecordsAndCloses(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	f.palette.Open(ctx)
	f.palette.SetQuery("grid")

	if err := f.palette.Confirm(ctx); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if len(f.ran) != 1 || f.ran[0] != "grid" {
		t.Fatalf("ran = %v, want [grid]", f.ran)
	}
	if e, ok := f.store.Lookup("grid"); !ok || e.UseCount != 1 {
		t.Fatalf("usage not recorded: %+v %v", e, ok)
	}
	if f.palette.IsOpen() || f.host.detached != 1 {
		t.Fatalf("expected closed with keys detached")
	}

	f.palette.Open(ctx)
	if f.palette.Query() != "" {
		t.Fatalf("query survived close: %q", f.palette.Query())
	}
	rows := f.palette.Rows()
	if len(rows) == 0 || rows[0].Command.ID != "grid" || !rows[0].IsRecent {
		t.Fatalf("expected grid first as recent, got %v", rowIDs(rows))
	}
}

func TestConfirmFailureStillRecordsAndCloses(t *testing.T) {
	f := newFixture(t, "save")
	ctx := context.Background()
	f.palette.Open(ctx)
	f.palette.SetQuery("save")

	err := f.palette.Confirm(ctx)
	if err == nil {
		t.Fatalf("expected command error")
	}
	if _, ok := f.store.Lookup("save"); !ok {
		t.Fatalf("failed command not recorded")
	}
	if f.palette.IsOpen() {
		t.Fatalf("palette still open after failed command")
	}
}

func TestConfirmWithNoRowsDoesNothing(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	f.palette.Open(ctx)
	f.palette.SetQuery("zzzz")

	if err := f.palette.Confirm(ctx); err != nil {
		t.Fatalf("confirm on empty list: %v", err)
	}
	if !f.palette.IsOpen() || len(f.ran) != 0 || f.store.Len() != 0 {
		t.Fatalf("empty confirm changed state")
	}
}

func TestCancelDiscardsQuery(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	f.palette.Open(ctx)
	f.palette.SetQuery("grid")
	f.palette.Cancel()

	if f.palette.IsOpen() || f.host.handler != nil {
		t.Fatalf("cancel left palette attached")
	}
	f.palette.Open(ctx)
	if f.palette.Query() != "" || len(f.palette.Rows()) != 3 {
		t.Fatalf("reopen kept state: %q %v", f.palette.Query(), rowIDs(f.palette.Rows()))
	}
}

func TestFocusSkippedWhenClosedBeforeCallback(t *testing.T) {
	f := newFixture(t, "")
	f.palette.Open(context.Background())
	f.palette.Cancel()
	f.host.runPending()
	if f.host.focused != 0 {
		t.Fatalf("focused a closed palette")
	}
}

func TestAttachedHandlerFollowsKeyContract(t *testing.T) {
	f := newFixture(t, "grid")
	f.palette.Open(context.Background())
	handle := f.host.handler

	if handle("a") || handle("backspace") {
		t.Fatalf("text keys must pass through")
	}
	if !handle("down") || f.palette.Cursor() != 1 {
		t.Fatalf("down not handled, cursor %d", f.palette.Cursor())
	}
	if !handle("up") || f.palette.Cursor() != 0 {
		t.Fatalf("up not handled, cursor %d", f.palette.Cursor())
	}
	handle("down")
	handle("down")
	if !handle("enter") {
		t.Fatalf("enter not handled")
	}
	if len(f.ran) != 1 || f.ran[0] != "grid" {
		t.Fatalf("ran = %v, want [grid]", f.ran)
	}
	if len(f.host.errs) != 1 {
		t.Fatalf("expected error reported to host, got %v", f.host.errs)
	}
	if f.palette.HandleKey(context.Background(), "esc") {
		t.Fatalf("closed palette consumed a key")
	}
}

func TestEscapeCancels(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	f.palette.Open(ctx)
	if !f.palette.HandleKey(ctx, "esc") || f.palette.IsOpen() {
		t.Fatalf("esc did not close")
	}
}

func TestSuggestionWhenNothingMatches(t *testing.T) {
	f := newFixture(t, "")
	f.palette.Open(context.Background())

	f.palette.SetQuery("gird")
	if len(f.palette.Rows()) != 0 {
		t.Fatalf("expected no rows, got %v", rowIDs(f.palette.Rows()))
	}
	cmd, ok := f.palette.Suggestion()
	if !ok || cmd.ID != "grid" {
		t.Fatalf("suggestion = %+v %v, want grid", cmd, ok)
	}
	f.palette.SetQuery("grid")
	if _, ok := f.palette.Suggestion(); ok {
		t.Fatalf("suggestion kept after a match")
	}
}

func TestNilHostAndStore(t *testing.T) {
	p := NewPalette(nil, command.Static{{ID: "a", Label: "Alpha"}}, nil, nil)
	ctx := context.Background()
	p.Open(ctx)
	if len(p.Rows()) != 1 {
		t.Fatalf("rows = %d, want 1", len(p.Rows()))
	}
	if err := p.Confirm(ctx); err != nil {
		t.Fatalf("confirm: %v", err)
	}
}

func TestVisibleWindow(t *testing.T) {
	cases := []struct {
		name                            string
		cursor, offset, count, pageSize int
		want                            int
	}{
		{"fits", 3, 2, 5, 10, 0},
		{"above window", 2, 5, 30, 10, 2},
		{"below window", 14, 0, 30, 10, 5},
		{"inside window", 7, 3, 30, 10, 3},
		{"clamped to end", 29, 25, 30, 10, 20},
		{"default page", 12, 0, 30, 0, 3},
	}
	for _, tc := range cases {
		if got := VisibleWindow(tc.cursor, tc.offset, tc.count, tc.pageSize); got != tc.want {
			t.Fatalf("%s: VisibleWindow = %d, want %d", tc.name, got, tc.want)
		}
	}
}
