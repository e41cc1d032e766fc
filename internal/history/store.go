// Package history records how often and how recently palette commands are
// used, and persists that record through a minimal key-value Storage.
package history

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"
)

const (
	DefaultCap           = 50
	DefaultRecencyWindow = time.Hour
	DefaultKey           = "command-palette-history"
)

// Entry is the usage record of one command.
type Entry struct {
	CommandID  string
	LastUsedAt time.Time
	UseCount   int
}

// record is the persisted shape of an Entry.
type record struct {
	CommandID string `json:"commandId"`
	UsedAt    int64  `json:"usedAt"`
	UseCount  int    `json:"useCount"`
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Store is the in-memory view of command usage backed by a Storage.
//
// A Store is not safe for concurrent use; only one palette is expected to
// drive it at a time.
type Store struct {
	storage Storage
	key     string
	cap     int
	window  time.Duration
	clock   Clock
	logger  *slog.Logger

	entries []Entry
	loaded  bool
}

type Option func(*Store)

// WithCap bounds the number of retained entries. Values < 1 are ignored.
func WithCap(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.cap = n
		}
	}
}

// WithRecencyWindow sets how long a use counts as recent. Values <= 0 are ignored.
func WithRecencyWindow(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.window = d
		}
	}
}

func WithKey(key string) Option {
	return func(s *Store) {
		if k := strings.TrimSpace(key); k != "" {
			s.key = k
		}
	}
}

func WithClock(c Clock) Option {
	return func(s *Store) {
		if c != nil {
			s.clock = c
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Store over storage. A nil storage keeps history in memory only.
func New(storage Storage, opts ...Option) *Store {
	if storage == nil {
		storage = NewMemoryStorage()
	}
	s := &Store{
		storage: storage,
		key:     DefaultKey,
		cap:     DefaultCap,
		window:  DefaultRecencyWindow,
		clock:   SystemClock{},
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Cap() int                     { return s.cap }
func (s *Store) RecencyWindow() time.Duration { return s.window }

// Load reads persisted history the first time it is called. Missing or
// malformed data leaves the store empty; the failure is logged, not returned.
func (s *Store) Load(ctx context.Context) {
	if s.loaded {
		return
	}
	s.loaded = true
	s.entries = nil

	raw, ok, err := s.storage.Get(ctx, s.key)
	if err != nil {
		s.logger.Warn("history read failed", "key", s.key, "error", err)
		return
	}
	if !ok || len(raw) == 0 {
		return
	}
	entries, err := decode(raw)
	if err != nil {
		s.logger.Warn("history data malformed, starting empty", "key", s.key, "error", err)
		return
	}
	s.entries = entries
	s.normalize()
	s.logger.Debug("history loaded", "key", s.key, "entries", len(s.entries))
}

// RecordUsage marks commandID as used now and persists the result.
func (s *Store) RecordUsage(ctx context.Context, commandID string) {
	id := strings.TrimSpace(commandID)
	if id == "" {
		return
	}
	s.Load(ctx)
	now := s.clock.Now()
	if i := s.index(id); i >= 0 {
		s.entries[i].UseCount++
		s.entries[i].LastUsedAt = now
	} else {
		s.entries = append(s.entries, Entry{CommandID: id, LastUsedAt: now, UseCount: 1})
	}
	s.normalize()
	s.persist(ctx)
}

// Clear drops every entry and persists the empty list.
func (s *Store) Clear(ctx context.Context) {
	s.loaded = true
	s.entries = nil
	s.persist(ctx)
}

// IsRecent reports whether commandID was used within the recency window.
func (s *Store) IsRecent(commandID string) bool {
	i := s.index(commandID)
	if i < 0 {
		return false
	}
	return s.clock.Now().Sub(s.entries[i].LastUsedAt) < s.window
}

func (s *Store) Lookup(commandID string) (Entry, bool) {
	i := s.index(commandID)
	if i < 0 {
		return Entry{}, false
	}
	return s.entries[i], true
}

// Entries returns a copy ordered by use count, then last use, both descending.
func (s *Store) Entries() []Entry {
	return slices.Clone(s.entries)
}

func (s *Store) Len() int { return len(s.entries) }

func (s *Store) index(commandID string) int {
	return slices.IndexFunc(s.entries, func(e Entry) bool { return e.CommandID == commandID })
}

func (s *Store) normalize() {
	slices.SortStableFunc(s.entries, compareEntries)
	if len(s.entries) > s.cap {
		s.entries = s.entries[:s.cap]
	}
}

func (s *Store) persist(ctx context.Context) {
	raw, err := encode(s.entries)
	if err != nil {
		s.logger.Warn("history encode failed", "key", s.key, "error", err)
		return
	}
	if err := s.storage.Set(ctx, s.key, raw); err != nil {
		s.logger.Warn("history write failed", "key", s.key, "error", err)
	}
}

func compareEntries(a, b Entry) int {
	if c := cmp.Compare(b.UseCount, a.UseCount); c != 0 {
		return c
	}
	return b.LastUsedAt.Compare(a.LastUsedAt)
}

func encode(entries []Entry) ([]byte, error) {
	out := make([]record, 0, len(entries))
	for _, e := range entries {
		out = append(out, record{
			CommandID: e.CommandID,
			UsedAt:    e.LastUsedAt.UnixMilli(),
			UseCount:  e.UseCount,
		})
	}
	return json.Marshal(out)
}

func decode(raw []byte) ([]Entry, error) {
	var recs []record
	if err := json.Unmarshal(raw, &recs); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	seen := make(map[string]bool, len(recs))
	out := make([]Entry, 0, len(recs))
	for _, r := range recs {
		id := strings.TrimSpace(r.CommandID)
		if id == "" || r.UseCount < 1 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, Entry{
			CommandID:  id,
			LastUsedAt: time.UnixMilli(r.UsedAt),
			UseCount:   r.UseCount,
		})
	}
	return out, nil
}
