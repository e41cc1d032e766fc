package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jask/palette/internal/fuzzy"
	"github.com/jask/palette/internal/history"
	"github.com/jask/palette/internal/ranking"
)

const (
	StorageFile   = "file"
	StorageSQLite = "sqlite"
	StorageMemory = "memory"
)

// Config holds application configuration.
type Config struct {
	History HistoryConfig       `mapstructure:"history"`
	Ranking RankingConfig       `mapstructure:"ranking"`
	Palette PaletteConfig       `mapstructure:"palette"`
	Catalog CatalogConfig       `mapstructure:"catalog"`
	Log     LogConfig           `mapstructure:"log"`
	Keys    map[string][]string `mapstructure:"keys"`
}

// HistoryConfig selects and tunes the usage history backend.
type HistoryConfig struct {
	Storage       string        `mapstructure:"storage"`
	Path          string        `mapstructure:"path"`
	Key           string        `mapstructure:"key"`
	Cap           int           `mapstructure:"cap"`
	RecencyWindow time.Duration `mapstructure:"recency_window"`
}

// RankingConfig holds match scores, field weights and empty-query limits.
type RankingConfig struct {
	Exact              int     `mapstructure:"exact"`
	Prefix             int     `mapstructure:"prefix"`
	Substring          int     `mapstructure:"substring"`
	Fuzzy              int     `mapstructure:"fuzzy"`
	ConsecutiveBonus   int     `mapstructure:"consecutive_bonus"`
	BoundaryBonus      int     `mapstructure:"boundary_bonus"`
	GapPenalty         int     `mapstructure:"gap_penalty"`
	LabelWeight        float64 `mapstructure:"label_weight"`
	SectionWeight      float64 `mapstructure:"section_weight"`
	DescriptionWeight  float64 `mapstructure:"description_weight"`
	HistoryBoostPerUse float64 `mapstructure:"history_boost_per_use"`
	HistoryBoostCap    float64 `mapstructure:"history_boost_cap"`
	RecentLimit        int     `mapstructure:"recent_limit"`
	FrequentLimit      int     `mapstructure:"frequent_limit"`
	FallbackLimit      int     `mapstructure:"fallback_limit"`
}

// PaletteConfig holds presentation settings.
type PaletteConfig struct {
	FocusDelay time.Duration `mapstructure:"focus_delay"`
	PageSize   int           `mapstructure:"page_size"`
}

type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// Default returns the configuration used when no file or env overrides exist.
func Default() Config {
	s := fuzzy.DefaultScoring()
	r := ranking.DefaultOptions()
	return Config{
		History: HistoryConfig{
			Storage:       StorageFile,
			Key:           history.DefaultKey,
			Cap:           history.DefaultCap,
			RecencyWindow: history.DefaultRecencyWindow,
		},
		Ranking: RankingConfig{
			Exact:              s.Exact,
			Prefix:             s.Prefix,
			Substring:          s.Substring,
			Fuzzy:              s.Fuzzy,
			ConsecutiveBonus:   s.ConsecutiveBonus,
			BoundaryBonus:      s.BoundaryBonus,
			GapPenalty:         s.GapPenalty,
			LabelWeight:        r.LabelWeight,
			SectionWeight:      r.SectionWeight,
			DescriptionWeight:  r.DescriptionWeight,
			HistoryBoostPerUse: r.BoostPerUse,
			HistoryBoostCap:    r.BoostCap,
			RecentLimit:        r.RecentLimit,
			FrequentLimit:      r.FrequentLimit,
			FallbackLimit:      r.FallbackLimit,
		},
		Palette: PaletteConfig{FocusDelay: 10 * time.Millisecond, PageSize: 10},
		Log:     LogConfig{Level: "info"},
	}
}

// DefaultPath is $PALETTE_CONFIG, else $XDG_CONFIG_HOME/palette/config.toml,
// else ~/.config/palette/config.toml.
func DefaultPath() string {
	if p := os.Getenv("PALETTE_CONFIG"); p != "" {
		return p
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "palette", "config.toml")
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "palette", "config.toml")
}

// Load reads configuration from path (DefaultPath when empty) and env.
// Env var overrides use prefix PALETTE_. A missing file is not an error.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetConfigType("toml")
	if path == "" {
		path = DefaultPath()
	}
	v.SetConfigFile(path)

	v.SetEnvPrefix("PALETTE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Save writes cfg to path (DefaultPath when empty), creating the directory.
func Save(cfg Config, path string) error {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	for key, value := range flatten(cfg) {
		v.Set(key, value)
	}
	if len(cfg.Keys) > 0 {
		v.Set("keys", cfg.Keys)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper, cfg Config) {
	for key, value := range flatten(cfg) {
		v.SetDefault(key, value)
	}
}

func flatten(c Config) map[string]any {
	return map[string]any{
		"history.storage":               c.History.Storage,
		"history.path":                  c.History.Path,
		"history.key":                   c.History.Key,
		"history.cap":                   c.History.Cap,
		"history.recency_window":        c.History.RecencyWindow.String(),
		"ranking.exact":                 c.Ranking.Exact,
		"ranking.prefix":                c.Ranking.Prefix,
		"ranking.substring":             c.Ranking.Substring,
		"ranking.fuzzy":                 c.Ranking.Fuzzy,
		"ranking.consecutive_bonus":     c.Ranking.ConsecutiveBonus,
		"ranking.boundary_bonus":        c.Ranking.BoundaryBonus,
		"ranking.gap_penalty":           c.Ranking.GapPenalty,
		"ranking.label_weight":          c.Ranking.LabelWeight,
		"ranking.section_weight":        c.Ranking.SectionWeight,
		"ranking.description_weight":    c.Ranking.DescriptionWeight,
		"ranking.history_boost_per_use": c.Ranking.HistoryBoostPerUse,
		"ranking.history_boost_cap":     c.Ranking.HistoryBoostCap,
		"ranking.recent_limit":          c.Ranking.RecentLimit,
		"ranking.frequent_limit":        c.Ranking.FrequentLimit,
		"ranking.fallback_limit":        c.Ranking.FallbackLimit,
		"palette.focus_delay":           c.Palette.FocusDelay.String(),
		"palette.page_size":             c.Palette.PageSize,
		"catalog.path":                  c.Catalog.Path,
		"log.level":                     c.Log.Level,
		"log.file":                      c.Log.File,
	}
}

func (c *Config) Validate() error {
	c.History.Storage = strings.ToLower(strings.TrimSpace(c.History.Storage))
	switch c.History.Storage {
	case StorageFile, StorageSQLite, StorageMemory:
	default:
		return fmt.Errorf("history.storage must be file, sqlite or memory, got %q", c.History.Storage)
	}
	if c.History.Cap < 1 {
		return fmt.Errorf("history.cap must be >= 1")
	}
	if c.History.RecencyWindow <= 0 {
		return fmt.Errorf("history.recency_window must be positive")
	}
	r := c.Ranking
	if !(r.Exact > r.Prefix && r.Prefix > r.Substring && r.Substring > r.Fuzzy && r.Fuzzy >= 0) {
		return fmt.Errorf("ranking scores must satisfy exact > prefix > substring > fuzzy >= 0")
	}
	if r.LabelWeight < 0 || r.SectionWeight < 0 || r.DescriptionWeight < 0 {
		return fmt.Errorf("ranking weights must be >= 0")
	}
	if r.RecentLimit < 0 || r.FrequentLimit < 0 || r.FallbackLimit < 0 {
		return fmt.Errorf("ranking limits must be >= 0")
	}
	if c.Palette.FocusDelay < 0 {
		return fmt.Errorf("palette.focus_delay must be >= 0")
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// Options converts the ranking section for the engine.
func (r RankingConfig) Options() ranking.Options {
	return ranking.Options{
		Scoring: fuzzy.Scoring{
			Exact:            r.Exact,
			Prefix:           r.Prefix,
			Substring:        r.Substring,
			Fuzzy:            r.Fuzzy,
			ConsecutiveBonus: r.ConsecutiveBonus,
			BoundaryBonus:    r.BoundaryBonus,
			GapPenalty:       r.GapPenalty,
		},
		LabelWeight:       r.LabelWeight,
		SectionWeight:     r.SectionWeight,
		DescriptionWeight: r.DescriptionWeight,
		BoostPerUse:       r.HistoryBoostPerUse,
		BoostCap:          r.HistoryBoostCap,
		RecentLimit:       r.RecentLimit,
		FrequentLimit:     r.FrequentLimit,
		FallbackLimit:     r.FallbackLimit,
	}
}

// StoreOptions converts the history section for history.New.
func (h HistoryConfig) StoreOptions() []history.Option {
	return []history.Option{
		history.WithCap(h.Cap),
		history.WithRecencyWindow(h.RecencyWindow),
		history.WithKey(h.Key),
	}
}

// ResolvedPath is the configured path with ~ expanded, or the backend's
// default location: a directory for file storage, a database file for sqlite.
func (h HistoryConfig) ResolvedPath() string {
	if p := strings.TrimSpace(h.Path); p != "" {
		return expandHome(p)
	}
	if h.Storage == StorageSQLite {
		return filepath.Join(history.DefaultDir(), "history.db")
	}
	return history.DefaultDir()
}

func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	text := strings.TrimSpace(l.Level)
	if text == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(text)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
