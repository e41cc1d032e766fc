// Package catalog reads command declarations from TOML or YAML files and
// turns them into a palette catalog.
package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/jask/palette/internal/command"
)

type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// Entry is one declared command. An empty ID is derived from the label.
type Entry struct {
	ID          string `toml:"id" yaml:"id"`
	Label       string `toml:"label" yaml:"label"`
	Section     string `toml:"section" yaml:"section"`
	Description string `toml:"description,omitempty" yaml:"description,omitempty"`
	Shortcut    string `toml:"shortcut,omitempty" yaml:"shortcut,omitempty"`
	Icon        string `toml:"icon,omitempty" yaml:"icon,omitempty"`
	Disabled    bool   `toml:"disabled,omitempty" yaml:"disabled,omitempty"`
}

type File struct {
	Version  int     `toml:"version" yaml:"version"`
	Commands []Entry `toml:"command" yaml:"commands"`
}

// Action runs a declared command. A nil Action makes every command a no-op
// that only records usage.
type Action func(ctx context.Context, e Entry) error

//go:embed builtin.toml
var builtinTOML []byte

// Builtin returns the archive manager's own command set.
func Builtin() File {
	f, err := Parse(builtinTOML, FormatTOML)
	if err != nil {
		panic(fmt.Sprintf("builtin catalog: %v", err))
	}
	return f
}

func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported catalog extension %q", filepath.Ext(path))
	}
}

func LoadFile(path string) (File, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return File{}, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read %s: %w", path, err)
	}
	f, err := Parse(raw, format)
	if err != nil {
		return File{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return f, nil
}

// Parse decodes and validates a catalog document.
func Parse(raw []byte, format Format) (File, error) {
	var f File
	switch format {
	case FormatTOML:
		if _, err := toml.NewDecoder(bytes.NewReader(raw)).Decode(&f); err != nil {
			return File{}, err
		}
	case FormatYAML:
		if err := yaml.Unmarshal(raw, &f); err != nil {
			return File{}, err
		}
	default:
		return File{}, fmt.Errorf("unsupported catalog format %q", format)
	}
	if err := validate(&f); err != nil {
		return File{}, err
	}
	return f, nil
}

func Encode(w io.Writer, f File, format Format) error {
	switch format {
	case FormatTOML:
		return toml.NewEncoder(w).Encode(f)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(f); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported catalog format %q", format)
	}
}

// StableID derives a deterministic id for a command declared without one.
func StableID(label string) string {
	key := strings.ToLower(strings.TrimSpace(label))
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("cmd:"+key)).String()
}

// Catalog converts the file's entries in declaration order.
func (f File) Catalog(run Action) command.Catalog {
	out := make(command.Catalog, 0, len(f.Commands))
	for _, e := range f.Commands {
		cmd := command.Command{
			ID:          e.ID,
			Label:       e.Label,
			Section:     e.Section,
			Icon:        e.Icon,
			Shortcut:    e.Shortcut,
			Description: e.Description,
		}
		if e.Disabled {
			cmd.Available = func() (bool, error) { return false, nil }
		}
		if run != nil {
			entry := e
			cmd.Execute = func(ctx context.Context) error { return run(ctx, entry) }
		}
		out = append(out, cmd)
	}
	return out
}

func validate(f *File) error {
	if f.Version == 0 {
		f.Version = 1
	}
	if f.Version != 1 {
		return fmt.Errorf("unsupported version %d", f.Version)
	}
	seen := make(map[string]bool, len(f.Commands))
	for i := range f.Commands {
		e := &f.Commands[i]
		e.Label = strings.TrimSpace(e.Label)
		if e.Label == "" {
			return fmt.Errorf("command %d: label is required", i+1)
		}
		e.ID = strings.TrimSpace(e.ID)
		if e.ID == "" {
			e.ID = StableID(e.Label)
		}
		if seen[e.ID] {
			return fmt.Errorf("command %q: duplicate id", e.ID)
		}
		seen[e.ID] = true
		e.Section = strings.TrimSpace(e.Section)
		e.Description = strings.TrimSpace(e.Description)
		e.Shortcut = strings.TrimSpace(e.Shortcut)
	}
	return nil
}
