// Package command defines the records the palette searches over.
package command

import (
	"context"
	"fmt"
)

// Command is one invokable action supplied by the host application.
//
// Available is re-evaluated on every search; nil means always available.
// Execute runs the action; nil means the command only records usage.
type Command struct {
	ID          string
	Label       string
	Section     string
	Icon        string
	Shortcut    string
	Description string
	Available   func() (bool, error)
	Execute     func(ctx context.Context) error
}

// IsAvailable evaluates the availability predicate. A predicate that fails
// or panics reports an error and the command counts as unavailable.
func (c Command) IsAvailable() (ok bool, err error) {
	if c.Available == nil {
		return true, nil
	}
	defer func() {
		if r := recover(); r != nil {
			ok, err = false, fmt.Errorf("availability of %q panicked: %v", c.ID, r)
		}
	}()
	return c.Available()
}

// Run executes the command if it has an action.
func (c Command) Run(ctx context.Context) error {
	if c.Execute == nil {
		return nil
	}
	if err := c.Execute(ctx); err != nil {
		return fmt.Errorf("command %q: %w", c.ID, err)
	}
	return nil
}

// Catalog is an ordered list of commands. Order is significant: it breaks
// score ties and orders the empty-query fallback.
type Catalog []Command

// ByID returns the first command with the given id.
func (c Catalog) ByID(id string) (Command, bool) {
	for _, cmd := range c {
		if cmd.ID == id {
			return cmd, true
		}
	}
	return Command{}, false
}

// Source supplies the current catalog each time the palette recomputes.
type Source interface {
	Commands() Catalog
}

// Static is a Source that always returns the same catalog.
type Static Catalog

func (s Static) Commands() Catalog { return Catalog(s) }
