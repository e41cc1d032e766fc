package core

import "strings"

const (
	ScopeApp     = "app"
	ScopePalette = "palette"
)

const (
	ActionOpen   = "open-command-palette"
	ActionQuit   = "quit"
	ActionClose  = "close"
	ActionSelect = "select"
	ActionUp     = "cursor-up"
	ActionDown   = "cursor-down"
)

func DefaultKeyBindings() []KeyBinding {
	return []KeyBinding{
		{Keys: []string{"ctrl+k"}, Action: ActionOpen, Description: "commands", Scopes: []string{ScopeApp}},
		{Keys: []string{"q", "ctrl+c"}, Action: ActionQuit, Description: "quit", Scopes: []string{ScopeApp}},
		{Keys: []string{"esc"}, Action: ActionClose, Description: "close", Scopes: []string{ScopePalette}},
		{Keys: []string{"enter"}, Action: ActionSelect, Description: "run", Scopes: []string{ScopePalette}},
		{Keys: []string{"up"}, Action: ActionUp, Description: "up", Scopes: []string{ScopePalette}},
		{Keys: []string{"down"}, Action: ActionDown, Description: "down", Scopes: []string{ScopePalette}},
	}
}

// ApplyActionKeybindings replaces the keys of every binding whose action
// appears in actionKeys. Unknown actions are ignored.
func ApplyActionKeybindings(bindings []KeyBinding, actionKeys map[string][]string) []KeyBinding {
	out := make([]KeyBinding, 0, len(bindings))
	for _, b := range bindings {
		next := KeyBinding{
			Keys:        append([]string(nil), b.Keys...),
			Action:      b.Action,
			Description: b.Description,
			Scopes:      append([]string(nil), b.Scopes...),
		}
		if keys := cleanKeys(actionKeys[b.Action]); len(keys) > 0 {
			next.Keys = keys
		}
		out = append(out, next)
	}
	return out
}

func cleanKeys(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}

// HelpLine renders "key desc" pairs for scope, first key of each binding.
func HelpLine(r *KeyRegistry, scope string) string {
	parts := make([]string, 0, 4)
	for _, b := range r.BindingsForScope(scope) {
		if len(b.Keys) == 0 {
			continue
		}
		parts = append(parts, b.Keys[0]+" "+b.Description)
	}
	return strings.Join(parts, "  ")
}
