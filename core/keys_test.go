package core

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestKeyRegistryScopeMatch(t *testing.T) {
	reg := NewKeyRegistry([]KeyBinding{
		{Keys: []string{"ctrl+k"}, Action: ActionOpen, Scopes: []string{ScopeApp}},
		{Keys: []string{"q"}, Action: ActionQuit, Scopes: []string{"*"}},
	})
	if !reg.IsAction(tea.KeyMsg{Type: tea.KeyCtrlK}, ActionOpen, ScopeApp) {
		t.Fatalf("expected ctrl+k in app scope")
	}
	if reg.IsAction(tea.KeyMsg{Type: tea.KeyCtrlK}, ActionOpen, ScopePalette) {
		t.Fatalf("did not expect ctrl+k in palette scope")
	}
	if !reg.IsAction(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}, ActionQuit, ScopePalette) {
		t.Fatalf("expected q to match wildcard scope")
	}
}

func TestDefaultPaletteBindings(t *testing.T) {
	reg := NewKeyRegistry(DefaultKeyBindings())
	cases := map[string]string{
		"esc":   ActionClose,
		"enter": ActionSelect,
		"up":    ActionUp,
		"down":  ActionDown,
		"a":     "",
		"q":     "",
	}
	for key, want := range cases {
		if got := reg.Action(key, ScopePalette); got != want {
			t.Fatalf("Action(%q) = %q, want %q", key, got, want)
		}
	}
	if got := reg.Action("q", ScopeApp); got != ActionQuit {
		t.Fatalf("Action(q, app) = %q, want %q", got, ActionQuit)
	}
}

func TestApplyActionKeybindingsOverridesKeys(t *testing.T) {
	bindings := ApplyActionKeybindings(DefaultKeyBindings(), map[string][]string{
		ActionDown: {"ctrl+n", " "},
		"missing":  {"x"},
	})
	reg := NewKeyRegistry(bindings)
	if got := reg.Action("ctrl+n", ScopePalette); got != ActionDown {
		t.Fatalf("Action(ctrl+n) = %q, want %q", got, ActionDown)
	}
	if got := reg.Action("down", ScopePalette); got != "" {
		t.Fatalf("expected down to be unbound after override, got %q", got)
	}
	if got := reg.Action("enter", ScopePalette); got != ActionSelect {
		t.Fatalf("untouched binding changed: %q", got)
	}
}

func TestHelpLineListsScopeBindings(t *testing.T) {
	got := HelpLine(NewKeyRegistry(DefaultKeyBindings()), ScopePalette)
	want := "esc close  enter run  up up  down down"
	if got != want {
		t.Fatalf("HelpLine = %q, want %q", got, want)
	}
}
