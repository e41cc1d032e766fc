// Package core contains the palette's interaction contracts and state.
//
// Allowed here:
// - the selection/navigation state machine over ranked, grouped rows
// - key registry and default bindings for the palette scopes
// - message contracts shared with the terminal host
//
// Not allowed here:
// - concrete rendering of the palette or its rows
// - ranking, matching or persistence logic (see internal/ranking, internal/history)
package core
