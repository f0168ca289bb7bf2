// Package ui implements an interactive terminal collection browser using bubbletea's Elm architecture.
//
// The TUI has four views:
//  1. [CollectionView] : Card groups visible under the current expansion filter
//  2. [DetailView] : The instances of one group
//  3. [FilterView] : Pick an expansion, or "All"
//  4. [ConfirmDeleteView] : Confirm deleting an instance
//
// The (view) [Model] renders [collection.Snapshot] values taken from a [collection.ViewModel].
// Backend calls run as tea.Cmds and report back through the Msg union type; the model then
// re-reads the snapshot. A detail view closes on its own when its group loses its last instance.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, f, d, e, o, r, q) with
// contextual help displayed via charmbracelet/bubbles/help.
package ui
