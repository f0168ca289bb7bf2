package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgLoaded MsgKind = iota
	MsgMutated
	MsgImageOpened
)

// mutation describes the outcome of a backend change.
type mutation struct {
	action string
	err    error
}

// loadedMsg is the constructor for [MsgLoaded]
func loadedMsg(err error) Msg {
	return Msg{kind: MsgLoaded, data: err}
}

// mutatedMsg is the constructor for [MsgMutated]
func mutatedMsg(action string, err error) Msg {
	return Msg{kind: MsgMutated, data: mutation{action: action, err: err}}
}

// imageOpenedMsg is the constructor for [MsgImageOpened]
func imageOpenedMsg(err error) Msg {
	return Msg{kind: MsgImageOpened, data: err}
}

// errOf returns the error carried by a message, if any.
func (m Msg) errOf() error {
	switch data := m.data.(type) {
	case error:
		return data
	case mutation:
		return data.err
	default:
		return nil
	}
}
