// Package action implements the InputMode enum and the high-level Action
// tagged union that key bindings pre-dispatch into before Tab ever sees a
// user keystroke (spec.md §6.4), grounded on
// dcosson-h2/internal/overlay/overlay.go's mode-dispatch shape.
package action

import "h2/internal/panegrid"

// InputMode discriminates how a keystroke is interpreted: most modes map
// keys through a mode-specific binding table before producing an Action.
type InputMode uint8

const (
	ModeNormal InputMode = iota
	ModeLocked
	ModePane
	ModeTab
	ModeResize
	ModeScroll
	ModeSession
	ModeSearch
	ModeRenameTab
	ModeRenamePane
	ModeTmux
)

// String names an InputMode for status-bar display and logging.
func (m InputMode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeLocked:
		return "locked"
	case ModePane:
		return "pane"
	case ModeTab:
		return "tab"
	case ModeResize:
		return "resize"
	case ModeScroll:
		return "scroll"
	case ModeSession:
		return "session"
	case ModeSearch:
		return "search"
	case ModeRenameTab:
		return "rename-tab"
	case ModeRenamePane:
		return "rename-pane"
	case ModeTmux:
		return "tmux"
	default:
		return "unknown"
	}
}

// ModeInfo is the minimal per-client UI state a status bar renders from.
type ModeInfo struct {
	Mode InputMode
}

// Kind discriminates Action's payload.
type Kind uint8

const (
	ActWrite Kind = iota
	ActWriteChars
	ActResize
	ActMoveFocus
	ActNewPane
	ActCloseFocus
	ActToggleFloating
	ActToggleFullscreen
	ActSwitchMode
	ActQuit
)

// Action is the tagged union spec.md §6.4 describes key bindings
// resolving into before Tab ever inspects raw bytes.
type Action struct {
	Kind       Kind
	Bytes      []byte          // ActWrite
	Chars      string          // ActWriteChars
	Direction  panegrid.Direction // ActResize, ActMoveFocus
	SwitchMode InputMode       // ActSwitchMode
}

// Write builds an Action that forwards raw bytes to the focused pane's PTY.
func Write(b []byte) Action { return Action{Kind: ActWrite, Bytes: b} }

// WriteChars builds an Action that forwards a UTF-8 string (e.g. typed
// text composed from multiple keystrokes) to the focused pane's PTY.
func WriteChars(s string) Action { return Action{Kind: ActWriteChars, Chars: s} }

// Resize builds an Action that grows the focused pane in dir.
func Resize(dir panegrid.Direction) Action { return Action{Kind: ActResize, Direction: dir} }

// MoveFocus builds an Action that moves focus to the next selectable pane
// in dir.
func MoveFocus(dir panegrid.Direction) Action { return Action{Kind: ActMoveFocus, Direction: dir} }

// NewPane, CloseFocus, ToggleFloating, and ToggleFullscreen build their
// corresponding zero-payload Actions.
func NewPane() Action          { return Action{Kind: ActNewPane} }
func CloseFocus() Action       { return Action{Kind: ActCloseFocus} }
func ToggleFloating() Action   { return Action{Kind: ActToggleFloating} }
func ToggleFullscreen() Action { return Action{Kind: ActToggleFullscreen} }

// SwitchMode builds an Action that changes the client's InputMode.
func SwitchMode(mode InputMode) Action { return Action{Kind: ActSwitchMode, SwitchMode: mode} }

// Quit builds the Action that tears down the session.
func Quit() Action { return Action{Kind: ActQuit} }

// KeyBinding resolves one key, in the context of the client's current
// InputMode, into an Action; the table implementing it is an external
// collaborator spec.md §6.4 deliberately leaves outside the core.
type KeyBinding func(mode InputMode, key rune) (Action, bool)
