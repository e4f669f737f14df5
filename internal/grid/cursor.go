package grid

// CursorShape enumerates the DECSCUSR cursor shapes a pane can request.
type CursorShape uint8

const (
	CursorBlock CursorShape = iota
	CursorUnderline
	CursorBar
)

// Cursor is a Grid's cursor: position, the styles that will be stamped on
// the next printed character, shape, and visibility (spec.md §3.1).
type Cursor struct {
	X, Y          int
	PendingStyles CharacterStyles
	Shape         CursorShape
	Hidden        bool
	// pendingWrap marks the "x == cols" state: the cursor has reached the
	// last column and will wrap to the next row on the next printed
	// character, not before (spec.md §3.1 invariants).
	pendingWrap bool
}

// SavedCursor is a DEC-save-cursor snapshot (ESC 7 / CSI s), restorable via
// DEC restore sequences (ESC 8 / CSI u).
type SavedCursor struct {
	X, Y          int
	PendingStyles CharacterStyles
	CharsetIndex  int
}
