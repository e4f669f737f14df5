// Package grid implements one pane's terminal screen state: the 2-D
// character grid, scrollback, cursor, alternate screen, scroll regions,
// selection, and sixel/hyperlink bookkeeping described in spec.md §3.1 and
// §4.1. A Grid is driven by feeding PTY bytes through an external VT
// decoder (see internal/vtparser) which calls back into the
// ansicode.Handler methods implemented in handler.go.
package grid

import (
	"strings"
	"sync"

	"h2/internal/linkhandler"
	"h2/internal/sixel"
)

// MouseTrackingMode enumerates the CSI ?100x mouse reporting modes a Grid
// tracks so the Tab layer knows whether to forward raw mouse bytes.
type MouseTrackingMode uint8

const (
	MouseTrackingOff MouseTrackingMode = iota
	MouseTrackingNormal             // ?1000
	MouseTrackingButtonEvent        // ?1002
	MouseTrackingAnyEvent           // ?1003
	MouseTrackingSGR                // ?1006 (encoding, combined with one of the above)
)

// Selection is an optional rectangular or linear selection, in absolute
// (scrollback-aware) coordinates: Y is an index into the logical sequence
// lines_above + viewport + lines_below.
type Selection struct {
	StartX, StartY int
	EndX, EndY     int
	Rectangular    bool
}

// Grid is one pane's terminal screen state.
type Grid struct {
	mu sync.Mutex

	rows, cols int

	viewport   []Row
	linesAbove []Row
	linesBelow []Row
	scrollCap  int

	// alternate screen state, swapped in/out on CSI ?1049h/l.
	altActive    bool
	altViewport  []Row
	altCursor    Cursor
	altSaved     *SavedCursor
	altScrollTop int
	altScrollBot int

	cursor      Cursor
	savedCursor *SavedCursor

	scrollTop, scrollBottom int
	scrollOffset            int // lines scrolled back from live; 0 == live

	activeCharset int // 0 = G0, 1 = G1
	charsets      [2]CharsetKind

	pendingMessages [][]byte

	links *linkhandler.Handler

	sel *Selection

	ringBell       bool
	title         string
	mouseMode      MouseTrackingMode
	bracketedPaste bool
	decsdm         bool // sixel display mode: true = anchor at top-left, false = at cursor
	cursorKeyApp   bool
	kittyKeyboard  bool

	sixelStore *sixel.Store
	sixelRefs  map[sixel.ImageId]sixel.Anchor

	colorCodes map[int]Color // OSC4 palette overrides, shared-by-reference at construction

	cellW, cellH int // character cell pixel size, 0 if unknown (spec.md §6.7)
}

// CharsetKind enumerates the VT100 G0/G1 character translation tables.
type CharsetKind uint8

const (
	CharsetASCII CharsetKind = iota
	CharsetLineDrawing
)

// New creates a Grid with the given dimensions, sharing the process-wide
// sixel store and a per-pane link handler (spec.md §3.1 lifecycle).
func New(rows, cols int, colorCodes map[int]Color, links *linkhandler.Handler, store *sixel.Store) *Grid {
	if colorCodes == nil {
		colorCodes = make(map[int]Color)
	}
	g := &Grid{
		rows: rows, cols: cols,
		scrollCap:     50000,
		scrollBottom:  rows - 1,
		links:         links,
		sixelStore:    store,
		sixelRefs:     make(map[sixel.ImageId]sixel.Anchor),
		colorCodes:    colorCodes,
		cursor:        Cursor{Shape: CursorBlock},
	}
	g.viewport = make([]Row, rows)
	for i := range g.viewport {
		g.viewport[i] = NewRow(cols, CharacterStyles{})
	}
	return g
}

// Rows and Cols report the current viewport dimensions.
func (g *Grid) Rows() int { g.mu.Lock(); defer g.mu.Unlock(); return g.rows }
func (g *Grid) Cols() int { g.mu.Lock(); defer g.mu.Unlock(); return g.cols }

// CursorPosition returns the cursor's (x, y) in viewport coordinates.
func (g *Grid) CursorPosition() (int, int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cursor.X, g.cursor.Y
}

// CursorHidden reports whether the cursor is currently hidden (CSI ?25l).
func (g *Grid) CursorHidden() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cursor.Hidden
}

// Title returns the pane's current window title (OSC 0/2).
func (g *Grid) Title() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.title
}

// TakeRingBell reports and clears the ring-bell flag.
func (g *Grid) TakeRingBell() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	rang := g.ringBell
	g.ringBell = false
	return rang
}

// PendingMessages drains and returns bytes the emulator must send back to
// the PTY (DSR replies, OSC color query replies, etc — spec.md §3.1).
func (g *Grid) PendingMessages() [][]byte {
	g.mu.Lock()
	defer g.mu.Unlock()
	msgs := g.pendingMessages
	g.pendingMessages = nil
	return msgs
}

func (g *Grid) queueReply(b []byte) {
	g.pendingMessages = append(g.pendingMessages, b)
}

// activeViewport returns the viewport currently in play (primary or
// alternate), always called with g.mu held.
func (g *Grid) activeViewport() []Row {
	if g.altActive {
		return g.altViewport
	}
	return g.viewport
}

func (g *Grid) setActiveViewport(v []Row) {
	if g.altActive {
		g.altViewport = v
	} else {
		g.viewport = v
	}
}

// IsAlternateScreen reports whether the alternate screen buffer is active.
func (g *Grid) IsAlternateScreen() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.altActive
}

// ScrollbackPositionAndLength returns (0, 0) while on the alternate screen,
// which has no scrollback (spec.md §3.1 invariant), and otherwise the
// number of lines scrolled off the top and the total scrollback length.
func (g *Grid) ScrollbackPositionAndLength() (int, int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.altActive {
		return 0, 0
	}
	return g.scrollOffset, len(g.linesAbove)
}

// Scrolled reports whether the pane is showing scrollback history rather
// than the live viewport — the condition spec.md §4.7's handle_pty_bytes
// gates buffering on. The alternate screen has no scrollback, so it is
// never considered scrolled.
func (g *Grid) Scrolled() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return !g.altActive && g.scrollOffset > 0
}

// ScrollUp moves the scrollback view n lines further into history, clamped
// to the available scrollback. A no-op on the alternate screen.
func (g *Grid) ScrollUp(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.altActive {
		return
	}
	g.scrollOffset += n
	if max := len(g.linesAbove); g.scrollOffset > max {
		g.scrollOffset = max
	}
}

// ScrollDown moves the scrollback view n lines toward live, clamped at 0.
func (g *Grid) ScrollDown(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.scrollOffset -= n
	if g.scrollOffset < 0 {
		g.scrollOffset = 0
	}
}

// ClearScroll returns the pane to its live viewport (spec.md §4.7's
// clear_scroll, invoked by handle_pty_bytes once its per-pane buffer hits
// the 7000-entry cap).
func (g *Grid) ClearScroll() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.scrollOffset = 0
}

// visibleRows returns the rows[:rows] currently on screen: the live
// viewport, or scrollOffset lines of scrollback followed by however much
// of the live viewport still fits, when scrolled back.
func (g *Grid) visibleRows() []Row {
	if g.altActive || g.scrollOffset == 0 {
		return g.activeViewport()
	}
	total := len(g.linesAbove)
	offset := g.scrollOffset
	if offset > total {
		offset = total
	}
	start := total - offset
	out := make([]Row, 0, g.rows)
	for i := start; i < total && len(out) < g.rows; i++ {
		out = append(out, g.linesAbove[i])
	}
	for i := 0; len(out) < g.rows && i < len(g.viewport); i++ {
		out = append(out, g.viewport[i])
	}
	return out
}

// Row returns a snapshot of visible row y (0-indexed from the top of
// whatever is currently on screen — live viewport or scrollback).
func (g *Grid) Row(y int) Row {
	g.mu.Lock()
	defer g.mu.Unlock()
	v := g.visibleRows()
	if y < 0 || y >= len(v) {
		return Row{}
	}
	return v[y].Clone()
}

// String renders what's currently on screen as rows lines of cols visual
// columns, satisfying the §8.1 Debug-format property.
func (g *Grid) String() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	var sb strings.Builder
	v := g.visibleRows()
	for i, row := range v {
		for _, c := range row.Cells {
			sb.WriteRune(c.Character)
		}
		if i != len(v)-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// EnterAltScreen switches to the alternate screen buffer, saving the
// primary cursor/scroll-region and starting the alternate buffer blank
// (CSI ?1049h, spec.md §4.1 state machine).
func (g *Grid) EnterAltScreen() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.altActive {
		return
	}
	g.altActive = true
	g.scrollOffset = 0
	saved := g.cursor
	g.altCursor = Cursor{Shape: CursorBlock}
	g.cursor = saved
	g.cursor.X, g.cursor.Y = 0, 0
	g.altScrollTop, g.altScrollBot = 0, g.rows-1
	g.altViewport = make([]Row, g.rows)
	for i := range g.altViewport {
		g.altViewport[i] = NewRow(g.cols, CharacterStyles{})
	}
}

// LeaveAltScreen restores the primary screen, discards the alternate
// buffer, and reaps sixel images anchored in it (CSI ?1049l).
func (g *Grid) LeaveAltScreen() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.altActive {
		return
	}
	g.altActive = false
	for id, a := range g.sixelRefs {
		if a.Line < 0 {
			g.sixelStore.Unref(id)
			delete(g.sixelRefs, id)
		}
	}
	g.altViewport = nil
	if g.sixelStore != nil {
		g.sixelStore.Reap()
	}
}

// Resize implements change_size(rows, cols): it rewraps every canonical
// line under the new column count and grows/shrinks the viewport height
// from the bottom, per spec.md §4.1's resize algorithm.
func (g *Grid) Resize(newRows, newCols int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if newRows == g.rows && newCols == g.cols {
		return
	}
	if newCols != g.cols {
		g.rewrap(newCols)
	}
	g.scrollOffset = 0
	g.rows = newRows
	g.cols = newCols
	g.scrollBottom = newRows - 1
	if g.scrollTop > g.scrollBottom {
		g.scrollTop = 0
	}
	g.resizeViewportHeight(newRows)
	if g.cursor.X > g.cols {
		g.cursor.X = g.cols
	}
	if g.cursor.Y >= g.rows {
		g.cursor.Y = g.rows - 1
	}
}

// rewrap concatenates wrapped fragments into canonical logical lines and
// re-emits them under newCols, preserving content across a resize.
func (g *Grid) rewrap(newCols int) {
	v := g.activeViewport()
	lines := joinCanonicalLines(append(append([]Row{}, g.linesAbove...), v...))
	var reflowed []Row
	for _, line := range lines {
		reflowed = append(reflowed, splitIntoRows(line, newCols)...)
	}
	if !g.altActive {
		split := len(reflowed) - len(v)
		if split < 0 {
			split = 0
		}
		g.linesAbove = reflowed[:split]
		newViewport := reflowed[split:]
		for len(newViewport) < len(v) {
			newViewport = append(newViewport, NewRow(newCols, CharacterStyles{}))
		}
		g.setActiveViewport(newViewport)
	} else {
		for i := range reflowed {
			if len(reflowed[i].Cells) < newCols {
				reflowed[i].Resize(newCols, CharacterStyles{})
			}
		}
		for len(reflowed) < len(v) {
			reflowed = append(reflowed, NewRow(newCols, CharacterStyles{}))
		}
		g.setActiveViewport(reflowed)
	}
	g.cols = newCols
}

// joinCanonicalLines concatenates rows whose successor is marked wrapped
// back into single logical lines, the inverse of splitIntoRows.
func joinCanonicalLines(rows []Row) [][]TerminalCharacter {
	var lines [][]TerminalCharacter
	var current []TerminalCharacter
	for i, r := range rows {
		current = append(current, r.trimTrailingBlanks()...)
		// A row is part of the same logical line as its predecessor when
		// THIS row is marked wrapped (it continues the previous one).
		continued := i+1 < len(rows) && rows[i+1].IsWrapped
		if !continued {
			lines = append(lines, current)
			current = nil
		}
	}
	if len(current) > 0 {
		lines = append(lines, current)
	}
	return lines
}

// splitIntoRows re-emits a logical line under cols, marking every fragment
// after the first as wrapped.
func splitIntoRows(line []TerminalCharacter, cols int) []Row {
	if len(line) == 0 {
		return []Row{NewRow(cols, CharacterStyles{})}
	}
	var rows []Row
	for start := 0; start < len(line); start += cols {
		end := start + cols
		if end > len(line) {
			end = len(line)
		}
		row := NewRow(cols, CharacterStyles{})
		copy(row.Cells, line[start:end])
		row.IsWrapped = start > 0
		rows = append(rows, row)
	}
	return rows
}

func (g *Grid) resizeViewportHeight(newRows int) {
	v := g.activeViewport()
	for len(v) < newRows {
		v = append(v, NewRow(g.cols, CharacterStyles{}))
	}
	if len(v) > newRows {
		excess := len(v) - newRows
		if !g.altActive {
			g.linesAbove = append(g.linesAbove, v[:excess]...)
		}
		v = v[excess:]
	}
	g.setActiveViewport(v)
}

// pushScrollback appends a row to lines_above, discarding the oldest line
// (and reaping its sixel anchors) once the scrollback cap is exceeded
// (spec.md §4.1, §7).
func (g *Grid) pushScrollback(row Row) {
	if g.altActive {
		return // alt-screen accumulates no scrollback
	}
	g.linesAbove = append(g.linesAbove, row)
	if len(g.linesAbove) > g.scrollCap {
		drop := len(g.linesAbove) - g.scrollCap
		g.linesAbove = g.linesAbove[drop:]
		for id, a := range g.sixelRefs {
			a.Line -= drop
			g.sixelRefs[id] = a
			if a.Line < 0 {
				g.sixelStore.Unref(id)
				delete(g.sixelRefs, id)
			}
		}
		if g.sixelStore != nil {
			g.sixelStore.Reap()
		}
	}
}

// ResetTerminalState implements RIS: clears the grid back to a fresh
// primary screen and reaps all sixel references.
func (g *Grid) ResetTerminalState() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.altActive = false
	g.altViewport = nil
	g.linesAbove = nil
	g.linesBelow = nil
	g.viewport = make([]Row, g.rows)
	for i := range g.viewport {
		g.viewport[i] = NewRow(g.cols, CharacterStyles{})
	}
	g.cursor = Cursor{Shape: CursorBlock}
	g.savedCursor = nil
	g.scrollTop, g.scrollBottom = 0, g.rows-1
	g.title = ""
	g.mouseMode = MouseTrackingOff
	g.bracketedPaste = false
	for id := range g.sixelRefs {
		g.sixelStore.Unref(id)
	}
	g.sixelRefs = make(map[sixel.ImageId]sixel.Anchor)
	if g.sixelStore != nil {
		g.sixelStore.Reap()
	}
}

// SetSelection installs a selection in absolute coordinates.
func (g *Grid) SetSelection(sel Selection) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s := sel
	g.sel = &s
}

// ClearSelection removes any active selection.
func (g *Grid) ClearSelection() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sel = nil
}

// Selection returns the active selection, if any.
func (g *Grid) Selection() (Selection, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.sel == nil {
		return Selection{}, false
	}
	return *g.sel, true
}

// AbsoluteRow converts localRow, a row index into whatever is currently on
// screen (live viewport or scrollback), into the logical index Selection
// and SelectedText use over the linesAbove+viewport sequence.
func (g *Grid) AbsoluteRow(localRow int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	offset := g.scrollOffset
	if g.altActive {
		offset = 0
	}
	start := len(g.linesAbove) - offset
	if start < 0 {
		start = 0
	}
	return start + localRow
}

// OutputOSC8 renders anchor through the pane's link handler, for the
// output compositor's hyperlink diff (spec.md §4.8 step 7).
func (g *Grid) OutputOSC8(anchor *linkhandler.Anchor) string {
	return g.links.OutputOSC8(anchor)
}

// SelectedText concatenates visible characters between the selection's
// start and end (inclusive), inserting "\n" at row boundaries except where
// the source row was wrapped (spec.md §4.1).
func (g *Grid) SelectedText() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.sel == nil {
		return ""
	}
	all := append(append([]Row{}, g.linesAbove...), g.activeViewport()...)
	startY, endY := g.sel.StartY, g.sel.EndY
	startX, endX := g.sel.StartX, g.sel.EndX
	if startY > endY || (startY == endY && startX > endX) {
		startY, endY = endY, startY
		startX, endX = endX, startX
	}
	var sb strings.Builder
	for y := startY; y <= endY && y < len(all); y++ {
		if y < 0 {
			continue
		}
		row := all[y]
		lo, hi := 0, len(row.Cells)
		if !g.sel.Rectangular {
			if y == startY {
				lo = startX
			}
			if y == endY {
				hi = endX + 1
			}
		} else {
			lo, hi = startX, endX+1
		}
		if lo < 0 {
			lo = 0
		}
		if hi > len(row.Cells) {
			hi = len(row.Cells)
		}
		for x := lo; x < hi; x++ {
			if row.Cells[x].Width == 0 {
				continue
			}
			sb.WriteRune(row.Cells[x].Character)
		}
		if y != endY {
			nextWrapped := y+1 < len(all) && all[y+1].IsWrapped
			if !nextWrapped {
				sb.WriteByte('\n')
			}
		}
	}
	return sb.String()
}

// AnchorSixelImage records id as anchored at the cursor's current absolute
// line (or top-left under DECSDM), refcounting it in the shared store.
func (g *Grid) AnchorSixelImage(id sixel.ImageId) {
	line, column := len(g.linesAbove), 0
	if !g.decsdm {
		line += g.cursor.Y
		column = g.cursor.X
	}
	g.sixelRefs[id] = sixel.Anchor{Line: line, Column: column}
	g.sixelStore.Ref(id)
}
