// Package tab implements Tab orchestration: pane creation/closing, split
// layout delegation to panegrid/floatpanegrid, focus movement, resize
// dispatch, mouse-driven selection, and the per-pane scroll-gated
// PTY-bytes backpressure queue (spec.md §4.7), grounded on
// dcosson-h2/internal/session/session.go's single mutex-guarded
// owner-struct shape, generalized from "one PTY" to "map[PaneId]Pane".
package tab

import (
	"encoding/base64"
	"fmt"
	"sync"

	"h2/internal/action"
	"h2/internal/floatpanegrid"
	"h2/internal/geom"
	"h2/internal/grid"
	"h2/internal/linkhandler"
	"h2/internal/osapi"
	"h2/internal/pane"
	"h2/internal/panegrid"
	"h2/internal/paneid"
	"h2/internal/sixel"
)

// MaxPendingVteEvents is the backpressure cap spec.md §5/§9 puts on each
// pane's buffered PTY output chunks while that pane is scrolled back.
const MaxPendingVteEvents = 7000

// ClientId identifies a connected client for fullscreen-per-client and
// focus tracking (spec.md §9's Open Question decision).
type ClientId uint64

// Tab owns every pane (tiled and floating) shown in one tab, and the two
// resizers that lay them out.
type Tab struct {
	mu sync.Mutex

	id       int
	viewport geom.Viewport

	panes    map[paneid.PaneId]pane.Pane
	tiled    *panegrid.PaneGrid
	floating *floatpanegrid.FloatingPaneGrid

	focusedByClient    map[ClientId]paneid.PaneId
	fullscreenByClient map[ClientId]paneid.PaneId
	floatingActive     bool

	selectingByClient map[ClientId]paneid.PaneId

	pendingVte    map[paneid.PaneId][][]byte
	forcedFlushes int

	os         osapi.ServerOsApi
	links      *linkhandler.Handler
	sixelStore *sixel.Store
}

// New constructs an empty Tab over the given viewport.
func New(id int, v geom.Viewport, api osapi.ServerOsApi) *Tab {
	return &Tab{
		id:                 id,
		viewport:           v,
		panes:              make(map[paneid.PaneId]pane.Pane),
		tiled:              panegrid.New(v),
		floating:           floatpanegrid.New(v),
		focusedByClient:    make(map[ClientId]paneid.PaneId),
		fullscreenByClient: make(map[ClientId]paneid.PaneId),
		selectingByClient:  make(map[ClientId]paneid.PaneId),
		pendingVte:         make(map[paneid.PaneId][][]byte),
		os:                 api,
		links:              linkhandler.New(),
		sixelStore:         sixel.NewStore(),
	}
}

// NewPane spawns command as a new tiled pane, splitting whatever pane
// FindRoomForNewPane picks (spec.md §4.7 new_pane).
func (t *Tab) NewPane(id paneid.PaneId, command string, args []string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.panes) == 0 {
		g := geom.PaneGeom{X: t.viewport.X, Y: t.viewport.Y, Cols: geom.Percent(100), Rows: geom.Percent(100)}
		g.Cols.SetResolved(t.viewport.Cols)
		g.Rows.SetResolved(t.viewport.Rows)
		return t.spawnTiled(id, g, command, args)
	}
	splitId, dir, ok := t.tiled.FindRoomForNewPane()
	if !ok {
		return fmt.Errorf("tab: no room for new pane")
	}
	g, ok := t.tiled.Geom(splitId)
	if !ok {
		return fmt.Errorf("tab: split target %v has no geom", splitId)
	}
	left, right := splitGeomInHalf(g, dir)
	t.tiled.SetGeom(splitId, left)
	if err := t.spawnTiled(id, right, command, args); err != nil {
		t.tiled.SetGeom(splitId, g)
		return err
	}
	t.tiled.Layout()
	return nil
}

func splitGeomInHalf(g geom.PaneGeom, dir panegrid.Direction) (geom.PaneGeom, geom.PaneGeom) {
	left, right := g, g
	if dir == panegrid.DirRight {
		leftCols := g.Cols.AsUsize() / 2
		left.Cols = geom.Percent(g.Cols.Percent / 2)
		right.Cols = geom.Percent(g.Cols.Percent / 2)
		left.Cols.SetResolved(leftCols)
		right.Cols.SetResolved(g.Cols.AsUsize() - leftCols)
		right.X = g.X + leftCols
	} else {
		topRows := g.Rows.AsUsize() / 2
		left.Rows = geom.Percent(g.Rows.Percent / 2)
		right.Rows = geom.Percent(g.Rows.Percent / 2)
		left.Rows.SetResolved(topRows)
		right.Rows.SetResolved(g.Rows.AsUsize() - topRows)
		right.Y = g.Y + topRows
	}
	return left, right
}

func (t *Tab) spawnTiled(id paneid.PaneId, g geom.PaneGeom, command string, args []string) error {
	p, err := pane.NewTerminalPane(id, g, command, args, t.os, t.links, t.sixelStore, nil)
	if err != nil {
		return err
	}
	t.panes[id] = p
	t.tiled.SetGeom(id, g)
	t.tiled.Touch(id)
	return nil
}

// HorizontalSplit splits the active pane top/bottom; VerticalSplit splits
// it left/right (spec.md §4.7).
func (t *Tab) HorizontalSplit(client ClientId, newID paneid.PaneId, command string, args []string) error {
	return t.splitFocused(client, newID, command, args, panegrid.DirDown)
}

func (t *Tab) VerticalSplit(client ClientId, newID paneid.PaneId, command string, args []string) error {
	return t.splitFocused(client, newID, command, args, panegrid.DirRight)
}

func (t *Tab) splitFocused(client ClientId, newID paneid.PaneId, command string, args []string, dir panegrid.Direction) error {
	t.mu.Lock()
	focused, ok := t.focusedByClient[client]
	t.mu.Unlock()
	if !ok {
		return t.NewPane(newID, command, args)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	g, ok := t.tiled.Geom(focused)
	if !ok {
		return fmt.Errorf("tab: focused pane %v has no geom", focused)
	}
	left, right := splitGeomInHalf(g, dir)
	t.tiled.SetGeom(focused, left)
	if err := t.spawnTiled(newID, right, command, args); err != nil {
		t.tiled.SetGeom(focused, g)
		return err
	}
	t.tiled.Layout()
	return nil
}

// ClosePane removes id, reclaiming its space for aligned tiled neighbours
// (spec.md §4.7 close_pane).
func (t *Tab) ClosePane(id paneid.PaneId) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.panes[id]
	if !ok {
		return
	}
	p.Close()
	delete(t.panes, id)
	if _, isFloating := t.floating.Geom(id); isFloating {
		t.floating.RemovePane(id)
		return
	}
	t.tiled.FillSpaceOverPane(id)
	t.tiled.Remove(id)
	t.tiled.Layout()
}

// HandlePtyBytes feeds pane id's PTY output straight through its Grid
// unless the pane is scrolled back into history, in which case the
// bytes are buffered so they don't land in the middle of what the user
// is reviewing. A buffer that reaches MaxPendingVteEvents forces the
// pane back to live and flushes its whole backlog through instead of
// dropping any of it (spec.md §4.7/§5/§9 handle_pty_bytes).
func (t *Tab) HandlePtyBytes(id paneid.PaneId, data []byte) {
	t.mu.Lock()
	p, ok := t.panes[id]
	if !ok {
		t.mu.Unlock()
		return
	}
	gr := p.Grid()
	if !gr.Scrolled() {
		t.mu.Unlock()
		p.Feed(data)
		return
	}

	cp := make([]byte, len(data))
	copy(cp, data)
	queue := append(t.pendingVte[id], cp)

	var flush [][]byte
	if len(queue) >= MaxPendingVteEvents {
		flush = queue
		delete(t.pendingVte, id)
		t.forcedFlushes++
	} else {
		t.pendingVte[id] = queue
	}
	t.mu.Unlock()

	if flush != nil {
		gr.ClearScroll()
		for _, chunk := range flush {
			p.Feed(chunk)
		}
	}
}

// DrainPtyBytes flushes any buffered pane that has returned to live on
// its own — an alternate-screen switch or a resize both clear scrolling
// without going through the cap above — and reports how many forced
// (cap-triggered) flushes happened since the last call.
func (t *Tab) DrainPtyBytes() int {
	t.mu.Lock()
	type backlog struct {
		pane  pane.Pane
		queue [][]byte
	}
	var ready []backlog
	for id, queue := range t.pendingVte {
		p, ok := t.panes[id]
		if !ok {
			delete(t.pendingVte, id)
			continue
		}
		if !p.Grid().Scrolled() {
			ready = append(ready, backlog{pane: p, queue: queue})
			delete(t.pendingVte, id)
		}
	}
	forced := t.forcedFlushes
	t.forcedFlushes = 0
	t.mu.Unlock()

	for _, b := range ready {
		for _, chunk := range b.queue {
			b.pane.Feed(chunk)
		}
	}
	return forced
}

// ResizeLeft, ResizeRight, ResizeUp, and ResizeDown grow the focused pane
// in that direction (spec.md §4.7 resize_*).
func (t *Tab) ResizeLeft(client ClientId) bool  { return t.resize(client, panegrid.DirLeft) }
func (t *Tab) ResizeRight(client ClientId) bool { return t.resize(client, panegrid.DirRight) }
func (t *Tab) ResizeUp(client ClientId) bool    { return t.resize(client, panegrid.DirUp) }
func (t *Tab) ResizeDown(client ClientId) bool  { return t.resize(client, panegrid.DirDown) }

func (t *Tab) resize(client ClientId, dir panegrid.Direction) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	focused, ok := t.focusedByClient[client]
	if !ok {
		return false
	}
	if _, floating := t.floating.Geom(focused); floating {
		switch dir {
		case panegrid.DirLeft:
			return t.floating.ResizePaneLeft(focused)
		case panegrid.DirRight:
			return t.floating.ResizePaneRight(focused)
		case panegrid.DirUp:
			return t.floating.ResizePaneUp(focused)
		default:
			return t.floating.ResizePaneDown(focused)
		}
	}
	ok = t.tiled.ResizePane(focused, dir)
	if ok {
		t.tiled.Layout()
	}
	return ok
}

// ResizeIncrease and ResizeDecrease grow/shrink the focused pane via
// PaneGrid's corner-try-then-fallback algorithm (spec.md §4.4/§4.7);
// floating panes have no corner concept, so they fall back to two
// independent edge resizes.
func (t *Tab) ResizeIncrease(client ClientId) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	focused, ok := t.focusedByClient[client]
	if !ok {
		return false
	}
	if _, floating := t.floating.Geom(focused); floating {
		return t.floating.ResizePaneRight(focused) && t.floating.ResizePaneDown(focused)
	}
	ok = t.tiled.ResizeIncrease(focused)
	if ok {
		t.tiled.Layout()
	}
	return ok
}

func (t *Tab) ResizeDecrease(client ClientId) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	focused, ok := t.focusedByClient[client]
	if !ok {
		return false
	}
	if _, floating := t.floating.Geom(focused); floating {
		return t.floating.ResizePaneLeft(focused) && t.floating.ResizePaneUp(focused)
	}
	ok = t.tiled.ResizeDecrease(focused)
	if ok {
		t.tiled.Layout()
	}
	return ok
}

// MoveFocusLeft, MoveFocusRight, MoveFocusUp, and MoveFocusDown move
// client's focus to the next selectable pane in that direction (spec.md
// §4.7 move_focus_*).
func (t *Tab) MoveFocusLeft(client ClientId) bool  { return t.moveFocus(client, panegrid.DirLeft) }
func (t *Tab) MoveFocusRight(client ClientId) bool { return t.moveFocus(client, panegrid.DirRight) }
func (t *Tab) MoveFocusUp(client ClientId) bool    { return t.moveFocus(client, panegrid.DirUp) }
func (t *Tab) MoveFocusDown(client ClientId) bool  { return t.moveFocus(client, panegrid.DirDown) }

func (t *Tab) moveFocus(client ClientId, dir panegrid.Direction) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	focused, ok := t.focusedByClient[client]
	if !ok {
		return false
	}
	if _, floating := t.floating.Geom(focused); floating && t.floatingActive {
		next, ok := t.floating.NextSelectablePaneId(focused, dir)
		if !ok {
			return false
		}
		t.focusedByClient[client] = next
		return true
	}
	var next paneid.PaneId
	switch dir {
	case panegrid.DirLeft:
		next, ok = t.tiled.NextSelectablePaneIdToTheLeft(focused)
	case panegrid.DirRight:
		next, ok = t.tiled.NextSelectablePaneIdToTheRight(focused)
	case panegrid.DirUp:
		next, ok = t.tiled.NextSelectablePaneIdAbove(focused)
	default:
		next, ok = t.tiled.NextSelectablePaneIdBelow(focused)
	}
	if !ok {
		return false
	}
	t.focusedByClient[client] = next
	t.tiled.Touch(next)
	return true
}

// ToggleActivePaneFullscreen records client's focused pane as that
// client's fullscreen pane, or clears the record if one is already set.
// The record is kept per client; it does not change any pane's geometry,
// and the output compositor does not read it.
func (t *Tab) ToggleActivePaneFullscreen(client ClientId) {
	t.mu.Lock()
	defer t.mu.Unlock()
	focused, ok := t.focusedByClient[client]
	if !ok {
		return
	}
	if _, already := t.fullscreenByClient[client]; already {
		delete(t.fullscreenByClient, client)
		return
	}
	t.fullscreenByClient[client] = focused
}

// ToggleFloatingPanes flips which layer (tiled or floating) is visible on
// top and receiving focus (spec.md §4.7).
func (t *Tab) ToggleFloatingPanes() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.floatingActive = !t.floatingActive
}

// TogglePaneEmbedOrFloating moves id between the tiled and floating
// layers, placing it via FindRoomForNewPane/FillSpaceOverPane as needed.
func (t *Tab) TogglePaneEmbedOrFloating(id paneid.PaneId) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.panes[id]
	if !ok {
		return
	}
	if g, isFloating := t.floating.Geom(id); isFloating {
		t.floating.RemovePane(id)
		splitId, dir, ok := t.tiled.FindRoomForNewPane()
		if !ok {
			t.floating.AddPane(id, g)
			return
		}
		parent, _ := t.tiled.Geom(splitId)
		left, right := splitGeomInHalf(parent, dir)
		t.tiled.SetGeom(splitId, left)
		t.tiled.SetGeom(id, right)
		p.SetGeom(right)
		t.tiled.Layout()
		return
	}
	g, ok := t.tiled.Geom(id)
	if !ok {
		return
	}
	t.tiled.FillSpaceOverPane(id)
	t.tiled.Remove(id)
	t.tiled.Layout()
	rows, cols := g.Rows.AsUsize(), g.Cols.AsUsize()
	newGeom := t.floating.FindRoomForNewPane(rows, cols)
	t.floating.AddPane(id, newGeom)
	p.SetGeom(newGeom)
}

// FocusedPane returns client's currently focused pane, if any.
func (t *Tab) FocusedPane(client ClientId) (pane.Pane, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id, ok := t.focusedByClient[client]
	if !ok {
		return nil, false
	}
	p, ok := t.panes[id]
	return p, ok
}

// SetFocus records client's focused pane, used on pane creation and mouse
// click.
func (t *Tab) SetFocus(client ClientId, id paneid.PaneId) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.panes[id]; !ok {
		return
	}
	t.focusedByClient[client] = id
	t.tiled.Touch(id)
}

// HandleLeftClick focuses whichever pane (floating first, then tiled)
// contains (x, y), raises it to the top of the z-order if floating, and
// anchors a new selection at the click position, translated into the
// pane's own coordinates (spec.md §4.7 mouse handling).
func (t *Tab) HandleLeftClick(client ClientId, x, y int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, id := range t.floating.ZOrder() {
		if g, ok := t.floating.Geom(id); ok && g.Contains(x, y) {
			t.floating.RaiseToTop(id)
			t.focusedByClient[client] = id
			t.beginSelection(client, id, g, x, y)
			return
		}
	}
	for id := range t.panes {
		if g, ok := t.tiled.Geom(id); ok && g.Contains(x, y) {
			t.focusedByClient[client] = id
			t.tiled.Touch(id)
			t.beginSelection(client, id, g, x, y)
			return
		}
	}
}

// beginSelection anchors a zero-length selection at (x, y), translated
// into id's pane-local, scrollback-aware coordinates. Called with t.mu
// held.
func (t *Tab) beginSelection(client ClientId, id paneid.PaneId, g geom.PaneGeom, x, y int) {
	p, ok := t.panes[id]
	if !ok {
		return
	}
	gr := p.Grid()
	localX := x - g.X
	absY := gr.AbsoluteRow(y - g.Y)
	gr.SetSelection(grid.Selection{StartX: localX, StartY: absY, EndX: localX, EndY: absY})
	t.selectingByClient[client] = id
}

// HandleMouseHold extends client's active selection to (x, y), translated
// into the selecting pane's own coordinates; positions outside the pane
// clamp to its nearest edge (spec.md §4.7 mouse handling).
func (t *Tab) HandleMouseHold(client ClientId, x, y int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id, ok := t.selectingByClient[client]
	if !ok {
		return
	}
	p, ok := t.panes[id]
	if !ok {
		return
	}
	g, ok := t.tiled.Geom(id)
	if !ok {
		g, ok = t.floating.Geom(id)
	}
	if !ok {
		return
	}
	gr := p.Grid()
	sel, ok := gr.Selection()
	if !ok {
		return
	}
	cols, rows := g.Cols.AsUsize(), g.Rows.AsUsize()
	localX := clampInt(x-g.X, 0, cols-1)
	localY := clampInt(y-g.Y, 0, rows-1)
	sel.EndX = localX
	sel.EndY = gr.AbsoluteRow(localY)
	gr.SetSelection(sel)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// HandleMouseRelease ends client's in-flight selection and returns the
// OSC52 clipboard-set sequence for its selected text, ready for the
// caller to forward to the attached client terminal (spec.md §4.7 mouse
// handling: "on release, extract selected text and emit OSC52 clipboard
// write"). It returns nil if no selection was active or nothing was
// selected.
func (t *Tab) HandleMouseRelease(client ClientId) []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	id, ok := t.selectingByClient[client]
	if !ok {
		return nil
	}
	delete(t.selectingByClient, client)
	p, ok := t.panes[id]
	if !ok {
		return nil
	}
	text := p.Grid().SelectedText()
	if text == "" {
		return nil
	}
	return []byte("\x1b]52;c;" + base64.StdEncoding.EncodeToString([]byte(text)) + "\x07")
}

// Resize adapts the tab to a new viewport, re-laying the tiled grid and
// reflowing floating panes (spec.md §4.7 resize-whole-viewport path).
func (t *Tab) Resize(v geom.Viewport) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.viewport = v
	t.tiled.Layout()
	t.floating.Resize(v)
	for id, p := range t.panes {
		g, ok := t.tiled.Geom(id)
		if !ok {
			g, ok = t.floating.Geom(id)
		}
		if ok {
			p.SetGeom(g)
			p.Render(g.Rows.AsUsize(), g.Cols.AsUsize())
		}
	}
}

// TiledGeoms and FloatingZOrder expose layout state to internal/output's
// compositor without leaking Tab's mutex.
func (t *Tab) TiledGeoms() map[paneid.PaneId]geom.PaneGeom {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[paneid.PaneId]geom.PaneGeom, len(t.panes))
	for id := range t.panes {
		if g, ok := t.tiled.Geom(id); ok {
			out[id] = g
		}
	}
	return out
}

func (t *Tab) FloatingZOrder() []paneid.PaneId {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.floating.ZOrder()
}

func (t *Tab) FloatingRects() []geom.PaneGeom {
	t.mu.Lock()
	defer t.mu.Unlock()
	var rects []geom.PaneGeom
	for _, id := range t.floating.ZOrder() {
		if g, ok := t.floating.Geom(id); ok {
			rects = append(rects, g)
		}
	}
	return rects
}

func (t *Tab) Pane(id paneid.PaneId) (pane.Pane, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.panes[id]
	return p, ok
}

func (t *Tab) FloatingPanesVisible() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.floatingActive
}

// HandleAction dispatches a pre-resolved Action (spec.md §6.4) to the
// matching Tab operation for client. newPaneID/command/args supply the
// identity and spawn command an ActNewPane needs, since an Action itself
// carries no pane identity.
func (t *Tab) HandleAction(client ClientId, act action.Action, newPaneID paneid.PaneId, command string, args []string) error {
	switch act.Kind {
	case action.ActWrite:
		return t.writeToFocused(client, act.Bytes)
	case action.ActWriteChars:
		return t.writeToFocused(client, []byte(act.Chars))
	case action.ActResize:
		t.dispatchResize(client, act.Direction)
	case action.ActMoveFocus:
		t.dispatchMoveFocus(client, act.Direction)
	case action.ActNewPane:
		return t.NewPane(newPaneID, command, args)
	case action.ActCloseFocus:
		if p, ok := t.FocusedPane(client); ok {
			t.ClosePane(p.ID())
		}
	case action.ActToggleFloating:
		t.ToggleFloatingPanes()
	case action.ActToggleFullscreen:
		t.ToggleActivePaneFullscreen(client)
	case action.ActSwitchMode, action.ActQuit:
		// Mode switching and quit are client-level UI state, not Tab
		// state; the caller's input-mode state machine handles them.
	}
	return nil
}

func (t *Tab) writeToFocused(client ClientId, data []byte) error {
	p, ok := t.FocusedPane(client)
	if !ok {
		return fmt.Errorf("tab: no focused pane for client %d", client)
	}
	return p.HandleInput(data)
}

func (t *Tab) dispatchResize(client ClientId, dir panegrid.Direction) {
	switch dir {
	case panegrid.DirLeft:
		t.ResizeLeft(client)
	case panegrid.DirRight:
		t.ResizeRight(client)
	case panegrid.DirUp:
		t.ResizeUp(client)
	default:
		t.ResizeDown(client)
	}
}

func (t *Tab) dispatchMoveFocus(client ClientId, dir panegrid.Direction) {
	switch dir {
	case panegrid.DirLeft:
		t.MoveFocusLeft(client)
	case panegrid.DirRight:
		t.MoveFocusRight(client)
	case panegrid.DirUp:
		t.MoveFocusUp(client)
	default:
		t.MoveFocusDown(client)
	}
}
