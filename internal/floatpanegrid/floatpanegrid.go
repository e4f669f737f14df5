// Package floatpanegrid implements FloatingPaneGrid: the unconstrained
// overlapping layout floating panes use, as opposed to panegrid's exact
// tiled partition (spec.md §4.5), grounded on
// original_source/zellij-server/src/tab/mod.rs's floating-pane placement
// and movement code (no Go example repo models floating overlays).
package floatpanegrid

import (
	"h2/internal/geom"
	"h2/internal/panegrid"
	"h2/internal/paneid"
)

// ResizeIncrementWidth and ResizeIncrementHeight are the fixed cell steps
// resize_pane_{left,right,up,down} moves a floating pane's edge by.
const (
	ResizeIncrementWidth  = 5
	ResizeIncrementHeight = 2
)

// DesiredGeom remembers the geometry a floating pane wants when there is
// enough room, so Resize can restore it once the viewport grows back.
type DesiredGeom struct {
	Geom geom.PaneGeom
}

// FloatingPaneGrid owns the free-form geometry of every floating pane in
// one tab.
type FloatingPaneGrid struct {
	viewport geom.Viewport
	geoms    map[paneid.PaneId]geom.PaneGeom
	desired  map[paneid.PaneId]geom.PaneGeom
	zorder   []paneid.PaneId // back to front; last element is topmost
}

// New constructs an empty FloatingPaneGrid over the given viewport.
func New(v geom.Viewport) *FloatingPaneGrid {
	return &FloatingPaneGrid{
		viewport: v,
		geoms:    make(map[paneid.PaneId]geom.PaneGeom),
		desired:  make(map[paneid.PaneId]geom.PaneGeom),
	}
}

// AddPane inserts id at geom g, on top of the z-order.
func (f *FloatingPaneGrid) AddPane(id paneid.PaneId, g geom.PaneGeom) {
	f.geoms[id] = g
	f.desired[id] = g
	f.zorder = append(f.zorder, id)
}

// RemovePane drops id from the grid and z-order.
func (f *FloatingPaneGrid) RemovePane(id paneid.PaneId) {
	delete(f.geoms, id)
	delete(f.desired, id)
	for i, z := range f.zorder {
		if z == id {
			f.zorder = append(f.zorder[:i], f.zorder[i+1:]...)
			break
		}
	}
}

// Geom returns a floating pane's current geometry.
func (f *FloatingPaneGrid) Geom(id paneid.PaneId) (geom.PaneGeom, bool) {
	g, ok := f.geoms[id]
	return g, ok
}

// ZOrder returns panes back-to-front; the last entry renders on top.
func (f *FloatingPaneGrid) ZOrder() []paneid.PaneId {
	return append([]paneid.PaneId(nil), f.zorder...)
}

// RaiseToTop moves id to the front of the z-order, e.g. on focus.
func (f *FloatingPaneGrid) RaiseToTop(id paneid.PaneId) {
	for i, z := range f.zorder {
		if z == id {
			f.zorder = append(f.zorder[:i], f.zorder[i+1:]...)
			break
		}
	}
	f.zorder = append(f.zorder, id)
}

// candidateGeoms enumerates the five placements FindRoomForNewPane tries,
// in order of preference: centered, then the viewport's top-left,
// top-right, bottom-left and bottom-right corners, each clamped to the
// viewport.
func (f *FloatingPaneGrid) candidateGeoms(rows, cols int) []geom.PaneGeom {
	vx, vy, vw, vh := f.viewport.X, f.viewport.Y, f.viewport.Cols, f.viewport.Rows
	cx := vx + (vw-cols)/2
	cy := vy + (vh-rows)/2
	right := clampInt(vx+vw-cols, vx, vx+vw-cols)
	bottom := clampInt(vy+vh-rows, vy, vy+vh-rows)
	return []geom.PaneGeom{
		{X: cx, Y: cy, Cols: geom.Fixed(cols), Rows: geom.Fixed(rows)},
		{X: vx, Y: vy, Cols: geom.Fixed(cols), Rows: geom.Fixed(rows)},
		{X: right, Y: vy, Cols: geom.Fixed(cols), Rows: geom.Fixed(rows)},
		{X: vx, Y: bottom, Cols: geom.Fixed(cols), Rows: geom.Fixed(rows)},
		{X: right, Y: bottom, Cols: geom.Fixed(cols), Rows: geom.Fixed(rows)},
	}
}

func clampInt(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// FindRoomForNewPane tries each of the five candidate geometries in turn
// and returns the first that doesn't overlap an existing floating pane.
func (f *FloatingPaneGrid) FindRoomForNewPane(rows, cols int) geom.PaneGeom {
	for _, cand := range f.candidateGeoms(rows, cols) {
		overlapsAny := false
		for _, g := range f.geoms {
			if g.Overlaps(cand) {
				overlapsAny = true
				break
			}
		}
		if !overlapsAny {
			return cand
		}
	}
	// Every candidate collides: fall back to the centered position anyway,
	// stacking on top via z-order.
	return f.candidateGeoms(rows, cols)[0]
}

// MovePaneBy shifts id by (dx, dy), clamping so it stays inside the
// viewport.
func (f *FloatingPaneGrid) MovePaneBy(id paneid.PaneId, dx, dy int) bool {
	g, ok := f.geoms[id]
	if !ok {
		return false
	}
	vx, vy, vw, vh := f.viewport.X, f.viewport.Y, f.viewport.Cols, f.viewport.Rows
	g.X = clampInt(g.X+dx, vx, vx+vw-g.Cols.AsUsize())
	g.Y = clampInt(g.Y+dy, vy, vy+vh-g.Rows.AsUsize())
	f.geoms[id] = g
	f.desired[id] = g
	return true
}

// ResizePaneLeft grows the pane's width by ResizeIncrementWidth toward the
// left edge, shrinking if it would run past the viewport.
func (f *FloatingPaneGrid) ResizePaneLeft(id paneid.PaneId) bool {
	return f.resizeEdge(id, panegrid.DirLeft)
}

// ResizePaneRight grows the pane's width toward the right edge, shrinking
// if it would run past the viewport.
func (f *FloatingPaneGrid) ResizePaneRight(id paneid.PaneId) bool {
	return f.resizeEdge(id, panegrid.DirRight)
}

// ResizePaneUp grows the pane's height toward the top edge, shrinking if
// it would run past the viewport.
func (f *FloatingPaneGrid) ResizePaneUp(id paneid.PaneId) bool {
	return f.resizeEdge(id, panegrid.DirUp)
}

// ResizePaneDown grows the pane's height toward the bottom edge, shrinking
// if it would run past the viewport.
func (f *FloatingPaneGrid) ResizePaneDown(id paneid.PaneId) bool {
	return f.resizeEdge(id, panegrid.DirDown)
}

func (f *FloatingPaneGrid) resizeEdge(id paneid.PaneId, dir panegrid.Direction) bool {
	g, ok := f.geoms[id]
	if !ok {
		return false
	}
	step := ResizeIncrementWidth
	if dir == panegrid.DirUp || dir == panegrid.DirDown {
		step = ResizeIncrementHeight
	}
	next := g
	switch dir {
	case panegrid.DirLeft:
		next.X -= step
		next.Cols = geom.Fixed(next.Cols.AsUsize() + step)
	case panegrid.DirRight:
		next.Cols = geom.Fixed(next.Cols.AsUsize() + step)
	case panegrid.DirUp:
		next.Y -= step
		next.Rows = geom.Fixed(next.Rows.AsUsize() + step)
	case panegrid.DirDown:
		next.Rows = geom.Fixed(next.Rows.AsUsize() + step)
	}
	if !next.SatisfiesMinimums() || !next.ContainedIn(f.viewport) {
		next = g // no room to grow: move the opposite edge inward instead
		if dir == panegrid.DirLeft || dir == panegrid.DirRight {
			next.Cols = geom.Fixed(g.Cols.AsUsize() - step)
		} else {
			next.Rows = geom.Fixed(g.Rows.AsUsize() - step)
		}
		if dir == panegrid.DirRight {
			next.X += step
		} else if dir == panegrid.DirDown {
			next.Y += step
		}
		if !next.SatisfiesMinimums() || !next.ContainedIn(f.viewport) {
			return false
		}
	}
	f.geoms[id] = next
	f.desired[id] = next
	return true
}

// Resize adapts every floating pane to a new viewport size: panes whose
// desired geometry still fits are restored exactly; panes that no longer
// fit are shrunk and shifted back inside the new bounds (spec.md §4.5).
func (f *FloatingPaneGrid) Resize(v geom.Viewport) {
	f.viewport = v
	for id, desired := range f.desired {
		if desired.ContainedIn(v) {
			f.geoms[id] = desired
			continue
		}
		g := desired
		if g.Cols.AsUsize() > v.Cols {
			g.Cols = geom.Fixed(v.Cols)
		}
		if g.Rows.AsUsize() > v.Rows {
			g.Rows = geom.Fixed(v.Rows)
		}
		g.X = clampInt(g.X, v.X, v.X+v.Cols-g.Cols.AsUsize())
		g.Y = clampInt(g.Y, v.Y, v.Y+v.Rows-g.Rows.AsUsize())
		f.geoms[id] = g
	}
}

// NextSelectablePaneId finds the floating pane whose center is closest to
// id's center in dir, comparing first by the perpendicular axis distance
// and then by the along-axis distance, the two-key comparator spec.md
// §4.5 describes for floating directional focus movement.
func (f *FloatingPaneGrid) NextSelectablePaneId(id paneid.PaneId, dir panegrid.Direction) (paneid.PaneId, bool) {
	from, ok := f.geoms[id]
	if !ok {
		return paneid.PaneId{}, false
	}
	fcx, fcy := center(from)
	var best paneid.PaneId
	var bestPerp, bestAlong int
	found := false
	for pid, g := range f.geoms {
		if pid == id {
			continue
		}
		cx, cy := center(g)
		var perp, along int
		switch dir {
		case panegrid.DirLeft:
			if cx >= fcx {
				continue
			}
			along, perp = fcx-cx, absInt(cy-fcy)
		case panegrid.DirRight:
			if cx <= fcx {
				continue
			}
			along, perp = cx-fcx, absInt(cy-fcy)
		case panegrid.DirUp:
			if cy >= fcy {
				continue
			}
			along, perp = fcy-cy, absInt(cx-fcx)
		case panegrid.DirDown:
			if cy <= fcy {
				continue
			}
			along, perp = cy-fcy, absInt(cx-fcx)
		}
		if !found || perp < bestPerp || (perp == bestPerp && along < bestAlong) {
			best, bestPerp, bestAlong, found = pid, perp, along, true
		}
	}
	return best, found
}

func center(g geom.PaneGeom) (int, int) {
	return g.X + g.Cols.AsUsize()/2, g.Y + g.Rows.AsUsize()/2
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
