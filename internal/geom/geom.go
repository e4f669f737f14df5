// Package geom implements the percent/fixed pane dimension model shared by
// the tiled and floating pane resizers.
package geom

const (
	// MinTerminalWidth is the minimum number of columns a pane may be
	// resized to outside of an in-progress resize operation.
	MinTerminalWidth = 5
	// MinTerminalHeight is the minimum number of rows a pane may be
	// resized to outside of an in-progress resize operation.
	MinTerminalHeight = 5
)

// DimKind discriminates a Dimension's two representations.
type DimKind uint8

const (
	// DimPercent is a fraction of the parent's available space.
	DimPercent DimKind = iota
	// DimFixed is a cell count pinned regardless of parent resizes.
	DimFixed
)

// Dimension is either a Percent(f64) or a Fixed(usize), resolved to a cell
// count by the resizer once the parent space is known.
type Dimension struct {
	Kind    DimKind
	Percent float64
	Fixed   int
	// resolved holds the cell count computed by the last layout() pass.
	resolved int
}

// Percent builds a percent-based Dimension.
func Percent(pct float64) Dimension { return Dimension{Kind: DimPercent, Percent: pct} }

// Fixed builds a fixed-cell-count Dimension.
func Fixed(cells int) Dimension { return Dimension{Kind: DimFixed, Fixed: cells, resolved: cells} }

// IsFixed reports whether this dimension is pinned to a cell count.
func (d Dimension) IsFixed() bool { return d.Kind == DimFixed }

// IsPercent reports whether this dimension is a fraction of parent space.
func (d Dimension) IsPercent() bool { return d.Kind == DimPercent }

// AsUsize returns the resolved cell count. For Fixed dimensions this is the
// pinned value; for Percent dimensions it is whatever the last call to
// SetResolved computed.
func (d Dimension) AsUsize() int {
	if d.Kind == DimFixed {
		return d.Fixed
	}
	return d.resolved
}

// SetResolved records the cell count the resizer computed for a Percent
// dimension. A no-op on Fixed dimensions, which are always self-resolved.
func (d *Dimension) SetResolved(cells int) {
	if d.Kind == DimFixed {
		return
	}
	d.resolved = cells
}

// Viewport is a rectangle of screen cells available for panes.
type Viewport struct {
	X, Y, Cols, Rows int
}

// PaneGeom is a pane's position and size in the tiling partition or, for
// floating panes, in free space.
type PaneGeom struct {
	X, Y int
	Cols Dimension
	Rows Dimension
}

// Right returns the column just past this geom's right edge.
func (g PaneGeom) Right() int { return g.X + g.Cols.AsUsize() }

// Bottom returns the row just past this geom's bottom edge.
func (g PaneGeom) Bottom() int { return g.Y + g.Rows.AsUsize() }

// Contains reports whether (x, y) falls inside this geom.
func (g PaneGeom) Contains(x, y int) bool {
	return x >= g.X && x < g.Right() && y >= g.Y && y < g.Bottom()
}

// ContainedIn reports whether g is fully inside the given viewport, the
// invariant floating-pane geoms must satisfy (spec.md §3.3).
func (g PaneGeom) ContainedIn(v Viewport) bool {
	return g.X >= v.X && g.Y >= v.Y && g.Right() <= v.X+v.Cols && g.Bottom() <= v.Y+v.Rows
}

// Overlaps reports whether two geoms share any cell.
func (g PaneGeom) Overlaps(other PaneGeom) bool {
	if g.Right() <= other.X || other.Right() <= g.X {
		return false
	}
	if g.Bottom() <= other.Y || other.Bottom() <= g.Y {
		return false
	}
	return true
}

// SatisfiesMinimums reports whether g meets the MinTerminalWidth/Height
// floor required outside of an in-progress resize.
func (g PaneGeom) SatisfiesMinimums() bool {
	return g.Cols.AsUsize() >= MinTerminalWidth && g.Rows.AsUsize() >= MinTerminalHeight
}
