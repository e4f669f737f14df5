// Package floatstack implements FloatingPanesStack: given the z-ordered
// floating panes covering a screen region, it clips a tiled pane's output
// chunks against whichever floating panes sit on top of it (spec.md
// §4.6), grounded on original_source/zellij-server/src/tab/mod.rs's
// render-time floating-pane occlusion pass.
package floatstack

import (
	"h2/internal/geom"
)

// CharacterChunk is one contiguous run of cells on a single row that the
// tiled-pane renderer wants to draw at (X, Y), Width cells wide.
type CharacterChunk struct {
	X, Y, Width int
}

// FloatingPanesStack is the z-ordered list of floating pane rectangles
// (back to front) active during one render pass.
type FloatingPanesStack struct {
	Rects []geom.PaneGeom // index 0 = bottommost, last = topmost
}

// New builds a stack from floating pane rectangles in back-to-front
// z-order.
func New(rects []geom.PaneGeom) *FloatingPanesStack {
	return &FloatingPanesStack{Rects: rects}
}

// VisibleCharacterChunks clips chunk against every floating pane rect in
// the stack (front-to-back, since a higher z-index fully wins the cells
// it covers) and returns the surviving sub-chunks of the original row
// segment that no floating pane occludes.
//
// Each rect-vs-chunk comparison is one of five cases: the rect fully
// covers the chunk (chunk disappears), covers only its left part, only
// its right part, splits it into a left and right remainder (rect sits
// in the middle), or doesn't intersect the chunk's row at all.
func (s *FloatingPanesStack) VisibleCharacterChunks(chunk CharacterChunk) []CharacterChunk {
	remaining := []CharacterChunk{chunk}
	for i := len(s.Rects) - 1; i >= 0; i-- {
		rect := s.Rects[i]
		var next []CharacterChunk
		for _, c := range remaining {
			next = append(next, clipAgainstRect(c, rect)...)
		}
		remaining = next
		if len(remaining) == 0 {
			break
		}
	}
	return remaining
}

func clipAgainstRect(c CharacterChunk, rect geom.PaneGeom) []CharacterChunk {
	if c.Y < rect.Y || c.Y >= rect.Bottom() {
		// rect doesn't occupy this row at all
		return []CharacterChunk{c}
	}
	chunkEnd := c.X + c.Width
	rectStart, rectEnd := rect.X, rect.Right()

	if rectStart <= c.X && rectEnd >= chunkEnd {
		// fully covered
		return nil
	}
	if rectEnd <= c.X || rectStart >= chunkEnd {
		// no horizontal overlap
		return []CharacterChunk{c}
	}
	var out []CharacterChunk
	if rectStart > c.X {
		// left remainder survives
		out = append(out, CharacterChunk{X: c.X, Y: c.Y, Width: rectStart - c.X})
	}
	if rectEnd < chunkEnd {
		// right remainder survives
		out = append(out, CharacterChunk{X: rectEnd, Y: c.Y, Width: chunkEnd - rectEnd})
	}
	return out
}
