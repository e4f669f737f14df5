// Package output implements the render-pass compositor: it walks a Tab's
// tiled and floating panes, clips tiled content against the floating
// z-order via floatstack, and serializes the visible cells into one
// escape-sequence stream with a running minimal SGR/OSC8 diff (spec.md
// §4.8), grounded on dcosson-h2/internal/session/client/render.go's
// cursor-save/move/write/reset render loop and cursor.go's placement
// conventions.
package output

import (
	"bytes"
	"fmt"

	"github.com/muesli/termenv"

	"h2/internal/floatstack"
	"h2/internal/geom"
	"h2/internal/grid"
	"h2/internal/pane"
	"h2/internal/tab"
)

// Compositor renders one Tab's panes into a single output buffer, holding
// the running SGR state across chunks so only the minimal transitions are
// emitted (spec.md §4.8 step 7).
type Compositor struct {
	profile termenv.Profile
}

// New constructs a Compositor targeting the given terminal color profile,
// the same downgrade boundary dcosson-h2 applies via termenv elsewhere in
// its client rendering.
func New(profile termenv.Profile) *Compositor {
	return &Compositor{profile: profile}
}

// Render produces the full escape sequence stream for t as seen by
// client, following spec.md §4.8's eight-step pass: build the floating
// stack (empty while floating panes are hidden), hide the cursor, render
// each tiled pane's visible chunks, render floating panes on top in
// z-order, restore the cursor, and emit it all with a running SGR diff.
// The screen is not cleared first; only cells inside pane geometries are
// redrawn.
func (c *Compositor) Render(t *tab.Tab, client tab.ClientId) []byte {
	var buf bytes.Buffer
	buf.WriteString("\033[?25l") // hide cursor during redraw

	var rects []geom.PaneGeom
	if t.FloatingPanesVisible() {
		rects = t.FloatingRects()
	}
	stack := floatstack.New(rects)

	prev := grid.CharacterStyles{}
	for id, g := range t.TiledGeoms() {
		p, ok := t.Pane(id)
		if !ok {
			continue
		}
		c.renderPaneClipped(&buf, p, g, stack, &prev)
	}

	if t.FloatingPanesVisible() {
		for _, id := range t.FloatingZOrder() {
			p, ok := t.Pane(id)
			if !ok {
				continue
			}
			g := p.Geom()
			c.renderPaneFramed(&buf, p, g, &prev)
		}
	}

	buf.WriteString("\033[0m")
	if p, ok := t.FocusedPane(client); ok {
		c.placeCursor(&buf, p)
	}
	buf.WriteString("\033[?25h")
	return buf.Bytes()
}

// renderPaneClipped draws a tiled pane's rows, skipping any cell ranges a
// floating pane occludes.
func (c *Compositor) renderPaneClipped(buf *bytes.Buffer, p pane.Pane, g geom.PaneGeom, stack *floatstack.FloatingPanesStack, prev *grid.CharacterStyles) {
	gr := p.Grid()
	rows, cols := g.Rows.AsUsize(), g.Cols.AsUsize()
	for row := 0; row < rows; row++ {
		absY := g.Y + row
		chunks := stack.VisibleCharacterChunks(floatstack.CharacterChunk{X: g.X, Y: absY, Width: cols})
		line := gr.Row(row)
		for _, chunk := range chunks {
			localStart := chunk.X - g.X
			fmt.Fprintf(buf, "\033[%d;%dH", absY+1, chunk.X+1)
			writeCells(buf, c.profile, gr, line.Cells, localStart, chunk.Width, prev)
		}
	}
}

// renderPaneFramed draws a floating pane's rows unconditionally (it is
// always on top of the tiled layer), preceded by a '─' line on the row
// just above the pane. No line is drawn for a pane that starts at row 0,
// and the pane's sides and bottom get no border.
func (c *Compositor) renderPaneFramed(buf *bytes.Buffer, p pane.Pane, g geom.PaneGeom, prev *grid.CharacterStyles) {
	drawFrame(buf, g)
	gr := p.Grid()
	rows, cols := g.Rows.AsUsize(), g.Cols.AsUsize()
	for row := 0; row < rows; row++ {
		fmt.Fprintf(buf, "\033[%d;%dH", g.Y+row+1, g.X+1)
		line := gr.Row(row)
		writeCells(buf, c.profile, gr, line.Cells, 0, cols, prev)
	}
}

func drawFrame(buf *bytes.Buffer, g geom.PaneGeom) {
	if g.Y > 0 {
		fmt.Fprintf(buf, "\033[%d;%dH", g.Y, g.X+1)
		for i := 0; i < g.Cols.AsUsize(); i++ {
			buf.WriteRune('─')
		}
	}
}

// writeCells writes count cells of line starting at start, emitting SGR
// transitions and OSC8 hyperlink anchors only when they change from prev
// (spec.md §4.8 step 7; diff computed via grid.SGRDiff).
func writeCells(buf *bytes.Buffer, profile termenv.Profile, gr *grid.Grid, cells []grid.TerminalCharacter, start, count int, prev *grid.CharacterStyles) {
	end := start + count
	if end > len(cells) {
		end = len(cells)
	}
	for i := start; i < end; i++ {
		cell := cells[i]
		if cell.Width == 0 {
			continue // wide-char continuation slot, already drawn by its owner
		}
		styles := downgrade(profile, cell.Styles)
		params, linkChanged := grid.SGRDiff(*prev, styles)
		if len(params) > 0 {
			buf.WriteString("\033[")
			for j, pnum := range params {
				if j > 0 {
					buf.WriteByte(';')
				}
				fmt.Fprintf(buf, "%d", pnum)
			}
			buf.WriteByte('m')
		}
		if linkChanged {
			writeOSC8(buf, gr, styles)
		}
		buf.WriteRune(cell.Character)
		*prev = styles
	}
}

// downgrade maps a cell's truecolor/256-color attributes down to whatever
// the target terminal profile actually supports, the same boundary
// dcosson-h2 applies via termenv before writing to a real terminal.
func downgrade(profile termenv.Profile, styles grid.CharacterStyles) grid.CharacterStyles {
	styles.Fg = downgradeColor(profile, styles.Fg)
	styles.Bg = downgradeColor(profile, styles.Bg)
	return styles
}

func downgradeColor(profile termenv.Profile, c grid.Color) grid.Color {
	if profile == termenv.TrueColor || c.Kind != grid.ColorRGB {
		return c
	}
	hex := fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	converted := profile.Convert(termenv.RGBColor(hex))
	switch v := converted.(type) {
	case termenv.ANSIColor:
		return grid.NamedColor(uint8(v))
	case termenv.ANSI256Color:
		return grid.IndexedColor(uint8(v))
	default:
		return c
	}
}

// writeOSC8 emits the hyperlink transition for a style change: a bare
// close sequence when leaving a link (no anchor carries the close's URI,
// since OSC8 closes never have one), otherwise the pane's own link
// handler renders the real id/URI pair for the anchor in play.
func writeOSC8(buf *bytes.Buffer, gr *grid.Grid, styles grid.CharacterStyles) {
	if styles.LinkAnchor == nil {
		buf.WriteString("\033]8;;\033\\")
		return
	}
	buf.WriteString(gr.OutputOSC8(styles.LinkAnchor))
}

// placeCursor positions the terminal cursor at p's Grid cursor, translated
// into the pane's absolute screen offset (spec.md §4.8 step 6).
func (c *Compositor) placeCursor(buf *bytes.Buffer, p pane.Pane) {
	if p.Grid().CursorHidden() {
		return
	}
	x, y := p.Grid().CursorPosition()
	g := p.Geom()
	fmt.Fprintf(buf, "\033[%d;%dH", g.Y+y+1, g.X+x+1)
}
