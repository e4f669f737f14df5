package grid

import (
	"testing"

	"h2/internal/linkhandler"
	"h2/internal/sixel"
)

func newTestGrid(rows, cols int) *Grid {
	return New(rows, cols, nil, linkhandler.New(), sixel.NewStore())
}

func feed(g *Grid, s string) {
	for _, r := range s {
		g.Input(r)
	}
}

func TestInputPrintsAtCursor(t *testing.T) {
	g := newTestGrid(5, 10)
	feed(g, "hi")
	row := g.Row(0)
	if row.Cells[0].Character != 'h' || row.Cells[1].Character != 'i' {
		t.Fatalf("unexpected row: %+v", row.Cells[:2])
	}
	x, y := g.CursorPosition()
	if x != 2 || y != 0 {
		t.Fatalf("expected cursor (2,0), got (%d,%d)", x, y)
	}
}

func TestInputWrapsAtLastColumn(t *testing.T) {
	g := newTestGrid(3, 4)
	feed(g, "abcd")
	x, y := g.CursorPosition()
	if x != 3 || y != 0 {
		t.Fatalf("expected pending-wrap cursor (3,0), got (%d,%d)", x, y)
	}
	feed(g, "e")
	row0 := g.Row(0)
	row1 := g.Row(1)
	if string(row0.Cells[0].Character)+string(row0.Cells[1].Character)+string(row0.Cells[2].Character)+string(row0.Cells[3].Character) != "abcd" {
		t.Fatalf("row0 corrupted: %+v", row0.Cells)
	}
	if !row1.IsWrapped {
		t.Fatal("expected row1 marked wrapped (continuation of row0)")
	}
	if row1.Cells[0].Character != 'e' {
		t.Fatalf("expected 'e' wrapped onto row1, got %q", row1.Cells[0].Character)
	}
}

func TestLineFeedScrollsIntoScrollback(t *testing.T) {
	g := newTestGrid(2, 5)
	feed(g, "one")
	g.LineFeed()
	feed(g, "two")
	g.LineFeed()
	_, length := g.ScrollbackPositionAndLength()
	if length != 1 {
		t.Fatalf("expected 1 scrollback line, got %d", length)
	}
}

func TestScrollUpEntersScrollbackAndClampsAtTop(t *testing.T) {
	g := newTestGrid(2, 5)
	for i := 0; i < 5; i++ {
		feed(g, "x")
		g.LineFeed()
	}
	if g.Scrolled() {
		t.Fatal("expected live viewport before any ScrollUp")
	}
	g.ScrollUp(2)
	if !g.Scrolled() {
		t.Fatal("expected Scrolled() after ScrollUp")
	}
	offset, length := g.ScrollbackPositionAndLength()
	if offset != 2 || length != 4 {
		t.Fatalf("ScrollbackPositionAndLength() = (%d, %d), want (2, 4)", offset, length)
	}
	g.ScrollUp(100)
	offset, _ = g.ScrollbackPositionAndLength()
	if offset != length {
		t.Fatalf("ScrollUp past history = %d, want clamp at %d", offset, length)
	}
}

func TestScrollDownReturnsToLiveAtZero(t *testing.T) {
	g := newTestGrid(2, 5)
	for i := 0; i < 5; i++ {
		feed(g, "x")
		g.LineFeed()
	}
	g.ScrollUp(3)
	g.ScrollDown(100)
	if g.Scrolled() {
		t.Fatal("expected ScrollDown past 0 to clamp to live")
	}
}

func TestClearScrollReturnsToLive(t *testing.T) {
	g := newTestGrid(2, 5)
	for i := 0; i < 5; i++ {
		feed(g, "x")
		g.LineFeed()
	}
	g.ScrollUp(2)
	g.ClearScroll()
	if g.Scrolled() {
		t.Fatal("expected ClearScroll to return the pane to live")
	}
}

func TestScrolledRowShowsScrollbackContent(t *testing.T) {
	g := newTestGrid(2, 5)
	feed(g, "a")
	g.LineFeed()
	feed(g, "b")
	g.LineFeed()
	feed(g, "c")
	g.LineFeed()
	g.ScrollUp(2)
	if got := g.Row(0).Cells[0].Character; got != 'a' {
		t.Fatalf("Row(0) while scrolled = %q, want 'a'", got)
	}
}

func TestResizeClearsScroll(t *testing.T) {
	g := newTestGrid(2, 5)
	for i := 0; i < 5; i++ {
		feed(g, "x")
		g.LineFeed()
	}
	g.ScrollUp(2)
	g.Resize(3, 5)
	if g.Scrolled() {
		t.Fatal("expected Resize to clear scroll")
	}
}

func TestAltScreenHasNoScrollback(t *testing.T) {
	g := newTestGrid(2, 5)
	g.EnterAltScreen()
	feed(g, "x")
	g.LineFeed()
	g.LineFeed()
	_, length := g.ScrollbackPositionAndLength()
	if length != 0 {
		t.Fatalf("expected no scrollback on alt screen, got %d", length)
	}
	g.LeaveAltScreen()
	if g.IsAlternateScreen() {
		t.Fatal("expected primary screen after LeaveAltScreen")
	}
}

func TestResizeRewrapsLongLine(t *testing.T) {
	g := newTestGrid(3, 10)
	feed(g, "abcdefghij") // exactly fills the first row, triggers pendingWrap
	feed(g, "klm")
	g.Resize(3, 5)
	if g.Cols() != 5 {
		t.Fatalf("expected cols=5, got %d", g.Cols())
	}
	var all []rune
	for y := 0; y < 3; y++ {
		for _, c := range g.Row(y).Cells {
			if c.Width != 0 {
				all = append(all, c.Character)
			}
		}
	}
	got := string(all)
	if len(got) < 10 || got[:10] != "abcdefghij" {
		t.Fatalf("expected rewrapped content to preserve prefix, got %q", got)
	}
}

func TestHyperlinkAnchorAttachesToNextCharacter(t *testing.T) {
	g := newTestGrid(2, 10)
	g.links.DispatchOSC8([]byte("id=x"), []byte("https://example.com"))
	feed(g, "a")
	row := g.Row(0)
	if row.Cells[0].Styles.LinkAnchor == nil {
		t.Fatal("expected link anchor on printed character")
	}
	g.links.DispatchOSC8(nil, nil)
	feed(g, "b")
	row = g.Row(0)
	if row.Cells[1].Styles.LinkAnchor == nil {
		t.Fatal("expected end anchor on character following OSC8 close")
	}
}

func TestSelectedTextSingleLine(t *testing.T) {
	g := newTestGrid(2, 10)
	feed(g, "hello")
	g.SetSelection(Selection{StartX: 0, StartY: 0, EndX: 4, EndY: 0})
	if got := g.SelectedText(); got != "hello" {
		t.Fatalf("expected %q, got %q", "hello", got)
	}
}

func TestSGRDiffMinimal(t *testing.T) {
	prev := CharacterStyles{}
	next := CharacterStyles{Bold: true, Fg: RGBColor(1, 2, 3)}
	params, linkChanged := sgrDiff(prev, next)
	if linkChanged {
		t.Fatal("expected no link change")
	}
	if len(params) == 0 {
		t.Fatal("expected non-empty SGR diff")
	}
	params2, _ := sgrDiff(next, next)
	if len(params2) != 0 {
		t.Fatalf("expected empty diff for identical styles, got %v", params2)
	}
}

func TestEraseCharsClearsWithoutShifting(t *testing.T) {
	g := newTestGrid(2, 10)
	feed(g, "abcdef")
	g.Goto(0, 1)
	g.EraseChars(2)
	row := g.Row(0)
	if row.Cells[1].Character != ' ' || row.Cells[2].Character != ' ' {
		t.Fatalf("expected cells 1,2 erased: %+v", row.Cells[:4])
	}
	if row.Cells[3].Character != 'd' {
		t.Fatalf("expected no shift, cell 3 still 'd', got %q", row.Cells[3].Character)
	}
}
