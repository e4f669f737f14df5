package tab

import (
	"bytes"
	"fmt"
	"testing"

	"h2/internal/action"
	"h2/internal/geom"
	"h2/internal/grid"
	"h2/internal/osapi"
	"h2/internal/pane"
	"h2/internal/paneid"
)

type fakeOsApi struct{ next osapi.Fd }

func (f *fakeOsApi) SpawnTerminal(command string, args []string, rows, cols int) (osapi.Fd, error) {
	f.next++
	return f.next, nil
}
func (f *fakeOsApi) ReadFromTty(fd osapi.Fd, buf []byte) (int, error)  { return 0, nil }
func (f *fakeOsApi) WriteToTty(fd osapi.Fd, buf []byte) error          { return nil }
func (f *fakeOsApi) SetTerminalSize(fd osapi.Fd, rows, cols int) error { return nil }
func (f *fakeOsApi) KillTerminal(fd osapi.Fd) error                    { return nil }

func newTestTab() *Tab {
	return New(0, geom.Viewport{Cols: 80, Rows: 24}, &fakeOsApi{})
}

func TestNewPaneFirstPaneFillsViewport(t *testing.T) {
	tb := newTestTab()
	id := paneid.Terminal(1)
	if err := tb.NewPane(id, "/bin/sh", nil); err != nil {
		t.Fatalf("NewPane: %v", err)
	}
	g, ok := tb.tiled.Geom(id)
	if !ok {
		t.Fatalf("expected geom for %v", id)
	}
	if g.X != 0 || g.Y != 0 {
		t.Fatalf("first pane geom = %+v, want origin", g)
	}
}

func TestNewPaneSplitsExistingPane(t *testing.T) {
	tb := newTestTab()
	a := paneid.Terminal(1)
	b := paneid.Terminal(2)
	if err := tb.NewPane(a, "/bin/sh", nil); err != nil {
		t.Fatalf("NewPane a: %v", err)
	}
	if err := tb.NewPane(b, "/bin/sh", nil); err != nil {
		t.Fatalf("NewPane b: %v", err)
	}
	if len(tb.panes) != 2 {
		t.Fatalf("len(panes) = %d, want 2", len(tb.panes))
	}
	ga, _ := tb.tiled.Geom(a)
	gb, _ := tb.tiled.Geom(b)
	if ga.Overlaps(gb) {
		t.Fatalf("split panes overlap: %+v, %+v", ga, gb)
	}
}

func TestClosePaneReclaimsSpace(t *testing.T) {
	tb := newTestTab()
	a := paneid.Terminal(1)
	b := paneid.Terminal(2)
	_ = tb.NewPane(a, "/bin/sh", nil)
	_ = tb.NewPane(b, "/bin/sh", nil)

	tb.ClosePane(b)
	if _, ok := tb.panes[b]; ok {
		t.Fatalf("pane %v still present after close", b)
	}
	ga, ok := tb.tiled.Geom(a)
	if !ok {
		t.Fatalf("remaining pane has no geom")
	}
	if ga.Cols.Percent != 100 {
		t.Fatalf("remaining pane Cols.Percent = %v, want 100", ga.Cols.Percent)
	}
}

func TestHandlePtyBytesFeedsImmediatelyWhenLive(t *testing.T) {
	tb := newTestTab()
	id := paneid.Terminal(1)
	_ = tb.NewPane(id, "/bin/sh", nil)
	p, _ := tb.Pane(id)

	tb.HandlePtyBytes(id, []byte("hi"))

	tb.mu.Lock()
	_, buffered := tb.pendingVte[id]
	tb.mu.Unlock()
	if buffered {
		t.Fatalf("expected immediate feed when pane is not scrolled back")
	}
	if got := p.Grid().Row(0).Cells[0].Character; got != 'h' {
		t.Fatalf("Row(0)[0] = %q, want 'h'", got)
	}
}

func scrolledBackPane(t *testing.T, tb *Tab, id paneid.PaneId) (pane.Pane, *grid.Grid) {
	t.Helper()
	if err := tb.NewPane(id, "/bin/sh", nil); err != nil {
		t.Fatalf("NewPane: %v", err)
	}
	p, _ := tb.Pane(id)
	for i := 0; i < 40; i++ {
		p.Feed([]byte(fmt.Sprintf("line %d\r\n", i)))
	}
	gr := p.Grid()
	gr.ScrollUp(5)
	if !gr.Scrolled() {
		t.Fatalf("expected pane to be scrolled back after ScrollUp")
	}
	return p, gr
}

func TestHandlePtyBytesBuffersWhileScrolledThenFlushesAtCap(t *testing.T) {
	tb := newTestTab()
	id := paneid.Terminal(1)
	_, gr := scrolledBackPane(t, tb, id)

	for i := 0; i < MaxPendingVteEvents-1; i++ {
		tb.HandlePtyBytes(id, []byte("x"))
	}
	tb.mu.Lock()
	n := len(tb.pendingVte[id])
	tb.mu.Unlock()
	if n != MaxPendingVteEvents-1 {
		t.Fatalf("buffered = %d, want %d", n, MaxPendingVteEvents-1)
	}
	if !gr.Scrolled() {
		t.Fatalf("pane should still be scrolled before the cap is hit")
	}

	tb.HandlePtyBytes(id, []byte("y")) // crosses the cap

	tb.mu.Lock()
	_, stillBuffered := tb.pendingVte[id]
	tb.mu.Unlock()
	if stillBuffered {
		t.Fatalf("expected buffer to be cleared once the cap forced a flush")
	}
	if gr.Scrolled() {
		t.Fatalf("expected the cap to clear scrollback and return the pane to live")
	}
}

func TestDrainPtyBytesFlushesPaneOnceNoLongerScrolled(t *testing.T) {
	tb := newTestTab()
	id := paneid.Terminal(1)
	_, gr := scrolledBackPane(t, tb, id)

	tb.HandlePtyBytes(id, []byte("buffered"))
	tb.mu.Lock()
	n := len(tb.pendingVte[id])
	tb.mu.Unlock()
	if n != 1 {
		t.Fatalf("buffered len = %d, want 1", n)
	}

	gr.ClearScroll()
	tb.DrainPtyBytes()

	tb.mu.Lock()
	_, stillBuffered := tb.pendingVte[id]
	tb.mu.Unlock()
	if stillBuffered {
		t.Fatalf("expected DrainPtyBytes to flush once the pane returned to live")
	}
}

func TestMouseSelectionEmitsOSC52OnRelease(t *testing.T) {
	tb := newTestTab()
	id := paneid.Terminal(1)
	_ = tb.NewPane(id, "/bin/sh", nil)
	p, _ := tb.Pane(id)
	p.Feed([]byte("hello world\r\n"))

	tb.HandleLeftClick(1, 0, 0)
	tb.HandleMouseHold(1, 4, 0)
	out := tb.HandleMouseRelease(1)
	if out == nil {
		t.Fatalf("HandleMouseRelease returned nil, want an OSC52 sequence")
	}
	if !bytes.HasPrefix(out, []byte("\x1b]52;c;")) {
		t.Fatalf("HandleMouseRelease output = %q, want OSC52 prefix", out)
	}
}

func TestMouseReleaseWithoutClickIsNoop(t *testing.T) {
	tb := newTestTab()
	if out := tb.HandleMouseRelease(1); out != nil {
		t.Fatalf("HandleMouseRelease without a prior click = %q, want nil", out)
	}
}

func TestResizeIncreaseDispatchesToTiledPane(t *testing.T) {
	tb := newTestTab()
	a := paneid.Terminal(1)
	b := paneid.Terminal(2)
	_ = tb.NewPane(a, "/bin/sh", nil)
	_ = tb.NewPane(b, "/bin/sh", nil)
	tb.SetFocus(1, a)

	before, _ := tb.tiled.Geom(a)
	if !tb.ResizeIncrease(1) {
		t.Fatalf("ResizeIncrease = false, want true")
	}
	after, _ := tb.tiled.Geom(a)
	if after.Cols.Percent == before.Cols.Percent && after.Rows.Percent == before.Rows.Percent {
		t.Fatalf("ResizeIncrease left focused pane's geom unchanged: %+v", after)
	}
}

func TestResizeDecreaseDispatchesToFloatingPane(t *testing.T) {
	tb := newTestTab()
	a := paneid.Terminal(1)
	_ = tb.NewPane(a, "/bin/sh", nil)
	tb.TogglePaneEmbedOrFloating(a)
	tb.SetFocus(1, a)

	before, ok := tb.floating.Geom(a)
	if !ok {
		t.Fatalf("expected %v to be floating after TogglePaneEmbedOrFloating", a)
	}
	if !tb.ResizeDecrease(1) {
		t.Fatalf("ResizeDecrease = false, want true")
	}
	after, _ := tb.floating.Geom(a)
	if after.Cols == before.Cols && after.Rows == before.Rows {
		t.Fatalf("ResizeDecrease left floating pane's geom unchanged: %+v", after)
	}
}

func TestMoveFocusRightFollowsLayout(t *testing.T) {
	tb := newTestTab()
	a := paneid.Terminal(1)
	b := paneid.Terminal(2)
	_ = tb.NewPane(a, "/bin/sh", nil)
	_ = tb.NewPane(b, "/bin/sh", nil)
	tb.SetFocus(1, a)

	if !tb.MoveFocusRight(1) {
		t.Fatalf("MoveFocusRight = false, want true")
	}
	p, ok := tb.FocusedPane(1)
	if !ok {
		t.Fatalf("no focused pane after MoveFocusRight")
	}
	if p.ID() != b {
		t.Fatalf("focused pane = %v, want %v", p.ID(), b)
	}
}

func TestHandleActionNewPaneSpawnsViaTab(t *testing.T) {
	tb := newTestTab()
	id := paneid.Terminal(1)
	if err := tb.HandleAction(1, action.NewPane(), id, "/bin/sh", nil); err != nil {
		t.Fatalf("HandleAction(NewPane): %v", err)
	}
	if _, ok := tb.Pane(id); !ok {
		t.Fatalf("expected pane %v to exist after HandleAction(NewPane)", id)
	}
}

func TestHandleActionCloseFocusClosesFocusedPane(t *testing.T) {
	tb := newTestTab()
	id := paneid.Terminal(1)
	_ = tb.NewPane(id, "/bin/sh", nil)
	tb.SetFocus(1, id)

	if err := tb.HandleAction(1, action.CloseFocus(), paneid.PaneId{}, "", nil); err != nil {
		t.Fatalf("HandleAction(CloseFocus): %v", err)
	}
	if _, ok := tb.Pane(id); ok {
		t.Fatalf("pane %v still present after HandleAction(CloseFocus)", id)
	}
}
