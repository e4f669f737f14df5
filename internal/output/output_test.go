package output

import (
	"bytes"
	"testing"

	"github.com/muesli/termenv"

	"h2/internal/geom"
	"h2/internal/grid"
	"h2/internal/osapi"
	"h2/internal/paneid"
	"h2/internal/tab"
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

func TestRenderIncludesCursorHideAndShow(t *testing.T) {
	tb := tab.New(0, geom.Viewport{Cols: 20, Rows: 10}, &fakeOsApi{})
	id := paneid.Terminal(1)
	if err := tb.NewPane(id, "/bin/sh", nil); err != nil {
		t.Fatalf("NewPane: %v", err)
	}
	tb.SetFocus(1, id)

	c := New(termenv.TrueColor)
	out := c.Render(tb, 1)
	if !bytes.Contains(out, []byte("\033[?25l")) {
		t.Fatalf("output missing cursor-hide sequence: %q", out)
	}
	if !bytes.Contains(out, []byte("\033[?25h")) {
		t.Fatalf("output missing cursor-show sequence: %q", out)
	}
}

func TestRenderEmitsRealHyperlinkURI(t *testing.T) {
	tb := tab.New(0, geom.Viewport{Cols: 20, Rows: 10}, &fakeOsApi{})
	id := paneid.Terminal(1)
	if err := tb.NewPane(id, "/bin/sh", nil); err != nil {
		t.Fatalf("NewPane: %v", err)
	}
	tb.SetFocus(1, id)

	p, _ := tb.Pane(id)
	p.Feed([]byte("\x1b]8;;https://example.com/path\x1b\\linked\x1b]8;;\x1b\\"))

	c := New(termenv.TrueColor)
	out := c.Render(tb, 1)
	if !bytes.Contains(out, []byte("https://example.com/path")) {
		t.Fatalf("output missing real hyperlink URI: %q", out)
	}
}

func TestDowngradeLeavesTrueColorUntouched(t *testing.T) {
	c := grid.RGBColor(10, 20, 30)
	got := downgradeColor(termenv.TrueColor, c)
	if got != c {
		t.Fatalf("downgradeColor(TrueColor) = %+v, want unchanged %+v", got, c)
	}
}

func TestDowngradeMapsRGBToANSIUnderANSIProfile(t *testing.T) {
	c := grid.RGBColor(255, 0, 0)
	got := downgradeColor(termenv.ANSI, c)
	if got.Kind != grid.ColorNamed && got.Kind != grid.ColorIndexed {
		t.Fatalf("downgradeColor(ANSI) = %+v, want Named or Indexed", got)
	}
}
