package layout

import (
	"os"
	"path/filepath"
	"testing"

	"h2/internal/geom"
	"h2/internal/osapi"
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

const sampleLayout = `
direction: vertical
children:
  - run:
      command: /bin/sh
      args: ["-c", "echo left"]
  - run:
      command: /bin/sh
      args: ["-c", "echo right"]
`

func TestLoadParsesSplitTree(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "layout.yaml")
	if err := os.WriteFile(path, []byte(sampleLayout), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	l, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if l.Direction != "vertical" {
		t.Fatalf("Direction = %q, want vertical", l.Direction)
	}
	if len(l.Children) != 2 {
		t.Fatalf("len(Children) = %d, want 2", len(l.Children))
	}
	if l.Children[0].Run == nil || l.Children[0].Run.Command != "/bin/sh" {
		t.Fatalf("Children[0].Run = %+v, want command /bin/sh", l.Children[0].Run)
	}
}

func TestApplyLayoutSpawnsEveryLeaf(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "layout.yaml")
	if err := os.WriteFile(path, []byte(sampleLayout), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	l, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	tb := tab.New(0, geom.Viewport{Cols: 80, Rows: 24}, &fakeOsApi{})
	if err := ApplyLayout(tb, 1, l); err != nil {
		t.Fatalf("ApplyLayout: %v", err)
	}
	if got := len(tb.TiledGeoms()); got != 2 {
		t.Fatalf("ApplyLayout spawned %d tiled panes, want 2", got)
	}
}
