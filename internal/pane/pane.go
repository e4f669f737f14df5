// Package pane implements the two Pane kinds a Tab arranges: TerminalPane,
// which owns a PTY and a Grid, and PluginPane, which owns a Grid driven by
// a plugin's rendered output instead of a child process (spec.md §4.9).
package pane

import (
	"fmt"

	"h2/internal/geom"
	"h2/internal/grid"
	"h2/internal/linkhandler"
	"h2/internal/osapi"
	"h2/internal/paneid"
	"h2/internal/sixel"
	"h2/internal/vtparser"
)

// Pane is the uniform surface PaneGrid, FloatingPaneGrid, and Tab drive;
// TerminalPane and PluginPane implement it (spec.md §4.9).
type Pane interface {
	ID() paneid.PaneId
	Geom() geom.PaneGeom
	SetGeom(g geom.PaneGeom)
	Grid() *grid.Grid
	Render(rows, cols int)
	HandleInput(data []byte) error
	Feed(data []byte)
	Close()
}

// TerminalPane owns a PTY (via ServerOsApi), its Grid, and the VT decoder
// feeding it, grounded on javanhut-RavenTerminal/tab/tab.go's ownership
// shape (Terminal + pty + read loop bundled into one struct) generalized
// to the ServerOsApi collaborator boundary.
type TerminalPane struct {
	id     paneid.PaneId
	geom   geom.PaneGeom
	fd     osapi.Fd
	os     osapi.ServerOsApi
	grid   *grid.Grid
	parser *vtparser.Parser
}

// NewTerminalPane spawns command under the OS API and returns a pane
// wrapping its PTY and a freshly constructed Grid at the pane's geometry.
func NewTerminalPane(id paneid.PaneId, g geom.PaneGeom, command string, args []string, api osapi.ServerOsApi, links *linkhandler.Handler, store *sixel.Store, colorCodes map[int]grid.Color) (*TerminalPane, error) {
	rows, cols := g.Bottom()-g.Y, g.Right()-g.X
	fd, err := api.SpawnTerminal(command, args, rows, cols)
	if err != nil {
		return nil, fmt.Errorf("new terminal pane: %w", err)
	}
	gr := grid.New(rows, cols, colorCodes, links, store)
	return &TerminalPane{
		id: id, geom: g, fd: fd, os: api,
		grid:   gr,
		parser: vtparser.New(gr),
	}, nil
}

func (p *TerminalPane) ID() paneid.PaneId      { return p.id }
func (p *TerminalPane) Geom() geom.PaneGeom    { return p.geom }
func (p *TerminalPane) SetGeom(g geom.PaneGeom) { p.geom = g }
func (p *TerminalPane) Grid() *grid.Grid       { return p.grid }

// Render resizes the pane's PTY and Grid together, keeping the emulator's
// notion of terminal size consistent with what the child process is told.
func (p *TerminalPane) Render(rows, cols int) {
	p.grid.Resize(rows, cols)
	_ = p.os.SetTerminalSize(p.fd, rows, cols)
}

// HandleInput writes a keystroke (or a pane Action's Write/WriteChars
// payload, spec.md §6.4) to the child process's PTY.
func (p *TerminalPane) HandleInput(data []byte) error {
	return p.os.WriteToTty(p.fd, data)
}

// PumpOutput reads one chunk of PTY output and returns it unparsed;
// callers (muxserver.PumpPane's per-pane read goroutine) queue it for the screen thread,
// which calls Feed to run it through the VT decoder (spec.md §5's
// producer/consumer split between PTY read loops and the single screen
// thread that owns every Grid).
func (p *TerminalPane) PumpOutput(buf []byte) (int, error) {
	return p.os.ReadFromTty(p.fd, buf)
}

// Feed runs raw PTY output bytes through the VT decoder into the Grid.
// Only the screen thread may call this, since Grid mutation is not safe
// to interleave across panes' read goroutines.
func (p *TerminalPane) Feed(data []byte) { p.parser.Feed(data) }

// Close kills the child process and releases its PTY.
func (p *TerminalPane) Close() {
	_ = p.os.KillTerminal(p.fd)
}

// PluginPane owns a Grid whose content arrives as rendered bytes from a
// plugin instance rather than a child process; plugins are out of scope
// for byte-level implementation (spec.md §1 Non-goals), so the pane simply
// exposes a decoder sink for whatever rendering a plugin instance pushes.
type PluginPane struct {
	id     paneid.PaneId
	geom   geom.PaneGeom
	grid   *grid.Grid
	parser *vtparser.Parser
}

// NewPluginPane constructs a pane backed by a Grid with no attached PTY.
func NewPluginPane(id paneid.PaneId, g geom.PaneGeom, links *linkhandler.Handler, store *sixel.Store, colorCodes map[int]grid.Color) *PluginPane {
	rows, cols := g.Bottom()-g.Y, g.Right()-g.X
	gr := grid.New(rows, cols, colorCodes, links, store)
	return &PluginPane{id: id, geom: g, grid: gr, parser: vtparser.New(gr)}
}

func (p *PluginPane) ID() paneid.PaneId      { return p.id }
func (p *PluginPane) Geom() geom.PaneGeom    { return p.geom }
func (p *PluginPane) SetGeom(g geom.PaneGeom) { p.geom = g }
func (p *PluginPane) Grid() *grid.Grid       { return p.grid }

func (p *PluginPane) Render(rows, cols int) { p.grid.Resize(rows, cols) }

// HandleInput is a no-op for plugins rendered out-of-process; plugin input
// dispatch goes through PluginInstruction (spec.md §6.3), not the pane's
// PTY write path.
func (p *PluginPane) HandleInput(data []byte) error { return nil }

// Feed pushes a plugin's rendered output bytes through the VT decoder.
func (p *PluginPane) Feed(data []byte) { p.parser.Feed(data) }

func (p *PluginPane) Close() {}
