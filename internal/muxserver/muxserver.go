// Package muxserver implements a minimal single-threaded scheduler: one
// goroutine owns every Tab and drains a single buffered channel carrying
// PTY output, client input, resize, and render requests to completion
// before the next receive, the "single multi-producer queue" spec.md §5
// describes (the outer process supervisor and IPC transport that would
// normally feed this channel are out of scope per spec.md §1, so
// Server exists only to let cmd/muxcore drive the whole stack end to
// end). Grounded on dcosson-h2/internal/overlay/overlay.go's Run
// goroutine layout: a resize-signal watcher, a PTY-output pump, and an
// input reader feeding one owning loop.
package muxserver

import (
	"h2/internal/action"
	"h2/internal/geom"
	"h2/internal/output"
	"h2/internal/pane"
	"h2/internal/paneid"
	"h2/internal/tab"
)

// MsgKind discriminates the four message shapes the screen thread accepts.
type MsgKind uint8

const (
	MsgPtyBytes MsgKind = iota
	MsgInput
	MsgResize
	MsgRender
)

// Msg is the single envelope type every producer posts to Server's
// channel; only the fields relevant to Kind are populated.
type Msg struct {
	Kind   MsgKind
	Client tab.ClientId
	PaneID paneid.PaneId
	Data   []byte             // MsgPtyBytes, MsgInput
	Action action.Action      // MsgInput resolved through a KeyBinding
	Size   geom.Viewport      // MsgResize
	Reply  chan []byte        // MsgRender: rendered bytes sent back here
}

// Server owns one Tab and the goroutine that serializes every mutation to
// it; spec.md §5 calls this the "screen thread".
type Server struct {
	tab  *tab.Tab
	comp *output.Compositor
	ch   chan Msg

	done chan struct{}
}

// New constructs a Server around an already-built Tab and Compositor,
// with a channel buffer deep enough to absorb a burst of PTY output
// across every pane without blocking their read goroutines.
func New(t *tab.Tab, comp *output.Compositor) *Server {
	return &Server{
		tab:  t,
		comp: comp,
		ch:   make(chan Msg, 256),
		done: make(chan struct{}),
	}
}

// Post enqueues a message for the screen thread; it never blocks the
// caller past the channel's buffer, matching the "PTY reader goroutines
// post PtyBytesMsg" producer role spec.md §5 assigns them.
func (s *Server) Post(m Msg) {
	select {
	case s.ch <- m:
	case <-s.done:
	}
}

// Run is the screen thread's main loop: receive one message, process it
// to completion, repeat. It returns when Stop is called.
func (s *Server) Run() {
	for {
		select {
		case m := <-s.ch:
			s.handle(m)
		case <-s.done:
			return
		}
	}
}

// Stop terminates Run's loop.
func (s *Server) Stop() {
	close(s.done)
}

func (s *Server) handle(m Msg) {
	switch m.Kind {
	case MsgPtyBytes:
		s.tab.HandlePtyBytes(m.PaneID, m.Data)
		s.tab.DrainPtyBytes()
	case MsgInput:
		_ = s.tab.HandleAction(m.Client, m.Action, m.PaneID, "", nil)
	case MsgResize:
		s.tab.Resize(m.Size)
	case MsgRender:
		out := s.comp.Render(s.tab, m.Client)
		if m.Reply != nil {
			m.Reply <- out
		}
	}
}

// PumpPane runs as one goroutine per pane: it repeatedly calls
// TerminalPane.PumpOutput and posts whatever it reads as a MsgPtyBytes,
// exiting once the PTY read returns an error (child exit).
func PumpPane(s *Server, id paneid.PaneId, p *pane.TerminalPane) {
	buf := make([]byte, 4096)
	for {
		n, err := p.PumpOutput(buf)
		if n > 0 {
			cp := make([]byte, n)
			copy(cp, buf[:n])
			s.Post(Msg{Kind: MsgPtyBytes, PaneID: id, Data: cp})
		}
		if err != nil {
			return
		}
	}
}
