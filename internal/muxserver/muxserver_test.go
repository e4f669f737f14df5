package muxserver

import (
	"testing"
	"time"

	"github.com/muesli/termenv"

	"h2/internal/action"
	"h2/internal/geom"
	"h2/internal/osapi"
	"h2/internal/output"
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

func TestServerProcessesNewPaneThenRenders(t *testing.T) {
	tb := tab.New(0, geom.Viewport{Cols: 40, Rows: 10}, &fakeOsApi{})
	s := New(tb, output.New(termenv.TrueColor))
	go s.Run()
	defer s.Stop()

	id := paneid.Terminal(1)
	s.Post(Msg{Kind: MsgInput, Client: 1, PaneID: id, Action: action.NewPane()})

	reply := make(chan []byte, 1)
	s.Post(Msg{Kind: MsgRender, Client: 1, Reply: reply})

	select {
	case out := <-reply:
		if len(out) == 0 {
			t.Fatalf("render produced no output")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for render reply")
	}
}
