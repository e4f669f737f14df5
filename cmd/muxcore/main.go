// Command muxcore is a minimal demo binary exercising the multiplexer
// core end to end: it spawns a PTY-backed pane, drives one Tab through
// muxserver's screen thread, and prints the composited output to the
// controlling terminal. It stands in for the full CLI/daemon/attach
// surface spec.md §1 declares out of scope for the core, grounded on
// dcosson-h2/internal/cmd/root.go's cobra tree and run.go's command
// wiring, and dcosson-h2/internal/overlay/overlay.go's raw-mode/PTY/pipe
// loop.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"h2/internal/geom"
	"h2/internal/layout"
	"h2/internal/muxserver"
	"h2/internal/osapi"
	"h2/internal/output"
	"h2/internal/pane"
	"h2/internal/paneid"
	"h2/internal/tab"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "muxcore",
		Short: "Minimal terminal multiplexer core demo",
	}
	root.AddCommand(newRunCmd())
	return root
}

func newRunCmd() *cobra.Command {
	var layoutPath string
	cmd := &cobra.Command{
		Use:   "run [-- <command> [args...]]",
		Short: "Spawn one pane (or a layout file's panes) and render them to this terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			command, cmdArgs := "/bin/sh", []string(nil)
			if len(args) > 0 {
				command, cmdArgs = args[0], args[1:]
			}
			return runDemo(layoutPath, command, cmdArgs)
		},
	}
	cmd.Flags().StringVar(&layoutPath, "layout", "", "path to a YAML layout file (default: one full-screen pane)")
	return cmd
}

func runDemo(layoutPath, command string, args []string) error {
	cols, rows := 80, 24
	raw := isatty.IsTerminal(os.Stdout.Fd())
	var restore *term.State
	if raw {
		fd := int(os.Stdin.Fd())
		if c, r, err := term.GetSize(fd); err == nil {
			cols, rows = c, r
		}
		var err error
		restore, err = term.MakeRaw(fd)
		if err != nil {
			return fmt.Errorf("set raw mode: %w", err)
		}
		defer term.Restore(fd, restore)
		defer os.Stdout.WriteString("\033[?25h\033[0m\r\n")
	}

	api := osapi.NewPtyOsApi()
	t := tab.New(0, geom.Viewport{Cols: cols, Rows: rows}, api)
	comp := output.New(detectProfile())
	srv := muxserver.New(t, comp)
	go srv.Run()
	defer srv.Stop()

	client := tab.ClientId(1)
	if layoutPath != "" {
		l, err := layout.Load(layoutPath)
		if err != nil {
			return err
		}
		if err := layout.ApplyLayout(t, client, l); err != nil {
			return err
		}
	} else {
		id := paneid.Terminal(1)
		if err := t.NewPane(id, command, args); err != nil {
			return err
		}
		t.SetFocus(client, id)
	}

	for id := range t.TiledGeoms() {
		p, ok := t.Pane(id)
		if !ok {
			continue
		}
		tp, ok := p.(*pane.TerminalPane)
		if !ok {
			continue
		}
		go muxserver.PumpPane(srv, id, tp)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGWINCH)
	go watchResize(sigCh, srv, client)

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for range ticker.C {
		reply := make(chan []byte, 1)
		srv.Post(muxserver.Msg{Kind: muxserver.MsgRender, Client: client, Reply: reply})
		select {
		case out := <-reply:
			os.Stdout.Write(out)
		case <-time.After(time.Second):
		}
	}
	return nil
}

func watchResize(sigCh chan os.Signal, srv *muxserver.Server, client tab.ClientId) {
	for range sigCh {
		fd := int(os.Stdin.Fd())
		cols, rows, err := term.GetSize(fd)
		if err != nil {
			continue
		}
		srv.Post(muxserver.Msg{Kind: muxserver.MsgResize, Client: client, Size: geom.Viewport{Cols: cols, Rows: rows}})
	}
}

func detectProfile() termenv.Profile {
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		return termenv.Ascii
	}
	return termenv.NewOutput(os.Stdout).Profile
}
