// Package osapi defines the OS collaborator boundary a Pane spawns its
// child process through (spec.md §6.2), plus a creack/pty-backed
// implementation grounded on h2's own virtualterminal.VT.StartPTY.
package osapi

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/creack/pty"
)

// Fd identifies a spawned terminal's PTY master, the unit §6.2 keys reads,
// writes, resizes, and kills on.
type Fd int

// ServerOsApi is the PTY/process collaborator spec.md §6.2 names: every
// Pane reaches the outside world exclusively through this interface, so
// tests can substitute a fake without spawning real processes.
type ServerOsApi interface {
	SpawnTerminal(command string, args []string, rows, cols int) (Fd, error)
	ReadFromTty(fd Fd, buf []byte) (int, error)
	WriteToTty(fd Fd, buf []byte) error
	SetTerminalSize(fd Fd, rows, cols int) error
	KillTerminal(fd Fd) error
}

// PtyOsApi is the real ServerOsApi, one *os.File per live Fd.
type PtyOsApi struct {
	ptys map[Fd]*ptyHandle
	next Fd
}

type ptyHandle struct {
	ptm *os.File
	cmd *exec.Cmd
}

// NewPtyOsApi constructs an empty PTY-backed OS API.
func NewPtyOsApi() *PtyOsApi {
	return &PtyOsApi{ptys: make(map[Fd]*ptyHandle)}
}

// SpawnTerminal starts command under a new PTY sized rows x cols, grounded
// on virtualterminal.VT.StartPTY's pty.StartWithSize call.
func (a *PtyOsApi) SpawnTerminal(command string, args []string, rows, cols int) (Fd, error) {
	cmd := exec.Command(command, args...)
	ptm, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)})
	if err != nil {
		return 0, fmt.Errorf("spawn terminal: %w", err)
	}
	a.next++
	fd := a.next
	a.ptys[fd] = &ptyHandle{ptm: ptm, cmd: cmd}
	return fd, nil
}

// ReadFromTty reads one chunk of child output.
func (a *PtyOsApi) ReadFromTty(fd Fd, buf []byte) (int, error) {
	h, ok := a.ptys[fd]
	if !ok {
		return 0, fmt.Errorf("osapi: unknown fd %d", fd)
	}
	return h.ptm.Read(buf)
}

// WriteToTty writes input bytes to the child's PTY master.
func (a *PtyOsApi) WriteToTty(fd Fd, buf []byte) error {
	h, ok := a.ptys[fd]
	if !ok {
		return fmt.Errorf("osapi: unknown fd %d", fd)
	}
	_, err := h.ptm.Write(buf)
	return err
}

// SetTerminalSize resizes the PTY, the Go equivalent of sending SIGWINCH.
func (a *PtyOsApi) SetTerminalSize(fd Fd, rows, cols int) error {
	h, ok := a.ptys[fd]
	if !ok {
		return fmt.Errorf("osapi: unknown fd %d", fd)
	}
	return pty.Setsize(h.ptm, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)})
}

// KillTerminal terminates the child process and releases its PTY.
func (a *PtyOsApi) KillTerminal(fd Fd) error {
	h, ok := a.ptys[fd]
	if !ok {
		return nil
	}
	delete(a.ptys, fd)
	if h.cmd.Process != nil {
		_ = h.cmd.Process.Kill()
	}
	return h.ptm.Close()
}
