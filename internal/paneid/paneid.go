// Package paneid defines the identifier used to address a pane, whether it
// is backed by a PTY-connected terminal or a plugin instance.
package paneid

import "fmt"

// Kind discriminates the two flavors of pane a PaneId can address.
type Kind uint8

const (
	// KindTerminal addresses a pane backed by a raw PTY file descriptor.
	KindTerminal Kind = iota
	// KindPlugin addresses a pane backed by a plugin instance.
	KindPlugin
)

// PaneId is a tagged identifier: either Terminal(fd) or Plugin(instanceID).
// It is comparable and safe to use as a map key.
type PaneId struct {
	Kind Kind
	// Fd holds the PTY file descriptor when Kind == KindTerminal.
	Fd int
	// PluginInstanceId holds the plugin instance id when Kind == KindPlugin.
	PluginInstanceId uint64
}

// Terminal builds a PaneId addressing a PTY by file descriptor.
func Terminal(fd int) PaneId {
	return PaneId{Kind: KindTerminal, Fd: fd}
}

// Plugin builds a PaneId addressing a plugin instance.
func Plugin(instanceID uint64) PaneId {
	return PaneId{Kind: KindPlugin, PluginInstanceId: instanceID}
}

// IsTerminal reports whether this id addresses a PTY-backed pane.
func (p PaneId) IsTerminal() bool { return p.Kind == KindTerminal }

// IsPlugin reports whether this id addresses a plugin pane.
func (p PaneId) IsPlugin() bool { return p.Kind == KindPlugin }

func (p PaneId) String() string {
	if p.Kind == KindPlugin {
		return fmt.Sprintf("plugin(%d)", p.PluginInstanceId)
	}
	return fmt.Sprintf("terminal(%d)", p.Fd)
}
