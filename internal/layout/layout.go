// Package layout ingests a YAML layout file describing the initial split
// tree a Tab should start with (spec.md §6.5), grounded on
// dcosson-h2/internal/config/role.go's YAML-struct-plus-UnmarshalYAML
// loading pattern, using gofrs/flock to guard concurrent reads the same
// way the teacher guarded its session directory.
package layout

import (
	"fmt"
	"os"

	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"

	"h2/internal/paneid"
	"h2/internal/tab"
)

// Kind discriminates a Layout node's placement: tiled (part of the exact
// partition) or floating (free-form overlay).
type Kind uint8

const (
	KindTiled Kind = iota
	KindFloating
)

// RunCommand is a Terminal leaf's spawn instruction.
type RunCommand struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args,omitempty"`
}

// Layout is one node of the split tree: either a leaf (Run set, or
// PluginAlias set for a Plugin leaf) or an internal node with Children
// laid out along Direction.
type Layout struct {
	Kind        Kind       `yaml:"-"`
	KindName    string     `yaml:"kind,omitempty"` // "tiled" or "floating"; defaults to tiled
	Direction   string     `yaml:"direction,omitempty"` // "horizontal" or "vertical"
	SplitSize   float64    `yaml:"split_size,omitempty"`
	Children    []*Layout  `yaml:"children,omitempty"`
	Run         *RunCommand `yaml:"run,omitempty"`
	PluginAlias string     `yaml:"plugin,omitempty"`
	Borderless  bool       `yaml:"borderless,omitempty"`
}

// UnmarshalYAML resolves KindName into Kind after the default YAML decode,
// the same post-process step role.go's UnmarshalYAML performs for its own
// string-to-enum fields.
func (l *Layout) UnmarshalYAML(value *yaml.Node) error {
	type rawLayout Layout
	var raw rawLayout
	if err := value.Decode(&raw); err != nil {
		return err
	}
	*l = Layout(raw)
	if l.KindName == "floating" {
		l.Kind = KindFloating
	} else {
		l.Kind = KindTiled
	}
	return nil
}

// Load reads and parses a layout YAML file, holding a shared flock on it
// for the duration of the read so a concurrent writer (e.g. a layout
// editor) can't hand back a half-written file.
func Load(path string) (*Layout, error) {
	lock := flock.New(path + ".lock")
	if err := lock.RLock(); err != nil {
		return nil, fmt.Errorf("layout: lock %s: %w", path, err)
	}
	defer lock.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("layout: read %s: %w", path, err)
	}
	var l Layout
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("layout: parse %s: %w", path, err)
	}
	return &l, nil
}

// idAllocator hands out sequential terminal PaneIds, one per Terminal leaf
// ApplyLayout spawns (Layout leaves carry no id of their own); ApplyLayout's caller owns real fd assignment
// once NewPane actually spawns each leaf.
type idAllocator struct{ next int }

func (a *idAllocator) next_() paneid.PaneId {
	a.next++
	return paneid.Terminal(a.next)
}

// ApplyLayout walks l and issues the NewPane/HorizontalSplit/VerticalSplit
// calls needed to reproduce its tree inside t (spec.md §6.5). Only
// Terminal leaves are spawned; Plugin leaves are left for a later PluginPane
// wiring pass since this core doesn't implement plugin loading (spec.md §1
// Non-goals). A child after the first that has no Run of its own (a plugin
// leaf or a nested container) is skipped together with its whole subtree.
func ApplyLayout(t *tab.Tab, client tab.ClientId, l *Layout) error {
	ids := &idAllocator{}
	return applyNode(t, client, l, ids, true)
}

func applyNode(t *tab.Tab, client tab.ClientId, l *Layout, ids *idAllocator, isRoot bool) error {
	if len(l.Children) == 0 {
		if l.Run == nil {
			return nil // plugin leaf: no PTY to spawn
		}
		id := ids.next_()
		if isRoot {
			if err := t.NewPane(id, l.Run.Command, l.Run.Args); err != nil {
				return err
			}
			t.SetFocus(client, id)
			return nil
		}
		return fmt.Errorf("layout: non-root leaf reached applyNode without a split parent")
	}

	splitFn := t.VerticalSplit
	if l.Direction == "horizontal" {
		splitFn = t.HorizontalSplit
	}

	for i, child := range l.Children {
		if i == 0 {
			if err := applyNode(t, client, child, ids, isRoot); err != nil {
				return err
			}
			continue
		}
		if child.Run == nil {
			continue // nested container or plugin leaf mid-split: skipped with its subtree
		}
		id := ids.next_()
		if err := splitFn(client, id, child.Run.Command, child.Run.Args); err != nil {
			return err
		}
		if len(child.Children) > 0 {
			if err := applyNode(t, client, child, ids, false); err != nil {
				return err
			}
		}
	}
	return nil
}
