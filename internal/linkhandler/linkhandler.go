// Package linkhandler implements the per-pane OSC8 hyperlink table
// (spec.md §4.2), grounded on zellij's link_handler.rs semantics where
// spec.md leaves the pending-anchor lifecycle underspecified.
package linkhandler

import (
	"bytes"
	"fmt"
)

const terminator = "\x1b\\"

// AnchorKind discriminates a link anchor's two forms.
type AnchorKind uint8

const (
	// AnchorStart opens a link; Index identifies the URI in the table.
	AnchorStart AnchorKind = iota
	// AnchorEnd closes whichever link was open on the preceding character.
	AnchorEnd
)

// Anchor is attached to the next character CharacterStyles carries forward
// (spec.md §3.2's link_anchor field).
type Anchor struct {
	Kind  AnchorKind
	Index uint16
}

type link struct {
	id  string
	uri string
}

// Handler maintains {pending, links, next_index} for one pane.
type Handler struct {
	pending   *Anchor
	links     map[uint16]link
	nextIndex uint16
}

// New creates an empty link handler.
func New() *Handler {
	return &Handler{links: make(map[uint16]link)}
}

// DispatchOSC8 handles an OSC 8 sequence: params is the link-param string
// (e.g. "id=foo") and uri is the link target. An empty URI stages an End
// anchor consumed by the next printed character; a non-empty URI allocates
// a new Start anchor and stores the link.
func (h *Handler) DispatchOSC8(params []byte, uri []byte) {
	if len(uri) == 0 {
		end := Anchor{Kind: AnchorEnd}
		h.pending = &end
		return
	}
	h.start(params, uri)
}

func (h *Handler) start(params, uri []byte) {
	id := ""
	for _, kv := range bytes.Split(params, []byte(":")) {
		if bytes.HasPrefix(kv, []byte("id=")) {
			id = string(kv[3:])
			break
		}
	}
	idx := h.nextIndex
	h.links[idx] = link{id: id, uri: string(uri)}
	h.nextIndex++
	start := Anchor{Kind: AnchorStart, Index: idx}
	h.pending = &start
}

// PendingLinkAnchor returns the anchor staged for the next printed
// character, consuming End anchors (they apply to exactly one character)
// but leaving Start anchors in place until a new OSC8 replaces them.
func (h *Handler) PendingLinkAnchor() *Anchor {
	pending := h.pending
	if pending != nil && pending.Kind == AnchorEnd {
		h.pending = nil
	}
	return pending
}

// OutputOSC8 renders the terminal-reply form of an anchor for output
// serialisation (spec.md §4.8 step 7).
func (h *Handler) OutputOSC8(anchor *Anchor) string {
	if anchor == nil {
		return ""
	}
	if anchor.Kind == AnchorEnd {
		return fmt.Sprintf("\x1b]8;;%s", terminator)
	}
	l, ok := h.links[anchor.Index]
	if !ok {
		return ""
	}
	idParam := ""
	if l.id != "" {
		idParam = "id=" + l.id
	}
	return fmt.Sprintf("\x1b]8;%s;%s%s", idParam, l.uri, terminator)
}
