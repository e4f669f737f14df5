// Package sixel implements the process-wide, reference-counted store of
// decoded sixel image pixel buffers shared by every Grid in a session
// (spec.md §4.3).
package sixel

import (
	"sync"

	"github.com/google/uuid"
)

// ImageId uniquely identifies a decoded sixel image's pixel buffer.
type ImageId string

// NewImageId mints a fresh image id.
func NewImageId() ImageId {
	return ImageId(uuid.NewString())
}

// Anchor records where a sixel image was placed: the absolute line index it
// is pinned to (so it scrolls with scrollback) and the starting column.
type Anchor struct {
	Line   int
	Column int
}

// PixelBuffer is one decoded sixel image's raw pixels plus its declared
// cell footprint.
type PixelBuffer struct {
	Width, Height int // pixels
	RGBA          []byte
}

type entry struct {
	buf  PixelBuffer
	refs int
}

// Store is a process-wide sixel image store, ref-counted by the Grids that
// hold an Anchor referencing each image.
type Store struct {
	mu     sync.Mutex
	images map[ImageId]*entry
}

// NewStore creates an empty sixel image store.
func NewStore() *Store {
	return &Store{images: make(map[ImageId]*entry)}
}

// Insert stores a freshly decoded image with no references and returns its
// id; the Grid that anchors it takes the first reference through Ref.
// Sixel decode errors are handled by the caller simply not calling Insert
// (spec.md §4.1 failure semantics).
func (s *Store) Insert(buf PixelBuffer) ImageId {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := NewImageId()
	s.images[id] = &entry{buf: buf, refs: 0}
	return id
}

// Ref increments the reference count for an image a Grid has just anchored
// (Grid.AnchorSixelImage calls it).
func (s *Store) Ref(id ImageId) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.images[id]; ok {
		e.refs++
	}
}

// Unref decrements the reference count for an image whose anchor line has
// scrolled beyond the scrollback cap or whose pane has closed. The image is
// not removed until Reap runs.
func (s *Store) Unref(id ImageId) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.images[id]; ok && e.refs > 0 {
		e.refs--
	}
}

// Get returns the pixel buffer for id, if it still exists.
func (s *Store) Get(id ImageId) (PixelBuffer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.images[id]
	if !ok {
		return PixelBuffer{}, false
	}
	return e.buf, true
}

// Reap removes every image with zero references. Called when lines scroll
// beyond the scrollback cap, on ResetTerminalState, and when leaving the
// alternate screen (spec.md §4.3, §9).
func (s *Store) Reap() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.images {
		if e.refs <= 0 {
			delete(s.images, id)
		}
	}
}

// Len reports how many images the store currently holds, live or pending
// reap. Exposed for tests.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.images)
}
