package floatstack

import (
	"testing"

	"h2/internal/geom"
)

func TestVisibleCharacterChunksFullyCovered(t *testing.T) {
	s := New([]geom.PaneGeom{{X: 0, Y: 0, Cols: geom.Fixed(20), Rows: geom.Fixed(10)}})
	got := s.VisibleCharacterChunks(CharacterChunk{X: 5, Y: 2, Width: 10})
	if len(got) != 0 {
		t.Fatalf("VisibleCharacterChunks = %v, want empty", got)
	}
}

func TestVisibleCharacterChunksPartialLeftAndRight(t *testing.T) {
	s := New([]geom.PaneGeom{{X: 10, Y: 0, Cols: geom.Fixed(5), Rows: geom.Fixed(10)}})
	got := s.VisibleCharacterChunks(CharacterChunk{X: 0, Y: 3, Width: 20})
	want := []CharacterChunk{{X: 0, Y: 3, Width: 10}, {X: 15, Y: 3, Width: 5}}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("VisibleCharacterChunks = %v, want %v", got, want)
	}
}

func TestVisibleCharacterChunksNoOverlapOutsideRow(t *testing.T) {
	s := New([]geom.PaneGeom{{X: 0, Y: 0, Cols: geom.Fixed(20), Rows: geom.Fixed(5)}})
	chunk := CharacterChunk{X: 0, Y: 10, Width: 20}
	got := s.VisibleCharacterChunks(chunk)
	if len(got) != 1 || got[0] != chunk {
		t.Fatalf("VisibleCharacterChunks = %v, want unchanged %v", got, chunk)
	}
}

func TestVisibleCharacterChunksUnionOfOverlappingRects(t *testing.T) {
	s := New([]geom.PaneGeom{
		{X: 0, Y: 0, Cols: geom.Fixed(10), Rows: geom.Fixed(10)}, // bottom
		{X: 5, Y: 0, Cols: geom.Fixed(10), Rows: geom.Fixed(10)}, // top, overlaps bottom's right half
	})
	got := s.VisibleCharacterChunks(CharacterChunk{X: 0, Y: 2, Width: 20})
	// Together the rects cover [0,15); only the remainder survives.
	want := []CharacterChunk{{X: 15, Y: 2, Width: 5}}
	if len(got) != 1 || got[0] != want[0] {
		t.Fatalf("VisibleCharacterChunks = %v, want %v", got, want)
	}
}
