package grid

import "testing"

// sixelSquare encodes a single 6x6 black square using color 0 and the
// sixel data character for "all six rows set" ('?' + 0b111111 = '~').
const sixelSquare = "#0~~~~~~"

func TestDecodeSixelProducesPixelBuffer(t *testing.T) {
	buf, ok := decodeSixel(nil, []byte(sixelSquare))
	if !ok {
		t.Fatal("expected decodeSixel to succeed on well-formed data")
	}
	if buf.Width != 6 || buf.Height != 6 {
		t.Fatalf("expected 6x6 pixel buffer, got %dx%d", buf.Width, buf.Height)
	}
	if len(buf.RGBA) != buf.Width*buf.Height*4 {
		t.Fatalf("RGBA buffer length mismatch: got %d, want %d", len(buf.RGBA), buf.Width*buf.Height*4)
	}
}

func TestDecodeSixelEmptyDataFails(t *testing.T) {
	if _, ok := decodeSixel(nil, nil); ok {
		t.Fatal("expected decodeSixel to fail on empty data")
	}
}

func TestSixelReceivedAnchorsImageInStore(t *testing.T) {
	g := newTestGrid(5, 10)
	g.SixelReceived(nil, []byte(sixelSquare))
	if len(g.sixelRefs) != 1 {
		t.Fatalf("expected one anchored sixel image, got %d", len(g.sixelRefs))
	}
	for id, anchor := range g.sixelRefs {
		if anchor.Line != 0 || anchor.Column != 0 {
			t.Fatalf("expected anchor at (0,0), got %+v", anchor)
		}
		if _, ok := g.sixelStore.Get(id); !ok {
			t.Fatalf("expected image %v to be retrievable from the store", id)
		}
	}
}
