package floatpanegrid

import (
	"testing"

	"h2/internal/geom"
	"h2/internal/panegrid"
	"h2/internal/paneid"
)

func TestFindRoomForNewPanePrefersCenter(t *testing.T) {
	f := New(geom.Viewport{Cols: 100, Rows: 50})
	g := f.FindRoomForNewPane(10, 20)
	wantX := (100 - 20) / 2
	wantY := (50 - 10) / 2
	if g.X != wantX || g.Y != wantY {
		t.Fatalf("FindRoomForNewPane = (%d,%d), want (%d,%d)", g.X, g.Y, wantX, wantY)
	}
}

func TestFindRoomForNewPaneAvoidsOverlap(t *testing.T) {
	f := New(geom.Viewport{Cols: 100, Rows: 50})
	id := paneid.Plugin(1)
	center := f.FindRoomForNewPane(10, 20)
	f.AddPane(id, center)

	g := f.FindRoomForNewPane(10, 20)
	if g.Overlaps(center) {
		t.Fatalf("FindRoomForNewPane returned overlapping geom %+v vs %+v", g, center)
	}
}

func TestMovePaneByClampsToViewport(t *testing.T) {
	f := New(geom.Viewport{Cols: 100, Rows: 50})
	id := paneid.Plugin(1)
	f.AddPane(id, geom.PaneGeom{X: 0, Y: 0, Cols: geom.Fixed(20), Rows: geom.Fixed(10)})

	f.MovePaneBy(id, -100, -100)
	g, _ := f.Geom(id)
	if g.X != 0 || g.Y != 0 {
		t.Fatalf("MovePaneBy clamp = (%d,%d), want (0,0)", g.X, g.Y)
	}

	f.MovePaneBy(id, 1000, 1000)
	g, _ = f.Geom(id)
	if g.X != 80 || g.Y != 40 {
		t.Fatalf("MovePaneBy clamp = (%d,%d), want (80,40)", g.X, g.Y)
	}
}

func TestResizeRestoresDesiredGeomWhenItFits(t *testing.T) {
	f := New(geom.Viewport{Cols: 100, Rows: 50})
	id := paneid.Plugin(1)
	desired := geom.PaneGeom{X: 10, Y: 10, Cols: geom.Fixed(20), Rows: geom.Fixed(10)}
	f.AddPane(id, desired)

	f.Resize(geom.Viewport{Cols: 40, Rows: 20})
	shrunk, _ := f.Geom(id)
	if shrunk.Cols.AsUsize() > 40 || shrunk.Rows.AsUsize() > 20 {
		t.Fatalf("Resize did not shrink pane to fit: %+v", shrunk)
	}

	f.Resize(geom.Viewport{Cols: 100, Rows: 50})
	restored, _ := f.Geom(id)
	if restored != desired {
		t.Fatalf("Resize did not restore desired geom: got %+v, want %+v", restored, desired)
	}
}

func TestNextSelectablePaneIdPicksClosestAlongAxis(t *testing.T) {
	f := New(geom.Viewport{Cols: 100, Rows: 100})
	origin := paneid.Plugin(1)
	near := paneid.Plugin(2)
	far := paneid.Plugin(3)
	f.AddPane(origin, geom.PaneGeom{X: 50, Y: 50, Cols: geom.Fixed(10), Rows: geom.Fixed(10)})
	f.AddPane(near, geom.PaneGeom{X: 70, Y: 50, Cols: geom.Fixed(10), Rows: geom.Fixed(10)})
	f.AddPane(far, geom.PaneGeom{X: 90, Y: 50, Cols: geom.Fixed(5), Rows: geom.Fixed(5)})

	got, ok := f.NextSelectablePaneId(origin, panegrid.DirRight)
	if !ok || got != near {
		t.Fatalf("NextSelectablePaneId(Right) = %v, %v, want %v, true", got, ok, near)
	}
}
