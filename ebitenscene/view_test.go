package ebitenscene

import (
	"math"
	"testing"

	"github.com/phanxgames/tether"
)

func TestScreenWorldRoundTrip(t *testing.T) {
	v := NewView(640, 480)

	// Screen center is the world origin.
	if got := v.screenToWorld(320, 240); got != (tether.Vec3{}) {
		t.Errorf("center = %v, want origin", got)
	}

	pos := tether.Vec3{X: 2.5, Z: -1.25}
	x, y := v.worldToScreen(pos)
	if got := v.screenToWorld(x, y); got != pos {
		t.Errorf("round trip %v -> (%v,%v) -> %v", pos, x, y, got)
	}
}

func TestTapRayHitsTappedPoint(t *testing.T) {
	v := NewView(640, 480)

	origin, dir := v.TapRay(400, 200)
	if origin.Y != defaultEyeHeight {
		t.Errorf("gaze origin height = %v", origin.Y)
	}
	hit, ok := v.Raycast(origin, dir)
	if !ok {
		t.Fatal("tap ray should hit the ground")
	}
	want := v.screenToWorld(400, 200)
	if hit != want {
		t.Errorf("hit = %v, want %v", hit, want)
	}
}

func TestRaycastMisses(t *testing.T) {
	v := NewView(640, 480)
	if _, ok := v.Raycast(tether.Vec3{Y: 1}, tether.Vec3{X: 1}); ok {
		t.Error("horizontal ray should miss the ground")
	}
	if _, ok := v.Raycast(tether.Vec3{Y: 1}, tether.Vec3{Y: 1}); ok {
		t.Error("upward ray should miss the ground")
	}
}

func TestMarkerLifecycle(t *testing.T) {
	v := NewView(640, 480)
	m := v.CreateVisual(tether.Vec3{X: 1, Z: 2}).(*Marker)

	if len(v.Markers()) != 1 {
		t.Fatalf("expected 1 marker, got %d", len(v.Markers()))
	}
	if m.State() != tether.VisualPlacing {
		t.Errorf("initial state = %v", m.State())
	}
	if m.alpha != 0 {
		t.Error("marker should fade in from zero alpha")
	}

	// Run the fade to completion.
	for i := 0; i < 60; i++ {
		v.Update(1.0 / 60)
	}
	if m.alpha < 0.99 {
		t.Errorf("alpha after fade = %v", m.alpha)
	}

	a := v.BindLocalAnchor(m)
	if a.AnchorPose() != (tether.Vec3{X: 1, Z: 2}) {
		t.Errorf("anchor pose = %v", a.AnchorPose())
	}

	v.SetLocalAnchor(m, localPin{pos: tether.Vec3{X: 3}})
	if m.Pose() != (tether.Vec3{X: 3}) {
		t.Errorf("re-pinned pose = %v", m.Pose())
	}

	v.DestroyVisual(m)
	if len(v.Markers()) != 0 {
		t.Errorf("expected empty view, got %d markers", len(v.Markers()))
	}
}

func TestPlacingMarkerPulses(t *testing.T) {
	v := NewView(640, 480)
	m := v.CreateVisual(tether.Vec3{}).(*Marker)

	grew := false
	for i := 0; i < 120; i++ {
		v.Update(1.0 / 60)
		if m.radius > markerRadius+1 {
			grew = true
		}
	}
	if !grew {
		t.Error("placing marker never pulsed above its rest radius")
	}
}

func TestSavedMarkerSettles(t *testing.T) {
	v := NewView(640, 480)
	m := v.CreateVisual(tether.Vec3{}).(*Marker)
	for i := 0; i < 30; i++ {
		v.Update(1.0 / 60)
	}

	m.SetState(tether.VisualSaved)
	for i := 0; i < 120; i++ {
		v.Update(1.0 / 60)
	}

	if math.Abs(m.radius-markerRadius) > 0.5 {
		t.Errorf("saved marker radius = %v, want rest radius", m.radius)
	}
	want := stateColors[tether.VisualSaved]
	if math.Abs(m.color.G-want.G) > 0.05 || math.Abs(m.color.R-want.R) > 0.05 {
		t.Errorf("saved marker color = %+v, want %+v", m.color, want)
	}
}

func TestStatusBanner(t *testing.T) {
	v := NewView(640, 480)
	done := make(chan struct{})
	go func() {
		v.SetStatusText("Uploading anchor...", tether.ColorProgress)
		close(done)
	}()
	<-done

	text, c := v.Status()
	if text != "Uploading anchor..." {
		t.Errorf("text = %q", text)
	}
	if c != tether.ColorProgress {
		t.Errorf("color = %v", c)
	}
}

func TestToRGBAPremultiplies(t *testing.T) {
	got := toRGBA(tether.Color{R: 1, G: 0.5, B: 0, A: 0.5})
	if got.A != 128 {
		t.Errorf("alpha = %d", got.A)
	}
	if got.R != 128 {
		t.Errorf("premultiplied red = %d, want 128", got.R)
	}
}

func TestFormatAnchorID(t *testing.T) {
	if got := FormatAnchorID("short-id"); got != "short-id" {
		t.Errorf("short id mangled: %q", got)
	}
	long := "0bfe3459-92a4-4f21-8f8a-d9ecd2f23a55"
	got := FormatAnchorID(long)
	if len([]rune(got)) >= len(long) {
		t.Errorf("long id not shortened: %q", got)
	}
}
