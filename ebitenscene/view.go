// Package ebitenscene adapts the tether scene-graph and status collaborators
// to [Ebitengine] as a top-down 2D view: world X maps to screen x, world Z to
// screen y, and the gaze ray of a tap points straight down from eye height
// above the clicked ground point. Markers are drawn as discs whose color and
// pulse reflect the anchor lifecycle, animated with [gween] tweens.
//
// [Ebitengine]: https://ebitengine.org
// [gween]: https://github.com/tanema/gween
package ebitenscene

import (
	"fmt"
	"image/color"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/tanema/gween/ease"

	"github.com/phanxgames/tether"
)

const (
	defaultScale     = 40.0 // pixels per meter
	defaultEyeHeight = 1.6  // meters; typical head height for the gaze origin

	markerRadius = 10.0 // pixels at rest
	pulseRadius  = 14.0 // pixels at the top of the placing pulse
	pulseSecs    = 0.4
	fadeSecs     = 0.3
)

// stateColors maps each visual state to the disc color it settles on.
var stateColors = map[tether.VisualState]tether.Color{
	tether.VisualPlacing: {R: 1, G: 0.85, B: 0.2, A: 1},
	tether.VisualSaved:   {R: 0.3, G: 0.9, B: 0.4, A: 1},
	tether.VisualFailed:  {R: 0.95, G: 0.25, B: 0.25, A: 1},
	tether.VisualLocated: {R: 0.35, G: 0.65, B: 1, A: 1},
}

// localPin is the adapter's device-local anchor: a fixed ground position.
type localPin struct {
	pos tether.Vec3
}

func (p localPin) AnchorPose() tether.Vec3 { return p.pos }

// View implements tether.SceneGraph and tether.StatusSink over an Ebitengine
// screen. All SceneGraph methods and Update/Draw must run on the game's
// update thread; SetStatusText may be called from any goroutine.
type View struct {
	width, height int
	scale         float64
	eyeHeight     float64

	markers []*Marker

	statusMu    sync.Mutex
	statusText  string
	statusColor tether.Color
}

// NewView creates a view for a screen of the given pixel size.
func NewView(width, height int) *View {
	return &View{
		width:     width,
		height:    height,
		scale:     defaultScale,
		eyeHeight: defaultEyeHeight,
	}
}

// --- coordinate mapping ---

// worldToScreen projects a ground position to screen pixels. The world origin
// is at the screen center.
func (v *View) worldToScreen(pos tether.Vec3) (float64, float64) {
	return float64(v.width)/2 + pos.X*v.scale, float64(v.height)/2 + pos.Z*v.scale
}

// screenToWorld is the inverse of worldToScreen, at ground level.
func (v *View) screenToWorld(x, y float64) tether.Vec3 {
	return tether.Vec3{
		X: (x - float64(v.width)/2) / v.scale,
		Z: (y - float64(v.height)/2) / v.scale,
	}
}

// TapRay converts a screen tap into the gaze ray to hand to the controller:
// origin at eye height above the tapped ground point, looking straight down.
func (v *View) TapRay(screenX, screenY float64) (origin, dir tether.Vec3) {
	ground := v.screenToWorld(screenX, screenY)
	origin = tether.Vec3{X: ground.X, Y: v.eyeHeight, Z: ground.Z}
	return origin, tether.Vec3{Y: -1}
}

// --- tether.SceneGraph ---

// Raycast intersects the ray with the ground plane at Y = 0.
func (v *View) Raycast(origin, dir tether.Vec3) (tether.Vec3, bool) {
	if dir.Y == 0 {
		return tether.Vec3{}, false
	}
	t := -origin.Y / dir.Y
	if t <= 0 {
		return tether.Vec3{}, false
	}
	return origin.Add(dir.Scale(t)), true
}

// CreateVisual adds a marker disc at pos, fading in.
func (v *View) CreateVisual(pos tether.Vec3) tether.Visual {
	m := &Marker{
		pos:    pos,
		state:  tether.VisualPlacing,
		color:  stateColors[tether.VisualPlacing],
		radius: markerRadius,
		alpha:  0,
	}
	m.add(tweenAlpha(m, 1, fadeSecs, ease.OutQuad))
	v.markers = append(v.markers, m)
	return m
}

// DestroyVisual removes the marker immediately.
func (v *View) DestroyVisual(t tether.Visual) {
	for i, m := range v.markers {
		if m == t {
			v.markers = append(v.markers[:i], v.markers[i+1:]...)
			return
		}
	}
}

// BindLocalAnchor pins the marker to its current ground position.
func (v *View) BindLocalAnchor(t tether.Visual) tether.LocalAnchor {
	return localPin{pos: t.Pose()}
}

// SetLocalAnchor re-pins the marker to the resolved pose.
func (v *View) SetLocalAnchor(t tether.Visual, a tether.LocalAnchor) {
	m := t.(*Marker)
	m.pos = a.AnchorPose()
}

// --- tether.StatusSink ---

// SetStatusText updates the banner. Safe from any goroutine.
func (v *View) SetStatusText(text string, c tether.Color) {
	v.statusMu.Lock()
	v.statusText = text
	v.statusColor = c
	v.statusMu.Unlock()
}

// Status returns the current banner text and color.
func (v *View) Status() (string, tether.Color) {
	v.statusMu.Lock()
	defer v.statusMu.Unlock()
	return v.statusText, v.statusColor
}

// --- frame loop ---

// Update advances marker animations by dt seconds.
func (v *View) Update(dt float64) {
	for _, m := range v.markers {
		m.update(float32(dt))
	}
}

// Draw renders the ground grid, the markers, and the status banner.
func (v *View) Draw(screen *ebiten.Image) {
	v.drawGrid(screen)
	for _, m := range v.markers {
		m.draw(screen, v)
	}
	v.drawStatus(screen)
}

func (v *View) drawGrid(screen *ebiten.Image) {
	grid := color.RGBA{40, 44, 52, 255}
	step := float32(v.scale)
	cx := float32(v.width) / 2
	cy := float32(v.height) / 2
	for x := cx; x < float32(v.width); x += step {
		vector.StrokeLine(screen, x, 0, x, float32(v.height), 1, grid, false)
		vector.StrokeLine(screen, 2*cx-x, 0, 2*cx-x, float32(v.height), 1, grid, false)
	}
	for y := cy; y < float32(v.height); y += step {
		vector.StrokeLine(screen, 0, y, float32(v.width), y, 1, grid, false)
		vector.StrokeLine(screen, 0, 2*cy-y, float32(v.width), 2*cy-y, 1, grid, false)
	}
	// Origin crosshair.
	axis := color.RGBA{70, 76, 88, 255}
	vector.StrokeLine(screen, cx-8, cy, cx+8, cy, 1, axis, false)
	vector.StrokeLine(screen, cx, cy-8, cx, cy+8, 1, axis, false)
}

func (v *View) drawStatus(screen *ebiten.Image) {
	text, c := v.Status()
	if text == "" {
		return
	}
	vector.DrawFilledRect(screen, 0, 0, float32(v.width), 20, color.RGBA{0, 0, 0, 160}, false)
	vector.DrawFilledRect(screen, 4, 5, 10, 10, toRGBA(c), false)
	ebitenutil.DebugPrintAt(screen, text, 20, 2)
}

// Markers returns the live markers, in creation order.
func (v *View) Markers() []*Marker {
	return v.markers
}

// Marker is a disc pinned to a ground position.
type Marker struct {
	pos    tether.Vec3
	state  tether.VisualState
	color  tether.Color
	radius float64
	alpha  float64

	tweens  []*markerTween
	pulseUp bool
}

// SetState switches the marker's color toward the state's color and starts or
// stops the placing pulse.
func (m *Marker) SetState(state tether.VisualState) {
	m.state = state
	m.add(tweenColor(m, stateColors[state], fadeSecs, ease.InOutQuad))
	if state != tether.VisualPlacing {
		// Settle back to the rest radius; update() only re-pulses while
		// placing.
		m.add(tweenRadius(m, markerRadius, pulseSecs, ease.OutQuad))
	}
}

// Pose returns the marker's ground position.
func (m *Marker) Pose() tether.Vec3 { return m.pos }

// State returns the last state set on the marker.
func (m *Marker) State() tether.VisualState { return m.state }

func (m *Marker) add(t *markerTween) {
	m.tweens = append(m.tweens, t)
}

func (m *Marker) update(dt float32) {
	live := m.tweens[:0]
	for _, t := range m.tweens {
		t.Update(dt)
		if !t.Done {
			live = append(live, t)
		}
	}
	m.tweens = live

	// Breathe while the upload is pending.
	if m.state == tether.VisualPlacing && len(m.tweens) == 0 {
		to := pulseRadius
		if m.pulseUp {
			to = markerRadius
		}
		m.pulseUp = !m.pulseUp
		m.add(tweenRadius(m, to, pulseSecs, ease.InOutSine))
	}
}

func (m *Marker) draw(screen *ebiten.Image, v *View) {
	x, y := v.worldToScreen(m.pos)
	c := m.color
	c.A *= m.alpha
	vector.DrawFilledCircle(screen, float32(x), float32(y), float32(m.radius), toRGBA(c), true)
	ring := tether.Color{R: 1, G: 1, B: 1, A: 0.4 * m.alpha}
	vector.StrokeCircle(screen, float32(x), float32(y), float32(m.radius)+3, 1, toRGBA(ring), true)
}

// toRGBA converts a tether.Color to a premultiplied image/color RGBA.
func toRGBA(c tether.Color) color.RGBA {
	clamp := func(f float64) uint8 {
		if f < 0 {
			return 0
		}
		if f > 1 {
			return 255
		}
		return uint8(f*255 + 0.5)
	}
	return color.RGBA{
		R: clamp(c.R * c.A),
		G: clamp(c.G * c.A),
		B: clamp(c.B * c.A),
		A: clamp(c.A),
	}
}

// FormatAnchorID shortens a long anchor identifier for banner display.
func FormatAnchorID(id string) string {
	if len(id) <= 13 {
		return id
	}
	return fmt.Sprintf("%s…%s", id[:8], id[len(id)-4:])
}
