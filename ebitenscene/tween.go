package ebitenscene

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"

	"github.com/phanxgames/tether"
)

// markerTween animates up to 4 float64 fields on a Marker simultaneously.
// Update(dt) advances all member tweens and writes the values back; Done is
// set once every member has finished. There is no global animation manager;
// the View updates the tweens of its live markers each frame.
type markerTween struct {
	tweens [4]*gween.Tween
	count  int
	fields [4]*float64
	Done   bool
}

// Update advances all tweens by dt seconds and writes values to the target
// fields.
func (g *markerTween) Update(dt float32) {
	if g.Done {
		return
	}
	allDone := true
	for i := 0; i < g.count; i++ {
		val, finished := g.tweens[i].Update(dt)
		*g.fields[i] = float64(val)
		if !finished {
			allDone = false
		}
	}
	g.Done = allDone
}

// tweenColor animates all four components of the marker's color.
func tweenColor(m *Marker, to tether.Color, duration float32, fn ease.TweenFunc) *markerTween {
	g := &markerTween{count: 4}
	g.tweens[0] = gween.New(float32(m.color.R), float32(to.R), duration, fn)
	g.tweens[1] = gween.New(float32(m.color.G), float32(to.G), duration, fn)
	g.tweens[2] = gween.New(float32(m.color.B), float32(to.B), duration, fn)
	g.tweens[3] = gween.New(float32(m.color.A), float32(to.A), duration, fn)
	g.fields[0] = &m.color.R
	g.fields[1] = &m.color.G
	g.fields[2] = &m.color.B
	g.fields[3] = &m.color.A
	return g
}

// tweenRadius animates the marker's radius.
func tweenRadius(m *Marker, to float64, duration float32, fn ease.TweenFunc) *markerTween {
	g := &markerTween{count: 1}
	g.tweens[0] = gween.New(float32(m.radius), float32(to), duration, fn)
	g.fields[0] = &m.radius
	return g
}

// tweenAlpha animates the marker's alpha.
func tweenAlpha(m *Marker, to float64, duration float32, fn ease.TweenFunc) *markerTween {
	g := &markerTween{count: 1}
	g.tweens[0] = gween.New(float32(m.alpha), float32(to), duration, fn)
	g.fields[0] = &m.alpha
	return g
}
