// Package render draws the angle images shown to players: two rays from the
// origin with the true span arced between them. The base ray is randomly
// oriented so the vertical axis gives nothing away.
package render

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
)

const (
	size      = 400
	center    = size / 2
	rayLen    = 160.0
	arcRadius = 48.0
)

// Angle renders an SVG of the given angle in [0, 359]. The label is only
// drawn for the reveal phase; pre-resolution callers must pass false.
func Angle(angle int, showLabel bool) []byte {
	return AngleWithBase(angle, rand.IntN(360), showLabel)
}

// AngleWithBase is Angle with a fixed base-ray orientation, split out so
// rendering stays deterministic under test.
func AngleWithBase(angle, baseDeg int, showLabel bool) []byte {
	rad1 := float64(baseDeg) * math.Pi / 180
	rad2 := rad1 + float64(angle)*math.Pi/180

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`,
		size, size, size, size)
	fmt.Fprintf(&b, `<circle cx="%d" cy="%d" r="%.0f" fill="none" stroke="#999" stroke-dasharray="6 6" opacity="0.4"/>`,
		center, center, rayLen)

	b.WriteString(ray(rad1))
	b.WriteString(ray(rad2))

	// Sweep the true span, reflex angles included, as a polyline so the
	// wraparound across 0 needs no arc-flag bookkeeping.
	b.WriteString(`<polyline fill="none" stroke="#d33" stroke-width="2" points="`)
	const steps = 120
	for i := 0; i <= steps; i++ {
		theta := rad1 + (rad2-rad1)*float64(i)/steps
		x, y := polar(theta, arcRadius)
		fmt.Fprintf(&b, "%.1f,%.1f ", x, y)
	}
	b.WriteString(`"/>`)

	if showLabel {
		mid := (rad1 + rad2) / 2
		x, y := polar(mid, arcRadius+28)
		fmt.Fprintf(&b, `<text x="%.1f" y="%.1f" text-anchor="middle" fill="#d33" font-size="20" font-weight="bold">%d&#176;</text>`,
			x, y, angle)
	}

	b.WriteString(`</svg>`)
	return []byte(b.String())
}

func ray(theta float64) string {
	x, y := polar(theta, rayLen)
	return fmt.Sprintf(`<line x1="%d" y1="%d" x2="%.1f" y2="%.1f" stroke="#000" stroke-width="2"/>`,
		center, center, x, y)
}

// polar maps math coordinates onto the SVG grid, whose y axis points down.
func polar(theta, r float64) (x, y float64) {
	return center + r*math.Cos(theta), center - r*math.Sin(theta)
}
