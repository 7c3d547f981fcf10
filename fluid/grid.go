// Package fluid implements the GPU fluid solver: a velocity field and an
// advected dye field on ping-pong half-float textures, integrated with an
// operator-splitting scheme, plus the bloom and sunrays post-effects.
package fluid

import (
	"math"
	"math/rand"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// MaxDT caps the integration step so a suspended window cannot blow up the
// solver on resume.
const MaxDT = 1.0 / 20.0

// ClampDT clamps a raw frame delta to [0, MaxDT] seconds.
func ClampDT(dt float64) float32 {
	if dt < 0 {
		return 0
	}
	if dt > MaxDT {
		return MaxDT
	}
	return float32(dt)
}

// Resolution maps a minor-axis texel count onto a grid that preserves the
// aspect ratio of a w x h surface. The minor axis gets the requested
// resolution; the major axis is rounded to match.
func Resolution(target int, w, h int32) (int32, int32) {
	aspect := float64(w) / float64(h)
	if aspect < 1 {
		aspect = 1 / aspect
	}

	minSide := int32(math.Round(float64(target)))
	maxSide := int32(math.Round(float64(target) * aspect))

	if w > h {
		return maxSide, minSide
	}
	return minSide, maxSide
}

// BloomCurve computes the soft-knee response curve for the bloom prefilter:
// (threshold - knee, 2*knee, 0.25/knee).
func BloomCurve(threshold, softKnee float32) (x, y, z float32) {
	knee := threshold*softKnee + 0.0001
	return threshold - knee, knee * 2, 0.25 / knee
}

// CorrectDeltaX scales a horizontal pointer delta for a wide surface so
// that motion maps onto the square simulation domain uniformly.
func CorrectDeltaX(delta float32, w, h int32) float32 {
	if aspect := float32(w) / float32(h); aspect > 1 {
		return delta * aspect
	}
	return delta
}

// CorrectDeltaY scales a vertical pointer delta for a tall surface.
func CorrectDeltaY(delta float32, w, h int32) float32 {
	if aspect := float32(w) / float32(h); aspect < 1 {
		return delta / aspect
	}
	return delta
}

// GenerateColor returns a bright random hue scaled down to splat intensity.
func GenerateColor(rng *rand.Rand) [3]float32 {
	c := colorful.Hsv(rng.Float64()*360, 1.0, 1.0)
	return [3]float32{
		float32(c.R) * 0.15,
		float32(c.G) * 0.15,
		float32(c.B) * 0.15,
	}
}
