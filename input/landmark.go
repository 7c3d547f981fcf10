package input

import "math"

// Landmark indices of interest in the 21-point hand model.
const (
	LandmarkThumbTip = 4
	LandmarkIndexTip = 8
)

// openThreshold is the normalized thumb-tip/index-tip distance a hand must
// strictly exceed to count as open.
const openThreshold = 0.15

// Landmark is one normalized hand keypoint, (x, y) in [0,1], origin
// top-left like the detector's image space.
type Landmark struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

// Hand is one detected hand: 21 landmarks per frame.
type Hand struct {
	Landmarks []Landmark `json:"landmarks"`
}

// Open reports the pinch gesture state: the hand is open when thumb tip and
// index tip are strictly more than the threshold apart. A hand with too few
// landmarks reads as closed.
func (h Hand) Open() bool {
	if len(h.Landmarks) <= LandmarkIndexTip {
		return false
	}
	thumb := h.Landmarks[LandmarkThumbTip]
	index := h.Landmarks[LandmarkIndexTip]
	dx := float64(thumb.X - index.X)
	dy := float64(thumb.Y - index.Y)
	return math.Hypot(dx, dy) > openThreshold
}

// IndexTip returns the landmark the synthetic pointer follows.
func (h Hand) IndexTip() Landmark {
	return h.Landmarks[LandmarkIndexTip]
}

// LandmarkSource yields the hands visible this frame. Polled once per
// frame; implementations need not guarantee hand ordering across frames.
type LandmarkSource interface {
	Poll() []Hand
}
