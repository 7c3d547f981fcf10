package input

import (
	"math/rand"

	"github.com/calder-gfx/inkflow/config"
	"github.com/calder-gfx/inkflow/fluid"
)

// Splatter receives Gaussian momentum/dye injections. The simulator is the
// production implementation; tests substitute a recorder.
type Splatter interface {
	Splat(x, y, dx, dy float32, color [3]float32, radiusScale float32)
}

// Synthetic pointers driven by hand landmarks live far above any plausible
// touch id.
const landmarkPointerBase int64 = 1 << 20

// tapRadiusScale shrinks the one-shot splat emitted when a pointer goes down.
const tapRadiusScale = 0.7

type oneShot struct {
	x, y  float32
	color [3]float32
}

// Adapter turns events and landmark frames into pointer registry updates
// and per-frame splats.
type Adapter struct {
	pointers *fluid.PointerRegistry
	rng      *rand.Rand
	source   LandmarkSource

	width, height int32

	pending    []oneShot
	splatStack []int
	lmActive   map[int64]bool
}

// NewAdapter wires the adapter to a pointer registry and an optional
// landmark source (nil disables landmark mode).
func NewAdapter(pointers *fluid.PointerRegistry, rng *rand.Rand, source LandmarkSource, w, h int32) *Adapter {
	return &Adapter{
		pointers: pointers,
		rng:      rng,
		source:   source,
		width:    w,
		height:   h,
		lmActive: make(map[int64]bool),
	}
}

// SetSurfaceSize updates the pixel dimensions used to normalize coordinates.
func (a *Adapter) SetSurfaceSize(w, h int32) {
	a.width = w
	a.height = h
}

// HandleEvent applies one raw event. Pointer downs queue a one-shot tap
// splat that Apply flushes on the next frame.
func (a *Adapter) HandleEvent(ev Event) {
	switch e := ev.(type) {
	case PointerDown:
		p := a.pointers.Down(e.ID, e.X, e.Y, a.width, a.height)
		a.pending = append(a.pending, oneShot{x: p.X, y: p.Y, color: p.Color})
	case PointerMove:
		a.pointers.Move(e.ID, e.X, e.Y, a.width, a.height)
	case PointerUp:
		a.pointers.Up(e.ID)
	case PointerCancel:
		a.pointers.Remove(e.ID)
	case Key:
		a.handleKey(e.Code)
	}
}

func (a *Adapter) handleKey(code string) {
	switch code {
	case "P":
		cfg := config.Cfg()
		cfg.Sim.Paused = !cfg.Sim.Paused
	case "SPACE":
		a.PushBurst(5 + a.rng.Intn(20))
	}
}

// PushBurst queues a random splat burst of the given size.
func (a *Adapter) PushBurst(count int) {
	a.splatStack = append(a.splatStack, count)
}

// Apply runs once per frame: landmark polling, queued taps, move-driven
// pointer splats, and at most one burst popped off the stack.
func (a *Adapter) Apply(s Splatter) {
	a.pollLandmarks()

	for _, tap := range a.pending {
		s.Splat(tap.x, tap.y, 0, 0, tap.color, tapRadiusScale)
	}
	a.pending = a.pending[:0]

	force := config.Cfg().Splat.Force
	for _, p := range a.pointers.All() {
		if p.Down && p.Moved {
			p.Moved = false
			s.Splat(p.X, p.Y, p.DX*force, p.DY*force, p.Color, 1)
		}
	}

	if n := len(a.splatStack); n > 0 {
		count := a.splatStack[n-1]
		a.splatStack = a.splatStack[:n-1]
		a.randomSplats(s, count)
	}
}

// randomSplats scatters count splats at random positions and directions.
func (a *Adapter) randomSplats(s Splatter, count int) {
	for i := 0; i < count; i++ {
		color := fluid.GenerateColor(a.rng)
		for c := range color {
			color[c] *= 10
		}
		x := a.rng.Float32()
		y := a.rng.Float32()
		dx := 1000 * (a.rng.Float32() - 0.5)
		dy := 1000 * (a.rng.Float32() - 0.5)
		s.Splat(x, y, dx, dy, color, 1)
	}
}

// pollLandmarks maps open hands onto synthetic pointers: the pointer tracks
// the index tip and stays down while the hand is open; a closed or vanished
// hand removes its pointer.
func (a *Adapter) pollLandmarks() {
	if a.source == nil {
		return
	}
	hands := a.source.Poll()

	seen := make(map[int64]bool, len(hands))
	for i, hand := range hands {
		id := landmarkPointerBase + int64(i)
		if !hand.Open() {
			a.pointers.Remove(id)
			delete(a.lmActive, id)
			continue
		}

		tip := hand.IndexTip()
		px := tip.X * float32(a.width)
		py := tip.Y * float32(a.height)

		if a.pointers.Get(id) == nil {
			a.pointers.Down(id, px, py, a.width, a.height)
		} else {
			a.pointers.Move(id, px, py, a.width, a.height)
		}
		seen[id] = true
		a.lmActive[id] = true
	}

	for id := range a.lmActive {
		if !seen[id] {
			a.pointers.Remove(id)
			delete(a.lmActive, id)
		}
	}
}
