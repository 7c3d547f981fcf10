package input

import (
	"math"
	"math/rand"
	"testing"

	"github.com/calder-gfx/inkflow/config"
	"github.com/calder-gfx/inkflow/fluid"
)

type splatCall struct {
	x, y, dx, dy float32
	color        [3]float32
	radiusScale  float32
}

type recorder struct {
	calls []splatCall
}

func (r *recorder) Splat(x, y, dx, dy float32, color [3]float32, radiusScale float32) {
	r.calls = append(r.calls, splatCall{x, y, dx, dy, color, radiusScale})
}

// stubSource replays one frame of hands per Poll.
type stubSource struct {
	frames [][]Hand
	i      int
}

func (s *stubSource) Poll() []Hand {
	if s.i >= len(s.frames) {
		return nil
	}
	hands := s.frames[s.i]
	s.i++
	return hands
}

func newTestAdapter(t *testing.T, source LandmarkSource) (*Adapter, *fluid.PointerRegistry) {
	t.Helper()
	config.MustInit("")
	rng := rand.New(rand.NewSource(11))
	reg := fluid.NewPointerRegistry(rng)
	return NewAdapter(reg, rng, source, 640, 480), reg
}

func TestPointerDownEmitsTap(t *testing.T) {
	a, _ := newTestAdapter(t, nil)
	rec := &recorder{}

	a.HandleEvent(PointerDown{ID: 0, X: 320, Y: 240})
	a.Apply(rec)

	if len(rec.calls) != 1 {
		t.Fatalf("got %d splats, want 1 tap", len(rec.calls))
	}
	tap := rec.calls[0]
	if tap.dx != 0 || tap.dy != 0 {
		t.Errorf("tap delta = (%v, %v), want zero", tap.dx, tap.dy)
	}
	if tap.radiusScale != 0.7 {
		t.Errorf("tap radius scale = %v, want 0.7", tap.radiusScale)
	}
	if tap.x != 0.5 || tap.y != 0.5 {
		t.Errorf("tap position = (%v, %v), want (0.5, 0.5)", tap.x, tap.y)
	}

	// No further splats while the pointer rests.
	rec.calls = nil
	a.Apply(rec)
	if len(rec.calls) != 0 {
		t.Errorf("idle pointer emitted %d splats", len(rec.calls))
	}
}

func TestMoveDrivenSplat(t *testing.T) {
	a, _ := newTestAdapter(t, nil)
	rec := &recorder{}

	a.HandleEvent(PointerDown{ID: 0, X: 320, Y: 240})
	a.Apply(rec)
	rec.calls = nil

	a.HandleEvent(PointerMove{ID: 0, X: 384, Y: 240})
	a.Apply(rec)

	if len(rec.calls) != 1 {
		t.Fatalf("got %d splats, want 1", len(rec.calls))
	}
	call := rec.calls[0]

	force := config.Cfg().Splat.Force
	// du = 64/640 = 0.1, aspect-corrected by 640/480.
	wantDX := float32(0.1) * (640.0 / 480.0) * force
	if math.Abs(float64(call.dx-wantDX)) > 1e-2 {
		t.Errorf("splat dx = %v, want %v", call.dx, wantDX)
	}
	if call.dy != 0 {
		t.Errorf("splat dy = %v, want 0", call.dy)
	}
	if call.radiusScale != 1 {
		t.Errorf("move splat radius scale = %v, want 1", call.radiusScale)
	}

	// moved is consumed; a second Apply emits nothing.
	rec.calls = nil
	a.Apply(rec)
	if len(rec.calls) != 0 {
		t.Errorf("moved flag not cleared, got %d extra splats", len(rec.calls))
	}
}

func TestPointerUpStopsSplats(t *testing.T) {
	a, _ := newTestAdapter(t, nil)
	rec := &recorder{}

	a.HandleEvent(PointerDown{ID: 0, X: 100, Y: 100})
	a.HandleEvent(PointerUp{ID: 0})
	a.Apply(rec) // tap from the down is still delivered
	rec.calls = nil

	a.HandleEvent(PointerMove{ID: 0, X: 300, Y: 300})
	a.Apply(rec)
	if len(rec.calls) != 0 {
		t.Errorf("released pointer emitted %d splats", len(rec.calls))
	}
}

func TestBurstStackPopsOnePerFrame(t *testing.T) {
	a, _ := newTestAdapter(t, nil)
	rec := &recorder{}

	a.PushBurst(3)
	a.PushBurst(2)

	a.Apply(rec)
	if len(rec.calls) != 2 {
		t.Fatalf("first frame emitted %d splats, want 2 (top of stack)", len(rec.calls))
	}

	rec.calls = nil
	a.Apply(rec)
	if len(rec.calls) != 3 {
		t.Fatalf("second frame emitted %d splats, want 3", len(rec.calls))
	}

	rec.calls = nil
	a.Apply(rec)
	if len(rec.calls) != 0 {
		t.Errorf("empty stack emitted %d splats", len(rec.calls))
	}
}

func TestSpaceKeyPushesBurst(t *testing.T) {
	a, _ := newTestAdapter(t, nil)
	rec := &recorder{}

	a.HandleEvent(Key{Code: "SPACE"})
	a.Apply(rec)

	if len(rec.calls) < 5 || len(rec.calls) > 24 {
		t.Errorf("space burst emitted %d splats, want 5..24", len(rec.calls))
	}
}

func TestPKeyTogglesPause(t *testing.T) {
	a, _ := newTestAdapter(t, nil)

	before := config.Cfg().Sim.Paused
	a.HandleEvent(Key{Code: "P"})
	if config.Cfg().Sim.Paused == before {
		t.Error("P should toggle the paused flag")
	}
	a.HandleEvent(Key{Code: "P"})
	if config.Cfg().Sim.Paused != before {
		t.Error("P twice should restore the paused flag")
	}
}

func TestLandmarkGesture(t *testing.T) {
	openAt := func(x, y float32) Hand {
		h := Hand{Landmarks: make([]Landmark, 21)}
		h.Landmarks[LandmarkThumbTip] = Landmark{X: x - 0.2, Y: y}
		h.Landmarks[LandmarkIndexTip] = Landmark{X: x, Y: y}
		return h
	}
	closed := handWithPinch(0.01)

	source := &stubSource{frames: [][]Hand{
		{openAt(0.3, 0.4)},
		{openAt(0.5, 0.4)},
		{closed},
	}}
	a, reg := newTestAdapter(t, source)
	rec := &recorder{}

	// Frame 0: hand opens, pointer appears, no splat yet.
	a.Apply(rec)
	if len(rec.calls) != 0 {
		t.Fatalf("frame 0 emitted %d splats, want 0", len(rec.calls))
	}
	if reg.Get(landmarkPointerBase) == nil {
		t.Fatal("synthetic pointer missing after open hand")
	}

	// Frame 1: index tip moved right by 0.2; exactly one splat.
	a.Apply(rec)
	if len(rec.calls) != 1 {
		t.Fatalf("frame 1 emitted %d splats, want exactly 1", len(rec.calls))
	}
	call := rec.calls[0]
	force := config.Cfg().Splat.Force
	wantDX := float32(0.2) * (640.0 / 480.0) * force
	if math.Abs(float64(call.dx-wantDX)) > 1 {
		t.Errorf("splat dx = %v, want ~%v", call.dx, wantDX)
	}
	if math.Abs(float64(call.dy)) > 1e-3 {
		t.Errorf("splat dy = %v, want ~0", call.dy)
	}

	// Frame 2: hand closes; pointer removed, no splat.
	rec.calls = nil
	a.Apply(rec)
	if len(rec.calls) != 0 {
		t.Errorf("frame 2 emitted %d splats, want 0", len(rec.calls))
	}
	if reg.Get(landmarkPointerBase) != nil {
		t.Error("synthetic pointer should be removed when the hand closes")
	}
}

func TestLandmarkHandVanishes(t *testing.T) {
	open := func() Hand {
		h := Hand{Landmarks: make([]Landmark, 21)}
		h.Landmarks[LandmarkIndexTip] = Landmark{X: 0.5, Y: 0.5}
		h.Landmarks[LandmarkThumbTip] = Landmark{X: 0.9, Y: 0.5}
		return h
	}

	source := &stubSource{frames: [][]Hand{{open()}, {}}}
	a, reg := newTestAdapter(t, source)
	rec := &recorder{}

	a.Apply(rec)
	if reg.Get(landmarkPointerBase) == nil {
		t.Fatal("pointer missing after open hand")
	}

	a.Apply(rec)
	if reg.Get(landmarkPointerBase) != nil {
		t.Error("pointer should be removed when the hand leaves the frame")
	}
}
