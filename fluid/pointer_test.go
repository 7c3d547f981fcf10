package fluid

import (
	"math/rand"
	"testing"
)

func newTestRegistry() *PointerRegistry {
	return NewPointerRegistry(rand.New(rand.NewSource(1)))
}

func TestPointerDown(t *testing.T) {
	r := newTestRegistry()

	p := r.Down(0, 320, 120, 640, 480)
	if !p.Down {
		t.Error("pointer should be down")
	}
	if p.Moved {
		t.Error("fresh pointer should not be moved")
	}
	if p.X != 0.5 {
		t.Errorf("u = %v, want 0.5", p.X)
	}
	// v axis is flipped: y=120 of 480 is 0.75 from the bottom.
	if p.Y != 0.75 {
		t.Errorf("v = %v, want 0.75", p.Y)
	}
	if p.PrevX != p.X || p.PrevY != p.Y {
		t.Error("previous position should equal current on down")
	}
	if p.DX != 0 || p.DY != 0 {
		t.Error("delta should be zero on down")
	}
}

func TestPointerDownPreservesColor(t *testing.T) {
	r := newTestRegistry()

	p := r.Down(0, 100, 100, 640, 480)
	color := p.Color
	if color == [3]float32{} {
		t.Fatal("new pointer should get a non-zero random color")
	}

	r.Up(0)
	p2 := r.Down(0, 200, 200, 640, 480)
	if p2.Color != color {
		t.Error("existing pointer color must be preserved across down events")
	}
}

func TestPointerMove(t *testing.T) {
	r := newTestRegistry()
	r.Down(0, 320, 240, 640, 480)

	p := r.Move(0, 352, 240, 640, 480)
	if !p.Moved {
		t.Error("pointer should be moved after a real displacement")
	}
	if p.PrevX != 0.5 {
		t.Errorf("prev u = %v, want 0.5", p.PrevX)
	}
	wantU := float32(352.0 / 640.0)
	if p.X != wantU {
		t.Errorf("u = %v, want %v", p.X, wantU)
	}
	// 640x480 is wide, so the horizontal delta is scaled by the aspect.
	wantDX := (wantU - 0.5) * (640.0 / 480.0)
	if diff := p.DX - wantDX; diff > 1e-6 || diff < -1e-6 {
		t.Errorf("dx = %v, want %v", p.DX, wantDX)
	}
}

func TestPointerMoveIdenticalPosition(t *testing.T) {
	r := newTestRegistry()
	r.Down(0, 320, 240, 640, 480)

	p := r.Move(0, 320, 240, 640, 480)
	if p.Moved {
		t.Error("identical position must not set moved")
	}
	if p.DX != 0 || p.DY != 0 {
		t.Errorf("delta = (%v, %v), want zero", p.DX, p.DY)
	}
}

func TestPointerMoveUnknownID(t *testing.T) {
	r := newTestRegistry()
	if p := r.Move(99, 10, 10, 640, 480); p != nil {
		t.Error("move on unknown id should be ignored")
	}
}

func TestPointerUpAndRemove(t *testing.T) {
	r := newTestRegistry()
	r.Down(0, 320, 240, 640, 480)
	r.Move(0, 352, 240, 640, 480)

	r.Up(0)
	p := r.Get(0)
	if p.Down || p.Moved {
		t.Error("up must clear down and moved")
	}

	r.Remove(0)
	if r.Get(0) != nil {
		t.Error("remove must delete the record")
	}
	if len(r.All()) != 0 {
		t.Error("removed pointer should not be iterated")
	}
}

func TestPointerInsertionOrder(t *testing.T) {
	r := newTestRegistry()
	r.Down(3, 0, 0, 100, 100)
	r.Down(1, 0, 0, 100, 100)
	r.Down(2, 0, 0, 100, 100)
	r.Remove(1)

	var ids []int64
	for _, p := range r.All() {
		ids = append(ids, p.ID)
	}
	want := []int64{3, 2}
	if len(ids) != len(want) || ids[0] != want[0] || ids[1] != want[1] {
		t.Errorf("iteration order = %v, want %v", ids, want)
	}
}

func TestUpdateColors(t *testing.T) {
	r := newTestRegistry()
	p := r.Down(0, 0, 0, 100, 100)
	before := p.Color

	// Below the refresh threshold: color untouched.
	r.UpdateColors(0.05, 10) // timer 0.5
	if p.Color != before {
		t.Error("color refreshed before timer crossed 1.0")
	}

	// Crossing 1.0 refreshes every pointer and wraps the timer.
	r.UpdateColors(0.06, 10) // timer 1.1
	if p.Color == before {
		t.Error("color should refresh when timer crosses 1.0")
	}
	if r.colorTimer < 0 || r.colorTimer >= 1 {
		t.Errorf("timer = %v, want wrapped into [0,1)", r.colorTimer)
	}
}

func TestUpdateColorsZeroSpeed(t *testing.T) {
	r := newTestRegistry()
	p := r.Down(0, 0, 0, 100, 100)
	before := p.Color

	for i := 0; i < 100; i++ {
		r.UpdateColors(1.0, 0)
	}
	if p.Color != before {
		t.Error("zero speed must never refresh colors")
	}
}
