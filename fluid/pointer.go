package fluid

import (
	"math"
	"math/rand"
)

// Pointer is the state of one input source. Coordinates are normalized to
// [0,1] with origin at bottom-left; the v axis is flipped relative to
// surface pixel events.
type Pointer struct {
	ID           int64
	X, Y         float32
	PrevX, PrevY float32
	DX, DY       float32
	Down         bool
	Moved        bool
	Color        [3]float32
}

const moveEpsilon = 1e-5

// PointerRegistry tracks pointer records keyed by id, in insertion order.
type PointerRegistry struct {
	byID  map[int64]*Pointer
	order []*Pointer
	rng   *rand.Rand

	colorTimer float32
}

// NewPointerRegistry creates an empty registry. The rng seeds pointer colors.
func NewPointerRegistry(rng *rand.Rand) *PointerRegistry {
	return &PointerRegistry{
		byID: make(map[int64]*Pointer),
		rng:  rng,
	}
}

// Get returns the pointer with the given id, or nil.
func (r *PointerRegistry) Get(id int64) *Pointer {
	return r.byID[id]
}

// All returns the live pointers in insertion order.
func (r *PointerRegistry) All() []*Pointer {
	return r.order
}

// Down inserts or updates a pointer and presses it at the given surface
// position. An existing color is preserved; a new pointer gets a random one.
func (r *PointerRegistry) Down(id int64, px, py float32, w, h int32) *Pointer {
	p := r.byID[id]
	if p == nil {
		p = &Pointer{ID: id, Color: GenerateColor(r.rng)}
		r.byID[id] = p
		r.order = append(r.order, p)
	}

	p.Down = true
	p.Moved = false
	p.X = px / float32(w)
	p.Y = 1 - py/float32(h)
	p.PrevX = p.X
	p.PrevY = p.Y
	p.DX = 0
	p.DY = 0
	return p
}

// Move advances a pointer to a new surface position, computing the
// aspect-corrected delta. Unknown ids are ignored.
func (r *PointerRegistry) Move(id int64, px, py float32, w, h int32) *Pointer {
	p := r.byID[id]
	if p == nil {
		return nil
	}

	p.PrevX = p.X
	p.PrevY = p.Y
	p.X = px / float32(w)
	p.Y = 1 - py/float32(h)
	p.DX = CorrectDeltaX(p.X-p.PrevX, w, h)
	p.DY = CorrectDeltaY(p.Y-p.PrevY, w, h)
	p.Moved = math.Abs(float64(p.DX))+math.Abs(float64(p.DY)) > moveEpsilon
	return p
}

// Up releases a pointer.
func (r *PointerRegistry) Up(id int64) {
	if p := r.byID[id]; p != nil {
		p.Down = false
		p.Moved = false
	}
}

// Remove deletes a pointer record.
func (r *PointerRegistry) Remove(id int64) {
	if _, ok := r.byID[id]; !ok {
		return
	}
	delete(r.byID, id)
	for i, p := range r.order {
		if p.ID == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// UpdateColors advances the color refresh timer by dt*speed; each time it
// crosses 1.0 every pointer gets a fresh random color.
func (r *PointerRegistry) UpdateColors(dt, speed float32) {
	if speed <= 0 {
		return
	}
	r.colorTimer += dt * speed
	if r.colorTimer < 1 {
		return
	}
	r.colorTimer = float32(math.Mod(float64(r.colorTimer), 1))
	for _, p := range r.order {
		p.Color = GenerateColor(r.rng)
	}
}
