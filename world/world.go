package world

import "github.com/neotene/spacebuild/spatial"

// DefaultOutboundCapacity is the bounded size of a player's observation
// queue; on overflow the step drops the oldest queued message.
const DefaultOutboundCapacity = 1000

// NewPlayerEntity allocates a Player variant with its own bounded
// observation channel. The world step is the producer; the session that
// authenticated this player is the sole consumer.
func NewPlayerEntity(playerId Id, nickname string) *Player {
	return &Player{
		PlayerId: playerId,
		Nickname: nickname,
		Outbound: make(chan []byte, DefaultOutboundCapacity),
	}
}

func toPoint(v Vector3) spatial.Point {
	return spatial.Point{X: v.X, Y: v.Y, Z: v.Z}
}

// World is the authoritative mutable container of live celestial bodies.
// It wraps the spatial index plus an id→body lookup and owns the
// simulation step. Callers (the engine package) are responsible for
// holding the single world-wide mutex around every method here; World
// itself performs no locking so the whole-world critical section can
// span a full tick, an authentication, a leave, or a save.
type World struct {
	index  *spatial.Index
	bodies map[Id]*CelestialBody
}

// New creates an empty world. cellSize tunes the spatial grid's bucket
// size; it should be on the order of the visibility radius.
func New(cellSize float64) *World {
	return &World{
		index:  spatial.New(cellSize),
		bodies: make(map[Id]*CelestialBody),
	}
}

// Insert adds b to the live world, indexing it by position.
func (w *World) Insert(b *CelestialBody) {
	w.bodies[b.Id] = b
	w.index.Insert(b.Id, toPoint(b.Coords))
}

// Remove drops id from both the id map and the spatial index.
func (w *World) Remove(id Id) {
	delete(w.bodies, id)
	w.index.Remove(id)
}

// Get looks up a live body by id.
func (w *World) Get(id Id) (*CelestialBody, bool) {
	b, ok := w.bodies[id]
	return b, ok
}

// Len reports the number of live bodies.
func (w *World) Len() int {
	return len(w.bodies)
}

// Snapshot returns every live body. The slice is a new allocation but
// the bodies themselves are shared pointers, matching "snapshot the
// index into a working list" from the step algorithm.
func (w *World) Snapshot() []*CelestialBody {
	list := make([]*CelestialBody, 0, len(w.bodies))
	for _, b := range w.bodies {
		list = append(list, b)
	}
	return list
}

// Leave removes a player body from the world. Idempotent: removing an
// id that is not present is a no-op.
func (w *World) Leave(id Id) {
	if b, ok := w.bodies[id]; ok {
		if p, ok := b.AsPlayer(); ok {
			p.DrainIntents()
		}
	}
	w.Remove(id)
}

// RadiusIds returns every body id within r of center. Exposed so the
// sync pool's get_rotatings-style lookups and the admin endpoints can
// reuse the same index without duplicating the grid.
func (w *World) RadiusIds(center Vector3, r float64) []Id {
	return w.index.Radius(toPoint(center), r)
}
