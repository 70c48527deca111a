package world

import (
	"math"

	"github.com/neotene/spacebuild/memory"
	"github.com/neotene/spacebuild/protocol"
)

// StepConfig carries the tuning constants the step algorithm needs:
// the tick motion scaling factor, the observation visibility radius,
// the per-frame body batch size, and whether a rotating body's children
// should inherit its translation (reserved, disabled by default).
type StepConfig struct {
	TickScalingFactor         float64
	VisibilityRadius          float64
	BatchSize                 int
	TranslateRotatingChildren bool
}

// Update advances every live body by one tick. deltaSeconds is the
// measured wall time since the previous tick; it is scaled by
// cfg.TickScalingFactor before being applied to motion. Update never
// errors: a dangling gravity_center is tolerated as "no orbit advance"
// for that body this tick.
func (w *World) Update(deltaSeconds float64, cfg StepConfig) {
	scaled := deltaSeconds * cfg.TickScalingFactor
	snapshot := w.Snapshot()

	for _, b := range snapshot {
		if p, ok := b.AsPlayer(); ok {
			w.stepPlayer(b, p, scaled)
			w.emitObservations(b, p, cfg)
			continue
		}
		w.stepOrbiting(b, scaled)
	}

	for _, b := range snapshot {
		w.index.Insert(b.Id, toPoint(b.Coords))
	}
}

// stepPlayer integrates a player's translation from its latest intent
// and leaves LocalDirection set to the commanded direction for the next
// tick's observation and for bookkeeping.
func (w *World) stepPlayer(b *CelestialBody, p *Player, deltaSeconds float64) {
	intents := p.DrainIntents()
	direction := Vector3{}
	if len(intents) > 0 {
		latest := intents[len(intents)-1]
		if latest.ThrottleUp && !latest.Direction.IsZero() {
			direction = latest.Direction.Normalize()
		}
	} else {
		direction = b.LocalDirection
	}

	b.LocalDirection = direction
	if !direction.IsZero() {
		b.Coords = b.Coords.Add(direction.Scale(b.LocalSpeed * deltaSeconds))
	}
}

// stepOrbiting advances a gravitating body's azimuthal angle around its
// parent. Bodies with no live gravity_center (or one pointing nowhere,
// including a dangling reference) are left untouched this tick.
func (w *World) stepOrbiting(b *CelestialBody, deltaSeconds float64) {
	if b.GravityCenter == IdNone {
		return
	}
	parent, ok := w.bodies[b.GravityCenter]
	if !ok {
		return
	}

	rel := b.Coords.Sub(parent.Coords)
	radiusXY := math.Hypot(rel.X, rel.Y)
	phi := math.Atan2(rel.Y, rel.X)
	phi = wrapAngle(phi + b.LocalSpeed*deltaSeconds)

	b.Coords = Vector3{
		X: parent.Coords.X + radiusXY*math.Cos(phi),
		Y: parent.Coords.Y + radiusXY*math.Sin(phi),
		Z: b.Coords.Z,
	}
}

// wrapAngle normalizes phi into (-pi, pi].
func wrapAngle(phi float64) float64 {
	for phi > math.Pi {
		phi -= 2 * math.Pi
	}
	for phi <= -math.Pi {
		phi += 2 * math.Pi
	}
	return phi
}

// emitObservations pushes this tick's Player and BodiesInSystem frames
// onto the player's bounded outbound channel. Emission is best-effort:
// a full channel drops its oldest queued message rather than blocking
// the tick or killing the session.
func (w *World) emitObservations(self *CelestialBody, p *Player, cfg StepConfig) {
	w.send(p, protocol.GameInfo{Player: &protocol.PlayerInfo{Coords: self.Coords.Array()}})

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = protocol.MaxBodiesPerFrame
	}
	if batchSize > protocol.MaxBodiesPerFrame {
		batchSize = protocol.MaxBodiesPerFrame
	}

	nearby := w.index.Radius(toPoint(self.Coords), cfg.VisibilityRadius)
	batch := make([]protocol.BodyInfo, 0, batchSize)
	for _, id := range nearby {
		if id == self.Id {
			continue
		}
		other, ok := w.bodies[id]
		if !ok {
			continue
		}
		batch = append(batch, protocol.BodyInfo{
			Coords:        other.Coords.Array(),
			RotatingSpeed: other.RotatingSpeed,
			GravityCenter: other.GravityCenter,
			Id:            other.Id,
			ElementType:   string(other.Entity.Kind()),
		})
		if len(batch) == batchSize {
			w.send(p, protocol.GameInfo{BodiesInSystem: batch})
			batch = make([]protocol.BodyInfo, 0, batchSize)
		}
	}
	if len(batch) > 0 {
		w.send(p, protocol.GameInfo{BodiesInSystem: batch})
	}
}

func (w *World) send(p *Player, msg protocol.GameInfo) {
	enc, buf := memory.GetJSONEncoder()
	defer memory.PutJSONEncoder(enc, buf)

	if err := enc.Encode(msg); err != nil {
		return
	}
	data := make([]byte, buf.Len())
	copy(data, buf.Bytes())

	select {
	case p.Outbound <- data:
		return
	default:
	}

	// Channel full: drop the oldest queued observation, then retry once.
	select {
	case <-p.Outbound:
	default:
	}
	select {
	case p.Outbound <- data:
	default:
	}
}
