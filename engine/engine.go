// Package engine owns the single mutex that guards the live world and its
// sync pool together, matching the one-critical-section design: every
// mutation of either the spatial index or the cached bodies happens with
// the same lock held, so a reader never observes the two structures out
// of step with each other.
package engine

import (
	"errors"
	"fmt"
	"sync"

	"github.com/neotene/spacebuild/logging"
	"github.com/neotene/spacebuild/protoerr"
	"github.com/neotene/spacebuild/syncpool"
	"github.com/neotene/spacebuild/universegen"
	"github.com/neotene/spacebuild/world"
)

// Engine is the authoritative world: one World, one Pool, one mutex.
type Engine struct {
	mu sync.Mutex

	world *world.World
	pool  *syncpool.Pool

	tunables universegen.Tunables
	step     world.StepConfig

	// live maps a nickname currently occupying a session to its player's
	// body id (not its player id — the two are independent allocator
	// sequences, see DESIGN.md). Presence of the key doubles as the
	// duplicate-login guard; the value is the lookup key AppendIntent and
	// Leave use against the World/Pool, which are keyed by body id.
	live map[string]world.Id
}

// New wires a World, a Pool, generation tunables and step parameters into
// one Engine.
func New(w *world.World, pool *syncpool.Pool, tunables universegen.Tunables, step world.StepConfig) *Engine {
	return &Engine{
		world:    w,
		pool:     pool,
		tunables: tunables,
		step:     step,
		live:     make(map[string]world.Id),
	}
}

// Authenticate logs a nickname into the live world. An unrecognized
// nickname procedurally spawns a new home system and a player anchored to
// its star; a recognized one is reloaded from disk along with the bodies
// orbiting its home star. Returns the assigned player id (distinct from
// the player's body id) for the wire AuthInfo.message.
func (e *Engine) Authenticate(nickname string, outbound chan []byte) (world.Id, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.live[nickname]; ok {
		return 0, fmt.Errorf("nickname %q: %w", nickname, protoerr.ErrPlayerAlreadyAuthenticated)
	}

	body, err := e.pool.GetPlayer(nickname, outbound)
	switch {
	case err == nil:
		if err := e.reloadHomeSystem(body); err != nil {
			return 0, err
		}
	case errors.Is(err, protoerr.ErrPlayerByNicknameNotFound):
		star, bodies := universegen.GenerateSystem(e.pool, e.tunables)
		for _, b := range bodies {
			e.world.Insert(b)
		}
		body = universegen.SpawnPlayer(e.pool, nickname, star, outbound, e.tunables)
	default:
		return 0, err
	}

	player, ok := body.AsPlayer()
	if !ok {
		return 0, fmt.Errorf("body %d: %w", body.Id, protoerr.ErrBodyNotFound)
	}
	// GetPlayer may have returned a cached body from a previous session
	// whose Outbound channel belongs to a connection that already closed.
	player.Outbound = outbound

	e.world.Insert(body)
	e.live[nickname] = body.Id

	logging.Info("player authenticated", map[string]interface{}{
		"nickname":  nickname,
		"player_id": player.PlayerId,
		"body_id":   body.Id,
	})
	return player.PlayerId, nil
}

// reloadHomeSystem loads the player's home star and every rotating body
// beneath it into the live world, so a returning player sees their system
// populated without waiting for someone else to regenerate it.
func (e *Engine) reloadHomeSystem(body *world.CelestialBody) error {
	if body.GravityCenter == world.IdNone {
		return nil
	}
	star, err := e.pool.GetBody(body.GravityCenter)
	if err != nil {
		return err
	}
	e.world.Insert(star)

	rotatings, err := e.pool.GetRotatings(star.Id)
	if err != nil {
		return err
	}
	for _, b := range rotatings {
		e.world.Insert(b)
	}
	return nil
}

// AppendIntent queues a throttle/direction intent for the named player's
// body, to be consumed on the next Step.
func (e *Engine) AppendIntent(playerID world.Id, nickname string, intent world.Intent) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	bodyID, ok := e.live[nickname]
	if !ok {
		return fmt.Errorf("nickname %q: %w", nickname, protoerr.ErrPlayerByNicknameNotFound)
	}
	body, err := e.pool.GetBody(bodyID)
	if err != nil {
		return err
	}
	player, ok := body.AsPlayer()
	if !ok || player.PlayerId != playerID {
		return fmt.Errorf("body %d: %w", bodyID, protoerr.ErrBodyNotFound)
	}
	player.PushIntent(intent)
	return nil
}

// Leave removes a player from the live world and drops its live-session
// claim on the nickname, but leaves the body cached for the next Save.
func (e *Engine) Leave(nickname string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	bodyID, ok := e.live[nickname]
	if !ok {
		return
	}
	delete(e.live, nickname)
	e.world.Leave(bodyID)
}

// Step advances the whole world by deltaSeconds under the single lock.
func (e *Engine) Step(deltaSeconds float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.world.Update(deltaSeconds, e.step)
	e.pool.Sync(e.world.Snapshot())
}

// Save flushes the sync pool to disk under the single lock.
func (e *Engine) Save() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pool.Save()
}

// BodyCount reports how many bodies are currently live, for /stats.
func (e *Engine) BodyCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.world.Len()
}
