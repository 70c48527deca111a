// Package syncpool implements the persistence boundary between the live
// world and durable storage: monotonic id allocators, an in-memory cache
// of recently observed bodies, load-on-demand by id or nickname, and a
// bulk snapshot writer. It replaces the CRDT/vector-clock protocol the
// teacher used for multi-peer sync — this server has exactly one
// authoritative world behind one lock, so there is no causality to track.
package syncpool

import (
	"math"
	"math/rand"

	"github.com/neotene/spacebuild/logging"
	"github.com/neotene/spacebuild/store"
	"github.com/neotene/spacebuild/world"
)

// Pool is the sync pool. Callers (the engine package) hold the single
// world-wide lock around every method; Pool performs no locking of its
// own, matching "co-located with the world behind the same mutex".
type Pool struct {
	store *store.DB

	cache         map[world.Id]*world.CelestialBody
	nicknameIndex map[string]world.Id

	bodyNextID   world.Id
	playerNextID world.Id
}

// New seeds both id allocators from the store's current max id (or 1 if
// the respective table is empty) and returns an empty-cache pool.
func New(db *store.DB) (*Pool, error) {
	bodyMax, err := db.ScalarMax(store.TableBody, "id")
	if err != nil {
		return nil, err
	}
	playerMax, err := db.ScalarMax(store.TablePlayer, "id")
	if err != nil {
		return nil, err
	}

	return &Pool{
		store:         db,
		cache:         make(map[world.Id]*world.CelestialBody),
		nicknameIndex: make(map[string]world.Id),
		bodyNextID:    bodyMax + 1,
		playerNextID:  playerMax + 1,
	}, nil
}

func (p *Pool) nextBodyID() world.Id {
	id := p.bodyNextID
	p.bodyNextID++
	return id
}

func (p *Pool) nextPlayerID() world.Id {
	id := p.playerNextID
	p.playerNextID++
	return id
}

// NewStar allocates a fresh star body with default fields and caches it.
func (p *Pool) NewStar() *world.CelestialBody {
	b := &world.CelestialBody{
		Id:            p.nextBodyID(),
		GravityCenter: world.IdNone,
		Entity:        world.Star{},
	}
	p.cache[b.Id] = b
	return b
}

// NewPlanet allocates a fresh planet orbiting gravityCenter.
func (p *Pool) NewPlanet(gravityCenter world.Id, coords world.Vector3, orbitSpeed float64) *world.CelestialBody {
	b := &world.CelestialBody{
		Id:            p.nextBodyID(),
		GravityCenter: gravityCenter,
		Coords:        coords,
		LocalSpeed:    orbitSpeed,
		Entity:        world.Planet{},
	}
	p.cache[b.Id] = b
	return b
}

// NewMoon allocates a fresh moon orbiting gravityCenter (a planet).
func (p *Pool) NewMoon(gravityCenter world.Id, coords world.Vector3, orbitSpeed float64) *world.CelestialBody {
	b := &world.CelestialBody{
		Id:            p.nextBodyID(),
		GravityCenter: gravityCenter,
		Coords:        coords,
		LocalSpeed:    orbitSpeed,
		Entity:        world.Moon{},
	}
	p.cache[b.Id] = b
	return b
}

// NewAsteroids allocates n fresh asteroids orbiting gravityCenter, using
// placement randomly distributed at the supplied radius.
func (p *Pool) NewAsteroids(n int, gravityCenter world.Id, radius float64) []*world.CelestialBody {
	bodies := make([]*world.CelestialBody, 0, n)
	for i := 0; i < n; i++ {
		angle := rand.Float64() * 2 * math.Pi
		b := &world.CelestialBody{
			Id:            p.nextBodyID(),
			GravityCenter: gravityCenter,
			Coords: world.Vector3{
				X: radius * math.Cos(angle),
				Y: radius * math.Sin(angle),
			},
			LocalSpeed: 0.01 + rand.Float64()*0.05,
			Entity:     world.Asteroid{},
		}
		p.cache[b.Id] = b
		bodies = append(bodies, b)
	}
	return bodies
}

// NewPlayer allocates a fresh body id and a fresh, independent player id,
// wires in the caller-owned outbound channel, and caches both the body
// and its nickname.
func (p *Pool) NewPlayer(nickname string, outbound chan []byte) *world.CelestialBody {
	playerID := p.nextPlayerID()
	player := world.NewPlayerEntity(playerID, nickname)
	player.Outbound = outbound

	b := &world.CelestialBody{
		Id:            p.nextBodyID(),
		GravityCenter: world.IdNone,
		Entity:        player,
	}
	p.cache[b.Id] = b
	p.nicknameIndex[nickname] = b.Id
	return b
}

// GetBody returns a body from the cache, or loads it from disk by
// probing each subtable for a body_id match and assembling the entity
// variant, on a cache miss.
func (p *Pool) GetBody(id world.Id) (*world.CelestialBody, error) {
	if b, ok := p.cache[id]; ok {
		return b, nil
	}

	b, err := p.loadBodyRow(id)
	if err != nil {
		return nil, err
	}
	p.cache[id] = b
	return b, nil
}

// GetPlayer looks up a player by nickname, cache-first; on a cache miss
// it selects the Player row then the linked Body row.
func (p *Pool) GetPlayer(nickname string, outbound chan []byte) (*world.CelestialBody, error) {
	if id, ok := p.nicknameIndex[nickname]; ok {
		return p.cache[id], nil
	}

	bodyID, playerID, err := p.loadPlayerRowByNickname(nickname)
	if err != nil {
		return nil, err
	}

	b, err := p.loadBodyRowWithEntity(bodyID, &world.Player{PlayerId: playerID, Nickname: nickname, Outbound: outbound})
	if err != nil {
		return nil, err
	}
	p.cache[bodyID] = b
	p.nicknameIndex[nickname] = bodyID
	return b, nil
}

// GetRotatings returns the transitive closure of non-player bodies
// reachable from starID by following gravity_center, via a worklist over
// Body WHERE gravity_center = ?.
func (p *Pool) GetRotatings(starID world.Id) ([]*world.CelestialBody, error) {
	var result []*world.CelestialBody
	worklist := []world.Id{starID}
	seen := map[world.Id]bool{}

	for len(worklist) > 0 {
		current := worklist[0]
		worklist = worklist[1:]

		children, err := p.loadChildrenOf(current)
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			if seen[child.Id] {
				continue
			}
			seen[child.Id] = true
			if !child.IsPlayer() {
				result = append(result, child)
				worklist = append(worklist, child.Id)
			}
		}
	}
	return result, nil
}

// SyncBody refreshes the cache with a live snapshot; it never touches disk.
func (p *Pool) SyncBody(b *world.CelestialBody) {
	p.cache[b.Id] = b
}

// Sync refreshes the cache for every body in bodies.
func (p *Pool) Sync(bodies []*world.CelestialBody) {
	for _, b := range bodies {
		p.cache[b.Id] = b
	}
}

// Save flushes every cached body to disk: one row into Body and one row
// into the matching subtable, issued as one bulk upsert per table.
func (p *Pool) Save() error {
	if err := p.saveBodies(); err != nil {
		return err
	}
	if err := p.savePlayers(); err != nil {
		return err
	}
	if err := p.saveSubtables(); err != nil {
		return err
	}
	logging.Info("sync pool save completed", map[string]interface{}{"cached_bodies": len(p.cache)})
	return nil
}

