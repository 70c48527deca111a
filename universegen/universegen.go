// Package universegen procedurally seeds a star-centered system the
// first time an unrecognized nickname authenticates: one star, several
// planets each with a handful of moons, and a field of asteroids, all
// anchored to the star via gravity_center. Generation ranges are loaded
// from a YAML tunables file, following the teacher's convention of
// driving world/scene parameters from a yaml.Unmarshal-decoded config
// rather than literal constants scattered through the generator.
package universegen

import (
	"math/rand"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/neotene/spacebuild/syncpool"
	"github.com/neotene/spacebuild/world"
)

// Tunables holds the ranges consulted when generating a new system.
type Tunables struct {
	MinPlanets      int     `yaml:"min_planets"`
	MaxPlanets      int     `yaml:"max_planets"`
	MinMoonsPerBody int     `yaml:"min_moons_per_body"`
	MaxMoonsPerBody int     `yaml:"max_moons_per_body"`
	MinAsteroids    int     `yaml:"min_asteroids"`
	MaxAsteroids    int     `yaml:"max_asteroids"`
	MinOrbitRadius  float64 `yaml:"min_orbit_radius"`
	MaxOrbitRadius  float64 `yaml:"max_orbit_radius"`
	PlayerCruiseSpeed float64 `yaml:"player_cruise_speed"`
}

// DefaultTunables match spec.md's generation ranges (5-15 planets,
// 0-2 moons each, 500-2500 asteroids) when no tunables file is present.
func DefaultTunables() Tunables {
	return Tunables{
		MinPlanets:        5,
		MaxPlanets:        15,
		MinMoonsPerBody:   0,
		MaxMoonsPerBody:   2,
		MinAsteroids:      500,
		MaxAsteroids:      2500,
		MinOrbitRadius:    500,
		MaxOrbitRadius:    50000,
		PlayerCruiseSpeed: 50,
	}
}

// LoadTunables reads a YAML tunables file, falling back to
// DefaultTunables if the file does not exist.
func LoadTunables(path string) (Tunables, error) {
	t := DefaultTunables()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return t, nil
		}
		return t, err
	}
	if err := yaml.Unmarshal(data, &t); err != nil {
		return t, err
	}
	return t, nil
}

func intInRange(min, max int) int {
	if max <= min {
		return min
	}
	return min + rand.Intn(max-min+1)
}

func floatInRange(min, max float64) float64 {
	if max <= min {
		return min
	}
	return min + rand.Float64()*(max-min)
}

// GenerateSystem creates one star, several planets with moons, and a
// field of asteroids, all anchored to the star. It returns the star and
// every body created (star included) so the caller can insert the whole
// system into the live world in one step.
func GenerateSystem(pool *syncpool.Pool, t Tunables) (star *world.CelestialBody, all []*world.CelestialBody) {
	star = pool.NewStar()
	all = append(all, star)

	planetCount := intInRange(t.MinPlanets, t.MaxPlanets)
	for i := 0; i < planetCount; i++ {
		orbitRadius := floatInRange(t.MinOrbitRadius, t.MaxOrbitRadius)
		coords := world.Vector3{X: orbitRadius}
		orbitSpeed := floatInRange(0.01, 0.2)
		planet := pool.NewPlanet(star.Id, coords, orbitSpeed)
		all = append(all, planet)

		moonCount := intInRange(t.MinMoonsPerBody, t.MaxMoonsPerBody)
		for m := 0; m < moonCount; m++ {
			moonOffset := floatInRange(50, 500)
			moonCoords := world.Vector3{X: coords.X + moonOffset}
			moon := pool.NewMoon(planet.Id, moonCoords, floatInRange(0.1, 0.5))
			all = append(all, moon)
		}
	}

	asteroidCount := intInRange(t.MinAsteroids, t.MaxAsteroids)
	beltRadius := floatInRange(t.MinOrbitRadius, t.MaxOrbitRadius)
	all = append(all, pool.NewAsteroids(asteroidCount, star.Id, beltRadius)...)

	return star, all
}

// SpawnPlayer creates a player body near the star with the tunables'
// default cruising speed. GravityCenter is pointed at the star so that
// "current system" can be recovered later by walking gravity_center,
// per the design note eliminating a separate current-system field; the
// step algorithm dispatches on the Player variant before ever consulting
// gravity_center, so this never causes an orbit advance for the player.
func SpawnPlayer(pool *syncpool.Pool, nickname string, star *world.CelestialBody, outbound chan []byte, t Tunables) *world.CelestialBody {
	player := pool.NewPlayer(nickname, outbound)
	player.Coords = world.Vector3{X: t.MinOrbitRadius / 2}
	player.LocalSpeed = t.PlayerCruiseSpeed
	player.GravityCenter = star.Id
	return player
}
