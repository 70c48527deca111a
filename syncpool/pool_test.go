package syncpool

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neotene/spacebuild/store"
	"github.com/neotene/spacebuild/world"
)

func openTestPool(t *testing.T) *Pool {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.sbdb"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.InitializeSchema())

	pool, err := New(db)
	require.NoError(t, err)
	return pool
}

func TestAllocatorsStartAtOneOnEmptyDatabase(t *testing.T) {
	pool := openTestPool(t)
	star := pool.NewStar()
	assert.Equal(t, world.Id(1), star.Id)

	outbound := make(chan []byte, 1)
	player := pool.NewPlayer("alice", outbound)
	assert.Equal(t, world.Id(2), player.Id)
	p, ok := player.AsPlayer()
	require.True(t, ok)
	assert.Equal(t, world.Id(1), p.PlayerId)
}

func TestNewBodyIdsAreMonotonicallyIncreasing(t *testing.T) {
	pool := openTestPool(t)
	first := pool.NewStar()
	second := pool.NewPlanet(first.Id, world.Vector3{X: 100}, 0.1)
	assert.Greater(t, second.Id, first.Id)
}

func TestSaveThenReopenPreservesAllocatorSeed(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.sbdb")
	db, err := store.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, db.InitializeSchema())

	pool, err := New(db)
	require.NoError(t, err)
	star := pool.NewStar()
	outbound := make(chan []byte, 1)
	player := pool.NewPlayer("bob", outbound)
	require.NoError(t, pool.Save())
	_ = star
	db.Close()

	db2, err := store.Open(dbPath)
	require.NoError(t, err)
	defer db2.Close()
	pool2, err := New(db2)
	require.NoError(t, err)

	loaded, err := pool2.GetBody(player.Id)
	require.NoError(t, err)
	assert.Equal(t, player.Id, loaded.Id)

	next := pool2.NewStar()
	assert.Greater(t, next.Id, player.Id)
}

func TestGetPlayerByNicknameNotFound(t *testing.T) {
	pool := openTestPool(t)
	_, err := pool.GetPlayer("nobody", make(chan []byte, 1))
	assert.Error(t, err)
}

func TestGetRotatingsExcludesPlayers(t *testing.T) {
	pool := openTestPool(t)
	star := pool.NewStar()
	planet := pool.NewPlanet(star.Id, world.Vector3{X: 100}, 0.1)
	player := pool.NewPlayer("erin", make(chan []byte, 1))
	player.GravityCenter = star.Id
	require.NoError(t, pool.Save())

	rotatings, err := pool.GetRotatings(star.Id)
	require.NoError(t, err)
	found := false
	for _, b := range rotatings {
		assert.False(t, b.IsPlayer())
		if b.Id == planet.Id {
			found = true
		}
	}
	assert.True(t, found)
}
