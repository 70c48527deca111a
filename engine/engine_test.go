package engine

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neotene/spacebuild/store"
	"github.com/neotene/spacebuild/syncpool"
	"github.com/neotene/spacebuild/universegen"
	"github.com/neotene/spacebuild/world"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.sbdb"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.InitializeSchema())

	pool, err := syncpool.New(db)
	require.NoError(t, err)

	w := world.New(1000)
	step := world.StepConfig{TickScalingFactor: 10, VisibilityRadius: 10000, BatchSize: 50}
	return New(w, pool, universegen.DefaultTunables(), step)
}

func TestAuthenticateNewNicknameSpawnsSystemAndPlayer(t *testing.T) {
	e := newTestEngine(t)
	outbound := make(chan []byte, 10)

	playerID, err := e.Authenticate("alice", outbound)
	require.NoError(t, err)
	assert.Equal(t, world.Id(1), playerID)
	assert.Greater(t, e.BodyCount(), 1)
}

func TestAuthenticateSameNicknameTwiceFails(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Authenticate("alice", make(chan []byte, 10))
	require.NoError(t, err)

	_, err = e.Authenticate("alice", make(chan []byte, 10))
	assert.Error(t, err)
}

func TestLeaveThenReauthenticateSucceeds(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Authenticate("alice", make(chan []byte, 10))
	require.NoError(t, err)

	e.Leave("alice")

	_, err = e.Authenticate("alice", make(chan []byte, 10))
	assert.NoError(t, err)
}

func TestAppendIntentThenStepMovesPlayer(t *testing.T) {
	e := newTestEngine(t)
	outbound := make(chan []byte, 10)
	playerID, err := e.Authenticate("alice", outbound)
	require.NoError(t, err)

	err = e.AppendIntent(playerID, "alice", world.Intent{ThrottleUp: true, Direction: world.Vector3{X: 1}})
	require.NoError(t, err)

	body, ok := e.world.Get(e.live["alice"])
	require.True(t, ok)
	startX := body.Coords.X

	e.Step(1.0)

	assert.Greater(t, body.Coords.X, startX)

	select {
	case <-outbound:
	default:
		t.Fatal("expected an observation frame after Step")
	}
}

func TestSaveDoesNotError(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Authenticate("alice", make(chan []byte, 10))
	require.NoError(t, err)
	assert.NoError(t, e.Save())
}
