package admin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neotene/spacebuild/engine"
	"github.com/neotene/spacebuild/store"
	"github.com/neotene/spacebuild/syncpool"
	"github.com/neotene/spacebuild/universegen"
	"github.com/neotene/spacebuild/world"
)

func newTestEngine(t *testing.T) (*engine.Engine, *store.DB) {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.sbdb"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.InitializeSchema())

	pool, err := syncpool.New(db)
	require.NoError(t, err)
	w := world.New(1000)
	step := world.StepConfig{TickScalingFactor: 10, VisibilityRadius: 10000, BatchSize: 50}
	return engine.New(w, pool, universegen.DefaultTunables(), step), db
}

func TestHealthzReportsHealthy(t *testing.T) {
	eng, db := newTestEngine(t)
	server := httptest.NewServer(Router(db, eng, &Stats{}))
	defer server.Close()

	resp, err := http.Get(server.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
}

func TestStatsReportsRecordedDurations(t *testing.T) {
	eng, db := newTestEngine(t)
	stats := &Stats{}
	stats.RecordTick(5 * time.Millisecond)
	stats.RecordSave(20 * time.Millisecond)

	server := httptest.NewServer(Router(db, eng, stats))
	defer server.Close()

	resp, err := http.Get(server.URL + "/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "5ms", body["last_tick_duration"])
}
