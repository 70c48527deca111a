// Package admin exposes a small operational HTTP surface — health and
// stats — distinct from the game's own websocket protocol, following the
// teacher's gorilla/mux routing convention (api/routes.go) adapted from
// a large REST API surface down to two read-only endpoints.
package admin

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/neotene/spacebuild/engine"
	"github.com/neotene/spacebuild/store"
)

// Stats tracks the rolling operational metrics /stats reports. The
// server loop updates it once per tick and once per save.
type Stats struct {
	mu             sync.Mutex
	lastTickTook   time.Duration
	lastSaveTook   time.Duration
	lastSaveAt     time.Time
}

func (s *Stats) RecordTick(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastTickTook = d
}

func (s *Stats) RecordSave(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSaveTook = d
	s.lastSaveAt = time.Now()
}

func (s *Stats) snapshot() (time.Duration, time.Duration, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastTickTook, s.lastSaveTook, s.lastSaveAt
}

// Router builds the /healthz and /stats routes.
func Router(db *store.DB, eng *engine.Engine, stats *Stats) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", healthzHandler(db, eng)).Methods(http.MethodGet)
	r.HandleFunc("/stats", statsHandler(eng, stats)).Methods(http.MethodGet)
	return r
}

func healthzHandler(db *store.DB, eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.HealthCheck(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":     "healthy",
			"body_count": eng.BodyCount(),
		})
	}
}

func statsHandler(eng *engine.Engine, stats *Stats) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tick, save, savedAt := stats.snapshot()
		json.NewEncoder(w).Encode(map[string]interface{}{
			"body_count":          eng.BodyCount(),
			"last_tick_duration":  tick.String(),
			"last_save_duration":  save.String(),
			"last_save_at":        savedAt,
		})
	}
}
