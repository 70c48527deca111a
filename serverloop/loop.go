// Package serverloop drives the single goroutine that owns tick, save,
// and new-session admission, replacing the teacher's server.Hub.Run()
// channel-select loop with spec.md §4.6's schedule. The concurrency shape
// survives unchanged: one goroutine services a handful of channels in a
// select, so registration/mutation never races against itself; only the
// content of each case changes from Hub's register/unregister/broadcast
// to tick/save/admit.
package serverloop

import (
	"context"
	"sync"
	"time"

	"github.com/neotene/spacebuild/admin"
	"github.com/neotene/spacebuild/engine"
	"github.com/neotene/spacebuild/logging"
	"github.com/neotene/spacebuild/session"
	"github.com/neotene/spacebuild/transport"
)

// pendingSessionQueueSize bounds how many accepted-but-not-yet-serviced
// streams the loop holds. The handshake itself (TLS termination, HTTP
// upgrade) already completed by the time Accept returns a Stream, so
// this queue plays the role Hub.register played for raw client structs.
const pendingSessionQueueSize = 64

// Loop is the server's tick/save/admission scheduler.
type Loop struct {
	engine       *engine.Engine
	listener     transport.Listener
	tickInterval time.Duration
	saveInterval time.Duration

	pending chan transport.Stream
	stop    chan struct{}
	wg      sync.WaitGroup

	stats *admin.Stats
}

// New wires an Engine and a Listener into a scheduler that has not yet
// started accepting connections or ticking. stats may be nil.
func New(eng *engine.Engine, listener transport.Listener, tickInterval, saveInterval time.Duration, stats *admin.Stats) *Loop {
	return &Loop{
		engine:       eng,
		listener:     listener,
		tickInterval: tickInterval,
		saveInterval: saveInterval,
		pending:      make(chan transport.Stream, pendingSessionQueueSize),
		stop:         make(chan struct{}),
		stats:        stats,
	}
}

// Run blocks, ticking the world, periodically saving it, and admitting
// new sessions, until ctx is canceled or Stop is called.
func (l *Loop) Run(ctx context.Context) {
	l.wg.Add(1)
	go l.acceptLoop(ctx)

	tickTicker := time.NewTicker(l.tickInterval)
	saveTicker := time.NewTicker(l.saveInterval)
	defer tickTicker.Stop()
	defer saveTicker.Stop()

	// Closing every admitted stream on shutdown makes each session's
	// blocked read fail, so its goroutine terminates and wg.Wait returns.
	var admitted []transport.Stream
	shutdown := func() {
		for _, s := range admitted {
			s.Close()
		}
		l.wg.Wait()
	}

	lastTick := time.Now()
	for {
		select {
		case <-l.stop:
			shutdown()
			return
		case <-ctx.Done():
			shutdown()
			return

		case now := <-tickTicker.C:
			delta := now.Sub(lastTick).Seconds()
			lastTick = now
			start := time.Now()
			l.engine.Step(delta)
			if l.stats != nil {
				l.stats.RecordTick(time.Since(start))
			}

		case <-saveTicker.C:
			start := time.Now()
			err := l.engine.Save()
			if l.stats != nil {
				l.stats.RecordSave(time.Since(start))
			}
			if err != nil {
				logging.Error("periodic save failed", map[string]interface{}{"error": err.Error()})
			}

		case stream := <-l.pending:
			admitted = append(admitted, stream)
			l.wg.Add(1)
			go func() {
				defer l.wg.Done()
				session.New(stream, l.engine).Run()
			}()
		}
	}
}

// acceptLoop funnels accepted streams into the bounded pending queue,
// logging and dropping a connection only if the queue is saturated.
func (l *Loop) acceptLoop(ctx context.Context) {
	defer l.wg.Done()
	for {
		stream, err := l.listener.Accept(ctx)
		if err != nil {
			return
		}
		select {
		case l.pending <- stream:
		default:
			logging.Warn("pending session queue full, dropping connection", nil)
			stream.Close()
		}
	}
}

// Stop signals the loop to end and closes the listener; it does not wait.
// Run closes every admitted stream and waits for the in-flight session
// goroutines before it returns. Safe to call once; a second call panics on
// the closed channel, matching the stdlib's own close-twice contract.
func (l *Loop) Stop() {
	close(l.stop)
	l.listener.Close()
}
