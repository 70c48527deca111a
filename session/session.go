// Package session implements the per-connection state machine of
// spec.md §4.4: AwaitLogin, Running (concurrent reader/writer), and
// Terminating. It mirrors the teacher's server/client.go readPump/
// writePump split, generalized from a raw *websocket.Conn to the
// transport.Stream interface so this package never imports
// gorilla/websocket directly.
package session

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/neotene/spacebuild/engine"
	"github.com/neotene/spacebuild/logging"
	"github.com/neotene/spacebuild/protocol"
	"github.com/neotene/spacebuild/transport"
	"github.com/neotene/spacebuild/world"
)

// State is one of the three session lifecycle states.
type State int

const (
	AwaitLogin State = iota
	Running
	Terminating
)

func (s State) String() string {
	switch s {
	case AwaitLogin:
		return "await_login"
	case Running:
		return "running"
	case Terminating:
		return "terminating"
	default:
		return "unknown"
	}
}

// Session drives one client connection end to end.
type Session struct {
	stream  transport.Stream
	engine  *engine.Engine
	traceID uuid.UUID

	state    State
	nickname string
	playerID uint32

	outbound chan []byte
	done     chan struct{}
}

// New wraps an already-upgraded stream in a fresh AwaitLogin session.
// The outbound channel is created here (not by the engine) because the
// session is its sole reader; the engine only needs a sender.
func New(stream transport.Stream, eng *engine.Engine) *Session {
	return &Session{
		stream:   stream,
		engine:   eng,
		traceID:  uuid.New(),
		state:    AwaitLogin,
		outbound: make(chan []byte, world.DefaultOutboundCapacity),
		done:     make(chan struct{}),
	}
}

// Run blocks until the session terminates: a failed or absent login, a
// reader error, a writer error, or a client Close frame.
func (s *Session) Run() {
	defer s.terminate()

	if err := s.awaitLogin(); err != nil {
		logging.Info("session ended during login", map[string]interface{}{
			"trace_id": s.traceID.String(),
			"reason":   err.Error(),
		})
		return
	}

	s.state = Running
	go s.writePump()
	s.readPump()
}

// awaitLogin reads exactly one frame. Anything other than a well-formed
// Login closes the connection with no response; a Login is answered with
// a single AuthInfo frame.
func (s *Session) awaitLogin() error {
	frame, err := s.stream.ReadMessage()
	if err != nil {
		return fmt.Errorf("await login read: %w", err)
	}

	var action protocol.PlayerAction
	if jsonErr := json.Unmarshal(frame, &action); jsonErr != nil || action.Login == nil {
		return fmt.Errorf("first frame was not a Login action")
	}

	playerID, authErr := s.authenticate(action.Login.Nickname)
	resp := protocol.AuthInfo{Success: authErr == nil}
	if authErr != nil {
		resp.Message = authMessage(authErr)
	} else {
		resp.Message = strconv.FormatUint(uint64(playerID), 10)
		s.playerID = playerID
		s.nickname = action.Login.Nickname
	}

	if err := s.writeFrame(resp); err != nil {
		return fmt.Errorf("await login write: %w", err)
	}
	if authErr != nil {
		return authErr
	}
	return nil
}

// readPump consumes framed messages while Running. Non-login actions are
// queued as intents; a second Login closes the connection with no
// further response; parse failures are logged and ignored.
func (s *Session) readPump() {
	for {
		frame, err := s.stream.ReadMessage()
		if err != nil {
			return
		}

		var action protocol.PlayerAction
		if err := json.Unmarshal(frame, &action); err != nil {
			logging.Debug("malformed frame ignored", map[string]interface{}{
				"trace_id": s.traceID.String(),
			})
			continue
		}

		switch {
		case action.Login != nil:
			return
		case action.ShipState != nil:
			intent := world.Intent{
				ThrottleUp: action.ShipState.ThrottleUp,
				Direction:  world.VectorFromArray(action.ShipState.Direction),
			}
			if err := s.engine.AppendIntent(world.Id(s.playerID), s.nickname, intent); err != nil {
				logging.Error("append intent failed", map[string]interface{}{
					"trace_id": s.traceID.String(),
					"error":    err.Error(),
				})
			}
		default:
			logging.Debug("unrecognized action kind ignored", map[string]interface{}{
				"trace_id": s.traceID.String(),
			})
		}
	}
}

// writePump drains the outbound observation channel and writes each
// item as a text frame. A write failure ends the session.
func (s *Session) writePump() {
	for {
		select {
		case msg := <-s.outbound:
			if err := s.stream.WriteMessage(msg); err != nil {
				s.stream.Close()
				return
			}
		case <-s.done:
			return
		}
	}
}

func (s *Session) writeFrame(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.stream.WriteMessage(data)
}

// terminate removes the player from the live world and closes the
// stream. Idempotent: a call on a session already Terminating returns
// without doing anything.
func (s *Session) terminate() {
	if s.state == Terminating {
		return
	}
	s.state = Terminating
	close(s.done)
	s.stream.Close()
	if s.nickname != "" {
		s.engine.Leave(s.nickname)
	}
}
