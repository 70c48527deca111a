package session

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neotene/spacebuild/engine"
	"github.com/neotene/spacebuild/protocol"
	"github.com/neotene/spacebuild/store"
	"github.com/neotene/spacebuild/syncpool"
	"github.com/neotene/spacebuild/universegen"
	"github.com/neotene/spacebuild/world"
)

var errFakeStreamClosed = errors.New("fake stream closed")

// fakeStream is an in-memory transport.Stream: inbound frames are queued
// by the test, outbound frames are captured for assertions.
type fakeStream struct {
	mu      sync.Mutex
	inbound chan []byte
	written [][]byte
	closed  bool
}

func newFakeStream() *fakeStream {
	return &fakeStream{inbound: make(chan []byte, 16)}
}

func (f *fakeStream) push(v interface{}) {
	data, _ := json.Marshal(v)
	f.inbound <- data
}

func (f *fakeStream) ReadMessage() ([]byte, error) {
	data, ok := <-f.inbound
	if !ok {
		return nil, errFakeStreamClosed
	}
	return data, nil
}

func (f *fakeStream) WriteMessage(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errFakeStreamClosed
	}
	f.written = append(f.written, data)
	return nil
}

func (f *fakeStream) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.inbound)
	}
	return nil
}

func (f *fakeStream) lastWrite() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.written) == 0 {
		return nil
	}
	return f.written[len(f.written)-1]
}

func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.sbdb"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.InitializeSchema())

	pool, err := syncpool.New(db)
	require.NoError(t, err)
	w := world.New(1000)
	step := world.StepConfig{TickScalingFactor: 10, VisibilityRadius: 10000, BatchSize: 50}
	return engine.New(w, pool, universegen.DefaultTunables(), step)
}

func TestConnectWithoutLoginClosesWithNoAuthInfo(t *testing.T) {
	stream := newFakeStream()
	s := New(stream, newTestEngine(t))

	stream.push(protocol.PlayerAction{ShipState: &protocol.ShipStateAction{ThrottleUp: false}})
	s.Run()

	assert.Nil(t, stream.lastWrite())
	assert.Equal(t, Terminating, s.state)
}

func TestFirstTimeLoginSucceeds(t *testing.T) {
	stream := newFakeStream()
	s := New(stream, newTestEngine(t))

	stream.push(protocol.PlayerAction{Login: &protocol.LoginAction{Nickname: "alice"}})
	done := make(chan struct{})
	go func() { s.Run(); close(done) }()

	time.Sleep(50 * time.Millisecond)
	var resp protocol.AuthInfo
	require.NoError(t, json.Unmarshal(stream.lastWrite(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "1", resp.Message)

	stream.Close()
	<-done
}

func TestInvalidNicknameRejected(t *testing.T) {
	stream := newFakeStream()
	s := New(stream, newTestEngine(t))

	stream.push(protocol.PlayerAction{Login: &protocol.LoginAction{Nickname: ""}})
	s.Run()

	var resp protocol.AuthInfo
	require.NoError(t, json.Unmarshal(stream.lastWrite(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "Invalid nickname", resp.Message)
}

func TestDuplicateLiveLoginRejected(t *testing.T) {
	eng := newTestEngine(t)

	first := newFakeStream()
	s1 := New(first, eng)
	first.push(protocol.PlayerAction{Login: &protocol.LoginAction{Nickname: "alice"}})
	go s1.Run()
	time.Sleep(50 * time.Millisecond)

	second := newFakeStream()
	s2 := New(second, eng)
	second.push(protocol.PlayerAction{Login: &protocol.LoginAction{Nickname: "alice"}})
	s2.Run()

	var resp protocol.AuthInfo
	require.NoError(t, json.Unmarshal(second.lastWrite(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "Player already authenticated", resp.Message)

	first.Close()
}

func TestSecondLoginAfterSuccessClosesWithNoResponse(t *testing.T) {
	stream := newFakeStream()
	s := New(stream, newTestEngine(t))

	stream.push(protocol.PlayerAction{Login: &protocol.LoginAction{Nickname: "alice"}})
	stream.push(protocol.PlayerAction{Login: &protocol.LoginAction{Nickname: "alice"}})

	done := make(chan struct{})
	go func() { s.Run(); close(done) }()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("session did not terminate after second login")
	}

	writesAfterAuth := 0
	stream.mu.Lock()
	writesAfterAuth = len(stream.written)
	stream.mu.Unlock()
	assert.Equal(t, 1, writesAfterAuth)
}
