package transport

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebSocketListenerAcceptsAndExchangesFrames(t *testing.T) {
	listener := NewWebSocketListener()
	server := httptest.NewServer(listener)
	defer server.Close()
	defer listener.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	stream, err := listener.Accept(ctx)
	require.NoError(t, err)

	require.NoError(t, client.WriteMessage(websocket.TextMessage, []byte(`{"Login":{"nickname":"alice"}}`)))
	data, err := stream.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(data), "alice")

	require.NoError(t, stream.WriteMessage([]byte(`{"success":true,"message":"1"}`)))
	_, data, err = client.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(data), "success")

	assert.NoError(t, stream.Close())
}

func TestListenerAcceptReturnsErrorAfterClose(t *testing.T) {
	listener := NewWebSocketListener()
	require.NoError(t, listener.Close())

	_, err := listener.Accept(context.Background())
	assert.Error(t, err)
}
