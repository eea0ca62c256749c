package link

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestSendAndReceive(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := Accept(w, r)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			text, err := conn.Receive()
			if err != nil {
				return
			}
			if err := conn.Send(strings.ToUpper(text)); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, err := Dial(ctx, wsURL(server))
	require.NoError(t, err)
	defer conn.Close()

	for _, msg := range []string{"hello", "wörld", ""} {
		require.NoError(t, conn.Send(msg))
		got, err := conn.Receive()
		require.NoError(t, err)
		assert.Equal(t, strings.ToUpper(msg), got)
	}
}

func TestReceiveSkipsBinaryFrames(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteMessage(websocket.BinaryMessage, []byte{0xff, 0x00})
		_ = conn.WriteMessage(websocket.TextMessage, []byte("text"))
		_, _, _ = conn.ReadMessage()
	}))
	defer server.Close()

	conn, err := Dial(context.Background(), wsURL(server))
	require.NoError(t, err)
	defer conn.Close()

	got, err := conn.Receive()
	require.NoError(t, err)
	assert.Equal(t, "text", got)
}

func TestReceiveAfterPeerCloses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := Accept(w, r)
		if err != nil {
			return
		}
		_ = conn.Close()
	}))
	defer server.Close()

	conn, err := Dial(context.Background(), wsURL(server))
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Receive()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestReceiveAfterLocalClose(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := Accept(w, r)
		if err != nil {
			return
		}
		defer conn.Close()
		_, _ = conn.Receive()
	}))
	defer server.Close()

	conn, err := Dial(context.Background(), wsURL(server))
	require.NoError(t, err)
	require.NoError(t, conn.Close())
	assert.NoError(t, conn.Close(), "closing twice reports the first result")

	_, err = conn.Receive()
	assert.Error(t, err)
}

func TestDialFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := wsURL(server)
	server.Close()

	_, err := Dial(context.Background(), url)
	assert.Error(t, err)
}
