package coordinator

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arjav0703/typing-game/pkg/link"
	"github.com/arjav0703/typing-game/pkg/session"
)

func startServer(t *testing.T, mode session.Mode) (*httptest.Server, *session.Hub) {
	t.Helper()
	store, err := session.NewStore(mode)
	require.NoError(t, err)
	hub := session.NewHub(session.DefaultQueueSize)
	server := httptest.NewServer(NewServer(store, hub, discard).Router())
	t.Cleanup(func() {
		hub.Close()
		server.Close()
	})
	return server, hub
}

func dial(t *testing.T, server *httptest.Server) *link.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, err := link.Dial(ctx, "ws"+strings.TrimPrefix(server.URL, "http")+"/")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func recv(t *testing.T, conn *link.Conn) string {
	t.Helper()
	text, err := conn.Receive()
	require.NoError(t, err)
	return text
}

func TestScenario(t *testing.T) {
	server, hub := startServer(t, session.ModeWords)

	a := dial(t, server)
	assert.Equal(t, "", recv(t, a))
	b := dial(t, server)
	assert.Equal(t, "", recv(t, b))
	require.Eventually(t, func() bool { return hub.Subscribers() == 2 }, time.Second, time.Millisecond)

	require.NoError(t, a.Send("hello"))
	assert.Equal(t, "hello", recv(t, b))
	assert.Equal(t, "hello", recv(t, a))

	c := dial(t, server)
	assert.Equal(t, "hello", recv(t, c))

	require.NoError(t, c.Send("   "))
	require.NoError(t, c.Send("world"))
	for _, conn := range []*link.Conn{a, b, c} {
		assert.Equal(t, "hello world", recv(t, conn))
	}
}

func TestSnapshotAndHealthRoutes(t *testing.T) {
	server, hub := startServer(t, session.ModeChars)

	a := dial(t, server)
	recv(t, a)
	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, time.Second, time.Millisecond)
	require.NoError(t, a.Send("é"))
	assert.Equal(t, "é", recv(t, a))

	resp, err := http.Get(server.URL + "/snapshot")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "é", string(body))

	resp, err = http.Get(server.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	var h health
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&h))
	assert.Equal(t, health{Mode: session.ModeChars, Version: 1, Length: 1, Participants: 1}, h)
}

func TestPlainRequestToSyncRouteIsRejected(t *testing.T) {
	server, _ := startServer(t, session.ModeWords)

	resp, err := http.Get(server.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
