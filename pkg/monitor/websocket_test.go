package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"digital.vasic.snippetcheck/pkg/result"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wireMessage struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) wireMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg wireMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func waitClients(t *testing.T, s *Server, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return s.ClientCount() == n
	}, 5*time.Second, 10*time.Millisecond)
}

func TestServer_StreamsEvents(t *testing.T) {
	c := NewEventCollector()
	c.EmitRunStarted("earlier", 0)
	s := NewServer("", c)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn := dial(t, srv)

	first := read(t, conn)
	assert.Equal(t, "dashboard", first.Kind)
	var dash DashboardData
	require.NoError(t, json.Unmarshal(first.Data, &dash))
	assert.Contains(t, dash.Runs, "earlier")

	waitClients(t, s, 1)
	c.EmitRunStarted("run-1", 3)

	msg := read(t, conn)
	assert.Equal(t, "event", msg.Kind)
	var ev RunEvent
	require.NoError(t, json.Unmarshal(msg.Data, &ev))
	assert.Equal(t, EventRunStarted, ev.Type)
	assert.Equal(t, "run-1", ev.RunID)
	assert.Equal(t, 3, ev.Cases)
}

func TestServer_MultipleClients(t *testing.T) {
	c := NewEventCollector()
	s := NewServer("", c)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	a, b := dial(t, srv), dial(t, srv)
	read(t, a)
	read(t, b)
	waitClients(t, s, 2)

	c.EmitRunFinished("r", "f", result.RunResult{Status: result.StatusPassed})
	assert.Equal(t, "event", read(t, a).Kind)
	assert.Equal(t, "event", read(t, b).Kind)
}

func TestServer_ClientDisconnect(t *testing.T) {
	c := NewEventCollector()
	s := NewServer("", c)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn := dial(t, srv)
	read(t, conn)
	waitClients(t, s, 1)

	conn.Close()
	waitClients(t, s, 0)

	// Broadcasting with no clients is harmless.
	c.EmitRunStarted("after", 0)
}

func TestServer_HTTPEndpoints(t *testing.T) {
	c := NewEventCollector()
	extra := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("metrics here"))
	})
	s := NewServer("", c, WithHandler("/metrics", extra), WithServerLogger(nil))
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	c.EmitRunStarted("r1", 1)
	c.EmitRunFinished("r1", "f", result.RunResult{Status: result.StatusPassed})

	get := func(path string) *http.Response {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	resp := get("/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var stats CollectorStats
	resp = get("/stats")
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, 1, stats.Runs)
	assert.Equal(t, 1, stats.Passed)

	var dash DashboardData
	require.NoError(t, json.NewDecoder(get("/dashboard").Body).Decode(&dash))
	assert.Equal(t, result.StatusPassed, dash.Runs["r1"].Status)

	resp = get("/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = get("/ws")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_StartStop(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	s := NewServer(addr, NewEventCollector())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get(fmt.Sprintf("http://%s/health", addr))
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	require.NoError(t, s.Stop(stopCtx))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServer_StopBeforeStart(t *testing.T) {
	s := NewServer("", NewEventCollector())
	assert.NoError(t, s.Stop(context.Background()))
}

func TestServer_RejectsClientsAfterStop(t *testing.T) {
	s := NewServer("", NewEventCollector())
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	require.NoError(t, s.Stop(context.Background()))

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if conn != nil {
		conn.Close()
	}
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, 0, s.ClientCount())
}

func TestServer_StopRaceLeavesNoClients(t *testing.T) {
	s := NewServer("", NewEventCollector())
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 20; i++ {
			conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
			if resp != nil && resp.Body != nil {
				resp.Body.Close()
			}
			if err == nil {
				conn.Close()
			}
		}
	}()
	require.NoError(t, s.Stop(context.Background()))
	<-done

	// Handlers still in flight either registered before Stop and
	// were drained, or observed stopped and never registered.
	assert.Never(t, func() bool { return s.ClientCount() > 0 },
		200*time.Millisecond, 10*time.Millisecond)
}
