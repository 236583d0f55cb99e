package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/websocket"
	"github.com/mcdev12/buzzwire/go/internal/events"
	"github.com/mcdev12/buzzwire/go/internal/models"
	"github.com/mcdev12/buzzwire/go/internal/session"
)

type staticProvider struct {
	snap atomic.Pointer[session.Snapshot]
}

func newStaticProvider(snap *session.Snapshot) *staticProvider {
	p := &staticProvider{}
	p.snap.Store(snap)
	return p
}

func (p *staticProvider) Snapshot() *session.Snapshot { return p.snap.Load() }

func testSnapshot() *session.Snapshot {
	return &session.Snapshot{
		RunID:            "run-1",
		Phase:            session.PhaseRunning,
		ElapsedSeconds:   65,
		ElapsedFormatted: "1:05",
		LivesLeft:        7,
		ClockRunning:     true,
		Leaderboard: []models.LeaderboardEntry{
			{Rank: 1, Player: "Lin", ElapsedSeconds: 60, TimeFormatted: "1:00", LivesLeft: 7, Score: 6940},
		},
		LeaderboardVersion: 3,
		SerialStatus:       session.SerialConnected,
		UpdatedAt:          time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func newTestServer(t *testing.T, provider StateProvider) (*Service, *httptest.Server) {
	t.Helper()
	svc := NewService(DefaultConfig(), provider)
	mux := http.NewServeMux()
	svc.RegisterRoutes(mux)
	srv := httptest.NewServer(mux)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Start(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		srv.Close()
	})
	return svc, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/session?client_id=display"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) events.Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var env events.Envelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read: %v", err)
	}
	return env
}

func waitConnections(t *testing.T, svc *Service, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for svc.GetStats().TotalConnections != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d connections, have %d", n, svc.GetStats().TotalConnections)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestClientReceivesSnapshotOnConnect(t *testing.T) {
	want := testSnapshot()
	_, srv := newTestServer(t, newStaticProvider(want))
	conn := dial(t, srv)

	env := readEnvelope(t, conn)
	if env.Type != events.TypeSnapshotChanged || env.RunID != "run-1" {
		t.Fatalf("unexpected greeting: %+v", env)
	}
	var got session.Snapshot
	if err := env.Decode(&got); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if diff := cmp.Diff(*want, got); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestBroadcastReachesEveryClient(t *testing.T) {
	svc, srv := newTestServer(t, newStaticProvider(testSnapshot()))
	a := dial(t, srv)
	b := dial(t, srv)
	readEnvelope(t, a)
	readEnvelope(t, b)
	waitConnections(t, svc, 2)

	env, err := events.New(events.TypeRunOver, "run-1", time.Now(), events.RunOverPayload{RunID: "run-1", Outcome: "TIMEOUT"})
	if err != nil {
		t.Fatalf("events.New: %v", err)
	}
	svc.Emit(env)

	for _, conn := range []*websocket.Conn{a, b} {
		got := readEnvelope(t, conn)
		if got.ID != env.ID || got.Type != events.TypeRunOver {
			t.Fatalf("unexpected event: %+v", got)
		}
	}
}

func TestDisconnectUnregisters(t *testing.T) {
	svc, srv := newTestServer(t, newStaticProvider(testSnapshot()))
	conn := dial(t, srv)
	readEnvelope(t, conn)
	waitConnections(t, svc, 1)

	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()
	waitConnections(t, svc, 0)
}

func TestGetSessionState(t *testing.T) {
	_, srv := newTestServer(t, newStaticProvider(testSnapshot()))

	resp, err := http.Get(srv.URL + "/api/session/state")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["phase"] != "RUNNING" || body["elapsed_formatted"] != "1:05" || body["serial_status"] != "connected" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestGetLeaderboard(t *testing.T) {
	_, srv := newTestServer(t, newStaticProvider(testSnapshot()))

	resp, err := http.Get(srv.URL + "/api/leaderboard")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	var got LeaderboardResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := LeaderboardResponse{Version: 3, Entries: testSnapshot().Leaderboard}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("leaderboard mismatch (-want +got):\n%s", diff)
	}
}

func TestStateRoutesBeforeSessionExists(t *testing.T) {
	_, srv := newTestServer(t, newStaticProvider(nil))

	for _, path := range []string{"/api/session/state", "/api/leaderboard"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusServiceUnavailable {
			t.Fatalf("GET %s status = %d, want 503", path, resp.StatusCode)
		}
	}
}

func TestStateRoutesRejectOtherMethods(t *testing.T) {
	_, srv := newTestServer(t, newStaticProvider(testSnapshot()))

	resp, err := http.Post(srv.URL+"/api/leaderboard", "application/json", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", resp.StatusCode)
	}
}

func TestShutdownClosesClients(t *testing.T) {
	svc := NewService(DefaultConfig(), newStaticProvider(testSnapshot()))
	mux := http.NewServeMux()
	svc.RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Start(ctx)
		close(done)
	}()

	conn := dial(t, srv)
	readEnvelope(t, conn)
	waitConnections(t, svc, 1)

	cancel()
	<-done

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatal("expected the connection to be closed")
	}
	waitConnections(t, svc, 0)
}
