package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/pthm-cable/fitness/config"
	"github.com/pthm-cable/fitness/model"
	"github.com/pthm-cable/fitness/telemetry"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) (*Server, *model.Model) {
	t.Helper()
	cfg := config.Default()
	cfg.Telemetry.LogInterval = 0
	m, err := model.New(cfg, 1)
	if err != nil {
		t.Fatal(err)
	}
	return NewServer(m, 0), m
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	h.ServeHTTP(w, req)
	return w
}

// ---------- HTTP ----------

func TestSeriesEndpoint(t *testing.T) {
	s, m := newTestServer(t)
	m.Step()
	m.Step()

	w := get(t, s.Handler(), "/series")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var series []telemetry.StepStats
	if err := json.Unmarshal(w.Body.Bytes(), &series); err != nil {
		t.Fatal(err)
	}
	if len(series) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(series))
	}

	w = get(t, s.Handler(), "/series?since=2")
	if err := json.Unmarshal(w.Body.Bytes(), &series); err != nil {
		t.Fatal(err)
	}
	if len(series) != 1 || series[0].Step != 2 {
		t.Errorf("expected only step 2, got %+v", series)
	}

	w = get(t, s.Handler(), "/series?since=-1")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for negative since, got %d", w.Code)
	}
}

func TestConfigEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	w := get(t, s.Handler(), "/config")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "abundance:") {
		t.Errorf("expected YAML config, got %s", w.Body.String())
	}
}

func TestBookmarksEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	w := get(t, s.Handler(), "/bookmarks")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("expected an empty list, got %s", w.Body.String())
	}
}

func TestPauseAndStop(t *testing.T) {
	s, m := newTestServer(t)

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/pause", nil))
	if !s.paused.Load() {
		t.Fatal("expected server to be paused")
	}
	var status map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatal(err)
	}
	if status["paused"] != true {
		t.Errorf("status should report paused, got %v", status)
	}

	s.command(TypeResume)
	s.command(TypeStop)
	if err := s.Run(context.Background(), 0); err != nil {
		t.Fatal(err)
	}
	if m.Running() {
		t.Error("Run should stop the simulation on return")
	}
	if m.Tick() != 0 {
		t.Errorf("a stopped server should not step, tick %d", m.Tick())
	}
}

func TestRunStepsLimit(t *testing.T) {
	s, m := newTestServer(t)
	if err := s.Run(context.Background(), 5); err != nil {
		t.Fatal(err)
	}
	if m.Tick() != 5 {
		t.Errorf("expected 5 steps, got %d", m.Tick())
	}
}

func TestRunCancelled(t *testing.T) {
	s, _ := newTestServer(t)
	s.interval = time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Run(ctx, 0); err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

// ---------- websocket ----------

func TestWebsocketReceivesSteps(t *testing.T) {
	s, m := newTestServer(t)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var hello Message
	if err := conn.ReadJSON(&hello); err != nil {
		t.Fatal(err)
	}
	if hello.Type != TypeHello || hello.Grid == nil || hello.Grid.Width != 10 {
		t.Fatalf("unexpected hello %+v", hello)
	}
	if len(hello.Series) != 1 {
		t.Errorf("hello should carry the recorded series, got %d steps", len(hello.Series))
	}
	if s.Hub().Clients() != 1 {
		t.Errorf("expected 1 client, got %d", s.Hub().Clients())
	}

	m.Step()

	var step Message
	if err := conn.ReadJSON(&step); err != nil {
		t.Fatal(err)
	}
	if step.Type != TypeStep || step.Stats == nil || step.Stats.Step != 1 {
		t.Errorf("expected step 1, got %+v", step)
	}

	if err := conn.WriteJSON(Message{Type: TypePause}); err != nil {
		t.Fatal(err)
	}
	var ack Message
	if err := conn.ReadJSON(&ack); err != nil {
		t.Fatal(err)
	}
	if ack.Type != TypeOK || !s.paused.Load() {
		t.Errorf("pause command not applied, ack %+v", ack)
	}
}

func TestBroadcastDropsStalledClient(t *testing.T) {
	old := writeWait
	writeWait = 50 * time.Millisecond
	t.Cleanup(func() { writeWait = old })

	s, _ := newTestServer(t)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(5 * time.Second)
	for s.Hub().Clients() != 1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if s.Hub().Clients() != 1 {
		t.Fatal("client never registered")
	}

	// The client never reads, so the socket buffers fill and writes block.
	big := Message{Type: TypeStep, Series: make([]telemetry.StepStats, 20000)}
	start := time.Now()
	for i := 0; i < 50 && s.Hub().Clients() > 0; i++ {
		s.Hub().Broadcast(big)
	}
	if s.Hub().Clients() != 0 {
		t.Fatalf("expected the stalled client to be dropped, %d still connected", s.Hub().Clients())
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("broadcast blocked for %v", elapsed)
	}
}
