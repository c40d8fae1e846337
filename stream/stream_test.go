package stream

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pthm-cable/wake/arena"
	"github.com/pthm-cable/wake/config"
	"github.com/pthm-cable/wake/fluid"
	"github.com/pthm-cable/wake/palette"
)

func TestFrameRoundTrip(t *testing.T) {
	cells := []byte{0, 1, 2, 3}
	ships := []arena.ShipView{
		{ID: 7, X: -12.5, Y: 40, Heading: 1.25},
		{ID: 9, X: 3, Y: 4, Heading: -0.5},
	}

	data := EncodeFrame(nil, 42, 2, 8, cells, ships)
	f, err := DecodeFrame(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if f.Tick != 42 || f.Size != 2 || f.Bands != 8 {
		t.Errorf("header mismatch: tick %d size %d bands %d", f.Tick, f.Size, f.Bands)
	}
	if string(f.Cells) != string(cells) {
		t.Errorf("expected cells %v, got %v", cells, f.Cells)
	}
	if len(f.Ships) != 2 {
		t.Fatalf("expected 2 ships, got %d", len(f.Ships))
	}
	if f.Ships[0] != (Ship{ID: 7, X: -12.5, Y: 40, Heading: 1.25}) {
		t.Errorf("unexpected first ship %+v", f.Ships[0])
	}
}

func TestDecodeFrameRejectsMalformed(t *testing.T) {
	good := EncodeFrame(nil, 1, 2, 8, []byte{0, 0, 0, 0}, nil)

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"bad magic", append([]byte{'X', 'X'}, good[2:]...)},
		{"bad version", append([]byte{'W', 'K', 9}, good[3:]...)},
		{"truncated body", good[:len(good)-1]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeFrame(tt.data); !errors.Is(err, ErrBadFrame) {
				t.Errorf("expected ErrBadFrame, got %v", err)
			}
		})
	}
}

func TestBroadcastDropsForFullQueue(t *testing.T) {
	h := NewHub(1)
	c := &client{send: make(chan []byte, 1)}
	h.clients[c] = struct{}{}

	h.Broadcast([]byte{1})
	h.Broadcast([]byte{2})

	if got := c.dropped.Load(); got != 1 {
		t.Errorf("expected 1 dropped frame, got %d", got)
	}
	if got := <-c.send; got[0] != 1 {
		t.Errorf("expected the first frame to be kept, got %v", got)
	}
}

func TestDropCountReadWhileBroadcasting(t *testing.T) {
	h := NewHub(1)
	c := &client{send: make(chan []byte, 1)}
	h.clients[c] = struct{}{}
	c.send <- []byte{0}

	const frames = 200
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < frames; i++ {
			h.Broadcast([]byte{byte(i)})
		}
	}()

	// Same access pattern as the disconnect log in handleWebSocket.
	var last int64
	for running := true; running; {
		select {
		case <-done:
			running = false
		default:
		}
		if got := c.dropped.Load(); got < last {
			t.Fatalf("drop count went backwards: %d after %d", got, last)
		} else {
			last = got
		}
	}

	if got := c.dropped.Load(); got != frames {
		t.Errorf("expected %d dropped frames, got %d", frames, got)
	}
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := New(config.StreamConfig{FrameEvery: 1, ClientQueue: 4}, palette.NewPalette(100, 8))
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		s.hub.Close()
		ts.Close()
	})
	return s, ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, h *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.Clients() != want {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, have %d", want, h.Clients())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestPublishReachesClient(t *testing.T) {
	s, ts := newTestServer(t)
	conn := dial(t, ts)
	waitForClients(t, s.hub, 1)

	cfg := fluid.Config{
		GridSize:          8,
		TileSize:          4,
		JacobiIterations:  10,
		DT:                1.0 / 60.0,
		Viscosity:         0.99,
		PressureRetention: 0.5,
		ForceMultiplier:   1,
		MaxVelocity:       1000,
		Workers:           1,
	}
	solver, err := fluid.New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer solver.Close()

	solver.Step([]fluid.Body{{
		Position: fluid.Vec2{X: 4, Y: 4},
		Velocity: fluid.Vec2{X: 500, Y: 0},
		Radius:   3,
	}})

	ships := []arena.ShipView{{ID: 1, X: 10, Y: 20}}
	if !s.Publish(solver.Published(), ships) {
		t.Fatal("expected the frame to be published")
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	kind, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if kind != websocket.BinaryMessage {
		t.Errorf("expected a binary message, got %d", kind)
	}

	f, err := DecodeFrame(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if f.Tick != 1 || f.Size != 8 || len(f.Cells) != 64 {
		t.Errorf("unexpected frame tick %d size %d cells %d", f.Tick, f.Size, len(f.Cells))
	}
	var moving int
	for _, b := range f.Cells {
		if b > 0 {
			moving++
		}
	}
	if moving == 0 {
		t.Error("expected the wake to show up above band 0")
	}
	if len(f.Ships) != 1 || f.Ships[0].ID != 1 {
		t.Errorf("unexpected ships %+v", f.Ships)
	}
}

func TestPublishSkipsWithoutClients(t *testing.T) {
	s, _ := newTestServer(t)

	solver, err := fluid.New(fluid.Config{
		GridSize: 8, TileSize: 4, JacobiIterations: 1, DT: 0.1,
		Viscosity: 0.9, MaxVelocity: 10, Workers: 1,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer solver.Close()

	if s.Publish(solver.Published(), nil) {
		t.Error("expected no frame without clients")
	}
}

func TestClientDisconnectUnregisters(t *testing.T) {
	s, ts := newTestServer(t)
	conn := dial(t, ts)
	waitForClients(t, s.hub, 1)

	conn.Close()
	waitForClients(t, s.hub, 0)
}

func TestMetricsAndHealthEndpoints(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected healthz 200, got %d", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "wake_stream_clients") {
		t.Error("expected stream metrics in /metrics output")
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	s := New(config.StreamConfig{FrameEvery: 1, ClientQueue: 1}, palette.NewPalette(100, 8))
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}
