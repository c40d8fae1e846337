package stream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pthm-cable/wake/arena"
	"github.com/pthm-cable/wake/config"
	"github.com/pthm-cable/wake/fluid"
	"github.com/pthm-cable/wake/palette"
)

// Viewers are served from anywhere; the stream is read-only.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 64 * 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Server owns the hub and turns published fields into frames.
type Server struct {
	hub        *Hub
	pal        *palette.Palette
	frameEvery uint64

	vel   []float32
	cells []byte
}

// New creates a stream server for cfg, quantizing with pal.
func New(cfg config.StreamConfig, pal *palette.Palette) *Server {
	return &Server{
		hub:        NewHub(cfg.ClientQueue),
		pal:        pal,
		frameEvery: uint64(max(1, cfg.FrameEvery)),
	}
}

// Hub returns the server's client hub.
func (s *Server) Hub() *Hub { return s.hub }

// Handler serves /ws, /metrics and /healthz.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	return mux
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, s.hub.queue)}
	s.hub.add(c)
	slog.Info("stream client connected", "remote", conn.RemoteAddr().String(), "clients", s.hub.Clients())

	go s.hub.writePump(c)
	s.hub.readPump(c)
	slog.Info("stream client disconnected", "remote", conn.RemoteAddr().String(), "dropped", c.dropped.Load())
}

// Publish broadcasts field every frameEvery ticks. It does nothing when no
// client is connected or the field has already been overwritten.
func (s *Server) Publish(f fluid.Field, ships []arena.ShipView) bool {
	if f.Tick()%s.frameEvery != 0 || s.hub.Clients() == 0 || !f.Valid() {
		return false
	}

	n := f.Size()
	if cap(s.vel) < n*n*2 {
		s.vel = make([]float32, n*n*2)
	}
	s.vel = s.vel[:n*n*2]
	f.CopyTo(s.vel)
	// The copy may have raced the next tick's advection.
	if !f.Valid() {
		return false
	}

	s.cells = s.pal.BandsInto(s.cells, s.vel)
	frame := EncodeFrame(make([]byte, 0, headerSize+len(s.cells)+len(ships)*shipSize),
		f.Tick(), n, s.pal.Bands(), s.cells, ships)
	s.hub.Broadcast(frame)
	return true
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then disconnects every client.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		s.hub.Close()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("stream server listening", "addr", ln.Addr().String())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("stream server: %w", err)
	}
	return nil
}
