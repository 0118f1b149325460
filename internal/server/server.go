// Package server exposes a read-only websocket feed of the running race.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zeusync/racer/internal/core/observability/log"
	"github.com/zeusync/racer/internal/core/race"
)

var _ race.Observer = (*Spectator)(nil)

// Config holds spectator feed configuration
type Config struct {
	Enabled bool   `yaml:"enabled" env:"RACER_SPECTATOR_ENABLED"`
	Addr    string `yaml:"addr" env:"RACER_SPECTATOR_ADDR"`

	// BroadcastHz caps how often state frames go out. Frames are sent every
	// ceil(tickHz/BroadcastHz) race ticks.
	BroadcastHz  int           `yaml:"broadcast_hz"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	SendBuffer   int           `yaml:"send_buffer"`
	MaxClients   int           `yaml:"max_clients"`
}

// DefaultConfig returns default spectator configuration
func DefaultConfig() Config {
	return Config{
		Addr:         "127.0.0.1:8080",
		BroadcastHz:  20,
		WriteTimeout: 2 * time.Second,
		SendBuffer:   16,
		MaxClients:   64,
	}
}

func (c Config) Validate() error {
	var errs []error
	if c.Enabled && c.Addr == "" {
		errs = append(errs, fmt.Errorf("%w: addr is required", ErrInvalidConfig))
	}
	if c.BroadcastHz <= 0 {
		errs = append(errs, fmt.Errorf("%w: broadcast_hz must be > 0, got %d", ErrInvalidConfig, c.BroadcastHz))
	}
	if c.WriteTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%w: write_timeout must be > 0, got %v", ErrInvalidConfig, c.WriteTimeout))
	}
	if c.SendBuffer <= 0 {
		errs = append(errs, fmt.Errorf("%w: send_buffer must be > 0, got %d", ErrInvalidConfig, c.SendBuffer))
	}
	if c.MaxClients <= 0 {
		errs = append(errs, fmt.Errorf("%w: max_clients must be > 0, got %d", ErrInvalidConfig, c.MaxClients))
	}
	return errors.Join(errs...)
}

// Spectator fans race snapshots out to websocket clients. It observes the
// race loop and never feeds anything back into it.
type Spectator struct {
	config   Config
	logger   log.Log
	every    uint64
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	latest  []byte
	sent    lastSent

	server   *http.Server
	listener net.Listener
	running  int32 // atomic bool
}

type lastSent struct {
	raceID string
	tick   uint64
	ok     bool
}

// NewSpectator builds a feed for a race ticking at tickHz.
func NewSpectator(config Config, tickHz int, logger log.Log) (*Spectator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if tickHz <= 0 {
		return nil, fmt.Errorf("%w: tick rate %d", ErrInvalidConfig, tickHz)
	}
	if logger == nil {
		logger = log.NewNop()
	}

	// round up so the feed never exceeds BroadcastHz
	every := uint64((tickHz + config.BroadcastHz - 1) / config.BroadcastHz)
	return &Spectator{
		config: config,
		logger: logger.With(log.String("component", "spectator")),
		every:  every,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		clients: make(map[*client]struct{}),
	}, nil
}

// Start listens on addr and serves the feed in the background. An empty
// addr uses the configured one.
func (s *Spectator) Start(ctx context.Context, addr string) error {
	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		return ErrServerAlreadyRunning
	}
	if addr == "" {
		addr = s.config.Addr
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		atomic.StoreInt32(&s.running, 0)
		return fmt.Errorf("%w: %v", ErrListenerFailed, err)
	}

	s.mu.Lock()
	s.listener = ln
	s.server = &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	srv := s.server
	s.mu.Unlock()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("spectator server failed", log.Error(err))
		}
	}()

	s.logger.Info("spectator feed listening", log.String("addr", ln.Addr().String()))
	return nil
}

// Stop shuts the HTTP server down and disconnects every client.
func (s *Spectator) Stop(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&s.running, 1, 0) {
		return ErrServerNotRunning
	}

	s.mu.Lock()
	srv := s.server
	for c := range s.clients {
		s.dropLocked(c)
	}
	s.mu.Unlock()

	err := srv.Shutdown(ctx)
	s.logger.Info("spectator feed stopped")
	return err
}

// Addr is the bound listen address, nil before Start.
func (s *Spectator) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Clients reports the number of connected spectators.
func (s *Spectator) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Spectator) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/ws":
		s.handleWebSocket(w, r)
	case "/state":
		s.handleState(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (s *Spectator) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	s.mu.Lock()
	latest := s.latest
	s.mu.Unlock()
	if latest == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(latest)
}

// Observe implements race.Observer. Frames are decimated to BroadcastHz;
// the final frame of a race always goes out, and repeats of an already sent
// tick are skipped.
func (s *Spectator) Observe(snap race.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sent.ok && s.sent.raceID == snap.RaceID && s.sent.tick == snap.Tick {
		return
	}
	if snap.Tick%s.every != 0 && snap.Winner == "" {
		return
	}

	data, err := EncodeState(snap)
	if err != nil {
		s.logger.Error("encode state frame", log.Error(err))
		return
	}
	s.latest = data
	s.sent = lastSent{raceID: snap.RaceID, tick: snap.Tick, ok: true}

	for c := range s.clients {
		select {
		case c.send <- data:
		default:
			s.logger.Warn("dropping slow spectator", log.String("remote", c.remote))
			s.dropLocked(c)
		}
	}
}
