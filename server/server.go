package server

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net"
	"net/http"
	"slices"
	"sync"

	"github.com/JohanWinther/wsmux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Server upgrades HTTP requests to websocket connections and merges the
// events of all connections into one sequence.
//
// A Server is an http.Handler and can be mounted on any mux. Serve creates
// one that also owns its listener.
type Server struct {
	cfg      Config
	log      zerolog.Logger
	upgrader *websocket.Upgrader
	events   *wsmux.Multiplexer[Event]

	mu      sync.Mutex
	sockets map[string]*Socket
	closed  bool

	httpServer *http.Server
	listener   net.Listener
	serveDone  chan error
}

// Option is a functional option for configuring a Server
type Option func(*Server)

// WithLogger sets the logger. Defaults to the global zerolog logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) {
		s.log = l
	}
}

// WithUpgrader replaces the upgrader built from the Config.
func WithUpgrader(u *websocket.Upgrader) Option {
	return func(s *Server) {
		s.upgrader = u
	}
}

// New creates a Server that does not listen by itself. Zero Config fields
// get their defaults.
func New(cfg Config, opts ...Option) *Server {
	cfg.ApplyDefaults()
	s := &Server{
		cfg:     cfg,
		log:     log.Logger,
		sockets: make(map[string]*Socket),
	}
	s.upgrader = &websocket.Upgrader{
		ReadBufferSize:   cfg.ReadBufferSize,
		WriteBufferSize:  cfg.WriteBufferSize,
		HandshakeTimeout: cfg.HandshakeTimeout,
		CheckOrigin:      s.checkOrigin,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With().Str("component", "wsmux-server").Logger()
	s.events = wsmux.NewMultiplexer(wsmux.WithLogger[Event](s.log))
	return s
}

// Serve validates cfg, listens on cfg.Addr and serves websocket upgrades on
// cfg.Path in the background.
func Serve(cfg Config, opts ...Option) (*Server, error) {
	s := New(cfg, opts...)
	if err := s.cfg.Validate(); err != nil {
		return nil, err
	}

	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle(s.cfg.Path, s)
	s.httpServer = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: s.cfg.HandshakeTimeout,
	}
	s.listener = ln
	s.serveDone = make(chan error, 1)

	go func() {
		err := s.httpServer.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		s.serveDone <- err
		close(s.serveDone)
	}()
	s.log.Info().Str("addr", ln.Addr().String()).Str("path", s.cfg.Path).Msg("Listening")
	return s, nil
}

// Addr returns the listening address, or nil when the server was created
// with New.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Wait blocks until the HTTP server started by Serve has stopped and returns
// the error it stopped with. It returns nil right away for servers created
// with New.
func (s *Server) Wait() error {
	if s.serveDone == nil {
		return nil
	}
	return <-s.serveDone
}

// Events returns the merged events of every socket. See
// wsmux.Multiplexer.Iterate for the iteration rules.
func (s *Server) Events() iter.Seq[Event] {
	return s.events.Iterate()
}

// EventsContext is like Events but also ends when ctx is done.
func (s *Server) EventsContext(ctx context.Context) iter.Seq[Event] {
	return s.events.IterateContext(ctx)
}

// All returns the merged events. It is the same as Events.
func (s *Server) All() iter.Seq[Event] {
	return s.Events()
}

// Sockets returns the number of open sockets.
func (s *Server) Sockets() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sockets)
}

// ServeHTTP upgrades the request and registers the new socket.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		http.Error(w, ErrServerClosed.Error(), http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		s.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("Websocket upgrade failed")
		return
	}
	if s.cfg.ReadLimit > 0 {
		conn.SetReadLimit(s.cfg.ReadLimit)
	}

	sock := newSocket(conn)
	src := sock.source(s.log, func() { s.untrack(sock) })
	if !s.track(sock) {
		_ = sock.reader.Stop()
		_ = conn.Close()
		return
	}
	s.log.Debug().Str("socket", sock.ID).Str("remote", r.RemoteAddr).Msg("Socket connected")
	s.events.Add(src)
}

func (s *Server) track(sock *Socket) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.sockets[sock.ID] = sock
	return true
}

func (s *Server) untrack(sock *Socket) {
	s.mu.Lock()
	delete(s.sockets, sock.ID)
	s.mu.Unlock()
	_ = sock.conn.Close()
	s.log.Debug().Str("socket", sock.ID).Msg("Socket untracked")
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.cfg.AllowedOrigins) == 0 {
		return sameOrigin(r)
	}
	if s.cfg.allowAnyOrigin() {
		return true
	}
	return slices.Contains(s.cfg.AllowedOrigins, r.Header.Get("Origin"))
}

// Close stops the event sequence, shuts the HTTP server down and closes every
// socket with 1001 (going away). The event sequence still delivers the
// drain cycle in progress before it ends.
func (s *Server) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrServerClosed
	}
	s.closed = true
	sockets := make([]*Socket, 0, len(s.sockets))
	for _, sock := range s.sockets {
		sockets = append(sockets, sock)
	}
	s.mu.Unlock()

	_ = s.events.Stop()

	var err error
	if s.httpServer != nil {
		if serr := s.httpServer.Shutdown(ctx); serr != nil {
			err = fmt.Errorf("shutdown http server: %w", serr)
		}
	}

	for _, sock := range sockets {
		if cerr := sock.Close(websocket.CloseGoingAway, "server closing"); cerr != nil {
			s.log.Debug().Err(cerr).Str("socket", sock.ID).Msg("Close frame not sent")
		}
		_ = sock.reader.Stop()
		_ = sock.conn.Close()
	}
	s.log.Info().Int("sockets", len(sockets)).Msg("Server closed")
	return err
}

// Stop closes the server within the configured shutdown timeout. Stopping a
// closed server is not an error.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := s.Close(ctx); err != nil && !errors.Is(err, ErrServerClosed) {
		return err
	}
	return nil
}

// IsRunning returns true until the server is closed.
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed
}

var _ wsmux.Component = (*Server)(nil)
