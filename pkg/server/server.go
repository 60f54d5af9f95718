// Package server is the HTTP front door of the bridge. It answers inbound
// calls with TwiML that points the telephony provider at the media-stream
// websocket, and runs one bridge.Coordinator per accepted stream.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"

	"github.com/haivivi/voicebridge/pkg/bridge"
	"github.com/haivivi/voicebridge/pkg/mediastream"
)

// Route paths.
const (
	PathHealth       = "/"
	PathIncomingCall = "/incoming-call"
	PathMediaStream  = "/media-stream"
	PathMetrics      = "/metrics"
)

// Defaults for Config.
const (
	DefaultHealthMessage   = "Media Stream Server is running!"
	DefaultFallbackMessage = "Sorry, we could not connect your call. Please try again later."
)

// ErrShuttingDown is returned for streams accepted after Shutdown began.
var ErrShuttingDown = errors.New("server: shutting down")

// Config configures a Server.
type Config struct {
	// PublicURL is the externally reachable base URL, for example
	// https://bridge.example.com. When empty the request host is used.
	PublicURL string `json:"public_url,omitempty" yaml:"public_url,omitempty"`

	// Intro is spoken before the stream connects. Optional.
	Intro string `json:"intro,omitempty" yaml:"intro,omitempty"`

	// FallbackMessage is spoken if the stream ends or fails to connect.
	FallbackMessage string `json:"fallback_message,omitempty" yaml:"fallback_message,omitempty"`

	HealthMessage string `json:"health_message,omitempty" yaml:"health_message,omitempty"`

	// Bridge is applied to every call.
	Bridge bridge.Config `json:"bridge" yaml:"bridge"`
}

// Validate checks the public URL and the bridge config.
func (c Config) Validate() error {
	if c.PublicURL != "" {
		u, err := url.Parse(c.PublicURL)
		if err != nil || u.Host == "" {
			return fmt.Errorf("%w: public url %q", bridge.ErrConfigurationInvalid, c.PublicURL)
		}
		switch u.Scheme {
		case "http", "https", "ws", "wss":
		default:
			return fmt.Errorf("%w: public url scheme %q", bridge.ErrConfigurationInvalid, u.Scheme)
		}
	}
	return c.Bridge.WithDefaults().Validate()
}

// Server routes calls into bridge coordinators.
type Server struct {
	cfg       Config
	dial      bridge.DialFunc
	logger    *slog.Logger
	observers []bridge.Observer
	metrics   http.Handler
	mux       *http.ServeMux

	// ctx parents every call; cancel tears all of them down.
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	closing bool
	calls   sync.WaitGroup
	active  map[string]*bridge.Coordinator
}

// Option configures a Server.
type Option func(*Server)

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithObserver adds an observer to every call.
func WithObserver(o bridge.Observer) Option {
	return func(s *Server) {
		if o != nil {
			s.observers = append(s.observers, o)
		}
	}
}

// WithMetricsHandler serves h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// New returns a Server that dials a backend for each call with dial.
func New(cfg Config, dial bridge.DialFunc, opts ...Option) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if dial == nil {
		return nil, fmt.Errorf("%w: backend dialer is required", bridge.ErrConfigurationInvalid)
	}
	if cfg.HealthMessage == "" {
		cfg.HealthMessage = DefaultHealthMessage
	}
	if cfg.FallbackMessage == "" {
		cfg.FallbackMessage = DefaultFallbackMessage
	}

	s := &Server{
		cfg:    cfg,
		dial:   dial,
		logger: slog.Default(),
		mux:    http.NewServeMux(),
		active: make(map[string]*bridge.Coordinator),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET "+PathHealth+"{$}", s.handleHealth)
	s.mux.HandleFunc(PathIncomingCall, s.handleIncomingCall)
	s.mux.HandleFunc("GET "+PathMediaStream, s.handleMediaStream)
	if s.metrics != nil {
		s.mux.Handle("GET "+PathMetrics, s.metrics)
	}
}

// Handler returns the root handler with logging and panic recovery.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = recoverPanic(s.logger, h)
	h = accessLog(s.logger, h)
	return h
}

// ActiveCalls returns the number of calls in progress.
func (s *Server) ActiveCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

// Shutdown hangs up every call and waits for them to finish or for ctx to
// end. New streams are refused once it is called.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closing = true
	s.mu.Unlock()
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.calls.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": s.cfg.HealthMessage})
}

func (s *Server) handleIncomingCall(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	body, err := answer(s.cfg.Intro, s.streamURL(r), s.cfg.FallbackMessage)
	if err != nil {
		s.logger.Error("render twiml", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	w.Write(body)
}

func (s *Server) handleMediaStream(w http.ResponseWriter, r *http.Request) {
	conn, err := mediastream.Upgrade(w, r)
	if err != nil {
		// The upgrader has already replied.
		s.logger.Warn("media stream upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	opts := []bridge.Option{bridge.WithLogger(s.logger)}
	for _, o := range s.observers {
		opts = append(opts, bridge.WithObserver(o))
	}
	coord, err := bridge.NewCoordinator(conn, s.dial, s.cfg.Bridge, opts...)
	if err != nil {
		s.logger.Error("create coordinator", "error", err)
		conn.Close()
		return
	}

	if !s.track(coord) {
		s.logger.Warn("refusing media stream", "error", ErrShuttingDown)
		conn.Close()
		return
	}
	defer s.untrack(coord)

	if err := coord.Run(s.ctx); err != nil {
		s.logger.Warn("call failed", "call_id", coord.ID(), "error", err)
	}
}

func (s *Server) track(c *bridge.Coordinator) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	s.active[c.ID()] = c
	s.calls.Add(1)
	return true
}

func (s *Server) untrack(c *bridge.Coordinator) {
	s.mu.Lock()
	delete(s.active, c.ID())
	s.mu.Unlock()
	s.calls.Done()
}

// streamURL is the websocket URL the provider should open for this call.
func (s *Server) streamURL(r *http.Request) string {
	u := &url.URL{Scheme: "wss", Host: r.Host}
	if s.cfg.PublicURL != "" {
		if pu, err := url.Parse(s.cfg.PublicURL); err == nil {
			u.Host = pu.Host
			u.Path = pu.Path
			if pu.Scheme == "http" || pu.Scheme == "ws" {
				u.Scheme = "ws"
			}
		}
	}
	u.Path = joinPath(u.Path, PathMediaStream)
	return u.String()
}

func joinPath(base, p string) string {
	for len(base) > 0 && base[len(base)-1] == '/' {
		base = base[:len(base)-1]
	}
	return base + p
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
