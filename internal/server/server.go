package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"

	"github.com/mcp-x-studio/canvas/internal/canvas"
	"github.com/mcp-x-studio/canvas/internal/event"
	"github.com/mcp-x-studio/canvas/internal/logging"
	"github.com/mcp-x-studio/canvas/pkg/types"
)

// Config holds server configuration.
type Config struct {
	Port              int
	EnableCORS        bool
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	HeartbeatInterval time.Duration
	// QueueSize is the per-viewer frame buffer. Zero uses the bus default.
	QueueSize int
}

// DefaultConfig returns default server configuration.
func DefaultConfig() *Config {
	return &Config{
		Port:              3000,
		EnableCORS:        true,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      0, // streams stay open
		HeartbeatInterval: event.DefaultHeartbeatInterval,
	}
}

// Server is the HTTP server. It owns the document store and the event bus
// and serializes every mutation with its broadcast.
type Server struct {
	config   *Config
	router   *chi.Mux
	httpSrv  *http.Server
	store    *canvas.Store
	bus      *event.Bus
	upgrader websocket.Upgrader

	srvMu sync.Mutex

	// dispatchMu orders store mutations, their broadcasts and the snapshots
	// handed to new subscribers.
	dispatchMu sync.Mutex
}

// New creates a new Server around store. A nil store starts from the
// default document.
func New(cfg *Config, store *canvas.Store) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if store == nil {
		store = canvas.NewStore(nil)
	}

	opts := []event.Option{event.WithHeartbeatInterval(cfg.HeartbeatInterval)}
	if cfg.QueueSize > 0 {
		opts = append(opts, event.WithQueueSize(cfg.QueueSize))
	}

	s := &Server{
		config: cfg,
		router: chi.NewRouter(),
		store:  store,
		bus:    event.NewBus(opts...),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures middleware for the server.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(logging.RequestLogger)
	s.router.Use(middleware.Recoverer)

	if s.config.EnableCORS {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	httpSrv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}
	s.srvMu.Lock()
	s.httpSrv = httpSrv
	s.srvMu.Unlock()

	logging.Info().Int("port", s.config.Port).Msg("canvas server listening")
	err := httpSrv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown ends every open stream and then gracefully shuts down the
// HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	busErr := s.bus.Close()

	s.srvMu.Lock()
	httpSrv := s.httpSrv
	s.srvMu.Unlock()
	if httpSrv == nil {
		return busErr
	}
	return errors.Join(httpSrv.Shutdown(ctx), busErr)
}

// Router returns the Chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Bus returns the event bus.
func (s *Server) Bus() *event.Bus {
	return s.bus
}

// Store returns the document store.
func (s *Server) Store() *canvas.Store {
	return s.store
}

// dispatch runs op and, if it succeeds, broadcasts its payload. The
// returned snapshot reflects the document right after op.
func (s *Server) dispatch(eventType event.EventType, op func() (any, error)) (*types.Document, error) {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	payload, err := op()
	if err != nil {
		return nil, err
	}
	if err := s.bus.Broadcast(eventType, payload); err != nil {
		logging.Warn().Err(err).Str("event", string(eventType)).Msg("broadcast failed")
	}
	return s.store.Snapshot(), nil
}

// subscribe registers a viewer with a snapshot taken under the dispatch lock.
func (s *Server) subscribe() (*event.Subscription, error) {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()
	return s.bus.Register(s.store.Snapshot())
}

// ApplyCSS replaces the global stylesheet and notifies every viewer.
func (s *Server) ApplyCSS(css string) (*types.Document, error) {
	return s.dispatch(event.CanvasUpdateCSS, func() (any, error) {
		s.store.SetCSS(css)
		return event.CSSUpdatedData{CSS: css}, nil
	})
}

// ApplyJavaScript replaces the global script and notifies every viewer.
func (s *Server) ApplyJavaScript(js string) (*types.Document, error) {
	return s.dispatch(event.CanvasUpdateJS, func() (any, error) {
		s.store.SetJavaScript(js)
		return event.JavaScriptUpdatedData{JavaScript: js}, nil
	})
}
