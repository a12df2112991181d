package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/kselvad/scoregrid/logger"
	"github.com/kselvad/scoregrid/types"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// Server exposes the hub over HTTP: a websocket endpoint for clients and
// small JSON endpoints for health and introspection.
type Server struct {
	listenAddr   string
	writeTimeout time.Duration

	hub      *Hub
	logger   logger.Logger
	upgrader websocket.Upgrader
	http     *http.Server
}

// New builds the hub and wires it into an HTTP server. The snapshot store
// is opened here so ownership of its lifecycle stays with the server.
func New(cfg Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	var store SnapshotStore = noopSnapshotStore{}
	if cfg.SnapshotPath != "" {
		var err error
		store, err = openBoltSnapshotStore(cfg.SnapshotPath, log)
		if err != nil {
			return nil, err
		}
	}

	hub, err := NewHub(cfg, store)
	if err != nil {
		store.Close()
		return nil, err
	}

	s := &Server{
		listenAddr:   cfg.ListenAddr,
		writeTimeout: cfg.WriteTimeout,
		hub:          hub,
		logger:       log.WithComponent("server"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Judges connect from arbitrary origins on the venue network.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}

	r := mux.NewRouter()
	r.HandleFunc("/ws", s.handleWS)
	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.HandleFunc("/sessions", s.handleSessions).Methods(http.MethodGet)
	s.http = &http.Server{Addr: cfg.ListenAddr, Handler: r}
	return s, nil
}

// Hub exposes the hub, mainly for tests and the admin CLI.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Run serves until ctx is cancelled, then shuts down gracefully and
// persists a final snapshot.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Infow("listening", "addr", s.listenAddr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		s.hub.Close()
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.http.Shutdown(shutdownCtx)
	if cerr := s.hub.Close(); err == nil {
		err = cerr
	}
	s.logger.Infow("shut down")
	return err
}

// handleWS upgrades the connection and runs its read loop. One goroutine
// writes (draining the hub's queue for this session), the request
// goroutine reads.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnw("websocket upgrade failed", "remote_addr", r.RemoteAddr, "error", err)
		return
	}

	id, send := s.hub.Register(r.RemoteAddr)
	log := s.logger.WithClientID(id)

	go func() {
		for env := range send {
			ws.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			if err := ws.WriteJSON(env); err != nil {
				log.Debugw("write failed", "error", err)
				ws.Close()
				// Keep draining so Unregister's close terminates us.
			}
		}
		ws.Close()
	}()

	for {
		var env types.Envelope
		if err := ws.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debugw("read failed", "error", err)
			}
			break
		}
		// Rejections are deliberate no-answers; the client's state machine
		// recovers via lock broadcasts and the orphan reset timer.
		if err := s.hub.HandleAction(id, env.Action, env.Payload); err != nil {
			log.Debugw("action not applied", "request", env.Action, "error", err)
		}
	}
	s.hub.Unregister(id)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":    "ok",
		"sessions":  s.hub.tracker.ActiveSessions(),
		"read_only": s.hub.ReadOnly(),
	})
}

func (s *Server) handleSessions(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.hub.Sessions())
}
