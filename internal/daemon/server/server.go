// Package server provides the HTTP server observers connect to: the
// workspace API, message submission and the live event streams.
package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/grovetools/agentwatch/errors"
	"github.com/grovetools/agentwatch/internal/daemon/bus"
	"github.com/grovetools/agentwatch/internal/daemon/store"
	"github.com/grovetools/agentwatch/internal/daemon/workspace"
	"github.com/grovetools/agentwatch/pkg/models"
	"github.com/sirupsen/logrus"
)

// InvalidMessage is the system reply to a blank submission.
const InvalidMessage = "Please enter a valid message."

// Gate accepts tasks for the agent.
type Gate interface {
	Submit(message string) bool
	Busy() bool
}

// RunningConfig holds the settings the daemon was started with.
// This is exposed via the /api/config endpoint so clients can verify what config is active.
type RunningConfig struct {
	Addr          string    `json:"addr"`
	WorkspaceRoot string    `json:"workspace_root"`
	AgentKind     string    `json:"agent_kind"`
	AgentName     string    `json:"agent_name"`
	LogFile       string    `json:"log_file,omitempty"`
	DebounceMs    int       `json:"debounce_ms"`
	MoveWindowMs  int       `json:"move_window_ms"`
	ConfigFile    string    `json:"config_file,omitempty"`
	StartedAt     time.Time `json:"started_at"`
}

// Server serves the observer API.
type Server struct {
	logger        *logrus.Entry
	server        *http.Server
	store         *store.Store
	bus           *bus.Bus
	pub           bus.Publisher
	gate          Gate
	workspace     *workspace.Workspace
	runningConfig *RunningConfig
	upgrader      websocket.Upgrader
	closing       chan struct{}
	closeOnce     sync.Once
}

// New creates a new Server. Events the server itself produces go straight
// to b until SetPublisher installs the ordered engine publisher.
func New(st *store.Store, b *bus.Bus, ws *workspace.Workspace, gate Gate, logger *logrus.Entry) *Server {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	s := &Server{
		logger:    logger,
		store:     st,
		bus:       b,
		pub:       b,
		gate:      gate,
		workspace: ws,
		closing:   make(chan struct{}),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     allowAll,
	}
	return s
}

// SetPublisher sets where chat messages produced by the server are published.
func (s *Server) SetPublisher(pub bus.Publisher) {
	s.pub = pub
}

// SetRunningConfig sets the running configuration for the server.
func (s *Server) SetRunningConfig(cfg *RunningConfig) {
	s.runningConfig = cfg
}

// SetAllowedOrigins restricts which origins may open a websocket. An empty
// list allows every origin.
func (s *Server) SetAllowedOrigins(origins []string) {
	if len(origins) == 0 {
		s.upgrader.CheckOrigin = allowAll
		return
	}
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	s.upgrader.CheckOrigin = func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := allowed[origin]
		return ok
	}
}

func allowAll(*http.Request) bool { return true }

// Handler returns the routing table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Workspace API
	mux.HandleFunc("/api/workspace", s.handleGetWorkspace)
	mux.HandleFunc("/api/file", s.handleGetFile)
	mux.HandleFunc("/api/file/save", s.handleSaveFile)
	mux.HandleFunc("/api/file/rename", s.handleRenameFile)
	mux.HandleFunc("/api/file/create", s.handleCreateFile)
	mux.HandleFunc("/api/directory/create", s.handleCreateDirectory)
	mux.HandleFunc("/api/delete", s.handleDelete)
	mux.HandleFunc("/api/move", s.handleMove)

	// Session API
	mux.HandleFunc("/api/history", s.handleGetHistory)
	mux.HandleFunc("/api/message", s.handleMessage)
	mux.HandleFunc("/api/session", s.handleGetSession)
	mux.HandleFunc("/api/config", s.handleGetConfig)

	// Observers
	mux.HandleFunc("/api/stream", s.handleStream)
	mux.HandleFunc("/ws", s.handleWebSocket)

	return mux
}

// ListenAndServe listens on addr and serves until the server stops or fails.
func (s *Server) ListenAndServe(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to listen").WithDetail("addr", addr)
	}
	return s.Serve(listener)
}

// Serve accepts connections on listener. It blocks until the server stops.
func (s *Server) Serve(listener net.Listener) error {
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.WithField("addr", listener.Addr().String()).Info("Server listening")
	err := s.server.Serve(listener)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server and disconnects every observer.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	s.closeOnce.Do(func() { close(s.closing) })
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// Submit runs the submission rules shared by every transport and reports
// whether the gate accepted the message.
func (s *Server) Submit(message string) bool {
	if strings.TrimSpace(message) == "" {
		s.pub.Publish(models.NewMessageEvent(models.ChatMessage{
			Sender:  models.SenderSystem,
			Content: InvalidMessage,
		}))
		return false
	}

	s.logger.WithField("length", len(message)).Info("Received message")
	msg := models.ChatMessage{Sender: models.SenderUser, Content: message}
	s.store.History.Append(msg)
	s.pub.Publish(models.NewMessageEvent(msg))
	return s.gate.Submit(message)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status code and a {"error": ...} body.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	msg := err.Error()
	if agentErr, ok := err.(*errors.AgentError); ok {
		msg = agentErr.Message
	}
	entry := s.logger.WithFields(logrus.Fields{"path": r.URL.Path, "status": status})
	if status >= http.StatusInternalServerError {
		entry.WithError(err).Error("Request failed")
	} else {
		entry.WithError(err).Debug("Request rejected")
	}
	writeJSON(w, status, map[string]string{"error": msg})
}
