// Package coordinator serves the shared text to participants. Each websocket
// connection gets its own Handler loop; plain HTTP routes expose the current
// text and some counters for inspection.
package coordinator

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"
	"unicode/utf8"

	"github.com/felixge/httpsnoop"
	"github.com/gorilla/mux"

	"github.com/arjav0703/typing-game/pkg/link"
	"github.com/arjav0703/typing-game/pkg/session"
)

type Server struct {
	store   *session.Store
	hub     *session.Hub
	handler *Handler
	logger  *slog.Logger
	nextID  atomic.Uint64
}

func NewServer(store *session.Store, hub *session.Hub, logger *slog.Logger) *Server {
	return &Server{
		store:   store,
		hub:     hub,
		handler: NewHandler(store, hub),
		logger:  logger,
	}
}

func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			m := httpsnoop.CaptureMetrics(handler, writer, request)
			s.logger.Info("handled", "method", request.Method, "url", request.URL, "duration", m.Duration, "status", m.Code)
		})
	})

	r.Methods(http.MethodGet).Path("/").HandlerFunc(s.syncText)
	r.Methods(http.MethodGet).Path("/snapshot").HandlerFunc(s.getSnapshot)
	r.Methods(http.MethodGet).Path("/healthz").HandlerFunc(s.getHealth)
	return r
}

func (s *Server) syncText(writer http.ResponseWriter, request *http.Request) {
	conn, err := link.Accept(writer, request)
	if err != nil {
		s.logger.Error("failed to accept", "err", err)
		return
	}
	logger := s.logger.With("participant", s.nextID.Add(1), "remote", request.RemoteAddr)
	if err := s.handler.Serve(conn, logger); err != nil {
		logger.Error("connection failed", "err", err)
	}
}

func (s *Server) getSnapshot(writer http.ResponseWriter, request *http.Request) {
	writer.Header().Add("Content-Type", "text/plain; charset=utf-8")
	if _, err := writer.Write([]byte(s.store.Current().Text)); err != nil {
		s.logger.Error("failed to write out", "err", err)
	}
}

type health struct {
	Mode         session.Mode `json:"mode"`
	Version      uint64       `json:"version"`
	Length       int          `json:"length"`
	Participants int64        `json:"participants"`
}

func (s *Server) getHealth(writer http.ResponseWriter, request *http.Request) {
	sn := s.store.Current()
	writer.Header().Add("Content-Type", "application/json")
	if err := json.NewEncoder(writer).Encode(health{
		Mode:         s.store.Mode(),
		Version:      sn.Version,
		Length:       utf8.RuneCountInString(sn.Text),
		Participants: s.handler.Participants(),
	}); err != nil {
		s.logger.Error("failed to encode health", "err", err)
	}
}
