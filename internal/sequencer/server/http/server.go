// Package http exposes the sequencer's REST API plus health and metrics
// endpoints.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/astrolink-io/astrolink/internal/pkg/metrics"
	"github.com/astrolink-io/astrolink/internal/sequencer/core"
	"github.com/astrolink-io/astrolink/internal/sequencer/core/model"
	"github.com/astrolink-io/astrolink/internal/sequencer/core/service"
	"github.com/astrolink-io/astrolink/internal/sequencer/validator"
	"github.com/astrolink-io/astrolink/pkg/log"
	"github.com/astrolink-io/astrolink/pkg/options"
)

const maxDocumentBytes = 1 << 20

// ReadinessChecker reports whether the downstream broker connection is up.
type ReadinessChecker interface {
	IsConnected() bool
}

type Server struct {
	server *http.Server
	svc    *service.Service
	ready  ReadinessChecker
	logger log.Logger
}

func NewServer(opts *options.HttpOptions, svc *service.Service, ready ReadinessChecker) *Server {
	s := &Server{
		svc:    svc,
		ready:  ready,
		logger: log.Std().WithName("http"),
	}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReadyz).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/missions", s.handleSubmit).Methods(http.MethodPost)
	api.HandleFunc("/missions", s.handleList).Methods(http.MethodGet)
	api.HandleFunc("/missions/{id}", s.handleStatus).Methods(http.MethodGet)
	api.HandleFunc("/missions/{id}", s.handleAbort).Methods(http.MethodDelete)

	s.server = &http.Server{
		Addr:         opts.Addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the router, for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting HTTP server", "addr", s.server.Addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil && !s.ready.IsConnected() {
		http.Error(w, "broker not connected", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	doc, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	rec, err := s.svc.Submit(r.Context(), doc)
	if err != nil {
		s.writeSubmitError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, rec)
}

func (s *Server) writeSubmitError(w http.ResponseWriter, err error) {
	var verr *core.ValidationError
	var dup *core.DuplicateMissionError
	var full *core.QueueFullError

	switch {
	case errors.Is(err, validator.ErrMalformedDocument):
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, "mission document is invalid", verr.Violations)
	case errors.As(err, &dup):
		writeError(w, http.StatusConflict, err.Error(), nil)
	case errors.As(err, &full):
		writeError(w, http.StatusServiceUnavailable, err.Error(), nil)
	default:
		s.logger.Error(err, "Submit failed")
		writeError(w, http.StatusInternalServerError, "internal error", nil)
	}
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	active := s.svc.ListActive()
	if active == nil {
		active = []*model.MissionRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"missions": active})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	rec, err := s.svc.Status(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error(), nil)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleAbort(w http.ResponseWriter, r *http.Request) {
	err := s.svc.Abort(mux.Vars(r)["id"])
	if err == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	var nf *core.MissionNotFoundError
	var fin *core.MissionFinishedError
	switch {
	case errors.As(err, &nf):
		writeError(w, http.StatusNotFound, err.Error(), nil)
	case errors.As(err, &fin):
		writeError(w, http.StatusConflict, err.Error(), nil)
	default:
		s.logger.Error(err, "Abort failed", "missionID", mux.Vars(r)["id"])
		writeError(w, http.StatusInternalServerError, "internal error", nil)
	}
}

func readBody(r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	doc, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, maxDocumentBytes))
	if err != nil {
		return nil, err
	}
	if len(doc) == 0 {
		return nil, errors.New("empty request body")
	}
	return doc, nil
}

type errorResponse struct {
	Error      string                `json:"error"`
	Violations []core.FieldViolation `json:"violations,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string, violations []core.FieldViolation) {
	writeJSON(w, status, errorResponse{Error: msg, Violations: violations})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
