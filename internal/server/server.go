// Package server exposes the stats backend over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	jsoniter "github.com/json-iterator/go"

	"github.com/GormazAR/overlay/internal/model"
	"github.com/GormazAR/overlay/internal/storage"
	"github.com/GormazAR/overlay/internal/util"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// WelcomeMessage is the body of GET /.
const WelcomeMessage = "Welcome to GormazAR's API"

// Recorder receives every counted scan and finished session.
type Recorder interface {
	RecordScan(docID, userID string, total int64)
	RecordSession(userID string, seconds, average float64)
}

// Server handles the stats routes on top of a storage backend.
type Server struct {
	backend  storage.Backend
	recorder Recorder
	logger   *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithRecorder mirrors scans and sessions to r.
func WithRecorder(r Recorder) Option {
	return func(s *Server) { s.recorder = r }
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New creates a Server on backend.
func New(backend storage.Backend, opts ...Option) *Server {
	s := &Server{backend: backend, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "server")
	return s
}

// Router returns the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", s.home).Methods(http.MethodGet)
	r.HandleFunc("/registerUser/{user_id}", s.registerUser).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/increment/{doc_id}", s.increment).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/endSession/{user_id}", s.endSession).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/stats", s.stats).Methods(http.MethodGet)
	r.Use(mux.CORSMethodMiddleware(r), cors, s.logRequests)
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down within shutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Stats server listening", "address", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("Stats server stopped")
	return nil
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func (s *Server) home(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, model.Message{Message: WelcomeMessage})
}

func (s *Server) registerUser(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]

	created, err := s.backend.RegisterUser(r.Context(), userID)
	if err != nil {
		s.fail(w, "register user", err)
		return
	}
	if !created {
		writeJSON(w, http.StatusOK, model.Message{Message: "User already registered"})
		return
	}
	s.logger.Info("User registered", "user", userID)
	writeJSON(w, http.StatusCreated, model.Message{Message: fmt.Sprintf("User %s successfully registered", userID)})
}

func (s *Server) increment(w http.ResponseWriter, r *http.Request) {
	docID := mux.Vars(r)["doc_id"]
	userID := r.FormValue("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "Missing user_id in request.")
		return
	}

	res, err := s.backend.IncrementScan(r.Context(), docID, userID)
	switch {
	case errors.Is(err, storage.ErrDocumentNotFound):
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Could not increment scans for %s", docID))
		return
	case errors.Is(err, storage.ErrUserNotFound):
		writeError(w, http.StatusNotFound, fmt.Sprintf("User %s is not registered", userID))
		return
	case err != nil:
		s.fail(w, "increment scan", err)
		return
	}

	if s.recorder != nil {
		s.recorder.RecordScan(docID, userID, res.Scans)
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) endSession(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "Missing 'duration' field.")
		return
	}
	if _, ok := r.Form["duration"]; !ok {
		writeError(w, http.StatusBadRequest, "Missing 'duration' field.")
		return
	}
	seconds, err := util.ParseSeconds(r.Form.Get("duration"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid 'duration' value.")
		return
	}

	res, err := s.backend.EndSession(r.Context(), userID, seconds)
	if errors.Is(err, storage.ErrInvalidDuration) {
		writeError(w, http.StatusBadRequest, "Invalid 'duration' value.")
		return
	}
	if err != nil {
		s.fail(w, "end session", err)
		return
	}

	if s.recorder != nil {
		s.recorder.RecordSession(userID, res.SessionDuration, res.AverageSessionTime)
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	res, err := s.backend.Stats(r.Context())
	if err != nil {
		s.fail(w, "stats", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, storage.ErrMissingUserID) {
		writeError(w, http.StatusBadRequest, "Missing user_id in request.")
		return
	}
	s.logger.Error("request failed", "op", op, "error", err)
	writeError(w, http.StatusInternalServerError, "Internal server error")
}
