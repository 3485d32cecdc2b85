// Package server exposes the daemon's health, status and metrics endpoints
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/ngmaloney/weather-alert/internal/checker"
)

// Pinger reports whether the database is reachable
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Scheduler is the part of the checker scheduler the server uses
type Scheduler interface {
	Status() (checker.RunState, error)
	TriggerNow()
}

// Server exposes /healthz, /readyz, /status, /metrics and a manual check trigger
type Server struct {
	httpServer *http.Server
	log        logrus.FieldLogger
}

// New creates the HTTP server
func New(addr string, db Pinger, sched Scheduler, metrics http.Handler, log logrus.FieldLogger) *Server {
	if metrics == nil {
		metrics = promhttp.Handler()
	}

	router := mux.NewRouter()
	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		log: log,
	}

	router.Use(s.logRequests)
	router.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/readyz", handleReady(db)).Methods(http.MethodGet)
	router.Handle("/metrics", metrics).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/status", handleStatus(sched)).Methods(http.MethodGet)
	api.HandleFunc("/check", handleCheck(sched)).Methods(http.MethodPost)
	router.HandleFunc("/status", handleStatus(sched)).Methods(http.MethodGet)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.log.WithField("addr", s.httpServer.Addr).Info("http server starting")
	return s.httpServer.ListenAndServe()
}

// Shutdown drains connections within the context deadline
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the router
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(start).String(),
		}).Debug("http request")
	})
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func handleStatus(sched Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		st, err := sched.Status()
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

func handleCheck(sched Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		sched.TriggerNow()
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "scheduled"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
