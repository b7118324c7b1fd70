// Package server exposes resolution over HTTP for players and scripts on the local network.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aniresolve/aniresolve/constant"
	"github.com/aniresolve/aniresolve/log"
	"github.com/aniresolve/aniresolve/metrics"
	"github.com/aniresolve/aniresolve/resolve"
	"github.com/aniresolve/aniresolve/source"
)

// RequestFunc builds a resolution request for ref from the configured defaults.
type RequestFunc func(ref source.MediaReference) (resolve.Request, error)

// Server serves /resolve, /healthz and /metrics.
type Server struct {
	coordinator *resolve.Coordinator
	newRequest  RequestFunc
	remember    func(resolve.Request, *resolve.Result) error
	anonymized  bool

	server *http.Server
}

// Options configure a Server.
type Options struct {
	Coordinator *resolve.Coordinator
	NewRequest  RequestFunc

	// Remember is called after every successful resolution. Optional.
	Remember func(resolve.Request, *resolve.Result) error

	// Anonymized is reported by /healthz.
	Anonymized bool
}

// New returns a server. It does not listen until Serve is called.
func New(opts Options) *Server {
	s := &Server{
		coordinator: opts.Coordinator,
		newRequest:  opts.NewRequest,
		remember:    opts.Remember,
		anonymized:  opts.Anonymized,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /resolve", s.handleResolve)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", metrics.Handler())

	s.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler returns the routing handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Serve listens on address until ctx is done.
func (s *Server) Serve(ctx context.Context, address string) error {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	log.Infof("listening on %s", listener.Addr())
	if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"version":    constant.Version,
		"anonymized": s.anonymized,
	})
}

// handleResolve accepts either url=<episode url> or slug, season and episode.
// language, provider and fallback=true override the configured defaults.
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseRequest(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var result *resolve.Result
	if fallback, _ := strconv.ParseBool(r.URL.Query().Get("fallback")); fallback {
		result, err = resolve.Fallback(r.Context(), s.coordinator, req)
	} else {
		result, err = s.coordinator.Resolve(r.Context(), req)
	}
	if err != nil {
		s.writeError(w, statusOf(err), err.Error())
		return
	}

	if s.remember != nil {
		if err := s.remember(req, result); err != nil {
			log.Warnf("could not store provider hint: %s", err)
		}
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) parseRequest(r *http.Request) (resolve.Request, error) {
	q := r.URL.Query()

	var (
		ref source.MediaReference
		err error
	)
	if raw := q.Get("url"); raw != "" {
		ref, err = source.ReferenceFromURL(raw)
	} else {
		season, seasonErr := strconv.Atoi(q.Get("season"))
		episode, episodeErr := strconv.Atoi(q.Get("episode"))
		if seasonErr != nil || episodeErr != nil {
			return resolve.Request{}, errors.New("either url or slug, season and episode are required")
		}
		ref, err = source.NewReference(q.Get("slug"), season, episode)
	}
	if err != nil {
		return resolve.Request{}, err
	}

	req, err := s.newRequest(ref)
	if err != nil {
		return resolve.Request{}, err
	}

	if raw := q.Get("language"); raw != "" {
		if req.Language, err = source.ParseLanguage(raw); err != nil {
			return resolve.Request{}, err
		}
	}
	if raw := strings.TrimSpace(q.Get("provider")); raw != "" {
		req.Preferred = source.ParseProviderName(raw)
	}
	return req, nil
}

// statusOf maps the error taxonomy onto HTTP statuses.
func statusOf(err error) int {
	var fetchErr *source.FetchError
	switch {
	case errors.Is(err, source.ErrBlocked):
		return http.StatusServiceUnavailable
	case errors.Is(err, source.ErrLanguageUnavailable):
		return http.StatusNotFound
	case errors.Is(err, source.ErrProviderUnsupported):
		return http.StatusUnprocessableEntity
	case errors.As(err, &fetchErr) && fetchErr.Cause == source.Timeout:
		return http.StatusGatewayTimeout
	case errors.As(err, &fetchErr) && fetchErr.Status == http.StatusNotFound && !source.IsProviderLocal(err):
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Errorf("failed to encode response: %s", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
