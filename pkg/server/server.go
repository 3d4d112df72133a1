// Package server exposes the monitoring state as a read-only JSON API for
// external presentation layers.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/vidpulse/vidpulse/internal/monitor"
	"github.com/vidpulse/vidpulse/internal/store"
)

// MonitorState is the slice of the monitor the server reads.
type MonitorState interface {
	Videos() []string
	LastResults() []monitor.Result
}

// Server provides the HTTP API.
type Server struct {
	store   store.Store
	monitor MonitorState
	port    int
}

// New creates a new HTTP server.
func New(s store.Store, m MonitorState, port int) *Server {
	if port == 0 {
		port = 8080
	}
	return &Server{store: s, monitor: m, port: port}
}

// ListenAndServe starts the HTTP server and shuts it down when ctx is
// cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/v1/videos", s.handleVideos)
	mux.HandleFunc("/api/v1/history", s.handleHistory)
	mux.HandleFunc("/api/v1/alerts", s.handleAlerts)
	mux.HandleFunc("/api/v1/results", s.handleResults)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", srv.Addr).Msg("http server listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVideos(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	type trackedVideo struct {
		VideoID string           `json:"video_id"`
		Info    *store.VideoInfo `json:"info,omitempty"`
	}

	var videos []trackedVideo
	for _, id := range s.monitor.Videos() {
		v := trackedVideo{VideoID: id}
		if info, err := s.store.GetVideoInfo(r.Context(), id); err == nil {
			v.Info = info
		}
		videos = append(videos, v)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  videos,
		"count": len(videos),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	videoID := r.URL.Query().Get("video_id")
	if videoID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "video_id required"})
		return
	}

	since := time.Now().Add(-sinceHours(r))
	entries, err := s.store.History(r.Context(), videoID, since)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  entries,
		"count": len(entries),
	})
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	since := time.Now().Add(-sinceHours(r))
	alerts, err := s.store.RecentAlerts(r.Context(), since)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  alerts,
		"count": len(alerts),
	})
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	results := s.monitor.LastResults()
	writeJSON(w, http.StatusOK, map[string]any{
		"data":  results,
		"count": len(results),
	})
}

func sinceHours(r *http.Request) time.Duration {
	hours := 24.0
	if h := r.URL.Query().Get("hours"); h != "" {
		if parsed, err := strconv.ParseFloat(h, 64); err == nil && parsed > 0 {
			hours = parsed
		}
	}
	return time.Duration(hours * float64(time.Hour))
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
