package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/semcache/internal/cachekey"
	"github.com/hyperjump/semcache/internal/models"
	"github.com/hyperjump/semcache/internal/semcache"
	"github.com/hyperjump/semcache/internal/storage"
)

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	var req models.LookupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	start := time.Now()
	m, err := s.engine.Lookup(r.Context(), req.Query)
	if err != nil {
		s.respondEngineError(w, "lookup", err)
		return
	}
	resp := models.LookupResponse{Query: req.Query, QueryTime: time.Since(start).Milliseconds()}
	if m != nil {
		resp.Hit = true
		resp.Score = m.Score
		resp.Text = m.Text
		resp.Response = m.Response
		resp.Timestamp = m.Timestamp
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStore(w http.ResponseWriter, r *http.Request) {
	var req models.StoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("store request", zap.String("query", req.Query))
	if err := s.engine.SetCache(r.Context(), req.Query, req.Response); err != nil {
		s.respondEngineError(w, "store", err)
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]string{
		"key":    cachekey.Derive(s.engine.Namespace(), req.Query),
		"status": "cached",
	})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.ClearCache(r.Context()); err != nil {
		s.respondEngineError(w, "clear", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	var req models.LookupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.engine.DeleteCache(r.Context(), req.Query); err != nil {
		s.respondEngineError(w, "delete", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleEmbed(w http.ResponseWriter, r *http.Request) {
	var req models.EmbedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Text == "" {
		s.respondError(w, http.StatusBadRequest, "text cannot be empty")
		return
	}
	emb, err := s.engine.Embed(r.Context(), req.Text)
	if err != nil {
		s.respondEngineError(w, "embed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, models.EmbedResponse{Embedding: emb, Dimensions: len(emb)})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := models.StatusResponse{
		Ready:     s.engine.Ready(),
		State:     s.engine.State().String(),
		Threshold: s.engine.Threshold(),
		Namespace: s.engine.Namespace(),
		Backend:   s.backend,
	}
	if resp.Ready {
		stats, err := s.engine.Stats(r.Context())
		if err != nil {
			s.respondEngineError(w, "status", err)
			return
		}
		resp.Entries = stats.Entries
		resp.ModelName = stats.ModelName
		resp.Dimensions = stats.Dimensions
		resp.MemoizedEmbeddings = stats.MemoizedEmbeddings
	}
	if len(s.diskPaths) > 0 {
		if n, err := storage.DiskUsageBytes(s.diskPaths...); err == nil {
			resp.DiskUsage = &n
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !s.engine.Ready() {
		s.respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": s.engine.State().String()})
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// respondEngineError maps engine errors to HTTP statuses.
func (s *Server) respondEngineError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, semcache.ErrNotInitialized), errors.Is(err, semcache.ErrClosed):
		s.respondError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, semcache.ErrInvalidResponse):
		s.respondError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error(op+" failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
