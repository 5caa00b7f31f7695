// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/poiesic/trendline/analysis"
	"github.com/poiesic/trendline/chat"
	"github.com/poiesic/trendline/ingestion"
	"github.com/poiesic/trendline/search"
)

const (
	defaultLimit      = 20
	maxLimit          = 100
	defaultJobHistory = 10
)

type handlers struct {
	deps   Deps
	logger *slog.Logger
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// listTrends browses or searches trends. page is one-based on the wire.
func (h *handlers) listTrends(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := intParam(q.Get("page"), 1)
	if err != nil || page < 1 {
		respondWithError(w, h.logger, http.StatusBadRequest, "Invalid page", err)
		return
	}
	limit, err := intParam(q.Get("limit"), defaultLimit)
	if err != nil || limit < 1 || limit > maxLimit {
		respondWithError(w, h.logger, http.StatusBadRequest, "Invalid limit", err)
		return
	}

	result, err := h.deps.Trends.Search(r.Context(), search.Request{
		Text:     q.Get("query"),
		Category: q.Get("category"),
		Region:   q.Get("region"),
		Page:     page - 1,
		PerPage:  limit,
	})
	if err != nil {
		if errors.Is(err, search.ErrInvalidQuery) {
			respondWithError(w, h.logger, http.StatusBadRequest, err.Error(), nil)
			return
		}
		respondWithError(w, h.logger, http.StatusInternalServerError, "Failed to search trends", err)
		return
	}
	respondWithMessage(w, http.StatusOK, result.Error, result)
}

func (h *handlers) getTrend(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	t, err := h.deps.Trends.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, search.ErrTrendNotFound) {
			respondWithError(w, h.logger, http.StatusNotFound, "Trend not found", nil)
		} else {
			respondWithError(w, h.logger, http.StatusInternalServerError, "Failed to get trend", err)
		}
		return
	}
	respondWithJSON(w, http.StatusOK, t)
}

func (h *handlers) categories(w http.ResponseWriter, r *http.Request) {
	listing, err := h.deps.Trends.Categories(r.Context())
	if err != nil {
		respondWithError(w, h.logger, http.StatusInternalServerError, "Failed to list categories", err)
		return
	}
	respondWithJSON(w, http.StatusOK, listing)
}

func (h *handlers) regions(w http.ResponseWriter, r *http.Request) {
	listing, err := h.deps.Trends.Regions(r.Context())
	if err != nil {
		respondWithError(w, h.logger, http.StatusInternalServerError, "Failed to list regions", err)
		return
	}
	respondWithJSON(w, http.StatusOK, listing)
}

func (h *handlers) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.deps.Trends.Stats(r.Context())
	if err != nil {
		respondWithError(w, h.logger, http.StatusInternalServerError, "Failed to compute stats", err)
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}

func (h *handlers) chat(w http.ResponseWriter, r *http.Request) {
	var req chat.Request
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	resp, err := h.deps.Chat.Chat(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrEmptyMessage):
			respondWithError(w, h.logger, http.StatusBadRequest, err.Error(), nil)
		case errors.Is(err, chat.ErrSessionNotFound):
			respondWithError(w, h.logger, http.StatusNotFound, err.Error(), nil)
		case errors.Is(err, chat.ErrSessionReset):
			respondWithError(w, h.logger, http.StatusConflict, err.Error(), nil)
		default:
			respondWithError(w, h.logger, http.StatusInternalServerError, "Failed to process AI request", err)
		}
		return
	}
	respondWithMessage(w, http.StatusOK, resp.Error, resp)
}

func (h *handlers) suggestions(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string][]string{
		"suggestions": chat.Suggestions,
		"categories":  chat.SuggestionCategories,
	})
}

func (h *handlers) createSession(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusCreated, h.deps.Sessions.Create())
}

func (h *handlers) getSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.deps.Sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.sessionError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, session)
}

func (h *handlers) resetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.deps.Sessions.Reset(chi.URLParam(r, "id"))
	if err != nil {
		h.sessionError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, session)
}

func (h *handlers) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Sessions.Delete(chi.URLParam(r, "id")); err != nil {
		h.sessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) sessionError(w http.ResponseWriter, err error) {
	if errors.Is(err, chat.ErrSessionNotFound) {
		respondWithError(w, h.logger, http.StatusNotFound, "Session not found", nil)
		return
	}
	respondWithError(w, h.logger, http.StatusInternalServerError, "Session operation failed", err)
}

type analysisRequest struct {
	TrendID string `json:"trend_id"`
}

func (h *handlers) comprehensiveAnalysis(w http.ResponseWriter, r *http.Request) {
	var req analysisRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.TrendID) == "" {
		respondWithError(w, h.logger, http.StatusBadRequest, "Missing trend_id", nil)
		return
	}
	report, err := h.deps.Analysis.Analyze(r.Context(), req.TrendID)
	if err != nil {
		if errors.Is(err, analysis.ErrTrendNotFound) {
			respondWithError(w, h.logger, http.StatusNotFound, "Trend not found", nil)
		} else {
			respondWithError(w, h.logger, http.StatusInternalServerError, "Failed to perform comprehensive analysis", err)
		}
		return
	}
	respondWithJSON(w, http.StatusOK, report)
}

func (h *handlers) enrich(w http.ResponseWriter, r *http.Request) {
	var req ingestion.Request
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	ack, err := h.deps.Enricher.Start(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ingestion.ErrUnknownSource):
			respondWithError(w, h.logger, http.StatusBadRequest, err.Error(), nil)
		case errors.Is(err, ingestion.ErrClosed):
			respondWithError(w, h.logger, http.StatusServiceUnavailable, err.Error(), nil)
		default:
			respondWithError(w, h.logger, http.StatusInternalServerError, "Failed to start enrichment process", err)
		}
		return
	}
	message := "Trend enrichment started in background"
	if ack.Coalesced {
		message = "Joined enrichment already in progress"
	}
	respondWithMessage(w, http.StatusAccepted, message, ack)
}

// enrichmentStatus reports the job named by job_id, or the latest job.
func (h *handlers) enrichmentStatus(w http.ResponseWriter, r *http.Request) {
	job, err := h.deps.Enricher.Status(r.Context(), r.URL.Query().Get("job_id"))
	if err != nil {
		if errors.Is(err, ingestion.ErrJobNotFound) {
			respondWithError(w, h.logger, http.StatusNotFound, "No enrichment job found", nil)
		} else {
			respondWithError(w, h.logger, http.StatusInternalServerError, "Failed to get enrichment status", err)
		}
		return
	}
	respondWithJSON(w, http.StatusOK, job)
}

func (h *handlers) jobHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r.URL.Query().Get("limit"), defaultJobHistory)
	if err != nil || limit < 1 || limit > maxLimit {
		respondWithError(w, h.logger, http.StatusBadRequest, "Invalid limit", err)
		return
	}
	jobs, err := h.deps.Enricher.History(r.Context(), limit)
	if err != nil {
		respondWithError(w, h.logger, http.StatusInternalServerError, "Failed to list enrichment jobs", err)
		return
	}
	respondWithJSON(w, http.StatusOK, jobs)
}

func (h *handlers) scrapedSources(w http.ResponseWriter, r *http.Request) {
	srcs := h.deps.Enricher.Sources()
	respondWithJSON(w, http.StatusOK, map[string]any{
		"sources":       srcs,
		"total_sources": len(srcs),
	})
}

func (h *handlers) enrichmentAnalytics(w http.ResponseWriter, r *http.Request) {
	analytics, err := h.deps.Enricher.Analytics(r.Context())
	if err != nil {
		respondWithError(w, h.logger, http.StatusInternalServerError, "Failed to get enrichment analytics", err)
		return
	}
	respondWithJSON(w, http.StatusOK, analytics)
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
