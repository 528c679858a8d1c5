package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/somniary/somniary/internal/analysis"
	"github.com/somniary/somniary/internal/auth"
	"github.com/somniary/somniary/internal/bus"
	"github.com/somniary/somniary/internal/dream"
	"github.com/somniary/somniary/internal/store"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// dreamResponse pairs a dream with the state of its analysis. Generation is
// asynchronous, so a freshly written dream always reports "pending".
type dreamResponse struct {
	Dream          *dream.Dream `json:"dream"`
	AnalysisStatus string       `json:"analysis_status"`
}

func (s *Server) createDream(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var d dream.Dream
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	d.UserID = userID

	if err := d.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.store.CreateDream(r.Context(), &d); err != nil {
		s.logger.Error("failed to create dream", "user_id", userID, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to save dream")
		return
	}

	s.requestAnalysis(&d, "create")
	respondJSON(w, http.StatusCreated, dreamResponse{Dream: &d, AnalysisStatus: "pending"})
}

func (s *Server) updateDream(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	prev, err := s.store.GetDream(r.Context(), id, userID)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "dream not found")
		return
	}
	if err != nil {
		s.logger.Error("failed to load dream", "dream_id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load dream")
		return
	}

	var d dream.Dream
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	d.ID = id
	d.UserID = userID
	d.CreatedAt = prev.CreatedAt

	if err := d.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.store.UpdateDream(r.Context(), &d); err != nil {
		s.logger.Error("failed to update dream", "dream_id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to save dream")
		return
	}

	// Only changes to analysis-relevant fields invalidate the existing
	// analysis. A fixed typo in the title does not cost a model call.
	status := "unchanged"
	if d.SignificantlyDiffers(prev) {
		s.requestAnalysis(&d, "update")
		status = "pending"
	}

	respondJSON(w, http.StatusOK, dreamResponse{Dream: &d, AnalysisStatus: status})
}

func (s *Server) getDream(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	d, err := s.store.GetDream(r.Context(), id, userID)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "dream not found")
		return
	}
	if err != nil {
		s.logger.Error("failed to load dream", "dream_id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load dream")
		return
	}

	respondJSON(w, http.StatusOK, d)
}

func (s *Server) listDreams(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	limit := queryInt(r, "limit", defaultPageSize)
	if limit < 1 || limit > maxPageSize {
		limit = defaultPageSize
	}
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	dreams, err := s.store.ListDreams(r.Context(), userID, limit, offset)
	if err != nil {
		s.logger.Error("failed to list dreams", "user_id", userID, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to list dreams")
		return
	}
	if dreams == nil {
		dreams = []dream.Dream{}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"dreams": dreams,
		"limit":  limit,
		"offset": offset,
	})
}

func (s *Server) deleteDream(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	err := s.store.DeleteDream(r.Context(), id, userID)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "dream not found")
		return
	}
	if err != nil {
		s.logger.Error("failed to delete dream", "dream_id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to delete dream")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getAnalysis(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	a, err := s.store.GetAnalysisByDreamID(r.Context(), id, userID)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "analysis not found")
		return
	}
	if err != nil {
		s.logger.Error("failed to load analysis", "dream_id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load analysis")
		return
	}

	respondJSON(w, http.StatusOK, a)
}

func (s *Server) regenerateAnalysis(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	d, err := s.store.GetDream(r.Context(), id, userID)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "dream not found")
		return
	}
	if err != nil {
		s.logger.Error("failed to load dream", "dream_id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load dream")
		return
	}

	s.requestAnalysis(d, "regenerate")
	respondJSON(w, http.StatusAccepted, dreamResponse{Dream: d, AnalysisStatus: "pending"})
}

func (s *Server) submitFeedback(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var fb analysis.Feedback
	if err := json.NewDecoder(r.Body).Decode(&fb); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	for _, rating := range []int{fb.Accuracy, fb.Helpfulness, fb.Insight} {
		if rating < 1 || rating > 5 {
			respondError(w, http.StatusBadRequest, "ratings must be between 1 and 5")
			return
		}
	}

	err := s.store.AttachFeedback(r.Context(), id, userID, &fb)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "analysis not found")
		return
	}
	if err != nil {
		s.logger.Error("failed to attach feedback", "analysis_id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to save feedback")
		return
	}

	respondJSON(w, http.StatusOK, fb)
}

// requestAnalysis publishes a generation trigger. Failures are logged and
// swallowed: the dream write already succeeded and the analysis can be
// regenerated on demand.
func (s *Server) requestAnalysis(d *dream.Dream, trigger string) {
	err := s.bus.Publish(bus.SubjectAnalysisRequested, bus.AnalysisRequest{
		DreamID: d.ID.String(),
		UserID:  d.UserID.String(),
		Trigger: trigger,
	})
	if err != nil {
		s.logger.Warn("failed to publish analysis request", "dream_id", d.ID, "trigger", trigger, "error", err)
	}
}

func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
