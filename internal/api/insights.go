package api

import (
	"net/http"
	"time"

	"github.com/somniary/somniary/internal/auth"
	"github.com/somniary/somniary/internal/insights"
)

const (
	defaultInsightDays = 30
	maxInsightDays     = 365

	// Ranked lists are computed in full; the API truncates for display.
	maxRankedEntries = 10
)

type insightsResponse struct {
	Summary  insights.Summary `json:"summary"`
	From     time.Time        `json:"from"`
	To       time.Time        `json:"to"`
	Days     int              `json:"days"`
	Analyses int              `json:"analyses"`
}

func (s *Server) getInsights(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	days := queryInt(r, "days", defaultInsightDays)
	if days < 1 || days > maxInsightDays {
		days = defaultInsightDays
	}

	end := time.Now().UTC()
	start := end.AddDate(0, 0, -days)

	records, err := s.store.FindAnalysesInWindow(r.Context(), userID, start, end)
	if err != nil {
		s.logger.Error("failed to load analyses for insights", "user_id", userID, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to compute insights")
		return
	}

	summary := insights.Aggregate(records)
	summary.Themes = truncateRanked(summary.Themes)
	summary.Emotions = truncateRanked(summary.Emotions)
	summary.Symbols = truncateRanked(summary.Symbols)

	respondJSON(w, http.StatusOK, insightsResponse{
		Summary:  summary,
		From:     start,
		To:       end,
		Days:     days,
		Analyses: len(records),
	})
}

func truncateRanked(counts []insights.NameCount) []insights.NameCount {
	if len(counts) > maxRankedEntries {
		return counts[:maxRankedEntries]
	}
	return counts
}
