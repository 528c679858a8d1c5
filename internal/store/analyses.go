package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/somniary/somniary/internal/analysis"
	"github.com/somniary/somniary/internal/insights"
)

// SaveAnalysis persists a freshly assembled analysis. A second analysis for
// the same (dream, user) pair hits the uniqueness constraint and comes back as
// ErrConflict; callers treat that as "the existing analysis wins".
func (s *Store) SaveAnalysis(ctx context.Context, a *analysis.Analysis) error {
	a.ID = uuid.New()
	a.CreatedAt = time.Now().UTC()

	symbolAnalyses, err := json.Marshal(a.SymbolAnalyses)
	if err != nil {
		return fmt.Errorf("marshal symbol analyses: %w", err)
	}
	emotional, err := json.Marshal(a.Emotional)
	if err != nil {
		return fmt.Errorf("marshal emotional: %w", err)
	}
	patterns, err := json.Marshal(a.PatternIdentification)
	if err != nil {
		return fmt.Errorf("marshal patterns: %w", err)
	}
	perspectives, err := json.Marshal(a.Perspectives)
	if err != nil {
		return fmt.Errorf("marshal perspectives: %w", err)
	}
	realLife, err := json.Marshal(a.RealLife)
	if err != nil {
		return fmt.Errorf("marshal real life: %w", err)
	}
	recommendations, err := json.Marshal(a.Recommendations)
	if err != nil {
		return fmt.Errorf("marshal recommendations: %w", err)
	}
	professional, err := json.Marshal(a.ProfessionalAttention)
	if err != nil {
		return fmt.Errorf("marshal professional attention: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO analyses (id, dream_id, user_id, interpretation, symbol_analyses, emotional,
			pattern_identification, perspectives, real_life, reflective_questions, recommendations,
			professional_attention, ai_model, confidence_score, version, processing_time,
			follow_up_recommended, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		a.ID, a.DreamID, a.UserID, a.Interpretation, symbolAnalyses, emotional,
		patterns, perspectives, realLife, a.ReflectiveQuestions, recommendations,
		professional, a.Metadata.AIModel, a.Metadata.ConfidenceScore, a.Metadata.Version,
		a.Metadata.ProcessingTime, a.Metadata.FollowUpRecommended, a.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("analysis for dream %s: %w", a.DreamID, ErrConflict)
		}
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

func (s *Store) GetAnalysisByDreamID(ctx context.Context, dreamID, userID uuid.UUID) (*analysis.Analysis, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, dream_id, user_id, interpretation, symbol_analyses, emotional,
			pattern_identification, perspectives, real_life, reflective_questions, recommendations,
			professional_attention, ai_model, confidence_score, version, processing_time,
			follow_up_recommended, feedback, created_at
		FROM analyses WHERE dream_id = $1 AND user_id = $2`, dreamID, userID)

	var a analysis.Analysis
	var symbolAnalyses, emotional, patterns, perspectives, realLife, recommendations, professional, feedback []byte

	err := row.Scan(&a.ID, &a.DreamID, &a.UserID, &a.Interpretation, &symbolAnalyses, &emotional,
		&patterns, &perspectives, &realLife, &a.ReflectiveQuestions, &recommendations,
		&professional, &a.Metadata.AIModel, &a.Metadata.ConfidenceScore, &a.Metadata.Version,
		&a.Metadata.ProcessingTime, &a.Metadata.FollowUpRecommended, &feedback, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan analysis: %w", err)
	}

	for _, field := range []struct {
		raw  []byte
		dest any
	}{
		{symbolAnalyses, &a.SymbolAnalyses},
		{emotional, &a.Emotional},
		{patterns, &a.PatternIdentification},
		{perspectives, &a.Perspectives},
		{realLife, &a.RealLife},
		{recommendations, &a.Recommendations},
		{professional, &a.ProfessionalAttention},
	} {
		if err := json.Unmarshal(field.raw, field.dest); err != nil {
			return nil, fmt.Errorf("unmarshal analysis field: %w", err)
		}
	}
	if feedback != nil {
		a.Feedback = &analysis.Feedback{}
		if err := json.Unmarshal(feedback, a.Feedback); err != nil {
			return nil, fmt.Errorf("unmarshal feedback: %w", err)
		}
	}
	return &a, nil
}

// HasAnalysis is the generator's idempotency guard.
func (s *Store) HasAnalysis(ctx context.Context, dreamID uuid.UUID) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM analyses WHERE dream_id = $1)`, dreamID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("has analysis: %w", err)
	}
	return exists, nil
}

func (s *Store) DeleteAnalysisByDreamID(ctx context.Context, dreamID, userID uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM analyses WHERE dream_id = $1 AND user_id = $2`, dreamID, userID)
	if err != nil {
		return fmt.Errorf("delete analysis: %w", err)
	}
	return nil
}

// AttachFeedback stores the user's rating of an analysis. Feedback is the only
// mutation an analysis receives after creation.
func (s *Store) AttachFeedback(ctx context.Context, analysisID, userID uuid.UUID, fb *analysis.Feedback) error {
	fb.CreatedAt = time.Now().UTC()
	raw, err := json.Marshal(fb)
	if err != nil {
		return fmt.Errorf("marshal feedback: %w", err)
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE analyses SET feedback = $1 WHERE id = $2 AND user_id = $3`,
		raw, analysisID, userID,
	)
	if err != nil {
		return fmt.Errorf("update feedback: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// FindAnalysesInWindow returns the user's analyses whose dream date falls in
// [start, end], flattened to the fields the insight aggregator consumes.
func (s *Store) FindAnalysesInWindow(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]insights.Record, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT d.dream_date, a.pattern_identification, a.emotional, a.symbol_analyses
		FROM analyses a
		JOIN dreams d ON d.id = a.dream_id
		WHERE a.user_id = $1 AND d.dream_date >= $2 AND d.dream_date <= $3
		ORDER BY d.dream_date ASC`, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("find analyses: %w", err)
	}
	defer rows.Close()

	var records []insights.Record
	for rows.Next() {
		var date time.Time
		var patternsRaw, emotionalRaw, symbolsRaw []byte
		if err := rows.Scan(&date, &patternsRaw, &emotionalRaw, &symbolsRaw); err != nil {
			return nil, fmt.Errorf("scan insight row: %w", err)
		}

		var patterns analysis.PatternIdentification
		if err := json.Unmarshal(patternsRaw, &patterns); err != nil {
			return nil, fmt.Errorf("unmarshal patterns: %w", err)
		}
		var emotional analysis.EmotionalAnalysis
		if err := json.Unmarshal(emotionalRaw, &emotional); err != nil {
			return nil, fmt.Errorf("unmarshal emotional: %w", err)
		}
		var symbolAnalyses []analysis.SymbolAnalysis
		if err := json.Unmarshal(symbolsRaw, &symbolAnalyses); err != nil {
			return nil, fmt.Errorf("unmarshal symbols: %w", err)
		}

		symbols := make([]string, 0, len(symbolAnalyses))
		for _, sa := range symbolAnalyses {
			symbols = append(symbols, sa.Symbol)
		}

		records = append(records, insights.Record{
			Date:            date,
			RecurringThemes: patterns.RecurringThemes,
			PrimaryEmotion:  emotional.PrimaryEmotion,
			EmotionalThemes: emotional.EmotionalThemes,
			Symbols:         symbols,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return records, nil
}
