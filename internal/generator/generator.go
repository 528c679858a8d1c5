package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/somniary/somniary/internal/analysis"
	"github.com/somniary/somniary/internal/anthropic"
	"github.com/somniary/somniary/internal/bus"
	"github.com/somniary/somniary/internal/dream"
	"github.com/somniary/somniary/internal/store"
)

const maxCompletionTokens = 4096

// Store is the slice of the storage layer the generator needs.
type Store interface {
	GetDream(ctx context.Context, id, userID uuid.UUID) (*dream.Dream, error)
	RecentDreams(ctx context.Context, userID, excludeID uuid.UUID, limit int) ([]dream.Dream, error)
	CountDreams(ctx context.Context, userID uuid.UUID) (int, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*store.User, error)
	HasAnalysis(ctx context.Context, dreamID uuid.UUID) (bool, error)
	DreamExists(ctx context.Context, id uuid.UUID) (bool, error)
	SaveAnalysis(ctx context.Context, a *analysis.Analysis) error
	DeleteAnalysisByDreamID(ctx context.Context, dreamID, userID uuid.UUID) error
}

// Completer produces a prose completion for a prompt.
type Completer interface {
	Complete(ctx context.Context, system string, messages []anthropic.Message, maxTokens int) (*anthropic.Completion, error)
}

// Generator runs the dream analysis pipeline: load dream and context, build
// the prompt, call the model, structure the completion, persist. Provider and
// parsing failures degrade to the fallback analysis so a triggered generation
// always leaves a record behind (unless the dream itself disappeared).
type Generator struct {
	store  Store
	llm    Completer
	logger *slog.Logger
}

func New(s Store, llm Completer, logger *slog.Logger) *Generator {
	return &Generator{store: s, llm: llm, logger: logger}
}

// HandleAnalysisRequested is the NATS handler for bus.SubjectAnalysisRequested.
func (g *Generator) HandleAnalysisRequested(subject string, data []byte) {
	ctx := context.Background()

	var req bus.AnalysisRequest
	if err := json.Unmarshal(data, &req); err != nil {
		g.logger.Error("failed to parse analysis request", "error", err)
		return
	}

	dreamID, err := uuid.Parse(req.DreamID)
	if err != nil {
		g.logger.Error("invalid dream id", "dream_id", req.DreamID, "error", err)
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		g.logger.Error("invalid user id", "user_id", req.UserID, "error", err)
		return
	}

	g.logger.Info("processing analysis request",
		"dream_id", dreamID,
		"user_id", userID,
		"trigger", req.Trigger,
	)

	if err := g.Generate(ctx, dreamID, userID, req.Trigger); err != nil {
		g.logger.Error("generation failed", "dream_id", dreamID, "error", err)
	}
}

// Generate runs the pipeline for one dream. The create trigger is idempotent:
// an existing analysis short-circuits to success. Update and regenerate
// triggers replace the existing analysis.
func (g *Generator) Generate(ctx context.Context, dreamID, userID uuid.UUID, trigger string) error {
	switch trigger {
	case "update", "regenerate":
		if err := g.store.DeleteAnalysisByDreamID(ctx, dreamID, userID); err != nil {
			return fmt.Errorf("delete previous analysis: %w", err)
		}
	default:
		has, err := g.store.HasAnalysis(ctx, dreamID)
		if err != nil {
			return fmt.Errorf("check existing analysis: %w", err)
		}
		if has {
			g.logger.Info("analysis already exists, skipping", "dream_id", dreamID)
			return nil
		}
	}

	d, err := g.store.GetDream(ctx, dreamID, userID)
	if errors.Is(err, store.ErrNotFound) {
		g.logger.Info("dream gone before generation, skipping", "dream_id", dreamID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load dream: %w", err)
	}

	userCtx, history := g.loadContext(ctx, d)

	a := g.analyze(ctx, d, userCtx, history)
	a.DreamID = d.ID
	a.UserID = d.UserID

	// The dream may have been deleted while the model call was in flight.
	// Re-check so we never persist an orphaned analysis.
	exists, err := g.store.DreamExists(ctx, d.ID)
	if err != nil {
		return fmt.Errorf("recheck dream: %w", err)
	}
	if !exists {
		g.logger.Info("dream deleted during generation, discarding analysis", "dream_id", d.ID)
		return nil
	}

	err = g.store.SaveAnalysis(ctx, a)
	if errors.Is(err, store.ErrConflict) {
		g.logger.Info("concurrent analysis won, keeping existing", "dream_id", d.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("save analysis: %w", err)
	}

	g.logger.Info("analysis generated",
		"dream_id", d.ID,
		"model", a.Metadata.AIModel,
		"confidence", a.Metadata.ConfidenceScore,
	)
	return nil
}

// loadContext gathers the anonymized user profile and recent dream history.
// Only demographic fields travel to the model, never name or email. Failures
// here degrade to a thinner prompt rather than aborting the generation.
func (g *Generator) loadContext(ctx context.Context, d *dream.Dream) (dream.UserContext, []dream.Dream) {
	var userCtx dream.UserContext

	u, err := g.store.GetUserByID(ctx, d.UserID)
	if err != nil {
		g.logger.Warn("failed to load user profile", "user_id", d.UserID, "error", err)
	} else {
		userCtx = dream.UserContext{
			AgeRange:    u.AgeRange,
			Gender:      u.Gender,
			Occupation:  u.Occupation,
			Interests:   u.Interests,
			MemberSince: u.CreatedAt,
		}
	}

	count, err := g.store.CountDreams(ctx, d.UserID)
	if err != nil {
		g.logger.Warn("failed to count dreams", "user_id", d.UserID, "error", err)
	} else {
		userCtx.DreamCount = count
	}

	history, err := g.store.RecentDreams(ctx, d.UserID, d.ID, analysis.MaxHistoryDreams)
	if err != nil {
		g.logger.Warn("failed to load dream history", "user_id", d.UserID, "error", err)
		history = nil
	}

	return userCtx, history
}

// analyze calls the model and structures the completion. Any provider failure
// yields the fallback analysis instead of an error.
func (g *Generator) analyze(ctx context.Context, d *dream.Dream, userCtx dream.UserContext, history []dream.Dream) *analysis.Analysis {
	prompt := analysis.BuildPrompt(d, userCtx, history)

	comp, err := g.llm.Complete(ctx, analysis.SystemPrompt, []anthropic.Message{
		{Role: "user", Content: prompt},
	}, maxCompletionTokens)
	if err != nil {
		g.logger.Warn("model call failed, using fallback analysis", "dream_id", d.ID, "error", err)
		return analysis.Fallback()
	}

	return analysis.Assemble(analysis.Envelope{
		Text:         comp.Text,
		Model:        comp.Model,
		OutputTokens: comp.OutputTokens,
	})
}
