package analysis

import (
	"time"

	"github.com/google/uuid"
)

// Psychological framework vocabulary for perspective entries.
const (
	FrameworkJungian      = "jungian"
	FrameworkFreudian     = "freudian"
	FrameworkGestalt      = "gestalt"
	FrameworkCognitive    = "cognitive"
	FrameworkNeuroscience = "neuroscience"
	FrameworkOther        = "other"
)

// Life-area vocabulary for real-life impact entries.
const (
	AreaPersonal      = "personal"
	AreaRelationships = "relationships"
	AreaProfessional  = "professional"
	AreaHealth        = "health"
	AreaSpiritual     = "spiritual"
	AreaCreative      = "creative"
	AreaOther         = "other"
)

// Professional-attention suggestion levels.
const (
	LevelInformational = "informational"
	LevelRecommended   = "recommended"
	LevelImportant     = "important"
)

// SymbolAnalysis is one interpreted symbol from the completion text.
type SymbolAnalysis struct {
	Symbol         string `json:"symbol"`
	Interpretation string `json:"interpretation"`
	Psychological  string `json:"psychological_context,omitempty"`
	Cultural       string `json:"cultural_references,omitempty"`
}

// EmotionalAnalysis captures the emotional reading of the dream.
type EmotionalAnalysis struct {
	PrimaryEmotion  string   `json:"primary_emotion"`
	EmotionalThemes []string `json:"emotional_themes"`
	Patterns        string   `json:"patterns"`
}

// PatternIdentification links the dream to the user's wider dream history.
type PatternIdentification struct {
	RecurringThemes      []string `json:"recurring_themes"`
	ConnectionToPrevious string   `json:"connection_to_previous"`
	PersonalPatterns     []string `json:"personal_patterns"`
}

// Perspective is one psychological-framework reading of the dream.
type Perspective struct {
	Framework      string `json:"framework"`
	Interpretation string `json:"interpretation"`
}

// LifeAreaImpact ties the dream to one area of the dreamer's waking life.
type LifeAreaImpact struct {
	Area        string `json:"area"`
	Description string `json:"description"`
}

// RealLifeConnections relates the dream to the dreamer's current situation.
type RealLifeConnections struct {
	PotentialInfluences  []string         `json:"potential_influences"`
	SuggestedReflections []string         `json:"suggested_reflections"`
	LifeAreaImpacts      []LifeAreaImpact `json:"life_area_impacts"`
}

// Recommendations groups suggested activities by kind.
type Recommendations struct {
	Journaling  []string `json:"journaling"`
	Mindfulness []string `json:"mindfulness"`
	Creative    []string `json:"creative"`
	Practical   []string `json:"practical"`
}

// ProfessionalAttentionFlags marks content that may warrant professional help.
type ProfessionalAttentionFlags struct {
	HasFlags        bool     `json:"has_flags"`
	Reasons         []string `json:"reasons"`
	SuggestionLevel string   `json:"suggestion_level"`
}

// Metadata describes how the analysis was produced. ProcessingTime is a
// token-derived estimate in seconds, not a measured wall-clock duration.
type Metadata struct {
	AIModel             string  `json:"ai_model"`
	ConfidenceScore     float64 `json:"confidence_score"`
	Version             string  `json:"version"`
	ProcessingTime      float64 `json:"processing_time"`
	FollowUpRecommended bool    `json:"follow_up_recommended"`
}

// Feedback is the user's optional rating of an analysis, attached after the
// fact. It is the only mutation an analysis ever receives.
type Feedback struct {
	Accuracy    int       `json:"accuracy"`    // 1-5
	Helpfulness int       `json:"helpfulness"` // 1-5
	Insight     int       `json:"insight"`     // 1-5
	Comment     string    `json:"comment,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Analysis is the structured interpretation derived from one dream. At most
// one analysis exists per dream, enforced by a storage-level uniqueness
// constraint on (dream_id, user_id).
type Analysis struct {
	ID                    uuid.UUID                  `json:"id"`
	DreamID               uuid.UUID                  `json:"dream_id"`
	UserID                uuid.UUID                  `json:"user_id"`
	Interpretation        string                     `json:"interpretation"`
	SymbolAnalyses        []SymbolAnalysis           `json:"symbol_analyses"`
	Emotional             EmotionalAnalysis          `json:"emotional_analysis"`
	PatternIdentification PatternIdentification      `json:"pattern_identification"`
	Perspectives          []Perspective              `json:"psychological_perspectives"`
	RealLife              RealLifeConnections        `json:"real_life_connections"`
	ReflectiveQuestions   []string                   `json:"reflective_questions"`
	Recommendations       Recommendations            `json:"recommendations"`
	ProfessionalAttention ProfessionalAttentionFlags `json:"professional_attention_flags"`
	Metadata              Metadata                   `json:"analysis_metadata"`
	Feedback              *Feedback                  `json:"feedback,omitempty"`
	CreatedAt             time.Time                  `json:"created_at"`
}
