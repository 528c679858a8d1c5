package analysis

import "strings"

// Version is stamped into every analysis this build produces.
const Version = "1.0.0"

const (
	defaultConfidence  = 0.85
	fallbackConfidence = 0.5

	// Rough completion-throughput estimate used to derive processing time
	// from the token count. An approximation, not a measurement.
	tokensPerSecond = 20
)

// Envelope is the raw completion handed to the assembler: the text to parse,
// the model that produced it and the completion token count.
type Envelope struct {
	Text         string
	Model        string
	OutputTokens int
}

// Assemble turns a completion envelope into a fully-populated analysis. A
// malformed envelope, or anything going wrong while structuring the text,
// yields the fixed fallback record instead of an error: downstream persistence
// never needs to special-case a failed generation.
func Assemble(env Envelope) (a *Analysis) {
	defer func() {
		if r := recover(); r != nil {
			a = Fallback()
		}
	}()

	if strings.TrimSpace(env.Text) == "" || env.Model == "" {
		return Fallback()
	}

	parsed := ParseCompletion(env.Text)

	a = &Analysis{
		Interpretation:        parsed.Interpretation,
		SymbolAnalyses:        parsed.SymbolAnalyses,
		Emotional:             parsed.Emotional,
		PatternIdentification: parsed.PatternIdentification,
		Perspectives:          parsed.Perspectives,
		RealLife:              parsed.RealLife,
		ReflectiveQuestions:   parsed.ReflectiveQuestions,
		Recommendations:       parsed.Recommendations,
		ProfessionalAttention: parsed.ProfessionalAttention,
		Metadata: Metadata{
			AIModel:         env.Model,
			ConfidenceScore: defaultConfidence,
			Version:         Version,
			ProcessingTime:  float64(env.OutputTokens) / tokensPerSecond,
		},
	}
	normalize(a)
	return a
}

// Fallback is the deterministic analysis persisted when generation fails. Its
// shape is identical to a successful analysis.
func Fallback() *Analysis {
	a := &Analysis{
		Interpretation: "Tu sueño contiene elementos significativos que reflejan aspectos de tu vida interior. " +
			"Aunque no pudimos generar un análisis detallado en este momento, cada sueño es una ventana a tu mundo emocional.",
		Perspectives: []Perspective{
			{
				Framework: FrameworkCognitive,
				Interpretation: "Desde la perspectiva cognitiva, los sueños ayudan a procesar la información y las emociones del día. " +
					"Este sueño puede reflejar procesos de consolidación de memoria y regulación emocional.",
			},
		},
		RealLife: RealLifeConnections{
			PotentialInfluences: []string{
				"Eventos recientes de tu vida diaria",
				"Emociones o preocupaciones presentes",
			},
		},
		ReflectiveQuestions: []string{
			"¿Qué emociones sentiste durante el sueño y cuáles persisten al despertar?",
			"¿Hay elementos del sueño que te recuerden a situaciones actuales de tu vida?",
			"¿Qué mensaje crees que tu mente intenta transmitirte con este sueño?",
		},
		Recommendations: Recommendations{
			Journaling: []string{
				"Escribe en tu diario los detalles que recuerdes del sueño y las sensaciones que te dejó.",
			},
		},
		ProfessionalAttention: ProfessionalAttentionFlags{
			SuggestionLevel: LevelInformational,
		},
		Metadata: Metadata{
			AIModel:         "fallback",
			ConfidenceScore: fallbackConfidence,
			Version:         Version,
		},
	}
	normalize(a)
	return a
}

// normalize replaces nil slices with empty ones so every analysis marshals
// with the same key/value shape regardless of how it was produced.
func normalize(a *Analysis) {
	if a.SymbolAnalyses == nil {
		a.SymbolAnalyses = []SymbolAnalysis{}
	}
	if a.Emotional.EmotionalThemes == nil {
		a.Emotional.EmotionalThemes = []string{}
	}
	if a.PatternIdentification.RecurringThemes == nil {
		a.PatternIdentification.RecurringThemes = []string{}
	}
	if a.PatternIdentification.PersonalPatterns == nil {
		a.PatternIdentification.PersonalPatterns = []string{}
	}
	if a.Perspectives == nil {
		a.Perspectives = []Perspective{}
	}
	if a.RealLife.PotentialInfluences == nil {
		a.RealLife.PotentialInfluences = []string{}
	}
	if a.RealLife.SuggestedReflections == nil {
		a.RealLife.SuggestedReflections = []string{}
	}
	if a.RealLife.LifeAreaImpacts == nil {
		a.RealLife.LifeAreaImpacts = []LifeAreaImpact{}
	}
	if a.ReflectiveQuestions == nil {
		a.ReflectiveQuestions = []string{}
	}
	if a.Recommendations.Journaling == nil {
		a.Recommendations.Journaling = []string{}
	}
	if a.Recommendations.Mindfulness == nil {
		a.Recommendations.Mindfulness = []string{}
	}
	if a.Recommendations.Creative == nil {
		a.Recommendations.Creative = []string{}
	}
	if a.Recommendations.Practical == nil {
		a.Recommendations.Practical = []string{}
	}
	if a.ProfessionalAttention.Reasons == nil {
		a.ProfessionalAttention.Reasons = []string{}
	}
	if a.ProfessionalAttention.SuggestionLevel == "" {
		a.ProfessionalAttention.SuggestionLevel = LevelInformational
	}
}
