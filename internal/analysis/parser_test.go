package analysis

import (
	"reflect"
	"strings"
	"testing"
)

const sampleCompletion = `### 1. Interpretación general

Este sueño refleja una transición importante en tu vida, marcada por la búsqueda de refugio emocional.

### 2. Análisis de símbolos

- **El mar**: representa tu mundo emocional profundo.
- **Una casa antigua**: simboliza tu pasado familiar.
- sombras sin forma definida

### 3. Análisis emocional

Emoción principal: ansiedad
Temas emocionales: incertidumbre, nostalgia y esperanza

La carga emocional del sueño sugiere una tensión entre lo que dejas atrás y lo que viene.

### 4. Patrones y conexiones

Temas recurrentes: agua, pérdida, búsqueda
Este sueño conecta con tus sueños anteriores sobre viajes inconclusos.

### 5. Perspectivas psicológicas

Desde el enfoque junguiano, el mar es un arquetipo del inconsciente colectivo. Para Freud, la casa remite a la infancia. La perspectiva cognitiva sugiere que estás procesando un cambio.

### 6. Conexiones con la vida real

Influencias: el estrés del trabajo, la mudanza reciente
Reflexiones: dedicar tiempo a la calma
El ámbito personal aparece en la necesidad de refugio.

### 7. Preguntas de reflexión

1. ¿Qué te genera el mar en la vida despierta?
2. ¿Qué dejarías atrás si pudieras?
- ¿Con quién compartirías este sueño?

### 8. Recomendaciones

- Escribe el sueño en tu diario al despertar.
- Practica cinco minutos de respiración consciente antes de dormir.
- Dibuja la casa que apareció en tu sueño.
- Da un paseo por la naturaleza durante la semana.

### 9. Atención profesional

No se observan señales que requieran atención profesional.
`

func TestParseCompletion_FullResponse(t *testing.T) {
	p := ParseCompletion(sampleCompletion)

	if !strings.HasPrefix(p.Interpretation, "Este sueño refleja una transición importante") {
		t.Errorf("unexpected interpretation: %q", p.Interpretation)
	}

	if len(p.SymbolAnalyses) != 3 {
		t.Fatalf("expected 3 symbols, got %d: %+v", len(p.SymbolAnalyses), p.SymbolAnalyses)
	}
	if p.SymbolAnalyses[0].Symbol != "El mar" {
		t.Errorf("symbol[0] = %q, want 'El mar'", p.SymbolAnalyses[0].Symbol)
	}
	if p.SymbolAnalyses[0].Interpretation != "representa tu mundo emocional profundo." {
		t.Errorf("symbol[0] interpretation = %q", p.SymbolAnalyses[0].Interpretation)
	}
	if p.SymbolAnalyses[2].Symbol != "Símbolo no identificado" {
		t.Errorf("unlabeled bullet should become unidentified symbol, got %q", p.SymbolAnalyses[2].Symbol)
	}

	if p.Emotional.PrimaryEmotion != "ansiedad" {
		t.Errorf("primary emotion = %q, want ansiedad", p.Emotional.PrimaryEmotion)
	}
	wantThemes := []string{"incertidumbre", "nostalgia", "esperanza"}
	if !reflect.DeepEqual(p.Emotional.EmotionalThemes, wantThemes) {
		t.Errorf("emotional themes = %v, want %v", p.Emotional.EmotionalThemes, wantThemes)
	}
	if !strings.Contains(p.Emotional.Patterns, "La carga emocional del sueño") {
		t.Errorf("patterns field should retain the full section text, got %q", p.Emotional.Patterns)
	}

	wantRecurring := []string{"agua", "pérdida", "búsqueda"}
	if !reflect.DeepEqual(p.PatternIdentification.RecurringThemes, wantRecurring) {
		t.Errorf("recurring themes = %v, want %v", p.PatternIdentification.RecurringThemes, wantRecurring)
	}
	if !strings.Contains(p.PatternIdentification.ConnectionToPrevious, "viajes inconclusos") {
		t.Errorf("connection text = %q", p.PatternIdentification.ConnectionToPrevious)
	}

	gotFrameworks := make([]string, len(p.Perspectives))
	for i, persp := range p.Perspectives {
		gotFrameworks[i] = persp.Framework
	}
	wantFrameworks := []string{FrameworkJungian, FrameworkFreudian, FrameworkCognitive}
	if !reflect.DeepEqual(gotFrameworks, wantFrameworks) {
		t.Errorf("frameworks = %v, want %v", gotFrameworks, wantFrameworks)
	}
	if !strings.Contains(p.Perspectives[0].Interpretation, "arquetipo del inconsciente colectivo") {
		t.Errorf("jungian clause = %q", p.Perspectives[0].Interpretation)
	}

	wantInfluences := []string{"el estrés del trabajo", "la mudanza reciente"}
	if !reflect.DeepEqual(p.RealLife.PotentialInfluences, wantInfluences) {
		t.Errorf("influences = %v, want %v", p.RealLife.PotentialInfluences, wantInfluences)
	}
	if len(p.RealLife.SuggestedReflections) != 1 {
		t.Errorf("expected 1 reflection, got %v", p.RealLife.SuggestedReflections)
	}
	areas := make(map[string]bool)
	for _, impact := range p.RealLife.LifeAreaImpacts {
		areas[impact.Area] = true
	}
	if !areas[AreaPersonal] || !areas[AreaProfessional] {
		t.Errorf("expected personal and professional impacts, got %+v", p.RealLife.LifeAreaImpacts)
	}

	wantQuestions := []string{
		"¿Qué te genera el mar en la vida despierta?",
		"¿Qué dejarías atrás si pudieras?",
		"¿Con quién compartirías este sueño?",
	}
	if !reflect.DeepEqual(p.ReflectiveQuestions, wantQuestions) {
		t.Errorf("questions = %v, want %v", p.ReflectiveQuestions, wantQuestions)
	}

	if len(p.Recommendations.Journaling) != 1 || len(p.Recommendations.Mindfulness) != 1 ||
		len(p.Recommendations.Creative) != 1 || len(p.Recommendations.Practical) != 1 {
		t.Errorf("recommendation classification off: %+v", p.Recommendations)
	}

	if p.ProfessionalAttention.HasFlags {
		t.Errorf("a dismissive professional-attention section must not flag: %+v", p.ProfessionalAttention)
	}
	if p.ProfessionalAttention.SuggestionLevel != LevelInformational {
		t.Errorf("suggestion level = %q, want informational", p.ProfessionalAttention.SuggestionLevel)
	}
}

func TestParseCompletion_MissingSymbolsSection(t *testing.T) {
	text := "Interpretación general:\n\nUn sueño de transformación y cierre de etapas.\n\n" +
		"Análisis emocional:\n\nEmoción principal: calma\n"

	p := ParseCompletion(text)

	if p.Interpretation != "Un sueño de transformación y cierre de etapas." {
		t.Errorf("interpretation = %q", p.Interpretation)
	}
	if len(p.SymbolAnalyses) != 0 {
		t.Errorf("expected no symbols for missing heading, got %+v", p.SymbolAnalyses)
	}
	if p.Emotional.PrimaryEmotion != "calma" {
		t.Errorf("primary emotion = %q, want calma", p.Emotional.PrimaryEmotion)
	}
}

// Dropping any single heading must leave every other section parseable.
func TestParseCompletion_SectionIsolation(t *testing.T) {
	headings := []string{
		"### 1. Interpretación general",
		"### 2. Análisis de símbolos",
		"### 3. Análisis emocional",
		"### 4. Patrones y conexiones",
		"### 7. Preguntas de reflexión",
		"### 8. Recomendaciones",
	}

	for _, removed := range headings {
		t.Run(removed, func(t *testing.T) {
			mutated := strings.Replace(sampleCompletion, removed, "(sección omitida)", 1)
			p := ParseCompletion(mutated)

			if removed != "### 1. Interpretación general" && p.Interpretation == "" {
				t.Error("interpretation lost")
			}
			if removed != "### 2. Análisis de símbolos" && len(p.SymbolAnalyses) == 0 {
				t.Error("symbols lost")
			}
			if removed != "### 3. Análisis emocional" && p.Emotional.PrimaryEmotion == "" {
				t.Error("primary emotion lost")
			}
			if removed != "### 4. Patrones y conexiones" && len(p.PatternIdentification.RecurringThemes) == 0 {
				t.Error("recurring themes lost")
			}
			if removed != "### 7. Preguntas de reflexión" && len(p.ReflectiveQuestions) == 0 {
				t.Error("questions lost")
			}
			if removed != "### 8. Recomendaciones" && len(p.Recommendations.Journaling) == 0 {
				t.Error("recommendations lost")
			}
		})
	}
}

func TestParseCompletion_EmptyInput(t *testing.T) {
	p := ParseCompletion("")

	if p.Interpretation != "" {
		t.Errorf("expected empty interpretation, got %q", p.Interpretation)
	}
	if len(p.SymbolAnalyses) != 0 || len(p.Perspectives) != 0 || len(p.ReflectiveQuestions) != 0 {
		t.Errorf("expected all-empty result: %+v", p)
	}
	if p.ProfessionalAttention.HasFlags {
		t.Error("empty input must not raise professional flags")
	}
}

func TestSplitSections_UnnumberedBoldHeadings(t *testing.T) {
	text := "**Interpretación general**\n\nTexto de interpretación.\n\n**Recomendaciones:**\n\n- Anota tus sueños.\n"

	sections := splitSections(text)

	if sections[secInterpretation] != "Texto de interpretación." {
		t.Errorf("interpretation section = %q", sections[secInterpretation])
	}
	if !strings.Contains(sections[secRecs], "Anota tus sueños.") {
		t.Errorf("recommendations section = %q", sections[secRecs])
	}
}

func TestSplitSections_AccentlessHeadings(t *testing.T) {
	text := "Interpretacion general\n\nSin tildes también funciona.\n"

	sections := splitSections(text)

	if sections[secInterpretation] != "Sin tildes también funciona." {
		t.Errorf("accentless heading not matched: %q", sections[secInterpretation])
	}
}

func TestParseSymbols(t *testing.T) {
	tests := []struct {
		name    string
		section string
		want    []SymbolAnalysis
	}{
		{
			"colon split",
			"- Agua: emociones profundas.",
			[]SymbolAnalysis{{Symbol: "Agua", Interpretation: "emociones profundas."}},
		},
		{
			"bold symbol name",
			"* **El puente**: transición entre etapas.",
			[]SymbolAnalysis{{Symbol: "El puente", Interpretation: "transición entre etapas."}},
		},
		{
			"unlabeled bullet",
			"- una figura sin rostro",
			[]SymbolAnalysis{{Symbol: "Símbolo no identificado", Interpretation: "una figura sin rostro"}},
		},
		{
			"numbered bullets",
			"1. Fuego: energía y cambio.\n2. Nieve: quietud emocional.",
			[]SymbolAnalysis{
				{Symbol: "Fuego", Interpretation: "energía y cambio."},
				{Symbol: "Nieve", Interpretation: "quietud emocional."},
			},
		},
		{"no bullets", "Texto corrido sin lista.", nil},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseSymbols(tt.section)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseSymbols() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"commas", "agua, fuego, tierra", []string{"agua", "fuego", "tierra"}},
		{"commas and y", "miedo, duda y esperanza", []string{"miedo", "duda", "esperanza"}},
		{"trailing period", "calma y alegría.", []string{"calma", "alegría"}},
		{"single item", "soledad", []string{"soledad"}},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitList(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("splitList(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParsePerspectives_OtherFallback(t *testing.T) {
	section := "El sueño habla de transformaciones interiores sin adscribirse a una escuela concreta."

	got := parsePerspectives(section)

	if len(got) != 1 {
		t.Fatalf("expected 1 perspective, got %d", len(got))
	}
	if got[0].Framework != FrameworkOther {
		t.Errorf("framework = %q, want other", got[0].Framework)
	}
	if got[0].Interpretation != section {
		t.Errorf("other entry should carry the full section text")
	}
}

func TestParsePerspectives_Empty(t *testing.T) {
	if got := parsePerspectives("   \n"); got != nil {
		t.Errorf("expected nil for blank section, got %+v", got)
	}
}

func TestCaptureClause_LimitsFragments(t *testing.T) {
	text := "gestalt propone integrar las partes. Cada elemento eres tú. El mar también. Y la casa. Y el bosque."

	got := captureClause(text, 0, 3)

	want := "gestalt propone integrar las partes. Cada elemento eres tú. El mar también."
	if got != want {
		t.Errorf("captureClause() = %q, want %q", got, want)
	}
}

func TestParseRecommendations_Classification(t *testing.T) {
	section := `- Escribe tres páginas cada mañana.
- Medita diez minutos antes de dormir.
- Pinta lo que recuerdes del sueño.
- Sal a caminar después de cenar.
- Lleva un registro de tus horarios de sueño.`

	got := parseRecommendations(section)

	if len(got.Journaling) != 2 {
		t.Errorf("journaling = %v, want 2 entries (escribe/registro)", got.Journaling)
	}
	if len(got.Mindfulness) != 1 {
		t.Errorf("mindfulness = %v", got.Mindfulness)
	}
	if len(got.Creative) != 1 {
		t.Errorf("creative = %v", got.Creative)
	}
	if len(got.Practical) != 1 {
		t.Errorf("practical = %v", got.Practical)
	}
}

func TestParseProfessionalAttention(t *testing.T) {
	tests := []struct {
		name      string
		section   string
		wantFlags bool
		wantLevel string
	}{
		{"empty section", "", false, LevelInformational},
		{"dismissive mention", "No se observan señales que requieran atención profesional.", false, LevelInformational},
		{
			"recommendation",
			"Sería recomendable consultar a un terapeuta para explorar la ansiedad recurrente.",
			true, LevelRecommended,
		},
		{
			"urgent recommendation",
			"Es importante consultar a un psicólogo cuanto antes.\n- Pesadillas recurrentes\n- Angustia persistente",
			true, LevelImportant,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseProfessionalAttention(tt.section)
			if got.HasFlags != tt.wantFlags {
				t.Errorf("HasFlags = %v, want %v", got.HasFlags, tt.wantFlags)
			}
			if got.SuggestionLevel != tt.wantLevel {
				t.Errorf("SuggestionLevel = %q, want %q", got.SuggestionLevel, tt.wantLevel)
			}
		})
	}
}

func TestParseProfessionalAttention_Reasons(t *testing.T) {
	section := "Se recomienda buscar apoyo profesional.\n- Pesadillas frecuentes\n- Insomnio sostenido"

	got := parseProfessionalAttention(section)

	if !got.HasFlags {
		t.Fatal("expected flags")
	}
	want := []string{"Pesadillas frecuentes", "Insomnio sostenido"}
	if !reflect.DeepEqual(got.Reasons, want) {
		t.Errorf("Reasons = %v, want %v", got.Reasons, want)
	}
}
