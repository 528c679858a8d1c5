package analysis

import (
	"regexp"
	"sort"
	"strings"
)

// ParsedCompletion holds the structured fields sliced out of a raw completion.
// Every field is best-effort: a section the model skipped comes back empty.
type ParsedCompletion struct {
	Interpretation        string
	SymbolAnalyses        []SymbolAnalysis
	Emotional             EmotionalAnalysis
	PatternIdentification PatternIdentification
	Perspectives          []Perspective
	RealLife              RealLifeConnections
	ReflectiveQuestions   []string
	Recommendations       Recommendations
	ProfessionalAttention ProfessionalAttentionFlags
}

// Section keys, in the order the model is asked to produce them.
const (
	secInterpretation = "interpretación general"
	secSymbols        = "análisis de símbolos"
	secEmotional      = "análisis emocional"
	secPatterns       = "patrones"
	secPerspectives   = "perspectivas psicológicas"
	secRealLife       = "conexiones con la vida real"
	secQuestions      = "preguntas de reflexión"
	secRecs           = "recomendaciones"
	secProfessional   = "atención profesional"
)

var sectionOrder = []string{
	secInterpretation, secSymbols, secEmotional, secPatterns, secPerspectives,
	secRealLife, secQuestions, secRecs, secProfessional,
}

// headingPatterns matches a section heading at line start, tolerating markdown
// markers, numbering, bold, a trailing colon and missing accents.
var headingPatterns = buildHeadingPatterns()

// headingVariants widens a few headings the model tends to phrase loosely.
var headingVariants = map[string]string{
	secPatterns: `patrones(?:\s+recurrentes)?(?:\s+y\s+conexiones)?`,
}

func buildHeadingPatterns() map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp, len(sectionOrder))
	for _, name := range sectionOrder {
		fragment, ok := headingVariants[name]
		if !ok {
			fragment = accentTolerant(name)
		}
		patterns[name] = regexp.MustCompile(
			`(?im)^[ \t]*(?:#+[ \t]*)?(?:\*\*)?(?:\d+[.)][ \t]*)?` + fragment + `(?:\*\*)?[ \t]*:?`,
		)
	}
	return patterns
}

// accentTolerant turns each accented vowel into a class accepting its plain
// form, so "Interpretacion general" still matches.
func accentTolerant(s string) string {
	replacer := strings.NewReplacer(
		"á", "[áa]", "é", "[ée]", "í", "[íi]", "ó", "[óo]", "ú", "[úu]", "ñ", "[ñn]",
	)
	return replacer.Replace(regexp.QuoteMeta(s))
}

// splitSections locates every known heading and returns the text between each
// heading and the next one found. Sections whose heading is absent are simply
// missing from the map.
func splitSections(text string) map[string]string {
	type span struct {
		name       string
		start, end int // heading match bounds
	}

	var spans []span
	for _, name := range sectionOrder {
		loc := headingPatterns[name].FindStringIndex(text)
		if loc == nil {
			continue
		}
		spans = append(spans, span{name: name, start: loc[0], end: loc[1]})
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	sections := make(map[string]string, len(spans))
	for i, sp := range spans {
		end := len(text)
		if i+1 < len(spans) {
			end = spans[i+1].start
		}
		sections[sp.name] = strings.TrimSpace(text[sp.end:end])
	}
	return sections
}

// ParseCompletion slices a raw completion into structured fields. It never
// fails: missing headings yield empty fields for that section only.
func ParseCompletion(text string) *ParsedCompletion {
	sections := splitSections(text)

	patternsText := sections[secPatterns]
	emotionalText := sections[secEmotional]

	return &ParsedCompletion{
		Interpretation:        sections[secInterpretation],
		SymbolAnalyses:        parseSymbols(sections[secSymbols]),
		Emotional:             parseEmotional(emotionalText),
		PatternIdentification: parsePatterns(patternsText),
		Perspectives:          parsePerspectives(sections[secPerspectives]),
		RealLife:              parseRealLife(sections[secRealLife]),
		ReflectiveQuestions:   parseQuestions(sections[secQuestions]),
		Recommendations:       parseRecommendations(sections[secRecs]),
		ProfessionalAttention: parseProfessionalAttention(sections[secProfessional]),
	}
}

var bulletRe = regexp.MustCompile(`^[ \t]*(?:[-*•]|\d+[.)])[ \t]+(.*)$`)

// bulletLines extracts bullet or numbered list items from a section.
func bulletLines(section string) []string {
	var items []string
	for _, line := range strings.Split(section, "\n") {
		if m := bulletRe.FindStringSubmatch(line); m != nil {
			item := strings.TrimSpace(m[1])
			if item != "" {
				items = append(items, item)
			}
		}
	}
	return items
}

func stripBold(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "**", ""))
}

// parseSymbols splits the symbol section on bullets, then each bullet at its
// first colon into (symbol, interpretation).
func parseSymbols(section string) []SymbolAnalysis {
	var symbols []SymbolAnalysis
	for _, item := range bulletLines(section) {
		name, interp, found := strings.Cut(item, ":")
		if !found || strings.TrimSpace(stripBold(name)) == "" {
			symbols = append(symbols, SymbolAnalysis{
				Symbol:         "Símbolo no identificado",
				Interpretation: stripBold(item),
			})
			continue
		}
		symbols = append(symbols, SymbolAnalysis{
			Symbol:         stripBold(name),
			Interpretation: strings.TrimSpace(stripBold(interp)),
		})
	}
	return symbols
}

var (
	primaryEmotionRe   = regexp.MustCompile(`(?i)emoci[óo]n(?:es)?\s+principal(?:es)?\s*:?\s*\**\s*([^\n.]+)`)
	emotionalThemesRe  = regexp.MustCompile(`(?i)temas?\s+emocionales?\s*:?\s*\**\s*([^\n]+)`)
	recurringThemesRe  = regexp.MustCompile(`(?i)temas?\s+recurrentes?\s*:?\s*\**\s*([^\n]+)`)
	personalPatternsRe = regexp.MustCompile(`(?i)patrones\s+personales\s*:?\s*\**\s*([^\n]+)`)
	influencesRe       = regexp.MustCompile(`(?i)influencias?(?:\s+posibles?)?\s*:?\s*\**\s*([^\n]+)`)
	reflectionsRe      = regexp.MustCompile(`(?i)reflexi[óo]n(?:es)?(?:\s+sugeridas?)?\s*:?\s*\**\s*([^\n]+)`)
)

// parseEmotional extracts the primary emotion and the emotional-theme list.
// The full section text is kept verbatim as the patterns field.
func parseEmotional(section string) EmotionalAnalysis {
	ea := EmotionalAnalysis{Patterns: section}
	if m := primaryEmotionRe.FindStringSubmatch(section); m != nil {
		ea.PrimaryEmotion = stripBold(m[1])
	}
	if m := emotionalThemesRe.FindStringSubmatch(section); m != nil {
		ea.EmotionalThemes = splitList(stripBold(m[1]))
	}
	return ea
}

func parsePatterns(section string) PatternIdentification {
	pi := PatternIdentification{ConnectionToPrevious: section}
	if m := recurringThemesRe.FindStringSubmatch(section); m != nil {
		pi.RecurringThemes = splitList(stripBold(m[1]))
	}
	if m := personalPatternsRe.FindStringSubmatch(section); m != nil {
		pi.PersonalPatterns = splitList(stripBold(m[1]))
	}
	return pi
}

// splitList breaks a comma/"y"-separated enumeration into trimmed items.
func splitList(s string) []string {
	s = strings.TrimRight(strings.TrimSpace(s), ".")
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	var items []string
	for _, p := range parts {
		for _, sub := range regexp.MustCompile(`\s+y\s+`).Split(p, -1) {
			sub = strings.TrimSpace(sub)
			if sub != "" {
				items = append(items, sub)
			}
		}
	}
	return items
}

// frameworkKeywords maps each psychological framework to the keywords that
// signal it in the perspectives section.
var frameworkKeywords = []struct {
	framework string
	keywords  []string
}{
	{FrameworkJungian, []string{"junguian", "jungian", "jung"}},
	{FrameworkFreudian, []string{"freudian", "freud"}},
	{FrameworkGestalt, []string{"gestalt"}},
	{FrameworkCognitive, []string{"cognitiv"}},
	{FrameworkNeuroscience, []string{"neurocien"}},
}

// parsePerspectives captures a short clause per framework keyword found. A
// non-empty section with no known framework becomes a single "other" entry.
func parsePerspectives(section string) []Perspective {
	if strings.TrimSpace(section) == "" {
		return nil
	}
	lower := strings.ToLower(section)

	var perspectives []Perspective
	for _, fk := range frameworkKeywords {
		idx := -1
		for _, kw := range fk.keywords {
			if i := strings.Index(lower, kw); i >= 0 && (idx < 0 || i < idx) {
				idx = i
			}
		}
		if idx < 0 {
			continue
		}
		perspectives = append(perspectives, Perspective{
			Framework:      fk.framework,
			Interpretation: captureClause(section, idx, 3),
		})
	}

	if len(perspectives) == 0 {
		return []Perspective{{Framework: FrameworkOther, Interpretation: strings.TrimSpace(section)}}
	}
	return perspectives
}

// lifeAreaKeywords maps each life area to its trigger keywords.
var lifeAreaKeywords = []struct {
	area     string
	keywords []string
}{
	{AreaPersonal, []string{"personal", "vida diaria", "cotidian"}},
	{AreaRelationships, []string{"relacion", "pareja", "famili", "amig"}},
	{AreaProfessional, []string{"trabajo", "profesional", "laboral", "carrera"}},
	{AreaHealth, []string{"salud", "bienestar", "descanso"}},
	{AreaSpiritual, []string{"espiritual", "alma"}},
	{AreaCreative, []string{"creativ", "arte", "artístic"}},
}

// parseRealLife extracts labeled influence/reflection lists plus one clause
// per life-area keyword group found in the section.
func parseRealLife(section string) RealLifeConnections {
	rl := RealLifeConnections{}
	if strings.TrimSpace(section) == "" {
		return rl
	}

	if m := influencesRe.FindStringSubmatch(section); m != nil {
		rl.PotentialInfluences = splitList(stripBold(m[1]))
	}
	if m := reflectionsRe.FindStringSubmatch(section); m != nil {
		rl.SuggestedReflections = splitList(stripBold(m[1]))
	}

	lower := strings.ToLower(section)
	for _, lk := range lifeAreaKeywords {
		idx := -1
		for _, kw := range lk.keywords {
			if i := strings.Index(lower, kw); i >= 0 && (idx < 0 || i < idx) {
				idx = i
			}
		}
		if idx < 0 {
			continue
		}
		rl.LifeAreaImpacts = append(rl.LifeAreaImpacts, LifeAreaImpact{
			Area:        lk.area,
			Description: captureClause(section, idx, 3),
		})
	}
	return rl
}

var sentenceEndRe = regexp.MustCompile(`[.!?]`)

// captureClause takes the text from idx through at most maxFragments sentence
// fragments, so a keyword match carries enough surrounding context to stand
// alone.
func captureClause(text string, idx, maxFragments int) string {
	rest := text[idx:]
	ends := sentenceEndRe.FindAllStringIndex(rest, maxFragments)
	if len(ends) == 0 {
		return strings.TrimSpace(rest)
	}
	last := ends[len(ends)-1]
	return strings.TrimSpace(rest[:last[1]])
}

// parseQuestions keeps the lines that end in a question mark, with bullet and
// number markers stripped.
func parseQuestions(section string) []string {
	var questions []string
	for _, line := range strings.Split(section, "\n") {
		line = strings.TrimSpace(line)
		if m := bulletRe.FindStringSubmatch(line); m != nil {
			line = strings.TrimSpace(m[1])
		}
		line = stripBold(line)
		if strings.HasSuffix(line, "?") {
			questions = append(questions, line)
		}
	}
	return questions
}

var (
	journalingKeywords  = []string{"escrib", "diario", "anota", "registr", "journal"}
	mindfulnessKeywords = []string{"medita", "mindfulness", "respira", "atención plena", "relaja"}
	creativeKeywords    = []string{"dibuj", "pint", "arte", "creativ", "collage"}
)

// parseRecommendations classifies each bullet by keyword; anything that does
// not look like journaling, mindfulness or creative work is practical.
func parseRecommendations(section string) Recommendations {
	var recs Recommendations
	for _, item := range bulletLines(section) {
		item = stripBold(item)
		lower := strings.ToLower(item)
		switch {
		case containsAny(lower, journalingKeywords):
			recs.Journaling = append(recs.Journaling, item)
		case containsAny(lower, mindfulnessKeywords):
			recs.Mindfulness = append(recs.Mindfulness, item)
		case containsAny(lower, creativeKeywords):
			recs.Creative = append(recs.Creative, item)
		default:
			recs.Practical = append(recs.Practical, item)
		}
	}
	return recs
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

var (
	professionalFlagRe = regexp.MustCompile(`(?i)(se\s+recomienda|recomendable|te\s+recomiendo|recomendar[íi]a|consultar?\s+(?:a|con)\s+un|buscar?\s+ayuda\s+profesional|acudir\s+a\s+un|hablar\s+con\s+un\s+(?:terapeuta|psic[óo]logo|profesional))`)
	urgencyRe          = regexp.MustCompile(`(?i)(urgent\w*|inmediat\w*|importante|cuanto\s+antes|prioridad)`)
)

// parseProfessionalAttention flags the analysis when the section recommends
// consulting a professional, escalating to "important" on urgency wording.
func parseProfessionalAttention(section string) ProfessionalAttentionFlags {
	flags := ProfessionalAttentionFlags{SuggestionLevel: LevelInformational}
	if strings.TrimSpace(section) == "" {
		return flags
	}
	if !professionalFlagRe.MatchString(section) {
		return flags
	}

	flags.HasFlags = true
	flags.SuggestionLevel = LevelRecommended
	if urgencyRe.MatchString(section) {
		flags.SuggestionLevel = LevelImportant
	}
	flags.Reasons = bulletLines(section)
	return flags
}
