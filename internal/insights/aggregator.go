// Package insights computes aggregate statistics over a user's dream analyses
// within a time window: frequency-ranked themes, emotions and symbols, a
// day-of-week distribution and a small set of rule-based recommendations.
package insights

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Record is one analysis flattened to the fields the aggregator needs, with
// the associated dream's date resolved.
type Record struct {
	Date            time.Time
	RecurringThemes []string
	PrimaryEmotion  string
	EmotionalThemes []string
	Symbols         []string
}

// NameCount is one ranked occurrence entry.
type NameCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Spanish weekday names indexed by time.Weekday (0=domingo .. 6=sábado).
var weekdayNames = [7]string{
	"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado",
}

// TimePatterns is the day-of-week distribution of dream occurrence.
type TimePatterns struct {
	ByWeekday     [7]int `json:"by_weekday"`
	MostCommonDay string `json:"most_common_day"`
}

// Summary is the ephemeral insight result; it is computed on demand and never
// persisted. Ranked lists are complete; callers truncate for display.
type Summary struct {
	Themes          []NameCount  `json:"themes"`
	Emotions        []NameCount  `json:"emotions"`
	Symbols         []NameCount  `json:"symbols"`
	TimePatterns    TimePatterns `json:"time_patterns"`
	Recommendations []string     `json:"recommendations"`
}

// Aggregate computes the insight summary for a set of analyses. An empty input
// yields an empty summary, not an error.
func Aggregate(records []Record) Summary {
	summary := Summary{
		Themes:          []NameCount{},
		Emotions:        []NameCount{},
		Symbols:         []NameCount{},
		Recommendations: []string{},
	}
	if len(records) == 0 {
		return summary
	}

	var themes, emotions, symbols []string
	for _, r := range records {
		themes = append(themes, r.RecurringThemes...)
		if r.PrimaryEmotion != "" {
			emotions = append(emotions, r.PrimaryEmotion)
		}
		emotions = append(emotions, r.EmotionalThemes...)
		symbols = append(symbols, r.Symbols...)
	}

	summary.Themes = CountOccurrences(themes)
	summary.Emotions = CountOccurrences(emotions)
	summary.Symbols = CountOccurrences(symbols)
	summary.TimePatterns = weekdayDistribution(records)
	summary.Recommendations = GenerateRecommendations(
		TopNames(summary.Themes, 3),
		TopNames(summary.Emotions, 2),
		TopNames(summary.Symbols, 2),
	)
	return summary
}

// CountOccurrences groups strings case-insensitively and whitespace-trimmed,
// returning the full list ranked by descending count. Ties keep the order of
// first appearance.
func CountOccurrences(items []string) []NameCount {
	counts := make(map[string]int)
	var order []string
	for _, item := range items {
		name := strings.ToLower(strings.TrimSpace(item))
		if name == "" {
			continue
		}
		if _, seen := counts[name]; !seen {
			order = append(order, name)
		}
		counts[name]++
	}

	ranked := make([]NameCount, 0, len(order))
	for _, name := range order {
		ranked = append(ranked, NameCount{Name: name, Count: counts[name]})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Count > ranked[j].Count })
	return ranked
}

// TopNames returns the first n entry names from a ranked list.
func TopNames(counts []NameCount, n int) []string {
	if n > len(counts) {
		n = len(counts)
	}
	names := make([]string, n)
	for i := 0; i < n; i++ {
		names[i] = counts[i].Name
	}
	return names
}

// weekdayDistribution buckets records by day of week. Records without a
// resolvable date are skipped, so the bucket total equals the number of dated
// records. First maximum wins on ties.
func weekdayDistribution(records []Record) TimePatterns {
	var tp TimePatterns
	dated := 0
	for _, r := range records {
		if r.Date.IsZero() {
			continue
		}
		tp.ByWeekday[int(r.Date.Weekday())]++
		dated++
	}
	if dated == 0 {
		return tp
	}

	best := 0
	for day := 1; day < 7; day++ {
		if tp.ByWeekday[day] > tp.ByWeekday[best] {
			best = day
		}
	}
	tp.MostCommonDay = weekdayNames[best]
	return tp
}

// Vocabulary sets for recommendation rules. Matching is by containment so a
// compound theme like "ansiedad laboral" still triggers.
var (
	anxietyWords   = []string{"ansiedad", "miedo", "estrés", "estres", "temor", "angustia", "preocupación", "preocupacion"}
	confusionWords = []string{"confusión", "confusion", "indecisión", "indecision", "duda", "incertidumbre"}
	sadnessWords   = []string{"tristeza", "melancolía", "melancolia", "pena", "soledad", "duelo"}
	joyWords       = []string{"alegría", "alegria", "felicidad", "euforia", "gozo", "entusiasmo"}
)

// GenerateRecommendations derives canned recommendations from the top-3 themes,
// top-2 emotions and top-2 symbols, in a fixed rule order. It is a pure
// function: identical inputs always produce the identical list.
func GenerateRecommendations(themes, emotions, symbols []string) []string {
	recs := []string{}

	if anyMatches(themes, anxietyWords) {
		recs = append(recs, "Considera técnicas de relajación antes de dormir, como respiración profunda o meditación, para reducir el estrés que aparece en tus sueños.")
	}
	if anyMatches(themes, confusionWords) {
		recs = append(recs, "Tus sueños reflejan indecisión; dedica unos minutos cada noche a ordenar tus prioridades por escrito.")
	}
	if anyMatches(emotions, sadnessWords) {
		recs = append(recs, "Busca momentos de conexión con personas cercanas; compartir cómo te sientes puede aliviar la tristeza que asoma en tus sueños.")
	}
	if anyMatches(emotions, joyWords) {
		recs = append(recs, "Identifica las fuentes de alegría presentes en tus sueños y refuérzalas en tu vida diaria.")
	}
	if len(themes) > 0 {
		recs = append(recs, fmt.Sprintf("Tus temas recurrentes (%s) merecen atención: explóralos por escrito en tu diario o coméntalos en terapia.", strings.Join(themes, ", ")))
	}
	if len(symbols) > 0 {
		recs = append(recs, fmt.Sprintf("Los símbolos que más se repiten (%s) son buen material para la exploración creativa: dibújalos o escríbeles una historia.", strings.Join(symbols, ", ")))
	}
	if len(recs) < 2 {
		recs = append(recs,
			"Mantén el hábito de registrar tus sueños cada mañana.",
			"Cuida una rutina de sueño consistente para mejorar el recuerdo de tus sueños.",
		)
	}
	return recs
}

func anyMatches(names, vocab []string) bool {
	for _, name := range names {
		for _, word := range vocab {
			if strings.Contains(name, word) {
				return true
			}
		}
	}
	return false
}
