package analysis

import (
	"fmt"
	"strings"

	"github.com/somniary/somniary/internal/dream"
)

// notSpecified is the placeholder for absent optional fields. The prompt must
// never contain literal "null"/"undefined" text.
const notSpecified = "No especificado"

const historyContentLimit = 100

// MaxHistoryDreams bounds how much dream history travels with a prompt.
const MaxHistoryDreams = 5

// SystemPrompt instructs the model on role and response structure. The section
// headings here are the ones the parser locates, in the same order.
const SystemPrompt = `Eres un analista de sueños experto que combina psicología junguiana, freudiana, gestalt, cognitiva y neurociencia del sueño. Respondes siempre en español, con un tono cálido y reflexivo, sin diagnosticar.

Estructura tu respuesta EXACTAMENTE con estas secciones, en este orden:

1. Interpretación general
2. Análisis de símbolos (una lista con viñetas, cada una "Símbolo: interpretación")
3. Análisis emocional (indica "Emoción principal:" y "Temas emocionales:" seguidos de listas)
4. Patrones y conexiones (indica "Temas recurrentes:" si los hay, y la relación con sueños anteriores)
5. Perspectivas psicológicas (menciona explícitamente los enfoques que apliques: junguiano, freudiano, gestalt, cognitivo, neurociencia)
6. Conexiones con la vida real (influencias posibles con "Influencias:", reflexiones con "Reflexiones:", e impactos por área: personal, relaciones, trabajo, salud, espiritual, creatividad)
7. Preguntas de reflexión (una lista de preguntas)
8. Recomendaciones (una lista con viñetas)
9. Atención profesional (solo si el contenido lo amerita; indica si recomiendas consultar a un profesional y por qué)`

// BuildPrompt assembles the user prompt from a dream, the anonymized user
// context and up to MaxHistoryDreams recent dreams. Optional fields degrade to
// an explicit placeholder.
func BuildPrompt(d *dream.Dream, userCtx dream.UserContext, history []dream.Dream) string {
	var b strings.Builder

	b.WriteString("## Sueño a analizar\n\n")
	fmt.Fprintf(&b, "Título: %s\n", orNotSpecified(d.Title))
	fmt.Fprintf(&b, "Relato: %s\n", orNotSpecified(d.Content))
	if !d.DreamDate.IsZero() {
		fmt.Fprintf(&b, "Fecha: %s\n", d.DreamDate.Format("2006-01-02"))
	} else {
		fmt.Fprintf(&b, "Fecha: %s\n", notSpecified)
	}
	fmt.Fprintf(&b, "Emociones: %s\n", formatEmotions(d.Emotions))
	fmt.Fprintf(&b, "Símbolos anotados: %s\n", formatSymbols(d.Symbols))
	fmt.Fprintf(&b, "Escenarios: %s\n", orNotSpecifiedList(d.Settings))
	fmt.Fprintf(&b, "Personajes: %s\n", formatCharacters(d.Characters))
	fmt.Fprintf(&b, "Nivel de lucidez: %d/5\n", d.Lucidity)
	fmt.Fprintf(&b, "Etiquetas: %s\n", orNotSpecifiedList(d.Tags))
	fmt.Fprintf(&b, "Sueño recurrente: %s\n", siNo(d.Recurring))
	fmt.Fprintf(&b, "Pesadilla: %s\n", siNo(d.Nightmare))
	if d.SleepQuality != nil {
		fmt.Fprintf(&b, "Calidad del sueño: %d/10\n", *d.SleepQuality)
	} else {
		fmt.Fprintf(&b, "Calidad del sueño: %s\n", notSpecified)
	}
	fmt.Fprintf(&b, "Situación vital actual: %s\n", orNotSpecified(d.LifeSituation))

	b.WriteString("\n## Contexto del soñador\n\n")
	fmt.Fprintf(&b, "Rango de edad: %s\n", orNotSpecified(userCtx.AgeRange))
	fmt.Fprintf(&b, "Género: %s\n", orNotSpecified(userCtx.Gender))
	fmt.Fprintf(&b, "Ocupación: %s\n", orNotSpecified(userCtx.Occupation))
	fmt.Fprintf(&b, "Intereses: %s\n", orNotSpecifiedList(userCtx.Interests))
	fmt.Fprintf(&b, "Sueños registrados: %d\n", userCtx.DreamCount)
	if !userCtx.MemberSince.IsZero() {
		fmt.Fprintf(&b, "Miembro desde: %s\n", userCtx.MemberSince.Format("2006-01-02"))
	}

	b.WriteString("\n## Historial reciente de sueños\n\n")
	if len(history) == 0 {
		b.WriteString("Sin sueños anteriores registrados.\n")
	}
	recent := history
	if len(recent) > MaxHistoryDreams {
		recent = recent[:MaxHistoryDreams]
	}
	for i, h := range recent {
		fmt.Fprintf(&b, "%d. %q: %s\n", i+1, h.Title, truncate(h.Content, historyContentLimit))
		fmt.Fprintf(&b, "   Emociones: %s | Etiquetas: %s\n", formatEmotions(h.Emotions), orNotSpecifiedList(h.Tags))
	}

	b.WriteString(`
## Instrucciones

Analiza este sueño y entrega:

1. Una interpretación general del sueño
2. Un análisis de los símbolos principales
3. Un análisis emocional del contenido
4. Patrones recurrentes y conexiones con los sueños anteriores
5. Preguntas de reflexión para el soñador
6. Recomendaciones prácticas
`)

	return b.String()
}

func orNotSpecified(s string) string {
	if strings.TrimSpace(s) == "" {
		return notSpecified
	}
	return s
}

func orNotSpecifiedList(items []string) string {
	if len(items) == 0 {
		return notSpecified
	}
	return strings.Join(items, ", ")
}

func siNo(v bool) string {
	if v {
		return "sí"
	}
	return "no"
}

func formatEmotions(emotions []dream.Emotion) string {
	if len(emotions) == 0 {
		return notSpecified
	}
	parts := make([]string, len(emotions))
	for i, e := range emotions {
		parts[i] = fmt.Sprintf("%s (intensidad %d/10)", e.Name, e.Intensity)
	}
	return strings.Join(parts, ", ")
}

func formatSymbols(symbols []dream.Symbol) string {
	if len(symbols) == 0 {
		return notSpecified
	}
	parts := make([]string, len(symbols))
	for i, s := range symbols {
		parts[i] = s.Name
	}
	return strings.Join(parts, ", ")
}

func formatCharacters(chars []dream.Character) string {
	if len(chars) == 0 {
		return notSpecified
	}
	parts := make([]string, len(chars))
	for i, c := range chars {
		if c.Relation != "" {
			parts[i] = fmt.Sprintf("%s (%s)", c.Name, c.Relation)
		} else {
			parts[i] = c.Name
		}
	}
	return strings.Join(parts, ", ")
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
