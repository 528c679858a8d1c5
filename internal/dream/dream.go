package dream

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Emotion is a named emotion felt during the dream, with intensity 1-10.
type Emotion struct {
	Name      string `json:"name"`
	Intensity int    `json:"intensity"`
}

// Symbol is a notable element the dreamer recorded.
type Symbol struct {
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	Significance string `json:"significance,omitempty"`
}

// Character is a person or figure that appeared in the dream.
type Character struct {
	Name        string `json:"name"`
	Relation    string `json:"relation,omitempty"`
	Description string `json:"description,omitempty"`
}

// Dream is a user-authored journal entry.
type Dream struct {
	ID            uuid.UUID   `json:"id"`
	UserID        uuid.UUID   `json:"user_id"`
	Title         string      `json:"title"`
	Content       string      `json:"content"`
	DreamDate     time.Time   `json:"dream_date"`
	Emotions      []Emotion   `json:"emotions,omitempty"`
	Symbols       []Symbol    `json:"symbols,omitempty"`
	Settings      []string    `json:"settings,omitempty"`
	Characters    []Character `json:"characters,omitempty"`
	Lucidity      int         `json:"lucidity"` // 0-5
	Tags          []string    `json:"tags,omitempty"`
	Recurring     bool        `json:"recurring"`
	Nightmare     bool        `json:"nightmare"`
	SleepQuality  *int        `json:"sleep_quality,omitempty"` // 1-10
	LifeSituation string      `json:"life_situation,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// Validate checks the mandatory fields and value ranges. Validation failures
// are surfaced to the caller synchronously and block analysis generation.
func (d *Dream) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if len(strings.TrimSpace(d.Content)) < 10 {
		return fmt.Errorf("content must be at least 10 characters")
	}
	if d.Lucidity < 0 || d.Lucidity > 5 {
		return fmt.Errorf("lucidity must be between 0 and 5")
	}
	if d.SleepQuality != nil && (*d.SleepQuality < 1 || *d.SleepQuality > 10) {
		return fmt.Errorf("sleep quality must be between 1 and 10")
	}
	for _, e := range d.Emotions {
		if e.Intensity < 1 || e.Intensity > 10 {
			return fmt.Errorf("emotion %q intensity must be between 1 and 10", e.Name)
		}
	}
	return nil
}

// SignificantlyDiffers reports whether a field whose change should trigger
// re-analysis differs between the two dreams. The significant set is content,
// emotions, characters, settings and tags; everything else (title, sleep
// quality, lucidity...) leaves an existing analysis untouched.
func (d *Dream) SignificantlyDiffers(other *Dream) bool {
	if d.Content != other.Content {
		return true
	}
	if !equalEmotions(d.Emotions, other.Emotions) {
		return true
	}
	if !equalCharacters(d.Characters, other.Characters) {
		return true
	}
	if !equalStrings(d.Settings, other.Settings) {
		return true
	}
	return !equalStrings(d.Tags, other.Tags)
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalEmotions(a, b []Emotion) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalCharacters(a, b []Character) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// UserContext is the anonymized slice of the user profile that accompanies a
// dream to the model. It never carries name, email or credentials.
type UserContext struct {
	AgeRange    string    `json:"age_range,omitempty"`
	Gender      string    `json:"gender,omitempty"`
	Occupation  string    `json:"occupation,omitempty"`
	Interests   []string  `json:"interests,omitempty"`
	DreamCount  int       `json:"dream_count"`
	MemberSince time.Time `json:"member_since"`
}
