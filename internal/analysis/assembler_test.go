package analysis

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"testing"
)

func TestAssemble_Success(t *testing.T) {
	env := Envelope{
		Text:         sampleCompletion,
		Model:        "claude-sonnet-4-20250514",
		OutputTokens: 100,
	}

	a := Assemble(env)

	if a.Metadata.AIModel != "claude-sonnet-4-20250514" {
		t.Errorf("ai model = %q", a.Metadata.AIModel)
	}
	if a.Metadata.ConfidenceScore != 0.85 {
		t.Errorf("confidence = %f, want 0.85", a.Metadata.ConfidenceScore)
	}
	if a.Metadata.ProcessingTime != 5.0 {
		t.Errorf("processing time = %f, want 5.0 (100 tokens / 20)", a.Metadata.ProcessingTime)
	}
	if a.Metadata.Version != Version {
		t.Errorf("version = %q, want %q", a.Metadata.Version, Version)
	}
	if a.Metadata.FollowUpRecommended {
		t.Error("follow-up must default to false")
	}
	if a.Interpretation == "" {
		t.Error("expected parsed interpretation")
	}
}

func TestAssemble_MalformedEnvelope(t *testing.T) {
	tests := []struct {
		name string
		env  Envelope
	}{
		{"empty text", Envelope{Model: "claude-test"}},
		{"blank text", Envelope{Text: "   \n", Model: "claude-test"}},
		{"missing model", Envelope{Text: "Interpretación general: algo."}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Assemble(tt.env)
			if a.Metadata.AIModel != "fallback" {
				t.Errorf("ai model = %q, want fallback", a.Metadata.AIModel)
			}
			if a.Metadata.ConfidenceScore != 0.5 {
				t.Errorf("confidence = %f, want 0.5", a.Metadata.ConfidenceScore)
			}
		})
	}
}

func TestFallback_Content(t *testing.T) {
	a := Fallback()

	if a.Interpretation == "" {
		t.Error("fallback needs a generic interpretation")
	}
	if len(a.SymbolAnalyses) != 0 {
		t.Errorf("fallback symbols = %+v, want empty", a.SymbolAnalyses)
	}
	if len(a.Perspectives) != 1 || a.Perspectives[0].Framework != FrameworkCognitive {
		t.Errorf("fallback perspectives = %+v, want one cognitive entry", a.Perspectives)
	}
	if len(a.RealLife.PotentialInfluences) != 2 {
		t.Errorf("fallback influences = %v, want 2", a.RealLife.PotentialInfluences)
	}
	if len(a.ReflectiveQuestions) != 3 {
		t.Errorf("fallback questions = %v, want 3", a.ReflectiveQuestions)
	}
	if len(a.Recommendations.Journaling) != 1 {
		t.Errorf("fallback journaling recs = %v, want 1", a.Recommendations.Journaling)
	}
	if a.ProfessionalAttention.HasFlags {
		t.Error("fallback must not raise professional flags")
	}
}

func TestFallback_Deterministic(t *testing.T) {
	if !reflect.DeepEqual(Fallback(), Fallback()) {
		t.Error("fallback must be byte-for-byte deterministic")
	}
}

// The fallback must marshal with exactly the same key structure as a
// successful analysis so persistence code never special-cases it.
func TestFallback_ShapeMatchesSuccess(t *testing.T) {
	success := Assemble(Envelope{Text: sampleCompletion, Model: "claude-test", OutputTokens: 50})
	fallback := Fallback()

	successKeys := jsonKeySet(t, success)
	fallbackKeys := jsonKeySet(t, fallback)

	if !reflect.DeepEqual(successKeys, fallbackKeys) {
		t.Errorf("key sets differ:\nsuccess:  %v\nfallback: %v", successKeys, fallbackKeys)
	}
}

// jsonKeySet returns the sorted set of map-key paths in the marshaled value,
// ignoring array contents.
func jsonKeySet(t *testing.T, v any) []string {
	t.Helper()

	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	set := make(map[string]bool)
	collectKeys("", decoded, set)

	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func collectKeys(prefix string, v any, set map[string]bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return
	}
	for k, child := range m {
		path := k
		if prefix != "" {
			path = fmt.Sprintf("%s.%s", prefix, k)
		}
		set[path] = true
		collectKeys(path, child, set)
	}
}
