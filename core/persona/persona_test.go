package persona

import (
	"math/rand/v2"
	"slices"
	"strings"
	"testing"

	"github.com/koscakluka/ema-persona/core/conversation"
)

var _ conversation.QuestionBank = Questions
var _ conversation.Scorer = (*RandomScorer)(nil)

func TestQuestionsCoverSixSteps(t *testing.T) {
	if Questions.Len() != 6 {
		t.Fatalf("expected 6 questions, got %d", Questions.Len())
	}

	seen := map[string]bool{}
	for step := 1; step <= 6; step++ {
		question, ok := Questions.Question(step)
		if !ok {
			t.Fatalf("expected question for step %d", step)
		}
		if question.ID == "" || question.Prompt == "" || question.Category == "" {
			t.Fatalf("expected complete question for step %d, got %+v", step, question)
		}
		if seen[question.ID] {
			t.Fatalf("expected unique question ids, %q repeats", question.ID)
		}
		seen[question.ID] = true
	}

	for _, step := range []int{0, 7} {
		if _, ok := Questions.Question(step); ok {
			t.Fatalf("expected no question for step %d", step)
		}
	}
}

func TestRandomScorerPicksKnownTendencyWithNarrative(t *testing.T) {
	scorer := NewRandomScorer(WithSource(rand.NewPCG(1, 2)))

	for i := 0; i < 20; i++ {
		result := scorer.Score([]string{"A", "B"})
		tendency := Tendency(result.Label)
		if !slices.Contains(AllTendencies(), tendency) {
			t.Fatalf("expected a known tendency, got %q", result.Label)
		}
		if !strings.Contains(result.Narrative, tendency.Title()) {
			t.Fatalf("expected narrative to name %q, got %q", tendency.Title(), result.Narrative)
		}
	}
}

func TestRandomScorerIsReproducibleWithSameSource(t *testing.T) {
	first := NewRandomScorer(WithSource(rand.NewPCG(7, 7)))
	second := NewRandomScorer(WithSource(rand.NewPCG(7, 7)))

	for i := 0; i < 5; i++ {
		if a, b := first.Score(nil), second.Score(nil); a != b {
			t.Fatalf("expected identical results, got %+v and %+v", a, b)
		}
	}
}

func TestEveryTendencyIsDescribed(t *testing.T) {
	for _, tendency := range AllTendencies() {
		for _, intensity := range []Intensity{Mild, Moderate, Strong} {
			description := tendency.Description(intensity)
			if !strings.Contains(description, intensity.modifier()) || len(description) <= len(intensity.modifier()) {
				t.Fatalf("expected %s description at %s intensity, got %q", tendency, intensity, description)
			}
		}
		if tendency.Title() == string(tendency) {
			t.Fatalf("expected title for %s", tendency)
		}
		if len(tendency.GrowthDirections()) == 0 {
			t.Fatalf("expected growth directions for %s", tendency)
		}
	}
}

func TestNarrativeMentionsIntensityModifier(t *testing.T) {
	narrative := Narrative(Creative, Strong)

	if !strings.Contains(narrative, Strong.modifier()) {
		t.Fatalf("expected strong modifier in narrative, got %q", narrative)
	}
	if !strings.HasPrefix(narrative, "🎉 Personality analysis complete") {
		t.Fatalf("expected completion heading, got %q", narrative)
	}
}
