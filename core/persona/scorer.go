package persona

import (
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/koscakluka/ema-persona/core/conversation"
)

// RandomScorer assigns a tendency without looking at the replies. It is a
// placeholder until a scoring model for the answers exists.
type RandomScorer struct {
	mu        sync.Mutex
	rand      *rand.Rand
	intensity Intensity
}

type ScorerOption func(*RandomScorer)

// WithSource makes the picked tendencies reproducible.
func WithSource(source rand.Source) ScorerOption {
	return func(s *RandomScorer) {
		if source != nil {
			s.rand = rand.New(source)
		}
	}
}

func WithIntensity(intensity Intensity) ScorerOption {
	return func(s *RandomScorer) { s.intensity = intensity }
}

func NewRandomScorer(opts ...ScorerOption) *RandomScorer {
	s := &RandomScorer{
		rand:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		intensity: Moderate,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RandomScorer) Score(_ []string) conversation.Result {
	s.mu.Lock()
	tendencies := AllTendencies()
	tendency := tendencies[s.rand.IntN(len(tendencies))]
	s.mu.Unlock()

	return conversation.Result{
		Label:     string(tendency),
		Narrative: Narrative(tendency, s.intensity),
	}
}

// Narrative is the completion message for tendency.
func Narrative(tendency Tendency, intensity Intensity) string {
	return fmt.Sprintf("🎉 Personality analysis complete\nYour tendency: %s\n\n%s\n\n"+
		"Note: personality changes with experience, this is only your current tendency.",
		tendency.Title(), tendency.Description(intensity))
}
