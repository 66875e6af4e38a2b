package voice

import (
	"context"
	"fmt"
	"sync"

	"github.com/koscakluka/ema-persona/core/events"
	"github.com/koscakluka/ema-persona/core/texttospeech"
)

// OutputQueue owns speech output. At most one utterance is active; a new
// one always cancels the current one first.
type OutputQueue struct {
	synthesizer texttospeech.Synthesizer
	channel     *events.Channel

	rate   float64
	pitch  float64
	volume float64

	// speakMu serializes Speak, Stop and PauseOrResume. Synthesizer
	// callbacks only take mu, so they may fire while speakMu is held.
	speakMu sync.Mutex

	mu       sync.Mutex
	nextID   uint64
	current  *activeUtterance
	speaking bool
}

type activeUtterance struct {
	id        uint64
	text      string
	utterance texttospeech.Utterance
	paused    bool
}

type OutputOption func(*OutputQueue)

func WithRate(rate float64) OutputOption {
	return func(q *OutputQueue) { q.rate = rate }
}

func WithPitch(pitch float64) OutputOption {
	return func(q *OutputQueue) { q.pitch = pitch }
}

func WithVolume(volume float64) OutputOption {
	return func(q *OutputQueue) { q.volume = volume }
}

// WithOutputEvents publishes speaking changes on channel.
func WithOutputEvents(channel *events.Channel) OutputOption {
	return func(q *OutputQueue) { q.channel = channel }
}

func NewOutputQueue(synthesizer texttospeech.Synthesizer, opts ...OutputOption) *OutputQueue {
	q := &OutputQueue{
		synthesizer: synthesizer,
		rate:        texttospeech.DefaultRate,
		pitch:       texttospeech.DefaultPitch,
		volume:      texttospeech.DefaultVolume,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Speak cancels the current utterance, if any, and starts speaking text.
func (q *OutputQueue) Speak(ctx context.Context, text, locale string) error {
	if q == nil || q.synthesizer == nil {
		return nil
	}

	ctx, span := tracer.Start(ctx, "speak")
	defer span.End()

	q.speakMu.Lock()
	defer q.speakMu.Unlock()

	q.cancelCurrent()

	q.mu.Lock()
	q.nextID++
	id := q.nextID
	q.current = &activeUtterance{id: id, text: text}
	q.setSpeakingLocked(true, text)
	q.mu.Unlock()

	utterance, err := q.synthesizer.Synthesize(ctx, text,
		texttospeech.WithLocale(locale),
		texttospeech.WithRate(q.rate),
		texttospeech.WithPitch(q.pitch),
		texttospeech.WithVolume(q.volume),
		texttospeech.WithFinishedCallback(func() { q.onEnded(id, nil) }),
		texttospeech.WithCancelledCallback(func() { q.onEnded(id, nil) }),
		texttospeech.WithErrorCallback(func(err error) { q.onEnded(id, err) }),
	)

	q.mu.Lock()
	defer q.mu.Unlock()
	if err != nil {
		if q.current != nil && q.current.id == id {
			q.current = nil
			q.setSpeakingLocked(false, text)
		}
		err = fmt.Errorf("failed to start speech: %w", err)
		span.RecordError(err)
		return err
	}
	if q.current == nil || q.current.id != id {
		// Already finished while starting.
		return nil
	}
	q.current.utterance = utterance
	return nil
}

// Stop cancels the current utterance. It is safe to call at any time.
func (q *OutputQueue) Stop() {
	if q == nil {
		return
	}

	q.speakMu.Lock()
	defer q.speakMu.Unlock()
	q.cancelCurrent()
}

// PauseOrResume toggles the current utterance between paused and playing.
// Without an active utterance it does nothing.
func (q *OutputQueue) PauseOrResume() error {
	if q == nil {
		return nil
	}

	q.speakMu.Lock()
	defer q.speakMu.Unlock()

	q.mu.Lock()
	current := q.current
	if current == nil || current.utterance == nil {
		q.mu.Unlock()
		return nil
	}
	pause := !current.paused
	q.mu.Unlock()

	if pause {
		if err := current.utterance.Pause(); err != nil {
			return fmt.Errorf("failed to pause speech: %w", err)
		}
	} else if err := current.utterance.Resume(); err != nil {
		return fmt.Errorf("failed to resume speech: %w", err)
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.current == current {
		current.paused = pause
	}
	return nil
}

func (q *OutputQueue) Speaking() bool {
	if q == nil {
		return false
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.speaking
}

func (q *OutputQueue) Paused() bool {
	if q == nil {
		return false
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.current != nil && q.current.paused
}

// cancelCurrent must be called with speakMu held.
func (q *OutputQueue) cancelCurrent() {
	q.mu.Lock()
	current := q.current
	q.current = nil
	if current != nil {
		q.setSpeakingLocked(false, current.text)
	}
	q.mu.Unlock()

	if current != nil && current.utterance != nil {
		if err := current.utterance.Cancel(); err != nil {
			logger.Warn("failed to cancel utterance", "error", err)
		}
	}
}

func (q *OutputQueue) onEnded(id uint64, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.current == nil || q.current.id != id {
		return
	}

	if err != nil {
		logger.Error("utterance failed", "error", err)
	}
	text := q.current.text
	q.current = nil
	q.setSpeakingLocked(false, text)
}

func (q *OutputQueue) setSpeakingLocked(speaking bool, text string) {
	if q.speaking == speaking {
		return
	}
	q.speaking = speaking
	q.channel.Publish(events.NewSpeakingChanged(speaking, text))
}
