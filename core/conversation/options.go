package conversation

import (
	"time"

	"github.com/koscakluka/ema-persona/core/events"
)

type Option func(*Controller)

// WithEvents publishes log, state and speech requests on channel.
func WithEvents(channel *events.Channel) Option {
	return func(c *Controller) { c.channel = channel }
}

// WithThinkingDelay sets the delays before a bot message is appended:
// preDelay before composing is shown, composeDelay before the message.
func WithThinkingDelay(preDelay, composeDelay time.Duration) Option {
	return func(c *Controller) {
		c.preDelay = max(preDelay, 0)
		c.composeDelay = max(composeDelay, 0)
	}
}

func WithWelcome(welcome string) Option {
	return func(c *Controller) {
		if welcome != "" {
			c.welcome = welcome
		}
	}
}

func WithAutoSpeak(enabled bool) Option {
	return func(c *Controller) { c.autoSpeak.Store(enabled) }
}

// WithClock replaces the clock used to timestamp messages.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}
