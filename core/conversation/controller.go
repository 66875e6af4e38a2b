package conversation

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/koscakluka/ema-persona/core/events"
)

const (
	DefaultPreDelay     = 800 * time.Millisecond
	DefaultComposeDelay = 1200 * time.Millisecond

	DefaultWelcome = "Welcome! Let's get started."
)

// Controller runs the guided conversation. It owns the message log and the
// conversation state; bot messages are composed one at a time by a single
// worker so appends never interleave.
type Controller struct {
	bank    QuestionBank
	scorer  Scorer
	channel *events.Channel

	welcome      string
	preDelay     time.Duration
	composeDelay time.Duration
	now          func() time.Time

	autoSpeak atomic.Bool

	mu                sync.Mutex
	state             State
	messages          []Message
	replies           []string
	result            *Result
	composing         bool
	completionPending bool

	// epoch invalidates compositions scheduled before the last Start.
	epoch     uint64
	interrupt chan struct{}
	queue     []uint64
	wake      chan struct{}

	closeCh   chan struct{}
	done      chan struct{}
	startOnce sync.Once
	closeOnce sync.Once
}

func NewController(bank QuestionBank, scorer Scorer, opts ...Option) *Controller {
	c := &Controller{
		bank:         bank,
		scorer:       scorer,
		welcome:      DefaultWelcome,
		preDelay:     DefaultPreDelay,
		composeDelay: DefaultComposeDelay,
		now:          time.Now,
		state:        State{Phase: PhaseWelcome},
		interrupt:    make(chan struct{}),
		wake:         make(chan struct{}, 1),
		closeCh:      make(chan struct{}),
		done:         make(chan struct{}),
	}
	c.autoSpeak.Store(true)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start resets the conversation, appends the welcome message and schedules
// the first question. Compositions scheduled earlier are abandoned. It is
// always safe to call.
func (c *Controller) Start() {
	c.mu.Lock()
	c.epoch++
	close(c.interrupt)
	c.interrupt = make(chan struct{})
	c.queue = nil

	c.messages = nil
	c.replies = nil
	c.result = nil
	c.completionPending = false
	c.setComposingLocked(false)
	c.setStateLocked(State{Phase: PhaseWelcome})
	c.appendLocked(Message{Content: c.welcome, Origin: OriginBot, Kind: MessageWelcome})
	c.scheduleLocked()
	c.mu.Unlock()

	c.notifyWorker()
}

// Restart is the same as Start.
func (c *Controller) Restart() { c.Start() }

// SubmitReply records text as the user's reply and schedules the next bot
// message after the thinking delay. Replies are ignored once the
// conversation is complete or its completion is being composed; the return
// value reports whether text was accepted. Empty replies are accepted.
func (c *Controller) SubmitReply(text string) bool {
	c.mu.Lock()
	if c.state.IsTerminal() || c.completionPending {
		c.mu.Unlock()
		return false
	}

	c.replies = append(c.replies, text)
	questionID := ""
	if question, ok := c.question(len(c.replies)); ok {
		questionID = question.ID
	}
	if _, ok := c.question(len(c.replies) + 1); !ok {
		c.completionPending = true
	}

	c.appendLocked(Message{Content: text, Origin: OriginUser, Kind: MessageResponse, QuestionID: questionID})
	c.scheduleLocked()
	c.mu.Unlock()

	c.notifyWorker()
	return true
}

// SetAutoSpeak controls whether bot messages emit speech requests.
func (c *Controller) SetAutoSpeak(enabled bool) { c.autoSpeak.Store(enabled) }

func (c *Controller) AutoSpeak() bool { return c.autoSpeak.Load() }

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Composing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.composing
}

// Messages returns a copy of the log.
func (c *Controller) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.messages...)
}

// Message returns the logged message with id.
func (c *Controller) Message(id string) (Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, message := range c.messages {
		if message.ID == id {
			return message, true
		}
	}
	return Message{}, false
}

func (c *Controller) Replies() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.replies...)
}

// Result returns the scored result once the conversation is complete.
func (c *Controller) Result() (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.result == nil {
		return Result{}, false
	}
	return *c.result, true
}

type Snapshot struct {
	State     State
	Messages  []Message
	Composing bool
	Result    *Result
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snapshot := Snapshot{
		State:     c.state,
		Messages:  append([]Message(nil), c.messages...),
		Composing: c.composing,
	}
	if c.result != nil {
		result := *c.result
		snapshot.Result = &result
	}
	return snapshot
}

// Close stops the composing worker. Pending compositions are dropped.
func (c *Controller) Close() {
	c.closeOnce.Do(func() {
		close(c.closeCh)
	})

	started := true
	c.startOnce.Do(func() {
		started = false
		close(c.done)
	})
	if started {
		<-c.done
	}
}

func (c *Controller) question(step int) (Question, bool) {
	if c.bank == nil {
		return Question{}, false
	}
	return c.bank.Question(step)
}

// scheduleLocked queues the next bot message. Composing stays set until the
// queue is empty.
func (c *Controller) scheduleLocked() {
	c.queue = append(c.queue, c.epoch)
	c.setComposingLocked(true)
	c.startOnce.Do(func() { go c.run() })
}

func (c *Controller) notifyWorker() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *Controller) run() {
	defer close(c.done)

	for {
		select {
		case <-c.closeCh:
			return
		case <-c.wake:
		}

		for {
			epoch, interrupt, ok := c.nextComposition()
			if !ok {
				break
			}
			if !c.compose(epoch, interrupt) {
				return
			}
		}
	}
}

func (c *Controller) nextComposition() (uint64, chan struct{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for len(c.queue) > 0 {
		epoch := c.queue[0]
		c.queue = c.queue[1:]
		if epoch == c.epoch {
			return epoch, c.interrupt, true
		}
	}
	return 0, nil, false
}

// compose waits out the thinking delay and appends the next bot message. It
// returns false when the controller is closed.
func (c *Controller) compose(epoch uint64, interrupt chan struct{}) bool {
	c.mu.Lock()
	if epoch != c.epoch {
		c.mu.Unlock()
		return true
	}
	c.mu.Unlock()

	for _, delay := range []time.Duration{c.preDelay, c.composeDelay} {
		if delay <= 0 {
			continue
		}
		timer := time.NewTimer(delay)
		select {
		case <-c.closeCh:
			timer.Stop()
			return false
		case <-interrupt:
			timer.Stop()
			return true
		case <-timer.C:
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch {
		return true
	}

	c.advanceLocked()
	if len(c.queue) == 0 {
		c.setComposingLocked(false)
	}
	return true
}

// advanceLocked moves to the next step and appends its bot message. Past
// the last question it passes through Integration to Completion.
func (c *Controller) advanceLocked() {
	if c.state.IsTerminal() {
		return
	}

	step := c.state.Step + 1
	if question, ok := c.question(step); ok {
		c.setStateLocked(State{Phase: PhaseExploring, Step: step})
		c.appendLocked(Message{Content: question.Prompt, Origin: OriginBot, Kind: MessageQuestion, QuestionID: question.ID})
		return
	}

	c.setStateLocked(State{Phase: PhaseIntegration, Step: step})
	result := Result{}
	if c.scorer != nil {
		result = c.scorer.Score(append([]string(nil), c.replies...))
	} else {
		logger.Warn("no scorer configured, completing without result")
	}
	c.result = &result
	c.setStateLocked(State{Phase: PhaseCompletion, Step: step})
	c.appendLocked(Message{Content: result.Narrative, Origin: OriginBot, Kind: MessageCompletion})
}

func (c *Controller) appendLocked(message Message) {
	message.ID = uuid.NewString()
	message.CreatedAt = c.now()
	c.messages = append(c.messages, message)

	c.channel.Publish(events.NewMessageAppended(len(c.messages)-1, message.ID,
		string(message.Origin), string(message.Kind), message.Content))
	if message.Origin == OriginBot && c.autoSpeak.Load() {
		c.channel.Publish(events.NewSpeechRequested(message.ID, message.Content))
	}
}

func (c *Controller) setStateLocked(state State) {
	if c.state == state {
		return
	}
	c.state = state
	c.channel.Publish(events.NewStateChanged(string(state.Phase), state.Step))
}

func (c *Controller) setComposingLocked(composing bool) {
	if c.composing == composing {
		return
	}
	c.composing = composing
	c.channel.Publish(events.NewComposingChanged(composing))
}
