package conversation

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/koscakluka/ema-persona/core/events"
)

type stubBank []Question

func (b stubBank) Question(step int) (Question, bool) {
	if step < 1 || step > len(b) {
		return Question{}, false
	}
	return b[step-1], true
}

func sixQuestions() stubBank {
	bank := stubBank{}
	for i := 1; i <= 6; i++ {
		bank = append(bank, Question{ID: fmt.Sprintf("q%d", i), Prompt: fmt.Sprintf("question %d", i)})
	}
	return bank
}

type recordingScorer struct {
	mu      sync.Mutex
	calls   int
	replies []string
}

func (s *recordingScorer) Score(replies []string) Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.replies = replies
	return Result{Label: "steady", Narrative: "you are steady"}
}

type eventRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *eventRecorder) record(event events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *eventRecorder) speechRequests() []events.SpeechRequested {
	r.mu.Lock()
	defer r.mu.Unlock()
	requests := []events.SpeechRequested{}
	for _, event := range r.events {
		if request, ok := event.(events.SpeechRequested); ok {
			requests = append(requests, request)
		}
	}
	return requests
}

func (r *eventRecorder) count(kind events.Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, event := range r.events {
		if event.Kind() == kind {
			count++
		}
	}
	return count
}

func newTestController(t *testing.T, opts ...Option) (*Controller, *recordingScorer, *eventRecorder) {
	t.Helper()

	channel := events.NewChannel()
	recorder := &eventRecorder{}
	channel.SubscribeAll(recorder.record)

	scorer := &recordingScorer{}
	controller := NewController(sixQuestions(), scorer,
		append([]Option{WithEvents(channel), WithThinkingDelay(0, 0)}, opts...)...)
	t.Cleanup(func() {
		controller.Close()
		channel.Close()
	})
	return controller, scorer, recorder
}

func countBotMessages(messages []Message) int {
	count := 0
	for _, message := range messages {
		if message.Origin == OriginBot {
			count++
		}
	}
	return count
}

func TestStartAppendsWelcomeAndRequestsSpeech(t *testing.T) {
	controller, _, recorder := newTestController(t, WithWelcome("hello there"), WithThinkingDelay(time.Hour, 0))

	controller.Start()

	messages := controller.Messages()
	if len(messages) != 1 {
		t.Fatalf("expected only the welcome message, got %d messages", len(messages))
	}
	if messages[0].Kind != MessageWelcome || messages[0].Origin != OriginBot || messages[0].Content != "hello there" {
		t.Fatalf("expected bot welcome message, got %+v", messages[0])
	}
	if state := controller.State(); state.Phase != PhaseWelcome {
		t.Fatalf("expected welcome state, got %s", state)
	}

	waitForCondition(t, time.Second, "welcome speech request", func() bool {
		return len(recorder.speechRequests()) == 1
	})
	if request := recorder.speechRequests()[0]; request.MessageID != messages[0].ID || request.Text != "hello there" {
		t.Fatalf("expected speech request for welcome message, got %+v", request)
	}
}

func TestSixRepliesReachCompletion(t *testing.T) {
	controller, scorer, recorder := newTestController(t)

	controller.Start()
	for _, reply := range []string{"A", "B", "C", "D", "A", "B"} {
		if !controller.SubmitReply(reply) {
			t.Fatalf("expected reply %q to be accepted", reply)
		}
	}

	waitForCondition(t, time.Second, "completion", func() bool {
		return controller.State().IsTerminal()
	})

	messages := controller.Messages()
	if got := countBotMessages(messages); got != 8 {
		t.Fatalf("expected 8 bot messages, got %d", got)
	}
	if len(messages) != 14 {
		t.Fatalf("expected 14 messages, got %d", len(messages))
	}
	if last := messages[len(messages)-1]; last.Kind != MessageCompletion || last.Content != "you are steady" {
		t.Fatalf("expected completion message with narrative, got %+v", last)
	}
	if result, ok := controller.Result(); !ok || result.Label != "steady" {
		t.Fatalf("expected scored result, got %+v (%v)", result, ok)
	}

	scorer.mu.Lock()
	if scorer.calls != 1 {
		t.Fatalf("expected scorer called once, got %d", scorer.calls)
	}
	expectedReplies := []string{"A", "B", "C", "D", "A", "B"}
	for i, reply := range expectedReplies {
		if scorer.replies[i] != reply {
			t.Fatalf("expected replies %v, got %v", expectedReplies, scorer.replies)
		}
	}
	scorer.mu.Unlock()

	if controller.SubmitReply("anything") {
		t.Fatalf("expected reply after completion to be ignored")
	}
	if got := len(controller.Messages()); got != 14 {
		t.Fatalf("expected log to stay at 14 messages, got %d", got)
	}

	waitForCondition(t, time.Second, "speech requests for all bot messages", func() bool {
		return len(recorder.speechRequests()) == 8
	})
	if got := recorder.count(events.KindMessageAppended); got != 14 {
		t.Fatalf("expected 14 message appended events, got %d", got)
	}
}

func TestRepliesInCompletionNeverChangeLog(t *testing.T) {
	controller, _, _ := newTestController(t)

	controller.Start()
	for i := 0; i < 6; i++ {
		controller.SubmitReply("A")
	}
	waitForCondition(t, time.Second, "completion", func() bool {
		return controller.State().IsTerminal()
	})

	length := len(controller.Messages())
	for _, reply := range []string{"", "A", "again", "  "} {
		controller.SubmitReply(reply)
		time.Sleep(5 * time.Millisecond)
		if got := len(controller.Messages()); got != length {
			t.Fatalf("expected log length %d after reply %q, got %d", length, reply, got)
		}
		if state := controller.State(); !state.IsTerminal() {
			t.Fatalf("expected completion to be terminal, got %s", state)
		}
	}
}

func TestRepliesWhileCompletionIsComposedAreIgnored(t *testing.T) {
	controller, scorer, _ := newTestController(t, WithThinkingDelay(5*time.Millisecond, 5*time.Millisecond))

	controller.Start()
	for i := 0; i < 6; i++ {
		controller.SubmitReply("B")
	}
	if controller.SubmitReply("seventh") {
		t.Fatalf("expected seventh reply to be ignored")
	}

	waitForCondition(t, time.Second, "completion", func() bool {
		return controller.State().IsTerminal()
	})
	if got := len(controller.Replies()); got != 6 {
		t.Fatalf("expected 6 replies, got %d", got)
	}
	scorer.mu.Lock()
	defer scorer.mu.Unlock()
	if scorer.calls != 1 {
		t.Fatalf("expected a single completion, got %d scorer calls", scorer.calls)
	}
}

func TestSubmitReplyDoesNotWaitForThinkingDelay(t *testing.T) {
	controller, _, _ := newTestController(t, WithThinkingDelay(100*time.Millisecond, 100*time.Millisecond))

	controller.Start()
	started := time.Now()
	controller.SubmitReply("A")
	if elapsed := time.Since(started); elapsed > 50*time.Millisecond {
		t.Fatalf("expected reply to return immediately, took %s", elapsed)
	}

	if !controller.Composing() {
		t.Fatalf("expected composing while the next message is prepared")
	}
	if got := len(controller.Messages()); got != 2 {
		t.Fatalf("expected welcome and reply before the delay elapsed, got %d messages", got)
	}

	waitForCondition(t, 2*time.Second, "two questions", func() bool {
		return countBotMessages(controller.Messages()) == 3
	})
	waitForCondition(t, time.Second, "composing to end", func() bool {
		return !controller.Composing()
	})
}

func TestComposingIsSetAsSoonAsTheNextMessageIsScheduled(t *testing.T) {
	controller, _, recorder := newTestController(t, WithThinkingDelay(50*time.Millisecond, 0))

	controller.Start()
	if !controller.Composing() {
		t.Fatalf("expected composing right after start")
	}
	if !controller.Snapshot().Composing {
		t.Fatalf("expected snapshot to report composing right after start")
	}

	waitForCondition(t, time.Second, "first question", func() bool {
		return countBotMessages(controller.Messages()) == 2
	})
	waitForCondition(t, time.Second, "composing to end", func() bool {
		return !controller.Composing()
	})

	if !controller.SubmitReply("A") {
		t.Fatalf("expected reply to be accepted")
	}
	if !controller.Composing() {
		t.Fatalf("expected composing right after an accepted reply")
	}
	waitForCondition(t, time.Second, "composing events", func() bool {
		return recorder.count(events.KindComposingChanged) >= 3
	})
}

func TestStartAbandonsPendingCompositions(t *testing.T) {
	controller, _, _ := newTestController(t, WithThinkingDelay(20*time.Millisecond, 20*time.Millisecond))

	controller.Start()
	controller.SubmitReply("A")
	controller.SubmitReply("B")
	controller.Start()

	waitForCondition(t, time.Second, "first question", func() bool {
		return len(controller.Messages()) == 2
	})
	time.Sleep(150 * time.Millisecond)

	messages := controller.Messages()
	if len(messages) != 2 {
		t.Fatalf("expected welcome and first question only, got %d messages", len(messages))
	}
	if messages[1].QuestionID != "q1" {
		t.Fatalf("expected first question, got %+v", messages[1])
	}
	if state := controller.State(); state.Phase != PhaseExploring || state.Step != 1 {
		t.Fatalf("expected exploring(1), got %s", state)
	}
}

func TestMessagesFollowQuestionOrder(t *testing.T) {
	controller, _, _ := newTestController(t)

	controller.Start()
	waitForCondition(t, time.Second, "first question", func() bool {
		return len(controller.Messages()) == 2
	})
	controller.SubmitReply("")
	waitForCondition(t, time.Second, "second question", func() bool {
		return len(controller.Messages()) == 4
	})

	messages := controller.Messages()
	expected := []struct {
		origin     Origin
		kind       MessageKind
		questionID string
	}{
		{OriginBot, MessageWelcome, ""},
		{OriginBot, MessageQuestion, "q1"},
		{OriginUser, MessageResponse, "q1"},
		{OriginBot, MessageQuestion, "q2"},
	}
	for i, want := range expected {
		got := messages[i]
		if got.Origin != want.origin || got.Kind != want.kind || got.QuestionID != want.questionID {
			t.Fatalf("expected message %d to be %+v, got %+v", i, want, got)
		}
	}
	if messages[2].Content != "" {
		t.Fatalf("expected empty reply to be kept as is, got %q", messages[2].Content)
	}
}

func TestUserMessagesAndMutedBotMessagesDoNotRequestSpeech(t *testing.T) {
	controller, _, recorder := newTestController(t, WithAutoSpeak(false))

	controller.Start()
	controller.SubmitReply("A")
	waitForCondition(t, time.Second, "second question", func() bool {
		return len(controller.Messages()) == 4
	})

	controller.SetAutoSpeak(true)
	controller.SubmitReply("B")
	waitForCondition(t, time.Second, "third question", func() bool {
		return len(controller.Messages()) == 6
	})

	waitForCondition(t, time.Second, "one speech request", func() bool {
		return len(recorder.speechRequests()) == 1
	})
	time.Sleep(20 * time.Millisecond)
	requests := recorder.speechRequests()
	if len(requests) != 1 || requests[0].Text != "question 3" {
		t.Fatalf("expected a single speech request for question 3, got %+v", requests)
	}
}

func TestCloseStopsWorker(t *testing.T) {
	controller := NewController(sixQuestions(), &recordingScorer{}, WithThinkingDelay(time.Hour, 0))
	controller.Start()

	closed := make(chan struct{})
	go func() {
		controller.Close()
		close(closed)
	}()

	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatalf("expected close to interrupt the thinking delay")
	}
	controller.Close()
}

func waitForCondition(t *testing.T, timeout time.Duration, description string, condition func() bool) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}

	t.Fatalf("timed out waiting for %s", description)
}
