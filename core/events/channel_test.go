package events

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestChannelDeliversToEverySubscriberOfKind(t *testing.T) {
	channel := NewChannel()
	defer channel.Close()

	first := make(chan string, 1)
	second := make(chan string, 1)
	channel.Subscribe(KindSpeechRequested, func(event Event) {
		first <- event.(SpeechRequested).Text
	})
	channel.Subscribe(KindSpeechRequested, func(event Event) {
		second <- event.(SpeechRequested).Text
	})

	channel.Publish(NewSpeechRequested("", "hello"))

	for _, received := range []chan string{first, second} {
		select {
		case text := <-received:
			if text != "hello" {
				t.Fatalf("expected %q, got %q", "hello", text)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for delivery")
		}
	}
}

func TestChannelIgnoresOtherKinds(t *testing.T) {
	channel := NewChannel()

	var mu sync.Mutex
	received := []Kind{}
	channel.Subscribe(KindSpeechRequested, func(event Event) {
		mu.Lock()
		received = append(received, event.Kind())
		mu.Unlock()
	})

	channel.Publish(NewComposingChanged(true))
	channel.Publish(NewSpeechRequested("", "hello"))
	channel.Close()

	if len(received) != 1 || received[0] != KindSpeechRequested {
		t.Fatalf("expected only speech requested delivery, got %v", received)
	}
}

func TestChannelPreservesPublishOrder(t *testing.T) {
	channel := NewChannel()

	received := []string{}
	channel.Subscribe(KindSpeechRequested, func(event Event) {
		received = append(received, event.(SpeechRequested).Text)
	})

	for i := range 100 {
		channel.Publish(NewSpeechRequested("", fmt.Sprint(i)))
	}
	channel.Close()

	if len(received) != 100 {
		t.Fatalf("expected 100 deliveries, got %d", len(received))
	}
	for i, text := range received {
		if text != fmt.Sprint(i) {
			t.Fatalf("expected delivery %d to be %q, got %q", i, fmt.Sprint(i), text)
		}
	}
}

func TestChannelPublishDoesNotWaitForSlowSubscriber(t *testing.T) {
	channel := NewChannel()
	release := make(chan struct{})
	channel.Subscribe(KindSpeechRequested, func(Event) { <-release })

	done := make(chan struct{})
	go func() {
		for range 10 {
			channel.Publish(NewSpeechRequested("", "slow"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("expected publish to return while subscriber is blocked")
	}

	close(release)
	channel.Close()
}

func TestChannelRecoversPanickingSubscriber(t *testing.T) {
	channel := NewChannel()

	delivered := make(chan struct{}, 2)
	channel.Subscribe(KindSpeechRequested, func(Event) { panic("subscriber failure") })
	channel.Subscribe(KindSpeechRequested, func(Event) { delivered <- struct{}{} })

	channel.Publish(NewSpeechRequested("", "one"))
	channel.Publish(NewSpeechRequested("", "two"))
	channel.Close()

	if got := len(delivered); got != 2 {
		t.Fatalf("expected healthy subscriber to receive 2 events, got %d", got)
	}
}

func TestChannelUnsubscribeStopsDelivery(t *testing.T) {
	channel := NewChannel()

	var mu sync.Mutex
	count := 0
	unsubscribe := channel.SubscribeAll(func(Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	channel.Publish(NewComposingChanged(true))
	unsubscribe()
	channel.Publish(NewComposingChanged(false))
	channel.Close()

	mu.Lock()
	defer mu.Unlock()
	if count != 1 {
		t.Fatalf("expected exactly one delivery before unsubscribe, got %d", count)
	}
}

func TestNilAndClosedChannelAreNoops(t *testing.T) {
	var channel *Channel
	channel.Publish(NewComposingChanged(true))
	channel.Subscribe(KindComposingChanged, func(Event) {})()
	channel.Close()

	closed := NewChannel()
	closed.Close()
	closed.Publish(NewComposingChanged(true))
	closed.Subscribe(KindComposingChanged, func(Event) { t.Fatalf("unexpected delivery") })()
	closed.Close()
}
