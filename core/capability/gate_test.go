package capability

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

type countingRequester struct {
	granted bool
	err     error
	calls   atomic.Int32
}

func (r *countingRequester) Request(context.Context) (bool, error) {
	r.calls.Add(1)
	return r.granted, r.err
}

func TestAuthorizeCombinesGrants(t *testing.T) {
	testCases := []struct {
		name        string
		capture     Requester
		recognition Requester
		expected    State
	}{
		{name: "both granted", capture: Granted, recognition: Granted, expected: State{Authorized: true}},
		{name: "recognition denied", capture: Granted, recognition: Denied, expected: State{Reason: ReasonRecognitionDenied}},
		{name: "capture denied", capture: Denied, recognition: Granted, expected: State{Reason: ReasonCaptureDenied}},
		{name: "both denied reports recognition first", capture: Denied, recognition: Denied, expected: State{Reason: ReasonRecognitionDenied}},
		{name: "nil requesters are denied", expected: State{Reason: ReasonRecognitionDenied}},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			gate := NewGate(testCase.capture, testCase.recognition)
			if got := gate.Authorize(context.Background()); got != testCase.expected {
				t.Fatalf("expected %+v, got %+v", testCase.expected, got)
			}
		})
	}
}

func TestAuthorizeRequestErrorDenies(t *testing.T) {
	gate := NewGate(&countingRequester{err: errors.New("no device")}, Granted)

	state := gate.Authorize(context.Background())
	if state.Authorized {
		t.Fatalf("expected request error to deny authorization")
	}
	if state.Reason == "" {
		t.Fatalf("expected a denial reason")
	}
}

func TestAuthorizeRequestsOnlyOnce(t *testing.T) {
	capture := &countingRequester{granted: true}
	recognition := &countingRequester{granted: true}
	gate := NewGate(capture, recognition)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			gate.Authorize(context.Background())
		}()
	}
	wg.Wait()

	if got := capture.calls.Load(); got != 1 {
		t.Fatalf("expected capture to be requested once, got %d", got)
	}
	if got := recognition.calls.Load(); got != 1 {
		t.Fatalf("expected recognition to be requested once, got %d", got)
	}
}

func TestRefreshRederivesState(t *testing.T) {
	capture := &countingRequester{granted: true}
	changes := []State{}
	gate := NewGate(capture, Granted, WithChangeCallback(func(state State) {
		changes = append(changes, state)
	}))

	if !gate.Authorize(context.Background()).Authorized {
		t.Fatalf("expected initial authorization")
	}

	capture.granted = false
	if state := gate.Refresh(context.Background()); state.Authorized {
		t.Fatalf("expected refresh to pick up revoked capture grant")
	}
	gate.Refresh(context.Background())

	if len(changes) != 2 {
		t.Fatalf("expected two state changes, got %d: %+v", len(changes), changes)
	}
}

func TestCurrentBeforeResolution(t *testing.T) {
	gate := NewGate(Granted, Granted)

	if state, resolved := gate.Current(); resolved || state.Authorized {
		t.Fatalf("expected unresolved, unauthorized state, got %+v resolved=%t", state, resolved)
	}

	gate.Authorize(context.Background())
	if state, resolved := gate.Current(); !resolved || !state.Authorized {
		t.Fatalf("expected resolved, authorized state, got %+v resolved=%t", state, resolved)
	}
}
