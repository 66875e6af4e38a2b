// Package capability resolves whether voice input may be used.
//
// The gate combines two independent grants, audio capture and speech
// recognition, into a single authorized fact plus a human-readable reason
// when it is not authorized.
package capability

import (
	"context"
	"fmt"
	"sync"
)

const (
	ReasonRecognitionDenied = "speech recognition permission is required to use voice input"
	ReasonCaptureDenied     = "microphone permission is required to use voice input"
)

// Requester asks the platform for a single grant.
type Requester interface {
	Request(ctx context.Context) (granted bool, err error)
}

// RequesterFunc adapts a function to [Requester].
type RequesterFunc func(ctx context.Context) (bool, error)

func (f RequesterFunc) Request(ctx context.Context) (bool, error) { return f(ctx) }

// Granted is a [Requester] that always grants.
var Granted Requester = RequesterFunc(func(context.Context) (bool, error) { return true, nil })

// Denied is a [Requester] that never grants.
var Denied Requester = RequesterFunc(func(context.Context) (bool, error) { return false, nil })

// State is the combined authorization fact.
type State struct {
	Authorized bool
	// Reason explains why voice input is not authorized. Empty when authorized.
	Reason string
}

type Gate struct {
	capture     Requester
	recognition Requester

	mu       sync.Mutex
	resolved bool
	state    State

	onChange func(State)
}

type Option func(*Gate)

// WithChangeCallback registers a callback invoked whenever a resolution
// changes the state.
func WithChangeCallback(callback func(State)) Option {
	return func(g *Gate) { g.onChange = callback }
}

// NewGate builds a gate. Nil requesters are treated as denied.
func NewGate(capture, recognition Requester, opts ...Option) *Gate {
	if capture == nil {
		capture = Denied
	}
	if recognition == nil {
		recognition = Denied
	}

	g := &Gate{capture: capture, recognition: recognition}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Authorize returns the authorization state, requesting both grants on the
// first call only. Concurrent first calls wait for a single resolution.
func (g *Gate) Authorize(ctx context.Context) State {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.resolved {
		return g.state
	}

	return g.resolveLocked(ctx)
}

// Refresh re-derives the state, e.g. after the platform reported a change in
// capability availability.
func (g *Gate) Refresh(ctx context.Context) State {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.resolveLocked(ctx)
}

// Current returns the last resolved state without requesting anything.
// Before the first resolution it reports not authorized with no reason.
func (g *Gate) Current() (state State, resolved bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.state, g.resolved
}

func (g *Gate) resolveLocked(ctx context.Context) State {
	recognitionGranted, recognitionErr := g.recognition.Request(ctx)
	captureGranted, captureErr := g.capture.Request(ctx)

	state := State{Authorized: recognitionGranted && captureGranted &&
		recognitionErr == nil && captureErr == nil}
	switch {
	case state.Authorized:
	case recognitionErr != nil:
		state.Reason = fmt.Sprintf("%s (%v)", ReasonRecognitionDenied, recognitionErr)
	case !recognitionGranted:
		state.Reason = ReasonRecognitionDenied
	case captureErr != nil:
		state.Reason = fmt.Sprintf("%s (%v)", ReasonCaptureDenied, captureErr)
	default:
		state.Reason = ReasonCaptureDenied
	}

	changed := !g.resolved || g.state != state
	g.state = state
	g.resolved = true

	if changed && g.onChange != nil {
		g.onChange(state)
	}
	return state
}
