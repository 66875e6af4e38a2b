package voice

import (
	"sync"
	"sync/atomic"

	"github.com/koscakluka/ema-persona/core/speechtotext"
)

const defaultUpdateBuffer = 16

// Recording is the handle of one recording started by [InputSession.Start].
//
// Updates delivers transcript snapshots in arrival order, each superseding
// the previous one. When the buffer is full the oldest pending update is
// dropped. The channel is closed when the recording ends, after a final
// update if the recording was stopped rather than failed.
type Recording struct {
	id string

	active atomic.Bool
	stop   func(*Recording)

	mu         sync.Mutex
	updates    chan speechtotext.TranscriptUpdate
	done       chan struct{}
	transcript string
	final      bool
	ended      bool
	err        error
}

func newRecording(id string, buffer int, stop func(*Recording)) *Recording {
	if buffer < 1 {
		buffer = defaultUpdateBuffer
	}
	r := &Recording{
		id:      id,
		stop:    stop,
		updates: make(chan speechtotext.TranscriptUpdate, buffer),
		done:    make(chan struct{}),
	}
	r.active.Store(true)
	return r
}

func (r *Recording) ID() string { return r.id }

func (r *Recording) Updates() <-chan speechtotext.TranscriptUpdate { return r.updates }

// Done is closed when the recording has ended for any reason.
func (r *Recording) Done() <-chan struct{} { return r.done }

// Err returns why the recording ended, nil when it was stopped.
func (r *Recording) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Transcript returns the latest transcript of the recording.
func (r *Recording) Transcript() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.transcript
}

// Cancel stops the recording if it is still the active one.
func (r *Recording) Cancel() {
	if r.active.Load() && r.stop != nil {
		r.stop(r)
	}
}

func (r *Recording) deliver(update speechtotext.TranscriptUpdate) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ended || r.final {
		return false
	}
	r.transcript = update.Text
	r.final = update.IsFinal
	r.pushLocked(update)
	return true
}

func (r *Recording) pushLocked(update speechtotext.TranscriptUpdate) {
	for {
		select {
		case r.updates <- update:
			return
		default:
		}
		select {
		case <-r.updates:
		default:
		}
	}
}

// end closes the recording. A stopped recording that never received a
// final update gets one carrying its latest transcript.
func (r *Recording) end(err error) {
	r.active.Store(false)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ended {
		return
	}
	r.ended = true
	r.err = err
	if err == nil && !r.final {
		r.final = true
		r.pushLocked(speechtotext.TranscriptUpdate{Text: r.transcript, IsFinal: true})
	}
	close(r.updates)
	close(r.done)
}
