package cancel

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrAlreadyCancelled reports a send that lost the race: a payload
	// was already delivered and will not be overwritten.
	ErrAlreadyCancelled = errors.New("cancel: already cancelled")
	// ErrReceiverGone reports a send whose token was closed before any
	// delivery, so cancellation is moot.
	ErrReceiverGone = errors.New("cancel: receiver gone")
	// ErrSenderGone reports that every sender handle was closed without
	// a delivery; cancellation can never arrive.
	ErrSenderGone = errors.New("cancel: all senders gone")
)

// state is the delivery slot shared by every handle of one token.
// done is closed exactly once, on the first terminal transition
// (delivery or abandonment).
type state[T any] struct {
	mu        sync.Mutex
	payload   T
	delivered bool
	abandoned bool
	recvGone  bool
	senders   int
	done      chan struct{}
	obs       Observer
}

// Sender attempts delivery of the cancellation payload. Handles are
// cheap; Clone as many as there are parties that may cancel.
type Sender[T any] struct {
	st   *state[T]
	once sync.Once
}

// Token is the single receiving half. Exactly one exists per New call.
type Token[T any] struct {
	st   *state[T]
	once sync.Once
}

// New creates a token with capacity for one in-flight payload and
// returns the first sender handle along with the sole receiving token.
func New[T any](optFns ...Option) (*Sender[T], *Token[T]) {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	st := &state[T]{senders: 1, done: make(chan struct{}), obs: opts.Observer}
	if st.obs != nil {
		st.obs.TokenCreated()
	}
	return &Sender[T]{st: st}, &Token[T]{st: st}
}

// Clone returns an independent handle sharing the same delivery slot.
// It must be called on a handle that has not been closed.
func (s *Sender[T]) Clone() *Sender[T] {
	s.st.mu.Lock()
	s.st.senders++
	s.st.mu.Unlock()
	return &Sender[T]{st: s.st}
}

// Send attempts to deliver payload. The first send across all handles
// wins and wakes a waiting receiver; later sends fail with
// ErrAlreadyCancelled. Sends after the token was closed fail with
// ErrReceiverGone. Send never blocks.
func (s *Sender[T]) Send(payload T) error {
	st := s.st
	st.mu.Lock()
	var err error
	switch {
	case st.delivered:
		err = ErrAlreadyCancelled
	case st.recvGone:
		err = ErrReceiverGone
	default:
		st.payload = payload
		st.delivered = true
		close(st.done)
	}
	st.mu.Unlock()
	if st.obs != nil {
		if err != nil {
			st.obs.SendRejected(err)
		} else {
			st.obs.CancelDelivered()
		}
	}
	return err
}

// Close releases this handle. When the last live handle closes without
// a delivery the token is abandoned and a waiting receiver resolves
// with ErrSenderGone. Close is idempotent per handle.
func (s *Sender[T]) Close() {
	s.once.Do(func() {
		st := s.st
		st.mu.Lock()
		st.senders--
		abandon := st.senders == 0 && !st.delivered && !st.abandoned
		if abandon {
			st.abandoned = true
			close(st.done)
		}
		st.mu.Unlock()
		if abandon && st.obs != nil {
			st.obs.SendersGone()
		}
	})
}

// IsCancelled reports whether a payload has been delivered. It never
// blocks and is monotonic: once true it stays true. Abandonment does
// not count as cancellation.
func (t *Token[T]) IsCancelled() bool {
	t.st.mu.Lock()
	defer t.st.mu.Unlock()
	return t.st.delivered
}

// Done returns a channel closed on the first terminal transition,
// delivery or abandonment, so a select-based checkpoint never hangs on
// a token that will never be cancelled. Use Cancelled or IsCancelled to
// tell the two apart.
func (t *Token[T]) Done() <-chan struct{} {
	return t.st.done
}

// Cancelled is the suspension point. If a payload is already pending it
// returns immediately; otherwise it blocks until delivery, abandonment
// (ErrSenderGone), or ctx is done (ctx.Err()).
//
// After a delivery Cancelled is idempotent: every call returns the same
// payload. This is a deliberate choice, matching how a closed channel
// keeps yielding.
func (t *Token[T]) Cancelled(ctx context.Context) (T, error) {
	st := t.st
	var zero T

	var start time.Time
	if st.obs != nil {
		start = time.Now()
	}

	select {
	case <-st.done:
	default:
		select {
		case <-st.done:
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}

	st.mu.Lock()
	delivered, payload := st.delivered, st.payload
	st.mu.Unlock()
	if !delivered {
		return zero, ErrSenderGone
	}
	if st.obs != nil {
		st.obs.CancelObserved(time.Since(start))
	}
	return payload, nil
}

// Close drops the receiver. Later sends fail with ErrReceiverGone; a
// delivery that already happened is unaffected. Close is idempotent.
func (t *Token[T]) Close() {
	t.once.Do(func() {
		t.st.mu.Lock()
		t.st.recvGone = true
		t.st.mu.Unlock()
	})
}
