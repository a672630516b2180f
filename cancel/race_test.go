package cancel

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"
)

func TestConcurrentSendsExactlyOneWins(t *testing.T) {
	t.Parallel()
	const N = 16
	snd, tok := New[int]()

	handles := make([]*Sender[int], N)
	handles[0] = snd
	for i := 1; i < N; i++ {
		handles[i] = snd.Clone()
	}

	var won, lost atomic.Int64
	start := make(chan struct{})
	var g errgroup.Group
	for i, h := range handles {
		g.Go(func() error {
			<-start
			defer h.Close()
			switch err := h.Send(i); {
			case err == nil:
				won.Add(1)
				return nil
			case errors.Is(err, ErrAlreadyCancelled):
				lost.Add(1)
				return nil
			default:
				return err
			}
		})
	}
	close(start)
	if err := g.Wait(); err != nil {
		t.Fatalf("unexpected send error: %v", err)
	}
	if won.Load() != 1 || lost.Load() != N-1 {
		t.Fatalf("expected 1 winner and %d losers, got %d/%d", N-1, won.Load(), lost.Load())
	}

	got, err := tok.Cancelled(context.Background())
	if err != nil {
		t.Fatalf("Cancelled failed: %v", err)
	}
	if got < 0 || got >= N {
		t.Fatalf("payload %d is not one of the sent values", got)
	}
}

func TestConcurrentSendsAfterReceiverClose(t *testing.T) {
	t.Parallel()
	const N = 8
	snd, tok := New[int]()
	tok.Close()

	handles := make([]*Sender[int], N)
	handles[0] = snd
	for i := 1; i < N; i++ {
		handles[i] = snd.Clone()
	}

	var g errgroup.Group
	for i, h := range handles {
		g.Go(func() error {
			defer h.Close()
			if err := h.Send(i); !errors.Is(err, ErrReceiverGone) {
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("expected every send to fail with ErrReceiverGone, got %v", err)
	}
}

func TestRacingReasonsOneObserved(t *testing.T) {
	t.Parallel()
	snd, tok := New[string]()
	a := snd
	b := snd.Clone()

	errs := make(chan error, 2)
	var g errgroup.Group
	g.Go(func() error {
		defer a.Close()
		errs <- a.Send("reason-A")
		return nil
	})
	g.Go(func() error {
		defer b.Close()
		errs <- b.Send("reason-B")
		return nil
	})
	_ = g.Wait()

	errA, errB := <-errs, <-errs
	if (errA == nil) == (errB == nil) {
		t.Fatalf("expected exactly one winner, got (%v, %v)", errA, errB)
	}
	loser := errA
	if loser == nil {
		loser = errB
	}
	if !errors.Is(loser, ErrAlreadyCancelled) {
		t.Fatalf("losing send returned %v, want ErrAlreadyCancelled", loser)
	}

	got, err := tok.Cancelled(context.Background())
	if err != nil {
		t.Fatalf("Cancelled failed: %v", err)
	}
	if got != "reason-A" && got != "reason-B" {
		t.Fatalf("receiver observed %q, want one of the raced reasons", got)
	}
}

func TestIsCancelledMonotonicUnderRace(t *testing.T) {
	t.Parallel()
	snd, tok := New[struct{}]()

	sawTrue := make(chan struct{})
	stop := make(chan struct{})
	var reverted atomic.Bool
	go func() {
		defer close(stop)
		for !tok.IsCancelled() {
			time.Sleep(time.Millisecond)
		}
		close(sawTrue)
		for i := 0; i < 100; i++ {
			if !tok.IsCancelled() {
				reverted.Store(true)
				return
			}
		}
	}()

	time.Sleep(5 * time.Millisecond)
	if err := snd.Send(struct{}{}); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	snd.Close()

	select {
	case <-sawTrue:
	case <-time.After(200 * time.Millisecond):
		t.Fatal("IsCancelled never became true after send")
	}
	<-stop
	if reverted.Load() {
		t.Fatal("IsCancelled reverted to false after reporting true")
	}
}
