package cancel

import "time"

type Option func(*Options)

type Options struct {
	Observer Observer
}

func defaultOptions() Options { return Options{} }

func WithObserver(obs Observer) Option { return func(o *Options) { o.Observer = obs } }

// Observer receives token lifecycle notifications. Hooks are invoked
// synchronously from the calling goroutine and must not block.
type Observer interface {
	TokenCreated()
	CancelDelivered()
	SendRejected(err error)
	SendersGone()
	CancelObserved(wait time.Duration)
}
