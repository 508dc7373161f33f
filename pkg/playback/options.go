package playback

import (
	"log/slog"
	"time"
)

const (
	DefaultTextSpeed          = 3.0 // Characters per second before the section multiplier
	DefaultCharsPerLine       = 49
	DefaultChoicePopInDelay   = 50 * time.Millisecond
	DefaultChoiceDestroyDelay = time.Second
)

// Option configures a Runtime.
type Option func(*Runtime)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Runtime) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithTextSpeed sets the base reveal speed in characters per second.
func WithTextSpeed(speed float64) Option {
	return func(r *Runtime) {
		r.baseSpeed = speed
	}
}

// WithCharsPerLine sets the word-wrap budget. Values below 1 disable wrapping.
func WithCharsPerLine(n int) Option {
	return func(r *Runtime) {
		r.charsPerLine = n
	}
}

// WithChoicePopInDelay sets the stagger between showing or hiding consecutive choices.
func WithChoicePopInDelay(d time.Duration) Option {
	return func(r *Runtime) {
		r.popInDelay = d
	}
}

// WithChoiceDestroyDelay sets how long hidden choices linger before they are destroyed.
func WithChoiceDestroyDelay(d time.Duration) Option {
	return func(r *Runtime) {
		r.destroyDelay = d
	}
}

// WithObserver adds an observer. It may be given more than once.
func WithObserver(o Observer) Option {
	return func(r *Runtime) {
		if o != nil {
			r.observers = append(r.observers, o)
		}
	}
}
