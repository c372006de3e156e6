package breaker

import (
	"errors"
	"time"

	pkghttp "MacroPulse/pkg/http"

	"github.com/sony/gobreaker"
)

// ErrOpen is returned without calling upstream while the breaker is open.
var ErrOpen = gobreaker.ErrOpenState

// Breaker trips after consecutive upstream failures and fails fast until
// the open timeout elapses.
type Breaker struct{ cb *gobreaker.CircuitBreaker }

// New builds a breaker. onChange may be nil.
func New(name string, maxFailures uint32, openTimeout time.Duration, onChange func(name string, from, to string)) *Breaker {
	if maxFailures == 0 {
		maxFailures = 5
	}
	st := gobreaker.Settings{
		Name:     name,
		Interval: time.Minute,
		Timeout:  openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		// client errors (bad series id, 4xx) say nothing about upstream health
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var se *pkghttp.StatusError
			if errors.As(err, &se) {
				return !se.Temporary()
			}
			return false
		},
	}
	if onChange != nil {
		st.OnStateChange = func(name string, from, to gobreaker.State) {
			onChange(name, from.String(), to.String())
		}
	}
	return &Breaker{cb: gobreaker.NewCircuitBreaker(st)}
}

// Execute runs fn through the breaker.
func (b *Breaker) Execute(fn func() (interface{}, error)) (interface{}, error) {
	return b.cb.Execute(fn)
}

// State returns "closed", "half-open" or "open".
func (b *Breaker) State() string { return b.cb.State().String() }
