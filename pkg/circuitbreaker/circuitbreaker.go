package circuitbreaker

import (
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// Settings tune a breaker. Zero values fall back to the defaults below.
type Settings struct {
	Name string
	// ConsecutiveFailures trips the breaker open.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before probing.
	OpenTimeout time.Duration
	// HalfOpenRequests is how many probes are let through when half-open.
	HalfOpenRequests uint32
	// IsSuccessful classifies errors that must not count as failures
	// (e.g. a 404 from a healthy backend). Nil counts every error.
	IsSuccessful func(err error) bool
}

const (
	defaultConsecutiveFailures = 5
	defaultOpenTimeout         = 30 * time.Second
	defaultHalfOpenRequests    = 1
)

var (
	ErrOpenState       = gobreaker.ErrOpenState
	ErrTooManyRequests = gobreaker.ErrTooManyRequests
)

// New returns a breaker for calls producing T.
func New[T any](s Settings, log *zap.Logger) *gobreaker.CircuitBreaker[T] {
	if log == nil {
		log = zap.NewNop()
	}
	if s.ConsecutiveFailures == 0 {
		s.ConsecutiveFailures = defaultConsecutiveFailures
	}
	if s.OpenTimeout == 0 {
		s.OpenTimeout = defaultOpenTimeout
	}
	if s.HalfOpenRequests == 0 {
		s.HalfOpenRequests = defaultHalfOpenRequests
	}

	threshold := s.ConsecutiveFailures
	st := gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: s.HalfOpenRequests,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}
	if s.IsSuccessful != nil {
		st.IsSuccessful = s.IsSuccessful
	}
	return gobreaker.NewCircuitBreaker[T](st)
}
