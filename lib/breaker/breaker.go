// Package breaker guards calls to upstream services with a circuit breaker.
package breaker

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ErrOpen is returned when the circuit is open or the half-open probe budget is spent.
var ErrOpen = errors.New("circuit breaker is open")

type Config struct {
	// MaxRequests is the number of requests allowed in half-open state
	MaxRequests uint32 `koanf:"maxrequests"`
	// Interval is the cyclic period for clearing counts in closed state
	Interval time.Duration `koanf:"interval"`
	// Timeout is how long the circuit stays open before going half-open
	Timeout time.Duration `koanf:"timeout"`
	// FailureThreshold is the number of consecutive failures that opens the circuit
	FailureThreshold uint32 `koanf:"failurethreshold"`
}

func DefaultConfig() Config {
	return Config{
		MaxRequests:      1,
		Interval:         60 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// StateListener is notified of state changes, e.g. to export them as a metric.
type StateListener func(name string, state gobreaker.State)

// CircuitBreaker wraps gobreaker with logging and tracing.
type CircuitBreaker struct {
	cb     *gobreaker.CircuitBreaker
	name   string
	tracer trace.Tracer
}

// New creates a circuit breaker. isFailure decides which errors count towards opening the circuit;
// when nil, every error does.
func New(name string, cfg Config, isFailure func(error) bool, listeners ...StateListener) *CircuitBreaker {
	if isFailure == nil {
		isFailure = func(err error) bool { return err != nil }
	}
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn().Msgf("Circuit breaker %s changed state: %s -> %s", name, from, to)
			for _, listener := range listeners {
				listener(name, to)
			}
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !isFailure(err)
		},
	}
	return &CircuitBreaker{
		cb:     gobreaker.NewCircuitBreaker(settings),
		name:   name,
		tracer: otel.Tracer("circuit-breaker"),
	}
}

// Execute runs fn through the circuit breaker. If the circuit is open, fn is not invoked and ErrOpen is returned.
func (c *CircuitBreaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, span := c.tracer.Start(ctx, "circuit_breaker.execute",
		trace.WithAttributes(
			attribute.String("breaker.name", c.name),
			attribute.String("breaker.state", c.cb.State().String()),
		))
	defer span.End()

	_, err := c.cb.Execute(func() (interface{}, error) {
		return nil, fn(ctx)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		span.SetAttributes(attribute.Bool("breaker.open", true))
		return errors.Join(ErrOpen, err)
	}
	if err != nil {
		span.RecordError(err)
	}
	return err
}

func (c *CircuitBreaker) State() gobreaker.State {
	return c.cb.State()
}

// StateValue maps the state to the value exported by the circuit_breaker_state gauge.
func StateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateOpen:
		return 1
	case gobreaker.StateHalfOpen:
		return 2
	default:
		return 0
	}
}
