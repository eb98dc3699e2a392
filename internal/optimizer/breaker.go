package optimizer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/smartfood/grocery-service/internal/types"
)

// ErrCircuitOpen is the cause reported while the breaker rejects reads.
var ErrCircuitOpen = errors.New("snapshot store circuit open")

var breakerState = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "grocery_store_breaker_state",
		Help: "Snapshot store circuit breaker state (0 closed, 1 open, 2 half-open)",
	},
)

// BreakerState is the state of a circuit breaker.
type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig holds circuit breaker settings.
type BreakerConfig struct {
	// Consecutive infrastructure failures before the circuit opens. Zero disables the breaker.
	MaxFailures int `mapstructure:"max_failures"`

	// How long the circuit stays open before letting probes through.
	ResetTimeout time.Duration `mapstructure:"reset_timeout"`

	// Successful probes needed in half-open state to close again.
	HalfOpenProbes int `mapstructure:"half_open_probes"`
}

// DefaultBreakerConfig returns the default breaker settings.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxFailures:    5,
		ResetTimeout:   30 * time.Second,
		HalfOpenProbes: 2,
	}
}

// GuardedStore wraps a DataStore with a circuit breaker. Only failures of the
// store itself count: domain outcomes such as NotFound and context
// cancellation pass through without touching the breaker.
type GuardedStore struct {
	inner  DataStore
	config BreakerConfig
	logger zerolog.Logger
	now    func() time.Time

	mu       sync.Mutex
	state    BreakerState
	failures int
	probes   int
	inFlight int
	openedAt time.Time
	gen      uint64 // bumped on every state change
}

// admission records the breaker state a read was let through in. Results of
// reads admitted under an earlier generation are discarded.
type admission struct {
	gen   uint64
	probe bool
}

// NewGuardedStore wraps inner with a breaker.
func NewGuardedStore(inner DataStore, config BreakerConfig, logger zerolog.Logger) *GuardedStore {
	if config.HalfOpenProbes < 1 {
		config.HalfOpenProbes = 1
	}
	breakerState.Set(float64(BreakerClosed))
	return &GuardedStore{
		inner:  inner,
		config: config,
		logger: logger.With().Str("component", "store_breaker").Logger(),
		now:    time.Now,
	}
}

// ReadSnapshot runs fn unless the circuit is open.
func (g *GuardedStore) ReadSnapshot(ctx context.Context, fn func(ctx context.Context, s Snapshot) error) error {
	if g.config.MaxFailures <= 0 {
		return g.inner.ReadSnapshot(ctx, fn)
	}
	adm, ok := g.allow()
	if !ok {
		return types.Internal("read snapshot", ErrCircuitOpen)
	}

	err := g.inner.ReadSnapshot(ctx, fn)
	g.record(adm, err)
	return err
}

// State returns the current breaker state.
func (g *GuardedStore) State() BreakerState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *GuardedStore) allow() (admission, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.state {
	case BreakerOpen:
		if g.now().Sub(g.openedAt) < g.config.ResetTimeout {
			return admission{}, false
		}
		g.transition(BreakerHalfOpen)
		g.probes = 0
		g.inFlight = 0
		fallthrough
	case BreakerHalfOpen:
		if g.probes+g.inFlight >= g.config.HalfOpenProbes {
			return admission{}, false
		}
		g.inFlight++
		return admission{gen: g.gen, probe: true}, true
	default:
		return admission{gen: g.gen}, true
	}
}

func (g *GuardedStore) record(adm admission, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if adm.gen != g.gen {
		return
	}
	if adm.probe {
		g.inFlight--
	}

	if !isStoreFailure(err) {
		switch g.state {
		case BreakerClosed:
			g.failures = 0
		case BreakerHalfOpen:
			g.probes++
			if g.probes >= g.config.HalfOpenProbes {
				g.transition(BreakerClosed)
				g.failures = 0
			}
		}
		return
	}

	g.failures++
	switch g.state {
	case BreakerClosed:
		if g.failures >= g.config.MaxFailures {
			g.open(err)
		}
	case BreakerHalfOpen:
		g.open(err)
	}
}

func (g *GuardedStore) open(cause error) {
	g.transition(BreakerOpen)
	g.openedAt = g.now()
	g.logger.Warn().
		Err(cause).
		Int("failures", g.failures).
		Dur("reset_timeout", g.config.ResetTimeout).
		Msg("Snapshot store circuit opened")
}

func (g *GuardedStore) transition(to BreakerState) {
	if g.state == to {
		return
	}
	g.logger.Info().Str("from", g.state.String()).Str("to", to.String()).Msg("Breaker state change")
	g.state = to
	g.gen++
	breakerState.Set(float64(to))
}

// isStoreFailure reports whether err came from the store itself rather than
// from a domain outcome or the caller giving up.
func isStoreFailure(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var de *types.DomainError
	return !errors.As(err, &de) || de.Code == types.ErrCodeInternal
}
