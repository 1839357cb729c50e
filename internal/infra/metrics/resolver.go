package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ryu-qqq/AuthHub-sub012/internal/core/port"
)

// ResolverMetrics counts endpoint-permission lookups by outcome.
type ResolverMetrics struct {
	matches   prometheus.Counter
	noMatches prometheus.Counter
}

// NewResolverMetrics constructs and registers the resolver counters.
func NewResolverMetrics(reg prometheus.Registerer) (*ResolverMetrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	matches := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "authhub",
		Subsystem: "resolver",
		Name:      "matches_total",
		Help:      "Total number of endpoint permission lookups that matched a rule.",
	})
	registered, err := registerCounter(reg, matches)
	if err != nil {
		return nil, err
	}
	matches = registered

	noMatches := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "authhub",
		Subsystem: "resolver",
		Name:      "no_matches_total",
		Help:      "Total number of endpoint permission lookups that matched no rule.",
	})
	registered, err = registerCounter(reg, noMatches)
	if err != nil {
		return nil, err
	}
	noMatches = registered

	return &ResolverMetrics{matches: matches, noMatches: noMatches}, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := already.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("existing collector has unexpected type %T", already.ExistingCollector)
		}
		return nil, fmt.Errorf("register resolver counter: %w", err)
	}
	return counter, nil
}

// IncMatch records a lookup that resolved to a rule.
func (m *ResolverMetrics) IncMatch() {
	m.matches.Inc()
}

// IncNoMatch records a lookup that fell through to the deny default.
func (m *ResolverMetrics) IncNoMatch() {
	m.noMatches.Inc()
}

var _ port.ResolverMetrics = (*ResolverMetrics)(nil)
