// Package app drives the refresh loop: on every tick the selected topic
// series are pulled from the active source, pushed through the filter
// chain, and published to the telemetry hub.
package app

import (
	"context"
	"sync"
	"time"

	"github.com/rjboer/jsonplot/internal/filter"
	"github.com/rjboer/jsonplot/internal/logging"
	"github.com/rjboer/jsonplot/internal/source"
	"github.com/rjboer/jsonplot/internal/telemetry"
)

// Refresh cadence bounds. The dial on the original front end moves in
// 100 ms steps between these.
const (
	DefaultRefreshInterval = time.Second
	MinRefreshInterval     = 100 * time.Millisecond
	MaxRefreshInterval     = 2 * time.Second
)

// ClampInterval forces an interval into the supported refresh range. Zero
// or negative selects the default.
func ClampInterval(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultRefreshInterval
	}
	if d < MinRefreshInterval {
		return MinRefreshInterval
	}
	if d > MaxRefreshInterval {
		return MaxRefreshInterval
	}
	return d
}

// Config captures runner configuration.
type Config struct {
	// RefreshInterval is the tick cadence, clamped to the supported range.
	RefreshInterval time.Duration

	// Topics selects which series to refresh. Empty means every topic the
	// source has discovered.
	Topics []string
}

// Runner periodically re-applies the chain to freshly arrived data.
type Runner struct {
	mu       sync.Mutex
	interval time.Duration
	topics   []string

	src    source.Source
	chain  *filter.Chain
	hub    *telemetry.Hub
	logger logging.Logger
}

// NewRunner wires a source, a chain, and a hub into a refresh loop.
func NewRunner(src source.Source, chain *filter.Chain, hub *telemetry.Hub, cfg Config, logger logging.Logger) *Runner {
	if logger == nil {
		logger = logging.Default()
	}
	return &Runner{
		interval: ClampInterval(cfg.RefreshInterval),
		topics:   append([]string(nil), cfg.Topics...),
		src:      src,
		chain:    chain,
		hub:      hub,
		logger:   logger,
	}
}

// SetTopics replaces the selected topic set. Empty selects all discovered
// topics.
func (r *Runner) SetTopics(topics ...string) {
	r.mu.Lock()
	r.topics = append([]string(nil), topics...)
	r.mu.Unlock()
}

// SetInterval changes the refresh cadence, clamped to the supported range.
// Takes effect on the next tick.
func (r *Runner) SetInterval(d time.Duration) {
	r.mu.Lock()
	r.interval = ClampInterval(d)
	r.mu.Unlock()
}

// Run ticks until the context is canceled. The first refresh happens
// immediately rather than one interval in.
func (r *Runner) Run(ctx context.Context) error {
	r.Refresh()
	for {
		r.mu.Lock()
		interval := r.interval
		r.mu.Unlock()

		select {
		case <-time.After(interval):
			r.Refresh()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Refresh performs one pull-filter-publish pass over the selected topics.
// Sources that support reloading are re-read first so appended lines show
// up on the next plot.
func (r *Runner) Refresh() {
	r.mu.Lock()
	topics := append([]string(nil), r.topics...)
	r.mu.Unlock()

	if rl, ok := r.src.(interface{ Reload() error }); ok {
		if err := rl.Reload(); err != nil {
			r.logger.Warn("source reload failed", logging.Field{Key: "error", Value: err})
		}
	}
	if len(topics) == 0 {
		topics = r.src.Topics()
	}
	now := time.Now()
	for _, topic := range topics {
		values := r.chain.Apply(r.src.Values(topic))
		r.hub.Publish(telemetry.SeriesUpdate{Topic: topic, Values: values, At: now})
	}
}
