// Package engine runs alerts through the rule set and dispatches matched
// actions. Evaluation itself is pure; the engine adds queueing, timeouts,
// and instrumentation around it.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/morpheus-lite/soar/internal/action"
	"github.com/morpheus-lite/soar/internal/alert"
	"github.com/morpheus-lite/soar/internal/logger"
	"github.com/morpheus-lite/soar/internal/metrics"
	"github.com/morpheus-lite/soar/internal/playbook"
	"github.com/morpheus-lite/soar/internal/rule"
)

// Config holds the engine's concurrency settings.
type Config struct {
	Workers        int
	QueueDepth     int
	ProcessTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.Workers == 0 {
		c.Workers = 16
	}
	if c.QueueDepth == 0 {
		c.QueueDepth = 10000
	}
	if c.ProcessTimeout == 0 {
		c.ProcessTimeout = 5 * time.Second
	}
}

// AlertResult is the outcome of evaluating a single alert.
type AlertResult struct {
	AlertID      string          `json:"alert_id"`
	MatchedRules []string        `json:"matched_rules"`
	Actions      []string        `json:"actions"`
	Results      []action.Result `json:"action_results,omitempty"`
	DurationMs   int64           `json:"duration_ms"`
}

type alertWork struct {
	a       alert.Alert
	resultC chan *AlertResult
}

// Engine evaluates alerts against the loader's current rule snapshot.
type Engine struct {
	loader     *playbook.Loader
	dispatcher *action.Dispatcher
	pool       *workerPool[*alertWork]
	conf       Config
	log        zerolog.Logger
}

// New creates an Engine and starts its worker pool.
func New(ctx context.Context, loader *playbook.Loader, dispatcher *action.Dispatcher, conf Config) *Engine {
	conf.applyDefaults()
	e := &Engine{
		loader:     loader,
		dispatcher: dispatcher,
		conf:       conf,
		log:        logger.WithComponent("engine"),
	}
	e.pool = newWorkerPool(ctx, conf.Workers, conf.QueueDepth, func(ctx context.Context, w *alertWork) {
		res := e.processAlert(ctx, w.a)
		if w.resultC != nil {
			w.resultC <- res
		}
	})
	return e
}

// ProcessSync evaluates an alert and waits for the result.
func (e *Engine) ProcessSync(ctx context.Context, a alert.Alert) (*AlertResult, error) {
	resultC := make(chan *AlertResult, 1)
	if !e.pool.Submit(&alertWork{a: a, resultC: resultC}) {
		metrics.AlertsDropped.Inc()
		return nil, fmt.Errorf("alert queue full (capacity %d)", e.conf.QueueDepth)
	}
	metrics.AlertsEnqueued.Inc()

	select {
	case res := <-resultC:
		return res, nil
	case <-time.After(e.conf.ProcessTimeout):
		return nil, fmt.Errorf("alert processing timeout after %v", e.conf.ProcessTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ProcessAsync enqueues an alert for background evaluation. Returns false if
// the queue is full.
func (e *Engine) ProcessAsync(a alert.Alert) bool {
	if !e.pool.Submit(&alertWork{a: a}) {
		metrics.AlertsDropped.Inc()
		return false
	}
	metrics.AlertsEnqueued.Inc()
	return true
}

// QueueUtilization returns queue used / capacity (0-1).
func (e *Engine) QueueUtilization() float64 {
	if e.pool.QueueCap() == 0 {
		return 0
	}
	return float64(e.pool.QueueLen()) / float64(e.pool.QueueCap())
}

func (e *Engine) processAlert(ctx context.Context, a alert.Alert) *AlertResult {
	start := time.Now()

	// Rules() hands out an immutable snapshot; a concurrent reload swaps
	// the whole set, never mutates this one.
	matched := rule.EvaluateAll(e.loader.Rules(), a)

	result := &AlertResult{
		AlertID:      a.ID(),
		MatchedRules: make([]string, 0, len(matched)),
		Actions:      make([]string, 0),
	}
	for _, r := range matched {
		result.MatchedRules = append(result.MatchedRules, r.Name)
		metrics.RulesMatched.WithLabelValues(r.Name).Inc()
		for _, ref := range r.Actions {
			res := e.dispatcher.Dispatch(ctx, ref.Action, a, ref.Params)
			result.Actions = append(result.Actions, ref.Action)
			result.Results = append(result.Results, res)
		}
	}

	if len(matched) == 0 {
		e.log.Debug().Str("alert_id", a.ID()).Msg("alert matched no rules")
	}

	result.DurationMs = time.Since(start).Milliseconds()
	metrics.AlertsProcessed.Inc()
	metrics.AlertProcessingDuration.Observe(float64(result.DurationMs))
	return result
}

// Shutdown drains the pool gracefully.
func (e *Engine) Shutdown() {
	e.pool.Drain()
}
