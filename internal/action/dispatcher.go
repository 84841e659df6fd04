package action

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/morpheus-lite/soar/internal/alert"
	"github.com/morpheus-lite/soar/internal/logger"
	"github.com/morpheus-lite/soar/internal/metrics"
)

// Dispatcher resolves action names from matched rules and runs them. It
// never fails outward: an unknown action or a failed execution becomes a
// diagnostic log line and an unsuccessful Result.
type Dispatcher struct {
	reg *Registry
	log zerolog.Logger
}

// NewDispatcher wraps a registry.
func NewDispatcher(reg *Registry) *Dispatcher {
	return &Dispatcher{reg: reg, log: logger.WithComponent("actions")}
}

// Dispatch runs one named action against an alert.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, a alert.Alert, params map[string]interface{}) Result {
	exec, ok := d.reg.Get(name)
	if !ok {
		d.log.Warn().Str("action", name).Str("alert_id", a.ID()).Msg("unknown action")
		metrics.ActionsExecuted.WithLabelValues(name, "unknown").Inc()
		return Result{Action: name, Success: false, Message: "unknown action " + name}
	}
	res := exec.Execute(ctx, a, params)
	status := "success"
	if !res.Success {
		status = "error"
		d.log.Warn().Str("action", name).Str("alert_id", a.ID()).Str("reason", res.Message).Msg("action skipped")
	}
	metrics.ActionsExecuted.WithLabelValues(name, status).Inc()
	return res
}
