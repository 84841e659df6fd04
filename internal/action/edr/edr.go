// Package edr implements the edr_isolate_host response action.
package edr

import (
	"context"
	"fmt"

	"github.com/morpheus-lite/soar/internal/action"
	"github.com/morpheus-lite/soar/internal/alert"
	"github.com/morpheus-lite/soar/internal/logger"
)

// Connector is the seam where a real EDR integration plugs in.
type Connector interface {
	IsolateHost(ctx context.Context, hostname, note string) error
}

// StubConnector logs the isolation instead of calling an EDR API.
type StubConnector struct{}

func (StubConnector) IsolateHost(_ context.Context, hostname, note string) error {
	log := logger.WithComponent("edr")
	log.Info().Str("host", hostname).Str("note", note).Msg("isolated host")
	return nil
}

// IsolateHostAction isolates the host named in a configurable alert field
// (param host_field, default machine).
type IsolateHostAction struct {
	conn Connector
}

func New(conn Connector) *IsolateHostAction {
	return &IsolateHostAction{conn: conn}
}

func (a *IsolateHostAction) Name() string { return "edr_isolate_host" }

func (a *IsolateHostAction) Execute(ctx context.Context, al alert.Alert, params map[string]interface{}) action.Result {
	hostField := "machine"
	if f, ok := params["host_field"].(string); ok && f != "" {
		hostField = f
	}
	v, ok := al.Field(hostField)
	if !ok || v == nil || v == "" {
		return action.Result{
			Action:  a.Name(),
			Success: false,
			Message: fmt.Sprintf("missing field %q in alert %s", hostField, al.ID()),
		}
	}
	host := fmt.Sprintf("%v", v)
	note := fmt.Sprintf("Rule-based action for alert %s", al.ID())
	if err := a.conn.IsolateHost(ctx, host, note); err != nil {
		return action.Result{Action: a.Name(), Success: false, Message: err.Error()}
	}
	return action.Result{Action: a.Name(), Success: true, Message: "isolated host " + host}
}
