// Package firewall implements the firewall_block_ip response action.
package firewall

import (
	"context"
	"fmt"

	"github.com/morpheus-lite/soar/internal/action"
	"github.com/morpheus-lite/soar/internal/alert"
	"github.com/morpheus-lite/soar/internal/logger"
)

// Connector is the seam where a real firewall integration plugs in.
type Connector interface {
	BlockIP(ctx context.Context, ip, reason string) error
}

// StubConnector logs the block instead of touching any device.
type StubConnector struct{}

func (StubConnector) BlockIP(_ context.Context, ip, reason string) error {
	log := logger.WithComponent("firewall")
	log.Info().Str("ip", ip).Str("reason", reason).Msg("blocked IP")
	return nil
}

// BlockIPAction blocks the IP found in a configurable alert field
// (param ip_field, default src_ip).
type BlockIPAction struct {
	conn Connector
}

func New(conn Connector) *BlockIPAction {
	return &BlockIPAction{conn: conn}
}

func (a *BlockIPAction) Name() string { return "firewall_block_ip" }

func (a *BlockIPAction) Execute(ctx context.Context, al alert.Alert, params map[string]interface{}) action.Result {
	ipField := "src_ip"
	if f, ok := params["ip_field"].(string); ok && f != "" {
		ipField = f
	}
	v, ok := al.Field(ipField)
	if !ok || v == nil || v == "" {
		return action.Result{
			Action:  a.Name(),
			Success: false,
			Message: fmt.Sprintf("missing field %q in alert %s", ipField, al.ID()),
		}
	}
	ip := fmt.Sprintf("%v", v)
	reason := fmt.Sprintf("Rule-based action for alert %s", al.ID())
	if err := a.conn.BlockIP(ctx, ip, reason); err != nil {
		return action.Result{Action: a.Name(), Success: false, Message: err.Error()}
	}
	return action.Result{Action: a.Name(), Success: true, Message: "blocked IP " + ip}
}
