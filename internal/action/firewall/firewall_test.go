package firewall

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morpheus-lite/soar/internal/alert"
)

type recordingConnector struct {
	ips     []string
	reasons []string
	err     error
}

func (c *recordingConnector) BlockIP(_ context.Context, ip, reason string) error {
	c.ips = append(c.ips, ip)
	c.reasons = append(c.reasons, reason)
	return c.err
}

func TestBlockIP(t *testing.T) {
	conn := &recordingConnector{}
	a := New(conn)

	res := a.Execute(context.Background(), alert.Alert{"id": 1, "src_ip": "1.2.3.4"}, nil)

	assert.True(t, res.Success)
	assert.Equal(t, "firewall_block_ip", res.Action)
	require.Len(t, conn.ips, 1)
	assert.Equal(t, "1.2.3.4", conn.ips[0])
	assert.Equal(t, "Rule-based action for alert 1", conn.reasons[0])
}

func TestBlockIP_CustomField(t *testing.T) {
	conn := &recordingConnector{}
	a := New(conn)

	res := a.Execute(context.Background(),
		alert.Alert{"attacker_ip": "9.9.9.9"},
		map[string]interface{}{"ip_field": "attacker_ip"})

	assert.True(t, res.Success)
	require.Len(t, conn.ips, 1)
	assert.Equal(t, "9.9.9.9", conn.ips[0])
}

func TestBlockIP_MissingField(t *testing.T) {
	conn := &recordingConnector{}
	a := New(conn)

	for _, al := range []alert.Alert{
		{"id": "a-1"},
		{"id": "a-1", "src_ip": nil},
		{"id": "a-1", "src_ip": ""},
	} {
		res := a.Execute(context.Background(), al, nil)
		assert.False(t, res.Success)
		assert.Contains(t, res.Message, `missing field "src_ip"`)
	}
	assert.Empty(t, conn.ips)
}

func TestBlockIP_ConnectorError(t *testing.T) {
	conn := &recordingConnector{err: errors.New("device unreachable")}
	a := New(conn)

	res := a.Execute(context.Background(), alert.Alert{"src_ip": "1.2.3.4"}, nil)
	assert.False(t, res.Success)
	assert.Equal(t, "device unreachable", res.Message)
}
