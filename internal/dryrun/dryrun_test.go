package dryrun

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morpheus-lite/soar/internal/enrich"
)

// fixedLookuper returns canned results so branch outcomes are predictable.
type fixedLookuper struct {
	vtHash    map[string]interface{}
	vtURL     map[string]interface{}
	abuseipdb map[string]interface{}
}

func (f fixedLookuper) VTHash(context.Context, []string) (map[string]interface{}, error) {
	return f.vtHash, nil
}

func (f fixedLookuper) VTURL(context.Context, []string) (map[string]interface{}, error) {
	return f.vtURL, nil
}

func (f fixedLookuper) AbuseIPDB(_ context.Context, ip string) (map[string]interface{}, error) {
	res := map[string]interface{}{"ip": ip}
	for k, v := range f.abuseipdb {
		res[k] = v
	}
	return res, nil
}

func TestRun_AutoEnablesReferencedSteps(t *testing.T) {
	r := NewRunner(fixedLookuper{
		abuseipdb: map[string]interface{}{"score": 90, "country": "US", "asn": "AS15169"},
	})

	// Enrich config is all-off; the expression reference switches
	// abuseipdb on.
	resp := r.Run(context.Background(), Request{
		Collect:   Collect{SrcIP: "1.2.3.4"},
		Condition: Condition{Expression: "${steps.abuseipdb.score} >= 80"},
	})

	require.Contains(t, resp.Steps, enrich.StepAbuseIPDB)
	assert.NotContains(t, resp.Steps, enrich.StepVTHash)
	assert.Equal(t, "1.2.3.4", resp.Steps[enrich.StepAbuseIPDB]["ip"])
	assert.True(t, resp.ConditionResult)
	assert.Equal(t, "high", resp.BranchTaken)
	assert.Equal(t, "Dry-run completed successfully", resp.Message)
}

func TestRun_BranchSelection(t *testing.T) {
	r := NewRunner(fixedLookuper{
		vtHash: map[string]interface{}{"any_malicious": false, "max_score": 10, "total_lookups": 1},
	})

	req := Request{
		Collect:   Collect{AttachmentHashes: "abc"},
		Condition: Condition{Expression: "${steps.vt_hash.any_malicious} == True"},
		Actions: Actions{
			TrueActions:  []ActionSpec{{Action: "firewall_block_ip"}},
			FalseActions: []ActionSpec{{Action: "notify_analyst", Input: map[string]interface{}{"channel": "soc"}}},
		},
	}
	resp := r.Run(context.Background(), req)

	assert.False(t, resp.ConditionResult)
	assert.Equal(t, "low", resp.BranchTaken)
	require.Len(t, resp.BranchActions, 1)
	assert.Equal(t, "notify_analyst", resp.BranchActions[0].Action)
}

func TestRun_ExecutionLogOrder(t *testing.T) {
	r := NewRunner(fixedLookuper{
		vtHash: map[string]interface{}{"any_malicious": true, "max_score": 95, "total_lookups": 2},
		vtURL:  map[string]interface{}{"any_malicious": false, "max_score": 5, "urls_checked": 1},
	})

	resp := r.Run(context.Background(), Request{
		Enrich:    enrich.Config{VTHash: true, VTURL: true},
		Collect:   Collect{AttachmentHashes: "a,b", URLs: "https://x"},
		Condition: Condition{Expression: "${steps.vt_hash.any_malicious} == True"},
		Actions:   Actions{TrueActions: []ActionSpec{{Action: "edr_isolate_host"}}},
	})

	log := resp.ExecutionLog
	require.GreaterOrEqual(t, len(log), 6)
	assert.Equal(t, "[1] collect_normalize: Collecting and normalizing alert data", log[0])
	assert.True(t, strings.HasPrefix(log[1], "[2] vt_hash:"), log[1])
	assert.True(t, strings.HasPrefix(log[2], "[3] vt_url:"), log[2])
	assert.Contains(t, log[3], "Result: TRUE, Branch taken: HIGH")
	assert.Contains(t, log[4], "Executing 1 action(s)")
	assert.Contains(t, log[5], "edr_isolate_host")
}

func TestRun_EvaluationFailureTakesLowBranch(t *testing.T) {
	r := NewRunner(enrich.NewMockSeeded(1))

	// vt_url is never enabled and not referenced with a placeholder, so the
	// expression cannot resolve. The run still completes on the low branch.
	resp := r.Run(context.Background(), Request{
		Condition: Condition{Expression: "${steps.vt_url.max_score"},
	})

	assert.False(t, resp.ConditionResult)
	assert.Equal(t, "low", resp.BranchTaken)
	var failed bool
	for _, line := range resp.ExecutionLog {
		if strings.Contains(line, "Condition evaluation failed") {
			failed = true
		}
	}
	assert.True(t, failed)
	assert.Equal(t, "Dry-run completed successfully", resp.Message)
}

func TestRun_NoCondition(t *testing.T) {
	r := NewRunner(enrich.NewMockSeeded(1))

	resp := r.Run(context.Background(), Request{
		Enrich:  enrich.Config{AbuseIPDBGeoIP: true},
		Actions: Actions{FalseActions: []ActionSpec{{Action: "close_alert"}}},
	})

	assert.False(t, resp.ConditionResult)
	assert.Equal(t, "low", resp.BranchTaken)
	require.Len(t, resp.BranchActions, 1)
	// No src_ip supplied: the lookup falls back to the zero address.
	assert.Equal(t, "0.0.0.0", resp.Steps[enrich.StepAbuseIPDB]["ip"])
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{"a", "b"}, splitList("a,b"))
}

func TestFormatParams(t *testing.T) {
	got := formatParams(map[string]interface{}{"b": 2, "a": "x"})
	assert.Equal(t, "a: x, b: 2", got)
}
