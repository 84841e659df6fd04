// Package dryrun simulates a playbook run: it synthesizes enrichment
// results instead of calling real services, evaluates the branch
// expression, and reports which actions would fire.
package dryrun

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/morpheus-lite/soar/internal/enrich"
	"github.com/morpheus-lite/soar/internal/expr"
	"github.com/morpheus-lite/soar/internal/logger"
	"github.com/morpheus-lite/soar/internal/metrics"
)

// Collect holds the raw field values the tester supplies.
type Collect struct {
	AttachmentHashes string `json:"attachment_hashes"`
	URLs             string `json:"urls"`
	SrcIP            string `json:"src_ip"`
}

// Condition wraps the branch expression under test.
type Condition struct {
	Expression string `json:"expression"`
}

// ActionSpec names an action on one of the two branches.
type ActionSpec struct {
	Action string                 `json:"action"`
	Input  map[string]interface{} `json:"input,omitempty"`
}

// Actions holds the per-branch action lists.
type Actions struct {
	TrueActions  []ActionSpec `json:"trueActions"`
	FalseActions []ActionSpec `json:"falseActions"`
}

// Request is a complete dry-run configuration.
type Request struct {
	Enrich    enrich.Config `json:"enrich"`
	Collect   Collect       `json:"collect"`
	Condition Condition     `json:"condition"`
	Actions   Actions       `json:"actions"`
}

// Response reports everything the simulation produced.
type Response struct {
	Steps           enrich.StepResults `json:"steps"`
	ConditionResult bool               `json:"conditionResult"`
	BranchTaken     string             `json:"branchTaken"`
	BranchActions   []ActionSpec       `json:"branchActions"`
	ExecutionLog    []string           `json:"executionLog"`
	Message         string             `json:"message"`
}

// Runner executes dry-runs against a Lookuper (normally the mock).
type Runner struct {
	lookup enrich.Lookuper
	log    zerolog.Logger
}

// NewRunner wraps a lookuper.
func NewRunner(lookup enrich.Lookuper) *Runner {
	return &Runner{lookup: lookup, log: logger.WithComponent("dryrun")}
}

// Run performs the simulation. Enrichment steps referenced by the
// expression are auto-enabled so testers need not toggle every stub by
// hand. The execution log is ordered and human readable.
func (r *Runner) Run(ctx context.Context, req Request) Response {
	resp := Response{Steps: make(enrich.StepResults)}
	resp.ExecutionLog = append(resp.ExecutionLog, "[1] collect_normalize: Collecting and normalizing alert data")

	expression := req.Condition.Expression
	if expression != "" {
		for _, step := range expr.Placeholders(expression) {
			req.Enrich.Enable(step)
		}
	}

	stepNum := 2
	if req.Enrich.VTHash {
		hashes := splitList(req.Collect.AttachmentHashes)
		if res, err := r.lookup.VTHash(ctx, hashes); err == nil {
			resp.Steps[enrich.StepVTHash] = res
			resp.ExecutionLog = append(resp.ExecutionLog, fmt.Sprintf(
				"[%d] vt_hash: VirusTotal hash lookup - any_malicious: %v, max_score: %v, total_lookups: %v",
				stepNum, res["any_malicious"], res["max_score"], res["total_lookups"]))
			stepNum++
		} else {
			resp.ExecutionLog = append(resp.ExecutionLog, fmt.Sprintf("[%d] vt_hash: VirusTotal hash lookup failed - %v", stepNum, err))
			stepNum++
		}
	}
	if req.Enrich.VTURL {
		urls := splitList(req.Collect.URLs)
		if res, err := r.lookup.VTURL(ctx, urls); err == nil {
			resp.Steps[enrich.StepVTURL] = res
			resp.ExecutionLog = append(resp.ExecutionLog, fmt.Sprintf(
				"[%d] vt_url: VirusTotal URL reputation - any_malicious: %v, max_score: %v, urls_checked: %v",
				stepNum, res["any_malicious"], res["max_score"], res["urls_checked"]))
			stepNum++
		} else {
			resp.ExecutionLog = append(resp.ExecutionLog, fmt.Sprintf("[%d] vt_url: VirusTotal URL reputation failed - %v", stepNum, err))
			stepNum++
		}
	}
	if req.Enrich.AbuseIPDBGeoIP {
		ip := req.Collect.SrcIP
		if ip == "" {
			ip = "0.0.0.0"
		}
		if res, err := r.lookup.AbuseIPDB(ctx, ip); err == nil {
			resp.Steps[enrich.StepAbuseIPDB] = res
			resp.ExecutionLog = append(resp.ExecutionLog, fmt.Sprintf(
				"[%d] abuseipdb: AbuseIPDB GeoIP lookup - score: %v, country: %v, asn: %v, ip: %v",
				stepNum, res["score"], res["country"], res["asn"], res["ip"]))
			stepNum++
		} else {
			resp.ExecutionLog = append(resp.ExecutionLog, fmt.Sprintf("[%d] abuseipdb: AbuseIPDB GeoIP lookup failed - %v", stepNum, err))
			stepNum++
		}
	}

	resp.BranchTaken = "low"
	if expression != "" {
		result, err := expr.Evaluate(expression, resp.Steps, req.Enrich)
		if err != nil {
			resp.ExecutionLog = append(resp.ExecutionLog, fmt.Sprintf("[%d] evaluate: Condition evaluation failed - %v", stepNum, err))
			stepNum++
		} else {
			resp.ConditionResult = result
			if result {
				resp.BranchTaken = "high"
			}
			resp.ExecutionLog = append(resp.ExecutionLog, fmt.Sprintf(
				"[%d] evaluate: Condition evaluation - Result: %s, Branch taken: %s",
				stepNum, strings.ToUpper(fmt.Sprintf("%t", result)), strings.ToUpper(resp.BranchTaken)))
			stepNum++
		}
	}

	resp.BranchActions = req.Actions.FalseActions
	if resp.ConditionResult {
		resp.BranchActions = req.Actions.TrueActions
	}
	if len(resp.BranchActions) > 0 {
		resp.ExecutionLog = append(resp.ExecutionLog, fmt.Sprintf(
			"[%d] %s: Executing %d action(s)", stepNum, resp.BranchTaken, len(resp.BranchActions)))
		for _, a := range resp.BranchActions {
			resp.ExecutionLog = append(resp.ExecutionLog, fmt.Sprintf("  - %s (%s)", a.Action, formatParams(a.Input)))
		}
	}

	metrics.DryRuns.WithLabelValues(resp.BranchTaken).Inc()
	r.log.Debug().Str("branch", resp.BranchTaken).Bool("result", resp.ConditionResult).Msg("dry-run completed")

	resp.Message = "Dry-run completed successfully"
	return resp
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

// formatParams renders action inputs with stable key order.
func formatParams(params map[string]interface{}) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %v", k, params[k]))
	}
	return strings.Join(parts, ", ")
}
