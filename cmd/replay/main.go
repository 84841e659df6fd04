// Command replay evaluates a file of recorded alerts against a rules
// playbook and fires the (stubbed) response actions, printing each
// alert's outcome. Useful for checking a rule change against a known
// alert corpus without standing up the server.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"

	"github.com/morpheus-lite/soar/internal/action"
	"github.com/morpheus-lite/soar/internal/action/edr"
	"github.com/morpheus-lite/soar/internal/action/firewall"
	"github.com/morpheus-lite/soar/internal/alert"
	"github.com/morpheus-lite/soar/internal/logger"
	"github.com/morpheus-lite/soar/internal/playbook"
	"github.com/morpheus-lite/soar/internal/rule"
)

func main() {
	rulesPath := flag.String("rules", "configs/rules.yaml", "Path to rules YAML playbook")
	alertsPath := flag.String("alerts", "alerts.json", "Path to alerts JSON file")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	logger.Init(*logLevel)
	log := logger.WithComponent("replay")

	loader := playbook.NewLoader(*rulesPath)
	rules := loader.Rules()

	data, err := os.ReadFile(*alertsPath)
	if err != nil {
		log.Error().Err(err).Str("path", *alertsPath).Msg("failed to read alerts file")
		os.Exit(1)
	}
	var alerts []alert.Alert
	if err := json.Unmarshal(data, &alerts); err != nil {
		log.Error().Err(err).Str("path", *alertsPath).Msg("failed to parse alerts file")
		os.Exit(1)
	}

	reg := action.NewRegistry()
	reg.Register(firewall.New(firewall.StubConnector{}))
	reg.Register(edr.New(edr.StubConnector{}))
	dispatcher := action.NewDispatcher(reg)

	ctx := context.Background()
	for _, a := range alerts {
		matched := rule.EvaluateAll(rules, a)
		if len(matched) == 0 {
			log.Info().Str("alert_id", a.ID()).Msg("alert matched no rules")
			continue
		}
		for _, r := range matched {
			log.Info().Str("alert_id", a.ID()).Str("rule", r.Name).Msg("alert matched rule")
			for _, ref := range r.Actions {
				dispatcher.Dispatch(ctx, ref.Action, a, ref.Params)
			}
		}
	}
}
