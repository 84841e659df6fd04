package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/morpheus-lite/soar/internal/action"
	"github.com/morpheus-lite/soar/internal/action/edr"
	"github.com/morpheus-lite/soar/internal/action/firewall"
	"github.com/morpheus-lite/soar/internal/api"
	"github.com/morpheus-lite/soar/internal/dryrun"
	"github.com/morpheus-lite/soar/internal/engine"
	"github.com/morpheus-lite/soar/internal/enrich"
	"github.com/morpheus-lite/soar/internal/ingest"
	"github.com/morpheus-lite/soar/internal/logger"
	"github.com/morpheus-lite/soar/internal/playbook"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	rulesPath := flag.String("rules", "configs/rules.yaml", "Path to rules YAML playbook")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	workers := flag.Int("workers", 16, "Alert evaluation workers")
	queueDepth := flag.Int("queue-depth", 10000, "Alert queue capacity")
	kafkaBrokers := flag.String("kafka-brokers", "", "Comma-separated Kafka brokers (empty disables the Kafka source)")
	kafkaTopic := flag.String("kafka-topic", "alerts", "Kafka topic to consume alerts from")
	flag.Parse()

	logger.Init(*logLevel)
	log := logger.WithComponent("main")

	loader := playbook.NewLoader(*rulesPath)
	log.Info().Int("rules", len(loader.Rules())).Str("path", *rulesPath).Msg("playbook loaded")

	reg := action.NewRegistry()
	reg.Register(firewall.New(firewall.StubConnector{}))
	reg.Register(edr.New(edr.StubConnector{}))
	dispatcher := action.NewDispatcher(reg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eng := engine.New(ctx, loader, dispatcher, engine.Config{
		Workers:    *workers,
		QueueDepth: *queueDepth,
	})

	stopWatch, err := loader.Watch()
	if err != nil {
		log.Warn().Err(err).Msg("playbook watcher unavailable (hot-reload disabled)")
	} else {
		defer stopWatch()
	}

	var source *ingest.Source
	if *kafkaBrokers != "" {
		source, err = ingest.NewSource(ingest.Config{
			Brokers: strings.Split(*kafkaBrokers, ","),
			Topic:   *kafkaTopic,
		}, eng)
		if err != nil {
			log.Error().Err(err).Msg("failed to configure Kafka source")
			os.Exit(1)
		}
		go func() {
			if err := source.Run(ctx); err != nil {
				log.Error().Err(err).Msg("Kafka source stopped")
			}
		}()
		log.Info().Str("topic", *kafkaTopic).Msg("Kafka source started")
	}

	runner := dryrun.NewRunner(enrich.NewMock())
	handler := api.New(eng, loader, playbook.NewMemoryStore(), runner)
	srv := &http.Server{
		Addr:         *addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", *addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
	if source != nil {
		_ = source.Close()
	}
	cancel()
	eng.Shutdown()
	log.Info().Msg("goodbye")
}
