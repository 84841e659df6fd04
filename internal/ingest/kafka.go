// Package ingest pulls alerts from a Kafka topic into the engine. It is an
// optional source; the HTTP API remains the primary ingestion path.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/morpheus-lite/soar/internal/alert"
	"github.com/morpheus-lite/soar/internal/engine"
	"github.com/morpheus-lite/soar/internal/logger"
)

// Config holds the Kafka consumer settings.
type Config struct {
	Brokers []string
	Topic   string
	GroupID string
}

// Source is a Kafka consumer feeding alert documents into the engine.
// Malformed messages are counted and skipped, never retried.
type Source struct {
	reader *kafka.Reader
	eng    *engine.Engine
	log    zerolog.Logger

	malformed atomic.Uint64
	dropped   atomic.Uint64
}

// NewSource creates a Source. The reader joins a consumer group so several
// instances can share a topic.
func NewSource(cfg Config, eng *engine.Engine) (*Source, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("at least one broker is required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("topic is required")
	}
	if cfg.GroupID == "" {
		cfg.GroupID = "soar-engine"
	}
	return &Source{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers: cfg.Brokers,
			GroupID: cfg.GroupID,
			Topic:   cfg.Topic,
			MaxWait: 500 * time.Millisecond,
		}),
		eng: eng,
		log: logger.WithComponent("ingest"),
	}, nil
}

// Run consumes until the context is cancelled or the reader fails.
func (s *Source) Run(ctx context.Context) error {
	for {
		msg, err := s.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read alert message: %w", err)
		}

		var a alert.Alert
		if err := json.Unmarshal(msg.Value, &a); err != nil {
			s.malformed.Add(1)
			s.log.Warn().Err(err).Int64("offset", msg.Offset).Msg("skipping malformed alert")
			continue
		}
		if a.ID() == "" {
			a["id"] = uuid.New().String()
		}
		if !s.eng.ProcessAsync(a) {
			s.dropped.Add(1)
			s.log.Warn().Str("alert_id", a.ID()).Msg("alert dropped, queue full")
		}
	}
}

// Close releases the underlying reader.
func (s *Source) Close() error {
	return s.reader.Close()
}

// Malformed returns how many messages failed to decode.
func (s *Source) Malformed() uint64 { return s.malformed.Load() }

// Dropped returns how many alerts were rejected by a full queue.
func (s *Source) Dropped() uint64 { return s.dropped.Load() }
