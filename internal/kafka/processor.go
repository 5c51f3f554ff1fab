// Package kafka consumes asynchronous SBOM submissions.
package kafka

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"
	"go.uber.org/zap"

	sbom "github.com/ortelius/gost-sbom/events/modules/sboms"
	"github.com/ortelius/gost-sbom/internal/config"
)

const dialAttempts = 3

// NewDialer returns a dialer using SASL/PLAIN over TLS when credentials are set.
func NewDialer(cfg *config.Config) *kafka.Dialer {
	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}
	if cfg.KafkaAPIKey != "" && cfg.KafkaAPISecret != "" {
		dialer.SASLMechanism = plain.Mechanism{
			Username: cfg.KafkaAPIKey,
			Password: cfg.KafkaAPISecret,
		}
		dialer.TLS = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return dialer
}

// RunEventProcessor checks that a broker is reachable, then consumes sbom.submitted
// events in the background until ctx is cancelled.
func RunEventProcessor(ctx context.Context, cfg *config.Config, ingester sbom.SBOMIngester, logger *zap.Logger) error {
	if !cfg.KafkaEnabled() {
		return errors.New("no kafka brokers configured")
	}

	dialer := NewDialer(cfg)

	var err error
	for i := 1; i <= dialAttempts; i++ {
		logger.Info("Kafka connection attempt", zap.Int("attempt", i), zap.Int("of", dialAttempts))
		var conn *kafka.Conn
		conn, err = dialer.DialContext(ctx, "tcp", cfg.KafkaBrokers[0])
		if err == nil {
			conn.Close()
			break
		}
		if i < dialAttempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(2 * time.Second):
			}
		}
	}
	if err != nil {
		return fmt.Errorf("connect to kafka: %w", err)
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.KafkaBrokers,
		GroupID:  cfg.KafkaGroupID,
		Topic:    cfg.KafkaTopic,
		MaxBytes: 10e6,
		Dialer:   dialer,
	})

	go func() {
		defer reader.Close()
		logger.Info("Kafka event processor started", zap.String("topic", cfg.KafkaTopic))
		consume(ctx, reader, ingester, logger)
	}()

	return nil
}

// MessageReader is the part of *kafka.Reader the consumer loop needs.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

func consume(ctx context.Context, reader MessageReader, ingester sbom.SBOMIngester, logger *zap.Logger) {
	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return
			}
			logger.Warn("Kafka read failed", zap.Error(err))
			continue
		}
		if err := sbom.HandleSBOMSubmitted(ctx, msg.Value, ingester, logger); err != nil {
			logger.Error("Dropping SBOM event", zap.Int64("offset", msg.Offset), zap.Error(err))
		}
	}
}
