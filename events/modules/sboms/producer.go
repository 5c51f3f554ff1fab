package sbom

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// MessageWriter is the part of *kafka.Writer the producer needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// SBOMProducer sends submission events to Kafka.
type SBOMProducer struct {
	Writer MessageWriter
}

// NewSBOMProducer initializes a new Kafka writer for submission events.
func NewSBOMProducer(brokers []string, topic string) *SBOMProducer {
	return &SBOMProducer{
		Writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

// PublishSBOMSubmitted sends the event keyed by project id, so one project's
// submissions stay ordered.
func (p *SBOMProducer) PublishSBOMSubmitted(ctx context.Context, projectID, name string, document []byte) error {
	event := SBOMSubmittedEvent{
		EventType:     EventTypeSubmitted,
		EventID:       uuid.New().String(),
		EventTime:     time.Now().UTC(),
		SchemaVersion: "v1",
		ProjectID:     projectID,
		SBOMName:      name,
		Document:      document,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.Writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(projectID),
		Value: payload,
	})
}

// Close cleans up the Kafka writer
func (p *SBOMProducer) Close() error {
	return p.Writer.Close()
}
