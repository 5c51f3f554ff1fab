package sbom

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ortelius/gost-sbom/model"
)

type fakeIngester struct {
	projectID string
	name      string
	document  []byte
	err       error
}

func (f *fakeIngester) Ingest(_ context.Context, projectID, name string, document []byte) (model.SbomMetadata, model.ValidateResponse, error) {
	f.projectID, f.name, f.document = projectID, name, document
	if f.err != nil {
		return model.SbomMetadata{}, model.ValidateResponse{}, f.err
	}
	return model.SbomMetadata{ID: "sbom-1"}, model.ValidateResponse{Valid: true}, nil
}

type fakeWriter struct {
	messages []kafka.Message
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestHandleSBOMSubmitted(t *testing.T) {
	ingester := &fakeIngester{}
	msg := []byte(`{"event_type": "sbom.submitted", "project_id": "p1", "sbom_name": "svc",
		"document": {"bomFormat": "CycloneDX"}}`)

	require.NoError(t, HandleSBOMSubmitted(context.Background(), msg, ingester, zap.NewNop()))
	assert.Equal(t, "p1", ingester.projectID)
	assert.Equal(t, "svc", ingester.name)
	assert.JSONEq(t, `{"bomFormat": "CycloneDX"}`, string(ingester.document))
}

func TestHandleSBOMSubmitted_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		msg     string
		invalid bool
	}{
		{"not json", `not json`, false},
		{"missing project", `{"document": {}}`, true},
		{"missing document", `{"project_id": "p1"}`, true},
		{"null document", `{"project_id": "p1", "document": null}`, true},
		{"other event", `{"event_type": "release.sbom.created", "project_id": "p1", "document": {}}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ingester := &fakeIngester{}
			err := HandleSBOMSubmitted(context.Background(), []byte(tt.msg), ingester, zap.NewNop())
			require.Error(t, err)
			assert.Equal(t, tt.invalid, errors.Is(err, ErrInvalidEvent))
			assert.Empty(t, ingester.projectID)
		})
	}
}

func TestHandleSBOMSubmitted_ServiceError(t *testing.T) {
	ingester := &fakeIngester{err: errors.New("disk full")}
	msg := []byte(`{"project_id": "p1", "document": {}}`)

	err := HandleSBOMSubmitted(context.Background(), msg, ingester, zap.NewNop())
	assert.ErrorContains(t, err, "disk full")
}

func TestPublishSBOMSubmitted(t *testing.T) {
	writer := &fakeWriter{}
	producer := &SBOMProducer{Writer: writer}

	require.NoError(t, producer.PublishSBOMSubmitted(context.Background(), "p1", "svc", []byte(`{"bomFormat":"CycloneDX"}`)))
	require.Len(t, writer.messages, 1)
	assert.Equal(t, "p1", string(writer.messages[0].Key))

	var event SBOMSubmittedEvent
	require.NoError(t, json.Unmarshal(writer.messages[0].Value, &event))
	assert.Equal(t, EventTypeSubmitted, event.EventType)
	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, "v1", event.SchemaVersion)
	assert.Equal(t, "svc", event.SBOMName)
	assert.JSONEq(t, `{"bomFormat":"CycloneDX"}`, string(event.Document))

	// the published event round-trips through the handler
	ingester := &fakeIngester{}
	require.NoError(t, HandleSBOMSubmitted(context.Background(), writer.messages[0].Value, ingester, zap.NewNop()))
	assert.Equal(t, "p1", ingester.projectID)

	assert.Error(t, producer.PublishSBOMSubmitted(context.Background(), "p1", "", []byte(`{broken`)))

	require.NoError(t, producer.Close())
	assert.True(t, writer.closed)
}
