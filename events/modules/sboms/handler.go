package sbom

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ortelius/gost-sbom/model"
)

// SBOMIngester validates and stores a submitted document.
type SBOMIngester interface {
	Ingest(ctx context.Context, projectID, name string, document []byte) (model.SbomMetadata, model.ValidateResponse, error)
}

// ErrInvalidEvent is returned for events missing required fields.
var ErrInvalidEvent = errors.New("invalid event")

// HandleSBOMSubmitted processes an sbom.submitted event from Kafka.
func HandleSBOMSubmitted(ctx context.Context, msg []byte, ingester SBOMIngester, logger *zap.Logger) error {
	var event SBOMSubmittedEvent
	if err := json.Unmarshal(msg, &event); err != nil {
		return fmt.Errorf("failed to unmarshal SBOMSubmittedEvent: %w", err)
	}

	if event.EventType != "" && event.EventType != EventTypeSubmitted {
		return fmt.Errorf("%w: unexpected event type %q", ErrInvalidEvent, event.EventType)
	}
	document := bytes.TrimSpace(event.Document)
	if event.ProjectID == "" || len(document) == 0 || bytes.Equal(document, []byte("null")) {
		return fmt.Errorf("%w: missing project_id or document", ErrInvalidEvent)
	}

	logger.Info("Processing submitted SBOM", zap.String("event_id", event.EventID), zap.String("project_id", event.ProjectID))

	meta, result, err := ingester.Ingest(ctx, event.ProjectID, event.SBOMName, document)
	if err != nil {
		return fmt.Errorf("internal service error: %w", err)
	}

	logger.Info("Stored submitted SBOM",
		zap.String("project_id", event.ProjectID),
		zap.String("sbom_id", meta.ID),
		zap.Bool("valid", result.Valid),
		zap.Int("issues", len(result.Issues)))
	return nil
}
