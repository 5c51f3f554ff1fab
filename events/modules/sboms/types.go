// Package sbom defines the Kafka event contract for asynchronous SBOM submission.
package sbom

import (
	"encoding/json"
	"time"
)

// EventTypeSubmitted is the event_type of SBOMSubmittedEvent.
const EventTypeSubmitted = "sbom.submitted"

// SBOMSubmittedEvent asks the service to validate and store a document in a project.
type SBOMSubmittedEvent struct {
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EventTime     time.Time `json:"event_time"`
	SchemaVersion string    `json:"schema_version"`

	ProjectID string `json:"project_id"`
	// SBOMName overrides the name taken from metadata.component.
	SBOMName string          `json:"sbom_name,omitempty"`
	Document json.RawMessage `json:"document"`
}
