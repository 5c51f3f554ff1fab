// Package database - Persistence of projects and the SBOM documents they hold.
package database

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ortelius/gost-sbom/model"
)

var (
	// ErrNotFound is returned when a project or SBOM does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidID is returned for ids that are not canonical UUIDs.
	ErrInvalidID = errors.New("invalid id")
)

// Store keeps projects and their SBOM documents. Documents are generic JSON objects.
type Store interface {
	ListProjects(ctx context.Context) ([]model.ProjectMetadata, error)
	CreateProject(ctx context.Context, name, description string) (model.ProjectMetadata, error)
	GetProject(ctx context.Context, id string) (model.ProjectDetail, error)
	DeleteProject(ctx context.Context, id string) error

	ListSBOMs(ctx context.Context, projectID string) ([]model.SbomMetadata, error)
	SaveSBOM(ctx context.Context, projectID string, document map[string]interface{}, name string) (model.SbomMetadata, error)
	GetSBOM(ctx context.Context, projectID, sbomID string) (map[string]interface{}, error)
	UpdateSBOM(ctx context.Context, projectID, sbomID string, document map[string]interface{}) (model.SbomMetadata, error)
	DeleteSBOM(ctx context.Context, projectID, sbomID string) error
}

// CheckID rejects anything but the canonical 36 character UUID form, so ids are safe
// to use as file names and document keys.
func CheckID(ids ...string) error {
	for _, id := range ids {
		if len(id) != 36 {
			return ErrInvalidID
		}
		if _, err := uuid.Parse(id); err != nil {
			return ErrInvalidID
		}
	}
	return nil
}

func newID() string {
	return uuid.New().String()
}

func timestamp(now time.Time) string {
	return now.UTC().Format(time.RFC3339)
}

// stampDocument sets metadata.timestamp, creating the metadata object if needed.
// Unless overwrite is set an existing timestamp is kept.
func stampDocument(document map[string]interface{}, now time.Time, overwrite bool) {
	raw, present := document["metadata"]
	metadata, ok := raw.(map[string]interface{})
	if !ok {
		if present && raw != nil {
			return
		}
		metadata = map[string]interface{}{}
		document["metadata"] = metadata
	}
	if _, has := metadata["timestamp"]; has && !overwrite {
		return
	}
	metadata["timestamp"] = timestamp(now)
}

var (
	_ Store = (*FileStore)(nil)
	_ Store = (*ArangoStore)(nil)
)
