// Package services holds the SBOM operations shared by the REST, GraphQL and Kafka paths.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ortelius/gost-sbom/database"
	"github.com/ortelius/gost-sbom/internal/validator"
	"github.com/ortelius/gost-sbom/internal/vcsprobe"
	"github.com/ortelius/gost-sbom/model"
)

// ErrInvalidDocument is returned when submitted bytes are not a JSON object.
var ErrInvalidDocument = errors.New("invalid document")

// SBOMService validates documents and stores them.
type SBOMService struct {
	Store     database.Store
	Validator *validator.Validator
	Prober    *vcsprobe.Prober
	Logger    *zap.Logger
}

// NewSBOMService wires a service; a nil prober disables reachability checks.
func NewSBOMService(store database.Store, v *validator.Validator, prober *vcsprobe.Prober, logger *zap.Logger) *SBOMService {
	if v == nil {
		v = validator.New(validator.DefaultPolicy())
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SBOMService{Store: store, Validator: v, Prober: prober, Logger: logger}
}

// Validate runs the rule sets and, when checkVCS is set, appends reachability results.
func (s *SBOMService) Validate(ctx context.Context, doc *model.Document, format string, checkVCS bool) model.ValidateResponse {
	result := s.Validator.Validate(doc, format)
	if checkVCS && s.Prober != nil {
		result.Merge(s.Prober.Check(ctx, doc))
	}
	return result
}

// Ingest validates a raw document and stores it whatever the outcome. Only undecodable
// input or a store failure is an error.
func (s *SBOMService) Ingest(ctx context.Context, projectID, name string, document []byte) (model.SbomMetadata, model.ValidateResponse, error) {
	doc, content, err := decode(document)
	if err != nil {
		return model.SbomMetadata{}, model.ValidateResponse{}, err
	}

	result := s.Validate(ctx, doc, validator.FormatOSS, false)

	meta, err := s.Store.SaveSBOM(ctx, projectID, content, name)
	if err != nil {
		return model.SbomMetadata{}, result, fmt.Errorf("save sbom: %w", err)
	}

	s.Logger.Info("Ingested SBOM",
		zap.String("project_id", projectID),
		zap.String("sbom_id", meta.ID),
		zap.Bool("valid", result.Valid),
		zap.Int("issues", len(result.Issues)))
	return meta, result, nil
}

// ValidateStored validates a document already held by the store.
func (s *SBOMService) ValidateStored(ctx context.Context, projectID, sbomID string) (model.ValidateResponse, error) {
	content, err := s.Store.GetSBOM(ctx, projectID, sbomID)
	if err != nil {
		return model.ValidateResponse{}, err
	}

	raw, err := json.Marshal(content)
	if err != nil {
		return model.ValidateResponse{}, fmt.Errorf("marshal sbom %s: %w", sbomID, err)
	}
	doc, err := model.ParseDocument(raw)
	if err != nil {
		return model.ValidateResponse{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return s.Validator.Validate(doc, validator.FormatOSS), nil
}

// decode returns both the typed view used by the validator and the generic object
// that is persisted.
func decode(document []byte) (*model.Document, map[string]interface{}, error) {
	var content map[string]interface{}
	if err := json.Unmarshal(document, &content); err != nil || content == nil {
		return nil, nil, fmt.Errorf("%w: not a JSON object", ErrInvalidDocument)
	}

	doc, err := model.ParseDocument(document)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return doc, content, nil
}
