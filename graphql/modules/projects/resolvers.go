// Package projects implements the resolvers for project data.
package projects

import (
	"context"
	"errors"

	"github.com/ortelius/gost-sbom/database"
	"github.com/ortelius/gost-sbom/model"
)

// ValidateFunc validates a stored SBOM.
type ValidateFunc func(ctx context.Context, projectID, sbomID string) (model.ValidateResponse, error)

func projectMap(meta model.ProjectMetadata) map[string]interface{} {
	return map[string]interface{}{
		"id":          meta.ID,
		"name":        meta.Name,
		"description": meta.Description,
		"created_at":  meta.CreatedAt,
		"updated_at":  meta.UpdatedAt,
	}
}

func sbomMap(projectID string, meta model.SbomMetadata) map[string]interface{} {
	return map[string]interface{}{
		"project_id":  projectID,
		"id":          meta.ID,
		"name":        meta.Name,
		"version":     meta.Version,
		"uploaded_at": meta.UploadedAt,
	}
}

// ResolveProjects lists every project together with its SBOMs.
func ResolveProjects(ctx context.Context, store database.Store) ([]map[string]interface{}, error) {
	list, err := store.ListProjects(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]map[string]interface{}, 0, len(list))
	for _, meta := range list {
		project, err := ResolveProject(ctx, store, meta.ID)
		if err != nil {
			return nil, err
		}
		if project != nil {
			results = append(results, project)
		}
	}
	return results, nil
}

// ResolveProject returns one project, or nil when it does not exist.
func ResolveProject(ctx context.Context, store database.Store, id string) (map[string]interface{}, error) {
	detail, err := store.GetProject(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	sboms := make([]map[string]interface{}, 0, len(detail.Sboms))
	for _, sbom := range detail.Sboms {
		sboms = append(sboms, sbomMap(detail.ID, sbom))
	}

	result := projectMap(detail.ProjectMetadata)
	result["sboms"] = sboms
	return result, nil
}

// ResolveValidation validates a stored SBOM.
func ResolveValidation(ctx context.Context, validate ValidateFunc, projectID, sbomID string) (map[string]interface{}, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	resp, err := validate(ctx, projectID, sbomID)
	if err != nil {
		return nil, err
	}

	issues := make([]map[string]interface{}, 0, len(resp.Issues))
	for _, issue := range resp.Issues {
		issues = append(issues, map[string]interface{}{
			"level":   string(issue.Level),
			"message": issue.Message,
			"path":    issue.Path,
		})
	}

	result := map[string]interface{}{
		"valid":          resp.Valid,
		"schema_version": nil,
		"issues":         issues,
	}
	if resp.SchemaVersion != nil {
		result["schema_version"] = *resp.SchemaVersion
	}
	return result, nil
}
