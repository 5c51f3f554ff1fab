// Package model - Project and stored SBOM metadata exchanged with the persistence layer.
package model

// ProjectMetadata represents a project in list views.
type ProjectMetadata struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// SbomMetadata describes a stored SBOM without its content.
type SbomMetadata struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Version    string `json:"version"`
	UploadedAt string `json:"uploaded_at"`
}

// ProjectDetail is a project together with the SBOMs it holds.
type ProjectDetail struct {
	ProjectMetadata
	Sboms []SbomMetadata `json:"sboms"`
}

// CreateProjectRequest is the body for creating a project.
type CreateProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// SaveSbomRequest is the body for replacing a stored SBOM.
type SaveSbomRequest struct {
	Document map[string]interface{} `json:"document"`
}

// ListProjectsResponse is returned by the project list endpoint.
type ListProjectsResponse struct {
	Projects []ProjectMetadata `json:"projects"`
}

// SbomMetadataFromContent derives list metadata from a stored document.
// An explicit name wins over metadata.component.name; the id is the last fallback.
func SbomMetadataFromContent(id, name string, content map[string]interface{}) SbomMetadata {
	meta := SbomMetadata{ID: id, Name: name}

	metadata, _ := content["metadata"].(map[string]interface{})
	component, _ := metadata["component"].(map[string]interface{})

	if meta.Name == "" {
		meta.Name, _ = component["name"].(string)
	}
	if meta.Name == "" {
		meta.Name = id
	}
	meta.Version, _ = component["version"].(string)
	meta.UploadedAt, _ = metadata["timestamp"].(string)

	return meta
}
