// Package model - API types for validation and unification requests/responses
package model

import "encoding/json"

// Level is the severity of a validation issue.
type Level string

// Issue levels
const (
	LevelError   Level = "error"
	LevelWarning Level = "warning"
	LevelInfo    Level = "info"
)

// ValidationIssue is a single finding produced while checking a document.
type ValidationIssue struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
	Path    string `json:"path"`
}

// ValidateResponse is the result of validating a document.
type ValidateResponse struct {
	Valid         bool              `json:"valid"`
	Issues        []ValidationIssue `json:"issues"`
	SchemaVersion *string           `json:"schema_version"`
}

// HasErrors reports whether any issue is error level.
func HasErrors(issues []ValidationIssue) bool {
	for _, issue := range issues {
		if issue.Level == LevelError {
			return true
		}
	}
	return false
}

// Merge appends additional issues (e.g. reachability results) to the response.
// Info and warning issues never flip Valid; an error issue does.
func (r *ValidateResponse) Merge(issues []ValidationIssue) {
	r.Issues = append(r.Issues, issues...)
	r.Valid = !HasErrors(r.Issues)
}

// UnifyResponse is the result of merging several SBOMs into one.
type UnifyResponse struct {
	BOM             *Document `json:"bom"`
	ComponentsCount int       `json:"components_count"`
	SourcesCount    int       `json:"sources_count"`
}

// ValidateJSONRequest is the body of the JSON validation endpoint.
type ValidateJSONRequest struct {
	Document json.RawMessage `json:"document"`
	Format   string          `json:"format"`
	CheckVCS bool            `json:"check_vcs"`
}
