package validator

import (
	"fmt"

	cdx "github.com/CycloneDX/cyclonedx-go"

	"github.com/ortelius/gost-sbom/model"
)

// validateStructure checks document level fields.
func (v *Validator) validateStructure(doc *model.Document) []model.ValidationIssue {
	var issues []model.ValidationIssue

	if doc.BOMFormat != cdx.BOMFormat {
		issues = append(issues, model.ValidationIssue{
			Level:   model.LevelError,
			Message: fmt.Sprintf("bomFormat must be %q, got: %q", cdx.BOMFormat, doc.BOMFormat),
			Path:    "$.bomFormat",
		})
	}

	switch {
	case doc.SpecVersion == "":
		issues = append(issues, model.ValidationIssue{
			Level:   model.LevelError,
			Message: "specVersion is required",
			Path:    "$.specVersion",
		})
	case !v.policy.supportsSpec(doc.SpecVersion):
		issues = append(issues, model.ValidationIssue{
			Level:   model.LevelWarning,
			Message: fmt.Sprintf("specVersion %s may not be fully supported", doc.SpecVersion),
			Path:    "$.specVersion",
		})
	}

	if doc.Components == nil && doc.Vulnerabilities == nil {
		issues = append(issues, model.ValidationIssue{
			Level:   model.LevelWarning,
			Message: "document contains neither components nor vulnerabilities",
			Path:    "$",
		})
	}

	if doc.Metadata.IsEmpty() {
		issues = append(issues, model.ValidationIssue{
			Level:   model.LevelWarning,
			Message: "metadata section is missing",
			Path:    "$.metadata",
		})
	} else if doc.Metadata.Timestamp == "" {
		issues = append(issues, model.ValidationIssue{
			Level:   model.LevelWarning,
			Message: "metadata.timestamp is missing",
			Path:    "$.metadata.timestamp",
		})
	}

	return issues
}
