// Package validator checks CycloneDX documents against structural rules and the GOST
// security property hierarchy.
package validator

import (
	"github.com/ortelius/gost-sbom/model"
)

// Rule profiles accepted by Validate.
const (
	FormatOSS       = "oss"
	FormatContainer = "container"
)

// Validator runs the rule sets under a policy. It is safe for concurrent use.
type Validator struct {
	policy Policy
}

// New returns a Validator using policy.
func New(policy Policy) *Validator {
	return &Validator{policy: policy}
}

// ValidateSBOM validates doc with the default policy.
func ValidateSBOM(doc *model.Document, format string) model.ValidateResponse {
	return New(DefaultPolicy()).Validate(doc, format)
}

// Validate runs every rule set in a fixed order and never stops early. Issues are
// returned in execution order; the document is valid when none of them is an error.
//
// The second argument names the rule profile ("oss" or "container"); both profiles run
// the same rule sets, GOST checks included.
func (v *Validator) Validate(doc *model.Document, _ string) model.ValidateResponse {
	if doc == nil {
		doc = &model.Document{}
	}

	issues := []model.ValidationIssue{}
	issues = append(issues, v.validateStructure(doc)...)

	components := doc.ComponentList()
	if len(components) > 0 {
		issues = append(issues, validateComponents(components)...)
	}

	issues = append(issues, validateGostHierarchy(components)...)
	issues = append(issues, v.validateGostFields(components)...)
	issues = append(issues, v.validateVCSReferences(components)...)

	var schemaVersion *string
	if doc.SpecVersion != "" {
		version := doc.SpecVersion
		schemaVersion = &version
	}

	return model.ValidateResponse{
		Valid:         !model.HasErrors(issues),
		Issues:        issues,
		SchemaVersion: schemaVersion,
	}
}
