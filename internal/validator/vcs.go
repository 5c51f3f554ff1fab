package validator

import (
	"fmt"

	cdx "github.com/CycloneDX/cyclonedx-go"

	"github.com/ortelius/gost-sbom/model"
	"github.com/ortelius/gost-sbom/util"
)

// HasVCSReference reports whether comp declares an external reference of type vcs.
func HasVCSReference(comp *cdx.Component) bool {
	if comp.ExternalReferences == nil {
		return false
	}
	for _, ref := range *comp.ExternalReferences {
		if ref.Type == cdx.ERTypeVCS {
			return true
		}
	}
	return false
}

// validateVCSReferences flags components without a vcs external reference.
// Severity comes from the policy table; skipped types are not descended into.
func (v *Validator) validateVCSReferences(components []cdx.Component) []model.ValidationIssue {
	var issues []model.ValidationIssue

	util.WalkComponents(components, util.ComponentsPath, func(comp *cdx.Component, path string) bool {
		if v.policy.skipsVCS(string(comp.Type)) {
			return false
		}

		if !HasVCSReference(comp) {
			issues = append(issues, model.ValidationIssue{
				Level: v.policy.vcsSeverity(string(comp.Type)),
				Message: fmt.Sprintf("Component '%s': missing VCS (version control system) reference. "+
					"Add externalReferences with type='vcs'.", util.DisplayName(comp)),
				Path: path,
			})
		}
		return true
	})

	return issues
}
