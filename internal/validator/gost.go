package validator

import (
	"fmt"

	cdx "github.com/CycloneDX/cyclonedx-go"

	"github.com/ortelius/gost-sbom/model"
	"github.com/ortelius/gost-sbom/util"
)

var hierarchyProps = []string{model.GostAttackSurface, model.GostSecurityFunction}

// validateGostHierarchy reports children whose GOST value outranks their parent's.
// A parent without a recognized value never fails the check.
func validateGostHierarchy(components []cdx.Component) []model.ValidationIssue {
	var issues []model.ValidationIssue

	util.WalkComponents(components, util.ComponentsPath, func(comp *cdx.Component, path string) bool {
		children := util.Children(comp)
		if len(children) == 0 {
			return true
		}

		for _, prop := range hierarchyProps {
			parentVal, parentRank := util.GostRankOf(comp, prop)
			if parentRank < 0 {
				continue
			}

			for j := range children {
				childVal, childRank := util.GostRankOf(&children[j], prop)
				if childRank <= parentRank {
					continue
				}
				issues = append(issues, model.ValidationIssue{
					Level: model.LevelError,
					Message: fmt.Sprintf("GOST:%s of child component %q (%s) exceeds parent %q (%s)",
						prop, util.DisplayName(&children[j]), childVal, util.DisplayName(comp), parentVal),
					Path: util.IndexPath(path+".components", j),
				})
			}
		}

		return true
	})

	return issues
}

// hasAnyGost reports whether any component declares attack_surface or security_function.
func hasAnyGost(components []cdx.Component) bool {
	for _, comp := range util.FlattenComponents(components) {
		for _, prop := range hierarchyProps {
			if _, ok := util.GetGostProperty(comp, prop); ok {
				return true
			}
		}
	}
	return false
}

// validateGostFields warns about components missing GOST fields, but only once
// the document has opted into GOST by declaring at least one of them somewhere.
func (v *Validator) validateGostFields(components []cdx.Component) []model.ValidationIssue {
	var issues []model.ValidationIssue

	if !hasAnyGost(components) {
		return issues
	}

	util.WalkComponents(components, util.ComponentsPath, func(comp *cdx.Component, path string) bool {
		for _, prop := range hierarchyProps {
			value, ok := util.GetGostProperty(comp, prop)
			switch {
			case !ok || (value == "" && !v.policy.Gost.DistinguishEmpty):
				issues = append(issues, model.ValidationIssue{
					Level:   model.LevelWarning,
					Message: fmt.Sprintf("missing GOST:%s on component %q", prop, util.DisplayName(comp)),
					Path:    path,
				})
			case value == "":
				issues = append(issues, model.ValidationIssue{
					Level:   model.LevelWarning,
					Message: fmt.Sprintf("GOST:%s declared but empty on component %q", prop, util.DisplayName(comp)),
					Path:    path,
				})
			}
		}
		return true
	})

	return issues
}
