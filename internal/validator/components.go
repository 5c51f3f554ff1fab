package validator

import (
	"fmt"

	cdx "github.com/CycloneDX/cyclonedx-go"

	"github.com/ortelius/gost-sbom/model"
	"github.com/ortelius/gost-sbom/util"
)

var knownTypes = map[cdx.ComponentType]bool{
	cdx.ComponentTypeApplication:          true,
	cdx.ComponentTypeFramework:            true,
	cdx.ComponentTypeLibrary:              true,
	cdx.ComponentTypeContainer:            true,
	cdx.ComponentTypePlatform:             true,
	cdx.ComponentTypeOS:                   true,
	cdx.ComponentTypeDevice:               true,
	cdx.ComponentTypeDeviceDriver:         true,
	cdx.ComponentTypeFirmware:             true,
	cdx.ComponentTypeFile:                 true,
	cdx.ComponentTypeMachineLearningModel: true,
	cdx.ComponentTypeData:                 true,
}

// validateComponents checks the required fields, type and purl of every component.
func validateComponents(components []cdx.Component) []model.ValidationIssue {
	var issues []model.ValidationIssue

	util.WalkComponents(components, util.ComponentsPath, func(comp *cdx.Component, path string) bool {
		if comp.Type == "" {
			issues = append(issues, model.ValidationIssue{
				Level:   model.LevelError,
				Message: "component must have a type",
				Path:    path,
			})
		}

		if comp.Name == "" {
			issues = append(issues, model.ValidationIssue{
				Level:   model.LevelError,
				Message: "component must have a name",
				Path:    path,
			})
		}

		if comp.Type != "" && !knownTypes[comp.Type] {
			issues = append(issues, model.ValidationIssue{
				Level:   model.LevelWarning,
				Message: fmt.Sprintf("unknown component type: %q", comp.Type),
				Path:    path + ".type",
			})
		}

		if comp.PackageURL != "" {
			if _, err := util.ParsePURL(comp.PackageURL); err != nil {
				issues = append(issues, model.ValidationIssue{
					Level:   model.LevelWarning,
					Message: fmt.Sprintf("component %q has an invalid purl %q: %v", util.DisplayName(comp), comp.PackageURL, err),
					Path:    path + ".purl",
				})
			}
		}

		return true
	})

	return issues
}
