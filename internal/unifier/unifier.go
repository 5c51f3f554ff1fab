// Package unifier merges several CycloneDX documents into one application BOM.
package unifier

import (
	"fmt"
	"time"

	cdx "github.com/CycloneDX/cyclonedx-go"
	"github.com/google/uuid"

	"github.com/ortelius/gost-sbom/model"
	"github.com/ortelius/gost-sbom/util"
)

// UnifiedSpecVersion is the CycloneDX specVersion of every unified document.
const UnifiedSpecVersion = "1.6"

var (
	aggregatedProps  = []string{model.GostAttackSurface, model.GostSecurityFunction}
	passthroughProps = []string{model.GostProvidedBy, model.GostSourceLangs}
)

// wrapperJSON marshals a wrapper with its children exactly as the source document
// carried them.
type wrapperJSON struct {
	cdx.Component
	Components []interface{} `json:"components"`
}

// BomRef is the reference given to a component that carries none.
func BomRef(name, version string) string {
	return fmt.Sprintf("unified-%s-%s", name, version)
}

// UnifySBOMs wraps each document's components in an application component and merges
// the wrappers and dependency graphs into a single document.
//
// Wrappers alias the input component slices; callers must not mutate the inputs while
// they still use the result. Callers are expected to pass at least two documents.
func UnifySBOMs(documents []*model.Document, appName, appVersion, manufacturer string) model.UnifyResponse {
	wrappers := make([]cdx.Component, 0, len(documents))
	wrappersJSON := make([]interface{}, 0, len(documents))
	var dependencies []cdx.Dependency
	var dependenciesJSON []interface{}
	flatCount := 0

	for _, doc := range documents {
		wrapper, count := wrap(doc)
		wrappers = append(wrappers, wrapper)
		wrappersJSON = append(wrappersJSON, asJSON(wrapper, doc))
		flatCount += count
		dependencies = append(dependencies, doc.DependencyList()...)
		dependenciesJSON = append(dependenciesJSON, doc.DependenciesJSON()...)
	}

	appRef := BomRef(appName, appVersion)

	bom := &model.Document{
		BOMFormat:    cdx.BOMFormat,
		SpecVersion:  UnifiedSpecVersion,
		SerialNumber: "urn:uuid:" + uuid.New().String(),
		Version:      1,
		Metadata: &model.Metadata{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Component: &cdx.Component{
				Type:    cdx.ComponentTypeApplication,
				Name:    appName,
				Version: appVersion,
				BOMRef:  appRef,
			},
		},
		Components: &wrappers,
	}

	if manufacturer != "" {
		bom.Metadata.Manufacturer = &cdx.OrganizationalEntity{Name: manufacturer}
	}

	if len(dependencies) > 0 {
		dependsOn := make([]string, 0, len(wrappers))
		for _, w := range wrappers {
			dependsOn = append(dependsOn, w.BOMRef)
		}
		top := cdx.Dependency{Ref: appRef, Dependencies: &dependsOn}
		merged := append([]cdx.Dependency{top}, dependencies...)
		bom.Dependencies = &merged
		bom.SetVerbatim(wrappersJSON, append([]interface{}{top}, dependenciesJSON...))
	} else {
		bom.SetVerbatim(wrappersJSON, nil)
	}

	return model.UnifyResponse{
		BOM:             bom,
		ComponentsCount: flatCount + len(wrappers),
		SourcesCount:    len(documents),
	}
}

// asJSON pairs a wrapper with the source document's components as decoded.
func asJSON(wrapper cdx.Component, doc *model.Document) wrapperJSON {
	children := doc.ComponentsJSON()
	if children == nil {
		children = []interface{}{}
	}
	wrapper.Components = nil
	return wrapperJSON{Component: wrapper, Components: children}
}

// wrap builds the application component standing for one document and returns the
// number of components nested below it.
func wrap(doc *model.Document) (cdx.Component, int) {
	meta := doc.MetadataComponent()
	if meta == nil {
		meta = &cdx.Component{}
	}

	name := util.GetStringOrDefault(meta.Name, "Unknown")
	ref := util.GetStringOrDefault(meta.BOMRef, BomRef(name, meta.Version))

	components := doc.Components
	if components == nil {
		components = &[]cdx.Component{}
	}
	flat := util.FlattenComponents(*components)

	var properties []cdx.Property
	for _, prop := range aggregatedProps {
		value, _ := util.AggregateGost(flat, prop)
		properties = util.SetGostProperty(properties, prop, value)
	}
	for _, prop := range passthroughProps {
		value, _ := util.GetGostProperty(meta, prop)
		properties = util.SetGostProperty(properties, prop, value)
	}

	wrapper := cdx.Component{
		Type:       cdx.ComponentTypeApplication,
		Name:       name,
		BOMRef:     ref,
		Version:    meta.Version,
		Group:      meta.Group,
		Components: components,
	}
	if len(properties) > 0 {
		wrapper.Properties = &properties
	}

	return wrapper, len(flat)
}
