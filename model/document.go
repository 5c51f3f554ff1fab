// Package model - CycloneDX document envelope consumed by the validator and produced by the unifier.
package model

import (
	"encoding/json"

	cdx "github.com/CycloneDX/cyclonedx-go"
)

// GostPrefix is the namespace of the GOST security properties attached to components.
const GostPrefix = "cdx:gost:"

// GOST property names
const (
	GostAttackSurface    = "attack_surface"
	GostSecurityFunction = "security_function"
	GostProvidedBy       = "provided_by"
	GostSourceLangs      = "source_langs"
)

// Document is a CycloneDX SBOM or VEX document.
//
// Slices are held behind pointers so that a key that was present but empty can be told
// apart from a key that was never sent. SpecVersion is kept as a plain string: an unknown
// version is a validation warning, not a decode failure.
//
// The typed Components and Dependencies are a read view. A decoded document also keeps
// both arrays as received and marshals those, so members the typed model lacks (such as
// component tags or dependency provides) are written back unchanged. Edits to the typed
// view of a decoded document are therefore not marshaled.
type Document struct {
	BOMFormat       string             `json:"bomFormat,omitempty"`
	SpecVersion     string             `json:"specVersion,omitempty"`
	SerialNumber    string             `json:"serialNumber,omitempty"`
	Version         int                `json:"version,omitempty"`
	Metadata        *Metadata          `json:"metadata,omitempty"`
	Components      *[]cdx.Component   `json:"components,omitempty"`
	Dependencies    *[]cdx.Dependency  `json:"dependencies,omitempty"`
	Vulnerabilities *[]json.RawMessage `json:"vulnerabilities,omitempty"`

	components   []interface{} // emitted in place of Components when set
	dependencies []interface{} // emitted in place of Dependencies when set
}

// Metadata is the document level metadata section.
type Metadata struct {
	Timestamp    string                       `json:"timestamp,omitempty"`
	Component    *cdx.Component               `json:"component,omitempty"`
	Manufacturer *cdx.OrganizationalEntity    `json:"manufacturer,omitempty"`
	Supplier     *cdx.OrganizationalEntity    `json:"supplier,omitempty"`
	Authors      *[]cdx.OrganizationalContact `json:"authors,omitempty"`
	Tools        *cdx.ToolsChoice             `json:"tools,omitempty"`
	Properties   *[]cdx.Property              `json:"properties,omitempty"`

	fields int // number of keys in the decoded JSON object
}

// UnmarshalJSON decodes the metadata and remembers how many keys the object carried.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	type metadata Metadata

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var decoded metadata
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}

	*m = Metadata(decoded)
	m.fields = len(raw)
	return nil
}

// IsEmpty reports whether the metadata is absent or was decoded from an empty object.
func (m *Metadata) IsEmpty() bool {
	if m == nil {
		return true
	}
	if m.fields > 0 {
		return false
	}
	return m.Timestamp == "" && m.Component == nil && m.Manufacturer == nil && m.Supplier == nil &&
		m.Authors == nil && m.Tools == nil && m.Properties == nil
}

// ParseDocument decodes raw JSON into a Document.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// UnmarshalJSON decodes the typed view and keeps the component and dependency arrays
// as received.
func (d *Document) UnmarshalJSON(data []byte) error {
	type document Document

	var decoded document
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}

	var raw struct {
		Components   []json.RawMessage `json:"components"`
		Dependencies []json.RawMessage `json:"dependencies"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*d = Document(decoded)
	d.components = elements(raw.Components)
	d.dependencies = elements(raw.Dependencies)
	return nil
}

// MarshalJSON writes the verbatim arrays when present and the typed view otherwise.
func (d Document) MarshalJSON() ([]byte, error) {
	type document Document

	view := struct {
		document
		Components   interface{} `json:"components,omitempty"`
		Dependencies interface{} `json:"dependencies,omitempty"`
	}{document: document(d)}

	if d.components != nil {
		view.Components = d.components
	} else if d.Components != nil {
		view.Components = d.Components
	}
	if d.dependencies != nil {
		view.Dependencies = d.dependencies
	} else if d.Dependencies != nil {
		view.Dependencies = d.Dependencies
	}

	return json.Marshal(view)
}

// SetVerbatim sets the arrays marshaled in place of Components and Dependencies.
// A nil slice falls back to the typed field.
func (d *Document) SetVerbatim(components, dependencies []interface{}) {
	d.components = components
	d.dependencies = dependencies
}

// ComponentsJSON returns the top level components as they will be marshaled, or nil
// when the key is absent.
func (d *Document) ComponentsJSON() []interface{} {
	if d == nil {
		return nil
	}
	if d.components != nil {
		return d.components
	}
	return elements(d.ComponentList())
}

// DependenciesJSON returns the dependency edges as they will be marshaled, or nil when
// the key is absent.
func (d *Document) DependenciesJSON() []interface{} {
	if d == nil {
		return nil
	}
	if d.dependencies != nil {
		return d.dependencies
	}
	return elements(d.DependencyList())
}

func elements[T any](items []T) []interface{} {
	if items == nil {
		return nil
	}
	out := make([]interface{}, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out
}

// ComponentList returns the top level components, or nil when the key is absent.
func (d *Document) ComponentList() []cdx.Component {
	if d == nil || d.Components == nil {
		return nil
	}
	return *d.Components
}

// DependencyList returns the dependency edges, or nil when the key is absent.
func (d *Document) DependencyList() []cdx.Dependency {
	if d == nil || d.Dependencies == nil {
		return nil
	}
	return *d.Dependencies
}

// MetadataComponent returns the component describing the document subject, if any.
func (d *Document) MetadataComponent() *cdx.Component {
	if d == nil || d.Metadata == nil {
		return nil
	}
	return d.Metadata.Component
}
