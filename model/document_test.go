package model_test

import (
	"encoding/json"
	"testing"

	cdx "github.com/CycloneDX/cyclonedx-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ortelius/gost-sbom/model"
)

const withNewerMembers = `{
	"bomFormat": "CycloneDX",
	"specVersion": "1.6",
	"components": [
		{"type": "library", "name": "a", "bom-ref": "a", "tags": ["crypto"],
		 "components": [{"type": "library", "name": "lib", "bom-ref": "lib", "tags": ["inner"]}]}
	],
	"dependencies": [{"ref": "a", "dependsOn": ["lib"], "provides": ["lib"]}]
}`

func TestDocument_RoundTrip(t *testing.T) {
	doc, err := model.ParseDocument([]byte(withNewerMembers))
	require.NoError(t, err)

	// typed view still works
	require.Len(t, doc.ComponentList(), 1)
	assert.Equal(t, "a", doc.ComponentList()[0].Name)
	require.Len(t, doc.DependencyList(), 1)

	out, err := json.Marshal(doc)
	require.NoError(t, err)

	var got, want map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &got))
	require.NoError(t, json.Unmarshal([]byte(withNewerMembers), &want))
	assert.Equal(t, want, got)
}

func TestDocument_MarshalTyped(t *testing.T) {
	components := []cdx.Component{{Type: cdx.ComponentTypeLibrary, Name: "x"}}
	doc := &model.Document{BOMFormat: cdx.BOMFormat, SpecVersion: "1.6", Components: &components}

	out, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, `{"bomFormat": "CycloneDX", "specVersion": "1.6",
		"components": [{"type": "library", "name": "x"}]}`, string(out))

	require.Len(t, doc.ComponentsJSON(), 1)
	assert.Nil(t, doc.DependenciesJSON())
}

func TestDocument_AbsentAndEmptyArrays(t *testing.T) {
	doc, err := model.ParseDocument([]byte(`{"bomFormat": "CycloneDX", "components": []}`))
	require.NoError(t, err)
	assert.NotNil(t, doc.ComponentsJSON())
	assert.Empty(t, doc.ComponentsJSON())
	assert.Nil(t, doc.DependenciesJSON())

	out, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, `{"bomFormat": "CycloneDX", "components": []}`, string(out))
}

func TestDocument_WrongShape(t *testing.T) {
	_, err := model.ParseDocument([]byte(`{"components": "nope"}`))
	var typeErr *json.UnmarshalTypeError
	assert.ErrorAs(t, err, &typeErr)
}
