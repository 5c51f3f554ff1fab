package util_test

import (
	"testing"

	cdx "github.com/CycloneDX/cyclonedx-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ortelius/gost-sbom/util"
)

func component(name string, props ...cdx.Property) cdx.Component {
	c := cdx.Component{Type: cdx.ComponentTypeLibrary, Name: name}
	if len(props) > 0 {
		c.Properties = &props
	}
	return c
}

func gost(name, value string) cdx.Property {
	return cdx.Property{Name: "cdx:gost:" + name, Value: value}
}

func TestGetProperty(t *testing.T) {
	tests := []struct {
		name      string
		comp      cdx.Component
		prop      string
		wantValue string
		wantOK    bool
	}{
		{
			name:   "no properties",
			comp:   component("a"),
			prop:   "x",
			wantOK: false,
		},
		{
			name:      "first match wins",
			comp:      component("a", cdx.Property{Name: "x", Value: "1"}, cdx.Property{Name: "x", Value: "2"}),
			prop:      "x",
			wantValue: "1",
			wantOK:    true,
		},
		{
			name:   "no match",
			comp:   component("a", cdx.Property{Name: "y", Value: "1"}),
			prop:   "x",
			wantOK: false,
		},
		{
			name:      "explicit empty value is present",
			comp:      component("a", cdx.Property{Name: "x", Value: ""}),
			prop:      "x",
			wantValue: "",
			wantOK:    true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := util.GetProperty(&tt.comp, tt.prop)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantValue, got)
		})
	}
}

func TestGetGostProperty(t *testing.T) {
	comp := component("a", gost("attack_surface", "Yes"))

	got, ok := util.GetGostProperty(&comp, "attack_surface")
	require.True(t, ok)
	assert.Equal(t, "Yes", got)

	_, ok = util.GetGostProperty(&comp, "security_function")
	assert.False(t, ok)

	_, ok = util.GetGostProperty(nil, "attack_surface")
	assert.False(t, ok)
}

func TestSetGostProperty(t *testing.T) {
	t.Run("empty value is a no-op", func(t *testing.T) {
		props := []cdx.Property{{Name: "keep", Value: "1"}}
		got := util.SetGostProperty(props, "attack_surface", "")
		assert.Equal(t, props, got)
	})

	t.Run("appends when missing", func(t *testing.T) {
		got := util.SetGostProperty(nil, "attack_surface", "yes")
		assert.Equal(t, []cdx.Property{{Name: "cdx:gost:attack_surface", Value: "yes"}}, got)
	})

	t.Run("overwrites in place", func(t *testing.T) {
		props := []cdx.Property{
			{Name: "cdx:gost:attack_surface", Value: "no"},
			{Name: "other", Value: "x"},
		}
		got := util.SetGostProperty(props, "attack_surface", "indirect")
		require.Len(t, got, 2)
		assert.Equal(t, "indirect", got[0].Value)
		assert.Equal(t, "indirect", props[0].Value)
	})
}

func TestEvalGostRank(t *testing.T) {
	assert.Equal(t, 2, util.EvalGostRank("yes"))
	assert.Equal(t, 2, util.EvalGostRank("YES"))
	assert.Equal(t, 1, util.EvalGostRank("Indirect"))
	assert.Equal(t, 0, util.EvalGostRank("no"))
	assert.Equal(t, -1, util.EvalGostRank(""))
	assert.Equal(t, -1, util.EvalGostRank("garbage"))

	assert.Greater(t, util.EvalGostRank("yes"), util.EvalGostRank("indirect"))
	assert.Greater(t, util.EvalGostRank("indirect"), util.EvalGostRank("no"))
	assert.Greater(t, util.EvalGostRank("no"), util.EvalGostRank(""))
}
