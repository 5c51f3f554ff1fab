package util

import (
	"strings"

	cdx "github.com/CycloneDX/cyclonedx-go"

	"github.com/ortelius/gost-sbom/model"
)

// gostRank orders GOST values: yes(2) > indirect(1) > no(0)
var gostRank = map[string]int{"yes": 2, "indirect": 1, "no": 0}

// GetProperty returns the value of the first property named name.
func GetProperty(comp *cdx.Component, name string) (string, bool) {
	if comp == nil || comp.Properties == nil {
		return "", false
	}
	for _, prop := range *comp.Properties {
		if prop.Name == name {
			return prop.Value, true
		}
	}
	return "", false
}

// GetGostProperty returns a property from the cdx:gost: namespace (e.g. "attack_surface").
func GetGostProperty(comp *cdx.Component, gostName string) (string, bool) {
	return GetProperty(comp, model.GostPrefix+gostName)
}

// SetGostProperty overwrites the first matching GOST property in place or appends a new one.
// An empty value leaves the list unchanged.
func SetGostProperty(properties []cdx.Property, gostName, value string) []cdx.Property {
	if value == "" {
		return properties
	}

	fullName := model.GostPrefix + gostName
	for i := range properties {
		if properties[i].Name == fullName {
			properties[i].Value = value
			return properties
		}
	}
	return append(properties, cdx.Property{Name: fullName, Value: value})
}

// EvalGostRank maps a GOST value to its hierarchy level, case-insensitively.
// Unrecognized values, including the empty string, rank -1.
func EvalGostRank(value string) int {
	if rank, ok := gostRank[strings.ToLower(value)]; ok {
		return rank
	}
	return -1
}

// GostRankOf returns the raw value and rank of a component's GOST property.
func GostRankOf(comp *cdx.Component, gostName string) (string, int) {
	value, ok := GetGostProperty(comp, gostName)
	if !ok {
		return "", -1
	}
	return value, EvalGostRank(value)
}
