package util

import (
	"fmt"

	cdx "github.com/CycloneDX/cyclonedx-go"
)

// ComponentsPath is the locator of the top level component list.
const ComponentsPath = "$.components"

// Children returns the nested components of comp.
func Children(comp *cdx.Component) []cdx.Component {
	if comp == nil || comp.Components == nil {
		return nil
	}
	return *comp.Components
}

// FlattenComponents returns every node of the component trees rooted at components.
// The walk uses an explicit stack so input depth never grows the goroutine stack.
// Returned pointers alias the input slices.
func FlattenComponents(components []cdx.Component) []*cdx.Component {
	result := make([]*cdx.Component, 0, len(components))

	stack := make([]*cdx.Component, 0, len(components))
	for i := range components {
		stack = append(stack, &components[i])
	}

	for len(stack) > 0 {
		comp := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		result = append(result, comp)

		children := Children(comp)
		for i := range children {
			stack = append(stack, &children[i])
		}
	}

	return result
}

// AggregateGost returns the highest ranked value of a GOST property across components.
// Ties keep the first value seen; ok is false when no component carries a recognized value.
func AggregateGost(components []*cdx.Component, gostName string) (value string, ok bool) {
	maxRank := -1
	for _, comp := range components {
		val, rank := GostRankOf(comp, gostName)
		if rank > maxRank {
			maxRank = rank
			value = val
			ok = true
		}
	}
	return value, ok
}

type frame struct {
	comp *cdx.Component
	path string
}

// WalkComponents visits every component depth-first in document order, tracking its
// JSONPath-like location. Children are skipped when visit returns false.
func WalkComponents(components []cdx.Component, basePath string, visit func(comp *cdx.Component, path string) bool) {
	stack := make([]frame, 0, len(components))
	stack = pushChildren(stack, components, basePath)

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !visit(top.comp, top.path) {
			continue
		}
		stack = pushChildren(stack, Children(top.comp), top.path+".components")
	}
}

// pushChildren pushes in reverse so the first child is popped first.
func pushChildren(stack []frame, children []cdx.Component, basePath string) []frame {
	for i := len(children) - 1; i >= 0; i-- {
		stack = append(stack, frame{comp: &children[i], path: IndexPath(basePath, i)})
	}
	return stack
}

// IndexPath appends an array index to a locator.
func IndexPath(basePath string, i int) string {
	return fmt.Sprintf("%s[%d]", basePath, i)
}

// DisplayName returns the component name, or "?" when it has none.
func DisplayName(comp *cdx.Component) string {
	if comp == nil || comp.Name == "" {
		return "?"
	}
	return comp.Name
}
