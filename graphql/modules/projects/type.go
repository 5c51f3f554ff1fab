// Package projects defines the GraphQL types for projects and their stored SBOMs.
package projects

import (
	"github.com/graphql-go/graphql"
)

// ValidationIssueType is one finding of a validation run.
var ValidationIssueType = graphql.NewObject(graphql.ObjectConfig{
	Name: "ValidationIssue",
	Fields: graphql.Fields{
		"level":   &graphql.Field{Type: graphql.String},
		"message": &graphql.Field{Type: graphql.String},
		"path":    &graphql.Field{Type: graphql.String},
	},
})

// ValidationType is the result of validating a stored SBOM.
var ValidationType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Validation",
	Fields: graphql.Fields{
		"valid":          &graphql.Field{Type: graphql.Boolean},
		"schema_version": &graphql.Field{Type: graphql.String},
		"issues":         &graphql.Field{Type: graphql.NewList(ValidationIssueType)},
	},
})

// NewSbomType builds the Sbom type; its validation field runs the validator on demand.
func NewSbomType(validate ValidateFunc) *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "Sbom",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.String},
			"name":        &graphql.Field{Type: graphql.String},
			"version":     &graphql.Field{Type: graphql.String},
			"uploaded_at": &graphql.Field{Type: graphql.String},
			"validation": &graphql.Field{
				Type: ValidationType,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					source, ok := p.Source.(map[string]interface{})
					if !ok {
						return nil, nil
					}
					projectID, _ := source["project_id"].(string)
					sbomID, _ := source["id"].(string)
					return ResolveValidation(p.Context, validate, projectID, sbomID)
				},
			},
		},
	})
}

// NewProjectType builds the Project type around sbomType.
func NewProjectType(sbomType *graphql.Object) *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "Project",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.String},
			"name":        &graphql.Field{Type: graphql.String},
			"description": &graphql.Field{Type: graphql.String},
			"created_at":  &graphql.Field{Type: graphql.String},
			"updated_at":  &graphql.Field{Type: graphql.String},
			"sboms":       &graphql.Field{Type: graphql.NewList(sbomType)},
		},
	})
}
