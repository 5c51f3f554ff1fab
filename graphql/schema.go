// Package graphql assembles the GraphQL schema.
package graphql

import (
	"github.com/graphql-go/graphql"

	"github.com/ortelius/gost-sbom/graphql/modules/projects"
	"github.com/ortelius/gost-sbom/internal/services"
)

// CreateSchema builds the root schema over the service's store.
func CreateSchema(svc *services.SBOMService) (graphql.Schema, error) {
	sbomType := projects.NewSbomType(svc.ValidateStored)
	projectType := projects.NewProjectType(sbomType)

	rootQuery := graphql.NewObject(graphql.ObjectConfig{
		Name:   "Query",
		Fields: projects.GetQueryFields(svc.Store, projectType),
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: rootQuery,
	})
}
