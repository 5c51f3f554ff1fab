// Package projects defines the GraphQL queries for projects.
package projects

import (
	"context"

	"github.com/graphql-go/graphql"

	"github.com/ortelius/gost-sbom/database"
)

// GetQueryFields returns the project queries to be mounted in the root schema.
func GetQueryFields(store database.Store, projectType *graphql.Object) graphql.Fields {
	return graphql.Fields{
		"projects": &graphql.Field{
			Type: graphql.NewList(projectType),
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return ResolveProjects(contextOf(p), store)
			},
		},
		"project": &graphql.Field{
			Type: projectType,
			Args: graphql.FieldConfigArgument{
				"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				id := p.Args["id"].(string)
				project, err := ResolveProject(contextOf(p), store, id)
				if err != nil || project == nil {
					return nil, err
				}
				return project, nil
			},
		},
	}
}

func contextOf(p graphql.ResolveParams) context.Context {
	if p.Context != nil {
		return p.Context
	}
	return context.Background()
}
