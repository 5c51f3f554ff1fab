// Package restapi provides the main router and initialization for REST API endpoints.
package restapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/ortelius/gost-sbom/internal/services"
	"github.com/ortelius/gost-sbom/restapi/modules/projects"
	"github.com/ortelius/gost-sbom/restapi/modules/sbom"
)

// SetupRoutes configures all REST API routes and the GraphQL endpoint.
func SetupRoutes(app *fiber.App, svc *services.SBOMService, schema graphql.Schema) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	api.Post("/graphql", GraphQLHandler(schema))

	// Stateless SBOM operations
	sbomGroup := api.Group("/sbom")
	sbomGroup.Post("/validate", sbom.ValidateUpload(svc))
	sbomGroup.Post("/validate/json", sbom.ValidateJSON(svc))
	sbomGroup.Post("/unify", sbom.Unify())

	// Projects and stored SBOMs
	projectGroup := api.Group("/projects")
	projectGroup.Get("/", projects.ListProjects(svc))
	projectGroup.Post("/", projects.CreateProject(svc))
	projectGroup.Get("/:id", projects.GetProject(svc))
	projectGroup.Delete("/:id", projects.DeleteProject(svc))
	projectGroup.Post("/:id/sboms", projects.UploadSBOM(svc))
	projectGroup.Get("/:id/sboms/:sbomId", projects.GetSBOM(svc))
	projectGroup.Put("/:id/sboms/:sbomId", projects.UpdateSBOM(svc))
	projectGroup.Delete("/:id/sboms/:sbomId", projects.DeleteSBOM(svc))

	svc.Logger.Info("API routes initialized")
}
