// Package projects implements the REST API handlers for projects and their stored SBOMs.
package projects

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ortelius/gost-sbom/database"
	"github.com/ortelius/gost-sbom/internal/services"
	"github.com/ortelius/gost-sbom/model"
	"github.com/ortelius/gost-sbom/restapi/modules/sbom"
	"github.com/ortelius/gost-sbom/util"
)

// storeError maps store errors onto statuses.
func storeError(c *fiber.Ctx, logger *zap.Logger, err error) error {
	switch {
	case errors.Is(err, database.ErrInvalidID):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "Invalid ID format"})
	case errors.Is(err, database.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Not found"})
	case errors.Is(err, services.ErrInvalidDocument):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	default:
		logger.Error("Store operation failed", zap.String("path", c.Path()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
	}
}

// ListProjects returns every project.
func ListProjects(svc *services.SBOMService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		projects, err := svc.Store.ListProjects(c.UserContext())
		if err != nil {
			return storeError(c, svc.Logger, err)
		}
		return c.JSON(model.ListProjectsResponse{Projects: projects})
	}
}

// CreateProject creates a project from {name, description}.
func CreateProject(svc *services.SBOMService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req model.CreateProjectRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(util.DecodeStatus(err)).JSON(fiber.Map{
				"error": "Invalid request body: " + err.Error(),
			})
		}

		name := strings.TrimSpace(req.Name)
		if name == "" {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": "name is required",
			})
		}

		project, err := svc.Store.CreateProject(c.UserContext(), name, req.Description)
		if err != nil {
			return storeError(c, svc.Logger, err)
		}
		return c.Status(fiber.StatusCreated).JSON(project)
	}
}

// GetProject returns a project with its SBOM list.
func GetProject(svc *services.SBOMService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		project, err := svc.Store.GetProject(c.UserContext(), c.Params("id"))
		if err != nil {
			return storeError(c, svc.Logger, err)
		}
		return c.JSON(project)
	}
}

// DeleteProject removes a project and its SBOMs.
func DeleteProject(svc *services.SBOMService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.Store.DeleteProject(c.UserContext(), c.Params("id")); err != nil {
			return storeError(c, svc.Logger, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// UploadSBOM validates and stores the multipart field "file" in a project.
// The optional form value "name" overrides the stored name.
func UploadSBOM(svc *services.SBOMService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		projectID := c.Params("id")
		if err := database.CheckID(projectID); err != nil {
			return storeError(c, svc.Logger, err)
		}

		fh, err := c.FormFile("file")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "multipart field 'file' is required",
			})
		}
		data, err := sbom.ReadUpload(fh)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Failed to read uploaded file: " + err.Error(),
			})
		}

		meta, _, err := svc.Ingest(c.UserContext(), projectID, c.FormValue("name"), data)
		if err != nil {
			return storeError(c, svc.Logger, err)
		}
		return c.Status(fiber.StatusCreated).JSON(meta)
	}
}

// GetSBOM returns a stored document.
func GetSBOM(svc *services.SBOMService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		content, err := svc.Store.GetSBOM(c.UserContext(), c.Params("id"), c.Params("sbomId"))
		if err != nil {
			return storeError(c, svc.Logger, err)
		}
		return c.JSON(content)
	}
}

// UpdateSBOM replaces a stored document with the body's {document}.
func UpdateSBOM(svc *services.SBOMService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		projectID, sbomID := c.Params("id"), c.Params("sbomId")
		if err := database.CheckID(projectID, sbomID); err != nil {
			return storeError(c, svc.Logger, err)
		}

		var req model.SaveSbomRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(util.DecodeStatus(err)).JSON(fiber.Map{
				"error": "Invalid request body: " + err.Error(),
			})
		}
		if req.Document == nil {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": "document is required",
			})
		}

		meta, err := svc.Store.UpdateSBOM(c.UserContext(), projectID, sbomID, req.Document)
		if err != nil {
			return storeError(c, svc.Logger, err)
		}
		return c.JSON(meta)
	}
}

// DeleteSBOM removes a stored document.
func DeleteSBOM(svc *services.SBOMService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.Store.DeleteSBOM(c.UserContext(), c.Params("id"), c.Params("sbomId")); err != nil {
			return storeError(c, svc.Logger, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
