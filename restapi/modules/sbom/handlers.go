// Package sbom implements the REST API handlers for validating and unifying SBOMs.
package sbom

import (
	"fmt"
	"io"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"

	"github.com/ortelius/gost-sbom/internal/services"
	"github.com/ortelius/gost-sbom/internal/unifier"
	"github.com/ortelius/gost-sbom/internal/validator"
	"github.com/ortelius/gost-sbom/model"
	"github.com/ortelius/gost-sbom/util"
)

// Unify defaults
const (
	DefaultAppName    = "Unified Application"
	DefaultAppVersion = "1.0.0"
	minUnifyInputs    = 2
)

// ReadUpload reads a multipart file fully.
func ReadUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func decodeError(c *fiber.Ctx, name string, err error) error {
	return c.Status(util.DecodeStatus(err)).JSON(fiber.Map{
		"error": fmt.Sprintf("Invalid JSON in %s: %v", name, err),
	})
}

// ValidateUpload validates an SBOM uploaded as the multipart field "file".
func ValidateUpload(svc *services.SBOMService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "multipart field 'file' is required",
			})
		}

		data, err := ReadUpload(fh)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Failed to read uploaded file: " + err.Error(),
			})
		}

		doc, err := model.ParseDocument(data)
		if err != nil {
			return decodeError(c, fh.Filename, err)
		}

		format := c.Query("format", validator.FormatOSS)
		result := svc.Validate(c.UserContext(), doc, format, c.QueryBool("check_vcs", false))
		return c.JSON(result)
	}
}

// ValidateJSON validates a document sent inside a JSON body.
func ValidateJSON(svc *services.SBOMService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req model.ValidateJSONRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(util.DecodeStatus(err)).JSON(fiber.Map{
				"error": "Invalid request body: " + err.Error(),
			})
		}

		if len(req.Document) == 0 || string(req.Document) == "null" {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": "document is required",
			})
		}

		doc, err := model.ParseDocument(req.Document)
		if err != nil {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": "document must be a JSON object: " + err.Error(),
			})
		}

		format := util.GetStringOrDefault(req.Format, validator.FormatOSS)
		return c.JSON(svc.Validate(c.UserContext(), doc, format, req.CheckVCS))
	}
}

// Unify merges the SBOMs uploaded as the multipart field "files".
func Unify() fiber.Handler {
	return func(c *fiber.Ctx) error {
		form, err := c.MultipartForm()
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "multipart form is required",
			})
		}

		files := form.File["files"]
		if len(files) < minUnifyInputs {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": fmt.Sprintf("At least %d SBOM files are required for unification", minUnifyInputs),
			})
		}

		documents := make([]*model.Document, 0, len(files))
		for _, fh := range files {
			data, err := ReadUpload(fh)
			if err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Failed to read uploaded file: " + err.Error(),
				})
			}
			doc, err := model.ParseDocument(data)
			if err != nil {
				return decodeError(c, fh.Filename, err)
			}
			documents = append(documents, doc)
		}

		result := unifier.UnifySBOMs(documents,
			c.Query("app_name", DefaultAppName),
			c.Query("app_version", DefaultAppVersion),
			c.Query("manufacturer"))
		return c.JSON(result)
	}
}
