package api

import (
	"fmt"
	"io"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/ecgscan/internal/services"
)

func (handler *Handler) CreateRecord(c *fiber.Ctx) error {
	identity, _ := currentIdentity(c)

	input := services.CreateRecordInput{
		PatientName:  c.FormValue("patient_name"),
		Age:          c.FormValue("age"),
		Sex:          c.FormValue("sex"),
		HasPacemaker: c.FormValue("has_pacemaker"),
		Priority:     c.FormValue("priority"),
		Notes:        c.FormValue("notes"),
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return handler.respondServiceError(c, services.NewValidationError("image", "is required"))
	}
	image, err := readImageUpload(fileHeader)
	if err != nil {
		return handler.respondServiceError(c, err)
	}

	recordID, err := handler.recordService.CreateRecord(c.UserContext(), identity, input, image)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": recordID})
}

func readImageUpload(fileHeader *multipart.FileHeader) (services.ImageUpload, error) {
	if fileHeader.Size > maxImageUploadBytes {
		return services.ImageUpload{}, services.NewValidationError("image", "is too large")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return services.ImageUpload{}, fmt.Errorf("%w: open upload: %v", services.ErrTransport, err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImageUploadBytes+1))
	if err != nil {
		return services.ImageUpload{}, fmt.Errorf("%w: read upload: %v", services.ErrTransport, err)
	}
	if len(data) > maxImageUploadBytes {
		return services.ImageUpload{}, services.NewValidationError("image", "is too large")
	}

	return services.ImageUpload{
		Data:        data,
		ContentType: fileHeader.Header.Get(fiber.HeaderContentType),
	}, nil
}

func (handler *Handler) GetRecord(c *fiber.Ctx) error {
	identity, _ := currentIdentity(c)
	record, err := handler.recordService.GetForViewer(c.UserContext(), identity, c.Params("id"))
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(record)
}

func (handler *Handler) ListMyRecords(c *fiber.Ctx) error {
	identity, _ := currentIdentity(c)
	records, err := handler.recordService.ListMine(c.UserContext(), identity)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"records": records})
}

func (handler *Handler) SearchRecords(c *fiber.Ctx) error {
	identity, _ := currentIdentity(c)
	records, err := handler.recordService.Search(c.UserContext(), identity, c.Query("q"))
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"records": records})
}
