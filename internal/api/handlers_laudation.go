package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/ecgscan/internal/services"
)

// SubmitLaudation falls back to the composed report when the physician sent
// structured details without free text.
func (handler *Handler) SubmitLaudation(c *fiber.Ctx) error {
	identity, _ := currentIdentity(c)
	input := laudationInput{}
	if err := c.BodyParser(&input); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}

	content := input.Content
	if strings.TrimSpace(content) == "" && input.Details != nil {
		content = handler.reportComposer.Compose(input.Details.Normalized(), currentLanguage(c))
	}

	record, err := handler.laudationService.SubmitLaudation(c.UserContext(), identity, c.Params("id"), content, input.Details)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(record)
}

// PreviewReport composes the suggested text. A hand-edited text sent along is
// kept as is and reported back with edited=true.
func (handler *Handler) PreviewReport(c *fiber.Ctx) error {
	input := reportPreviewInput{}
	if err := c.BodyParser(&input); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}

	language := currentLanguage(c)
	if strings.TrimSpace(input.Language) != "" {
		language = handler.i18n.NormalizeLanguage(input.Language)
	}

	draft := services.NewReportDraft(handler.reportComposer, language)
	if input.Text != "" {
		draft.EditText(input.Text)
	}
	draft.SetDetails(input.Details)
	return c.JSON(fiber.Map{
		"language":  language,
		"suggested": draft.Suggested(),
		"text":      draft.Text(),
		"edited":    draft.Dirty(),
	})
}
