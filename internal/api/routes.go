package api

import "github.com/gofiber/fiber/v2"

func RegisterRoutes(app *fiber.App, handler *Handler) {
	app.Get("/healthz", handler.Health)
	app.Get("/favicon.ico", sendNoContent)

	api := app.Group("/api", handler.LanguageMiddleware)

	auth := api.Group("/auth")
	auth.Post("/register", handler.Register)
	auth.Post("/login", handler.Login)
	auth.Post("/logout", handler.AuthRequired, handler.Logout)
	auth.Post("/password", handler.AuthRequired, handler.ChangePassword)

	api.Get("/me", handler.AuthRequired, handler.Me)

	records := api.Group("/records", handler.AuthRequired)
	records.Post("", handler.NurseOnly, handler.CreateRecord)
	records.Get("/mine", handler.ListMyRecords)
	records.Get("/search", handler.SearchRecords)
	records.Get("/:id", handler.GetRecord)
	records.Post("/:id/laudation", handler.PhysicianOnly, handler.SubmitLaudation)
	records.Get("/:id/messages", handler.ListMessages)
	records.Post("/:id/messages", handler.PostMessage)
	records.Get("/:id/messages/stream", handler.StreamMessages)

	queue := api.Group("/queue", handler.AuthRequired, handler.PhysicianOnly)
	queue.Get("", handler.QueueOverview)
	queue.Get("/:priority/next", handler.NextPending)

	reports := api.Group("/reports", handler.AuthRequired, handler.PhysicianOnly)
	reports.Post("/preview", handler.PreviewReport)
}

func sendNoContent(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusNoContent)
}
