package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/krishkalaria12/snap-swap/auth"
	handler "github.com/krishkalaria12/snap-swap/handlers"
	"github.com/krishkalaria12/snap-swap/middleware"
)

// New builds the fiber app with the error envelope, panic recovery and all
// routes mounted.
func New(h *handler.Handler, tokens *auth.Service, bodyLimit int) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "snap-swap",
		ErrorHandler: handler.ErrorHandler,
		BodyLimit:    bodyLimit,
	})
	app.Use(recover.New())

	SetupRoutes(app, h, tokens)
	return app
}

func SetupRoutes(app *fiber.App, h *handler.Handler, tokens *auth.Service) {
	api := app.Group("/api", logger.New())
	requireUser := middleware.AuthMiddleware(tokens)

	// Auth
	authGroup := api.Group("/auth")
	authGroup.Post("/register", h.Register)
	authGroup.Post("/login", h.Login)
	authGroup.Post("/logout", h.Logout)

	// Uploads
	uploads := api.Group("/uploads", requireUser)
	uploads.Post("/", h.CreateUpload)
	uploads.Post("/images", h.AttachImages)
	uploads.Get("/:id", h.GetUpload)

	// Generation
	generation := api.Group("/generation", requireUser)
	generation.Post("/enhance-prompt", h.EnhancePrompt)
	generation.Post("/generate", h.Generate)
	generation.Get("/status", h.JobStatus)

	// Results; download is registered before the id route
	results := api.Group("/results", requireUser)
	results.Get("/download", h.DownloadResult)
	results.Get("/:resultId", h.GetResult)

	// User
	user := api.Group("/user", requireUser)
	user.Get("/profile", h.Profile)
	user.Get("/history", h.History)
}
