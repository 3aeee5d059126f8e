package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Inventario-scan/internal/application/inventory"
	"github.com/jhoicas/Inventario-scan/internal/domain/repository"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Sessions  *inventory.SessionRegistry
	Locations repository.LocationRepository
	Movements repository.MovementRepository
	JWTSecret string
	Log       zerolog.Logger
}

// Router registra las rutas de la API. Todas requieren Bearer Token: la sesión de
// escaneo se asocia al user_id del token.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	scanHandler := NewScanHandler(deps.Sessions, deps.Log)
	scanGroup := api.Group("/scan")
	scanGroup.Post("/events", scanHandler.Event)
	scanGroup.Post("/lookup", scanHandler.Lookup)

	sessionHandler := NewSessionHandler(deps.Sessions, deps.Log)
	session := api.Group("/session")
	session.Get("/", sessionHandler.Get)
	session.Post("/reset", sessionHandler.Reset)
	session.Put("/mode", sessionHandler.SetMode)

	inventoryHandler := NewInventoryHandler(deps.Sessions, deps.Locations, deps.Movements, deps.Log)
	invGroup := api.Group("/inventory")
	invGroup.Post("/movements", inventoryHandler.RegisterMovement)
	invGroup.Get("/locations", inventoryHandler.ListLocations)
	api.Get("/products/:code/movements", inventoryHandler.ListProductMovements)

	batchHandler := NewBatchHandler(deps.Sessions, deps.Log)
	batch := api.Group("/batch")
	batch.Get("/", batchHandler.Get)
	batch.Post("/lines", batchHandler.AddLine)
	batch.Put("/lines/:code", batchHandler.SetQty)
	batch.Delete("/lines/:code", batchHandler.RemoveLine)
	batch.Post("/submit", batchHandler.Submit)
}
