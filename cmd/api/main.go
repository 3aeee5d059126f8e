package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/Inventario-scan/internal/application/inventory"
	"github.com/jhoicas/Inventario-scan/internal/domain/repository"
	"github.com/jhoicas/Inventario-scan/internal/infrastructure/memory"
	"github.com/jhoicas/Inventario-scan/internal/infrastructure/postgres"
	"github.com/jhoicas/Inventario-scan/internal/infrastructure/storage"
	httpRouter "github.com/jhoicas/Inventario-scan/internal/interfaces/http"
	"github.com/jhoicas/Inventario-scan/pkg/config"
	"github.com/jhoicas/Inventario-scan/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.Store.Driver).
		Msg("iniciando aplicación")

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET requerido")
	}

	ctx := context.Background()
	var store repository.Store
	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		mem := memory.NewStore()
		mem.Seed()
		store = mem
		log.Warn().Msg("almacén en memoria: los datos se pierden al reiniciar")
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB, log.Component("postgres"))
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		store = postgres.NewStore(pool)
	}

	images, err := storage.NewPublicURLResolver(cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("configuración de imágenes")
	}

	sessions := inventory.NewSessionRegistry(inventory.SessionDeps{
		Store:          store,
		Images:         images,
		Log:            log.Component("scan"),
		DebounceWindow: cfg.Scan.DebounceWindow(),
		HistoryLimit:   cfg.Scan.HistoryLimit,
	}, cfg.Scan.SessionTTL())
	sessions.Start()
	defer sessions.Stop()

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
		UnescapePath: true,
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestLogger(log.Component("http")))

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Inventario Scan API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "ok",
			"service":  cfg.App.Name,
			"store":    cfg.Store.Driver,
			"sessions": sessions.Len(),
		})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Sessions:  sessions,
		Locations: store,
		Movements: store,
		JWTSecret: cfg.JWT.Secret,
		Log:       log.Component("http"),
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
