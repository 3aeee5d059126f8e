// seed carga el catálogo inicial (productos, ubicaciones y existencias) en PostgreSQL
// a partir de un CSV separado por ';'. Crea el esquema si no existe.
//
// Uso: go run ./cmd/seed [ruta/catalogo.csv] [charset]
// charset: utf-8 (por defecto) | latin1 | windows-1252
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jhoicas/Inventario-scan/internal/infrastructure/postgres"
	"github.com/jhoicas/Inventario-scan/pkg/config"
	"github.com/jhoicas/Inventario-scan/pkg/logger"
)

func main() {
	csvPath := "catalogo.csv"
	if len(os.Args) > 1 {
		csvPath = os.Args[1]
	}
	charset := ""
	if len(os.Args) > 2 {
		charset = os.Args[2]
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	f, err := os.Open(csvPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", csvPath).Msg("abrir CSV")
	}
	defer f.Close()

	cat, err := parseCatalog(f, charset)
	if err != nil {
		log.Fatal().Err(err).Msg("parsear catálogo")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB, log.Component("postgres"))
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("esquema")
	}
	store := postgres.NewStore(pool)

	for _, loc := range cat.Locations {
		if err := store.UpsertLocation(ctx, loc); err != nil {
			log.Fatal().Err(err).Str("location", loc.Code).Msg("upsert ubicación")
		}
	}
	stocked := 0
	for _, row := range cat.Rows {
		p := row.Product
		existing, err := store.GetProduct(ctx, p.Code)
		if err != nil {
			log.Fatal().Err(err).Str("code", p.Code.String()).Msg("consultar producto")
		}
		if existing != nil && !existing.Cost.Equal(p.Cost) {
			// el costo de un producto existente lo mantiene el promedio ponderado
			log.Warn().
				Str("code", p.Code.String()).
				Str("cost_actual", existing.Cost.String()).
				Str("cost_csv", p.Cost.String()).
				Msg("costo del CSV ignorado para producto existente")
		}
		if err := store.UpsertProduct(ctx, &p); err != nil {
			log.Fatal().Err(err).Str("code", p.Code.String()).Msg("upsert producto")
		}
		if row.Location == nil {
			continue
		}
		if err := store.SetLocationOnHand(ctx, p.Code, row.Location.ID, row.OnHand); err != nil {
			log.Fatal().Err(err).Str("code", p.Code.String()).Str("location", row.Location.Code).Msg("existencias")
		}
		stocked++
	}

	log.Info().
		Int("products", len(cat.Rows)).
		Int("locations", len(cat.Locations)).
		Int("stock_rows", stocked).
		Msg("catálogo cargado")
}
