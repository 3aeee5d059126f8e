package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Inventario-scan/internal/domain/code"
	"github.com/jhoicas/Inventario-scan/internal/domain/entity"
	"github.com/jhoicas/Inventario-scan/internal/domain/repository"
)

var _ repository.CatalogRepository = (*CatalogRepo)(nil)

// CatalogRepo catálogo de productos sobre PostgreSQL (usable con pool o tx).
type CatalogRepo struct {
	q Querier
}

// NewCatalogRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCatalogRepository(q Querier) *CatalogRepo {
	return &CatalogRepo{q: q}
}

// FindProduct indica si el código existe en el catálogo.
func (r *CatalogRepo) FindProduct(ctx context.Context, c code.ProductCode) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE code = $1)`, c.String()).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("find product: %w", err)
	}
	return exists, nil
}

// GetImageRef ruta de la imagen; "" si el producto no tiene o no existe.
func (r *CatalogRepo) GetImageRef(ctx context.Context, c code.ProductCode) (string, error) {
	var path string
	err := r.q.QueryRow(ctx, `SELECT image_path FROM products WHERE code = $1`, c.String()).Scan(&path)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("get image ref: %w", err)
	}
	return path, nil
}

// GetProduct devuelve nil, nil si no existe.
func (r *CatalogRepo) GetProduct(ctx context.Context, c code.ProductCode) (*entity.Product, error) {
	query := `
		SELECT code, name, image_path, cost, created_at, updated_at
		FROM products WHERE code = $1`
	var (
		p   entity.Product
		raw string
	)
	err := r.q.QueryRow(ctx, query, c.String()).Scan(&raw, &p.Name, &p.ImagePath, &p.Cost, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	p.Code = code.ProductCode(raw)
	return &p, nil
}

// UpsertProduct crea o actualiza nombre e imagen. El costo solo se fija al crear;
// después lo mantiene el promedio ponderado de las entradas.
func (r *CatalogRepo) UpsertProduct(ctx context.Context, p *entity.Product) error {
	query := `
		INSERT INTO products (code, name, image_path, cost, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		ON CONFLICT (code)
		DO UPDATE SET name = EXCLUDED.name, image_path = EXCLUDED.image_path, updated_at = now()`
	if _, err := r.q.Exec(ctx, query, p.Code.String(), p.Name, p.ImagePath, p.Cost); err != nil {
		return fmt.Errorf("upsert product: %w", err)
	}
	return nil
}
