package repository

import (
	"context"

	"github.com/jhoicas/Inventario-scan/internal/domain/code"
)

// CatalogRepository puerto de consulta del catálogo de productos.
type CatalogRepository interface {
	FindProduct(ctx context.Context, c code.ProductCode) (bool, error)
	// GetImageRef devuelve la ruta de la imagen del producto; "" si no tiene.
	GetImageRef(ctx context.Context, c code.ProductCode) (string, error)
}

// ImageResolver convierte una ruta de imagen almacenada en una URL servible.
type ImageResolver interface {
	ResolveImageURL(ctx context.Context, path string) (string, error)
}
