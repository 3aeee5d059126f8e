// Package storage resuelve rutas de imágenes de productos a URLs públicas del bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/jhoicas/Inventario-scan/internal/domain/repository"
	"github.com/jhoicas/Inventario-scan/pkg/config"
)

// ErrNotConfigured no hay URL base para servir imágenes.
var ErrNotConfigured = errors.New("almacenamiento de imágenes sin configurar")

var _ repository.ImageResolver = (*PublicURLResolver)(nil)

// PublicURLResolver arma {base}/{bucket}/{path}. Las rutas que ya son URL absolutas se devuelven tal cual.
type PublicURLResolver struct {
	base   *url.URL
	bucket string
}

// NewPublicURLResolver valida la URL base. Base vacía produce un resolver que
// solo acepta rutas absolutas.
func NewPublicURLResolver(cfg config.StorageConfig) (*PublicURLResolver, error) {
	r := &PublicURLResolver{bucket: strings.Trim(cfg.Bucket, "/")}
	if cfg.PublicBaseURL == "" {
		return r, nil
	}
	u, err := url.Parse(cfg.PublicBaseURL)
	if err != nil {
		return nil, fmt.Errorf("STORAGE_PUBLIC_BASE_URL inválida: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("STORAGE_PUBLIC_BASE_URL debe ser http(s): %q", cfg.PublicBaseURL)
	}
	r.base = u
	return r, nil
}

// ResolveImageURL devuelve la URL pública de la imagen.
func (r *PublicURLResolver) ResolveImageURL(_ context.Context, p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", nil
	}
	if u, err := url.Parse(p); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return u.String(), nil
	}
	if r.base == nil {
		return "", ErrNotConfigured
	}
	clean := strings.TrimPrefix(path.Clean("/"+p), "/")
	if r.bucket != "" {
		clean = strings.TrimPrefix(clean, r.bucket+"/")
	}
	return r.base.JoinPath(r.bucket, clean).String(), nil
}
