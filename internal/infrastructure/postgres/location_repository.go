package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/Inventario-scan/internal/domain/entity"
	"github.com/jhoicas/Inventario-scan/internal/domain/repository"
)

var _ repository.LocationRepository = (*LocationRepo)(nil)

// LocationRepo ubicaciones sobre PostgreSQL.
type LocationRepo struct {
	q Querier
}

// NewLocationRepository construye el adaptador de ubicaciones.
func NewLocationRepository(q Querier) *LocationRepo {
	return &LocationRepo{q: q}
}

// ListLocations todas las ubicaciones ordenadas por código.
func (r *LocationRepo) ListLocations(ctx context.Context) ([]entity.Location, error) {
	rows, err := r.q.Query(ctx, `SELECT id, code, name FROM locations ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()
	var list []entity.Location
	for rows.Next() {
		var l entity.Location
		if err := rows.Scan(&l.ID, &l.Code, &l.Name); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		list = append(list, l)
	}
	return list, rows.Err()
}

// UpsertLocation crea o renombra una ubicación.
func (r *LocationRepo) UpsertLocation(ctx context.Context, l entity.Location) error {
	query := `
		INSERT INTO locations (id, code, name) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET code = EXCLUDED.code, name = EXCLUDED.name`
	if _, err := r.q.Exec(ctx, query, l.ID, l.Code, l.Name); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("código de ubicación %q duplicado: %w", l.Code, err)
		}
		return fmt.Errorf("upsert location: %w", err)
	}
	return nil
}
