package store

import (
	"github.com/google/uuid"

	"netval/pkg/model"
)

// ReplaceStaticRoutes atomically replaces a device's static-route set,
// mirroring ReplaceInterfaces' all-or-nothing ingestion convention.
func (s *Store) ReplaceStaticRoutes(deviceID string, routes []model.StaticRoute) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return wrapStorageErr("ReplaceStaticRoutes", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM static_routes WHERE device_id = ?`, deviceID); err != nil {
		return wrapStorageErr("ReplaceStaticRoutes", err)
	}
	for i := range routes {
		r := routes[i]
		r.DeviceID = deviceID
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		if _, err := tx.NamedExec(`
			INSERT INTO static_routes (id, device_id, prefix, mask, next_hop, interface)
			VALUES (:id, :device_id, :prefix, :mask, :next_hop, :interface)`, r); err != nil {
			return wrapStorageErr("ReplaceStaticRoutes", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return wrapStorageErr("ReplaceStaticRoutes", err)
	}
	return nil
}

// ListStaticRoutes returns every static route on a device, ordered by prefix.
func (s *Store) ListStaticRoutes(deviceID string) ([]model.StaticRoute, error) {
	var routes []model.StaticRoute
	err := s.db.Select(&routes,
		`SELECT * FROM static_routes WHERE device_id = ? ORDER BY prefix, id`, deviceID)
	if err != nil {
		return nil, wrapStorageErr("ListStaticRoutes", err)
	}
	return routes, nil
}
