package store

import (
	"time"

	"github.com/google/uuid"

	"netval/pkg/model"
)

// CreateSnapshot inserts a new config snapshot and, if its source counts
// toward the device's config hash, updates Device.ConfigHash in the same
// write-locked section.
func (s *Store) CreateSnapshot(projectID string, snap *model.ConfigSnapshot) error {
	unlock := s.lockProject(projectID)
	defer unlock()

	if snap.ID == "" {
		snap.ID = uuid.NewString()
	}
	if snap.TakenAt.IsZero() {
		snap.TakenAt = time.Now().UTC()
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return wrapStorageErr("CreateSnapshot", err)
	}
	defer tx.Rollback()

	if _, err := tx.NamedExec(`
		INSERT INTO config_snapshots (id, device_id, raw_config, config_hash, source, taken_at)
		VALUES (:id, :device_id, :raw_config, :config_hash, :source, :taken_at)`, snap); err != nil {
		return wrapStorageErr("CreateSnapshot", err)
	}

	if snap.Source.CountsTowardConfigHash() {
		if _, err := tx.Exec(`UPDATE devices SET config_hash = ?, updated_at = ? WHERE id = ?`,
			snap.ConfigHash, time.Now().UTC(), snap.DeviceID); err != nil {
			return wrapStorageErr("CreateSnapshot", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return wrapStorageErr("CreateSnapshot", err)
	}
	return nil
}

// LatestSnapshot returns the most recent snapshot for a device, regardless
// of source. It backs the latest-config read route.
func (s *Store) LatestSnapshot(deviceID string) (*model.ConfigSnapshot, error) {
	var snap model.ConfigSnapshot
	err := s.db.Get(&snap,
		`SELECT * FROM config_snapshots WHERE device_id = ? ORDER BY taken_at DESC LIMIT 1`, deviceID)
	if err != nil {
		return nil, wrapStorageErr("LatestSnapshot", err)
	}
	return &snap, nil
}

// ListSnapshots returns a device's snapshot history, newest first.
func (s *Store) ListSnapshots(deviceID string) ([]*model.ConfigSnapshot, error) {
	var snaps []*model.ConfigSnapshot
	err := s.db.Select(&snaps,
		`SELECT * FROM config_snapshots WHERE device_id = ? ORDER BY taken_at DESC`, deviceID)
	if err != nil {
		return nil, wrapStorageErr("ListSnapshots", err)
	}
	return snaps, nil
}
