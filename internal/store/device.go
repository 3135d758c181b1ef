package store

import (
	"time"

	"github.com/google/uuid"

	"netval/pkg/model"
)

// CreateDevice inserts a new device under an existing project.
func (s *Store) CreateDevice(d *model.Device) error {
	unlock := s.lockProject(d.ProjectID)
	defer unlock()

	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	d.CreatedAt, d.UpdatedAt = now, now

	_, err := s.db.NamedExec(`
		INSERT INTO devices (
			id, project_id, hostname, role, vendor, platform, management_ip,
			canvas_x, canvas_y, credential_ref, config_hash, notes, created_at, updated_at
		) VALUES (
			:id, :project_id, :hostname, :role, :vendor, :platform, :management_ip,
			:canvas_x, :canvas_y, :credential_ref, :config_hash, :notes, :created_at, :updated_at
		)`, d)
	return wrapStorageErr("CreateDevice", err)
}

// GetDevice fetches a device by id.
func (s *Store) GetDevice(id string) (*model.Device, error) {
	var d model.Device
	if err := s.db.Get(&d, `SELECT * FROM devices WHERE id = ?`, id); err != nil {
		return nil, wrapStorageErr("GetDevice", err)
	}
	return &d, nil
}

// ListDevices returns every device under a project, ordered by hostname.
func (s *Store) ListDevices(projectID string) ([]*model.Device, error) {
	var devices []*model.Device
	err := s.db.Select(&devices,
		`SELECT * FROM devices WHERE project_id = ? ORDER BY hostname, id`, projectID)
	if err != nil {
		return nil, wrapStorageErr("ListDevices", err)
	}
	return devices, nil
}

// UpdateDevice updates a device's mutable fields.
func (s *Store) UpdateDevice(d *model.Device) error {
	unlock := s.lockProject(d.ProjectID)
	defer unlock()

	d.UpdatedAt = time.Now().UTC()
	res, err := s.db.NamedExec(`
		UPDATE devices SET
			hostname = :hostname, role = :role, vendor = :vendor, platform = :platform,
			management_ip = :management_ip, canvas_x = :canvas_x, canvas_y = :canvas_y,
			credential_ref = :credential_ref, config_hash = :config_hash, notes = :notes,
			updated_at = :updated_at
		WHERE id = :id`, d)
	if err != nil {
		return wrapStorageErr("UpdateDevice", err)
	}
	return checkRowsAffected(res, "UpdateDevice")
}

// DeleteDevice removes a device and everything scoped to it (interfaces,
// snapshots) via ON DELETE CASCADE.
func (s *Store) DeleteDevice(projectID, id string) error {
	unlock := s.lockProject(projectID)
	defer unlock()

	res, err := s.db.Exec(`DELETE FROM devices WHERE id = ? AND project_id = ?`, id, projectID)
	if err != nil {
		return wrapStorageErr("DeleteDevice", err)
	}
	return checkRowsAffected(res, "DeleteDevice")
}

// SetDeviceVLANs replaces a device's VLAN database with vlans.
func (s *Store) SetDeviceVLANs(projectID, deviceID string, vlans []model.DeviceVlan) error {
	unlock := s.lockProject(projectID)
	defer unlock()

	tx, err := s.db.Beginx()
	if err != nil {
		return wrapStorageErr("SetDeviceVLANs", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM device_vlans WHERE device_id = ?`, deviceID); err != nil {
		return wrapStorageErr("SetDeviceVLANs", err)
	}
	for _, v := range vlans {
		v.DeviceID = deviceID
		if _, err := tx.NamedExec(`
			INSERT INTO device_vlans (device_id, vlan_id, name) VALUES (:device_id, :vlan_id, :name)`, v); err != nil {
			return wrapStorageErr("SetDeviceVLANs", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return wrapStorageErr("SetDeviceVLANs", err)
	}
	return nil
}

// ListDeviceVLANs returns a device's VLAN database, ordered by VLAN id.
func (s *Store) ListDeviceVLANs(deviceID string) ([]model.DeviceVlan, error) {
	var vlans []model.DeviceVlan
	err := s.db.Select(&vlans,
		`SELECT * FROM device_vlans WHERE device_id = ? ORDER BY vlan_id`, deviceID)
	if err != nil {
		return nil, wrapStorageErr("ListDeviceVLANs", err)
	}
	return vlans, nil
}
