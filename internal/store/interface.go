package store

import (
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"netval/pkg/model"
	"netval/pkg/util"
)

// interfaceRow mirrors model.Interface but with VLANTrunkAllowed flattened to
// its compacted-range text form for storage (model.Interface tags that field
// db:"-" since []int has no native column type).
type interfaceRow struct {
	model.Interface
	VLANTrunkAllowedText string `db:"vlan_trunk_allowed"`
	DHCPHelpersText      string `db:"dhcp_helpers"`
}

func toInterfaceRow(i *model.Interface) interfaceRow {
	return interfaceRow{
		Interface:            *i,
		VLANTrunkAllowedText: util.CompactRange(i.VLANTrunkAllowed),
		DHCPHelpersText:      strings.Join(i.DHCPHelpers, ","),
	}
}

func fromInterfaceRow(r interfaceRow) (*model.Interface, error) {
	iface := r.Interface
	if r.VLANTrunkAllowedText != "" {
		vlans, err := util.ExpandRange(r.VLANTrunkAllowedText)
		if err != nil {
			return nil, err
		}
		iface.VLANTrunkAllowed = vlans
	}
	if r.DHCPHelpersText != "" {
		iface.DHCPHelpers = strings.Split(r.DHCPHelpersText, ",")
	}
	return &iface, nil
}

// CreateInterface inserts a new interface under a device.
func (s *Store) CreateInterface(i *model.Interface) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	row := toInterfaceRow(i)
	_, err := s.db.NamedExec(`
		INSERT INTO interfaces (
			id, device_id, name, description, mode, state, duplex,
			vlan_access, vlan_trunk_allowed, native_vlan, ip_address, ip_mask, dhcp_helpers
		) VALUES (
			:id, :device_id, :name, :description, :mode, :state, :duplex,
			:vlan_access, :vlan_trunk_allowed, :native_vlan, :ip_address, :ip_mask, :dhcp_helpers
		)`, row)
	return wrapStorageErr("CreateInterface", err)
}

// UpsertInterface inserts or, if one exists with the same (device_id, name),
// replaces it. Used by config ingestion, which always supplies the full
// interface set for a device.
func (s *Store) UpsertInterface(i *model.Interface) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	row := toInterfaceRow(i)
	_, err := s.db.NamedExec(`
		INSERT INTO interfaces (
			id, device_id, name, description, mode, state, duplex,
			vlan_access, vlan_trunk_allowed, native_vlan, ip_address, ip_mask, dhcp_helpers
		) VALUES (
			:id, :device_id, :name, :description, :mode, :state, :duplex,
			:vlan_access, :vlan_trunk_allowed, :native_vlan, :ip_address, :ip_mask, :dhcp_helpers
		)
		ON CONFLICT (device_id, name) DO UPDATE SET
			description = excluded.description, mode = excluded.mode,
			state = excluded.state, duplex = excluded.duplex,
			vlan_access = excluded.vlan_access, vlan_trunk_allowed = excluded.vlan_trunk_allowed,
			native_vlan = excluded.native_vlan,
			ip_address = excluded.ip_address, ip_mask = excluded.ip_mask,
			dhcp_helpers = excluded.dhcp_helpers`, row)
	return wrapStorageErr("UpsertInterface", err)
}

// ListInterfaces returns every interface on a device, ordered by name.
func (s *Store) ListInterfaces(deviceID string) ([]*model.Interface, error) {
	var rows []interfaceRow
	err := sqlxSelectRows(s.db, &rows, `SELECT * FROM interfaces WHERE device_id = ? ORDER BY name`, deviceID)
	if err != nil {
		return nil, wrapStorageErr("ListInterfaces", err)
	}
	out := make([]*model.Interface, 0, len(rows))
	for _, r := range rows {
		iface, err := fromInterfaceRow(r)
		if err != nil {
			return nil, wrapStorageErr("ListInterfaces", err)
		}
		out = append(out, iface)
	}
	return out, nil
}

// ReplaceInterfaces atomically replaces the full interface set for a device,
// used by config ingestion.
func (s *Store) ReplaceInterfaces(deviceID string, interfaces []*model.Interface) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return wrapStorageErr("ReplaceInterfaces", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM interfaces WHERE device_id = ?`, deviceID); err != nil {
		return wrapStorageErr("ReplaceInterfaces", err)
	}
	for _, i := range interfaces {
		i.DeviceID = deviceID
		if i.ID == "" {
			i.ID = uuid.NewString()
		}
		row := toInterfaceRow(i)
		if _, err := tx.NamedExec(`
			INSERT INTO interfaces (
				id, device_id, name, description, mode, state, duplex,
				vlan_access, vlan_trunk_allowed, native_vlan, ip_address, ip_mask, dhcp_helpers
			) VALUES (
				:id, :device_id, :name, :description, :mode, :state, :duplex,
				:vlan_access, :vlan_trunk_allowed, :native_vlan, :ip_address, :ip_mask, :dhcp_helpers
			)`, row); err != nil {
			return wrapStorageErr("ReplaceInterfaces", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return wrapStorageErr("ReplaceInterfaces", err)
	}
	return nil
}

// sqlxSelectRows is a thin indirection over sqlx.DB.Select. Tests that need
// a sqlmock-backed *sqlx.DB build the Store around it directly rather than
// replacing this function.
func sqlxSelectRows(db *sqlx.DB, dest interface{}, query string, args ...interface{}) error {
	return db.Select(dest, query, args...)
}
