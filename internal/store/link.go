package store

import (
	"time"

	"github.com/google/uuid"

	"netval/pkg/model"
	"netval/pkg/util"
)

type linkRow struct {
	model.Link
	VLANAllowListText string `db:"vlan_allow_list"`
}

func toLinkRow(l *model.Link) linkRow {
	return linkRow{Link: *l, VLANAllowListText: util.CompactRange(l.VLANAllowList)}
}

func fromLinkRow(r linkRow) (*model.Link, error) {
	link := r.Link
	if r.VLANAllowListText != "" {
		vlans, err := util.ExpandRange(r.VLANAllowListText)
		if err != nil {
			return nil, err
		}
		link.VLANAllowList = vlans
	}
	return &link, nil
}

// CreateLink inserts a new link between two devices in the same project.
func (s *Store) CreateLink(l *model.Link) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	l.CreatedAt, l.UpdatedAt = now, now

	row := toLinkRow(l)
	_, err := s.db.NamedExec(`
		INSERT INTO links (
			id, project_id, source_device_id, source_interface,
			target_device_id, target_interface, medium, vlan_allow_list,
			state, created_at, updated_at
		) VALUES (
			:id, :project_id, :source_device_id, :source_interface,
			:target_device_id, :target_interface, :medium, :vlan_allow_list,
			:state, :created_at, :updated_at
		)`, row)
	return wrapStorageErr("CreateLink", err)
}

// ListLinks returns every link in a project.
func (s *Store) ListLinks(projectID string) ([]*model.Link, error) {
	var rows []linkRow
	err := s.db.Select(&rows, `SELECT * FROM links WHERE project_id = ? ORDER BY id`, projectID)
	if err != nil {
		return nil, wrapStorageErr("ListLinks", err)
	}
	out := make([]*model.Link, 0, len(rows))
	for _, r := range rows {
		link, err := fromLinkRow(r)
		if err != nil {
			return nil, wrapStorageErr("ListLinks", err)
		}
		out = append(out, link)
	}
	return out, nil
}

// UpdateLinkState updates only a link's computed state field, used by the
// topology assembler after reconciling both endpoints' trunk configuration.
func (s *Store) UpdateLinkState(id string, state model.LinkState) error {
	res, err := s.db.Exec(`UPDATE links SET state = ?, updated_at = ? WHERE id = ?`,
		state, time.Now().UTC(), id)
	if err != nil {
		return wrapStorageErr("UpdateLinkState", err)
	}
	return checkRowsAffected(res, "UpdateLinkState")
}

// DeleteLink removes a link.
func (s *Store) DeleteLink(projectID, id string) error {
	res, err := s.db.Exec(`DELETE FROM links WHERE id = ? AND project_id = ?`, id, projectID)
	if err != nil {
		return wrapStorageErr("DeleteLink", err)
	}
	return checkRowsAffected(res, "DeleteLink")
}
