package store

import (
	"strings"
	"time"

	"netval/pkg/audit"
	"netval/pkg/model"
)

// InsertAuditLog appends one audit row. Satisfies audit.EntryStore so Store
// can back a audit.StoreLogger directly.
func (s *Store) InsertAuditLog(entry *model.AuditLogEntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	res, err := s.db.NamedExec(`
		INSERT INTO audit_log (project_id, device_id, actor, action, detail, timestamp)
		VALUES (:project_id, :device_id, :actor, :action, :detail, :timestamp)`, entry)
	if err != nil {
		return wrapStorageErr("InsertAuditLog", err)
	}
	id, err := res.LastInsertId()
	if err == nil {
		entry.ID = id
	}
	return nil
}

// QueryAuditLog returns audit rows matching filter, newest first, bounded by
// filter.Limit/Offset. Satisfies audit.EntryStore.
func (s *Store) QueryAuditLog(filter audit.Filter) ([]*model.AuditLogEntry, error) {
	var conditions []string
	var args []interface{}

	if filter.ProjectID != "" {
		conditions = append(conditions, "project_id = ?")
		args = append(args, filter.ProjectID)
	}
	if filter.Device != "" {
		conditions = append(conditions, "device_id = ?")
		args = append(args, filter.Device)
	}
	if filter.Actor != "" {
		conditions = append(conditions, "actor = ?")
		args = append(args, filter.Actor)
	}
	if filter.Operation != "" {
		conditions = append(conditions, "action = ?")
		args = append(args, filter.Operation)
	}
	if !filter.StartTime.IsZero() {
		conditions = append(conditions, "timestamp >= ?")
		args = append(args, filter.StartTime)
	}
	if !filter.EndTime.IsZero() {
		conditions = append(conditions, "timestamp <= ?")
		args = append(args, filter.EndTime)
	}

	query := `SELECT * FROM audit_log`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY timestamp DESC, id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	var entries []*model.AuditLogEntry
	if err := s.db.Select(&entries, query, args...); err != nil {
		return nil, wrapStorageErr("QueryAuditLog", err)
	}
	return entries, nil
}
