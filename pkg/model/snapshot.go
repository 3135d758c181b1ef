package model

import "time"

// SnapshotSource records how a ConfigSnapshot came to exist.
type SnapshotSource string

const (
	SourceManual  SnapshotSource = "manual"
	SourceUpload  SnapshotSource = "upload"
	SourceSSH     SnapshotSource = "ssh"
	SourcePrePush SnapshotSource = "pre_push"
)

// ConfigSnapshot is an immutable, append-only text copy of a device's full
// running configuration at a point in time. A pre_push snapshot is always
// written before a remediation push and is the rollback target.
type ConfigSnapshot struct {
	ID         string         `json:"id" db:"id"`
	DeviceID   string         `json:"device_id" db:"device_id"`
	RawConfig  string         `json:"raw_config" db:"raw_config"`
	ConfigHash string         `json:"config_hash" db:"config_hash"`
	Source     SnapshotSource `json:"source" db:"source"`
	TakenAt    time.Time      `json:"taken_at" db:"taken_at"`
}

// CountsTowardConfigHash reports whether a snapshot from this source updates
// Device.ConfigHash.
func (s SnapshotSource) CountsTowardConfigHash() bool {
	return s != SourcePrePush
}
