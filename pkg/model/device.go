package model

import "time"

// DeviceRole enumerates the kinds of network element the topology can model.
type DeviceRole string

const (
	RoleSwitch   DeviceRole = "switch"
	RoleRouter   DeviceRole = "router"
	RoleWLC      DeviceRole = "wlc"
	RoleAP       DeviceRole = "ap"
	RoleFirewall DeviceRole = "firewall"
	RoleEndpoint DeviceRole = "endpoint"
)

// Valid reports whether r is one of the recognized device roles.
func (r DeviceRole) Valid() bool {
	switch r {
	case RoleSwitch, RoleRouter, RoleWLC, RoleAP, RoleFirewall, RoleEndpoint:
		return true
	}
	return false
}

// Device is a single network element owned by exactly one Project.
//
// CredentialRef is an opaque key into the vault, never plaintext material.
// ConfigHash mirrors the content hash of the device's most recent full
// config snapshot (source in {upload, ssh, manual}); it is nil when no such
// snapshot exists yet.
type Device struct {
	ID            string     `json:"id" db:"id"`
	ProjectID     string     `json:"project_id" db:"project_id"`
	Hostname      string     `json:"hostname" db:"hostname"`
	Role          DeviceRole `json:"role" db:"role"`
	Vendor        string     `json:"vendor" db:"vendor"`
	Platform      string     `json:"platform" db:"platform"`
	ManagementIP  string     `json:"management_ip" db:"management_ip"`
	CanvasX       float64    `json:"canvas_x" db:"canvas_x"`
	CanvasY       float64    `json:"canvas_y" db:"canvas_y"`
	CredentialRef *string    `json:"credential_ref,omitempty" db:"credential_ref"`
	ConfigHash    *string    `json:"config_hash,omitempty" db:"config_hash"`
	// Notes is free-text operator annotation. Not load-bearing for any
	// invariant or check.
	Notes     string    `json:"notes,omitempty" db:"notes"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
