package model

import "time"

// LinkMedium is the physical medium of a Link.
type LinkMedium string

const (
	MediumEthernet LinkMedium = "ethernet"
	MediumFiber    LinkMedium = "fiber"
)

// LinkState tracks whether a Link's endpoints agree on trunking parameters.
type LinkState string

const (
	LinkPending       LinkState = "pending"
	LinkConnected     LinkState = "connected"
	LinkMisconfigured LinkState = "misconfigured"
)

// Link is undirected in semantics even though SourceDeviceID/TargetDeviceID
// are ordered. Both endpoint devices must belong to ProjectID; the store
// enforces that at write time.
type Link struct {
	ID              string     `json:"id" db:"id"`
	ProjectID       string     `json:"project_id" db:"project_id"`
	SourceDeviceID  string     `json:"source_device_id" db:"source_device_id"`
	SourceInterface string     `json:"source_interface" db:"source_interface"`
	TargetDeviceID  string     `json:"target_device_id" db:"target_device_id"`
	TargetInterface string     `json:"target_interface" db:"target_interface"`
	Medium          LinkMedium `json:"medium" db:"medium"`
	VLANAllowList   []int      `json:"vlan_allow_list" db:"-"`
	State           LinkState  `json:"state" db:"state"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// OtherEnd returns the device id and interface name at the end of the link
// opposite deviceID. ok is false if deviceID is not one of the link's
// endpoints.
func (l *Link) OtherEnd(deviceID string) (otherDevice, otherInterface string, ok bool) {
	switch deviceID {
	case l.SourceDeviceID:
		return l.TargetDeviceID, l.TargetInterface, true
	case l.TargetDeviceID:
		return l.SourceDeviceID, l.SourceInterface, true
	default:
		return "", "", false
	}
}

// InterfaceOn returns the interface name this link uses on deviceID.
func (l *Link) InterfaceOn(deviceID string) (string, bool) {
	switch deviceID {
	case l.SourceDeviceID:
		return l.SourceInterface, true
	case l.TargetDeviceID:
		return l.TargetInterface, true
	default:
		return "", false
	}
}
