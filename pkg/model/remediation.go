package model

import "time"

// PlanStatus is a state in the remediation plan lifecycle:
//
//	pending --approve--> approved --apply--> applying --success--> applied
//	                                             |
//	                                             +--failure--> failed
//	applied --rollback--> rolled_back
type PlanStatus string

const (
	PlanPending     PlanStatus = "pending"
	PlanApproved    PlanStatus = "approved"
	PlanApplying    PlanStatus = "applying"
	PlanApplied     PlanStatus = "applied"
	PlanRolledBack  PlanStatus = "rolled_back"
	PlanFailed      PlanStatus = "failed"
)

// planTransitions enumerates the legal PlanStatus transitions.
var planTransitions = map[PlanStatus][]PlanStatus{
	PlanPending:  {PlanApproved},
	PlanApproved: {PlanApplying},
	PlanApplying: {PlanApplied, PlanFailed},
	PlanApplied:  {PlanRolledBack},
}

// CanTransition reports whether moving a plan from `from` to `to` is legal.
func CanTransition(from, to PlanStatus) bool {
	for _, allowed := range planTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// AcceptsApprovalToggle reports whether individual item approval may still
// be changed while the plan is in status s: only pending and approved.
func (s PlanStatus) AcceptsApprovalToggle() bool {
	return s == PlanPending || s == PlanApproved
}

// RemediationPlan groups a set of per-device CLI patches produced from one
// AuditResult's failed findings.
type RemediationPlan struct {
	ID        string             `json:"id" db:"id"`
	ProjectID string             `json:"project_id" db:"project_id"`
	Items     []RemediationItem  `json:"items" db:"-"`
	Status    PlanStatus         `json:"status" db:"status"`
	CreatedAt time.Time          `json:"created_at" db:"created_at"`
	AppliedAt *time.Time         `json:"applied_at,omitempty" db:"applied_at"`
}

// RemediationItem is one CLI patch, and its inverse, for a single finding.
type RemediationItem struct {
	ID            string  `json:"id" db:"id"`
	PlanID        string  `json:"plan_id" db:"plan_id"`
	DeviceID      string  `json:"device_id" db:"device_id"`
	Interface     *string `json:"interface,omitempty" db:"interface"`
	SourceCheckID string  `json:"source_check_id" db:"source_check_id"`
	CLIPatch      string  `json:"cli_patch" db:"cli_patch"`
	RollbackCLI   string  `json:"rollback_cli" db:"rollback_cli"`
	Approved      bool    `json:"approved" db:"approved"`
}
