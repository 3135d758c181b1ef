package store

import (
	"time"

	"github.com/google/uuid"

	"netval/pkg/model"
	"netval/pkg/util"
)

// CreatePlan inserts a remediation plan together with all of its items in a
// single transaction.
func (s *Store) CreatePlan(plan *model.RemediationPlan) error {
	unlock := s.lockProject(plan.ProjectID)
	defer unlock()

	if plan.ID == "" {
		plan.ID = uuid.NewString()
	}
	plan.CreatedAt = time.Now().UTC()
	if plan.Status == "" {
		plan.Status = model.PlanPending
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return wrapStorageErr("CreatePlan", err)
	}
	defer tx.Rollback()

	if _, err := tx.NamedExec(`
		INSERT INTO remediation_plans (id, project_id, status, created_at, applied_at)
		VALUES (:id, :project_id, :status, :created_at, :applied_at)`, plan); err != nil {
		return wrapStorageErr("CreatePlan", err)
	}

	for i := range plan.Items {
		item := &plan.Items[i]
		item.PlanID = plan.ID
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		if _, err := tx.NamedExec(`
			INSERT INTO remediation_items (
				id, plan_id, device_id, interface, source_check_id, cli_patch, rollback_cli, approved
			) VALUES (
				:id, :plan_id, :device_id, :interface, :source_check_id, :cli_patch, :rollback_cli, :approved
			)`, item); err != nil {
			return wrapStorageErr("CreatePlan", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return wrapStorageErr("CreatePlan", err)
	}
	return nil
}

// GetPlan fetches a plan together with its items.
func (s *Store) GetPlan(id string) (*model.RemediationPlan, error) {
	var plan model.RemediationPlan
	if err := s.db.Get(&plan, `SELECT * FROM remediation_plans WHERE id = ?`, id); err != nil {
		return nil, wrapStorageErr("GetPlan", err)
	}
	items, err := s.listItems(id)
	if err != nil {
		return nil, err
	}
	plan.Items = items
	return &plan, nil
}

func (s *Store) listItems(planID string) ([]model.RemediationItem, error) {
	var items []model.RemediationItem
	err := s.db.Select(&items,
		`SELECT * FROM remediation_items WHERE plan_id = ? ORDER BY id`, planID)
	if err != nil {
		return nil, wrapStorageErr("listItems", err)
	}
	return items, nil
}

// ListPlans returns every plan in a project, newest first.
func (s *Store) ListPlans(projectID string) ([]*model.RemediationPlan, error) {
	var plans []*model.RemediationPlan
	err := s.db.Select(&plans,
		`SELECT * FROM remediation_plans WHERE project_id = ? ORDER BY created_at DESC, id`, projectID)
	if err != nil {
		return nil, wrapStorageErr("ListPlans", err)
	}
	for _, p := range plans {
		items, err := s.listItems(p.ID)
		if err != nil {
			return nil, err
		}
		p.Items = items
	}
	return plans, nil
}

// TransitionPlan moves a plan to a new status, enforcing the legal-transition
// table via model.CanTransition before writing.
func (s *Store) TransitionPlan(id string, to model.PlanStatus) error {
	plan, err := s.GetPlan(id)
	if err != nil {
		return err
	}
	if !model.CanTransition(plan.Status, to) {
		return util.NewPreconditionError("TransitionPlan", id,
			"legal plan state transition", string(plan.Status)+" -> "+string(to))
	}

	query := `UPDATE remediation_plans SET status = ? WHERE id = ?`
	args := []interface{}{to, id}
	if to == model.PlanApplied {
		query = `UPDATE remediation_plans SET status = ?, applied_at = ? WHERE id = ?`
		args = []interface{}{to, time.Now().UTC(), id}
	}

	res, err := s.db.Exec(query, args...)
	if err != nil {
		return wrapStorageErr("TransitionPlan", err)
	}
	return checkRowsAffected(res, "TransitionPlan")
}

// LatestAppliedPlanID returns the id of the most recently applied plan in a
// project, or "" if none is applied. A later successful apply supersedes
// earlier ones as the rollback target.
func (s *Store) LatestAppliedPlanID(projectID string) (string, error) {
	var id string
	err := s.db.Get(&id, `
		SELECT id FROM remediation_plans
		WHERE project_id = ? AND status = ?
		ORDER BY applied_at DESC, id LIMIT 1`, projectID, model.PlanApplied)
	if err != nil {
		if isNoRows(err) {
			return "", nil
		}
		return "", wrapStorageErr("LatestAppliedPlanID", err)
	}
	return id, nil
}

// SetItemApproval toggles whether a single remediation item is approved,
// guarded by PlanStatus.AcceptsApprovalToggle.
func (s *Store) SetItemApproval(planID, itemID string, approved bool) error {
	plan, err := s.GetPlan(planID)
	if err != nil {
		return err
	}
	if !plan.Status.AcceptsApprovalToggle() {
		return util.NewPreconditionError("SetItemApproval", itemID,
			"plan accepts approval changes", string(plan.Status))
	}

	res, err := s.db.Exec(`UPDATE remediation_items SET approved = ? WHERE id = ? AND plan_id = ?`,
		approved, itemID, planID)
	if err != nil {
		return wrapStorageErr("SetItemApproval", err)
	}
	return checkRowsAffected(res, "SetItemApproval")
}
