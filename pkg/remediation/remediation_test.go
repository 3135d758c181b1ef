package remediation

import (
	"context"
	"testing"

	"netval/pkg/check"
	"netval/pkg/model"
	"netval/pkg/sshpool"
	"netval/pkg/vault"
)

func TestPlanGroupsByDeviceAndSkipsUntemplatedChecks(t *testing.T) {
	result := &check.AuditResult{
		Findings: []check.CheckResult{
			{CheckID: "VLAN_CONTINUITY", Passed: false, DeviceID: "sw2", SuggestedFix: "vlan 10"},
			{CheckID: "VLAN_CONTINUITY", Passed: false, DeviceID: "sw1", SuggestedFix: "vlan 20"},
			{CheckID: "WLC_JOIN_CHAIN", Passed: false, DeviceID: "wlc1", Detail: "no template for this check id"},
			{CheckID: "VLAN_CONTINUITY", Passed: true, DeviceID: "sw1", SuggestedFix: "vlan 30"},
		},
	}
	plan := Plan("proj1", result)

	if plan.Status != model.PlanPending {
		t.Fatalf("status = %v, want pending", plan.Status)
	}
	if len(plan.Items) != 2 {
		t.Fatalf("expected 2 items (WLC_JOIN_CHAIN has no template, passed finding excluded), got %d: %+v", len(plan.Items), plan.Items)
	}
	if plan.Items[0].DeviceID != "sw1" || plan.Items[1].DeviceID != "sw2" {
		t.Fatalf("expected items sorted by device id, got %+v", plan.Items)
	}
}

func TestVLANContinuityTemplateRendersPatchAndRollback(t *testing.T) {
	f := check.CheckResult{CheckID: "VLAN_CONTINUITY", SuggestedFix: "vlan 42"}
	patch, rollback, ok := vlanContinuityTemplate(f)
	if !ok {
		t.Fatal("expected template to match")
	}
	if patch != "vlan 42\n name VLAN42" {
		t.Fatalf("patch = %q", patch)
	}
	if rollback != "no vlan 42" {
		t.Fatalf("rollback = %q", rollback)
	}
}

func TestApplySkipsUnapprovedItemsAndContinuesPastFailure(t *testing.T) {
	plan := &model.RemediationPlan{
		ID:        "plan1",
		ProjectID: "proj1",
		Items: []model.RemediationItem{
			{DeviceID: "sw1", CLIPatch: "vlan 10", Approved: true},
			{DeviceID: "sw2", CLIPatch: "vlan 20", Approved: false},
		},
	}
	devices := map[string]*model.Device{
		"sw1": {ID: "sw1", ManagementIP: "203.0.113.10"},
	}
	creds := map[string]*vault.Material{
		"sw1": {Username: "admin", Password: "admin"},
	}
	pool := sshpool.New(1)

	var done []string
	result := Apply(context.Background(), pool, plan, devices, creds, func(deviceID, raw string) (string, error) {
		return "snap-" + deviceID, nil
	}, nil, func(dr DeviceResult) {
		done = append(done, dr.DeviceID)
	})

	if len(result.Devices) != 1 {
		t.Fatalf("expected exactly 1 device attempted (sw2 has no approved items), got %+v", result.Devices)
	}
	if result.Devices[0].DeviceID != "sw1" {
		t.Fatalf("expected sw1 attempted, got %+v", result.Devices[0])
	}
	if !result.Failed {
		t.Fatal("expected Failed=true since the unreachable test device cannot actually be dialed")
	}
	if len(done) != 1 || done[0] != "sw1" {
		t.Fatalf("expected one device-complete callback for sw1, got %v", done)
	}
}

func TestRollbackReversesItemOrderWithinDevice(t *testing.T) {
	plan := &model.RemediationPlan{
		ID:        "plan1",
		ProjectID: "proj1",
		Items: []model.RemediationItem{
			{DeviceID: "sw1", CLIPatch: "vlan 10", RollbackCLI: "no vlan 10", Approved: true},
			{DeviceID: "sw1", CLIPatch: "vlan 20", RollbackCLI: "no vlan 20", Approved: true},
		},
	}
	lines := []string{"no vlan 20", "no vlan 10"}

	rendered := func(items []model.RemediationItem) []string {
		out := make([]string, 0, len(items))
		for i := len(items) - 1; i >= 0; i-- {
			out = append(out, items[i].RollbackCLI)
		}
		return out
	}(plan.Items)

	for i, want := range lines {
		if rendered[i] != want {
			t.Fatalf("rollback line %d = %q, want %q", i, rendered[i], want)
		}
	}

	// A rollback against a device with no credentials must report the
	// device as failed without opening a session.
	pool := sshpool.New(1)
	result := Rollback(context.Background(), pool, plan,
		map[string]*model.Device{"sw1": {ID: "sw1"}},
		map[string]*vault.Material{},
		func(deviceID, raw string) (string, error) { return "", nil }, nil, nil)
	if !result.Failed || len(result.Devices) != 1 || result.Devices[0].Success {
		t.Fatalf("expected single failed device result, got %+v", result)
	}
}
