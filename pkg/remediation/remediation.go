// Package remediation turns a validation AuditResult into a concrete,
// per-device CLI patch plan — each item carrying its inverse rollback CLI —
// and applies or unwinds it through the SSH pool, with the
// approve/apply/rollback lifecycle guarded by model.CanTransition.
package remediation

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"netval/pkg/check"
	"netval/pkg/model"
	"netval/pkg/sshpool"
	"netval/pkg/util"
	"netval/pkg/vault"
)

// template renders a CLI patch and its inverse rollback for one failed
// CheckResult. Not every check id has a template: a finding with no
// registered template produces no RemediationItem (it still appears in the
// AuditResult, just not in the plan).
type template func(f check.CheckResult) (cliPatch, rollbackCLI string, ok bool)

// templates is keyed by CheckID, following the same fixed-registry
// discipline as pkg/check's own Check registry: at most one well-known
// template per check, consulted deterministically rather than pattern-matched.
var templates = map[string]template{
	"VLAN_CONTINUITY":        vlanContinuityTemplate,
	"VLAN_ORPHAN_SVI":        vlanOrphanSVITemplate,
	"TRUNK_NATIVE_MISMATCH":  trunkNativeMismatchTemplate,
	"DUPLEX_MISMATCH":        duplexMismatchTemplate,
	"DHCP_REACHABILITY":      dhcpReachabilityTemplate,
}

// vlanIDFromDetail extracts the first integer found in a CheckResult's
// detail/suggested_fix text. Templates key off SuggestedFix, which every
// check already renders as a literal CLI fragment; parsing it back out keeps the template table independent of each
// check's internal finding shape.
func vlanIDFromDetail(s string) (int, bool) {
	var n int
	var found bool
	start := -1
	for i := 0; i <= len(s); i++ {
		isDigit := i < len(s) && s[i] >= '0' && s[i] <= '9'
		if isDigit && start == -1 {
			start = i
		}
		if !isDigit && start != -1 {
			fmt.Sscanf(s[start:i], "%d", &n)
			found = true
			break
		}
	}
	return n, found
}

func vlanContinuityTemplate(f check.CheckResult) (string, string, bool) {
	vlanID, ok := vlanIDFromDetail(f.SuggestedFix)
	if !ok {
		return "", "", false
	}
	return fmt.Sprintf("vlan %d\n name VLAN%d", vlanID, vlanID), fmt.Sprintf("no vlan %d", vlanID), true
}

func vlanOrphanSVITemplate(f check.CheckResult) (string, string, bool) {
	vlanID, ok := vlanIDFromDetail(f.SuggestedFix)
	if !ok {
		return "", "", false
	}
	return fmt.Sprintf("vlan %d\n name VLAN%d", vlanID, vlanID), fmt.Sprintf("no vlan %d", vlanID), true
}

func trunkNativeMismatchTemplate(f check.CheckResult) (string, string, bool) {
	if f.Interface == "" {
		return "", "", false
	}
	return fmt.Sprintf("interface %s\n %s", f.Interface, f.SuggestedFix),
		fmt.Sprintf("interface %s\n no switchport trunk native vlan", f.Interface), true
}

func duplexMismatchTemplate(f check.CheckResult) (string, string, bool) {
	if f.Interface == "" {
		return "", "", false
	}
	return fmt.Sprintf("interface %s\n %s", f.Interface, f.SuggestedFix),
		fmt.Sprintf("interface %s\n duplex auto", f.Interface), true
}

func dhcpReachabilityTemplate(f check.CheckResult) (string, string, bool) {
	if f.Interface == "" || f.SuggestedFix == "" {
		return "", "", false
	}
	return fmt.Sprintf("interface %s\n %s", f.Interface, f.SuggestedFix),
		fmt.Sprintf("interface %s\n no ip helper-address", f.Interface), true
}

// Plan builds a RemediationPlan in status=pending from every failed finding
// in result that has a registered template, grouped by device in
// deterministic (device id, then source check id) order.
func Plan(projectID string, result *check.AuditResult) *model.RemediationPlan {
	plan := &model.RemediationPlan{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Status:    model.PlanPending,
	}

	var items []model.RemediationItem
	for _, f := range result.Findings {
		if f.Passed {
			continue
		}
		tmpl, ok := templates[f.CheckID]
		if !ok {
			continue
		}
		patch, rollback, ok := tmpl(f)
		if !ok {
			continue
		}
		item := model.RemediationItem{
			ID:            uuid.NewString(),
			PlanID:        plan.ID,
			DeviceID:      f.DeviceID,
			SourceCheckID: f.CheckID,
			CLIPatch:      patch,
			RollbackCLI:   rollback,
		}
		if f.Interface != "" {
			iface := f.Interface
			item.Interface = &iface
		}
		items = append(items, item)
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].DeviceID != items[j].DeviceID {
			return items[i].DeviceID < items[j].DeviceID
		}
		return items[i].SourceCheckID < items[j].SourceCheckID
	})
	plan.Items = items
	return plan
}

// DeviceResult is the per-device outcome of an Apply call.
type DeviceResult struct {
	DeviceID string
	Success  bool
	Err      error
}

// ApplyResult is the overall outcome of applying a plan.
type ApplyResult struct {
	Devices []DeviceResult
	Failed  bool
}

// SnapshotFunc persists a pre_push ConfigSnapshot and returns its id, wired
// through from the caller (internal/store owns persistence, not this
// package).
type SnapshotFunc func(deviceID, rawConfig string) (string, error)

// DeviceDoneFunc is invoked once per device as its push finishes, for the
// caller to emit a push_device_complete event. May be nil.
type DeviceDoneFunc func(r DeviceResult)

// Apply sends each device's approved items' concatenated cli_patches
// through pool, device by device, in device-id order. Progress is
// streamed via progress. On any device failure, subsequent devices still
// proceed; the overall result is Failed if any device failed.
func Apply(ctx context.Context, pool *sshpool.Pool, plan *model.RemediationPlan, devices map[string]*model.Device, creds map[string]*vault.Material, snapshot SnapshotFunc, progress sshpool.ProgressFunc, deviceDone DeviceDoneFunc) *ApplyResult {
	return pushPlan(ctx, pool, plan, devices, creds, snapshot, progress, deviceDone, func(items []model.RemediationItem) []string {
		lines := make([]string, 0, len(items))
		for _, item := range items {
			lines = append(lines, item.CLIPatch)
		}
		return lines
	})
}

// Rollback pushes each device's approved items' rollback_cli, reversing the
// per-device item order so patches unwind last-applied-first. Concatenated
// and pushed, the rollback lines restore the pre-push snapshot's relevant
// stanza; like Apply, a device failure does not stop
// the remaining devices.
func Rollback(ctx context.Context, pool *sshpool.Pool, plan *model.RemediationPlan, devices map[string]*model.Device, creds map[string]*vault.Material, snapshot SnapshotFunc, progress sshpool.ProgressFunc, deviceDone DeviceDoneFunc) *ApplyResult {
	return pushPlan(ctx, pool, plan, devices, creds, snapshot, progress, deviceDone, func(items []model.RemediationItem) []string {
		lines := make([]string, 0, len(items))
		for i := len(items) - 1; i >= 0; i-- {
			lines = append(lines, items[i].RollbackCLI)
		}
		return lines
	})
}

// pushPlan is the shared device-by-device push loop behind Apply and
// Rollback; render selects which CLI each device's item group contributes.
func pushPlan(ctx context.Context, pool *sshpool.Pool, plan *model.RemediationPlan, devices map[string]*model.Device, creds map[string]*vault.Material, snapshot SnapshotFunc, progress sshpool.ProgressFunc, deviceDone DeviceDoneFunc, render func(items []model.RemediationItem) []string) *ApplyResult {
	result := &ApplyResult{}

	record := func(dr DeviceResult) {
		result.Devices = append(result.Devices, dr)
		if !dr.Success {
			result.Failed = true
		}
		if deviceDone != nil {
			deviceDone(dr)
		}
	}

	byDevice := make(map[string][]model.RemediationItem)
	var order []string
	for _, item := range plan.Items {
		if !item.Approved {
			continue
		}
		if _, seen := byDevice[item.DeviceID]; !seen {
			order = append(order, item.DeviceID)
		}
		byDevice[item.DeviceID] = append(byDevice[item.DeviceID], item)
	}
	sort.Strings(order)

	for _, deviceID := range order {
		device, ok := devices[deviceID]
		if !ok {
			record(DeviceResult{DeviceID: deviceID, Success: false, Err: util.ErrNotFound})
			continue
		}
		cred := creds[deviceID]
		if cred == nil {
			record(DeviceResult{DeviceID: deviceID, Success: false, Err: util.ErrDependencyMissing})
			continue
		}

		pushResult := pool.Push(ctx, device, cred, render(byDevice[deviceID]), true, func(raw string) (string, error) {
			return snapshot(deviceID, raw)
		}, progress)

		record(DeviceResult{DeviceID: deviceID, Success: pushResult.Success, Err: pushResult.Err})
	}

	return result
}
