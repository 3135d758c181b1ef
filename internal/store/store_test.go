package store

import (
	"path/filepath"
	"testing"
	"time"

	"netval/pkg/audit"
	"netval/pkg/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "netval.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_ProjectCRUD(t *testing.T) {
	s := newTestStore(t)

	p := &model.Project{Name: "campus-a", Description: "pilot building"}
	if err := s.CreateProject(p); err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}
	if p.ID == "" {
		t.Fatal("CreateProject should assign an id")
	}

	got, err := s.GetProject(p.ID)
	if err != nil {
		t.Fatalf("GetProject failed: %v", err)
	}
	if got.Name != "campus-a" {
		t.Errorf("Name = %q, want %q", got.Name, "campus-a")
	}

	p.Description = "updated"
	if err := s.UpdateProject(p); err != nil {
		t.Fatalf("UpdateProject failed: %v", err)
	}
	got, _ = s.GetProject(p.ID)
	if got.Description != "updated" {
		t.Errorf("Description = %q, want %q", got.Description, "updated")
	}

	if _, err := s.GetProject("does-not-exist"); err == nil {
		t.Error("GetProject should fail for unknown id")
	}

	if err := s.DeleteProject(p.ID); err != nil {
		t.Fatalf("DeleteProject failed: %v", err)
	}
	if err := s.DeleteProject(p.ID); err == nil {
		t.Error("DeleteProject twice should fail the second time")
	}
}

func TestStore_ProjectListIsSortedDeterministically(t *testing.T) {
	s := newTestStore(t)
	for _, name := range []string{"zeta", "alpha", "mu"} {
		if err := s.CreateProject(&model.Project{Name: name}); err != nil {
			t.Fatalf("CreateProject(%s) failed: %v", name, err)
		}
	}

	projects, err := s.ListProjects()
	if err != nil {
		t.Fatalf("ListProjects failed: %v", err)
	}
	if len(projects) != 3 {
		t.Fatalf("expected 3 projects, got %d", len(projects))
	}
	want := []string{"alpha", "mu", "zeta"}
	for i, p := range projects {
		if p.Name != want[i] {
			t.Errorf("projects[%d] = %q, want %q", i, p.Name, want[i])
		}
	}
}

func TestStore_DeviceAndInterfaceLifecycle(t *testing.T) {
	s := newTestStore(t)
	p := &model.Project{Name: "campus-b"}
	if err := s.CreateProject(p); err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}

	d := &model.Device{ProjectID: p.ID, Hostname: "leaf1", Role: model.RoleSwitch}
	if err := s.CreateDevice(d); err != nil {
		t.Fatalf("CreateDevice failed: %v", err)
	}

	iface := &model.Interface{
		DeviceID: d.ID, Name: "GigabitEthernet0/1", Mode: model.ModeTrunk,
		State: model.StateUp, VLANTrunkAllowed: []int{10, 20, 21, 22, 30},
	}
	if err := s.CreateInterface(iface); err != nil {
		t.Fatalf("CreateInterface failed: %v", err)
	}

	ifaces, err := s.ListInterfaces(d.ID)
	if err != nil {
		t.Fatalf("ListInterfaces failed: %v", err)
	}
	if len(ifaces) != 1 {
		t.Fatalf("expected 1 interface, got %d", len(ifaces))
	}
	got := ifaces[0].VLANTrunkAllowed
	want := []int{10, 20, 21, 22, 30}
	if len(got) != len(want) {
		t.Fatalf("VLANTrunkAllowed = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("VLANTrunkAllowed[%d] = %d, want %d", i, got[i], want[i])
		}
	}

	vlans := []model.DeviceVlan{{VLANID: 10, Name: "data"}, {VLANID: 20, Name: "voice"}}
	if err := s.SetDeviceVLANs(p.ID, d.ID, vlans); err != nil {
		t.Fatalf("SetDeviceVLANs failed: %v", err)
	}
	listed, err := s.ListDeviceVLANs(d.ID)
	if err != nil {
		t.Fatalf("ListDeviceVLANs failed: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("expected 2 vlans, got %d", len(listed))
	}
}

func TestStore_ReplaceInterfacesIsAtomic(t *testing.T) {
	s := newTestStore(t)
	p := &model.Project{Name: "campus-c"}
	s.CreateProject(p)
	d := &model.Device{ProjectID: p.ID, Hostname: "leaf2", Role: model.RoleSwitch}
	s.CreateDevice(d)

	s.CreateInterface(&model.Interface{DeviceID: d.ID, Name: "Ethernet0"})

	replacement := []*model.Interface{
		{Name: "Ethernet1", Mode: model.ModeAccess},
		{Name: "Ethernet2", Mode: model.ModeRouted},
	}
	if err := s.ReplaceInterfaces(d.ID, replacement); err != nil {
		t.Fatalf("ReplaceInterfaces failed: %v", err)
	}

	ifaces, err := s.ListInterfaces(d.ID)
	if err != nil {
		t.Fatalf("ListInterfaces failed: %v", err)
	}
	if len(ifaces) != 2 {
		t.Fatalf("expected 2 interfaces after replace, got %d", len(ifaces))
	}
	if ifaces[0].Name != "Ethernet1" || ifaces[1].Name != "Ethernet2" {
		t.Errorf("unexpected interface names: %v", ifaces)
	}
}

func TestStore_SnapshotUpdatesDeviceConfigHash(t *testing.T) {
	s := newTestStore(t)
	p := &model.Project{Name: "campus-d"}
	s.CreateProject(p)
	d := &model.Device{ProjectID: p.ID, Hostname: "leaf3", Role: model.RoleSwitch}
	s.CreateDevice(d)

	snap := &model.ConfigSnapshot{DeviceID: d.ID, RawConfig: "hostname leaf3", ConfigHash: "abc123", Source: model.SourceUpload}
	if err := s.CreateSnapshot(p.ID, snap); err != nil {
		t.Fatalf("CreateSnapshot failed: %v", err)
	}

	got, _ := s.GetDevice(d.ID)
	if got.ConfigHash == nil || *got.ConfigHash != "abc123" {
		t.Errorf("ConfigHash = %v, want abc123", got.ConfigHash)
	}

	preSnap := &model.ConfigSnapshot{DeviceID: d.ID, RawConfig: "hostname leaf3-pre", ConfigHash: "zzz999", Source: model.SourcePrePush}
	if err := s.CreateSnapshot(p.ID, preSnap); err != nil {
		t.Fatalf("CreateSnapshot (pre_push) failed: %v", err)
	}
	got, _ = s.GetDevice(d.ID)
	if *got.ConfigHash != "abc123" {
		t.Error("pre_push snapshot should not update config_hash")
	}

	history, err := s.ListSnapshots(d.ID)
	if err != nil {
		t.Fatalf("ListSnapshots failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(history))
	}
}

func TestStore_RemediationPlanStateMachine(t *testing.T) {
	s := newTestStore(t)
	p := &model.Project{Name: "campus-e"}
	s.CreateProject(p)
	d := &model.Device{ProjectID: p.ID, Hostname: "leaf4", Role: model.RoleSwitch}
	s.CreateDevice(d)

	plan := &model.RemediationPlan{
		ProjectID: p.ID,
		Items: []model.RemediationItem{
			{DeviceID: d.ID, SourceCheckID: "VLAN_CONTINUITY", CLIPatch: "vlan 30", RollbackCLI: "no vlan 30"},
		},
	}
	if err := s.CreatePlan(plan); err != nil {
		t.Fatalf("CreatePlan failed: %v", err)
	}

	if err := s.TransitionPlan(plan.ID, model.PlanApplying); err == nil {
		t.Error("pending -> applying should be illegal")
	}

	if err := s.TransitionPlan(plan.ID, model.PlanApproved); err != nil {
		t.Fatalf("pending -> approved failed: %v", err)
	}

	got, _ := s.GetPlan(plan.ID)
	if len(got.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(got.Items))
	}
	if err := s.SetItemApproval(plan.ID, got.Items[0].ID, true); err != nil {
		t.Fatalf("SetItemApproval failed: %v", err)
	}

	if err := s.TransitionPlan(plan.ID, model.PlanApplying); err != nil {
		t.Fatalf("approved -> applying failed: %v", err)
	}
	if err := s.TransitionPlan(plan.ID, model.PlanApplied); err != nil {
		t.Fatalf("applying -> applied failed: %v", err)
	}

	got, _ = s.GetPlan(plan.ID)
	if got.AppliedAt == nil {
		t.Error("applied_at should be set once status reaches applied")
	}
	if err := s.SetItemApproval(plan.ID, got.Items[0].ID, false); err == nil {
		t.Error("approval toggle should be rejected once plan is applied")
	}
}

func TestStore_JobLifecycle(t *testing.T) {
	s := newTestStore(t)
	p := &model.Project{Name: "campus-f"}
	s.CreateProject(p)

	job := &model.SimulationJob{ProjectID: p.ID, Kind: model.KindSimulation, Status: model.JobQueued}
	if err := s.CreateJob(job); err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}

	now := time.Now().UTC()
	job.Status = model.JobRunning
	job.StartedAt = &now
	if err := s.UpdateJobStatus(job); err != nil {
		t.Fatalf("UpdateJobStatus failed: %v", err)
	}

	job.Status = model.JobComplete
	job.Result = []byte(`{"findings":[]}`)
	completed := time.Now().UTC()
	job.CompletedAt = &completed
	if err := s.UpdateJobStatus(job); err != nil {
		t.Fatalf("UpdateJobStatus (complete) failed: %v", err)
	}

	got, err := s.GetJob(job.ID)
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if !got.Status.Terminal() {
		t.Error("expected terminal status after complete")
	}
	if string(got.Result) != `{"findings":[]}` {
		t.Errorf("Result = %s", got.Result)
	}
}

func TestStore_AuditLogRoundTripsViaStoreLogger(t *testing.T) {
	s := newTestStore(t)
	p := &model.Project{Name: "campus-g"}
	s.CreateProject(p)

	logger := audit.NewStoreLogger(s)
	event := audit.NewEvent("alice", p.ID, "leaf5", "vlan.create").WithDetail("vlan 40").WithSuccess()
	if err := logger.Log(event); err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	events, err := logger.Query(audit.Filter{ProjectID: p.ID})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 audit event, got %d", len(events))
	}
	if events[0].Operation != "vlan.create" || events[0].Device != "leaf5" {
		t.Errorf("unexpected event: %+v", events[0])
	}
}
