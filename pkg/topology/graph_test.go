package topology

import (
	"testing"

	"netval/pkg/model"
)

// fakeStore is a minimal in-memory DataStore for assembler tests.
type fakeStore struct {
	devices map[string][]*model.Device
	ifaces  map[string][]*model.Interface
	vlans   map[string][]model.DeviceVlan
	links   map[string][]*model.Link
	routes  map[string][]model.StaticRoute
}

func (f *fakeStore) ListDevices(projectID string) ([]*model.Device, error) { return f.devices[projectID], nil }
func (f *fakeStore) ListInterfaces(deviceID string) ([]*model.Interface, error) {
	return f.ifaces[deviceID], nil
}
func (f *fakeStore) ListDeviceVLANs(deviceID string) ([]model.DeviceVlan, error) {
	return f.vlans[deviceID], nil
}
func (f *fakeStore) ListLinks(projectID string) ([]*model.Link, error) { return f.links[projectID], nil }
func (f *fakeStore) ListStaticRoutes(deviceID string) ([]model.StaticRoute, error) {
	return f.routes[deviceID], nil
}

func chainTopology() *fakeStore {
	// AP --- SW-ACCESS --- SW-CORE --- WLC
	return &fakeStore{
		devices: map[string][]*model.Device{
			"p1": {
				{ID: "ap1", Hostname: "AP1", Role: model.RoleAP},
				{ID: "sw-access", Hostname: "SW-ACCESS", Role: model.RoleSwitch},
				{ID: "sw-core", Hostname: "SW-CORE", Role: model.RoleSwitch},
				{ID: "wlc1", Hostname: "WLC1", Role: model.RoleWLC},
			},
		},
		vlans: map[string][]model.DeviceVlan{
			"sw-access": {{DeviceID: "sw-access", VLANID: 10}, {DeviceID: "sw-access", VLANID: 20}},
			"sw-core":   {{DeviceID: "sw-core", VLANID: 10}, {DeviceID: "sw-core", VLANID: 20}},
		},
		links: map[string][]*model.Link{
			"p1": {
				{ID: "l1", ProjectID: "p1", SourceDeviceID: "ap1", SourceInterface: "Gi0/1",
					TargetDeviceID: "sw-access", TargetInterface: "Gi0/1"},
				{ID: "l2", ProjectID: "p1", SourceDeviceID: "sw-access", SourceInterface: "Gi0/24",
					TargetDeviceID: "sw-core", TargetInterface: "Gi0/1", VLANAllowList: []int{10, 20}},
				{ID: "l3", ProjectID: "p1", SourceDeviceID: "sw-core", SourceInterface: "Gi0/2",
					TargetDeviceID: "wlc1", TargetInterface: "Gi0/1", VLANAllowList: []int{10}},
			},
		},
	}
}

func TestAssembleBuildsNodesAndEdges(t *testing.T) {
	g, err := Assemble(chainTopology(), "p1")
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(g.DeviceIDs()) != 4 {
		t.Fatalf("expected 4 devices, got %d", len(g.DeviceIDs()))
	}
	if !g.Node("sw-access").HasVLAN(10) {
		t.Error("expected sw-access to have VLAN 10")
	}
	if len(g.AllEdges()) != 3 {
		t.Fatalf("expected 3 edges, got %d", len(g.AllEdges()))
	}
}

func TestShortestPathFindsChain(t *testing.T) {
	g, err := Assemble(chainTopology(), "p1")
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	path, edges, ok := g.ShortestPath("ap1", "wlc1")
	if !ok {
		t.Fatal("expected a path from ap1 to wlc1")
	}
	want := []string{"ap1", "sw-access", "sw-core", "wlc1"}
	if len(path) != len(want) {
		t.Fatalf("path = %v, want %v", path, want)
	}
	for i := range want {
		if path[i] != want[i] {
			t.Fatalf("path = %v, want %v", path, want)
		}
	}
	if len(edges) != 3 {
		t.Fatalf("expected 3 edges traversed, got %d", len(edges))
	}
}

func TestShortestPathNoPath(t *testing.T) {
	s := chainTopology()
	s.devices["p1"] = append(s.devices["p1"], &model.Device{ID: "isolated", Hostname: "ISO", Role: model.RoleSwitch})
	g, err := Assemble(s, "p1")
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if _, _, ok := g.ShortestPath("ap1", "isolated"); ok {
		t.Error("expected no path to isolated device")
	}
}

func TestReachabilityMatrixIsSelfReachable(t *testing.T) {
	g, err := Assemble(chainTopology(), "p1")
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	m := g.ReachabilityMatrix()
	if !m["AP1"]["AP1"] {
		t.Error("expected a device to reach itself")
	}
	if !m["AP1"]["WLC1"] {
		t.Error("expected AP1 to reach WLC1 through the chain")
	}
}

func TestNodesByRole(t *testing.T) {
	g, err := Assemble(chainTopology(), "p1")
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	aps := g.NodesByRole(model.RoleAP)
	if len(aps) != 1 || aps[0].Device.Hostname != "AP1" {
		t.Fatalf("expected exactly AP1, got %v", aps)
	}
}
