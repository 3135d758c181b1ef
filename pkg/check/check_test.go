package check

import (
	"testing"

	"netval/pkg/model"
	"netval/pkg/topology"
)

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

func intPtr(i int) *int { return &i }

func cleanTopology() *fakeStore {
	return &fakeStore{
		routes: map[string][]model.StaticRoute{},
		devices: map[string][]*model.Device{
			"p1": {
				{ID: "ap1", Hostname: "AP1", Role: model.RoleAP},
				{ID: "sw-access", Hostname: "SW-ACCESS", Role: model.RoleSwitch, ManagementIP: "10.0.0.2"},
				{ID: "sw-core", Hostname: "SW-CORE", Role: model.RoleSwitch, ManagementIP: "10.0.0.1"},
				{ID: "wlc1", Hostname: "WLC1", Role: model.RoleWLC, ManagementIP: "10.0.0.3"},
			},
		},
		vlans: map[string][]model.DeviceVlan{
			"sw-access": {{DeviceID: "sw-access", VLANID: 10}, {DeviceID: "sw-access", VLANID: 20}},
			"sw-core":   {{DeviceID: "sw-core", VLANID: 10}, {DeviceID: "sw-core", VLANID: 20}},
			"wlc1":      {{DeviceID: "wlc1", VLANID: 10}, {DeviceID: "wlc1", VLANID: 20}},
		},
		ifaces: map[string][]*model.Interface{
			"ap1": {
				{ID: "ap1-gi01", DeviceID: "ap1", Name: "Gi0/1", Mode: model.ModeAccess, VLANAccess: intPtr(20)},
			},
			"sw-access": {
				{ID: "swa-gi01", DeviceID: "sw-access", Name: "Gi0/1", Mode: model.ModeAccess, VLANAccess: intPtr(20)},
				{ID: "swa-gi024", DeviceID: "sw-access", Name: "Gi0/24", Mode: model.ModeTrunk, NativeVLAN: intPtr(1)},
				{ID: "swa-vlan10", DeviceID: "sw-access", Name: "Vlan10", Mode: model.ModeRouted,
					IPAddress: "10.0.0.1", IPMask: "255.255.255.0", DHCPHelpers: []string{"10.0.0.1"}},
			},
			"sw-core": {
				{ID: "swc-gi01", DeviceID: "sw-core", Name: "Gi0/1", Mode: model.ModeTrunk, NativeVLAN: intPtr(1)},
				{ID: "swc-gi02", DeviceID: "sw-core", Name: "Gi0/2", Mode: model.ModeTrunk, NativeVLAN: intPtr(1)},
			},
			"wlc1": {
				{ID: "wlc-gi01", DeviceID: "wlc1", Name: "Gi0/1", Mode: model.ModeTrunk, NativeVLAN: intPtr(1)},
			},
		},
		links: map[string][]*model.Link{
			"p1": {
				{ID: "l1", ProjectID: "p1", SourceDeviceID: "ap1", SourceInterface: "Gi0/1",
					TargetDeviceID: "sw-access", TargetInterface: "Gi0/1"},
				{ID: "l2", ProjectID: "p1", SourceDeviceID: "sw-access", SourceInterface: "Gi0/24",
					TargetDeviceID: "sw-core", TargetInterface: "Gi0/1", VLANAllowList: []int{10, 20}},
				{ID: "l3", ProjectID: "p1", SourceDeviceID: "sw-core", SourceInterface: "Gi0/2",
					TargetDeviceID: "wlc1", TargetInterface: "Gi0/1", VLANAllowList: []int{10, 20}},
			},
		},
	}
}

func buildGraph(t *testing.T, s *fakeStore) *topology.Graph {
	t.Helper()
	g, err := topology.Assemble(s, "p1")
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	return g
}

func TestRunProducesDeterministicOrderedFindings(t *testing.T) {
	g := buildGraph(t, cleanTopology())
	result := Run(g)
	if len(result.Findings) != len(Registry()) {
		t.Fatalf("expected one finding per check on a clean topology, got %d", len(result.Findings))
	}
	for i := 1; i < len(result.Findings); i++ {
		if result.Findings[i-1].CheckID > result.Findings[i].CheckID {
			t.Fatalf("findings not sorted by check id: %v", result.Findings)
		}
	}
}

func TestWLCJoinChainPassesOnCleanTopology(t *testing.T) {
	g := buildGraph(t, cleanTopology())
	c := &WLCJoinChainCheck{}
	results := c.Run(g)
	for _, r := range results {
		if !r.Passed {
			t.Fatalf("expected pass, got failing finding: %+v", r)
		}
	}
}

func TestWLCJoinChainFailsWhenVLANMissingFromHop(t *testing.T) {
	s := cleanTopology()
	s.links["p1"][1].VLANAllowList = []int{10} // drop 20 from SW-ACCESS -> SW-CORE
	g := buildGraph(t, s)
	c := &WLCJoinChainCheck{}
	results := c.Run(g)
	found := false
	for _, r := range results {
		if !r.Passed {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a failing finding when AP VLAN is missing from a trunk hop")
	}
}

func TestTrunkNativeMismatchDetectsDisagreement(t *testing.T) {
	s := cleanTopology()
	s.ifaces["sw-core"][0].NativeVLAN = intPtr(99)
	g := buildGraph(t, s)
	c := &TrunkNativeMismatchCheck{}
	results := c.Run(g)
	if len(results) != 1 || results[0].Passed {
		t.Fatalf("expected one failing finding, got %+v", results)
	}
}

func TestDuplexMismatchSkipsAutoAndUnknown(t *testing.T) {
	s := cleanTopology()
	s.ifaces["sw-access"][0].Duplex = model.DuplexAuto
	s.ifaces["ap1"][0].Duplex = model.DuplexAuto
	g := buildGraph(t, s)
	c := &DuplexMismatchCheck{}
	results := c.Run(g)
	if len(results) != 1 || !results[0].Passed {
		t.Fatalf("expected auto duplex on both sides to be skipped, got %+v", results)
	}
}

func TestDuplexMismatchDetectsExplicitDisagreement(t *testing.T) {
	s := cleanTopology()
	s.ifaces["sw-access"][0].Duplex = model.DuplexFull
	s.ifaces["ap1"][0].Duplex = model.DuplexHalf
	g := buildGraph(t, s)
	c := &DuplexMismatchCheck{}
	results := c.Run(g)
	if len(results) != 1 || results[0].Passed {
		t.Fatalf("expected a duplex mismatch finding, got %+v", results)
	}
}

func TestRoutingBlackholeDetectsUnresolvableNextHop(t *testing.T) {
	s := cleanTopology()
	s.routes["sw-access"] = []model.StaticRoute{
		{ID: "r1", DeviceID: "sw-access", Prefix: "192.168.1.0", Mask: "255.255.255.0", NextHop: "172.16.0.1"},
	}
	g := buildGraph(t, s)
	c := &RoutingBlackholeCheck{}
	results := c.Run(g)
	if len(results) != 1 || results[0].Passed {
		t.Fatalf("expected a blackhole finding, got %+v", results)
	}
}

func TestRoutingBlackholePassesWhenNextHopResolves(t *testing.T) {
	s := cleanTopology()
	s.routes["sw-access"] = []model.StaticRoute{
		{ID: "r1", DeviceID: "sw-access", Prefix: "192.168.1.0", Mask: "255.255.255.0", NextHop: "10.0.0.254"},
	}
	g := buildGraph(t, s)
	c := &RoutingBlackholeCheck{}
	results := c.Run(g)
	if len(results) != 1 || !results[0].Passed {
		t.Fatalf("expected a passing finding, got %+v", results)
	}
}

func TestDHCPReachabilityWarnsWhenNoHelper(t *testing.T) {
	s := cleanTopology()
	s.ifaces["sw-access"][2].DHCPHelpers = nil
	g := buildGraph(t, s)
	c := &DHCPReachabilityCheck{}
	results := c.Run(g)
	if len(results) != 1 || results[0].Passed || results[0].Severity != SeverityWarning {
		t.Fatalf("expected one warning finding, got %+v", results)
	}
}

func TestVLANOrphanSVIDetectsMissingVLAN(t *testing.T) {
	s := cleanTopology()
	s.ifaces["sw-access"][2].Name = "Vlan999"
	g := buildGraph(t, s)
	c := &VLANOrphanSVICheck{}
	results := c.Run(g)
	if len(results) != 1 || results[0].Passed {
		t.Fatalf("expected an orphan SVI finding, got %+v", results)
	}
}

func TestMgmtSSHPathPassesWhenReachable(t *testing.T) {
	g := buildGraph(t, cleanTopology())
	c := &MgmtSSHPathCheck{}
	results := c.Run(g)
	for _, r := range results {
		if !r.Passed {
			t.Fatalf("expected pass, got failing finding: %+v", r)
		}
	}
}
