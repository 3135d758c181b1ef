package check

import (
	"fmt"

	"netval/pkg/model"
	"netval/pkg/topology"
)

// WLCJoinChainCheck verifies the wireless join chain: for every (AP, WLC)
// pair, a path must exist and the AP's access VLAN must be carried on every
// trunk hop along that path.
type WLCJoinChainCheck struct{}

func (c *WLCJoinChainCheck) CheckID() string { return "WLC_JOIN_CHAIN" }
func (c *WLCJoinChainCheck) Name() string { return "wireless controller join chain" }
func (c *WLCJoinChainCheck) DefaultSeverity() Severity { return SeverityError }

func (c *WLCJoinChainCheck) Run(g *topology.Graph) []CheckResult {
	aps := g.NodesByRole(model.RoleAP)
	wlcs := g.NodesByRole(model.RoleWLC)

	// Step 1: if either set is empty, no findings.
	if len(aps) == 0 || len(wlcs) == 0 {
		return nil
	}

	var results []CheckResult
	for _, ap := range aps {
		// Step 2: identify the AP's uplink — its single access-mode port
		// whose link peer is a switch.
		vA, ok := apUplinkVLAN(g, ap)
		if !ok {
			results = append(results, CheckResult{
				CheckID:  c.CheckID(),
				Severity: c.DefaultSeverity(),
				Passed:   false,
				DeviceID: ap.Device.ID,
				Detail:   "AP uplink has no access VLAN.",
			})
			continue
		}

		for _, wlc := range wlcs {
			results = append(results, c.checkPair(g, ap, wlc, vA)...)
		}
	}
	return results
}

// apUplinkVLAN finds the AP's single access-mode port whose link peer is a
// switch and returns its access VLAN.
func apUplinkVLAN(g *topology.Graph, ap *topology.Node) (int, bool) {
	var found *int
	count := 0
	for _, e := range g.Edges(ap.Device.ID) {
		ifaceName, ok := e.InterfaceOn(ap.Device.ID)
		if !ok {
			continue
		}
		iface := ap.Interfaces[ifaceName]
		if iface == nil || iface.Mode != model.ModeAccess || iface.VLANAccess == nil {
			continue
		}
		otherID, _, ok := e.OtherEnd(ap.Device.ID)
		if !ok {
			continue
		}
		peer := g.Node(otherID)
		if peer == nil || peer.Device.Role != model.RoleSwitch {
			continue
		}
		count++
		found = iface.VLANAccess
	}
	if count != 1 || found == nil {
		return 0, false
	}
	return *found, true
}

// checkPair runs steps 3-5 of the algorithm for one (AP, WLC) pair.
func (c *WLCJoinChainCheck) checkPair(g *topology.Graph, ap, wlc *topology.Node, vA int) []CheckResult {
	path, edges, ok := g.ShortestPath(ap.Device.ID, wlc.Device.ID)
	if !ok {
		return []CheckResult{{
			CheckID:  c.CheckID(),
			Severity: c.DefaultSeverity(),
			Passed:   false,
			DeviceID: ap.Device.ID,
			Detail:   fmt.Sprintf("no path from %s to %s.", ap.Device.Hostname, wlc.Device.Hostname),
		}}
	}

	// Hop numbers count only the trunk hops actually checked (edges with a
	// non-empty allow-list); the AP's own access-mode uplink edge never
	// carries one and is not counted.
	hopNum := 0
	for i, e := range edges {
		if len(e.VLANAllowList) == 0 {
			continue
		}
		hopNum++
		if !e.AllowsVLAN(vA) {
			// The fix lands on the near-side switch of the failing hop.
			hopDeviceID := path[i]
			hopNode := g.Node(hopDeviceID)
			hopHost := hopDeviceID
			if hopNode != nil {
				hopHost = hopNode.Device.Hostname
			}
			return []CheckResult{{
				CheckID:      c.CheckID(),
				Severity:     c.DefaultSeverity(),
				Passed:       false,
				DeviceID:     hopDeviceID,
				Detail:       fmt.Sprintf("AP VLAN %d missing from trunk at hop %d (%s).", vA, hopNum, hopHost),
				SuggestedFix: fmt.Sprintf("switchport trunk allowed vlan add %d", vA),
			}}
		}
	}

	return []CheckResult{{
		CheckID:  c.CheckID(),
		Severity: SeverityInfo,
		Passed:   true,
		DeviceID: ap.Device.ID,
		Detail:   fmt.Sprintf("%s can join %s: VLAN %d carried on every hop.", ap.Device.Hostname, wlc.Device.Hostname, vA),
	}}
}
