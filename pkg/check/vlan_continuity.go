package check

import (
	"fmt"

	"netval/pkg/topology"
)

// VLANContinuityCheck verifies that every VLAN in an edge's allow-list is
// present in both endpoints' VLAN databases.
type VLANContinuityCheck struct{}

func (c *VLANContinuityCheck) CheckID() string { return "VLAN_CONTINUITY" }
func (c *VLANContinuityCheck) Name() string { return "VLAN continuity across trunks" }
func (c *VLANContinuityCheck) DefaultSeverity() Severity { return SeverityError }

func (c *VLANContinuityCheck) Run(g *topology.Graph) []CheckResult {
	var results []CheckResult
	pass := true

	for _, e := range g.AllEdges() {
		src := g.Node(e.SourceDeviceID)
		dst := g.Node(e.TargetDeviceID)
		if src == nil || dst == nil {
			continue
		}
		for _, vlan := range e.VLANAllowList {
			if !src.HasVLAN(vlan) {
				pass = false
				results = append(results, CheckResult{
					CheckID:      c.CheckID(),
					Severity:     c.DefaultSeverity(),
					Passed:       false,
					DeviceID:     src.Device.ID,
					Interface:    e.SourceInterface,
					Detail:       fmt.Sprintf("VLAN %d allowed on link to %s but absent from %s's VLAN database", vlan, dst.Device.Hostname, src.Device.Hostname),
					SuggestedFix: fmt.Sprintf("vlan %d\n name VLAN%d", vlan, vlan),
				})
			}
			if !dst.HasVLAN(vlan) {
				pass = false
				results = append(results, CheckResult{
					CheckID:      c.CheckID(),
					Severity:     c.DefaultSeverity(),
					Passed:       false,
					DeviceID:     dst.Device.ID,
					Interface:    e.TargetInterface,
					Detail:       fmt.Sprintf("VLAN %d allowed on link to %s but absent from %s's VLAN database", vlan, src.Device.Hostname, dst.Device.Hostname),
					SuggestedFix: fmt.Sprintf("vlan %d\n name VLAN%d", vlan, vlan),
				})
			}
		}
	}

	if pass {
		results = append(results, CheckResult{
			CheckID: c.CheckID(), Severity: SeverityInfo, Passed: true,
			Detail: "every trunk allow-list VLAN is present on both endpoints",
		})
	}
	return results
}
