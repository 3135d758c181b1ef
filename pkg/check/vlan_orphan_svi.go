package check

import (
	"fmt"
	"sort"

	"netval/pkg/model"
	"netval/pkg/topology"
)

// VLANOrphanSVICheck verifies that every SVI interface's VLAN id is present
// in the owning device's VLAN database.
type VLANOrphanSVICheck struct{}

func (c *VLANOrphanSVICheck) CheckID() string { return "VLAN_ORPHAN_SVI" }
func (c *VLANOrphanSVICheck) Name() string { return "orphaned SVI VLANs" }
func (c *VLANOrphanSVICheck) DefaultSeverity() Severity { return SeverityError }

func (c *VLANOrphanSVICheck) Run(g *topology.Graph) []CheckResult {
	var results []CheckResult
	pass := true

	for _, n := range g.Nodes() {
		names := make([]string, 0, len(n.Interfaces))
		for name := range n.Interfaces {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			iface := n.Interfaces[name]
			if !iface.IsSVI() {
				continue
			}
			vlanID := model.SVIVLANID(iface.Name)
			if !n.HasVLAN(vlanID) {
				pass = false
				results = append(results, CheckResult{
					CheckID:      c.CheckID(),
					Severity:     c.DefaultSeverity(),
					Passed:       false,
					DeviceID:     n.Device.ID,
					Interface:    iface.Name,
					Detail:       fmt.Sprintf("%s is an SVI for VLAN %d but VLAN %d is not in %s's VLAN database", iface.Name, vlanID, vlanID, n.Device.Hostname),
					SuggestedFix: fmt.Sprintf("vlan %d\n name VLAN%d", vlanID, vlanID),
				})
			}
		}
	}

	if pass {
		results = append(results, CheckResult{
			CheckID: c.CheckID(), Severity: SeverityInfo, Passed: true,
			Detail: "every SVI's VLAN is present in its device's VLAN database",
		})
	}
	return results
}
