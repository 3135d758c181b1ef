package check

import (
	"fmt"

	"netval/pkg/model"
	"netval/pkg/topology"
)

// TrunkNativeMismatchCheck verifies that both endpoints of a trunk link
// agree on the native VLAN.
type TrunkNativeMismatchCheck struct{}

func (c *TrunkNativeMismatchCheck) CheckID() string { return "TRUNK_NATIVE_MISMATCH" }
func (c *TrunkNativeMismatchCheck) Name() string { return "trunk native VLAN agreement" }
func (c *TrunkNativeMismatchCheck) DefaultSeverity() Severity { return SeverityError }

func (c *TrunkNativeMismatchCheck) Run(g *topology.Graph) []CheckResult {
	var results []CheckResult
	pass := true

	for _, e := range g.AllEdges() {
		src := g.Node(e.SourceDeviceID)
		dst := g.Node(e.TargetDeviceID)
		if src == nil || dst == nil {
			continue
		}
		srcIface := src.Interfaces[e.SourceInterface]
		dstIface := dst.Interfaces[e.TargetInterface]
		if srcIface == nil || dstIface == nil {
			continue
		}
		if srcIface.Mode != model.ModeTrunk || dstIface.Mode != model.ModeTrunk {
			continue
		}
		if srcIface.NativeVLAN == nil || dstIface.NativeVLAN == nil {
			continue
		}
		if *srcIface.NativeVLAN != *dstIface.NativeVLAN {
			pass = false
			results = append(results, CheckResult{
				CheckID:   c.CheckID(),
				Severity:  c.DefaultSeverity(),
				Passed:    false,
				DeviceID:  src.Device.ID,
				Interface: srcIface.Name,
				Detail: fmt.Sprintf("native VLAN mismatch on trunk %s:%s (native %d) <-> %s:%s (native %d)",
					src.Device.Hostname, srcIface.Name, *srcIface.NativeVLAN,
					dst.Device.Hostname, dstIface.Name, *dstIface.NativeVLAN),
				SuggestedFix: fmt.Sprintf("switchport trunk native vlan %d", *dstIface.NativeVLAN),
			})
		}
	}

	if pass {
		results = append(results, CheckResult{
			CheckID: c.CheckID(), Severity: SeverityInfo, Passed: true,
			Detail: "every trunk's native VLAN matches on both endpoints",
		})
	}
	return results
}
