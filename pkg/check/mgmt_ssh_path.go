package check

import (
	"fmt"
	"net"

	"netval/pkg/model"
	"netval/pkg/topology"
)

// MgmtSSHPathCheck verifies that every device's management IP is reachable
// from the device hosting the routed/SVI interface whose subnet contains
// it.
//
// The management source is resolved per device: the source for device D is
// whichever other device owns a routed or SVI interface whose IP/mask
// subnet contains D's management_ip. A device is its own source when its
// management_ip falls inside one of its own routed/SVI subnets, in which
// case the path trivially holds. A device with no subnet owner anywhere in
// the project has no designated source and is skipped.
type MgmtSSHPathCheck struct{}

func (c *MgmtSSHPathCheck) CheckID() string { return "MGMT_SSH_PATH" }
func (c *MgmtSSHPathCheck) Name() string { return "management path reachability" }
func (c *MgmtSSHPathCheck) DefaultSeverity() Severity { return SeverityError }

func (c *MgmtSSHPathCheck) Run(g *topology.Graph) []CheckResult {
	var results []CheckResult
	pass := true

	for _, target := range g.Nodes() {
		if target.Device.ManagementIP == "" {
			continue
		}
		mgmtIP := net.ParseIP(target.Device.ManagementIP)
		if mgmtIP == nil {
			continue
		}

		source := findManagementSource(g, mgmtIP)
		if source == nil {
			continue // no designated management source in the project
		}

		if source.Device.ID == target.Device.ID {
			continue // self-reachable by definition
		}

		if _, _, ok := g.ShortestPath(source.Device.ID, target.Device.ID); !ok {
			pass = false
			results = append(results, CheckResult{
				CheckID:  c.CheckID(),
				Severity: c.DefaultSeverity(),
				Passed:   false,
				DeviceID: target.Device.ID,
				Detail: fmt.Sprintf("%s's management IP %s is not reachable from designated management source %s",
					target.Device.Hostname, target.Device.ManagementIP, source.Device.Hostname),
			})
		}
	}

	if pass {
		results = append(results, CheckResult{
			CheckID: c.CheckID(), Severity: SeverityInfo, Passed: true,
			Detail: "every device's management IP is reachable from its designated management source",
		})
	}
	return results
}

// findManagementSource returns the node owning a routed or SVI interface
// whose subnet contains ip, or nil if no node does.
func findManagementSource(g *topology.Graph, ip net.IP) *topology.Node {
	for _, n := range g.Nodes() {
		names := make([]string, 0, len(n.Interfaces))
		for name := range n.Interfaces {
			names = append(names, name)
		}
		for _, name := range names {
			iface := n.Interfaces[name]
			if iface.Mode != model.ModeRouted && !iface.IsSVI() {
				continue
			}
			if iface.IPAddress == "" || iface.IPMask == "" {
				continue
			}
			if subnetContains(iface.IPAddress, iface.IPMask, ip) {
				return n
			}
		}
	}
	return nil
}

func subnetContains(ifaceIP, mask string, ip net.IP) bool {
	base := net.ParseIP(ifaceIP)
	maskIP := net.ParseIP(mask)
	if base == nil || maskIP == nil {
		return false
	}
	base4 := base.To4()
	mask4 := maskIP.To4()
	ip4 := ip.To4()
	if base4 == nil || mask4 == nil || ip4 == nil {
		return false
	}
	netMask := net.IPMask(mask4)
	network := base4.Mask(netMask)
	candidate := ip4.Mask(netMask)
	return network.Equal(candidate)
}
