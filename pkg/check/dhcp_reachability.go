package check

import (
	"fmt"
	"net"
	"sort"

	"netval/pkg/model"
	"netval/pkg/topology"
)

// DHCPReachabilityCheck verifies that every access-VLAN SVI declares at
// least one DHCP helper address and that the declared helper is reachable
// somewhere in the topology.
type DHCPReachabilityCheck struct{}

func (c *DHCPReachabilityCheck) CheckID() string { return "DHCP_REACHABILITY" }
func (c *DHCPReachabilityCheck) Name() string { return "DHCP helper reachability" }
func (c *DHCPReachabilityCheck) DefaultSeverity() Severity { return SeverityWarning }

func (c *DHCPReachabilityCheck) Run(g *topology.Graph) []CheckResult {
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
				continue // VLAN_ORPHAN_SVI already reports this; not this check's concern
			}

			if len(iface.DHCPHelpers) == 0 {
				pass = false
				results = append(results, CheckResult{
					CheckID:      c.CheckID(),
					Severity:     c.DefaultSeverity(),
					Passed:       false,
					DeviceID:     n.Device.ID,
					Interface:    iface.Name,
					Detail:       fmt.Sprintf("%s on %s has no DHCP helper address declared", iface.Name, n.Device.Hostname),
					SuggestedFix: "ip helper-address <dhcp-server-ip>",
				})
				continue
			}

			if !helperReachable(g, n, iface.DHCPHelpers) {
				pass = false
				results = append(results, CheckResult{
					CheckID:   c.CheckID(),
					Severity:  c.DefaultSeverity(),
					Passed:    false,
					DeviceID:  n.Device.ID,
					Interface: iface.Name,
					Detail:    fmt.Sprintf("%s on %s declares DHCP helper(s) %v but none are reachable from this device", iface.Name, n.Device.Hostname, iface.DHCPHelpers),
				})
			}
		}
	}

	if pass {
		results = append(results, CheckResult{
			CheckID: c.CheckID(), Severity: SeverityInfo, Passed: true,
			Detail: "every access-VLAN SVI has a reachable DHCP helper",
		})
	}
	return results
}

// helperReachable reports whether any of helpers resolves to a device
// reachable from n, using the same "designated source owns the subnet"
// resolution as MGMT_SSH_PATH.
func helperReachable(g *topology.Graph, n *topology.Node, helpers []string) bool {
	for _, helper := range helpers {
		ip := net.ParseIP(helper)
		if ip == nil {
			continue
		}
		source := findManagementSource(g, ip)
		if source == nil {
			continue
		}
		if source.Device.ID == n.Device.ID {
			return true
		}
		if _, _, ok := g.ShortestPath(n.Device.ID, source.Device.ID); ok {
			return true
		}
	}
	return false
}
