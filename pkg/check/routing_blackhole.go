package check

import (
	"fmt"
	"net"

	"netval/pkg/model"
	"netval/pkg/topology"
)

// RoutingBlackholeCheck verifies that every static route's next hop resolves
// onto one of the owning device's routed/SVI interface subnets. A route configured with an exit interface instead of a
// next hop is checked by interface existence instead.
type RoutingBlackholeCheck struct{}

func (c *RoutingBlackholeCheck) CheckID() string { return "ROUTING_BLACKHOLE" }
func (c *RoutingBlackholeCheck) Name() string { return "static route next-hop resolution" }
func (c *RoutingBlackholeCheck) DefaultSeverity() Severity { return SeverityError }

func (c *RoutingBlackholeCheck) Run(g *topology.Graph) []CheckResult {
	var results []CheckResult
	pass := true

	for _, n := range g.Nodes() {
		for _, route := range n.StaticRoutes {
			if route.Interface != "" {
				if _, ok := n.Interfaces[route.Interface]; !ok {
					pass = false
					results = append(results, CheckResult{
						CheckID:  c.CheckID(),
						Severity: c.DefaultSeverity(),
						Passed:   false,
						DeviceID: n.Device.ID,
						Detail: fmt.Sprintf("static route %s/%s on %s exits via %s, which does not exist",
							route.Prefix, route.Mask, n.Device.Hostname, route.Interface),
					})
				}
				continue
			}

			if route.NextHop == "" || !nextHopResolves(n, route.NextHop) {
				pass = false
				results = append(results, CheckResult{
					CheckID:  c.CheckID(),
					Severity: c.DefaultSeverity(),
					Passed:   false,
					DeviceID: n.Device.ID,
					Detail: fmt.Sprintf("static route %s/%s on %s has next hop %s unresolvable on any routed/SVI interface",
						route.Prefix, route.Mask, n.Device.Hostname, route.NextHop),
					SuggestedFix: "verify the next hop's subnet is configured on a local routed or SVI interface",
				})
			}
		}
	}

	if pass {
		results = append(results, CheckResult{
			CheckID: c.CheckID(), Severity: SeverityInfo, Passed: true,
			Detail: "every static route's next hop resolves locally",
		})
	}
	return results
}

// nextHopResolves reports whether nextHop falls within the subnet of one of
// n's routed or SVI interfaces.
func nextHopResolves(n *topology.Node, nextHop string) bool {
	hop := net.ParseIP(nextHop)
	if hop == nil {
		return false
	}
	for _, iface := range n.Interfaces {
		if iface.Mode != model.ModeRouted && !iface.IsSVI() {
			continue
		}
		if iface.IPAddress == "" || iface.IPMask == "" {
			continue
		}
		if subnetContains(iface.IPAddress, iface.IPMask, hop) {
			return true
		}
	}
	return false
}
