package check

import (
	"fmt"

	"netval/pkg/model"
	"netval/pkg/topology"
)

// DuplexMismatchCheck verifies that both endpoints of a link agree on duplex
// when both sides declare it explicitly. Auto or
// unknown duplex on either side is not comparable and is skipped.
type DuplexMismatchCheck struct{}

func (c *DuplexMismatchCheck) CheckID() string { return "DUPLEX_MISMATCH" }
func (c *DuplexMismatchCheck) Name() string { return "link duplex agreement" }
func (c *DuplexMismatchCheck) DefaultSeverity() Severity { return SeverityError }

func (c *DuplexMismatchCheck) Run(g *topology.Graph) []CheckResult {
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
		if !explicitDuplex(srcIface.Duplex) || !explicitDuplex(dstIface.Duplex) {
			continue
		}
		if srcIface.Duplex != dstIface.Duplex {
			pass = false
			results = append(results, CheckResult{
				CheckID:   c.CheckID(),
				Severity:  c.DefaultSeverity(),
				Passed:    false,
				DeviceID:  src.Device.ID,
				Interface: srcIface.Name,
				Detail: fmt.Sprintf("duplex mismatch on link %s:%s (%s) <-> %s:%s (%s)",
					src.Device.Hostname, srcIface.Name, srcIface.Duplex,
					dst.Device.Hostname, dstIface.Name, dstIface.Duplex),
				SuggestedFix: fmt.Sprintf("duplex %s", dstIface.Duplex),
			})
		}
	}

	if pass {
		results = append(results, CheckResult{
			CheckID: c.CheckID(), Severity: SeverityInfo, Passed: true,
			Detail: "every link's explicit duplex settings agree",
		})
	}
	return results
}

func explicitDuplex(d model.Duplex) bool {
	return d == model.DuplexHalf || d == model.DuplexFull
}
