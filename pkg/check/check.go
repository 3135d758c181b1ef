// Package check implements the validation engine: a fixed, ordered registry
// of structural checks that run against an assembled topology.Graph and
// produce a deterministic, reproducible audit result. The check
// abstraction is a sum type over a fixed registry rather than open
// subclassing.
package check

import (
	"fmt"
	"runtime/debug"
	"sort"
	"time"

	"netval/internal/metrics"
	"netval/pkg/topology"
	"netval/pkg/util"
)

// Severity is the importance of a CheckResult.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// CheckResult is one finding produced by a single Check.Run call.
type CheckResult struct {
	CheckID      string   `json:"check_id"`
	Severity     Severity `json:"severity"`
	Passed       bool     `json:"passed"`
	DeviceID     string   `json:"device_id,omitempty"`
	Interface    string   `json:"interface,omitempty"`
	Detail       string   `json:"detail"`
	SuggestedFix string   `json:"suggested_fix,omitempty"`
}

// Check is one registered structural validation rule.
type Check interface {
	CheckID() string
	Name() string
	DefaultSeverity() Severity
	Run(g *topology.Graph) []CheckResult
}

// registry is the fixed, ordered set of checks, built at process start and
// immutable thereafter. Order here is the order findings are aggregated in.
var registry = []Check{
	&VLANContinuityCheck{},
	&VLANOrphanSVICheck{},
	&WLCJoinChainCheck{},
	&TrunkNativeMismatchCheck{},
	&MgmtSSHPathCheck{},
	&RoutingBlackholeCheck{},
	&DHCPReachabilityCheck{},
	&DuplexMismatchCheck{},
}

// Registry returns the fixed, ordered list of registered checks.
func Registry() []Check {
	out := make([]Check, len(registry))
	copy(out, registry)
	return out
}

// AuditResult is the fully self-describing output of one validation run:
// it can be rendered without re-reading the topology.
type AuditResult struct {
	Findings     []CheckResult             `json:"findings"`
	Reachability map[string]map[string]bool `json:"reachability"`
}

// Run assembles no graph of its own — g must already be built by
// topology.Assemble — and executes every registered check in registry
// order, aggregating findings and the reachability matrix.
func Run(g *topology.Graph) *AuditResult {
	return RunWithProgress(g, nil)
}

// RunWithProgress is Run with a per-check callback, invoked before and
// after each check so the job manager can emit check_start/check_complete
// events between checks. onCheck may be nil.
func RunWithProgress(g *topology.Graph, onCheck func(c Check, done bool)) *AuditResult {
	result := &AuditResult{
		Reachability: g.ReachabilityMatrix(),
	}
	for _, c := range registry {
		if onCheck != nil {
			onCheck(c, false)
		}
		result.Findings = append(result.Findings, runOne(c, g)...)
		if onCheck != nil {
			onCheck(c, true)
		}
	}
	sortFindings(result.Findings)
	return result
}

// runOne executes a single check, converting a panic or internal error into
// a severity=error finding with check_id "<id>_INTERNAL" rather than letting
// it abort the remaining checks.
func runOne(c Check, g *topology.Graph) (results []CheckResult) {
	start := time.Now()
	defer func() {
		metrics.CheckDuration.WithLabelValues(c.CheckID()).Observe(time.Since(start).Seconds())
		if r := recover(); r != nil {
			util.WithField("check_id", c.CheckID()).Errorf("check panicked: %v\n%s", r, debug.Stack())
			results = []CheckResult{{
				CheckID:  c.CheckID() + "_INTERNAL",
				Severity: SeverityError,
				Passed:   false,
				Detail:   fmt.Sprintf("check panicked: %v", r),
			}}
		}
	}()
	return c.Run(g)
}

// sortFindings orders findings deterministically: check_id, then device_id,
// then interface, then detail.
func sortFindings(findings []CheckResult) {
	sort.SliceStable(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if a.CheckID != b.CheckID {
			return a.CheckID < b.CheckID
		}
		if a.DeviceID != b.DeviceID {
			return a.DeviceID < b.DeviceID
		}
		if a.Interface != b.Interface {
			return a.Interface < b.Interface
		}
		return a.Detail < b.Detail
	})
}
