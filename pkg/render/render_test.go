package render

import (
	"testing"

	"netval/pkg/model"
	"netval/pkg/parser"
)

func intPtr(i int) *int { return &i }

func sampleSubModel() *model.DeviceSubModel {
	return &model.DeviceSubModel{
		Hostname: "SW-ACCESS",
		VLANs: []model.DeviceVlan{
			{VLANID: 20, Name: "VOICE"},
			{VLANID: 10, Name: "DATA"},
		},
		Interfaces: []model.ParsedInterface{
			{
				Name: "GigabitEthernet0/10", Mode: model.ModeTrunk,
				VLANTrunkAllowed: []int{30, 10, 20},
			},
			{
				Name: "GigabitEthernet0/2", Mode: model.ModeAccess,
				VLANAccess: intPtr(10), Duplex: model.DuplexFull,
			},
			{
				Name: "Vlan10", Mode: model.ModeRouted,
				IPAddress: "10.0.0.1", IPMask: "255.255.255.0",
			},
		},
		StaticRoutes: []model.StaticRoute{
			{Prefix: "192.168.1.0", Mask: "255.255.255.0", NextHop: "10.0.0.254"},
		},
		Routing: model.RoutingSummary{Protocols: []string{"ospf"}},
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	d := sampleSubModel()
	first := Render(d)
	second := Render(d)
	if first != second {
		t.Fatalf("render is not deterministic:\n%s\n---\n%s", first, second)
	}
}

func TestRenderSortsInterfacesByNumericPath(t *testing.T) {
	out := Render(sampleSubModel())
	idx2 := indexOf(out, "interface GigabitEthernet0/2")
	idx10 := indexOf(out, "interface GigabitEthernet0/10")
	if idx2 == -1 || idx10 == -1 || idx2 > idx10 {
		t.Fatalf("expected Gi0/2 before Gi0/10, got:\n%s", out)
	}
}

func TestRenderParseRoundTripStable(t *testing.T) {
	d := sampleSubModel()
	rendered := Render(d)
	reparsed := parser.Parse(rendered)
	rerendered := Render(reparsed)
	if rendered != rerendered {
		t.Fatalf("round trip not stable:\nfirst:\n%s\nsecond:\n%s", rendered, rerendered)
	}
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
