package parser

import "testing"

const sampleConfig = `hostname SW-ACCESS
!
vlan 10
 name DATA
vlan 20
 name VOICE
!
interface GigabitEthernet0/1
 description uplink to core
 switchport mode trunk
 switchport trunk allowed vlan 10,20-22,30
!
interface GigabitEthernet0/2
 switchport mode access
 switchport access vlan 10
 duplex full
!
interface Vlan10
 ip address 10.0.0.1 255.255.255.0
!
ip route 192.168.1.0 255.255.255.0 10.0.0.254
router ospf
!
end
`

func TestParseBasicConfig(t *testing.T) {
	sub := Parse(sampleConfig)

	if sub.Hostname != "SW-ACCESS" {
		t.Fatalf("hostname = %q", sub.Hostname)
	}
	if len(sub.VLANs) != 2 || sub.VLANs[0].VLANID != 10 || sub.VLANs[1].VLANID != 20 {
		t.Fatalf("vlans = %+v", sub.VLANs)
	}
	if len(sub.Interfaces) != 3 {
		t.Fatalf("expected 3 interfaces, got %d: %+v", len(sub.Interfaces), sub.Interfaces)
	}

	trunk := sub.Interfaces[0]
	want := []int{10, 20, 21, 22, 30}
	if len(trunk.VLANTrunkAllowed) != len(want) {
		t.Fatalf("trunk allowed = %v, want %v", trunk.VLANTrunkAllowed, want)
	}
	for i := range want {
		if trunk.VLANTrunkAllowed[i] != want[i] {
			t.Fatalf("trunk allowed = %v, want %v", trunk.VLANTrunkAllowed, want)
		}
	}

	access := sub.Interfaces[1]
	if access.Mode != "access" || access.VLANAccess == nil || *access.VLANAccess != 10 {
		t.Fatalf("access iface = %+v", access)
	}
	if access.Duplex != "full" {
		t.Fatalf("duplex = %q", access.Duplex)
	}

	svi := sub.Interfaces[2]
	if svi.Mode != "routed" || svi.IPAddress != "10.0.0.1" {
		t.Fatalf("svi iface = %+v", svi)
	}

	if len(sub.StaticRoutes) != 1 || sub.StaticRoutes[0].NextHop != "10.0.0.254" {
		t.Fatalf("static routes = %+v", sub.StaticRoutes)
	}
	if len(sub.Routing.Protocols) != 1 || sub.Routing.Protocols[0] != "ospf" {
		t.Fatalf("routing protocols = %+v", sub.Routing.Protocols)
	}
	if len(sub.Warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", sub.Warnings)
	}
}

func TestParseTrunkBoundaryCases(t *testing.T) {
	cases := []struct {
		line string
		want []int
	}{
		{"switchport trunk allowed vlan 10,20-22,30", []int{10, 20, 21, 22, 30}},
		{"switchport trunk allowed vlan all", nil},
		{"switchport trunk allowed vlan none", nil},
	}
	for _, c := range cases {
		cfg := "interface GigabitEthernet0/1\n switchport mode trunk\n " + c.line + "\n!\nend\n"
		sub := Parse(cfg)
		got := sub.Interfaces[0].VLANTrunkAllowed
		if len(got) != len(c.want) {
			t.Fatalf("%q: got %v, want %v", c.line, got, c.want)
		}
		for i := range c.want {
			if got[i] != c.want[i] {
				t.Fatalf("%q: got %v, want %v", c.line, got, c.want)
			}
		}
	}
}

func TestParseTrunkInvalidRangeYieldsEmptySetAndWarning(t *testing.T) {
	cfg := "interface GigabitEthernet0/1\n switchport mode trunk\n switchport trunk allowed vlan 15-12\n!\nend\n"
	sub := Parse(cfg)
	if len(sub.Interfaces[0].VLANTrunkAllowed) != 0 {
		t.Fatalf("expected empty allow-list for invalid range, got %v", sub.Interfaces[0].VLANTrunkAllowed)
	}
	if len(sub.Warnings) == 0 {
		t.Fatal("expected a warning for the invalid range")
	}
}

func TestParseUnrecognizedStanzaIsRetainedVerbatim(t *testing.T) {
	cfg := "hostname X\n!\nsome-unknown-feature\n sub-line one\n sub-line two\n!\nend\n"
	sub := Parse(cfg)
	if len(sub.RawStanzas) != 1 {
		t.Fatalf("expected 1 raw stanza, got %d: %v", len(sub.RawStanzas), sub.RawStanzas)
	}
	if len(sub.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %v", sub.Warnings)
	}
}

func TestParseVLANIDOutOfRangeEmitsWarning(t *testing.T) {
	cfg := "vlan 5000\n name BOGUS\n!\nend\n"
	sub := Parse(cfg)
	if len(sub.VLANs) != 0 {
		t.Fatalf("expected out-of-range vlan to be dropped, got %+v", sub.VLANs)
	}
	if len(sub.Warnings) == 0 {
		t.Fatal("expected a warning for the out-of-range vlan id")
	}
}
