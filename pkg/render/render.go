// Package render turns a device sub-model into an IOS-family CLI text
// block. Rendering is deterministic — equal input always produces
// byte-identical output — by building the text from sorted, fully-resolved
// data rather than iterating maps directly.
package render

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"netval/pkg/model"
	"netval/pkg/util"
)

// Render produces a CLI configuration block for d. Calling Render twice on
// an equal input yields identical output byte-for-byte.
func Render(d *model.DeviceSubModel) string {
	var b strings.Builder

	if d.Hostname != "" {
		fmt.Fprintf(&b, "hostname %s\n!\n", d.Hostname)
	}

	vlans := append([]model.DeviceVlan(nil), d.VLANs...)
	sort.Slice(vlans, func(i, j int) bool { return vlans[i].VLANID < vlans[j].VLANID })
	for _, v := range vlans {
		fmt.Fprintf(&b, "vlan %d\n", v.VLANID)
		if v.Name != "" {
			fmt.Fprintf(&b, " name %s\n", v.Name)
		}
	}
	if len(vlans) > 0 {
		b.WriteString("!\n")
	}

	ifaces := append([]model.ParsedInterface(nil), d.Interfaces...)
	sort.Slice(ifaces, func(i, j int) bool {
		return interfaceSortKey(ifaces[i].Name) < interfaceSortKey(ifaces[j].Name)
	})
	for _, iface := range ifaces {
		renderInterface(&b, iface)
	}

	routes := append([]model.StaticRoute(nil), d.StaticRoutes...)
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Prefix != routes[j].Prefix {
			return routes[i].Prefix < routes[j].Prefix
		}
		return routes[i].Mask < routes[j].Mask
	})
	for _, r := range routes {
		target := r.NextHop
		if target == "" {
			target = r.Interface
		}
		fmt.Fprintf(&b, "ip route %s %s %s\n", r.Prefix, r.Mask, target)
	}
	if len(routes) > 0 {
		b.WriteString("!\n")
	}

	protocols := append([]string(nil), d.Routing.Protocols...)
	sort.Strings(protocols)
	for _, proto := range protocols {
		fmt.Fprintf(&b, "router %s\n!\n", proto)
	}

	acls := append([]model.ACL(nil), d.ACLs...)
	sort.Slice(acls, func(i, j int) bool { return acls[i].Name < acls[j].Name })
	for _, acl := range acls {
		fmt.Fprintf(&b, "ip access-list extended %s\n", acl.Name)
		for _, rule := range acl.Rules {
			fmt.Fprintf(&b, " %s\n", rule)
		}
		b.WriteString("!\n")
	}

	b.WriteString("end\n")
	return b.String()
}

func renderInterface(b *strings.Builder, iface model.ParsedInterface) {
	fmt.Fprintf(b, "interface %s\n", iface.Name)
	if iface.Description != "" {
		fmt.Fprintf(b, " description %s\n", iface.Description)
	}

	switch iface.Mode {
	case model.ModeAccess:
		b.WriteString(" switchport mode access\n")
		if iface.VLANAccess != nil {
			fmt.Fprintf(b, " switchport access vlan %d\n", *iface.VLANAccess)
		}
	case model.ModeTrunk:
		b.WriteString(" switchport mode trunk\n")
		if len(iface.VLANTrunkAllowed) > 0 {
			sorted := append([]int(nil), iface.VLANTrunkAllowed...)
			sort.Ints(sorted)
			fmt.Fprintf(b, " switchport trunk allowed vlan %s\n", util.CompactRange(sorted))
		}
		if iface.NativeVLAN != nil {
			fmt.Fprintf(b, " switchport trunk native vlan %d\n", *iface.NativeVLAN)
		}
	case model.ModeRouted:
		if iface.IPAddress != "" {
			fmt.Fprintf(b, " ip address %s %s\n", iface.IPAddress, iface.IPMask)
		}
	}

	helpers := append([]string(nil), iface.DHCPHelpers...)
	sort.Strings(helpers)
	for _, h := range helpers {
		fmt.Fprintf(b, " ip helper-address %s\n", h)
	}

	if iface.Duplex != "" && iface.Duplex != model.DuplexUnknown {
		fmt.Fprintf(b, " duplex %s\n", iface.Duplex)
	}

	if iface.State == model.StateDown {
		b.WriteString(" shutdown\n")
	}
	b.WriteString("!\n")
}

// interfaceKind classifies an interface name into a rendering order bucket:
// physical ports first, then port-channels, then loopbacks, then SVIs.
func interfaceKind(name string) int {
	switch {
	case strings.HasPrefix(name, "Port-channel"), strings.HasPrefix(name, "PortChannel"):
		return 1
	case strings.HasPrefix(name, "Loopback"):
		return 2
	case model.SVIVLANID(name) >= 0:
		return 3
	default:
		return 0
	}
}

// interfaceSortKey produces a (kind, numeric-path) composite sort key so
// interfaces sort by kind-order then by their numeric slot/port path, e.g.
// "GigabitEthernet0/2" before "GigabitEthernet0/10".
func interfaceSortKey(name string) string {
	kind := interfaceKind(name)
	nums := extractNumbers(name)
	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = fmt.Sprintf("%08d", n)
	}
	return fmt.Sprintf("%d|%s|%s", kind, strings.Join(parts, "."), name)
}

func extractNumbers(name string) []int {
	var nums []int
	var cur strings.Builder
	flush := func() {
		if cur.Len() == 0 {
			return
		}
		if n, err := strconv.Atoi(cur.String()); err == nil {
			nums = append(nums, n)
		}
		cur.Reset()
	}
	for _, r := range name {
		if r >= '0' && r <= '9' {
			cur.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return nums
}
