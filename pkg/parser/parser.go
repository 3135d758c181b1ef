// Package parser is a tolerant, line-oriented reader of IOS-family running
// configurations that produces a structured model.DeviceSubModel.
// Unrecognized stanzas are kept verbatim instead of dropped, and parsing
// never panics on unknown syntax — it records a per-stanza warning and
// keeps going.
package parser

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"netval/pkg/model"
	"netval/pkg/util"
)

// Parse reads raw IOS-family running-config text and produces a structured
// device sub-model. Line endings are normalized to "\n" first.
// Parse never returns an error: partial parse is acceptable, and anything it
// cannot classify is retained in RawStanzas with an attached warning.
func Parse(raw string) *model.DeviceSubModel {
	text := strings.ReplaceAll(strings.ReplaceAll(raw, "\r\n", "\n"), "\r", "\n")
	lines := strings.Split(text, "\n")

	sub := &model.DeviceSubModel{}
	p := &parseState{sub: sub}

	i := 0
	for i < len(lines) {
		line := lines[i]
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || trimmed == "!" {
			i++
			continue
		}

		// Only a non-indented line starts a new top-level stanza; indented
		// lines belong to whatever stanza is open and are consumed by that
		// stanza's own block reader.
		if isIndented(line) {
			p.warnf("unexpected indented line outside any stanza: %q", trimmed)
			i++
			continue
		}

		fields := strings.Fields(trimmed)
		keyword := fields[0]

		switch {
		case keyword == "hostname" && len(fields) >= 2:
			sub.Hostname = fields[1]
			i++

		case keyword == "vlan" && len(fields) >= 2:
			i = p.parseVLANStanza(lines, i, fields)

		case keyword == "interface" && len(fields) >= 2:
			i = p.parseInterfaceStanza(lines, i, fields)

		case keyword == "ip" && len(fields) >= 2 && fields[1] == "route":
			p.parseStaticRoute(fields)
			i++

		case keyword == "router" && len(fields) >= 2:
			sub.Routing.Protocols = appendUnique(sub.Routing.Protocols, fields[1])
			i = p.skipBlock(lines, i+1)

		case keyword == "ip" && len(fields) >= 2 && fields[1] == "access-list":
			i = p.parseACLStanza(lines, i, fields)

		case keyword == "end":
			i++

		default:
			end := p.skipBlock(lines, i+1)
			sub.RawStanzas = append(sub.RawStanzas, strings.Join(lines[i:end], "\n"))
			p.warnf("unrecognized stanza: %q", trimmed)
			i = end
		}
	}

	sort.Slice(sub.VLANs, func(a, b int) bool { return sub.VLANs[a].VLANID < sub.VLANs[b].VLANID })
	return sub
}

type parseState struct {
	sub *model.DeviceSubModel
}

func (p *parseState) warnf(format string, args ...interface{}) {
	p.sub.Warnings = append(p.sub.Warnings, fmt.Sprintf(format, args...))
}

func isIndented(line string) bool {
	return strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")
}

// skipBlock returns the index of the first line at or after start that is
// not indented (i.e. the end of the current block).
func (p *parseState) skipBlock(lines []string, start int) int {
	i := start
	for i < len(lines) {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" {
			i++
			continue
		}
		if !isIndented(lines[i]) {
			break
		}
		i++
	}
	return i
}

func (p *parseState) parseVLANStanza(lines []string, start int, headerFields []string) int {
	id, err := strconv.Atoi(headerFields[1])
	if err != nil {
		p.warnf("vlan stanza with non-numeric id %q", headerFields[1])
		return p.skipBlock(lines, start+1)
	}
	end := start + 1
	rec := model.DeviceVlan{VLANID: id}
	for end < len(lines) {
		trimmed := strings.TrimSpace(lines[end])
		if trimmed == "" {
			end++
			continue
		}
		if !isIndented(lines[end]) {
			break
		}
		fields := strings.Fields(trimmed)
		if len(fields) >= 2 && fields[0] == "name" {
			rec.Name = fields[1]
		}
		end++
	}
	if !model.ValidVLANID(id) {
		p.warnf("vlan id %d out of range 1..4094, dropped", id)
		return end
	}
	p.sub.VLANs = append(p.sub.VLANs, rec)
	return end
}

func (p *parseState) parseInterfaceStanza(lines []string, start int, headerFields []string) int {
	iface := model.ParsedInterface{
		Name:  headerFields[1],
		Mode:  model.ModeUnknown,
		State: model.StateUp,
	}

	end := start + 1
	explicitSwitchport := false
	for end < len(lines) {
		trimmed := strings.TrimSpace(lines[end])
		if trimmed == "" {
			end++
			continue
		}
		if !isIndented(lines[end]) {
			break
		}
		fields := strings.Fields(trimmed)
		switch {
		case trimmed == "shutdown":
			iface.State = model.StateDown

		case fields[0] == "description":
			iface.Description = strings.TrimSpace(strings.TrimPrefix(trimmed, "description"))

		case fields[0] == "duplex" && len(fields) >= 2:
			iface.Duplex = parseDuplex(fields[1])

		case len(fields) >= 2 && fields[0] == "switchport" && fields[1] == "mode" && len(fields) >= 3:
			explicitSwitchport = true
			switch fields[2] {
			case "access":
				iface.Mode = model.ModeAccess
			case "trunk":
				iface.Mode = model.ModeTrunk
			}

		case len(fields) >= 4 && fields[0] == "switchport" && fields[1] == "access" && fields[2] == "vlan":
			if vlan, err := strconv.Atoi(fields[3]); err == nil && model.ValidVLANID(vlan) {
				iface.VLANAccess = &vlan
			} else {
				p.warnf("interface %s: invalid access vlan %q", iface.Name, fields[3])
			}

		case len(fields) >= 5 && fields[0] == "switchport" && fields[1] == "trunk" && fields[2] == "allowed" && fields[3] == "vlan":
			expanded, err := expandTrunkAllowed(iface.VLANTrunkAllowed, fields[4:])
			if err != nil {
				p.warnf("interface %s: %v", iface.Name, err)
				expanded = nil
			}
			iface.VLANTrunkAllowed = expanded

		case len(fields) >= 5 && fields[0] == "switchport" && fields[1] == "trunk" && fields[2] == "native" && fields[3] == "vlan":
			if vlan, err := strconv.Atoi(fields[4]); err == nil && model.ValidVLANID(vlan) {
				iface.NativeVLAN = &vlan
			} else {
				p.warnf("interface %s: invalid native vlan %q", iface.Name, fields[4])
			}

		case len(fields) >= 4 && fields[0] == "ip" && fields[1] == "address":
			iface.IPAddress = fields[2]
			iface.IPMask = fields[3]

		case len(fields) >= 3 && fields[0] == "ip" && fields[1] == "helper-address":
			iface.DHCPHelpers = append(iface.DHCPHelpers, fields[2])

		default:
			p.warnf("interface %s: unrecognized stanza line %q", iface.Name, trimmed)
		}
		end++
	}

	if !explicitSwitchport && iface.IPAddress != "" {
		iface.Mode = model.ModeRouted
	}

	p.sub.Interfaces = append(p.sub.Interfaces, iface)
	return end
}

func parseDuplex(s string) model.Duplex {
	switch s {
	case "half":
		return model.DuplexHalf
	case "full":
		return model.DuplexFull
	case "auto":
		return model.DuplexAuto
	default:
		return model.DuplexUnknown
	}
}

func (p *parseState) parseStaticRoute(fields []string) {
	// "ip route <prefix> <mask> <next-hop|interface>"
	if len(fields) < 5 {
		p.warnf("malformed static route stanza: %s", strings.Join(fields, " "))
		return
	}
	route := model.StaticRoute{Prefix: fields[2], Mask: fields[3]}
	target := fields[4]
	if looksLikeIP(target) {
		route.NextHop = target
	} else {
		route.Interface = target
	}
	p.sub.StaticRoutes = append(p.sub.StaticRoutes, route)
}

func (p *parseState) parseACLStanza(lines []string, start int, headerFields []string) int {
	name := ""
	if len(headerFields) >= 4 {
		name = headerFields[3]
	}
	acl := model.ACL{Name: name}
	end := start + 1
	for end < len(lines) {
		trimmed := strings.TrimSpace(lines[end])
		if trimmed == "" {
			end++
			continue
		}
		if !isIndented(lines[end]) {
			break
		}
		acl.Rules = append(acl.Rules, trimmed)
		end++
	}
	p.sub.ACLs = append(p.sub.ACLs, acl)
	return end
}

func looksLikeIP(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return false
	}
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 || n > 255 {
			return false
		}
	}
	return true
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

// expandTrunkAllowed interprets the trailing tokens of a "switchport trunk
// allowed vlan..." line against the interface's current allow-list,
// recognizing the keywords add/remove/none/all on top of util.ExpandRange's
// numeric range syntax.
func expandTrunkAllowed(current []int, tokens []string) ([]int, error) {
	if len(tokens) == 0 {
		return current, nil
	}
	switch tokens[0] {
	case "none", "all":
		return nil, nil
	case "add":
		added, err := util.ExpandVLANRange(strings.Join(tokens[1:], ""))
		if err != nil {
			return nil, err
		}
		return mergeSorted(current, added), nil
	case "remove":
		removed, err := util.ExpandVLANRange(strings.Join(tokens[1:], ""))
		if err != nil {
			return current, err
		}
		return subtractSorted(current, removed), nil
	default:
		expanded, err := util.ExpandVLANRange(strings.Join(tokens, ""))
		if err != nil {
			return nil, err
		}
		return expanded, nil
	}
}

func mergeSorted(a, b []int) []int {
	set := make(map[int]bool, len(a)+len(b))
	for _, v := range a {
		set[v] = true
	}
	for _, v := range b {
		set[v] = true
	}
	out := make([]int, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

func subtractSorted(a, b []int) []int {
	remove := make(map[int]bool, len(b))
	for _, v := range b {
		remove[v] = true
	}
	var out []int
	for _, v := range a {
		if !remove[v] {
			out = append(out, v)
		}
	}
	return out
}
