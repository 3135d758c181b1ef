// Package topology assembles a project's devices and links into an
// in-memory undirected graph annotated with VLAN sets, interface maps, and
// per-link trunk allow-lists. The graph is
// immutable for the duration of one check pass.
package topology

import (
	"fmt"
	"sort"

	"netval/pkg/model"
)

// Node is one device's view inside an assembled graph: its record, its VLAN
// database as a set, and its interfaces keyed by name.
type Node struct {
	Device       *model.Device
	VLANs        map[int]bool
	Interfaces   map[string]*model.Interface
	StaticRoutes []model.StaticRoute
}

// HasVLAN reports whether vlanID is present in the device's VLAN database.
func (n *Node) HasVLAN(vlanID int) bool {
	return n.VLANs[vlanID]
}

// Edge is one link between two devices, undirected in semantics. Source/
// Target preserve the link's stored endpoint order so callers can still
// answer "which interface did this link use on device X".
type Edge struct {
	Link            *model.Link
	SourceDeviceID  string
	SourceInterface string
	TargetDeviceID  string
	TargetInterface string
	Medium          model.LinkMedium
	VLANAllowList   []int
}

// OtherEnd returns the device id and interface name at the end of the edge
// opposite deviceID.
func (e *Edge) OtherEnd(deviceID string) (otherDevice, otherInterface string, ok bool) {
	switch deviceID {
	case e.SourceDeviceID:
		return e.TargetDeviceID, e.TargetInterface, true
	case e.TargetDeviceID:
		return e.SourceDeviceID, e.SourceInterface, true
	default:
		return "", "", false
	}
}

// InterfaceOn returns the interface name this edge uses on deviceID.
func (e *Edge) InterfaceOn(deviceID string) (string, bool) {
	switch deviceID {
	case e.SourceDeviceID:
		return e.SourceInterface, true
	case e.TargetDeviceID:
		return e.TargetInterface, true
	default:
		return "", false
	}
}

// AllowsVLAN reports whether vlanID may cross this edge. An empty allow-list
// is treated as "carries nothing tagged" for continuity purposes — callers
// that need "carries everything" semantics (e.g. a trunk with no explicit
// restriction) should check medium/mode themselves; the registered checks
// only ever compare a VLAN against a non-empty allow-list.
func (e *Edge) AllowsVLAN(vlanID int) bool {
	for _, v := range e.VLANAllowList {
		if v == vlanID {
			return true
		}
	}
	return false
}

// Graph is the assembled, read-only view of one project's topology. Every
// accessor returns results in a deterministic order (device-id lexical) so
// two runs over unchanged inputs produce identical findings and
// reachability matrices.
type Graph struct {
	ProjectID string
	nodes     map[string]*Node
	edgesBy   map[string][]*Edge // deviceID -> incident edges, in link-id order
	allEdges  []*Edge
}

// DataStore is the narrow persistence interface Assemble needs. Satisfied
// by *store.Store without this package importing it.
type DataStore interface {
	ListDevices(projectID string) ([]*model.Device, error)
	ListInterfaces(deviceID string) ([]*model.Interface, error)
	ListDeviceVLANs(deviceID string) ([]model.DeviceVlan, error)
	ListLinks(projectID string) ([]*model.Link, error)
	ListStaticRoutes(deviceID string) ([]model.StaticRoute, error)
}

// Assemble reads a project's devices, interfaces, VLAN databases, and links
// once and builds an immutable Graph.
func Assemble(store DataStore, projectID string) (*Graph, error) {
	devices, err := store.ListDevices(projectID)
	if err != nil {
		return nil, fmt.Errorf("assemble: list devices: %w", err)
	}

	g := &Graph{
		ProjectID: projectID,
		nodes:     make(map[string]*Node, len(devices)),
		edgesBy:   make(map[string][]*Edge),
	}

	for _, d := range devices {
		ifaces, err := store.ListInterfaces(d.ID)
		if err != nil {
			return nil, fmt.Errorf("assemble: list interfaces for %s: %w", d.Hostname, err)
		}
		vlans, err := store.ListDeviceVLANs(d.ID)
		if err != nil {
			return nil, fmt.Errorf("assemble: list vlans for %s: %w", d.Hostname, err)
		}
		routes, err := store.ListStaticRoutes(d.ID)
		if err != nil {
			return nil, fmt.Errorf("assemble: list static routes for %s: %w", d.Hostname, err)
		}

		node := &Node{
			Device:       d,
			VLANs:        make(map[int]bool, len(vlans)),
			Interfaces:   make(map[string]*model.Interface, len(ifaces)),
			StaticRoutes: routes,
		}
		for _, v := range vlans {
			node.VLANs[v.VLANID] = true
		}
		for _, i := range ifaces {
			node.Interfaces[i.Name] = i
		}
		g.nodes[d.ID] = node
	}

	links, err := store.ListLinks(projectID)
	if err != nil {
		return nil, fmt.Errorf("assemble: list links: %w", err)
	}
	for _, l := range links {
		edge := &Edge{
			Link:            l,
			SourceDeviceID:  l.SourceDeviceID,
			SourceInterface: l.SourceInterface,
			TargetDeviceID:  l.TargetDeviceID,
			TargetInterface: l.TargetInterface,
			Medium:          l.Medium,
			VLANAllowList:   l.VLANAllowList,
		}
		g.allEdges = append(g.allEdges, edge)
		g.edgesBy[l.SourceDeviceID] = append(g.edgesBy[l.SourceDeviceID], edge)
		g.edgesBy[l.TargetDeviceID] = append(g.edgesBy[l.TargetDeviceID], edge)
	}

	return g, nil
}

// Node returns the node for deviceID, or nil if absent.
func (g *Graph) Node(deviceID string) *Node {
	return g.nodes[deviceID]
}

// DeviceIDs returns every device id in the graph, sorted lexically.
func (g *Graph) DeviceIDs() []string {
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Nodes returns every node in the graph, ordered by device id.
func (g *Graph) Nodes() []*Node {
	ids := g.DeviceIDs()
	out := make([]*Node, 0, len(ids))
	for _, id := range ids {
		out = append(out, g.nodes[id])
	}
	return out
}

// NodesByRole returns every node whose device has the given role, ordered
// by device id.
func (g *Graph) NodesByRole(role model.DeviceRole) []*Node {
	var out []*Node
	for _, n := range g.Nodes() {
		if n.Device.Role == role {
			out = append(out, n)
		}
	}
	return out
}

// Edges returns every edge incident on deviceID, ordered by link id.
func (g *Graph) Edges(deviceID string) []*Edge {
	edges := append([]*Edge(nil), g.edgesBy[deviceID]...)
	sort.Slice(edges, func(i, j int) bool { return edges[i].Link.ID < edges[j].Link.ID })
	return edges
}

// AllEdges returns every edge in the graph, ordered by link id.
func (g *Graph) AllEdges() []*Edge {
	edges := append([]*Edge(nil), g.allEdges...)
	sort.Slice(edges, func(i, j int) bool { return edges[i].Link.ID < edges[j].Link.ID })
	return edges
}

// Neighbors returns the device ids directly linked to deviceID, sorted
// lexically.
func (g *Graph) Neighbors(deviceID string) []string {
	seen := make(map[string]bool)
	for _, e := range g.edgesBy[deviceID] {
		other, _, ok := e.OtherEnd(deviceID)
		if ok {
			seen[other] = true
		}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// ShortestPath runs a breadth-first search from src to dst, breaking ties by
// visiting neighbors in device-id lexical order. Returns the ordered device path
// and the edges traversed, or ok=false if no path exists.
func (g *Graph) ShortestPath(src, dst string) (path []string, edges []*Edge, ok bool) {
	if src == dst {
		if _, exists := g.nodes[src]; exists {
			return []string{src}, nil, true
		}
		return nil, nil, false
	}

	visited := map[string]bfsStep{src: {}}
	queue := []string{src}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		edges := g.Edges(cur)
		neighbors := make([]string, 0, len(edges))
		edgeByNeighbor := make(map[string]*Edge, len(edges))
		for _, e := range edges {
			other, _, okEnd := e.OtherEnd(cur)
			if !okEnd {
				continue
			}
			if _, already := edgeByNeighbor[other]; already {
				continue
			}
			neighbors = append(neighbors, other)
			edgeByNeighbor[other] = e
		}
		sort.Strings(neighbors)

		for _, next := range neighbors {
			if _, seen := visited[next]; seen {
				continue
			}
			visited[next] = bfsStep{via: edgeByNeighbor[next], prev: cur}
			if next == dst {
				return reconstructPath(visited, src, dst)
			}
			queue = append(queue, next)
		}
	}
	return nil, nil, false
}

// bfsStep records how ShortestPath's BFS reached one device: the edge it
// arrived on and the device it came from.
type bfsStep struct {
	via  *Edge
	prev string
}

func reconstructPath(visited map[string]bfsStep, src, dst string) ([]string, []*Edge, bool) {
	var path []string
	var edges []*Edge
	cur := dst
	for cur != src {
		s := visited[cur]
		path = append([]string{cur}, path...)
		edges = append([]*Edge{s.via}, edges...)
		cur = s.prev
	}
	path = append([]string{src}, path...)
	return path, edges, true
}

// ReachabilityMatrix computes path existence for every ordered pair of
// devices. Absence
// of a path is not itself a finding — checks decide severity.
func (g *Graph) ReachabilityMatrix() map[string]map[string]bool {
	ids := g.DeviceIDs()
	matrix := make(map[string]map[string]bool, len(ids))
	for _, src := range ids {
		srcHost := g.nodes[src].Device.Hostname
		matrix[srcHost] = make(map[string]bool, len(ids))
		for _, dst := range ids {
			dstHost := g.nodes[dst].Device.Hostname
			if src == dst {
				matrix[srcHost][dstHost] = true
				continue
			}
			_, _, ok := g.ShortestPath(src, dst)
			matrix[srcHost][dstHost] = ok
		}
	}
	return matrix
}
