// Package lateral builds an access graph and detects lateral-movement
// patterns in it using a small fixed-weight graph neural network plus a
// handful of pattern heuristics (credential hopping, privilege
// escalation, embedding drift).
package lateral

import (
	"sort"

	"gonum.org/v1/gonum/mat"
)

// FeatureDim is the default node feature vector length. By convention
// feature index 0 encodes privilege level in [0, 1] — see PrivilegeLevel.
const FeatureDim = 8

// PrivilegeFeatureIndex names the feature-vector slot that carries
// privilege level, so detection code never embeds the magic index
// directly.
const PrivilegeFeatureIndex = 0

// Edge is a single directed access event between two graph nodes.
type Edge struct {
	Src            string
	Dst            string
	Action         string
	Timestamp      float64
	CredentialType string
	Success        bool
	RiskScore      float64
}

// Graph is an access graph: nodes are entities/resources, edges are
// directed access events. Multi-edges are permitted. Not internally
// synchronized; the Detector serializes its own access through its
// mutex (see Detector).
type Graph struct {
	nodeTypes    map[string]string
	nodeFeatures map[string][]float64
	adjacency    map[string]map[string][]Edge
	edges        []Edge
}

// NewGraph builds an empty access graph.
func NewGraph() *Graph {
	return &Graph{
		nodeTypes:    make(map[string]string),
		nodeFeatures: make(map[string][]float64),
		adjacency:    make(map[string]map[string][]Edge),
	}
}

// AddNode registers a node with the given type and feature vector. A
// nil features argument gets a zero vector of FeatureDim length.
func (g *Graph) AddNode(id, nodeType string, features []float64) {
	g.nodeTypes[id] = nodeType
	if features == nil {
		features = make([]float64, FeatureDim)
	}
	g.nodeFeatures[id] = features
}

// AddEdge records edge, auto-adding either endpoint as "entity"/"resource"
// if it hasn't been seen before.
func (g *Graph) AddEdge(edge Edge) {
	g.edges = append(g.edges, edge)
	if g.adjacency[edge.Src] == nil {
		g.adjacency[edge.Src] = make(map[string][]Edge)
	}
	g.adjacency[edge.Src][edge.Dst] = append(g.adjacency[edge.Src][edge.Dst], edge)

	if _, ok := g.nodeTypes[edge.Src]; !ok {
		g.AddNode(edge.Src, "entity", nil)
	}
	if _, ok := g.nodeTypes[edge.Dst]; !ok {
		g.AddNode(edge.Dst, "resource", nil)
	}
}

// Edges returns every edge added so far, in insertion order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// NodeType returns id's recorded type, or "" if unknown.
func (g *Graph) NodeType(id string) string { return g.nodeTypes[id] }

// NodeFeatures returns id's feature vector, or nil if unknown.
func (g *Graph) NodeFeatures(id string) []float64 { return g.nodeFeatures[id] }

// PrivilegeLevel returns the node's privilege-level convention feature
// (index PrivilegeFeatureIndex), or 0 if the node or feature is absent.
func (g *Graph) PrivilegeLevel(id string) float64 {
	f := g.nodeFeatures[id]
	if len(f) <= PrivilegeFeatureIndex {
		return 0
	}
	return f[PrivilegeFeatureIndex]
}

// Nodes returns every node id in sorted order, fixing a deterministic
// index for matrix construction.
func (g *Graph) Nodes() []string {
	nodes := make([]string, 0, len(g.nodeTypes))
	for id := range g.nodeTypes {
		nodes = append(nodes, id)
	}
	sort.Strings(nodes)
	return nodes
}

// GetNeighbors returns the set of ids reachable from id via one outbound
// edge.
func (g *Graph) GetNeighbors(id string) []string {
	dsts := g.adjacency[id]
	out := make([]string, 0, len(dsts))
	for dst := range dsts {
		out = append(out, dst)
	}
	sort.Strings(out)
	return out
}

// GetEdgesBetween returns every edge recorded directly from src to dst.
func (g *Graph) GetEdgesBetween(src, dst string) []Edge {
	edges := g.adjacency[src][dst]
	out := make([]Edge, len(edges))
	copy(out, edges)
	return out
}

// AdjacencyMatrix builds the (edge-count-weighted) adjacency matrix over
// the sorted node list: entry [i][j] is the number of edges from node i
// to node j.
func (g *Graph) AdjacencyMatrix() ([]string, *mat.Dense) {
	nodes := g.Nodes()
	idx := make(map[string]int, len(nodes))
	for i, n := range nodes {
		idx[n] = i
	}
	n := len(nodes)
	m := mat.NewDense(n, n, nil)
	for src, dsts := range g.adjacency {
		si, ok := idx[src]
		if !ok {
			continue
		}
		for dst, edges := range dsts {
			di, ok := idx[dst]
			if !ok {
				continue
			}
			m.Set(si, di, float64(len(edges)))
		}
	}
	return nodes, m
}

// FeatureMatrix builds the node feature matrix over the sorted node
// list, one row per node.
func (g *Graph) FeatureMatrix() ([]string, *mat.Dense) {
	nodes := g.Nodes()
	if len(nodes) == 0 {
		return nodes, mat.NewDense(0, FeatureDim, nil)
	}
	dim := len(g.nodeFeatures[nodes[0]])
	if dim == 0 {
		dim = FeatureDim
	}
	m := mat.NewDense(len(nodes), dim, nil)
	for i, id := range nodes {
		f := g.nodeFeatures[id]
		for j := 0; j < dim && j < len(f); j++ {
			m.Set(i, j, f[j])
		}
	}
	return nodes, m
}

// ShortestPath returns the shortest node-to-node path from src to dst
// via BFS, or nil if no path exists. ShortestPath(a, a) = [a].
func (g *Graph) ShortestPath(src, dst string) []string {
	if src == dst {
		return []string{src}
	}

	visited := map[string]bool{src: true}
	type frame struct {
		node string
		path []string
	}
	queue := []frame{{src, []string{src}}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, neighbor := range g.GetNeighbors(cur.node) {
			if neighbor == dst {
				return append(append([]string{}, cur.path...), neighbor)
			}
			if !visited[neighbor] {
				visited[neighbor] = true
				next := append(append([]string{}, cur.path...), neighbor)
				queue = append(queue, frame{neighbor, next})
			}
		}
	}
	return nil
}

// AllPaths enumerates every simple path from src to dst of length at
// most maxDepth (node count), via DFS.
func (g *Graph) AllPaths(src, dst string, maxDepth int) [][]string {
	var paths [][]string
	visited := map[string]bool{src: true}
	path := []string{src}

	var dfs func(current string)
	dfs = func(current string) {
		if len(path) > maxDepth {
			return
		}
		if current == dst {
			cp := make([]string, len(path))
			copy(cp, path)
			paths = append(paths, cp)
			return
		}
		for _, neighbor := range g.GetNeighbors(current) {
			if visited[neighbor] {
				continue
			}
			visited[neighbor] = true
			path = append(path, neighbor)
			dfs(neighbor)
			path = path[:len(path)-1]
			delete(visited, neighbor)
		}
	}
	dfs(src)
	return paths
}

// DefaultMaxPathDepth is the conventional depth cap for AllPaths.
// AllPaths takes maxDepth explicitly and does not read this constant.
const DefaultMaxPathDepth = 5

// NodeDegree reports id's in-degree, out-degree, and total degree.
type NodeDegree struct {
	In    int
	Out   int
	Total int
}

// NodeDegree computes id's degree counts.
func (g *Graph) NodeDegree(id string) NodeDegree {
	out := len(g.adjacency[id])
	in := 0
	for src, dsts := range g.adjacency {
		if src == id {
			continue
		}
		if _, ok := dsts[id]; ok {
			in++
		}
	}
	return NodeDegree{In: in, Out: out, Total: in + out}
}

// CentralityEntry is a single row of a HighCentralityNodes report.
type CentralityEntry struct {
	NodeID   string
	NodeType string
	Degree   NodeDegree
}

// HighCentralityNodes returns up to topN nodes ranked by total degree
// descending, ties broken by node id ascending for determinism.
func (g *Graph) HighCentralityNodes(topN int) []CentralityEntry {
	nodes := g.Nodes()
	entries := make([]CentralityEntry, 0, len(nodes))
	for _, id := range nodes {
		entries = append(entries, CentralityEntry{
			NodeID:   id,
			NodeType: g.nodeTypes[id],
			Degree:   g.NodeDegree(id),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Degree.Total > entries[j].Degree.Total
	})
	if topN > 0 && topN < len(entries) {
		entries = entries[:topN]
	}
	return entries
}
