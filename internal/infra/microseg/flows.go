// Package microseg aggregates observed network flows into
// communication patterns, manages microsegment definitions, and
// recommends least-privilege segmentation policy from what it sees.
package microseg

import (
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Flow is a single observed network flow between two endpoints.
type Flow struct {
	Src       string
	Dst       string
	Port      int
	Protocol  string
	BytesSent int64
	BytesRecv int64
	Timestamp float64
	Duration  float64
	Allowed   bool
}

// TalkerStats ranks an endpoint by how much it communicates.
type TalkerStats struct {
	Endpoint string
	Outbound int
	Inbound  int
	Total    int
}

// CrossSegmentFlow is a flow whose endpoints fall in different segments.
type CrossSegmentFlow struct {
	Src         string
	Dst         string
	SrcSegment  string
	DstSegment  string
	Port        int
	Protocol    string
}

// FlowAnalyzer aggregates raw flows into communication patterns.
// Not internally synchronized — callers own a FlowAnalyzer per
// collection window and serialize writers themselves.
type FlowAnalyzer struct {
	flows       []Flow
	adjacency   map[string]map[string]int
	portsByPair map[string]map[int]bool
	protoByPair map[string]map[string]bool
}

// NewFlowAnalyzer builds an empty flow analyzer.
func NewFlowAnalyzer() *FlowAnalyzer {
	return &FlowAnalyzer{
		adjacency:   make(map[string]map[string]int),
		portsByPair: make(map[string]map[int]bool),
		protoByPair: make(map[string]map[string]bool),
	}
}

func pairKey(src, dst string) string { return src + "->" + dst }

// AddFlow records a single observed flow.
func (f *FlowAnalyzer) AddFlow(flow Flow) {
	f.flows = append(f.flows, flow)
	if f.adjacency[flow.Src] == nil {
		f.adjacency[flow.Src] = make(map[string]int)
	}
	f.adjacency[flow.Src][flow.Dst]++

	key := pairKey(flow.Src, flow.Dst)
	if f.portsByPair[key] == nil {
		f.portsByPair[key] = make(map[int]bool)
		f.protoByPair[key] = make(map[string]bool)
	}
	f.portsByPair[key][flow.Port] = true
	f.protoByPair[key][flow.Protocol] = true
}

// AddFlows records a batch of flows in order.
func (f *FlowAnalyzer) AddFlows(flows []Flow) {
	for _, fl := range flows {
		f.AddFlow(fl)
	}
}

// Flows returns every flow recorded so far.
func (f *FlowAnalyzer) Flows() []Flow {
	out := make([]Flow, len(f.flows))
	copy(out, f.flows)
	return out
}

// Endpoints returns the set of every src/dst seen, sorted.
func (f *FlowAnalyzer) Endpoints() []string {
	seen := make(map[string]bool)
	for _, fl := range f.flows {
		seen[fl.Src] = true
		seen[fl.Dst] = true
	}
	out := make([]string, 0, len(seen))
	for e := range seen {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}

// CommunicationMatrix builds a communication-frequency matrix over the
// sorted endpoint list.
func (f *FlowAnalyzer) CommunicationMatrix() ([]string, *mat.Dense) {
	endpoints := f.Endpoints()
	idx := make(map[string]int, len(endpoints))
	for i, e := range endpoints {
		idx[e] = i
	}
	n := len(endpoints)
	m := mat.NewDense(n, n, nil)
	for src, dsts := range f.adjacency {
		si, ok := idx[src]
		if !ok {
			continue
		}
		for dst, count := range dsts {
			di, ok := idx[dst]
			if !ok {
				continue
			}
			m.Set(si, di, float64(count))
		}
	}
	return endpoints, m
}

// DefaultClusterThreshold is the affinity cutoff used by DiscoverClusters
// unless a caller overrides it.
const DefaultClusterThreshold = 0.1

// DiscoverClusters groups endpoints that communicate frequently with
// each other using a symmetrized affinity matrix normalized by twice
// the largest row sum,
// and greedy grouping in sorted endpoint order.
func (f *FlowAnalyzer) DiscoverClusters(threshold float64) []map[string]bool {
	endpoints, m := f.CommunicationMatrix()
	if len(endpoints) < 2 {
		if len(endpoints) == 0 {
			return nil
		}
		return []map[string]bool{{endpoints[0]: true}}
	}

	n := len(endpoints)
	var maxRowSum float64
	for i := 0; i < n; i++ {
		var sum float64
		for j := 0; j < n; j++ {
			sum += m.At(i, j)
		}
		if sum > maxRowSum {
			maxRowSum = sum
		}
	}
	if maxRowSum == 0 {
		maxRowSum = 1
	}

	affinity := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := (m.At(i, j) + m.At(j, i)) / (2 * maxRowSum)
			affinity.Set(i, j, v)
		}
	}

	assigned := make([]bool, n)
	var clusters []map[string]bool
	for i := 0; i < n; i++ {
		if assigned[i] {
			continue
		}
		cluster := map[string]bool{endpoints[i]: true}
		assigned[i] = true
		for j := 0; j < n; j++ {
			if assigned[j] {
				continue
			}
			if affinity.At(i, j) > threshold || affinity.At(j, i) > threshold {
				cluster[endpoints[j]] = true
				assigned[j] = true
			}
		}
		clusters = append(clusters, cluster)
	}
	return clusters
}

// CrossSegmentFlows returns every recorded flow whose endpoints fall in
// different segments, given a member->segment membership map.
func (f *FlowAnalyzer) CrossSegmentFlows(segments map[string]string) []CrossSegmentFlow {
	var out []CrossSegmentFlow
	for _, fl := range f.flows {
		srcSeg := segments[fl.Src]
		if srcSeg == "" {
			srcSeg = "unknown"
		}
		dstSeg := segments[fl.Dst]
		if dstSeg == "" {
			dstSeg = "unknown"
		}
		if srcSeg == dstSeg {
			continue
		}
		out = append(out, CrossSegmentFlow{
			Src: fl.Src, Dst: fl.Dst,
			SrcSegment: srcSeg, DstSegment: dstSeg,
			Port: fl.Port, Protocol: fl.Protocol,
		})
	}
	return out
}

// TopTalkers ranks endpoints by total flow count (in + out), descending.
func (f *FlowAnalyzer) TopTalkers(n int) []TalkerStats {
	out := make(map[string]int)
	in := make(map[string]int)
	for _, fl := range f.flows {
		out[fl.Src]++
		in[fl.Dst]++
	}

	seen := make(map[string]bool)
	var eps []string
	for e := range out {
		if !seen[e] {
			seen[e] = true
			eps = append(eps, e)
		}
	}
	for e := range in {
		if !seen[e] {
			seen[e] = true
			eps = append(eps, e)
		}
	}
	sort.Strings(eps)

	stats := make([]TalkerStats, 0, len(eps))
	for _, e := range eps {
		stats = append(stats, TalkerStats{
			Endpoint: e, Outbound: out[e], Inbound: in[e], Total: out[e] + in[e],
		})
	}
	sort.SliceStable(stats, func(i, j int) bool { return stats[i].Total > stats[j].Total })
	if n > 0 && n < len(stats) {
		stats = stats[:n]
	}
	return stats
}

// PortSummary counts flows by destination port, sorted by count
// descending (ties broken by port ascending).
func (f *FlowAnalyzer) PortSummary() []struct {
	Port  int
	Count int
} {
	counts := make(map[int]int)
	for _, fl := range f.flows {
		counts[fl.Port]++
	}
	ports := make([]int, 0, len(counts))
	for p := range counts {
		ports = append(ports, p)
	}
	sort.Ints(ports)
	sort.SliceStable(ports, func(i, j int) bool { return counts[ports[i]] > counts[ports[j]] })

	out := make([]struct {
		Port  int
		Count int
	}, 0, len(ports))
	for _, p := range ports {
		out = append(out, struct {
			Port  int
			Count int
		}{Port: p, Count: counts[p]})
	}
	return out
}
