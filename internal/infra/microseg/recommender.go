package microseg

import "sort"

// PolicyRecommendation is a suggested segment-to-segment access rule
// derived from observed cross-segment flows.
type PolicyRecommendation struct {
	SrcSegment string
	DstSegment string
	Ports      []int
	FlowCount  int
	Confidence float64
}

// CoverageReport summarizes how much observed cross-segment traffic a
// recommendation set would cover.
type CoverageReport struct {
	TotalCrossSegmentFlows int
	CoveredFlows           int
	CoverageRatio          float64
	UncoveredPairs         []string
}

// DefaultMinFlowCount is the minimum number of observed flows a
// src/dst segment pair needs before it is recommended, filtering out
// one-off noise.
const DefaultMinFlowCount = 3

// PolicyRecommender derives least-privilege segmentation and
// communication policy from observed flows.
type PolicyRecommender struct {
	flows    *FlowAnalyzer
	segments *SegmentManager
}

// NewPolicyRecommender builds a recommender over an existing flow
// analyzer and segment manager.
func NewPolicyRecommender(flows *FlowAnalyzer, segments *SegmentManager) *PolicyRecommender {
	return &PolicyRecommender{flows: flows, segments: segments}
}

// Recommend groups observed cross-segment flows by (src segment, dst
// segment) and proposes an egress rule for each pair that clears
// minFlowCount, with confidence capped at 1.0 and scaled by volume.
func (r *PolicyRecommender) Recommend(minFlowCount int) []PolicyRecommendation {
	if minFlowCount <= 0 {
		minFlowCount = DefaultMinFlowCount
	}
	membership := r.segments.GetMembershipMap()
	crossFlows := r.flows.CrossSegmentFlows(membership)

	type pairKey struct{ src, dst string }
	counts := make(map[pairKey]int)
	ports := make(map[pairKey]map[int]bool)
	for _, f := range crossFlows {
		k := pairKey{f.SrcSegment, f.DstSegment}
		counts[k]++
		if ports[k] == nil {
			ports[k] = make(map[int]bool)
		}
		ports[k][f.Port] = true
	}

	keys := make([]pairKey, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].src != keys[j].src {
			return keys[i].src < keys[j].src
		}
		return keys[i].dst < keys[j].dst
	})

	var out []PolicyRecommendation
	for _, k := range keys {
		count := counts[k]
		if count < minFlowCount {
			continue
		}
		portList := make([]int, 0, len(ports[k]))
		for p := range ports[k] {
			portList = append(portList, p)
		}
		sort.Ints(portList)

		confidence := float64(count) / 100
		if confidence > 1 {
			confidence = 1
		}
		out = append(out, PolicyRecommendation{
			SrcSegment: k.src,
			DstSegment: k.dst,
			Ports:      portList,
			FlowCount:  count,
			Confidence: confidence,
		})
	}
	return out
}

// RecommendSegments clusters observed endpoints by communication
// affinity and returns one candidate segment (as a sorted member
// list) per cluster, for endpoints that have no segment assignment
// yet.
func (r *PolicyRecommender) RecommendSegments(threshold float64) [][]string {
	clusters := r.flows.DiscoverClusters(threshold)
	membership := r.segments.GetMembershipMap()

	var out [][]string
	for _, cluster := range clusters {
		var unassigned []string
		for member := range cluster {
			if _, ok := membership[member]; !ok {
				unassigned = append(unassigned, member)
			}
		}
		if len(unassigned) == 0 {
			continue
		}
		sort.Strings(unassigned)
		out = append(out, unassigned)
	}
	return out
}

// CoverageReport measures what fraction of observed cross-segment
// flows would be permitted by the given recommendations, and lists
// the src/dst segment pairs left uncovered.
func (r *PolicyRecommender) CoverageReport(recs []PolicyRecommendation) CoverageReport {
	membership := r.segments.GetMembershipMap()
	crossFlows := r.flows.CrossSegmentFlows(membership)

	covered := make(map[[2]string]bool, len(recs))
	for _, rec := range recs {
		covered[[2]string{rec.SrcSegment, rec.DstSegment}] = true
	}

	report := CoverageReport{TotalCrossSegmentFlows: len(crossFlows)}
	uncoveredSet := make(map[string]bool)
	for _, f := range crossFlows {
		key := [2]string{f.SrcSegment, f.DstSegment}
		if covered[key] {
			report.CoveredFlows++
		} else {
			uncoveredSet[f.SrcSegment+"->"+f.DstSegment] = true
		}
	}
	if report.TotalCrossSegmentFlows > 0 {
		report.CoverageRatio = float64(report.CoveredFlows) / float64(report.TotalCrossSegmentFlows)
	}

	for pair := range uncoveredSet {
		report.UncoveredPairs = append(report.UncoveredPairs, pair)
	}
	sort.Strings(report.UncoveredPairs)
	return report
}
