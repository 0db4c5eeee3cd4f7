package microseg

import "testing"

func TestDiscoverClustersGroupsFrequentTalkers(t *testing.T) {
	fa := NewFlowAnalyzer()
	for i := 0; i < 10; i++ {
		fa.AddFlow(Flow{Src: "a", Dst: "b", Port: 443, Protocol: "tcp"})
		fa.AddFlow(Flow{Src: "b", Dst: "a", Port: 443, Protocol: "tcp"})
	}
	fa.AddFlow(Flow{Src: "c", Dst: "d", Port: 22, Protocol: "tcp"})

	clusters := fa.DiscoverClusters(DefaultClusterThreshold)
	var found bool
	for _, c := range clusters {
		if c["a"] && c["b"] {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a and b to cluster together, got %+v", clusters)
	}
}

func TestTopTalkersRanksByTotal(t *testing.T) {
	fa := NewFlowAnalyzer()
	fa.AddFlow(Flow{Src: "a", Dst: "b", Port: 80})
	fa.AddFlow(Flow{Src: "a", Dst: "c", Port: 80})
	fa.AddFlow(Flow{Src: "b", Dst: "c", Port: 80})

	top := fa.TopTalkers(1)
	if len(top) != 1 || top[0].Endpoint != "a" {
		t.Fatalf("expected a to be the top talker, got %+v", top)
	}
	if top[0].Total != 2 {
		t.Fatalf("expected total 2 for a, got %d", top[0].Total)
	}
}

func TestPortSummarySortedByCount(t *testing.T) {
	fa := NewFlowAnalyzer()
	fa.AddFlow(Flow{Src: "a", Dst: "b", Port: 443})
	fa.AddFlow(Flow{Src: "a", Dst: "c", Port: 443})
	fa.AddFlow(Flow{Src: "a", Dst: "d", Port: 22})

	summary := fa.PortSummary()
	if len(summary) != 2 || summary[0].Port != 443 || summary[0].Count != 2 {
		t.Fatalf("expected port 443 first with count 2, got %+v", summary)
	}
}

func TestSegmentSameSegmentAlwaysAllowed(t *testing.T) {
	sm := NewSegmentManager()
	sm.CreateSegment("db", "Database", "")
	sm.AddMember("db", "host1")
	sm.AddMember("db", "host2")

	if !sm.IsAllowed("host1", "host2", 5432) {
		t.Fatal("expected same-segment communication to be allowed regardless of port rules")
	}
}

func TestSegmentCrossSegmentRequiresExplicitAllow(t *testing.T) {
	sm := NewSegmentManager()
	sm.CreateSegment("web", "Web", "")
	sm.CreateSegment("db", "Database", "")
	sm.AddMember("web", "webhost")
	sm.AddMember("db", "dbhost")

	if sm.IsAllowed("webhost", "dbhost", 5432) {
		t.Fatal("expected cross-segment communication to be denied without an explicit rule")
	}

	sm.AllowCommunication("web", "db", 5432)
	if !sm.IsAllowed("webhost", "dbhost", 5432) {
		t.Fatal("expected allowed port to pass after AllowCommunication")
	}
	if sm.IsAllowed("webhost", "dbhost", 22) {
		t.Fatal("expected non-allowlisted port to be denied")
	}
}

func TestSegmentUnclassifiedEndpointDenied(t *testing.T) {
	sm := NewSegmentManager()
	sm.CreateSegment("web", "Web", "")
	sm.AddMember("web", "webhost")

	if sm.IsAllowed("webhost", "unknown-host", 443) {
		t.Fatal("expected unclassified destination to be denied")
	}
}

func TestIsolationScoreFullyIsolated(t *testing.T) {
	sm := NewSegmentManager()
	sm.CreateSegment("a", "A", "")
	sm.CreateSegment("b", "B", "")
	sm.CreateSegment("c", "C", "")

	if score := sm.IsolationScore("a"); score != 1 {
		t.Fatalf("expected isolation score 1 for segment with no egress rules, got %v", score)
	}

	sm.AllowCommunication("a", "b")
	score := sm.IsolationScore("a")
	if score <= 0 || score >= 1 {
		t.Fatalf("expected partial isolation score in (0,1), got %v", score)
	}
}

func TestRecommendRespectsMinFlowCount(t *testing.T) {
	fa := NewFlowAnalyzer()
	sm := NewSegmentManager()
	sm.CreateSegment("web", "Web", "")
	sm.CreateSegment("db", "Database", "")
	sm.AddMember("web", "webhost")
	sm.AddMember("db", "dbhost")

	fa.AddFlow(Flow{Src: "webhost", Dst: "dbhost", Port: 5432})
	fa.AddFlow(Flow{Src: "webhost", Dst: "dbhost", Port: 5432})

	rec := NewPolicyRecommender(fa, sm)
	if recs := rec.Recommend(3); len(recs) != 0 {
		t.Fatalf("expected no recommendation below min flow count, got %+v", recs)
	}

	fa.AddFlow(Flow{Src: "webhost", Dst: "dbhost", Port: 5432})
	recs := rec.Recommend(3)
	if len(recs) != 1 {
		t.Fatalf("expected one recommendation once threshold is met, got %+v", recs)
	}
	if recs[0].SrcSegment != "web" || recs[0].DstSegment != "db" {
		t.Fatalf("unexpected recommendation pair: %+v", recs[0])
	}
	if recs[0].FlowCount != 3 {
		t.Fatalf("expected flow count 3, got %d", recs[0].FlowCount)
	}
}

func TestCoverageReport(t *testing.T) {
	fa := NewFlowAnalyzer()
	sm := NewSegmentManager()
	sm.CreateSegment("web", "Web", "")
	sm.CreateSegment("db", "Database", "")
	sm.AddMember("web", "webhost")
	sm.AddMember("db", "dbhost")

	for i := 0; i < 5; i++ {
		fa.AddFlow(Flow{Src: "webhost", Dst: "dbhost", Port: 5432})
	}

	rec := NewPolicyRecommender(fa, sm)
	recs := rec.Recommend(1)
	report := rec.CoverageReport(recs)
	if report.CoverageRatio != 1 {
		t.Fatalf("expected full coverage, got %+v", report)
	}
	if len(report.UncoveredPairs) != 0 {
		t.Fatalf("expected no uncovered pairs, got %+v", report.UncoveredPairs)
	}
}
