package lateral

import (
	"context"
	"testing"
)

func TestShortestPathSelf(t *testing.T) {
	g := NewGraph()
	g.AddNode("a", "entity", nil)
	path := g.ShortestPath("a", "a")
	if len(path) != 1 || path[0] != "a" {
		t.Fatalf("expected [a], got %v", path)
	}
}

func TestShortestPathAdjacency(t *testing.T) {
	g := NewGraph()
	g.AddEdge(Edge{Src: "a", Dst: "b"})
	g.AddEdge(Edge{Src: "b", Dst: "c"})

	path := g.ShortestPath("a", "c")
	if path == nil {
		t.Fatal("expected a path")
	}
	for i := 0; i < len(path)-1; i++ {
		found := false
		for _, n := range g.GetNeighbors(path[i]) {
			if n == path[i+1] {
				found = true
			}
		}
		if !found {
			t.Fatalf("path %v: %s not adjacent to %s", path, path[i], path[i+1])
		}
	}
}

func TestShortestPathNoneExists(t *testing.T) {
	g := NewGraph()
	g.AddNode("a", "entity", nil)
	g.AddNode("b", "entity", nil)
	if p := g.ShortestPath("a", "b"); p != nil {
		t.Fatalf("expected no path, got %v", p)
	}
}

func TestAllPathsRespectsMaxDepth(t *testing.T) {
	g := NewGraph()
	g.AddEdge(Edge{Src: "a", Dst: "b"})
	g.AddEdge(Edge{Src: "b", Dst: "c"})
	g.AddEdge(Edge{Src: "c", Dst: "d"})

	paths := g.AllPaths("a", "d", 3)
	if len(paths) != 0 {
		t.Fatalf("path of length 4 should be excluded by maxDepth=3, got %v", paths)
	}
	paths = g.AllPaths("a", "d", 4)
	if len(paths) != 1 {
		t.Fatalf("expected exactly one path at maxDepth=4, got %v", paths)
	}
}

func TestAdjacencyMatrixDeterministicOrdering(t *testing.T) {
	g := NewGraph()
	g.AddEdge(Edge{Src: "zebra", Dst: "apple"})
	nodes, m := g.AdjacencyMatrix()
	if nodes[0] != "apple" || nodes[1] != "zebra" {
		t.Fatalf("expected sorted nodes, got %v", nodes)
	}
	if m.At(1, 0) != 1 {
		t.Fatalf("expected edge zebra->apple recorded at [1][0], got %v", m.At(1, 0))
	}
}

func TestGNNEmbeddingsStableAcrossRuns(t *testing.T) {
	build := func() ([]string, [][]float64) {
		d := NewDetector(DefaultDetectorConfig())
		d.Graph().AddNode("a", "entity", []float64{0.9, 0, 0, 0, 0, 0, 0, 0})
		d.Graph().AddNode("b", "resource", []float64{0.1, 0, 0, 0, 0, 0, 0, 0})
		d.AddAccessEvent(Edge{Src: "a", Dst: "b", Timestamp: 1})
		nodes, embeddings := d.ComputeEmbeddings()
		out := make([][]float64, len(nodes))
		for i := range nodes {
			out[i] = append([]float64{}, embeddings.RawRowView(i)...)
		}
		return nodes, out
	}

	nodes1, emb1 := build()
	nodes2, emb2 := build()

	if len(nodes1) != len(nodes2) {
		t.Fatalf("node count mismatch across runs")
	}
	for i := range emb1 {
		for j := range emb1[i] {
			if emb1[i][j] != emb2[i][j] {
				t.Fatalf("embedding for %s differs across runs with the same seed: %v vs %v", nodes1[i], emb1[i], emb2[i])
			}
		}
	}
}

func TestCredentialHopping(t *testing.T) {
	cfg := DefaultDetectorConfig()
	d := NewDetector(cfg)
	for i := 0; i < 6; i++ {
		d.AddAccessEvent(Edge{
			Src:       "attacker",
			Dst:       stringOfIndex(i),
			Timestamp: float64(i),
			Success:   true,
		})
	}

	alerts := d.Detect(context.Background())
	var found *Alert
	for i := range alerts {
		if alerts[i].Type == "credential_hopping" {
			found = &alerts[i]
			break
		}
	}
	if found == nil {
		t.Fatal("expected a credential_hopping alert")
	}
	if found.Path[0] != "attacker" {
		t.Fatalf("expected path to start with attacker, got %v", found.Path)
	}
	if found.Details["hop_count"].(int) < 3 {
		t.Fatalf("expected hop_count >= 3, got %v", found.Details["hop_count"])
	}
}

func TestPrivilegeEscalationRequiresPathLengthThree(t *testing.T) {
	d := NewDetector(DefaultDetectorConfig())
	d.Graph().AddNode("low", "entity", []float64{0.1, 0, 0, 0, 0, 0, 0, 0})
	d.Graph().AddNode("mid", "entity", []float64{0.5, 0, 0, 0, 0, 0, 0, 0})
	d.Graph().AddNode("high", "entity", []float64{0.9, 0, 0, 0, 0, 0, 0, 0})
	d.AddAccessEvent(Edge{Src: "low", Dst: "mid", Timestamp: 1})
	d.AddAccessEvent(Edge{Src: "mid", Dst: "high", Timestamp: 2})

	alerts := d.Detect(context.Background())
	found := false
	for _, a := range alerts {
		if a.Type == "privilege_escalation" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a privilege_escalation alert for low->mid->high")
	}
}

func TestEmbeddingAnomalyRequiresBaseline(t *testing.T) {
	d := NewDetector(DefaultDetectorConfig())
	d.Graph().AddNode("a", "entity", nil)
	d.AddAccessEvent(Edge{Src: "a", Dst: "b"})

	alerts := d.Detect(context.Background())
	for _, a := range alerts {
		if a.Type == "embedding_anomaly" {
			t.Fatal("no embedding_anomaly alerts expected without a learned baseline")
		}
	}
}

func TestAnalyzePathRisk(t *testing.T) {
	d := NewDetector(DefaultDetectorConfig())
	d.AddAccessEvent(Edge{Src: "a", Dst: "b", CredentialType: "password", Success: false})
	d.AddAccessEvent(Edge{Src: "b", Dst: "c", CredentialType: "key", Success: true})

	result := d.AnalyzePath([]string{"a", "b", "c"})
	if result.RiskScore <= 0 || result.RiskScore > 1 {
		t.Fatalf("expected risk in (0,1], got %v", result.RiskScore)
	}
	if result.FailedAttempts != 1 {
		t.Fatalf("expected 1 failed attempt, got %d", result.FailedAttempts)
	}
}

func stringOfIndex(i int) string {
	return "target-" + string(rune('0'+i))
}
