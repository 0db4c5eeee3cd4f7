package lateral

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/ztsentinel/sentinel/internal/domain"
	"gonum.org/v1/gonum/mat"
)

// Alert reports a detected lateral-movement pattern.
type Alert struct {
	Type     string         `json:"type"`
	Severity float64        `json:"severity"`
	Path     []string       `json:"path"`
	Details  map[string]any `json:"details"`
}

// DetectorConfig controls the detector's dimensions and thresholds.
type DetectorConfig struct {
	FeatureDim       int
	HiddenDim        int
	OutputDim        int
	HopThreshold     int
	AnomalyThreshold float64
	Seed             int64
}

// DefaultDetectorConfig returns the detector's standard dimensions and
// thresholds.
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		FeatureDim:       FeatureDim,
		HiddenDim:        DefaultHiddenDim,
		OutputDim:        FeatureDim,
		HopThreshold:     3,
		AnomalyThreshold: 2.0,
		Seed:             DefaultSeed,
	}
}

// Detector runs GNN-based lateral movement detection over an access
// graph built incrementally from access events. Thread-safe via mutex;
// the graph and baseline embeddings are shared mutable state.
type Detector struct {
	mu       sync.Mutex
	graph    *Graph
	layer1   *Layer
	layer2   *Layer
	cfg      DetectorConfig
	baseline map[string][]float64
}

// NewDetector builds a detector with a two-layer GNN sized per cfg.
func NewDetector(cfg DetectorConfig) *Detector {
	return &Detector{
		graph:    NewGraph(),
		layer1:   NewLayer(cfg.FeatureDim, cfg.HiddenDim, cfg.Seed),
		layer2:   NewLayer(cfg.HiddenDim, cfg.OutputDim, cfg.Seed+1),
		cfg:      cfg,
		baseline: make(map[string][]float64),
	}
}

// Graph exposes the underlying access graph for direct node/edge setup.
func (d *Detector) Graph() *Graph { return d.graph }

// AddAccessEvent records an access edge in the graph.
func (d *Detector) AddAccessEvent(edge Edge) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.graph.AddEdge(edge)
}

// computeEmbeddings runs the two-layer GNN forward pass over the
// current graph state. Caller must hold d.mu.
func (d *Detector) computeEmbeddings() ([]string, *mat.Dense) {
	nodes, features := d.graph.FeatureMatrix()
	if len(nodes) == 0 {
		return nodes, mat.NewDense(0, d.cfg.OutputDim, nil)
	}
	_, adj := d.graph.AdjacencyMatrix()
	h1 := d.layer1.Forward(features, adj)
	h2 := d.layer2.Forward(h1, adj)
	return nodes, h2
}

// ComputeEmbeddings runs the GNN forward pass over the graph as it
// stands now and returns node ids paired with their embedding rows.
func (d *Detector) ComputeEmbeddings() ([]string, *mat.Dense) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.computeEmbeddings()
}

// LearnBaseline stores the current embeddings as the reference used by
// embedding-anomaly detection, returning the number of nodes learned.
func (d *Detector) LearnBaseline() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	nodes, embeddings := d.computeEmbeddings()
	d.baseline = make(map[string][]float64, len(nodes))
	for i, node := range nodes {
		row := mat.Row(nil, i, embeddings)
		cp := make([]float64, len(row))
		copy(cp, row)
		d.baseline[node] = cp
	}
	return len(nodes)
}

// Detect runs all three detection passes and returns alerts sorted by
// severity descending. Accepts ctx so a caller-supplied cancellation
// signal can interrupt a CPU-bound pass on a large graph.
func (d *Detector) Detect(ctx context.Context) []Alert {
	d.mu.Lock()
	defer d.mu.Unlock()

	var alerts []Alert
	alerts = append(alerts, d.detectCredentialHopping()...)
	if ctx.Err() != nil {
		return sortAlerts(alerts)
	}
	alerts = append(alerts, d.detectPrivilegeEscalation(ctx)...)
	if ctx.Err() != nil {
		return sortAlerts(alerts)
	}
	alerts = append(alerts, d.detectEmbeddingAnomalies()...)
	return sortAlerts(alerts)
}

func sortAlerts(alerts []Alert) []Alert {
	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].Severity > alerts[j].Severity
	})
	return alerts
}

func (d *Detector) detectCredentialHopping() []Alert {
	bySource := make(map[string][]Edge)
	for _, e := range d.graph.edges {
		bySource[e.Src] = append(bySource[e.Src], e)
	}

	srcs := make([]string, 0, len(bySource))
	for src := range bySource {
		srcs = append(srcs, src)
	}
	sort.Strings(srcs)

	var alerts []Alert
	for _, src := range srcs {
		edges := append([]Edge(nil), bySource[src]...)
		sort.SliceStable(edges, func(i, j int) bool { return edges[i].Timestamp < edges[j].Timestamp })

		var uniqueTargets []string
		seen := make(map[string]bool)
		for _, e := range edges {
			if !seen[e.Dst] {
				seen[e.Dst] = true
				uniqueTargets = append(uniqueTargets, e.Dst)
			}
		}

		if len(uniqueTargets) < d.cfg.HopThreshold {
			continue
		}
		severity := math.Min(1.0, float64(len(uniqueTargets))/float64(d.cfg.HopThreshold*2))
		pathLen := d.cfg.HopThreshold + 2
		if pathLen > len(uniqueTargets) {
			pathLen = len(uniqueTargets)
		}
		path := append([]string{src}, uniqueTargets[:pathLen]...)

		alerts = append(alerts, Alert{
			Type:     "credential_hopping",
			Severity: domain.Round4(severity),
			Path:     path,
			Details: map[string]any{
				"source":    src,
				"hop_count": len(uniqueTargets),
				"threshold": d.cfg.HopThreshold,
			},
		})
	}
	return alerts
}

func (d *Detector) detectPrivilegeEscalation(ctx context.Context) []Alert {
	var high, low []string
	for _, id := range d.graph.Nodes() {
		priv := d.graph.PrivilegeLevel(id)
		switch {
		case priv > 0.7:
			high = append(high, id)
		case priv < 0.3:
			low = append(low, id)
		}
	}

	var alerts []Alert
	for _, l := range low {
		if ctx.Err() != nil {
			return alerts
		}
		for _, h := range high {
			paths := d.graph.AllPaths(l, h, 4)
			for _, path := range paths {
				if len(path) < 3 {
					continue
				}
				alerts = append(alerts, Alert{
					Type:     "privilege_escalation",
					Severity: domain.Round4(0.6 + 0.1*float64(len(path))),
					Path:     path,
					Details: map[string]any{
						"source": l,
						"target": h,
						"hops":   len(path) - 1,
					},
				})
			}
		}
	}
	return alerts
}

func (d *Detector) detectEmbeddingAnomalies() []Alert {
	if len(d.baseline) == 0 {
		return nil
	}

	nodes, current := d.computeEmbeddings()
	var alerts []Alert
	for i, node := range nodes {
		base, ok := d.baseline[node]
		if !ok {
			continue
		}
		row := mat.Row(nil, i, current)
		distance := l2Distance(row, base)
		if distance <= d.cfg.AnomalyThreshold {
			continue
		}
		severity := math.Min(1.0, distance/(d.cfg.AnomalyThreshold*3))
		alerts = append(alerts, Alert{
			Type:     "embedding_anomaly",
			Severity: domain.Round4(severity),
			Path:     []string{node},
			Details: map[string]any{
				"node":               node,
				"embedding_distance": domain.Round4(distance),
				"threshold":          d.cfg.AnomalyThreshold,
			},
		})
	}
	return alerts
}

func l2Distance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// PathAnalysis is the risk breakdown returned by AnalyzePath.
type PathAnalysis struct {
	Path              []string
	PathLength        int
	TotalEdges        int
	CredentialChanges int
	FailedAttempts    int
	RiskScore         float64
}

// AnalyzePath scores a specific access path for lateral-movement risk:
// path length, credential-type churn along the path, and failed-access
// count each contribute a capped component.
func (d *Detector) AnalyzePath(path []string) PathAnalysis {
	if len(path) < 2 {
		return PathAnalysis{Path: path}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	var totalEdges, failedEdges, credentialChanges int
	prevCred := ""
	for i := 0; i < len(path)-1; i++ {
		edges := d.graph.GetEdgesBetween(path[i], path[i+1])
		totalEdges += len(edges)
		for _, e := range edges {
			if !e.Success {
				failedEdges++
			}
			if prevCred != "" && e.CredentialType != prevCred {
				credentialChanges++
			}
			prevCred = e.CredentialType
		}
	}

	risk := math.Min(0.3, float64(len(path))*0.05) +
		math.Min(0.3, float64(credentialChanges)*0.1) +
		math.Min(0.3, float64(failedEdges)*0.05)
	risk = math.Min(1.0, risk)

	return PathAnalysis{
		Path:              path,
		PathLength:        len(path),
		TotalEdges:        totalEdges,
		CredentialChanges: credentialChanges,
		FailedAttempts:    failedEdges,
		RiskScore:         domain.Round4(risk),
	}
}

