package api

import (
	"context"
	"html/template"
	"net/http"
	"time"
)

var dashboardTemplate = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html>
<head>
	<title>sentinel — zero trust dashboard</title>
	<style>
		body { font-family: monospace; background: #111; color: #ddd; margin: 2rem; }
		h1 { color: #6cf; }
		section { margin-bottom: 2rem; }
		table { border-collapse: collapse; width: 100%; }
		td, th { border: 1px solid #333; padding: 0.4rem 0.8rem; text-align: left; }
		.alert { color: #f66; }
	</style>
</head>
<body>
	<h1>sentinel</h1>

	<section>
		<h2>Access decisions</h2>
		<table>
			<tr><th>Decision</th><th>Count</th></tr>
			{{range $decision, $count := .DecisionStats}}
			<tr><td>{{$decision}}</td><td>{{$count}}</td></tr>
			{{end}}
		</table>
	</section>

	<section>
		<h2>Risk population</h2>
		<table>
			<tr><th>Total entities</th><td>{{.RiskSummary.TotalEntities}}</td></tr>
			<tr><th>Mean risk</th><td>{{.RiskSummary.MeanRisk}}</td></tr>
			<tr><th>Max risk</th><td>{{.RiskSummary.MaxRisk}}</td></tr>
			<tr><th>Std dev</th><td>{{.RiskSummary.StdRisk}}</td></tr>
		</table>
	</section>

	<section>
		<h2>Lateral movement alerts ({{len .LateralAlerts}})</h2>
		<table>
			<tr><th>Type</th><th>Severity</th><th>Path</th></tr>
			{{range .LateralAlerts}}
			<tr class="alert"><td>{{.Type}}</td><td>{{printf "%.2f" .Severity}}</td><td>{{.Path}}</td></tr>
			{{end}}
		</table>
	</section>

	<section>
		<h2>Policy summary</h2>
		<table>
			<tr><th>Total policies</th><td>{{.PolicySummary.TotalPolicies}}</td></tr>
			<tr><th>Enabled policies</th><td>{{.PolicySummary.EnabledPolicies}}</td></tr>
			<tr><th>Total rules</th><td>{{.PolicySummary.TotalRules}}</td></tr>
		</table>
	</section>

	<p>Generated at {{.GeneratedAt}}</p>
</body>
</html>
`))

type dashboardData struct {
	DecisionStats map[string]int
	RiskSummary   any
	LateralAlerts any
	PolicySummary any
	GeneratedAt   string
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	stats := s.Access.DecisionStats()
	decisionStats := make(map[string]int, len(stats))
	for k, v := range stats {
		decisionStats[string(k)] = v
	}

	alerts := s.Lateral.Detect(ctx)

	data := dashboardData{
		DecisionStats: decisionStats,
		RiskSummary:   s.Risk.PopulationRiskSummary(),
		LateralAlerts: alerts,
		PolicySummary: s.Policy.PolicySummary(),
		GeneratedAt:   time.Now().UTC().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := dashboardTemplate.Execute(w, data); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to render dashboard")
	}
}
