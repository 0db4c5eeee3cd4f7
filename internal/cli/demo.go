package cli

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/ztsentinel/sentinel/internal/domain"
	"github.com/ztsentinel/sentinel/internal/infra/access"
	"github.com/ztsentinel/sentinel/internal/infra/behavioral"
	"github.com/ztsentinel/sentinel/internal/infra/identity"
	"github.com/ztsentinel/sentinel/internal/infra/lateral"
	"github.com/ztsentinel/sentinel/internal/infra/risk"
)

func init() {
	rootCmd.AddCommand(demoCmd)
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a complete zero trust demo scenario",
	RunE:  runDemo,
}

func runDemo(cmd *cobra.Command, args []string) error {
	banner := strings.Repeat("=", 60)
	fmt.Println(banner)
	fmt.Println("  sentinel  -  Complete Zero Trust Demo Scenario")
	fmt.Println(banner)

	rng := rand.New(rand.NewSource(42))

	fmt.Println("\n[1/6] Setting up identities...")
	registry := identity.NewRegistry()
	now := time.Now()
	users := []*domain.Identity{
		{IdentityID: "alice", Name: "Alice Chen", IdentityType: domain.EntityUser, Email: "alice@corp.io", Department: "engineering", Roles: []string{"developer"}, Groups: []string{"eng-team"}, Enabled: true, CreatedAt: now},
		{IdentityID: "bob", Name: "Bob Martinez", IdentityType: domain.EntityUser, Email: "bob@corp.io", Department: "finance", Roles: []string{"analyst"}, Groups: []string{"fin-team"}, Enabled: true, CreatedAt: now},
		{IdentityID: "charlie", Name: "Charlie Kim", IdentityType: domain.EntityUser, Email: "charlie@corp.io", Department: "security", Roles: []string{"admin", "soc-analyst"}, Groups: []string{"sec-team"}, Enabled: true, CreatedAt: now},
		{IdentityID: "svc-api", Name: "API Service", IdentityType: domain.EntityService, Roles: []string{"service-account"}, Enabled: true, CreatedAt: now},
	}
	for _, u := range users {
		registry.RegisterIdentity(u)
	}
	fmt.Printf("    Registered %d identities\n", len(users))

	fmt.Println("\n[2/6] Learning behavioral baselines...")
	store := behavioral.NewBaselineStore(behavioral.DefaultDecayFactor)
	for _, user := range []string{"alice", "bob", "charlie"} {
		for i := 0; i < 150; i++ {
			duration := gaussMin(rng, 3600, 800, 60)
			store.Observe(user, behavioral.Event{
				Hour:            int(mod24(rng.NormFloat64()*2 + 10)),
				DayOfWeek:       rng.Intn(5),
				Resource:        []string{"db-prod", "api-internal", "docs"}[rng.Intn(3)],
				Location:        "us-east",
				SourceIP:        fmt.Sprintf("10.0.1.%d", 10+rng.Intn(41)),
				SessionDuration: &duration,
			})
		}
	}
	fmt.Printf("    Baselines for %d users\n", len(store.AllEntityIDs()))

	fmt.Println("\n[3/6] Running anomaly detection...")
	anomaly := behavioral.NewAnomalyDetector(store, 0.7, behavioral.DefaultDetectorWeights())
	normal := anomaly.Analyze("alice", behavioral.Event{Hour: 10, Resource: "db-prod", Location: "us-east", SourceIP: "10.0.1.25"})
	susDuration := 28800.0
	suspicious := anomaly.Analyze("bob", behavioral.Event{Hour: 3, Resource: "db-secret", Location: "cn-north", SourceIP: "203.0.113.1", SessionDuration: &susDuration})

	fmt.Printf("    Alice (normal):     score=%.4f, anomalous=%t\n", normal.AnomalyScore, normal.IsAnomalous)
	fmt.Printf("    Bob (suspicious):   score=%.4f, anomalous=%t\n", suspicious.AnomalyScore, suspicious.IsAnomalous)

	fmt.Println("\n[4/6] Computing risk scores...")
	riskEngine := risk.NewEngine(risk.DefaultWeights(), risk.DefaultThresholds(), nil)
	riskEngine.ThreatIntel().AddMaliciousIP("203.0.113.1")

	rAlice := riskEngine.Calculate(risk.CalculateInput{EntityID: "alice", BehaviorScore: normal.AnomalyScore, DeviceHealth: 0.95, NetworkTrust: 0.7})
	rBob := riskEngine.Calculate(risk.CalculateInput{EntityID: "bob", BehaviorScore: suspicious.AnomalyScore, DeviceHealth: 0.4, NetworkTrust: 0.2, SourceIP: "203.0.113.1"})

	fmt.Printf("    Alice: risk=%.4f (%s)\n", rAlice.CompositeScore, rAlice.RiskLevel)
	fmt.Printf("    Bob:   risk=%.4f (%s) factors=%v\n", rBob.CompositeScore, rBob.RiskLevel, rBob.Factors)

	fmt.Println("\n[5/6] Making access decisions...")
	accessEngine := access.NewEngine(access.DefaultThresholds(), access.DefaultTrustWeights())
	accessEngine.SetResourceSensitivity("db-prod", 0.8)

	aliceDevice := domain.NewDeviceHealth()
	aliceDevice.ComplianceScore = 0.95
	dAlice := accessEngine.Evaluate(domain.AccessContext{
		EntityID: "alice", Resource: "db-prod", Action: "read",
		BehaviorScore: normal.AnomalyScore, RiskScore: rAlice.CompositeScore,
		NetworkZone: "internal", MFAVerified: true, AuthenticationMethod: "certificate",
		Device: aliceDevice, Hour: -1, DayOfWeek: -1, Timestamp: now,
	})

	bobDevice := domain.NewDeviceHealth()
	bobDevice.ComplianceScore = 0.4
	bobDevice.OSPatched = false
	bobDevice.AntivirusActive = false
	dBob := accessEngine.Evaluate(domain.AccessContext{
		EntityID: "bob", Resource: "db-prod", Action: "write",
		BehaviorScore: suspicious.AnomalyScore, RiskScore: rBob.CompositeScore,
		NetworkZone: "external", MFAVerified: false, AuthenticationMethod: "password",
		Device: bobDevice, Hour: -1, DayOfWeek: -1, Timestamp: now,
	})

	fmt.Printf("    Alice -> db-prod (read):  %s (risk=%.4f)\n", dAlice.Decision, dAlice.RiskLevel)
	fmt.Printf("    Bob -> db-prod (write):   %s (risk=%.4f)\n", dBob.Decision, dBob.RiskLevel)
	fmt.Printf("      Reasons: %s\n", strings.Join(dBob.Reasons, "; "))

	fmt.Println("\n[6/6] Checking lateral movement...")
	det := lateral.NewDetector(lateral.DefaultDetectorConfig())
	hosts := make([]string, 8)
	for i := range hosts {
		hosts[i] = fmt.Sprintf("host-%02d", i)
		features := make([]float64, 8)
		for j := range features {
			features[j] = rng.Float64()
		}
		if hosts[i] == "host-00" || hosts[i] == "host-01" {
			features[0] = 0.9
		}
		det.Graph().AddNode(hosts[i], "host", features)
	}

	base := float64(now.Unix())
	for i := 0; i < 30; i++ {
		det.AddAccessEvent(lateral.Edge{
			Src: hosts[2+rng.Intn(4)], Dst: hosts[2+rng.Intn(4)],
			Action: "api", Timestamp: base + float64(i),
		})
	}

	for i := 0; i < 5; i++ {
		src := hosts[i]
		if i < 2 {
			src = hosts[6+i]
		}
		det.AddAccessEvent(lateral.Edge{
			Src: src, Dst: hosts[i], Action: "ssh",
			Timestamp:      base + 100 + float64(i)*30,
			CredentialType: "token", Success: true,
		})
	}

	det.LearnBaseline()
	alerts := det.Detect(context.Background())
	fmt.Printf("    Alerts: %d\n", len(alerts))
	limit := len(alerts)
	if limit > 3 {
		limit = 3
	}
	for _, a := range alerts[:limit] {
		path := a.Path
		if len(path) > 5 {
			path = path[:5]
		}
		fmt.Printf("      [%s] severity=%.2f path=%s\n", a.Type, a.Severity, strings.Join(path, " -> "))
	}

	fmt.Println("\n" + banner)
	fmt.Println("  Demo complete. Zero trust is not a product - it is a strategy.")
	fmt.Println(banner)
	return nil
}
