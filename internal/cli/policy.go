package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/ztsentinel/sentinel/internal/domain"
	"github.com/ztsentinel/sentinel/internal/infra/policy"
)

func init() {
	policyCmd.Flags().StringVar(&policyFile, "file", "", "YAML policy file to load")
	rootCmd.AddCommand(policyCmd)
}

var policyFile string

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Load, summarize, and simulate access policies",
	RunE:  runPolicy,
}

func runPolicy(cmd *cobra.Command, args []string) error {
	engine := policy.NewEngine()

	if policyFile != "" {
		f, err := os.Open(policyFile)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := engine.ImportYAML(f); err != nil {
			return err
		}
		fmt.Printf("[+] Loaded %d policies from %s\n", len(engine.AllPolicies()), policyFile)
	} else {
		for _, p := range demoPolicies() {
			engine.AddPolicy(p)
		}
		fmt.Println("[+] Created 3 demo policies")
	}

	summary := engine.PolicySummary()
	fmt.Println("\n--- Policy Summary ---")
	fmt.Printf("Total: %d, Active: %d, Rules: %d\n", summary.TotalPolicies, summary.EnabledPolicies, summary.TotalRules)

	conflicts := engine.DetectConflicts()
	fmt.Printf("\nConflicts detected: %d\n", len(conflicts))
	for _, c := range conflicts {
		fmt.Printf("  %s (%s) vs %s (%s) - winner: %s\n",
			c.RuleAID, c.RuleAEffect, c.RuleBID, c.RuleBEffect, c.Winner)
	}

	testContexts := []map[string]any{
		{"risk_score": 0.9, "network_zone": "external", "mfa_verified": false, "action": "write"},
		{"risk_score": 0.2, "network_zone": "internal", "mfa_verified": true, "action": "read"},
		{"risk_score": 0.5, "network_zone": "external", "mfa_verified": false, "action": "read"},
	}
	fmt.Println("\n--- Policy Simulation ---")
	for _, ctx := range testContexts {
		result := engine.Evaluate(ctx)
		encoded, _ := json.Marshal(ctx)
		fmt.Printf("  Context: %s\n", encoded)
		ruleID := result.RuleID
		if ruleID == "" {
			ruleID = "N/A"
		}
		fmt.Printf("  Decision: %s (rule: %s)\n\n", result.Decision, ruleID)
	}

	fmt.Println("--- Exported YAML ---")
	if err := engine.ExportYAML(os.Stdout); err != nil {
		return err
	}
	return nil
}

func demoPolicies() []*domain.Policy {
	return []*domain.Policy{
		{
			PolicyID: "deny-high-risk",
			Name:     "Deny High Risk Access",
			Enabled:  true,
			Rules: []domain.PolicyRule{{
				RuleID:      "r1",
				Description: "Deny when risk score exceeds threshold",
				Effect:      domain.EffectDeny,
				Conditions: []domain.PolicyCondition{
					{Field: "risk_score", Operator: domain.OpGt, Value: domain.NumberValue(0.8)},
				},
				Priority: 10,
				Enabled:  true,
			}},
		},
		{
			PolicyID: "require-mfa-external",
			Name:     "Require MFA for External Access",
			Enabled:  true,
			Rules: []domain.PolicyRule{{
				RuleID:      "r2",
				Description: "Challenge external access without MFA",
				Effect:      domain.EffectChallenge,
				Conditions: []domain.PolicyCondition{
					{Field: "network_zone", Operator: domain.OpEq, Value: domain.StringValue("external")},
					{Field: "mfa_verified", Operator: domain.OpEq, Value: domain.BoolValue(false)},
				},
				Priority: 20,
				Enabled:  true,
			}},
		},
		{
			PolicyID: "allow-internal-read",
			Name:     "Allow Internal Read Access",
			Enabled:  true,
			Rules: []domain.PolicyRule{{
				RuleID:      "r3",
				Description: "Allow read access from internal network",
				Effect:      domain.EffectAllow,
				Conditions: []domain.PolicyCondition{
					{Field: "network_zone", Operator: domain.OpEq, Value: domain.StringValue("internal")},
					{Field: "action", Operator: domain.OpEq, Value: domain.StringValue("read")},
				},
				Priority: 50,
				Enabled:  true,
			}},
		},
	}
}
