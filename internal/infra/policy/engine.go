// Package policy evaluates access requests against enabled/disabled,
// prioritized rule sets, and flags rules whose conditions could
// overlap with differing effects.
package policy

import (
	"sort"
	"sync"

	"github.com/ztsentinel/sentinel/internal/domain"
)

// EvaluationResult is the outcome of evaluating a context against every
// loaded policy.
type EvaluationResult struct {
	Decision     domain.PolicyEffect `json:"decision"`
	DefaultDeny  bool                `json:"default_deny,omitempty"`
	Reason       string              `json:"reason,omitempty"`
	RuleID       string              `json:"rule_id,omitempty"`
	PolicyID     string              `json:"policy_id,omitempty"`
	Priority     int                 `json:"priority"`
	Description  string              `json:"description,omitempty"`
	TotalMatches int                 `json:"total_matches"`
}

// Conflict reports two enabled rules whose conditions could overlap but
// whose effects differ.
type Conflict struct {
	RuleAPolicyID string              `json:"rule_a_policy_id"`
	RuleAID       string              `json:"rule_a_id"`
	RuleAEffect   domain.PolicyEffect `json:"rule_a_effect"`
	RuleBPolicyID string              `json:"rule_b_policy_id"`
	RuleBID       string              `json:"rule_b_id"`
	RuleBEffect   domain.PolicyEffect `json:"rule_b_effect"`
	Reason        string              `json:"reason"`
	Winner        string              `json:"winner"`
}

// PolicySummaryEntry is one row of PolicySummary.
type PolicySummaryEntry struct {
	PolicyID  string `json:"policy_id"`
	Name      string `json:"name"`
	Enabled   bool   `json:"enabled"`
	RuleCount int    `json:"rule_count"`
}

// PolicySummary aggregates the policy store for display/reporting.
type PolicySummary struct {
	TotalPolicies   int                  `json:"total_policies"`
	EnabledPolicies int                  `json:"enabled_policies"`
	TotalRules      int                  `json:"total_rules"`
	Policies        []PolicySummaryEntry `json:"policies"`
}

// Recommendation is a least-privilege suggestion derived from observed
// access log entries.
type Recommendation struct {
	EntityID             string
	RecommendedResources []string
	RecommendedActions   []string
	Note                 string
}

// AccessLogEntry is one observed access used by RecommendLeastPrivilege.
type AccessLogEntry struct {
	EntityID string
	Resource string
	Action   string
}

// Engine evaluates policies against an access context and manages the
// policy store. Thread-safe via RWMutex.
type Engine struct {
	mu       sync.RWMutex
	policies map[string]*domain.Policy
	order    []string // insertion order, for deterministic iteration
}

// NewEngine builds an empty policy engine.
func NewEngine() *Engine {
	return &Engine{policies: make(map[string]*domain.Policy)}
}

// AddPolicy registers or replaces a policy.
func (e *Engine) AddPolicy(p *domain.Policy) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.policies[p.PolicyID]; !exists {
		e.order = append(e.order, p.PolicyID)
	}
	e.policies[p.PolicyID] = p
}

// RemovePolicy deletes a policy by id, reporting whether it existed.
func (e *Engine) RemovePolicy(policyID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.policies[policyID]; !ok {
		return false
	}
	delete(e.policies, policyID)
	for i, id := range e.order {
		if id == policyID {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
	return true
}

// GetPolicy returns a policy by id.
func (e *Engine) GetPolicy(policyID string) (*domain.Policy, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	p, ok := e.policies[policyID]
	return p, ok
}

// AllPolicies returns every policy in insertion order.
func (e *Engine) AllPolicies() []*domain.Policy {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*domain.Policy, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, e.policies[id])
	}
	return out
}

type match struct {
	priority int
	rule     domain.PolicyRule
	policyID string
	order    int
}

// Evaluate gathers every enabled rule across every enabled policy whose
// conditions all match ctx, and returns the highest-priority (lowest
// number) match. With no match, it returns an explicit default-deny
// result rather than an error — Evaluate is a total function.
func (e *Engine) Evaluate(ctx map[string]any) EvaluationResult {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var matches []match
	seq := 0
	for _, id := range e.order {
		p := e.policies[id]
		if !p.Enabled {
			continue
		}
		for _, rule := range p.Rules {
			if !rule.Enabled {
				continue
			}
			if ruleMatches(rule, ctx) {
				matches = append(matches, match{priority: rule.Priority, rule: rule, policyID: id, order: seq})
				seq++
			}
		}
	}

	if len(matches) == 0 {
		return EvaluationResult{
			Decision:    domain.EffectDeny,
			DefaultDeny: true,
			Reason:      "no_matching_policy",
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].priority != matches[j].priority {
			return matches[i].priority < matches[j].priority
		}
		return matches[i].order < matches[j].order
	})
	best := matches[0]

	return EvaluationResult{
		Decision:     best.rule.Effect,
		RuleID:       best.rule.RuleID,
		PolicyID:     best.policyID,
		Priority:     best.priority,
		Description:  best.rule.Description,
		TotalMatches: len(matches),
	}
}

// Simulate runs Evaluate across multiple contexts (a what-if batch).
func (e *Engine) Simulate(contexts []map[string]any) []EvaluationResult {
	out := make([]EvaluationResult, 0, len(contexts))
	for _, ctx := range contexts {
		out = append(out, e.Evaluate(ctx))
	}
	return out
}

func ruleMatches(rule domain.PolicyRule, ctx map[string]any) bool {
	for _, cond := range rule.Conditions {
		if !evaluateCondition(cond, ctx) {
			return false
		}
	}
	return true
}

// evaluateCondition tests a single condition against ctx. A missing
// field is a non-match, never a crash. Ordering operators on a type
// mismatch (comparing a non-numeric value) also yield non-match.
func evaluateCondition(cond domain.PolicyCondition, ctx map[string]any) bool {
	raw, ok := ctx[cond.Field]
	if !ok {
		return false
	}
	actual := domain.ValueFromAny(raw)

	switch cond.Operator {
	case domain.OpEq:
		return actual.Equal(cond.Value)
	case domain.OpNe:
		return !actual.Equal(cond.Value)
	case domain.OpIn:
		for _, v := range cond.Value.List {
			if actual.Equal(v) {
				return true
			}
		}
		return false
	case domain.OpNotIn:
		for _, v := range cond.Value.List {
			if actual.Equal(v) {
				return false
			}
		}
		return true
	case domain.OpGt, domain.OpLt, domain.OpGte, domain.OpLte:
		a, aok := actual.Numeric()
		b, bok := cond.Value.Numeric()
		if !aok || !bok {
			return false
		}
		switch cond.Operator {
		case domain.OpGt:
			return a > b
		case domain.OpLt:
			return a < b
		case domain.OpGte:
			return a >= b
		default:
			return a <= b
		}
	default:
		return false
	}
}

// DetectConflicts flags pairs of enabled rules from enabled policies
// that have different effects but conditions that could overlap
// (i.e. aren't provably disjoint via an eq constraint on a shared
// field with different values).
func (e *Engine) DetectConflicts() []Conflict {
	e.mu.RLock()
	defer e.mu.RUnlock()

	type ruleRef struct {
		policyID string
		rule     domain.PolicyRule
	}
	var all []ruleRef
	for _, id := range e.order {
		p := e.policies[id]
		if !p.Enabled {
			continue
		}
		for _, rule := range p.Rules {
			if rule.Enabled {
				all = append(all, ruleRef{id, rule})
			}
		}
	}

	var conflicts []Conflict
	for i := 0; i < len(all); i++ {
		for j := i + 1; j < len(all); j++ {
			a, b := all[i], all[j]
			if a.rule.Effect == b.rule.Effect {
				continue
			}
			if !conditionsOverlap(a.rule.Conditions, b.rule.Conditions) {
				continue
			}
			winner := a.rule.RuleID
			if b.rule.Priority < a.rule.Priority {
				winner = b.rule.RuleID
			}
			conflicts = append(conflicts, Conflict{
				RuleAPolicyID: a.policyID,
				RuleAID:       a.rule.RuleID,
				RuleAEffect:   a.rule.Effect,
				RuleBPolicyID: b.policyID,
				RuleBID:       b.rule.RuleID,
				RuleBEffect:   b.rule.Effect,
				Reason:        "overlapping_conditions_different_effects",
				Winner:        winner,
			})
		}
	}
	return conflicts
}

// conditionsOverlap reports whether two condition sets could both match
// the same context. Disjoint shared-field eq constraints to different
// values prove non-overlap; everything else is treated as potentially
// overlapping (conservative — false positives are a reported conflict,
// never a missed one).
func conditionsOverlap(a, b []domain.PolicyCondition) bool {
	sharedFields := make(map[string]bool)
	fieldsA := make(map[string]bool)
	for _, c := range a {
		fieldsA[c.Field] = true
	}
	for _, c := range b {
		if fieldsA[c.Field] {
			sharedFields[c.Field] = true
		}
	}
	if len(sharedFields) == 0 {
		return true
	}

	for field := range sharedFields {
		for _, ca := range a {
			if ca.Field != field || ca.Operator != domain.OpEq {
				continue
			}
			for _, cb := range b {
				if cb.Field != field || cb.Operator != domain.OpEq {
					continue
				}
				if !ca.Value.Equal(cb.Value) {
					return false
				}
			}
		}
	}
	return true
}

// PolicySummary summarizes the current policy store.
func (e *Engine) PolicySummary() PolicySummary {
	e.mu.RLock()
	defer e.mu.RUnlock()

	summary := PolicySummary{TotalPolicies: len(e.order)}
	for _, id := range e.order {
		p := e.policies[id]
		if p.Enabled {
			summary.EnabledPolicies++
		}
		summary.TotalRules += len(p.Rules)
		summary.Policies = append(summary.Policies, PolicySummaryEntry{
			PolicyID:  p.PolicyID,
			Name:      p.Name,
			Enabled:   p.Enabled,
			RuleCount: len(p.Rules),
		})
	}
	return summary
}

// RecommendLeastPrivilege derives per-entity least-privilege
// recommendations from an observed access log.
func RecommendLeastPrivilege(log []AccessLogEntry) []Recommendation {
	resources := make(map[string]map[string]bool)
	actions := make(map[string]map[string]bool)
	var order []string
	seen := make(map[string]bool)

	for _, entry := range log {
		if entry.EntityID == "" || entry.Resource == "" {
			continue
		}
		if !seen[entry.EntityID] {
			seen[entry.EntityID] = true
			order = append(order, entry.EntityID)
			resources[entry.EntityID] = make(map[string]bool)
			actions[entry.EntityID] = make(map[string]bool)
		}
		resources[entry.EntityID][entry.Resource] = true
		action := entry.Action
		if action == "" {
			action = "read"
		}
		actions[entry.EntityID][action] = true
	}

	recs := make([]Recommendation, 0, len(order))
	for _, eid := range order {
		res := sortedKeys(resources[eid])
		act := sortedKeys(actions[eid])
		recs = append(recs, Recommendation{
			EntityID:             eid,
			RecommendedResources: res,
			RecommendedActions:   act,
			Note:                 "least_privilege",
		})
	}
	return recs
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
