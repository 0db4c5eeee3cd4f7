package policy

import (
	"fmt"
	"io"

	"github.com/ztsentinel/sentinel/internal/domain"
	"gopkg.in/yaml.v3"
)

// yamlDocument is the on-disk policy format: a top-level "policies"
// list, each with rules carrying lowercase effect strings.
type yamlDocument struct {
	Policies []yamlPolicy `yaml:"policies"`
}

type yamlPolicy struct {
	PolicyID    string     `yaml:"policy_id"`
	Name        string     `yaml:"name"`
	Description string     `yaml:"description,omitempty"`
	Enabled     *bool      `yaml:"enabled"`
	Tags        []string   `yaml:"tags,omitempty"`
	Rules       []yamlRule `yaml:"rules"`
}

type yamlRule struct {
	RuleID      string          `yaml:"rule_id"`
	Description string          `yaml:"description,omitempty"`
	Effect      string          `yaml:"effect"`
	Priority    int             `yaml:"priority"`
	Enabled     *bool           `yaml:"enabled"`
	Conditions  []yamlCondition `yaml:"conditions"`
}

// enabledOrDefault treats an omitted enabled: key as true, so a policy
// file doesn't have to spell it out on every rule.
func enabledOrDefault(b *bool) bool {
	if b == nil {
		return true
	}
	return *b
}

type yamlCondition struct {
	Field    string `yaml:"field"`
	Operator string `yaml:"operator"`
	Value    any    `yaml:"value"`
}

// LoadYAML parses a YAML policy document and returns the decoded
// policies, without registering them in any engine.
func LoadYAML(r io.Reader) ([]*domain.Policy, error) {
	var doc yamlDocument
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode policy yaml: %w", err)
	}

	policies := make([]*domain.Policy, 0, len(doc.Policies))
	for _, yp := range doc.Policies {
		policies = append(policies, yamlToPolicy(yp))
	}
	return policies, nil
}

// ImportYAML decodes policies from r and registers every one with e.
func (e *Engine) ImportYAML(r io.Reader) error {
	policies, err := LoadYAML(r)
	if err != nil {
		return err
	}
	for _, p := range policies {
		e.AddPolicy(p)
	}
	return nil
}

// ExportYAML writes every policy currently held by e to w. Re-importing
// the output yields an equivalent policy store under policy id lookup.
func (e *Engine) ExportYAML(w io.Writer) error {
	policies := e.AllPolicies()
	doc := yamlDocument{Policies: make([]yamlPolicy, 0, len(policies))}
	for _, p := range policies {
		doc.Policies = append(doc.Policies, policyToYAML(p))
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode policy yaml: %w", err)
	}
	return nil
}

func yamlToPolicy(yp yamlPolicy) *domain.Policy {
	p := &domain.Policy{
		PolicyID:    yp.PolicyID,
		Name:        yp.Name,
		Description: yp.Description,
		Enabled:     enabledOrDefault(yp.Enabled),
		Tags:        yp.Tags,
	}
	for _, yr := range yp.Rules {
		rule := domain.PolicyRule{
			RuleID:      yr.RuleID,
			Description: yr.Description,
			Effect:      domain.PolicyEffect(yr.Effect),
			Priority:    yr.Priority,
			Enabled:     enabledOrDefault(yr.Enabled),
		}
		for _, yc := range yr.Conditions {
			rule.Conditions = append(rule.Conditions, domain.PolicyCondition{
				Field:    yc.Field,
				Operator: domain.ConditionOperator(yc.Operator),
				Value:    domain.ValueFromAny(yc.Value),
			})
		}
		p.Rules = append(p.Rules, rule)
	}
	return p
}

func policyToYAML(p *domain.Policy) yamlPolicy {
	enabled := p.Enabled
	yp := yamlPolicy{
		PolicyID:    p.PolicyID,
		Name:        p.Name,
		Description: p.Description,
		Enabled:     &enabled,
		Tags:        p.Tags,
	}
	for _, rule := range p.Rules {
		ruleEnabled := rule.Enabled
		yr := yamlRule{
			RuleID:      rule.RuleID,
			Description: rule.Description,
			Effect:      string(rule.Effect),
			Priority:    rule.Priority,
			Enabled:     &ruleEnabled,
		}
		for _, cond := range rule.Conditions {
			yr.Conditions = append(yr.Conditions, yamlCondition{
				Field:    cond.Field,
				Operator: string(cond.Operator),
				Value:    cond.Value.Any(),
			})
		}
		yp.Rules = append(yp.Rules, yr)
	}
	return yp
}
