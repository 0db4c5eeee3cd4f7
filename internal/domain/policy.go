package domain

import "fmt"

// PolicyEffect is the outcome a matching rule produces.
type PolicyEffect string

const (
	EffectAllow     PolicyEffect = "allow"
	EffectDeny      PolicyEffect = "deny"
	EffectChallenge PolicyEffect = "challenge"
)

// ValueKind tags the underlying representation held by a ConditionValue.
type ValueKind int

const (
	ValueString ValueKind = iota
	ValueNumber
	ValueBool
	ValueList
)

// ConditionValue is a tagged sum over the value types a policy condition
// can compare against: string, number, bool, or a list of any of those.
// Representing it explicitly (rather than a bare interface{}) keeps
// coercion rules for the ordering operators in one place (see
// internal/infra/policy.evaluateCondition).
type ConditionValue struct {
	Kind ValueKind
	Str  string
	Num  float64
	Bool bool
	List []ConditionValue
}

// StringValue builds a string ConditionValue.
func StringValue(s string) ConditionValue { return ConditionValue{Kind: ValueString, Str: s} }

// NumberValue builds a numeric ConditionValue.
func NumberValue(n float64) ConditionValue { return ConditionValue{Kind: ValueNumber, Num: n} }

// BoolValue builds a boolean ConditionValue.
func BoolValue(b bool) ConditionValue { return ConditionValue{Kind: ValueBool, Bool: b} }

// ListValue builds a list ConditionValue.
func ListValue(items ...ConditionValue) ConditionValue {
	return ConditionValue{Kind: ValueList, List: items}
}

// ValueFromAny coerces a plain Go value (as produced by encoding/json or
// gopkg.in/yaml.v3 decoding into interface{}) into a ConditionValue.
func ValueFromAny(v any) ConditionValue {
	switch t := v.(type) {
	case string:
		return StringValue(t)
	case bool:
		return BoolValue(t)
	case int:
		return NumberValue(float64(t))
	case int64:
		return NumberValue(float64(t))
	case float64:
		return NumberValue(t)
	case float32:
		return NumberValue(float64(t))
	case []any:
		items := make([]ConditionValue, 0, len(t))
		for _, e := range t {
			items = append(items, ValueFromAny(e))
		}
		return ListValue(items...)
	default:
		return StringValue(fmt.Sprintf("%v", t))
	}
}

// Any converts a ConditionValue back into a plain Go value, for export
// and for building the JSON representation of a rule.
func (v ConditionValue) Any() any {
	switch v.Kind {
	case ValueString:
		return v.Str
	case ValueNumber:
		return v.Num
	case ValueBool:
		return v.Bool
	case ValueList:
		out := make([]any, 0, len(v.List))
		for _, e := range v.List {
			out = append(out, e.Any())
		}
		return out
	default:
		return nil
	}
}

// Equal reports whether two ConditionValues represent the same value,
// used by the eq/ne/in/not_in operators. Values of different kinds are
// never equal (a string "1" does not equal the number 1).
func (v ConditionValue) Equal(other ConditionValue) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case ValueString:
		return v.Str == other.Str
	case ValueNumber:
		return v.Num == other.Num
	case ValueBool:
		return v.Bool == other.Bool
	case ValueList:
		if len(v.List) != len(other.List) {
			return false
		}
		for i := range v.List {
			if !v.List[i].Equal(other.List[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Numeric returns v's float64 value and true if v is a number,
// otherwise (0, false). Used by the ordering operators, which must
// yield non-match rather than panic on a type mismatch.
func (v ConditionValue) Numeric() (float64, bool) {
	if v.Kind != ValueNumber {
		return 0, false
	}
	return v.Num, true
}

// ConditionOperator enumerates the supported comparison operators.
type ConditionOperator string

const (
	OpEq    ConditionOperator = "eq"
	OpNe    ConditionOperator = "ne"
	OpGt    ConditionOperator = "gt"
	OpLt    ConditionOperator = "lt"
	OpGte   ConditionOperator = "gte"
	OpLte   ConditionOperator = "lte"
	OpIn    ConditionOperator = "in"
	OpNotIn ConditionOperator = "not_in"
)

// PolicyCondition is a single (field, operator, value) triple a rule
// tests against the evaluation context.
type PolicyCondition struct {
	Field    string
	Operator ConditionOperator
	Value    ConditionValue
}

// PolicyRule is a single rule within a policy: an effect, a set of
// conditions (all must match), a priority (lower wins), and an enabled flag.
type PolicyRule struct {
	RuleID      string
	Description string
	Effect      PolicyEffect
	Conditions  []PolicyCondition
	Priority    int
	Enabled     bool
}

// Policy is a named, ordered collection of rules.
type Policy struct {
	PolicyID    string
	Name        string
	Description string
	Enabled     bool
	Tags        []string
	Rules       []PolicyRule
}
