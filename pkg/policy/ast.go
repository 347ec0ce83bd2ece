// Package policy implements the μNet policy DSL: lexer and
// recursive-descent parser producing a typed AST (C7), and an
// evaluator that walks the AST against a node's evaluation context,
// executing actions with rollback (C8).
package policy

import "regexp"

// Rule is one `WHEN condition THEN action` statement.
type Rule struct {
	ID        string
	Condition Condition
	Action    Action
	Source    string // rule text for diagnostics; ParseFile leaves it empty
}

// Condition is the sealed set of boolean-tree node kinds. Exactly one
// of the fields is meaningful, selected by Kind.
type Condition struct {
	Kind ConditionKind

	// Comparison / Existence
	Field string
	Op    CompareOp
	Value Value

	// Existence
	IsNull bool

	// And / Or
	Left  *Condition
	Right *Condition

	// Not
	Operand *Condition
}

// ConditionKind discriminates Condition variants.
type ConditionKind int

const (
	CondComparison ConditionKind = iota
	CondExistence
	CondAnd
	CondOr
	CondNot
)

// CompareOp is a comparison operator in the grammar.
type CompareOp string

const (
	OpEquals       CompareOp = "=="
	OpNotEquals    CompareOp = "!="
	OpLessThan     CompareOp = "<"
	OpLessEqual    CompareOp = "<="
	OpGreaterThan  CompareOp = ">"
	OpGreaterEqual CompareOp = ">="
	OpContains     CompareOp = "CONTAINS"
	OpMatches      CompareOp = "MATCHES"
)

// ValueKind discriminates Value variants.
type ValueKind int

const (
	ValString ValueKind = iota
	ValNumber
	ValBool
	ValNull
	ValRegex
	ValFieldRef
)

// Value is a literal or field reference appearing on the right-hand
// side of a comparison, or as the value of a Set/Assert action.
type Value struct {
	Kind    ValueKind
	Str     string
	Num     float64
	Bool    bool
	Regex   *regexp.Regexp
	FieldRef string
}

// ActionKind discriminates Action variants.
type ActionKind int

const (
	ActionAssert ActionKind = iota
	ActionSet
	ActionApplyTemplate
)

// Action is the sealed set of action kinds a rule's THEN clause may take.
type Action struct {
	Kind ActionKind

	// Assert / Set
	Field    string
	Expected Value // Assert
	NewValue Value // Set

	// ApplyTemplate
	TemplatePath string
}

// Verdict is the outcome of evaluating a rule's condition.
type Verdict struct {
	Satisfied    bool
	ErrorMessage string // set iff evaluation itself failed
}

// ActionOutcome is the outcome of executing a rule's action.
type ActionOutcome struct {
	Success  bool
	Message  string
	Rollback any // opaque rollback payload, present only on success for mutating actions
}

// ExecutionResult is the full per-rule outcome: { rule_ref, verdict,
// action_outcome? } per spec.md §3.
type ExecutionResult struct {
	RuleRef string
	Verdict Verdict
	Action  *ActionOutcome
}
