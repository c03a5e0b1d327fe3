// Package policy gates order commits through an OPA rego policy.
package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/rego"
)

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a new policy engine with the given policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.order_policy.decision"),
		rego.Module("order_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// Evaluate checks the order policy.
// Input is a map with keys: customer_name, phone, address, lines
// (each line: title, quantity). Returns "allow" or "block".
func (e *Engine) Evaluate(ctx context.Context, input interface{}) (string, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return "", fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		// The policy defines a default, so this is unexpected; fail open.
		return "allow", nil
	}

	if s, ok := results[0].Expressions[0].Value.(string); ok {
		return s, nil
	}
	return "allow", nil
}

// DefaultPolicy is the default order policy content.
const DefaultPolicy = `
package order_policy

default decision = "allow"

# Reject orders with any line over 20 copies
decision = "block" {
	some i
	input.lines[i].quantity > 20
}

# Reject commits with missing delivery details
decision = "block" {
	input.customer_name == ""
}

decision = "block" {
	input.phone == ""
}

decision = "block" {
	input.address == ""
}
`
