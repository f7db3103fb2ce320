// Package filter selects channels with CEL boolean expressions.
package filter

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/cel-go/cel"
)

// Default keeps channels that forwarded something, are less than a day old,
// or are not in the normal state.
const Default = `total_payments > 0 || age < 1.0 || state != "CHANNELD_NORMAL"`

// Fields declares the channel variables an expression may reference.
var Fields = map[string]*cel.Type{
	"peer_id":                cel.StringType,
	"short_id":               cel.StringType,
	"alias":                  cel.StringType,
	"state":                  cel.StringType,
	"new_channel":            cel.BoolType,
	"input_capacity":         cel.IntType,
	"output_capacity":        cel.IntType,
	"total_capacity":         cel.IntType,
	"last_update":            cel.IntType,
	"in_payments_offered":    cel.IntType,
	"out_payments_offered":   cel.IntType,
	"in_payments":            cel.IntType,
	"out_payments":           cel.IntType,
	"in_msatoshi_fulfilled":  cel.IntType,
	"out_msatoshi_fulfilled": cel.IntType,
	"in_msatoshi_offered":    cel.IntType,
	"out_msatoshi_offered":   cel.IntType,
	"total_payments":         cel.IntType,
	"total_payments_offered": cel.IntType,
	"base_fee_msat":          cel.IntType,
	"ppm_fee":                cel.IntType,
	"funding_block":          cel.IntType,
	"routed_amount":          cel.DoubleType,
	"routed_capacity":        cel.DoubleType,
	"age":                    cel.DoubleType,
	"tx_per_day":             cel.DoubleType,
	// null until the channel has been offered a payment
	"settle_rate": cel.DynType,
}

// Filter is a set of compiled expressions; a channel matches when any of
// them is true. An empty Filter matches everything.
type Filter struct {
	exprs    []string
	programs []cel.Program
}

// New compiles exprs. Blank expressions are ignored.
func New(exprs ...string) (*Filter, error) {
	opts := []cel.EnvOption{cel.CrossTypeNumericComparisons(true)}
	for name, t := range Fields {
		opts = append(opts, cel.Variable(name, t))
	}
	env, err := cel.NewEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL env: %w", err)
	}

	f := &Filter{}
	for _, expr := range exprs {
		expr = strings.TrimSpace(expr)
		if expr == "" {
			continue
		}
		ast, issues := env.Compile(expr)
		if issues != nil && issues.Err() != nil {
			return nil, fmt.Errorf("filter %q compilation error: %w", expr, issues.Err())
		}
		if !ast.OutputType().IsExactType(cel.BoolType) {
			return nil, fmt.Errorf("filter %q must be boolean, got %s", expr, ast.OutputType())
		}
		prg, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("filter %q program creation error: %w", expr, err)
		}
		f.exprs = append(f.exprs, expr)
		f.programs = append(f.programs, prg)
	}
	return f, nil
}

// Match reports whether vars satisfies any expression. An expression that
// fails at runtime, e.g. comparing a null settle_rate, counts as false.
func (f *Filter) Match(vars map[string]any) (bool, error) {
	if f == nil || len(f.programs) == 0 {
		return true, nil
	}
	for i, prg := range f.programs {
		out, _, err := prg.Eval(vars)
		if err != nil {
			slog.Debug("filter evaluation failed", "filter", f.exprs[i], "error", err)
			continue
		}
		if match, ok := out.Value().(bool); ok && match {
			return true, nil
		}
	}
	return false, nil
}

func (f *Filter) String() string {
	if f == nil || len(f.exprs) == 0 {
		return "all"
	}
	return strings.Join(f.exprs, " OR ")
}
