package validation

import (
	"github.com/expr-lang/expr"

	"github.com/getmockd/billingmock/pkg/schema"
	"github.com/getmockd/billingmock/pkg/stateful"
)

// runRules evaluates the kind's cross-field rules in declared order.
// A rule that errors at runtime counts as failed.
func runRules(k *schema.Kind, params schema.Params) error {
	if len(k.Rules) == 0 {
		return nil
	}
	env := make(map[string]interface{}, len(params)+len(k.Fields))
	for i := range k.Fields {
		env[k.Fields[i].Name] = nil
	}
	for key, v := range params {
		env[key] = v
	}

	for i := range k.Rules {
		rule := &k.Rules[i]
		prog := rule.Program()
		if prog == nil {
			continue
		}
		out, err := expr.Run(prog, env)
		if ok, _ := out.(bool); err != nil || !ok {
			return stateful.InvalidValue(rule.Param, rule.Message)
		}
	}
	return nil
}
