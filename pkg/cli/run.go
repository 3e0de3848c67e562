package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/getmockd/billingmock/pkg/cli/internal/output"
	"github.com/getmockd/billingmock/pkg/config"
	"github.com/getmockd/billingmock/pkg/engine"
	"github.com/getmockd/billingmock/pkg/schema"
	"github.com/getmockd/billingmock/pkg/stateful"
	"github.com/getmockd/billingmock/pkg/strategy"
	"github.com/getmockd/billingmock/pkg/validation"
)

// Step actions on top of the engine actions.
const (
	ActionDeleteAll        = "delete_all"
	ActionCardToken        = "card_token"
	ActionBankToken        = "bank_token"
	ActionCouponPercentOff = "coupon_percent_off"
	ActionUpsert           = "upsert"
)

// Fixture is a list of steps replayed in order.
type Fixture struct {
	Steps []Step `yaml:"steps"`
}

// Step is one fixture operation.
type Step struct {
	Name           string                 `yaml:"name"`
	Kind           string                 `yaml:"kind"`
	Action         string                 `yaml:"action"`
	ID             string                 `yaml:"id"`
	Params         map[string]interface{} `yaml:"params"`
	Limit          int                    `yaml:"limit"`
	StartingAfter  string                 `yaml:"startingAfter"`
	Filters        map[string]string      `yaml:"filters"`
	IdempotencyKey string                 `yaml:"idempotencyKey"`
	// Raw skips the default template on create.
	Raw bool `yaml:"raw"`
}

// StepResult is the outcome of one step.
type StepResult struct {
	Step   string                  `json:"step"`
	OK     bool                    `json:"ok"`
	Result map[string]interface{}  `json:"result,omitempty"`
	Error  *stateful.ErrorResponse `json:"error,omitempty"`
	Status int                     `json:"status,omitempty"`
}

var runCmd = &cobra.Command{
	Use:   "run <fixture.yaml>",
	Short: "Replay a fixture file and print each step's result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		fx, err := LoadFixture(args[0])
		if err != nil {
			return err
		}
		logger := newLogger(cfg)
		s, err := NewStrategy(cfg, logger)
		if err != nil {
			return err
		}

		results := RunFixture(cmd.Context(), s, fx)
		if err := writeResults(cmd.OutOrStdout(), results, jsonOutput); err != nil {
			return err
		}
		if first := reportFailures(cmd.ErrOrStderr(), results); first != "" {
			return errors.Newf("fixture %s: step %q failed", args[0], first)
		}
		return nil
	},
}

// reportFailures warns about failed steps and returns the first one's name.
func reportFailures(w io.Writer, results []StepResult) string {
	first := ""
	failed := 0
	for _, r := range results {
		if r.OK {
			continue
		}
		if failed == 0 {
			first = r.Step
		}
		failed++
	}
	if failed > 0 {
		output.Warn(w, "%d of %d steps failed", failed, len(results))
	}
	return first
}

// LoadFixture reads a YAML fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading fixture %s", path)
	}
	var fx Fixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, errors.Wrapf(err, "parsing fixture %s", path)
	}
	for i := range fx.Steps {
		fx.Steps[i].Params = schema.NormalizeYAML(fx.Steps[i].Params)
		if fx.Steps[i].Name == "" {
			fx.Steps[i].Name = fmt.Sprintf("step %d", i+1)
		}
	}
	return &fx, nil
}

// NewStrategy wires the strategy selected by cfg with a fresh store.
func NewStrategy(cfg *config.Config, logger *slog.Logger) (strategy.Strategy, error) {
	reg, err := cfg.Registry()
	if err != nil {
		return nil, err
	}
	store := stateful.NewStore(reg,
		stateful.WithLogger(logger),
		stateful.WithMaxPageSize(cfg.MaxPageSize),
		stateful.WithObserver(stateful.LogObserver{Logger: logger}),
	)
	eng := engine.New(store, validation.New(reg, validation.WithLogger(logger)),
		engine.WithLogger(logger),
		engine.WithIdempotencyTTL(cfg.IdempotencyTTL),
	)
	return strategy.Select(cfg, strategy.Deps{Engine: eng, Logger: logger})
}

// engineOf returns the engine behind a mock strategy.
func engineOf(s strategy.Strategy) *engine.Engine {
	if m, ok := s.(*strategy.Mock); ok {
		return m.Engine()
	}
	return nil
}

// RunFixture executes every step, continuing after failures.
func RunFixture(ctx context.Context, s strategy.Strategy, fx *Fixture) []StepResult {
	if ctx == nil {
		ctx = context.Background()
	}
	results := make([]StepResult, 0, len(fx.Steps))
	for _, step := range fx.Steps {
		res, err := runStep(ctx, s, step)
		if err != nil {
			er := stateful.ToErrorResponse(err)
			results = append(results, StepResult{Step: step.Name, Error: er, Status: er.StatusCode})
			continue
		}
		results = append(results, StepResult{Step: step.Name, OK: true, Result: res})
	}
	return results
}

func runStep(ctx context.Context, s strategy.Strategy, step Step) (map[string]interface{}, error) {
	switch step.Action {
	case "", string(engine.ActionCreate):
		if step.Raw || step.IdempotencyKey != "" {
			if !step.Raw {
				step.Params = s.DefaultParams(step.Kind, step.Params)
			}
			return doEngine(ctx, s, step, engine.ActionCreate)
		}
		rec, err := s.Create(ctx, step.Kind, step.Params)
		if err != nil {
			return nil, err
		}
		return rec.ToJSON(), nil
	case string(engine.ActionDelete):
		if err := s.Delete(ctx, step.Kind, step.ID); err != nil {
			return nil, err
		}
		return map[string]interface{}{"id": step.ID, "deleted": true}, nil
	case ActionDeleteAll:
		n, err := s.DeleteAll(ctx, step.Kind)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"object": step.Kind, "deleted": n}, nil
	case ActionCardToken, ActionBankToken:
		gen := s.GenerateCardToken
		if step.Action == ActionBankToken {
			gen = s.GenerateBankToken
		}
		tok, err := gen(ctx, step.Params)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"id": tok, "object": schema.KindToken}, nil
	case ActionCouponPercentOff:
		rec, err := s.CreateCouponPercentOff(ctx, step.Params)
		if err != nil {
			return nil, err
		}
		return rec.ToJSON(), nil
	case ActionUpsert:
		rec, err := s.Upsert(ctx, step.Kind, step.Params)
		if err != nil {
			return nil, err
		}
		return rec.ToJSON(), nil
	default:
		return doEngine(ctx, s, step, engine.Action(step.Action))
	}
}

func doEngine(ctx context.Context, s strategy.Strategy, step Step, action engine.Action) (map[string]interface{}, error) {
	eng := engineOf(s)
	if eng == nil {
		return nil, stateful.Unsupported(fmt.Sprintf("Action %s is only available in mock mode", action))
	}
	resp, err := eng.Do(ctx, &engine.Request{
		Kind:   step.Kind,
		Action: action,
		ID:     step.ID,
		Params: step.Params,
		List: stateful.ListOptions{
			Limit:         step.Limit,
			StartingAfter: step.StartingAfter,
			Filters:       step.Filters,
		},
		IdempotencyKey: step.IdempotencyKey,
	})
	if err != nil {
		return nil, err
	}
	return resp.ToJSON(), nil
}

func writeResults(w io.Writer, results []StepResult, asJSON bool) error {
	if asJSON {
		return output.JSON(w, results)
	}
	tw := output.Table(w)
	fmt.Fprintln(tw, "STEP\tRESULT\tDETAIL")
	for _, r := range results {
		if r.OK {
			fmt.Fprintf(tw, "%s\tok\t%v\n", r.Step, r.Result["id"])
			continue
		}
		detail := r.Error.Error.Message
		if r.Error.Error.Param != "" {
			detail += " (param: " + r.Error.Error.Param + ")"
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\n", r.Step, r.Status, detail)
	}
	return tw.Flush()
}
