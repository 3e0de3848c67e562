// Package strategy hides whether fixture records are simulated locally or
// created against the real billing API. Call sites depend only on Strategy.
package strategy

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"

	"github.com/getmockd/billingmock/pkg/config"
	"github.com/getmockd/billingmock/pkg/engine"
	"github.com/getmockd/billingmock/pkg/logging"
	"github.com/getmockd/billingmock/pkg/params"
	"github.com/getmockd/billingmock/pkg/schema"
	"github.com/getmockd/billingmock/pkg/stateful"
)

// Strategy creates and removes fixture records.
type Strategy interface {
	// Create normalizes overrides against the kind template and creates the record.
	Create(ctx context.Context, kind string, overrides schema.Params) (*stateful.Record, error)
	// Delete removes a record.
	Delete(ctx context.Context, kind, id string) error
	// DefaultParams returns the merged parameters Create would send.
	DefaultParams(kind string, overrides schema.Params) schema.Params
	// DeleteAll removes every record of kind and returns how many were removed.
	DeleteAll(ctx context.Context, kind string) (int, error)
	// Upsert stores record as is, replacing fields of an existing record.
	Upsert(ctx context.Context, kind string, record schema.Params) (*stateful.Record, error)

	GenerateCardToken(ctx context.Context, overrides schema.Params) (string, error)
	GenerateBankToken(ctx context.Context, overrides schema.Params) (string, error)
	CreateCouponPercentOff(ctx context.Context, overrides schema.Params) (*stateful.Record, error)
}

// Option configures a strategy.
type Option func(*Base)

// WithLogger sets the strategy logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Base) {
		b.logger = logging.WithComponent(l, "strategy")
	}
}

// Base holds behavior shared by both strategies. submit sends fully merged
// parameters to the backing implementation.
type Base struct {
	normalizer *params.Normalizer
	logger     *slog.Logger
	submit     func(ctx context.Context, kind string, merged schema.Params) (*stateful.Record, error)
}

func newBase(n *params.Normalizer, opts []Option) *Base {
	b := &Base{
		normalizer: n,
		logger:     logging.WithComponent(nil, "strategy"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// DefaultParams overlays overrides on the kind template.
func (b *Base) DefaultParams(kind string, overrides schema.Params) schema.Params {
	return b.normalizer.Normalize(kind, overrides)
}

// GenerateCardToken creates a token for a default test card merged with
// overrides and returns the token id.
func (b *Base) GenerateCardToken(ctx context.Context, overrides schema.Params) (string, error) {
	card := b.normalizer.Normalize(schema.KindCard, overrides)
	return b.token(ctx, schema.Params{"card": card})
}

// GenerateBankToken creates a token for a default test bank account merged
// with overrides and returns the token id.
func (b *Base) GenerateBankToken(ctx context.Context, overrides schema.Params) (string, error) {
	account := b.normalizer.Normalize(schema.KindBankAccount, overrides)
	return b.token(ctx, schema.Params{"bank_account": account})
}

// CreateCouponPercentOff creates a coupon from the percentage template.
// The regular coupon template is not applied.
func (b *Base) CreateCouponPercentOff(ctx context.Context, overrides schema.Params) (*stateful.Record, error) {
	merged := params.Overlay(schema.CouponPercentOffTemplate(), overrides)
	return b.submit(ctx, schema.KindCoupon, merged)
}

func (b *Base) token(ctx context.Context, body schema.Params) (string, error) {
	rec, err := b.submit(ctx, schema.KindToken, b.normalizer.Normalize(schema.KindToken, body))
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

// Deps are the collaborators Select may need.
type Deps struct {
	// Engine serves the mock strategy.
	Engine *engine.Engine
	// Remote serves the live strategy. When nil a stripe-go client is built
	// from the configured API key.
	Remote Remote
	Logger *slog.Logger
}

// Select returns the strategy for cfg.Mode.
func Select(cfg *config.Config, deps Deps) (Strategy, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	opts := []Option{WithLogger(deps.Logger)}

	switch cfg.Mode {
	case config.ModeMock, "":
		if deps.Engine == nil {
			return nil, errors.New("mock strategy requires an engine")
		}
		reg := deps.Engine.Store().Registry()
		n := params.New(reg, cfg.DefaultCurrency, params.Determinism(cfg.Determinism))
		return NewMock(deps.Engine, n, opts...), nil

	case config.ModeLive:
		remote := deps.Remote
		if remote == nil {
			if cfg.Live.APIKey == "" {
				return nil, errors.WithHint(errors.New("live strategy requires an API key"), "set "+config.EnvAPIKey)
			}
			remote = NewStripeRemote(cfg.Live.APIKey)
		}
		reg, err := cfg.Registry()
		if err != nil {
			return nil, err
		}
		// The live API derives its own fingerprints.
		n := params.New(reg, cfg.DefaultCurrency, params.DeterminismPassthrough)
		return NewLive(remote, n, cfg.Live.MaxConcurrency, opts...), nil

	default:
		return nil, errors.Newf("unknown mode %q", cfg.Mode)
	}
}
