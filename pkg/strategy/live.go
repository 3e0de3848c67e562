package strategy

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/sourcegraph/conc/pool"

	"github.com/getmockd/billingmock/pkg/params"
	"github.com/getmockd/billingmock/pkg/schema"
	"github.com/getmockd/billingmock/pkg/stateful"
)

// Remote is the subset of the real billing API the live strategy uses.
type Remote interface {
	Create(ctx context.Context, kind string, params schema.Params) (*stateful.Record, error)
	Delete(ctx context.Context, kind, id string) error
	// List returns the ids of every record of kind.
	List(ctx context.Context, kind string) ([]string, error)
}

// Live forwards requests to the real API. Deletes are best effort: the
// caller only needs the remote record to be gone or freshly created.
type Live struct {
	*Base
	remote         Remote
	maxConcurrency int
}

var _ Strategy = (*Live)(nil)

// NewLive creates a live strategy over remote.
func NewLive(remote Remote, n *params.Normalizer, maxConcurrency int, opts ...Option) *Live {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	l := &Live{Base: newBase(n, opts), remote: remote, maxConcurrency: maxConcurrency}
	l.submit = l.replace
	return l
}

// Create deletes any remote record with the same id, then creates it.
// Plans and products must be given an explicit id.
func (l *Live) Create(ctx context.Context, kind string, overrides schema.Params) (*stateful.Record, error) {
	if kind == schema.KindPlan || kind == schema.KindProduct {
		if _, ok := schema.StringID(overrides[schema.IDField]); !ok {
			return nil, errors.Newf("create_%s requires an id", kind)
		}
	}
	return l.replace(ctx, kind, l.DefaultParams(kind, overrides))
}

// Delete removes the remote record, ignoring any error.
func (l *Live) Delete(ctx context.Context, kind, id string) error {
	l.deleteQuietly(ctx, kind, id)
	return nil
}

// DeleteAll removes every remote record of kind concurrently.
func (l *Live) DeleteAll(ctx context.Context, kind string) (int, error) {
	ids, err := l.remote.List(ctx, kind)
	if err != nil {
		return 0, errors.Wrapf(err, "listing %s", kind)
	}

	p := pool.New().WithContext(ctx).WithMaxGoroutines(l.maxConcurrency)
	for _, id := range ids {
		p.Go(func(ctx context.Context) error {
			l.deleteQuietly(ctx, kind, id)
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return 0, err
	}
	return len(ids), nil
}

// Upsert is not available against the real API.
func (l *Live) Upsert(context.Context, string, schema.Params) (*stateful.Record, error) {
	return nil, stateful.Unsupported("Updating or inserting objects in Live mode not supported")
}

func (l *Live) replace(ctx context.Context, kind string, merged schema.Params) (*stateful.Record, error) {
	if rid, ok := schema.StringID(merged[schema.IDField]); ok {
		l.deleteQuietly(ctx, kind, rid)
	}
	rec, err := l.remote.Create(ctx, kind, merged)
	if err != nil {
		return nil, errors.Wrapf(err, "creating %s", kind)
	}
	l.logger.Debug("live record created", "kind", kind, "id", rec.ID)
	return rec, nil
}

func (l *Live) deleteQuietly(ctx context.Context, kind, id string) {
	if err := l.remote.Delete(ctx, kind, id); err != nil {
		l.logger.Warn("live delete ignored", "kind", kind, "id", id, "error", err)
	}
}
