package strategy

import (
	"context"

	"github.com/getmockd/billingmock/pkg/engine"
	"github.com/getmockd/billingmock/pkg/params"
	"github.com/getmockd/billingmock/pkg/schema"
	"github.com/getmockd/billingmock/pkg/stateful"
)

// Mock runs every request through the local engine. No network is used.
type Mock struct {
	*Base
	engine *engine.Engine
}

var _ Strategy = (*Mock)(nil)

// NewMock creates a mock strategy over eng.
func NewMock(eng *engine.Engine, n *params.Normalizer, opts ...Option) *Mock {
	m := &Mock{Base: newBase(n, opts), engine: eng}
	m.submit = m.createMerged
	return m
}

// Create normalizes overrides and creates the record locally.
func (m *Mock) Create(ctx context.Context, kind string, overrides schema.Params) (*stateful.Record, error) {
	return m.createMerged(ctx, kind, m.DefaultParams(kind, overrides))
}

// Delete removes a record, failing with not-found when it is absent.
func (m *Mock) Delete(ctx context.Context, kind, id string) error {
	return m.engine.Delete(ctx, kind, id)
}

// DeleteAll removes every record of kind.
func (m *Mock) DeleteAll(ctx context.Context, kind string) (int, error) {
	n := 0
	for {
		resp, err := m.engine.Do(ctx, &engine.Request{Kind: kind, Action: engine.ActionList})
		if err != nil {
			return n, err
		}
		if len(resp.List.Data) == 0 {
			return n, nil
		}
		for _, rec := range resp.List.Data {
			if err := m.engine.Delete(ctx, kind, rec.ID); err != nil {
				return n, err
			}
			n++
		}
	}
}

// Upsert updates the record named by record["id"] when it exists and
// creates it otherwise. The kind template is not applied.
func (m *Mock) Upsert(ctx context.Context, kind string, record schema.Params) (*stateful.Record, error) {
	if rid, ok := schema.StringID(record[schema.IDField]); ok && m.engine.Store().Exists(kind, rid) {
		resp, err := m.engine.Do(ctx, &engine.Request{Kind: kind, Action: engine.ActionUpdate, ID: rid, Params: record})
		if err != nil {
			return nil, err
		}
		return resp.Record, nil
	}
	return m.createMerged(ctx, kind, record)
}

func (m *Mock) createMerged(ctx context.Context, kind string, merged schema.Params) (*stateful.Record, error) {
	rec, err := m.engine.Create(ctx, kind, merged)
	if err != nil {
		return nil, err
	}
	m.logger.Debug("mock record created", "kind", kind, "id", rec.ID)
	return rec, nil
}

// Engine returns the engine the strategy creates records through.
func (m *Mock) Engine() *engine.Engine {
	return m.engine
}
