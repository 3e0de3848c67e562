package engine

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/billingmock/pkg/schema"
	"github.com/getmockd/billingmock/pkg/stateful"
)

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	return New(stateful.NewStore(schema.NewBuiltinRegistry()), nil, opts...)
}

func planParams() schema.Params {
	return schema.Params{
		"id":       "pid_1",
		"product":  schema.Params{"name": "Gold Plan"},
		"amount":   9900,
		"currency": "usd",
		"interval": "month",
	}
}

func TestEngine_CreatePlanWithInlineProduct(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	resp, err := e.Do(ctx, &Request{Kind: "plan", Params: planParams()})
	require.NoError(t, err)
	assert.Equal(t, StatusCreated, resp.Status)
	assert.Equal(t, "pid_1", resp.Record.ID)
	assert.NotEmpty(t, resp.RequestID)

	prodID := resp.Record.Fields["product"].(string)
	assert.Regexp(t, `^test_prod_`, prodID)

	prod, err := e.Do(ctx, &Request{Kind: "product", Action: ActionRetrieve, ID: prodID})
	require.NoError(t, err)
	assert.Equal(t, "Gold Plan", prod.Record.Fields["name"])
	assert.Equal(t, "service", prod.Record.Fields["type"])
}

func TestEngine_FailedCreateLeavesNoTrace(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	p := planParams()
	p["amount"] = 99.99
	_, err := e.Do(ctx, &Request{Kind: "plan", Params: p})
	require.Error(t, err)
	assert.Equal(t, "Invalid integer: 99.99", err.Error())

	assert.Equal(t, 0, e.Store().Count("plan"))
	assert.Equal(t, 0, e.Store().Count("product"))
}

func TestEngine_RoundTrip(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	params := schema.Params{"id": "prod_rt", "name": "Widget", "type": "good", "metadata": schema.Params{"a": "b"}}
	created, err := e.Create(ctx, "product", params)
	require.NoError(t, err)

	resp, err := e.Do(ctx, &Request{Kind: "product", Action: ActionRetrieve, ID: created.ID})
	require.NoError(t, err)

	want := schema.Clone(params)
	delete(want, "id")
	assert.Equal(t, want, resp.Record.Fields)
}

func TestEngine_Update(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	_, err := e.Do(ctx, &Request{Kind: "plan", Params: planParams()})
	require.NoError(t, err)

	resp, err := e.Do(ctx, &Request{Kind: "plan", Action: ActionUpdate, ID: "pid_1", Params: schema.Params{"nickname": "gold"}})
	require.NoError(t, err)
	assert.Equal(t, "gold", resp.Record.Fields["nickname"])
	assert.Equal(t, 9900, resp.Record.Fields["amount"])

	_, err = e.Do(ctx, &Request{Kind: "plan", Action: ActionUpdate, ID: "pid_1", Params: schema.Params{"amount": "lots"}})
	require.Error(t, err)

	got, err := e.Do(ctx, &Request{Kind: "plan", Action: ActionRetrieve, ID: "pid_1"})
	require.NoError(t, err)
	assert.Equal(t, 9900, got.Record.Fields["amount"])
}

func TestEngine_NotFoundSymmetry(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	for _, action := range []Action{ActionRetrieve, ActionUpdate, ActionDelete} {
		t.Run(string(action), func(t *testing.T) {
			_, err := e.Do(ctx, &Request{Kind: "plan", Action: action, ID: "gone", Params: schema.Params{}})
			require.Error(t, err)
			resp := stateful.ToErrorResponse(err)
			assert.Equal(t, 404, resp.StatusCode)
			assert.Equal(t, "plan", resp.Error.Param)
			assert.Equal(t, "No such plan: gone", resp.Error.Message)
		})
	}
}

func TestEngine_Delete(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	_, err := e.Create(ctx, "product", schema.Params{"id": "p1", "name": "A", "type": "good"})
	require.NoError(t, err)

	resp, err := e.Do(ctx, &Request{Kind: "product", Action: ActionDelete, ID: "p1"})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"id": "p1", "deleted": true}, resp.ToJSON())

	err = e.Delete(ctx, "product", "p1")
	assert.True(t, stateful.IsNotFound(err))
}

func TestEngine_ListBound(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	for i := 0; i < 101; i++ {
		_, err := e.Create(ctx, "product", schema.Params{"id": fmt.Sprintf("p%03d", i), "name": "n", "type": "good"})
		require.NoError(t, err)
	}

	resp, err := e.Do(ctx, &Request{Kind: "product", Action: ActionList, List: stateful.ListOptions{Limit: 1000}})
	require.NoError(t, err)
	assert.Len(t, resp.List.Data, 100)
	assert.True(t, resp.List.HasMore)

	resp, err = e.Do(ctx, &Request{Kind: "product", Action: ActionList, List: stateful.ListOptions{Limit: 5}})
	require.NoError(t, err)
	assert.Len(t, resp.List.Data, 5)
	assert.Equal(t, "p004", resp.List.Data[4].ID)
}

func TestEngine_IdempotentCreate(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	req := &Request{Kind: "customer", Params: schema.Params{"email": "a@example.com"}, IdempotencyKey: "key-1"}
	first, err := e.Do(ctx, req)
	require.NoError(t, err)
	assert.False(t, first.Replayed)

	second, err := e.Do(ctx, req)
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.Record.ID, second.Record.ID)
	assert.Equal(t, first.RequestID, second.RequestID)
	assert.Equal(t, 1, e.Store().Count("customer"))
}

func TestEngine_IdempotentCreateConcurrent(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	const n = 16
	ids := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := e.Do(ctx, &Request{Kind: "customer", Params: schema.Params{}, IdempotencyKey: "same"})
			if assert.NoError(t, err) {
				ids[i] = resp.Record.ID
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, e.Store().Count("customer"))
	for _, rid := range ids {
		assert.Equal(t, ids[0], rid)
	}
}

func TestEngine_NumericIDStringified(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	rec, err := e.Create(ctx, "coupon", schema.Params{"id": 42, "duration": "once", "percent_off": 10})
	require.NoError(t, err)
	assert.Equal(t, "42", rec.ID)

	_, err = e.Create(ctx, "coupon", schema.Params{"id": "42", "duration": "once", "percent_off": 10})
	require.Error(t, err)
	assert.Equal(t, "Coupon already exists.", err.Error())

	got, err := e.Do(ctx, &Request{Kind: "coupon", Action: ActionRetrieve, ID: "42"})
	require.NoError(t, err)
	assert.Equal(t, "42", got.Record.ID)
}

func TestEngine_NaNAmountRejected(t *testing.T) {
	e := newTestEngine(t)

	p := planParams()
	p["amount"] = math.NaN()
	_, err := e.Create(context.Background(), "plan", p)
	require.Error(t, err)
	assert.Equal(t, stateful.ErrorInvalidFieldValue, stateful.TypeOf(err))
	assert.Equal(t, "Invalid integer: NaN", err.Error())
	assert.Equal(t, 0, e.Store().Count("plan"))
}

func TestEngine_IdempotencyDisabled(t *testing.T) {
	e := newTestEngine(t, WithIdempotencyTTL(0))
	ctx := context.Background()

	req := &Request{Kind: "customer", Params: schema.Params{}, IdempotencyKey: "key-1"}
	_, err := e.Do(ctx, req)
	require.NoError(t, err)
	_, err = e.Do(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 2, e.Store().Count("customer"))
}

func TestEngine_Errors(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.Do(context.Background(), &Request{Kind: "invoice"})
	assert.True(t, stateful.IsNotFound(err))

	_, err = e.Do(context.Background(), &Request{Kind: "plan", Action: "archive"})
	assert.Equal(t, stateful.ErrorUnsupportedOperation, stateful.TypeOf(err))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.Do(ctx, &Request{Kind: "plan"})
	assert.ErrorIs(t, err, context.Canceled)
}
