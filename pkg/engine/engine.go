package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	gocache "github.com/patrickmn/go-cache"

	"github.com/getmockd/billingmock/internal/id"
	"github.com/getmockd/billingmock/pkg/logging"
	"github.com/getmockd/billingmock/pkg/schema"
	"github.com/getmockd/billingmock/pkg/stateful"
	"github.com/getmockd/billingmock/pkg/validation"
)

// DefaultIdempotencyTTL is how long a create response is replayed.
const DefaultIdempotencyTTL = 24 * time.Hour

// Action is the operation a Request performs.
type Action string

const (
	ActionCreate   Action = "create"
	ActionRetrieve Action = "retrieve"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
	ActionList     Action = "list"
)

// ResultStatus is the outcome of a successful request.
type ResultStatus int

const (
	// StatusSuccess indicates a read or update completed.
	StatusSuccess ResultStatus = iota
	// StatusCreated indicates a new record was stored.
	StatusCreated
	// StatusDeleted indicates a record was removed.
	StatusDeleted
)

// Request is one operation against the simulated service.
type Request struct {
	// Kind is the resource kind, e.g. "plan".
	Kind string `json:"kind" yaml:"kind"`
	// Action defaults to create.
	Action Action `json:"action,omitempty" yaml:"action,omitempty"`
	// ID is required for retrieve, update and delete.
	ID string `json:"id,omitempty" yaml:"id,omitempty"`
	// Params are the already-merged create parameters or the changed fields of an update.
	Params schema.Params `json:"params,omitempty" yaml:"params,omitempty"`
	// List bounds list requests.
	List stateful.ListOptions `json:"-" yaml:"-"`
	// IdempotencyKey makes repeated creates return the first response.
	IdempotencyKey string `json:"idempotencyKey,omitempty" yaml:"idempotencyKey,omitempty"`
}

// Response is the result of a successful request.
type Response struct {
	Status    ResultStatus
	Record    *stateful.Record
	List      *stateful.ListResult
	// DeletedID is set for delete requests.
	DeletedID string
	RequestID string
	// Replayed is true when the response came from the idempotency cache.
	Replayed bool
}

// ToJSON renders the response body the way the real API does.
func (r *Response) ToJSON() map[string]interface{} {
	switch {
	case r.List != nil:
		return r.List.ToJSON()
	case r.Status == StatusDeleted:
		return map[string]interface{}{"id": r.DeletedID, "deleted": true}
	case r.Record != nil:
		return r.Record.ToJSON()
	default:
		return map[string]interface{}{}
	}
}

// Engine executes requests against one store.
type Engine struct {
	store       *stateful.Store
	validator   *validation.Engine
	logger      *slog.Logger
	idempotency *gocache.Cache

	// idemMu makes the replay lookup and the cache fill one step.
	idemMu sync.Mutex
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logging.WithComponent(l, "engine")
	}
}

// WithIdempotencyTTL sets how long create responses are replayed.
// A zero or negative TTL disables replay.
func WithIdempotencyTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		if ttl <= 0 {
			e.idempotency = nil
			return
		}
		e.idempotency = gocache.New(ttl, 2*ttl)
	}
}

// New creates an engine over store. A nil validator validates against the
// store's registry.
func New(store *stateful.Store, validator *validation.Engine, opts ...Option) *Engine {
	if store == nil {
		panic("engine.New: store must not be nil")
	}
	if validator == nil {
		validator = validation.New(store.Registry())
	}
	e := &Engine{
		store:       store,
		validator:   validator,
		logger:      logging.WithComponent(nil, "engine"),
		idempotency: gocache.New(DefaultIdempotencyTTL, time.Hour),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Store returns the underlying store.
func (e *Engine) Store() *stateful.Store {
	return e.store
}

// Do executes req.
func (e *Engine) Do(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, errors.New("request must not be nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, ok := e.store.Registry().Get(req.Kind); !ok {
		return nil, stateful.UnknownKind(req.Kind)
	}

	action := req.Action
	if action == "" {
		action = ActionCreate
	}

	var (
		resp *Response
		err  error
	)
	switch action {
	case ActionCreate:
		resp, err = e.create(req)
	case ActionRetrieve:
		resp, err = e.retrieve(req)
	case ActionUpdate:
		resp, err = e.update(req)
	case ActionDelete:
		resp, err = e.delete(req)
	case ActionList:
		resp, err = e.list(req)
	default:
		return nil, stateful.Unsupported(fmt.Sprintf("Unsupported action: %s", action))
	}
	if err != nil {
		e.logger.Debug("request failed", "kind", req.Kind, "action", action, "error", err)
		return nil, err
	}
	if resp.RequestID == "" {
		resp.RequestID = "req_" + id.UUID()
	}
	return resp, nil
}

// Create is shorthand for a create request.
func (e *Engine) Create(ctx context.Context, kind string, params schema.Params) (*stateful.Record, error) {
	resp, err := e.Do(ctx, &Request{Kind: kind, Action: ActionCreate, Params: params})
	if err != nil {
		return nil, err
	}
	return resp.Record, nil
}

// Delete is shorthand for a delete request.
func (e *Engine) Delete(ctx context.Context, kind, rid string) error {
	_, err := e.Do(ctx, &Request{Kind: kind, Action: ActionDelete, ID: rid})
	return err
}

func (e *Engine) create(req *Request) (*Response, error) {
	cacheKey := ""
	if req.IdempotencyKey != "" && e.idempotency != nil {
		cacheKey = req.Kind + ":" + req.IdempotencyKey
		e.idemMu.Lock()
		defer e.idemMu.Unlock()
		if cached, ok := e.idempotency.Get(cacheKey); ok {
			prev := cached.(*Response)
			replay := *prev
			replay.Record = prev.Record.Clone()
			replay.Replayed = true
			return &replay, nil
		}
	}

	var rec *stateful.Record
	err := e.store.Tx(func(tx *stateful.Tx) error {
		if err := e.validator.ValidateCreate(req.Kind, req.Params, tx); err != nil {
			return err
		}
		var err error
		rec, err = tx.Create(req.Kind, req.Params)
		return err
	})
	if err != nil {
		return nil, err
	}

	resp := &Response{Status: StatusCreated, Record: rec}
	if cacheKey != "" {
		resp.RequestID = "req_" + id.UUID()
		stored := *resp
		stored.Record = rec.Clone()
		e.idempotency.SetDefault(cacheKey, &stored)
	}
	return resp, nil
}

func (e *Engine) retrieve(req *Request) (*Response, error) {
	rec, err := e.store.Retrieve(req.Kind, req.ID)
	if err != nil {
		return nil, err
	}
	return &Response{Status: StatusSuccess, Record: rec}, nil
}

func (e *Engine) update(req *Request) (*Response, error) {
	var rec *stateful.Record
	err := e.store.Tx(func(tx *stateful.Tx) error {
		cur, err := tx.Retrieve(req.Kind, req.ID)
		if err != nil {
			return err
		}
		if err := e.validator.ValidateUpdate(req.Kind, cur, req.Params, tx); err != nil {
			return err
		}
		rec, err = tx.Update(req.Kind, req.ID, req.Params)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &Response{Status: StatusSuccess, Record: rec}, nil
}

func (e *Engine) delete(req *Request) (*Response, error) {
	if err := e.store.Delete(req.Kind, req.ID); err != nil {
		return nil, err
	}
	return &Response{Status: StatusDeleted, DeletedID: req.ID}, nil
}

func (e *Engine) list(req *Request) (*Response, error) {
	res, err := e.store.List(req.Kind, req.List)
	if err != nil {
		return nil, err
	}
	return &Response{Status: StatusSuccess, List: res}, nil
}
