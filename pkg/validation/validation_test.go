package validation

import (
	"math"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/billingmock/pkg/schema"
	"github.com/getmockd/billingmock/pkg/stateful"
)

func setup(t *testing.T) (*Engine, *stateful.Store) {
	t.Helper()
	reg := schema.NewBuiltinRegistry()
	return New(reg), stateful.NewStore(reg)
}

func requestError(t *testing.T, err error) *stateful.RequestError {
	t.Helper()
	require.Error(t, err)
	var re *stateful.RequestError
	require.True(t, errors.As(err, &re), "expected *stateful.RequestError, got %T", err)
	return re
}

func validPlan() schema.Params {
	return schema.Params{
		"id":       "pid_1",
		"product":  schema.Params{"name": "Gold Plan"},
		"amount":   9900,
		"currency": "usd",
		"interval": "month",
	}
}

func TestValidateCreate_ValidPlan(t *testing.T) {
	e, s := setup(t)
	assert.NoError(t, e.ValidateCreate("plan", validPlan(), s))
}

func TestValidateCreate_Plan(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p schema.Params)
		typ     stateful.ErrorType
		param   string
		message string
	}{
		{
			name:    "missing amount",
			mutate:  func(p schema.Params) { delete(p, "amount") },
			typ:     stateful.ErrorMissingRequiredField,
			param:   "amount",
			message: "Plans require an `amount` parameter to be set.",
		},
		{
			name:    "null amount",
			mutate:  func(p schema.Params) { p["amount"] = nil },
			typ:     stateful.ErrorMissingRequiredField,
			param:   "amount",
			message: "Plans require an `amount` parameter to be set.",
		},
		{
			name:    "missing currency",
			mutate:  func(p schema.Params) { delete(p, "currency") },
			typ:     stateful.ErrorMissingRequiredField,
			param:   "currency",
			message: "Missing required param: currency.",
		},
		{
			name: "first missing in declared order",
			mutate: func(p schema.Params) {
				delete(p, "interval")
				delete(p, "product")
				delete(p, "currency")
			},
			typ:     stateful.ErrorMissingRequiredField,
			param:   "product",
			message: "Missing required param: product.",
		},
		{
			name:    "non-integer amount",
			mutate:  func(p schema.Params) { p["amount"] = 99.99 },
			typ:     stateful.ErrorInvalidFieldValue,
			param:   "amount",
			message: "Invalid integer: 99.99",
		},
		{
			name:    "non-numeric amount",
			mutate:  func(p schema.Params) { p["amount"] = "abc" },
			typ:     stateful.ErrorInvalidFieldValue,
			param:   "amount",
			message: "Invalid integer: abc",
		},
		{
			name:    "unknown product",
			mutate:  func(p schema.Params) { p["product"] = "unknown_product" },
			typ:     stateful.ErrorUnresolvedReference,
			param:   "product",
			message: "No such product: unknown_product",
		},
		{
			name:    "inline product bad type",
			mutate:  func(p schema.Params) { p["product"] = schema.Params{"name": "x", "type": "thing"} },
			typ:     stateful.ErrorInvalidFieldValue,
			param:   "product[type]",
			message: "Invalid type: must be one of good or service",
		},
		{
			name:    "inline product missing name",
			mutate:  func(p schema.Params) { p["product"] = schema.Params{} },
			typ:     stateful.ErrorMissingRequiredField,
			param:   "product[name]",
			message: "Missing required param: product[name].",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, s := setup(t)
			p := validPlan()
			tt.mutate(p)

			re := requestError(t, e.ValidateCreate("plan", p, s))
			assert.Equal(t, tt.typ, re.Type)
			assert.Equal(t, tt.param, re.Param)
			assert.Equal(t, tt.message, re.Message)
		})
	}
}

func TestValidateCreate_WholeNumbersAccepted(t *testing.T) {
	e, s := setup(t)
	for _, amount := range []interface{}{100, int64(100), 100.0, "100", uint32(5), uint(7), uint8(8), uint16(9)} {
		p := validPlan()
		p["amount"] = amount
		assert.NoError(t, e.ValidateCreate("plan", p, s), "amount %v", amount)
	}
}

func TestValidateCreate_NonFiniteAmountRejected(t *testing.T) {
	e, s := setup(t)
	tests := []struct {
		amount interface{}
		want   string
	}{
		{math.NaN(), "Invalid integer: NaN"},
		{math.Inf(1), "Invalid integer: +Inf"},
		{math.Inf(-1), "Invalid integer: -Inf"},
		{float32(math.Inf(1)), "Invalid integer: +Inf"},
	}
	for _, tt := range tests {
		p := validPlan()
		p["amount"] = tt.amount
		re := requestError(t, e.ValidateCreate("plan", p, s))
		assert.Equal(t, stateful.ErrorInvalidFieldValue, re.Type)
		assert.Equal(t, tt.want, re.Message)
		assert.Equal(t, "amount", re.Param)
	}
}

func TestValidateCreate_NumericIDAccepted(t *testing.T) {
	e, s := setup(t)
	p := validPlan()
	p["id"] = 42
	assert.NoError(t, e.ValidateCreate("plan", p, s))

	_, err := s.Create("plan", schema.Params{"id": "42"})
	require.NoError(t, err)
	re := requestError(t, e.ValidateCreate("plan", p, s))
	assert.Equal(t, stateful.ErrorDuplicateResource, re.Type)
}

func TestValidateCreate_Duplicate(t *testing.T) {
	e, s := setup(t)
	_, err := s.Create("plan", schema.Params{"id": "pid_1"})
	require.NoError(t, err)

	re := requestError(t, e.ValidateCreate("plan", validPlan(), s))
	assert.Equal(t, stateful.ErrorDuplicateResource, re.Type)
	assert.Equal(t, "Plan already exists.", re.Message)
	assert.Equal(t, "id", re.Param)
}

func TestValidateCreate_RequiredBeforeDuplicate(t *testing.T) {
	e, s := setup(t)
	_, err := s.Create("plan", schema.Params{"id": "pid_1"})
	require.NoError(t, err)

	p := validPlan()
	delete(p, "amount")
	re := requestError(t, e.ValidateCreate("plan", p, s))
	assert.Equal(t, stateful.ErrorMissingRequiredField, re.Type)
}

func TestValidateCreate_ExistingProductReference(t *testing.T) {
	e, s := setup(t)
	_, err := s.Create("product", schema.Params{"id": "prod_1", "name": "Gold", "type": "service"})
	require.NoError(t, err)

	p := validPlan()
	p["product"] = "prod_1"
	assert.NoError(t, e.ValidateCreate("plan", p, s))
}

func TestValidateCreate_InlineDuplicateID(t *testing.T) {
	e, s := setup(t)
	_, err := s.Create("product", schema.Params{"id": "prod_1", "name": "Gold"})
	require.NoError(t, err)

	p := validPlan()
	p["product"] = schema.Params{"id": "prod_1", "name": "Other"}
	re := requestError(t, e.ValidateCreate("plan", p, s))
	assert.Equal(t, stateful.ErrorDuplicateResource, re.Type)
	assert.Equal(t, "Product already exists.", re.Message)
	assert.Equal(t, "product[id]", re.Param)
}

func TestValidateCreate_CouponRules(t *testing.T) {
	tests := []struct {
		name    string
		params  schema.Params
		param   string
		wantErr bool
	}{
		{"amount off with currency", schema.Params{"duration": "once", "amount_off": 1000, "currency": "usd"}, "", false},
		{"percent off", schema.Params{"duration": "once", "percent_off": 25}, "", false},
		{"neither", schema.Params{"duration": "once"}, "amount_off", true},
		{"both", schema.Params{"duration": "once", "amount_off": 1, "percent_off": 5, "currency": "usd"}, "percent_off", true},
		{"amount off without currency", schema.Params{"duration": "once", "amount_off": 1000}, "currency", true},
		{"repeating with months", schema.Params{"duration": "repeating", "percent_off": 25, "duration_in_months": 3}, "", false},
		{"repeating without months", schema.Params{"duration": "repeating", "percent_off": 25}, "duration_in_months", true},
		{"percent out of range", schema.Params{"duration": "once", "percent_off": 150}, "percent_off", true},
		{"bad duration", schema.Params{"duration": "sometimes", "percent_off": 10}, "duration", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, s := setup(t)
			err := e.ValidateCreate("coupon", tt.params, s)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			re := requestError(t, err)
			assert.Equal(t, stateful.ErrorInvalidFieldValue, re.Type)
			assert.Equal(t, tt.param, re.Param)
		})
	}
}

func TestValidateCreate_CustomerCouponReference(t *testing.T) {
	e, s := setup(t)

	re := requestError(t, e.ValidateCreate("customer", schema.Params{"coupon": "10BUCKS"}, s))
	assert.Equal(t, "No such coupon: 10BUCKS", re.Message)
	assert.Equal(t, "coupon", re.Param)

	_, err := s.Create("coupon", schema.Params{"id": "10BUCKS", "duration": "once"})
	require.NoError(t, err)
	assert.NoError(t, e.ValidateCreate("customer", schema.Params{"coupon": "10BUCKS"}, s))
}

func TestValidateCreate_UnknownKind(t *testing.T) {
	e, s := setup(t)
	err := e.ValidateCreate("invoice", schema.Params{}, s)
	assert.True(t, stateful.IsNotFound(err))
}

func TestValidateUpdate(t *testing.T) {
	e, s := setup(t)
	_, err := s.Create("product", schema.Params{"id": "prod_1", "name": "Gold", "type": "service"})
	require.NoError(t, err)
	rec, err := s.Create("plan", schema.Params{"id": "pid_1", "product": "prod_1", "amount": 100, "currency": "usd", "interval": "month"})
	require.NoError(t, err)

	assert.NoError(t, e.ValidateUpdate("plan", rec, schema.Params{"nickname": "gold"}, s))
	assert.NoError(t, e.ValidateUpdate("plan", rec, schema.Params{"id": "pid_1"}, s))

	re := requestError(t, e.ValidateUpdate("plan", rec, schema.Params{"id": "other"}, s))
	assert.Equal(t, "id", re.Param)

	re = requestError(t, e.ValidateUpdate("plan", rec, schema.Params{"amount": 1.5}, s))
	assert.Equal(t, "Invalid integer: 1.5", re.Message)

	re = requestError(t, e.ValidateUpdate("plan", rec, schema.Params{"amount": nil}, s))
	assert.Equal(t, stateful.ErrorMissingRequiredField, re.Type)

	re = requestError(t, e.ValidateUpdate("plan", rec, schema.Params{"product": "nope"}, s))
	assert.Equal(t, "No such product: nope", re.Message)
}

func TestValidateUpdate_RulesSeeMergedFields(t *testing.T) {
	e, s := setup(t)
	rec, err := s.Create("coupon", schema.Params{"id": "c1", "duration": "once", "percent_off": 10})
	require.NoError(t, err)

	re := requestError(t, e.ValidateUpdate("coupon", rec, schema.Params{"amount_off": 100, "currency": "usd"}, s))
	assert.Equal(t, "percent_off", re.Param)
}

func TestJoinChoices(t *testing.T) {
	assert.Equal(t, "good", joinChoices([]string{"good"}))
	assert.Equal(t, "good or service", joinChoices([]string{"good", "service"}))
	assert.Equal(t, "once, repeating, or forever", joinChoices([]string{"once", "repeating", "forever"}))
}
