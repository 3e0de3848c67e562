package params

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/billingmock/internal/id"
	"github.com/getmockd/billingmock/pkg/schema"
)

func newNormalizer(d Determinism) *Normalizer {
	return New(schema.NewBuiltinRegistry(), "usd", d)
}

func TestNormalize_EmptyEqualsTemplate(t *testing.T) {
	n := newNormalizer(DeterminismLocal)
	for _, kind := range []string{"plan", "product", "coupon", "customer", "card", "bank_account"} {
		t.Run(kind, func(t *testing.T) {
			assert.Equal(t, n.Template(kind), n.Normalize(kind, nil))
			assert.Equal(t, n.Template(kind), n.Normalize(kind, map[string]interface{}{}))
		})
	}
}

func TestTemplate_FillsDefaultCurrency(t *testing.T) {
	n := New(schema.NewBuiltinRegistry(), "eur", DeterminismLocal)

	plan := n.Template("plan")
	assert.Equal(t, "eur", plan["currency"])
	assert.Equal(t, 1337, plan["amount"])
	assert.Equal(t, "stripe_mock_default_plan_id", plan["id"])

	assert.Equal(t, "eur", n.Template("coupon")["currency"])
	assert.NotContains(t, n.Template("product"), "currency")
}

func TestTemplate_ReturnsCopy(t *testing.T) {
	n := newNormalizer(DeterminismLocal)
	tpl := n.Template("plan")
	tpl["product"].(schema.Params)["name"] = "mutated"

	assert.Equal(t, "StripeMock Default Plan ID", n.Template("plan")["product"].(schema.Params)["name"])
}

func TestNormalize_CallerWins(t *testing.T) {
	n := newNormalizer(DeterminismLocal)

	got := n.Normalize("plan", map[string]interface{}{
		"amount":   9900,
		"currency": nil,
		"nickname": "gold",
	})
	assert.Equal(t, 9900, got["amount"])
	assert.Equal(t, "gold", got["nickname"])
	assert.Equal(t, "month", got["interval"])

	v, present := got["currency"]
	assert.True(t, present, "explicit nil must pass through")
	assert.Nil(t, v)
}

func TestNormalize_Fingerprint(t *testing.T) {
	card := map[string]interface{}{"number": "4242424242424242"}

	local := newNormalizer(DeterminismLocal).Normalize("token", map[string]interface{}{"card": card})
	sub := local["card"].(schema.Params)
	assert.Equal(t, id.Fingerprint("4242424242424242"), sub[FingerprintField])
	assert.NotContains(t, card, FingerprintField, "caller map must not be mutated")

	passthrough := newNormalizer(DeterminismPassthrough).Normalize("token", map[string]interface{}{"card": card})
	assert.NotContains(t, passthrough["card"], FingerprintField)
}

func TestNormalize_UnknownKind(t *testing.T) {
	n := newNormalizer(DeterminismLocal)
	got := n.Normalize("invoice", map[string]interface{}{"a": 1})
	require.Equal(t, schema.Params{"a": 1}, got)
}

func TestOverlay(t *testing.T) {
	base := schema.CouponPercentOffTemplate()
	out := Overlay(base, map[string]interface{}{"percent_off": 50})
	assert.Equal(t, 50, out["percent_off"])
	assert.Equal(t, "25PERCENT", out["id"])
	assert.Equal(t, 25, base["percent_off"])
}
