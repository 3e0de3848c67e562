package strategy

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"

	"github.com/getmockd/billingmock/pkg/schema"
	"github.com/getmockd/billingmock/pkg/stateful"
)

// StripeRemote implements Remote with the official stripe-go client.
type StripeRemote struct {
	client *stripe.Client
}

var _ Remote = (*StripeRemote)(nil)

// NewStripeRemote creates a remote authenticated with apiKey.
func NewStripeRemote(apiKey string) *StripeRemote {
	return &StripeRemote{client: stripe.NewClient(apiKey, nil)}
}

// Create forwards a create request for plans, products, coupons and customers.
func (r *StripeRemote) Create(ctx context.Context, kind string, p schema.Params) (*stateful.Record, error) {
	var (
		rid     string
		created int64
		err     error
	)
	switch kind {
	case schema.KindPlan:
		var plan *stripe.Plan
		plan, err = r.client.V1Plans.Create(ctx, planParams(p))
		if err == nil {
			rid, created = plan.ID, plan.Created
		}
	case schema.KindProduct:
		var prod *stripe.Product
		prod, err = r.client.V1Products.Create(ctx, &stripe.ProductCreateParams{
			ID:          stringParam(p, "id"),
			Name:        stringParam(p, "name"),
			Description: stringParam(p, "description"),
			Active:      boolParam(p, "active"),
			Metadata:    metadataParam(p),
		})
		if err == nil {
			rid, created = prod.ID, prod.Created
		}
	case schema.KindCoupon:
		var c *stripe.Coupon
		c, err = r.client.V1Coupons.Create(ctx, &stripe.CouponCreateParams{
			ID:               stringParam(p, "id"),
			AmountOff:        int64Param(p, "amount_off"),
			Currency:         stringParam(p, "currency"),
			Duration:         stringParam(p, "duration"),
			DurationInMonths: int64Param(p, "duration_in_months"),
			MaxRedemptions:   int64Param(p, "max_redemptions"),
			PercentOff:       float64Param(p, "percent_off"),
			RedeemBy:         int64Param(p, "redeem_by"),
			Metadata:         metadataParam(p),
		})
		if err == nil {
			rid, created = c.ID, c.Created
		}
	case schema.KindCustomer:
		var c *stripe.Customer
		c, err = r.client.V1Customers.Create(ctx, &stripe.CustomerCreateParams{
			Email:       stringParam(p, "email"),
			Description: stringParam(p, "description"),
			Metadata:    metadataParam(p),
		})
		if err == nil {
			rid, created = c.ID, c.Created
		}
	default:
		return nil, stateful.Unsupported(fmt.Sprintf("Creating %s objects in Live mode not supported", kind))
	}
	if err != nil {
		return nil, errors.WithHint(err, "check the live API key and the request parameters")
	}

	fields := schema.Clone(p)
	delete(fields, schema.IDField)
	ts := time.Unix(created, 0)
	return &stateful.Record{Kind: kind, ID: rid, Fields: fields, Created: ts, Updated: ts}, nil
}

// Delete removes a remote record.
func (r *StripeRemote) Delete(ctx context.Context, kind, id string) error {
	var err error
	switch kind {
	case schema.KindPlan:
		_, err = r.client.V1Plans.Delete(ctx, id, nil)
	case schema.KindProduct:
		_, err = r.client.V1Products.Delete(ctx, id, nil)
	case schema.KindCoupon:
		_, err = r.client.V1Coupons.Delete(ctx, id, nil)
	case schema.KindCustomer:
		_, err = r.client.V1Customers.Delete(ctx, id, nil)
	default:
		return stateful.Unsupported(fmt.Sprintf("Deleting %s objects in Live mode not supported", kind))
	}
	return err
}

// List returns the ids of every remote record of kind.
func (r *StripeRemote) List(ctx context.Context, kind string) ([]string, error) {
	var ids []string
	switch kind {
	case schema.KindPlan:
		for p, err := range r.client.V1Plans.List(ctx, &stripe.PlanListParams{}) {
			if err != nil {
				return nil, err
			}
			ids = append(ids, p.ID)
		}
	case schema.KindProduct:
		for p, err := range r.client.V1Products.List(ctx, &stripe.ProductListParams{}) {
			if err != nil {
				return nil, err
			}
			ids = append(ids, p.ID)
		}
	case schema.KindCoupon:
		for c, err := range r.client.V1Coupons.List(ctx, &stripe.CouponListParams{}) {
			if err != nil {
				return nil, err
			}
			ids = append(ids, c.ID)
		}
	case schema.KindCustomer:
		for c, err := range r.client.V1Customers.List(ctx, &stripe.CustomerListParams{}) {
			if err != nil {
				return nil, err
			}
			ids = append(ids, c.ID)
		}
	default:
		return nil, stateful.Unsupported(fmt.Sprintf("Listing %s objects in Live mode not supported", kind))
	}
	return ids, nil
}

func planParams(p schema.Params) *stripe.PlanCreateParams {
	out := &stripe.PlanCreateParams{
		ID:              stringParam(p, "id"),
		Amount:          int64Param(p, "amount"),
		Currency:        stringParam(p, "currency"),
		Interval:        stringParam(p, "interval"),
		IntervalCount:   int64Param(p, "interval_count"),
		TrialPeriodDays: int64Param(p, "trial_period_days"),
		Nickname:        stringParam(p, "nickname"),
		Metadata:        metadataParam(p),
	}
	if sub, ok := schema.AsMap(p["product"]); ok {
		out.Product = &stripe.PlanCreateProductParams{
			ID:   stringParam(sub, "id"),
			Name: stringParam(sub, "name"),
		}
	} else {
		out.ProductID = stringParam(p, "product")
	}
	return out
}

func stringParam(p map[string]interface{}, key string) *string {
	v, ok := p[key]
	if !ok || v == nil {
		return nil
	}
	return stripe.String(fmt.Sprint(v))
}

func int64Param(p map[string]interface{}, key string) *int64 {
	d, ok := decimalParam(p, key)
	if !ok {
		return nil
	}
	return stripe.Int64(d.IntPart())
}

func float64Param(p map[string]interface{}, key string) *float64 {
	d, ok := decimalParam(p, key)
	if !ok {
		return nil
	}
	f, _ := d.Float64()
	return stripe.Float64(f)
}

func boolParam(p map[string]interface{}, key string) *bool {
	switch v := p[key].(type) {
	case bool:
		return stripe.Bool(v)
	case string:
		return stripe.Bool(v == "true")
	default:
		return nil
	}
}

func decimalParam(p map[string]interface{}, key string) (decimal.Decimal, bool) {
	switch v := p[key].(type) {
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int64:
		return decimal.NewFromInt(v), true
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat(v), true
	case string:
		d, err := decimal.NewFromString(v)
		return d, err == nil
	default:
		return decimal.Decimal{}, false
	}
}

func metadataParam(p map[string]interface{}) map[string]string {
	m, ok := schema.AsMap(p["metadata"])
	if !ok || len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = fmt.Sprint(v)
	}
	return out
}
