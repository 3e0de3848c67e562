package schema

// Built-in kind names.
const (
	KindPlan        = "plan"
	KindProduct     = "product"
	KindCoupon      = "coupon"
	KindCustomer    = "customer"
	KindToken       = "token"
	KindCard        = "card"
	KindBankAccount = "bank_account"
)

// Builtin returns fresh declarations of the built-in billing kinds.
// Currency fields carry no template value; the normalizer fills them from
// the configured default currency.
func Builtin() []*Kind {
	return []*Kind{
		{
			Name:   KindPlan,
			Label:  "Plan",
			Prefix: "plan",
			Fields: []Field{
				{Name: IDField, Kind: FieldString},
				{Name: "product", Kind: FieldReference, Ref: KindProduct, Inline: true, Required: true},
				{Name: "amount", Kind: FieldInteger, Required: true, MissingMessage: "Plans require an `%s` parameter to be set."},
				{Name: "currency", Kind: FieldString, Required: true, Currency: true},
				{Name: "interval", Required: true},
				{Name: "interval_count", Kind: FieldInteger},
				{Name: "trial_period_days", Kind: FieldInteger},
				{Name: "nickname", Kind: FieldString},
				{Name: "metadata", Kind: FieldObject},
			},
			Template: Params{
				IDField: "stripe_mock_default_plan_id",
				"product": Params{
					"name": "StripeMock Default Plan ID",
				},
				"amount":   1337,
				"interval": "month",
			},
		},
		{
			Name:   KindProduct,
			Label:  "Product",
			Prefix: "prod",
			Fields: []Field{
				{Name: IDField, Kind: FieldString},
				{Name: "name", Kind: FieldString, Required: true},
				{Name: "type", Kind: FieldString, Required: true, Enum: []string{"good", "service"}},
				{Name: "active", Kind: FieldBoolean},
				{Name: "description", Kind: FieldString},
				{Name: "metadata", Kind: FieldObject},
			},
			Template: Params{
				IDField: "stripe_mock_default_product_id",
				"name":  "StripeMock Default Product ID",
				"type":  "service",
			},
			InlineDefaults: Params{
				"type": "service",
			},
		},
		{
			Name:   KindCoupon,
			Label:  "Coupon",
			Prefix: "coupon",
			Fields: []Field{
				{Name: IDField, Kind: FieldString},
				{Name: "duration", Kind: FieldString, Required: true, Enum: []string{"once", "repeating", "forever"}},
				{Name: "amount_off", Kind: FieldInteger},
				{Name: "percent_off", Kind: FieldNumber},
				{Name: "currency", Kind: FieldString, Currency: true},
				{Name: "duration_in_months", Kind: FieldInteger},
				{Name: "max_redemptions", Kind: FieldInteger},
				{Name: "redeem_by", Kind: FieldInteger},
				{Name: "metadata", Kind: FieldObject},
			},
			Template: Params{
				IDField:           "10BUCKS",
				"amount_off":      1000,
				"max_redemptions": 100,
				"metadata": Params{
					"created_by": "admin_acct_1",
				},
				"duration": "once",
			},
			Rules: []Rule{
				{
					Expr:    "amount_off != nil || percent_off != nil",
					Param:   "amount_off",
					Message: "Coupons require an `amount_off` or `percent_off` parameter to be set.",
				},
				{
					Expr:    "amount_off == nil || percent_off == nil",
					Param:   "percent_off",
					Message: "Coupons cannot set both `amount_off` and `percent_off`.",
				},
				{
					Expr:    "amount_off == nil || currency != nil",
					Param:   "currency",
					Message: "You must pass currency when passing amount_off.",
				},
				{
					Expr:    `duration != "repeating" || duration_in_months != nil`,
					Param:   "duration_in_months",
					Message: "Coupons with duration=repeating require `duration_in_months` to be set.",
				},
				{
					Expr:    "percent_off == nil || (percent_off > 0 && percent_off <= 100)",
					Param:   "percent_off",
					Message: "Invalid percent_off: must be greater than 0 and at most 100.",
				},
			},
		},
		{
			Name:   KindCustomer,
			Label:  "Customer",
			Prefix: "cus",
			Fields: []Field{
				{Name: IDField, Kind: FieldString},
				{Name: "email", Kind: FieldString},
				{Name: "description", Kind: FieldString},
				{Name: "coupon", Kind: FieldReference, Ref: KindCoupon},
				{Name: "metadata", Kind: FieldObject},
			},
			Template: Params{
				"email":       "mock@example.com",
				"description": "StripeMock Default Customer",
			},
		},
		{
			Name:   KindToken,
			Label:  "Token",
			Prefix: "tok",
			Fields: []Field{
				{Name: IDField, Kind: FieldString},
				{Name: "card", Kind: FieldObject},
				{Name: "bank_account", Kind: FieldObject},
			},
			Template: Params{},
			Rules: []Rule{
				{
					Expr:    "card != nil || bank_account != nil",
					Param:   "card",
					Message: "You must supply either a card or a bank_account.",
				},
			},
			Fingerprints: []Fingerprint{
				{Object: "card", Source: "number"},
				{Object: "bank_account", Source: "account_number"},
			},
		},
		{
			Name:   KindCard,
			Label:  "Card",
			Prefix: "card",
			Fields: []Field{
				{Name: IDField, Kind: FieldString},
				{Name: "number", Kind: FieldString, Required: true},
				{Name: "exp_month", Kind: FieldInteger, Required: true},
				{Name: "exp_year", Kind: FieldInteger, Required: true},
				{Name: "cvc", Kind: FieldString},
				{Name: "tokenization_method"},
			},
			Template: Params{
				"number":              "4242424242424242",
				"exp_month":           9,
				"exp_year":            2018,
				"cvc":                 "999",
				"tokenization_method": nil,
			},
		},
		{
			Name:   KindBankAccount,
			Label:  "Bank account",
			Prefix: "ba",
			Fields: []Field{
				{Name: IDField, Kind: FieldString},
				{Name: "country", Kind: FieldString, Required: true},
				{Name: "currency", Kind: FieldString, Required: true, Currency: true},
				{Name: "account_holder_name", Kind: FieldString},
				{Name: "account_holder_type", Kind: FieldString, Enum: []string{"individual", "company"}},
				{Name: "routing_number", Kind: FieldString},
				{Name: "account_number", Kind: FieldString, Required: true},
			},
			Template: Params{
				"country":             "US",
				"account_holder_name": "Jane Austen",
				"account_holder_type": "individual",
				"routing_number":      "110000000",
				"account_number":      "000123456789",
			},
		},
	}
}

// CouponPercentOffTemplate is the alternate coupon template for percentage discounts.
func CouponPercentOffTemplate() Params {
	return Params{
		IDField:              "25PERCENT",
		"percent_off":        25,
		"redeem_by":          nil,
		"duration_in_months": 3,
		"duration":           "repeating",
	}
}

// NewBuiltinRegistry returns a registry holding the built-in kinds.
func NewBuiltinRegistry() *Registry {
	r, err := NewRegistry(Builtin()...)
	if err != nil {
		panic("schema: invalid built-in kinds: " + err.Error())
	}
	return r
}
