package checkout

import (
	"strings"

	"github.com/Hassan5123/roast-direct/internal/domain"
	"github.com/Hassan5123/roast-direct/internal/validation"
)

// Form is the checkout form as the shopper fills it in.
type Form struct {
	CardNumber     string `json:"cardNumber" form:"cardNumber" label:"Card number" validate:"notblank"`
	CardholderName string `json:"cardholderName" form:"cardholderName" label:"Cardholder name" validate:"notblank"`
	CVC            string `json:"cvc" form:"cvc" label:"CVC" validate:"notblank"`
	ExpMonth       string `json:"expMonth" form:"expMonth" label:"Expiration month" validate:"notblank"`
	ExpYear        string `json:"expYear" form:"expYear" label:"Expiration year" validate:"notblank"`

	ShippingAddress string `json:"shippingAddress" form:"shippingAddress" label:"Shipping address" validate:"notblank"`
	ShippingCity    string `json:"shippingCity" form:"shippingCity" label:"City" validate:"notblank"`
	ShippingState   string `json:"shippingState" form:"shippingState" label:"State" validate:"notblank"`
	ShippingZip     string `json:"shippingZip" form:"shippingZip" label:"ZIP code" validate:"notblank"`
	Phone           string `json:"phone" form:"phone" label:"Phone number" validate:"notblank"`

	SameAsShipping bool   `json:"sameAsShipping"`
	BillingName    string `json:"billingName"`
	BillingAddress string `json:"billingAddress"`
	BillingCity    string `json:"billingCity"`
	BillingState   string `json:"billingState"`
	BillingZip     string `json:"billingZip"`
}

// billingForm is checked only when billing differs from shipping.
type billingForm struct {
	BillingName    string `form:"billingName" label:"Billing name" validate:"notblank"`
	BillingAddress string `form:"billingAddress" label:"Billing address" validate:"notblank"`
	BillingCity    string `form:"billingCity" label:"Billing city" validate:"notblank"`
	BillingState   string `form:"billingState" label:"Billing state" validate:"notblank"`
	BillingZip     string `form:"billingZip" label:"Billing ZIP code" validate:"notblank"`
}

// Validate checks presence of every required field and returns one message
// per missing field, or nil.
func (f Form) Validate() validation.FieldErrors {
	errs := validation.Struct(f)
	if !f.SameAsShipping {
		billing := validation.Struct(billingForm{
			BillingName:    f.BillingName,
			BillingAddress: f.BillingAddress,
			BillingCity:    f.BillingCity,
			BillingState:   f.BillingState,
			BillingZip:     f.BillingZip,
		})
		for k, v := range billing {
			if errs == nil {
				errs = validation.FieldErrors{}
			}
			errs[k] = v
		}
	}
	return errs
}

// Draft converts a valid form into the persisted draft. Billing is fixed
// here: either the same-as-shipping tag or the distinct address entered.
func (f Form) Draft() domain.CheckoutDraft {
	t := strings.TrimSpace
	d := domain.CheckoutDraft{
		Card: domain.Card{
			Number:     t(f.CardNumber),
			HolderName: t(f.CardholderName),
			CVC:        t(f.CVC),
			ExpMonth:   t(f.ExpMonth),
			ExpYear:    t(f.ExpYear),
		},
		Shipping: domain.Address{
			Street: t(f.ShippingAddress),
			City:   t(f.ShippingCity),
			State:  t(f.ShippingState),
			Zip:    t(f.ShippingZip),
		},
		Phone:   t(f.Phone),
		Billing: domain.SameAsShipping(),
	}
	if !f.SameAsShipping {
		d.Billing = domain.DistinctBilling(t(f.BillingName), domain.Address{
			Street: t(f.BillingAddress),
			City:   t(f.BillingCity),
			State:  t(f.BillingState),
			Zip:    t(f.BillingZip),
		})
	}
	return d
}

// FormFromDraft prefills the form from a saved draft.
func FormFromDraft(d domain.CheckoutDraft) Form {
	f := Form{
		CardNumber:      d.Card.Number,
		CardholderName:  d.Card.HolderName,
		CVC:             d.Card.CVC,
		ExpMonth:        d.Card.ExpMonth,
		ExpYear:         d.Card.ExpYear,
		ShippingAddress: d.Shipping.Street,
		ShippingCity:    d.Shipping.City,
		ShippingState:   d.Shipping.State,
		ShippingZip:     d.Shipping.Zip,
		Phone:           d.Phone,
		SameAsShipping:  d.Billing.IsSameAsShipping(),
	}
	if !f.SameAsShipping {
		addr := d.Billing.Resolve(d.Shipping)
		f.BillingName = d.Billing.Name("")
		f.BillingAddress = addr.Street
		f.BillingCity = addr.City
		f.BillingState = addr.State
		f.BillingZip = addr.Zip
	}
	return f
}
