package domain

import "encoding/json"

type Address struct {
	Street string `json:"street"`
	City   string `json:"city"`
	State  string `json:"state"`
	Zip    string `json:"zip"`
}

type Card struct {
	Number     string `json:"number"`
	HolderName string `json:"holderName"`
	CVC        string `json:"cvc"`
	ExpMonth   string `json:"expMonth"`
	ExpYear    string `json:"expYear"`
}

// BillingAddress is either "same as shipping" or a distinct address.
// The zero value is SameAsShipping.
type BillingAddress struct {
	distinct bool
	name     string
	address  Address
}

func SameAsShipping() BillingAddress {
	return BillingAddress{}
}

func DistinctBilling(name string, addr Address) BillingAddress {
	return BillingAddress{distinct: true, name: name, address: addr}
}

func (b BillingAddress) IsSameAsShipping() bool { return !b.distinct }

// Resolve returns the effective billing address for the given shipping address.
func (b BillingAddress) Resolve(shipping Address) Address {
	if !b.distinct {
		return shipping
	}
	return b.address
}

// Name returns the billing name, or fallback when billing mirrors shipping.
func (b BillingAddress) Name(fallback string) string {
	if !b.distinct {
		return fallback
	}
	return b.name
}

type billingJSON struct {
	SameAsShipping bool     `json:"sameAsShipping"`
	Name           string   `json:"name,omitempty"`
	Address        *Address `json:"address,omitempty"`
}

func (b BillingAddress) MarshalJSON() ([]byte, error) {
	if !b.distinct {
		return json.Marshal(billingJSON{SameAsShipping: true})
	}
	addr := b.address
	return json.Marshal(billingJSON{Name: b.name, Address: &addr})
}

func (b *BillingAddress) UnmarshalJSON(data []byte) error {
	var raw billingJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.SameAsShipping || raw.Address == nil {
		*b = SameAsShipping()
		return nil
	}
	*b = DistinctBilling(raw.Name, *raw.Address)
	return nil
}

// CheckoutDraft is the validated checkout form persisted between the checkout
// and review steps.
type CheckoutDraft struct {
	Card     Card           `json:"card"`
	Shipping Address        `json:"shipping"`
	Phone    string         `json:"phone"`
	Billing  BillingAddress `json:"billing"`
}

// OrderDetails are the server-computed totals. Never persisted.
type OrderDetails struct {
	Subtotal     float64 `json:"subtotal"`
	TaxAmount    float64 `json:"tax_amount"`
	TaxRate      float64 `json:"tax_rate"`
	ShippingCost float64 `json:"shipping_cost"`
	FinalTotal   float64 `json:"final_total"`
}
