package domain

// Step is a stage of the shopper's checkout flow. Handlers answer with a
// Step to redirect to instead of navigating themselves.
type Step string

const (
	StepLogin    Step = "login"
	StepCart     Step = "cart"
	StepCheckout Step = "checkout"
	StepReview   Step = "review"
	StepPlaced   Step = "placed"
	StepOrders   Step = "orders"
	// StepProducts is the catalog, where login and signup land.
	StepProducts Step = "products"
)

var transitions = map[Step][]Step{
	StepCart:     {StepCheckout},
	StepCheckout: {StepReview, StepCheckout, StepCart},
	StepReview:   {StepPlaced, StepReview, StepCheckout, StepCart},
	StepPlaced:   {StepOrders},
}

// CanTransitionTo reports whether the flow may move from one step to another.
// Any step may fall back to login when the session is gone.
func CanTransitionTo(from, to Step) bool {
	if to == StepLogin {
		return true
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// RequiresAuth reports whether entering the step needs an authenticated session.
func (s Step) RequiresAuth() bool {
	switch s {
	case StepCart, StepCheckout, StepReview, StepPlaced, StepOrders:
		return true
	}
	return false
}

func (s Step) String() string {
	return string(s)
}
