package inventory

import (
	"context"
	"fmt"

	"github.com/Hassan5123/roast-direct/internal/apperr"
	"github.com/Hassan5123/roast-direct/internal/domain"
)

// PrepareAdd builds the cart line for adding quantity units of a product in
// one grind. Stock already in the cart for the product, in any grind, counts
// against its inventory. The returned line carries the accumulated quantity
// for its grind and is meant for cart.Store.Add.
func (r *Reconciler) PrepareAdd(ctx context.Context, inCart []domain.CartItem, productID, grindOption string, quantity int) (domain.CartItem, error) {
	if grindOption == "" {
		return domain.CartItem{}, apperr.Invalid(map[string]string{"grindOption": "Please select a grind option"})
	}
	if !domain.IsValidGrind(grindOption) {
		return domain.CartItem{}, apperr.Invalid(map[string]string{"grindOption": "Invalid grind option"})
	}
	if quantity < 1 {
		return domain.CartItem{}, apperr.Invalid(map[string]string{"quantity": minQuantityMessage})
	}

	p, err := r.fetch(ctx, productID)
	if err != nil {
		return domain.CartItem{}, err
	}

	inCartTotal, inCartForGrind := 0, 0
	for _, it := range inCart {
		if it.ProductID != productID {
			continue
		}
		inCartTotal += it.Quantity
		if it.GrindOption == grindOption {
			inCartForGrind = it.Quantity
		}
	}

	available := p.InventoryCount - inCartTotal
	if available < 0 {
		available = 0
	}
	if quantity > available {
		return domain.CartItem{}, apperr.Invalid(map[string]string{
			"quantity": fmt.Sprintf("Cannot add %d items. Only %d more available.", quantity, available),
		})
	}

	return domain.CartItem{
		ProductID:   p.ID,
		Name:        p.Name,
		Price:       p.Price,
		Quantity:    inCartForGrind + quantity,
		GrindOption: grindOption,
		ImageURL:    fmt.Sprintf("/web-images/product-images/%s.jpg", p.ID),
	}, nil
}
