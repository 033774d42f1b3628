package checkout

import (
	"context"
	"log/slog"

	"github.com/Hassan5123/roast-direct/internal/apperr"
	"github.com/Hassan5123/roast-direct/internal/catalog"
	"github.com/Hassan5123/roast-direct/internal/domain"
)

type SubtotalAPI interface {
	Subtotal(ctx context.Context, items []catalog.SubtotalItem) (float64, error)
}

type SubtotalSource string

const (
	SourceServer SubtotalSource = "server"
	SourceLocal  SubtotalSource = "local"
)

type Estimate struct {
	Subtotal float64        `json:"subtotal"`
	Source   SubtotalSource `json:"source"`
}

// Estimator asks the backend for the cart subtotal shown on the checkout
// page, falling back to the local cart total.
type Estimator struct {
	api SubtotalAPI
	log *slog.Logger
}

func NewEstimator(api SubtotalAPI, log *slog.Logger) *Estimator {
	return &Estimator{api: api, log: log.With("component", "subtotal")}
}

// Estimate only fails when the backend rejected the session; every other
// failure yields the local total.
func (e *Estimator) Estimate(ctx context.Context, items []domain.CartItem) (Estimate, error) {
	local := Estimate{Subtotal: localTotal(items), Source: SourceLocal}
	if len(items) == 0 {
		return local, nil
	}

	req := make([]catalog.SubtotalItem, 0, len(items))
	for _, it := range items {
		req = append(req, catalog.SubtotalItem{
			ProductID:   it.ProductID,
			Quantity:    it.Quantity,
			GrindOption: domain.GrindOrDefault(it.GrindOption),
		})
	}

	subtotal, err := e.api.Subtotal(ctx, req)
	if err != nil {
		if apperr.IsUnauthorized(err) {
			return local, err
		}
		e.log.WarnContext(ctx, "subtotal lookup failed, using cart total", "error", err)
		return local, nil
	}
	if subtotal <= 0 {
		return local, nil
	}
	return Estimate{Subtotal: subtotal, Source: SourceServer}, nil
}

func localTotal(items []domain.CartItem) float64 {
	var total float64
	for _, it := range items {
		total += it.LineTotal()
	}
	return total
}
