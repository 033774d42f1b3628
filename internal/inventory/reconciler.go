package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/Hassan5123/roast-direct/internal/domain"
)

const FetchWarning = "Failed to fetch product data. Some inventory limits may not be accurate."

const minQuantityMessage = "Quantity must be at least 1"

type ProductAPI interface {
	GetProduct(ctx context.Context, id string) (domain.Product, error)
}

// Report is the advisory stock picture of a cart. Errors of a reconciliation
// are keyed by product id; errors of a quantity edit by "productId-grindOption".
type Report struct {
	Products map[string]domain.Product `json:"products"`
	Errors   map[string]string         `json:"errors"`
	Warning  string                    `json:"warning,omitempty"`
}

func emptyReport() Report {
	return Report{Products: map[string]domain.Product{}, Errors: map[string]string{}}
}

type Reconciler struct {
	api ProductAPI
	sfg singleflight.Group // concurrent lookups of one product share a fetch
	log *slog.Logger
}

func NewReconciler(api ProductAPI, log *slog.Logger) *Reconciler {
	return &Reconciler{api: api, log: log.With("component", "inventory")}
}

// Reconcile fetches every distinct product of items and flags lines asking
// for more than is in stock. It does nothing for anonymous shoppers or an
// empty cart.
func (r *Reconciler) Reconcile(ctx context.Context, authenticated bool, items []domain.CartItem) Report {
	rep := emptyReport()
	if !authenticated || len(items) == 0 {
		return rep
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		id := it.ProductID
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		g.Go(func() error {
			p, err := r.fetch(ctx, id)
			if err != nil {
				return fmt.Errorf("product %s: %w", id, err)
			}
			mu.Lock()
			rep.Products[id] = p
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		r.log.WarnContext(ctx, "inventory lookup failed", "error", err)
		rep.Warning = FetchWarning
	}

	for _, it := range items {
		p, ok := rep.Products[it.ProductID]
		if ok && it.Quantity > p.InventoryCount {
			rep.Errors[it.ProductID] = stockMessage(p.InventoryCount)
		}
	}
	return rep
}

// fetch shares one lookup per product between concurrent callers. The shared
// lookup outlives any single caller's cancellation; each caller still stops
// waiting when its own ctx is done.
func (r *Reconciler) fetch(ctx context.Context, id string) (domain.Product, error) {
	shared := context.WithoutCancel(ctx)
	ch := r.sfg.DoChan(id, func() (interface{}, error) {
		return r.api.GetProduct(shared, id)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return domain.Product{}, res.Err
		}
		return res.Val.(domain.Product), nil
	case <-ctx.Done():
		return domain.Product{}, ctx.Err()
	}
}

// CanIncrease reports whether the line may grow by one unit. Lines whose
// product could not be fetched are never blocked.
func (rep Report) CanIncrease(item domain.CartItem) bool {
	p, ok := rep.Products[item.ProductID]
	if !ok {
		return true
	}
	return item.Quantity < p.InventoryCount
}

// CheckQuantity validates an edit of item to quantity. On rejection it
// returns the line key and message to show.
func (rep Report) CheckQuantity(item domain.CartItem, quantity int) (key, message string, ok bool) {
	key = item.Key().String()
	if quantity < 1 {
		return key, minQuantityMessage, false
	}
	if p, fetched := rep.Products[item.ProductID]; fetched && quantity > p.InventoryCount {
		return key, stockMessage(p.InventoryCount), false
	}
	return key, "", true
}

func stockMessage(available int) string {
	return fmt.Sprintf("Only %d available in stock", available)
}
