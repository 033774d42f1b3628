package orders

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Hassan5123/roast-direct/internal/apperr"
	"github.com/Hassan5123/roast-direct/internal/catalog"
	"github.com/Hassan5123/roast-direct/internal/domain"
)

const CanceledMessage = "Order has been successfully canceled."

type API interface {
	ListOrders(ctx context.Context) ([]domain.Order, error)
	GetOrder(ctx context.Context, id string) (domain.Order, error)
	CancelOrder(ctx context.Context, id string) (catalog.CancelResult, error)
}

// Service is the shopper's order history. Backend 401s are returned as
// errors so the caller can send the shopper to login.
type Service struct {
	api API
	log *slog.Logger
}

func NewService(api API, log *slog.Logger) *Service {
	return &Service{api: api, log: log.With("component", "orders")}
}

func (s *Service) List(ctx context.Context) ([]domain.Order, error) {
	orders, err := s.api.ListOrders(ctx)
	if err != nil {
		return nil, friendly(err, "Failed to load orders")
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.Order, error) {
	if id == "" {
		return domain.Order{}, apperr.New(apperr.NotFound, "Order ID not found")
	}
	order, err := s.api.GetOrder(ctx, id)
	if err != nil {
		return domain.Order{}, friendly(err, "Failed to load order details")
	}
	return order, nil
}

// Cancel cancels an order still in progress or processing and returns it
// with its new status.
func (s *Service) Cancel(ctx context.Context, id string) (domain.Order, error) {
	order, err := s.Get(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	if !order.Status.Cancelable() {
		return order, &apperr.Error{
			Kind:    apperr.Business,
			Status:  http.StatusConflict,
			Message: fmt.Sprintf("Order cannot be canceled in '%s' status", order.Status),
		}
	}

	if _, err := s.api.CancelOrder(ctx, id); err != nil {
		return order, friendly(err, "Failed to cancel order")
	}
	s.log.InfoContext(ctx, "order canceled", "order_id", id, "order_number", order.OrderNumber)

	order.Status = domain.OrderStatusCanceled
	return order, nil
}

func friendly(err error, fallback string) error {
	ae, ok := apperr.As(err)
	if !ok {
		return &apperr.Error{Kind: apperr.Internal, Message: fallback, Err: err}
	}
	out := *ae
	switch ae.Kind {
	case apperr.Unauthorized:
		return ae
	case apperr.Forbidden:
		out.Message = "You are not authorized to view this order"
	case apperr.NotFound:
		out.Message = "Order not found"
	default:
		if out.Message == "" || ae.Kind == apperr.Network {
			out.Message = fallback
		}
	}
	out.Err = err
	return &out
}
