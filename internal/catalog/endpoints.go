package catalog

import (
	"context"
	"net/http"

	"github.com/Hassan5123/roast-direct/internal/domain"
)

type AuthResult struct {
	Message string      `json:"message"`
	Token   string      `json:"token"`
	User    domain.User `json:"user"`
}

func (c *Client) Login(ctx context.Context, creds domain.Credentials) (AuthResult, error) {
	var out AuthResult
	err := c.do(ctx, http.MethodPost, "/api/auth/login", creds, &out)
	return out, err
}

func (c *Client) Register(ctx context.Context, reg domain.Registration) (AuthResult, error) {
	var out AuthResult
	err := c.do(ctx, http.MethodPost, "/api/auth/register", reg, &out)
	return out, err
}

func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var out struct {
		Products []domain.Product `json:"products"`
		Count    int              `json:"count"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/products/all_products", nil, &out); err != nil {
		return nil, err
	}
	return out.Products, nil
}

func (c *Client) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	var out struct {
		Product domain.Product `json:"product"`
	}
	err := c.do(ctx, http.MethodGet, pathID("/api/products/%s", id), nil, &out)
	return out.Product, err
}

// SubtotalItem is a cart line as the subtotal endpoint expects it.
type SubtotalItem struct {
	ProductID   string `json:"product_id"`
	Quantity    int    `json:"quantity"`
	GrindOption string `json:"grind_option"`
}

func (c *Client) Subtotal(ctx context.Context, items []SubtotalItem) (float64, error) {
	var out struct {
		Subtotal float64 `json:"subtotal"`
	}
	err := c.do(ctx, http.MethodPost, "/api/orders/subtotal", map[string]any{"items": items}, &out)
	return out.Subtotal, err
}

type FinalTotalRequest struct {
	Subtotal        float64        `json:"subtotal"`
	CardNumber      string         `json:"card_number"`
	CardholderName  string         `json:"cardholder_name"`
	CVC             string         `json:"cvc"`
	ExpMonth        int            `json:"exp_month"`
	ExpYear         int            `json:"exp_year"`
	ShippingAddress domain.Address `json:"shipping_address"`
	BillingAddress  domain.Address `json:"billing_address"`
}

func (c *Client) FinalTotal(ctx context.Context, req FinalTotalRequest) (domain.OrderDetails, error) {
	var out domain.OrderDetails
	err := c.do(ctx, http.MethodPost, "/api/orders/final_total", req, &out)
	return out, err
}

type PlaceOrderRequest struct {
	Items           []domain.OrderItem `json:"items"`
	ShippingAddress domain.Address     `json:"shipping_address"`
	FinalTotal      float64            `json:"final_total"`
}

func (c *Client) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (domain.PlacedOrder, error) {
	var out domain.PlacedOrder
	err := c.do(ctx, http.MethodPost, "/api/orders/place_order", req, &out)
	return out, err
}

func (c *Client) ListOrders(ctx context.Context) ([]domain.Order, error) {
	var out struct {
		Orders []domain.Order `json:"orders"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/orders/all_orders", nil, &out); err != nil {
		return nil, err
	}
	return out.Orders, nil
}

func (c *Client) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	var out struct {
		Order domain.Order `json:"order"`
	}
	err := c.do(ctx, http.MethodGet, pathID("/api/orders/%s", id), nil, &out)
	return out.Order, err
}

type CancelResult struct {
	Message     string `json:"message"`
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
}

func (c *Client) CancelOrder(ctx context.Context, id string) (CancelResult, error) {
	var out CancelResult
	err := c.do(ctx, http.MethodPost, pathID("/api/orders/cancel/%s", id), nil, &out)
	return out, err
}
