package domain

type OrderStatus string

const (
	OrderStatusInProgress OrderStatus = "in-progress"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCanceled   OrderStatus = "canceled"
)

func (s OrderStatus) Cancelable() bool {
	return s == OrderStatusInProgress || s == OrderStatusProcessing
}

func (s OrderStatus) String() string {
	return string(s)
}

type OrderItem struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name,omitempty"`
	ImageURL    string  `json:"image_url,omitempty"`
	Quantity    int     `json:"quantity"`
	PriceAtTime float64 `json:"price_at_time"`
	GrindOption string  `json:"grind_option"`
	ItemTotal   float64 `json:"item_total,omitempty"`
}

type Order struct {
	OrderID         string      `json:"order_id"`
	OrderNumber     string      `json:"order_number"`
	UserID          string      `json:"user_id,omitempty"`
	CreatedAt       string      `json:"created_at"`
	Status          OrderStatus `json:"status"`
	FinalTotal      float64     `json:"final_total"`
	ItemCount       int         `json:"item_count"`
	Items           []OrderItem `json:"items"`
	ShippingAddress Address     `json:"shipping_address"`
	BillingAddress  *Address    `json:"billing_address,omitempty"`
}

// PlacedOrder is the backend acknowledgement of place_order.
type PlacedOrder struct {
	OrderID     string      `json:"order_id"`
	OrderNumber string      `json:"order_number"`
	FinalTotal  float64     `json:"final_total"`
	Status      OrderStatus `json:"status"`
}
