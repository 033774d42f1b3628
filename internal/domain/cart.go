package domain

// CartItem is one line of the cart. Identity is (ProductID, GrindOption).
type CartItem struct {
	ProductID   string  `json:"productId"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
	GrindOption string  `json:"grindOption"`
	ImageURL    string  `json:"imageUrl"`
}

func (i CartItem) Key() LineKey {
	return LineKey{ProductID: i.ProductID, GrindOption: i.GrindOption}
}

func (i CartItem) LineTotal() float64 {
	return i.Price * float64(i.Quantity)
}

type LineKey struct {
	ProductID   string
	GrindOption string
}

// String is the "productId-grindOption" form used to key per-line errors.
func (k LineKey) String() string {
	return k.ProductID + "-" + k.GrindOption
}
