package domain

type Product struct {
	ID               string   `json:"_id"`
	Name             string   `json:"name"`
	Description      string   `json:"description,omitempty"`
	Price            float64  `json:"price"`
	RoastLevel       string   `json:"roast_level,omitempty"`
	OriginCountry    string   `json:"origin_country,omitempty"`
	InventoryCount   int      `json:"inventory_count"`
	ImageURL         string   `json:"image_url,omitempty"`
	FarmInfo         string   `json:"farm_info,omitempty"`
	ProcessingMethod string   `json:"processing_method,omitempty"`
	TastingNotes     []string `json:"tasting_notes,omitempty"`
	RoastDate        string   `json:"roast_date,omitempty"`
	IsActive         bool     `json:"is_active,omitempty"`
}

func (p Product) InStock() bool {
	return p.InventoryCount > 0
}
