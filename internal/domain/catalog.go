package domain

// CatalogProduct is a raw product record from the VTEX catalog search API.
// Only the Normalizer reads it.
type CatalogProduct struct {
	ProductID   string        `json:"productId"`
	ProductName string        `json:"productName"`
	Brand       string        `json:"brand"`
	LinkText    string        `json:"linkText"`
	Link        string        `json:"link"`
	Items       []CatalogItem `json:"items"`
}

// CatalogItem is one SKU of a catalog product
type CatalogItem struct {
	ItemID  string          `json:"itemId"`
	Images  []CatalogImage  `json:"images"`
	Sellers []CatalogSeller `json:"sellers"`
}

// CatalogImage is an image attached to a SKU
type CatalogImage struct {
	ImageURL string `json:"imageUrl"`
}

// CatalogSeller carries the commercial offer of a SKU
type CatalogSeller struct {
	SellerID        string          `json:"sellerId"`
	CommertialOffer CommercialOffer `json:"commertialOffer"`
}

// CommercialOffer holds price and stock. Pointer fields distinguish "absent" from zero.
type CommercialOffer struct {
	Price             float64  `json:"Price"`
	SpotPrice         float64  `json:"spotPrice"`
	IsAvailable       *bool    `json:"IsAvailable,omitempty"`
	AvailableQuantity *float64 `json:"AvailableQuantity,omitempty"`
}
