package products

// CreateProductRequest is the JSON payload for product registration.
type CreateProductRequest struct {
	Code     string `json:"code" validate:"required,max=64"`
	EAN      string `json:"ean,omitempty" validate:"omitempty,max=64"`
	Name     string `json:"name" validate:"required,max=255"`
	Importer string `json:"importer" validate:"required"`
	Location string `json:"location,omitempty" validate:"omitempty,max=64"`
}

// ListResponse wraps a paginated product listing.
type ListResponse struct {
	Items []Product `json:"items"`
	Total int       `json:"total"`
	Page  int       `json:"page"`
	Limit int       `json:"limit"`
}
