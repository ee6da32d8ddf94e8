package products

import (
	"context"
	"errors"

	"github.com/estoque-erp/estoque-erp/internal/shared"
)

// Service coordinates product registration and lookups.
type Service struct {
	repo Repository
}

// NewService builds Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateInput describes an explicit product registration.
type CreateInput struct {
	Code     string
	EAN      string
	Name     string
	Importer string
	Location string
}

// Create registers a new product. The importer classification is immutable:
// re-creation of an existing code or EAN under a different importer is
// rejected, as is a code/EAN pairing that does not match the stored product.
func (s *Service) Create(ctx context.Context, input CreateInput) (Product, error) {
	if input.Code == "" {
		return Product{}, shared.E(shared.KindMissingField, "product code is required")
	}
	importer, err := shared.ParseImporter(input.Importer)
	if err != nil {
		return Product{}, shared.E(shared.KindMissingField, "importer is required")
	}

	existing, err := s.repo.FindByCodeOrEAN(ctx, input.Code, input.EAN)
	switch {
	case err == nil:
		if existing.Importer != importer {
			return Product{}, shared.Ef(shared.KindAlreadyExists, "product %s already belongs to importer %s", existing.Code, existing.Importer)
		}
		if existing.Code != input.Code || (input.EAN != "" && existing.EAN != "" && existing.EAN != input.EAN) {
			return Product{}, shared.E(shared.KindAlreadyExists, "code and ean belong to different products")
		}
		return Product{}, shared.Ef(shared.KindAlreadyExists, "product %s already registered", input.Code)
	case !errors.Is(err, shared.ErrNotFound):
		return Product{}, err
	}

	return s.repo.Create(ctx, Product{
		Code:     input.Code,
		EAN:      input.EAN,
		Name:     input.Name,
		Importer: importer,
		Location: input.Location,
	})
}

// Get fetches a product by id.
func (s *Service) Get(ctx context.Context, id int64) (Product, error) {
	if id <= 0 {
		return Product{}, shared.E(shared.KindMissingField, "product id is required")
	}
	return s.repo.Get(ctx, id)
}

// Resolve finds a product by code or EAN and checks the importer matches.
// An importer mismatch is reported as not found, never as a different error,
// so callers cannot probe which importer owns a code.
func (s *Service) Resolve(ctx context.Context, code, ean string, importer shared.Importer) (Product, error) {
	if code == "" && ean == "" {
		return Product{}, shared.E(shared.KindMissingField, "code or ean is required")
	}
	product, err := s.repo.FindByCodeOrEAN(ctx, code, ean)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return Product{}, shared.E(shared.KindNotFound, "product not found")
		}
		return Product{}, err
	}
	if importer != "" && product.Importer != importer {
		return Product{}, shared.E(shared.KindNotFound, "product not found")
	}
	return product, nil
}

// List returns products with pagination. An unresolvable importer filter is
// treated as absent rather than rejected.
func (s *Service) List(ctx context.Context, filters ListFilters, importerLabel string) ([]Product, int, error) {
	if importerLabel != "" {
		if importer, err := shared.ParseImporter(importerLabel); err == nil {
			filters.Importer = &importer
		}
	}
	return s.repo.List(ctx, filters)
}

// Delete removes a product and everything recorded against it.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return shared.E(shared.KindMissingField, "product id is required")
	}
	return s.repo.DeleteCascade(ctx, id)
}
