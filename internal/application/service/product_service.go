package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sangkips/quotation-api/internal/domain/entity"
	"github.com/sangkips/quotation-api/internal/domain/repository"
	"github.com/sangkips/quotation-api/pkg/apperror"
	"github.com/sangkips/quotation-api/pkg/pagination"
	"github.com/sangkips/quotation-api/pkg/pricing"
	"github.com/shopspring/decimal"
)

// ProductService handles the product catalog. Only admins change it;
// everyone else sees active products of their country plus global ones.
type ProductService struct {
	productRepo repository.ProductRepository
}

// NewProductService creates a new product service
func NewProductService(productRepo repository.ProductRepository) *ProductService {
	return &ProductService{productRepo: productRepo}
}

// ProductInput represents the input for creating or updating a product
type ProductInput struct {
	Name        string
	Description string
	PackSize    string
	UnitPrice   decimal.Decimal
	Country     string
	IsActive    *bool
}

func (in *ProductInput) validate() error {
	var fields []apperror.FieldError
	if strings.TrimSpace(in.Name) == "" {
		fields = append(fields, apperror.FieldError{Field: "name", Message: "Name is required"})
	}
	if in.UnitPrice.IsNegative() {
		fields = append(fields, apperror.FieldError{Field: "unit_price", Message: "Unit price must not be negative"})
	}
	if !pricing.HasValidPrecision(in.UnitPrice) {
		fields = append(fields, apperror.FieldError{Field: "unit_price", Message: "Unit price must have at most 3 decimal places"})
	}
	if len(fields) > 0 {
		return apperror.NewValidationError(fields)
	}
	return nil
}

// CreateProduct adds a product to the catalog
func (s *ProductService) CreateProduct(ctx context.Context, actor Actor, input *ProductInput) (*entity.Product, error) {
	if !actor.Role.CanManageCatalog() {
		return nil, apperror.ErrForbidden
	}
	if err := input.validate(); err != nil {
		return nil, err
	}

	product := &entity.Product{
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		PackSize:    strings.TrimSpace(input.PackSize),
		UnitPrice:   input.UnitPrice,
		Country:     strings.TrimSpace(input.Country),
		IsActive:    input.IsActive == nil || *input.IsActive,
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// GetProduct returns a product visible to the actor
func (s *ProductService) GetProduct(ctx context.Context, actor Actor, id uuid.UUID) (*entity.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, apperror.NewNotFoundError("Product")
	}
	if !actor.Role.CanManageCatalog() && (!product.IsActive || !product.AvailableIn(actor.Country)) {
		return nil, apperror.NewNotFoundError("Product")
	}
	return product, nil
}

// UpdateProduct changes a catalog entry. Existing quotations keep the
// values they were saved with.
func (s *ProductService) UpdateProduct(ctx context.Context, actor Actor, id uuid.UUID, input *ProductInput) (*entity.Product, error) {
	if !actor.Role.CanManageCatalog() {
		return nil, apperror.ErrForbidden
	}
	if err := input.validate(); err != nil {
		return nil, err
	}
	product, err := s.GetProduct(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	product.Name = strings.TrimSpace(input.Name)
	product.Description = strings.TrimSpace(input.Description)
	product.PackSize = strings.TrimSpace(input.PackSize)
	product.UnitPrice = input.UnitPrice
	if c := strings.TrimSpace(input.Country); c != "" {
		product.Country = c
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// DeleteProduct removes a product from the catalog
func (s *ProductService) DeleteProduct(ctx context.Context, actor Actor, id uuid.UUID) error {
	if !actor.Role.CanManageCatalog() {
		return apperror.ErrForbidden
	}
	if _, err := s.GetProduct(ctx, actor, id); err != nil {
		return err
	}
	return s.productRepo.Delete(ctx, id)
}

// ListProducts returns a page of products visible to the actor
func (s *ProductService) ListProducts(ctx context.Context, actor Actor, params *pagination.PaginationParams, search string) (*pagination.PaginatedResult[entity.Product], error) {
	params.Validate()

	filter := &repository.ProductFilterParams{Pagination: params, Search: search}
	if !actor.Role.CanManageCatalog() {
		filter.ActiveOnly = true
		if actor.Country != entity.GlobalCountry {
			filter.Country = actor.Country
		}
	}

	products, total, err := s.productRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return pagination.NewPaginatedResult(products, pagination.NewPagination(params.Page, params.PerPage, total)), nil
}
