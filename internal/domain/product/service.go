// internal/domain/product/service.go
package product

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrProductNotFound is returned when no product matches the reference.
var ErrProductNotFound = errors.New("product not found")

// Service handles catalog queries
type Service struct {
	db *gorm.DB
}

// NewService creates a new product service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// ListRequest represents product list query parameters
type ListRequest struct {
	Page     int    `form:"page,default=1"`
	Limit    int    `form:"limit,default=20"`
	Category string `form:"category"`
	Search   string `form:"search"`
}

// ListResponse represents a page of catalog products
type ListResponse struct {
	Products []Product `json:"products"`
	Total    int64     `json:"total"`
	Page     int       `json:"page"`
	Limit    int       `json:"limit"`
}

// List returns active products, optionally filtered by category or name.
func (s *Service) List(ctx context.Context, req *ListRequest) (*ListResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 20
	}

	query := s.db.WithContext(ctx).Model(&Product{}).Where("is_active = ?", true)
	if req.Category != "" {
		query = query.Where("category = ?", req.Category)
	}
	if req.Search != "" {
		query = query.Where("name ILIKE ?", "%"+req.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	var products []Product
	offset := (req.Page - 1) * req.Limit
	if err := query.Order("created_at desc").Offset(offset).Limit(req.Limit).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve products: %w", err)
	}

	return &ListResponse{
		Products: products,
		Total:    total,
		Page:     req.Page,
		Limit:    req.Limit,
	}, nil
}

// Get retrieves one product by its reference.
func (s *Service) Get(ctx context.Context, ref string) (*Product, error) {
	var product Product
	err := s.db.WithContext(ctx).Where("ref = ? AND is_active = ?", ref, true).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to retrieve product: %w", err)
	}
	return &product, nil
}
