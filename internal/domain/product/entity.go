// internal/domain/product/entity.go
package product

import (
	"time"

	"gorm.io/gorm"
)

// Product represents one catalog item. Prices are in paisa.
type Product struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Ref         string         `gorm:"uniqueIndex;not null;size:100" json:"ref"`
	Name        string         `gorm:"not null;size:255" json:"name"`
	Slug        string         `gorm:"uniqueIndex;not null;size:255" json:"slug"`
	Description string         `gorm:"type:text" json:"description"`
	Price       int64          `gorm:"not null" json:"price"`
	Category    string         `gorm:"not null;index;size:100" json:"category"`
	ImageURL    string         `gorm:"size:500" json:"image_url"`
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides
func (Product) TableName() string { return "products" }

// GetFormattedPrice returns price as PKR
func (p *Product) GetFormattedPrice() float64 {
	return float64(p.Price) / 100
}
