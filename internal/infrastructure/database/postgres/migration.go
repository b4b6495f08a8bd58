// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/your-org/jewelry-backend/internal/domain/order"
	"github.com/your-org/jewelry-backend/internal/domain/product"
)

// Migration handles database migrations
type Migration struct {
	db *gorm.DB
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB) *Migration {
	return &Migration{
		db: db,
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	log.Println("🔄 Running database auto-migrations...")

	// Models in dependency order
	models := []interface{}{
		&product.Product{},
		&order.Order{},
		&order.OrderItem{},
	}

	for _, model := range models {
		log.Printf("Migrating model: %T", model)
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	log.Println("✅ Database auto-migrations completed successfully")
	return nil
}

// CreateIndexes creates additional indexes for better performance
func (m *Migration) CreateIndexes() error {
	log.Println("🔄 Creating additional database indexes...")

	indexes := []string{
		// Product indexes
		"CREATE INDEX IF NOT EXISTS idx_products_category_active ON products(category, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at DESC)",

		// Order indexes
		"CREATE INDEX IF NOT EXISTS idx_orders_session_status ON orders(session_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_orders_payment_status ON orders(payment_status)",
		"CREATE INDEX IF NOT EXISTS idx_orders_status_created ON orders(status, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_orders_transaction_id ON orders(transaction_id)",

		// Order items indexes
		"CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id)",
		"CREATE INDEX IF NOT EXISTS idx_order_items_product_ref ON order_items(product_ref)",
	}

	successCount := 0
	failCount := 0

	for _, indexSQL := range indexes {
		if err := m.db.Exec(indexSQL).Error; err != nil {
			log.Printf("⚠️ Failed to create index: %v", err)
			failCount++
		} else {
			successCount++
		}
	}

	log.Printf("✅ Created %d indexes successfully (%d failed)", successCount, failCount)
	return nil
}

// SeedInitialData seeds a starter catalog for development environments
func (m *Migration) SeedInitialData() error {
	var count int64
	if err := m.db.Model(&product.Product{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to inspect catalog: %w", err)
	}
	if count > 0 {
		return nil // already seeded
	}

	log.Println("🔄 Seeding starter catalog...")

	products := []product.Product{
		{Ref: "RING-GOLD-001", Name: "Classic Gold Band", Slug: "classic-gold-band", Category: "rings", Price: 1250000, IsActive: true},
		{Ref: "RING-SILVER-002", Name: "Silver Solitaire Ring", Slug: "silver-solitaire-ring", Category: "rings", Price: 450000, IsActive: true},
		{Ref: "EAR-PEARL-001", Name: "Pearl Drop Earrings", Slug: "pearl-drop-earrings", Category: "earrings", Price: 320000, IsActive: true},
		{Ref: "NECK-GOLD-001", Name: "Gold Chain Necklace", Slug: "gold-chain-necklace", Category: "necklaces", Price: 890000, IsActive: true},
		{Ref: "BRC-SILVER-001", Name: "Silver Charm Bracelet", Slug: "silver-charm-bracelet", Category: "bracelets", Price: 275000, IsActive: true},
	}

	if err := m.db.Create(&products).Error; err != nil {
		return fmt.Errorf("failed to seed catalog: %w", err)
	}

	log.Printf("✅ Seeded %d products", len(products))
	return nil
}
