// internal/services/service_test.go
package services

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/phonespot/backend/internal/cache"
	"github.com/phonespot/backend/internal/config"
	"github.com/phonespot/backend/internal/models"
)

// setupTestDB opens a fresh in-memory database with the full schema and the
// order-number counter seeded.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Variant{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderSequence{},
	))
	require.NoError(t, db.Create(&models.OrderSequence{ID: 1, Value: 0}).Error)

	return db
}

func testConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		JWT: config.JWTConfig{
			SecretKey:      "test-secret",
			AccessTokenTTL: 24,
		},
		Email: config.EmailConfig{
			FromEmail:  "noreply@phonespot.store",
			FromName:   "PhoneSpot",
			AdminEmail: "admin@phonespot.store",
		},
		Catalog: config.CatalogConfig{CacheTTL: 60},
		I18n:    config.I18nConfig{DefaultLocale: "es"},
	}
}

func newTestCache() *cache.CatalogCache {
	return cache.NewCatalogCache(time.Minute)
}

func createTestUser(t *testing.T, db *gorm.DB, username string, role models.UserRole) *models.User {
	t.Helper()

	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Name:     "Test " + username,
		Phone:    "555-0100",
		Address:  "123 Main St",
		Role:     role,
		Active:   true,
		Verified: true,
	}
	require.NoError(t, user.SetPassword("secret123"))
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestProduct(t *testing.T, db *gorm.DB, productID string, price float64, stock int) *models.Product {
	t.Helper()

	product := &models.Product{
		ProductID: productID,
		Name:      "Product " + productID,
		Category:  models.CategoryPhones,
		Brand:     "Acme",
		Condition: models.ConditionNew,
		Price:     price,
		Stock:     stock,
		Active:    true,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}
