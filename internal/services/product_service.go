// internal/services/product_service.go
package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/phonespot/backend/internal/apperrors"
	"github.com/phonespot/backend/internal/cache"
	"github.com/phonespot/backend/internal/models"
	"github.com/phonespot/backend/internal/utils"
)

type ProductService struct {
	db    *gorm.DB
	cache *cache.CatalogCache
}

func NewProductService(db *gorm.DB, catalogCache *cache.CatalogCache) *ProductService {
	return &ProductService{
		db:    db,
		cache: catalogCache,
	}
}

// ListFilter narrows the catalog listing. Text filters are case-insensitive
// substring matches. ActiveOnly defaults to true through ListProducts.
type ListFilter struct {
	Category   string `form:"category"`
	Brand      string `form:"brand"`
	Memory     string `form:"memory"`
	Condition  string `form:"condition"`
	Search     string `form:"search"`
	OnSale     *bool  `form:"on_sale"`
	IncludeAll bool   `form:"-"`
}

// ListResult is a catalog page plus the stock breakdown the storefront shows
// in its filter chips.
type ListResult struct {
	Products        []models.Product `json:"products"`
	Count           int              `json:"count"`
	InStockCount    int              `json:"in_stock_count"`
	OutOfStockCount int              `json:"out_of_stock_count"`
}

// ListProducts returns the catalog for a filter combination, in-stock items
// first, newest first within each group. Results are served from the catalog
// cache; any write to the catalog invalidates every cached combination at
// once.
func (s *ProductService) ListProducts(filter ListFilter) (*ListResult, error) {
	cacheKey := filter.cacheKey()
	if cached, found := s.cache.Get(cacheKey); found {
		if result, ok := cached.(*ListResult); ok {
			return result, nil
		}
	}

	query := s.db.Model(&models.Product{}).Preload("Variants")

	if !filter.IncludeAll {
		query = query.Where("active = ?", true)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Brand != "" {
		query = query.Where("LOWER(brand) LIKE ?", "%"+strings.ToLower(filter.Brand)+"%")
	}
	if filter.Memory != "" {
		query = query.Where("LOWER(memory) LIKE ?", "%"+strings.ToLower(filter.Memory)+"%")
	}
	if filter.Condition != "" {
		query = query.Where("condition = ?", filter.Condition)
	}
	if filter.OnSale != nil {
		query = query.Where("on_sale = ?", *filter.OnSale)
	}
	if filter.Search != "" {
		term := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", term, term)
	}

	var products []models.Product
	if err := query.Order("stock DESC").Order("created_at DESC").Find(&products).Error; err != nil {
		return nil, err
	}

	result := &ListResult{
		Products: products,
		Count:    len(products),
	}
	for i := range products {
		if products[i].Stock > 0 {
			result.InStockCount++
		} else {
			result.OutOfStockCount++
		}
	}

	s.cache.Set(cacheKey, result)
	return result, nil
}

// GetProduct fetches a product by its stable public id, variants included.
func (s *ProductService) GetProduct(productID string) (*models.Product, error) {
	cacheKey := "product|" + productID
	if cached, found := s.cache.Get(cacheKey); found {
		if product, ok := cached.(*models.Product); ok {
			return product, nil
		}
	}

	var product models.Product
	err := s.db.Preload("Variants").Where("product_id = ?", productID).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperrors.NotFoundError{Resource: "product", ID: productID}
		}
		return nil, err
	}

	s.cache.Set(cacheKey, &product)
	return &product, nil
}

type VariantInput struct {
	Color   string   `json:"color"`
	Memory  string   `json:"memory"`
	Battery string   `json:"battery"`
	Price   *float64 `json:"price"`
	Stock   *int     `json:"stock"`
}

type ProductInput struct {
	ProductID   string         `json:"product_id"`
	Name        string         `json:"name" binding:"required"`
	Category    string         `json:"category" binding:"required"`
	Brand       string         `json:"brand"`
	Memory      string         `json:"memory"`
	Condition   string         `json:"condition"`
	Battery     string         `json:"battery"`
	Description string         `json:"description"`
	Image       string         `json:"image"`
	Price       float64        `json:"price" binding:"required,gt=0"`
	PriorPrice  float64        `json:"prior_price"`
	Stock       int            `json:"stock"`
	IsNew       bool           `json:"is_new"`
	OnSale      bool           `json:"on_sale"`
	Colors      []string       `json:"colors"`
	Memories    []string       `json:"memories"`
	Variants    []VariantInput `json:"variants"`
}

// CreateProduct registers a new catalog entry. Only administrators may write
// the catalog; variant (color, memory) pairs must be unique within a product.
func (s *ProductService) CreateProduct(actorRole models.UserRole, input *ProductInput) (*models.Product, error) {
	if actorRole != models.RoleAdmin {
		return nil, apperrors.ErrPermissionDenied
	}

	category := models.ProductCategory(input.Category)
	if !category.Valid() {
		return nil, &apperrors.ValidationError{Message: "invalid category: " + input.Category}
	}
	if err := validateVariants(input.Variants); err != nil {
		return nil, err
	}

	productID := strings.TrimSpace(input.ProductID)
	if productID == "" {
		productID = generateProductID()
	}

	condition := models.ProductCondition(input.Condition)
	if condition == "" {
		condition = models.ConditionNew
	}

	product := &models.Product{
		ProductID:   productID,
		Name:        input.Name,
		Category:    category,
		Brand:       input.Brand,
		Memory:      input.Memory,
		Condition:   condition,
		Battery:     input.Battery,
		Description: input.Description,
		Image:       input.Image,
		Price:       input.Price,
		PriorPrice:  input.PriorPrice,
		Stock:       input.Stock,
		IsNew:       input.IsNew,
		OnSale:      input.OnSale,
		Active:      true,
		Colors:      input.Colors,
		Memories:    input.Memories,
		Variants:    variantsFromInput(input.Variants),
	}

	if err := s.db.Create(product).Error; err != nil {
		return nil, err
	}

	s.cache.Invalidate()
	return product, nil
}

// UpdateProduct replaces the mutable fields of a product and its variant
// table.
func (s *ProductService) UpdateProduct(actorRole models.UserRole, productID string, input *ProductInput) (*models.Product, error) {
	if actorRole != models.RoleAdmin {
		return nil, apperrors.ErrPermissionDenied
	}
	if err := validateVariants(input.Variants); err != nil {
		return nil, err
	}

	var product models.Product
	err := s.db.Preload("Variants").Where("product_id = ?", productID).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperrors.NotFoundError{Resource: "product", ID: productID}
		}
		return nil, err
	}

	if input.Category != "" {
		category := models.ProductCategory(input.Category)
		if !category.Valid() {
			return nil, &apperrors.ValidationError{Message: "invalid category: " + input.Category}
		}
		product.Category = category
	}
	if input.Name != "" {
		product.Name = input.Name
	}
	if input.Condition != "" {
		product.Condition = models.ProductCondition(input.Condition)
	}
	product.Brand = input.Brand
	product.Memory = input.Memory
	product.Battery = input.Battery
	product.Description = input.Description
	product.Image = input.Image
	if input.Price > 0 {
		product.Price = input.Price
	}
	product.PriorPrice = input.PriorPrice
	product.Stock = input.Stock
	product.IsNew = input.IsNew
	product.OnSale = input.OnSale
	product.Colors = input.Colors
	product.Memories = input.Memories

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&product).Error; err != nil {
			return err
		}
		// Replace the variant table wholesale; variants are cheap rows and
		// partial patching of (color, memory) keys invites duplicates.
		if err := tx.Where("product_ref = ?", product.ID).Delete(&models.Variant{}).Error; err != nil {
			return err
		}
		variants := variantsFromInput(input.Variants)
		for i := range variants {
			variants[i].ProductRef = product.ID
		}
		if len(variants) > 0 {
			if err := tx.Create(&variants).Error; err != nil {
				return err
			}
		}
		product.Variants = variants
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate()
	return &product, nil
}

// SetStock adjusts the base stock level directly.
func (s *ProductService) SetStock(actorRole models.UserRole, productID string, stock int) (*models.Product, error) {
	if actorRole != models.RoleAdmin {
		return nil, apperrors.ErrPermissionDenied
	}
	if stock < 0 {
		return nil, &apperrors.ValidationError{Message: "stock must not be negative"}
	}

	var product models.Product
	err := s.db.Where("product_id = ?", productID).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperrors.NotFoundError{Resource: "product", ID: productID}
		}
		return nil, err
	}

	if err := s.db.Model(&product).Update("stock", stock).Error; err != nil {
		return nil, err
	}
	product.Stock = stock

	s.cache.Invalidate()
	return &product, nil
}

// DeleteProduct retires a product from the storefront by flagging it
// inactive. The row stays live: order history keeps resolving, cancelled
// orders still restore its stock, and admin listings can still show it.
func (s *ProductService) DeleteProduct(actorRole models.UserRole, productID string) error {
	if actorRole != models.RoleAdmin {
		return apperrors.ErrPermissionDenied
	}

	result := s.db.Model(&models.Product{}).
		Where("product_id = ?", productID).
		Update("active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return &apperrors.NotFoundError{Resource: "product", ID: productID}
	}

	s.cache.Invalidate()
	return nil
}

func validateVariants(variants []VariantInput) error {
	seen := make(map[string]bool, len(variants))
	for _, v := range variants {
		key := strings.TrimSpace(v.Color) + "|" + strings.TrimSpace(v.Memory)
		if seen[key] {
			return &apperrors.ValidationError{
				Message: fmt.Sprintf("duplicate variant (%s, %s)", v.Color, v.Memory),
			}
		}
		seen[key] = true
	}
	return nil
}

func variantsFromInput(inputs []VariantInput) []models.Variant {
	variants := make([]models.Variant, 0, len(inputs))
	for _, v := range inputs {
		variants = append(variants, models.Variant{
			Color:   strings.TrimSpace(v.Color),
			Memory:  strings.TrimSpace(v.Memory),
			Battery: strings.TrimSpace(v.Battery),
			Price:   v.Price,
			Stock:   v.Stock,
		})
	}
	return variants
}

func generateProductID() string {
	suffix, err := utils.GenerateRandomString(4)
	if err != nil {
		suffix = "0000"
	}
	return fmt.Sprintf("prod-%d-%s", time.Now().UnixMilli(), strings.ToLower(suffix))
}

func (f ListFilter) cacheKey() string {
	onSale := ""
	if f.OnSale != nil {
		onSale = fmt.Sprintf("%t", *f.OnSale)
	}
	return fmt.Sprintf("list|%s|%s|%s|%s|%s|%s|%t",
		f.Category, strings.ToLower(f.Brand), strings.ToLower(f.Memory),
		f.Condition, strings.ToLower(f.Search), onSale, f.IncludeAll)
}
