// internal/services/order_service_test.go
package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/phonespot/backend/internal/apperrors"
	"github.com/phonespot/backend/internal/models"
)

func newOrderService(t *testing.T) (*OrderService, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	service := NewOrderService(db, newTestCache(), NewNotificationService(testConfig()))
	return service, db
}

func productStock(t *testing.T, db *gorm.DB, productID string) int {
	t.Helper()
	var product models.Product
	require.NoError(t, db.Where("product_id = ?", productID).First(&product).Error)
	return product.Stock
}

func TestCreateOrderDebitsStock(t *testing.T) {
	service, db := newOrderService(t)
	user := createTestUser(t, db, "buyer", models.RoleCustomer)
	createTestProduct(t, db, "prod-p", 200, 10)

	order, err := service.CreateOrder(user.ID, &CreateOrderInput{
		Items: []OrderLineInput{
			{ProductID: "prod-p", Quantity: 3},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 7, productStock(t, db, "prod-p"))
	assert.Equal(t, models.OrderStatusPending, order.Status)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 200.0, order.Items[0].UnitPrice)
	assert.Equal(t, 600.0, order.Items[0].Subtotal)
}

func TestCreateOrderTotalsInvariant(t *testing.T) {
	service, db := newOrderService(t)
	user := createTestUser(t, db, "buyer", models.RoleCustomer)
	createTestProduct(t, db, "prod-a", 100, 5)
	createTestProduct(t, db, "prod-b", 50, 5)

	order, err := service.CreateOrder(user.ID, &CreateOrderInput{
		Items: []OrderLineInput{
			{ProductID: "prod-a", Quantity: 2},
			{ProductID: "prod-b", Quantity: 1, UnitPrice: 45},
		},
		ShippingCost:   15,
		ShippingMethod: string(models.ShippingDelivery10),
	})
	require.NoError(t, err)

	assert.Equal(t, 245.0, order.Subtotal) // 2*100 + 45
	assert.Equal(t, 15.0, order.Shipping)
	assert.Equal(t, order.Subtotal+order.Shipping-order.Discount, order.Total)
}

func TestCreateOrderInsufficientStockRollsBack(t *testing.T) {
	service, db := newOrderService(t)
	user := createTestUser(t, db, "buyer", models.RoleCustomer)
	createTestProduct(t, db, "prod-a", 100, 5)
	createTestProduct(t, db, "prod-b", 50, 1)

	_, err := service.CreateOrder(user.ID, &CreateOrderInput{
		Items: []OrderLineInput{
			{ProductID: "prod-a", Quantity: 2},
			{ProductID: "prod-b", Quantity: 3},
		},
	})

	var stockErr *apperrors.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "Product prod-b", stockErr.ProductName)
	assert.Equal(t, 1, stockErr.Available)

	// The first line's debit must have been rolled back with the rest.
	assert.Equal(t, 5, productStock(t, db, "prod-a"))
	assert.Equal(t, 1, productStock(t, db, "prod-b"))

	var orderCount int64
	require.NoError(t, db.Model(&models.Order{}).Count(&orderCount).Error)
	assert.Zero(t, orderCount)
}

func TestCreateOrderUnknownProduct(t *testing.T) {
	service, db := newOrderService(t)
	user := createTestUser(t, db, "buyer", models.RoleCustomer)

	_, err := service.CreateOrder(user.ID, &CreateOrderInput{
		Items: []OrderLineInput{{ProductID: "missing", Quantity: 1}},
	})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCreateOrderEmptyItems(t *testing.T) {
	service, db := newOrderService(t)
	user := createTestUser(t, db, "buyer", models.RoleCustomer)

	_, err := service.CreateOrder(user.ID, &CreateOrderInput{})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestCreateOrderVariantStockGates(t *testing.T) {
	service, db := newOrderService(t)
	user := createTestUser(t, db, "buyer", models.RoleCustomer)

	product := createTestProduct(t, db, "prod-v", 300, 10)
	variantStock := 2
	variantPrice := 350.0
	require.NoError(t, db.Create(&models.Variant{
		ProductRef: product.ID,
		Color:      "Black",
		Memory:     "128GB",
		Price:      &variantPrice,
		Stock:      &variantStock,
	}).Error)

	_, err := service.CreateOrder(user.ID, &CreateOrderInput{
		Items: []OrderLineInput{
			{ProductID: "prod-v", Quantity: 5, Color: "Black", Memory: "128GB"},
		},
	})

	var stockErr *apperrors.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 2, stockErr.Available)

	// Within variant stock the resolved price applies.
	order, err := service.CreateOrder(user.ID, &CreateOrderInput{
		Items: []OrderLineInput{
			{ProductID: "prod-v", Quantity: 2, Color: "Black", Memory: "128GB"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 350.0, order.Items[0].UnitPrice)
}

func TestOrderNumberFormatAndSequence(t *testing.T) {
	service, db := newOrderService(t)
	user := createTestUser(t, db, "buyer", models.RoleCustomer)
	createTestProduct(t, db, "prod-p", 100, 100)

	first, err := service.CreateOrder(user.ID, &CreateOrderInput{
		Items: []OrderLineInput{{ProductID: "prod-p", Quantity: 1}},
	})
	require.NoError(t, err)
	second, err := service.CreateOrder(user.ID, &CreateOrderInput{
		Items: []OrderLineInput{{ProductID: "prod-p", Quantity: 1}},
	})
	require.NoError(t, err)

	datePart := time.Now().Format("20060102")
	assert.Equal(t, fmt.Sprintf("ORD-%s-00001", datePart), first.OrderNumber)
	assert.Equal(t, fmt.Sprintf("ORD-%s-00002", datePart), second.OrderNumber)
}

func TestCreateOrderSnapshotsContact(t *testing.T) {
	service, db := newOrderService(t)
	user := createTestUser(t, db, "buyer", models.RoleCustomer)
	createTestProduct(t, db, "prod-p", 100, 10)

	order, err := service.CreateOrder(user.ID, &CreateOrderInput{
		Items: []OrderLineInput{{ProductID: "prod-p", Quantity: 1}},
	})
	require.NoError(t, err)

	assert.Equal(t, user.Email, order.Contact["email"])
	assert.Equal(t, user.Name, order.Contact["name"])
}

func TestTransitionCancelRestoresStock(t *testing.T) {
	service, db := newOrderService(t)
	user := createTestUser(t, db, "buyer", models.RoleCustomer)
	admin := createTestUser(t, db, "admin", models.RoleAdmin)
	createTestProduct(t, db, "prod-p", 100, 10)

	order, err := service.CreateOrder(user.ID, &CreateOrderInput{
		Items: []OrderLineInput{{ProductID: "prod-p", Quantity: 3}},
	})
	require.NoError(t, err)
	require.Equal(t, 7, productStock(t, db, "prod-p"))

	cancelled, err := service.TransitionOrder(admin.ID, admin.Role, order.ID, models.OrderStatusCancelled)
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusCancelled, cancelled.Status)
	assert.Equal(t, 10, productStock(t, db, "prod-p"))
}

func TestTransitionCancelRestoresStockForRetiredProduct(t *testing.T) {
	service, db := newOrderService(t)
	user := createTestUser(t, db, "buyer", models.RoleCustomer)
	admin := createTestUser(t, db, "admin", models.RoleAdmin)
	createTestProduct(t, db, "prod-p", 100, 10)

	order, err := service.CreateOrder(user.ID, &CreateOrderInput{
		Items: []OrderLineInput{{ProductID: "prod-p", Quantity: 3}},
	})
	require.NoError(t, err)
	require.Equal(t, 7, productStock(t, db, "prod-p"))

	// Retiring the product must not strand the debited stock.
	products := NewProductService(db, newTestCache())
	require.NoError(t, products.DeleteProduct(admin.Role, "prod-p"))

	_, err = service.TransitionOrder(admin.ID, admin.Role, order.ID, models.OrderStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, 10, productStock(t, db, "prod-p"))
}

func TestTransitionHappyPath(t *testing.T) {
	service, db := newOrderService(t)
	user := createTestUser(t, db, "buyer", models.RoleCustomer)
	admin := createTestUser(t, db, "admin", models.RoleAdmin)
	createTestProduct(t, db, "prod-p", 100, 10)

	order, err := service.CreateOrder(user.ID, &CreateOrderInput{
		Items: []OrderLineInput{{ProductID: "prod-p", Quantity: 1}},
	})
	require.NoError(t, err)

	for _, next := range []models.OrderStatus{
		models.OrderStatusProcessing,
		models.OrderStatusShipped,
		models.OrderStatusDelivered,
	} {
		updated, err := service.TransitionOrder(admin.ID, admin.Role, order.ID, next)
		require.NoError(t, err)
		assert.Equal(t, next, updated.Status)
	}
}

func TestTransitionShippedCannotCancel(t *testing.T) {
	service, db := newOrderService(t)
	user := createTestUser(t, db, "buyer", models.RoleCustomer)
	admin := createTestUser(t, db, "admin", models.RoleAdmin)
	createTestProduct(t, db, "prod-p", 100, 10)

	order, err := service.CreateOrder(user.ID, &CreateOrderInput{
		Items: []OrderLineInput{{ProductID: "prod-p", Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = service.TransitionOrder(admin.ID, admin.Role, order.ID, models.OrderStatusProcessing)
	require.NoError(t, err)
	_, err = service.TransitionOrder(admin.ID, admin.Role, order.ID, models.OrderStatusShipped)
	require.NoError(t, err)

	_, err = service.TransitionOrder(admin.ID, admin.Role, order.ID, models.OrderStatusCancelled)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Equal(t, 9, productStock(t, db, "prod-p"))
}

func TestTransitionCustomerCanOnlyCancelOwnPending(t *testing.T) {
	service, db := newOrderService(t)
	buyer := createTestUser(t, db, "buyer", models.RoleCustomer)
	other := createTestUser(t, db, "other", models.RoleCustomer)
	createTestProduct(t, db, "prod-p", 100, 10)

	order, err := service.CreateOrder(buyer.ID, &CreateOrderInput{
		Items: []OrderLineInput{{ProductID: "prod-p", Quantity: 1}},
	})
	require.NoError(t, err)

	// A stranger cannot touch the order at all.
	_, err = service.TransitionOrder(other.ID, other.Role, order.ID, models.OrderStatusCancelled)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	// The owner cannot drive fulfillment.
	_, err = service.TransitionOrder(buyer.ID, buyer.Role, order.ID, models.OrderStatusProcessing)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	// The owner can cancel while pending.
	cancelled, err := service.TransitionOrder(buyer.ID, buyer.Role, order.ID, models.OrderStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, cancelled.Status)
	assert.Equal(t, 10, productStock(t, db, "prod-p"))
}

func TestGetOrderVisibility(t *testing.T) {
	service, db := newOrderService(t)
	buyer := createTestUser(t, db, "buyer", models.RoleCustomer)
	other := createTestUser(t, db, "other", models.RoleCustomer)
	admin := createTestUser(t, db, "admin", models.RoleAdmin)
	createTestProduct(t, db, "prod-p", 100, 10)

	order, err := service.CreateOrder(buyer.ID, &CreateOrderInput{
		Items: []OrderLineInput{{ProductID: "prod-p", Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = service.GetOrder(buyer.ID, buyer.Role, order.ID)
	assert.NoError(t, err)
	_, err = service.GetOrder(admin.ID, admin.Role, order.ID)
	assert.NoError(t, err)
	_, err = service.GetOrder(other.ID, other.Role, order.ID)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestListOrders(t *testing.T) {
	service, db := newOrderService(t)
	buyer := createTestUser(t, db, "buyer", models.RoleCustomer)
	admin := createTestUser(t, db, "admin", models.RoleAdmin)
	createTestProduct(t, db, "prod-p", 100, 100)

	for i := 0; i < 3; i++ {
		_, err := service.CreateOrder(buyer.ID, &CreateOrderInput{
			Items: []OrderLineInput{{ProductID: "prod-p", Quantity: 1}},
		})
		require.NoError(t, err)
	}

	mine, err := service.ListOrdersForUser(buyer.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 3)

	all, err := service.ListOrders(admin.Role, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	pending, err := service.ListOrders(admin.Role, models.OrderStatusPending, 2)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	_, err = service.ListOrders(buyer.Role, "", 0)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestStatisticsExcludeCancelledSales(t *testing.T) {
	service, db := newOrderService(t)
	buyer := createTestUser(t, db, "buyer", models.RoleCustomer)
	admin := createTestUser(t, db, "admin", models.RoleAdmin)
	createTestProduct(t, db, "prod-p", 100, 100)

	kept, err := service.CreateOrder(buyer.ID, &CreateOrderInput{
		Items: []OrderLineInput{{ProductID: "prod-p", Quantity: 2}},
	})
	require.NoError(t, err)

	cancelled, err := service.CreateOrder(buyer.ID, &CreateOrderInput{
		Items: []OrderLineInput{{ProductID: "prod-p", Quantity: 5}},
	})
	require.NoError(t, err)
	_, err = service.TransitionOrder(admin.ID, admin.Role, cancelled.ID, models.OrderStatusCancelled)
	require.NoError(t, err)

	stats, err := service.Statistics(admin.Role)
	require.NoError(t, err)

	assert.Equal(t, int64(2), stats.TotalOrders)
	assert.Equal(t, int64(1), stats.PendingOrders)
	assert.Equal(t, int64(1), stats.CancelledOrders)
	assert.Equal(t, kept.Total, stats.GrossSales)

	_, err = service.Statistics(buyer.Role)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}
