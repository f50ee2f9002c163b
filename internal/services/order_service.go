// internal/services/order_service.go
package services

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/phonespot/backend/internal/apperrors"
	"github.com/phonespot/backend/internal/cache"
	"github.com/phonespot/backend/internal/models"
)

type OrderService struct {
	db            *gorm.DB
	cache         *cache.CatalogCache
	notifications *NotificationService
}

func NewOrderService(db *gorm.DB, catalogCache *cache.CatalogCache, notifications *NotificationService) *OrderService {
	return &OrderService{
		db:            db,
		cache:         catalogCache,
		notifications: notifications,
	}
}

// OrderLineInput is one requested line: product, quantity and the variant the
// buyer picked. UnitPrice is what the buyer saw; when absent the live price
// applies.
type OrderLineInput struct {
	ProductID string  `json:"product_id" binding:"required"`
	Quantity  int     `json:"quantity" binding:"required,gt=0"`
	UnitPrice float64 `json:"unit_price"`
	Color     string  `json:"color"`
	Memory    string  `json:"memory"`
}

type CreateOrderInput struct {
	Items           []OrderLineInput `json:"items" binding:"required,dive"`
	PaymentMethod   string           `json:"payment_method"`
	ShippingMethod  string           `json:"shipping_method"`
	ShippingCost    float64          `json:"shipping_cost"`
	ShippingAddress string           `json:"shipping_address"`
	Notes           string           `json:"notes"`
}

// CreateOrder turns a cart submission into a persisted order. The whole
// pipeline runs in one transaction: stock is debited with a conditional
// update per line, the order number comes from the shared sequence row, and
// any failure rolls everything back so no partial debit survives. Buyer and
// admin emails go out after commit, off the request path.
func (s *OrderService) CreateOrder(userID uuid.UUID, input *CreateOrderInput) (*models.Order, error) {
	if len(input.Items) == 0 {
		return nil, &apperrors.ValidationError{Message: "order has no items"}
	}

	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperrors.NotFoundError{Resource: "user", ID: userID.String()}
		}
		return nil, err
	}

	shippingMethod := models.ShippingMethod(input.ShippingMethod)
	if shippingMethod == "" {
		shippingMethod = models.ShippingPickup
	}
	paymentMethod := input.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = "pending"
	}
	shippingCost := input.ShippingCost
	if shippingCost < 0 {
		shippingCost = 0
	}

	order := &models.Order{
		UserID:          userID,
		Status:          models.OrderStatusPending,
		PaymentMethod:   paymentMethod,
		ShippingMethod:  shippingMethod,
		ShippingCost:    shippingCost,
		Shipping:        shippingCost,
		ShippingAddress: input.ShippingAddress,
		Contact:         user.ContactSnapshot(),
		Notes:           input.Notes,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, line := range input.Items {
			var product models.Product
			err := tx.Preload("Variants").Where("product_id = ? AND active = ?", line.ProductID, true).
				First(&product).Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return &apperrors.NotFoundError{Resource: "product", ID: line.ProductID}
				}
				return err
			}

			resolution := product.ResolveVariant(line.Color, line.Memory)
			if resolution.Stock < line.Quantity {
				return &apperrors.InsufficientStockError{
					ProductName: product.Name,
					Available:   resolution.Stock,
				}
			}

			// Conditional debit: the WHERE clause re-checks stock at write
			// time, so two concurrent checkouts cannot both take the last
			// units. Zero rows affected means someone else got there first.
			debit := tx.Model(&models.Product{}).
				Where("id = ? AND stock >= ?", product.ID, line.Quantity).
				Update("stock", gorm.Expr("stock - ?", line.Quantity))
			if debit.Error != nil {
				return debit.Error
			}
			if debit.RowsAffected == 0 {
				var current models.Product
				available := 0
				if err := tx.Select("stock").Where("id = ?", product.ID).First(&current).Error; err == nil {
					available = current.Stock
				}
				return &apperrors.InsufficientStockError{
					ProductName: product.Name,
					Available:   available,
				}
			}

			unitPrice := line.UnitPrice
			if unitPrice <= 0 {
				unitPrice = resolution.Price
			}

			order.Items = append(order.Items, models.OrderItem{
				ProductID: product.ProductID,
				Name:      product.Name,
				UnitPrice: unitPrice,
				Quantity:  line.Quantity,
				Subtotal:  unitPrice * float64(line.Quantity),
				Color:     line.Color,
				Memory:    line.Memory,
			})
			order.Subtotal += unitPrice * float64(line.Quantity)
		}

		seq, err := nextOrderSequence(tx)
		if err != nil {
			return err
		}
		order.OrderNumber = models.FormatOrderNumber(time.Now(), seq)

		order.Total = order.Subtotal + order.Shipping - order.Discount
		if order.Total < 0 {
			order.Total = 0
		}

		return tx.Create(order).Error
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate()

	go func(user models.User, order models.Order) {
		if err := s.notifications.SendOrderConfirmation(&user, &order); err != nil {
			logrus.WithError(err).WithField("order", order.OrderNumber).
				Warn("Order confirmation email failed")
		}
		if err := s.notifications.SendAdminOrderAlert(&user, &order); err != nil {
			logrus.WithError(err).WithField("order", order.OrderNumber).
				Warn("Admin order alert failed")
		}
	}(user, *order)

	return order, nil
}

// nextOrderSequence increments the shared counter inside the caller's
// transaction and reads the new value back. The UPDATE serializes concurrent
// checkouts on the counter row.
func nextOrderSequence(tx *gorm.DB) (int64, error) {
	err := tx.Model(&models.OrderSequence{}).
		Where("id = ?", 1).
		Update("value", gorm.Expr("value + 1")).Error
	if err != nil {
		return 0, err
	}

	var seq models.OrderSequence
	if err := tx.First(&seq, "id = ?", 1).Error; err != nil {
		return 0, err
	}
	return seq.Value, nil
}

// TransitionOrder moves an order along the state machine. Administrators
// drive fulfillment; a customer may only cancel their own order while it is
// still pending. Cancellation restores the debited stock in the same
// transaction.
func (s *OrderService) TransitionOrder(actorID uuid.UUID, actorRole models.UserRole, orderID uuid.UUID, next models.OrderStatus) (*models.Order, error) {
	if !next.Valid() {
		return nil, &apperrors.ValidationError{Message: "invalid order status: " + string(next)}
	}

	var order models.Order
	err := s.db.Preload("Items").First(&order, "id = ?", orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperrors.NotFoundError{Resource: "order", ID: orderID.String()}
		}
		return nil, err
	}

	if actorRole != models.RoleAdmin {
		ownCancel := order.UserID == actorID &&
			next == models.OrderStatusCancelled &&
			order.Status == models.OrderStatusPending
		if !ownCancel {
			return nil, apperrors.ErrPermissionDenied
		}
	}

	if !order.Status.CanTransitionTo(next) {
		return nil, &apperrors.ValidationError{
			Message: "cannot transition order from " + string(order.Status) + " to " + string(next),
		}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if next == models.OrderStatusCancelled {
			for _, item := range order.Items {
				err := tx.Model(&models.Product{}).
					Where("product_id = ?", item.ProductID).
					Update("stock", gorm.Expr("stock + ?", item.Quantity)).Error
				if err != nil {
					return err
				}
			}
		}
		return tx.Model(&order).Update("status", next).Error
	})
	if err != nil {
		return nil, err
	}
	order.Status = next

	if next == models.OrderStatusCancelled {
		s.cache.Invalidate()
	}

	return &order, nil
}

// ListOrdersForUser returns the caller's own orders, newest first.
func (s *OrderService) ListOrdersForUser(userID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

// ListOrders returns all orders for the back office, optionally filtered by
// status.
func (s *OrderService) ListOrders(actorRole models.UserRole, status models.OrderStatus, limit int) ([]models.Order, error) {
	if actorRole != models.RoleAdmin {
		return nil, apperrors.ErrPermissionDenied
	}

	query := s.db.Preload("Items").Preload("User").Order("created_at DESC")
	if status != "" {
		if !status.Valid() {
			return nil, &apperrors.ValidationError{Message: "invalid order status: " + string(status)}
		}
		query = query.Where("status = ?", status)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var orders []models.Order
	err := query.Find(&orders).Error
	return orders, err
}

// GetOrder fetches a single order, visible to its owner and administrators.
func (s *OrderService) GetOrder(actorID uuid.UUID, actorRole models.UserRole, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := s.db.Preload("Items").First(&order, "id = ?", orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperrors.NotFoundError{Resource: "order", ID: orderID.String()}
		}
		return nil, err
	}

	if order.UserID != actorID && actorRole != models.RoleAdmin {
		return nil, apperrors.ErrPermissionDenied
	}

	return &order, nil
}

// OrderStatistics is the back-office dashboard summary.
type OrderStatistics struct {
	TotalOrders     int64   `json:"total_orders"`
	PendingOrders   int64   `json:"pending_orders"`
	DeliveredOrders int64   `json:"delivered_orders"`
	CancelledOrders int64   `json:"cancelled_orders"`
	GrossSales      float64 `json:"gross_sales"`
	MonthSales      float64 `json:"month_sales"`
}

// Statistics aggregates order counts and sales. Cancelled orders never count
// toward sales.
func (s *OrderService) Statistics(actorRole models.UserRole) (*OrderStatistics, error) {
	if actorRole != models.RoleAdmin {
		return nil, apperrors.ErrPermissionDenied
	}

	stats := &OrderStatistics{}

	if err := s.db.Model(&models.Order{}).Count(&stats.TotalOrders).Error; err != nil {
		return nil, err
	}
	byStatus := func(status models.OrderStatus, dest *int64) error {
		return s.db.Model(&models.Order{}).Where("status = ?", status).Count(dest).Error
	}
	if err := byStatus(models.OrderStatusPending, &stats.PendingOrders); err != nil {
		return nil, err
	}
	if err := byStatus(models.OrderStatusDelivered, &stats.DeliveredOrders); err != nil {
		return nil, err
	}
	if err := byStatus(models.OrderStatusCancelled, &stats.CancelledOrders); err != nil {
		return nil, err
	}

	err := s.db.Model(&models.Order{}).
		Where("status != ?", models.OrderStatusCancelled).
		Select("COALESCE(SUM(total), 0)").
		Scan(&stats.GrossSales).Error
	if err != nil {
		return nil, err
	}

	monthStart := time.Now().UTC()
	monthStart = time.Date(monthStart.Year(), monthStart.Month(), 1, 0, 0, 0, 0, time.UTC)
	err = s.db.Model(&models.Order{}).
		Where("status != ? AND created_at >= ?", models.OrderStatusCancelled, monthStart).
		Select("COALESCE(SUM(total), 0)").
		Scan(&stats.MonthSales).Error
	if err != nil {
		return nil, err
	}

	return stats, nil
}
