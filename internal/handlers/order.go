// internal/handlers/order.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/phonespot/backend/internal/i18n"
	"github.com/phonespot/backend/internal/models"
	"github.com/phonespot/backend/internal/services"
	"github.com/phonespot/backend/internal/utils"
)

type OrderHandler struct {
	orderService *services.OrderService
}

func NewOrderHandler(orderService *services.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

func (h *OrderHandler) Create(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var input services.CreateOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyOrderEmpty), utils.GetValidationErrors(err))
		return
	}

	order, err := h.orderService.CreateOrder(userID, &input)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, i18n.T(lang, i18n.KeyOrderCreated), gin.H{"order": order})
}

func (h *OrderHandler) ListMine(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	orders, err := h.orderService.ListOrdersForUser(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, "", gin.H{"orders": orders})
}

func (h *OrderHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "", nil)
		return
	}

	order, err := h.orderService.GetOrder(userID, currentRole(c), orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, "", gin.H{"order": order})
}

func (h *OrderHandler) ListAll(c *gin.Context) {
	status := models.OrderStatus(c.Query("status"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	orders, err := h.orderService.ListOrders(currentRole(c), status, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, "", gin.H{"orders": orders})
}

type transitionRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *OrderHandler) Transition(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "", nil)
		return
	}

	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyOrderInvalidStatus), nil)
		return
	}

	order, err := h.orderService.TransitionOrder(userID, currentRole(c), orderID, models.OrderStatus(req.Status))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, i18n.T(lang, i18n.KeyOrderStatusUpdated), gin.H{"order": order})
}

func (h *OrderHandler) Statistics(c *gin.Context) {
	stats, err := h.orderService.Statistics(currentRole(c))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, "", gin.H{"statistics": stats})
}
