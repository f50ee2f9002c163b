// internal/handlers/product.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/phonespot/backend/internal/i18n"
	"github.com/phonespot/backend/internal/models"
	"github.com/phonespot/backend/internal/services"
	"github.com/phonespot/backend/internal/utils"
)

type ProductHandler struct {
	productService *services.ProductService
}

func NewProductHandler(productService *services.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

func (h *ProductHandler) List(c *gin.Context) {
	var filter services.ListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		utils.BadRequestResponse(c, "", nil)
		return
	}

	// Only the back office sees inactive products.
	if all, _ := strconv.ParseBool(c.Query("include_inactive")); all {
		if role, _ := utils.GetUserRoleFromContext(c); role == string(models.RoleAdmin) {
			filter.IncludeAll = true
		}
	}

	result, err := h.productService.ListProducts(filter)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, "", result)
}

func (h *ProductHandler) Get(c *gin.Context) {
	product, err := h.productService.GetProduct(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, "", gin.H{"product": product})
}

func (h *ProductHandler) Create(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var input services.ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.BadRequestResponse(c, "", utils.GetValidationErrors(err))
		return
	}

	product, err := h.productService.CreateProduct(currentRole(c), &input)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, i18n.T(lang, i18n.KeyProductCreated), gin.H{"product": product})
}

func (h *ProductHandler) Update(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var input services.ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.BadRequestResponse(c, "", utils.GetValidationErrors(err))
		return
	}

	product, err := h.productService.UpdateProduct(currentRole(c), c.Param("id"), &input)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, i18n.T(lang, i18n.KeyProductUpdated), gin.H{"product": product})
}

type setStockRequest struct {
	Stock *int `json:"stock" binding:"required"`
}

func (h *ProductHandler) SetStock(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req setStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyProductInvalidStock), nil)
		return
	}

	product, err := h.productService.SetStock(currentRole(c), c.Param("id"), *req.Stock)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, i18n.T(lang, i18n.KeyProductStockUpdated), gin.H{"product": product})
}

func (h *ProductHandler) Delete(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	if err := h.productService.DeleteProduct(currentRole(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, i18n.T(lang, i18n.KeyProductDeleted), nil)
}

func currentRole(c *gin.Context) models.UserRole {
	role, _ := utils.GetUserRoleFromContext(c)
	return models.UserRole(role)
}
