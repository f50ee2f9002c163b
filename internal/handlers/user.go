// internal/handlers/user.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/phonespot/backend/internal/i18n"
	"github.com/phonespot/backend/internal/services"
	"github.com/phonespot/backend/internal/utils"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) List(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	result, err := h.userService.ListUsers(currentRole(c), params)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SetPaginationHeaders(c, *result)
	utils.SuccessResponse(c, "", result)
}

func (h *UserHandler) Get(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "", nil)
		return
	}

	user, err := h.userService.GetUser(currentRole(c), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, "", gin.H{"user": user})
}

func (h *UserHandler) Update(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "", nil)
		return
	}

	var input services.AdminUserUpdate
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.BadRequestResponse(c, "", utils.GetValidationErrors(err))
		return
	}

	user, err := h.userService.UpdateUser(currentRole(c), userID, &input)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, i18n.T(lang, i18n.KeyUserUpdated), gin.H{"user": user})
}

func (h *UserHandler) Deactivate(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "", nil)
		return
	}

	if err := h.userService.DeactivateUser(currentRole(c), userID); err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, i18n.T(lang, i18n.KeyUserDeactivated), nil)
}

func (h *UserHandler) Statistics(c *gin.Context) {
	stats, err := h.userService.Statistics(currentRole(c))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, "", gin.H{"statistics": stats})
}
