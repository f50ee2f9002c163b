// internal/handlers/errors.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/phonespot/backend/internal/apperrors"
	"github.com/phonespot/backend/internal/i18n"
	"github.com/phonespot/backend/internal/utils"
)

// respondError maps service errors onto HTTP statuses and localized
// messages. Anything unrecognized becomes a 500 with a generic message so
// internals never leak to the client.
func respondError(c *gin.Context, err error) {
	lang := utils.GetLangFromContext(c)

	var notFound *apperrors.NotFoundError
	if errors.As(err, &notFound) {
		utils.ErrorResponse(c, http.StatusNotFound,
			i18n.T(lang, notFound.Resource+".not_found"), nil)
		return
	}

	var insufficientStock *apperrors.InsufficientStockError
	if errors.As(err, &insufficientStock) {
		utils.ErrorResponse(c, http.StatusConflict,
			i18n.T(lang, i18n.KeyOrderInsufficientStock,
				insufficientStock.ProductName, insufficientStock.Available),
			gin.H{"available": insufficientStock.Available})
		return
	}

	var validation *apperrors.ValidationError
	if errors.As(err, &validation) {
		utils.ErrorResponse(c, http.StatusBadRequest, validation.Message, validation.Details)
		return
	}

	switch {
	case errors.Is(err, apperrors.ErrCodeExpired):
		utils.ErrorResponse(c, http.StatusBadRequest, i18n.T(lang, i18n.KeyVerifyCodeExpired), nil)
	case errors.Is(err, apperrors.ErrAlreadyExists):
		utils.ConflictResponse(c, i18n.T(lang, i18n.KeyAuthUserExists))
	case errors.Is(err, apperrors.ErrAuthentication):
		utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthInvalidCredentials))
	case errors.Is(err, apperrors.ErrPermissionDenied):
		utils.ForbiddenResponse(c, "")
	case errors.Is(err, apperrors.ErrNotFound):
		utils.ErrorResponse(c, http.StatusNotFound, i18n.T(lang, i18n.KeyValidationInvalid, "resource"), nil)
	case errors.Is(err, apperrors.ErrValidation):
		utils.BadRequestResponse(c, "", nil)
	default:
		utils.InternalErrorResponse(c, "")
	}
}
