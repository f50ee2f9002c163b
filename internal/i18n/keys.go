// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Authentication
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthTokenExpired       = "auth.token_expired"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthUserExists         = "auth.user_exists"
	KeyAuthUserInactive       = "auth.user_inactive"
	KeyAuthRegisterSuccess    = "auth.register_success"
	KeyAuthLoginSuccess       = "auth.login_success"
	KeyAuthPasswordChanged    = "auth.password_changed"
	KeyAuthPasswordMismatch   = "auth.password_mismatch"

	// Email verification
	KeyVerifyAlreadyVerified = "verify.already_verified"
	KeyVerifyInvalidCode     = "verify.invalid_code"
	KeyVerifyCodeExpired     = "verify.code_expired"
	KeyVerifySuccess         = "verify.success"
	KeyVerifyCodeResent      = "verify.code_resent"

	// Users
	KeyUserNotFound       = "user.not_found"
	KeyUserUpdated        = "user.updated"
	KeyUserDeactivated    = "user.deactivated"
	KeyUserProfileUpdated = "user.profile_updated"

	// Products / catalog
	KeyProductNotFound         = "product.not_found"
	KeyProductCreated          = "product.created"
	KeyProductUpdated          = "product.updated"
	KeyProductDeleted          = "product.deleted"
	KeyProductStockUpdated     = "product.stock_updated"
	KeyProductInvalidStock     = "product.invalid_stock"
	KeyProductOutOfStock       = "product.out_of_stock"
	KeyProductDuplicateVariant = "product.duplicate_variant"

	// Orders
	KeyOrderCreated             = "order.created"
	KeyOrderNotFound            = "order.not_found"
	KeyOrderEmpty               = "order.empty"
	KeyOrderInvalidStatus       = "order.invalid_status"
	KeyOrderForbiddenTransition = "order.forbidden_transition"
	KeyOrderStatusUpdated       = "order.status_updated"
	KeyOrderInsufficientStock   = "order.insufficient_stock"
	KeyOrderViewForbidden       = "order.view_forbidden"

	// Admin / permissions
	KeyAdminAccessDenied = "admin.access_denied"

	// Validation
	KeyValidationInvalid = "validation.invalid"
)
