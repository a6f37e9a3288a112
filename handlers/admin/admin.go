package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/xeikhprince488/mansolehubtraining-sub000/model"
	"github.com/xeikhprince488/mansolehubtraining-sub000/utils/auth"
	"github.com/xeikhprince488/mansolehubtraining-sub000/utils/response"
	"github.com/xeikhprince488/mansolehubtraining-sub000/utils/validation"
	"gorm.io/gorm"
)

// AdminHandler handles user administration, bank accounts and settings
type AdminHandler struct {
	db        *gorm.DB
	blacklist *auth.BlacklistService
	validator *validation.Validator
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(db *gorm.DB) *AdminHandler {
	return &AdminHandler{
		db:        db,
		blacklist: auth.NewBlacklistService(db),
		validator: validation.NewValidator(),
	}
}

// ListUsers handles GET /api/v1/admin/users
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "50"))

	query := h.db.Model(&model.User{})
	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(email) LIKE ? OR LOWER(name) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to load users")
	}

	pagination := response.CalculatePagination(page, limit, total)

	var users []model.User
	err := query.Order("created_at DESC").
		Offset((pagination.CurrentPage - 1) * pagination.PerPage).
		Limit(pagination.PerPage).
		Find(&users).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to load users")
	}

	return response.Paginated(c, users, pagination)
}

// SetRoleRequest carries the new role for a user
type SetRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=student instructor admin"`
}

// SetUserRole handles PUT /api/v1/admin/users/:id/role.
// Changing a role invalidates the user's outstanding tokens.
func (h *AdminHandler) SetUserRole(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid user id")
	}

	var req SetRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, validation.FormatValidationErrors(err))
	}

	var user model.User
	if err := h.db.First(&user, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to load user")
	}

	if user.Role == req.Role {
		return response.SuccessWithMessage(c, "Role unchanged", user)
	}

	user.Role = req.Role
	if err := h.db.Save(&user).Error; err != nil {
		return response.InternalServerError(c, "Failed to update role")
	}
	if err := h.blacklist.RevokeAllUserTokens(c.Context(), user.ID); err != nil {
		return response.InternalServerError(c, "Role updated but token invalidation failed")
	}

	return response.SuccessWithMessage(c, "Role updated, user must sign in again", user)
}

// BankAccountRequest represents the bank account create/update body
type BankAccountRequest struct {
	BankName      string `json:"bank_name" validate:"required,min=2,max=120"`
	AccountTitle  string `json:"account_title" validate:"required,min=2,max=255"`
	AccountNumber string `json:"account_number" validate:"required,min=5,max=40"`
	IBAN          string `json:"iban" validate:"omitempty,max=40"`
	IsActive      *bool  `json:"is_active"`
}

// ListBankAccounts handles GET /api/v1/admin/bank-accounts (inactive included)
func (h *AdminHandler) ListBankAccounts(c *fiber.Ctx) error {
	var accounts []model.BankAccount
	if err := h.db.Order("bank_name ASC").Find(&accounts).Error; err != nil {
		return response.InternalServerError(c, "Failed to load bank accounts")
	}
	return response.Success(c, fiber.Map{"accounts": accounts})
}

// CreateBankAccount handles POST /api/v1/admin/bank-accounts
func (h *AdminHandler) CreateBankAccount(c *fiber.Ctx) error {
	var req BankAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, validation.FormatValidationErrors(err))
	}

	account := model.BankAccount{
		BankName:      validation.SanitizeString(req.BankName),
		AccountTitle:  validation.SanitizeString(req.AccountTitle),
		AccountNumber: strings.TrimSpace(req.AccountNumber),
		IBAN:          strings.TrimSpace(req.IBAN),
		IsActive:      true,
	}
	if req.IsActive != nil {
		account.IsActive = *req.IsActive
	}
	if err := h.db.Create(&account).Error; err != nil {
		return response.InternalServerError(c, "Failed to create bank account")
	}
	return response.Created(c, account)
}

// UpdateBankAccount handles PUT /api/v1/admin/bank-accounts/:id
func (h *AdminHandler) UpdateBankAccount(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid bank account id")
	}

	var account model.BankAccount
	if err := h.db.First(&account, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Bank account not found")
		}
		return response.InternalServerError(c, "Failed to load bank account")
	}

	var req BankAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, validation.FormatValidationErrors(err))
	}

	account.BankName = validation.SanitizeString(req.BankName)
	account.AccountTitle = validation.SanitizeString(req.AccountTitle)
	account.AccountNumber = strings.TrimSpace(req.AccountNumber)
	account.IBAN = strings.TrimSpace(req.IBAN)
	if req.IsActive != nil {
		account.IsActive = *req.IsActive
	}

	if err := h.db.Save(&account).Error; err != nil {
		return response.InternalServerError(c, "Failed to update bank account")
	}
	return response.SuccessWithMessage(c, "Bank account updated", account)
}

// DeleteBankAccount handles DELETE /api/v1/admin/bank-accounts/:id.
// Soft delete; historical payment requests keep their snapshot.
func (h *AdminHandler) DeleteBankAccount(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid bank account id")
	}

	res := h.db.Delete(&model.BankAccount{}, uint(id))
	if res.Error != nil {
		return response.InternalServerError(c, "Failed to delete bank account")
	}
	if res.RowsAffected == 0 {
		return response.NotFound(c, "Bank account not found")
	}
	return response.SuccessWithMessage(c, "Bank account deleted", nil)
}

// ListAuditLogs handles GET /api/v1/admin/audit-logs
func (h *AdminHandler) ListAuditLogs(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "50"))

	query := h.db.Model(&model.AdminAuditLog{}).Preload("Admin")
	if action := c.Query("action"); action != "" {
		query = query.Where("action = ?", action)
	}
	if adminID := c.Query("admin_id"); adminID != "" {
		id, err := strconv.ParseUint(adminID, 10, 32)
		if err != nil {
			return response.BadRequest(c, "Invalid admin_id")
		}
		query = query.Where("admin_id = ?", uint(id))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to load audit logs")
	}

	pagination := response.CalculatePagination(page, limit, total)

	var logs []model.AdminAuditLog
	err := query.Order("created_at DESC").
		Offset((pagination.CurrentPage - 1) * pagination.PerPage).
		Limit(pagination.PerPage).
		Find(&logs).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to load audit logs")
	}

	return response.Paginated(c, logs, pagination)
}

// ListSettings handles GET /api/v1/admin/settings
func (h *AdminHandler) ListSettings(c *fiber.Ctx) error {
	var settings []model.AppSetting
	if err := h.db.Order("key ASC").Find(&settings).Error; err != nil {
		return response.InternalServerError(c, "Failed to load settings")
	}
	return response.Success(c, fiber.Map{"settings": settings})
}

// UpdateSettingRequest carries the new value for one setting key
type UpdateSettingRequest struct {
	Value string `json:"value" validate:"required,max=10000"`
}

// UpdateSetting handles PUT /api/v1/admin/settings/:key.
// Only existing keys can be updated; settings are seeded, not invented.
func (h *AdminHandler) UpdateSetting(c *fiber.Ctx) error {
	key := c.Params("key")

	var req UpdateSettingRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, validation.FormatValidationErrors(err))
	}

	var setting model.AppSetting
	if err := h.db.Where("key = ?", key).First(&setting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Setting not found")
		}
		return response.InternalServerError(c, "Failed to load setting")
	}

	setting.Value = req.Value
	if err := h.db.Save(&setting).Error; err != nil {
		return response.InternalServerError(c, "Failed to update setting")
	}
	return response.SuccessWithMessage(c, "Setting updated", setting)
}

// GetPublicSettings handles GET /api/v1/settings (no auth, public keys only)
func (h *AdminHandler) GetPublicSettings(c *fiber.Ctx) error {
	var settings []model.AppSetting
	if err := h.db.Where("is_public = ?", true).Find(&settings).Error; err != nil {
		return response.InternalServerError(c, "Failed to load settings")
	}

	public := make(map[string]string, len(settings))
	for _, setting := range settings {
		public[setting.Key] = setting.Value
	}
	return response.Success(c, public)
}
