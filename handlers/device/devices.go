package device

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/xeikhprince488/mansolehubtraining-sub000/model"
	"github.com/xeikhprince488/mansolehubtraining-sub000/services"
	"github.com/xeikhprince488/mansolehubtraining-sub000/utils/middleware"
	"github.com/xeikhprince488/mansolehubtraining-sub000/utils/response"
	"github.com/xeikhprince488/mansolehubtraining-sub000/utils/validation"
	"gorm.io/gorm"
)

// DeviceHandler handles device registration and the instructor-side allow list
type DeviceHandler struct {
	db        *gorm.DB
	devices   *services.DeviceService
	payments  *services.PaymentService
	validator *validation.Validator
}

// NewDeviceHandler creates a new device handler
func NewDeviceHandler(db *gorm.DB, devices *services.DeviceService, payments *services.PaymentService) *DeviceHandler {
	return &DeviceHandler{
		db:        db,
		devices:   devices,
		payments:  payments,
		validator: validation.NewValidator(),
	}
}

// RegisterDeviceRequest represents the device registration body.
// Email is only consulted for account-less buyers; a logged-in caller's
// token identity always wins.
type RegisterDeviceRequest struct {
	CourseID    uint              `json:"course_id" validate:"required"`
	Email       string            `json:"email" validate:"omitempty,email"`
	Fingerprint string            `json:"fingerprint" validate:"required,fingerprint"`
	DeviceInfo  *model.DeviceInfo `json:"device_info"`
}

// resolveIdentity picks the email the registration binds against. The
// authenticated identity takes precedence so a body email cannot claim
// someone else's purchase; the body field covers buyers without accounts.
func resolveIdentity(authedEmail string, authed bool, bodyEmail string) string {
	if authed && authedEmail != "" {
		return strings.ToLower(strings.TrimSpace(authedEmail))
	}
	return strings.ToLower(strings.TrimSpace(bodyEmail))
}

// RegisterDevice handles POST /api/v1/device/register.
// Binds the first device to the purchase; repeat calls log access. Clients
// call this on every gated content load, so it must stay cheap and idempotent.
func (h *DeviceHandler) RegisterDevice(c *fiber.Ctx) error {
	var req RegisterDeviceRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, validation.FormatValidationErrors(err))
	}

	authedEmail, authed := middleware.GetUserEmail(c)
	email := resolveIdentity(authedEmail, authed, req.Email)
	if !validation.ValidateEmail(email) {
		return response.ValidationError(c, map[string]string{
			"email": "An email is required when not logged in",
		})
	}

	purchase, err := h.payments.FindPurchase(email, req.CourseID)
	if err != nil {
		return response.InternalServerError(c, "Failed to look up purchase")
	}
	if purchase == nil {
		return response.NotFound(c, "No purchase found for this course and email")
	}

	decision, err := h.devices.Evaluate(purchase, req.Fingerprint)
	if err != nil {
		return response.InternalServerError(c, "Failed to verify device")
	}

	if !decision.Allowed {
		// Denial is a normal outcome the client must handle, not an error
		return response.Success(c, decision)
	}

	if err := h.devices.Register(purchase, req.Fingerprint, c.IP(), c.Get(fiber.HeaderUserAgent), req.DeviceInfo); err != nil {
		return response.InternalServerError(c, "Failed to register device")
	}

	return response.Success(c, decision)
}

// purchaseForInstructor loads a purchase only when the caller owns the course
// behind it. Mirrors the payment request scoping: non-owners see not-found.
func (h *DeviceHandler) purchaseForInstructor(c *fiber.Ctx, purchaseID uint) (*model.Purchase, error) {
	user, ok := middleware.GetUser(c)
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}

	var purchase model.Purchase
	query := h.db.Joins("JOIN courses ON courses.id = purchases.course_id")
	if user.Role != model.RoleAdmin {
		query = query.Where("courses.instructor_id = ?", user.ID)
	}
	err := query.Where("purchases.id = ?", purchaseID).First(&purchase).Error
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

// ListDevices handles GET /api/v1/instructor/purchases/:purchaseId/devices
func (h *DeviceHandler) ListDevices(c *fiber.Ctx) error {
	purchaseID, err := strconv.ParseUint(c.Params("purchaseId"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid purchase id")
	}

	purchase, err := h.purchaseForInstructor(c, uint(purchaseID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Purchase not found")
		}
		return response.InternalServerError(c, "Failed to load purchase")
	}

	devices, err := h.devices.ListDevices(purchase.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to load devices")
	}

	return response.Success(c, fiber.Map{
		"purchase_id":       purchase.ID,
		"bound_fingerprint": purchase.DeviceFingerprint,
		"is_device_locked":  purchase.IsDeviceLocked,
		"devices":           devices,
	})
}

// BlockDeviceRequest identifies the allow-list entry to flip
type BlockDeviceRequest struct {
	Fingerprint string `json:"fingerprint" validate:"required,fingerprint"`
}

func (h *DeviceHandler) setDeviceBlocked(c *fiber.Ctx, blocked bool) error {
	purchaseID, err := strconv.ParseUint(c.Params("purchaseId"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid purchase id")
	}

	var req BlockDeviceRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, validation.FormatValidationErrors(err))
	}

	purchase, err := h.purchaseForInstructor(c, uint(purchaseID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Purchase not found")
		}
		return response.InternalServerError(c, "Failed to load purchase")
	}

	if err := h.devices.SetBlocked(purchase.ID, req.Fingerprint, blocked); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Device not found for this purchase")
		}
		return response.InternalServerError(c, "Failed to update device")
	}

	message := "Device unblocked"
	if blocked {
		message = "Device blocked"
	}
	return response.SuccessWithMessage(c, message, nil)
}

// BlockDevice handles POST /api/v1/instructor/purchases/:purchaseId/devices/block
func (h *DeviceHandler) BlockDevice(c *fiber.Ctx) error {
	return h.setDeviceBlocked(c, true)
}

// UnblockDevice handles POST /api/v1/instructor/purchases/:purchaseId/devices/unblock
func (h *DeviceHandler) UnblockDevice(c *fiber.Ctx) error {
	return h.setDeviceBlocked(c, false)
}

// SetDeviceLockRequest toggles enforcement for one purchase
type SetDeviceLockRequest struct {
	Enabled bool `json:"enabled"`
}

// SetDeviceLock handles PUT /api/v1/instructor/purchases/:purchaseId/device-lock.
// Disabling the lock lets the student watch from any device.
func (h *DeviceHandler) SetDeviceLock(c *fiber.Ctx) error {
	purchaseID, err := strconv.ParseUint(c.Params("purchaseId"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid purchase id")
	}

	var req SetDeviceLockRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	purchase, err := h.purchaseForInstructor(c, uint(purchaseID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Purchase not found")
		}
		return response.InternalServerError(c, "Failed to load purchase")
	}

	if err := h.db.Model(purchase).Update("is_device_locked", req.Enabled).Error; err != nil {
		return response.InternalServerError(c, "Failed to update device lock")
	}

	message := "Device lock disabled for this purchase"
	if req.Enabled {
		message = "Device lock enabled for this purchase"
	}
	return response.SuccessWithMessage(c, message, nil)
}

// ResetDeviceBinding handles POST /api/v1/instructor/purchases/:purchaseId/devices/reset.
// Clears the bound fingerprint so the student's next device becomes primary.
func (h *DeviceHandler) ResetDeviceBinding(c *fiber.Ctx) error {
	purchaseID, err := strconv.ParseUint(c.Params("purchaseId"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid purchase id")
	}

	purchase, err := h.purchaseForInstructor(c, uint(purchaseID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Purchase not found")
		}
		return response.InternalServerError(c, "Failed to load purchase")
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(purchase).Update("device_fingerprint", nil).Error; err != nil {
			return err
		}
		// Old allow-list entries go with the binding
		return tx.Where("purchase_id = ?", purchase.ID).Delete(&model.DeviceAccess{}).Error
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to reset device binding")
	}

	return response.SuccessWithMessage(c, "Device binding reset, the next device used will be bound", nil)
}
