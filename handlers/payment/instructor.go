package payment

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/xeikhprince488/mansolehubtraining-sub000/model"
	"github.com/xeikhprince488/mansolehubtraining-sub000/services"
	"github.com/xeikhprince488/mansolehubtraining-sub000/utils/middleware"
	"github.com/xeikhprince488/mansolehubtraining-sub000/utils/response"
	"gorm.io/gorm"
)

// scopedRequest loads a payment request only if the caller's user owns the
// course it targets. Non-owners get the same not-found as a bad id.
func (h *PaymentHandler) scopedRequest(c *fiber.Ctx, requestPK uint) (*model.PaymentRequest, error) {
	user, ok := middleware.GetUser(c)
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}

	var request model.PaymentRequest
	query := h.db.Preload("Course").
		Joins("JOIN courses ON courses.id = payment_requests.course_id")
	if user.Role != model.RoleAdmin {
		query = query.Where("courses.instructor_id = ?", user.ID)
	}
	err := query.Where("payment_requests.id = ?", requestPK).First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// ListPaymentRequests handles GET /api/v1/instructor/payment-requests.
// Returns requests for the instructor's own courses with progress summaries.
func (h *PaymentHandler) ListPaymentRequests(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	status := c.Query("status")
	switch status {
	case "", model.PaymentStatusPending, model.PaymentStatusApproved, model.PaymentStatusRejected:
	default:
		return response.BadRequest(c, "status must be pending, approved or rejected")
	}

	requests, err := h.payments.ListForInstructor(user.ID, status)
	if err != nil {
		return response.InternalServerError(c, "Failed to load payment requests")
	}
	return response.Success(c, fiber.Map{
		"requests": requests,
		"count":    len(requests),
	})
}

// GetPaymentRequest handles GET /api/v1/instructor/payment-requests/:id.
// Includes a short-lived presigned URL for the transaction proof.
func (h *PaymentHandler) GetPaymentRequest(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid request id")
	}

	request, err := h.scopedRequest(c, uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Payment request not found")
		}
		return response.InternalServerError(c, "Failed to load payment request")
	}

	payload := fiber.Map{"request": request}
	if h.storage != nil && request.TransactionImage != "" {
		if url, err := h.storage.PresignedURL(request.TransactionImage, proofURLExpiry); err == nil {
			payload["transaction_proof_url"] = url
		}
	}
	return response.Success(c, payload)
}

// ApprovePaymentRequest handles POST /api/v1/instructor/payment-requests/:id/approve
func (h *PaymentHandler) ApprovePaymentRequest(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid request id")
	}

	user, _ := middleware.GetUser(c)

	request, err := h.scopedRequest(c, uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Payment request not found")
		}
		return response.InternalServerError(c, "Failed to load payment request")
	}

	result, err := h.payments.Approve(request.ID, request.CourseID, request.Email, user.Email)
	if err != nil {
		if errors.Is(err, services.ErrNotPending) {
			return response.ConflictWithCode(c, "REQUEST_REJECTED",
				"A rejected request cannot be approved; the student must submit a new one", nil)
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Payment request not found")
		}
		return response.InternalServerError(c, "Failed to approve payment request")
	}

	h.invalidateStatusCache(c, request.Email, request.CourseID)

	message := "Payment approved, course access granted"
	if result.AlreadyHadAccess {
		message = "Payment already approved, the student has access"
	}
	return response.SuccessWithMessage(c, message, fiber.Map{
		"request":            result.Request,
		"purchase_id":        result.Purchase.ID,
		"already_had_access": result.AlreadyHadAccess,
	})
}

// RejectPaymentRequestBody carries the mandatory rejection reason
type RejectPaymentRequestBody struct {
	Reason string `json:"reason" validate:"required,min=3,max=1000"`
}

// RejectPaymentRequest handles POST /api/v1/instructor/payment-requests/:id/reject
func (h *PaymentHandler) RejectPaymentRequest(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid request id")
	}

	var body RejectPaymentRequestBody
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(body); err != nil {
		return response.ValidationError(c, map[string]string{
			"reason": "A rejection reason is required so the student knows what to fix",
		})
	}

	request, err := h.scopedRequest(c, uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Payment request not found")
		}
		return response.InternalServerError(c, "Failed to load payment request")
	}

	rejected, err := h.payments.Reject(request.ID, body.Reason)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyReason):
			return response.BadRequest(c, "A rejection reason is required")
		case errors.Is(err, services.ErrNotPending):
			return response.Conflict(c, "Only pending requests can be rejected")
		case errors.Is(err, gorm.ErrRecordNotFound):
			return response.NotFound(c, "Payment request not found")
		default:
			return response.InternalServerError(c, "Failed to reject payment request")
		}
	}

	h.invalidateStatusCache(c, request.Email, request.CourseID)

	return response.SuccessWithMessage(c, "Payment request rejected", rejected)
}

// pendingSummary is exported through the instructor dashboard endpoint
type pendingSummary struct {
	CourseID    uint      `json:"course_id"`
	CourseTitle string    `json:"course_title"`
	Pending     int64     `json:"pending"`
	Oldest      time.Time `json:"oldest_submitted_at"`
}

// GetPendingSummary handles GET /api/v1/instructor/payment-requests/summary.
// Per-course pending counts for the instructor dashboard badge.
func (h *PaymentHandler) GetPendingSummary(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	var rows []pendingSummary
	err := h.db.Model(&model.PaymentRequest{}).
		Select("payment_requests.course_id, courses.title AS course_title, COUNT(*) AS pending, MIN(payment_requests.created_at) AS oldest").
		Joins("JOIN courses ON courses.id = payment_requests.course_id").
		Where("courses.instructor_id = ? AND payment_requests.status = ?", user.ID, model.PaymentStatusPending).
		Group("payment_requests.course_id, courses.title").
		Scan(&rows).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to load pending summary")
	}

	return response.Success(c, fiber.Map{"courses": rows})
}
