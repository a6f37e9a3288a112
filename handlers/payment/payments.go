package payment

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/xeikhprince488/mansolehubtraining-sub000/model"
	"github.com/xeikhprince488/mansolehubtraining-sub000/services"
	"github.com/xeikhprince488/mansolehubtraining-sub000/services/storage"
	"github.com/xeikhprince488/mansolehubtraining-sub000/utils/cache"
	"github.com/xeikhprince488/mansolehubtraining-sub000/utils/middleware"
	"github.com/xeikhprince488/mansolehubtraining-sub000/utils/pdfvalidation"
	"github.com/xeikhprince488/mansolehubtraining-sub000/utils/response"
	"github.com/xeikhprince488/mansolehubtraining-sub000/utils/validation"
	"gorm.io/gorm"
)

const (
	maxProofSizeMB   = 10
	statusCacheTTL   = 30 * time.Second
	proofURLExpiry   = 15 * time.Minute
	fingerprintField = "X-Device-Fingerprint"
)

var allowedProofTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".pdf":  "application/pdf",
}

// PaymentHandler handles manual payment submission and status checks
type PaymentHandler struct {
	db        *gorm.DB
	payments  *services.PaymentService
	devices   *services.DeviceService
	storage   *storage.Client
	cache     *cache.RedisCache
	validator *validation.Validator
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(db *gorm.DB, payments *services.PaymentService, devices *services.DeviceService, storageClient *storage.Client, redisCache *cache.RedisCache) *PaymentHandler {
	return &PaymentHandler{
		db:        db,
		payments:  payments,
		devices:   devices,
		storage:   storageClient,
		cache:     redisCache,
		validator: validation.NewValidator(),
	}
}

// SubmitPaymentRequest represents the manual payment form fields.
// The transaction proof arrives as a multipart file alongside these.
type SubmitPaymentRequest struct {
	CourseID          uint   `form:"course_id" validate:"required"`
	Email             string `form:"email" validate:"required,email"`
	Name              string `form:"name" validate:"required,min=2,max=255"`
	Phone             string `form:"phone" validate:"required,min=7,max=20"`
	CNIC              string `form:"cnic" validate:"omitempty,max=20"`
	Address           string `form:"address" validate:"omitempty,max=500"`
	City              string `form:"city" validate:"omitempty,max=100"`
	Country           string `form:"country" validate:"omitempty,max=100"`
	Occupation        string `form:"occupation" validate:"omitempty,max=100"`
	Education         string `form:"education" validate:"omitempty,max=100"`
	HeardFrom         string `form:"heard_from" validate:"omitempty,max=255"`
	BankAccountID     uint   `form:"bank_account_id" validate:"omitempty"`
	DeviceFingerprint string `form:"device_fingerprint" validate:"omitempty,fingerprint"`
	DeviceInfo        string `form:"device_info" validate:"omitempty,max=2000"`
}

func (h *PaymentHandler) uploadProof(c *fiber.Ctx, courseID uint, file *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	contentType, ok := allowedProofTypes[ext]
	if !ok {
		return "", fmt.Errorf("unsupported file type %q, expected an image or PDF", ext)
	}
	if file.Size > maxProofSizeMB*1024*1024 {
		return "", fmt.Errorf("file exceeds the %dMB limit", maxProofSizeMB)
	}

	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	if ext == ".pdf" {
		content, err := io.ReadAll(src)
		if err != nil {
			return "", err
		}
		result, err := pdfvalidation.ValidatePDFBytes(content, pdfvalidation.ReceiptLimits)
		if err != nil {
			return "", err
		}
		if !result.Valid {
			return "", errors.New(result.Error)
		}
		// The reader is consumed; upload the validated bytes directly
		return h.storage.UploadTransactionProof(c.Context(), courseID, file.Filename, bytes.NewReader(content), contentType)
	}

	return h.storage.UploadTransactionProof(c.Context(), courseID, file.Filename, src, contentType)
}

// SubmitPayment handles POST /api/v1/manual-payment.
// Accepts a multipart form with buyer details and a transaction proof file.
func (h *PaymentHandler) SubmitPayment(c *fiber.Ctx) error {
	// Proof storage is optional at boot; without it submissions cannot be
	// accepted at all, so fail before touching the form.
	if h.storage == nil {
		return response.ServiceUnavailable(c, "Payment submissions are temporarily unavailable, please try again later")
	}

	var req SubmitPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid form data")
	}
	if req.DeviceFingerprint == "" {
		req.DeviceFingerprint = c.Get(fingerprintField)
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, validation.FormatValidationErrors(err))
	}

	file, err := c.FormFile("transaction_proof")
	if err != nil {
		return response.ValidationError(c, map[string]string{
			"transaction_proof": "A transaction proof image or PDF is required",
		})
	}

	proofKey, err := h.uploadProof(c, req.CourseID, file)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	var bankDetails []byte
	if req.BankAccountID != 0 {
		var account model.BankAccount
		if err := h.db.First(&account, req.BankAccountID).Error; err == nil {
			bankDetails, _ = json.Marshal(fiber.Map{
				"bank_account_id": account.ID,
				"bank_name":       account.BankName,
				"account_number":  account.AccountNumber,
			})
		}
	}

	var deviceInfo []byte
	if req.DeviceInfo != "" && json.Valid([]byte(req.DeviceInfo)) {
		deviceInfo = []byte(req.DeviceInfo)
	}

	request, err := h.payments.Submit(services.SubmitInput{
		CourseID:          req.CourseID,
		Email:             req.Email,
		Name:              validation.SanitizeString(req.Name),
		Phone:             validation.SanitizeString(req.Phone),
		CNIC:              validation.SanitizeString(req.CNIC),
		Address:           validation.SanitizeString(req.Address),
		City:              validation.SanitizeString(req.City),
		Country:           validation.SanitizeString(req.Country),
		Occupation:        validation.SanitizeString(req.Occupation),
		Education:         validation.SanitizeString(req.Education),
		HeardFrom:         validation.SanitizeString(req.HeardFrom),
		TransactionImage:  proofKey,
		BankDetails:       bankDetails,
		DeviceFingerprint: req.DeviceFingerprint,
		DeviceInfo:        deviceInfo,
	})
	if err != nil {
		return h.mapSubmitError(c, err)
	}

	h.invalidateStatusCache(c, request.Email, request.CourseID)

	return response.Created(c, fiber.Map{
		"request_id":   request.RequestID,
		"status":       request.Status,
		"submitted_at": request.CreatedAt,
		"message":      "Your payment is under review. You will receive an email once it is approved.",
	})
}

func (h *PaymentHandler) mapSubmitError(c *fiber.Ctx, err error) error {
	var alreadyPurchased *services.AlreadyPurchasedError
	if errors.As(err, &alreadyPurchased) {
		return response.ConflictWithCode(c, "ALREADY_PURCHASED",
			"You already own this course", fiber.Map{
				"redirect_url": fmt.Sprintf("/courses/%d", alreadyPurchased.CourseID),
			})
	}
	var pending *services.PendingRequestError
	if errors.As(err, &pending) {
		return response.ConflictWithCode(c, "PENDING_APPROVAL",
			"A payment request for this course is already awaiting approval", fiber.Map{
				"request_id":   pending.RequestID,
				"submitted_at": pending.SubmittedAt,
			})
	}
	if errors.Is(err, services.ErrCourseNotAvailable) {
		return response.NotFound(c, "Course not found or not available for purchase")
	}
	return response.InternalServerError(c, "Failed to submit payment request")
}

// PurchaseSummary is the sanitized purchase payload exposed on status checks.
// Audit fields (IP, user agent, bound fingerprint) stay server-side.
type PurchaseSummary struct {
	ID             uint      `json:"id"`
	CourseID       uint      `json:"course_id"`
	IsDeviceLocked bool      `json:"is_device_locked"`
	PurchasedAt    time.Time `json:"purchased_at"`
}

// PurchaseStatusResponse is the combined purchase and device verdict
type PurchaseStatusResponse struct {
	HasPurchase bool             `json:"has_purchase"`
	HasAccess   bool             `json:"has_access"`
	IsFirstTime bool             `json:"is_first_time,omitempty"`
	Reason      string           `json:"reason,omitempty"`
	Purchase    *PurchaseSummary `json:"purchase,omitempty"`
	Pending     bool             `json:"pending"`
	RequestID   string           `json:"request_id,omitempty"`
	SubmittedAt *time.Time       `json:"submitted_at,omitempty"`
}

// purchaseStatus folds a purchase and its device verdict into the client
// payload. Owning a purchase and being allowed on this device are separate
// facts: a holder polling from a denied device still sees has_purchase true.
func purchaseStatus(purchase *model.Purchase, decision services.AccessDecision) PurchaseStatusResponse {
	return PurchaseStatusResponse{
		HasPurchase: true,
		HasAccess:   decision.Allowed,
		IsFirstTime: decision.IsFirstTime,
		Reason:      decision.Reason,
		Purchase: &PurchaseSummary{
			ID:             purchase.ID,
			CourseID:       purchase.CourseID,
			IsDeviceLocked: purchase.IsDeviceLocked,
			PurchasedAt:    purchase.CreatedAt,
		},
	}
}

func statusCacheKey(email string, courseID uint, fingerprint string) string {
	return fmt.Sprintf("purchase_status:%s:%d:%s", email, courseID, fingerprint)
}

func (h *PaymentHandler) invalidateStatusCache(c *fiber.Ctx, email string, courseID uint) {
	if h.cache == nil {
		return
	}
	// Only the fingerprint-less key is addressable; fingerprinted entries
	// expire on their own short TTL.
	h.cache.Delete(c.Context(), statusCacheKey(email, courseID, ""))
}

// GetPurchaseStatus handles GET /api/v1/purchase-status.
// A denied device is a normal payload here, never an HTTP error.
func (h *PaymentHandler) GetPurchaseStatus(c *fiber.Ctx) error {
	email := strings.ToLower(strings.TrimSpace(c.Query("email")))
	if email == "" {
		if authedEmail, ok := middleware.GetUserEmail(c); ok {
			email = authedEmail
		}
	}
	courseID, err := strconv.ParseUint(c.Query("course_id"), 10, 32)
	if err != nil || courseID == 0 {
		return response.BadRequest(c, "A valid course_id query parameter is required")
	}
	if !validation.ValidateEmail(email) {
		return response.BadRequest(c, "A valid email is required")
	}

	fingerprint := c.Get(fingerprintField)
	cacheKey := statusCacheKey(email, uint(courseID), fingerprint)

	if h.cache != nil {
		var cached PurchaseStatusResponse
		if err := h.cache.GetJSON(c.Context(), cacheKey, &cached); err == nil {
			return response.Success(c, cached)
		}
	}

	status := PurchaseStatusResponse{}

	purchase, err := h.payments.FindPurchase(email, uint(courseID))
	if err != nil {
		return response.InternalServerError(c, "Failed to check purchase status")
	}

	if purchase != nil {
		decision, err := h.devices.Evaluate(purchase, fingerprint)
		if err != nil {
			return response.InternalServerError(c, "Failed to verify device access")
		}
		status = purchaseStatus(purchase, decision)
	} else {
		var pendingReq model.PaymentRequest
		err = h.db.Where("course_id = ? AND email = ? AND status = ?",
			uint(courseID), email, model.PaymentStatusPending).First(&pendingReq).Error
		if err == nil {
			status.Pending = true
			status.RequestID = pendingReq.RequestID
			submittedAt := pendingReq.CreatedAt
			status.SubmittedAt = &submittedAt
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return response.InternalServerError(c, "Failed to check purchase status")
		}
		status.Reason = services.ReasonNotPurchased
	}

	if h.cache != nil {
		h.cache.SetJSON(c.Context(), cacheKey, status, statusCacheTTL)
	}

	return response.Success(c, status)
}

// GetRequestStatus handles GET /api/v1/payment-requests/:requestId/status.
// Lets a buyer poll their submission by its public correlation id.
func (h *PaymentHandler) GetRequestStatus(c *fiber.Ctx) error {
	requestID := c.Params("requestId")
	if requestID == "" {
		return response.BadRequest(c, "requestId is required")
	}

	request, err := h.payments.GetByRequestID(requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Payment request not found")
		}
		return response.InternalServerError(c, "Failed to load payment request")
	}

	payload := fiber.Map{
		"request_id":   request.RequestID,
		"status":       request.Status,
		"course_id":    request.CourseID,
		"submitted_at": request.CreatedAt,
	}
	if request.Status == model.PaymentStatusRejected && request.RejectionReason != "" {
		payload["rejection_reason"] = request.RejectionReason
	}
	return response.Success(c, payload)
}
