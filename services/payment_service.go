package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xeikhprince488/mansolehubtraining-sub000/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	// ErrCourseNotAvailable covers both unknown and unpublished courses so
	// callers cannot probe for drafts
	ErrCourseNotAvailable = errors.New("course not available")
	// ErrNotPending means the request already left the pending state
	ErrNotPending = errors.New("payment request is not pending")
	// ErrEmptyReason rejects a rejection without an explanation
	ErrEmptyReason = errors.New("rejection reason is required")
)

// AlreadyPurchasedError is returned on submit when the applicant already owns
// the course; the client should redirect to content instead of re-submitting
type AlreadyPurchasedError struct {
	CourseID uint
}

func (e *AlreadyPurchasedError) Error() string {
	return fmt.Sprintf("course %d already purchased", e.CourseID)
}

// PendingRequestError is returned on submit when an earlier request is still
// awaiting review; carries the original submission time for the wait UI
type PendingRequestError struct {
	RequestID   string
	SubmittedAt time.Time
}

func (e *PendingRequestError) Error() string {
	return fmt.Sprintf("payment request %s is pending approval", e.RequestID)
}

// PaymentService runs the manual bank-transfer approval workflow
type PaymentService struct {
	db    *gorm.DB
	email *EmailService
}

// NewPaymentService creates a new payment service
func NewPaymentService(db *gorm.DB, email *EmailService) *PaymentService {
	return &PaymentService{db: db, email: email}
}

// SubmitInput carries a validated manual-payment submission
type SubmitInput struct {
	CourseID          uint
	Email             string
	Name              string
	Phone             string
	CNIC              string
	Address           string
	City              string
	Country           string
	Occupation        string
	Education         string
	HeardFrom         string
	TransactionImage  string
	BankDetails       []byte
	DeviceFingerprint string
	DeviceInfo        []byte
}

// Submit persists a new pending payment request.
// Conflicts surface as *AlreadyPurchasedError / *PendingRequestError; the
// confirmation email is fire-and-forget and cannot fail the submission.
func (s *PaymentService) Submit(input SubmitInput) (*model.PaymentRequest, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	var course model.Course
	err := s.db.Where("id = ? AND is_published = ?", input.CourseID, true).First(&course).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotAvailable
		}
		return nil, err
	}

	// Existing purchase wins over everything: tell the client to redirect
	var purchaseCount int64
	err = s.db.Model(&model.Purchase{}).
		Where("customer_email = ? AND course_id = ?", email, course.ID).
		Count(&purchaseCount).Error
	if err != nil {
		return nil, err
	}
	if purchaseCount > 0 {
		return nil, &AlreadyPurchasedError{CourseID: course.ID}
	}

	// One pending request per (email, course). Rejected requests permit
	// resubmission; the partial unique index backs this check under races.
	var pending model.PaymentRequest
	err = s.db.Where("course_id = ? AND email = ? AND status = ?", course.ID, email, model.PaymentStatusPending).
		First(&pending).Error
	if err == nil {
		return nil, &PendingRequestError{RequestID: pending.RequestID, SubmittedAt: pending.CreatedAt}
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	request := model.PaymentRequest{
		RequestID:         uuid.New().String(),
		CourseID:          course.ID,
		Email:             email,
		Name:              input.Name,
		Phone:             input.Phone,
		CNIC:              input.CNIC,
		Address:           input.Address,
		City:              input.City,
		Country:           input.Country,
		Occupation:        input.Occupation,
		Education:         input.Education,
		HeardFrom:         input.HeardFrom,
		TransactionImage:  input.TransactionImage,
		BankDetails:       datatypes.JSON(input.BankDetails),
		Status:            model.PaymentStatusPending,
		DeviceFingerprint: input.DeviceFingerprint,
		DeviceInfo:        datatypes.JSON(input.DeviceInfo),
	}

	if err := s.db.Create(&request).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost the race against a concurrent submission for the same
			// (email, course); report the winner as the pending request.
			if lookupErr := s.db.Where("course_id = ? AND email = ? AND status = ?",
				course.ID, email, model.PaymentStatusPending).First(&pending).Error; lookupErr == nil {
				return nil, &PendingRequestError{RequestID: pending.RequestID, SubmittedAt: pending.CreatedAt}
			}
		}
		return nil, err
	}

	s.email.SendPaymentSubmittedEmail(email, input.Name, course.Title, request.RequestID)

	return &request, nil
}

// ApproveResult reports what approval did
type ApproveResult struct {
	Request          *model.PaymentRequest
	Purchase         *model.Purchase
	AlreadyHadAccess bool
}

// Approve marks the request approved and materializes the purchase in one
// transaction. Idempotent: a retried call, or a purchase that already exists
// from the checkout path, reports success with AlreadyHadAccess set.
func (s *PaymentService) Approve(requestPK uint, courseID uint, studentEmail, approvedBy string) (*ApproveResult, error) {
	email := strings.ToLower(strings.TrimSpace(studentEmail))
	result := &ApproveResult{}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var request model.PaymentRequest
		if err := tx.Preload("Course").First(&request, requestPK).Error; err != nil {
			return err
		}
		if request.CourseID != courseID {
			return gorm.ErrRecordNotFound
		}
		if request.Status == model.PaymentStatusRejected {
			return ErrNotPending
		}
		result.Request = &request

		// Best-effort link to a registered account; absence is fine, the
		// purchase stands on the email alone.
		var userID *uint
		var user model.User
		if err := tx.Where("email = ?", email).First(&user).Error; err == nil {
			userID = &user.ID
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var existing model.Purchase
		err := tx.Where("customer_email = ? AND course_id = ?", email, courseID).First(&existing).Error
		switch {
		case err == nil:
			result.Purchase = &existing
			result.AlreadyHadAccess = true
		case errors.Is(err, gorm.ErrRecordNotFound):
			purchase := model.Purchase{
				CustomerEmail:  email,
				CourseID:       courseID,
				UserID:         userID,
				IsDeviceLocked: true,
			}
			if err := tx.Create(&purchase).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					// Concurrent checkout completion created it first
					if err := tx.Where("customer_email = ? AND course_id = ?", email, courseID).
						First(&existing).Error; err != nil {
						return err
					}
					result.Purchase = &existing
					result.AlreadyHadAccess = true
				} else {
					return err
				}
			} else {
				result.Purchase = &purchase
			}
		default:
			return err
		}

		if request.Status != model.PaymentStatusApproved {
			request.Status = model.PaymentStatusApproved
			request.ApprovedBy = approvedBy
			if err := tx.Save(&request).Error; err != nil {
				return err
			}
		} else {
			result.AlreadyHadAccess = true
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.AlreadyHadAccess {
		s.email.SendPaymentApprovedEmail(email, result.Request.Name, result.Request.Course.Title, courseID)
	}

	return result, nil
}

// Reject sets the request to rejected with the reviewer's reason. Rejection
// is non-terminal: the applicant may submit a fresh request afterwards.
func (s *PaymentService) Reject(requestPK uint, reason string) (*model.PaymentRequest, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrEmptyReason
	}

	var request model.PaymentRequest
	if err := s.db.Preload("Course").First(&request, requestPK).Error; err != nil {
		return nil, err
	}
	if !request.IsPending() {
		return nil, ErrNotPending
	}

	request.Status = model.PaymentStatusRejected
	request.RejectionReason = reason
	if err := s.db.Save(&request).Error; err != nil {
		return nil, err
	}

	s.email.SendPaymentRejectedEmail(request.Email, request.Name, request.Course.Title, reason)

	return &request, nil
}

// GetByRequestID loads a request by its public correlation id
func (s *PaymentService) GetByRequestID(requestID string) (*model.PaymentRequest, error) {
	var request model.PaymentRequest
	err := s.db.Where("request_id = ?", requestID).First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// FindPurchase returns the purchase for (email, course), or nil when absent
func (s *PaymentService) FindPurchase(email string, courseID uint) (*model.Purchase, error) {
	var purchase model.Purchase
	err := s.db.Where("customer_email = ? AND course_id = ?",
		strings.ToLower(strings.TrimSpace(email)), courseID).First(&purchase).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &purchase, nil
}

// CompleteCheckout is the non-manual purchase path. It shares the uniqueness
// contract with Approve: a duplicate insert reports the existing purchase.
func (s *PaymentService) CompleteCheckout(email string, courseID uint, userID *uint) (*model.Purchase, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	purchase := model.Purchase{
		CustomerEmail:  email,
		CourseID:       courseID,
		UserID:         userID,
		IsDeviceLocked: true,
	}
	err := s.db.Create(&purchase).Error
	if err == nil {
		return &purchase, nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		var existing model.Purchase
		if err := s.db.Where("customer_email = ? AND course_id = ?", email, courseID).
			First(&existing).Error; err != nil {
			return nil, err
		}
		return &existing, nil
	}
	return nil, err
}

// RequestWithProgress is one review-queue row: the request joined with the
// applicant's progress through the course so reviewers see engagement
type RequestWithProgress struct {
	model.PaymentRequest
	CompletedSections int64 `json:"completed_sections"`
	TotalSections     int64 `json:"total_sections"`
}

// ListForInstructor returns payment requests for every course the instructor
// owns, newest first, each joined with a per-student progress summary
func (s *PaymentService) ListForInstructor(instructorID uint, status string) ([]RequestWithProgress, error) {
	query := s.db.Model(&model.PaymentRequest{}).
		Joins("JOIN courses ON courses.id = payment_requests.course_id").
		Where("courses.instructor_id = ?", instructorID).
		Preload("Course")
	if status != "" {
		query = query.Where("payment_requests.status = ?", status)
	}

	var requests []model.PaymentRequest
	if err := query.Order("payment_requests.created_at DESC").Find(&requests).Error; err != nil {
		return nil, err
	}

	rows := make([]RequestWithProgress, 0, len(requests))
	for _, request := range requests {
		row := RequestWithProgress{PaymentRequest: request}

		if err := s.db.Model(&model.CourseSection{}).
			Where("course_id = ? AND is_published = ?", request.CourseID, true).
			Count(&row.TotalSections).Error; err != nil {
			return nil, err
		}

		var user model.User
		if err := s.db.Where("email = ?", request.Email).First(&user).Error; err == nil {
			if err := s.db.Model(&model.SectionProgress{}).
				Joins("JOIN course_sections ON course_sections.id = section_progress.section_id").
				Where("section_progress.student_id = ? AND course_sections.course_id = ? AND section_progress.is_completed = ?",
					user.ID, request.CourseID, true).
				Count(&row.CompletedSections).Error; err != nil {
				return nil, err
			}
		}

		rows = append(rows, row)
	}

	return rows, nil
}
