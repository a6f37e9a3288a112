package services

import (
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/xeikhprince488/mansolehubtraining-sub000/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openIntegrationDB connects to the database named by the DB_* environment
// variables with the same TranslateError setup the server uses, so duplicate
// key handling behaves exactly as in production.
func openIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	required := []string{"DB_HOST", "DB_USER_NAME", "DB_PASSWORD", "DB_NAME", "DB_PORT"}
	for _, v := range required {
		if os.Getenv(v) == "" {
			t.Fatalf("missing required environment variable %s", v)
		}
	}

	sslMode := os.Getenv("DB_SSL_MODE")
	if sslMode == "" {
		sslMode = "disable"
	}
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER_NAME"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
		sslMode,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&model.User{}, &model.Course{}, &model.PaymentRequest{}, &model.Purchase{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	err = db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_payment_requests_pending
		ON payment_requests (course_id, email)
		WHERE status = 'pending' AND deleted_at IS NULL
	`).Error
	if err != nil {
		t.Fatalf("create pending index: %v", err)
	}

	return db
}

// TestPaymentWorkflowIntegration walks a manual payment through its full
// lifecycle against a real database: submit, duplicate submit, reject,
// resubmit, approve, repeated approve, and submit-after-purchase.
func TestPaymentWorkflowIntegration(t *testing.T) {
	if os.Getenv("RUN_INTEGRATION_TESTS") != "true" {
		t.Skip("Skipping integration test. Set RUN_INTEGRATION_TESTS=true to run.")
	}

	db := openIntegrationDB(t)
	svc := NewPaymentService(db, &EmailService{})

	suffix := time.Now().UnixNano()
	buyerEmail := fmt.Sprintf("it-buyer-%d@example.com", suffix)

	instructor := model.User{
		Email:        fmt.Sprintf("it-instructor-%d@example.com", suffix),
		PasswordHash: "x",
		Name:         "Integration Instructor",
		Role:         model.RoleInstructor,
	}
	if err := db.Create(&instructor).Error; err != nil {
		t.Fatalf("seed instructor: %v", err)
	}
	course := model.Course{
		InstructorID: instructor.ID,
		Title:        "Integration Course",
		Slug:         fmt.Sprintf("integration-course-%d", suffix),
		Price:        5000,
		IsPublished:  true,
	}
	if err := db.Create(&course).Error; err != nil {
		t.Fatalf("seed course: %v", err)
	}

	t.Cleanup(func() {
		db.Unscoped().Where("email = ?", buyerEmail).Delete(&model.PaymentRequest{})
		db.Unscoped().Where("customer_email = ?", buyerEmail).Delete(&model.Purchase{})
		db.Unscoped().Delete(&course)
		db.Unscoped().Delete(&instructor)
	})

	submit := func() (*model.PaymentRequest, error) {
		return svc.Submit(SubmitInput{
			CourseID:         course.ID,
			Email:            buyerEmail,
			Name:             "Integration Buyer",
			Phone:            "03001234567",
			TransactionImage: "proofs/integration.png",
		})
	}

	first, err := submit()
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if first.Status != model.PaymentStatusPending {
		t.Fatalf("first submit status = %q, want pending", first.Status)
	}

	// Only one pending request may exist per buyer and course
	_, err = submit()
	var pendingErr *PendingRequestError
	if !errors.As(err, &pendingErr) {
		t.Fatalf("duplicate submit error = %v, want *PendingRequestError", err)
	}
	if pendingErr.RequestID != first.RequestID {
		t.Errorf("duplicate submit reports request %q, want the original %q",
			pendingErr.RequestID, first.RequestID)
	}

	// Rejection reopens the door for a fresh submission
	if _, err := svc.Reject(first.ID, "proof unreadable, please retake the screenshot"); err != nil {
		t.Fatalf("reject: %v", err)
	}
	second, err := submit()
	if err != nil {
		t.Fatalf("resubmit after rejection: %v", err)
	}
	if second.RequestID == first.RequestID {
		t.Error("resubmission reused the rejected request id")
	}

	// Approval materializes exactly one purchase
	approved, err := svc.Approve(second.ID, course.ID, buyerEmail, instructor.Email)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.AlreadyHadAccess {
		t.Error("first approval reported AlreadyHadAccess")
	}
	if approved.Purchase == nil || approved.Purchase.CustomerEmail != buyerEmail {
		t.Fatalf("approval purchase = %+v, want one for %s", approved.Purchase, buyerEmail)
	}

	// A retried approval is idempotent and creates nothing new
	again, err := svc.Approve(second.ID, course.ID, buyerEmail, instructor.Email)
	if err != nil {
		t.Fatalf("repeated approve: %v", err)
	}
	if !again.AlreadyHadAccess {
		t.Error("repeated approval did not report AlreadyHadAccess")
	}
	var purchases int64
	err = db.Model(&model.Purchase{}).
		Where("customer_email = ? AND course_id = ?", buyerEmail, course.ID).
		Count(&purchases).Error
	if err != nil {
		t.Fatalf("count purchases: %v", err)
	}
	if purchases != 1 {
		t.Errorf("purchase count = %d, want 1", purchases)
	}

	// An owner submitting again is redirected, not queued
	_, err = submit()
	var alreadyErr *AlreadyPurchasedError
	if !errors.As(err, &alreadyErr) {
		t.Fatalf("submit after purchase error = %v, want *AlreadyPurchasedError", err)
	}
	if alreadyErr.CourseID != course.ID {
		t.Errorf("already-purchased course = %d, want %d", alreadyErr.CourseID, course.ID)
	}
}
