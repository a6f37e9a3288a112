package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Payment request statuses
const (
	PaymentStatusPending  = "pending"
	PaymentStatusApproved = "approved"
	PaymentStatusRejected = "rejected"
)

// PaymentRequest represents one submitted manual bank-transfer payment attempt.
// Requests are never deleted; they form the audit trail of the approval flow.
type PaymentRequest struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Public correlation id returned to the applicant and used in emails/polling
	RequestID string `gorm:"type:varchar(40);uniqueIndex;not null" json:"request_id"`

	CourseID uint `gorm:"not null;index:idx_payment_requests_course_email" json:"course_id"`

	// Applicant fields; stored verbatim, opaque to the workflow
	Email      string `gorm:"not null;index:idx_payment_requests_course_email" json:"email"`
	Name       string `gorm:"not null" json:"name"`
	Phone      string `gorm:"type:varchar(30)" json:"phone,omitempty"`
	CNIC       string `gorm:"type:varchar(20)" json:"cnic,omitempty"`
	Address    string `gorm:"type:text" json:"address,omitempty"`
	City       string `gorm:"type:varchar(80)" json:"city,omitempty"`
	Country    string `gorm:"type:varchar(80)" json:"country,omitempty"`
	Occupation string `gorm:"type:varchar(120)" json:"occupation,omitempty"`
	Education  string `gorm:"type:varchar(120)" json:"education,omitempty"`
	HeardFrom  string `gorm:"type:varchar(120)" json:"heard_from,omitempty"`

	// Proof-of-payment artifact URI; required at submission
	TransactionImage string `gorm:"type:text;not null" json:"transaction_image"`

	// Snapshot of the bank account details shown to the payer at submission time
	BankDetails datatypes.JSON `gorm:"type:jsonb" json:"bank_details,omitempty"`

	Status          string `gorm:"type:varchar(20);default:'pending';index" json:"status"` // pending, approved, rejected
	ApprovedBy      string `gorm:"type:varchar(255)" json:"approved_by,omitempty"`
	RejectionReason string `gorm:"type:text" json:"rejection_reason,omitempty"`

	// Device captured at submission for fraud/audit purposes.
	// Not the same thing as the purchase-level device lock.
	DeviceFingerprint string         `gorm:"type:varchar(128)" json:"device_fingerprint,omitempty"`
	DeviceInfo        datatypes.JSON `gorm:"type:jsonb" json:"device_info,omitempty"`

	// Relationships
	Course Course `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"course,omitempty"`
}

// TableName specifies the table name for PaymentRequest
func (PaymentRequest) TableName() string {
	return "payment_requests"
}

// IsPending reports whether the request still awaits review
func (r *PaymentRequest) IsPending() bool {
	return r.Status == PaymentStatusPending
}

// BankAccount represents a bank account shown to payers for manual transfers
type BankAccount struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
	BankName      string         `gorm:"not null" json:"bank_name"`
	AccountTitle  string         `gorm:"not null" json:"account_title"`
	AccountNumber string         `gorm:"not null" json:"account_number"`
	IBAN          string         `gorm:"type:varchar(40)" json:"iban,omitempty"`
	IsActive      bool           `gorm:"default:true;index" json:"is_active"`
}

// TableName specifies the table name for BankAccount
func (BankAccount) TableName() string {
	return "bank_accounts"
}
