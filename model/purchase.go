package model

import (
	"time"

	"gorm.io/gorm"
)

// Purchase grants a customer email access to a course. At most one row ever
// exists per (customer_email, course_id); the composite unique index backs
// the idempotent create paths in checkout completion and payment approval.
type Purchase struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	CustomerEmail string `gorm:"not null;uniqueIndex:idx_purchases_email_course" json:"customer_email"`
	CourseID      uint   `gorm:"not null;uniqueIndex:idx_purchases_email_course" json:"course_id"`

	// Best-effort link to a registered account; purchases are keyed by email
	// and remain valid without one.
	UserID *uint `gorm:"index" json:"user_id,omitempty"`

	// The single device currently bound to this purchase; nil until the first
	// gated-content access registers one.
	DeviceFingerprint *string `gorm:"type:varchar(128)" json:"device_fingerprint,omitempty"`
	IsDeviceLocked    bool    `gorm:"default:true" json:"is_device_locked"`

	// Captured at first device registration (audit)
	IPAddress string `gorm:"type:varchar(45)" json:"-"`
	UserAgent string `gorm:"type:text" json:"-"`

	// Relationships
	Course         Course         `gorm:"foreignKey:CourseID" json:"course,omitempty"`
	User           *User          `gorm:"foreignKey:UserID" json:"-"`
	DeviceAccesses []DeviceAccess `gorm:"foreignKey:PurchaseID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for Purchase
func (Purchase) TableName() string {
	return "purchases"
}

// HasBoundDevice reports whether a primary device has been registered yet
func (p *Purchase) HasBoundDevice() bool {
	return p.DeviceFingerprint != nil && *p.DeviceFingerprint != ""
}
