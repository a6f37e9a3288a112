package model

import (
	"time"

	"gorm.io/gorm"
)

// AdminAuditLog records privileged mutations: payment approvals/rejections,
// device blocks, role changes, bank account edits.
type AdminAuditLog struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	AdminID    uint           `gorm:"not null;index" json:"admin_id"`
	Action     string         `gorm:"type:varchar(100);not null" json:"action"` // e.g. "payment_approve", "device_block"
	Resource   string         `gorm:"type:varchar(100)" json:"resource"`        // e.g. "payment_requests", "purchases"
	ResourceID uint           `json:"resource_id"`
	Detail     string         `gorm:"type:text" json:"detail"` // request payload snapshot
	IPAddress  string         `gorm:"type:varchar(45)" json:"ip_address"`
	UserAgent  string         `gorm:"type:text" json:"user_agent"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Admin User `gorm:"foreignKey:AdminID;constraint:OnDelete:CASCADE" json:"admin,omitempty"`
}

// TableName specifies the table name for AdminAuditLog
func (AdminAuditLog) TableName() string {
	return "admin_audit_logs"
}
