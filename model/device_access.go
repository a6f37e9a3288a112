package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DeviceInfo is the validated shape of the client-reported device metadata
// stored alongside access grants. Fields are advisory; the fingerprint alone
// drives the access decision.
type DeviceInfo struct {
	Platform       string `json:"platform,omitempty"`
	Browser        string `json:"browser,omitempty"`
	BrowserVersion string `json:"browser_version,omitempty"`
	OS             string `json:"os,omitempty"`
	ScreenWidth    int    `json:"screen_width,omitempty"`
	ScreenHeight   int    `json:"screen_height,omitempty"`
	Timezone       string `json:"timezone,omitempty"`
	Language       string `json:"language,omitempty"`
}

// DeviceAccess is an allow-list entry for one (purchase, device) pair.
// The purchase's own bound fingerprint is implicit; rows here cover the
// primary device's access log plus any additional devices granted later.
type DeviceAccess struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	PurchaseID        uint   `gorm:"not null;uniqueIndex:idx_device_accesses_purchase_fp" json:"purchase_id"`
	DeviceFingerprint string `gorm:"type:varchar(128);not null;uniqueIndex:idx_device_accesses_purchase_fp" json:"device_fingerprint"`

	AccessCount    int            `gorm:"default:1" json:"access_count"`
	LastAccessedAt time.Time      `json:"last_accessed_at"`
	IsBlocked      bool           `gorm:"default:false" json:"is_blocked"`
	DeviceInfo     datatypes.JSON `gorm:"type:jsonb" json:"device_info,omitempty"`

	// Relationships
	Purchase Purchase `gorm:"foreignKey:PurchaseID" json:"-"`
}

// TableName specifies the table name for DeviceAccess
func (DeviceAccess) TableName() string {
	return "device_accesses"
}
