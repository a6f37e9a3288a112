package services

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/xeikhprince488/mansolehubtraining-sub000/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Denial reasons surfaced to the client. Denial is a normal outcome, not an
// error: only store failures return an error from the guard.
const (
	ReasonNotPurchased        = "not purchased"
	ReasonDeviceNotAuthorized = "device not authorized"
)

// AccessDecision is the guard's verdict for one (purchase, fingerprint) pair
type AccessDecision struct {
	Allowed     bool   `json:"allowed"`
	IsFirstTime bool   `json:"is_first_time,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// DeviceService evaluates and records device access for purchases
type DeviceService struct {
	db *gorm.DB
}

// NewDeviceService creates a new device service
func NewDeviceService(db *gorm.DB) *DeviceService {
	return &DeviceService{db: db}
}

// EvaluateAccess applies the device policy to an already-loaded purchase and
// allow-list row. access may be nil when no DeviceAccess row exists for the
// fingerprint. Decision order:
//  1. no purchase            -> denied
//  2. lock disabled          -> allowed
//  3. no device bound yet    -> allowed, first time (caller registers it)
//  4. fingerprint matches    -> allowed
//  5. allow-list row, not blocked -> allowed; otherwise denied
func EvaluateAccess(purchase *model.Purchase, fingerprint string, access *model.DeviceAccess) AccessDecision {
	if purchase == nil {
		return AccessDecision{Allowed: false, Reason: ReasonNotPurchased}
	}

	if !purchase.IsDeviceLocked {
		return AccessDecision{Allowed: true}
	}

	if !purchase.HasBoundDevice() {
		return AccessDecision{Allowed: true, IsFirstTime: true}
	}

	if *purchase.DeviceFingerprint == fingerprint {
		return AccessDecision{Allowed: true}
	}

	if access != nil && !access.IsBlocked {
		return AccessDecision{Allowed: true}
	}

	return AccessDecision{Allowed: false, Reason: ReasonDeviceNotAuthorized}
}

// Evaluate loads the allow-list row for the fingerprint and applies the policy
func (s *DeviceService) Evaluate(purchase *model.Purchase, fingerprint string) (AccessDecision, error) {
	if purchase == nil || !purchase.IsDeviceLocked || !purchase.HasBoundDevice() {
		return EvaluateAccess(purchase, fingerprint, nil), nil
	}

	var access model.DeviceAccess
	err := s.db.Where("purchase_id = ? AND device_fingerprint = ?", purchase.ID, fingerprint).
		First(&access).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return EvaluateAccess(purchase, fingerprint, nil), nil
		}
		return AccessDecision{}, err
	}

	return EvaluateAccess(purchase, fingerprint, &access), nil
}

// Register binds first-time devices and logs repeat access. It is idempotent
// and safe to call on every page load of gated content:
//   - when the purchase has no bound device, this fingerprint becomes the
//     bound one via a conditional update so concurrent first registrations
//     cannot both win
//   - a DeviceAccess row is always upserted, bumping access_count
func (s *DeviceService) Register(purchase *model.Purchase, fingerprint, ipAddress, userAgent string, info *model.DeviceInfo) error {
	var infoJSON []byte
	if info != nil {
		infoJSON, _ = json.Marshal(info)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if !purchase.HasBoundDevice() {
			res := tx.Model(&model.Purchase{}).
				Where("id = ? AND device_fingerprint IS NULL", purchase.ID).
				Updates(map[string]interface{}{
					"device_fingerprint": fingerprint,
					"ip_address":         ipAddress,
					"user_agent":         userAgent,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected > 0 {
				purchase.DeviceFingerprint = &fingerprint
			}
		}

		now := time.Now()
		access := model.DeviceAccess{
			PurchaseID:        purchase.ID,
			DeviceFingerprint: fingerprint,
			AccessCount:       1,
			LastAccessedAt:    now,
			DeviceInfo:        datatypes.JSON(infoJSON),
		}

		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "purchase_id"}, {Name: "device_fingerprint"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"access_count":     gorm.Expr("device_accesses.access_count + 1"),
				"last_accessed_at": now,
			}),
		}).Create(&access).Error
	})
}

// SetBlocked flips the revocation flag on an allow-list entry
func (s *DeviceService) SetBlocked(purchaseID uint, fingerprint string, blocked bool) error {
	res := s.db.Model(&model.DeviceAccess{}).
		Where("purchase_id = ? AND device_fingerprint = ?", purchaseID, fingerprint).
		Update("is_blocked", blocked)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListDevices returns the allow-list for a purchase, most recent first
func (s *DeviceService) ListDevices(purchaseID uint) ([]model.DeviceAccess, error) {
	var devices []model.DeviceAccess
	err := s.db.Where("purchase_id = ?", purchaseID).
		Order("last_accessed_at DESC").
		Find(&devices).Error
	return devices, err
}
