package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/xeikhprince488/mansolehubtraining-sub000/model"
	"github.com/xeikhprince488/mansolehubtraining-sub000/utils/auth"
)

// SendPendingRequestsDigest emails each instructor who has payment requests
// sitting in review. Send failures are logged by the email service; the job
// succeeds as long as the queries do.
func (m *CronManager) SendPendingRequestsDigest() (string, error) {
	type digestRow struct {
		InstructorID uint
		Email        string
		Name         string
		Pending      int64
	}

	var rows []digestRow
	err := m.db.Model(&model.PaymentRequest{}).
		Select("courses.instructor_id AS instructor_id, users.email AS email, users.name AS name, COUNT(*) AS pending").
		Joins("JOIN courses ON courses.id = payment_requests.course_id").
		Joins("JOIN users ON users.id = courses.instructor_id").
		Where("payment_requests.status = ?", model.PaymentStatusPending).
		Group("courses.instructor_id, users.email, users.name").
		Scan(&rows).Error
	if err != nil {
		return "", err
	}

	for _, row := range rows {
		m.email.SendPendingRequestsDigest(row.Email, row.Name, row.Pending)
	}

	return fmt.Sprintf("notified %d instructor(s)", len(rows)), nil
}

// CleanupExpiredTokens purges expired blacklist entries and stale password
// reset tokens
func (m *CronManager) CleanupExpiredTokens() (string, error) {
	blacklist := auth.NewBlacklistService(m.db)
	if err := blacklist.CleanupExpiredTokens(context.Background()); err != nil {
		return "", err
	}

	res := m.db.Unscoped().
		Where("expires_at < ?", time.Now().Add(-24*time.Hour)).
		Delete(&model.PasswordResetToken{})
	if res.Error != nil {
		return "", res.Error
	}

	return fmt.Sprintf("removed %d stale password reset token(s)", res.RowsAffected), nil
}

// AggregateDeviceAccessStats reports how many devices registered and how many
// are blocked, giving the operations log a daily security snapshot
func (m *CronManager) AggregateDeviceAccessStats() (string, error) {
	var total, blocked, lastDay int64

	if err := m.db.Model(&model.DeviceAccess{}).Count(&total).Error; err != nil {
		return "", err
	}
	if err := m.db.Model(&model.DeviceAccess{}).Where("is_blocked = ?", true).Count(&blocked).Error; err != nil {
		return "", err
	}
	if err := m.db.Model(&model.DeviceAccess{}).
		Where("last_accessed_at > ?", time.Now().Add(-24*time.Hour)).
		Count(&lastDay).Error; err != nil {
		return "", err
	}

	return fmt.Sprintf("devices=%d blocked=%d active_24h=%d", total, blocked, lastDay), nil
}
