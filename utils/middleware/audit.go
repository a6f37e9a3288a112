package middleware

import (
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/xeikhprince488/mansolehubtraining-sub000/model"
	"gorm.io/gorm"
)

// AuditLog records a privileged mutation after the handler completes.
// Runs after Required(); skips silently when no user is in context.
func AuditLog(db *gorm.DB, action, resource string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := GetUser(c)
		if !ok || user == nil {
			return c.Next()
		}

		var resourceID uint
		if id := c.Params("id"); id != "" {
			if parsedID, err := strconv.ParseUint(id, 10, 32); err == nil {
				resourceID = uint(parsedID)
			}
		}

		detail := string(c.Body())
		ip := c.IP()
		userAgent := c.Get("User-Agent")

		err := c.Next()
		if err != nil {
			return err
		}

		// Only log mutations that were accepted
		if c.Response().StatusCode() >= 400 {
			return nil
		}

		entry := model.AdminAuditLog{
			AdminID:    user.ID,
			Action:     action,
			Resource:   resource,
			ResourceID: resourceID,
			Detail:     detail,
			IPAddress:  ip,
			UserAgent:  userAgent,
		}
		go func() {
			if err := db.Create(&entry).Error; err != nil {
				log.Printf("audit log %s on %s failed: %v", action, resource, err)
			}
		}()

		return nil
	}
}
