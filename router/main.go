package router

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/xeikhprince488/mansolehubtraining-sub000/config"
	"github.com/xeikhprince488/mansolehubtraining-sub000/database"
	"github.com/xeikhprince488/mansolehubtraining-sub000/handlers"
	admin_handlers "github.com/xeikhprince488/mansolehubtraining-sub000/handlers/admin"
	auth_handlers "github.com/xeikhprince488/mansolehubtraining-sub000/handlers/auth"
	course_handlers "github.com/xeikhprince488/mansolehubtraining-sub000/handlers/course"
	device_handlers "github.com/xeikhprince488/mansolehubtraining-sub000/handlers/device"
	payment_handlers "github.com/xeikhprince488/mansolehubtraining-sub000/handlers/payment"
	progress_handlers "github.com/xeikhprince488/mansolehubtraining-sub000/handlers/progress"
	school_handlers "github.com/xeikhprince488/mansolehubtraining-sub000/handlers/school"
	"github.com/xeikhprince488/mansolehubtraining-sub000/services"
	"github.com/xeikhprince488/mansolehubtraining-sub000/services/storage"
	"github.com/xeikhprince488/mansolehubtraining-sub000/utils/auth"
	"github.com/xeikhprince488/mansolehubtraining-sub000/utils/cache"
	"github.com/xeikhprince488/mansolehubtraining-sub000/utils/middleware"
	"gorm.io/gorm"
)

// SetupRoutes wires every handler onto the app. Redis and object storage are
// optional at startup; the features backed by them degrade instead of failing.
func SetupRoutes(app *fiber.App, store database.Storage, env *config.EnviornmentVariable) {
	if env.JWT_SECRET == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

	jwtIssuer := env.JWT_ISSUER
	if jwtIssuer == "" {
		jwtIssuer = "mansolehub-training-api"
	}

	jwtManager := auth.NewJWTManager(auth.JWTConfig{
		Secret:        env.JWT_SECRET,
		Expiry:        24 * time.Hour,
		RefreshExpiry: 7 * 24 * time.Hour,
		Issuer:        jwtIssuer,
	})

	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		log.Fatal("Failed to get GORM DB instance")
	}

	redisURL := env.REDIS_URL
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}
	redisCache, err := cache.NewRedisCache(redisURL)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v. Brute force protection and status caching are disabled.", err)
	}

	var bruteForce *middleware.BruteForceProtection
	if redisCache != nil {
		bruteForce = middleware.NewBruteForceProtection(redisCache)
	}

	var storageClient *storage.Client
	if env.STORAGE_ACCESS_KEY != "" {
		storageClient, err = storage.NewClient(storage.Config{
			AccessKey: env.STORAGE_ACCESS_KEY,
			SecretKey: env.STORAGE_SECRET_KEY,
			Bucket:    env.STORAGE_BUCKET,
			Region:    env.STORAGE_REGION,
			Endpoint:  env.STORAGE_ENDPOINT,
			CDNURL:    env.STORAGE_CDN_URL,
		})
		if err != nil {
			log.Printf("Warning: Failed to initialize object storage: %v. Payment proof uploads are disabled.", err)
		}
	} else {
		log.Println("Warning: STORAGE_ACCESS_KEY not set. Payment proof uploads are disabled.")
	}

	authMiddleware := middleware.NewAuthMiddleware(jwtManager, db)

	emailService := services.NewEmailService(env)
	paymentService := services.NewPaymentService(db, emailService)
	deviceService := services.NewDeviceService(db)
	contentService := services.NewContentService(db)
	progressService := services.NewProgressService(db)

	authHandler := auth_handlers.NewAuthHandler(db, jwtManager, bruteForce)
	courseHandler := course_handlers.NewCourseHandler(db, contentService, paymentService, deviceService)
	paymentHandler := payment_handlers.NewPaymentHandler(db, paymentService, deviceService, storageClient, redisCache)
	deviceHandler := device_handlers.NewDeviceHandler(db, deviceService, paymentService)
	progressHandler := progress_handlers.NewProgressHandler(progressService)
	schoolHandler := school_handlers.NewSchoolHandler(db)
	adminHandler := admin_handlers.NewAdminHandler(db)

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    env.APP_URL,
		RateLimitRequests: 100,
		RateLimitWindow:   time.Minute,
	})

	app.Get("/health", handlers.HandleCheckHealth(store))

	v1 := app.Group("/api/v1")

	// Auth
	authGroup := v1.Group("/auth")
	if bruteForce != nil {
		authGroup.Post("/login", bruteForce.CheckAndRecordAttempt(), authHandler.Login)
	} else {
		authGroup.Post("/login", authHandler.Login)
	}
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/refresh", authHandler.RefreshToken)
	authGroup.Post("/logout", authMiddleware.Required(), authHandler.Logout)

	v1.Get("/profile", authMiddleware.Required(), authHandler.GetProfile)
	v1.Put("/profile", authMiddleware.Required(), authHandler.UpdateProfile)

	// Public catalog and settings
	v1.Get("/courses", courseHandler.ListCourses)
	v1.Get("/courses/:idOrSlug", authMiddleware.Optional(), courseHandler.GetCourse)
	v1.Get("/courses/:courseId/sections", authMiddleware.Optional(), courseHandler.ListSections)
	v1.Get("/courses/:courseId/sections/:sectionId", authMiddleware.Optional(), courseHandler.GetSection)
	v1.Get("/bank-accounts", courseHandler.ListBankAccounts)
	v1.Get("/settings", adminHandler.GetPublicSettings)

	// Manual payment flow
	v1.Post("/manual-payment", authMiddleware.Optional(), paymentHandler.SubmitPayment)
	v1.Get("/purchase-status", authMiddleware.Optional(), paymentHandler.GetPurchaseStatus)
	v1.Get("/payment-requests/:requestId/status", paymentHandler.GetRequestStatus)

	// Device guard
	v1.Post("/device/register", authMiddleware.Optional(), deviceHandler.RegisterDevice)

	// Progress (authenticated students)
	v1.Post("/sections/:sectionId/progress", authMiddleware.Required(), progressHandler.RecordProgress)
	v1.Get("/courses/:courseId/progress", authMiddleware.Required(), progressHandler.GetCourseProgress)

	// Instructor area
	instructor := v1.Group("/instructor", authMiddleware.Required(), authMiddleware.RequireInstructor())

	instructor.Get("/courses", courseHandler.ListInstructorCourses)
	instructor.Post("/courses", courseHandler.CreateCourse)
	instructor.Put("/courses/:courseId", courseHandler.UpdateCourse)
	instructor.Delete("/courses/:courseId", courseHandler.DeleteCourse)
	instructor.Post("/courses/:courseId/publish", courseHandler.PublishCourse)
	instructor.Post("/courses/:courseId/unpublish", courseHandler.UnpublishCourse)
	instructor.Post("/courses/:courseId/sections", courseHandler.CreateSection)
	// reorder must register before the :sectionId route
	instructor.Put("/courses/:courseId/sections/reorder", courseHandler.ReorderSections)
	instructor.Put("/courses/:courseId/sections/:sectionId", courseHandler.UpdateSection)
	instructor.Delete("/courses/:courseId/sections/:sectionId", courseHandler.DeleteSection)

	instructor.Get("/payment-requests", paymentHandler.ListPaymentRequests)
	instructor.Get("/payment-requests/summary", paymentHandler.GetPendingSummary)
	instructor.Get("/payment-requests/:id", paymentHandler.GetPaymentRequest)
	instructor.Post("/payment-requests/:id/approve",
		middleware.AuditLog(db, "payment_approve", "payment_requests"), paymentHandler.ApprovePaymentRequest)
	instructor.Post("/payment-requests/:id/reject",
		middleware.AuditLog(db, "payment_reject", "payment_requests"), paymentHandler.RejectPaymentRequest)

	instructor.Get("/purchases/:purchaseId/devices", deviceHandler.ListDevices)
	instructor.Post("/purchases/:purchaseId/devices/block",
		middleware.AuditLog(db, "device_block", "purchases"), deviceHandler.BlockDevice)
	instructor.Post("/purchases/:purchaseId/devices/unblock",
		middleware.AuditLog(db, "device_unblock", "purchases"), deviceHandler.UnblockDevice)
	instructor.Post("/purchases/:purchaseId/devices/reset",
		middleware.AuditLog(db, "device_reset", "purchases"), deviceHandler.ResetDeviceBinding)
	instructor.Put("/purchases/:purchaseId/device-lock",
		middleware.AuditLog(db, "device_lock_toggle", "purchases"), deviceHandler.SetDeviceLock)

	// School module (instructors and admins manage the roster)
	school := v1.Group("/school", authMiddleware.Required(), authMiddleware.RequireInstructor())

	school.Get("/teachers", schoolHandler.ListTeachers)
	school.Post("/teachers", schoolHandler.CreateTeacher)
	school.Put("/teachers/:id", schoolHandler.UpdateTeacher)
	school.Delete("/teachers/:id", schoolHandler.DeleteTeacher)

	school.Get("/students", schoolHandler.ListStudents)
	school.Post("/students", schoolHandler.CreateStudent)
	school.Put("/students/:id", schoolHandler.UpdateStudent)
	school.Delete("/students/:id", schoolHandler.DeleteStudent)
	school.Get("/students/:id/attendance-summary", schoolHandler.GetStudentAttendanceSummary)

	school.Post("/attendance", schoolHandler.MarkAttendance)
	school.Get("/attendance", schoolHandler.GetAttendance)

	// Admin area
	admin := v1.Group("/admin", authMiddleware.Required(), authMiddleware.RequireAdmin())

	admin.Get("/users", adminHandler.ListUsers)
	admin.Put("/users/:id/role",
		middleware.AuditLog(db, "user_role_change", "users"), adminHandler.SetUserRole)

	admin.Get("/bank-accounts", adminHandler.ListBankAccounts)
	admin.Post("/bank-accounts",
		middleware.AuditLog(db, "bank_account_create", "bank_accounts"), adminHandler.CreateBankAccount)
	admin.Put("/bank-accounts/:id",
		middleware.AuditLog(db, "bank_account_update", "bank_accounts"), adminHandler.UpdateBankAccount)
	admin.Delete("/bank-accounts/:id",
		middleware.AuditLog(db, "bank_account_delete", "bank_accounts"), adminHandler.DeleteBankAccount)

	admin.Get("/audit-logs", adminHandler.ListAuditLogs)
	admin.Get("/settings", adminHandler.ListSettings)
	admin.Put("/settings/:key",
		middleware.AuditLog(db, "setting_update", "app_settings"), adminHandler.UpdateSetting)
}
