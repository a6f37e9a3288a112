package database

import (
	"fmt"
	"log"
	"time"

	"github.com/xeikhprince488/mansolehubtraining-sub000/config"
	"github.com/xeikhprince488/mansolehubtraining-sub000/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Storage defines the interface the rest of the app depends on
type Storage interface {
	Init() error
	Close() error
	HealthCheck() error

	// GetDB returns the underlying *gorm.DB
	GetDB() interface{}
}

type GORMStore struct {
	db *gorm.DB
}

// StartGORM initializes a GORM connection to PostgreSQL
func StartGORM() (*GORMStore, error) {
	getEnv, err := config.Get()
	if err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		getEnv.DB_HOST,
		getEnv.DB_USER_NAME,
		getEnv.DB_PASSWORD,
		getEnv.DB_NAME,
		getEnv.DB_PORT,
		getEnv.DB_SSL_MODE,
	)

	gormLogger := logger.Default.LogMode(logger.Info)
	if getEnv.GO_ENV == "production" {
		gormLogger = logger.Default.LogMode(logger.Error)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: false,
		PrepareStmt:            true,
		// Duplicate-key errors surface as gorm.ErrDuplicatedKey so the
		// purchase-creation paths can treat "already exists" as success.
		TranslateError: true,
	})
	if err != nil {
		log.Println("Unable to connect to PostgreSQL with GORM:", err)
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Println("Successfully connected to PostgreSQL Database with GORM.")

	return &GORMStore{db: db}, nil
}

// Init runs AutoMigrate and creates indexes AutoMigrate cannot express
func (s *GORMStore) Init() error {
	log.Println("Running GORM AutoMigrate for all models...")

	err := s.db.AutoMigrate(
		// Identity
		&model.User{},
		&model.JWTTokenBlacklist{},
		&model.PasswordResetToken{},

		// Catalog
		&model.Course{},
		&model.CourseSection{},
		&model.BankAccount{},

		// Payment approval workflow
		&model.PaymentRequest{},
		&model.Purchase{},
		&model.DeviceAccess{},

		// Progress tracking
		&model.SectionProgress{},

		// School module
		&model.SchoolTeacher{},
		&model.SchoolStudent{},
		&model.AttendanceRecord{},

		// Operational
		&model.AppSetting{},
		&model.AdminAuditLog{},
		&model.CronJobLog{},
	)
	if err != nil {
		log.Println("Error running AutoMigrate:", err)
		return err
	}

	// Partial unique index guarding the one-pending-request-per-(email, course)
	// invariant at the store level; the handler-side read check alone is racy.
	err = s.db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_payment_requests_pending
		ON payment_requests (course_id, email)
		WHERE status = 'pending' AND deleted_at IS NULL
	`).Error
	if err != nil {
		// Older Postgres builds without expression support fall back to the
		// application-level check; log and continue.
		log.Println("Warning: could not create pending-request partial index:", err)
	}

	log.Println("GORM AutoMigrate completed successfully!")
	return nil
}

// Close closes the database connection
func (s *GORMStore) Close() error {
	log.Println("Closing GORM PostgreSQL connection...")
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// GetDB returns the GORM DB instance for use in services/handlers
func (s *GORMStore) GetDB() interface{} {
	return s.db
}

// HealthCheck verifies the database connection is alive
func (s *GORMStore) HealthCheck() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
