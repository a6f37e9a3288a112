package database

import (
	"fmt"
	"log"
	"os"

	"github.com/xeikhprince488/mansolehubtraining-sub000/model"
	"github.com/xeikhprince488/mansolehubtraining-sub000/utils/auth"
	"gorm.io/gorm"
)

// Seeder handles database seeding operations
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// SeedAll runs all seed functions
func (s *Seeder) SeedAll() error {
	log.Println("Starting database seeding...")

	if err := s.SeedAdminUser(); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	if err := s.SeedBankAccounts(); err != nil {
		return fmt.Errorf("failed to seed bank accounts: %w", err)
	}

	if err := s.SeedAppSettings(); err != nil {
		return fmt.Errorf("failed to seed app settings: %w", err)
	}

	log.Println("Database seeding completed successfully!")
	return nil
}

// SeedAdminUser creates the default admin user if none exists
func (s *Seeder) SeedAdminUser() error {
	var count int64
	if err := s.db.Model(&model.User{}).Where("role = ?", model.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminEmail == "" || adminPassword == "" {
		log.Println("ADMIN_EMAIL/ADMIN_PASSWORD not set, skipping admin seed")
		return nil
	}

	hash, err := auth.HashPassword(adminPassword)
	if err != nil {
		return err
	}

	admin := model.User{
		Email:        adminEmail,
		PasswordHash: hash,
		Name:         "Administrator",
		Role:         model.RoleAdmin,
	}
	if err := s.db.Create(&admin).Error; err != nil {
		return err
	}

	log.Printf("Seeded admin user %s", adminEmail)
	return nil
}

// SeedBankAccounts creates the default collection account shown to payers
func (s *Seeder) SeedBankAccounts() error {
	var count int64
	if err := s.db.Model(&model.BankAccount{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	accounts := []model.BankAccount{
		{
			BankName:      "Meezan Bank",
			AccountTitle:  "ManSoleHub Training",
			AccountNumber: "0101-0123456789",
			IBAN:          "PK36MEZN0001010123456789",
			IsActive:      true,
		},
		{
			BankName:      "HBL",
			AccountTitle:  "ManSoleHub Training",
			AccountNumber: "1234-5678901234",
			IsActive:      true,
		},
	}

	return s.db.Create(&accounts).Error
}

// SeedAppSettings creates default application settings
func (s *Seeder) SeedAppSettings() error {
	settings := []model.AppSetting{
		{Key: "device_lock_enabled_default", Value: "true", Type: "bool", Description: "Whether new purchases are created with the device lock enabled", IsPublic: false},
		{Key: "support_email", Value: "support@mansolehubtraining.com", Type: "string", Description: "Contact shown on the device access restricted page", IsPublic: true},
	}

	for _, setting := range settings {
		var existing model.AppSetting
		err := s.db.Where("key = ?", setting.Key).First(&existing).Error
		if err == gorm.ErrRecordNotFound {
			if err := s.db.Create(&setting).Error; err != nil {
				return err
			}
		}
	}

	return nil
}
