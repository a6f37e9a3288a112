package app

import (
	"fmt"
	"os"

	"github.com/xeikhprince488/mansolehubtraining-sub000/api"
	"github.com/xeikhprince488/mansolehubtraining-sub000/config"
	"github.com/xeikhprince488/mansolehubtraining-sub000/database"
	"github.com/xeikhprince488/mansolehubtraining-sub000/router"
	"github.com/xeikhprince488/mansolehubtraining-sub000/services"
	"github.com/xeikhprince488/mansolehubtraining-sub000/services/cron"
	"gorm.io/gorm"
)

func SetupAndRunServer() error {
	// Load ENV
	if err := config.LoadENV(); err != nil {
		return err
	}

	env, err := config.Get()
	if err != nil {
		return err
	}

	// Initialize GORM database connection
	store, err := database.StartGORM()
	if err != nil {
		print("Check whether Postgres is running or not\n")
		return err
	}

	if err := store.Init(); err != nil {
		print("Failed to initialize database tables\n")
		return err
	}

	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return fmt.Errorf("failed to get GORM DB instance")
	}

	// Seed admin user, bank accounts and settings (idempotent)
	if os.Getenv("SEED_ENABLED") != "false" {
		if err := database.NewSeeder(db).SeedAll(); err != nil {
			print("Warning: database seeding failed\n")
			print("Error: ", err.Error(), "\n")
		}
	}

	// Scheduled jobs: pending-request digests, token cleanup, device stats
	var cronManager *cron.CronManager
	if os.Getenv("CRON_ENABLED") != "false" {
		cronManager = cron.NewCronManager(db, services.NewEmailService(env))
		if err := cronManager.Start(); err != nil {
			print("Warning: failed to start cron jobs\n")
			print("Error: ", err.Error(), "\n")
		}
	}

	defer func() {
		if cronManager != nil {
			cronManager.Stop()
		}
		store.Close()
	}()

	server := api.NewAPIServer(fmt.Sprintf(":%d", env.PORT))
	app := server.GetEngine()

	// Routes attach their own middleware stack
	router.SetupRoutes(app, store, env)

	return server.Run()
}
