package cron

import (
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/xeikhprince488/mansolehubtraining-sub000/model"
	"github.com/xeikhprince488/mansolehubtraining-sub000/services"
	"gorm.io/gorm"
)

// CronManager manages all scheduled background jobs
type CronManager struct {
	cron  *cron.Cron
	db    *gorm.DB
	email *services.EmailService
}

// NewCronManager creates a new cron manager
func NewCronManager(db *gorm.DB, email *services.EmailService) *CronManager {
	return &CronManager{
		cron:  cron.New(cron.WithSeconds()),
		db:    db,
		email: email,
	}
}

// Start registers and starts all cron jobs
func (m *CronManager) Start() error {
	log.Println("Starting cron jobs...")

	if err := m.registerJobs(); err != nil {
		return err
	}

	m.cron.Start()
	log.Println("Cron jobs started successfully")
	return nil
}

// Stop stops all cron jobs and waits for running ones to finish
func (m *CronManager) Stop() {
	log.Println("Stopping cron jobs...")
	ctx := m.cron.Stop()
	<-ctx.Done()
	log.Println("Cron jobs stopped")
}

// registerJobs registers all jobs with their schedules
func (m *CronManager) registerJobs() error {
	// Every 6 hours: remind instructors of pending payment requests
	_, err := m.cron.AddFunc("0 0 */6 * * *", func() {
		m.runJob("pending_requests_digest", m.SendPendingRequestsDigest)
	})
	if err != nil {
		return err
	}

	// Daily at 3 AM: purge expired auth artifacts
	_, err = m.cron.AddFunc("0 0 3 * * *", func() {
		m.runJob("cleanup_expired_tokens", m.CleanupExpiredTokens)
	})
	if err != nil {
		return err
	}

	// Daily at 4 AM: fold stale device access counters into the audit trail
	_, err = m.cron.AddFunc("0 0 4 * * *", func() {
		m.runJob("device_access_stats", m.AggregateDeviceAccessStats)
	})
	if err != nil {
		return err
	}

	return nil
}

// runJob wraps a job with start/finish logging into cron_job_logs
func (m *CronManager) runJob(name string, job func() (string, error)) {
	started := time.Now()
	entry := model.CronJobLog{
		JobName:   name,
		Status:    "started",
		StartedAt: started,
	}
	if err := m.db.Create(&entry).Error; err != nil {
		log.Printf("cron %s: could not record start: %v", name, err)
	}

	message, err := job()
	completed := time.Now()
	entry.CompletedAt = &completed
	entry.Duration = int(completed.Sub(started).Milliseconds())
	entry.Message = message
	if err != nil {
		entry.Status = "failed"
		entry.ErrorMsg = err.Error()
		log.Printf("cron %s failed: %v", name, err)
	} else {
		entry.Status = "completed"
	}

	if err := m.db.Save(&entry).Error; err != nil {
		log.Printf("cron %s: could not record result: %v", name, err)
	}
}
