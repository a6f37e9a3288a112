package services

import (
	"errors"
	"time"

	"github.com/xeikhprince488/mansolehubtraining-sub000/model"
	"gorm.io/gorm"
)

// CompletionThreshold is the watch percentage at which a section counts as
// completed even without an explicit ended event
const CompletionThreshold = 90.0

// ProgressUpdate is one playback telemetry report
type ProgressUpdate struct {
	WatchTimeSeconds     float64
	VideoDurationSeconds float64
	Position             float64
	Ended                bool
}

// ComputeWatchPercentage clamps watch time against duration into [0, 100]
func ComputeWatchPercentage(watchTime, duration float64) float64 {
	if duration <= 0 {
		return 0
	}
	pct := watchTime / duration * 100
	if pct > 100 {
		pct = 100
	}
	if pct < 0 {
		pct = 0
	}
	return pct
}

// ApplyProgress folds an update into an existing progress row. Completion is
// monotonic: a later report with a lower percentage never clears it.
func ApplyProgress(progress *model.SectionProgress, update ProgressUpdate, now time.Time) {
	progress.WatchTimeSeconds = update.WatchTimeSeconds
	if update.VideoDurationSeconds > 0 {
		progress.VideoDurationSeconds = update.VideoDurationSeconds
	}
	progress.WatchPercentage = ComputeWatchPercentage(update.WatchTimeSeconds, progress.VideoDurationSeconds)
	progress.LastWatchedPosition = update.Position
	progress.LastWatchedAt = &now

	if update.Ended || progress.WatchPercentage >= CompletionThreshold {
		progress.IsCompleted = true
	}
}

// ProgressService records per-section watch state
type ProgressService struct {
	db *gorm.DB
}

// NewProgressService creates a new progress service
func NewProgressService(db *gorm.DB) *ProgressService {
	return &ProgressService{db: db}
}

// RecordProgress upserts the (student, section) row with the latest telemetry.
// Callers report every 10-15 seconds during playback plus on pause/end, but
// any cadence is tolerated; this is advisory telemetry apart from the
// completion flag.
func (s *ProgressService) RecordProgress(studentID, sectionID uint, update ProgressUpdate) (*model.SectionProgress, error) {
	var section model.CourseSection
	if err := s.db.First(&section, sectionID).Error; err != nil {
		return nil, err
	}

	now := time.Now()
	var progress model.SectionProgress

	err := s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("student_id = ? AND section_id = ?", studentID, sectionID).
			First(&progress).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			progress = model.SectionProgress{
				StudentID: studentID,
				SectionID: sectionID,
			}
		} else if err != nil {
			return err
		}

		ApplyProgress(&progress, update, now)

		if progress.ID == 0 {
			if err := tx.Create(&progress).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					// Concurrent first report; fold into the winner's row
					if err := tx.Where("student_id = ? AND section_id = ?", studentID, sectionID).
						First(&progress).Error; err != nil {
						return err
					}
					ApplyProgress(&progress, update, now)
					return tx.Save(&progress).Error
				}
				return err
			}
			return nil
		}
		return tx.Save(&progress).Error
	})
	if err != nil {
		return nil, err
	}

	return &progress, nil
}

// CourseProgress summarizes a student's progress through a course
type CourseProgress struct {
	CompletedSections int64   `json:"completed_sections"`
	TotalSections     int64   `json:"total_sections"`
	Percentage        float64 `json:"percentage"`
}

// CourseSummary computes the completed/total counts for a course
func (s *ProgressService) CourseSummary(studentID, courseID uint) (*CourseProgress, error) {
	summary := &CourseProgress{}

	err := s.db.Model(&model.CourseSection{}).
		Where("course_id = ? AND is_published = ?", courseID, true).
		Count(&summary.TotalSections).Error
	if err != nil {
		return nil, err
	}

	err = s.db.Model(&model.SectionProgress{}).
		Joins("JOIN course_sections ON course_sections.id = section_progress.section_id").
		Where("section_progress.student_id = ? AND course_sections.course_id = ? AND section_progress.is_completed = ?",
			studentID, courseID, true).
		Count(&summary.CompletedSections).Error
	if err != nil {
		return nil, err
	}

	if summary.TotalSections > 0 {
		summary.Percentage = float64(summary.CompletedSections) / float64(summary.TotalSections) * 100
	}
	return summary, nil
}
