package model

import (
	"time"

	"gorm.io/gorm"
)

// SectionProgress tracks per-student watch state for one course section.
// One row exists per (student_id, section_id); writes are upserts.
type SectionProgress struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	StudentID uint `gorm:"not null;uniqueIndex:idx_section_progress_student_section" json:"student_id"`
	SectionID uint `gorm:"not null;uniqueIndex:idx_section_progress_student_section" json:"section_id"`

	// IsCompleted is monotonic: once true it never reverts on later updates
	IsCompleted          bool       `gorm:"default:false" json:"is_completed"`
	WatchTimeSeconds     float64    `gorm:"default:0" json:"watch_time_seconds"`
	VideoDurationSeconds float64    `gorm:"default:0" json:"video_duration_seconds"`
	WatchPercentage      float64    `gorm:"default:0" json:"watch_percentage"`
	LastWatchedPosition  float64    `gorm:"default:0" json:"last_watched_position"`
	LastWatchedAt        *time.Time `json:"last_watched_at,omitempty"`

	// Relationships
	Student User          `gorm:"foreignKey:StudentID" json:"-"`
	Section CourseSection `gorm:"foreignKey:SectionID" json:"-"`
}

// TableName specifies the table name for SectionProgress
func (SectionProgress) TableName() string {
	return "section_progress"
}
