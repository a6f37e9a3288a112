package model

import (
	"time"

	"gorm.io/gorm"
)

// Course represents a purchasable training course
type Course struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	InstructorID uint           `gorm:"not null;index" json:"instructor_id"`
	Title        string         `gorm:"not null" json:"title"`
	Slug         string         `gorm:"uniqueIndex;not null" json:"slug"`
	Description  string         `gorm:"type:text" json:"description"`
	ImageURL     string         `gorm:"type:text" json:"image_url"`
	Price        float64        `gorm:"default:0" json:"price"` // plain numeric amount in Currency
	Currency     string         `gorm:"type:varchar(10);default:'PKR'" json:"currency"`
	IsPublished  bool           `gorm:"default:false;index" json:"is_published"`

	// Relationships
	Instructor User            `gorm:"foreignKey:InstructorID" json:"instructor,omitempty"`
	Sections   []CourseSection `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"sections,omitempty"`
	Purchases  []Purchase      `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for Course
func (Course) TableName() string {
	return "courses"
}

// CourseSection represents one ordered unit of course content
type CourseSection struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	CourseID    uint           `gorm:"not null;index" json:"course_id"`
	Title       string         `gorm:"not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	Position    int            `gorm:"not null" json:"position"` // 1-based order within the course
	VideoURL    string         `gorm:"type:text" json:"video_url,omitempty"`
	Duration    int            `gorm:"default:0" json:"duration_seconds"`
	IsFree      bool           `gorm:"default:false" json:"is_free"`
	IsPublished bool           `gorm:"default:false" json:"is_published"`

	// Relationships
	Course   Course            `gorm:"foreignKey:CourseID" json:"course,omitempty"`
	Progress []SectionProgress `gorm:"foreignKey:SectionID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for CourseSection
func (CourseSection) TableName() string {
	return "course_sections"
}
