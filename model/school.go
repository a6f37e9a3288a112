package model

import (
	"time"

	"gorm.io/gorm"
)

// SchoolTeacher represents a teacher in the secondary-school module
type SchoolTeacher struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Name      string         `gorm:"not null" json:"name"`
	Email     string         `gorm:"uniqueIndex;not null" json:"email"`
	Phone     string         `gorm:"type:varchar(30)" json:"phone,omitempty"`
	Subject   string         `gorm:"type:varchar(120)" json:"subject,omitempty"`
	ClassName string         `gorm:"type:varchar(50)" json:"class_name,omitempty"`

	// Relationships
	Attendance []AttendanceRecord `gorm:"foreignKey:TeacherID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for SchoolTeacher
func (SchoolTeacher) TableName() string {
	return "school_teachers"
}

// SchoolStudent represents a pupil in the secondary-school module
type SchoolStudent struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
	Name          string         `gorm:"not null" json:"name"`
	RollNumber    string         `gorm:"uniqueIndex;not null;type:varchar(30)" json:"roll_number"`
	ClassName     string         `gorm:"type:varchar(50);index" json:"class_name"`
	GuardianPhone string         `gorm:"type:varchar(30)" json:"guardian_phone,omitempty"`

	// Relationships
	Attendance []AttendanceRecord `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for SchoolStudent
func (SchoolStudent) TableName() string {
	return "school_students"
}

// Attendance statuses
const (
	AttendancePresent = "present"
	AttendanceAbsent  = "absent"
	AttendanceLeave   = "leave"
)

// AttendanceRecord is one attendance mark for a student on a given date.
// Unique per (student_id, date) so re-marking the same day updates in place.
type AttendanceRecord struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	StudentID uint      `gorm:"not null;uniqueIndex:idx_attendance_student_date" json:"student_id"`
	TeacherID uint      `gorm:"not null;index" json:"teacher_id"`
	Date      time.Time `gorm:"type:date;not null;uniqueIndex:idx_attendance_student_date" json:"date"`
	Status    string    `gorm:"type:varchar(10);not null" json:"status"` // present, absent, leave
	Note      string    `gorm:"type:text" json:"note,omitempty"`

	// Relationships
	Student SchoolStudent `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Teacher SchoolTeacher `gorm:"foreignKey:TeacherID" json:"teacher,omitempty"`
}

// TableName specifies the table name for AttendanceRecord
func (AttendanceRecord) TableName() string {
	return "attendance_records"
}
