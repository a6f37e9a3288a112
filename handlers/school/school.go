package school

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/xeikhprince488/mansolehubtraining-sub000/model"
	"github.com/xeikhprince488/mansolehubtraining-sub000/utils/response"
	"github.com/xeikhprince488/mansolehubtraining-sub000/utils/validation"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const dateLayout = "2006-01-02"

// SchoolHandler handles the school roster and attendance endpoints
type SchoolHandler struct {
	db        *gorm.DB
	validator *validation.Validator
}

// NewSchoolHandler creates a new school handler
func NewSchoolHandler(db *gorm.DB) *SchoolHandler {
	return &SchoolHandler{
		db:        db,
		validator: validation.NewValidator(),
	}
}

// TeacherRequest represents the teacher create/update body
type TeacherRequest struct {
	Name      string `json:"name" validate:"required,min=2,max=255"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"omitempty,max=20"`
	Subject   string `json:"subject" validate:"omitempty,max=120"`
	ClassName string `json:"class_name" validate:"omitempty,max=50"`
}

// ListTeachers handles GET /api/v1/school/teachers
func (h *SchoolHandler) ListTeachers(c *fiber.Ctx) error {
	var teachers []model.SchoolTeacher
	query := h.db.Order("name ASC")
	if class := c.Query("class"); class != "" {
		query = query.Where("class_name = ?", class)
	}
	if err := query.Find(&teachers).Error; err != nil {
		return response.InternalServerError(c, "Failed to load teachers")
	}
	return response.Success(c, fiber.Map{"teachers": teachers, "count": len(teachers)})
}

// CreateTeacher handles POST /api/v1/school/teachers
func (h *SchoolHandler) CreateTeacher(c *fiber.Ctx) error {
	var req TeacherRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, validation.FormatValidationErrors(err))
	}

	teacher := model.SchoolTeacher{
		Name:      validation.SanitizeString(req.Name),
		Email:     strings.ToLower(req.Email),
		Phone:     req.Phone,
		Subject:   req.Subject,
		ClassName: req.ClassName,
	}
	if err := h.db.Create(&teacher).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return response.Conflict(c, "A teacher with this email already exists")
		}
		return response.InternalServerError(c, "Failed to create teacher")
	}
	return response.Created(c, teacher)
}

// UpdateTeacher handles PUT /api/v1/school/teachers/:id
func (h *SchoolHandler) UpdateTeacher(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid teacher id")
	}

	var teacher model.SchoolTeacher
	if err := h.db.First(&teacher, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Teacher not found")
		}
		return response.InternalServerError(c, "Failed to load teacher")
	}

	var req TeacherRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, validation.FormatValidationErrors(err))
	}

	teacher.Name = validation.SanitizeString(req.Name)
	teacher.Email = strings.ToLower(req.Email)
	teacher.Phone = req.Phone
	teacher.Subject = req.Subject
	teacher.ClassName = req.ClassName

	if err := h.db.Save(&teacher).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return response.Conflict(c, "A teacher with this email already exists")
		}
		return response.InternalServerError(c, "Failed to update teacher")
	}
	return response.SuccessWithMessage(c, "Teacher updated successfully", teacher)
}

// DeleteTeacher handles DELETE /api/v1/school/teachers/:id
func (h *SchoolHandler) DeleteTeacher(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid teacher id")
	}

	res := h.db.Delete(&model.SchoolTeacher{}, uint(id))
	if res.Error != nil {
		return response.InternalServerError(c, "Failed to delete teacher")
	}
	if res.RowsAffected == 0 {
		return response.NotFound(c, "Teacher not found")
	}
	return response.SuccessWithMessage(c, "Teacher deleted", nil)
}

// StudentRequest represents the student create/update body
type StudentRequest struct {
	Name          string `json:"name" validate:"required,min=2,max=255"`
	RollNumber    string `json:"roll_number" validate:"required,max=30"`
	ClassName     string `json:"class_name" validate:"required,max=50"`
	GuardianPhone string `json:"guardian_phone" validate:"omitempty,max=20"`
}

// ListStudents handles GET /api/v1/school/students
func (h *SchoolHandler) ListStudents(c *fiber.Ctx) error {
	var students []model.SchoolStudent
	query := h.db.Order("roll_number ASC")
	if class := c.Query("class"); class != "" {
		query = query.Where("class_name = ?", class)
	}
	if err := query.Find(&students).Error; err != nil {
		return response.InternalServerError(c, "Failed to load students")
	}
	return response.Success(c, fiber.Map{"students": students, "count": len(students)})
}

// CreateStudent handles POST /api/v1/school/students
func (h *SchoolHandler) CreateStudent(c *fiber.Ctx) error {
	var req StudentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, validation.FormatValidationErrors(err))
	}

	student := model.SchoolStudent{
		Name:          validation.SanitizeString(req.Name),
		RollNumber:    strings.TrimSpace(req.RollNumber),
		ClassName:     req.ClassName,
		GuardianPhone: req.GuardianPhone,
	}
	if err := h.db.Create(&student).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return response.Conflict(c, "A student with this roll number already exists")
		}
		return response.InternalServerError(c, "Failed to create student")
	}
	return response.Created(c, student)
}

// UpdateStudent handles PUT /api/v1/school/students/:id
func (h *SchoolHandler) UpdateStudent(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid student id")
	}

	var student model.SchoolStudent
	if err := h.db.First(&student, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Student not found")
		}
		return response.InternalServerError(c, "Failed to load student")
	}

	var req StudentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, validation.FormatValidationErrors(err))
	}

	student.Name = validation.SanitizeString(req.Name)
	student.RollNumber = strings.TrimSpace(req.RollNumber)
	student.ClassName = req.ClassName
	student.GuardianPhone = req.GuardianPhone

	if err := h.db.Save(&student).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return response.Conflict(c, "A student with this roll number already exists")
		}
		return response.InternalServerError(c, "Failed to update student")
	}
	return response.SuccessWithMessage(c, "Student updated successfully", student)
}

// DeleteStudent handles DELETE /api/v1/school/students/:id
func (h *SchoolHandler) DeleteStudent(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid student id")
	}

	res := h.db.Delete(&model.SchoolStudent{}, uint(id))
	if res.Error != nil {
		return response.InternalServerError(c, "Failed to delete student")
	}
	if res.RowsAffected == 0 {
		return response.NotFound(c, "Student not found")
	}
	return response.SuccessWithMessage(c, "Student deleted", nil)
}

// AttendanceEntry is one mark in a bulk attendance submission
type AttendanceEntry struct {
	StudentID uint   `json:"student_id" validate:"required"`
	Status    string `json:"status" validate:"required,oneof=present absent leave"`
	Note      string `json:"note" validate:"omitempty,max=500"`
}

// MarkAttendanceRequest marks a class's attendance for one date
type MarkAttendanceRequest struct {
	TeacherID uint              `json:"teacher_id" validate:"required"`
	Date      string            `json:"date" validate:"required"`
	Entries   []AttendanceEntry `json:"entries" validate:"required,min=1,dive"`
}

// MarkAttendance handles POST /api/v1/school/attendance.
// Upserts per (student, date): re-marking the same day updates in place.
func (h *SchoolHandler) MarkAttendance(c *fiber.Ctx) error {
	var req MarkAttendanceRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, validation.FormatValidationErrors(err))
	}

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return response.ValidationError(c, map[string]string{"date": "date must be YYYY-MM-DD"})
	}

	var teacherCount int64
	if err := h.db.Model(&model.SchoolTeacher{}).Where("id = ?", req.TeacherID).Count(&teacherCount).Error; err != nil {
		return response.InternalServerError(c, "Failed to mark attendance")
	}
	if teacherCount == 0 {
		return response.NotFound(c, "Teacher not found")
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		for _, entry := range req.Entries {
			record := model.AttendanceRecord{
				StudentID: entry.StudentID,
				TeacherID: req.TeacherID,
				Date:      date,
				Status:    entry.Status,
				Note:      entry.Note,
			}
			err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "student_id"}, {Name: "date"}},
				DoUpdates: clause.Assignments(map[string]interface{}{
					"teacher_id": req.TeacherID,
					"status":     entry.Status,
					"note":       entry.Note,
				}),
			}).Create(&record).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to mark attendance")
	}

	return response.SuccessWithMessage(c, "Attendance recorded", fiber.Map{
		"date":    req.Date,
		"entries": len(req.Entries),
	})
}

// GetAttendance handles GET /api/v1/school/attendance.
// Filter by date, class or student; defaults to today.
func (h *SchoolHandler) GetAttendance(c *fiber.Ctx) error {
	dateStr := c.Query("date", time.Now().Format(dateLayout))
	date, err := time.Parse(dateLayout, dateStr)
	if err != nil {
		return response.BadRequest(c, "date must be YYYY-MM-DD")
	}

	query := h.db.Model(&model.AttendanceRecord{}).
		Preload("Student").
		Where("date = ?", date)

	if class := c.Query("class"); class != "" {
		query = query.Joins("JOIN school_students ON school_students.id = attendance_records.student_id").
			Where("school_students.class_name = ?", class)
	}
	if studentID := c.Query("student_id"); studentID != "" {
		id, err := strconv.ParseUint(studentID, 10, 32)
		if err != nil {
			return response.BadRequest(c, "Invalid student_id")
		}
		query = query.Where("attendance_records.student_id = ?", uint(id))
	}

	var records []model.AttendanceRecord
	if err := query.Order("attendance_records.student_id ASC").Find(&records).Error; err != nil {
		return response.InternalServerError(c, "Failed to load attendance")
	}

	return response.Success(c, fiber.Map{
		"date":    dateStr,
		"records": records,
		"count":   len(records),
	})
}

// GetStudentAttendanceSummary handles GET /api/v1/school/students/:id/attendance-summary.
// Counts per status over an optional date range.
func (h *SchoolHandler) GetStudentAttendanceSummary(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid student id")
	}

	var student model.SchoolStudent
	if err := h.db.First(&student, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Student not found")
		}
		return response.InternalServerError(c, "Failed to load student")
	}

	query := h.db.Model(&model.AttendanceRecord{}).Where("student_id = ?", student.ID)
	if from := c.Query("from"); from != "" {
		fromDate, err := time.Parse(dateLayout, from)
		if err != nil {
			return response.BadRequest(c, "from must be YYYY-MM-DD")
		}
		query = query.Where("date >= ?", fromDate)
	}
	if to := c.Query("to"); to != "" {
		toDate, err := time.Parse(dateLayout, to)
		if err != nil {
			return response.BadRequest(c, "to must be YYYY-MM-DD")
		}
		query = query.Where("date <= ?", toDate)
	}

	type statusCount struct {
		Status string
		Count  int64
	}
	var counts []statusCount
	if err := query.Select("status, COUNT(*) AS count").Group("status").Scan(&counts).Error; err != nil {
		return response.InternalServerError(c, "Failed to load attendance summary")
	}

	summary := fiber.Map{
		model.AttendancePresent: int64(0),
		model.AttendanceAbsent:  int64(0),
		model.AttendanceLeave:   int64(0),
	}
	var total int64
	for _, row := range counts {
		summary[row.Status] = row.Count
		total += row.Count
	}

	return response.Success(c, fiber.Map{
		"student": student,
		"summary": summary,
		"total":   total,
	})
}
