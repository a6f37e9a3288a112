package course

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/xeikhprince488/mansolehubtraining-sub000/model"
	"github.com/xeikhprince488/mansolehubtraining-sub000/services"
	"github.com/xeikhprince488/mansolehubtraining-sub000/utils/middleware"
	"github.com/xeikhprince488/mansolehubtraining-sub000/utils/response"
	"github.com/xeikhprince488/mansolehubtraining-sub000/utils/validation"
	"gorm.io/gorm"
)

// CourseHandler handles the course catalog and authoring endpoints
type CourseHandler struct {
	db        *gorm.DB
	content   *services.ContentService
	payments  *services.PaymentService
	devices   *services.DeviceService
	validator *validation.Validator
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(db *gorm.DB, content *services.ContentService, payments *services.PaymentService, devices *services.DeviceService) *CourseHandler {
	return &CourseHandler{
		db:        db,
		content:   content,
		payments:  payments,
		devices:   devices,
		validator: validation.NewValidator(),
	}
}

var slugCleaner = regexp.MustCompile(`[^a-z0-9]+`)

func makeSlug(title string) string {
	slug := strings.ToLower(strings.TrimSpace(title))
	slug = slugCleaner.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

// ensureUniqueSlug appends a numeric suffix until the slug is free
func (h *CourseHandler) ensureUniqueSlug(base string, excludeID uint) (string, error) {
	slug := base
	for i := 2; ; i++ {
		var count int64
		query := h.db.Model(&model.Course{}).Where("slug = ?", slug)
		if excludeID != 0 {
			query = query.Where("id <> ?", excludeID)
		}
		if err := query.Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

// ownedCourse loads a course only when the caller owns it (admins see all).
// Non-owners get the same not-found as a bad id.
func (h *CourseHandler) ownedCourse(c *fiber.Ctx, courseID uint) (*model.Course, error) {
	user, ok := middleware.GetUser(c)
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}

	var course model.Course
	query := h.db.Where("id = ?", courseID)
	if user.Role != model.RoleAdmin {
		query = query.Where("instructor_id = ?", user.ID)
	}
	if err := query.First(&course).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

// ListCourses handles GET /api/v1/courses.
// Public catalog: published courses only, paginated.
func (h *CourseHandler) ListCourses(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	search := strings.TrimSpace(c.Query("search"))

	query := h.db.Model(&model.Course{}).Where("is_published = ?", true)
	if search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to load courses")
	}

	pagination := response.CalculatePagination(page, limit, total)

	var courses []model.Course
	err := query.Order("created_at DESC").
		Offset((pagination.CurrentPage - 1) * pagination.PerPage).
		Limit(pagination.PerPage).
		Find(&courses).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to load courses")
	}

	return response.Paginated(c, courses, pagination)
}

// GetCourse handles GET /api/v1/courses/:idOrSlug.
// Published courses are public; drafts resolve only for their owner.
func (h *CourseHandler) GetCourse(c *fiber.Ctx) error {
	idOrSlug := c.Params("idOrSlug")

	var course model.Course
	var err error
	if id, convErr := strconv.ParseUint(idOrSlug, 10, 32); convErr == nil {
		err = h.db.First(&course, uint(id)).Error
	} else {
		err = h.db.Where("slug = ?", idOrSlug).First(&course).Error
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to load course")
	}

	if !course.IsPublished {
		user, ok := middleware.GetUser(c)
		if !ok || (user.ID != course.InstructorID && user.Role != model.RoleAdmin) {
			return response.NotFound(c, "Course not found")
		}
	}

	var sectionCount int64
	h.db.Model(&model.CourseSection{}).
		Where("course_id = ? AND is_published = ?", course.ID, true).
		Count(&sectionCount)

	return response.Success(c, fiber.Map{
		"course":        course,
		"section_count": sectionCount,
	})
}

// CourseRequest represents the course create/update body
type CourseRequest struct {
	Title       string  `json:"title" validate:"required,min=3,max=255"`
	Description string  `json:"description" validate:"omitempty,max=10000"`
	ImageURL    string  `json:"image_url" validate:"omitempty,url,max=2000"`
	Price       float64 `json:"price" validate:"gte=0"`
	Currency    string  `json:"currency" validate:"omitempty,len=3"`
}

// CreateCourse handles POST /api/v1/instructor/courses
func (h *CourseHandler) CreateCourse(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	var req CourseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, validation.FormatValidationErrors(err))
	}

	slug, err := h.ensureUniqueSlug(makeSlug(req.Title), 0)
	if err != nil {
		return response.InternalServerError(c, "Failed to create course")
	}

	currency := strings.ToUpper(req.Currency)
	if currency == "" {
		currency = "PKR"
	}

	course := model.Course{
		InstructorID: user.ID,
		Title:        validation.SanitizeString(req.Title),
		Slug:         slug,
		Description:  req.Description,
		ImageURL:     req.ImageURL,
		Price:        req.Price,
		Currency:     currency,
	}
	if err := h.db.Create(&course).Error; err != nil {
		return response.InternalServerError(c, "Failed to create course")
	}
	return response.Created(c, course)
}

// UpdateCourse handles PUT /api/v1/instructor/courses/:courseId
func (h *CourseHandler) UpdateCourse(c *fiber.Ctx) error {
	courseID, err := strconv.ParseUint(c.Params("courseId"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid course id")
	}

	course, err := h.ownedCourse(c, uint(courseID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to load course")
	}

	var req CourseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, validation.FormatValidationErrors(err))
	}

	if req.Title != course.Title {
		slug, err := h.ensureUniqueSlug(makeSlug(req.Title), course.ID)
		if err != nil {
			return response.InternalServerError(c, "Failed to update course")
		}
		course.Slug = slug
	}
	course.Title = validation.SanitizeString(req.Title)
	course.Description = req.Description
	course.ImageURL = req.ImageURL
	course.Price = req.Price
	if req.Currency != "" {
		course.Currency = strings.ToUpper(req.Currency)
	}

	if err := h.db.Save(course).Error; err != nil {
		return response.InternalServerError(c, "Failed to update course")
	}
	return response.SuccessWithMessage(c, "Course updated successfully", course)
}

// PublishCourse handles POST /api/v1/instructor/courses/:courseId/publish.
// Requires at least one published section so buyers never get an empty course.
func (h *CourseHandler) PublishCourse(c *fiber.Ctx) error {
	courseID, err := strconv.ParseUint(c.Params("courseId"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid course id")
	}

	course, err := h.ownedCourse(c, uint(courseID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to load course")
	}

	var sectionCount int64
	if err := h.db.Model(&model.CourseSection{}).
		Where("course_id = ? AND is_published = ?", course.ID, true).
		Count(&sectionCount).Error; err != nil {
		return response.InternalServerError(c, "Failed to publish course")
	}
	if sectionCount == 0 {
		return response.BadRequest(c, "Publish at least one section before publishing the course")
	}

	course.IsPublished = true
	if err := h.db.Save(course).Error; err != nil {
		return response.InternalServerError(c, "Failed to publish course")
	}
	return response.SuccessWithMessage(c, "Course published", course)
}

// UnpublishCourse handles POST /api/v1/instructor/courses/:courseId/unpublish
func (h *CourseHandler) UnpublishCourse(c *fiber.Ctx) error {
	courseID, err := strconv.ParseUint(c.Params("courseId"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid course id")
	}

	course, err := h.ownedCourse(c, uint(courseID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to load course")
	}

	course.IsPublished = false
	if err := h.db.Save(course).Error; err != nil {
		return response.InternalServerError(c, "Failed to unpublish course")
	}
	return response.SuccessWithMessage(c, "Course unpublished", course)
}

// DeleteCourse handles DELETE /api/v1/instructor/courses/:courseId.
// Soft delete; purchases and requests survive as the audit trail.
func (h *CourseHandler) DeleteCourse(c *fiber.Ctx) error {
	courseID, err := strconv.ParseUint(c.Params("courseId"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid course id")
	}

	course, err := h.ownedCourse(c, uint(courseID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to load course")
	}

	if err := h.db.Delete(course).Error; err != nil {
		return response.InternalServerError(c, "Failed to delete course")
	}
	return response.SuccessWithMessage(c, "Course deleted", nil)
}

// ListInstructorCourses handles GET /api/v1/instructor/courses.
// Includes drafts and per-course student counts.
func (h *CourseHandler) ListInstructorCourses(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	var courses []model.Course
	query := h.db.Order("created_at DESC")
	if user.Role != model.RoleAdmin {
		query = query.Where("instructor_id = ?", user.ID)
	}
	if err := query.Find(&courses).Error; err != nil {
		return response.InternalServerError(c, "Failed to load courses")
	}

	type courseWithStats struct {
		model.Course
		StudentCount int64 `json:"student_count"`
	}

	rows := make([]courseWithStats, 0, len(courses))
	for _, course := range courses {
		row := courseWithStats{Course: course}
		h.db.Model(&model.Purchase{}).Where("course_id = ?", course.ID).Count(&row.StudentCount)
		rows = append(rows, row)
	}

	return response.Success(c, fiber.Map{"courses": rows, "count": len(rows)})
}

// ListBankAccounts handles GET /api/v1/bank-accounts.
// Public: the accounts shown on the manual payment page.
func (h *CourseHandler) ListBankAccounts(c *fiber.Ctx) error {
	var accounts []model.BankAccount
	if err := h.db.Where("is_active = ?", true).Find(&accounts).Error; err != nil {
		return response.InternalServerError(c, "Failed to load bank accounts")
	}
	return response.Success(c, fiber.Map{"accounts": accounts})
}
