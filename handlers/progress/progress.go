package progress

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/xeikhprince488/mansolehubtraining-sub000/services"
	"github.com/xeikhprince488/mansolehubtraining-sub000/utils/middleware"
	"github.com/xeikhprince488/mansolehubtraining-sub000/utils/response"
	"github.com/xeikhprince488/mansolehubtraining-sub000/utils/validation"
	"gorm.io/gorm"
)

// ProgressHandler handles watch-progress telemetry and summaries
type ProgressHandler struct {
	progress  *services.ProgressService
	validator *validation.Validator
}

// NewProgressHandler creates a new progress handler
func NewProgressHandler(progress *services.ProgressService) *ProgressHandler {
	return &ProgressHandler{
		progress:  progress,
		validator: validation.NewValidator(),
	}
}

// RecordProgressRequest carries one playback telemetry report
type RecordProgressRequest struct {
	WatchTimeSeconds     float64 `json:"watch_time_seconds" validate:"gte=0"`
	VideoDurationSeconds float64 `json:"video_duration_seconds" validate:"gte=0"`
	Position             float64 `json:"position" validate:"gte=0"`
	Ended                bool    `json:"ended"`
}

// RecordProgress handles POST /api/v1/sections/:sectionId/progress.
// Completion is monotonic: once a section is completed it stays completed
// no matter what later reports say.
func (h *ProgressHandler) RecordProgress(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	sectionID, err := strconv.ParseUint(c.Params("sectionId"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid section id")
	}

	var req RecordProgressRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, validation.FormatValidationErrors(err))
	}

	progress, err := h.progress.RecordProgress(userID, uint(sectionID), services.ProgressUpdate{
		WatchTimeSeconds:     req.WatchTimeSeconds,
		VideoDurationSeconds: req.VideoDurationSeconds,
		Position:             req.Position,
		Ended:                req.Ended,
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Section not found")
		}
		return response.InternalServerError(c, "Failed to record progress")
	}

	return response.Success(c, progress)
}

// GetCourseProgress handles GET /api/v1/courses/:courseId/progress.
// The caller's own completed/total summary for the course.
func (h *ProgressHandler) GetCourseProgress(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	courseID, err := strconv.ParseUint(c.Params("courseId"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid course id")
	}

	summary, err := h.progress.CourseSummary(userID, uint(courseID))
	if err != nil {
		return response.InternalServerError(c, "Failed to load course progress")
	}

	return response.Success(c, summary)
}
