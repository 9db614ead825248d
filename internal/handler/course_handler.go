package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/hanafi-dev/lms-go-api/internal/dto"
	"github.com/hanafi-dev/lms-go-api/internal/middleware"
	"github.com/hanafi-dev/lms-go-api/internal/models"
	"github.com/hanafi-dev/lms-go-api/internal/service"
	"github.com/hanafi-dev/lms-go-api/internal/utils"
)

// CourseHandler wires course HTTP routes.
type CourseHandler struct {
	courses     service.CourseService
	assignments service.AssignmentService
	validator   *validator.Validate
	logger      zerolog.Logger
}

// NewCourseHandler constructs the handler.
func NewCourseHandler(courses service.CourseService, assignments service.AssignmentService, validator *validator.Validate, logger zerolog.Logger) *CourseHandler {
	return &CourseHandler{
		courses:     courses,
		assignments: assignments,
		validator:   validator,
		logger:      logger.With().Str("component", "course_handler").Logger(),
	}
}

// Register attaches course endpoints to the router group.
func (h *CourseHandler) Register(router fiber.Router) {
	staffOnly := middleware.RequireRole(models.RoleInstructor, models.RoleAdmin)

	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Get("/:id/assignments", h.listAssignments)
	router.Post("", staffOnly, h.create)
	router.Patch("/:id", staffOnly, h.update)
	router.Delete("/:id", staffOnly, h.delete)
	router.Delete("/:id/students/:studentId", staffOnly, h.removeStudent)
}

func (h *CourseHandler) list(c *fiber.Ctx) error {
	courses, err := h.courses.List(c.Context(), actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "courses retrieved", courses)
}

func (h *CourseHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	course, err := h.courses.Get(c.Context(), actorFromContext(c), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "course retrieved", course)
}

func (h *CourseHandler) listAssignments(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	query := service.AssignmentListQuery{CourseID: &id, Sort: c.Query("sort")}
	assignments, err := h.assignments.List(c.Context(), actorFromContext(c), query)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "course assignments retrieved", assignments)
}

func (h *CourseHandler) create(c *fiber.Ctx) error {
	var payload dto.CourseCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	course, err := h.courses.Create(c.Context(), actorFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "course created", course)
}

func (h *CourseHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.CourseUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	course, err := h.courses.Update(c.Context(), actorFromContext(c), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "course updated", course)
}

func (h *CourseHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.courses.Delete(c.Context(), actorFromContext(c), id); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "course and all associated data deleted", fiber.Map{"id": id})
}

func (h *CourseHandler) removeStudent(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	studentID, err := parseUintParam(c, "studentId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.courses.RemoveStudent(c.Context(), actorFromContext(c), courseID, studentID); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "student removed from course", fiber.Map{"course_id": courseID, "student_id": studentID})
}

func (h *CourseHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrCourseNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "course not found")
	case errors.Is(err, service.ErrNotCourseOwner):
		return utils.SendError(c, fiber.StatusForbidden, "you can only manage your own courses")
	case errors.Is(err, service.ErrCourseAccessDenied):
		return utils.SendError(c, fiber.StatusForbidden, "you are not enrolled in this course")
	case errors.Is(err, service.ErrStudentNotEnrolled):
		return utils.SendError(c, fiber.StatusNotFound, "student is not enrolled in this course")
	case errors.Is(err, service.ErrAssignmentAccessDenied):
		return utils.SendError(c, fiber.StatusForbidden, "you are not enrolled in this course")
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
