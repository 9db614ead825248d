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

// EnrollmentHandler wires the enrollment lifecycle HTTP routes.
type EnrollmentHandler struct {
	service   service.EnrollmentService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewEnrollmentHandler constructs the handler.
func NewEnrollmentHandler(service service.EnrollmentService, validator *validator.Validate, logger zerolog.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "enrollment_handler").Logger(),
	}
}

// Register attaches enrollment endpoints to the router group. Enrolling and
// withdrawing are student-only; status and progress updates are open to any
// authenticated caller, with ownership enforced by the service. The enroll
// route additionally carries the rate limiter passed by the router.
func (h *EnrollmentHandler) Register(router fiber.Router, enrollLimiter fiber.Handler) {
	studentOnly := middleware.RequireRole(models.RoleStudent)

	if enrollLimiter != nil {
		router.Post("/enroll-by-code", studentOnly, enrollLimiter, h.enrollByCode)
	} else {
		router.Post("/enroll-by-code", studentOnly, h.enrollByCode)
	}
	router.Get("/student", studentOnly, h.listForStudent)
	router.Delete("/courses/:courseId/withdraw", studentOnly, h.withdraw)
	router.Put("/:id/status", h.updateStatus)
	router.Put("/:id/progress", h.updateProgress)
}

func (h *EnrollmentHandler) enrollByCode(c *fiber.Ctx) error {
	var payload dto.EnrollByCodeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	enrolled, err := h.service.EnrollByCode(c.Context(), userIDFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "successfully enrolled in course", enrolled)
}

func (h *EnrollmentHandler) listForStudent(c *fiber.Ctx) error {
	enrollments, err := h.service.ListForStudent(c.Context(), userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "enrollments retrieved", enrollments)
}

func (h *EnrollmentHandler) withdraw(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "courseId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Withdraw(c.Context(), userIDFromContext(c), courseID); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "successfully withdrawn from course", fiber.Map{"course_id": courseID})
}

func (h *EnrollmentHandler) updateStatus(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.EnrollmentStatusRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	enrollment, err := h.service.UpdateStatus(c.Context(), actorFromContext(c), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "enrollment status updated", enrollment)
}

func (h *EnrollmentHandler) updateProgress(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.EnrollmentProgressRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	enrollment, err := h.service.UpdateProgress(c.Context(), actorFromContext(c), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "enrollment progress updated", enrollment)
}

func (h *EnrollmentHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrEnrollmentCodeRequired):
		return utils.SendError(c, fiber.StatusBadRequest, "enrollment code is required")
	case errors.Is(err, service.ErrInvalidEnrollmentCode):
		return utils.SendError(c, fiber.StatusNotFound, "invalid enrollment code, course not found")
	case errors.Is(err, service.ErrCourseInactive):
		return utils.SendError(c, fiber.StatusForbidden, "course is not accepting enrollments")
	case errors.Is(err, service.ErrAlreadyEnrolled):
		return utils.SendError(c, fiber.StatusConflict, "you are already enrolled in this course")
	case errors.Is(err, service.ErrEnrollmentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "enrollment not found")
	case errors.Is(err, service.ErrInvalidTransition):
		return utils.SendError(c, fiber.StatusBadRequest, "invalid enrollment status transition")
	case errors.Is(err, service.ErrNotEnrollmentOwner):
		return utils.SendError(c, fiber.StatusForbidden, "enrollment belongs to another student")
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
