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

// SubmissionHandler wires submission HTTP routes.
type SubmissionHandler struct {
	service   service.SubmissionService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewSubmissionHandler constructs the handler.
func NewSubmissionHandler(service service.SubmissionService, validator *validator.Validate, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "submission_handler").Logger(),
	}
}

// Register attaches submission endpoints to the router group.
func (h *SubmissionHandler) Register(router fiber.Router) {
	staffOnly := middleware.RequireRole(models.RoleInstructor, models.RoleAdmin)
	studentOnly := middleware.RequireRole(models.RoleStudent)

	router.Get("/assignments/:assignmentId", staffOnly, h.listByAssignment)
	router.Get("/student", h.listOwn)
	router.Get("/student/:studentId", h.listForStudent)
	router.Put("/assignments/:assignmentId", studentOnly, h.submit)
	router.Patch("/:id/grade", staffOnly, h.grade)
}

func (h *SubmissionHandler) listByAssignment(c *fiber.Ctx) error {
	assignmentID, err := parseUintParam(c, "assignmentId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submissions, err := h.service.ListByAssignment(c.Context(), actorFromContext(c), assignmentID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submissions retrieved", submissions)
}

func (h *SubmissionHandler) listOwn(c *fiber.Ctx) error {
	actor := actorFromContext(c)

	submissions, err := h.service.ListForStudent(c.Context(), actor, actor.ID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submissions retrieved", submissions)
}

func (h *SubmissionHandler) listForStudent(c *fiber.Ctx) error {
	studentID, err := parseUintParam(c, "studentId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submissions, err := h.service.ListForStudent(c.Context(), actorFromContext(c), studentID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submissions retrieved", submissions)
}

func (h *SubmissionHandler) submit(c *fiber.Ctx) error {
	assignmentID, err := parseUintParam(c, "assignmentId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.SubmissionSubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	submission, err := h.service.Submit(c.Context(), userIDFromContext(c), assignmentID, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission recorded", submission)
}

func (h *SubmissionHandler) grade(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.SubmissionGradeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	submission, err := h.service.Grade(c.Context(), actorFromContext(c), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission graded", submission)
}

func (h *SubmissionHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "submission not found")
	case errors.Is(err, service.ErrAssignmentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "assignment not found")
	case errors.Is(err, service.ErrStudentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "student not found")
	case errors.Is(err, service.ErrNotEnrolledInCourse):
		return utils.SendError(c, fiber.StatusForbidden, "you are not enrolled in this course")
	case errors.Is(err, service.ErrAssignmentPastDue):
		return utils.SendError(c, fiber.StatusBadRequest, "this assignment is past due")
	case errors.Is(err, service.ErrNotAssignmentOwner):
		return utils.SendError(c, fiber.StatusForbidden, "you can only view submissions for your own assignments")
	case errors.Is(err, service.ErrSubmissionAccessDenied):
		return utils.SendError(c, fiber.StatusForbidden, "you can only view your own submissions")
	case errors.Is(err, service.ErrGradeExceedsPoints):
		return utils.SendError(c, fiber.StatusBadRequest, "grade exceeds assignment points")
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
