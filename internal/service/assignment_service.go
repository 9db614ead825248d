package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/hanafi-dev/lms-go-api/internal/dto"
	"github.com/hanafi-dev/lms-go-api/internal/models"
	"github.com/hanafi-dev/lms-go-api/internal/repository"
)

// Assignment errors.
var (
	ErrAssignmentNotFound     = errors.New("assignment not found")
	ErrNotAssignmentOwner     = errors.New("assignment belongs to another instructor")
	ErrAssignmentAccessDenied = errors.New("no access to this assignment")
	ErrInvalidDueDate         = errors.New("invalid due date")
	ErrDueDateNotFuture       = errors.New("due date must be in the future")
)

// AssignmentListQuery narrows assignment listings at the use-case level.
type AssignmentListQuery struct {
	CourseID *uint
	Type     string
	Sort     string
}

// AssignmentService exposes assignment use cases, including the fan-out of
// submission placeholders to enrolled students on creation.
type AssignmentService interface {
	List(ctx context.Context, actor Actor, query AssignmentListQuery) ([]dto.AssignmentResponse, error)
	Get(ctx context.Context, actor Actor, id uint) (dto.AssignmentResponse, error)
	Create(ctx context.Context, actor Actor, payload dto.AssignmentCreateRequest) (dto.AssignmentResponse, error)
	Update(ctx context.Context, actor Actor, id uint, payload dto.AssignmentUpdateRequest) (dto.AssignmentResponse, error)
	Delete(ctx context.Context, actor Actor, id uint) error
}

type assignmentService struct {
	assignments repository.AssignmentRepository
	courses     repository.CourseRepository
	enrollments repository.EnrollmentRepository
	submissions repository.SubmissionRepository
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewAssignmentService builds a new assignment service.
func NewAssignmentService(
	assignmentRepo repository.AssignmentRepository,
	courseRepo repository.CourseRepository,
	enrollmentRepo repository.EnrollmentRepository,
	submissionRepo repository.SubmissionRepository,
	validate *validator.Validate,
	logger zerolog.Logger,
) AssignmentService {
	return &assignmentService{
		assignments: assignmentRepo,
		courses:     courseRepo,
		enrollments: enrollmentRepo,
		submissions: submissionRepo,
		validator:   validate,
		logger:      logger.With().Str("component", "assignment_service").Logger(),
		now:         time.Now,
	}
}

// List returns assignments scoped to the caller: students see assignments of
// courses they are enrolled in with their own submission status overlaid,
// instructors see assignments they created, admins see everything.
func (s *assignmentService) List(ctx context.Context, actor Actor, query AssignmentListQuery) ([]dto.AssignmentResponse, error) {
	filter := repository.AssignmentFilter{
		CourseID: query.CourseID,
		Type:     query.Type,
		Sort:     query.Sort,
	}

	if actor.IsInstructor() {
		filter.InstructorID = &actor.ID
	}

	if actor.IsStudent() {
		courseIDs, err := s.enrolledCourseIDs(ctx, actor.ID)
		if err != nil {
			return nil, err
		}
		filter.CourseIDs = courseIDs
	}

	assignments, err := s.assignments.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	responses := dto.NewAssignmentResponseSlice(assignments)

	if actor.IsStudent() {
		if err := s.overlaySubmissionStatus(ctx, actor.ID, responses); err != nil {
			return nil, err
		}
	}

	return responses, nil
}

func (s *assignmentService) Get(ctx context.Context, actor Actor, id uint) (dto.AssignmentResponse, error) {
	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrAssignmentNotFound
		}

		return dto.AssignmentResponse{}, err
	}

	switch {
	case actor.IsAdmin():
	case actor.IsInstructor():
		if assignment.InstructorID != actor.ID {
			return dto.AssignmentResponse{}, ErrNotAssignmentOwner
		}
	default:
		if _, err := s.enrollments.GetByStudentAndCourse(ctx, actor.ID, assignment.CourseID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.AssignmentResponse{}, ErrAssignmentAccessDenied
			}

			return dto.AssignmentResponse{}, err
		}
	}

	response := dto.NewAssignmentResponse(assignment)

	if actor.IsStudent() {
		responses := []dto.AssignmentResponse{response}
		if err := s.overlaySubmissionStatus(ctx, actor.ID, responses); err != nil {
			return dto.AssignmentResponse{}, err
		}
		response = responses[0]
	}

	return response, nil
}

// Create persists the assignment and fans out one Not Started submission
// placeholder per actively enrolled student, the mirror operation of the
// per-assignment fan-out performed at enrollment time.
func (s *assignmentService) Create(ctx context.Context, actor Actor, payload dto.AssignmentCreateRequest) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	dueDate, err := time.Parse(time.RFC3339, payload.DueDate)
	if err != nil {
		return dto.AssignmentResponse{}, fmt.Errorf("%w: %v", ErrInvalidDueDate, err)
	}

	if !dueDate.After(s.now()) {
		return dto.AssignmentResponse{}, ErrDueDateNotFuture
	}

	course, err := s.courses.GetByID(ctx, payload.CourseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrCourseNotFound
		}

		return dto.AssignmentResponse{}, err
	}

	if !actor.IsAdmin() && course.InstructorID != actor.ID {
		return dto.AssignmentResponse{}, ErrNotCourseOwner
	}

	assignment := models.Assignment{
		CourseID:     course.ID,
		InstructorID: actor.ID,
		Title:        payload.Title,
		Description:  payload.Description,
		Type:         payload.Type,
		Points:       payload.Points,
		DueDate:      dueDate,
	}
	if assignment.Type == "" {
		assignment.Type = models.AssignmentTypeQuiz
	}
	if assignment.Points == 0 {
		assignment.Points = 100
	}

	studentIDs, err := s.enrollments.ActiveStudentIDs(ctx, course.ID)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	if err := s.assignments.CreateWithFanOut(ctx, &assignment, studentIDs); err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.logger.Info().
		Uint("assignment_id", assignment.ID).
		Uint("course_id", course.ID).
		Int("placeholders", len(studentIDs)).
		Msg("assignment created")

	assignment.Course = course

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) Update(ctx context.Context, actor Actor, id uint, payload dto.AssignmentUpdateRequest) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	assignment, err := s.ownedAssignment(ctx, actor, id)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	if payload.Title != nil {
		assignment.Title = *payload.Title
	}
	if payload.Description != nil {
		assignment.Description = *payload.Description
	}
	if payload.Type != nil {
		assignment.Type = *payload.Type
	}
	if payload.Points != nil {
		assignment.Points = *payload.Points
	}
	if payload.DueDate != nil {
		dueDate, err := time.Parse(time.RFC3339, *payload.DueDate)
		if err != nil {
			return dto.AssignmentResponse{}, fmt.Errorf("%w: %v", ErrInvalidDueDate, err)
		}
		assignment.DueDate = dueDate
	}

	if err := s.assignments.Update(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.logger.Info().Uint("assignment_id", assignment.ID).Msg("assignment updated")

	return dto.NewAssignmentResponse(assignment), nil
}

// Delete removes the assignment and every submission referencing it.
func (s *assignmentService) Delete(ctx context.Context, actor Actor, id uint) error {
	if _, err := s.ownedAssignment(ctx, actor, id); err != nil {
		return err
	}

	if err := s.assignments.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssignmentNotFound
		}

		return err
	}

	s.logger.Info().Uint("assignment_id", id).Msg("assignment deleted with submissions")

	return nil
}

func (s *assignmentService) ownedAssignment(ctx context.Context, actor Actor, id uint) (models.Assignment, error) {
	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Assignment{}, ErrAssignmentNotFound
		}

		return models.Assignment{}, err
	}

	if !actor.IsAdmin() && assignment.InstructorID != actor.ID {
		return models.Assignment{}, ErrNotAssignmentOwner
	}

	return assignment, nil
}

func (s *assignmentService) enrolledCourseIDs(ctx context.Context, studentID uint) ([]uint, error) {
	active := models.EnrollmentStatusActive
	enrollments, err := s.enrollments.List(ctx, repository.EnrollmentFilter{StudentID: &studentID, Status: &active})
	if err != nil {
		return nil, err
	}

	courseIDs := make([]uint, 0, len(enrollments))
	for _, enrollment := range enrollments {
		courseIDs = append(courseIDs, enrollment.CourseID)
	}

	return courseIDs, nil
}

func (s *assignmentService) overlaySubmissionStatus(ctx context.Context, studentID uint, responses []dto.AssignmentResponse) error {
	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{StudentID: &studentID})
	if err != nil {
		return err
	}

	byAssignment := make(map[uint]models.Submission, len(submissions))
	for _, submission := range submissions {
		byAssignment[submission.AssignmentID] = submission
	}

	for i := range responses {
		if submission, ok := byAssignment[responses[i].ID]; ok {
			responses[i].Status = submission.Status
			responses[i].Grade = submission.Grade
		} else {
			responses[i].Status = models.SubmissionStatusNotStarted
		}
	}

	return nil
}
