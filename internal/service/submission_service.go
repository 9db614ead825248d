package service

import (
	"context"
	"encoding/json"
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

// Submission errors.
var (
	ErrSubmissionNotFound     = errors.New("submission not found")
	ErrStudentNotFound        = errors.New("student not found")
	ErrNotEnrolledInCourse    = errors.New("not enrolled in the assignment's course")
	ErrAssignmentPastDue      = errors.New("assignment is past due")
	ErrSubmissionAccessDenied = errors.New("no access to this submission")
	ErrGradeExceedsPoints     = errors.New("grade exceeds assignment points")
)

// SubmissionService orchestrates submission workflows: listing, student
// submits and instructor grading.
type SubmissionService interface {
	ListByAssignment(ctx context.Context, actor Actor, assignmentID uint) ([]dto.SubmissionResponse, error)
	ListForStudent(ctx context.Context, actor Actor, studentID uint) ([]dto.SubmissionResponse, error)
	Submit(ctx context.Context, studentID, assignmentID uint, payload dto.SubmissionSubmitRequest) (dto.SubmissionResponse, error)
	Grade(ctx context.Context, actor Actor, submissionID uint, payload dto.SubmissionGradeRequest) (dto.SubmissionResponse, error)
}

type submissionService struct {
	submissions repository.SubmissionRepository
	assignments repository.AssignmentRepository
	enrollments repository.EnrollmentRepository
	users       repository.UserRepository
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewSubmissionService constructs a SubmissionService instance.
func NewSubmissionService(
	submissionRepo repository.SubmissionRepository,
	assignmentRepo repository.AssignmentRepository,
	enrollmentRepo repository.EnrollmentRepository,
	userRepo repository.UserRepository,
	validate *validator.Validate,
	logger zerolog.Logger,
) SubmissionService {
	return &submissionService{
		submissions: submissionRepo,
		assignments: assignmentRepo,
		enrollments: enrollmentRepo,
		users:       userRepo,
		validator:   validate,
		logger:      logger.With().Str("component", "submission_service").Logger(),
		now:         time.Now,
	}
}

// ListByAssignment returns every submission for an assignment, restricted to
// the owning instructor or an admin.
func (s *submissionService) ListByAssignment(ctx context.Context, actor Actor, assignmentID uint) ([]dto.SubmissionResponse, error) {
	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssignmentNotFound
		}

		return nil, err
	}

	if !actor.IsAdmin() && assignment.InstructorID != actor.ID {
		return nil, ErrNotAssignmentOwner
	}

	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{AssignmentID: &assignmentID})
	if err != nil {
		return nil, err
	}

	return s.toResponses(submissions)
}

// ListForStudent returns a student's submissions. Students may only view
// their own; instructors and admins may view anyone's.
func (s *submissionService) ListForStudent(ctx context.Context, actor Actor, studentID uint) ([]dto.SubmissionResponse, error) {
	if actor.IsStudent() && actor.ID != studentID {
		return nil, ErrSubmissionAccessDenied
	}

	if actor.ID != studentID {
		student, err := s.users.GetByID(ctx, studentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrStudentNotFound
			}

			return nil, err
		}
		if student.Role != models.RoleStudent {
			return nil, ErrStudentNotFound
		}
	}

	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{StudentID: &studentID})
	if err != nil {
		return nil, err
	}

	return s.toResponses(submissions)
}

// Submit records a student's work on an assignment, filling in the placeholder
// created at enrollment or assignment-creation time. Past-due assignments
// reject completion but still accept In Progress saves. A missing placeholder
// is created on the fly; enrollment is the real gate.
func (s *submissionService) Submit(ctx context.Context, studentID, assignmentID uint, payload dto.SubmissionSubmitRequest) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrAssignmentNotFound
		}

		return dto.SubmissionResponse{}, err
	}

	enrollment, err := s.enrollments.GetByStudentAndCourse(ctx, studentID, assignment.CourseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrNotEnrolledInCourse
		}

		return dto.SubmissionResponse{}, err
	}
	if enrollment.Status != models.EnrollmentStatusActive {
		return dto.SubmissionResponse{}, ErrNotEnrolledInCourse
	}

	status := payload.Status
	if status == "" {
		status = models.SubmissionStatusCompleted
	}

	now := s.now()
	if assignment.IsPastDue(now) && status == models.SubmissionStatusCompleted {
		return dto.SubmissionResponse{}, ErrAssignmentPastDue
	}

	submission, err := s.submissions.GetByAssignmentAndStudent(ctx, assignmentID, studentID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, err
		}
		submission = models.Submission{
			AssignmentID: assignmentID,
			StudentID:    studentID,
		}
	}

	submission.Status = status
	submission.SubmissionText = payload.SubmissionText

	if len(payload.Attachments) > 0 {
		attachments := make([]models.SubmissionAttachment, 0, len(payload.Attachments))
		for _, attachment := range payload.Attachments {
			attachments = append(attachments, models.SubmissionAttachment{
				Name:       attachment.Name,
				FileURL:    attachment.FileURL,
				UploadedAt: now,
			})
		}

		raw, err := json.Marshal(attachments)
		if err != nil {
			return dto.SubmissionResponse{}, fmt.Errorf("failed to encode attachments: %w", err)
		}
		submission.Attachments = raw
	}

	if status == models.SubmissionStatusCompleted {
		submission.SubmissionDate = &now
	}

	if submission.ID == 0 {
		err = s.submissions.Create(ctx, &submission)
	} else {
		err = s.submissions.Update(ctx, &submission)
	}
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.logger.Info().
		Uint("assignment_id", assignmentID).
		Uint("student_id", studentID).
		Str("status", status).
		Msg("submission recorded")

	submission.Assignment = assignment

	return s.toResponse(submission)
}

// Grade records a grade and feedback, restricted to the instructor who owns
// the assignment or an admin. The grade may not exceed the assignment's
// point value.
func (s *submissionService) Grade(ctx context.Context, actor Actor, submissionID uint, payload dto.SubmissionGradeRequest) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}

		return dto.SubmissionResponse{}, err
	}

	if !actor.IsAdmin() && submission.Assignment.InstructorID != actor.ID {
		return dto.SubmissionResponse{}, ErrNotAssignmentOwner
	}

	if *payload.Grade > float64(submission.Assignment.Points) {
		return dto.SubmissionResponse{}, ErrGradeExceedsPoints
	}

	submission.Grade = payload.Grade
	submission.Feedback = payload.Feedback

	if err := s.submissions.Update(ctx, &submission); err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.logger.Info().
		Uint("submission_id", submission.ID).
		Float64("grade", *payload.Grade).
		Msg("submission graded")

	return s.toResponse(submission)
}

func (s *submissionService) toResponse(submission models.Submission) (dto.SubmissionResponse, error) {
	var attachments []models.SubmissionAttachment
	if len(submission.Attachments) > 0 {
		if err := json.Unmarshal(submission.Attachments, &attachments); err != nil {
			return dto.SubmissionResponse{}, fmt.Errorf("failed to decode attachments: %w", err)
		}
	}

	return dto.NewSubmissionResponse(submission, attachments), nil
}

func (s *submissionService) toResponses(submissions []models.Submission) ([]dto.SubmissionResponse, error) {
	responses := make([]dto.SubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		response, err := s.toResponse(submission)
		if err != nil {
			return nil, err
		}
		responses = append(responses, response)
	}

	return responses, nil
}
