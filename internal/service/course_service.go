package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/hanafi-dev/lms-go-api/internal/dto"
	"github.com/hanafi-dev/lms-go-api/internal/models"
	"github.com/hanafi-dev/lms-go-api/internal/repository"
)

// Course errors.
var (
	ErrCourseNotFound     = errors.New("course not found")
	ErrNotCourseOwner     = errors.New("course belongs to another instructor")
	ErrCourseAccessDenied = errors.New("not enrolled in this course")
	ErrStudentNotEnrolled = errors.New("student is not enrolled in this course")
)

// Enrollment codes avoid visually ambiguous characters so they survive being
// read aloud or written on a whiteboard.
const enrollmentCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const codeGenerationAttempts = 5

// CourseService exposes course management use cases.
type CourseService interface {
	List(ctx context.Context, actor Actor) ([]dto.CourseResponse, error)
	Get(ctx context.Context, actor Actor, id uint) (dto.CourseResponse, error)
	Create(ctx context.Context, actor Actor, payload dto.CourseCreateRequest) (dto.CourseResponse, error)
	Update(ctx context.Context, actor Actor, id uint, payload dto.CourseUpdateRequest) (dto.CourseResponse, error)
	Delete(ctx context.Context, actor Actor, id uint) error
	RemoveStudent(ctx context.Context, actor Actor, courseID, studentID uint) error
}

type courseService struct {
	courses     repository.CourseRepository
	enrollments repository.EnrollmentRepository
	submissions repository.SubmissionRepository
	validator   *validator.Validate
	cache       *redis.Client
	codeLength  int
	logger      zerolog.Logger
	now         func() time.Time
}

// NewCourseService builds a new course service.
func NewCourseService(
	courseRepo repository.CourseRepository,
	enrollmentRepo repository.EnrollmentRepository,
	submissionRepo repository.SubmissionRepository,
	validate *validator.Validate,
	cache *redis.Client,
	codeLength int,
	logger zerolog.Logger,
) CourseService {
	if codeLength <= 0 {
		codeLength = 6
	}

	return &courseService{
		courses:     courseRepo,
		enrollments: enrollmentRepo,
		submissions: submissionRepo,
		validator:   validate,
		cache:       cache,
		codeLength:  codeLength,
		logger:      logger.With().Str("component", "course_service").Logger(),
		now:         time.Now,
	}
}

// List returns courses scoped to the caller's role: students see active
// courses they are enrolled in, instructors their own, admins everything.
func (s *courseService) List(ctx context.Context, actor Actor) ([]dto.CourseResponse, error) {
	if actor.IsStudent() {
		return s.listForStudent(ctx, actor.ID)
	}

	filter := repository.CourseFilter{}
	if actor.IsInstructor() {
		filter.InstructorID = &actor.ID
	}

	courses, err := s.courses.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.CourseResponse, 0, len(courses))
	for _, course := range courses {
		enrolled, err := s.enrollments.CountActive(ctx, course.ID)
		if err != nil {
			return nil, err
		}
		responses = append(responses, dto.NewCourseResponse(course, enrolled))
	}

	return responses, nil
}

func (s *courseService) listForStudent(ctx context.Context, studentID uint) ([]dto.CourseResponse, error) {
	active := models.EnrollmentStatusActive
	enrollments, err := s.enrollments.List(ctx, repository.EnrollmentFilter{StudentID: &studentID, Status: &active})
	if err != nil {
		return nil, err
	}

	responses := make([]dto.CourseResponse, 0, len(enrollments))
	for _, enrollment := range enrollments {
		if !enrollment.Course.IsActive {
			continue
		}

		enrolled, err := s.enrollments.CountActive(ctx, enrollment.CourseID)
		if err != nil {
			return nil, err
		}

		response := dto.NewCourseResponse(enrollment.Course, enrolled)
		// Students never see the shareable code of a course they are in.
		response.EnrollmentCode = ""
		responses = append(responses, response)
	}

	return responses, nil
}

func (s *courseService) Get(ctx context.Context, actor Actor, id uint) (dto.CourseResponse, error) {
	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CourseResponse{}, ErrCourseNotFound
		}

		return dto.CourseResponse{}, err
	}

	switch {
	case actor.IsAdmin():
	case actor.IsInstructor():
		if course.InstructorID != actor.ID {
			return dto.CourseResponse{}, ErrNotCourseOwner
		}
	default:
		if _, err := s.enrollments.GetByStudentAndCourse(ctx, actor.ID, course.ID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.CourseResponse{}, ErrCourseAccessDenied
			}

			return dto.CourseResponse{}, err
		}
	}

	enrolled, err := s.enrollments.CountActive(ctx, course.ID)
	if err != nil {
		return dto.CourseResponse{}, err
	}

	response := dto.NewCourseResponse(course, enrolled)
	if actor.IsStudent() {
		response.EnrollmentCode = ""
	}

	return response, nil
}

// Create persists a new course owned by the calling instructor, generating a
// unique enrollment code. Code collisions are resolved by retrying against
// the unique index rather than by read-then-write.
func (s *courseService) Create(ctx context.Context, actor Actor, payload dto.CourseCreateRequest) (dto.CourseResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CourseResponse{}, err
	}

	course := models.Course{
		Title:        payload.Title,
		Description:  payload.Description,
		InstructorID: actor.ID,
		IsActive:     true,
		StartDate:    payload.StartDate,
		EndDate:      payload.EndDate,
		Thumbnail:    payload.Thumbnail,
	}

	var err error
	for attempt := 0; attempt < codeGenerationAttempts; attempt++ {
		course.EnrollmentCode, err = generateEnrollmentCode(s.codeLength)
		if err != nil {
			return dto.CourseResponse{}, err
		}

		err = s.courses.Create(ctx, &course)
		if err == nil {
			break
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.CourseResponse{}, err
		}
	}
	if err != nil {
		return dto.CourseResponse{}, fmt.Errorf("failed to generate a unique enrollment code: %w", err)
	}

	s.logger.Info().
		Uint("course_id", course.ID).
		Uint("instructor_id", actor.ID).
		Msg("course created")

	return dto.NewCourseResponse(course, 0), nil
}

func (s *courseService) Update(ctx context.Context, actor Actor, id uint, payload dto.CourseUpdateRequest) (dto.CourseResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CourseResponse{}, err
	}

	course, err := s.ownedCourse(ctx, actor, id)
	if err != nil {
		return dto.CourseResponse{}, err
	}

	if payload.Title != nil {
		course.Title = *payload.Title
	}
	if payload.Description != nil {
		course.Description = *payload.Description
	}
	if payload.StartDate != nil {
		course.StartDate = payload.StartDate
	}
	if payload.EndDate != nil {
		course.EndDate = payload.EndDate
	}
	if payload.IsActive != nil {
		course.IsActive = *payload.IsActive
	}
	if payload.Thumbnail != nil {
		course.Thumbnail = *payload.Thumbnail
	}

	if err := s.courses.Update(ctx, &course); err != nil {
		return dto.CourseResponse{}, err
	}

	enrolled, err := s.enrollments.CountActive(ctx, course.ID)
	if err != nil {
		return dto.CourseResponse{}, err
	}

	s.logger.Info().Uint("course_id", course.ID).Msg("course updated")

	return dto.NewCourseResponse(course, enrolled), nil
}

// Delete removes the course together with its assignments, submissions and
// enrollments, then drops the cached listings of every student who was on it.
func (s *courseService) Delete(ctx context.Context, actor Actor, id uint) error {
	if _, err := s.ownedCourse(ctx, actor, id); err != nil {
		return err
	}

	studentIDs, err := s.enrollments.ActiveStudentIDs(ctx, id)
	if err != nil {
		return err
	}

	if err := s.courses.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCourseNotFound
		}

		return err
	}

	invalidateEnrollmentCache(ctx, s.cache, s.logger, studentIDs...)

	s.logger.Info().Uint("course_id", id).Msg("course deleted with cascade")

	return nil
}

// RemoveStudent is the instructor-initiated removal: unlike a voluntary
// withdrawal it also deletes the student's submissions in the course.
func (s *courseService) RemoveStudent(ctx context.Context, actor Actor, courseID, studentID uint) error {
	if _, err := s.ownedCourse(ctx, actor, courseID); err != nil {
		return err
	}

	enrollment, err := s.enrollments.GetByStudentAndCourse(ctx, studentID, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStudentNotEnrolled
		}

		return err
	}

	if err := s.submissions.DeleteByCourseAndStudent(ctx, courseID, studentID); err != nil {
		return err
	}

	if err := s.enrollments.Delete(ctx, enrollment.ID); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	invalidateEnrollmentCache(ctx, s.cache, s.logger, studentID)

	s.logger.Info().
		Uint("course_id", courseID).
		Uint("student_id", studentID).
		Msg("student removed from course")

	return nil
}

func (s *courseService) ownedCourse(ctx context.Context, actor Actor, id uint) (models.Course, error) {
	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Course{}, ErrCourseNotFound
		}

		return models.Course{}, err
	}

	if !actor.IsAdmin() && course.InstructorID != actor.ID {
		return models.Course{}, ErrNotCourseOwner
	}

	return course, nil
}

func generateEnrollmentCode(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate enrollment code: %w", err)
	}

	code := make([]byte, length)
	for i, b := range buf {
		code[i] = enrollmentCodeAlphabet[int(b)%len(enrollmentCodeAlphabet)]
	}

	return string(code), nil
}
