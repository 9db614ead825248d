package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/hanafi-dev/lms-go-api/internal/dto"
	"github.com/hanafi-dev/lms-go-api/internal/models"
	"github.com/hanafi-dev/lms-go-api/internal/observability"
	"github.com/hanafi-dev/lms-go-api/internal/repository"
)

// Enrollment lifecycle errors.
var (
	ErrEnrollmentCodeRequired = errors.New("enrollment code is required")
	ErrInvalidEnrollmentCode  = errors.New("invalid enrollment code")
	ErrCourseInactive         = errors.New("course is not accepting enrollments")
	ErrAlreadyEnrolled        = errors.New("already enrolled in this course")
	ErrEnrollmentNotFound     = errors.New("enrollment not found")
	ErrInvalidTransition      = errors.New("invalid enrollment status transition")
	ErrNotEnrollmentOwner     = errors.New("enrollment belongs to another student")
)

// EnrollmentConfig carries the policy knobs of the enrollment lifecycle.
type EnrollmentConfig struct {
	// AllowInactive permits redeeming codes of courses whose is_active flag
	// is false. Off by default.
	AllowInactive bool
	// CacheTTL bounds the staleness of the per-student enrollment listing.
	CacheTTL time.Duration
}

// EnrollmentService exposes the enrollment lifecycle use cases: code
// redemption, listing, withdrawal, and status/progress transitions.
type EnrollmentService interface {
	EnrollByCode(ctx context.Context, studentID uint, payload dto.EnrollByCodeRequest) (dto.EnrolledCourseResponse, error)
	ListForStudent(ctx context.Context, studentID uint) ([]dto.EnrolledCourseResponse, error)
	Withdraw(ctx context.Context, studentID, courseID uint) error
	UpdateStatus(ctx context.Context, actor Actor, enrollmentID uint, payload dto.EnrollmentStatusRequest) (dto.EnrollmentResponse, error)
	UpdateProgress(ctx context.Context, actor Actor, enrollmentID uint, payload dto.EnrollmentProgressRequest) (dto.EnrollmentResponse, error)
}

type enrollmentService struct {
	enrollments repository.EnrollmentRepository
	courses     repository.CourseRepository
	assignments repository.AssignmentRepository
	validator   *validator.Validate
	cache       *redis.Client
	cfg         EnrollmentConfig
	logger      zerolog.Logger
	now         func() time.Time
}

// NewEnrollmentService builds the enrollment lifecycle service.
func NewEnrollmentService(
	enrollmentRepo repository.EnrollmentRepository,
	courseRepo repository.CourseRepository,
	assignmentRepo repository.AssignmentRepository,
	validate *validator.Validate,
	cache *redis.Client,
	cfg EnrollmentConfig,
	logger zerolog.Logger,
) EnrollmentService {
	return &enrollmentService{
		enrollments: enrollmentRepo,
		courses:     courseRepo,
		assignments: assignmentRepo,
		validator:   validate,
		cache:       cache,
		cfg:         cfg,
		logger:      logger.With().Str("component", "enrollment_service").Logger(),
		now:         time.Now,
	}
}

// EnrollByCode registers the student in the course identified by the code.
// The enrollment row and the per-assignment submission placeholders are
// written in one transaction; the (student, course) unique index resolves the
// race between concurrent redemptions of the same code by the same student.
func (s *enrollmentService) EnrollByCode(ctx context.Context, studentID uint, payload dto.EnrollByCodeRequest) (dto.EnrolledCourseResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.EnrolledCourseResponse{}, err
	}

	code := strings.TrimSpace(payload.EnrollmentCode)
	if code == "" {
		return dto.EnrolledCourseResponse{}, ErrEnrollmentCodeRequired
	}

	course, err := s.courses.GetByEnrollmentCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EnrolledCourseResponse{}, ErrInvalidEnrollmentCode
		}

		return dto.EnrolledCourseResponse{}, err
	}

	if !course.IsActive && !s.cfg.AllowInactive {
		return dto.EnrolledCourseResponse{}, ErrCourseInactive
	}

	if _, err := s.enrollments.GetByStudentAndCourse(ctx, studentID, course.ID); err == nil {
		return dto.EnrolledCourseResponse{}, ErrAlreadyEnrolled
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.EnrolledCourseResponse{}, err
	}

	assignmentIDs, err := s.assignments.IDsByCourse(ctx, course.ID)
	if err != nil {
		return dto.EnrolledCourseResponse{}, err
	}

	now := s.now()
	enrollment := models.Enrollment{
		StudentID:    studentID,
		CourseID:     course.ID,
		Status:       models.EnrollmentStatusActive,
		Progress:     0,
		EnrolledAt:   now,
		LastAccessed: now,
	}

	if err := s.enrollments.EnrollWithFanOut(ctx, &enrollment, assignmentIDs); err != nil {
		// Lost the check-then-create race; the unique index is authoritative.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.EnrolledCourseResponse{}, ErrAlreadyEnrolled
		}

		return dto.EnrolledCourseResponse{}, err
	}

	invalidateEnrollmentCache(ctx, s.cache, s.logger, studentID)
	observability.EnrollmentEvents().WithLabelValues("enrolled").Inc()

	s.logger.Info().
		Uint("student_id", studentID).
		Uint("course_id", course.ID).
		Int("placeholders", len(assignmentIDs)).
		Msg("student enrolled by code")

	enrollment.Course = course

	return dto.NewEnrolledCourseResponse(enrollment), nil
}

// ListForStudent returns the student's enrollments joined with course
// summaries, served from the redis cache when fresh.
func (s *enrollmentService) ListForStudent(ctx context.Context, studentID uint) ([]dto.EnrolledCourseResponse, error) {
	cacheKey := enrollmentCacheKey(studentID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var responses []dto.EnrolledCourseResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &responses); unmarshalErr == nil {
				s.logger.Debug().Uint("student_id", studentID).Msg("enrollment cache hit")
				return responses, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read enrollment cache")
		}
	}

	enrollments, err := s.enrollments.List(ctx, repository.EnrollmentFilter{StudentID: &studentID})
	if err != nil {
		return nil, err
	}

	responses := dto.NewEnrolledCourseResponseSlice(enrollments)

	if s.cache != nil {
		if payload, err := json.Marshal(responses); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cfg.CacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store enrollment cache")
			}
		}
	}

	return responses, nil
}

// Withdraw deletes the student's enrollment row. Submissions are deliberately
// preserved so grade history survives a voluntary withdrawal.
func (s *enrollmentService) Withdraw(ctx context.Context, studentID, courseID uint) error {
	enrollment, err := s.enrollments.GetByStudentAndCourse(ctx, studentID, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEnrollmentNotFound
		}

		return err
	}

	if err := s.enrollments.Delete(ctx, enrollment.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEnrollmentNotFound
		}

		return err
	}

	invalidateEnrollmentCache(ctx, s.cache, s.logger, studentID)
	observability.EnrollmentEvents().WithLabelValues("withdrawn").Inc()

	s.logger.Info().
		Uint("student_id", studentID).
		Uint("course_id", courseID).
		Msg("student withdrew from course")

	return nil
}

// UpdateStatus applies a lifecycle transition. Only active enrollments may
// move, and only to completed or dropped; both targets are terminal.
func (s *enrollmentService) UpdateStatus(ctx context.Context, actor Actor, enrollmentID uint, payload dto.EnrollmentStatusRequest) (dto.EnrollmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.EnrollmentResponse{}, err
	}

	enrollment, err := s.authorizedEnrollment(ctx, actor, enrollmentID)
	if err != nil {
		return dto.EnrollmentResponse{}, err
	}

	if !enrollment.CanTransitionTo(payload.Status) {
		return dto.EnrollmentResponse{}, ErrInvalidTransition
	}

	enrollment.Status = payload.Status
	enrollment.LastAccessed = s.now()

	if err := s.enrollments.Update(ctx, &enrollment); err != nil {
		return dto.EnrollmentResponse{}, err
	}

	invalidateEnrollmentCache(ctx, s.cache, s.logger, enrollment.StudentID)
	observability.EnrollmentEvents().WithLabelValues(payload.Status).Inc()

	s.logger.Info().
		Uint("enrollment_id", enrollment.ID).
		Str("status", payload.Status).
		Msg("enrollment status updated")

	return dto.NewEnrollmentResponse(enrollment), nil
}

// UpdateProgress records the student's progress percentage, clamped to
// [0,100], and touches last_accessed.
func (s *enrollmentService) UpdateProgress(ctx context.Context, actor Actor, enrollmentID uint, payload dto.EnrollmentProgressRequest) (dto.EnrollmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.EnrollmentResponse{}, err
	}

	enrollment, err := s.authorizedEnrollment(ctx, actor, enrollmentID)
	if err != nil {
		return dto.EnrollmentResponse{}, err
	}

	progress := *payload.Progress
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}

	enrollment.Progress = progress
	enrollment.LastAccessed = s.now()

	if err := s.enrollments.Update(ctx, &enrollment); err != nil {
		return dto.EnrollmentResponse{}, err
	}

	invalidateEnrollmentCache(ctx, s.cache, s.logger, enrollment.StudentID)

	return dto.NewEnrollmentResponse(enrollment), nil
}

// authorizedEnrollment loads the enrollment and verifies the actor may mutate
// it: the owning student, the instructor of its course, or an admin.
func (s *enrollmentService) authorizedEnrollment(ctx context.Context, actor Actor, enrollmentID uint) (models.Enrollment, error) {
	enrollment, err := s.enrollments.GetByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Enrollment{}, ErrEnrollmentNotFound
		}

		return models.Enrollment{}, err
	}

	switch {
	case actor.IsAdmin():
	case actor.IsInstructor() && enrollment.Course.InstructorID == actor.ID:
	case actor.IsStudent() && enrollment.StudentID == actor.ID:
	default:
		return models.Enrollment{}, ErrNotEnrollmentOwner
	}

	return enrollment, nil
}
