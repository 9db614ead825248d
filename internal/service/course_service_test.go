package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hanafi-dev/lms-go-api/internal/dto"
	"github.com/hanafi-dev/lms-go-api/internal/models"
	"github.com/hanafi-dev/lms-go-api/internal/repository"
)

func newCourseService(db *gorm.DB, cache *redis.Client) CourseService {
	return NewCourseService(
		repository.NewCourseRepository(db),
		repository.NewEnrollmentRepository(db),
		repository.NewSubmissionRepository(db),
		validator.New(validator.WithRequiredStructEnabled()),
		cache,
		6,
		testLogger(),
	)
}

func TestCourseServiceCreateGeneratesCode(t *testing.T) {
	db := newTestDB(t)
	svc := newCourseService(db, nil)

	instructor := createUser(t, db, models.RoleInstructor, "teach@example.com")

	created, err := svc.Create(context.Background(), Actor{ID: instructor.ID, Role: models.RoleInstructor}, dto.CourseCreateRequest{
		Title:       "Operating Systems",
		Description: "Processes, scheduling and memory management",
	})
	require.NoError(t, err)
	require.Len(t, created.EnrollmentCode, 6)
	require.True(t, created.IsActive)
	require.Equal(t, instructor.ID, created.Instructor.ID)

	for _, r := range created.EnrollmentCode {
		require.Contains(t, enrollmentCodeAlphabet, string(r), "codes only use unambiguous characters")
	}

	_, err = svc.Create(context.Background(), Actor{ID: instructor.ID, Role: models.RoleInstructor}, dto.CourseCreateRequest{
		Title:       "OS",
		Description: "too short",
	})
	require.Error(t, err, "title and description length are validated")
}

func TestCourseServiceListScopedByRole(t *testing.T) {
	db := newTestDB(t)
	svc := newCourseService(db, nil)

	instructor := createUser(t, db, models.RoleInstructor, "teach@example.com")
	other := createUser(t, db, models.RoleInstructor, "other@example.com")
	mine := createCourse(t, db, instructor.ID, "MINE01", true)
	createCourse(t, db, other.ID, "THEIRS", true)
	inactive := createCourse(t, db, instructor.ID, "HIDDEN", false)

	student := createUser(t, db, models.RoleStudent, "learn@example.com")
	now := time.Now()
	require.NoError(t, db.Create(&models.Enrollment{StudentID: student.ID, CourseID: mine.ID, Status: models.EnrollmentStatusActive, EnrolledAt: now, LastAccessed: now}).Error)
	require.NoError(t, db.Create(&models.Enrollment{StudentID: student.ID, CourseID: inactive.ID, Status: models.EnrollmentStatusActive, EnrolledAt: now, LastAccessed: now}).Error)

	instructorView, err := svc.List(context.Background(), Actor{ID: instructor.ID, Role: models.RoleInstructor})
	require.NoError(t, err)
	require.Len(t, instructorView, 2)

	adminView, err := svc.List(context.Background(), Actor{ID: 0, Role: models.RoleAdmin})
	require.NoError(t, err)
	require.Len(t, adminView, 3)

	studentView, err := svc.List(context.Background(), Actor{ID: student.ID, Role: models.RoleStudent})
	require.NoError(t, err)
	require.Len(t, studentView, 1, "inactive courses are hidden from students")
	require.Equal(t, mine.ID, studentView[0].ID)
	require.Empty(t, studentView[0].EnrollmentCode, "students never see the shareable code")
	require.Equal(t, int64(1), studentView[0].Enrolled)
}

func TestCourseServiceOwnership(t *testing.T) {
	db := newTestDB(t)
	svc := newCourseService(db, nil)

	instructor := createUser(t, db, models.RoleInstructor, "teach@example.com")
	other := createUser(t, db, models.RoleInstructor, "other@example.com")
	course := createCourse(t, db, instructor.ID, "OWNED1", true)

	title := "Renamed"
	_, err := svc.Update(context.Background(), Actor{ID: other.ID, Role: models.RoleInstructor}, course.ID, dto.CourseUpdateRequest{Title: &title})
	require.ErrorIs(t, err, ErrNotCourseOwner)

	updated, err := svc.Update(context.Background(), Actor{ID: instructor.ID, Role: models.RoleInstructor}, course.ID, dto.CourseUpdateRequest{Title: &title})
	require.NoError(t, err)
	require.Equal(t, "Renamed", updated.Title)

	inactive := false
	updated, err = svc.Update(context.Background(), Actor{ID: 1, Role: models.RoleAdmin}, course.ID, dto.CourseUpdateRequest{IsActive: &inactive})
	require.NoError(t, err, "admins may manage any course")
	require.False(t, updated.IsActive)

	_, err = svc.Get(context.Background(), Actor{ID: other.ID, Role: models.RoleInstructor}, course.ID)
	require.ErrorIs(t, err, ErrNotCourseOwner)
}

func TestCourseServiceGetForStudent(t *testing.T) {
	db := newTestDB(t)
	svc := newCourseService(db, nil)

	instructor := createUser(t, db, models.RoleInstructor, "teach@example.com")
	course := createCourse(t, db, instructor.ID, "VIEW01", true)
	enrolled := createUser(t, db, models.RoleStudent, "in@example.com")
	outsider := createUser(t, db, models.RoleStudent, "out@example.com")

	now := time.Now()
	require.NoError(t, db.Create(&models.Enrollment{StudentID: enrolled.ID, CourseID: course.ID, Status: models.EnrollmentStatusActive, EnrolledAt: now, LastAccessed: now}).Error)

	view, err := svc.Get(context.Background(), Actor{ID: enrolled.ID, Role: models.RoleStudent}, course.ID)
	require.NoError(t, err)
	require.Empty(t, view.EnrollmentCode)

	_, err = svc.Get(context.Background(), Actor{ID: outsider.ID, Role: models.RoleStudent}, course.ID)
	require.ErrorIs(t, err, ErrCourseAccessDenied)

	_, err = svc.Get(context.Background(), Actor{ID: enrolled.ID, Role: models.RoleStudent}, 9999)
	require.ErrorIs(t, err, ErrCourseNotFound)
}

func TestCourseServiceDeleteCascadesAndInvalidatesCache(t *testing.T) {
	db := newTestDB(t)
	cache := newTestCache(t)
	svc := newCourseService(db, cache)
	enrollSvc := newEnrollmentService(db, cache, EnrollmentConfig{CacheTTL: time.Minute})

	instructor := createUser(t, db, models.RoleInstructor, "teach@example.com")
	course := createCourse(t, db, instructor.ID, "GONE01", true)
	createAssignment(t, db, course, "Quiz", time.Now().Add(time.Hour))
	student := createUser(t, db, models.RoleStudent, "learn@example.com")

	_, err := enrollSvc.EnrollByCode(context.Background(), student.ID, dto.EnrollByCodeRequest{EnrollmentCode: course.EnrollmentCode})
	require.NoError(t, err)

	listed, err := enrollSvc.ListForStudent(context.Background(), student.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	require.NoError(t, svc.Delete(context.Background(), Actor{ID: instructor.ID, Role: models.RoleInstructor}, course.ID))

	var enrollments, assignments, submissions int64
	require.NoError(t, db.Model(&models.Enrollment{}).Where("course_id = ?", course.ID).Count(&enrollments).Error)
	require.NoError(t, db.Model(&models.Assignment{}).Where("course_id = ?", course.ID).Count(&assignments).Error)
	require.NoError(t, db.Model(&models.Submission{}).Where("student_id = ?", student.ID).Count(&submissions).Error)
	require.Zero(t, enrollments, "no orphan enrollments survive a course delete")
	require.Zero(t, assignments)
	require.Zero(t, submissions)

	listed, err = enrollSvc.ListForStudent(context.Background(), student.ID)
	require.NoError(t, err)
	require.Empty(t, listed, "cached listing is dropped when the course goes away")
}

func TestCourseServiceRemoveStudentDeletesSubmissions(t *testing.T) {
	db := newTestDB(t)
	svc := newCourseService(db, nil)
	enrollSvc := newEnrollmentService(db, nil, EnrollmentConfig{})

	instructor := createUser(t, db, models.RoleInstructor, "teach@example.com")
	course := createCourse(t, db, instructor.ID, "KICK01", true)
	createAssignment(t, db, course, "Quiz", time.Now().Add(time.Hour))
	student := createUser(t, db, models.RoleStudent, "learn@example.com")

	_, err := enrollSvc.EnrollByCode(context.Background(), student.ID, dto.EnrollByCodeRequest{EnrollmentCode: course.EnrollmentCode})
	require.NoError(t, err)

	actor := Actor{ID: instructor.ID, Role: models.RoleInstructor}
	require.NoError(t, svc.RemoveStudent(context.Background(), actor, course.ID, student.ID))

	var enrollments, submissions int64
	require.NoError(t, db.Model(&models.Enrollment{}).Where("student_id = ?", student.ID).Count(&enrollments).Error)
	require.NoError(t, db.Model(&models.Submission{}).Where("student_id = ?", student.ID).Count(&submissions).Error)
	require.Zero(t, enrollments)
	require.Zero(t, submissions, "instructor removal also clears the student's submissions")

	require.ErrorIs(t, svc.RemoveStudent(context.Background(), actor, course.ID, student.ID), ErrStudentNotEnrolled)
}

func TestGenerateEnrollmentCode(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		code, err := generateEnrollmentCode(6)
		require.NoError(t, err)
		require.Len(t, code, 6)
		require.Equal(t, strings.ToUpper(code), code)
		for _, r := range code {
			require.Contains(t, enrollmentCodeAlphabet, string(r))
		}
		seen[code] = struct{}{}
	}
	require.Greater(t, len(seen), 1)
}
