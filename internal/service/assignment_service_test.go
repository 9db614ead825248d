package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hanafi-dev/lms-go-api/internal/dto"
	"github.com/hanafi-dev/lms-go-api/internal/models"
	"github.com/hanafi-dev/lms-go-api/internal/repository"
)

func newAssignmentService(db *gorm.DB) AssignmentService {
	return NewAssignmentService(
		repository.NewAssignmentRepository(db),
		repository.NewCourseRepository(db),
		repository.NewEnrollmentRepository(db),
		repository.NewSubmissionRepository(db),
		validator.New(validator.WithRequiredStructEnabled()),
		testLogger(),
	)
}

func TestAssignmentServiceCreateFansOutToRoster(t *testing.T) {
	db := newTestDB(t)
	svc := newAssignmentService(db)
	enrollSvc := newEnrollmentService(db, nil, EnrollmentConfig{})

	instructor := createUser(t, db, models.RoleInstructor, "teach@example.com")
	course := createCourse(t, db, instructor.ID, "FANNED", true)
	alice := createUser(t, db, models.RoleStudent, "alice@example.com")
	bob := createUser(t, db, models.RoleStudent, "bob@example.com")

	_, err := enrollSvc.EnrollByCode(context.Background(), alice.ID, dto.EnrollByCodeRequest{EnrollmentCode: course.EnrollmentCode})
	require.NoError(t, err)
	_, err = enrollSvc.EnrollByCode(context.Background(), bob.ID, dto.EnrollByCodeRequest{EnrollmentCode: course.EnrollmentCode})
	require.NoError(t, err)

	actor := Actor{ID: instructor.ID, Role: models.RoleInstructor}
	created, err := svc.Create(context.Background(), actor, dto.AssignmentCreateRequest{
		CourseID: course.ID,
		Title:    "Midterm Exam",
		DueDate:  time.Now().Add(7 * 24 * time.Hour).Format(time.RFC3339),
	})
	require.NoError(t, err)
	require.Equal(t, models.AssignmentTypeQuiz, created.Type, "type defaults to quiz")
	require.Equal(t, 100, created.Points, "points default to 100")

	var placeholders int64
	require.NoError(t, db.Model(&models.Submission{}).Where("assignment_id = ?", created.ID).Count(&placeholders).Error)
	require.Equal(t, int64(2), placeholders, "every active student receives a placeholder")
}

func TestAssignmentServiceCreateValidation(t *testing.T) {
	db := newTestDB(t)
	svc := newAssignmentService(db)

	instructor := createUser(t, db, models.RoleInstructor, "teach@example.com")
	other := createUser(t, db, models.RoleInstructor, "other@example.com")
	course := createCourse(t, db, instructor.ID, "CHECKS", true)

	actor := Actor{ID: instructor.ID, Role: models.RoleInstructor}

	_, err := svc.Create(context.Background(), actor, dto.AssignmentCreateRequest{
		CourseID: course.ID,
		Title:    "Late Quiz",
		DueDate:  time.Now().Add(-time.Hour).Format(time.RFC3339),
	})
	require.ErrorIs(t, err, ErrDueDateNotFuture)

	_, err = svc.Create(context.Background(), Actor{ID: other.ID, Role: models.RoleInstructor}, dto.AssignmentCreateRequest{
		CourseID: course.ID,
		Title:    "Intruder Quiz",
		DueDate:  time.Now().Add(time.Hour).Format(time.RFC3339),
	})
	require.ErrorIs(t, err, ErrNotCourseOwner)

	_, err = svc.Create(context.Background(), actor, dto.AssignmentCreateRequest{
		CourseID: 9999,
		Title:    "Orphan Quiz",
		DueDate:  time.Now().Add(time.Hour).Format(time.RFC3339),
	})
	require.ErrorIs(t, err, ErrCourseNotFound)

	_, err = svc.Create(context.Background(), actor, dto.AssignmentCreateRequest{
		CourseID: course.ID,
		Title:    "Bad Type",
		Type:     "Essay",
		DueDate:  time.Now().Add(time.Hour).Format(time.RFC3339),
	})
	require.Error(t, err, "unknown assignment types are rejected")
}

func TestAssignmentServiceListStudentOverlay(t *testing.T) {
	db := newTestDB(t)
	svc := newAssignmentService(db)
	enrollSvc := newEnrollmentService(db, nil, EnrollmentConfig{})

	instructor := createUser(t, db, models.RoleInstructor, "teach@example.com")
	course := createCourse(t, db, instructor.ID, "LAYERS", true)
	student := createUser(t, db, models.RoleStudent, "learn@example.com")
	outsider := createUser(t, db, models.RoleStudent, "out@example.com")

	first := createAssignment(t, db, course, "Quiz 1", time.Now().Add(24*time.Hour))
	createAssignment(t, db, course, "Quiz 2", time.Now().Add(48*time.Hour))

	_, err := enrollSvc.EnrollByCode(context.Background(), student.ID, dto.EnrollByCodeRequest{EnrollmentCode: course.EnrollmentCode})
	require.NoError(t, err)

	grade := 91.0
	require.NoError(t, db.Model(&models.Submission{}).
		Where("assignment_id = ? AND student_id = ?", first.ID, student.ID).
		Updates(map[string]interface{}{"status": models.SubmissionStatusCompleted, "grade": grade}).Error)

	listed, err := svc.List(context.Background(), Actor{ID: student.ID, Role: models.RoleStudent}, AssignmentListQuery{})
	require.NoError(t, err)
	require.Len(t, listed, 2)

	byID := make(map[uint]dto.AssignmentResponse, len(listed))
	for _, response := range listed {
		byID[response.ID] = response
	}
	require.Equal(t, models.SubmissionStatusCompleted, byID[first.ID].Status)
	require.NotNil(t, byID[first.ID].Grade)
	require.Equal(t, grade, *byID[first.ID].Grade)

	for id, response := range byID {
		if id != first.ID {
			require.Equal(t, models.SubmissionStatusNotStarted, response.Status)
			require.Nil(t, response.Grade)
		}
	}

	none, err := svc.List(context.Background(), Actor{ID: outsider.ID, Role: models.RoleStudent}, AssignmentListQuery{})
	require.NoError(t, err)
	require.Empty(t, none, "students enrolled nowhere see no assignments")
}

func TestAssignmentServiceListInstructorScope(t *testing.T) {
	db := newTestDB(t)
	svc := newAssignmentService(db)

	instructor := createUser(t, db, models.RoleInstructor, "teach@example.com")
	other := createUser(t, db, models.RoleInstructor, "other@example.com")
	mine := createCourse(t, db, instructor.ID, "SCOPE1", true)
	theirs := createCourse(t, db, other.ID, "SCOPE2", true)

	createAssignment(t, db, mine, "Mine", time.Now().Add(time.Hour))
	createAssignment(t, db, theirs, "Theirs", time.Now().Add(time.Hour))

	listed, err := svc.List(context.Background(), Actor{ID: instructor.ID, Role: models.RoleInstructor}, AssignmentListQuery{})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, "Mine", listed[0].Title)

	everything, err := svc.List(context.Background(), Actor{ID: 0, Role: models.RoleAdmin}, AssignmentListQuery{})
	require.NoError(t, err)
	require.Len(t, everything, 2)
}

func TestAssignmentServiceUpdateAndDelete(t *testing.T) {
	db := newTestDB(t)
	svc := newAssignmentService(db)

	instructor := createUser(t, db, models.RoleInstructor, "teach@example.com")
	other := createUser(t, db, models.RoleInstructor, "other@example.com")
	course := createCourse(t, db, instructor.ID, "EDITS1", true)
	assignment := createAssignment(t, db, course, "Quiz", time.Now().Add(time.Hour))

	points := 40
	_, err := svc.Update(context.Background(), Actor{ID: other.ID, Role: models.RoleInstructor}, assignment.ID, dto.AssignmentUpdateRequest{Points: &points})
	require.ErrorIs(t, err, ErrNotAssignmentOwner)

	updated, err := svc.Update(context.Background(), Actor{ID: instructor.ID, Role: models.RoleInstructor}, assignment.ID, dto.AssignmentUpdateRequest{Points: &points})
	require.NoError(t, err)
	require.Equal(t, 40, updated.Points)

	require.ErrorIs(t, svc.Delete(context.Background(), Actor{ID: other.ID, Role: models.RoleInstructor}, assignment.ID), ErrNotAssignmentOwner)
	require.NoError(t, svc.Delete(context.Background(), Actor{ID: instructor.ID, Role: models.RoleInstructor}, assignment.ID))

	_, err = svc.Get(context.Background(), Actor{ID: instructor.ID, Role: models.RoleInstructor}, assignment.ID)
	require.ErrorIs(t, err, ErrAssignmentNotFound)
}
