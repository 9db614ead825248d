package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hanafi-dev/lms-go-api/internal/models"
)

func TestAssignmentRepositoryCreateWithFanOut(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAssignmentRepository(db)

	course := seedCourse(t, db, "ASGFAN")
	alice := seedStudent(t, db, "alice@example.com")
	bob := seedStudent(t, db, "bob@example.com")

	assignment := models.Assignment{
		CourseID:     course.ID,
		InstructorID: course.InstructorID,
		Title:        "Graded Quiz",
		Type:         models.AssignmentTypeQuiz,
		Points:       100,
		DueDate:      time.Now().Add(72 * time.Hour),
	}
	require.NoError(t, repo.CreateWithFanOut(context.Background(), &assignment, []uint{alice.ID, bob.ID}))
	require.NotZero(t, assignment.ID)

	var placeholders []models.Submission
	require.NoError(t, db.Where("assignment_id = ?", assignment.ID).Order("student_id").Find(&placeholders).Error)
	require.Len(t, placeholders, 2)
	require.Equal(t, alice.ID, placeholders[0].StudentID)
	require.Equal(t, bob.ID, placeholders[1].StudentID)
	require.Equal(t, models.SubmissionStatusNotStarted, placeholders[0].Status)
}

func TestAssignmentRepositoryListSorting(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAssignmentRepository(db)

	course := seedCourse(t, db, "SORTED")
	later := models.Assignment{CourseID: course.ID, InstructorID: course.InstructorID, Title: "B Later", Type: models.AssignmentTypeExam, Points: 100, DueDate: time.Now().Add(48 * time.Hour)}
	sooner := models.Assignment{CourseID: course.ID, InstructorID: course.InstructorID, Title: "A Sooner", Type: models.AssignmentTypeQuiz, Points: 100, DueDate: time.Now().Add(24 * time.Hour)}
	require.NoError(t, db.Create(&later).Error)
	require.NoError(t, db.Create(&sooner).Error)

	assignments, err := repo.List(context.Background(), AssignmentFilter{CourseID: &course.ID})
	require.NoError(t, err)
	require.Len(t, assignments, 2)
	require.Equal(t, "A Sooner", assignments[0].Title, "default sort is due date ascending")

	assignments, err = repo.List(context.Background(), AssignmentFilter{CourseID: &course.ID, Sort: "-due_date"})
	require.NoError(t, err)
	require.Equal(t, "B Later", assignments[0].Title)

	assignments, err = repo.List(context.Background(), AssignmentFilter{CourseID: &course.ID, Type: models.AssignmentTypeExam})
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	require.Equal(t, "B Later", assignments[0].Title)

	// An empty non-nil slice means the student is enrolled nowhere and must
	// see nothing, not everything.
	assignments, err = repo.List(context.Background(), AssignmentFilter{CourseIDs: []uint{}})
	require.NoError(t, err)
	require.Empty(t, assignments)
}

func TestAssignmentRepositoryDeleteCascadesSubmissions(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAssignmentRepository(db)

	course := seedCourse(t, db, "ASGDEL")
	student := seedStudent(t, db, "asgdel@example.com")

	assignment := models.Assignment{CourseID: course.ID, InstructorID: course.InstructorID, Title: "Doomed", Type: models.AssignmentTypeQuiz, Points: 100, DueDate: time.Now().Add(time.Hour)}
	require.NoError(t, db.Create(&assignment).Error)
	require.NoError(t, db.Create(&models.Submission{AssignmentID: assignment.ID, StudentID: student.ID, Status: models.SubmissionStatusCompleted}).Error)

	require.NoError(t, repo.Delete(context.Background(), assignment.ID))

	var submissions int64
	require.NoError(t, db.Model(&models.Submission{}).Where("assignment_id = ?", assignment.ID).Count(&submissions).Error)
	require.Zero(t, submissions)

	err := repo.Delete(context.Background(), assignment.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
