package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hanafi-dev/lms-go-api/internal/models"
)

// AssignmentFilter narrows assignment listings.
type AssignmentFilter struct {
	CourseID     *uint
	CourseIDs    []uint
	InstructorID *uint
	Type         string
	Sort         string
}

// AssignmentRepository defines persistence operations for assignments.
type AssignmentRepository interface {
	List(ctx context.Context, filter AssignmentFilter) ([]models.Assignment, error)
	GetByID(ctx context.Context, id uint) (models.Assignment, error)
	IDsByCourse(ctx context.Context, courseID uint) ([]uint, error)
	CreateWithFanOut(ctx context.Context, assignment *models.Assignment, studentIDs []uint) error
	Update(ctx context.Context, assignment *models.Assignment) error
	Delete(ctx context.Context, id uint) error
}

type assignmentRepository struct {
	db *gorm.DB
}

// NewAssignmentRepository instantiates a GORM-backed repository.
func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) List(ctx context.Context, filter AssignmentFilter) ([]models.Assignment, error) {
	query := r.db.WithContext(ctx).Model(&models.Assignment{}).Preload("Course")

	if filter.CourseID != nil {
		query = query.Where("course_id = ?", *filter.CourseID)
	}

	if filter.CourseIDs != nil {
		query = query.Where("course_id IN ?", filter.CourseIDs)
	}

	if filter.InstructorID != nil {
		query = query.Where("instructor_id = ?", *filter.InstructorID)
	}

	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}

	var assignments []models.Assignment
	if err := query.Order(normalizeAssignmentSort(filter.Sort)).Find(&assignments).Error; err != nil {
		return nil, err
	}

	return assignments, nil
}

func (r *assignmentRepository) GetByID(ctx context.Context, id uint) (models.Assignment, error) {
	var assignment models.Assignment
	if err := r.db.WithContext(ctx).Preload("Course").First(&assignment, id).Error; err != nil {
		return models.Assignment{}, err
	}

	return assignment, nil
}

func (r *assignmentRepository) IDsByCourse(ctx context.Context, courseID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Assignment{}).
		Where("course_id = ?", courseID).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}

	return ids, nil
}

// CreateWithFanOut persists the assignment and one Not Started submission
// placeholder per currently enrolled student, in a single transaction. The
// (assignment, student) unique index plus ON CONFLICT DO NOTHING makes a
// concurrent double-submission of the creation request harmless.
func (r *assignmentRepository) CreateWithFanOut(ctx context.Context, assignment *models.Assignment, studentIDs []uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(assignment).Error; err != nil {
			return err
		}

		if len(studentIDs) == 0 {
			return nil
		}

		placeholders := make([]models.Submission, 0, len(studentIDs))
		for _, studentID := range studentIDs {
			placeholders = append(placeholders, models.Submission{
				AssignmentID: assignment.ID,
				StudentID:    studentID,
				Status:       models.SubmissionStatusNotStarted,
			})
		}

		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&placeholders).Error
	})
}

func (r *assignmentRepository) Update(ctx context.Context, assignment *models.Assignment) error {
	return r.db.WithContext(ctx).Save(assignment).Error
}

// Delete removes the assignment and cascades to every submission referencing it.
func (r *assignmentRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("assignment_id = ?", id).Delete(&models.Submission{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.Assignment{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func normalizeAssignmentSort(sort string) string {
	switch strings.ToLower(strings.TrimSpace(sort)) {
	case "due_date", "due_date:asc":
		return "due_date ASC"
	case "-due_date", "due_date:desc":
		return "due_date DESC"
	case "title", "title:asc":
		return "title ASC"
	case "-title", "title:desc":
		return "title DESC"
	default:
		return "due_date ASC"
	}
}
