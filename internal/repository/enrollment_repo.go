package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hanafi-dev/lms-go-api/internal/models"
)

// EnrollmentFilter narrows enrollment queries.
type EnrollmentFilter struct {
	StudentID *uint
	CourseID  *uint
	Status    *string
}

// EnrollmentRepository defines persistence operations for enrollments. It is
// the single source of truth for course membership; there is no separate
// roster array to keep in sync.
type EnrollmentRepository interface {
	List(ctx context.Context, filter EnrollmentFilter) ([]models.Enrollment, error)
	GetByID(ctx context.Context, id uint) (models.Enrollment, error)
	GetByStudentAndCourse(ctx context.Context, studentID, courseID uint) (models.Enrollment, error)
	ActiveStudentIDs(ctx context.Context, courseID uint) ([]uint, error)
	CountActive(ctx context.Context, courseID uint) (int64, error)
	EnrollWithFanOut(ctx context.Context, enrollment *models.Enrollment, assignmentIDs []uint) error
	Update(ctx context.Context, enrollment *models.Enrollment) error
	Delete(ctx context.Context, id uint) error
}

type enrollmentRepository struct {
	db *gorm.DB
}

// NewEnrollmentRepository instantiates the repository.
func NewEnrollmentRepository(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (r *enrollmentRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Enrollment{}).
		Preload("Course").
		Preload("Course.Instructor")
}

func (r *enrollmentRepository) List(ctx context.Context, filter EnrollmentFilter) ([]models.Enrollment, error) {
	query := r.baseQuery(ctx)

	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}

	if filter.CourseID != nil {
		query = query.Where("course_id = ?", *filter.CourseID)
	}

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var enrollments []models.Enrollment
	if err := query.Order("enrolled_at DESC").Find(&enrollments).Error; err != nil {
		return nil, err
	}

	return enrollments, nil
}

func (r *enrollmentRepository) GetByID(ctx context.Context, id uint) (models.Enrollment, error) {
	var enrollment models.Enrollment
	if err := r.baseQuery(ctx).First(&enrollment, id).Error; err != nil {
		return models.Enrollment{}, err
	}

	return enrollment, nil
}

func (r *enrollmentRepository) GetByStudentAndCourse(ctx context.Context, studentID, courseID uint) (models.Enrollment, error) {
	var enrollment models.Enrollment
	if err := r.baseQuery(ctx).
		Where("student_id = ?", studentID).
		Where("course_id = ?", courseID).
		First(&enrollment).Error; err != nil {
		return models.Enrollment{}, err
	}

	return enrollment, nil
}

// ActiveStudentIDs returns the derived roster: every student holding an
// active enrollment in the course.
func (r *enrollmentRepository) ActiveStudentIDs(ctx context.Context, courseID uint) ([]uint, error) {
	var studentIDs []uint
	err := r.db.WithContext(ctx).Model(&models.Enrollment{}).
		Where("course_id = ?", courseID).
		Where("status = ?", models.EnrollmentStatusActive).
		Pluck("student_id", &studentIDs).Error
	if err != nil {
		return nil, err
	}

	return studentIDs, nil
}

func (r *enrollmentRepository) CountActive(ctx context.Context, courseID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Enrollment{}).
		Where("course_id = ?", courseID).
		Where("status = ?", models.EnrollmentStatusActive).
		Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// EnrollWithFanOut creates the enrollment row and one Not Started submission
// placeholder per existing assignment in a single transaction. The placeholder
// insert uses ON CONFLICT DO NOTHING so a retry after a partial failure fills
// in the missing rows without tripping the (assignment, student) unique index.
// A duplicate enrollment surfaces as gorm.ErrDuplicatedKey.
func (r *enrollmentRepository) EnrollWithFanOut(ctx context.Context, enrollment *models.Enrollment, assignmentIDs []uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(enrollment).Error; err != nil {
			return err
		}

		if len(assignmentIDs) == 0 {
			return nil
		}

		placeholders := make([]models.Submission, 0, len(assignmentIDs))
		for _, assignmentID := range assignmentIDs {
			placeholders = append(placeholders, models.Submission{
				AssignmentID: assignmentID,
				StudentID:    enrollment.StudentID,
				Status:       models.SubmissionStatusNotStarted,
			})
		}

		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&placeholders).Error
	})
}

func (r *enrollmentRepository) Update(ctx context.Context, enrollment *models.Enrollment) error {
	return r.db.WithContext(ctx).Save(enrollment).Error
}

func (r *enrollmentRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Enrollment{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
