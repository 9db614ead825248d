package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/hanafi-dev/lms-go-api/internal/models"
)

// CourseFilter narrows course listings by role-derived scope.
type CourseFilter struct {
	InstructorID *uint
	ActiveOnly   bool
	Search       string
}

// CourseRepository defines persistence operations for courses.
type CourseRepository interface {
	List(ctx context.Context, filter CourseFilter) ([]models.Course, error)
	GetByID(ctx context.Context, id uint) (models.Course, error)
	GetByEnrollmentCode(ctx context.Context, code string) (models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id uint) error
}

type courseRepository struct {
	db *gorm.DB
}

// NewCourseRepository instantiates a GORM-backed repository.
func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Course{}).Preload("Instructor")
}

func (r *courseRepository) List(ctx context.Context, filter CourseFilter) ([]models.Course, error) {
	query := r.baseQuery(ctx)

	if filter.InstructorID != nil {
		query = query.Where("instructor_id = ?", *filter.InstructorID)
	}

	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}

	if filter.Search != "" {
		pattern := "%" + strings.ToLower(strings.TrimSpace(filter.Search)) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}

	var courses []models.Course
	if err := query.Order("created_at DESC").Find(&courses).Error; err != nil {
		return nil, err
	}

	return courses, nil
}

func (r *courseRepository) GetByID(ctx context.Context, id uint) (models.Course, error) {
	var course models.Course
	if err := r.baseQuery(ctx).First(&course, id).Error; err != nil {
		return models.Course{}, err
	}

	return course, nil
}

// GetByEnrollmentCode resolves a human-entered code to its course. The match
// is exact and case-sensitive.
func (r *courseRepository) GetByEnrollmentCode(ctx context.Context, code string) (models.Course, error) {
	var course models.Course
	if err := r.baseQuery(ctx).Where("enrollment_code = ?", code).First(&course).Error; err != nil {
		return models.Course{}, err
	}

	return course, nil
}

func (r *courseRepository) Create(ctx context.Context, course *models.Course) error {
	return r.db.WithContext(ctx).Create(course).Error
}

func (r *courseRepository) Update(ctx context.Context, course *models.Course) error {
	return r.db.WithContext(ctx).Save(course).Error
}

// Delete removes the course together with its assignments, their submissions
// and all enrollment rows, in one transaction. Enrollments referencing a
// deleted course must not survive as orphans.
func (r *courseRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var assignmentIDs []uint
		if err := tx.Model(&models.Assignment{}).Where("course_id = ?", id).Pluck("id", &assignmentIDs).Error; err != nil {
			return err
		}

		if len(assignmentIDs) > 0 {
			if err := tx.Where("assignment_id IN ?", assignmentIDs).Delete(&models.Submission{}).Error; err != nil {
				return err
			}
			if err := tx.Where("course_id = ?", id).Delete(&models.Assignment{}).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("course_id = ?", id).Delete(&models.Enrollment{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.Course{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
