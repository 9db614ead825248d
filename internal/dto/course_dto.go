package dto

import (
	"time"

	"github.com/hanafi-dev/lms-go-api/internal/models"
)

// CourseCreateRequest describes the payload for creating a course.
type CourseCreateRequest struct {
	Title       string     `json:"title" validate:"required,min=3"`
	Description string     `json:"description" validate:"required,min=10"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	Thumbnail   string     `json:"thumbnail" validate:"omitempty,url"`
}

// CourseUpdateRequest describes a partial course update.
type CourseUpdateRequest struct {
	Title       *string    `json:"title" validate:"omitempty,min=3"`
	Description *string    `json:"description" validate:"omitempty,min=10"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	IsActive    *bool      `json:"is_active"`
	Thumbnail   *string    `json:"thumbnail" validate:"omitempty,url"`
}

// InstructorLite summarizes an instructor in course responses.
type InstructorLite struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CourseResponse is the serialized course representation returned to
// instructors and admins. The enrolled count is derived from active
// enrollments, never stored on the course.
type CourseResponse struct {
	ID             uint           `json:"id"`
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	Instructor     InstructorLite `json:"instructor"`
	EnrollmentCode string         `json:"enrollment_code"`
	IsActive       bool           `json:"is_active"`
	StartDate      *time.Time     `json:"start_date"`
	EndDate        *time.Time     `json:"end_date"`
	Thumbnail      string         `json:"thumbnail"`
	Enrolled       int64          `json:"enrolled"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// CourseSummary is the trimmed course representation embedded in enrollment
// responses; it deliberately omits the enrollment code.
type CourseSummary struct {
	ID          uint           `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Instructor  InstructorLite `json:"instructor"`
	IsActive    bool           `json:"is_active"`
	Thumbnail   string         `json:"thumbnail"`
}

// NewCourseResponse converts a model into a DTO.
func NewCourseResponse(model models.Course, enrolled int64) CourseResponse {
	response := CourseResponse{
		ID:             model.ID,
		Title:          model.Title,
		Description:    model.Description,
		EnrollmentCode: model.EnrollmentCode,
		IsActive:       model.IsActive,
		StartDate:      model.StartDate,
		EndDate:        model.EndDate,
		Thumbnail:      model.Thumbnail,
		Enrolled:       enrolled,
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
	}

	if model.Instructor.ID != 0 {
		response.Instructor = InstructorLite{
			ID:    model.Instructor.ID,
			Name:  model.Instructor.Name,
			Email: model.Instructor.Email,
		}
	} else {
		response.Instructor = InstructorLite{ID: model.InstructorID}
	}

	return response
}

// NewCourseSummary converts a model into the trimmed representation.
func NewCourseSummary(model models.Course) CourseSummary {
	summary := CourseSummary{
		ID:          model.ID,
		Title:       model.Title,
		Description: model.Description,
		IsActive:    model.IsActive,
		Thumbnail:   model.Thumbnail,
	}

	if model.Instructor.ID != 0 {
		summary.Instructor = InstructorLite{
			ID:    model.Instructor.ID,
			Name:  model.Instructor.Name,
			Email: model.Instructor.Email,
		}
	} else {
		summary.Instructor = InstructorLite{ID: model.InstructorID}
	}

	return summary
}
