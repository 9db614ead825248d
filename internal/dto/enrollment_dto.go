package dto

import (
	"time"

	"github.com/hanafi-dev/lms-go-api/internal/models"
)

// EnrollByCodeRequest carries the human-shareable code a student redeems.
type EnrollByCodeRequest struct {
	EnrollmentCode string `json:"enrollment_code" validate:"required"`
}

// EnrollmentStatusRequest requests a lifecycle transition. Active is not an
// accepted target: enrollments only move forward, to completed or dropped.
type EnrollmentStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=completed dropped"`
}

// EnrollmentProgressRequest updates the progress percentage. Out-of-range
// values are clamped to [0,100] rather than rejected.
type EnrollmentProgressRequest struct {
	Progress *int `json:"progress" validate:"required"`
}

// EnrollmentResponse is the full serialized enrollment.
type EnrollmentResponse struct {
	ID           uint          `json:"id"`
	StudentID    uint          `json:"student_id"`
	CourseID     uint          `json:"course_id"`
	Status       string        `json:"status"`
	Progress     int           `json:"progress"`
	EnrolledAt   time.Time     `json:"enrolled_at"`
	LastAccessed time.Time     `json:"last_accessed"`
	Course       CourseSummary `json:"course"`
}

// EnrolledCourseResponse is the per-course view returned by the student's
// enrollment listing: course summary joined with the student's standing.
type EnrolledCourseResponse struct {
	EnrollmentID uint          `json:"enrollment_id"`
	Course       CourseSummary `json:"course"`
	Status       string        `json:"status"`
	Progress     int           `json:"progress"`
	EnrolledAt   time.Time     `json:"enrolled_at"`
	LastAccessed time.Time     `json:"last_accessed"`
}

// NewEnrollmentResponse converts a model into a DTO.
func NewEnrollmentResponse(model models.Enrollment) EnrollmentResponse {
	return EnrollmentResponse{
		ID:           model.ID,
		StudentID:    model.StudentID,
		CourseID:     model.CourseID,
		Status:       model.Status,
		Progress:     model.Progress,
		EnrolledAt:   model.EnrolledAt,
		LastAccessed: model.LastAccessed,
		Course:       NewCourseSummary(model.Course),
	}
}

// NewEnrolledCourseResponse converts an enrollment joined with its course.
func NewEnrolledCourseResponse(model models.Enrollment) EnrolledCourseResponse {
	return EnrolledCourseResponse{
		EnrollmentID: model.ID,
		Course:       NewCourseSummary(model.Course),
		Status:       model.Status,
		Progress:     model.Progress,
		EnrolledAt:   model.EnrolledAt,
		LastAccessed: model.LastAccessed,
	}
}

// NewEnrolledCourseResponseSlice converts a slice of enrollments.
func NewEnrolledCourseResponseSlice(enrollments []models.Enrollment) []EnrolledCourseResponse {
	responses := make([]EnrolledCourseResponse, 0, len(enrollments))
	for _, enrollment := range enrollments {
		responses = append(responses, NewEnrolledCourseResponse(enrollment))
	}

	return responses
}
