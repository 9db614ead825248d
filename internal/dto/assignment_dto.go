package dto

import (
	"time"

	"github.com/hanafi-dev/lms-go-api/internal/models"
)

// AssignmentCreateRequest describes the payload for publishing an assignment.
type AssignmentCreateRequest struct {
	CourseID    uint   `json:"course_id" validate:"required,gt=0"`
	Title       string `json:"title" validate:"required,min=3"`
	Description string `json:"description"`
	Type        string `json:"type" validate:"omitempty,oneof=Quiz Homework Project Exam"`
	Points      int    `json:"points" validate:"omitempty,gte=1"`
	DueDate     string `json:"due_date" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
}

// AssignmentUpdateRequest describes a partial assignment update.
type AssignmentUpdateRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=3"`
	Description *string `json:"description"`
	Type        *string `json:"type" validate:"omitempty,oneof=Quiz Homework Project Exam"`
	Points      *int    `json:"points" validate:"omitempty,gte=1"`
	DueDate     *string `json:"due_date" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

// AssignmentResponse is the serialized representation returned to API clients.
// Status and Grade are populated only for student callers, overlaying the
// student's own submission onto the assignment.
type AssignmentResponse struct {
	ID          uint      `json:"id"`
	CourseID    uint      `json:"course_id"`
	CourseTitle string    `json:"course_title,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Type        string    `json:"type"`
	Points      int       `json:"points"`
	DueDate     time.Time `json:"due_date"`
	Status      string    `json:"status,omitempty"`
	Grade       *float64  `json:"grade,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewAssignmentResponse converts a model into a DTO.
func NewAssignmentResponse(model models.Assignment) AssignmentResponse {
	response := AssignmentResponse{
		ID:          model.ID,
		CourseID:    model.CourseID,
		Title:       model.Title,
		Description: model.Description,
		Type:        model.Type,
		Points:      model.Points,
		DueDate:     model.DueDate,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}

	if model.Course.ID != 0 {
		response.CourseTitle = model.Course.Title
	}

	return response
}

// NewAssignmentResponseSlice converts a slice of models into DTOs.
func NewAssignmentResponseSlice(assignments []models.Assignment) []AssignmentResponse {
	responses := make([]AssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		responses = append(responses, NewAssignmentResponse(assignment))
	}

	return responses
}
