package dto

import (
	"time"

	"github.com/hanafi-dev/lms-go-api/internal/models"
)

// AttachmentPayload describes one uploaded artifact attached to a submission.
type AttachmentPayload struct {
	Name    string `json:"name" validate:"required"`
	FileURL string `json:"file_url" validate:"required,url"`
}

// SubmissionSubmitRequest is the payload a student sends when working on an
// assignment. Omitting status defaults the submission to Completed.
type SubmissionSubmitRequest struct {
	SubmissionText string              `json:"submission_text"`
	Status         string              `json:"status" validate:"omitempty,oneof='In Progress' Completed"`
	Attachments    []AttachmentPayload `json:"attachments" validate:"omitempty,dive"`
}

// SubmissionGradeRequest is used by instructors to grade a submission.
type SubmissionGradeRequest struct {
	Grade    *float64 `json:"grade" validate:"required,gte=0"`
	Feedback string   `json:"feedback"`
}

// SubmissionFilter describes query string filters for listing submissions.
type SubmissionFilter struct {
	AssignmentID *uint   `query:"assignment_id"`
	StudentID    *uint   `query:"student_id"`
	Status       *string `query:"status" validate:"omitempty,oneof='Not Started' 'In Progress' Completed"`
}

// AssignmentLite summarizes an assignment in submission responses.
type AssignmentLite struct {
	ID      uint      `json:"id"`
	Title   string    `json:"title"`
	Points  int       `json:"points"`
	DueDate time.Time `json:"due_date"`
}

// StudentLite summarizes a student without exposing full profile data.
type StudentLite struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// SubmissionResponse is returned to API clients when viewing submissions.
type SubmissionResponse struct {
	ID             uint                          `json:"id"`
	AssignmentID   uint                          `json:"assignment_id"`
	StudentID      uint                          `json:"student_id"`
	Status         string                        `json:"status"`
	SubmissionDate *time.Time                    `json:"submission_date"`
	Grade          *float64                      `json:"grade"`
	Feedback       string                        `json:"feedback"`
	SubmissionText string                        `json:"submission_text"`
	Attachments    []models.SubmissionAttachment `json:"attachments"`
	CreatedAt      time.Time                     `json:"created_at"`
	UpdatedAt      time.Time                     `json:"updated_at"`
	Assignment     AssignmentLite                `json:"assignment"`
	Student        StudentLite                   `json:"student"`
}

// NewSubmissionResponse converts a Submission model into a DTO.
func NewSubmissionResponse(model models.Submission, attachments []models.SubmissionAttachment) SubmissionResponse {
	response := SubmissionResponse{
		ID:             model.ID,
		AssignmentID:   model.AssignmentID,
		StudentID:      model.StudentID,
		Status:         model.Status,
		SubmissionDate: model.SubmissionDate,
		Grade:          model.Grade,
		Feedback:       model.Feedback,
		SubmissionText: model.SubmissionText,
		Attachments:    attachments,
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
	}

	if response.Attachments == nil {
		response.Attachments = []models.SubmissionAttachment{}
	}

	if model.Assignment.ID != 0 {
		response.Assignment = AssignmentLite{
			ID:      model.Assignment.ID,
			Title:   model.Assignment.Title,
			Points:  model.Assignment.Points,
			DueDate: model.Assignment.DueDate,
		}
	}

	if model.Student.ID != 0 {
		response.Student = StudentLite{
			ID:    model.Student.ID,
			Name:  model.Student.Name,
			Email: model.Student.Email,
		}
	}

	return response
}
