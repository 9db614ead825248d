package models

import (
	"time"

	"gorm.io/datatypes"
)

// Submission statuses as they travel from placeholder to finished work.
const (
	SubmissionStatusNotStarted = "Not Started"
	SubmissionStatusInProgress = "In Progress"
	SubmissionStatusCompleted  = "Completed"
)

// Submission represents a student's work for one assignment. Rows are created
// as "Not Started" placeholders when a student enrolls or when an instructor
// publishes a new assignment; the (assignment_id, student_id) unique index
// keeps both fan-out directions idempotent.
type Submission struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	AssignmentID   uint           `gorm:"not null;uniqueIndex:idx_assignment_student" json:"assignment_id"`
	StudentID      uint           `gorm:"not null;uniqueIndex:idx_assignment_student" json:"student_id"`
	Status         string         `gorm:"size:32;not null;default:Not Started" json:"status"`
	SubmissionDate *time.Time     `json:"submission_date"`
	Grade          *float64       `json:"grade"`
	Feedback       string         `gorm:"type:text" json:"feedback"`
	SubmissionText string         `gorm:"type:text" json:"submission_text"`
	Attachments    datatypes.JSON `json:"attachments"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	Assignment     Assignment     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"assignment"`
	Student        User           `gorm:"foreignKey:StudentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
}

// SubmissionAttachment is the shape stored inside the attachments JSON column.
type SubmissionAttachment struct {
	Name       string    `json:"name"`
	FileURL    string    `json:"file_url"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// IsGraded reports whether an instructor has recorded a grade.
func (s Submission) IsGraded() bool {
	return s.Grade != nil
}
