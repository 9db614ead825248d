package models

import "time"

// Assignment type tags.
const (
	AssignmentTypeQuiz     = "Quiz"
	AssignmentTypeHomework = "Homework"
	AssignmentTypeProject  = "Project"
	AssignmentTypeExam     = "Exam"
)

// Assignment represents graded work belonging to exactly one course.
type Assignment struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CourseID     uint      `gorm:"not null;index" json:"course_id"`
	InstructorID uint      `gorm:"not null;index" json:"instructor_id"`
	Title        string    `gorm:"size:255;not null" json:"title"`
	Description  string    `gorm:"type:text" json:"description"`
	Type         string    `gorm:"size:32;not null;default:Quiz" json:"type"`
	Points       int       `gorm:"not null;default:100" json:"points"`
	DueDate      time.Time `gorm:"not null" json:"due_date"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Course       Course    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"course"`
}

// IsPastDue returns true when the assignment deadline has already passed.
func (a Assignment) IsPastDue(reference time.Time) bool {
	return reference.After(a.DueDate)
}
