package models

import "time"

// Enrollment lifecycle statuses. Active enrollments may move to completed or
// dropped; both of those are terminal.
const (
	EnrollmentStatusActive    = "active"
	EnrollmentStatusCompleted = "completed"
	EnrollmentStatusDropped   = "dropped"
)

// Enrollment binds one student to one course. The composite unique index on
// (student_id, course_id) is the system's hard guarantee against duplicate
// enrollment; concurrent enroll attempts are resolved by the database, not
// by application-level locking.
type Enrollment struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	StudentID    uint      `gorm:"not null;uniqueIndex:idx_student_course" json:"student_id"`
	CourseID     uint      `gorm:"not null;uniqueIndex:idx_student_course" json:"course_id"`
	Status       string    `gorm:"size:32;not null;default:active" json:"status"`
	Progress     int       `gorm:"not null;default:0" json:"progress"`
	EnrolledAt   time.Time `gorm:"not null" json:"enrolled_at"`
	LastAccessed time.Time `gorm:"not null" json:"last_accessed"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Student      User      `gorm:"foreignKey:StudentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
	Course       Course    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"course"`
}

// IsTerminal reports whether the enrollment has reached a final status.
func (e Enrollment) IsTerminal() bool {
	return e.Status == EnrollmentStatusCompleted || e.Status == EnrollmentStatusDropped
}

// CanTransitionTo validates a requested status change. Only active
// enrollments may change status, and only to completed or dropped.
func (e Enrollment) CanTransitionTo(status string) bool {
	if e.Status != EnrollmentStatusActive {
		return false
	}
	return status == EnrollmentStatusCompleted || status == EnrollmentStatusDropped
}
