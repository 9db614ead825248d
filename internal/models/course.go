package models

import "time"

// Course is a teachable unit owned by an instructor. Students join it by
// redeeming the course's enrollment code. Membership is not stored on the
// course itself; it is derived from active Enrollment rows.
type Course struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Title          string     `gorm:"size:255;not null" json:"title"`
	Description    string     `gorm:"type:text" json:"description"`
	InstructorID   uint       `gorm:"not null;index" json:"instructor_id"`
	EnrollmentCode string     `gorm:"size:16;uniqueIndex;not null" json:"enrollment_code"`
	IsActive       bool       `gorm:"not null;default:true" json:"is_active"`
	StartDate      *time.Time `json:"start_date"`
	EndDate        *time.Time `json:"end_date"`
	Thumbnail      string     `gorm:"size:512" json:"thumbnail"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	Instructor     User       `gorm:"foreignKey:InstructorID" json:"instructor"`
}
