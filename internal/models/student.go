package models

import "time"

// Student is keyed by email. A record is created on first enrollment in any
// event and updated in place afterwards.
type Student struct {
	Email              string    `json:"email" gorm:"primaryKey;size:255" validate:"required,email"`
	Name               string    `json:"name" gorm:"not null;size:200" validate:"required,min=1,max=200"`
	Phone              string    `json:"phone,omitempty" validate:"omitempty,max=32"`
	EnrolledCourseName string    `json:"enrolled_course_name,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (Student) TableName() string {
	return "students"
}
