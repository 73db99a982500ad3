package models

import (
	"time"

	"gorm.io/datatypes"
)

type EventStatus string

const (
	EventOpen   EventStatus = "open"
	EventClosed EventStatus = "closed"
)

// EnrolledStudent is one entry of an event's enrollment roster.
type EnrolledStudent struct {
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	EnrolledAt time.Time `json:"enrolled_at"`
}

// Event is a scheduled instance of a course. It exclusively owns its embedded
// submission arrays; the four summary metrics plus TotalEnrolled are derived
// values written only by the metrics aggregator.
type Event struct {
	ID              string      `json:"id" gorm:"primaryKey;size:36"`
	CourseID        string      `json:"course_id" gorm:"size:36;index"`
	CourseName      string      `json:"course_name" gorm:"size:200"`
	ScheduledDate   time.Time   `json:"scheduled_date" gorm:"index"`
	Status          EventStatus `json:"status" gorm:"default:open;index"`
	InstructorEmail string      `json:"instructor_email"`
	InstructorName  string      `json:"instructor_name"`

	EnrolledStudents  datatypes.JSONSlice[EnrolledStudent]  `json:"enrolled_students"`
	QuizSubmissions   datatypes.JSONSlice[QuizSubmission]   `json:"quiz_submissions"`
	SurveySubmissions datatypes.JSONSlice[SurveySubmission] `json:"survey_submissions"`

	// Derived metrics, always recomputed from the arrays above.
	TotalEnrolled        int     `json:"total_enrolled"`
	QuizSubmittedCount   int     `json:"quiz_submitted_count"`
	QuizAverageScore     float64 `json:"quiz_average_score"`
	SurveySubmittedCount int     `json:"survey_submitted_count"`
	SurveyAverageScore   float64 `json:"survey_average_score"`

	// Version guards read-check-append sequences against concurrent writers.
	Version int `json:"-" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Event) TableName() string {
	return "events"
}

// IsEnrolled reports whether the given email appears in the roster.
func (e *Event) IsEnrolled(email string) bool {
	for _, s := range e.EnrolledStudents {
		if s.Email == email {
			return true
		}
	}
	return false
}

// HasQuizSubmission reports whether the student already submitted a quiz.
func (e *Event) HasQuizSubmission(email string) bool {
	for i := range e.QuizSubmissions {
		if e.QuizSubmissions[i].Email() == email {
			return true
		}
	}
	return false
}

// HasSurveySubmission reports whether the student already submitted a survey.
func (e *Event) HasSurveySubmission(email string) bool {
	for i := range e.SurveySubmissions {
		if e.SurveySubmissions[i].Email() == email {
			return true
		}
	}
	return false
}
