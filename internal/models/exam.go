package models

import (
	"time"

	"gorm.io/datatypes"
)

type ExamKind string

const (
	ExamQuiz   ExamKind = "quiz"
	ExamSurvey ExamKind = "survey"
)

// Exam is the legacy storage shape for assessment definitions: a record
// linked to a course instead of a definition embedded in it. Structure is
// kept raw because historical documents vary; the course service normalizes
// it into QuizDefinition/SurveyDefinition at the lookup boundary.
type Exam struct {
	ID        string         `json:"id" gorm:"primaryKey;size:36"`
	CourseID  string         `json:"course_id" gorm:"size:36;index"`
	Name      string         `json:"name" gorm:"size:200"`
	Kind      ExamKind       `json:"kind" gorm:"size:16;index"`
	Structure datatypes.JSON `json:"structure"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (Exam) TableName() string {
	return "exams"
}
