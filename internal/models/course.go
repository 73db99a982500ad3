package models

import (
	"time"

	"gorm.io/datatypes"
)

type CourseStatus string

const (
	CourseActive   CourseStatus = "active"
	CourseInactive CourseStatus = "inactive"
)

type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
)

// Question is a single multiple-choice question inside a quiz definition.
type Question struct {
	Number        int          `json:"number" validate:"required,min=1"`
	Text          string       `json:"text" validate:"required"`
	Type          QuestionType `json:"type" validate:"omitempty,oneof=multiple_choice"`
	Options       []string     `json:"options" validate:"required,min=2"`
	CorrectAnswer string       `json:"correct_answer" validate:"required"`
}

// QuizDefinition is the canonical shape of a course quiz, regardless of
// whether it was stored embedded in the course or as a linked exam record.
type QuizDefinition struct {
	Name      string     `json:"name"`
	Questions []Question `json:"questions"`
}

// SurveyItem is one rated statement of a satisfaction survey, scored 1-6.
type SurveyItem struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

// SurveyDefinition has two rated sections plus one free-text comments item.
type SurveyDefinition struct {
	Name           string       `json:"name"`
	Workshop       []SurveyItem `json:"workshop"`
	Instructor     []SurveyItem `json:"instructor"`
	CommentsPrompt string       `json:"comments_prompt"`
}

type Course struct {
	ID              string       `json:"id" gorm:"primaryKey;size:36"`
	Name            string       `json:"name" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	TotalHours      int          `json:"total_hours" validate:"min=0"`
	DurationDays    int          `json:"duration_days" validate:"min=0"`
	Status          CourseStatus `json:"status" gorm:"default:active;index" validate:"omitempty,oneof=active inactive"`
	InstructorEmail string       `json:"instructor_email" validate:"omitempty,email"`
	InstructorName  string       `json:"instructor_name"`

	// At most one active definition of each kind per course. Either may be
	// absent; legacy courses keep theirs in a linked Exam record instead.
	QuizDefinition   *datatypes.JSONType[QuizDefinition]   `json:"quiz_definition,omitempty"`
	SurveyDefinition *datatypes.JSONType[SurveyDefinition] `json:"survey_definition,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Course) TableName() string {
	return "courses"
}
