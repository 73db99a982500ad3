package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// QuestionResult is the per-question breakdown of a graded quiz.
type QuestionResult struct {
	Question      string `json:"question"`
	StudentAnswer string `json:"student_answer"`
	CorrectAnswer string `json:"correct_answer"`
	IsCorrect     bool   `json:"is_correct"`
}

// QuizSubmission is one student's graded quiz inside an event's embedded
// array. Documents written by earlier versions of the system used different
// key names for several fields; Raw keeps the stored document around so the
// metrics aggregator can read through those aliases.
type QuizSubmission struct {
	StudentEmail   string           `json:"student_email"`
	StudentName    string           `json:"student_name"`
	SubmittedAt    time.Time        `json:"submitted_at"`
	Score          float64          `json:"score"`
	CorrectCount   int              `json:"correct_count"`
	TotalQuestions int              `json:"total_questions"`
	PerQuestion    []QuestionResult `json:"per_question_result,omitempty"`

	Raw map[string]json.RawMessage `json:"-" gorm:"-"`
}

func (s *QuizSubmission) UnmarshalJSON(data []byte) error {
	type plain QuizSubmission
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*s = QuizSubmission(p)
	return json.Unmarshal(data, &s.Raw)
}

// Email returns the submitting student's email, falling back to the legacy
// "email" key for documents written before the field was renamed.
func (s *QuizSubmission) Email() string {
	if s.StudentEmail != "" {
		return s.StudentEmail
	}
	return rawString(s.Raw, "email")
}

// ItemResult is the per-item breakdown of a scored survey.
type ItemResult struct {
	Question    string `json:"question"`
	RatingValue int    `json:"rating_value"`
	RatingLabel string `json:"rating_label"`
	Section     string `json:"section"`
}

// SurveySubmission is one student's scored satisfaction survey inside an
// event's embedded array. Raw serves the same legacy-alias purpose as on
// QuizSubmission.
type SurveySubmission struct {
	StudentEmail      string       `json:"student_email"`
	StudentName       string       `json:"student_name"`
	SubmittedAt       time.Time    `json:"submitted_at"`
	WorkshopAverage   float64      `json:"workshop_average"`
	InstructorAverage float64      `json:"instructor_average"`
	OverallAverage    float64      `json:"overall_average"`
	Comments          string       `json:"comments"`
	PerItem           []ItemResult `json:"per_item_result,omitempty"`

	Raw map[string]json.RawMessage `json:"-" gorm:"-"`
}

func (s *SurveySubmission) UnmarshalJSON(data []byte) error {
	type plain SurveySubmission
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*s = SurveySubmission(p)
	return json.Unmarshal(data, &s.Raw)
}

func (s *SurveySubmission) Email() string {
	if s.StudentEmail != "" {
		return s.StudentEmail
	}
	return rawString(s.Raw, "email")
}

func rawString(raw map[string]json.RawMessage, key string) string {
	if raw == nil {
		return ""
	}
	var v string
	if msg, ok := raw[key]; ok {
		if err := json.Unmarshal(msg, &v); err == nil {
			return v
		}
	}
	return ""
}

type SubmissionKind string

const (
	SubmissionQuiz   SubmissionKind = "quiz"
	SubmissionSurvey SubmissionKind = "survey"
)

// Submission is the legacy standalone submission record. The event's embedded
// arrays are authoritative; intake mirror-writes one of these per accepted
// submission so older reporting paths keep working.
type Submission struct {
	ID           string         `json:"id" gorm:"primaryKey;size:36"`
	EventID      string         `json:"event_id" gorm:"size:36;index"`
	CourseID     string         `json:"course_id" gorm:"size:36;index"`
	StudentEmail string         `json:"student_email" gorm:"size:255;index"`
	Kind         SubmissionKind `json:"kind" gorm:"size:16"`
	Payload      datatypes.JSON `json:"payload"`
	SubmittedAt  time.Time      `json:"submitted_at"`
}

func (Submission) TableName() string {
	return "submissions"
}
