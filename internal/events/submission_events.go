package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents different types of published domain events
type EventType string

const (
	EventSubmissionRecorded EventType = "submission.recorded"
	EventMetricsRecomputed  EventType = "metrics.recomputed"
)

// SubmissionEvent is the envelope for every event this service publishes
type SubmissionEvent struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Data      interface{} `json:"data"`
}

// SubmissionRecordedEvent is emitted after a submission has been stored and
// the event metrics refreshed
type SubmissionRecordedEvent struct {
	EventID      string  `json:"event_id"`
	CourseID     string  `json:"course_id"`
	StudentEmail string  `json:"student_email"`
	Kind         string  `json:"kind"` // "quiz" or "survey"
	Score        float64 `json:"score"`
}

// MetricsRecomputedEvent is emitted after a standalone metrics repair pass
type MetricsRecomputedEvent struct {
	EventID              string  `json:"event_id"`
	QuizSubmittedCount   int     `json:"quiz_submitted_count"`
	QuizAverageScore     float64 `json:"quiz_average_score"`
	SurveySubmittedCount int     `json:"survey_submitted_count"`
	SurveyAverageScore   float64 `json:"survey_average_score"`
}

// Event factory functions

func NewSubmissionRecorded(eventID, courseID, studentEmail, kind string, score float64) *SubmissionEvent {
	return &SubmissionEvent{
		ID:        uuid.NewString(),
		Type:      EventSubmissionRecorded,
		Timestamp: time.Now(),
		Source:    "course-admin-service",
		Version:   "1.0",
		Data: SubmissionRecordedEvent{
			EventID:      eventID,
			CourseID:     courseID,
			StudentEmail: studentEmail,
			Kind:         kind,
			Score:        score,
		},
	}
}

func NewMetricsRecomputed(eventID string, quizCount int, quizAvg float64, surveyCount int, surveyAvg float64) *SubmissionEvent {
	return &SubmissionEvent{
		ID:        uuid.NewString(),
		Type:      EventMetricsRecomputed,
		Timestamp: time.Now(),
		Source:    "course-admin-service",
		Version:   "1.0",
		Data: MetricsRecomputedEvent{
			EventID:              eventID,
			QuizSubmittedCount:   quizCount,
			QuizAverageScore:     quizAvg,
			SurveySubmittedCount: surveyCount,
			SurveyAverageScore:   surveyAvg,
		},
	}
}
