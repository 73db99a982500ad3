package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tallerhq/course-admin-service/internal/events"
	"github.com/tallerhq/course-admin-service/internal/models"
	"github.com/tallerhq/course-admin-service/internal/repositories"
	"github.com/tallerhq/course-admin-service/internal/utils"
	"gorm.io/datatypes"
)

type SubmitQuizRequest struct {
	EventID      string         `json:"event_id" validate:"required"`
	StudentEmail string         `json:"student_email" validate:"required,email"`
	Answers      map[int]string `json:"answers" validate:"required"`
}

type SubmitSurveyRequest struct {
	EventID      string            `json:"event_id" validate:"required"`
	StudentEmail string            `json:"student_email" validate:"required,email"`
	Responses    map[string]string `json:"responses" validate:"required"`
}

// SubmissionService is the intake orchestrator: it validates enrollment,
// rejects duplicates, grades or scores the submission, appends it to the
// event's embedded array and refreshes the derived metrics. The append and
// the metrics land in one guarded row write, so a request either stores both
// or stores nothing.
type SubmissionService interface {
	SubmitQuiz(ctx context.Context, req *SubmitQuizRequest) (*models.QuizSubmission, error)
	SubmitSurvey(ctx context.Context, req *SubmitSurveyRequest) (*models.SurveySubmission, error)
}

type submissionService struct {
	repo      repositories.Repository
	courses   CourseService
	grading   GradingService
	surveys   SurveyService
	metrics   MetricsService
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *utils.Validator
}

func NewSubmissionService(
	repo repositories.Repository,
	courses CourseService,
	grading GradingService,
	surveys SurveyService,
	metrics MetricsService,
	publisher events.EventPublisher,
	logger *slog.Logger,
	validator *utils.Validator,
) SubmissionService {
	return &submissionService{
		repo:      repo,
		courses:   courses,
		grading:   grading,
		surveys:   surveys,
		metrics:   metrics,
		publisher: publisher,
		logger:    logger,
		validator: validator,
	}
}

func (s *submissionService) SubmitQuiz(ctx context.Context, req *SubmitQuizRequest) (*models.QuizSubmission, error) {
	s.logger.Info("Submitting quiz",
		"event_id", req.EventID,
		"student_email", req.StudentEmail)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	var definition *models.QuizDefinition

	// Read-check-append-recompute as one critical region, emulated with
	// bounded optimistic retries on the event version.
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		event, student, err := s.loadAndCheck(ctx, req.EventID, req.StudentEmail)
		if err != nil {
			return nil, err
		}
		if event.HasQuizSubmission(req.StudentEmail) {
			return nil, ErrAlreadySubmitted
		}

		if definition == nil {
			definition, err = s.courses.QuizDefinitionFor(ctx, event.CourseID)
			if err != nil {
				return nil, err
			}
		}

		result := s.grading.GradeQuiz(definition, req.Answers)
		submission := models.QuizSubmission{
			StudentEmail:   req.StudentEmail,
			StudentName:    student.Name,
			SubmittedAt:    time.Now().UTC(),
			Score:          result.Score,
			CorrectCount:   result.CorrectCount,
			TotalQuestions: result.TotalQuestions,
			PerQuestion:    result.PerQuestion,
		}

		event.QuizSubmissions = append(event.QuizSubmissions, submission)
		s.metrics.Recompute(event)

		err = s.repo.Event().UpdateGuarded(ctx, event, event.Version)
		if err == repositories.ErrStaleVersion {
			s.logger.Debug("quiz submission lost version race, retrying",
				"event_id", req.EventID,
				"attempt", attempt+1)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to store quiz submission: %w", err)
		}

		s.logger.Info("Quiz submission recorded",
			"event_id", req.EventID,
			"student_email", req.StudentEmail,
			"score", submission.Score)

		s.afterCommit(ctx, event, models.SubmissionQuiz, req.StudentEmail, submission.Score, submission)
		return &submission, nil
	}

	return nil, ErrConcurrentUpdate
}

func (s *submissionService) SubmitSurvey(ctx context.Context, req *SubmitSurveyRequest) (*models.SurveySubmission, error) {
	s.logger.Info("Submitting survey",
		"event_id", req.EventID,
		"student_email", req.StudentEmail)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	var definition *models.SurveyDefinition

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		event, student, err := s.loadAndCheck(ctx, req.EventID, req.StudentEmail)
		if err != nil {
			return nil, err
		}
		if event.HasSurveySubmission(req.StudentEmail) {
			return nil, ErrAlreadySubmitted
		}

		if definition == nil {
			definition, err = s.courses.SurveyDefinitionFor(ctx, event.CourseID)
			if err != nil {
				return nil, err
			}
		}

		result := s.surveys.ScoreSurvey(definition, req.Responses)
		submission := models.SurveySubmission{
			StudentEmail:      req.StudentEmail,
			StudentName:       student.Name,
			SubmittedAt:       time.Now().UTC(),
			WorkshopAverage:   result.WorkshopAverage,
			InstructorAverage: result.InstructorAverage,
			OverallAverage:    result.OverallAverage,
			Comments:          result.Comments,
			PerItem:           result.PerItem,
		}

		event.SurveySubmissions = append(event.SurveySubmissions, submission)
		s.metrics.Recompute(event)

		err = s.repo.Event().UpdateGuarded(ctx, event, event.Version)
		if err == repositories.ErrStaleVersion {
			s.logger.Debug("survey submission lost version race, retrying",
				"event_id", req.EventID,
				"attempt", attempt+1)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to store survey submission: %w", err)
		}

		s.logger.Info("Survey submission recorded",
			"event_id", req.EventID,
			"student_email", req.StudentEmail,
			"overall_average", submission.OverallAverage)

		s.afterCommit(ctx, event, models.SubmissionSurvey, req.StudentEmail, submission.OverallAverage, submission)
		return &submission, nil
	}

	return nil, ErrConcurrentUpdate
}

// loadAndCheck loads the event and verifies it accepts submissions from this
// student. The roster entry doubles as the student-name source.
func (s *submissionService) loadAndCheck(ctx context.Context, eventID, email string) (*models.Event, *models.EnrolledStudent, error) {
	event, err := s.repo.Event().GetByID(ctx, eventID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil, ErrEventNotFound
		}
		return nil, nil, fmt.Errorf("failed to get event: %w", err)
	}

	if event.Status == models.EventClosed {
		return nil, nil, ErrEventClosed
	}

	for i := range event.EnrolledStudents {
		if event.EnrolledStudents[i].Email == email {
			return event, &event.EnrolledStudents[i], nil
		}
	}
	return nil, nil, ErrNotEnrolled
}

// afterCommit handles the best-effort side effects of an accepted
// submission: the legacy standalone mirror record and the published event.
// Neither can fail the request; the guarded write already committed.
func (s *submissionService) afterCommit(ctx context.Context, event *models.Event, kind models.SubmissionKind, email string, score float64, payload interface{}) {
	body, err := json.Marshal(payload)
	if err == nil {
		mirror := &models.Submission{
			ID:           uuid.NewString(),
			EventID:      event.ID,
			CourseID:     event.CourseID,
			StudentEmail: email,
			Kind:         kind,
			Payload:      datatypes.JSON(body),
			SubmittedAt:  time.Now().UTC(),
		}
		if err := s.repo.Submission().Create(ctx, mirror); err != nil {
			s.logger.Error("failed to mirror submission record",
				"event_id", event.ID,
				"student_email", email,
				"error", err)
		}
	}

	if s.publisher == nil {
		return
	}
	evt := events.NewSubmissionRecorded(event.ID, event.CourseID, email, string(kind), score)
	if err := s.publisher.PublishSubmissionEvent(ctx, evt); err != nil {
		s.logger.Error("failed to publish submission event",
			"event_id", event.ID,
			"student_email", email,
			"error", err)
	}
}
