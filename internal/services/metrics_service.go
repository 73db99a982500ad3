package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/tallerhq/course-admin-service/internal/events"
	"github.com/tallerhq/course-admin-service/internal/models"
	"github.com/tallerhq/course-admin-service/internal/repositories"
)

// maxUpdateAttempts bounds the optimistic-retry loops that emulate an atomic
// conditional update on the event record.
const maxUpdateAttempts = 3

// Ordered field-name aliases accumulated over the system's history. Newest
// first; the aggregator takes the first one present on a stored document.
var (
	quizScoreAliases     = []string{"score", "calificacion", "calificación", "porcentaje_aciertos"}
	surveyOverallAliases = []string{"overall_average", "promedio_general", "puntuacion_promedio"}
)

// MetricsService is the sole writer of an event's derived summary fields:
// submitted counts, average scores and the enrolled-total mirror. It always
// recomputes from the full embedded arrays, never increments in place, so
// repeated recomputation is safe.
type MetricsService interface {
	// Recompute derives the summary fields from the event's embedded arrays.
	// Pure with respect to everything but those fields; never errors.
	Recompute(event *models.Event) *models.Event

	// RecomputeAndStore reloads the event, recomputes and persists the
	// summary fields under the version guard.
	RecomputeAndStore(ctx context.Context, eventID string) (*models.Event, error)

	// RecomputeAll repairs the summary fields of every stored event,
	// skipping (and logging) events that fail rather than aborting.
	RecomputeAll(ctx context.Context) (int, error)
}

type metricsService struct {
	repo      repositories.Repository
	publisher events.EventPublisher
	logger    *slog.Logger
}

func NewMetricsService(repo repositories.Repository, publisher events.EventPublisher, logger *slog.Logger) MetricsService {
	return &metricsService{repo: repo, publisher: publisher, logger: logger}
}

func (s *metricsService) Recompute(event *models.Event) *models.Event {
	event.TotalEnrolled = len(event.EnrolledStudents)

	event.QuizSubmittedCount = len(event.QuizSubmissions)
	event.QuizAverageScore = 0
	if event.QuizSubmittedCount > 0 {
		sum := 0.0
		for i := range event.QuizSubmissions {
			sum += s.quizScore(event.ID, &event.QuizSubmissions[i])
		}
		event.QuizAverageScore = sum / float64(event.QuizSubmittedCount)
	}

	event.SurveySubmittedCount = len(event.SurveySubmissions)
	event.SurveyAverageScore = 0
	if event.SurveySubmittedCount > 0 {
		sum := 0.0
		for i := range event.SurveySubmissions {
			sum += s.surveyOverall(event.ID, &event.SurveySubmissions[i])
		}
		event.SurveyAverageScore = sum / float64(event.SurveySubmittedCount)
	}

	return event
}

func (s *metricsService) RecomputeAndStore(ctx context.Context, eventID string) (*models.Event, error) {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		event, err := s.repo.Event().GetByID(ctx, eventID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return nil, ErrEventNotFound
			}
			return nil, fmt.Errorf("failed to get event: %w", err)
		}

		s.Recompute(event)

		err = s.repo.Event().UpdateGuarded(ctx, event, event.Version)
		if err == nil {
			s.publishRecomputed(ctx, event)
			return event, nil
		}
		if err != repositories.ErrStaleVersion {
			return nil, fmt.Errorf("failed to store event metrics: %w", err)
		}
		s.logger.Debug("metrics write lost version race, retrying", "event_id", eventID)
	}
	return nil, ErrConcurrentUpdate
}

func (s *metricsService) RecomputeAll(ctx context.Context) (int, error) {
	ids, err := s.repo.Event().GetAllIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list events: %w", err)
	}

	repaired := 0
	for _, id := range ids {
		if _, err := s.RecomputeAndStore(ctx, id); err != nil {
			s.logger.Error("failed to recompute event metrics", "event_id", id, "error", err)
			continue
		}
		repaired++
	}

	s.logger.Info("metrics repair finished", "events", len(ids), "repaired", repaired)
	return repaired, nil
}

// publishRecomputed announces a repaired event. Best effort; the guarded
// write already committed.
func (s *metricsService) publishRecomputed(ctx context.Context, event *models.Event) {
	if s.publisher == nil {
		return
	}
	evt := events.NewMetricsRecomputed(event.ID,
		event.QuizSubmittedCount, event.QuizAverageScore,
		event.SurveySubmittedCount, event.SurveyAverageScore)
	if err := s.publisher.PublishSubmissionEvent(ctx, evt); err != nil {
		s.logger.Error("failed to publish metrics event", "event_id", event.ID, "error", err)
	}
}

// quizScore reads a stored submission's score through the alias list.
// Submissions constructed in-process carry no raw document and are read
// directly; a stored document matching no alias contributes 0 and is logged,
// never failed.
func (s *metricsService) quizScore(eventID string, sub *models.QuizSubmission) float64 {
	if sub.Raw == nil {
		return sub.Score
	}
	if v, ok := lookupNumber(sub.Raw, quizScoreAliases); ok {
		return v
	}
	s.logger.Warn("quiz submission has no recognizable score field",
		"event_id", eventID,
		"student_email", sub.Email())
	return 0
}

func (s *metricsService) surveyOverall(eventID string, sub *models.SurveySubmission) float64 {
	if sub.Raw == nil {
		return sub.OverallAverage
	}
	if v, ok := lookupNumber(sub.Raw, surveyOverallAliases); ok {
		return v
	}
	s.logger.Warn("survey submission has no recognizable overall average field",
		"event_id", eventID,
		"student_email", sub.Email())
	return 0
}

func lookupNumber(raw map[string]json.RawMessage, aliases []string) (float64, bool) {
	for _, key := range aliases {
		msg, ok := raw[key]
		if !ok {
			continue
		}
		var v float64
		if err := json.Unmarshal(msg, &v); err == nil {
			return v, true
		}
	}
	return 0, false
}
