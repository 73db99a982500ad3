package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tallerhq/course-admin-service/internal/models"
	"github.com/tallerhq/course-admin-service/internal/repositories"
	"github.com/tallerhq/course-admin-service/internal/utils"
)

type CreateEventRequest struct {
	CourseID      string    `json:"course_id" validate:"required"`
	ScheduledDate time.Time `json:"scheduled_date" validate:"required"`
}

type EnrollRequest struct {
	Name  string `json:"name" validate:"required,min=1,max=200"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone"`
}

// EventService manages scheduled course events and their enrollment rosters.
// Roster appends go through the same guarded-write path as submissions, so a
// concurrent enrollment can never drop an entry or leave the derived
// enrolled-total stale.
type EventService interface {
	Create(ctx context.Context, req *CreateEventRequest) (*models.Event, error)
	GetByID(ctx context.Context, id string) (*models.Event, error)
	List(ctx context.Context, filters repositories.EventFilters) ([]*models.Event, int64, error)
	GetByCourse(ctx context.Context, courseID string) ([]*models.Event, error)
	GetByMonth(ctx context.Context, year int, month time.Month) ([]*models.Event, error)
	Enroll(ctx context.Context, eventID string, req *EnrollRequest) (*models.Event, error)
	Close(ctx context.Context, id string) error
	Reopen(ctx context.Context, id string) error
	UpdateScheduledDate(ctx context.Context, id string, date time.Time) error
	Delete(ctx context.Context, id string) error
}

type eventService struct {
	repo      repositories.Repository
	courses   CourseService
	metrics   MetricsService
	logger    *slog.Logger
	validator *utils.Validator
}

func NewEventService(repo repositories.Repository, courses CourseService, metrics MetricsService, logger *slog.Logger, validator *utils.Validator) EventService {
	return &eventService{
		repo:      repo,
		courses:   courses,
		metrics:   metrics,
		logger:    logger,
		validator: validator,
	}
}

func (s *eventService) Create(ctx context.Context, req *CreateEventRequest) (*models.Event, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	course, err := s.courses.GetByID(ctx, req.CourseID)
	if err != nil {
		return nil, err
	}

	// Course name and instructor are snapshotted at creation; later course
	// edits do not rewrite past events.
	event := &models.Event{
		ID:              uuid.NewString(),
		CourseID:        course.ID,
		CourseName:      course.Name,
		ScheduledDate:   req.ScheduledDate,
		Status:          models.EventOpen,
		InstructorEmail: course.InstructorEmail,
		InstructorName:  course.InstructorName,
	}

	if err := s.repo.Event().Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	s.logger.Info("Event created",
		"event_id", event.ID,
		"course_id", course.ID,
		"scheduled_date", event.ScheduledDate)
	return event, nil
}

func (s *eventService) GetByID(ctx context.Context, id string) (*models.Event, error) {
	event, err := s.repo.Event().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return event, nil
}

func (s *eventService) List(ctx context.Context, filters repositories.EventFilters) ([]*models.Event, int64, error) {
	return s.repo.Event().List(ctx, filters)
}

func (s *eventService) GetByCourse(ctx context.Context, courseID string) ([]*models.Event, error) {
	return s.repo.Event().GetByCourse(ctx, courseID)
}

func (s *eventService) GetByMonth(ctx context.Context, year int, month time.Month) ([]*models.Event, error) {
	return s.repo.Event().GetByMonth(ctx, year, month)
}

func (s *eventService) Enroll(ctx context.Context, eventID string, req *EnrollRequest) (*models.Event, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		event, err := s.GetByID(ctx, eventID)
		if err != nil {
			return nil, err
		}
		if event.Status == models.EventClosed {
			return nil, ErrEventClosed
		}
		if event.IsEnrolled(req.Email) {
			return nil, ErrAlreadyEnrolled
		}

		event.EnrolledStudents = append(event.EnrolledStudents, models.EnrolledStudent{
			Name:       req.Name,
			Email:      req.Email,
			EnrolledAt: time.Now().UTC(),
		})
		s.metrics.Recompute(event)

		err = s.repo.Event().UpdateGuarded(ctx, event, event.Version)
		if err == repositories.ErrStaleVersion {
			s.logger.Debug("enrollment lost version race, retrying",
				"event_id", eventID,
				"attempt", attempt+1)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to store enrollment: %w", err)
		}

		s.logger.Info("Student enrolled",
			"event_id", eventID,
			"student_email", req.Email,
			"total_enrolled", event.TotalEnrolled)

		s.upsertStudent(ctx, event, req)
		return event, nil
	}

	return nil, ErrConcurrentUpdate
}

// upsertStudent keeps the standalone student directory in step with the
// roster. Best effort; the roster append already committed.
func (s *eventService) upsertStudent(ctx context.Context, event *models.Event, req *EnrollRequest) {
	existing, err := s.repo.Student().GetByEmail(ctx, req.Email)
	if err != nil {
		if !repositories.IsNotFoundError(err) {
			s.logger.Error("failed to look up student record", "student_email", req.Email, "error", err)
			return
		}
		student := &models.Student{
			Email:              req.Email,
			Name:               req.Name,
			Phone:              req.Phone,
			EnrolledCourseName: event.CourseName,
		}
		if err := s.repo.Student().Create(ctx, student); err != nil {
			s.logger.Error("failed to create student record", "student_email", req.Email, "error", err)
		}
		return
	}

	existing.Name = req.Name
	if req.Phone != "" {
		existing.Phone = req.Phone
	}
	existing.EnrolledCourseName = event.CourseName
	if err := s.repo.Student().Update(ctx, existing); err != nil {
		s.logger.Error("failed to update student record", "student_email", req.Email, "error", err)
	}
}

func (s *eventService) Close(ctx context.Context, id string) error {
	return s.setStatus(ctx, id, models.EventClosed)
}

func (s *eventService) Reopen(ctx context.Context, id string) error {
	return s.setStatus(ctx, id, models.EventOpen)
}

func (s *eventService) setStatus(ctx context.Context, id string, status models.EventStatus) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Event().UpdateStatus(ctx, id, status); err != nil {
		return fmt.Errorf("failed to update event status: %w", err)
	}
	s.logger.Info("Event status changed", "event_id", id, "status", status)
	return nil
}

func (s *eventService) UpdateScheduledDate(ctx context.Context, id string, date time.Time) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Event().UpdateScheduledDate(ctx, id, date); err != nil {
		return fmt.Errorf("failed to update scheduled date: %w", err)
	}
	s.logger.Info("Event rescheduled", "event_id", id, "scheduled_date", date)
	return nil
}

func (s *eventService) Delete(ctx context.Context, id string) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Event().Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	s.logger.Info("Event deleted", "event_id", id)
	return nil
}
