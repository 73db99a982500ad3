package postgres

import (
	"context"
	"time"

	"github.com/tallerhq/course-admin-service/internal/models"
	"github.com/tallerhq/course-admin-service/internal/repositories"
	"gorm.io/gorm"
)

type EventPostgreSQL struct {
	db *gorm.DB
}

func NewEventPostgreSQL(db *gorm.DB) repositories.EventRepository {
	return &EventPostgreSQL{db: db}
}

func (e *EventPostgreSQL) Create(ctx context.Context, event *models.Event) error {
	return e.db.WithContext(ctx).Create(event).Error
}

func (e *EventPostgreSQL) GetByID(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	if err := e.db.WithContext(ctx).First(&event, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

func (e *EventPostgreSQL) List(ctx context.Context, filters repositories.EventFilters) ([]*models.Event, int64, error) {
	var events []*models.Event
	var total int64

	query := e.db.WithContext(ctx).Model(&models.Event{})
	query = e.applyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = e.applyPaginationAndSort(query, filters)
	if err := query.Find(&events).Error; err != nil {
		return nil, 0, err
	}

	return events, total, nil
}

func (e *EventPostgreSQL) GetByCourse(ctx context.Context, courseID string) ([]*models.Event, error) {
	var events []*models.Event
	if err := e.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("scheduled_date ASC").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (e *EventPostgreSQL) GetByMonth(ctx context.Context, year int, month time.Month) ([]*models.Event, error) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	var events []*models.Event
	if err := e.db.WithContext(ctx).
		Where("scheduled_date >= ? AND scheduled_date < ?", from, to).
		Order("scheduled_date ASC").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (e *EventPostgreSQL) GetAllIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := e.db.WithContext(ctx).
		Model(&models.Event{}).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// UpdateGuarded is the conditional-append primitive: arrays, derived metrics
// and the bumped version land in one UPDATE that matches only the version the
// caller read. Zero rows affected means another writer won the race.
func (e *EventPostgreSQL) UpdateGuarded(ctx context.Context, event *models.Event, expectedVersion int) error {
	result := e.db.WithContext(ctx).
		Model(&models.Event{}).
		Where("id = ? AND version = ?", event.ID, expectedVersion).
		Updates(map[string]interface{}{
			"enrolled_students":      event.EnrolledStudents,
			"quiz_submissions":       event.QuizSubmissions,
			"survey_submissions":     event.SurveySubmissions,
			"total_enrolled":         event.TotalEnrolled,
			"quiz_submitted_count":   event.QuizSubmittedCount,
			"quiz_average_score":     event.QuizAverageScore,
			"survey_submitted_count": event.SurveySubmittedCount,
			"survey_average_score":   event.SurveyAverageScore,
			"version":                expectedVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repositories.ErrStaleVersion
	}
	event.Version = expectedVersion + 1
	return nil
}

func (e *EventPostgreSQL) UpdateStatus(ctx context.Context, id string, status models.EventStatus) error {
	result := e.db.WithContext(ctx).
		Model(&models.Event{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (e *EventPostgreSQL) UpdateScheduledDate(ctx context.Context, id string, date time.Time) error {
	result := e.db.WithContext(ctx).
		Model(&models.Event{}).
		Where("id = ?", id).
		Update("scheduled_date", date)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (e *EventPostgreSQL) Delete(ctx context.Context, id string) error {
	return e.db.WithContext(ctx).Delete(&models.Event{}, "id = ?", id).Error
}

func (e *EventPostgreSQL) applyFilters(query *gorm.DB, filters repositories.EventFilters) *gorm.DB {
	if filters.CourseID != nil {
		query = query.Where("course_id = ?", *filters.CourseID)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.DateFrom != nil {
		query = query.Where("scheduled_date >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("scheduled_date <= ?", *filters.DateTo)
	}
	return query
}

func (e *EventPostgreSQL) applyPaginationAndSort(query *gorm.DB, filters repositories.EventFilters) *gorm.DB {
	sortBy := filters.SortBy
	switch sortBy {
	case "scheduled_date", "created_at":
	default:
		sortBy = "scheduled_date"
	}
	order := "ASC"
	if filters.SortOrder == "desc" {
		order = "DESC"
	}
	query = query.Order(sortBy + " " + order)

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}
	return query
}
