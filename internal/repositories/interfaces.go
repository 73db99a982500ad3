package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/tallerhq/course-admin-service/internal/models"
	"gorm.io/gorm"
)

// ===== SHARED ERRORS =====

var (
	// ErrStaleVersion is returned by guarded updates when another writer got
	// there first; callers reload and retry.
	ErrStaleVersion = errors.New("event version is stale")
)

// IsNotFoundError reports whether err means the record does not exist.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// ===== SHARED FILTER STRUCTS =====

type CourseFilters struct {
	Status    *models.CourseStatus `json:"status"`
	Limit     int                  `json:"limit"`
	Offset    int                  `json:"offset"`
	SortBy    string               `json:"sort_by"` // "created_at", "name"
	SortOrder string               `json:"sort_order"`
}

type EventFilters struct {
	CourseID  *string             `json:"course_id"`
	Status    *models.EventStatus `json:"status"`
	DateFrom  *time.Time          `json:"date_from"`
	DateTo    *time.Time          `json:"date_to"`
	Limit     int                 `json:"limit"`
	Offset    int                 `json:"offset"`
	SortBy    string              `json:"sort_by"` // "scheduled_date", "created_at"
	SortOrder string              `json:"sort_order"`
}

type StudentFilters struct {
	CourseName *string `json:"course_name"`
	Limit      int     `json:"limit"`
	Offset     int     `json:"offset"`
}

// ===== REPOSITORY INTERFACES =====

type CourseRepository interface {
	Create(ctx context.Context, course *models.Course) error
	GetByID(ctx context.Context, id string) (*models.Course, error)
	GetByName(ctx context.Context, name string) (*models.Course, error)
	List(ctx context.Context, filters CourseFilters) ([]*models.Course, int64, error)
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id string) error
}

type EventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id string) (*models.Event, error)
	List(ctx context.Context, filters EventFilters) ([]*models.Event, int64, error)
	GetByCourse(ctx context.Context, courseID string) ([]*models.Event, error)
	GetByMonth(ctx context.Context, year int, month time.Month) ([]*models.Event, error)
	GetAllIDs(ctx context.Context) ([]string, error)

	// UpdateGuarded persists the event's embedded arrays and derived metrics
	// in a single row write, succeeding only if the stored version still
	// equals expectedVersion. Returns ErrStaleVersion on a lost race.
	UpdateGuarded(ctx context.Context, event *models.Event, expectedVersion int) error

	UpdateStatus(ctx context.Context, id string, status models.EventStatus) error
	UpdateScheduledDate(ctx context.Context, id string, date time.Time) error
	Delete(ctx context.Context, id string) error
}

type StudentRepository interface {
	Create(ctx context.Context, student *models.Student) error
	GetByEmail(ctx context.Context, email string) (*models.Student, error)
	List(ctx context.Context, filters StudentFilters) ([]*models.Student, int64, error)
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, email string) error
}

// ExamRepository serves the legacy linked-record storage shape for
// assessment definitions.
type ExamRepository interface {
	Create(ctx context.Context, exam *models.Exam) error
	GetByCourse(ctx context.Context, courseID string, kind models.ExamKind) (*models.Exam, error)
}

// SubmissionRepository serves the legacy standalone submission records.
type SubmissionRepository interface {
	Create(ctx context.Context, submission *models.Submission) error
	ListByEvent(ctx context.Context, eventID string) ([]*models.Submission, error)
}

// Repository aggregates access to every record kind.
type Repository interface {
	Course() CourseRepository
	Event() EventRepository
	Student() StudentRepository
	Exam() ExamRepository
	Submission() SubmissionRepository
}
