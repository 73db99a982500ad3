package postgres

import (
	"context"

	"github.com/tallerhq/course-admin-service/internal/models"
	"github.com/tallerhq/course-admin-service/internal/repositories"
	"gorm.io/gorm"
)

// ExamPostgreSQL reads the legacy linked assessment-definition records.
type ExamPostgreSQL struct {
	db *gorm.DB
}

func NewExamPostgreSQL(db *gorm.DB) repositories.ExamRepository {
	return &ExamPostgreSQL{db: db}
}

func (e *ExamPostgreSQL) Create(ctx context.Context, exam *models.Exam) error {
	return e.db.WithContext(ctx).Create(exam).Error
}

func (e *ExamPostgreSQL) GetByCourse(ctx context.Context, courseID string, kind models.ExamKind) (*models.Exam, error) {
	var exam models.Exam
	if err := e.db.WithContext(ctx).
		Where("course_id = ? AND kind = ?", courseID, kind).
		Order("created_at DESC").
		First(&exam).Error; err != nil {
		return nil, err
	}
	return &exam, nil
}

// SubmissionPostgreSQL writes the legacy standalone submission mirror records.
type SubmissionPostgreSQL struct {
	db *gorm.DB
}

func NewSubmissionPostgreSQL(db *gorm.DB) repositories.SubmissionRepository {
	return &SubmissionPostgreSQL{db: db}
}

func (s *SubmissionPostgreSQL) Create(ctx context.Context, submission *models.Submission) error {
	return s.db.WithContext(ctx).Create(submission).Error
}

func (s *SubmissionPostgreSQL) ListByEvent(ctx context.Context, eventID string) ([]*models.Submission, error) {
	var submissions []*models.Submission
	if err := s.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("submitted_at ASC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}
	return submissions, nil
}
