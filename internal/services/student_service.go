package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tallerhq/course-admin-service/internal/models"
	"github.com/tallerhq/course-admin-service/internal/repositories"
	"github.com/tallerhq/course-admin-service/internal/utils"
)

type UpdateStudentRequest struct {
	Name  *string `json:"name" validate:"omitempty,min=1,max=200"`
	Phone *string `json:"phone"`
}

// StudentService serves the standalone student directory. Records are created
// through enrollment, not directly.
type StudentService interface {
	GetByEmail(ctx context.Context, email string) (*models.Student, error)
	List(ctx context.Context, filters repositories.StudentFilters) ([]*models.Student, int64, error)
	Update(ctx context.Context, email string, req *UpdateStudentRequest) (*models.Student, error)
	Delete(ctx context.Context, email string) error
}

type studentService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *utils.Validator
}

func NewStudentService(repo repositories.Repository, logger *slog.Logger, validator *utils.Validator) StudentService {
	return &studentService{repo: repo, logger: logger, validator: validator}
}

func (s *studentService) GetByEmail(ctx context.Context, email string) (*models.Student, error) {
	student, err := s.repo.Student().GetByEmail(ctx, email)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("failed to get student: %w", err)
	}
	return student, nil
}

func (s *studentService) List(ctx context.Context, filters repositories.StudentFilters) ([]*models.Student, int64, error) {
	return s.repo.Student().List(ctx, filters)
}

func (s *studentService) Update(ctx context.Context, email string, req *UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	student, err := s.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		student.Name = *req.Name
	}
	if req.Phone != nil {
		student.Phone = *req.Phone
	}

	if err := s.repo.Student().Update(ctx, student); err != nil {
		return nil, fmt.Errorf("failed to update student: %w", err)
	}

	s.logger.Info("Student updated", "student_email", email)
	return student, nil
}

func (s *studentService) Delete(ctx context.Context, email string) error {
	if _, err := s.GetByEmail(ctx, email); err != nil {
		return err
	}
	if err := s.repo.Student().Delete(ctx, email); err != nil {
		return fmt.Errorf("failed to delete student: %w", err)
	}
	s.logger.Info("Student deleted", "student_email", email)
	return nil
}
