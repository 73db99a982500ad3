package postgres

import (
	"context"

	"github.com/tallerhq/course-admin-service/internal/models"
	"github.com/tallerhq/course-admin-service/internal/repositories"
	"gorm.io/gorm"
)

type StudentPostgreSQL struct {
	db *gorm.DB
}

func NewStudentPostgreSQL(db *gorm.DB) repositories.StudentRepository {
	return &StudentPostgreSQL{db: db}
}

func (s *StudentPostgreSQL) Create(ctx context.Context, student *models.Student) error {
	return s.db.WithContext(ctx).Create(student).Error
}

func (s *StudentPostgreSQL) GetByEmail(ctx context.Context, email string) (*models.Student, error) {
	var student models.Student
	if err := s.db.WithContext(ctx).First(&student, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &student, nil
}

func (s *StudentPostgreSQL) List(ctx context.Context, filters repositories.StudentFilters) ([]*models.Student, int64, error) {
	var students []*models.Student
	var total int64

	query := s.db.WithContext(ctx).Model(&models.Student{})
	if filters.CourseName != nil {
		query = query.Where("enrolled_course_name = ?", *filters.CourseName)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("name ASC")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Find(&students).Error; err != nil {
		return nil, 0, err
	}
	return students, total, nil
}

func (s *StudentPostgreSQL) Update(ctx context.Context, student *models.Student) error {
	return s.db.WithContext(ctx).Save(student).Error
}

func (s *StudentPostgreSQL) Delete(ctx context.Context, email string) error {
	return s.db.WithContext(ctx).Delete(&models.Student{}, "email = ?", email).Error
}
