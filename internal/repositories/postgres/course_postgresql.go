package postgres

import (
	"context"

	"github.com/tallerhq/course-admin-service/internal/models"
	"github.com/tallerhq/course-admin-service/internal/repositories"
	"gorm.io/gorm"
)

type CoursePostgreSQL struct {
	db *gorm.DB
}

func NewCoursePostgreSQL(db *gorm.DB) repositories.CourseRepository {
	return &CoursePostgreSQL{db: db}
}

func (c *CoursePostgreSQL) Create(ctx context.Context, course *models.Course) error {
	return c.db.WithContext(ctx).Create(course).Error
}

func (c *CoursePostgreSQL) GetByID(ctx context.Context, id string) (*models.Course, error) {
	var course models.Course
	if err := c.db.WithContext(ctx).First(&course, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

func (c *CoursePostgreSQL) GetByName(ctx context.Context, name string) (*models.Course, error) {
	var course models.Course
	if err := c.db.WithContext(ctx).First(&course, "name = ?", name).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

func (c *CoursePostgreSQL) List(ctx context.Context, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	var courses []*models.Course
	var total int64

	query := c.db.WithContext(ctx).Model(&models.Course{})
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortBy := filters.SortBy
	switch sortBy {
	case "name", "created_at":
	default:
		sortBy = "name"
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

	if err := query.Find(&courses).Error; err != nil {
		return nil, 0, err
	}
	return courses, total, nil
}

func (c *CoursePostgreSQL) Update(ctx context.Context, course *models.Course) error {
	return c.db.WithContext(ctx).Save(course).Error
}

func (c *CoursePostgreSQL) Delete(ctx context.Context, id string) error {
	return c.db.WithContext(ctx).Delete(&models.Course{}, "id = ?", id).Error
}
