package postgres

import (
	"github.com/tallerhq/course-admin-service/internal/models"
	"github.com/tallerhq/course-admin-service/internal/repositories"
	"gorm.io/gorm"
)

type repository struct {
	db         *gorm.DB
	course     repositories.CourseRepository
	event      repositories.EventRepository
	student    repositories.StudentRepository
	exam       repositories.ExamRepository
	submission repositories.SubmissionRepository
}

func NewRepository(db *gorm.DB) repositories.Repository {
	return &repository{
		db:         db,
		course:     NewCoursePostgreSQL(db),
		event:      NewEventPostgreSQL(db),
		student:    NewStudentPostgreSQL(db),
		exam:       NewExamPostgreSQL(db),
		submission: NewSubmissionPostgreSQL(db),
	}
}

func (r *repository) Course() repositories.CourseRepository         { return r.course }
func (r *repository) Event() repositories.EventRepository           { return r.event }
func (r *repository) Student() repositories.StudentRepository       { return r.student }
func (r *repository) Exam() repositories.ExamRepository             { return r.exam }
func (r *repository) Submission() repositories.SubmissionRepository { return r.submission }

// AutoMigrate creates or updates the schema for every record kind.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Course{},
		&models.Event{},
		&models.Student{},
		&models.Exam{},
		&models.Submission{},
	)
}
