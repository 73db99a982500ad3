package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tallerhq/course-admin-service/internal/cache"
	"github.com/tallerhq/course-admin-service/internal/models"
	"github.com/tallerhq/course-admin-service/internal/repositories"
	"github.com/tallerhq/course-admin-service/internal/utils"
	"gorm.io/datatypes"
)

const definitionCacheTTL = 10 * time.Minute

type CreateCourseRequest struct {
	Name             string                   `json:"name" validate:"required,min=1,max=200"`
	TotalHours       int                      `json:"total_hours" validate:"min=0"`
	DurationDays     int                      `json:"duration_days" validate:"min=0"`
	InstructorEmail  string                   `json:"instructor_email" validate:"omitempty,email"`
	InstructorName   string                   `json:"instructor_name"`
	QuizDefinition   *models.QuizDefinition   `json:"quiz_definition"`
	SurveyDefinition *models.SurveyDefinition `json:"survey_definition"`
}

type UpdateCourseRequest struct {
	Name             *string                  `json:"name" validate:"omitempty,min=1,max=200"`
	TotalHours       *int                     `json:"total_hours" validate:"omitempty,min=0"`
	DurationDays     *int                     `json:"duration_days" validate:"omitempty,min=0"`
	Status           *models.CourseStatus     `json:"status" validate:"omitempty,oneof=active inactive"`
	InstructorEmail  *string                  `json:"instructor_email" validate:"omitempty,email"`
	InstructorName   *string                  `json:"instructor_name"`
	QuizDefinition   *models.QuizDefinition   `json:"quiz_definition"`
	SurveyDefinition *models.SurveyDefinition `json:"survey_definition"`
}

// CourseService manages courses and is the single place that resolves a
// course's assessment definitions. Historically a definition is either
// embedded in the course record or stored as a separate linked exam record;
// lookups normalize both shapes into the canonical definition types, so
// nothing downstream ever sees the storage difference.
type CourseService interface {
	Create(ctx context.Context, req *CreateCourseRequest) (*models.Course, error)
	GetByID(ctx context.Context, id string) (*models.Course, error)
	List(ctx context.Context, filters repositories.CourseFilters) ([]*models.Course, int64, error)
	Update(ctx context.Context, id string, req *UpdateCourseRequest) (*models.Course, error)
	Delete(ctx context.Context, id string) error

	QuizDefinitionFor(ctx context.Context, courseID string) (*models.QuizDefinition, error)
	SurveyDefinitionFor(ctx context.Context, courseID string) (*models.SurveyDefinition, error)
}

type courseService struct {
	repo      repositories.Repository
	cache     cache.CacheService
	logger    *slog.Logger
	validator *utils.Validator
}

func NewCourseService(repo repositories.Repository, cacheService cache.CacheService, logger *slog.Logger, validator *utils.Validator) CourseService {
	return &courseService{
		repo:      repo,
		cache:     cacheService,
		logger:    logger,
		validator: validator,
	}
}

// ===== CRUD =====

func (s *courseService) Create(ctx context.Context, req *CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if existing, err := s.repo.Course().GetByName(ctx, req.Name); err == nil && existing != nil {
		return nil, ErrCourseNameTaken
	}

	course := &models.Course{
		ID:              uuid.NewString(),
		Name:            req.Name,
		TotalHours:      req.TotalHours,
		DurationDays:    req.DurationDays,
		Status:          models.CourseActive,
		InstructorEmail: req.InstructorEmail,
		InstructorName:  req.InstructorName,
	}
	if req.QuizDefinition != nil {
		d := datatypes.NewJSONType(*req.QuizDefinition)
		course.QuizDefinition = &d
	}
	if req.SurveyDefinition != nil {
		d := datatypes.NewJSONType(*req.SurveyDefinition)
		course.SurveyDefinition = &d
	}

	if err := s.repo.Course().Create(ctx, course); err != nil {
		return nil, fmt.Errorf("failed to create course: %w", err)
	}

	s.logger.Info("Course created", "course_id", course.ID, "name", course.Name)
	return course, nil
}

func (s *courseService) GetByID(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.repo.Course().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	return course, nil
}

func (s *courseService) List(ctx context.Context, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	return s.repo.Course().List(ctx, filters)
}

func (s *courseService) Update(ctx context.Context, id string, req *UpdateCourseRequest) (*models.Course, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	course, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		course.Name = *req.Name
	}
	if req.TotalHours != nil {
		course.TotalHours = *req.TotalHours
	}
	if req.DurationDays != nil {
		course.DurationDays = *req.DurationDays
	}
	if req.Status != nil {
		course.Status = *req.Status
	}
	if req.InstructorEmail != nil {
		course.InstructorEmail = *req.InstructorEmail
	}
	if req.InstructorName != nil {
		course.InstructorName = *req.InstructorName
	}
	if req.QuizDefinition != nil {
		d := datatypes.NewJSONType(*req.QuizDefinition)
		course.QuizDefinition = &d
	}
	if req.SurveyDefinition != nil {
		d := datatypes.NewJSONType(*req.SurveyDefinition)
		course.SurveyDefinition = &d
	}

	if err := s.repo.Course().Update(ctx, course); err != nil {
		return nil, fmt.Errorf("failed to update course: %w", err)
	}

	s.invalidateDefinitions(ctx, id)
	s.logger.Info("Course updated", "course_id", id)
	return course, nil
}

func (s *courseService) Delete(ctx context.Context, id string) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Course().Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete course: %w", err)
	}
	s.invalidateDefinitions(ctx, id)
	s.logger.Info("Course deleted", "course_id", id)
	return nil
}

// ===== DEFINITION LOOKUP =====

func (s *courseService) QuizDefinitionFor(ctx context.Context, courseID string) (*models.QuizDefinition, error) {
	key := quizDefinitionKey(courseID)
	var cached models.QuizDefinition
	if s.cache != nil && s.cache.Get(ctx, key, &cached) == nil {
		return &cached, nil
	}

	course, err := s.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}

	var definition *models.QuizDefinition
	if course.QuizDefinition != nil {
		d := course.QuizDefinition.Data()
		definition = &d
	} else {
		definition, err = s.quizFromExam(ctx, courseID)
		if err != nil {
			return nil, err
		}
	}
	if definition == nil || len(definition.Questions) == 0 {
		return nil, ErrCourseHasNoQuiz
	}

	s.cacheDefinition(ctx, key, definition)
	return definition, nil
}

func (s *courseService) SurveyDefinitionFor(ctx context.Context, courseID string) (*models.SurveyDefinition, error) {
	key := surveyDefinitionKey(courseID)
	var cached models.SurveyDefinition
	if s.cache != nil && s.cache.Get(ctx, key, &cached) == nil {
		return &cached, nil
	}

	course, err := s.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}

	var definition *models.SurveyDefinition
	if course.SurveyDefinition != nil {
		d := course.SurveyDefinition.Data()
		definition = &d
	} else {
		definition, err = s.surveyFromExam(ctx, courseID)
		if err != nil {
			return nil, err
		}
	}
	if definition == nil || (len(definition.Workshop) == 0 && len(definition.Instructor) == 0) {
		return nil, ErrCourseHasNoSurvey
	}

	s.cacheDefinition(ctx, key, definition)
	return definition, nil
}

// Legacy exam structures kept the original key names; decode and map them
// onto the canonical definition types.

type legacyQuizQuestion struct {
	Number        int      `json:"numero"`
	Text          string   `json:"texto"`
	Options       []string `json:"opciones"`
	CorrectAnswer string   `json:"respuesta_correcta"`
}

type legacyQuizStructure struct {
	Name      string               `json:"nombre"`
	Questions []legacyQuizQuestion `json:"preguntas"`
}

type legacySurveyItem struct {
	Number int    `json:"numero"`
	Text   string `json:"texto"`
}

type legacySurveyStructure struct {
	Name     string `json:"nombre"`
	Sections struct {
		Workshop   []legacySurveyItem `json:"taller"`
		Instructor []legacySurveyItem `json:"instructor"`
	} `json:"secciones"`
}

func (s *courseService) quizFromExam(ctx context.Context, courseID string) (*models.QuizDefinition, error) {
	exam, err := s.repo.Exam().GetByCourse(ctx, courseID, models.ExamQuiz)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseHasNoQuiz
		}
		return nil, fmt.Errorf("failed to get legacy quiz record: %w", err)
	}

	var structure legacyQuizStructure
	if err := json.Unmarshal(exam.Structure, &structure); err != nil {
		s.logger.Warn("legacy quiz record has unreadable structure",
			"course_id", courseID,
			"exam_id", exam.ID,
			"error", err)
		return nil, ErrCourseHasNoQuiz
	}

	definition := &models.QuizDefinition{Name: structure.Name}
	if definition.Name == "" {
		definition.Name = exam.Name
	}
	for _, q := range structure.Questions {
		definition.Questions = append(definition.Questions, models.Question{
			Number:        q.Number,
			Text:          q.Text,
			Type:          models.MultipleChoice,
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
		})
	}
	return definition, nil
}

func (s *courseService) surveyFromExam(ctx context.Context, courseID string) (*models.SurveyDefinition, error) {
	exam, err := s.repo.Exam().GetByCourse(ctx, courseID, models.ExamSurvey)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseHasNoSurvey
		}
		return nil, fmt.Errorf("failed to get legacy survey record: %w", err)
	}

	var structure legacySurveyStructure
	if err := json.Unmarshal(exam.Structure, &structure); err != nil {
		s.logger.Warn("legacy survey record has unreadable structure",
			"course_id", courseID,
			"exam_id", exam.ID,
			"error", err)
		return nil, ErrCourseHasNoSurvey
	}

	definition := &models.SurveyDefinition{Name: structure.Name}
	if definition.Name == "" {
		definition.Name = exam.Name
	}
	for _, item := range structure.Sections.Workshop {
		definition.Workshop = append(definition.Workshop, models.SurveyItem{Number: item.Number, Text: item.Text})
	}
	for _, item := range structure.Sections.Instructor {
		definition.Instructor = append(definition.Instructor, models.SurveyItem{Number: item.Number, Text: item.Text})
	}
	return definition, nil
}

// ===== CACHE HELPERS =====

func (s *courseService) cacheDefinition(ctx context.Context, key string, definition interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, definition, definitionCacheTTL); err != nil {
		s.logger.Debug("failed to cache definition", "key", key, "error", err)
	}
}

func (s *courseService) invalidateDefinitions(ctx context.Context, courseID string) {
	if s.cache == nil {
		return
	}
	for _, key := range []string{quizDefinitionKey(courseID), surveyDefinitionKey(courseID)} {
		if err := s.cache.Delete(ctx, key); err != nil {
			s.logger.Debug("failed to invalidate definition cache", "key", key, "error", err)
		}
	}
}

func quizDefinitionKey(courseID string) string {
	return "course:" + courseID + ":quiz"
}

func surveyDefinitionKey(courseID string) string {
	return "course:" + courseID + ":survey"
}
