package services

import (
	"context"
	"sync"
	"time"

	"github.com/tallerhq/course-admin-service/internal/models"
	"github.com/tallerhq/course-admin-service/internal/repositories"
	"gorm.io/gorm"
)

// fakeRepository is an in-memory repositories.Repository honoring the
// guarded-update contract, so version races behave as they do against the
// real store.
type fakeRepository struct {
	mu          sync.Mutex
	courses     map[string]*models.Course
	events      map[string]*models.Event
	students    map[string]*models.Student
	exams       []*models.Exam
	submissions []*models.Submission
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		courses:  make(map[string]*models.Course),
		events:   make(map[string]*models.Event),
		students: make(map[string]*models.Student),
	}
}

func (f *fakeRepository) Course() repositories.CourseRepository         { return (*fakeCourseRepo)(f) }
func (f *fakeRepository) Event() repositories.EventRepository           { return (*fakeEventRepo)(f) }
func (f *fakeRepository) Student() repositories.StudentRepository       { return (*fakeStudentRepo)(f) }
func (f *fakeRepository) Exam() repositories.ExamRepository             { return (*fakeExamRepo)(f) }
func (f *fakeRepository) Submission() repositories.SubmissionRepository { return (*fakeSubmissionRepo)(f) }

func copyEvent(e *models.Event) *models.Event {
	dup := *e
	dup.EnrolledStudents = append(e.EnrolledStudents[:0:0], e.EnrolledStudents...)
	dup.QuizSubmissions = append(e.QuizSubmissions[:0:0], e.QuizSubmissions...)
	dup.SurveySubmissions = append(e.SurveySubmissions[:0:0], e.SurveySubmissions...)
	return &dup
}

// ===== COURSES =====

type fakeCourseRepo fakeRepository

func (f *fakeCourseRepo) Create(ctx context.Context, course *models.Course) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.courses[course.ID] = course
	return nil
}

func (f *fakeCourseRepo) GetByID(ctx context.Context, id string) (*models.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	course, ok := f.courses[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return course, nil
}

func (f *fakeCourseRepo) GetByName(ctx context.Context, name string) (*models.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, course := range f.courses {
		if course.Name == name {
			return course, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCourseRepo) List(ctx context.Context, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.Course, 0, len(f.courses))
	for _, course := range f.courses {
		out = append(out, course)
	}
	return out, int64(len(out)), nil
}

func (f *fakeCourseRepo) Update(ctx context.Context, course *models.Course) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.courses[course.ID] = course
	return nil
}

func (f *fakeCourseRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.courses, id)
	return nil
}

// ===== EVENTS =====

type fakeEventRepo fakeRepository

func (f *fakeEventRepo) Create(ctx context.Context, event *models.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events[event.ID] = copyEvent(event)
	return nil
}

func (f *fakeEventRepo) GetByID(ctx context.Context, id string) (*models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	event, ok := f.events[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return copyEvent(event), nil
}

func (f *fakeEventRepo) List(ctx context.Context, filters repositories.EventFilters) ([]*models.Event, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.Event, 0, len(f.events))
	for _, event := range f.events {
		out = append(out, copyEvent(event))
	}
	return out, int64(len(out)), nil
}

func (f *fakeEventRepo) GetByCourse(ctx context.Context, courseID string) ([]*models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Event
	for _, event := range f.events {
		if event.CourseID == courseID {
			out = append(out, copyEvent(event))
		}
	}
	return out, nil
}

func (f *fakeEventRepo) GetByMonth(ctx context.Context, year int, month time.Month) ([]*models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Event
	for _, event := range f.events {
		if event.ScheduledDate.Year() == year && event.ScheduledDate.Month() == month {
			out = append(out, copyEvent(event))
		}
	}
	return out, nil
}

func (f *fakeEventRepo) GetAllIDs(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.events))
	for id := range f.events {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeEventRepo) UpdateGuarded(ctx context.Context, event *models.Event, expectedVersion int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.events[event.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if stored.Version != expectedVersion {
		return repositories.ErrStaleVersion
	}
	event.Version = expectedVersion + 1
	f.events[event.ID] = copyEvent(event)
	return nil
}

func (f *fakeEventRepo) UpdateStatus(ctx context.Context, id string, status models.EventStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	event, ok := f.events[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	event.Status = status
	return nil
}

func (f *fakeEventRepo) UpdateScheduledDate(ctx context.Context, id string, date time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	event, ok := f.events[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	event.ScheduledDate = date
	return nil
}

func (f *fakeEventRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.events, id)
	return nil
}

// ===== STUDENTS =====

type fakeStudentRepo fakeRepository

func (f *fakeStudentRepo) Create(ctx context.Context, student *models.Student) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.students[student.Email] = student
	return nil
}

func (f *fakeStudentRepo) GetByEmail(ctx context.Context, email string) (*models.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	student, ok := f.students[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return student, nil
}

func (f *fakeStudentRepo) List(ctx context.Context, filters repositories.StudentFilters) ([]*models.Student, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.Student, 0, len(f.students))
	for _, student := range f.students {
		out = append(out, student)
	}
	return out, int64(len(out)), nil
}

func (f *fakeStudentRepo) Update(ctx context.Context, student *models.Student) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.students[student.Email] = student
	return nil
}

func (f *fakeStudentRepo) Delete(ctx context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.students, email)
	return nil
}

// ===== EXAMS =====

type fakeExamRepo fakeRepository

func (f *fakeExamRepo) Create(ctx context.Context, exam *models.Exam) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exams = append(f.exams, exam)
	return nil
}

func (f *fakeExamRepo) GetByCourse(ctx context.Context, courseID string, kind models.ExamKind) (*models.Exam, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.exams) - 1; i >= 0; i-- {
		if f.exams[i].CourseID == courseID && f.exams[i].Kind == kind {
			return f.exams[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// ===== SUBMISSIONS =====

type fakeSubmissionRepo fakeRepository

func (f *fakeSubmissionRepo) Create(ctx context.Context, submission *models.Submission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submissions = append(f.submissions, submission)
	return nil
}

func (f *fakeSubmissionRepo) ListByEvent(ctx context.Context, eventID string) ([]*models.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Submission
	for _, sub := range f.submissions {
		if sub.EventID == eventID {
			out = append(out, sub)
		}
	}
	return out, nil
}
