package services

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tallerhq/course-admin-service/internal/events"
	"github.com/tallerhq/course-admin-service/internal/models"
	"github.com/tallerhq/course-admin-service/internal/utils"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
)

type submissionFixture struct {
	repo      *fakeRepository
	publisher *events.MockEventPublisher
	service   SubmissionService
}

func newSubmissionFixture(t *testing.T) *submissionFixture {
	t.Helper()
	logger := testLogger()
	repo := newFakeRepository()
	validator := utils.NewValidator()
	publisher := events.NewMockEventPublisher(logger)

	courses := NewCourseService(repo, nil, logger, validator)
	metrics := NewMetricsService(repo, publisher, logger)
	service := NewSubmissionService(
		repo, courses,
		NewGradingService(logger), NewSurveyService(logger),
		metrics, publisher, logger, validator)

	ctx := context.Background()
	quizDef := datatypes.NewJSONType(*sampleQuiz())
	surveyDef := datatypes.NewJSONType(*sampleSurvey())
	require.NoError(t, repo.Course().Create(ctx, &models.Course{
		ID:               "c1",
		Name:             "Intro to Go",
		Status:           models.CourseActive,
		QuizDefinition:   &quizDef,
		SurveyDefinition: &surveyDef,
	}))
	require.NoError(t, repo.Event().Create(ctx, &models.Event{
		ID:            "e1",
		CourseID:      "c1",
		CourseName:    "Intro to Go",
		ScheduledDate: time.Now().AddDate(0, 0, 7),
		Status:        models.EventOpen,
		EnrolledStudents: datatypes.JSONSlice[models.EnrolledStudent]{
			{Name: "Ana", Email: "ana@x.com"},
			{Name: "Luis", Email: "luis@x.com"},
			{Name: "Marta", Email: "marta@x.com"},
		},
		TotalEnrolled: 3,
	}))

	return &submissionFixture{repo: repo, publisher: publisher, service: service}
}

func TestSubmitQuiz_StoresGradedSubmissionAndMetrics(t *testing.T) {
	fx := newSubmissionFixture(t)
	ctx := context.Background()

	submission, err := fx.service.SubmitQuiz(ctx, &SubmitQuizRequest{
		EventID:      "e1",
		StudentEmail: "ana@x.com",
		Answers:      map[int]string{1: "a", 2: "b", 3: "a", 4: "x"},
	})
	require.NoError(t, err)
	assert.Equal(t, 75.0, submission.Score)
	assert.Equal(t, "Ana", submission.StudentName)

	stored, err := fx.repo.Event().GetByID(ctx, "e1")
	require.NoError(t, err)
	require.Len(t, stored.QuizSubmissions, 1)
	assert.Equal(t, 1, stored.QuizSubmittedCount)
	assert.Equal(t, 75.0, stored.QuizAverageScore)
	assert.Equal(t, 3, stored.TotalEnrolled)

	// The standalone mirror and the published event are both side effects of
	// the accepted submission.
	mirrors, err := fx.repo.Submission().ListByEvent(ctx, "e1")
	require.NoError(t, err)
	require.Len(t, mirrors, 1)
	assert.Equal(t, models.SubmissionQuiz, mirrors[0].Kind)

	require.Len(t, fx.publisher.Events, 1)
	assert.Equal(t, events.EventSubmissionRecorded, fx.publisher.Events[0].Type)
}

func TestSubmitQuiz_DuplicateRejected(t *testing.T) {
	fx := newSubmissionFixture(t)
	ctx := context.Background()
	req := &SubmitQuizRequest{
		EventID:      "e1",
		StudentEmail: "ana@x.com",
		Answers:      map[int]string{1: "a"},
	}

	_, err := fx.service.SubmitQuiz(ctx, req)
	require.NoError(t, err)

	_, err = fx.service.SubmitQuiz(ctx, req)
	assert.ErrorIs(t, err, ErrAlreadySubmitted)

	stored, err := fx.repo.Event().GetByID(ctx, "e1")
	require.NoError(t, err)
	assert.Len(t, stored.QuizSubmissions, 1)
	assert.Equal(t, 1, stored.QuizSubmittedCount)
}

func TestSubmitQuiz_ConcurrentDuplicateStoresExactlyOne(t *testing.T) {
	fx := newSubmissionFixture(t)
	ctx := context.Background()

	var successes atomic.Int32
	var g errgroup.Group
	for i := 0; i < 2; i++ {
		g.Go(func() error {
			_, err := fx.service.SubmitQuiz(ctx, &SubmitQuizRequest{
				EventID:      "e1",
				StudentEmail: "luis@x.com",
				Answers:      map[int]string{1: "a"},
			})
			if err == nil {
				successes.Add(1)
				return nil
			}
			if err == ErrAlreadySubmitted || err == ErrConcurrentUpdate {
				return nil
			}
			return err
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(1), successes.Load())
	stored, err := fx.repo.Event().GetByID(ctx, "e1")
	require.NoError(t, err)
	assert.Len(t, stored.QuizSubmissions, 1)
}

func TestSubmitQuiz_ConcurrentDistinctStudents(t *testing.T) {
	fx := newSubmissionFixture(t)
	ctx := context.Background()

	emails := []string{"ana@x.com", "luis@x.com", "marta@x.com"}
	var successes atomic.Int32
	var g errgroup.Group
	for _, email := range emails {
		email := email
		g.Go(func() error {
			_, err := fx.service.SubmitQuiz(ctx, &SubmitQuizRequest{
				EventID:      "e1",
				StudentEmail: email,
				Answers:      map[int]string{1: "a", 2: "b", 3: "a", 4: "b"},
			})
			if err == nil {
				successes.Add(1)
				return nil
			}
			// A writer may exhaust its retries under heavy contention; that
			// must surface as the retryable sentinel, never a partial write.
			if err == ErrConcurrentUpdate {
				return nil
			}
			return err
		})
	}
	require.NoError(t, g.Wait())

	stored, err := fx.repo.Event().GetByID(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, int(successes.Load()), len(stored.QuizSubmissions))
	assert.Equal(t, len(stored.QuizSubmissions), stored.QuizSubmittedCount)
	assert.GreaterOrEqual(t, int(successes.Load()), 1)
}

func TestSubmitQuiz_NotEnrolled(t *testing.T) {
	fx := newSubmissionFixture(t)
	ctx := context.Background()

	_, err := fx.service.SubmitQuiz(ctx, &SubmitQuizRequest{
		EventID:      "e1",
		StudentEmail: "stranger@x.com",
		Answers:      map[int]string{1: "a"},
	})
	assert.ErrorIs(t, err, ErrNotEnrolled)

	stored, err := fx.repo.Event().GetByID(ctx, "e1")
	require.NoError(t, err)
	assert.Empty(t, stored.QuizSubmissions)
	assert.Equal(t, 0, stored.QuizSubmittedCount)
	assert.Empty(t, fx.publisher.Events)
}

func TestSubmitQuiz_EventNotFound(t *testing.T) {
	fx := newSubmissionFixture(t)

	_, err := fx.service.SubmitQuiz(context.Background(), &SubmitQuizRequest{
		EventID:      "missing",
		StudentEmail: "ana@x.com",
		Answers:      map[int]string{1: "a"},
	})
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestSubmitQuiz_ClosedEvent(t *testing.T) {
	fx := newSubmissionFixture(t)
	ctx := context.Background()
	require.NoError(t, fx.repo.Event().UpdateStatus(ctx, "e1", models.EventClosed))

	_, err := fx.service.SubmitQuiz(ctx, &SubmitQuizRequest{
		EventID:      "e1",
		StudentEmail: "ana@x.com",
		Answers:      map[int]string{1: "a"},
	})
	assert.ErrorIs(t, err, ErrEventClosed)
}

func TestSubmitQuiz_CourseWithoutQuiz(t *testing.T) {
	fx := newSubmissionFixture(t)
	ctx := context.Background()

	require.NoError(t, fx.repo.Course().Create(ctx, &models.Course{
		ID: "c2", Name: "No Quiz Course", Status: models.CourseActive,
	}))
	require.NoError(t, fx.repo.Event().Create(ctx, &models.Event{
		ID: "e2", CourseID: "c2", Status: models.EventOpen,
		EnrolledStudents: datatypes.JSONSlice[models.EnrolledStudent]{
			{Name: "Ana", Email: "ana@x.com"},
		},
	}))

	_, err := fx.service.SubmitQuiz(ctx, &SubmitQuizRequest{
		EventID:      "e2",
		StudentEmail: "ana@x.com",
		Answers:      map[int]string{1: "a"},
	})
	assert.ErrorIs(t, err, ErrCourseHasNoQuiz)
}

func TestSubmitQuiz_InvalidRequest(t *testing.T) {
	fx := newSubmissionFixture(t)

	_, err := fx.service.SubmitQuiz(context.Background(), &SubmitQuizRequest{
		EventID:      "e1",
		StudentEmail: "not-an-email",
		Answers:      map[int]string{1: "a"},
	})
	assert.True(t, IsValidation(err))
}

func TestSubmitSurvey_StoresScoredSubmissionAndMetrics(t *testing.T) {
	fx := newSubmissionFixture(t)
	ctx := context.Background()

	submission, err := fx.service.SubmitSurvey(ctx, &SubmitSurveyRequest{
		EventID:      "e1",
		StudentEmail: "ana@x.com",
		Responses: map[string]string{
			"workshop_1":   "4",
			"workshop_2":   "5",
			"workshop_3":   "6",
			"instructor_1": "6",
			"instructor_2": "6",
			"comments":     "muy bueno",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 5.0, submission.WorkshopAverage)
	assert.Equal(t, 6.0, submission.InstructorAverage)
	assert.Equal(t, 5.5, submission.OverallAverage)
	assert.Equal(t, "muy bueno", submission.Comments)

	stored, err := fx.repo.Event().GetByID(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.SurveySubmittedCount)
	assert.Equal(t, 5.5, stored.SurveyAverageScore)
	assert.Equal(t, 0, stored.QuizSubmittedCount)
}

func TestSubmitSurvey_DuplicateRejectedIndependentlyOfQuiz(t *testing.T) {
	fx := newSubmissionFixture(t)
	ctx := context.Background()

	// One quiz and one survey from the same student are both allowed.
	_, err := fx.service.SubmitQuiz(ctx, &SubmitQuizRequest{
		EventID: "e1", StudentEmail: "ana@x.com", Answers: map[int]string{1: "a"},
	})
	require.NoError(t, err)

	surveyReq := &SubmitSurveyRequest{
		EventID: "e1", StudentEmail: "ana@x.com",
		Responses: map[string]string{"workshop_1": "5"},
	}
	_, err = fx.service.SubmitSurvey(ctx, surveyReq)
	require.NoError(t, err)

	_, err = fx.service.SubmitSurvey(ctx, surveyReq)
	assert.ErrorIs(t, err, ErrAlreadySubmitted)

	stored, err := fx.repo.Event().GetByID(ctx, "e1")
	require.NoError(t, err)
	assert.Len(t, stored.QuizSubmissions, 1)
	assert.Len(t, stored.SurveySubmissions, 1)
}

func TestSubmitQuiz_SequentialStudentsAccumulateAverage(t *testing.T) {
	fx := newSubmissionFixture(t)
	ctx := context.Background()

	answers := []map[int]string{
		{1: "a", 2: "b", 3: "a", 4: "b"}, // 100
		{1: "a", 2: "b", 3: "x", 4: "x"}, // 50
	}
	for i, email := range []string{"ana@x.com", "luis@x.com"} {
		_, err := fx.service.SubmitQuiz(ctx, &SubmitQuizRequest{
			EventID:      "e1",
			StudentEmail: email,
			Answers:      answers[i],
		})
		require.NoError(t, err)
	}

	stored, err := fx.repo.Event().GetByID(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, 2, stored.QuizSubmittedCount)
	assert.Equal(t, 75.0, stored.QuizAverageScore)
	assert.Len(t, stored.QuizSubmissions, 2)
}
