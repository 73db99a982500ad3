package services

import (
	"log/slog"
	"strings"

	"github.com/tallerhq/course-admin-service/internal/models"
)

// QuizResult is the outcome of grading one submitted quiz.
type QuizResult struct {
	Score          float64                 `json:"score"`
	CorrectCount   int                     `json:"correct_count"`
	TotalQuestions int                     `json:"total_questions"`
	PerQuestion    []models.QuestionResult `json:"per_question_result"`
}

// GradingService grades submitted quizzes against a course's answer key.
// Grading never fails: missing or malformed answers count as incorrect and
// an empty definition grades to zero questions.
type GradingService interface {
	// GradeQuiz compares each answer (keyed by question number) against the
	// definition's correct answer, trimmed and case-sensitive.
	GradeQuiz(definition *models.QuizDefinition, answers map[int]string) *QuizResult

	// PerformanceLabel maps a 0-100 score to its display label.
	PerformanceLabel(score float64) string
}

type gradingService struct {
	logger *slog.Logger
}

func NewGradingService(logger *slog.Logger) GradingService {
	return &gradingService{logger: logger}
}

func (s *gradingService) GradeQuiz(definition *models.QuizDefinition, answers map[int]string) *QuizResult {
	result := &QuizResult{}
	if definition == nil || len(definition.Questions) == 0 {
		s.logger.Warn("grading quiz with no questions")
		return result
	}

	result.TotalQuestions = len(definition.Questions)
	result.PerQuestion = make([]models.QuestionResult, 0, result.TotalQuestions)

	for _, question := range definition.Questions {
		answer := strings.TrimSpace(answers[question.Number])
		correct := answer != "" && answer == strings.TrimSpace(question.CorrectAnswer)
		if correct {
			result.CorrectCount++
		}
		result.PerQuestion = append(result.PerQuestion, models.QuestionResult{
			Question:      question.Text,
			StudentAnswer: answer,
			CorrectAnswer: question.CorrectAnswer,
			IsCorrect:     correct,
		})
	}

	result.Score = float64(result.CorrectCount) / float64(result.TotalQuestions) * 100
	return result
}

func (s *gradingService) PerformanceLabel(score float64) string {
	switch {
	case score >= 90:
		return "Excelente"
	case score >= 80:
		return "Muy Bien"
	case score >= 70:
		return "Bien"
	case score >= 60:
		return "Regular"
	default:
		return "Necesita mejorar"
	}
}
