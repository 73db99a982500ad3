package services

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/tallerhq/course-admin-service/internal/models"
)

const (
	SectionWorkshop   = "workshop"
	SectionInstructor = "instructor"

	// CommentsKey is the response key of the free-text comments item.
	CommentsKey = "comments"

	ratingMin = 1
	ratingMax = 6
)

// SurveyResult is the outcome of scoring one submitted survey.
type SurveyResult struct {
	WorkshopAverage   float64             `json:"workshop_average"`
	InstructorAverage float64             `json:"instructor_average"`
	OverallAverage    float64             `json:"overall_average"`
	Comments          string              `json:"comments"`
	PerItem           []models.ItemResult `json:"per_item_result"`
}

// SurveyService scores Likert-scale satisfaction surveys. Scoring never
// fails: unparseable or out-of-range ratings are excluded from the averages
// rather than rejecting the submission.
type SurveyService interface {
	// ScoreSurvey averages the 1-6 ratings of both sections. Responses are
	// keyed "<section>_<number>" (e.g. "workshop_3"), plus "comments" for
	// the free-text item, which is stored verbatim.
	ScoreSurvey(definition *models.SurveyDefinition, responses map[string]string) *SurveyResult

	// RatingLabel maps a 1-6 rating to its display label.
	RatingLabel(value float64) string
}

type surveyService struct {
	logger *slog.Logger
}

func NewSurveyService(logger *slog.Logger) SurveyService {
	return &surveyService{logger: logger}
}

func (s *surveyService) ScoreSurvey(definition *models.SurveyDefinition, responses map[string]string) *SurveyResult {
	result := &SurveyResult{Comments: responses[CommentsKey]}
	if definition == nil {
		s.logger.Warn("scoring survey with no definition")
		return result
	}

	var workshopCount, instructorCount int
	result.WorkshopAverage, workshopCount = s.scoreSection(definition.Workshop, SectionWorkshop, responses, result)
	result.InstructorAverage, instructorCount = s.scoreSection(definition.Instructor, SectionInstructor, responses, result)

	// Only sections with at least one parsed rating contribute to the
	// overall average.
	sum, sections := 0.0, 0
	if workshopCount > 0 {
		sum += result.WorkshopAverage
		sections++
	}
	if instructorCount > 0 {
		sum += result.InstructorAverage
		sections++
	}
	if sections > 0 {
		result.OverallAverage = sum / float64(sections)
	}

	return result
}

// scoreSection parses each rated item of one section, appending per-item
// results as it goes. Returns the section average and how many ratings
// parsed; the average is 0 when none did.
func (s *surveyService) scoreSection(items []models.SurveyItem, section string, responses map[string]string, result *SurveyResult) (float64, int) {
	total, count := 0, 0
	for _, item := range items {
		raw, ok := responses[fmt.Sprintf("%s_%d", section, item.Number)]
		if !ok {
			continue
		}
		value, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || value < ratingMin || value > ratingMax {
			s.logger.Debug("excluding unparseable survey rating",
				"section", section,
				"item", item.Number,
				"value", raw)
			continue
		}
		total += value
		count++
		result.PerItem = append(result.PerItem, models.ItemResult{
			Question:    item.Text,
			RatingValue: value,
			RatingLabel: s.RatingLabel(float64(value)),
			Section:     section,
		})
	}
	if count == 0 {
		return 0, 0
	}
	return float64(total) / float64(count), count
}

func (s *surveyService) RatingLabel(value float64) string {
	switch {
	case value < 1.5:
		return "Muy mal"
	case value < 2.5:
		return "Mal"
	case value < 3.5:
		return "Regular"
	case value < 4.5:
		return "Bien"
	case value < 5.5:
		return "Muy Bien"
	default:
		return "Excelente"
	}
}
