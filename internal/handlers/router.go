package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tallerhq/course-admin-service/internal/services"
)

type HandlerManager struct {
	courseHandler     *CourseHandler
	eventHandler      *EventHandler
	submissionHandler *SubmissionHandler
	studentHandler    *StudentHandler
}

func NewHandlerManager(
	courses services.CourseService,
	events services.EventService,
	submissions services.SubmissionService,
	students services.StudentService,
	metrics services.MetricsService,
	logger *slog.Logger,
) *HandlerManager {
	return &HandlerManager{
		courseHandler:     NewCourseHandler(courses, logger),
		eventHandler:      NewEventHandler(events, metrics, logger),
		submissionHandler: NewSubmissionHandler(submissions, logger),
		studentHandler:    NewStudentHandler(students, logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Course routes
		courses := v1.Group("/courses")
		{
			courses.POST("", hm.courseHandler.CreateCourse)
			courses.GET("", hm.courseHandler.ListCourses)
			courses.GET("/:id", hm.courseHandler.GetCourse)
			courses.PUT("/:id", hm.courseHandler.UpdateCourse)
			courses.DELETE("/:id", hm.courseHandler.DeleteCourse)
		}

		// Event routes
		events := v1.Group("/events")
		{
			events.POST("", hm.eventHandler.CreateEvent)
			events.GET("", hm.eventHandler.ListEvents)
			events.GET("/calendar", hm.eventHandler.GetEventsByMonth)
			events.GET("/:id", hm.eventHandler.GetEvent)
			events.PUT("/:id/schedule", hm.eventHandler.RescheduleEvent)
			events.DELETE("/:id", hm.eventHandler.DeleteEvent)

			// Roster and lifecycle
			events.POST("/:id/enroll", hm.eventHandler.Enroll)
			events.POST("/:id/close", hm.eventHandler.CloseEvent)
			events.POST("/:id/reopen", hm.eventHandler.ReopenEvent)

			// Submission intake
			events.POST("/:id/quiz", hm.submissionHandler.SubmitQuiz)
			events.POST("/:id/survey", hm.submissionHandler.SubmitSurvey)

			// Metrics
			events.POST("/:id/metrics/recompute", hm.eventHandler.RecomputeMetrics)
		}

		// Metrics repair across all events
		v1.POST("/metrics/recompute-all", hm.eventHandler.RecomputeAllMetrics)

		// Student routes
		students := v1.Group("/students")
		{
			students.GET("", hm.studentHandler.ListStudents)
			students.GET("/:email", hm.studentHandler.GetStudent)
			students.PUT("/:email", hm.studentHandler.UpdateStudent)
			students.DELETE("/:email", hm.studentHandler.DeleteStudent)
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "course-admin-service",
		})
	})
}
