package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tallerhq/course-admin-service/internal/models"
	"github.com/tallerhq/course-admin-service/internal/repositories"
	"github.com/tallerhq/course-admin-service/internal/services"
)

type EventHandler struct {
	BaseHandler
	eventService   services.EventService
	metricsService services.MetricsService
}

func NewEventHandler(eventService services.EventService, metricsService services.MetricsService, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		BaseHandler:    NewBaseHandler(logger),
		eventService:   eventService,
		metricsService: metricsService,
	}
}

// CreateEvent schedules a new course event
func (h *EventHandler) CreateEvent(c *gin.Context) {
	var req services.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	event, err := h.eventService.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, event)
}

// GetEvent retrieves an event by ID
func (h *EventHandler) GetEvent(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	event, err := h.eventService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, event)
}

// ListEvents lists events with optional filters and pagination
func (h *EventHandler) ListEvents(c *gin.Context) {
	filters := repositories.EventFilters{
		Limit:     parseIntQuery(c, "limit", 50),
		Offset:    parseIntQuery(c, "offset", 0),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if courseID := c.Query("course_id"); courseID != "" {
		filters.CourseID = &courseID
	}
	if status := c.Query("status"); status != "" {
		s := models.EventStatus(status)
		filters.Status = &s
	}

	events, total, err := h.eventService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Data: events, Total: total})
}

// GetEventsByMonth lists events scheduled in a given year/month
func (h *EventHandler) GetEventsByMonth(c *gin.Context) {
	year := parseIntQuery(c, "year", time.Now().Year())
	month := parseIntQuery(c, "month", int(time.Now().Month()))
	if month < 1 || month > 12 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid month",
			Details: "month must be between 1 and 12",
		})
		return
	}

	events, err := h.eventService.GetByMonth(c.Request.Context(), year, time.Month(month))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Data: events, Total: int64(len(events))})
}

// Enroll adds a student to the event roster
func (h *EventHandler) Enroll(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	var req services.EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	event, err := h.eventService.Enroll(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, event)
}

// CloseEvent stops the event from accepting submissions
func (h *EventHandler) CloseEvent(c *gin.Context) {
	h.setStatus(c, h.eventService.Close, "Event closed")
}

// ReopenEvent reopens a closed event
func (h *EventHandler) ReopenEvent(c *gin.Context) {
	h.setStatus(c, h.eventService.Reopen, "Event reopened")
}

func (h *EventHandler) setStatus(c *gin.Context, op func(ctx context.Context, id string) error, message string) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	if err := op(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: message})
}

// RescheduleEvent updates the event's scheduled date
func (h *EventHandler) RescheduleEvent(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	var req struct {
		ScheduledDate time.Time `json:"scheduled_date" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	if err := h.eventService.UpdateScheduledDate(c.Request.Context(), id, req.ScheduledDate); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Event rescheduled"})
}

// DeleteEvent deletes an event
func (h *EventHandler) DeleteEvent(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	if err := h.eventService.Delete(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Event deleted"})
}

// RecomputeMetrics recomputes and stores one event's derived metrics
func (h *EventHandler) RecomputeMetrics(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	event, err := h.metricsService.RecomputeAndStore(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, event)
}

// RecomputeAllMetrics repairs the derived metrics of every stored event
func (h *EventHandler) RecomputeAllMetrics(c *gin.Context) {
	repaired, err := h.metricsService.RecomputeAll(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Metrics recomputed",
		Data:    gin.H{"repaired": repaired},
	})
}
