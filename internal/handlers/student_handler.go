package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tallerhq/course-admin-service/internal/repositories"
	"github.com/tallerhq/course-admin-service/internal/services"
)

type StudentHandler struct {
	BaseHandler
	studentService services.StudentService
}

func NewStudentHandler(studentService services.StudentService, logger *slog.Logger) *StudentHandler {
	return &StudentHandler{
		BaseHandler:    NewBaseHandler(logger),
		studentService: studentService,
	}
}

// GetStudent retrieves a student by email
func (h *StudentHandler) GetStudent(c *gin.Context) {
	email := ParseStringIDParam(c, "email")
	if email == "" {
		return
	}

	student, err := h.studentService.GetByEmail(c.Request.Context(), email)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, student)
}

// ListStudents lists students with optional course filter and pagination
func (h *StudentHandler) ListStudents(c *gin.Context) {
	filters := repositories.StudentFilters{
		Limit:  parseIntQuery(c, "limit", 50),
		Offset: parseIntQuery(c, "offset", 0),
	}
	if courseName := c.Query("course_name"); courseName != "" {
		filters.CourseName = &courseName
	}

	students, total, err := h.studentService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Data: students, Total: total})
}

// UpdateStudent updates a student's directory record
func (h *StudentHandler) UpdateStudent(c *gin.Context) {
	email := ParseStringIDParam(c, "email")
	if email == "" {
		return
	}

	var req services.UpdateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	student, err := h.studentService.Update(c.Request.Context(), email, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, student)
}

// DeleteStudent removes a student from the directory
func (h *StudentHandler) DeleteStudent(c *gin.Context) {
	email := ParseStringIDParam(c, "email")
	if email == "" {
		return
	}

	if err := h.studentService.Delete(c.Request.Context(), email); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Student deleted"})
}
