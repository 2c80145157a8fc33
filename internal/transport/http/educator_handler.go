package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/waste3d/edemy-api/internal/application"
	"github.com/waste3d/edemy-api/internal/domain"
	"github.com/waste3d/edemy-api/internal/middleware"
)

// maxThumbnailSize caps the multipart body of add-course.
const maxThumbnailSize = 10 << 20

type EducatorHandler struct {
	educators EducatorService
	courses   CourseService
}

func NewEducatorHandler(educators EducatorService, courses CourseService) *EducatorHandler {
	return &EducatorHandler{educators: educators, courses: courses}
}

// GET /api/educator/update-role
func (h *EducatorHandler) UpdateRole(c *gin.Context) {
	if err := h.educators.UpdateRoleToEducator(c.Request.Context(), middleware.IdentityFrom(c).UserID); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "You can publish a course now"})
}

// POST /api/educator/add-course
// Multipart form: courseData holds the course JSON, image the thumbnail file.
func (h *EducatorHandler) AddCourse(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxThumbnailSize)

	raw := c.PostForm("courseData")
	if raw == "" {
		_ = c.Error(domain.NewValidationError(
			errors.New("course data is required"),
			domain.FieldError{Field: "courseData", Error: "courseData is required"},
		))
		return
	}
	var nc domain.NewCourse
	if err := json.Unmarshal([]byte(raw), &nc); err != nil {
		_ = c.Error(domain.NewValidationError(
			errors.Wrap(err, "decode course data"),
			domain.FieldError{Field: "courseData", Error: "must be a valid course JSON document"},
		))
		return
	}

	var thumb *application.Thumbnail
	if fh, err := c.FormFile("image"); err == nil {
		f, err := fh.Open()
		if err != nil {
			_ = c.Error(errors.Wrap(err, "open thumbnail"))
			return
		}
		defer f.Close()
		thumb = &application.Thumbnail{Filename: fh.Filename, Content: f}
	}

	if _, err := h.courses.CreateCourse(c.Request.Context(), middleware.IdentityFrom(c).UserID, nc, thumb); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Course Added"})
}

// GET /api/educator/courses
func (h *EducatorHandler) Courses(c *gin.Context) {
	courses, err := h.educators.Courses(c.Request.Context(), middleware.IdentityFrom(c).UserID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "courses": courses})
}

// GET /api/educator/dashboard
func (h *EducatorHandler) Dashboard(c *gin.Context) {
	dashboard, err := h.educators.Dashboard(c.Request.Context(), middleware.IdentityFrom(c).UserID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "dashboardData": dashboard})
}

// GET /api/educator/enrolled-students
func (h *EducatorHandler) EnrolledStudents(c *gin.Context) {
	students, err := h.educators.EnrolledStudents(c.Request.Context(), middleware.IdentityFrom(c).UserID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "enrolledStudents": students})
}
