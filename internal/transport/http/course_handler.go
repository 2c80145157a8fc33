package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type CourseHandler struct {
	courses CourseService
}

func NewCourseHandler(courses CourseService) *CourseHandler {
	return &CourseHandler{courses: courses}
}

// GET /api/course/all
func (h *CourseHandler) List(c *gin.Context) {
	courses, err := h.courses.ListCourses(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "courses": courses})
}

// GET /api/course/:id
func (h *CourseHandler) GetOne(c *gin.Context) {
	course, err := h.courses.GetCourse(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "courseData": course})
}
