package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/waste3d/edemy-api/internal/middleware"
)

type UserHandler struct {
	users     UserService
	purchases PurchaseService
	ratings   RatingService
	progress  ProgressService
}

func NewUserHandler(users UserService, purchases PurchaseService, ratings RatingService, progress ProgressService) *UserHandler {
	return &UserHandler{users: users, purchases: purchases, ratings: ratings, progress: progress}
}

type courseReq struct {
	CourseID string `json:"courseId" binding:"required"`
}

type ratingReq struct {
	CourseID string `json:"courseId" binding:"required"`
	Rating   int    `json:"rating" binding:"required,min=1,max=5"`
}

type progressReq struct {
	CourseID  string `json:"courseId" binding:"required"`
	LectureID string `json:"lectureId" binding:"required"`
}

// GET /api/user/data
func (h *UserHandler) GetData(c *gin.Context) {
	user, err := h.users.GetUserData(c.Request.Context(), middleware.UserFrom(c).ID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}

// GET /api/user/enrolled-courses
func (h *UserHandler) EnrolledCourses(c *gin.Context) {
	courses, err := h.users.EnrolledCourses(c.Request.Context(), middleware.UserFrom(c).ID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "enrolledCourses": courses})
}

// POST /api/user/purchase
func (h *UserHandler) Purchase(c *gin.Context) {
	var req courseReq
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(bindError(err))
		return
	}

	url, err := h.purchases.BeginPurchase(c.Request.Context(), middleware.UserFrom(c).ID, req.CourseID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "session_url": url})
}

// POST /api/user/add-rating
func (h *UserHandler) AddRating(c *gin.Context) {
	var req ratingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(bindError(err))
		return
	}

	if err := h.ratings.SubmitRating(c.Request.Context(), middleware.UserFrom(c).ID, req.CourseID, req.Rating); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Rating added"})
}

// POST /api/user/update-course-progress
func (h *UserHandler) UpdateProgress(c *gin.Context) {
	var req progressReq
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(bindError(err))
		return
	}

	added, err := h.progress.MarkLectureComplete(c.Request.Context(), middleware.UserFrom(c).ID, req.CourseID, req.LectureID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	msg := "Progress updated"
	if !added {
		msg = "Lecture already completed"
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": msg})
}

// POST /api/user/get-course-progress
func (h *UserHandler) GetProgress(c *gin.Context) {
	var req courseReq
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(bindError(err))
		return
	}

	progress, err := h.progress.GetProgress(c.Request.Context(), middleware.UserFrom(c).ID, req.CourseID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "progressData": progress})
}
