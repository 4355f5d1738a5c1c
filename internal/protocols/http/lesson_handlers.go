package http

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"lessonhub/pkg/models"
)

// listLessons returns the lesson catalog. Drafts show up only for
// content managers; authentication is optional on this route.
func (s *Server) listLessons(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	requester, _ := GetUser(c)

	resp, err := s.lessonSvc.List(c.Request.Context(), requester, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "", resp)
}

// getLesson returns a single lesson
func (s *Server) getLesson(c *gin.Context) {
	requester, _ := GetUser(c)

	lesson, err := s.lessonSvc.GetByID(c.Request.Context(), c.Param("id"), requester)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "", lesson)
}

// createLesson handles lesson creation (content managers only)
func (s *Server) createLesson(c *gin.Context) {
	var req models.CreateLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	lesson, err := s.lessonSvc.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondCreated(c, "lesson created", lesson)
}

// updateLesson handles partial lesson updates
func (s *Server) updateLesson(c *gin.Context) {
	var req models.UpdateLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	lesson, err := s.lessonSvc.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "lesson updated", lesson)
}

// deleteLesson removes a lesson
func (s *Server) deleteLesson(c *gin.Context) {
	if err := s.lessonSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "lesson deleted", nil)
}
