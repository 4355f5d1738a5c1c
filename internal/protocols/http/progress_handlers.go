package http

import (
	"github.com/gin-gonic/gin"

	"lessonhub/pkg/models"
)

// startProgress opens a watch session on a lesson
func (s *Server) startProgress(c *gin.Context) {
	userID, ok := GetUserID(c)
	if !ok {
		abortUnauthorized(c, "unauthorized")
		return
	}

	var req models.StartProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		respondBadRequest(c, "invalid request body")
		return
	}

	resp, err := s.progressSvc.Start(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondCreated(c, "session started", resp)
}

// updateProgress applies an incremental progress report
func (s *Server) updateProgress(c *gin.Context) {
	userID, ok := GetUserID(c)
	if !ok {
		abortUnauthorized(c, "unauthorized")
		return
	}

	var req models.UpdateProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	record, err := s.progressSvc.Update(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "progress updated", record)
}

// completeLesson finalizes a lesson and reports gamification results
func (s *Server) completeLesson(c *gin.Context) {
	userID, ok := GetUserID(c)
	if !ok {
		abortUnauthorized(c, "unauthorized")
		return
	}

	var req models.CompleteLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		respondBadRequest(c, "invalid request body")
		return
	}

	resp, err := s.progressSvc.Complete(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "lesson completed", resp)
}

// resumeLesson answers where the user left off
func (s *Server) resumeLesson(c *gin.Context) {
	userID, ok := GetUserID(c)
	if !ok {
		abortUnauthorized(c, "unauthorized")
		return
	}

	resp, err := s.progressSvc.Resume(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "", resp)
}

// getMyStats returns the caller's streak, completion, and badge state
func (s *Server) getMyStats(c *gin.Context) {
	userID, ok := GetUserID(c)
	if !ok {
		abortUnauthorized(c, "unauthorized")
		return
	}

	stats, err := s.progressSvc.GetStats(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "", stats)
}
