package http

import (
	"github.com/gin-gonic/gin"

	"lessonhub/pkg/models"
)

// register handles account creation
func (s *Server) register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	user, err := s.authSvc.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondCreated(c, "account created", gin.H{"user": user})
}

// login handles password authentication
func (s *Server) login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		respondBadRequest(c, "email and password are required")
		return
	}

	resp, err := s.authSvc.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "login successful", resp)
}

// requestOTP issues a one-time login code. The response is identical for
// known and unknown emails.
func (s *Server) requestOTP(c *gin.Context) {
	var req models.OTPRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" {
		respondBadRequest(c, "email is required")
		return
	}

	if err := s.otpSvc.RequestCode(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "if the account exists, a code has been sent", nil)
}

// verifyOTP exchanges a one-time code for a session token
func (s *Server) verifyOTP(c *gin.Context) {
	var req models.OTPVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Code == "" {
		respondBadRequest(c, "email and code are required")
		return
	}

	resp, err := s.otpSvc.VerifyCode(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "login successful", resp)
}

// me returns the authenticated user's profile
func (s *Server) me(c *gin.Context) {
	user, ok := GetUser(c)
	if !ok {
		respondError(c, models.NewUnauthorizedError("authentication required"))
		return
	}

	respondOK(c, "profile", gin.H{"user": user})
}

// updateUserRole lets admins change user roles
func (s *Server) updateUserRole(c *gin.Context) {
	userID := c.Param("id")
	if userID == "" {
		respondBadRequest(c, "user id is required")
		return
	}

	var req struct {
		Role string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	if err := s.authSvc.UpdateUserRole(c.Request.Context(), userID, req.Role); err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "role updated", gin.H{"user_id": userID, "role": req.Role})
}
