package http

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"lessonhub/pkg/models"
)

// createTicket files a support ticket for the caller
func (s *Server) createTicket(c *gin.Context) {
	userID, ok := GetUserID(c)
	if !ok {
		abortUnauthorized(c, "unauthorized")
		return
	}

	var req models.CreateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	ticket, err := s.ticketSvc.Create(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondCreated(c, "ticket created", ticket)
}

// listTickets returns the caller's tickets, or every ticket for support staff
func (s *Server) listTickets(c *gin.Context) {
	requester, ok := GetUser(c)
	if !ok {
		abortUnauthorized(c, "unauthorized")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	resp, err := s.ticketSvc.List(c.Request.Context(), requester, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "", resp)
}

// getTicket returns one ticket, subject to ownership rules
func (s *Server) getTicket(c *gin.Context) {
	requester, ok := GetUser(c)
	if !ok {
		abortUnauthorized(c, "unauthorized")
		return
	}

	ticket, err := s.ticketSvc.GetByID(c.Request.Context(), c.Param("id"), requester)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "", ticket)
}

// respondTicket attaches a support response (support staff only)
func (s *Server) respondTicket(c *gin.Context) {
	requester, ok := GetUser(c)
	if !ok {
		abortUnauthorized(c, "unauthorized")
		return
	}

	var req models.RespondTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	ticket, err := s.ticketSvc.Respond(c.Request.Context(), c.Param("id"), requester, req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "response recorded", ticket)
}

// setTicketStatus moves a ticket between states
func (s *Server) setTicketStatus(c *gin.Context) {
	requester, ok := GetUser(c)
	if !ok {
		abortUnauthorized(c, "unauthorized")
		return
	}

	var req models.TicketStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	ticket, err := s.ticketSvc.SetStatus(c.Request.Context(), c.Param("id"), requester, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "status updated", ticket)
}
