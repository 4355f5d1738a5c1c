package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"lessonhub/internal/repository"
	"lessonhub/pkg/models"
)

// TicketListResponse is a paginated ticket listing
type TicketListResponse struct {
	Data []models.Ticket `json:"data"`
	models.PaginationMeta
}

// TicketService manages support tickets
type TicketService interface {
	Create(ctx context.Context, userID string, req models.CreateTicketRequest) (*models.Ticket, error)
	GetByID(ctx context.Context, ticketID string, requester *models.User) (*models.Ticket, error)
	List(ctx context.Context, requester *models.User, limit, offset int) (*TicketListResponse, error)
	Respond(ctx context.Context, ticketID string, responder *models.User, req models.RespondTicketRequest) (*models.Ticket, error)
	SetStatus(ctx context.Context, ticketID string, requester *models.User, status string) (*models.Ticket, error)
}

type ticketService struct {
	ticketRepo repository.TicketRepository
}

func NewTicketService(ticketRepo repository.TicketRepository) TicketService {
	return &ticketService{ticketRepo: ticketRepo}
}

func (s *ticketService) Create(ctx context.Context, userID string, req models.CreateTicketRequest) (*models.Ticket, error) {
	if len(req.Subject) < 3 {
		return nil, models.NewValidationError("subject must be at least 3 characters")
	}
	if req.Message == "" {
		return nil, models.NewValidationError("message is required")
	}

	now := time.Now()
	ticket := &models.Ticket{
		ID:        uuid.New().String(),
		UserID:    userID,
		Subject:   req.Subject,
		Message:   req.Message,
		Category:  req.Category,
		Status:    models.TicketStatusOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.ticketRepo.Create(ctx, ticket); err != nil {
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}

	return ticket, nil
}

// GetByID returns a ticket. Learners only see their own tickets.
func (s *ticketService) GetByID(ctx context.Context, ticketID string, requester *models.User) (*models.Ticket, error) {
	ticket, err := s.ticketRepo.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	if ticket.UserID != requester.ID && !requester.CanHandleTickets() {
		return nil, models.ErrTicketNotFound
	}

	return ticket, nil
}

// List returns the requester's own tickets, or all tickets for support staff
func (s *ticketService) List(ctx context.Context, requester *models.User, limit, offset int) (*TicketListResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var (
		tickets []models.Ticket
		total   int
		err     error
	)
	if requester.CanHandleTickets() {
		tickets, total, err = s.ticketRepo.ListAll(ctx, limit, offset)
	} else {
		tickets, total, err = s.ticketRepo.ListByUser(ctx, requester.ID, limit, offset)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}

	return &TicketListResponse{
		Data:           tickets,
		PaginationMeta: models.NewPaginationMeta(total, limit, offset),
	}, nil
}

// Respond attaches a support answer and moves the ticket to resolved
func (s *ticketService) Respond(ctx context.Context, ticketID string, responder *models.User, req models.RespondTicketRequest) (*models.Ticket, error) {
	if req.Response == "" {
		return nil, models.NewValidationError("response is required")
	}

	ticket, err := s.ticketRepo.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status == models.TicketStatusClosed {
		return nil, models.NewValidationError("cannot respond to a closed ticket")
	}

	ticket.Response = &req.Response
	ticket.RespondedBy = &responder.ID
	ticket.Status = models.TicketStatusResolved
	ticket.UpdatedAt = time.Now()

	if err := s.ticketRepo.Update(ctx, ticket); err != nil {
		return nil, fmt.Errorf("failed to update ticket: %w", err)
	}

	return ticket, nil
}

// SetStatus moves a ticket between states. Ticket owners may only close
// their own tickets; any transition is open to support staff.
func (s *ticketService) SetStatus(ctx context.Context, ticketID string, requester *models.User, status string) (*models.Ticket, error) {
	if !models.IsValidTicketStatus(status) {
		return nil, models.NewValidationError(fmt.Sprintf("invalid status: %s", status))
	}

	ticket, err := s.ticketRepo.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	if !requester.CanHandleTickets() {
		if ticket.UserID != requester.ID {
			return nil, models.ErrTicketNotFound
		}
		if models.TicketStatus(status) != models.TicketStatusClosed {
			return nil, models.NewForbiddenError("only support staff can change ticket status")
		}
	}

	ticket.Status = models.TicketStatus(status)
	ticket.UpdatedAt = time.Now()

	if err := s.ticketRepo.Update(ctx, ticket); err != nil {
		return nil, fmt.Errorf("failed to update ticket: %w", err)
	}

	return ticket, nil
}
