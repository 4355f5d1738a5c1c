package core

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lessonhub/pkg/models"
)

type fakeTicketRepo struct {
	tickets map[string]*models.Ticket
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: make(map[string]*models.Ticket)}
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *models.Ticket) error {
	copied := *ticket
	r.tickets[ticket.ID] = &copied
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*models.Ticket, error) {
	tk, ok := r.tickets[id]
	if !ok {
		return nil, models.NewNotFoundError("ticket not found", nil)
	}
	copied := *tk
	return &copied, nil
}

func (r *fakeTicketRepo) listFiltered(userID string) []models.Ticket {
	var out []models.Ticket
	for _, tk := range r.tickets {
		if userID == "" || tk.UserID == userID {
			out = append(out, *tk)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *fakeTicketRepo) ListByUser(_ context.Context, userID string, limit, offset int) ([]models.Ticket, int, error) {
	all := r.listFiltered(userID)
	return all, len(all), nil
}

func (r *fakeTicketRepo) ListAll(_ context.Context, limit, offset int) ([]models.Ticket, int, error) {
	all := r.listFiltered("")
	return all, len(all), nil
}

func (r *fakeTicketRepo) Update(_ context.Context, ticket *models.Ticket) error {
	if _, ok := r.tickets[ticket.ID]; !ok {
		return models.NewNotFoundError("ticket not found", nil)
	}
	copied := *ticket
	r.tickets[ticket.ID] = &copied
	return nil
}

func supportAgent() *models.User {
	return &models.User{ID: "sup1", Role: models.UserRoleSupport, Active: true}
}

func TestCreateTicket(t *testing.T) {
	svc := NewTicketService(newFakeTicketRepo())

	ticket, err := svc.Create(context.Background(), "u1", models.CreateTicketRequest{
		Subject:  "Video will not load",
		Message:  "Lesson 3 shows a spinner forever",
		Category: "technical",
	})
	require.NoError(t, err)

	assert.Equal(t, models.TicketStatusOpen, ticket.Status)
	assert.Equal(t, "u1", ticket.UserID)
	assert.NotEmpty(t, ticket.ID)
}

func TestCreateTicketValidation(t *testing.T) {
	svc := NewTicketService(newFakeTicketRepo())
	ctx := context.Background()

	_, err := svc.Create(ctx, "u1", models.CreateTicketRequest{Subject: "ab", Message: "msg"})
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeValidation, models.ErrorCode(err))

	_, err = svc.Create(ctx, "u1", models.CreateTicketRequest{Subject: "subject", Message: ""})
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeValidation, models.ErrorCode(err))
}

func TestGetTicketOwnership(t *testing.T) {
	svc := NewTicketService(newFakeTicketRepo())
	ctx := context.Background()

	ticket, err := svc.Create(ctx, "u1", models.CreateTicketRequest{Subject: "subject", Message: "msg"})
	require.NoError(t, err)

	owner := &models.User{ID: "u1", Role: models.UserRoleLearner}
	_, err = svc.GetByID(ctx, ticket.ID, owner)
	require.NoError(t, err)

	stranger := &models.User{ID: "u2", Role: models.UserRoleLearner}
	_, err = svc.GetByID(ctx, ticket.ID, stranger)
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeNotFound, models.ErrorCode(err))

	_, err = svc.GetByID(ctx, ticket.ID, supportAgent())
	require.NoError(t, err)
}

func TestListTicketsScoping(t *testing.T) {
	repo := newFakeTicketRepo()
	svc := NewTicketService(repo)
	ctx := context.Background()

	_, err := svc.Create(ctx, "u1", models.CreateTicketRequest{Subject: "first issue", Message: "msg"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "u2", models.CreateTicketRequest{Subject: "second issue", Message: "msg"})
	require.NoError(t, err)

	mine, err := svc.List(ctx, &models.User{ID: "u1", Role: models.UserRoleLearner}, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, mine.Total)

	all, err := svc.List(ctx, supportAgent(), 20, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, all.Total)
}

func TestRespondResolvesTicket(t *testing.T) {
	svc := NewTicketService(newFakeTicketRepo())
	ctx := context.Background()

	ticket, err := svc.Create(ctx, "u1", models.CreateTicketRequest{Subject: "subject", Message: "msg"})
	require.NoError(t, err)

	resolved, err := svc.Respond(ctx, ticket.ID, supportAgent(), models.RespondTicketRequest{Response: "cleared the cache"})
	require.NoError(t, err)

	assert.Equal(t, models.TicketStatusResolved, resolved.Status)
	require.NotNil(t, resolved.Response)
	assert.Equal(t, "cleared the cache", *resolved.Response)
	require.NotNil(t, resolved.RespondedBy)
	assert.Equal(t, "sup1", *resolved.RespondedBy)
}

func TestRespondClosedTicketRejected(t *testing.T) {
	svc := NewTicketService(newFakeTicketRepo())
	ctx := context.Background()

	ticket, err := svc.Create(ctx, "u1", models.CreateTicketRequest{Subject: "subject", Message: "msg"})
	require.NoError(t, err)

	_, err = svc.SetStatus(ctx, ticket.ID, supportAgent(), "closed")
	require.NoError(t, err)

	_, err = svc.Respond(ctx, ticket.ID, supportAgent(), models.RespondTicketRequest{Response: "too late"})
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeValidation, models.ErrorCode(err))
}

func TestSetStatusOwnerRules(t *testing.T) {
	svc := NewTicketService(newFakeTicketRepo())
	ctx := context.Background()

	ticket, err := svc.Create(ctx, "u1", models.CreateTicketRequest{Subject: "subject", Message: "msg"})
	require.NoError(t, err)

	owner := &models.User{ID: "u1", Role: models.UserRoleLearner}

	// owners can close their own tickets but not move them otherwise
	_, err = svc.SetStatus(ctx, ticket.ID, owner, "in_progress")
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeForbidden, models.ErrorCode(err))

	closed, err := svc.SetStatus(ctx, ticket.ID, owner, "closed")
	require.NoError(t, err)
	assert.Equal(t, models.TicketStatusClosed, closed.Status)

	// strangers see nothing at all
	stranger := &models.User{ID: "u9", Role: models.UserRoleLearner}
	_, err = svc.SetStatus(ctx, ticket.ID, stranger, "closed")
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeNotFound, models.ErrorCode(err))
}

func TestSetStatusInvalidValue(t *testing.T) {
	svc := NewTicketService(newFakeTicketRepo())
	ctx := context.Background()

	ticket, err := svc.Create(ctx, "u1", models.CreateTicketRequest{Subject: "subject", Message: "msg"})
	require.NoError(t, err)

	_, err = svc.SetStatus(ctx, ticket.ID, supportAgent(), "reopened")
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeValidation, models.ErrorCode(err))
}
