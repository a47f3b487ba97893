package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/soportesys/helpdesk/internal/api/dto"
	"github.com/soportesys/helpdesk/internal/auth"
	"github.com/soportesys/helpdesk/internal/domain"
	"github.com/soportesys/helpdesk/internal/service"
	apperrors "github.com/soportesys/helpdesk/pkg/util"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	tickets  *service.TicketService
	comments *service.CommentService
	catalogs *service.CatalogService
}

// NewTicketsHandler constructs the handler.
func NewTicketsHandler(tickets *service.TicketService, comments *service.CommentService, catalogs *service.CatalogService) *TicketsHandler {
	return &TicketsHandler{tickets: tickets, comments: comments, catalogs: catalogs}
}

// Create POST /tickets.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthenticated("authentication required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if len(strings.TrimSpace(req.Title)) < 5 {
		return apperrors.NewValidationError("title must be at least 5 characters", nil)
	}
	if len(strings.TrimSpace(req.Description)) < 10 {
		return apperrors.NewValidationError("description must be at least 10 characters", nil)
	}
	if req.CategoryID == "" || req.TypeID == "" {
		return apperrors.NewValidationError("category_id and type_id required", nil)
	}

	ticket, err := h.tickets.Create(c.UserContext(), principal, service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		TypeID:      req.TypeID,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketDetail(ticket, nil)})
}

// List GET /tickets.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthenticated("authentication required")
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 50)
	tickets, err := h.tickets.List(c.UserContext(), principal, pageSize, (page-1)*pageSize)
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketSummary(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthenticated("authentication required")
	}
	ticket, err := h.tickets.Get(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	comments, err := h.comments.ListForTicket(c.UserContext(), ticket.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket, comments)})
}

// Update PATCH /tickets/:id.
func (h *TicketsHandler) Update(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthenticated("authentication required")
	}
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.tickets.Update(c.UserContext(), principal, c.Params("id"), service.TicketPatch{
		Title:             req.Title,
		Description:       req.Description,
		StatusID:          req.StatusID,
		PriorityID:        req.PriorityID,
		CategoryID:        req.CategoryID,
		TypeID:            req.TypeID,
		AssignedToID:      req.AssignedToID,
		ClosedAt:          req.ClosedAt,
		ResolutionMessage: req.ResolutionMessage,
	})
	if err != nil {
		return err
	}
	comments, err := h.comments.ListForTicket(c.UserContext(), ticket.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket, comments)})
}

// AddComment POST /tickets/:id/comments.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthenticated("authentication required")
	}
	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Content) == "" {
		return apperrors.NewValidationError("content required", nil)
	}
	comment, err := h.comments.Add(c.UserContext(), principal, c.Params("id"), req.Content)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": commentResponse(comment)})
}

// Delete DELETE /tickets/:id.
func (h *TicketsHandler) Delete(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthenticated("authentication required")
	}
	if err := h.tickets.Delete(c.UserContext(), principal, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ListStatuses GET /tickets/lookup/statuses.
func (h *TicketsHandler) ListStatuses(c *fiber.Ctx) error {
	return h.listCatalog(c, domain.CatalogStatus)
}

// ListPriorities GET /tickets/lookup/priorities.
func (h *TicketsHandler) ListPriorities(c *fiber.Ctx) error {
	return h.listCatalog(c, domain.CatalogPriority)
}

// ListCategories GET /tickets/lookup/categories.
func (h *TicketsHandler) ListCategories(c *fiber.Ctx) error {
	return h.listCatalog(c, domain.CatalogCategory)
}

// ListTicketTypes GET /tickets/lookup/ticket-types.
func (h *TicketsHandler) ListTicketTypes(c *fiber.Ctx) error {
	types, err := h.catalogs.ListTicketTypes(c.UserContext())
	if err != nil {
		return apperrors.MapError(err)
	}
	items := make([]dto.TicketTypeResponse, 0, len(types))
	for _, tt := range types {
		items = append(items, dto.TicketTypeResponse{
			ID:          tt.ID,
			Name:        tt.Name,
			Description: tt.Description,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

func (h *TicketsHandler) listCatalog(c *fiber.Ctx, kind domain.CatalogKind) error {
	entries, err := h.catalogs.ListEntries(c.UserContext(), kind)
	if err != nil {
		return apperrors.MapError(err)
	}
	items := make([]dto.CatalogEntryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.CatalogEntryResponse{ID: entry.ID, Name: entry.Name})
	}
	return c.JSON(fiber.Map{"data": items})
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func ticketSummary(ticket *domain.Ticket) dto.TicketSummary {
	return dto.TicketSummary{
		ID:           ticket.ID,
		Title:        ticket.Title,
		CreatorID:    ticket.CreatorID,
		AssignedToID: ticket.AssignedToID,
		StatusID:     ticket.StatusID,
		PriorityID:   ticket.PriorityID,
		CategoryID:   ticket.CategoryID,
		TypeID:       ticket.TypeID,
		Version:      ticket.Version,
		CreatedAt:    ticket.CreatedAt,
		UpdatedAt:    ticket.UpdatedAt,
	}
}

func ticketDetail(ticket *domain.Ticket, comments []domain.Comment) dto.TicketDetailResponse {
	items := make([]dto.CommentResponse, 0, len(comments))
	for i := range comments {
		items = append(items, commentResponse(&comments[i]))
	}
	return dto.TicketDetailResponse{
		TicketSummary:     ticketSummary(ticket),
		Description:       ticket.Description,
		ClosedAt:          ticket.ClosedAt,
		ResolutionMessage: ticket.ResolutionMessage,
		Comments:          items,
	}
}

func commentResponse(comment *domain.Comment) dto.CommentResponse {
	return dto.CommentResponse{
		ID:        comment.ID,
		UserID:    comment.UserID,
		Content:   comment.Content,
		CreatedAt: comment.CreatedAt,
	}
}
