package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/issue-tracker/internal/api/dto"
	"github.com/spec-kit/issue-tracker/internal/service"
)

// IssuesHandler manages issue endpoints.
type IssuesHandler struct {
	service *service.IssueService
}

// NewIssuesHandler constructs handler.
func NewIssuesHandler(issueService *service.IssueService) *IssuesHandler {
	return &IssuesHandler{service: issueService}
}

// Create handles POST /issues.
func (h *IssuesHandler) Create(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	var req dto.CreateIssueRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	input, err := req.Input()
	if err != nil {
		return err
	}
	issue, err := h.service.Create(c.UserContext(), a, input)
	if err != nil {
		return err
	}
	return data(c, http.StatusCreated, dto.NewIssueResponse(issue))
}

// List handles GET /issues.
func (h *IssuesHandler) List(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	list, err := h.service.List(c.UserContext(), a, service.IssueListQuery{
		Filter:    filterQuery(c),
		Page:      pageQuery(c),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	})
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, dto.NewIssueListResponse(list))
}

// Export handles GET /issues/export. CSV is sent as a raw attachment.
func (h *IssuesHandler) Export(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	out, err := h.service.Export(c.UserContext(), a, service.IssueExportQuery{
		Filter:   filterQuery(c),
		FromDate: c.Query("from_date"),
		ToDate:   c.Query("to_date"),
		Format:   service.ParseExportFormat(c.Query("format")),
	})
	if err != nil {
		return err
	}
	if out.Format == service.ExportCSV {
		c.Set(fiber.HeaderContentType, "text/csv")
		c.Set(fiber.HeaderContentDisposition, "attachment; filename=issues.csv")
		return c.Status(http.StatusOK).Send(out.CSV)
	}
	return data(c, http.StatusOK, dto.NewIssueResponses(out.Issues))
}

// Get handles GET /issues/:id.
func (h *IssuesHandler) Get(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	issue, err := h.service.Get(c.UserContext(), a, c.Params("id"))
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, dto.NewIssueResponse(issue))
}

// Update handles PUT /issues/:id.
func (h *IssuesHandler) Update(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	var req dto.UpdateIssueRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	patch, err := req.Patch()
	if err != nil {
		return err
	}
	issue, err := h.service.Update(c.UserContext(), a, c.Params("id"), patch)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, dto.NewIssueResponse(issue))
}

// ChangeStatus handles PATCH /issues/:id/status.
func (h *IssuesHandler) ChangeStatus(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	var req dto.ChangeStatusRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	issue, err := h.service.ChangeStatus(c.UserContext(), a, c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, dto.NewIssueResponse(issue))
}

// Delete handles DELETE /issues/:id.
func (h *IssuesHandler) Delete(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), a, c.Params("id")); err != nil {
		return err
	}
	return data(c, http.StatusOK, dto.MessageResponse{Message: "Issue deleted successfully"})
}

func filterQuery(c *fiber.Ctx) service.IssueFilterInput {
	return service.IssueFilterInput{
		Search:     c.Query("search"),
		Status:     c.Query("status"),
		Priority:   c.Query("priority"),
		Severity:   c.Query("severity"),
		AssignedTo: c.Query("assigned_to"),
		CreatedBy:  c.Query("created_by"),
	}
}
