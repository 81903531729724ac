package handler

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/quotation-api/internal/application/service"
	"github.com/sangkips/quotation-api/internal/domain/entity"
	"github.com/sangkips/quotation-api/internal/domain/enum"
	"github.com/sangkips/quotation-api/internal/presentation/http/dto/request"
	"github.com/sangkips/quotation-api/internal/presentation/http/dto/response"
	"github.com/sangkips/quotation-api/pkg/apperror"
	"github.com/sangkips/quotation-api/pkg/report"
)

// QuotationHandler handles quotation-related HTTP requests
type QuotationHandler struct {
	quotationService *service.QuotationService
	renderTimeout    time.Duration
	now              func() time.Time
}

// NewQuotationHandler creates a new quotation handler. A zero renderTimeout
// leaves document requests bound only by the client connection.
func NewQuotationHandler(quotationService *service.QuotationService, renderTimeout time.Duration) *QuotationHandler {
	return &QuotationHandler{quotationService: quotationService, renderTimeout: renderTimeout, now: time.Now}
}

func quotationInput(req *request.QuotationRequest) (*service.QuotationInput, []apperror.FieldError) {
	issueDate, err := parseDate(req.IssueDate)
	if err != nil {
		return nil, []apperror.FieldError{{Field: "issue_date", Message: "Must be a date in YYYY-MM-DD format"}}
	}

	input := &service.QuotationInput{
		ClientID:     req.ClientID,
		IssueDate:    issueDate,
		IntroText:    req.IntroText,
		ClosingText:  req.ClosingText,
		Validity:     req.Validity,
		Delivery:     req.Delivery,
		PaymentTerms: req.PaymentTerms,
		Warranty:     req.Warranty,
		Shipping:     req.Shipping,
		Items:        make([]service.QuotationItemInput, 0, len(req.Items)),
	}
	for _, it := range req.Items {
		input.Items = append(input.Items, service.QuotationItemInput{
			ProductID:   it.ProductID,
			Name:        it.Name,
			Description: it.Description,
			PackSize:    it.PackSize,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
		})
	}
	return input, nil
}

func listInput(req *request.QuotationFilterRequest) (*service.ListQuotationsInput, []apperror.FieldError) {
	var fields []apperror.FieldError
	input := &service.ListQuotationsInput{
		Pagination: paginationParams(req.Page, req.PerPage),
		Search:     req.Search,
		SortBy:     req.SortBy,
		SortOrder:  req.SortOrder,
	}
	if req.Status != "" {
		status, err := enum.ParseQuotationStatus(req.Status)
		if err != nil {
			fields = append(fields, apperror.FieldError{Field: "status", Message: "Unknown status"})
		} else {
			input.Status = &status
		}
	}
	var err error
	if input.ClientID, err = optionalUUID(req.ClientID); err != nil {
		fields = append(fields, apperror.FieldError{Field: "client_id", Message: "Must be a UUID"})
	}
	if input.SalespersonID, err = optionalUUID(req.SalespersonID); err != nil {
		fields = append(fields, apperror.FieldError{Field: "salesperson_id", Message: "Must be a UUID"})
	}
	if input.From, err = parseDate(req.From); err != nil {
		fields = append(fields, apperror.FieldError{Field: "from", Message: "Must be a date in YYYY-MM-DD format"})
	}
	if input.To, err = parseDate(req.To); err != nil {
		fields = append(fields, apperror.FieldError{Field: "to", Message: "Must be a date in YYYY-MM-DD format"})
	}
	return input, fields
}

// List handles listing quotations
// @Summary List Quotations
// @Description Salespeople see their own quotations, managers and admins see all
// @Tags quotations
// @Security BearerAuth
// @Produce json
// @Param page query int false "Page number"
// @Param per_page query int false "Items per page"
// @Param search query string false "Number, client or company"
// @Param status query string false "Draft, Sent, Approved or Rejected"
// @Param from query string false "Issued on or after (YYYY-MM-DD)"
// @Param to query string false "Issued on or before (YYYY-MM-DD)"
// @Success 200 {object} response.APIResponse
// @Router /quotations [get]
func (h *QuotationHandler) List(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req request.QuotationFilterRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}
	input, fields := listInput(&req)
	if len(fields) > 0 {
		response.ValidationError(c, fields)
		return
	}

	result, err := h.quotationService.ListQuotations(c.Request.Context(), actor, input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, "Quotations retrieved", result)
}

// Create handles creating a draft quotation
// @Summary Create Quotation
// @Tags quotations
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param Idempotency-Key header string false "Replays the first response on retry"
// @Param request body request.QuotationRequest true "Quotation"
// @Success 201 {object} response.APIResponse
// @Failure 422 {object} response.APIResponse
// @Router /quotations [post]
func (h *QuotationHandler) Create(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req request.QuotationRequest
	if !bindJSON(c, &req) {
		return
	}
	input, fields := quotationInput(&req)
	if len(fields) > 0 {
		response.ValidationError(c, fields)
		return
	}

	quotation, err := h.quotationService.CreateQuotation(c.Request.Context(), actor, input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Quotation created", quotation)
}

// Get handles retrieving a quotation
// @Summary Get Quotation
// @Tags quotations
// @Security BearerAuth
// @Produce json
// @Param id path string true "Quotation ID"
// @Success 200 {object} response.APIResponse
// @Router /quotations/{id} [get]
func (h *QuotationHandler) Get(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	quotation, err := h.quotationService.GetQuotation(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Quotation retrieved", quotation)
}

// Update handles editing a draft
// @Summary Update Quotation
// @Tags quotations
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Quotation ID"
// @Param request body request.QuotationRequest true "Quotation"
// @Success 200 {object} response.APIResponse
// @Failure 409 {object} response.APIResponse
// @Router /quotations/{id} [put]
func (h *QuotationHandler) Update(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req request.QuotationRequest
	if !bindJSON(c, &req) {
		return
	}
	input, fields := quotationInput(&req)
	if len(fields) > 0 {
		response.ValidationError(c, fields)
		return
	}

	quotation, err := h.quotationService.UpdateQuotation(c.Request.Context(), actor, id, input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Quotation updated", quotation)
}

// Delete handles deleting a draft
// @Summary Delete Quotation
// @Tags quotations
// @Security BearerAuth
// @Param id path string true "Quotation ID"
// @Success 204
// @Router /quotations/{id} [delete]
func (h *QuotationHandler) Delete(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.quotationService.DeleteQuotation(c.Request.Context(), actor, id); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// Submit sends a draft for review
// @Summary Submit Quotation
// @Tags quotations
// @Security BearerAuth
// @Produce json
// @Param id path string true "Quotation ID"
// @Success 200 {object} response.APIResponse
// @Router /quotations/{id}/submit [post]
func (h *QuotationHandler) Submit(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	quotation, err := h.quotationService.SubmitQuotation(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Quotation submitted", quotation)
}

// Approve approves a sent quotation
// @Summary Approve Quotation
// @Tags quotations
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Quotation ID"
// @Param request body request.ReviewRequest false "Note"
// @Success 200 {object} response.APIResponse
// @Router /quotations/{id}/approve [post]
func (h *QuotationHandler) Approve(c *gin.Context) {
	h.review(c, "Quotation approved", h.quotationService.ApproveQuotation)
}

// Reject rejects a sent quotation
// @Summary Reject Quotation
// @Tags quotations
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Quotation ID"
// @Param request body request.ReviewRequest true "Reason"
// @Success 200 {object} response.APIResponse
// @Router /quotations/{id}/reject [post]
func (h *QuotationHandler) Reject(c *gin.Context) {
	h.review(c, "Quotation rejected", h.quotationService.RejectQuotation)
}

type reviewFunc func(ctx context.Context, actor service.Actor, id uuid.UUID, note string) (*entity.Quotation, error)

func (h *QuotationHandler) review(c *gin.Context, message string, fn reviewFunc) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req request.ReviewRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}

	quotation, err := fn(c.Request.Context(), actor, id, req.Note)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, message, quotation)
}

// PDF renders the quotation document on the letterhead
// @Summary Quotation PDF
// @Tags quotations
// @Security BearerAuth
// @Produce application/pdf
// @Param id path string true "Quotation ID"
// @Param download query bool false "Send as attachment"
// @Success 200 {file} binary
// @Failure 503 {object} response.APIResponse
// @Router /quotations/{id}/pdf [get]
func (h *QuotationHandler) PDF(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := h.renderContext(c)
	defer cancel()

	doc, filename, err := h.quotationService.RenderPDF(ctx, actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("X-Page-Count", fmt.Sprintf("%d", doc.PageCount))
	response.PDF(c, filename, doc.Bytes, c.Query("download") == "")
}

// Email sends an approved quotation to the client
// @Summary Email Quotation
// @Tags quotations
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Quotation ID"
// @Param request body request.EmailRequest false "Note"
// @Success 200 {object} response.APIResponse
// @Failure 502 {object} response.APIResponse
// @Router /quotations/{id}/email [post]
func (h *QuotationHandler) Email(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req request.EmailRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}

	ctx, cancel := h.renderContext(c)
	defer cancel()

	if err := h.quotationService.EmailQuotation(ctx, actor, id, req.Note); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Quotation emailed", nil)
}

// Export downloads the filtered register as a spreadsheet
// @Summary Export Quotations
// @Tags quotations
// @Security BearerAuth
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param status query string false "Status filter"
// @Param from query string false "Issued on or after (YYYY-MM-DD)"
// @Param to query string false "Issued on or before (YYYY-MM-DD)"
// @Success 200 {file} binary
// @Router /quotations/export [get]
func (h *QuotationHandler) Export(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req request.QuotationFilterRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}
	input, fields := listInput(&req)
	if len(fields) > 0 {
		response.ValidationError(c, fields)
		return
	}

	var buf bytes.Buffer
	if err := h.quotationService.ExportRegister(c.Request.Context(), actor, input, &buf); err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("quotations-%s.xlsx", h.now().Format("20060102"))
	response.File(c, filename, report.ContentType, buf.Bytes(), false)
}

func (h *QuotationHandler) renderContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if h.renderTimeout <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), h.renderTimeout)
}
