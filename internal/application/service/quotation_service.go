package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/quotation-api/internal/domain/entity"
	"github.com/sangkips/quotation-api/internal/domain/enum"
	"github.com/sangkips/quotation-api/internal/domain/repository"
	"github.com/sangkips/quotation-api/pkg/apperror"
	"github.com/sangkips/quotation-api/pkg/email"
	"github.com/sangkips/quotation-api/pkg/pagination"
	"github.com/sangkips/quotation-api/pkg/pricing"
	"github.com/sangkips/quotation-api/pkg/quotedoc"
	"github.com/sangkips/quotation-api/pkg/report"
	"github.com/shopspring/decimal"
)

// DocumentRenderer turns a quotation into a finished PDF.
type DocumentRenderer interface {
	Render(ctx context.Context, req *quotedoc.Request) (*quotedoc.RenderedDocument, error)
}

// QuotationMailer delivers a rendered quotation to the client.
type QuotationMailer interface {
	SendQuotation(msg *email.QuotationMessage) error
}

// QuotationService handles the quotation lifecycle from draft to approval
// and produces its documents.
type QuotationService struct {
	quotationRepo repository.QuotationRepository
	counterRepo   repository.CounterRepository
	clientRepo    repository.ClientRepository
	productRepo   repository.ProductRepository
	userRepo      repository.UserRepository
	renderer      DocumentRenderer
	mailer        QuotationMailer
	calc          *pricing.Calculator
	currency      string
	exportMaxRows int
	now           func() time.Time
}

// QuotationServiceConfig holds the tunables of QuotationService
type QuotationServiceConfig struct {
	DefaultCurrency string
	ExportMaxRows   int
}

// NewQuotationService creates a new quotation service
func NewQuotationService(
	quotationRepo repository.QuotationRepository,
	counterRepo repository.CounterRepository,
	clientRepo repository.ClientRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	renderer DocumentRenderer,
	mailer QuotationMailer,
	calc *pricing.Calculator,
	cfg QuotationServiceConfig,
) *QuotationService {
	if cfg.ExportMaxRows <= 0 {
		cfg.ExportMaxRows = 5000
	}
	return &QuotationService{
		quotationRepo: quotationRepo,
		counterRepo:   counterRepo,
		clientRepo:    clientRepo,
		productRepo:   productRepo,
		userRepo:      userRepo,
		renderer:      renderer,
		mailer:        mailer,
		calc:          calc,
		currency:      cfg.DefaultCurrency,
		exportMaxRows: cfg.ExportMaxRows,
		now:           time.Now,
	}
}

// QuotationInput represents the input for creating or updating a draft
type QuotationInput struct {
	ClientID     uuid.UUID
	IssueDate    *time.Time
	IntroText    string
	ClosingText  string
	Validity     string
	Delivery     string
	PaymentTerms string
	Warranty     string
	Shipping     string
	Items        []QuotationItemInput
}

// QuotationItemInput represents a line item input. With a ProductID the
// product's name, description, pack size and price are copied unless
// overridden here.
type QuotationItemInput struct {
	ProductID   *uuid.UUID
	Name        string
	Description string
	PackSize    string
	Quantity    int64
	UnitPrice   *decimal.Decimal
}

// CreateQuotation saves a new draft and assigns its number
func (s *QuotationService) CreateQuotation(ctx context.Context, actor Actor, input *QuotationInput) (*entity.Quotation, error) {
	if err := validateQuotationInput(input); err != nil {
		return nil, err
	}
	client, err := s.loadClient(ctx, actor, input.ClientID)
	if err != nil {
		return nil, err
	}
	items, err := s.buildItems(ctx, actor, input.Items)
	if err != nil {
		return nil, err
	}

	salesperson, err := s.userRepo.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if salesperson == nil {
		return nil, apperror.ErrUnauthorized
	}

	issueDate := s.issueDate(input.IssueDate)
	seq, err := s.counterRepo.Next(ctx, issueDate.Year())
	if err != nil {
		return nil, fmt.Errorf("allocate quotation number: %w", err)
	}

	quotation := &entity.Quotation{
		Number:        entity.QuotationNumber(issueDate.Year(), seq),
		Year:          issueDate.Year(),
		Sequence:      seq,
		ClientID:      client.ID,
		SalespersonID: actor.UserID,
		Status:        enum.QuotationStatusDraft,
		Currency:      entity.CurrencyForCountry(salesperson.Country, s.currency),
	}
	s.apply(quotation, input, issueDate, items)

	if err := s.quotationRepo.Create(ctx, quotation); err != nil {
		return nil, err
	}
	log.Printf("Quotation %s created by %s", quotation.Number, actor.Username)

	return s.quotationRepo.GetWithItems(ctx, quotation.ID)
}

// UpdateQuotation replaces the content of a draft. The number is kept.
func (s *QuotationService) UpdateQuotation(ctx context.Context, actor Actor, id uuid.UUID, input *QuotationInput) (*entity.Quotation, error) {
	if err := validateQuotationInput(input); err != nil {
		return nil, err
	}
	quotation, err := s.loadEditable(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	client, err := s.loadClient(ctx, actor, input.ClientID)
	if err != nil {
		return nil, err
	}
	items, err := s.buildItems(ctx, actor, input.Items)
	if err != nil {
		return nil, err
	}

	issueDate := quotation.IssueDate
	if input.IssueDate != nil {
		issueDate = s.issueDate(input.IssueDate)
	}
	quotation.ClientID = client.ID
	quotation.Client = nil
	quotation.Salesperson = nil
	s.apply(quotation, input, issueDate, items)

	ok, err := s.quotationRepo.Update(ctx, quotation)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.ErrInvalidTransition
	}
	return s.quotationRepo.GetWithItems(ctx, quotation.ID)
}

// DeleteQuotation deletes a draft
func (s *QuotationService) DeleteQuotation(ctx context.Context, actor Actor, id uuid.UUID) error {
	if _, err := s.loadEditable(ctx, actor, id); err != nil {
		return err
	}
	return s.quotationRepo.Delete(ctx, id)
}

// GetQuotation returns a quotation with its items
func (s *QuotationService) GetQuotation(ctx context.Context, actor Actor, id uuid.UUID) (*entity.Quotation, error) {
	quotation, err := s.quotationRepo.GetWithItems(ctx, id)
	if err != nil {
		return nil, err
	}
	if quotation == nil || !actor.canAccess(quotation.SalespersonID) {
		return nil, apperror.NewNotFoundError("Quotation")
	}
	return quotation, nil
}

// ListQuotationsInput represents the filters for listing quotations
type ListQuotationsInput struct {
	Pagination    *pagination.PaginationParams
	Search        string
	Status        *enum.QuotationStatus
	ClientID      *uuid.UUID
	SalespersonID *uuid.UUID
	From          *time.Time
	To            *time.Time
	SortBy        string
	SortOrder     string
}

// ListQuotations returns a page of quotations visible to the actor
func (s *QuotationService) ListQuotations(ctx context.Context, actor Actor, input *ListQuotationsInput) (*pagination.PaginatedResult[entity.Quotation], error) {
	params := input.Pagination
	if params == nil {
		params = pagination.DefaultPagination()
	}
	params.Validate()

	quotations, total, err := s.quotationRepo.List(ctx, s.filter(actor, input, params))
	if err != nil {
		return nil, err
	}
	return pagination.NewPaginatedResult(quotations, pagination.NewPagination(params.Page, params.PerPage, total)), nil
}

// SubmitQuotation sends a draft for review. Only its owner may submit it.
func (s *QuotationService) SubmitQuotation(ctx context.Context, actor Actor, id uuid.UUID) (*entity.Quotation, error) {
	quotation, err := s.GetQuotation(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if quotation.SalespersonID != actor.UserID {
		return nil, apperror.NewForbiddenError("Only the owner can submit a quotation")
	}
	if len(quotation.Items) == 0 {
		return nil, apperror.NewValidationError([]apperror.FieldError{{Field: "items", Message: "At least one item is required"}})
	}

	now := s.now()
	return s.transition(ctx, quotation, enum.QuotationStatusSent, repository.StatusChange{
		Status: enum.QuotationStatusSent,
		SentAt: &now,
	})
}

// ApproveQuotation approves a sent quotation
func (s *QuotationService) ApproveQuotation(ctx context.Context, actor Actor, id uuid.UUID, note string) (*entity.Quotation, error) {
	return s.review(ctx, actor, id, enum.QuotationStatusApproved, note)
}

// RejectQuotation rejects a sent quotation. A note is required.
func (s *QuotationService) RejectQuotation(ctx context.Context, actor Actor, id uuid.UUID, note string) (*entity.Quotation, error) {
	if strings.TrimSpace(note) == "" {
		return nil, apperror.NewValidationError([]apperror.FieldError{{Field: "note", Message: "A reason is required to reject a quotation"}})
	}
	return s.review(ctx, actor, id, enum.QuotationStatusRejected, note)
}

func (s *QuotationService) review(ctx context.Context, actor Actor, id uuid.UUID, next enum.QuotationStatus, note string) (*entity.Quotation, error) {
	if !actor.Role.CanApprove() {
		return nil, apperror.ErrForbidden
	}
	quotation, err := s.GetQuotation(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	change := repository.StatusChange{
		Status:       next,
		ReviewedByID: &actor.UserID,
		ReviewedAt:   &now,
	}
	if n := strings.TrimSpace(note); n != "" {
		change.ReviewNote = &n
	}
	return s.transition(ctx, quotation, next, change)
}

func (s *QuotationService) transition(ctx context.Context, quotation *entity.Quotation, next enum.QuotationStatus, change repository.StatusChange) (*entity.Quotation, error) {
	if !quotation.Status.CanTransitionTo(next) {
		return nil, apperror.ErrInvalidTransition
	}
	ok, err := s.quotationRepo.UpdateStatus(ctx, quotation.ID, quotation.Status, change)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Someone else moved it first.
		return nil, apperror.ErrInvalidTransition
	}
	log.Printf("Quotation %s moved from %s to %s", quotation.Number, quotation.Status, next)
	return s.quotationRepo.GetWithItems(ctx, quotation.ID)
}

// RenderPDF renders the quotation document
func (s *QuotationService) RenderPDF(ctx context.Context, actor Actor, id uuid.UUID) (*quotedoc.RenderedDocument, string, error) {
	quotation, err := s.GetQuotation(ctx, actor, id)
	if err != nil {
		return nil, "", err
	}
	req := DocumentRequest(quotation)

	doc, err := s.renderer.Render(ctx, req)
	if err != nil {
		log.Printf("Failed to render quotation %s: %v", quotation.Number, err)
		return nil, "", documentError(err)
	}
	return doc, req.Filename(), nil
}

// EmailQuotation renders an approved quotation and mails it to the client
func (s *QuotationService) EmailQuotation(ctx context.Context, actor Actor, id uuid.UUID, note string) error {
	quotation, err := s.GetQuotation(ctx, actor, id)
	if err != nil {
		return err
	}
	if quotation.Status != enum.QuotationStatusApproved {
		return apperror.NewConflictError("Only approved quotations can be emailed")
	}
	if quotation.Client == nil || quotation.Client.Email == "" {
		return apperror.NewBadRequestError("Client has no email address")
	}

	doc, filename, err := s.RenderPDF(ctx, actor, id)
	if err != nil {
		return err
	}

	err = s.mailer.SendQuotation(&email.QuotationMessage{
		To:              quotation.Client.Email,
		ClientName:      quotation.Client.Name,
		CompanyName:     quotation.Client.Company,
		Number:          quotation.Number,
		GrandTotal:      pricing.Format(quotation.GrandTotal),
		Currency:        quotation.Currency,
		SalespersonName: salespersonName(quotation),
		Note:            strings.TrimSpace(note),
		Document: email.Attachment{
			Filename:    filename,
			ContentType: "application/pdf",
			Data:        doc.Bytes,
		},
	})
	if err != nil {
		log.Printf("Failed to email quotation %s: %v", quotation.Number, err)
		return apperror.Wrap(apperror.NewAppError(http.StatusBadGateway, "Failed to send quotation email"), err)
	}

	log.Printf("Quotation %s emailed to %s", quotation.Number, quotation.Client.Email)
	return nil
}

// ExportRegister writes the quotations matching input as an xlsx register
func (s *QuotationService) ExportRegister(ctx context.Context, actor Actor, input *ListQuotationsInput, w io.Writer) error {
	if !actor.Role.CanApprove() {
		return apperror.ErrForbidden
	}

	params := &pagination.PaginationParams{Page: 1, PerPage: pagination.MaxPerPage}
	filter := s.filter(actor, input, params)

	var rows []report.Row
	for len(rows) < s.exportMaxRows {
		quotations, total, err := s.quotationRepo.List(ctx, filter)
		if err != nil {
			return err
		}
		for i := range quotations {
			rows = append(rows, registerRow(&quotations[i]))
		}
		if len(quotations) == 0 || int64(params.Offset()+len(quotations)) >= total {
			break
		}
		params.Page++
	}
	if len(rows) > s.exportMaxRows {
		rows = rows[:s.exportMaxRows]
	}

	return report.WriteRegister(w, "Quotation Register", rows)
}

func (s *QuotationService) filter(actor Actor, input *ListQuotationsInput, params *pagination.PaginationParams) *repository.QuotationFilterParams {
	filter := &repository.QuotationFilterParams{
		Pagination: params,
		Search:     input.Search,
		Status:     input.Status,
		ClientID:   input.ClientID,
		From:       input.From,
		To:         input.To,
		SortBy:     input.SortBy,
		SortOrder:  input.SortOrder,
	}
	if scope := actor.ownerScope(); scope != nil {
		filter.SalespersonID = scope
	} else {
		filter.SalespersonID = input.SalespersonID
	}
	return filter
}

func (s *QuotationService) loadClient(ctx context.Context, actor Actor, id uuid.UUID) (*entity.Client, error) {
	client, err := s.clientRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if client == nil || !actor.canAccess(client.SalespersonID) {
		return nil, apperror.NewValidationError([]apperror.FieldError{{Field: "client_id", Message: "Client not found"}})
	}
	return client, nil
}

func (s *QuotationService) loadEditable(ctx context.Context, actor Actor, id uuid.UUID) (*entity.Quotation, error) {
	quotation, err := s.GetQuotation(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if quotation.SalespersonID != actor.UserID && actor.Role != enum.RoleAdmin {
		return nil, apperror.NewForbiddenError("Only the owner can change a quotation")
	}
	if !quotation.Status.IsEditable() {
		return nil, apperror.ErrInvalidTransition
	}
	return quotation, nil
}

func (s *QuotationService) buildItems(ctx context.Context, actor Actor, inputs []QuotationItemInput) ([]entity.QuotationItem, error) {
	var ids []uuid.UUID
	for _, in := range inputs {
		if in.ProductID != nil {
			ids = append(ids, *in.ProductID)
		}
	}
	products, err := s.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*entity.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	items := make([]entity.QuotationItem, 0, len(inputs))
	var fields []apperror.FieldError
	for i, in := range inputs {
		field := fmt.Sprintf("items[%d]", i)
		item := entity.QuotationItem{
			ProductID:   in.ProductID,
			Name:        strings.TrimSpace(in.Name),
			Description: strings.TrimSpace(in.Description),
			PackSize:    strings.TrimSpace(in.PackSize),
			Quantity:    in.Quantity,
		}

		if in.ProductID != nil {
			p, ok := byID[*in.ProductID]
			if !ok || !p.IsActive || !p.AvailableIn(actor.Country) {
				fields = append(fields, apperror.FieldError{Field: field + ".product_id", Message: "Product not found"})
				continue
			}
			if item.Name == "" {
				item.Name = p.Name
			}
			if item.Description == "" {
				item.Description = p.Description
			}
			if item.PackSize == "" {
				item.PackSize = p.PackSize
			}
			item.UnitPrice = p.UnitPrice
		} else if item.Name == "" {
			fields = append(fields, apperror.FieldError{Field: field + ".name", Message: "Name is required without a product"})
		}

		if in.UnitPrice != nil {
			item.UnitPrice = *in.UnitPrice
		} else if in.ProductID == nil {
			fields = append(fields, apperror.FieldError{Field: field + ".unit_price", Message: "Unit price is required without a product"})
		}
		item.LineTotal = s.calc.LineTotal(item.Quantity, item.UnitPrice)
		items = append(items, item)
	}
	if len(fields) > 0 {
		return nil, apperror.NewValidationError(fields)
	}
	return items, nil
}

func (s *QuotationService) apply(q *entity.Quotation, input *QuotationInput, issueDate time.Time, items []entity.QuotationItem) {
	lines := make([]pricing.Line, 0, len(items))
	for _, it := range items {
		lines = append(lines, pricing.Line{Quantity: it.Quantity, UnitPrice: it.UnitPrice})
	}
	totals := s.calc.Aggregate(lines)

	q.IssueDate = issueDate
	q.IntroText = strings.TrimSpace(input.IntroText)
	q.ClosingText = strings.TrimSpace(input.ClosingText)
	q.Validity = strings.TrimSpace(input.Validity)
	q.Delivery = strings.TrimSpace(input.Delivery)
	q.PaymentTerms = strings.TrimSpace(input.PaymentTerms)
	q.Warranty = strings.TrimSpace(input.Warranty)
	q.Shipping = strings.TrimSpace(input.Shipping)
	q.Subtotal = totals.Subtotal
	q.VAT = totals.VAT
	q.GrandTotal = totals.GrandTotal
	q.Items = items
}

func (s *QuotationService) issueDate(d *time.Time) time.Time {
	t := s.now()
	if d != nil && !d.IsZero() {
		t = *d
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func validateQuotationInput(input *QuotationInput) error {
	var fields []apperror.FieldError
	if input.ClientID == uuid.Nil {
		fields = append(fields, apperror.FieldError{Field: "client_id", Message: "Client is required"})
	}
	if len(input.Items) == 0 {
		fields = append(fields, apperror.FieldError{Field: "items", Message: "At least one item is required"})
	}
	for i, it := range input.Items {
		field := fmt.Sprintf("items[%d]", i)
		if it.Quantity < 1 {
			fields = append(fields, apperror.FieldError{Field: field + ".quantity", Message: "Quantity must be at least 1"})
		}
		if it.UnitPrice != nil {
			if it.UnitPrice.IsNegative() {
				fields = append(fields, apperror.FieldError{Field: field + ".unit_price", Message: "Unit price must not be negative"})
			} else if !pricing.HasValidPrecision(*it.UnitPrice) {
				fields = append(fields, apperror.FieldError{Field: field + ".unit_price", Message: "Unit price must have at most 3 decimal places"})
			}
		}
	}
	if len(fields) > 0 {
		return apperror.NewValidationError(fields)
	}
	return nil
}

// DocumentRequest maps a stored quotation onto the document pipeline's input.
func DocumentRequest(q *entity.Quotation) *quotedoc.Request {
	req := &quotedoc.Request{
		Identifier:  q.Number,
		IssueDate:   q.IssueDate,
		IntroText:   q.IntroText,
		ClosingText: q.ClosingText,
		Terms: quotedoc.Terms{
			Validity:     q.Validity,
			Delivery:     q.Delivery,
			PaymentTerms: q.PaymentTerms,
			Warranty:     q.Warranty,
			Shipping:     q.Shipping,
		},
		SalespersonName: salespersonName(q),
	}
	if q.Client != nil {
		req.Client = quotedoc.Client{
			DisplayName: q.Client.Name,
			CompanyName: q.Client.Company,
			Email:       q.Client.Email,
			Phone:       q.Client.Phone,
		}
	}
	for _, it := range q.Items {
		req.LineItems = append(req.LineItems, quotedoc.LineItem{
			Name:        it.Name,
			Description: it.Description,
			PackSize:    it.PackSize,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
		})
	}
	return req
}

func salespersonName(q *entity.Quotation) string {
	if q.Salesperson == nil {
		return ""
	}
	return q.Salesperson.DisplayName()
}

func registerRow(q *entity.Quotation) report.Row {
	row := report.Row{
		Number:      q.Number,
		IssueDate:   q.IssueDate,
		Salesperson: salespersonName(q),
		Status:      q.Status.String(),
		Currency:    q.Currency,
		Items:       len(q.Items),
		Subtotal:    q.Subtotal,
		VAT:         q.VAT,
		GrandTotal:  q.GrandTotal,
	}
	if q.Client != nil {
		row.Client = q.Client.Name
		row.Company = q.Client.Company
	}
	return row
}

// documentError maps pipeline failures onto HTTP-facing errors.
func documentError(err error) error {
	switch {
	case errors.Is(err, quotedoc.ErrValidation):
		var invalid *quotedoc.InvalidRequestError
		if errors.As(err, &invalid) {
			fields := make([]apperror.FieldError, 0, len(invalid.Fields))
			for _, f := range invalid.Fields {
				fields = append(fields, apperror.FieldError{Field: f.Field, Message: f.Message})
			}
			return apperror.Wrap(apperror.NewValidationError(fields), err)
		}
		return apperror.Wrap(apperror.ErrUnprocessable, err)
	case errors.Is(err, quotedoc.ErrAssetMissing):
		return apperror.Wrap(apperror.ErrDocumentUnavailable, err)
	default:
		return apperror.Wrap(apperror.NewAppError(http.StatusInternalServerError, "Failed to generate quotation document"), err)
	}
}
