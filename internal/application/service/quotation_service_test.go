package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/quotation-api/internal/domain/entity"
	"github.com/sangkips/quotation-api/internal/domain/enum"
	"github.com/sangkips/quotation-api/internal/domain/repository"
	"github.com/sangkips/quotation-api/pkg/apperror"
	"github.com/sangkips/quotation-api/pkg/pricing"
	"github.com/sangkips/quotation-api/pkg/quotedoc"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type quotationFixture struct {
	svc      *QuotationService
	repo     *fakeQuotations
	renderer *fakeRenderer
	mailer   *fakeMailer

	sales   Actor
	other   Actor
	manager Actor
	client  *entity.Client
	gloves  *entity.Product
	indian  *entity.Product
}

func newQuotationFixture(t *testing.T) *quotationFixture {
	t.Helper()

	sales := &entity.User{ID: uuid.New(), Username: "asha", FullName: "Asha Nair", Role: enum.RoleSalesperson, Country: "Oman", IsActive: true}
	other := &entity.User{ID: uuid.New(), Username: "omar", Role: enum.RoleSalesperson, Country: "UAE", IsActive: true}
	manager := &entity.User{ID: uuid.New(), Username: "lena", Role: enum.RoleSalesManager, IsActive: true}
	users := newFakeUsers(sales, other, manager)

	client := &entity.Client{ID: uuid.New(), SalespersonID: sales.ID, Name: "Mr. Said", Company: "Muscat Clinic", Email: "said@clinic.example"}
	clients := newFakeClients(client)

	gloves := &entity.Product{ID: uuid.New(), Name: "Nitrile Gloves", Description: "Powder free", PackSize: "100 pcs", UnitPrice: decimal.RequireFromString("1.250"), Country: entity.GlobalCountry, IsActive: true}
	indian := &entity.Product{ID: uuid.New(), Name: "Syringe", UnitPrice: decimal.RequireFromString("0.100"), Country: "India", IsActive: true}
	products := newFakeProducts(gloves, indian)

	repo := newFakeQuotations(clients, users)
	renderer := &fakeRenderer{}
	mailer := &fakeMailer{}
	svc := NewQuotationService(repo, &fakeCounter{}, clients, products, users, renderer, mailer, pricing.Default(),
		QuotationServiceConfig{DefaultCurrency: "OMR"})
	svc.now = func() time.Time { return fixedNow }

	return &quotationFixture{
		svc:      svc,
		repo:     repo,
		renderer: renderer,
		mailer:   mailer,
		sales:    Actor{UserID: sales.ID, Username: sales.Username, Role: sales.Role, Country: sales.Country},
		other:    Actor{UserID: other.ID, Username: other.Username, Role: other.Role, Country: other.Country},
		manager:  Actor{UserID: manager.ID, Username: manager.Username, Role: manager.Role},
		client:   client,
		gloves:   gloves,
		indian:   indian,
	}
}

func price(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func (f *quotationFixture) exampleInput() *QuotationInput {
	return &QuotationInput{
		ClientID: f.client.ID,
		Validity: "30 days",
		Items: []QuotationItemInput{
			{ProductID: &f.gloves.ID, Quantity: 10},
			{Name: "Face Mask", PackSize: "50 pcs", Quantity: 5, UnitPrice: price("3.150")},
		},
	}
}

func (f *quotationFixture) create(t *testing.T) *entity.Quotation {
	t.Helper()
	q, err := f.svc.CreateQuotation(context.Background(), f.sales, f.exampleInput())
	require.NoError(t, err)
	return q
}

func requireCode(t *testing.T, err error, code int) {
	t.Helper()
	require.Error(t, err)
	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	assert.Equal(t, code, appErr.Code)
}

func TestCreateQuotation(t *testing.T) {
	f := newQuotationFixture(t)
	q := f.create(t)

	assert.Equal(t, "QTN-2025-001", q.Number)
	assert.Equal(t, enum.QuotationStatusDraft, q.Status)
	assert.Equal(t, "OMR", q.Currency)
	assert.Equal(t, "28.25", q.Subtotal.String())
	assert.Equal(t, "1.413", q.VAT.String())
	assert.Equal(t, "29.663", q.GrandTotal.String())
	require.Len(t, q.Items, 2)
	assert.Equal(t, "Nitrile Gloves", q.Items[0].Name)
	assert.Equal(t, "100 pcs", q.Items[0].PackSize)
	assert.Equal(t, "12.5", q.Items[0].LineTotal.String())
	assert.Equal(t, 1, q.Items[0].Position)
	assert.Equal(t, "15.75", q.Items[1].LineTotal.String())
	assert.Equal(t, fixedNow.Year(), q.IssueDate.Year())
	assert.Equal(t, 0, q.IssueDate.Hour())

	second := f.create(t)
	assert.Equal(t, "QTN-2025-002", second.Number)
}

func TestCreateQuotationOverridesProductSnapshot(t *testing.T) {
	f := newQuotationFixture(t)
	in := f.exampleInput()
	in.Items = []QuotationItemInput{{ProductID: &f.gloves.ID, Name: "Gloves (L)", Quantity: 2, UnitPrice: price("1.000")}}

	q, err := f.svc.CreateQuotation(context.Background(), f.sales, in)
	require.NoError(t, err)
	assert.Equal(t, "Gloves (L)", q.Items[0].Name)
	assert.Equal(t, "Powder free", q.Items[0].Description)
	assert.Equal(t, "2", q.Items[0].LineTotal.String())
}

func TestCreateQuotationValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *quotationFixture, in *QuotationInput)
		field  string
	}{
		{"no items", func(_ *quotationFixture, in *QuotationInput) { in.Items = nil }, "items"},
		{"no client", func(_ *quotationFixture, in *QuotationInput) { in.ClientID = uuid.Nil }, "client_id"},
		{"zero quantity", func(_ *quotationFixture, in *QuotationInput) { in.Items[0].Quantity = 0 }, "items[0].quantity"},
		{"negative price", func(_ *quotationFixture, in *QuotationInput) { in.Items[1].UnitPrice = price("-1") }, "items[1].unit_price"},
		{"too precise", func(_ *quotationFixture, in *QuotationInput) { in.Items[1].UnitPrice = price("1.2345") }, "items[1].unit_price"},
		{"free line without price", func(_ *quotationFixture, in *QuotationInput) { in.Items[1].UnitPrice = nil }, "items[1].unit_price"},
		{"free line without name", func(_ *quotationFixture, in *QuotationInput) { in.Items[1].Name = "" }, "items[1].name"},
		{"product from another country", func(f *quotationFixture, in *QuotationInput) { in.Items[0].ProductID = &f.indian.ID }, "items[0].product_id"},
		{"unknown product", func(_ *quotationFixture, in *QuotationInput) { id := uuid.New(); in.Items[0].ProductID = &id }, "items[0].product_id"},
		{"unknown client", func(_ *quotationFixture, in *QuotationInput) { in.ClientID = uuid.New() }, "client_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newQuotationFixture(t)
			in := f.exampleInput()
			tt.mutate(f, in)

			_, err := f.svc.CreateQuotation(context.Background(), f.sales, in)
			requireCode(t, err, http.StatusUnprocessableEntity)
			appErr := apperror.GetAppError(err)
			var fields []string
			for _, fe := range appErr.Errors {
				fields = append(fields, fe.Field)
			}
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestCreateQuotationForeignClient(t *testing.T) {
	f := newQuotationFixture(t)
	_, err := f.svc.CreateQuotation(context.Background(), f.other, f.exampleInput())
	requireCode(t, err, http.StatusUnprocessableEntity)
}

func TestQuotationVisibility(t *testing.T) {
	f := newQuotationFixture(t)
	q := f.create(t)
	ctx := context.Background()

	_, err := f.svc.GetQuotation(ctx, f.other, q.ID)
	requireCode(t, err, http.StatusNotFound)

	got, err := f.svc.GetQuotation(ctx, f.manager, q.ID)
	require.NoError(t, err)
	assert.Equal(t, q.Number, got.Number)

	list, err := f.svc.ListQuotations(ctx, f.other, &ListQuotationsInput{})
	require.NoError(t, err)
	assert.Empty(t, list.Items)

	list, err = f.svc.ListQuotations(ctx, f.manager, &ListQuotationsInput{})
	require.NoError(t, err)
	assert.Len(t, list.Items, 1)
}

func TestUpdateQuotationKeepsNumber(t *testing.T) {
	f := newQuotationFixture(t)
	q := f.create(t)

	in := f.exampleInput()
	in.Items = in.Items[:1]
	updated, err := f.svc.UpdateQuotation(context.Background(), f.sales, q.ID, in)
	require.NoError(t, err)
	assert.Equal(t, q.Number, updated.Number)
	assert.Len(t, updated.Items, 1)
	assert.Equal(t, "13.125", updated.GrandTotal.String())
}

func TestQuotationLifecycle(t *testing.T) {
	f := newQuotationFixture(t)
	ctx := context.Background()
	q := f.create(t)

	_, err := f.svc.SubmitQuotation(ctx, f.manager, q.ID)
	requireCode(t, err, http.StatusForbidden)

	sent, err := f.svc.SubmitQuotation(ctx, f.sales, q.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.QuotationStatusSent, sent.Status)
	require.NotNil(t, sent.SentAt)

	_, err = f.svc.UpdateQuotation(ctx, f.sales, q.ID, f.exampleInput())
	assert.ErrorIs(t, err, apperror.ErrInvalidTransition)
	assert.ErrorIs(t, f.svc.DeleteQuotation(ctx, f.sales, q.ID), apperror.ErrInvalidTransition)

	_, err = f.svc.ApproveQuotation(ctx, f.sales, q.ID, "")
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = f.svc.RejectQuotation(ctx, f.manager, q.ID, "  ")
	requireCode(t, err, http.StatusUnprocessableEntity)

	approved, err := f.svc.ApproveQuotation(ctx, f.manager, q.ID, "ok")
	require.NoError(t, err)
	assert.Equal(t, enum.QuotationStatusApproved, approved.Status)
	require.NotNil(t, approved.ReviewedByID)
	assert.Equal(t, f.manager.UserID, *approved.ReviewedByID)
	require.NotNil(t, approved.ReviewNote)
	assert.Equal(t, "ok", *approved.ReviewNote)

	_, err = f.svc.RejectQuotation(ctx, f.manager, q.ID, "too late")
	assert.ErrorIs(t, err, apperror.ErrInvalidTransition)
}

func TestSubmitLosesRace(t *testing.T) {
	f := newQuotationFixture(t)
	q := f.create(t)

	// Another request moved it between the read and the guarded update.
	_, err := f.repo.UpdateStatus(context.Background(), q.ID, enum.QuotationStatusDraft, statusOnly(enum.QuotationStatusSent))
	require.NoError(t, err)
	stale := *q
	_, err = f.svc.transition(context.Background(), &stale, enum.QuotationStatusSent, statusOnly(enum.QuotationStatusSent))
	assert.ErrorIs(t, err, apperror.ErrInvalidTransition)
}

func TestUpdateLosesRaceWithSubmit(t *testing.T) {
	f := newQuotationFixture(t)
	ctx := context.Background()
	q := f.create(t)

	f.repo.beforeUpdate = func(id uuid.UUID) {
		_, err := f.svc.SubmitQuotation(ctx, f.sales, id)
		require.NoError(t, err)
	}
	in := f.exampleInput()
	in.Items = in.Items[:1]
	_, err := f.svc.UpdateQuotation(ctx, f.sales, q.ID, in)
	assert.ErrorIs(t, err, apperror.ErrInvalidTransition)

	f.repo.beforeUpdate = nil
	stored, err := f.repo.GetWithItems(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.QuotationStatusSent, stored.Status)
	assert.Len(t, stored.Items, len(q.Items))
	assert.True(t, q.GrandTotal.Equal(stored.GrandTotal))
}

func statusOnly(s enum.QuotationStatus) repository.StatusChange {
	return repository.StatusChange{Status: s}
}

func TestDeleteDraft(t *testing.T) {
	f := newQuotationFixture(t)
	q := f.create(t)

	assert.Error(t, f.svc.DeleteQuotation(context.Background(), f.other, q.ID))
	require.NoError(t, f.svc.DeleteQuotation(context.Background(), f.sales, q.ID))
	_, err := f.svc.GetQuotation(context.Background(), f.sales, q.ID)
	requireCode(t, err, http.StatusNotFound)
}

func TestRenderPDF(t *testing.T) {
	f := newQuotationFixture(t)
	q := f.create(t)

	doc, name, err := f.svc.RenderPDF(context.Background(), f.sales, q.ID)
	require.NoError(t, err)
	assert.Equal(t, "QTN-2025-001.pdf", name)
	assert.Equal(t, 1, doc.PageCount)

	req := f.renderer.last
	require.NotNil(t, req)
	assert.Equal(t, "Muscat Clinic", req.Client.CompanyName)
	assert.Equal(t, "Asha Nair", req.SalespersonName)
	assert.Equal(t, "30 days", req.Terms.Validity)
	require.Len(t, req.LineItems, 2)
	assert.Equal(t, int64(10), req.LineItems[0].Quantity)
}

func TestRenderPDFErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"asset missing", fmt.Errorf("open letterhead: %w", quotedoc.ErrAssetMissing), http.StatusServiceUnavailable},
		{"composition", fmt.Errorf("overlay: %w", quotedoc.ErrComposition), http.StatusInternalServerError},
		{"validation", &quotedoc.Error{
			Stage: quotedoc.StageValidate,
			Kind:  quotedoc.ErrValidation,
			Err:   &quotedoc.InvalidRequestError{Fields: []quotedoc.FieldError{{Field: "issue_date", Message: "required"}}},
		}, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newQuotationFixture(t)
			q := f.create(t)
			f.renderer.err = tt.err

			_, _, err := f.svc.RenderPDF(context.Background(), f.sales, q.ID)
			requireCode(t, err, tt.code)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestEmailQuotation(t *testing.T) {
	f := newQuotationFixture(t)
	ctx := context.Background()
	q := f.create(t)

	err := f.svc.EmailQuotation(ctx, f.sales, q.ID, "")
	requireCode(t, err, http.StatusConflict)

	_, err = f.svc.SubmitQuotation(ctx, f.sales, q.ID)
	require.NoError(t, err)
	_, err = f.svc.ApproveQuotation(ctx, f.manager, q.ID, "")
	require.NoError(t, err)

	require.NoError(t, f.svc.EmailQuotation(ctx, f.sales, q.ID, "As discussed."))
	require.Len(t, f.mailer.sent, 1)
	msg := f.mailer.sent[0]
	assert.Equal(t, "said@clinic.example", msg.To)
	assert.Equal(t, "29.663", msg.GrandTotal)
	assert.Equal(t, "QTN-2025-001.pdf", msg.Document.Filename)
	assert.Equal(t, "As discussed.", msg.Note)

	f.mailer.err = errors.New("connection refused")
	requireCode(t, f.svc.EmailQuotation(ctx, f.sales, q.ID, ""), http.StatusBadGateway)

	f.client.Email = ""
	requireCode(t, f.svc.EmailQuotation(ctx, f.sales, q.ID, ""), http.StatusBadRequest)
}

func TestExportRegister(t *testing.T) {
	f := newQuotationFixture(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		f.create(t)
	}

	var buf bytes.Buffer
	assert.ErrorIs(t, f.svc.ExportRegister(ctx, f.sales, &ListQuotationsInput{}, &buf), apperror.ErrForbidden)

	f.svc.exportMaxRows = 2
	require.NoError(t, f.svc.ExportRegister(ctx, f.manager, &ListQuotationsInput{}, &buf))

	book, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer book.Close()
	rows, err := book.GetRows("Quotations")
	require.NoError(t, err)
	var numbers int
	for _, r := range rows {
		if len(r) > 0 && len(r[0]) > 4 && r[0][:4] == "QTN-" {
			numbers++
		}
	}
	assert.Equal(t, 2, numbers)
}
