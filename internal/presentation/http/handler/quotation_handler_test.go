package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/quotation-api/internal/application/service"
	"github.com/sangkips/quotation-api/internal/domain/entity"
	"github.com/sangkips/quotation-api/internal/domain/enum"
	"github.com/sangkips/quotation-api/internal/domain/repository"
	"github.com/sangkips/quotation-api/pkg/apperror"
	"github.com/sangkips/quotation-api/pkg/pricing"
	"github.com/sangkips/quotation-api/pkg/quotedoc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// quotationStore only answers GetWithItems; any other call panics through
// the nil embedded interface.
type quotationStore struct {
	repository.QuotationRepository
	quotations map[uuid.UUID]*entity.Quotation
}

func (s *quotationStore) GetWithItems(_ context.Context, id uuid.UUID) (*entity.Quotation, error) {
	return s.quotations[id], nil
}

type stubRenderer struct {
	doc *quotedoc.RenderedDocument
	err error
}

func (r *stubRenderer) Render(_ context.Context, _ *quotedoc.Request) (*quotedoc.RenderedDocument, error) {
	return r.doc, r.err
}

type envelope struct {
	Success bool                  `json:"success"`
	Message string                `json:"message"`
	Errors  []apperror.FieldError `json:"errors"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var body envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

type quotationFixture struct {
	owner     service.Actor
	quotation *entity.Quotation
	renderer  *stubRenderer
	router    *gin.Engine
}

func newQuotationFixture(t *testing.T, actor *service.Actor) *quotationFixture {
	t.Helper()

	owner := service.Actor{UserID: uuid.New(), Username: "asha", Role: enum.RoleSalesperson, Country: "Oman"}
	quotation := &entity.Quotation{
		ID:            uuid.New(),
		Number:        "QTN-2025-001",
		SalespersonID: owner.UserID,
		IssueDate:     time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
		Client:        &entity.Client{Name: "Muscat Clinic"},
	}
	renderer := &stubRenderer{doc: &quotedoc.RenderedDocument{Bytes: []byte("%PDF-1.7 test"), PageCount: 2}}

	svc := service.NewQuotationService(
		&quotationStore{quotations: map[uuid.UUID]*entity.Quotation{quotation.ID: quotation}},
		nil, nil, nil, nil,
		renderer, nil, pricing.Default(),
		service.QuotationServiceConfig{DefaultCurrency: "OMR"},
	)
	h := NewQuotationHandler(svc, time.Second)

	if actor == nil {
		actor = &owner
	}
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("actor", *actor)
		c.Next()
	})
	router.POST("/quotations", h.Create)
	router.GET("/quotations/:id/pdf", h.PDF)

	return &quotationFixture{owner: owner, quotation: quotation, renderer: renderer, router: router}
}

func (f *quotationFixture) get(path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestQuotationPDF(t *testing.T) {
	t.Run("streams the document inline", func(t *testing.T) {
		f := newQuotationFixture(t, nil)
		w := f.get("/quotations/" + f.quotation.ID.String() + "/pdf")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
		assert.Equal(t, `inline; filename="QTN-2025-001.pdf"`, w.Header().Get("Content-Disposition"))
		assert.Equal(t, "2", w.Header().Get("X-Page-Count"))
		assert.Equal(t, "%PDF-1.7 test", w.Body.String())
	})

	t.Run("download query asks for an attachment", func(t *testing.T) {
		f := newQuotationFixture(t, nil)
		w := f.get("/quotations/" + f.quotation.ID.String() + "/pdf?download=1")

		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, strings.HasPrefix(w.Header().Get("Content-Disposition"), "attachment;"))
	})

	t.Run("other salespeople get not found", func(t *testing.T) {
		stranger := service.Actor{UserID: uuid.New(), Role: enum.RoleSalesperson}
		f := newQuotationFixture(t, &stranger)
		w := f.get("/quotations/" + f.quotation.ID.String() + "/pdf")

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("malformed id", func(t *testing.T) {
		f := newQuotationFixture(t, nil)
		w := f.get("/quotations/not-a-uuid/pdf")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid id", decode(t, w).Message)
	})

	errorCases := []struct {
		name string
		err  error
		code int
	}{
		{
			name: "missing letterhead",
			err:  &quotedoc.Error{Stage: quotedoc.StageLetterhead, Kind: quotedoc.ErrAssetMissing, Err: errors.New("open letterhead.pdf")},
			code: http.StatusServiceUnavailable,
		},
		{
			name: "composition failure",
			err:  &quotedoc.Error{Stage: quotedoc.StageCompose, Kind: quotedoc.ErrComposition, Err: errors.New("broken page tree")},
			code: http.StatusInternalServerError,
		},
	}
	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newQuotationFixture(t, nil)
			f.renderer.err = tc.err
			w := f.get("/quotations/" + f.quotation.ID.String() + "/pdf")

			assert.Equal(t, tc.code, w.Code)
			body := decode(t, w)
			assert.False(t, body.Success)
			assert.NotContains(t, body.Message, "broken page tree")
		})
	}
}

func TestCreateQuotationBindErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		code   int
		fields []string
	}{
		{
			name: "malformed json",
			body: `{"items": [`,
			code: http.StatusBadRequest,
		},
		{
			name:   "no items",
			body:   `{"client_id": "` + uuid.NewString() + `", "items": []}`,
			code:   http.StatusUnprocessableEntity,
			fields: []string{"items"},
		},
		{
			name:   "zero quantity",
			body:   `{"client_id": "` + uuid.NewString() + `", "items": [{"name": "Gloves", "quantity": 0, "unit_price": "1.250"}]}`,
			code:   http.StatusUnprocessableEntity,
			fields: []string{"items[0].quantity"},
		},
		{
			name:   "bad issue date",
			body:   `{"client_id": "` + uuid.NewString() + `", "issue_date": "14/03/2025", "items": [{"name": "Gloves", "quantity": 1, "unit_price": "1.250"}]}`,
			code:   http.StatusUnprocessableEntity,
			fields: []string{"issue_date"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newQuotationFixture(t, nil)
			req := httptest.NewRequest(http.MethodPost, "/quotations", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			f.router.ServeHTTP(w, req)

			require.Equal(t, tt.code, w.Code)
			body := decode(t, w)
			var got []string
			for _, fe := range body.Errors {
				got = append(got, fe.Field)
			}
			assert.Equal(t, tt.fields, got)
		})
	}
}

func TestSnake(t *testing.T) {
	assert.Equal(t, "product_id", snake("ProductID"))
	assert.Equal(t, "items[0]", snake("Items[0]"))
	assert.Equal(t, "unit_price", snake("UnitPrice"))
	assert.Equal(t, "new_password", snake("NewPassword"))
}

func TestCurrentActorRequiresAuthentication(t *testing.T) {
	router := gin.New()
	router.GET("/me", func(c *gin.Context) {
		if _, ok := currentActor(c); ok {
			c.Status(http.StatusOK)
		}
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
