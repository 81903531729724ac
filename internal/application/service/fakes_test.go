package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/quotation-api/internal/domain/entity"
	"github.com/sangkips/quotation-api/internal/domain/enum"
	"github.com/sangkips/quotation-api/internal/domain/repository"
	"github.com/sangkips/quotation-api/pkg/email"
	"github.com/sangkips/quotation-api/pkg/quotedoc"
	"github.com/shopspring/decimal"
)

type fakeUsers struct {
	mu    sync.Mutex
	users map[uuid.UUID]*entity.User
}

func newFakeUsers(users ...*entity.User) *fakeUsers {
	f := &fakeUsers{users: map[uuid.UUID]*entity.User{}}
	for _, u := range users {
		if u.ID == uuid.Nil {
			u.ID = uuid.New()
		}
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUsers) Create(_ context.Context, user *entity.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[id], nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) GetByUsername(_ context.Context, username string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) Update(_ context.Context, user *entity.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[user.ID] = user
	return nil
}

func (f *fakeUsers) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.users, id)
	return nil
}

func (f *fakeUsers) List(_ context.Context, _ *repository.UserFilterParams) ([]entity.User, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.User
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, int64(len(out)), nil
}

type fakeAudits struct {
	entries []entity.LoginAudit
}

func (f *fakeAudits) Create(_ context.Context, audit *entity.LoginAudit) error {
	f.entries = append(f.entries, *audit)
	return nil
}

func (f *fakeAudits) ListByUser(_ context.Context, userID uuid.UUID, limit int) ([]entity.LoginAudit, error) {
	var out []entity.LoginAudit
	for _, e := range f.entries {
		if e.UserID == userID && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeClients struct {
	clients map[uuid.UUID]*entity.Client
}

func newFakeClients(clients ...*entity.Client) *fakeClients {
	f := &fakeClients{clients: map[uuid.UUID]*entity.Client{}}
	for _, c := range clients {
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
		f.clients[c.ID] = c
	}
	return f
}

func (f *fakeClients) Create(_ context.Context, client *entity.Client) error {
	if client.ID == uuid.Nil {
		client.ID = uuid.New()
	}
	f.clients[client.ID] = client
	return nil
}

func (f *fakeClients) GetByID(_ context.Context, id uuid.UUID) (*entity.Client, error) {
	return f.clients[id], nil
}

func (f *fakeClients) Update(_ context.Context, client *entity.Client) error {
	f.clients[client.ID] = client
	return nil
}

func (f *fakeClients) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.clients, id)
	return nil
}

func (f *fakeClients) List(_ context.Context, params *repository.ClientFilterParams) ([]entity.Client, int64, error) {
	var out []entity.Client
	for _, c := range f.clients {
		if params.SalespersonID == nil || *params.SalespersonID == c.SalespersonID {
			out = append(out, *c)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeClients) Count(_ context.Context, salespersonID *uuid.UUID) (int64, error) {
	var n int64
	for _, c := range f.clients {
		if salespersonID == nil || *salespersonID == c.SalespersonID {
			n++
		}
	}
	return n, nil
}

type fakeProducts struct {
	products map[uuid.UUID]*entity.Product
}

func newFakeProducts(products ...*entity.Product) *fakeProducts {
	f := &fakeProducts{products: map[uuid.UUID]*entity.Product{}}
	for _, p := range products {
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		f.products[p.ID] = p
	}
	return f
}

func (f *fakeProducts) Create(_ context.Context, product *entity.Product) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	f.products[product.ID] = product
	return nil
}

func (f *fakeProducts) GetByID(_ context.Context, id uuid.UUID) (*entity.Product, error) {
	return f.products[id], nil
}

func (f *fakeProducts) GetByIDs(_ context.Context, ids []uuid.UUID) ([]entity.Product, error) {
	var out []entity.Product
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeProducts) Update(_ context.Context, product *entity.Product) error {
	f.products[product.ID] = product
	return nil
}

func (f *fakeProducts) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.products, id)
	return nil
}

func (f *fakeProducts) List(_ context.Context, params *repository.ProductFilterParams) ([]entity.Product, int64, error) {
	var out []entity.Product
	for _, p := range f.products {
		if params.ActiveOnly && !p.IsActive {
			continue
		}
		if params.Country != "" && !p.AvailableIn(params.Country) {
			continue
		}
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

// fakeQuotations joins clients and salespeople the way the gorm preloads do.
type fakeQuotations struct {
	mu         sync.Mutex
	quotations map[uuid.UUID]*entity.Quotation
	clients    *fakeClients
	users      *fakeUsers
	// beforeUpdate runs at the start of Update, outside the lock.
	beforeUpdate func(id uuid.UUID)
}

func newFakeQuotations(clients *fakeClients, users *fakeUsers) *fakeQuotations {
	return &fakeQuotations{quotations: map[uuid.UUID]*entity.Quotation{}, clients: clients, users: users}
}

func (f *fakeQuotations) store(q *entity.Quotation) {
	cp := *q
	cp.Client, cp.Salesperson = nil, nil
	cp.Items = make([]entity.QuotationItem, len(q.Items))
	for i, it := range q.Items {
		it.ID = uuid.New()
		it.QuotationID = q.ID
		it.Position = i + 1
		it.Product = nil
		cp.Items[i] = it
	}
	f.quotations[q.ID] = &cp
}

func (f *fakeQuotations) load(q *entity.Quotation) *entity.Quotation {
	cp := *q
	cp.Items = append([]entity.QuotationItem(nil), q.Items...)
	cp.Client = f.clients.clients[q.ClientID]
	cp.Salesperson, _ = f.users.GetByID(context.Background(), q.SalespersonID)
	return &cp
}

func (f *fakeQuotations) Create(_ context.Context, q *entity.Quotation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.quotations {
		if existing.Number == q.Number {
			return errors.New("duplicate quotation number")
		}
	}
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	f.store(q)
	return nil
}

func (f *fakeQuotations) GetByID(ctx context.Context, id uuid.UUID) (*entity.Quotation, error) {
	return f.GetWithItems(ctx, id)
}

func (f *fakeQuotations) GetByNumber(_ context.Context, number string) (*entity.Quotation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, q := range f.quotations {
		if q.Number == number {
			return f.load(q), nil
		}
	}
	return nil, nil
}

func (f *fakeQuotations) GetWithItems(_ context.Context, id uuid.UUID) (*entity.Quotation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.quotations[id]
	if !ok {
		return nil, nil
	}
	return f.load(q), nil
}

func (f *fakeQuotations) Update(_ context.Context, q *entity.Quotation) (bool, error) {
	if f.beforeUpdate != nil {
		f.beforeUpdate(q.ID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.quotations[q.ID]
	if !ok || stored.Status != enum.QuotationStatusDraft {
		return false, nil
	}
	f.store(q)
	return true, nil
}

func (f *fakeQuotations) UpdateStatus(_ context.Context, id uuid.UUID, from enum.QuotationStatus, change repository.StatusChange) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.quotations[id]
	if !ok || q.Status != from {
		return false, nil
	}
	q.Status = change.Status
	if change.ReviewedByID != nil {
		q.ReviewedByID = change.ReviewedByID
		q.ReviewedAt = change.ReviewedAt
		q.ReviewNote = change.ReviewNote
	}
	if change.SentAt != nil {
		q.SentAt = change.SentAt
	}
	return true, nil
}

func (f *fakeQuotations) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.quotations, id)
	return nil
}

func (f *fakeQuotations) List(_ context.Context, params *repository.QuotationFilterParams) ([]entity.Quotation, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []entity.Quotation
	for _, q := range f.quotations {
		if params.SalespersonID != nil && *params.SalespersonID != q.SalespersonID {
			continue
		}
		if params.Status != nil && *params.Status != q.Status {
			continue
		}
		all = append(all, *f.load(q))
	}
	total := int64(len(all))
	start := params.Pagination.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + params.Pagination.PerPage
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

type fakeCounter struct {
	mu     sync.Mutex
	values map[int]int
}

func (f *fakeCounter) Next(_ context.Context, year int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.values == nil {
		f.values = map[int]int{}
	}
	f.values[year]++
	return f.values[year], nil
}

type fakeAnalytics struct {
	counts  []repository.StatusCount
	total   decimal.Decimal
	people  []repository.SalespersonSummary
	monthly []repository.MonthlyTotal
	err     error

	mu     sync.Mutex
	scopes []*uuid.UUID
}

func (f *fakeAnalytics) record(scope *uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scopes = append(f.scopes, scope)
}

func (f *fakeAnalytics) StatusCounts(_ context.Context, salespersonID *uuid.UUID) ([]repository.StatusCount, error) {
	f.record(salespersonID)
	return f.counts, f.err
}

func (f *fakeAnalytics) ApprovedTotal(_ context.Context, salespersonID *uuid.UUID) (decimal.Decimal, error) {
	f.record(salespersonID)
	return f.total, nil
}

func (f *fakeAnalytics) SalespersonSummaries(_ context.Context) ([]repository.SalespersonSummary, error) {
	return f.people, nil
}

func (f *fakeAnalytics) MonthlyApproved(_ context.Context, salespersonID *uuid.UUID, _ int) ([]repository.MonthlyTotal, error) {
	f.record(salespersonID)
	return f.monthly, nil
}

type fakeRenderer struct {
	err  error
	last *quotedoc.Request
}

func (f *fakeRenderer) Render(_ context.Context, req *quotedoc.Request) (*quotedoc.RenderedDocument, error) {
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return &quotedoc.RenderedDocument{Bytes: []byte("%PDF-1.7 fake"), PageCount: 1}, nil
}

type fakeMailer struct {
	err  error
	sent []*email.QuotationMessage
}

func (f *fakeMailer) SendQuotation(msg *email.QuotationMessage) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

var fixedNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
