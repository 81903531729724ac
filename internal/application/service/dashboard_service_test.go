package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/sangkips/quotation-api/internal/domain/entity"
	"github.com/sangkips/quotation-api/internal/domain/enum"
	"github.com/sangkips/quotation-api/internal/domain/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardScopesSalesperson(t *testing.T) {
	me := uuid.New()
	analytics := &fakeAnalytics{
		counts: []repository.StatusCount{
			{Status: enum.QuotationStatusDraft, Count: 2},
			{Status: enum.QuotationStatusApproved, Count: 3},
			{Status: enum.QuotationStatusRejected, Count: 1},
		},
		total:   decimal.RequireFromString("120.500"),
		monthly: []repository.MonthlyTotal{{Month: "2025-03", Count: 3, Total: decimal.RequireFromString("120.500")}},
		people:  []repository.SalespersonSummary{{SalespersonID: uuid.New()}},
	}
	clients := newFakeClients(&entity.Client{SalespersonID: me}, &entity.Client{SalespersonID: uuid.New()})
	svc := NewDashboardService(analytics, clients)

	stats, err := svc.GetDashboardStats(context.Background(), Actor{UserID: me, Role: enum.RoleSalesperson})
	require.NoError(t, err)

	assert.Equal(t, int64(1), stats.TotalClients)
	assert.Equal(t, int64(2), stats.Draft)
	assert.Equal(t, int64(3), stats.Approved)
	assert.Equal(t, "75", stats.ApprovalRate.String())
	assert.Equal(t, "120.5", stats.ApprovedTotal.String())
	require.Len(t, stats.Monthly, 1)
	assert.Nil(t, stats.Salespeople)

	for _, scope := range analytics.scopes {
		require.NotNil(t, scope)
		assert.Equal(t, me, *scope)
	}
}

func TestDashboardManagerSeesEveryone(t *testing.T) {
	analytics := &fakeAnalytics{
		people: []repository.SalespersonSummary{
			{SalespersonID: uuid.New(), SalespersonName: "Asha", Approved: 4, ApprovedTotal: decimal.NewFromInt(40)},
			{SalespersonID: uuid.New(), SalespersonName: "Omar", Sent: 1},
		},
	}
	svc := NewDashboardService(analytics, newFakeClients(&entity.Client{SalespersonID: uuid.New()}))

	stats, err := svc.GetDashboardStats(context.Background(), Actor{UserID: uuid.New(), Role: enum.RoleSalesManager})
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalClients)
	assert.True(t, stats.ApprovalRate.IsZero())
	assert.NotNil(t, stats.Monthly)
	require.Len(t, stats.Salespeople, 2)
	assert.Equal(t, "Asha", stats.Salespeople[0].Name)
	for _, scope := range analytics.scopes {
		assert.Nil(t, scope)
	}
}

func TestDashboardPropagatesErrors(t *testing.T) {
	boom := errors.New("db down")
	svc := NewDashboardService(&fakeAnalytics{err: boom}, newFakeClients())

	_, err := svc.GetDashboardStats(context.Background(), Actor{UserID: uuid.New(), Role: enum.RoleAdmin})
	assert.ErrorIs(t, err, boom)
}
