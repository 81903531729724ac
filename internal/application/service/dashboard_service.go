package service

import (
	"context"

	"github.com/sangkips/quotation-api/internal/domain/enum"
	"github.com/sangkips/quotation-api/internal/domain/repository"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// DashboardService provides dashboard statistics
type DashboardService struct {
	analyticsRepo repository.AnalyticsRepository
	clientRepo    repository.ClientRepository
	months        int
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(analyticsRepo repository.AnalyticsRepository, clientRepo repository.ClientRepository) *DashboardService {
	return &DashboardService{
		analyticsRepo: analyticsRepo,
		clientRepo:    clientRepo,
		months:        6,
	}
}

// DashboardStats represents dashboard statistics
type DashboardStats struct {
	Role          enum.Role          `json:"role"`
	TotalClients  int64              `json:"total_clients"`
	Draft         int64              `json:"draft"`
	Sent          int64              `json:"sent"`
	Approved      int64              `json:"approved"`
	Rejected      int64              `json:"rejected"`
	ApprovedTotal decimal.Decimal    `json:"approved_total"`
	ApprovalRate  decimal.Decimal    `json:"approval_rate"`
	Monthly       []MonthlyPoint     `json:"monthly"`
	Salespeople   []SalespersonPoint `json:"salespeople,omitempty"`
}

// MonthlyPoint represents approved quotations in one month
type MonthlyPoint struct {
	Month string          `json:"month"`
	Count int64           `json:"count"`
	Total decimal.Decimal `json:"total"`
}

// SalespersonPoint represents one salesperson's pipeline
type SalespersonPoint struct {
	SalespersonID string          `json:"salesperson_id"`
	Name          string          `json:"name"`
	Draft         int64           `json:"draft"`
	Sent          int64           `json:"sent"`
	Approved      int64           `json:"approved"`
	Rejected      int64           `json:"rejected"`
	ApprovedTotal decimal.Decimal `json:"approved_total"`
}

// GetDashboardStats returns statistics scoped to what the actor can see.
// Managers and admins also get the per-salesperson breakdown.
func (s *DashboardService) GetDashboardStats(ctx context.Context, actor Actor) (*DashboardStats, error) {
	stats := &DashboardStats{Role: actor.Role}
	scope := actor.ownerScope()

	var (
		counts  []repository.StatusCount
		monthly []repository.MonthlyTotal
		people  []repository.SalespersonSummary
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.TotalClients, err = s.clientRepo.Count(ctx, scope)
		return err
	})
	g.Go(func() (err error) {
		counts, err = s.analyticsRepo.StatusCounts(ctx, scope)
		return err
	})
	g.Go(func() (err error) {
		stats.ApprovedTotal, err = s.analyticsRepo.ApprovedTotal(ctx, scope)
		return err
	})
	g.Go(func() (err error) {
		monthly, err = s.analyticsRepo.MonthlyApproved(ctx, scope, s.months)
		return err
	})
	if actor.Role.SeesAll() {
		g.Go(func() (err error) {
			people, err = s.analyticsRepo.SalespersonSummaries(ctx)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, c := range counts {
		switch c.Status {
		case enum.QuotationStatusDraft:
			stats.Draft = c.Count
		case enum.QuotationStatusSent:
			stats.Sent = c.Count
		case enum.QuotationStatusApproved:
			stats.Approved = c.Count
		case enum.QuotationStatusRejected:
			stats.Rejected = c.Count
		}
	}
	stats.ApprovalRate = approvalRate(stats.Approved, stats.Rejected)

	stats.Monthly = make([]MonthlyPoint, 0, len(monthly))
	for _, m := range monthly {
		stats.Monthly = append(stats.Monthly, MonthlyPoint{Month: m.Month, Count: m.Count, Total: m.Total})
	}
	for _, p := range people {
		stats.Salespeople = append(stats.Salespeople, SalespersonPoint{
			SalespersonID: p.SalespersonID.String(),
			Name:          p.SalespersonName,
			Draft:         p.Draft,
			Sent:          p.Sent,
			Approved:      p.Approved,
			Rejected:      p.Rejected,
			ApprovedTotal: p.ApprovedTotal,
		})
	}

	return stats, nil
}

// approvalRate is the percentage of reviewed quotations that were approved.
func approvalRate(approved, rejected int64) decimal.Decimal {
	reviewed := approved + rejected
	if reviewed == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(approved).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(reviewed)).
		Round(1)
}
