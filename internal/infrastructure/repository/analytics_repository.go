package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/quotation-api/internal/domain/enum"
	domainRepo "github.com/sangkips/quotation-api/internal/domain/repository"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type analyticsRepository struct {
	db *gorm.DB
}

// NewAnalyticsRepository creates a new analytics repository
func NewAnalyticsRepository(db *gorm.DB) domainRepo.AnalyticsRepository {
	return &analyticsRepository{db: db}
}

func (r *analyticsRepository) StatusCounts(ctx context.Context, salespersonID *uuid.UUID) ([]domainRepo.StatusCount, error) {
	var results []domainRepo.StatusCount

	err := r.db.WithContext(ctx).
		Table("quotations").
		Select("status, COUNT(*) AS count").
		Where("deleted_at IS NULL").
		Scopes(OwnedBy(salespersonID)).
		Group("status").
		Order("status").
		Scan(&results).Error

	return results, err
}

func (r *analyticsRepository) ApprovedTotal(ctx context.Context, salespersonID *uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal

	err := r.db.WithContext(ctx).
		Table("quotations").
		Select("COALESCE(SUM(grand_total), 0)").
		Where("deleted_at IS NULL AND status = ?", enum.QuotationStatusApproved).
		Scopes(OwnedBy(salespersonID)).
		Scan(&total).Error

	return total, err
}

func (r *analyticsRepository) SalespersonSummaries(ctx context.Context) ([]domainRepo.SalespersonSummary, error) {
	var results []domainRepo.SalespersonSummary

	err := r.db.WithContext(ctx).Raw(`
		SELECT
			u.id AS salesperson_id,
			u.full_name AS salesperson_name,
			COUNT(q.id) FILTER (WHERE q.status = ?) AS draft,
			COUNT(q.id) FILTER (WHERE q.status = ?) AS sent,
			COUNT(q.id) FILTER (WHERE q.status = ?) AS approved,
			COUNT(q.id) FILTER (WHERE q.status = ?) AS rejected,
			COALESCE(SUM(q.grand_total) FILTER (WHERE q.status = ?), 0) AS approved_total
		FROM users u
		LEFT JOIN quotations q ON q.salesperson_id = u.id AND q.deleted_at IS NULL
		WHERE u.role = ? AND u.deleted_at IS NULL
		GROUP BY u.id, u.full_name
		ORDER BY approved_total DESC, u.full_name ASC
	`,
		enum.QuotationStatusDraft,
		enum.QuotationStatusSent,
		enum.QuotationStatusApproved,
		enum.QuotationStatusRejected,
		enum.QuotationStatusApproved,
		enum.RoleSalesperson,
	).Scan(&results).Error

	return results, err
}

func (r *analyticsRepository) MonthlyApproved(ctx context.Context, salespersonID *uuid.UUID, months int) ([]domainRepo.MonthlyTotal, error) {
	var results []domainRepo.MonthlyTotal

	now := time.Now()
	since := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -(months - 1), 0)

	err := r.db.WithContext(ctx).
		Table("quotations").
		Select("to_char(date_trunc('month', issue_date), 'YYYY-MM') AS month, COUNT(*) AS count, COALESCE(SUM(grand_total), 0) AS total").
		Where("deleted_at IS NULL AND status = ? AND issue_date >= ?", enum.QuotationStatusApproved, since).
		Scopes(OwnedBy(salespersonID)).
		Group("month").
		Order("month").
		Scan(&results).Error

	return results, err
}
