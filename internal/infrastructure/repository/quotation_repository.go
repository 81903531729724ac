package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sangkips/quotation-api/internal/domain/entity"
	"github.com/sangkips/quotation-api/internal/domain/enum"
	domainRepo "github.com/sangkips/quotation-api/internal/domain/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var quotationSortColumns = map[string]string{
	"created_at":  "quotations.created_at",
	"issue_date":  "quotations.issue_date",
	"number":      "quotations.number",
	"grand_total": "quotations.grand_total",
	"status":      "quotations.status",
}

type quotationRepository struct {
	db *gorm.DB
}

// NewQuotationRepository creates a new quotation repository
func NewQuotationRepository(db *gorm.DB) domainRepo.QuotationRepository {
	return &quotationRepository{db: db}
}

func (r *quotationRepository) Create(ctx context.Context, quotation *entity.Quotation) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(quotation).Error; err != nil {
			return err
		}
		return createItems(tx, quotation)
	})
}

func (r *quotationRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Quotation, error) {
	var quotation entity.Quotation
	err := r.db.WithContext(ctx).
		Preload("Client").
		First(&quotation, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &quotation, err
}

func (r *quotationRepository) GetByNumber(ctx context.Context, number string) (*entity.Quotation, error) {
	var quotation entity.Quotation
	err := r.db.WithContext(ctx).First(&quotation, "number = ?", number).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &quotation, err
}

func (r *quotationRepository) GetWithItems(ctx context.Context, id uuid.UUID) (*entity.Quotation, error) {
	var quotation entity.Quotation
	err := r.db.WithContext(ctx).
		Preload("Client").
		Preload("Salesperson").
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&quotation, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &quotation, err
}

// errNotDraft rolls the update transaction back when the quotation left draft.
var errNotDraft = errors.New("quotation is no longer a draft")

func (r *quotationRepository) Update(ctx context.Context, quotation *entity.Quotation) (bool, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(quotation).
			Where("status = ?", enum.QuotationStatusDraft).
			Select("ClientID", "IssueDate", "IntroText", "ClosingText", "Validity", "Delivery",
				"PaymentTerms", "Warranty", "Shipping", "Currency", "Subtotal", "VAT", "GrandTotal", "UpdatedAt").
			Updates(quotation)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return errNotDraft
		}
		if err := tx.Where("quotation_id = ?", quotation.ID).Delete(&entity.QuotationItem{}).Error; err != nil {
			return err
		}
		return createItems(tx, quotation)
	})
	if errors.Is(err, errNotDraft) {
		return false, nil
	}
	return err == nil, err
}

func createItems(tx *gorm.DB, quotation *entity.Quotation) error {
	if len(quotation.Items) == 0 {
		return nil
	}
	for i := range quotation.Items {
		quotation.Items[i].ID = uuid.Nil
		quotation.Items[i].QuotationID = quotation.ID
		quotation.Items[i].Position = i + 1
	}
	return tx.Omit("Product").Create(&quotation.Items).Error
}

func (r *quotationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from enum.QuotationStatus, change domainRepo.StatusChange) (bool, error) {
	updates := map[string]interface{}{"status": change.Status}
	if change.ReviewedByID != nil {
		updates["reviewed_by_id"] = *change.ReviewedByID
	}
	if change.ReviewedAt != nil {
		updates["reviewed_at"] = *change.ReviewedAt
	}
	if change.ReviewNote != nil {
		updates["review_note"] = *change.ReviewNote
	}
	if change.SentAt != nil {
		updates["sent_at"] = *change.SentAt
	}

	res := r.db.WithContext(ctx).Model(&entity.Quotation{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	return res.RowsAffected == 1, res.Error
}

func (r *quotationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quotation_id = ?", id).Delete(&entity.QuotationItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&entity.Quotation{}, "id = ?", id).Error
	})
}

func (r *quotationRepository) List(ctx context.Context, params *domainRepo.QuotationFilterParams) ([]entity.Quotation, int64, error) {
	var quotations []entity.Quotation
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Quotation{}).
		Joins("LEFT JOIN clients ON clients.id = quotations.client_id")

	if params.SalespersonID != nil {
		query = query.Where("quotations.salesperson_id = ?", *params.SalespersonID)
	}

	if params.Search != "" {
		query = query.Where("quotations.number ILIKE ? OR clients.company ILIKE ? OR clients.name ILIKE ?",
			"%"+params.Search+"%", "%"+params.Search+"%", "%"+params.Search+"%")
	}

	if params.Status != nil {
		query = query.Where("quotations.status = ?", *params.Status)
	}

	if params.ClientID != nil {
		query = query.Where("quotations.client_id = ?", *params.ClientID)
	}

	if params.From != nil {
		query = query.Where("quotations.issue_date >= ?", *params.From)
	}
	if params.To != nil {
		query = query.Where("quotations.issue_date <= ?", *params.To)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortBy := "quotations.created_at"
	if col, ok := quotationSortColumns[params.SortBy]; ok {
		sortBy = col
	}
	sortOrder := "DESC"
	if params.SortOrder == "ASC" || params.SortOrder == "asc" {
		sortOrder = "ASC"
	}

	params.Pagination.Validate()
	err := query.Offset(params.Pagination.Offset()).Limit(params.Pagination.PerPage).
		Preload("Client").
		Preload("Salesperson").
		Preload("Items").
		Order(sortBy + " " + sortOrder).
		Find(&quotations).Error

	return quotations, total, err
}

type counterRepository struct {
	db *gorm.DB
}

// NewCounterRepository creates a new quotation counter repository
func NewCounterRepository(db *gorm.DB) domainRepo.CounterRepository {
	return &counterRepository{db: db}
}

// Next locks the year's row for the rest of the transaction, so two callers
// serialize on it instead of reading the same value.
func (r *counterRepository) Next(ctx context.Context, year int) (int, error) {
	var next int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seed := entity.QuotationCounter{Year: year}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
			return err
		}

		var counter entity.QuotationCounter
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&counter, "year = ?", year).Error; err != nil {
			return err
		}

		counter.Value++
		if err := tx.Model(&entity.QuotationCounter{}).
			Where("year = ?", year).
			Update("value", counter.Value).Error; err != nil {
			return err
		}
		next = counter.Value
		return nil
	})
	return next, err
}
