package recordstub

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/leasedesk-backend/pkg/db/models"
	"github.com/angelmondragon/leasedesk-backend/pkg/pagination"
)

// Repository exposes the record stub's persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// CreateRequest inserts a tenant request along with its attachments.
func (r *Repository) CreateRequest(ctx context.Context, request *models.TenantRequest) (*models.TenantRequest, error) {
	if err := r.db.WithContext(ctx).Create(request).Error; err != nil {
		return nil, err
	}
	return request, nil
}

// FindRequest loads a tenant request with its attachments in submission order.
func (r *Repository) FindRequest(ctx context.Context, id int64) (*models.TenantRequest, error) {
	var request models.TenantRequest
	err := r.db.WithContext(ctx).
		Preload("Attachments", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&request, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// UpdateCategory sets status and note on every attachment of one category.
func (r *Repository) UpdateCategory(ctx context.Context, requestID int64, category, status, note string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.TenantAttachment{}).
		Where("tenant_request_id = ? AND category = ?", requestID, category).
		Updates(map[string]any{"status": status, "note": note, "updated_at": time.Now().UTC()})
	return res.RowsAffected, res.Error
}

// UpdateRequestStatus moves a request to a new status.
func (r *Repository) UpdateRequestStatus(ctx context.Context, id int64, status string) error {
	return r.db.WithContext(ctx).
		Model(&models.TenantRequest{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": time.Now().UTC()}).Error
}

// CreateRate inserts an annual rate.
func (r *Repository) CreateRate(ctx context.Context, rate *models.AnnualRate) (*models.AnnualRate, error) {
	if err := r.db.WithContext(ctx).Create(rate).Error; err != nil {
		return nil, err
	}
	return rate, nil
}

type rateFilter struct {
	propertyID int64
	year       int64
	page       pagination.Params
}

func (f rateFilter) apply(query *gorm.DB) *gorm.DB {
	if f.propertyID > 0 {
		query = query.Where("property_id = ?", f.propertyID)
	}
	if f.year > 0 {
		query = query.Where("year = ?", f.year)
	}
	return query
}

// ListRates returns one page of rates, newest year first, and the total row count.
func (r *Repository) ListRates(ctx context.Context, filter rateFilter) ([]models.AnnualRate, int64, error) {
	var total int64
	if err := filter.apply(r.db.WithContext(ctx).Model(&models.AnnualRate{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.page.Normalize()
	var rows []models.AnnualRate
	err := filter.apply(r.db.WithContext(ctx).Model(&models.AnnualRate{})).
		Order("year DESC").Order("id ASC").
		Offset(page.Offset()).Limit(page.PerPage).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// RateYears lists the distinct years on record, newest first. propertyID zero means all.
func (r *Repository) RateYears(ctx context.Context, propertyID int64) ([]int64, error) {
	query := r.db.WithContext(ctx).Model(&models.AnnualRate{})
	if propertyID > 0 {
		query = query.Where("property_id = ?", propertyID)
	}
	var years []int64
	if err := query.Distinct("year").Order("year DESC").Pluck("year", &years).Error; err != nil {
		return nil, err
	}
	return years, nil
}

// FindRate loads one rate scoped to its property.
func (r *Repository) FindRate(ctx context.Context, propertyID, rateID int64) (*models.AnnualRate, error) {
	var rate models.AnnualRate
	err := r.db.WithContext(ctx).First(&rate, "id = ? AND property_id = ?", rateID, propertyID).Error
	if err != nil {
		return nil, err
	}
	return &rate, nil
}

// MarkRateApproved records the approval on a rate row.
func (r *Repository) MarkRateApproved(ctx context.Context, rateID int64, approverID int64, approverName string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.AnnualRate{}).
		Where("id = ?", rateID).
		Updates(map[string]any{
			"status":           "approved",
			"approved_by_id":   approverID,
			"approved_by_name": approverName,
			"approved_at":      at,
			"updated_at":       at,
		}).Error
}
