package persistence

import (
	"context"

	"github.com/kolnet/backend/internal/domain/device"
	"github.com/kolnet/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormDeviceSaleRepository implements device.SaleRepository using GORM
type GormDeviceSaleRepository struct {
	db *gorm.DB
}

// NewGormDeviceSaleRepository creates a new GormDeviceSaleRepository
func NewGormDeviceSaleRepository(db *gorm.DB) *GormDeviceSaleRepository {
	return &GormDeviceSaleRepository{db: db}
}

// Create appends a ledger row
func (r *GormDeviceSaleRepository) Create(ctx context.Context, s *device.Sale) error {
	return translateError(r.db.WithContext(ctx).Create(models.DeviceSaleModelFromDomain(s)).Error, "device sale")
}

// List returns the newest rows matching filter
func (r *GormDeviceSaleRepository) List(ctx context.Context, filter device.SaleFilter) ([]device.Sale, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	query := r.saleDateRange(r.db.WithContext(ctx).Model(&models.DeviceSaleModel{}), filter)
	if filter.ShopID != nil {
		query = query.Where("shop_id = ?", *filter.ShopID)
	}

	var rows []models.DeviceSaleModel
	if err := query.Order("sale_date DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, translateError(err, "device sale")
	}
	out := make([]device.Sale, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// Summarize totals sold and returned units, commission and distinct shops in
// one aggregate query
func (r *GormDeviceSaleRepository) Summarize(ctx context.Context, filter device.SaleFilter) (device.SaleSummary, error) {
	var row struct {
		TotalSold       int64
		TotalReturned   int64
		TotalCommission decimal.Decimal
		Shops           int64
	}
	err := r.saleDateRange(r.db.WithContext(ctx).Model(&models.DeviceSaleModel{}), filter).
		Select(`COALESCE(SUM(CASE WHEN quantity > 0 THEN quantity ELSE 0 END), 0) AS total_sold,
			COALESCE(SUM(CASE WHEN quantity < 0 THEN -quantity ELSE 0 END), 0) AS total_returned,
			COALESCE(SUM(actual_commission), 0) AS total_commission,
			COUNT(DISTINCT shop_id) AS shops`).
		Scan(&row).Error
	if err != nil {
		return device.SaleSummary{}, translateError(err, "device sale")
	}
	return device.SaleSummary{
		TotalSold:       row.TotalSold,
		TotalReturned:   row.TotalReturned,
		TotalCommission: row.TotalCommission,
		Shops:           row.Shops,
	}, nil
}

func (r *GormDeviceSaleRepository) saleDateRange(q *gorm.DB, filter device.SaleFilter) *gorm.DB {
	if filter.From != nil {
		q = q.Where("sale_date >= ?", filter.From.UTC())
	}
	if filter.To != nil {
		q = q.Where("sale_date <= ?", filter.To.UTC())
	}
	return q
}

var _ device.SaleRepository = (*GormDeviceSaleRepository)(nil)
