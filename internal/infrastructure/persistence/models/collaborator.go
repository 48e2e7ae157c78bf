package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// The models below belong to neighbouring services. Only the columns that
// take part in integrity checks are mapped.

// ProductModel maps products
type ProductModel struct {
	BaseModel
	Name string `gorm:"type:varchar(200);not null"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string { return "products" }

// OrderModel maps orders
type OrderModel struct {
	BaseModel
	ShopID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Total  decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string { return "orders" }

// OrderItemModel maps order_items
type OrderItemModel struct {
	BaseModel
	OrderID   uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index"`
	Quantity  int       `gorm:"not null;default:1"`
}

// TableName returns the table name for GORM
func (OrderItemModel) TableName() string { return "order_items" }

// CRMCardModel maps crm_cards
type CRMCardModel struct {
	BaseModel
	KOLID  uuid.UUID `gorm:"column:kol_id;type:uuid;not null;index"`
	ShopID uuid.UUID `gorm:"type:uuid;not null;index"`
}

// TableName returns the table name for GORM
func (CRMCardModel) TableName() string { return "crm_cards" }

// SelfGrowthCardModel maps self_growth_cards
type SelfGrowthCardModel struct {
	BaseModel
	ShopID uuid.UUID `gorm:"type:uuid;not null;index"`
}

// TableName returns the table name for GORM
func (SelfGrowthCardModel) TableName() string { return "self_growth_cards" }

// ClinicalCaseModel maps clinical_cases
type ClinicalCaseModel struct {
	BaseModel
	ShopID uuid.UUID `gorm:"type:uuid;not null;index"`
}

// TableName returns the table name for GORM
func (ClinicalCaseModel) TableName() string { return "clinical_cases" }

// ClinicalPhotoModel maps clinical_photos
type ClinicalPhotoModel struct {
	BaseModel
	ClinicalCaseID uuid.UUID `gorm:"type:uuid;not null;index"`
}

// TableName returns the table name for GORM
func (ClinicalPhotoModel) TableName() string { return "clinical_photos" }

// ConsentFileModel maps consent_files
type ConsentFileModel struct {
	BaseModel
	ClinicalCaseID uuid.UUID `gorm:"type:uuid;not null;index"`
}

// TableName returns the table name for GORM
func (ConsentFileModel) TableName() string { return "consent_files" }

// NotificationModel maps notifications
type NotificationModel struct {
	BaseModel
	UserID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Message string    `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (NotificationModel) TableName() string { return "notifications" }

// AuditLogModel maps audit_logs. UserID may point at a deleted profile.
type AuditLogModel struct {
	BaseModel
	UserID *uuid.UUID `gorm:"type:uuid;index"`
	Action string     `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (AuditLogModel) TableName() string { return "audit_logs" }

// All returns every model, in dependency order, for AutoMigrate in tests and
// local sqlite setups.
func All() []any {
	return []any{
		&ProfileModel{},
		&RelationshipModel{},
		&AccumulatorModel{},
		&DeviceSaleModel{},
		&CommissionEntryModel{},
		&ProductModel{},
		&OrderModel{},
		&OrderItemModel{},
		&CRMCardModel{},
		&SelfGrowthCardModel{},
		&ClinicalCaseModel{},
		&ClinicalPhotoModel{},
		&ConsentFileModel{},
		&NotificationModel{},
		&AuditLogModel{},
	}
}
