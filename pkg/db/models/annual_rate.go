package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AnnualRate is the record stub's yearly price/fee row.
type AnnualRate struct {
	ID             int64           `gorm:"primaryKey;autoIncrement"`
	PropertyID     int64           `gorm:"not null;index"`
	Year           int64           `gorm:"not null"`
	Rate           decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Fee            decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Status         string          `gorm:"not null;default:'draft'"`
	ApprovedByID   *int64
	ApprovedByName string `gorm:"not null;default:''"`
	ApprovedAt     *time.Time
	CreatedAt      time.Time `gorm:"autoCreateTime"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime"`
}

func (AnnualRate) TableName() string { return "annual_rates" }
