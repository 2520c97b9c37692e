package models

import "time"

// TenantRequest is the record stub's lease application row.
type TenantRequest struct {
	ID          int64              `gorm:"primaryKey;autoIncrement"`
	PropertyID  int64              `gorm:"not null;default:0"`
	TenantName  string             `gorm:"not null"`
	Email       string             `gorm:"not null;default:''"`
	Phone       string             `gorm:"not null;default:''"`
	Status      string             `gorm:"not null;default:'pending'"`
	CreatedAt   time.Time          `gorm:"autoCreateTime"`
	UpdatedAt   time.Time          `gorm:"autoUpdateTime"`
	Attachments []TenantAttachment `gorm:"foreignKey:TenantRequestID"`
}

func (TenantRequest) TableName() string { return "tenant_requests" }

// TenantAttachment is one submitted document.
type TenantAttachment struct {
	ID              int64     `gorm:"primaryKey;autoIncrement"`
	TenantRequestID int64     `gorm:"not null;index"`
	Category        string    `gorm:"not null"`
	URL             string    `gorm:"column:url;not null;default:''"`
	Status          string    `gorm:"not null;default:'pending'"`
	Note            string    `gorm:"not null;default:''"`
	CreatedAt       time.Time `gorm:"autoCreateTime"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime"`
}

func (TenantAttachment) TableName() string { return "tenant_attachments" }
