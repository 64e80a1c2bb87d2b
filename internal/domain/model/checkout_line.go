package model

import "time"

// 受付票の明細（チェックアウト時点のスナップショット）
type CheckoutLine struct {
	ID                  int64     `gorm:"primaryKey;autoIncrement"`
	ReceiptID           int64     `gorm:"not null;index"`
	ProductID           int64     `gorm:"not null"`
	ProductNameSnapshot string    `gorm:"type:varchar(255);not null"`
	UnitPriceSnapshot   int64     `gorm:"not null"`
	Quantity            int64     `gorm:"not null"`
	LineTotal           int64     `gorm:"not null"`
	CreatedAt           time.Time `gorm:"not null;autoCreateTime"`
}

func (CheckoutLine) TableName() string { return "checkout_lines" }
