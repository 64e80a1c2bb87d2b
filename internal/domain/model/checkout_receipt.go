package model

import "time"

// 模擬チェックアウトの記録（受付票）。
// 決済はしないのでカード番号は保存しない。
type CheckoutReceipt struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"-"`
	Number    string `gorm:"type:varchar(36);not null;uniqueIndex" json:"number"`
	SessionID string `gorm:"type:varchar(36);not null;index" json:"session_id"`

	Email    string `gorm:"type:varchar(255);not null" json:"email"`
	ShipName string `gorm:"type:varchar(255);not null" json:"ship_name"`
	Address  string `gorm:"type:varchar(255);not null" json:"address"`
	City     string `gorm:"type:varchar(255);not null" json:"city"`
	State    string `gorm:"type:varchar(100)" json:"state"`
	ZipCode  string `gorm:"type:varchar(20);not null" json:"zip_code"`
	Country  string `gorm:"type:varchar(100);not null" json:"country"`

	//金額はすべてセント
	Subtotal  int64 `gorm:"not null" json:"-"`
	Tax       int64 `gorm:"not null" json:"-"`
	Total     int64 `gorm:"not null" json:"-"`
	ItemCount int64 `gorm:"not null" json:"item_count"`

	CreatedAt time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	Lines     []CheckoutLine `gorm:"foreignKey:ReceiptID;constraint:OnDelete:CASCADE" json:"-"`
}

func (CheckoutReceipt) TableName() string { return "checkout_receipts" }
