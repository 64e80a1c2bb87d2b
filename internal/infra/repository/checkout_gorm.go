package repository

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type CheckoutGormRepository struct {
	db *gorm.DB
}

// DI
func NewCheckoutGormRepository(db *gorm.DB) *CheckoutGormRepository {
	return &CheckoutGormRepository{db: db}
}

// 受付票と明細をトランザクションでまとめて保存
func (r *CheckoutGormRepository) Create(ctx context.Context, receipt *model.CheckoutReceipt) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lines := receipt.Lines

		if err := tx.Omit("Lines").Create(receipt).Error; err != nil {
			return err
		}

		if len(lines) == 0 {
			return nil
		}
		for i := range lines {
			lines[i].ReceiptID = receipt.ID
		}
		if err := tx.Create(&lines).Error; err != nil {
			return err
		}

		receipt.Lines = lines
		return nil
	})
}

// 受付番号で取得（明細つき）
func (r *CheckoutGormRepository) FindByNumber(ctx context.Context, number string) (model.CheckoutReceipt, error) {
	var receipt model.CheckoutReceipt

	err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("id asc")
		}).
		Where("number = ?", number).
		First(&receipt).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.CheckoutReceipt{}, repo.ErrNotFound
	}
	if err != nil {
		return model.CheckoutReceipt{}, err
	}
	return receipt, nil
}
