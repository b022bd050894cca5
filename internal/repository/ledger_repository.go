package repository

import (
	"github.com/promo-engine/internal/models"

	"gorm.io/gorm"
)

// LedgerRepository 配额/库存台账数据访问接口
// 所有 Reserve 操作都是带守卫条件的单语句更新：容量不足时不产生任何副作用，
// 返回 false；Release 操作向下扣减并保底为 0。
type LedgerRepository interface {
	ReserveActivityTotal(activityID uint, amount int) (bool, error)
	ReleaseActivityTotal(activityID uint, amount int) error
	ReserveActivityStock(activityID, productID uint, amount int) (bool, error)
	ReleaseActivityStock(activityID, productID uint, amount int) error
	ReserveDiscountQuota(discountID uint, amount int) (bool, error)
	ReleaseDiscountQuota(discountID uint, amount int) error
	ReserveRelationQuota(relationID uint, amount int) (bool, error)
	ReleaseRelationQuota(relationID uint, amount int) error
	WithTx(tx *gorm.DB) *GormLedgerRepository
}

// GormLedgerRepository GORM 实现
type GormLedgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository 创建台账仓库
func NewLedgerRepository(db *gorm.DB) *GormLedgerRepository {
	return &GormLedgerRepository{db: db}
}

// WithTx 绑定事务
func (r *GormLedgerRepository) WithTx(tx *gorm.DB) *GormLedgerRepository {
	if tx == nil {
		return r
	}
	return &GormLedgerRepository{db: tx}
}

// ReserveActivityTotal 预占活动总参与量，total_limit 为空表示不限量
func (r *GormLedgerRepository) ReserveActivityTotal(activityID uint, amount int) (bool, error) {
	if amount <= 0 {
		return true, nil
	}
	result := r.db.Model(&models.TimeLimitActivity{}).
		Where("id = ?", activityID).
		Where("total_limit IS NULL OR sold_quantity + ? <= total_limit", amount).
		UpdateColumn("sold_quantity", gorm.Expr("sold_quantity + ?", amount))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ReleaseActivityTotal 释放活动总参与量（保底为 0）
func (r *GormLedgerRepository) ReleaseActivityTotal(activityID uint, amount int) error {
	return r.releaseCounter(&models.TimeLimitActivity{}, "sold_quantity", amount, "id = ?", activityID)
}

// ReserveActivityStock 预占活动商品库存
func (r *GormLedgerRepository) ReserveActivityStock(activityID, productID uint, amount int) (bool, error) {
	if amount <= 0 {
		return true, nil
	}
	result := r.db.Model(&models.ActivityProduct{}).
		Where("activity_id = ? AND product_id = ?", activityID, productID).
		Where("sold_quantity + ? <= activity_stock", amount).
		UpdateColumn("sold_quantity", gorm.Expr("sold_quantity + ?", amount))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ReleaseActivityStock 释放活动商品库存（保底为 0）
func (r *GormLedgerRepository) ReleaseActivityStock(activityID, productID uint, amount int) error {
	return r.releaseCounter(&models.ActivityProduct{}, "sold_quantity", amount, "activity_id = ? AND product_id = ?", activityID, productID)
}

// ReserveDiscountQuota 预占优惠参与配额，未开启限制时仅累计计数
func (r *GormLedgerRepository) ReserveDiscountQuota(discountID uint, amount int) (bool, error) {
	if amount <= 0 {
		return true, nil
	}
	result := r.db.Model(&models.Discount{}).
		Where("id = ?", discountID).
		Where("is_limited = ? OR number + ? <= quota", false, amount).
		UpdateColumn("number", gorm.Expr("number + ?", amount))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ReleaseDiscountQuota 释放优惠参与配额（保底为 0）
func (r *GormLedgerRepository) ReleaseDiscountQuota(discountID uint, amount int) error {
	return r.releaseCounter(&models.Discount{}, "number", amount, "id = ?", discountID)
}

// ReserveRelationQuota 预占赠品/加价购配额，total 为 0 表示不限量
func (r *GormLedgerRepository) ReserveRelationQuota(relationID uint, amount int) (bool, error) {
	if amount <= 0 {
		return true, nil
	}
	result := r.db.Model(&models.ProductRelation{}).
		Where("id = ?", relationID).
		Where("total = 0 OR used_count + ? <= total", amount).
		UpdateColumn("used_count", gorm.Expr("used_count + ?", amount))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ReleaseRelationQuota 释放赠品/加价购配额（保底为 0）
func (r *GormLedgerRepository) ReleaseRelationQuota(relationID uint, amount int) error {
	return r.releaseCounter(&models.ProductRelation{}, "used_count", amount, "id = ?", relationID)
}

// releaseCounter 扣减计数列：足额时整量扣减，不足额时清零
func (r *GormLedgerRepository) releaseCounter(model interface{}, column string, amount int, cond string, args ...interface{}) error {
	if amount <= 0 {
		return nil
	}
	result := r.db.Model(model).
		Where(cond, args...).
		Where(column+" >= ?", amount).
		UpdateColumn(column, gorm.Expr(column+" - ?", amount))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}
	return r.db.Model(model).
		Where(cond, args...).
		UpdateColumn(column, 0).Error
}
