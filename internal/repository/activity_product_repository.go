package repository

import (
	"errors"

	"github.com/promo-engine/internal/models"

	"gorm.io/gorm"
)

// ActivityProductRepository 活动商品配置数据访问接口
type ActivityProductRepository interface {
	GetByActivityProduct(activityID, productID uint) (*models.ActivityProduct, error)
	ListByActivity(activityID uint) ([]models.ActivityProduct, error)
	Create(record *models.ActivityProduct) error
	WithTx(tx *gorm.DB) *GormActivityProductRepository
}

// GormActivityProductRepository GORM 实现
type GormActivityProductRepository struct {
	db *gorm.DB
}

// NewActivityProductRepository 创建活动商品仓库
func NewActivityProductRepository(db *gorm.DB) *GormActivityProductRepository {
	return &GormActivityProductRepository{db: db}
}

// WithTx 绑定事务
func (r *GormActivityProductRepository) WithTx(tx *gorm.DB) *GormActivityProductRepository {
	if tx == nil {
		return r
	}
	return &GormActivityProductRepository{db: tx}
}

// GetByActivityProduct 获取活动下指定商品的配置
func (r *GormActivityProductRepository) GetByActivityProduct(activityID, productID uint) (*models.ActivityProduct, error) {
	var record models.ActivityProduct
	err := r.db.Where("activity_id = ? AND product_id = ?", activityID, productID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// ListByActivity 获取活动全部商品配置
func (r *GormActivityProductRepository) ListByActivity(activityID uint) ([]models.ActivityProduct, error) {
	var records []models.ActivityProduct
	if err := r.db.Where("activity_id = ?", activityID).Order("id asc").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// Create 创建活动商品配置
func (r *GormActivityProductRepository) Create(record *models.ActivityProduct) error {
	return r.db.Create(record).Error
}
