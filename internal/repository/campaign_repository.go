package repository

import (
	"errors"
	"time"

	"github.com/promo-engine/internal/models"

	"gorm.io/gorm"
)

// CampaignRepository 营销活动数据访问接口
type CampaignRepository interface {
	GetByID(id uint) (*models.Campaign, error)
	FindEligible(now time.Time) ([]models.Campaign, error)
	ListValid() ([]models.Campaign, error)
	Create(campaign *models.Campaign) error
	WithTx(tx *gorm.DB) *GormCampaignRepository
}

// GormCampaignRepository GORM 实现
type GormCampaignRepository struct {
	db *gorm.DB
}

// NewCampaignRepository 创建营销活动仓库
func NewCampaignRepository(db *gorm.DB) *GormCampaignRepository {
	return &GormCampaignRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCampaignRepository) WithTx(tx *gorm.DB) *GormCampaignRepository {
	if tx == nil {
		return r
	}
	return &GormCampaignRepository{db: tx}
}

// GetByID 根据ID获取营销活动（级联加载约束与优惠）
func (r *GormCampaignRepository) GetByID(id uint) (*models.Campaign, error) {
	var campaign models.Campaign
	query := r.db.Preload("Constraints").
		Preload("Discounts").
		Preload("Discounts.Condition").
		Preload("Discounts.FreeCondition").
		Preload("Discounts.Relations")
	if err := query.First(&campaign, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &campaign, nil
}

// FindEligible 获取时间窗口内的有效营销活动
// 排序约定：权重降序，创建时间升序。
func (r *GormCampaignRepository) FindEligible(now time.Time) ([]models.Campaign, error) {
	var campaigns []models.Campaign
	query := r.db.Preload("Constraints").
		Preload("Discounts").
		Preload("Discounts.Condition").
		Preload("Discounts.FreeCondition").
		Preload("Discounts.Relations").
		Where("valid = ?", true).
		Where("start_time <= ? AND end_time >= ?", now, now).
		Order("weight desc, created_at asc, id asc")
	if err := query.Find(&campaigns).Error; err != nil {
		return nil, err
	}
	return campaigns, nil
}

// ListValid 获取全部有效营销活动（不做时间窗过滤，供缓存快照使用）
func (r *GormCampaignRepository) ListValid() ([]models.Campaign, error) {
	var campaigns []models.Campaign
	query := r.db.Preload("Constraints").
		Preload("Discounts").
		Preload("Discounts.Condition").
		Preload("Discounts.FreeCondition").
		Preload("Discounts.Relations").
		Where("valid = ?", true).
		Order("weight desc, created_at asc, id asc")
	if err := query.Find(&campaigns).Error; err != nil {
		return nil, err
	}
	return campaigns, nil
}

// Create 创建营销活动
func (r *GormCampaignRepository) Create(campaign *models.Campaign) error {
	return r.db.Create(campaign).Error
}
