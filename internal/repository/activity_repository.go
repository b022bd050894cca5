package repository

import (
	"errors"
	"time"

	"github.com/promo-engine/internal/models"

	"gorm.io/gorm"
)

// ActivityRepository 限时活动数据访问接口
type ActivityRepository interface {
	GetByID(id uint) (*models.TimeLimitActivity, error)
	FindActiveForProducts(productIDs []uint, now time.Time) ([]models.TimeLimitActivity, error)
	ListValid(offset, limit int) ([]models.TimeLimitActivity, error)
	UpdateStatus(id uint, status string) error
	Create(activity *models.TimeLimitActivity) error
	WithTx(tx *gorm.DB) *GormActivityRepository
}

// GormActivityRepository GORM 实现
type GormActivityRepository struct {
	db *gorm.DB
}

// NewActivityRepository 创建限时活动仓库
func NewActivityRepository(db *gorm.DB) *GormActivityRepository {
	return &GormActivityRepository{db: db}
}

// WithTx 绑定事务
func (r *GormActivityRepository) WithTx(tx *gorm.DB) *GormActivityRepository {
	if tx == nil {
		return r
	}
	return &GormActivityRepository{db: tx}
}

// GetByID 根据ID获取活动
func (r *GormActivityRepository) GetByID(id uint) (*models.TimeLimitActivity, error) {
	var activity models.TimeLimitActivity
	query := r.db.Preload("Products").Preload("Rules")
	if err := query.First(&activity, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &activity, nil
}

// FindActiveForProducts 获取命中商品的候选活动
// 时间窗口（含预热期）在 SQL 过滤，商品归属在内存判定（product_ids 为 JSON 列）。
// 排序约定：优先级降序，创建时间升序。
func (r *GormActivityRepository) FindActiveForProducts(productIDs []uint, now time.Time) ([]models.TimeLimitActivity, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	var activities []models.TimeLimitActivity
	query := r.db.Preload("Products").Preload("Rules").
		Where("valid = ?", true).
		Where(
			r.db.Where("start_time <= ? AND end_time >= ?", now, now).
				Or("preheat_enabled = ? AND preheat_start_time IS NOT NULL AND preheat_start_time <= ? AND start_time > ?", true, now, now),
		).
		Order("priority desc, created_at asc, id asc")
	if err := query.Find(&activities).Error; err != nil {
		return nil, err
	}

	wanted := make(map[uint]struct{}, len(productIDs))
	for _, id := range productIDs {
		wanted[id] = struct{}{}
	}
	matched := make([]models.TimeLimitActivity, 0, len(activities))
	for _, activity := range activities {
		for _, productID := range activity.ProductIDs {
			if _, ok := wanted[productID]; ok {
				matched = append(matched, activity)
				break
			}
		}
	}
	return matched, nil
}

// ListValid 分页获取有效活动（状态同步任务使用）
func (r *GormActivityRepository) ListValid(offset, limit int) ([]models.TimeLimitActivity, error) {
	var activities []models.TimeLimitActivity
	query := r.db.Where("valid = ?", true).Order("id asc")
	if limit > 0 {
		query = query.Limit(limit).Offset(offset)
	}
	if err := query.Find(&activities).Error; err != nil {
		return nil, err
	}
	return activities, nil
}

// UpdateStatus 更新活动持久化状态
func (r *GormActivityRepository) UpdateStatus(id uint, status string) error {
	return r.db.Model(&models.TimeLimitActivity{}).
		Where("id = ?", id).
		UpdateColumn("status", status).Error
}

// Create 创建活动
func (r *GormActivityRepository) Create(activity *models.TimeLimitActivity) error {
	return r.db.Create(activity).Error
}
