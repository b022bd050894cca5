package models

import (
	"time"

	"gorm.io/gorm"
)

// Campaign 营销活动（约束与优惠的容器，不直接绑定商品）
type Campaign struct {
	ID        uint           `gorm:"primarykey" json:"id"`                     // 主键
	Title     string         `gorm:"not null" json:"title"`                    // 活动标题
	StartTime time.Time      `gorm:"index;not null" json:"start_time"`         // 开始时间
	EndTime   time.Time      `gorm:"index;not null" json:"end_time"`           // 结束时间
	Exclusive bool           `gorm:"not null;default:false" json:"exclusive"`  // 是否互斥
	Weight    int            `gorm:"not null;default:0" json:"weight"`         // 权重（大者优先）
	Valid     bool           `gorm:"index;not null;default:true" json:"valid"` // 有效标记
	CreatedAt time.Time      `gorm:"index" json:"created_at"`                  // 创建时间
	UpdatedAt time.Time      `json:"updated_at"`                               // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                           // 软删除时间

	Constraints []Constraint `gorm:"foreignKey:CampaignID" json:"constraints,omitempty"` // 参与约束（全部需满足）
	Discounts   []Discount   `gorm:"foreignKey:CampaignID" json:"discounts,omitempty"`   // 优惠规则
}

// TableName 指定表名
func (Campaign) TableName() string {
	return "campaigns"
}

// Constraint 营销活动参与约束
type Constraint struct {
	ID          uint      `gorm:"primarykey" json:"id"`                 // 主键
	CampaignID  uint      `gorm:"index;not null" json:"campaign_id"`    // 所属营销活动ID
	CompareType string    `gorm:"not null" json:"compare_type"`         // 比较方式（equal/not_equal/gte/lte/in/not_in）
	LimitType   string    `gorm:"not null" json:"limit_type"`           // 限制维度（order_price/.../sku_per_quantity）
	RangeValue  string    `gorm:"not null;default:''" json:"range_value"` // 阈值（标量或逗号分隔列表）
	CreatedAt   time.Time `json:"created_at"`                           // 创建时间
}

// TableName 指定表名
func (Constraint) TableName() string {
	return "campaign_constraints"
}
