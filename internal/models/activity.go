package models

import (
	"time"

	"gorm.io/gorm"
)

// TimeLimitActivity 限时活动（秒杀/限时折扣/限量购）
type TimeLimitActivity struct {
	ID               uint           `gorm:"primarykey" json:"id"`                            // 主键
	Name             string         `gorm:"not null" json:"name"`                            // 活动名称
	ActivityType     string         `gorm:"index;not null" json:"activity_type"`             // 活动类型（limited_time_discount/limited_time_seckill/limited_quantity_purchase）
	Status           string         `gorm:"index;not null;default:pending" json:"status"`    // 持久化状态（pending/active/finished），定价路径始终按时间重算
	StartTime        time.Time      `gorm:"index;not null" json:"start_time"`                // 开始时间
	EndTime          time.Time      `gorm:"index;not null" json:"end_time"`                  // 结束时间
	Priority         int            `gorm:"not null;default:0" json:"priority"`              // 优先级（大者优先）
	Exclusive        bool           `gorm:"not null;default:false" json:"exclusive"`         // 是否互斥（互斥活动命中商品后，其它活动不再参与）
	TotalLimit       *int           `json:"total_limit"`                                     // 活动总参与上限（空表示不限）
	SoldQuantity     int            `gorm:"not null;default:0" json:"sold_quantity"`         // 已参与数量，不变量 sold_quantity <= total_limit
	ProductIDs       UintList       `gorm:"type:json" json:"product_ids"`                    // 参与商品ID集合
	PreheatEnabled   bool           `gorm:"not null;default:false" json:"preheat_enabled"`   // 是否开启预热展示
	PreheatStartTime *time.Time     `json:"preheat_start_time"`                              // 预热开始时间
	Valid            bool           `gorm:"index;not null;default:true" json:"valid"`        // 有效标记（软删除开关）
	CreatedAt        time.Time      `gorm:"index" json:"created_at"`                         // 创建时间
	UpdatedAt        time.Time      `json:"updated_at"`                                      // 更新时间
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`                                  // 软删除时间

	Products []ActivityProduct `gorm:"foreignKey:ActivityID" json:"products,omitempty"` // 活动商品配置
	Rules    []DiscountRule    `gorm:"foreignKey:ActivityID" json:"rules,omitempty"`    // 活动级优惠规则
}

// TableName 指定表名
func (TimeLimitActivity) TableName() string {
	return "time_limit_activities"
}

// ActivityProduct 活动商品配置（按活动+商品维度覆盖价格与库存）
type ActivityProduct struct {
	ID            uint      `gorm:"primarykey" json:"id"`                                          // 主键
	ActivityID    uint      `gorm:"index:idx_activity_product,unique;not null" json:"activity_id"` // 活动ID
	ProductID     uint      `gorm:"index:idx_activity_product,unique;not null" json:"product_id"`  // 商品ID
	ActivityPrice Money     `gorm:"type:decimal(20,2);not null;default:0" json:"activity_price"`   // 活动价（0 表示不覆盖原价）
	LimitPerUser  int       `gorm:"not null;default:0" json:"limit_per_user"`                      // 每用户限购（0 表示不限）
	ActivityStock int       `gorm:"not null;default:0" json:"activity_stock"`                      // 活动库存
	SoldQuantity  int       `gorm:"not null;default:0" json:"sold_quantity"`                       // 已售数量，不变量 sold_quantity <= activity_stock
	CreatedAt     time.Time `json:"created_at"`                                                    // 创建时间
	UpdatedAt     time.Time `json:"updated_at"`                                                    // 更新时间
}

// TableName 指定表名
func (ActivityProduct) TableName() string {
	return "activity_products"
}

// RemainingStock 剩余活动库存
func (p ActivityProduct) RemainingStock() int {
	remaining := p.ActivityStock - p.SoldQuantity
	if remaining < 0 {
		return 0
	}
	return remaining
}
