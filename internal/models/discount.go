package models

import (
	"time"
)

// Discount 优惠规则（归属营销活动，七类之一）
type Discount struct {
	ID         uint      `gorm:"primarykey" json:"id"`                            // 主键
	CampaignID uint      `gorm:"index;not null" json:"campaign_id"`               // 所属营销活动ID
	Type       string    `gorm:"index;not null" json:"type"`                      // 优惠类型（reduction/discount/free_freight/buy_give/buy_n_get_m/progressive_discount_scheme/spend_threshold_with_add_on）
	Value      Money     `gorm:"type:decimal(20,2);not null;default:0" json:"value"` // 数值，含义随类型而定
	IsLimited  bool      `gorm:"not null;default:false" json:"is_limited"`        // 是否限制总参与次数
	Quota      int       `gorm:"not null;default:0" json:"quota"`                 // 总参与上限
	Number     int       `gorm:"not null;default:0" json:"number"`                // 已参与次数，不变量 number <= quota（限制开启时）
	CreatedAt  time.Time `json:"created_at"`                                      // 创建时间
	UpdatedAt  time.Time `json:"updated_at"`                                      // 更新时间

	Condition     *DiscountCondition     `gorm:"foreignKey:DiscountID" json:"condition,omitempty"`      // 类型化条件槽
	FreeCondition *DiscountFreeCondition `gorm:"foreignKey:DiscountID" json:"free_condition,omitempty"` // 买N免M条件
	Relations     []ProductRelation      `gorm:"foreignKey:DiscountID" json:"relations,omitempty"`      // 商品/赠品适用关系
}

// TableName 指定表名
func (Discount) TableName() string {
	return "discounts"
}

// DiscountCondition 优惠条件槽（语义由所属优惠类型决定）
type DiscountCondition struct {
	ID         uint      `gorm:"primarykey" json:"id"`                   // 主键
	DiscountID uint      `gorm:"index;not null" json:"discount_id"`      // 所属优惠ID
	Condition1 string    `gorm:"not null;default:''" json:"condition1"`  // 条件槽1
	Condition2 string    `gorm:"not null;default:''" json:"condition2"`  // 条件槽2
	Condition3 string    `gorm:"not null;default:''" json:"condition3"`  // 条件槽3
	CreatedAt  time.Time `json:"created_at"`                             // 创建时间
}

// TableName 指定表名
func (DiscountCondition) TableName() string {
	return "discount_conditions"
}

// DiscountFreeCondition 买N免M条件
type DiscountFreeCondition struct {
	ID               uint      `gorm:"primarykey" json:"id"`                         // 主键
	DiscountID       uint      `gorm:"index;not null" json:"discount_id"`            // 所属优惠ID
	PurchaseQuantity int       `gorm:"not null;default:0" json:"purchase_quantity"`  // 购买件数
	FreeQuantity     int       `gorm:"not null;default:0" json:"free_quantity"`      // 免单件数
	CreatedAt        time.Time `json:"created_at"`                                   // 创建时间
}

// TableName 指定表名
func (DiscountFreeCondition) TableName() string {
	return "discount_free_conditions"
}

// ProductRelation 优惠与商品/赠品的适用关系
type ProductRelation struct {
	ID           uint      `gorm:"primarykey" json:"id"`                    // 主键
	DiscountID   uint      `gorm:"index;not null" json:"discount_id"`       // 所属优惠ID
	SpuID        uint      `gorm:"index;not null;default:0" json:"spu_id"`  // 商品SPU ID（0 表示不限定）
	SkuID        uint      `gorm:"index;not null;default:0" json:"sku_id"`  // 商品SKU ID（0 表示不限定）
	Total        int       `gorm:"not null;default:0" json:"total"`         // 赠品/加价购配额（0 表示不限）
	GiftQuantity int       `gorm:"not null;default:0" json:"gift_quantity"` // 单次赠送件数
	UsedCount    int       `gorm:"not null;default:0" json:"used_count"`    // 已消耗配额，不变量 used_count <= total（配额开启时）
	CreatedAt    time.Time `json:"created_at"`                              // 创建时间
}

// TableName 指定表名
func (ProductRelation) TableName() string {
	return "discount_product_relations"
}

// DiscountRule 活动级优惠规则（限时活动驱动的反范式化记录）
type DiscountRule struct {
	ID                uint      `gorm:"primarykey" json:"id"`                                          // 主键
	ActivityID        uint      `gorm:"index;not null" json:"activity_id"`                             // 所属限时活动ID
	DiscountType      string    `gorm:"not null" json:"discount_type"`                                 // 优惠类型，与 Discount.Type 同语义
	DiscountValue     Money     `gorm:"type:decimal(20,2);not null;default:0" json:"discount_value"`   // 优惠数值
	MinAmount         Money     `gorm:"type:decimal(20,2);not null;default:0" json:"min_amount"`       // 使用门槛
	MaxDiscountAmount Money     `gorm:"type:decimal(20,2);not null;default:0" json:"max_discount_amount"` // 最大优惠金额（0 表示不限）
	RequiredQuantity  int       `gorm:"not null;default:0" json:"required_quantity"`                   // 要求件数（买N免M等）
	GiftQuantity      int       `gorm:"not null;default:0" json:"gift_quantity"`                       // 赠送件数
	GiftProductIDs    UintList  `gorm:"type:json" json:"gift_product_ids"`                             // 赠品商品ID集合
	Config            JSON      `gorm:"type:json" json:"config"`                                       // 自由格式补充配置
	CreatedAt         time.Time `json:"created_at"`                                                    // 创建时间
}

// TableName 指定表名
func (DiscountRule) TableName() string {
	return "discount_rules"
}
