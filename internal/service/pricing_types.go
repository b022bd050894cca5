package service

import (
	"time"

	"github.com/promo-engine/internal/models"
)

// CartItem 定价输入的购物车行（不可变）
type CartItem struct {
	ProductID uint         `json:"product_id"`
	SkuID     uint         `json:"sku_id"`
	Quantity  int          `json:"quantity"`
	UnitPrice models.Money `json:"unit_price"`
}

// AddOnSelection 加价购选择（指向购物车中的某一行）
type AddOnSelection struct {
	ProductID uint `json:"product_id"`
	SkuID     uint `json:"sku_id"`
	Quantity  int  `json:"quantity"`
}

// CalculateInput 定价计算输入
type CalculateInput struct {
	Items     []CartItem       `json:"items"`
	UserID    string           `json:"user_id"`
	UserClass string           `json:"user_class"` // 购买历史分类，由调用方提供
	Province  string           `json:"province"`   // 收货省份（免邮判定）
	AddOns    []AddOnSelection `json:"add_ons"`
	Now       time.Time        `json:"now"` // 零值表示当前时间
}

// DiscountBreakdownEntry 单行单优惠的明细记录（审计用，不落库）
type DiscountBreakdownEntry struct {
	ActivityID     uint         `json:"activity_id"`
	ActivityName   string       `json:"activity_name"`
	ActivityType   string       `json:"activity_type"`
	DiscountType   string       `json:"discount_type"`
	DiscountValue  models.Money `json:"discount_value"`
	DiscountAmount models.Money `json:"discount_amount"`
	ProductID      uint         `json:"product_id"`
	SkuID          uint         `json:"sku_id"`
	Reason         string       `json:"reason"`
	Metadata       models.JSON  `json:"metadata,omitempty"`
}

// GiftEntitlement 赠品权益（不改变付费金额）
type GiftEntitlement struct {
	DiscountID uint `json:"discount_id"`
	RelationID uint `json:"relation_id"`
	ProductID  uint `json:"product_id"`
	SkuID      uint `json:"sku_id"`
	Quantity   int  `json:"quantity"`
}

// ItemResult 单行定价结果
type ItemResult struct {
	ProductID      uint                     `json:"product_id"`
	SkuID          uint                     `json:"sku_id"`
	Quantity       int                      `json:"quantity"`
	UnitPrice      models.Money             `json:"unit_price"`
	OriginalAmount models.Money             `json:"original_amount"`
	DiscountAmount models.Money             `json:"discount_amount"`
	FinalAmount    models.Money             `json:"final_amount"`
	Details        []DiscountBreakdownEntry `json:"details"`
	Gifts          []GiftEntitlement        `json:"gifts,omitempty"`
	Warnings       []string                 `json:"warnings,omitempty"`
}

// AppliedActivity 被采纳的促销来源摘要
type AppliedActivity struct {
	ID     uint   `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Source string `json:"source"` // activity / campaign
}

// UpcomingActivity 预热期活动摘要（仅展示，不参与定价）
type UpcomingActivity struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	StartTime time.Time `json:"start_time"`
}

// Reservation 提交时需要消耗的台账资源
type Reservation struct {
	Resource   string `json:"resource"` // activity_total / activity_stock / discount_quota / relation_quota
	ActivityID uint   `json:"activity_id,omitempty"`
	ProductID  uint   `json:"product_id,omitempty"`
	DiscountID uint   `json:"discount_id,omitempty"`
	RelationID uint   `json:"relation_id,omitempty"`
	Amount     int    `json:"amount"`
}

// PriceResult 定价计算结果
type PriceResult struct {
	Success           bool                     `json:"success"`
	Message           string                   `json:"message,omitempty"`
	Items             []ItemResult             `json:"items"`
	OriginalTotal     models.Money             `json:"original_total"`
	DiscountTotal     models.Money             `json:"discount_total"`
	FinalTotal        models.Money             `json:"final_total"`
	FreeFreight       bool                     `json:"free_freight"`
	AppliedActivities []AppliedActivity        `json:"applied_activities"`
	UpcomingActivities []UpcomingActivity      `json:"upcoming_activities,omitempty"`
	DiscountDetails   []DiscountBreakdownEntry `json:"discount_details"`
	Gifts             []GiftEntitlement        `json:"gifts,omitempty"`
	Reservations      []Reservation            `json:"reservations,omitempty"`
}
