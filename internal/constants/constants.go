package constants

// 限时活动类型常量
const (
	ActivityTypeLimitedTimeDiscount     = "limited_time_discount"
	ActivityTypeLimitedTimeSeckill      = "limited_time_seckill"
	ActivityTypeLimitedQuantityPurchase = "limited_quantity_purchase"
)

// 活动状态常量
const (
	ActivityStatusPending  = "pending"
	ActivityStatusActive   = "active"
	ActivityStatusFinished = "finished"
)

// 优惠类型常量
const (
	DiscountTypeReduction           = "reduction"
	DiscountTypePercentage          = "discount"
	DiscountTypeFreeFreight         = "free_freight"
	DiscountTypeBuyGive             = "buy_give"
	DiscountTypeBuyNGetM            = "buy_n_get_m"
	DiscountTypeProgressive         = "progressive_discount_scheme"
	DiscountTypeSpendThresholdAddOn = "spend_threshold_with_add_on"
	DiscountTypeSpecialPrice        = "special_price"
)

// 约束比较方式常量
const (
	CompareTypeEqual    = "equal"
	CompareTypeNotEqual = "not_equal"
	CompareTypeGTE      = "gte"
	CompareTypeLTE      = "lte"
	CompareTypeIn       = "in"
	CompareTypeNotIn    = "not_in"
)

// 约束限制维度常量
const (
	LimitTypeOrderPrice            = "order_price"
	LimitTypeFirstPurchaseUser     = "first_purchase_user"
	LimitTypeSecondaryPurchaseUser = "secondary_purchase_user"
	LimitTypeRepurchaseUser        = "repurchase_user"
	LimitTypeSpuID                 = "spu_id"
	LimitTypeSkuID                 = "sku_id"
	LimitTypeSpuPerQuantity        = "spu_per_quantity"
	LimitTypeSkuPerQuantity        = "sku_per_quantity"
)

// 用户购买历史分类常量（由调用方上下文提供，引擎不负责计算）
const (
	UserClassFirstPurchase     = "first_purchase"
	UserClassSecondaryPurchase = "secondary_purchase"
	UserClassRepurchase        = "repurchase"
)

// 促销来源常量
const (
	PromotionSourceActivity = "activity"
	PromotionSourceCampaign = "campaign"
)

// 台账资源类型常量
const (
	LedgerResourceActivityTotal = "activity_total"
	LedgerResourceActivityStock = "activity_stock"
	LedgerResourceDiscountQuota = "discount_quota"
	LedgerResourceRelationQuota = "relation_quota"
)

// 队列常量
const (
	QueueDefault           = "default"
	TaskActivityStatusSync = "activity:status_sync"
	TaskLedgerRelease      = "ledger:release"
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "pe"
)

// 缓存键常量
const (
	CacheKeyEligibleCampaigns = "catalog:campaigns:eligible"
)
