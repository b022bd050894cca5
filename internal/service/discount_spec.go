package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/promo-engine/internal/constants"
	"github.com/promo-engine/internal/models"

	"github.com/shopspring/decimal"
)

// discountSpec 优惠规则的类型化表示
// 自由格式的 condition 槽位在装载时解析一次，计算路径不再碰原始字符串。
// 七种类型共用一个结构，按 kind 取各自字段。
type discountSpec struct {
	kind string

	discountID uint // 营销活动优惠ID（规则来源为活动级时为 0）
	isLimited  bool
	quota      int
	number     int

	value       decimal.Decimal // reduction: 立减金额；discount: 0-10 折扣（8.5 = 85%）
	minAmount   decimal.Decimal
	maxDiscount decimal.Decimal // 零值表示不限

	purchaseQuantity int // buy_n_get_m: 购买件数
	freeQuantity     int // buy_n_get_m: 免单件数

	progressiveThreshold int             // progressive: 超过该件数的部分打折
	progressivePercent   decimal.Decimal // progressive: 折扣百分比（10 = 9折）

	spendThreshold decimal.Decimal // spend_threshold_with_add_on: 消费门槛
	addOnPrice     decimal.Decimal // spend_threshold_with_add_on: 加价购单价
	maxAddOnCount  int             // spend_threshold_with_add_on: 最多可选件数

	freightProvinces map[string]struct{} // free_freight: 可免邮省份
	freightMinSpend  decimal.Decimal     // free_freight: 最低消费

	giftQuantity   int    // buy_give（活动级规则）: 单次赠送件数
	giftProductIDs []uint // buy_give（活动级规则）: 赠品商品ID

	relations []models.ProductRelation // 商品/赠品适用关系（营销活动优惠）
}

// resolveDiscountSpec 将营销活动优惠解析为类型化规则
func resolveDiscountSpec(d *models.Discount) (*discountSpec, error) {
	spec := &discountSpec{
		kind:       strings.ToLower(strings.TrimSpace(d.Type)),
		discountID: d.ID,
		isLimited:  d.IsLimited,
		quota:      d.Quota,
		number:     d.Number,
		value:      d.Value.Decimal,
		relations:  d.Relations,
	}

	switch spec.kind {
	case constants.DiscountTypeReduction:
		if spec.value.LessThanOrEqual(decimal.Zero) {
			return nil, fmt.Errorf("%w: reduction value must be positive", ErrPromotionConfigInvalid)
		}
		// 可选条件槽：condition1=使用门槛，condition2=最大优惠金额
		if d.Condition != nil {
			var err error
			if spec.minAmount, err = parseOptionalDecimal(d.Condition.Condition1); err != nil {
				return nil, fmt.Errorf("%w: reduction min amount: %v", ErrPromotionConfigInvalid, err)
			}
			if spec.maxDiscount, err = parseOptionalDecimal(d.Condition.Condition2); err != nil {
				return nil, fmt.Errorf("%w: reduction max discount: %v", ErrPromotionConfigInvalid, err)
			}
		}

	case constants.DiscountTypePercentage:
		if spec.value.LessThanOrEqual(decimal.Zero) || spec.value.GreaterThan(decimal.NewFromInt(10)) {
			return nil, fmt.Errorf("%w: discount value must be in (0,10]", ErrPromotionConfigInvalid)
		}

	case constants.DiscountTypeFreeFreight:
		if d.Condition == nil {
			return nil, fmt.Errorf("%w: free freight requires condition", ErrPromotionConfigInvalid)
		}
		provinces, err := parseProvinceSet(d.Condition.Condition1)
		if err != nil {
			return nil, fmt.Errorf("%w: free freight provinces: %v", ErrPromotionConfigInvalid, err)
		}
		spec.freightProvinces = provinces
		if spec.freightMinSpend, err = parseOptionalDecimal(d.Condition.Condition2); err != nil {
			return nil, fmt.Errorf("%w: free freight min spend: %v", ErrPromotionConfigInvalid, err)
		}

	case constants.DiscountTypeBuyGive:
		if len(d.Relations) == 0 {
			return nil, fmt.Errorf("%w: buy give requires product relations", ErrPromotionConfigInvalid)
		}

	case constants.DiscountTypeBuyNGetM:
		if d.FreeCondition == nil || d.FreeCondition.PurchaseQuantity <= 0 || d.FreeCondition.FreeQuantity <= 0 {
			return nil, fmt.Errorf("%w: buy n get m requires free condition", ErrPromotionConfigInvalid)
		}
		spec.purchaseQuantity = d.FreeCondition.PurchaseQuantity
		spec.freeQuantity = d.FreeCondition.FreeQuantity

	case constants.DiscountTypeProgressive:
		if d.Condition == nil {
			return nil, fmt.Errorf("%w: progressive requires condition", ErrPromotionConfigInvalid)
		}
		threshold, err := parsePositiveInt(d.Condition.Condition1)
		if err != nil {
			return nil, fmt.Errorf("%w: progressive threshold: %v", ErrPromotionConfigInvalid, err)
		}
		percent, err := decimal.NewFromString(strings.TrimSpace(d.Condition.Condition2))
		if err != nil || percent.LessThanOrEqual(decimal.Zero) || percent.GreaterThan(decimal.NewFromInt(100)) {
			return nil, fmt.Errorf("%w: progressive percent out of range", ErrPromotionConfigInvalid)
		}
		spec.progressiveThreshold = threshold
		spec.progressivePercent = percent

	case constants.DiscountTypeSpendThresholdAddOn:
		if d.Condition == nil {
			return nil, fmt.Errorf("%w: spend threshold requires condition", ErrPromotionConfigInvalid)
		}
		if len(d.Relations) == 0 {
			return nil, fmt.Errorf("%w: spend threshold requires add-on relations", ErrPromotionConfigInvalid)
		}
		threshold, err := decimal.NewFromString(strings.TrimSpace(d.Condition.Condition1))
		if err != nil || threshold.LessThan(decimal.Zero) {
			return nil, fmt.Errorf("%w: spend threshold invalid", ErrPromotionConfigInvalid)
		}
		addOnPrice, err := decimal.NewFromString(strings.TrimSpace(d.Condition.Condition2))
		if err != nil || addOnPrice.LessThan(decimal.Zero) {
			return nil, fmt.Errorf("%w: add-on price invalid", ErrPromotionConfigInvalid)
		}
		maxCount, err := parsePositiveInt(d.Condition.Condition3)
		if err != nil {
			return nil, fmt.Errorf("%w: add-on max count: %v", ErrPromotionConfigInvalid, err)
		}
		spec.spendThreshold = threshold
		spec.addOnPrice = addOnPrice
		spec.maxAddOnCount = maxCount

	default:
		return nil, fmt.Errorf("%w: unknown discount type %q", ErrPromotionConfigInvalid, d.Type)
	}

	return spec, nil
}

// resolveRuleSpec 将活动级优惠规则解析为类型化规则
func resolveRuleSpec(r *models.DiscountRule) (*discountSpec, error) {
	spec := &discountSpec{
		kind:        strings.ToLower(strings.TrimSpace(r.DiscountType)),
		value:       r.DiscountValue.Decimal,
		minAmount:   r.MinAmount.Decimal,
		maxDiscount: r.MaxDiscountAmount.Decimal,
	}

	switch spec.kind {
	case constants.DiscountTypeReduction:
		if spec.value.LessThanOrEqual(decimal.Zero) {
			return nil, fmt.Errorf("%w: reduction value must be positive", ErrPromotionConfigInvalid)
		}

	case constants.DiscountTypePercentage:
		if spec.value.LessThanOrEqual(decimal.Zero) || spec.value.GreaterThan(decimal.NewFromInt(10)) {
			return nil, fmt.Errorf("%w: discount value must be in (0,10]", ErrPromotionConfigInvalid)
		}

	case constants.DiscountTypeBuyNGetM:
		if r.RequiredQuantity <= 0 || r.GiftQuantity <= 0 {
			return nil, fmt.Errorf("%w: buy n get m requires quantities", ErrPromotionConfigInvalid)
		}
		spec.purchaseQuantity = r.RequiredQuantity
		spec.freeQuantity = r.GiftQuantity

	case constants.DiscountTypeBuyGive:
		if len(r.GiftProductIDs) == 0 || r.GiftQuantity <= 0 {
			return nil, fmt.Errorf("%w: buy give requires gift products", ErrPromotionConfigInvalid)
		}
		spec.giftQuantity = r.GiftQuantity
		spec.giftProductIDs = r.GiftProductIDs

	case constants.DiscountTypeProgressive:
		threshold, err := configInt(r.Config, "threshold")
		if err != nil {
			return nil, fmt.Errorf("%w: progressive threshold: %v", ErrPromotionConfigInvalid, err)
		}
		percent, err := configDecimal(r.Config, "percent")
		if err != nil || percent.LessThanOrEqual(decimal.Zero) || percent.GreaterThan(decimal.NewFromInt(100)) {
			return nil, fmt.Errorf("%w: progressive percent out of range", ErrPromotionConfigInvalid)
		}
		spec.progressiveThreshold = threshold
		spec.progressivePercent = percent

	default:
		// free_freight 与加价购依赖省份/关系配置，只在营销活动侧支持
		return nil, fmt.Errorf("%w: rule discount type %q unsupported", ErrPromotionConfigInvalid, r.DiscountType)
	}

	return spec, nil
}

// quotaExhausted 判断优惠总参与配额是否已耗尽（预览时只读判定）
func (s *discountSpec) quotaExhausted() bool {
	return s.isLimited && s.number >= s.quota
}

func parseOptionalDecimal(raw string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return decimal.Zero, nil
	}
	value, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, err
	}
	if value.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative value %s", trimmed)
	}
	return value, nil
}

func parsePositiveInt(raw string) (int, error) {
	value, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	if !value.IsInteger() || value.LessThanOrEqual(decimal.Zero) {
		return 0, fmt.Errorf("not a positive integer: %s", raw)
	}
	return int(value.IntPart()), nil
}

// parseProvinceSet 解析 JSON 编码的省份列表
func parseProvinceSet(raw string) (map[string]struct{}, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("empty province list")
	}
	var provinces []string
	if err := json.Unmarshal([]byte(trimmed), &provinces); err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(provinces))
	for _, p := range provinces {
		name := strings.TrimSpace(p)
		if name == "" {
			continue
		}
		set[name] = struct{}{}
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("empty province list")
	}
	return set, nil
}

func configInt(cfg models.JSON, key string) (int, error) {
	raw, ok := cfg[key]
	if !ok {
		return 0, fmt.Errorf("missing config key %q", key)
	}
	switch v := raw.(type) {
	case float64:
		if v <= 0 || v != float64(int(v)) {
			return 0, fmt.Errorf("config key %q not a positive integer", key)
		}
		return int(v), nil
	case string:
		return parsePositiveInt(v)
	default:
		return 0, fmt.Errorf("config key %q has unsupported type", key)
	}
}

func configDecimal(cfg models.JSON, key string) (decimal.Decimal, error) {
	raw, ok := cfg[key]
	if !ok {
		return decimal.Zero, fmt.Errorf("missing config key %q", key)
	}
	switch v := raw.(type) {
	case float64:
		return decimal.NewFromFloat(v), nil
	case string:
		return decimal.NewFromString(strings.TrimSpace(v))
	default:
		return decimal.Zero, fmt.Errorf("config key %q has unsupported type", key)
	}
}
