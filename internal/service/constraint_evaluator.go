package service

import (
	"strings"

	"github.com/promo-engine/internal/constants"
	"github.com/promo-engine/internal/logger"
	"github.com/promo-engine/internal/models"

	"github.com/shopspring/decimal"
)

// cartContext 约束求值所需的购物车上下文
type cartContext struct {
	total     decimal.Decimal
	qtyBySpu  map[uint]int
	qtyBySku  map[uint]int
	userClass string
}

// buildCartContext 汇总购物车行，供约束求值复用
func buildCartContext(items []CartItem, userClass string) cartContext {
	ctx := cartContext{
		total:     decimal.Zero,
		qtyBySpu:  make(map[uint]int, len(items)),
		qtyBySku:  make(map[uint]int, len(items)),
		userClass: strings.TrimSpace(userClass),
	}
	for _, item := range items {
		ctx.total = ctx.total.Add(item.UnitPrice.Decimal.Mul(decimal.NewFromInt(int64(item.Quantity))))
		ctx.qtyBySpu[item.ProductID] += item.Quantity
		if item.SkuID != 0 {
			ctx.qtyBySku[item.SkuID] += item.Quantity
		}
	}
	return ctx
}

// evaluateConstraints 求值营销活动的全部约束（逻辑与）
// 任一未满足即整体排除；配置不可解析时按未满足处理（fail-closed），只记日志不打断定价。
func evaluateConstraints(campaign *models.Campaign, ctx cartContext) bool {
	for i := range campaign.Constraints {
		if !evaluateConstraint(&campaign.Constraints[i], ctx) {
			return false
		}
	}
	return true
}

func evaluateConstraint(c *models.Constraint, ctx cartContext) bool {
	compareType := strings.ToLower(strings.TrimSpace(c.CompareType))
	limitType := strings.ToLower(strings.TrimSpace(c.LimitType))

	switch limitType {
	case constants.LimitTypeOrderPrice:
		threshold, err := decimal.NewFromString(strings.TrimSpace(c.RangeValue))
		if err != nil {
			warnConstraintConfig(c, "range_value_not_numeric")
			return false
		}
		return compareDecimal(compareType, ctx.total, threshold, c)

	case constants.LimitTypeFirstPurchaseUser,
		constants.LimitTypeSecondaryPurchaseUser,
		constants.LimitTypeRepurchaseUser:
		expected := strings.ToLower(strings.TrimSpace(c.RangeValue))
		switch compareType {
		case constants.CompareTypeEqual:
			return ctx.userClass != "" && strings.EqualFold(ctx.userClass, expected)
		case constants.CompareTypeNotEqual:
			return !strings.EqualFold(ctx.userClass, expected)
		default:
			warnConstraintConfig(c, "compare_type_unsupported")
			return false
		}

	case constants.LimitTypeSpuID, constants.LimitTypeSkuID:
		ids, ok := parseIDList(c.RangeValue)
		if !ok {
			warnConstraintConfig(c, "range_value_not_id_list")
			return false
		}
		present := ctx.qtyBySpu
		if limitType == constants.LimitTypeSkuID {
			present = ctx.qtyBySku
		}
		hit := false
		for id := range ids {
			if _, exists := present[id]; exists {
				hit = true
				break
			}
		}
		switch compareType {
		case constants.CompareTypeIn:
			return hit
		case constants.CompareTypeNotIn:
			return !hit
		default:
			warnConstraintConfig(c, "compare_type_unsupported")
			return false
		}

	case constants.LimitTypeSpuPerQuantity, constants.LimitTypeSkuPerQuantity:
		threshold, err := decimal.NewFromString(strings.TrimSpace(c.RangeValue))
		if err != nil {
			warnConstraintConfig(c, "range_value_not_numeric")
			return false
		}
		quantities := ctx.qtyBySpu
		if limitType == constants.LimitTypeSkuPerQuantity {
			quantities = ctx.qtyBySku
		}
		if len(quantities) == 0 {
			return false
		}
		// 购物车中每个 SPU/SKU 的数量都需满足
		for _, qty := range quantities {
			if !compareDecimal(compareType, decimal.NewFromInt(int64(qty)), threshold, c) {
				return false
			}
		}
		return true

	default:
		warnConstraintConfig(c, "limit_type_unsupported")
		return false
	}
}

func compareDecimal(compareType string, actual, threshold decimal.Decimal, c *models.Constraint) bool {
	switch compareType {
	case constants.CompareTypeEqual:
		return actual.Equal(threshold)
	case constants.CompareTypeNotEqual:
		return !actual.Equal(threshold)
	case constants.CompareTypeGTE:
		return actual.GreaterThanOrEqual(threshold)
	case constants.CompareTypeLTE:
		return actual.LessThanOrEqual(threshold)
	default:
		warnConstraintConfig(c, "compare_type_unsupported")
		return false
	}
}

// parseIDList 解析逗号分隔的ID列表
func parseIDList(raw string) (map[uint]struct{}, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, false
	}
	parts := strings.Split(trimmed, ",")
	ids := make(map[uint]struct{}, len(parts))
	for _, part := range parts {
		value := strings.TrimSpace(part)
		if value == "" {
			continue
		}
		parsed, err := decimal.NewFromString(value)
		if err != nil || !parsed.IsInteger() || parsed.IsNegative() {
			return nil, false
		}
		ids[uint(parsed.IntPart())] = struct{}{}
	}
	if len(ids) == 0 {
		return nil, false
	}
	return ids, true
}

func warnConstraintConfig(c *models.Constraint, reason string) {
	logger.Warnw("constraint_config_invalid",
		"constraint_id", c.ID,
		"campaign_id", c.CampaignID,
		"compare_type", c.CompareType,
		"limit_type", c.LimitType,
		"range_value", c.RangeValue,
		"reason", reason,
	)
}
