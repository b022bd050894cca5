package service

import (
	"strings"

	"github.com/promo-engine/internal/constants"
	"github.com/promo-engine/internal/models"

	"github.com/shopspring/decimal"
)

var decimalTen = decimal.NewFromInt(10)
var decimalHundred = decimal.NewFromInt(100)

// lineState 定价过程中的单行运行态
// running 是逐次应用优惠后的剩余应付金额，顺序叠加的基准永远是它而不是原价。
type lineState struct {
	item     CartItem
	original decimal.Decimal
	running  decimal.Decimal
	details  []DiscountBreakdownEntry
	gifts    []GiftEntitlement
	warnings []string
}

// lineDiscount 单行优惠落地金额（已按 2 位小数舍入并受 running 钳制）
type lineDiscount struct {
	lineIdx  int
	amount   decimal.Decimal
	reason   string
	metadata models.JSON
}

// application 一次优惠在购物车上的落地结果
type application struct {
	lineDiscounts []lineDiscount
	gifts         []GiftEntitlement
	relationUse   map[uint]int // relationID → 消耗配额件数
	freeFreight   bool
	cartReason    string
	applied       bool
}

// applySpec 按类型化规则计算一次优惠的落地金额
// 金额始终相对各行 running 计算并钳制在 [0, running]，保证叠加恒等式成立。
func applySpec(spec *discountSpec, lines []*lineState, eligible []int, in *CalculateInput) application {
	switch spec.kind {
	case constants.DiscountTypeReduction:
		return applyReduction(spec, lines, eligible)
	case constants.DiscountTypePercentage:
		return applyPercentage(spec, lines, eligible)
	case constants.DiscountTypeFreeFreight:
		return applyFreeFreight(spec, lines, eligible, in.Province)
	case constants.DiscountTypeBuyGive:
		return applyBuyGive(spec)
	case constants.DiscountTypeBuyNGetM:
		return applyBuyNGetM(spec, lines, eligible)
	case constants.DiscountTypeProgressive:
		return applyProgressive(spec, lines, eligible)
	case constants.DiscountTypeSpendThresholdAddOn:
		return applySpendThresholdAddOn(spec, lines, eligible, in.AddOns)
	default:
		return application{}
	}
}

// applyReduction 满减：门槛满足时一次性立减，按运行金额比例分摊到各行
func applyReduction(spec *discountSpec, lines []*lineState, eligible []int) application {
	subtotal := eligibleSubtotal(lines, eligible)
	if subtotal.LessThanOrEqual(decimal.Zero) {
		return application{}
	}
	if spec.minAmount.GreaterThan(decimal.Zero) && subtotal.LessThan(spec.minAmount) {
		return application{}
	}
	discount := spec.value
	if spec.maxDiscount.GreaterThan(decimal.Zero) && discount.GreaterThan(spec.maxDiscount) {
		discount = spec.maxDiscount
	}
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	discounts := allocateProportional(discount.Round(2), lines, eligible, "满减立减")
	return application{lineDiscounts: discounts, applied: len(discounts) > 0}
}

// applyPercentage 折扣：value 为 0-10 的折数（8.5 = 85%），逐行按运行金额计算
func applyPercentage(spec *discountSpec, lines []*lineState, eligible []int) application {
	rate := decimal.NewFromInt(1).Sub(spec.value.Div(decimalTen))
	var discounts []lineDiscount
	for _, idx := range eligible {
		running := lines[idx].running
		if running.LessThanOrEqual(decimal.Zero) {
			continue
		}
		amount := clampDiscount(running.Mul(rate).Round(2), running)
		if amount.LessThanOrEqual(decimal.Zero) {
			continue
		}
		discounts = append(discounts, lineDiscount{
			lineIdx: idx,
			amount:  amount,
			reason:  "限时折扣",
		})
	}
	return application{lineDiscounts: discounts, applied: len(discounts) > 0}
}

// applyFreeFreight 免邮：省份命中且消费达标时置免邮标记，不产生行级金额
func applyFreeFreight(spec *discountSpec, lines []*lineState, eligible []int, province string) application {
	name := strings.TrimSpace(province)
	if name == "" {
		return application{}
	}
	if _, ok := spec.freightProvinces[name]; !ok {
		return application{}
	}
	subtotal := eligibleSubtotal(lines, eligible)
	if spec.freightMinSpend.GreaterThan(decimal.Zero) && subtotal.LessThan(spec.freightMinSpend) {
		return application{}
	}
	return application{freeFreight: true, cartReason: "满额免邮", applied: true}
}

// applyBuyGive 买赠：发放赠品权益，付费金额不变，配额不足的关系按剩余量发放
func applyBuyGive(spec *discountSpec) application {
	app := application{relationUse: make(map[uint]int)}

	// 活动级规则：赠品直接由商品ID列表给出，无配额行
	if len(spec.giftProductIDs) > 0 {
		for _, productID := range spec.giftProductIDs {
			app.gifts = append(app.gifts, GiftEntitlement{
				ProductID: productID,
				Quantity:  spec.giftQuantity,
			})
		}
		app.applied = len(app.gifts) > 0
		return app
	}

	for _, relation := range spec.relations {
		granted := relation.GiftQuantity
		if granted <= 0 {
			continue
		}
		if relation.Total > 0 {
			remaining := relation.Total - relation.UsedCount
			if remaining <= 0 {
				continue
			}
			if granted > remaining {
				granted = remaining
			}
		}
		app.gifts = append(app.gifts, GiftEntitlement{
			DiscountID: spec.discountID,
			RelationID: relation.ID,
			ProductID:  relation.SpuID,
			SkuID:      relation.SkuID,
			Quantity:   granted,
		})
		app.relationUse[relation.ID] += granted
	}
	app.applied = len(app.gifts) > 0
	return app
}

// applyBuyNGetM 买N免M：每满 purchaseQuantity 件免 freeQuantity 件
func applyBuyNGetM(spec *discountSpec, lines []*lineState, eligible []int) application {
	var discounts []lineDiscount
	for _, idx := range eligible {
		line := lines[idx]
		qty := line.item.Quantity
		if qty < spec.purchaseQuantity || line.running.LessThanOrEqual(decimal.Zero) {
			continue
		}
		freeUnits := (qty / spec.purchaseQuantity) * spec.freeQuantity
		if freeUnits > qty {
			freeUnits = qty
		}
		// 基于运行金额折算单价，保证优惠不超过剩余应付
		amount := line.running.
			Mul(decimal.NewFromInt(int64(freeUnits))).
			Div(decimal.NewFromInt(int64(qty))).
			Round(2)
		amount = clampDiscount(amount, line.running)
		if amount.LessThanOrEqual(decimal.Zero) {
			continue
		}
		discounts = append(discounts, lineDiscount{
			lineIdx: idx,
			amount:  amount,
			reason:  "买赠免单",
			metadata: models.JSON{
				"free_units": freeUnits,
			},
		})
	}
	return application{lineDiscounts: discounts, applied: len(discounts) > 0}
}

// applyProgressive 阶梯折扣：超过阈值件数的部分按百分比让利
func applyProgressive(spec *discountSpec, lines []*lineState, eligible []int) application {
	var discounts []lineDiscount
	for _, idx := range eligible {
		line := lines[idx]
		qty := line.item.Quantity
		discountedUnits := qty - spec.progressiveThreshold
		if discountedUnits <= 0 || line.running.LessThanOrEqual(decimal.Zero) {
			continue
		}
		unit := line.running.Div(decimal.NewFromInt(int64(qty)))
		amount := unit.
			Mul(decimal.NewFromInt(int64(discountedUnits))).
			Mul(spec.progressivePercent).
			Div(decimalHundred).
			Round(2)
		amount = clampDiscount(amount, line.running)
		if amount.LessThanOrEqual(decimal.Zero) {
			continue
		}
		discounts = append(discounts, lineDiscount{
			lineIdx: idx,
			amount:  amount,
			reason:  "阶梯折扣",
			metadata: models.JSON{
				"discounted_units": discountedUnits,
			},
		})
	}
	return application{lineDiscounts: discounts, applied: len(discounts) > 0}
}

// applySpendThresholdAddOn 满额加价购：达标后所选加价购行按加购价结算
func applySpendThresholdAddOn(spec *discountSpec, lines []*lineState, eligible []int, addOns []AddOnSelection) application {
	if len(addOns) == 0 {
		return application{}
	}
	subtotal := eligibleSubtotal(lines, eligible)
	if subtotal.LessThan(spec.spendThreshold) {
		return application{}
	}

	app := application{relationUse: make(map[uint]int)}
	budget := spec.maxAddOnCount
	for _, selection := range addOns {
		if budget <= 0 {
			break
		}
		if selection.Quantity <= 0 {
			continue
		}
		relation := matchRelation(spec.relations, selection.ProductID, selection.SkuID)
		if relation == nil {
			continue
		}
		lineIdx := matchLine(lines, eligible, selection.ProductID, selection.SkuID)
		if lineIdx < 0 {
			continue
		}
		line := lines[lineIdx]
		count := selection.Quantity
		if count > line.item.Quantity {
			count = line.item.Quantity
		}
		if count > budget {
			count = budget
		}
		if relation.Total > 0 {
			remaining := relation.Total - relation.UsedCount - app.relationUse[relation.ID]
			if remaining <= 0 {
				continue
			}
			if count > remaining {
				count = remaining
			}
		}
		unit := line.running.Div(decimal.NewFromInt(int64(line.item.Quantity)))
		perUnit := unit.Sub(spec.addOnPrice)
		if perUnit.LessThanOrEqual(decimal.Zero) {
			continue
		}
		amount := clampDiscount(perUnit.Mul(decimal.NewFromInt(int64(count))).Round(2), line.running)
		if amount.LessThanOrEqual(decimal.Zero) {
			continue
		}
		app.lineDiscounts = append(app.lineDiscounts, lineDiscount{
			lineIdx: lineIdx,
			amount:  amount,
			reason:  "满额加价购",
			metadata: models.JSON{
				"add_on_units": count,
			},
		})
		app.relationUse[relation.ID] += count
		budget -= count
	}
	app.applied = len(app.lineDiscounts) > 0
	return app
}

// eligibleSubtotal 汇总若干行的运行金额
func eligibleSubtotal(lines []*lineState, eligible []int) decimal.Decimal {
	subtotal := decimal.Zero
	for _, idx := range eligible {
		subtotal = subtotal.Add(lines[idx].running)
	}
	return subtotal
}

// allocateProportional 将整笔优惠按各行运行金额比例分摊，余数落在最后一行
func allocateProportional(total decimal.Decimal, lines []*lineState, eligible []int, reason string) []lineDiscount {
	if total.LessThanOrEqual(decimal.Zero) {
		return nil
	}
	subtotal := eligibleSubtotal(lines, eligible)
	if subtotal.LessThanOrEqual(decimal.Zero) {
		return nil
	}
	var discounts []lineDiscount
	remaining := total
	for i, idx := range eligible {
		running := lines[idx].running
		if running.LessThanOrEqual(decimal.Zero) {
			continue
		}
		var amount decimal.Decimal
		if i == len(eligible)-1 {
			amount = remaining
		} else {
			amount = total.Mul(running).Div(subtotal).Round(2)
		}
		amount = clampDiscount(amount, running)
		if amount.LessThanOrEqual(decimal.Zero) {
			continue
		}
		discounts = append(discounts, lineDiscount{lineIdx: idx, amount: amount, reason: reason})
		remaining = remaining.Sub(amount)
	}
	return discounts
}

// clampDiscount 将优惠金额钳制在 [0, limit]
func clampDiscount(amount, limit decimal.Decimal) decimal.Decimal {
	if amount.LessThan(decimal.Zero) {
		return decimal.Zero
	}
	if amount.GreaterThan(limit) {
		return limit
	}
	return amount
}

// matchRelation 查找命中 SPU/SKU 的适用关系，SKU 级关系优先于 SPU 级
func matchRelation(relations []models.ProductRelation, productID, skuID uint) *models.ProductRelation {
	if skuID != 0 {
		for i := range relations {
			if relations[i].SkuID != 0 && relations[i].SkuID == skuID {
				return &relations[i]
			}
		}
	}
	for i := range relations {
		if relations[i].SkuID == 0 && relations[i].SpuID != 0 && relations[i].SpuID == productID {
			return &relations[i]
		}
	}
	return nil
}

// matchLine 在可参与行集合内查找命中 SPU/SKU 的购物车行
// 被互斥候选独占的行不在集合内，不会被选中。
func matchLine(lines []*lineState, eligible []int, productID, skuID uint) int {
	for _, idx := range eligible {
		line := lines[idx]
		if line.item.ProductID != productID {
			continue
		}
		if skuID != 0 && line.item.SkuID != skuID {
			continue
		}
		return idx
	}
	return -1
}
