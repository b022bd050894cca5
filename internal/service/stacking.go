package service

import (
	"sort"
	"time"

	"github.com/promo-engine/internal/constants"
	"github.com/promo-engine/internal/logger"
	"github.com/promo-engine/internal/models"

	"github.com/shopspring/decimal"
)

// candidate 参与叠加的统一候选（限时活动或营销活动）
type candidate struct {
	source    string // activity / campaign
	id        uint
	name      string
	typ       string
	priority  int
	createdAt time.Time
	exclusive bool

	specs    []*discountSpec
	eligible []int // 命中的购物车行号
	claims   []int // 互斥独占的行号（为空时按 eligible 占行）

	activity *models.TimeLimitActivity
	products map[uint]*models.ActivityProduct // productID → 活动商品配置
}

// stackingOutcome 叠加求解结果（行级金额已写入 lines）
type stackingOutcome struct {
	applied      []AppliedActivity
	cartDetails  []DiscountBreakdownEntry
	gifts        []GiftEntitlement
	freeFreight  bool
	reservations []Reservation
}

// sortCandidates 按优先级降序、创建时间升序排序，同刻创建以主键兜底
func sortCandidates(candidates []*candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.priority != b.priority {
			return a.priority > b.priority
		}
		if !a.createdAt.Equal(b.createdAt) {
			return a.createdAt.Before(b.createdAt)
		}
		return a.id < b.id
	})
}

// resolveExclusivity 落实互斥规则
// 某行命中互斥候选时，排序最靠前的互斥候选独占该行，其余候选全部让出。
// 互斥候选只独占 claims 指定的行（空表示 eligible 全部），
// 调用前 candidates 必须已按 sortCandidates 排序。
func resolveExclusivity(candidates []*candidate) []*candidate {
	type owner struct {
		candidateIdx int
	}
	owners := make(map[int]owner)
	for i, c := range candidates {
		if !c.exclusive {
			continue
		}
		claims := c.claims
		if claims == nil {
			claims = c.eligible
		}
		for _, lineIdx := range claims {
			if _, claimed := owners[lineIdx]; !claimed {
				owners[lineIdx] = owner{candidateIdx: i}
			}
		}
	}
	if len(owners) == 0 {
		return candidates
	}

	var result []*candidate
	for i, c := range candidates {
		var kept []int
		for _, lineIdx := range c.eligible {
			if o, claimed := owners[lineIdx]; claimed && o.candidateIdx != i {
				continue
			}
			kept = append(kept, lineIdx)
		}
		if len(kept) == 0 {
			continue
		}
		c.eligible = kept
		result = append(result, c)
	}
	return result
}

// runStacking 按候选顺序依次应用优惠
// 金额扣减始终针对各行 running（顺序叠加），不会回到原价重复计算。
func runStacking(lines []*lineState, candidates []*candidate, in *CalculateInput) *stackingOutcome {
	outcome := &stackingOutcome{}

	for _, c := range candidates {
		eligible := c.eligible
		candidateApplied := false

		if c.source == constants.PromotionSourceActivity {
			var ok bool
			eligible, ok = prefilterActivityCapacity(c, lines, eligible)
			if !ok {
				continue
			}
			if applyActivityPrice(c, lines, eligible, outcome) {
				candidateApplied = true
			}
		}

		for _, spec := range c.specs {
			if spec.quotaExhausted() {
				logger.Warnw("discount_quota_exhausted",
					"source", c.source,
					"promotion_id", c.id,
					"discount_id", spec.discountID,
				)
				continue
			}
			specLines := filterSpecEligible(spec, lines, eligible)
			if len(specLines) == 0 {
				continue
			}
			app := applySpec(spec, lines, specLines, in)
			if !app.applied {
				continue
			}
			candidateApplied = true
			settleApplication(c, spec, lines, &app, outcome)
		}

		if !candidateApplied {
			continue
		}
		outcome.applied = append(outcome.applied, AppliedActivity{
			ID:     c.id,
			Name:   c.name,
			Type:   c.typ,
			Source: c.source,
		})
		if c.source == constants.PromotionSourceActivity {
			reserveActivityCapacity(c, lines, eligible, outcome)
		}
	}
	return outcome
}

// filterSpecEligible 按商品适用关系收窄优惠命中的行
// 买赠与加价购的关系表达的是赠品/加购商品而非适用范围，整车参与；
// 金额类优惠的关系为空表示全场适用。
func filterSpecEligible(spec *discountSpec, lines []*lineState, eligible []int) []int {
	switch spec.kind {
	case constants.DiscountTypeBuyGive, constants.DiscountTypeSpendThresholdAddOn:
		return eligible
	}
	if len(spec.relations) == 0 {
		return eligible
	}
	var kept []int
	for _, idx := range eligible {
		item := lines[idx].item
		if matchRelation(spec.relations, item.ProductID, item.SkuID) != nil {
			kept = append(kept, idx)
		}
	}
	return kept
}

// prefilterActivityCapacity 预览期的容量预检
// 总量或库存不足时跳过（只记警告），与提交期的硬失败区分开。
func prefilterActivityCapacity(c *candidate, lines []*lineState, eligible []int) ([]int, bool) {
	activity := c.activity
	totalQty := 0
	for _, idx := range eligible {
		totalQty += lines[idx].item.Quantity
	}
	if activity != nil && activity.TotalLimit != nil && activity.SoldQuantity+totalQty > *activity.TotalLimit {
		for _, idx := range eligible {
			lines[idx].warnings = append(lines[idx].warnings, "activity sold out")
		}
		logger.Warnw("activity_total_limit_reached",
			"activity_id", c.id,
			"sold_quantity", activity.SoldQuantity,
			"requested", totalQty,
		)
		return nil, false
	}

	var kept []int
	for _, idx := range eligible {
		line := lines[idx]
		product := c.products[line.item.ProductID]
		if product != nil && product.ActivityStock > 0 && product.RemainingStock() < line.item.Quantity {
			line.warnings = append(line.warnings, "activity stock insufficient")
			logger.Warnw("activity_stock_insufficient",
				"activity_id", c.id,
				"product_id", line.item.ProductID,
				"remaining", product.RemainingStock(),
				"requested", line.item.Quantity,
			)
			continue
		}
		kept = append(kept, idx)
	}
	return kept, len(kept) > 0
}

// applyActivityPrice 活动价覆盖：活动商品配置了低于现价的活动价时按活动价结算
func applyActivityPrice(c *candidate, lines []*lineState, eligible []int, outcome *stackingOutcome) bool {
	applied := false
	for _, idx := range eligible {
		line := lines[idx]
		product := c.products[line.item.ProductID]
		if product == nil || !product.ActivityPrice.Decimal.GreaterThan(decimal.Zero) {
			continue
		}
		target := product.ActivityPrice.Decimal.
			Mul(decimal.NewFromInt(int64(line.item.Quantity))).
			Round(2)
		if target.GreaterThanOrEqual(line.running) {
			continue
		}
		amount := line.running.Sub(target)
		line.details = append(line.details, DiscountBreakdownEntry{
			ActivityID:     c.id,
			ActivityName:   c.name,
			ActivityType:   c.typ,
			DiscountType:   constants.DiscountTypeSpecialPrice,
			DiscountValue:  product.ActivityPrice,
			DiscountAmount: models.NewMoneyFromDecimal(amount),
			ProductID:      line.item.ProductID,
			SkuID:          line.item.SkuID,
			Reason:         "活动价",
		})
		line.running = target
		applied = true
	}
	return applied
}

// settleApplication 将一次优惠落地：扣减行金额、写明细、归集赠品与台账预留
func settleApplication(c *candidate, spec *discountSpec, lines []*lineState, app *application, outcome *stackingOutcome) {
	for _, d := range app.lineDiscounts {
		line := lines[d.lineIdx]
		line.details = append(line.details, DiscountBreakdownEntry{
			ActivityID:     c.id,
			ActivityName:   c.name,
			ActivityType:   c.typ,
			DiscountType:   spec.kind,
			DiscountValue:  models.NewMoneyFromDecimal(spec.value),
			DiscountAmount: models.NewMoneyFromDecimal(d.amount),
			ProductID:      line.item.ProductID,
			SkuID:          line.item.SkuID,
			Reason:         d.reason,
			Metadata:       d.metadata,
		})
		line.running = line.running.Sub(d.amount)
	}

	if app.freeFreight {
		outcome.freeFreight = true
		outcome.cartDetails = append(outcome.cartDetails, DiscountBreakdownEntry{
			ActivityID:    c.id,
			ActivityName:  c.name,
			ActivityType:  c.typ,
			DiscountType:  spec.kind,
			DiscountValue: models.NewMoneyFromDecimal(spec.value),
			Reason:        app.cartReason,
		})
	}

	for _, gift := range app.gifts {
		outcome.gifts = append(outcome.gifts, gift)
	}

	if spec.isLimited && spec.discountID != 0 {
		outcome.reservations = append(outcome.reservations, Reservation{
			Resource:   constants.LedgerResourceDiscountQuota,
			DiscountID: spec.discountID,
			Amount:     1,
		})
	}
	for relationID, used := range app.relationUse {
		if used <= 0 {
			continue
		}
		outcome.reservations = append(outcome.reservations, Reservation{
			Resource:   constants.LedgerResourceRelationQuota,
			DiscountID: spec.discountID,
			RelationID: relationID,
			Amount:     used,
		})
	}
}

// reserveActivityCapacity 归集活动参与量与商品库存的提交期预留
func reserveActivityCapacity(c *candidate, lines []*lineState, eligible []int, outcome *stackingOutcome) {
	totalQty := 0
	for _, idx := range eligible {
		line := lines[idx]
		totalQty += line.item.Quantity
		// activity_stock 为 0 表示不限量，与预检口径一致，不产生库存预留
		if product := c.products[line.item.ProductID]; product != nil && product.ActivityStock > 0 {
			outcome.reservations = append(outcome.reservations, Reservation{
				Resource:   constants.LedgerResourceActivityStock,
				ActivityID: c.id,
				ProductID:  line.item.ProductID,
				Amount:     line.item.Quantity,
			})
		}
	}
	if totalQty > 0 {
		outcome.reservations = append(outcome.reservations, Reservation{
			Resource:   constants.LedgerResourceActivityTotal,
			ActivityID: c.id,
			Amount:     totalQty,
		})
	}
}
