package service

import (
	"time"

	"github.com/promo-engine/internal/logger"
	"github.com/promo-engine/internal/models"

	"github.com/shopspring/decimal"
)

// PricingService 定价引擎入口
// Calculate 是纯预览（不动任何计数器）；Commit 在预览结果之上原子消耗台账资源。
type PricingService struct {
	eligibility *EligibilityService
	ledger      *LedgerService
}

// NewPricingService 创建定价服务
func NewPricingService(eligibility *EligibilityService, ledger *LedgerService) *PricingService {
	return &PricingService{
		eligibility: eligibility,
		ledger:      ledger,
	}
}

// Calculate 计算购物车价格
// 输入非法返回 Success=false；单个促销配置异常只降级为不应用该促销；
// 仅目录存储不可用时返回错误。
func (s *PricingService) Calculate(in *CalculateInput) (*PriceResult, error) {
	if in == nil || len(in.Items) == 0 {
		return &PriceResult{
			Success: false,
			Message: "cart is empty",
			Items:   []ItemResult{},
		}, nil
	}
	for _, item := range in.Items {
		if item.Quantity <= 0 || item.UnitPrice.Decimal.LessThan(decimal.Zero) {
			return &PriceResult{
				Success: false,
				Message: "invalid cart item",
				Items:   []ItemResult{},
			}, nil
		}
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}

	lines := make([]*lineState, 0, len(in.Items))
	for _, item := range in.Items {
		original := item.UnitPrice.Decimal.
			Mul(decimal.NewFromInt(int64(item.Quantity))).
			Round(2)
		lines = append(lines, &lineState{
			item:     item,
			original: original,
			running:  original,
		})
	}

	candidates, upcoming, err := s.eligibility.CollectCandidates(in, lines, now)
	if err != nil {
		logger.Errorw("pricing_catalog_unavailable", "error", err.Error())
		return nil, err
	}
	outcome := runStacking(lines, candidates, in)

	return assembleResult(lines, outcome, upcoming), nil
}

// Commit 计算并消耗台账资源
// 预览成功后一次性预占全部资源；容量不足返回 ErrCapacityExceeded 且无副作用。
func (s *PricingService) Commit(in *CalculateInput) (*PriceResult, error) {
	result, err := s.Calculate(in)
	if err != nil {
		return nil, err
	}
	if !result.Success {
		return result, nil
	}
	if err := s.ledger.TryReserve(result.Reservations); err != nil {
		return nil, err
	}
	logger.Infow("pricing_committed",
		"user_id", in.UserID,
		"final_total", result.FinalTotal.String(),
		"reservations", len(result.Reservations),
	)
	return result, nil
}

// Release 释放一次提交预占的台账资源（订单失败补偿）
func (s *PricingService) Release(reservations []Reservation) error {
	return s.ledger.Release(reservations)
}

// assembleResult 汇总行级结果与整车口径
// 恒等式按构造成立：每行 明细金额之和 == 原价 − 实付。
func assembleResult(lines []*lineState, outcome *stackingOutcome, upcoming []UpcomingActivity) *PriceResult {
	result := &PriceResult{
		Success:            true,
		Items:              make([]ItemResult, 0, len(lines)),
		FreeFreight:        outcome.freeFreight,
		AppliedActivities:  outcome.applied,
		UpcomingActivities: upcoming,
		Gifts:              outcome.gifts,
		Reservations:       outcome.reservations,
	}

	originalTotal := decimal.Zero
	finalTotal := decimal.Zero
	for _, line := range lines {
		discountAmount := line.original.Sub(line.running)
		result.Items = append(result.Items, ItemResult{
			ProductID:      line.item.ProductID,
			SkuID:          line.item.SkuID,
			Quantity:       line.item.Quantity,
			UnitPrice:      line.item.UnitPrice,
			OriginalAmount: models.NewMoneyFromDecimal(line.original),
			DiscountAmount: models.NewMoneyFromDecimal(discountAmount),
			FinalAmount:    models.NewMoneyFromDecimal(line.running),
			Details:        line.details,
			Gifts:          line.gifts,
			Warnings:       line.warnings,
		})
		result.DiscountDetails = append(result.DiscountDetails, line.details...)
		originalTotal = originalTotal.Add(line.original)
		finalTotal = finalTotal.Add(line.running)
	}
	result.DiscountDetails = append(result.DiscountDetails, outcome.cartDetails...)

	result.OriginalTotal = models.NewMoneyFromDecimal(originalTotal)
	result.FinalTotal = models.NewMoneyFromDecimal(finalTotal)
	result.DiscountTotal = models.NewMoneyFromDecimal(originalTotal.Sub(finalTotal))
	return result
}
