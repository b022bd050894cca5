package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/promo-engine/internal/constants"
	"github.com/promo-engine/internal/models"
	"github.com/promo-engine/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupPricingTest(t *testing.T) (*PricingService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:pricing_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.TimeLimitActivity{},
		&models.ActivityProduct{},
		&models.DiscountRule{},
		&models.Campaign{},
		&models.Constraint{},
		&models.Discount{},
		&models.DiscountCondition{},
		&models.DiscountFreeCondition{},
		&models.ProductRelation{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	eligibility := NewEligibilityService(
		repository.NewActivityRepository(db),
		repository.NewCampaignRepository(db),
		0,
	)
	ledger := NewLedgerService(db, repository.NewLedgerRepository(db))
	return NewPricingService(eligibility, ledger), db
}

func money(s string) models.Money {
	return models.NewMoneyFromDecimal(decimal.RequireFromString(s))
}

func seedReductionCampaign(t *testing.T, db *gorm.DB, now time.Time, limited bool, quota int) *models.Campaign {
	t.Helper()
	campaign := &models.Campaign{
		Title:     "满100减20",
		StartTime: now.Add(-time.Hour),
		EndTime:   now.Add(time.Hour),
		Weight:    10,
		Valid:     true,
		Constraints: []models.Constraint{
			{
				CompareType: constants.CompareTypeGTE,
				LimitType:   constants.LimitTypeOrderPrice,
				RangeValue:  "100",
			},
		},
		Discounts: []models.Discount{
			{
				Type:      constants.DiscountTypeReduction,
				Value:     money("20"),
				IsLimited: limited,
				Quota:     quota,
				Condition: &models.DiscountCondition{Condition1: "100"},
			},
		},
	}
	if err := db.Create(campaign).Error; err != nil {
		t.Fatalf("seed campaign failed: %v", err)
	}
	return campaign
}

func TestCalculateEmptyCart(t *testing.T) {
	svc, _ := setupPricingTest(t)

	result, err := svc.Calculate(&CalculateInput{})
	if err != nil {
		t.Fatalf("calculate failed: %v", err)
	}
	if result.Success {
		t.Fatalf("empty cart must not succeed")
	}
	if result.Message != "cart is empty" {
		t.Fatalf("message want 'cart is empty' got %q", result.Message)
	}
}

func TestCalculateInvalidItem(t *testing.T) {
	svc, _ := setupPricingTest(t)

	result, err := svc.Calculate(&CalculateInput{
		Items: []CartItem{{ProductID: 1, Quantity: 0, UnitPrice: money("10")}},
	})
	if err != nil {
		t.Fatalf("calculate failed: %v", err)
	}
	if result.Success {
		t.Fatalf("zero quantity must not succeed")
	}
	if result.Message != "invalid cart item" {
		t.Fatalf("message want 'invalid cart item' got %q", result.Message)
	}
}

func TestCalculateNoPromotions(t *testing.T) {
	svc, _ := setupPricingTest(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	result, err := svc.Calculate(&CalculateInput{
		Items: []CartItem{{ProductID: 1, Quantity: 2, UnitPrice: money("49.5")}},
		Now:   now,
	})
	if err != nil {
		t.Fatalf("calculate failed: %v", err)
	}
	if !result.Success {
		t.Fatalf("calculate should succeed: %s", result.Message)
	}
	if result.FinalTotal.String() != "99.00" || result.DiscountTotal.String() != "0.00" {
		t.Fatalf("empty catalog keeps original price, got final=%s discount=%s",
			result.FinalTotal, result.DiscountTotal)
	}
	if len(result.AppliedActivities) != 0 {
		t.Fatalf("nothing should apply, got %v", result.AppliedActivities)
	}
}

func TestCalculateCampaignReduction(t *testing.T) {
	svc, db := setupPricingTest(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	campaign := seedReductionCampaign(t, db, now, false, 0)

	result, err := svc.Calculate(&CalculateInput{
		Items: []CartItem{{ProductID: 1, Quantity: 3, UnitPrice: money("100")}},
		Now:   now,
	})
	if err != nil {
		t.Fatalf("calculate failed: %v", err)
	}
	if !result.Success {
		t.Fatalf("calculate should succeed: %s", result.Message)
	}
	if result.OriginalTotal.String() != "300.00" {
		t.Fatalf("original want 300.00 got %s", result.OriginalTotal)
	}
	if result.FinalTotal.String() != "280.00" {
		t.Fatalf("final want 280.00 got %s", result.FinalTotal)
	}
	if result.DiscountTotal.String() != "20.00" {
		t.Fatalf("discount want 20.00 got %s", result.DiscountTotal)
	}
	if len(result.AppliedActivities) != 1 || result.AppliedActivities[0].Source != constants.PromotionSourceCampaign {
		t.Fatalf("campaign should be the applied source, got %v", result.AppliedActivities)
	}
	if result.AppliedActivities[0].ID != campaign.ID {
		t.Fatalf("applied id want %d got %d", campaign.ID, result.AppliedActivities[0].ID)
	}

	// 恒等式：各行明细之和 == 原价 − 实付
	for _, item := range result.Items {
		sum := decimal.Zero
		for _, d := range item.Details {
			sum = sum.Add(d.DiscountAmount.Decimal)
		}
		diff := item.OriginalAmount.Decimal.Sub(item.FinalAmount.Decimal)
		if !sum.Equal(diff) {
			t.Fatalf("breakdown identity broken: sum=%s diff=%s", sum, diff)
		}
	}
}

func TestCalculateCampaignConstraintExcludes(t *testing.T) {
	svc, db := setupPricingTest(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	seedReductionCampaign(t, db, now, false, 0)

	// 总价 50 不满足 order_price >= 100 约束
	result, err := svc.Calculate(&CalculateInput{
		Items: []CartItem{{ProductID: 1, Quantity: 1, UnitPrice: money("50")}},
		Now:   now,
	})
	if err != nil {
		t.Fatalf("calculate failed: %v", err)
	}
	if result.FinalTotal.String() != "50.00" {
		t.Fatalf("excluded campaign must not discount, got %s", result.FinalTotal)
	}
	if len(result.AppliedActivities) != 0 {
		t.Fatalf("nothing should apply, got %v", result.AppliedActivities)
	}
}

func TestCalculateOutsideCampaignWindow(t *testing.T) {
	svc, db := setupPricingTest(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	seedReductionCampaign(t, db, now, false, 0)

	result, err := svc.Calculate(&CalculateInput{
		Items: []CartItem{{ProductID: 1, Quantity: 3, UnitPrice: money("100")}},
		Now:   now.Add(48 * time.Hour),
	})
	if err != nil {
		t.Fatalf("calculate failed: %v", err)
	}
	if result.FinalTotal.String() != "300.00" {
		t.Fatalf("expired campaign must not discount, got %s", result.FinalTotal)
	}
}

func TestCalculateIsPure(t *testing.T) {
	svc, db := setupPricingTest(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	campaign := seedReductionCampaign(t, db, now, true, 100)

	in := &CalculateInput{
		Items: []CartItem{{ProductID: 1, Quantity: 3, UnitPrice: money("100")}},
		Now:   now,
	}

	first, err := svc.Calculate(in)
	if err != nil {
		t.Fatalf("first calculate failed: %v", err)
	}
	second, err := svc.Calculate(in)
	if err != nil {
		t.Fatalf("second calculate failed: %v", err)
	}
	if first.FinalTotal.String() != second.FinalTotal.String() {
		t.Fatalf("preview must be deterministic: %s vs %s", first.FinalTotal, second.FinalTotal)
	}

	var discount models.Discount
	if err := db.Where("campaign_id = ?", campaign.ID).First(&discount).Error; err != nil {
		t.Fatalf("reload discount failed: %v", err)
	}
	if discount.Number != 0 {
		t.Fatalf("preview must not consume quota, number=%d", discount.Number)
	}
}

func TestCommitConsumesQuota(t *testing.T) {
	svc, db := setupPricingTest(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	campaign := seedReductionCampaign(t, db, now, true, 1)

	in := &CalculateInput{
		Items: []CartItem{{ProductID: 1, Quantity: 3, UnitPrice: money("100")}},
		Now:   now,
	}

	result, err := svc.Commit(in)
	if err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	if result.FinalTotal.String() != "280.00" {
		t.Fatalf("committed final want 280.00 got %s", result.FinalTotal)
	}
	if len(result.Reservations) != 1 {
		t.Fatalf("commit should carry one reservation, got %d", len(result.Reservations))
	}

	var discount models.Discount
	if err := db.Where("campaign_id = ?", campaign.ID).First(&discount).Error; err != nil {
		t.Fatalf("reload discount failed: %v", err)
	}
	if discount.Number != 1 {
		t.Fatalf("commit must consume quota, number=%d", discount.Number)
	}

	// 配额耗尽后再次提交：优惠被跳过，订单按原价成交
	second, err := svc.Commit(in)
	if err != nil {
		t.Fatalf("second commit failed: %v", err)
	}
	if second.FinalTotal.String() != "300.00" {
		t.Fatalf("exhausted quota should fall back to original price, got %s", second.FinalTotal)
	}
}

func TestReleaseRestoresQuota(t *testing.T) {
	svc, db := setupPricingTest(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	campaign := seedReductionCampaign(t, db, now, true, 5)

	in := &CalculateInput{
		Items: []CartItem{{ProductID: 1, Quantity: 3, UnitPrice: money("100")}},
		Now:   now,
	}

	result, err := svc.Commit(in)
	if err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	if err := svc.Release(result.Reservations); err != nil {
		t.Fatalf("release failed: %v", err)
	}

	var discount models.Discount
	if err := db.Where("campaign_id = ?", campaign.ID).First(&discount).Error; err != nil {
		t.Fatalf("reload discount failed: %v", err)
	}
	if discount.Number != 0 {
		t.Fatalf("release must restore quota, number=%d", discount.Number)
	}
}

func TestCalculateActivityPrice(t *testing.T) {
	svc, db := setupPricingTest(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	activity := &models.TimeLimitActivity{
		Name:         "限时秒杀",
		ActivityType: constants.ActivityTypeLimitedTimeSeckill,
		Status:       constants.ActivityStatusActive,
		StartTime:    now.Add(-time.Hour),
		EndTime:      now.Add(time.Hour),
		Priority:     100,
		ProductIDs:   models.UintList{10},
		Valid:        true,
		Products: []models.ActivityProduct{
			{ProductID: 10, ActivityPrice: money("79.9"), ActivityStock: 50},
		},
	}
	if err := db.Create(activity).Error; err != nil {
		t.Fatalf("seed activity failed: %v", err)
	}

	result, err := svc.Calculate(&CalculateInput{
		Items: []CartItem{{ProductID: 10, Quantity: 1, UnitPrice: money("100")}},
		Now:   now,
	})
	if err != nil {
		t.Fatalf("calculate failed: %v", err)
	}
	if result.FinalTotal.String() != "79.90" {
		t.Fatalf("activity price want 79.90 got %s", result.FinalTotal)
	}
	if len(result.AppliedActivities) != 1 || result.AppliedActivities[0].Source != constants.PromotionSourceActivity {
		t.Fatalf("activity should be the applied source, got %v", result.AppliedActivities)
	}
}

func TestCommitActivityStock(t *testing.T) {
	svc, db := setupPricingTest(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	limit := 10
	activity := &models.TimeLimitActivity{
		Name:         "限量购",
		ActivityType: constants.ActivityTypeLimitedQuantityPurchase,
		Status:       constants.ActivityStatusActive,
		StartTime:    now.Add(-time.Hour),
		EndTime:      now.Add(time.Hour),
		TotalLimit:   &limit,
		ProductIDs:   models.UintList{10},
		Valid:        true,
		Products: []models.ActivityProduct{
			{ProductID: 10, ActivityPrice: money("79.9"), ActivityStock: 5},
		},
	}
	if err := db.Create(activity).Error; err != nil {
		t.Fatalf("seed activity failed: %v", err)
	}

	if _, err := svc.Commit(&CalculateInput{
		Items: []CartItem{{ProductID: 10, Quantity: 2, UnitPrice: money("100")}},
		Now:   now,
	}); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	var reloaded models.TimeLimitActivity
	if err := db.First(&reloaded, activity.ID).Error; err != nil {
		t.Fatalf("reload activity failed: %v", err)
	}
	if reloaded.SoldQuantity != 2 {
		t.Fatalf("activity sold quantity want 2 got %d", reloaded.SoldQuantity)
	}

	var product models.ActivityProduct
	if err := db.Where("activity_id = ? AND product_id = ?", activity.ID, 10).First(&product).Error; err != nil {
		t.Fatalf("reload product failed: %v", err)
	}
	if product.SoldQuantity != 2 {
		t.Fatalf("product sold quantity want 2 got %d", product.SoldQuantity)
	}
}

func TestCommitPriceOverrideWithoutStockLimit(t *testing.T) {
	svc, db := setupPricingTest(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// 只配活动价、不限库存（activity_stock=0）的商品，提交不得因库存守卫失败
	activity := &models.TimeLimitActivity{
		Name:         "换购价",
		ActivityType: constants.ActivityTypeLimitedTimeDiscount,
		Status:       constants.ActivityStatusActive,
		StartTime:    now.Add(-time.Hour),
		EndTime:      now.Add(time.Hour),
		ProductIDs:   models.UintList{10},
		Valid:        true,
		Products: []models.ActivityProduct{
			{ProductID: 10, ActivityPrice: money("80"), ActivityStock: 0},
		},
	}
	if err := db.Create(activity).Error; err != nil {
		t.Fatalf("seed activity failed: %v", err)
	}

	result, err := svc.Commit(&CalculateInput{
		Items: []CartItem{{ProductID: 10, Quantity: 1, UnitPrice: money("100")}},
		Now:   now,
	})
	if err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	if result.FinalTotal.String() != "80.00" {
		t.Fatalf("activity price want 80.00 got %s", result.FinalTotal)
	}

	var product models.ActivityProduct
	if err := db.Where("activity_id = ? AND product_id = ?", activity.ID, 10).First(&product).Error; err != nil {
		t.Fatalf("reload product failed: %v", err)
	}
	if product.SoldQuantity != 0 {
		t.Fatalf("untracked stock must not be counted, got %d", product.SoldQuantity)
	}
}

func TestCalculatePreheatUpcoming(t *testing.T) {
	svc, db := setupPricingTest(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	preheatStart := now.Add(-time.Hour)
	activity := &models.TimeLimitActivity{
		Name:             "预热中的活动",
		ActivityType:     constants.ActivityTypeLimitedTimeDiscount,
		Status:           constants.ActivityStatusPending,
		StartTime:        now.Add(2 * time.Hour),
		EndTime:          now.Add(4 * time.Hour),
		PreheatEnabled:   true,
		PreheatStartTime: &preheatStart,
		ProductIDs:       models.UintList{10},
		Valid:            true,
		Products: []models.ActivityProduct{
			{ProductID: 10, ActivityPrice: money("50"), ActivityStock: 5},
		},
	}
	if err := db.Create(activity).Error; err != nil {
		t.Fatalf("seed activity failed: %v", err)
	}

	result, err := svc.Calculate(&CalculateInput{
		Items: []CartItem{{ProductID: 10, Quantity: 1, UnitPrice: money("100")}},
		Now:   now,
	})
	if err != nil {
		t.Fatalf("calculate failed: %v", err)
	}
	if result.FinalTotal.String() != "100.00" {
		t.Fatalf("preheat must not affect the price, got %s", result.FinalTotal)
	}
	if len(result.UpcomingActivities) != 1 || result.UpcomingActivities[0].ID != activity.ID {
		t.Fatalf("preheat should show as upcoming, got %v", result.UpcomingActivities)
	}
}

func TestExclusiveActivitySuppressesCampaign(t *testing.T) {
	svc, db := setupPricingTest(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	seedReductionCampaign(t, db, now, false, 0)

	activity := &models.TimeLimitActivity{
		Name:         "互斥秒杀",
		ActivityType: constants.ActivityTypeLimitedTimeSeckill,
		Status:       constants.ActivityStatusActive,
		StartTime:    now.Add(-time.Hour),
		EndTime:      now.Add(time.Hour),
		Priority:     100,
		Exclusive:    true,
		ProductIDs:   models.UintList{1},
		Valid:        true,
		Products: []models.ActivityProduct{
			{ProductID: 1, ActivityPrice: money("90"), ActivityStock: 50},
		},
	}
	if err := db.Create(activity).Error; err != nil {
		t.Fatalf("seed activity failed: %v", err)
	}

	result, err := svc.Calculate(&CalculateInput{
		Items: []CartItem{{ProductID: 1, Quantity: 3, UnitPrice: money("100")}},
		Now:   now,
	})
	if err != nil {
		t.Fatalf("calculate failed: %v", err)
	}
	// 互斥活动独占该行：活动价 90x3，营销活动不再叠加
	if result.FinalTotal.String() != "270.00" {
		t.Fatalf("exclusive activity alone should price at 270.00, got %s", result.FinalTotal)
	}
	if len(result.AppliedActivities) != 1 || result.AppliedActivities[0].Source != constants.PromotionSourceActivity {
		t.Fatalf("only the exclusive activity should apply, got %v", result.AppliedActivities)
	}
}

func TestCommitCapacityExceeded(t *testing.T) {
	svc, db := setupPricingTest(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	activity := &models.TimeLimitActivity{
		Name:         "库存紧张",
		ActivityType: constants.ActivityTypeLimitedTimeSeckill,
		Status:       constants.ActivityStatusActive,
		StartTime:    now.Add(-time.Hour),
		EndTime:      now.Add(time.Hour),
		ProductIDs:   models.UintList{10},
		Valid:        true,
		Products: []models.ActivityProduct{
			{ProductID: 10, ActivityPrice: money("79.9"), ActivityStock: 2},
		},
	}
	if err := db.Create(activity).Error; err != nil {
		t.Fatalf("seed activity failed: %v", err)
	}

	in := &CalculateInput{
		Items: []CartItem{{ProductID: 10, Quantity: 2, UnitPrice: money("100")}},
		Now:   now,
	}
	result, err := svc.Calculate(in)
	if err != nil {
		t.Fatalf("calculate failed: %v", err)
	}

	// 预览与提交之间库存被别的订单吃掉
	if err := db.Model(&models.ActivityProduct{}).
		Where("activity_id = ? AND product_id = ?", activity.ID, 10).
		UpdateColumn("sold_quantity", 1).Error; err != nil {
		t.Fatalf("simulate concurrent sale failed: %v", err)
	}

	err = svc.Release(nil)
	if err != nil {
		t.Fatalf("releasing nothing should be a no-op: %v", err)
	}

	reserveErr := svc.ledger.TryReserve(result.Reservations)
	if !errors.Is(reserveErr, ErrCapacityExceeded) {
		t.Fatalf("want ErrCapacityExceeded got %v", reserveErr)
	}

	// 全有或全无：失败的预占不得留下任何副作用
	var reloaded models.TimeLimitActivity
	if err := db.First(&reloaded, activity.ID).Error; err != nil {
		t.Fatalf("reload activity failed: %v", err)
	}
	if reloaded.SoldQuantity != 0 {
		t.Fatalf("failed reserve must not bump activity counter, got %d", reloaded.SoldQuantity)
	}
}
