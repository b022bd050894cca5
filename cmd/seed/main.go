package main

import (
	"time"

	"github.com/promo-engine/internal/config"
	"github.com/promo-engine/internal/constants"
	"github.com/promo-engine/internal/logger"
	"github.com/promo-engine/internal/models"
	"github.com/promo-engine/internal/repository"

	"github.com/shopspring/decimal"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	now := time.Now()
	activityRepo := repository.NewActivityRepository(models.DB)
	campaignRepo := repository.NewCampaignRepository(models.DB)

	// 限时秒杀活动：活动价 + 限量库存
	totalLimit := 500
	seckill := &models.TimeLimitActivity{
		Name:         "周末秒杀",
		ActivityType: constants.ActivityTypeLimitedTimeSeckill,
		Status:       constants.ActivityStatusActive,
		StartTime:    now.Add(-time.Hour),
		EndTime:      now.Add(48 * time.Hour),
		Priority:     100,
		Exclusive:    true,
		TotalLimit:   &totalLimit,
		ProductIDs:   models.UintList{1001, 1002},
		Valid:        true,
		Products: []models.ActivityProduct{
			{
				ProductID:     1001,
				ActivityPrice: models.NewMoneyFromDecimal(decimal.NewFromInt(79)),
				LimitPerUser:  2,
				ActivityStock: 200,
			},
			{
				ProductID:     1002,
				ActivityPrice: models.NewMoneyFromDecimal(decimal.NewFromInt(129)),
				LimitPerUser:  1,
				ActivityStock: 100,
			},
		},
	}
	if err := activityRepo.Create(seckill); err != nil {
		stdLog.Fatalf("Failed to seed seckill activity: %v", err)
	}

	// 限时折扣活动：满减规则 + 预热展示
	preheatStart := now.Add(6 * time.Hour)
	discountActivity := &models.TimeLimitActivity{
		Name:             "开学季折扣",
		ActivityType:     constants.ActivityTypeLimitedTimeDiscount,
		Status:           constants.ActivityStatusPending,
		StartTime:        now.Add(24 * time.Hour),
		EndTime:          now.Add(7 * 24 * time.Hour),
		Priority:         50,
		ProductIDs:       models.UintList{2001, 2002, 2003},
		PreheatEnabled:   true,
		PreheatStartTime: &preheatStart,
		Valid:            true,
		Rules: []models.DiscountRule{
			{
				DiscountType:  constants.DiscountTypeReduction,
				DiscountValue: models.NewMoneyFromDecimal(decimal.NewFromInt(30)),
				MinAmount:     models.NewMoneyFromDecimal(decimal.NewFromInt(200)),
			},
			{
				DiscountType: constants.DiscountTypeBuyGive,
				GiftQuantity: 1,
				GiftProductIDs: models.UintList{
					9001,
				},
			},
		},
	}
	if err := activityRepo.Create(discountActivity); err != nil {
		stdLog.Fatalf("Failed to seed discount activity: %v", err)
	}

	// 营销活动：约束 + 多类型优惠
	campaign := &models.Campaign{
		Title:     "会员回馈月",
		StartTime: now.Add(-24 * time.Hour),
		EndTime:   now.Add(30 * 24 * time.Hour),
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
				Value:     models.NewMoneyFromDecimal(decimal.NewFromInt(20)),
				IsLimited: true,
				Quota:     1000,
				Condition: &models.DiscountCondition{
					Condition1: "100",
				},
			},
			{
				Type:  constants.DiscountTypePercentage,
				Value: models.NewMoneyFromDecimal(decimal.RequireFromString("9.5")),
			},
			{
				Type:  constants.DiscountTypeFreeFreight,
				Value: models.NewMoneyFromDecimal(decimal.Zero),
				Condition: &models.DiscountCondition{
					Condition1: `["上海","江苏","浙江"]`,
					Condition2: "99",
				},
			},
			{
				Type:  constants.DiscountTypeBuyNGetM,
				Value: models.NewMoneyFromDecimal(decimal.Zero),
				FreeCondition: &models.DiscountFreeCondition{
					PurchaseQuantity: 3,
					FreeQuantity:     1,
				},
				Relations: []models.ProductRelation{
					{SpuID: 2001},
				},
			},
			{
				Type:  constants.DiscountTypeSpendThresholdAddOn,
				Value: models.NewMoneyFromDecimal(decimal.Zero),
				Condition: &models.DiscountCondition{
					Condition1: "300",
					Condition2: "9.9",
					Condition3: "2",
				},
				Relations: []models.ProductRelation{
					{SpuID: 3001, Total: 500},
				},
			},
		},
	}
	if err := campaignRepo.Create(campaign); err != nil {
		stdLog.Fatalf("Failed to seed campaign: %v", err)
	}

	stdLog.Printf("Seed finished: activities=%d campaigns=%d", 2, 1)
}
