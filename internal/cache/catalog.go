package cache

import (
	"context"
	"time"

	"github.com/promo-engine/internal/constants"
	"github.com/promo-engine/internal/models"
)

// GetEligibleCampaigns 读取营销活动目录快照
// 快照不做时间窗过滤，调用方拿到后按请求时刻自行过滤。
func GetEligibleCampaigns(ctx context.Context) ([]models.Campaign, bool, error) {
	var campaigns []models.Campaign
	hit, err := GetJSON(ctx, constants.CacheKeyEligibleCampaigns, &campaigns)
	if err != nil || !hit {
		return nil, false, err
	}
	return campaigns, true, nil
}

// SetEligibleCampaigns 写入营销活动目录快照
func SetEligibleCampaigns(ctx context.Context, campaigns []models.Campaign, ttl time.Duration) error {
	return SetJSON(ctx, constants.CacheKeyEligibleCampaigns, campaigns, ttl)
}

// InvalidateEligibleCampaigns 失效营销活动目录快照（配置变更、状态同步后调用）
func InvalidateEligibleCampaigns(ctx context.Context) error {
	return Del(ctx, constants.CacheKeyEligibleCampaigns)
}
