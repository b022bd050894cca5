package service

import (
	"context"
	"fmt"
	"time"

	"github.com/promo-engine/internal/cache"
	"github.com/promo-engine/internal/constants"
	"github.com/promo-engine/internal/logger"
	"github.com/promo-engine/internal/models"
	"github.com/promo-engine/internal/repository"
)

// EligibilityService 候选促销匹配服务
// 拉取时间窗内的限时活动与营销活动，内联重算状态，落实互斥规则，
// 输出按优先级排好序的候选列表。
type EligibilityService struct {
	activityRepo repository.ActivityRepository
	campaignRepo repository.CampaignRepository
	cacheTTL     time.Duration
}

// NewEligibilityService 创建候选匹配服务
func NewEligibilityService(activityRepo repository.ActivityRepository, campaignRepo repository.CampaignRepository, cacheTTL time.Duration) *EligibilityService {
	return &EligibilityService{
		activityRepo: activityRepo,
		campaignRepo: campaignRepo,
		cacheTTL:     cacheTTL,
	}
}

// CollectCandidates 收集购物车命中的候选促销
// 定价路径不信任落库的活动状态，始终按 now 重算；预热期活动只进展示列表。
func (s *EligibilityService) CollectCandidates(in *CalculateInput, lines []*lineState, now time.Time) ([]*candidate, []UpcomingActivity, error) {
	productIDs := make([]uint, 0, len(lines))
	for _, line := range lines {
		productIDs = append(productIDs, line.item.ProductID)
	}

	activities, err := s.activityRepo.FindActiveForProducts(productIDs, now)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	campaigns, err := s.fetchCampaigns(now)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}

	var candidates []*candidate
	var upcoming []UpcomingActivity

	for i := range activities {
		activity := &activities[i]
		status := ActivityStatusAt(now, activity.StartTime, activity.EndTime)
		if status == constants.ActivityStatusPending {
			if activity.PreheatEnabled && activity.PreheatStartTime != nil && !now.Before(*activity.PreheatStartTime) {
				upcoming = append(upcoming, UpcomingActivity{
					ID:        activity.ID,
					Name:      activity.Name,
					Type:      activity.ActivityType,
					StartTime: activity.StartTime,
				})
			}
			continue
		}
		if status != constants.ActivityStatusActive {
			continue
		}
		if c := s.buildActivityCandidate(activity, lines); c != nil {
			candidates = append(candidates, c)
		}
	}

	ctx := buildCartContext(in.Items, in.UserClass)
	for i := range campaigns {
		campaign := &campaigns[i]
		if !campaignWindowOpen(campaign, now) {
			continue
		}
		if !evaluateConstraints(campaign, ctx) {
			continue
		}
		if c := s.buildCampaignCandidate(campaign, lines); c != nil {
			candidates = append(candidates, c)
		}
	}

	sortCandidates(candidates)
	return resolveExclusivity(candidates), upcoming, nil
}

// fetchCampaigns 获取营销活动目录
// 缓存可用时读全量快照并按 now 在内存过滤时间窗，避免每次定价打库；
// 缓存未启用或读失败时直接走数据库。
func (s *EligibilityService) fetchCampaigns(now time.Time) ([]models.Campaign, error) {
	if !cache.Enabled() {
		return s.campaignRepo.FindEligible(now)
	}
	ctx := context.Background()
	if campaigns, hit, err := cache.GetEligibleCampaigns(ctx); err == nil && hit {
		return campaigns, nil
	} else if err != nil {
		logger.Warnw("campaign_cache_read_failed", "error", err.Error())
	}

	campaigns, err := s.campaignRepo.ListValid()
	if err != nil {
		return nil, err
	}
	if err := cache.SetEligibleCampaigns(ctx, campaigns, s.cacheTTL); err != nil {
		logger.Warnw("campaign_cache_write_failed", "error", err.Error())
	}
	return campaigns, nil
}

// campaignWindowOpen 判断营销活动在 now 是否处于有效时间窗
func campaignWindowOpen(c *models.Campaign, now time.Time) bool {
	return c.Valid && !now.Before(c.StartTime) && !now.After(c.EndTime)
}

// buildActivityCandidate 将限时活动装配为候选，规则配置异常时仅跳过该规则
func (s *EligibilityService) buildActivityCandidate(activity *models.TimeLimitActivity, lines []*lineState) *candidate {
	var eligible []int
	for i, line := range lines {
		if activity.ProductIDs.Contains(line.item.ProductID) {
			eligible = append(eligible, i)
		}
	}
	if len(eligible) == 0 {
		return nil
	}

	products := make(map[uint]*models.ActivityProduct, len(activity.Products))
	for i := range activity.Products {
		products[activity.Products[i].ProductID] = &activity.Products[i]
	}

	var specs []*discountSpec
	for i := range activity.Rules {
		rule := &activity.Rules[i]
		spec, err := resolveRuleSpec(rule)
		if err != nil {
			logger.Warnw("promotion_config_invalid",
				"source", constants.PromotionSourceActivity,
				"activity_id", activity.ID,
				"rule_id", rule.ID,
				"error", err.Error(),
			)
			continue
		}
		specs = append(specs, spec)
	}
	// 无可用规则时，活动价覆盖仍可能生效
	if len(specs) == 0 && len(products) == 0 {
		return nil
	}

	return &candidate{
		source:    constants.PromotionSourceActivity,
		id:        activity.ID,
		name:      activity.Name,
		typ:       activity.ActivityType,
		priority:  activity.Priority,
		createdAt: activity.CreatedAt,
		exclusive: activity.Exclusive,
		specs:     specs,
		eligible:  eligible,
		activity:  activity,
		products:  products,
	}
}

// buildCampaignCandidate 将营销活动装配为候选
// 营销活动没有显式商品范围，各优惠的商品关系在叠加阶段收窄适用行。
func (s *EligibilityService) buildCampaignCandidate(campaign *models.Campaign, lines []*lineState) *candidate {
	eligible := make([]int, 0, len(lines))
	for i := range lines {
		eligible = append(eligible, i)
	}

	var specs []*discountSpec
	for i := range campaign.Discounts {
		discount := &campaign.Discounts[i]
		spec, err := resolveDiscountSpec(discount)
		if err != nil {
			logger.Warnw("promotion_config_invalid",
				"source", constants.PromotionSourceCampaign,
				"campaign_id", campaign.ID,
				"discount_id", discount.ID,
				"error", err.Error(),
			)
			continue
		}
		specs = append(specs, spec)
	}
	if len(specs) == 0 {
		return nil
	}

	c := &candidate{
		source:    constants.PromotionSourceCampaign,
		id:        campaign.ID,
		name:      campaign.Title,
		typ:       constants.PromotionSourceCampaign,
		priority:  campaign.Weight,
		createdAt: campaign.CreatedAt,
		exclusive: campaign.Exclusive,
		specs:     specs,
		eligible:  eligible,
	}
	// 互斥营销活动只独占其优惠实际可触达的行，
	// 不可触达的行留给其它促销，避免无效压制
	if campaign.Exclusive {
		c.claims = claimableLines(specs, lines)
		if len(c.claims) == 0 {
			c.exclusive = false
		}
	}
	return c
}

// claimableLines 汇总各优惠可产生行级金额的行集合
// 买赠与免邮不落行级金额，不参与占行；加价购只占加购商品行；
// 金额类优惠按商品关系收窄，关系为空表示全场。
func claimableLines(specs []*discountSpec, lines []*lineState) []int {
	claimed := make(map[int]struct{})
	for _, spec := range specs {
		switch spec.kind {
		case constants.DiscountTypeBuyGive, constants.DiscountTypeFreeFreight:
			continue
		case constants.DiscountTypeSpendThresholdAddOn:
			for i, line := range lines {
				if matchRelation(spec.relations, line.item.ProductID, line.item.SkuID) != nil {
					claimed[i] = struct{}{}
				}
			}
		default:
			if len(spec.relations) == 0 {
				for i := range lines {
					claimed[i] = struct{}{}
				}
				continue
			}
			for i, line := range lines {
				if matchRelation(spec.relations, line.item.ProductID, line.item.SkuID) != nil {
					claimed[i] = struct{}{}
				}
			}
		}
	}
	out := make([]int, 0, len(claimed))
	for i := range lines {
		if _, ok := claimed[i]; ok {
			out = append(out, i)
		}
	}
	return out
}
