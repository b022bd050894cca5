package admin

import (
	"strconv"
	"time"

	"github.com/promo-engine/internal/cache"
	"github.com/promo-engine/internal/http/response"
	"github.com/promo-engine/internal/queue"

	"github.com/gin-gonic/gin"
)

// SyncActivityStatuses 触发一次活动状态同步
// 队列可用时投递异步任务，否则同步执行并返回变更数。
func (h *Handler) SyncActivityStatuses(c *gin.Context) {
	now := time.Now()

	if h.QueueClient.Enabled() {
		payload := queue.ActivityStatusSyncPayload{TriggeredAt: now.Unix()}
		if err := h.QueueClient.EnqueueActivityStatusSync(payload); err != nil {
			requestLog(c).Warnw("activity_status_sync_enqueue_failed", "error", err)
			respondError(c, response.CodeInternal, "status sync failed", err)
			return
		}
		response.SuccessWithMsg(c, "status sync scheduled", nil)
		return
	}

	changed, err := h.ActivityStatusService.SyncStatuses(now)
	if err != nil {
		respondError(c, response.CodeInternal, "status sync failed", err)
		return
	}
	if changed > 0 {
		if err := cache.InvalidateEligibleCampaigns(c.Request.Context()); err != nil {
			requestLog(c).Warnw("activity_status_sync_cache_invalidate_failed", "error", err)
		}
	}
	response.Success(c, gin.H{"changed": changed})
}

// ListActivityProducts 查询活动商品配置的库存与销量明细
func (h *Handler) ListActivityProducts(c *gin.Context) {
	activityID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || activityID == 0 {
		respondError(c, response.CodeBadRequest, "invalid activity id", err)
		return
	}

	activity, err := h.ActivityRepo.GetByID(uint(activityID))
	if err != nil {
		respondError(c, response.CodeInternal, "query activity failed", err)
		return
	}
	if activity == nil {
		respondError(c, response.CodeNotFound, "activity not found", nil)
		return
	}

	products, err := h.ActivityProductRepo.ListByActivity(uint(activityID))
	if err != nil {
		respondError(c, response.CodeInternal, "query activity products failed", err)
		return
	}
	response.Success(c, gin.H{
		"activity_id": activity.ID,
		"products":    products,
	})
}
