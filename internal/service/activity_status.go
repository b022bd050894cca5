package service

import (
	"time"

	"github.com/promo-engine/internal/constants"
	"github.com/promo-engine/internal/logger"
	"github.com/promo-engine/internal/repository"
)

// ActivityStatusAt 按时间推导活动状态（纯函数）
// 边界约定：start、end 均含端点，仅严格晚于 end 判定为 finished。
func ActivityStatusAt(now, startTime, endTime time.Time) string {
	if now.After(endTime) {
		return constants.ActivityStatusFinished
	}
	if !now.Before(startTime) {
		return constants.ActivityStatusActive
	}
	return constants.ActivityStatusPending
}

// ActivityStatusService 活动状态同步服务
// 定价路径始终按时间重算状态，这里只负责把持久化状态兜底对齐，
// 供外部调度器周期触发。
type ActivityStatusService struct {
	activityRepo repository.ActivityRepository
	batchSize    int
}

// NewActivityStatusService 创建活动状态同步服务
func NewActivityStatusService(activityRepo repository.ActivityRepository, batchSize int) *ActivityStatusService {
	if batchSize <= 0 {
		batchSize = 200
	}
	return &ActivityStatusService{
		activityRepo: activityRepo,
		batchSize:    batchSize,
	}
}

// SyncStatuses 重算并持久化全部有效活动的状态，返回变更条数
func (s *ActivityStatusService) SyncStatuses(now time.Time) (int, error) {
	changed := 0
	offset := 0
	for {
		activities, err := s.activityRepo.ListValid(offset, s.batchSize)
		if err != nil {
			return changed, err
		}
		if len(activities) == 0 {
			return changed, nil
		}
		for _, activity := range activities {
			computed := ActivityStatusAt(now, activity.StartTime, activity.EndTime)
			if computed == activity.Status {
				continue
			}
			if err := s.activityRepo.UpdateStatus(activity.ID, computed); err != nil {
				logger.Warnw("activity_status_sync_update_failed",
					"activity_id", activity.ID,
					"from", activity.Status,
					"to", computed,
					"error", err,
				)
				continue
			}
			changed++
		}
		if len(activities) < s.batchSize {
			return changed, nil
		}
		offset += s.batchSize
	}
}
