package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/promo-engine/internal/cache"
	"github.com/promo-engine/internal/logger"
	"github.com/promo-engine/internal/provider"
	"github.com/promo-engine/internal/queue"
	"github.com/promo-engine/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskActivityStatusSync, c.handleActivityStatusSync)
	mux.HandleFunc(queue.TaskLedgerRelease, c.handleLedgerRelease)
}

func (c *Consumer) handleActivityStatusSync(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_activity_status_sync_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.ActivityStatusSyncPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_activity_status_sync_unmarshal_failed", "error", err)
		return err
	}
	now := time.Now()
	if payload.TriggeredAt > 0 {
		now = time.Unix(payload.TriggeredAt, 0)
	}
	if c.ActivityStatusService == nil {
		logger.Warnw("worker_activity_status_sync_skip_service_nil")
		return nil
	}
	changed, err := c.ActivityStatusService.SyncStatuses(now)
	if err != nil {
		logger.Warnw("worker_activity_status_sync_failed", "error", err)
		return err
	}
	if changed > 0 {
		if err := cache.InvalidateEligibleCampaigns(ctx); err != nil {
			logger.Warnw("worker_activity_status_sync_cache_invalidate_failed", "error", err)
		}
	}
	logger.Infow("worker_activity_status_sync_done", "changed", changed)
	return nil
}

func (c *Consumer) handleLedgerRelease(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_ledger_release_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.LedgerReleasePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_ledger_release_unmarshal_failed", "error", err)
		return err
	}
	if len(payload.Reservations) == 0 {
		logger.Debugw("worker_ledger_release_skip_empty_payload", "order_ref", payload.OrderRef)
		return nil
	}
	if c.LedgerService == nil {
		logger.Warnw("worker_ledger_release_skip_service_nil", "order_ref", payload.OrderRef)
		return nil
	}
	reservations := make([]service.Reservation, 0, len(payload.Reservations))
	for _, r := range payload.Reservations {
		reservations = append(reservations, service.Reservation{
			Resource:   r.Resource,
			ActivityID: r.ActivityID,
			ProductID:  r.ProductID,
			DiscountID: r.DiscountID,
			RelationID: r.RelationID,
			Amount:     r.Amount,
		})
	}
	if err := c.LedgerService.Release(reservations); err != nil {
		logger.Warnw("worker_ledger_release_failed", "order_ref", payload.OrderRef, "error", err)
		return err
	}
	logger.Infow("worker_ledger_release_done", "order_ref", payload.OrderRef, "count", len(reservations))
	return nil
}
