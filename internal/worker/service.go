package worker

import (
	"context"
	"errors"
	"time"

	"github.com/promo-engine/internal/cache"
	"github.com/promo-engine/internal/config"
	"github.com/promo-engine/internal/logger"
	"github.com/promo-engine/internal/queue"

	"github.com/hibiken/asynq"
)

const (
	statusSyncInterval = 5 * time.Minute
)

// Service 异步队列服务
type Service struct {
	name     string
	server   *asynq.Server
	mux      *asynq.ServeMux
	consumer *Consumer
}

// NewService 创建异步队列服务
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		name:     "worker",
		server:   server,
		mux:      mux,
		consumer: consumer,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if s.consumer != nil && s.consumer.ActivityStatusService != nil {
		go s.runStatusSyncLoop(ctx)
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

// runStatusSyncLoop 定时重算活动状态，跨越时间边界的变更落库并失效目录缓存
func (s *Service) runStatusSyncLoop(ctx context.Context) {
	if s == nil || s.consumer == nil || s.consumer.ActivityStatusService == nil {
		return
	}
	runOnce := func() {
		changed, err := s.consumer.ActivityStatusService.SyncStatuses(time.Now())
		if err != nil {
			logger.Warnw("worker_status_sync_loop_failed", "error", err)
			return
		}
		if changed > 0 {
			if err := cache.InvalidateEligibleCampaigns(ctx); err != nil {
				logger.Warnw("worker_status_sync_loop_cache_invalidate_failed", "error", err)
			}
		}
	}
	runOnce()

	ticker := time.NewTicker(statusSyncInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
