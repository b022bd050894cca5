package provider

import (
	"time"

	"github.com/promo-engine/internal/cache"
	"github.com/promo-engine/internal/config"
	"github.com/promo-engine/internal/logger"
	"github.com/promo-engine/internal/models"
	"github.com/promo-engine/internal/queue"
	"github.com/promo-engine/internal/repository"
	"github.com/promo-engine/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	ActivityRepo        repository.ActivityRepository
	ActivityProductRepo repository.ActivityProductRepository
	CampaignRepo        repository.CampaignRepository
	LedgerRepo          *repository.GormLedgerRepository

	// Services
	EligibilityService    *service.EligibilityService
	LedgerService         *service.LedgerService
	PricingService        *service.PricingService
	ActivityStatusService *service.ActivityStatusService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.ActivityRepo = repository.NewActivityRepository(db)
	c.ActivityProductRepo = repository.NewActivityProductRepository(db)
	c.CampaignRepo = repository.NewCampaignRepository(db)
	c.LedgerRepo = repository.NewLedgerRepository(db)
}

func (c *Container) initServices() {
	cacheTTL := time.Duration(c.Config.Engine.CatalogCacheTTLSeconds) * time.Second
	c.EligibilityService = service.NewEligibilityService(c.ActivityRepo, c.CampaignRepo, cacheTTL)
	c.LedgerService = service.NewLedgerService(models.DB, c.LedgerRepo)
	c.PricingService = service.NewPricingService(c.EligibilityService, c.LedgerService)
	c.ActivityStatusService = service.NewActivityStatusService(c.ActivityRepo, c.Config.Engine.StatusSyncBatchSize)
}
