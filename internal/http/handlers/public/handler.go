package public

import "github.com/promo-engine/internal/provider"

// Handler 对外定价接口处理器入口
type Handler struct {
	*provider.Container
}

// New 创建定价处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
