package admin

import "github.com/promo-engine/internal/provider"

// Handler 运维侧接口处理器入口
type Handler struct {
	*provider.Container
}

// New 创建运维处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
