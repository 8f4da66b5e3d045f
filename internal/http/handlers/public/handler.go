package public

import "github.com/nextchow/internal/provider"

// Handler 顾客侧接口处理器入口
type Handler struct {
	*provider.Container
}

// New 创建顾客侧处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
