package public

import (
	"github.com/lingqian-app/lingqian/internal/http/handlers/shared"
	"github.com/lingqian-app/lingqian/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetSiteConfig 公开站点配置（公告、客服联系方式等）
func (h *Handler) GetSiteConfig(c *gin.Context) {
	settings, err := h.SettingService.GetPublicSettings()
	if err != nil {
		shared.RespondError(c, response.CodeInternal, "查询站点配置失败", err)
		return
	}
	response.Success(c, settings)
}
