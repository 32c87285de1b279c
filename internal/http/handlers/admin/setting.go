package admin

import (
	"errors"

	"github.com/lingqian-app/lingqian/internal/http/handlers/shared"
	"github.com/lingqian-app/lingqian/internal/http/response"
	"github.com/lingqian-app/lingqian/internal/service"

	"github.com/gin-gonic/gin"
)

// GetSettings 读取站点配置
func (h *Handler) GetSettings(c *gin.Context) {
	settings, err := h.SettingService.GetPublicSettings()
	if err != nil {
		shared.RespondError(c, response.CodeInternal, "查询配置失败", err)
		return
	}
	response.Success(c, settings)
}

// UpdateSettings 批量更新站点配置
func (h *Handler) UpdateSettings(c *gin.Context) {
	var req map[string]string
	if err := c.ShouldBindJSON(&req); err != nil || len(req) == 0 {
		response.BadRequest(c, "参数不合法")
		return
	}

	if err := h.SettingService.UpdateSettings(req); err != nil {
		if errors.Is(err, service.ErrSettingKeyInvalid) {
			response.BadRequest(c, "配置项不存在")
			return
		}
		shared.RespondError(c, response.CodeInternal, "更新配置失败", err)
		return
	}

	requestLog(c).Infow("settings_updated", "keys", len(req))
	response.SuccessWithMsg(c, "配置已更新", nil)
}
