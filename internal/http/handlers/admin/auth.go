package admin

import (
	"errors"

	"github.com/lingqian-app/lingqian/internal/http/handlers/shared"
	"github.com/lingqian-app/lingqian/internal/http/response"
	"github.com/lingqian-app/lingqian/internal/service"

	"github.com/gin-gonic/gin"
)

type adminLoginRequest struct {
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login 管理员登录
func (h *Handler) Login(c *gin.Context) {
	var req adminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数不合法")
		return
	}

	user, token, expireAt, err := h.AuthService.AdminLogin(req.Phone, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound), errors.Is(err, service.ErrInvalidPassword):
			response.Unauthorized(c, "手机号或密码错误")
		case errors.Is(err, service.ErrUserDisabled):
			response.Forbidden(c, "账号已被禁用")
		default:
			shared.RespondError(c, response.CodeInternal, "登录失败", err)
		}
		return
	}

	requestLog(c).Infow("admin_login", "user_id", user.ID)
	response.Success(c, gin.H{
		"token":     token,
		"expire_at": expireAt.Unix(),
		"user": gin.H{
			"id":       user.ID,
			"phone":    user.Phone,
			"nickname": user.Nickname,
		},
	})
}
