package public

import (
	"errors"

	"github.com/lingqian-app/lingqian/internal/http/handlers/shared"
	"github.com/lingqian-app/lingqian/internal/http/response"
	"github.com/lingqian-app/lingqian/internal/service"

	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Phone    string `json:"phone" binding:"required"`
	Nickname string `json:"nickname"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register 手机号注册
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数不合法")
		return
	}

	user, err := h.AuthService.Register(service.RegisterInput{
		Phone:    req.Phone,
		Nickname: req.Nickname,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPhoneTaken):
			response.BadRequest(c, "手机号已被注册")
		case errors.Is(err, service.ErrInvalidPassword):
			response.BadRequest(c, "手机号或密码格式不合法")
		default:
			shared.RespondError(c, response.CodeInternal, "注册失败", err)
		}
		return
	}

	requestLog(c).Infow("user_registered", "user_id", user.ID)
	response.Success(c, gin.H{
		"id":       user.ID,
		"phone":    user.Phone,
		"nickname": user.Nickname,
	})
}

// Login 手机号登录
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数不合法")
		return
	}

	user, token, expireAt, err := h.AuthService.Login(req.Phone, req.Password)
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

	requestLog(c).Infow("user_login", "user_id", user.ID)
	response.Success(c, gin.H{
		"token":     token,
		"expire_at": expireAt.Unix(),
		"user": gin.H{
			"id":       user.ID,
			"phone":    user.Phone,
			"nickname": user.Nickname,
			"role":     user.Role,
		},
	})
}
