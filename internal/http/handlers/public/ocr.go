package public

import (
	"errors"

	"github.com/lingqian-app/lingqian/internal/http/handlers/shared"
	"github.com/lingqian-app/lingqian/internal/http/response"
	"github.com/lingqian-app/lingqian/internal/service"

	"github.com/gin-gonic/gin"
)

// RecognizePalm 上传手相图片并转发给 OCR 微服务识别
func (h *Handler) RecognizePalm(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "请上传图片文件")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		shared.RespondError(c, response.CodeInternal, "读取上传文件失败", err)
		return
	}
	defer file.Close()

	result, err := h.OCRService.Recognize(c.Request.Context(), fileHeader.Filename, file)
	if err != nil {
		if errors.Is(err, service.ErrOCRConfigInvalid) {
			response.Error(c, response.CodeInternal, "识别服务未配置")
			return
		}
		requestLog(c).Errorw("ocr_recognize_failed",
			"user_id", userID,
			"filename", fileHeader.Filename,
			"error", err,
		)
		response.Error(c, response.CodeInternal, "识别失败，请稍后重试")
		return
	}

	requestLog(c).Infow("ocr_recognize_done", "user_id", userID, "filename", fileHeader.Filename)
	response.Success(c, result)
}
