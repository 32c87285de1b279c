package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/lingqian-app/lingqian/internal/config"
)

var (
	ErrOCRConfigInvalid   = errors.New("OCR 服务未配置")
	ErrOCRRequestFailed   = errors.New("OCR 服务请求失败")
	ErrOCRResponseInvalid = errors.New("OCR 服务响应不合法")
)

const ocrDefaultTimeout = 10 * time.Minute

// OCRService 识别命理手稿图片的外部微服务客户端。
// 识别大图很慢，超时上限默认 10 分钟，可配置。
type OCRService struct {
	baseURL   string
	uploadURL string
	timeout   time.Duration
	client    *http.Client
}

// OCRResult 识别结果
type OCRResult struct {
	Text string          `json:"text"`
	Raw  json.RawMessage `json:"raw,omitempty"`
}

// NewOCRService 创建 OCR 客户端
func NewOCRService(cfg config.OCRConfig) *OCRService {
	timeout := ocrDefaultTimeout
	if cfg.TimeoutMinutes > 0 {
		timeout = time.Duration(cfg.TimeoutMinutes) * time.Minute
	}
	return &OCRService{
		baseURL:   strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		uploadURL: strings.TrimRight(strings.TrimSpace(cfg.UploadURL), "/"),
		timeout:   timeout,
		client:    &http.Client{},
	}
}

// Recognize 上传图片并等待识别文本
func (s *OCRService) Recognize(ctx context.Context, filename string, content io.Reader) (*OCRResult, error) {
	if s.baseURL == "" {
		return nil, ErrOCRConfigInvalid
	}
	body, contentType, err := buildMultipart(filename, content)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/ocr", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOCRRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: http status %d", ErrOCRRequestFailed, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOCRResponseInvalid, err)
	}
	var payload struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
		Data struct {
			Text string `json:"text"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOCRResponseInvalid, err)
	}
	if payload.Code != 0 {
		return nil, fmt.Errorf("%w: code %d msg %s", ErrOCRResponseInvalid, payload.Code, payload.Msg)
	}
	return &OCRResult{Text: payload.Data.Text, Raw: raw}, nil
}

// UploadSlice 分片上传大文件到 OCR 侧的独立上传入口
func (s *OCRService) UploadSlice(ctx context.Context, filename string, content io.Reader) error {
	if s.uploadURL == "" {
		return ErrOCRConfigInvalid
	}
	body, contentType, err := buildMultipart(filename, content)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.uploadURL, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOCRRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: http status %d", ErrOCRRequestFailed, resp.StatusCode)
	}
	return nil
}

func buildMultipart(filename string, content io.Reader) (io.Reader, string, error) {
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, "", err
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return buf, writer.FormDataContentType(), nil
}
