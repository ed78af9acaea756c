package detection

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const maxResponseBytes = 8 << 20

// Config 检测服务配置
type Config struct {
	URL           string
	PredictionKey string
	Timeout       time.Duration
	MinConfidence float64
}

// Client 检测服务 HTTP 客户端
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient 创建检测客户端
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Detect 上传 JPEG，返回解析后的检测结果
// 网络错误与非 2xx 返回 ErrUnavailable，响应无法解析返回 ErrMalformedResponse
// 空预测列表是正常结果
func (c *Client) Detect(ctx context.Context, image []byte) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(image))
	if err != nil {
		return nil, fmt.Errorf("build detector request: %w", err)
	}
	req.Header.Set("Content-Type", "image/jpeg")
	if c.cfg.PredictionKey != "" {
		req.Header.Set("Prediction-Key", c.cfg.PredictionKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, truncate(body, 200))
	}

	return ParsePredictions(body, c.cfg.MinConfidence)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
