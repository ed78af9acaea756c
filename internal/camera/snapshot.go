package camera

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"net/http"
	"time"

	"github.com/disintegration/imaging"

	"github.com/iot-aicha/stock-counter/internal/annotate"
)

const maxSnapshotBytes = 16 << 20

// ErrCaptureFailed 抓图失败
var ErrCaptureFailed = errors.New("camera capture failed")

// Config 摄像头配置
type Config struct {
	SnapshotURL string
	Timeout     time.Duration
	Fallback    bool // 抓图失败时返回占位图
}

// Frame 一帧图像
type Frame struct {
	JPEG       []byte
	Fallback   bool
	CapturedAt time.Time
	Err        error // Fallback 为 true 时记录原始错误
}

// SnapshotClient 通过 HTTP 抓取摄像头快照
type SnapshotClient struct {
	cfg        Config
	httpClient *http.Client
	now        func() time.Time
}

// NewSnapshotClient 创建快照客户端
func NewSnapshotClient(cfg Config) *SnapshotClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	return &SnapshotClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		now:        time.Now,
	}
}

// URL 快照地址
func (c *SnapshotClient) URL() string {
	return c.cfg.SnapshotURL
}

// Capture 抓取一帧
func (c *SnapshotClient) Capture(ctx context.Context) (*Frame, error) {
	data, err := c.fetch(ctx)
	if err == nil {
		return &Frame{JPEG: data, CapturedAt: c.now()}, nil
	}
	if !c.cfg.Fallback {
		return nil, err
	}

	placeholder, perr := Placeholder(c.now())
	if perr != nil {
		return nil, fmt.Errorf("%v (placeholder: %v)", err, perr)
	}
	return &Frame{JPEG: placeholder, Fallback: true, CapturedAt: c.now(), Err: err}, nil
}

func (c *SnapshotClient) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.SnapshotURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCaptureFailed, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCaptureFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrCaptureFailed, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSnapshotBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrCaptureFailed, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty snapshot", ErrCaptureFailed)
	}
	return data, nil
}

// Placeholder 生成 640x480 占位图（提示文字 + 时间戳）
func Placeholder(ts time.Time) ([]byte, error) {
	img := imaging.New(640, 480, color.Black)
	white := color.White
	annotate.DrawText(img, 120, 200, "Camera Not Available", white)
	annotate.DrawText(img, 150, 250, ts.Format("2006-01-02 15:04:05"), white)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode 解码任意支持的图片格式
func Decode(data []byte) (image.Image, error) {
	return imaging.Decode(bytes.NewReader(data))
}
