package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/iot-aicha/stock-counter/internal/analysis"
)

const (
	SourceTicker = "ticker"
	SourceLmstfy = "lmstfy"

	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// Config 全局配置
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Camera    CameraConfig    `mapstructure:"camera"`
	Detector  DetectorConfig  `mapstructure:"detector"`
	Planogram PlanogramConfig `mapstructure:"planogram"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Lmstfy    LmstfyConfig    `mapstructure:"lmstfy"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Workers   []WorkerConfig  `mapstructure:"workers"`
}

// AppConfig 应用配置
type AppConfig struct {
	Name     string `mapstructure:"name"`
	Env      string `mapstructure:"env"`
	LogLevel string `mapstructure:"log_level"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Port           string        `mapstructure:"port"`
	EventHeartbeat time.Duration `mapstructure:"event_heartbeat"` // SSE 心跳间隔
	EventBuffer    int           `mapstructure:"event_buffer"`    // 每个订阅者的缓冲条数
}

// CameraConfig 摄像头配置
type CameraConfig struct {
	SnapshotURL string        `mapstructure:"snapshot_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Fallback    bool          `mapstructure:"fallback"` // 抓图失败时使用占位图
}

// DetectorConfig 检测服务配置
type DetectorConfig struct {
	URL           string        `mapstructure:"url"`
	PredictionKey string        `mapstructure:"prediction_key"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MinConfidence float64       `mapstructure:"min_confidence"`
}

// PlanogramConfig 货架布局配置，items 顺序即告警中的标签顺序
type PlanogramConfig struct {
	OverlapThreshold float64         `mapstructure:"overlap_threshold"`
	ZoneFraction     float64         `mapstructure:"zone_fraction"`
	Items            []analysis.Item `mapstructure:"items"`
}

// StorageConfig 历史记录存储
type StorageConfig struct {
	Driver       string `mapstructure:"driver"` // sqlite / mysql，空表示不持久化
	DSN          string `mapstructure:"dsn"`
	HistoryLimit int    `mapstructure:"history_limit"`
}

// RedisConfig Redis 配置，addr 为空表示不推送
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Channel  string `mapstructure:"channel"`
}

// LmstfyConfig Lmstfy 配置，host 为空表示不使用队列
type LmstfyConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Namespace    string `mapstructure:"namespace"`
	Token        string `mapstructure:"token"`
	TriggerQueue string `mapstructure:"trigger_queue"` // 手动触发巡检投递的队列
	AlertQueue   string `mapstructure:"alert_queue"`   // 告警任务队列
}

// TelegramConfig 严重告警通知，token 为空表示关闭
type TelegramConfig struct {
	Token  string `mapstructure:"token"`
	ChatID int64  `mapstructure:"chat_id"`
}

// WorkerConfig Worker 配置
type WorkerConfig struct {
	Name       string           `mapstructure:"name"`
	Source     string           `mapstructure:"source"` // ticker / lmstfy
	QueueName  string           `mapstructure:"queue_name"`
	ActionType string           `mapstructure:"action_type"` // ticker 产生的任务类型
	Interval   time.Duration    `mapstructure:"interval"`    // ticker 周期
	Subscriber SubscriberConfig `mapstructure:"subscriber"`
	Processor  ProcessorConfig  `mapstructure:"processor"`
}

// SubscriberConfig Subscriber 配置
type SubscriberConfig struct {
	Threads      int           `mapstructure:"threads"`       // 并发拉取数
	Rate         time.Duration `mapstructure:"rate"`          // 拉取速率
	Timeout      time.Duration `mapstructure:"timeout"`       // 拉取超时
	TTR          time.Duration `mapstructure:"ttr"`           // Time-To-Run
	ErrorBackoff time.Duration `mapstructure:"error_backoff"` // 错误退避时间
}

// ProcessorConfig Processor 配置
type ProcessorConfig struct {
	Threads    int           `mapstructure:"threads"`     // 并发处理数
	BufferSize int           `mapstructure:"buffer_size"` // Channel 缓冲大小
	Timeout    time.Duration `mapstructure:"timeout"`     // 单个任务超时
}

// secretKeys 允许通过环境变量覆盖的敏感配置（STOCK_REDIS_PASSWORD 等）
var secretKeys = []string{
	"redis.password",
	"lmstfy.token",
	"telegram.token",
	"detector.prediction_key",
	"storage.dsn",
}

// Load 加载配置文件，.env 与 STOCK_ 前缀环境变量优先
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("STOCK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range secretKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s failed: %w", key, err)
		}
	}
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config failed: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config failed: %w", err)
	}
	cfg.applyDefaults()

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "stock-counter")
	v.SetDefault("app.env", "dev")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("server.port", "5001")
	v.SetDefault("server.event_heartbeat", 15*time.Second)
	v.SetDefault("server.event_buffer", 16)
	v.SetDefault("camera.timeout", 3*time.Second)
	v.SetDefault("camera.fallback", true)
	v.SetDefault("detector.timeout", 30*time.Second)
	v.SetDefault("detector.min_confidence", 0.5)
	v.SetDefault("planogram.overlap_threshold", analysis.DefaultOverlapThreshold)
	v.SetDefault("planogram.zone_fraction", analysis.DefaultZoneFraction)
	v.SetDefault("storage.history_limit", 100)
	v.SetDefault("redis.channel", "shelf_check_complete")
}

// applyDefaults 补全列表类配置的默认值
func (c *Config) applyDefaults() {
	if len(c.Planogram.Items) == 0 {
		c.Planogram.Items = analysis.DefaultItems()
	}
	if len(c.Workers) == 0 {
		c.Workers = []WorkerConfig{{
			Name:     "shelf-check",
			Source:   SourceTicker,
			Interval: 60 * time.Second,
		}}
	}
	for i := range c.Workers {
		w := &c.Workers[i]
		if w.Source == "" {
			w.Source = SourceTicker
		}
		if w.QueueName == "" {
			w.QueueName = w.Name
		}
		if w.ActionType == "" {
			w.ActionType = "shelf_check"
		}
		if w.Subscriber.Threads == 0 {
			w.Subscriber.Threads = 1
		}
		if w.Subscriber.Timeout == 0 {
			w.Subscriber.Timeout = 5 * time.Second
		}
		if w.Subscriber.TTR == 0 {
			w.Subscriber.TTR = 2 * time.Minute
		}
		if w.Subscriber.ErrorBackoff == 0 {
			w.Subscriber.ErrorBackoff = time.Second
		}
		if w.Processor.Threads == 0 {
			w.Processor.Threads = 1
		}
		if w.Processor.BufferSize == 0 {
			w.Processor.BufferSize = 1
		}
		if w.Processor.Timeout == 0 {
			w.Processor.Timeout = 2 * time.Minute
		}
	}
}

// BuildPlanogram 构造货架布局
func (p PlanogramConfig) BuildPlanogram() (*analysis.Planogram, error) {
	return analysis.NewPlanogram(p.Items, analysis.Thresholds{
		Overlap:      p.OverlapThreshold,
		ZoneFraction: p.ZoneFraction,
	})
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app.name is required")
	}
	if c.Detector.URL == "" {
		return fmt.Errorf("detector.url is required")
	}
	if c.Detector.MinConfidence < 0 || c.Detector.MinConfidence >= 1 {
		return fmt.Errorf("detector.min_confidence must be in [0,1)")
	}
	if _, err := c.Planogram.BuildPlanogram(); err != nil {
		return fmt.Errorf("planogram: %w", err)
	}

	switch c.Storage.Driver {
	case "":
	case DriverSQLite, DriverMySQL:
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required for driver %s", c.Storage.Driver)
		}
	default:
		return fmt.Errorf("storage.driver %q is not supported", c.Storage.Driver)
	}
	if c.Storage.HistoryLimit <= 0 {
		return fmt.Errorf("storage.history_limit must be positive")
	}
	if c.Telegram.Token != "" && c.Telegram.ChatID == 0 {
		return fmt.Errorf("telegram.chat_id is required when telegram.token is set")
	}

	if len(c.Workers) == 0 {
		return fmt.Errorf("at least one worker is required")
	}
	for _, w := range c.Workers {
		if w.Name == "" {
			return fmt.Errorf("worker name is required")
		}
		switch w.Source {
		case SourceTicker:
			if w.Interval <= 0 {
				return fmt.Errorf("worker %s: interval must be positive", w.Name)
			}
		case SourceLmstfy:
			if c.Lmstfy.Host == "" {
				return fmt.Errorf("worker %s: lmstfy.host is required", w.Name)
			}
		default:
			return fmt.Errorf("worker %s: unknown source %q", w.Name, w.Source)
		}
	}
	return nil
}
