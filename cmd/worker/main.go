package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/iot-aicha/stock-counter/internal/analysis"
	"github.com/iot-aicha/stock-counter/internal/annotate"
	"github.com/iot-aicha/stock-counter/internal/broadcast"
	"github.com/iot-aicha/stock-counter/internal/business"
	"github.com/iot-aicha/stock-counter/internal/camera"
	"github.com/iot-aicha/stock-counter/internal/detection"
	"github.com/iot-aicha/stock-counter/internal/framework"
	"github.com/iot-aicha/stock-counter/internal/model"
	"github.com/iot-aicha/stock-counter/internal/notify"
	"github.com/iot-aicha/stock-counter/internal/server/handlers/events"
	"github.com/iot-aicha/stock-counter/internal/server/handlers/shelf"
	"github.com/iot-aicha/stock-counter/internal/server/routers"
	"github.com/iot-aicha/stock-counter/internal/state"
	"github.com/iot-aicha/stock-counter/internal/worker"
	"github.com/iot-aicha/stock-counter/pkg/config"
	"github.com/iot-aicha/stock-counter/pkg/infra/redis"
	"github.com/iot-aicha/stock-counter/pkg/infra/store"
	"github.com/iot-aicha/stock-counter/pkg/lmstfy"
	"github.com/iot-aicha/stock-counter/pkg/logger"
)

var (
	configPath = flag.String("config", "./config/worker.yaml", "配置文件路径")
)

// historyStore 历史记录存储（数据库或进程内）
type historyStore interface {
	Save(ctx context.Context, entry *model.CheckEntry) error
	List(ctx context.Context, limit int) ([]*model.CheckEntry, error)
	Close() error
}

func main() {
	flag.Parse()

	log.Println("========================================")
	log.Println("  Stock Counter Starting...")
	log.Println("========================================")

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Config validation failed: %v", err)
	}
	log.Printf("Config loaded: %s, env: %s, log_level: %s\n", cfg.App.Name, cfg.App.Env, cfg.App.LogLevel)

	// 2. 初始化 Logger
	zapLogger, err := logger.NewZapLogger(cfg.App.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zapLogger.Sync()

	ctx := context.Background()

	// 3. 初始化外部依赖
	history, err := openHistory(cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to open history store: %v", err)
	}
	defer history.Close()

	hub := broadcast.NewHubService(cfg.Server.EventBuffer, zapLogger)
	defer hub.Close()

	sinks := []business.Sink{
		&business.HistorySink{Store: history},
		&business.HubSink{Hub: hub},
	}

	if cfg.Redis.Addr != "" {
		pubsub, err := redis.NewPubSub(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatalf("Failed to create Redis PubSub: %v", err)
		}
		defer pubsub.Close()
		sinks = append(sinks, &business.RedisSink{Publisher: pubsub, Channel: cfg.Redis.Channel})
		zapLogger.Infof(ctx, "[Main] Redis notifications enabled on channel %s", cfg.Redis.Channel)
	}

	var lmstfyClient *lmstfy.Client
	if cfg.Lmstfy.Host != "" {
		lmstfyClient, err = lmstfy.NewClient(cfg.Lmstfy.Host, cfg.Lmstfy.Port, cfg.Lmstfy.Namespace, cfg.Lmstfy.Token)
		if err != nil {
			log.Fatalf("Failed to create lmstfy client: %v", err)
		}
		if cfg.Lmstfy.AlertQueue != "" {
			sinks = append(sinks, &business.AlertQueueSink{Publisher: lmstfyClient, Queue: cfg.Lmstfy.AlertQueue})
		}
	}

	if cfg.Telegram.Token != "" {
		notifier, err := notify.NewTelegramNotifier(cfg.Telegram.Token, cfg.Telegram.ChatID)
		if err != nil {
			log.Fatalf("Failed to create telegram notifier: %v", err)
		}
		sinks = append(sinks, &business.TelegramSink{Notifier: notifier})
	}

	// 4. 创建巡检服务
	planogram, err := cfg.Planogram.BuildPlanogram()
	if err != nil {
		log.Fatalf("Failed to build planogram: %v", err)
	}

	snapshotClient := camera.NewSnapshotClient(camera.Config{
		SnapshotURL: cfg.Camera.SnapshotURL,
		Timeout:     cfg.Camera.Timeout,
		Fallback:    cfg.Camera.Fallback,
	})
	detector := detection.NewClient(detection.Config{
		URL:           cfg.Detector.URL,
		PredictionKey: cfg.Detector.PredictionKey,
		Timeout:       cfg.Detector.Timeout,
		MinConfidence: cfg.Detector.MinConfidence,
	})

	opts := []business.ServiceOption{
		business.WithAnnotator(annotate.New(90)),
		business.WithSinks(sinks...),
	}
	if lmstfyClient != nil && cfg.Lmstfy.TriggerQueue != "" {
		opts = append(opts, business.WithTriggerQueue(lmstfyClient, cfg.Lmstfy.TriggerQueue))
	}
	svc := business.NewCheckService(snapshotClient, detector, analysis.NewAnalyzer(planogram), state.NewLatest(), zapLogger, opts...)

	// 5. 创建 Manager
	var queue framework.MessageSource
	if lmstfyClient != nil {
		queue = lmstfyClient
	}
	mgr, err := worker.NewManagerInstance(cfg, svc, queue, zapLogger)
	if err != nil {
		log.Fatalf("Failed to create manager: %v", err)
	}

	// 6. 创建 HTTP Server
	if cfg.App.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	shelfHandler := shelf.NewShelfHandler(svc, history, mgr, shelf.Options{
		CameraURL:    snapshotClient.URL(),
		HistoryLimit: cfg.Storage.HistoryLimit,
		ClientCount:  hub.GetClientCount,
	})
	eventsHandler := events.NewEventsHandler(hub, cfg.Server.EventHeartbeat, zapLogger)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           routers.SetupRoutes(shelfHandler, eventsHandler, zapLogger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 7. 启动 Manager 与 HTTP Server
	managerErrChan := make(chan error, 1)
	go func() {
		managerErrChan <- mgr.Start()
	}()

	serverErrChan := make(chan error, 1)
	go func() {
		log.Printf("Starting HTTP server on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- err
		}
	}()

	log.Println("Stock counter started. Press Ctrl+C to shutdown.")

	// 8. 等待退出信号
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("Received signal: %v, shutting down...", sig)
	case err := <-serverErrChan:
		log.Printf("HTTP server error: %v", err)
	case err := <-managerErrChan:
		if err != nil {
			log.Printf("Manager error: %v", err)
		}
	}

	gracefulShutdown(mgr, server, hub)

	log.Println("========================================")
	log.Println("  Stock counter exited gracefully")
	log.Println("========================================")
}

// openHistory 未配置数据库时使用进程内历史
func openHistory(cfg config.StorageConfig) (historyStore, error) {
	if cfg.Driver == "" {
		return store.NewMemoryHistory(cfg.HistoryLimit), nil
	}
	dao, err := store.NewHistoryDAO(cfg.Driver, cfg.DSN, cfg.HistoryLimit)
	if err != nil {
		return nil, err
	}
	return dao, nil
}

// gracefulShutdown 先排空 Worker，再关闭推送连接与 HTTP Server
func gracefulShutdown(mgr worker.Manager, server *http.Server, hub *broadcast.HubService) {
	// 1. 停止 Worker（处理完已拉取的任务）
	log.Println("Stopping workers...")
	mgr.Shutdown()

	// 2. 断开 SSE / WebSocket 订阅者，否则 Shutdown 会等待长连接
	hub.Close()

	// 3. 停止 HTTP Server
	log.Println("Stopping HTTP server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	} else {
		log.Println("HTTP server stopped gracefully")
	}
}
