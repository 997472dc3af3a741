package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xela07ax/icu-console/internal/backend"
	"github.com/xela07ax/icu-console/internal/cache"
	"github.com/xela07ax/icu-console/internal/console/handler"
	"github.com/xela07ax/icu-console/internal/console/server"
	"github.com/xela07ax/icu-console/internal/dashboard"
	"github.com/xela07ax/icu-console/internal/infra"
	"github.com/xela07ax/icu-console/internal/live"
	"github.com/xela07ax/icu-console/internal/view"
)

func main() {
	// 1. Инфраструктура и ресурсы
	cfg, err := infra.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := infra.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	reg := prometheus.NewRegistry()
	metrics := infra.NewMetrics(reg)

	// Redis опционален: без него консоль просто стартует холодной
	var snapCache *cache.SnapshotCache
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		snapCache = cache.NewSnapshotCache(rdb, cfg.Redis.SnapshotTTL, logger)
	}

	// Контекст для управления жизненным циклом фоновых горутин
	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Ядро синхронизации
	client := backend.NewClient(cfg.Backend, logger, metrics)
	store := view.NewStore()
	loop := dashboard.NewSyncLoop(client, store, snapCache, cfg.Backend, logger, metrics)
	controller := dashboard.NewController(loop, store, logger)

	// Теплый старт: последний снапшот из Redis рисуется до первого refresh
	if snap, err := snapCache.Load(appCtx); err != nil {
		logger.Warn("snapshot cache unavailable, starting cold", zap.Error(err))
	} else if snap != nil {
		store.CommitSnapshot(*snap)
		store.SetStatus("Cached snapshot " + view.FormatTimestamp(snap.LastRefreshed))
		logger.Info("warm start from cached snapshot",
			zap.Int("patients", len(snap.Patients)), zap.Int("alerts", len(snap.Alerts)))
	}

	// Стартовая проверка бэкенда: чисто информативная, падать из-за нее нельзя
	probeCtx, probeCancel := context.WithTimeout(appCtx, 5*time.Second)
	if err := client.Health(probeCtx); err != nil {
		logger.Warn("backend health check failed, continuing anyway", zap.Error(err))
	}
	probeCancel()

	// 3. Фоновые циклы: одноразовый прогон, таймер, push-канал
	loop.InitialLoad(appCtx)
	go loop.Run(appCtx)

	if cfg.Backend.LiveEnabled {
		ch := live.NewChannel(cfg.Backend.WSURL, store, logger, metrics)
		go ch.Run(appCtx)
	}

	// 4. HTTP Server
	dashHandler := handler.NewDashboardHandler(controller, loop, store, logger)
	consoleSrv := server.NewConsoleServer(cfg, logger, dashHandler, reg)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      consoleSrv,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 5. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("ICU console started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	<-stop // Ждем сигнал
	logger.Info("ICU console stopping...")
	cancel() // Останавливаем цикл синхронизации и push-канал

	// Даем 5 секунд на завершение запросов
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	logger.Info("ICU console exited properly")
}
