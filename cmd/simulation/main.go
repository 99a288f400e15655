package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
	gorm_mysql "gorm.io/driver/mysql"
	"gorm.io/gorm"

	guardrail_app "github.com/wyfcoding/decisionsim/internal/guardrail/application"
	guardrail_domain "github.com/wyfcoding/decisionsim/internal/guardrail/domain"
	guardrail_memory "github.com/wyfcoding/decisionsim/internal/guardrail/infrastructure/persistence/memory"
	guardrail_mysql "github.com/wyfcoding/decisionsim/internal/guardrail/infrastructure/persistence/mysql"
	guardrail_http "github.com/wyfcoding/decisionsim/internal/guardrail/interfaces/http"
	knowledge_http "github.com/wyfcoding/decisionsim/internal/knowledge/interfaces/http"
	"github.com/wyfcoding/decisionsim/internal/simulation/application"
	"github.com/wyfcoding/decisionsim/internal/simulation/domain"
	sim_memory "github.com/wyfcoding/decisionsim/internal/simulation/infrastructure/persistence/memory"
	sim_mysql "github.com/wyfcoding/decisionsim/internal/simulation/infrastructure/persistence/mysql"
	sim_redis "github.com/wyfcoding/decisionsim/internal/simulation/infrastructure/persistence/redis"
	"github.com/wyfcoding/decisionsim/internal/simulation/infrastructure/publisher"
	sim_http "github.com/wyfcoding/decisionsim/internal/simulation/interfaces/http"
	"github.com/wyfcoding/decisionsim/pkg/cache"
	"github.com/wyfcoding/decisionsim/pkg/logger"
	"github.com/wyfcoding/decisionsim/pkg/metrics"
	"github.com/wyfcoding/decisionsim/pkg/middleware"
	"github.com/wyfcoding/decisionsim/pkg/mq"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "configs/simulation/config.toml", "path to config file")
	flag.Parse()

	// 1. Config
	viper.SetConfigFile(configPath)
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Sprintf("read config failed: %v", err))
	}

	// 2. Logger
	var logCfg logger.Config
	if err := viper.UnmarshalKey("log", &logCfg); err != nil {
		panic(fmt.Sprintf("parse log config failed: %v", err))
	}
	if err := logger.Init(logCfg); err != nil {
		panic(fmt.Sprintf("init logger failed: %v", err))
	}
	ctx := context.Background()

	// 3. Metrics
	m := metrics.New("simulation")
	if err := m.Register(); err != nil {
		logger.Fatal(ctx, "Failed to register metrics", "error", err)
	}

	// 4. Persistence：配置数据库则走 MySQL，否则退化为内存仓储（本地开发）
	var snapshotRepo domain.SnapshotRepository
	var guardrailRepo guardrail_domain.Repository
	if dsn := viper.GetString("database.source"); dsn != "" {
		db, err := gorm.Open(gorm_mysql.Open(dsn), &gorm.Config{})
		if err != nil {
			logger.Fatal(ctx, "Failed to connect database", "error", err)
		}
		if err := db.AutoMigrate(
			&sim_mysql.SnapshotModel{},
			&guardrail_mysql.GuardrailModel{},
			&guardrail_mysql.OutcomeModel{},
		); err != nil {
			logger.Fatal(ctx, "Failed to migrate database", "error", err)
		}
		snapshotRepo = sim_mysql.NewSnapshotRepository(db)
		guardrailRepo = guardrail_mysql.NewRepository(db)
	} else {
		logger.Warn(ctx, "No database configured, using in-memory repositories")
		snapshotRepo = sim_memory.NewSnapshotRepository()
		guardrailRepo = guardrail_memory.NewRepository()
	}

	// 5. Redis 快照读缓存（可选）
	if viper.GetString("redis.host") != "" {
		var redisCfg cache.Config
		if err := viper.UnmarshalKey("redis", &redisCfg); err != nil {
			logger.Fatal(ctx, "Failed to parse redis config", "error", err)
		}
		redisCache, err := cache.New(redisCfg)
		if err != nil {
			logger.Fatal(ctx, "Failed to connect Redis", "error", err)
		}
		defer redisCache.Close()

		ttl := viper.GetDuration("redis.snapshot_ttl")
		if ttl == 0 {
			ttl = time.Hour
		}
		snapshotRepo = sim_redis.NewCachedSnapshotRepository(snapshotRepo, redisCache, m, ttl)
	}

	// 6. 事件发布（可选 Kafka）
	var eventPublisher domain.EventPublisher
	if brokers := viper.GetStringSlice("kafka.brokers"); len(brokers) > 0 {
		producer, err := mq.NewProducer(mq.KafkaConfig{
			Brokers:      brokers,
			MaxRetries:   viper.GetInt("kafka.max_retries"),
			RetryBackoff: viper.GetInt("kafka.retry_backoff"),
		})
		if err != nil {
			logger.Fatal(ctx, "Failed to create Kafka producer", "error", err)
		}
		defer producer.Close()

		topic := viper.GetString("kafka.topic")
		if topic == "" {
			topic = "decision.simulation.events"
		}
		eventPublisher = publisher.NewKafkaEventPublisher(producer, topic)
	} else {
		logger.Warn(ctx, "No Kafka brokers configured, events stay in memory")
		eventPublisher = publisher.NewMockEventPublisher()
	}

	// 7. Application
	simService := application.NewService(snapshotRepo, eventPublisher, m)
	guardrailService := guardrail_app.NewGuardrailService(guardrailRepo)

	// 8. Interfaces
	gin.SetMode(viper.GetString("server.mode"))
	router := gin.New()
	router.Use(middleware.GinRecoveryMiddleware(), middleware.GinLoggingMiddleware())

	api := router.Group("/api/v1")
	sim_http.NewSimulationHandler(simService).RegisterRoutes(api)
	guardrail_http.NewGuardrailHandler(guardrailService).RegisterRoutes(api)
	knowledge_http.NewKnowledgeHandler().RegisterRoutes(api)

	sys := router.Group("/sys")
	{
		sys.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "UP"}) })
		sys.GET("/ready", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "READY"}) })
	}
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	pp := router.Group("/debug/pprof")
	{
		pp.GET("/", gin.WrapF(pprof.Index))
		pp.GET("/cmdline", gin.WrapF(pprof.Cmdline))
		pp.GET("/profile", gin.WrapF(pprof.Profile))
		pp.GET("/symbol", gin.WrapF(pprof.Symbol))
		pp.GET("/trace", gin.WrapF(pprof.Trace))
	}

	// 9. Start & graceful shutdown
	httpPort := viper.GetString("server.http_port")
	if httpPort == "" {
		httpPort = "8090"
	}
	server := &http.Server{Addr: ":" + httpPort, Handler: router}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info(ctx, "HTTP server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-quit:
			logger.Info(ctx, "Shutting down", "signal", sig.String())
		case <-gctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal(ctx, "Server exited with error", "error", err)
	}
	logger.Info(ctx, "Server exited")
}
