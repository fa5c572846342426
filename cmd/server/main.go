package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/wavecore/masterstream/internal/audio"
	"github.com/wavecore/masterstream/internal/cache"
	"github.com/wavecore/masterstream/internal/classify"
	"github.com/wavecore/masterstream/internal/config"
	"github.com/wavecore/masterstream/internal/database"
	"github.com/wavecore/masterstream/internal/fingerprint"
	"github.com/wavecore/masterstream/internal/handlers"
	"github.com/wavecore/masterstream/internal/logger"
	"github.com/wavecore/masterstream/internal/master"
	"github.com/wavecore/masterstream/internal/metrics"
	"github.com/wavecore/masterstream/internal/middleware"
	"github.com/wavecore/masterstream/internal/queue"
	"github.com/wavecore/masterstream/internal/stream"
	"github.com/wavecore/masterstream/internal/telemetry"
	"github.com/wavecore/masterstream/internal/websocket"
)

func main() {
	logLevel := getEnvOrDefault("LOG_LEVEL", "info")
	logFile := getEnvOrDefault("LOG_FILE", "server.log")

	if err := logger.Initialize(logLevel, logFile); err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Close()

	logger.Log.Info("=== masterstream core starting ===")

	if err := godotenv.Load(); err != nil {
		logger.Log.Warn("Warning: .env file not found, using system environment variables")
	}

	var tracerProvider *trace.TracerProvider
	if os.Getenv("OTEL_ENABLED") == "true" {
		cfg := telemetry.Config{
			ServiceName:  getEnvOrDefault("OTEL_SERVICE_NAME", "masterstream-core"),
			Environment:  getEnvOrDefault("OTEL_ENVIRONMENT", "development"),
			OTLPEndpoint: getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			Enabled:      true,
			SamplingRate: 1.0,
		}

		var tracerErr error
		tracerProvider, tracerErr = telemetry.InitTracer(cfg)
		if tracerErr != nil {
			logger.Log.Warn("Failed to initialize OpenTelemetry", zap.Error(tracerErr))
		} else {
			logger.Log.Info("OpenTelemetry tracing enabled",
				zap.String("service", cfg.ServiceName),
				zap.String("endpoint", cfg.OTLPEndpoint),
			)
			defer func() {
				if shutdownErr := tracerProvider.Shutdown(context.Background()); shutdownErr != nil {
					logger.Log.Error("Failed to shutdown tracer provider", zap.Error(shutdownErr))
				}
			}()
		}
	}

	metrics.Initialize()

	if err := database.Initialize(); err != nil {
		logger.FatalWithFields("Failed to initialize database", err)
	}
	if err := database.Migrate(); err != nil {
		logger.FatalWithFields("Failed to run migrations", err)
	}
	defer database.Close()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		logger.FatalWithFields("Failed to load configuration", err)
	}

	var redisClient *cache.RedisClient
	redisHost := os.Getenv("REDIS_HOST")
	redisPort := os.Getenv("REDIS_PORT")
	if redisHost != "" || redisPort != "" {
		redisClient, err = cache.NewRedisClient(getEnvOrDefault("REDIS_HOST", "localhost"), getEnvOrDefault("REDIS_PORT", "6379"), os.Getenv("REDIS_PASSWORD"))
		if err != nil {
			logger.Log.Warn("Failed to connect to Redis, warm tier disabled", zap.Error(err))
			redisClient = nil
		}
		defer func() {
			if redisClient != nil {
				_ = redisClient.Close()
			}
		}()
	} else {
		logger.Log.Info("Redis not configured (REDIS_HOST not set), warm cache tier disabled")
	}

	if err := audio.CheckFFmpegAvailable(); err != nil {
		logger.WarnWithFields("FFmpeg not available, track decoding will fail", err)
	}

	audioStore := audio.NewStore(getEnvOrDefault("AUDIO_ROOT_DIR", "./data/audio"))

	streamCfg := streamConfigFromAppConfig(cfg)
	cacheMgr := cache.NewManager(cfg.T1MaxChunks, redisClient, cfg.PredictiveWindow)
	controller := stream.New(audioStore, database.VectorProvider{}, cacheMgr, streamCfg)

	wsHub := websocket.NewHub()
	wsHandler := websocket.NewHandler(wsHub)
	go wsHub.Run()

	fingerprintWorkers := cfg.FingerprintWorkers
	fingerprintQueue := queue.New(audioStore, fingerprint.NewLocalComputer(), fingerprintWorkers)
	fingerprintQueue.SetNotifier(wsHandler.Notifier())
	fingerprintQueue.Start()
	defer fingerprintQueue.Stop()
	logger.Log.Info("Fingerprint worker pool started", zap.Int("workers", fingerprintWorkers))

	chunkHandler := handlers.NewChunkHandler(controller)
	chunkHandler.SetNotifier(wsHandler.Notifier())
	fingerprintHandler := handlers.NewFingerprintHandler(fingerprintQueue)

	// Sweep idle sessions/cache state periodically (spec.md §4.5 idle teardown).
	idleSweepStop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-idleSweepStop:
				return
			case <-ticker.C:
				for _, trackID := range controller.SweepIdle(context.Background()) {
					logger.Log.Debug("Swept idle track session", zap.String("track", trackID))
				}
			}
		}
	}()
	defer close(idleSweepStop)

	r := gin.New()

	corsConfig := cors.DefaultConfig()
	if allowedOrigins := os.Getenv("ALLOWED_ORIGINS"); allowedOrigins != "" {
		corsConfig.AllowOrigins = strings.FieldsFunc(allowedOrigins, func(r rune) bool { return r == ',' })
	} else {
		corsConfig.AllowOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Accept"}
	corsConfig.MaxAge = 24 * time.Hour
	r.Use(cors.New(corsConfig))

	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.CorrelationMiddleware())
	r.Use(middleware.MetricsMiddleware())
	r.Use(middleware.GinLoggerMiddleware())
	if os.Getenv("OTEL_ENABLED") == "true" {
		r.Use(middleware.TracingMiddleware("masterstream-core"))
		r.Use(middleware.SpanEnrichmentMiddleware())
	}
	r.Use(gin.Recovery())
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/ws", "/metrics"})))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		api.GET("/stream/chunk", middleware.RateLimitUpload(), chunkHandler.Serve)
		api.GET("/tracks/:id/fingerprint", middleware.RateLimitAuth(), fingerprintHandler.Status)
		api.GET("/ws", wsHandler.HandleWebSocket)
		api.GET("/ws/metrics", wsHandler.HandleMetrics)
	}

	port := getEnvOrDefault("PORT", "8787")
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		logger.Log.Info("masterstream core listening", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.FatalWithFields("Failed to start server", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := wsHandler.Shutdown(ctx); err != nil {
		logger.WarnWithFields("WebSocket shutdown warning", err)
	}
	if err := srv.Shutdown(ctx); err != nil {
		logger.ErrorWithFields("Server forced to shutdown", err)
	}

	logger.Log.Info("Server exited")
}

// streamConfigFromAppConfig maps the loaded config.Config onto
// stream.Config, keeping the tunables spec.md §6.4 documents in one place.
func streamConfigFromAppConfig(cfg *config.Config) stream.Config {
	return stream.Config{
		Master: master.Config{
			ChunkDurationSec:   cfg.ChunkDurationSec,
			ContextDurationSec: cfg.ContextDurationSec,
			CrossfadeMs:        cfg.CrossfadeMs,
			MaxDBDeltaPerChunk: cfg.MaxDBDeltaPerChunk,
			SoftCeilingDBFS:    cfg.SoftCeilingDBFS,
		},
		Classify: classify.Config{
			ConfidenceThreshold: cfg.ClassifierConfidenceThreshold,
			TopK:                3,
			HybridThreshold:     cfg.HybridDominanceThreshold,
			DominanceThreshold:  cfg.HybridDominanceThreshold,
		},
		PredictiveWindow:   cfg.PredictiveWindow,
		BuildTimeoutFactor: cfg.BuildTimeoutFactor,
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
