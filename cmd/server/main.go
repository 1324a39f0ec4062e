package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/creatorly/billing-service/config"
	"github.com/creatorly/billing-service/internal/api/rest"
	"github.com/creatorly/billing-service/internal/api/rest/handlers"
	"github.com/creatorly/billing-service/internal/integration/asaas"
	"github.com/creatorly/billing-service/internal/kafka"
	"github.com/creatorly/billing-service/internal/kafka/producer"
	"github.com/creatorly/billing-service/internal/metrics"
	"github.com/creatorly/billing-service/internal/repository"
	"github.com/creatorly/billing-service/internal/repository/postgres"
	"github.com/creatorly/billing-service/internal/service"
	"github.com/creatorly/billing-service/pkg/logger"
)

var log *logger.Logger

func init() {
	// Загружаем переменные окружения
	if err := godotenv.Load(); err != nil {
		// Пропускаем ошибку, если .env файл не найден
	}

	// Инициализация логгера
	logLevel := logger.INFO
	if os.Getenv("LOG_LEVEL") == "debug" || os.Getenv("DEBUG") == "true" {
		logLevel = logger.DEBUG
	}
	log = logger.New(logLevel)
}

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: %v", err)
	}

	// Создаем контекст с возможностью отмены
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Инициализация Prometheus
	promRegistry := prometheus.NewRegistry()
	webhookMetrics := metrics.NewWebhookMetrics(promRegistry, log)
	systemMetrics := metrics.NewSystemMetrics(promRegistry, log)

	// Запускаем сбор системных метрик
	systemMetrics.StartRecording(15 * time.Second)
	defer systemMetrics.Stop()

	// Подключение к базе данных
	dbPool, err := postgres.NewConnection(ctx, cfg.Database.DSN, log)
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer dbPool.Close()

	userRepo := postgres.NewPostgresUserRepository(dbPool, log)
	webhookLogRepo := postgres.NewPostgresWebhookLogRepository(dbPool, log)

	// Подключение к Redis для кеша социальных метрик
	metricsCache, err := repository.NewRedisMetricsCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, log)
	if err != nil {
		log.Fatal("Failed to connect to Redis: %v", err)
	}
	defer metricsCache.Close()

	// Инициализация Kafka продюсера
	var billingProducer producer.BillingProducer = producer.NoOpBillingProducer{}
	if cfg.Kafka.Enabled {
		kafkaConfig := kafka.NewConfig(cfg.Kafka.Brokers)
		saramaConfig := kafka.NewSaramaConfig(kafkaConfig, log)

		kafkaProducer, err := sarama.NewSyncProducer(kafkaConfig.Brokers, saramaConfig)
		if err != nil {
			log.Error("Failed to create Kafka producer, billing events will not be published: %v", err)
		} else {
			billingProducer = producer.NewKafkaBillingProducer(kafkaProducer, log)
		}
	}
	defer billingProducer.Close()

	// Клиент Asaas
	asaasClient := asaas.NewClient(asaas.Config{
		APIKey:  cfg.Asaas.APIKey,
		BaseURL: cfg.Asaas.BaseURL,
	}, log)

	verifier := asaas.NewWebhookVerifier(cfg.Asaas.WebhookToken, log)
	normalizer := asaas.NewNormalizer(log)

	// Сервисы
	reconciler := service.NewReconciler(userRepo, billingProducer, webhookMetrics, log)
	auditLogger := service.NewAuditLogger(webhookLogRepo, asaasClient, webhookMetrics, log)
	checkoutService := service.NewCheckoutService(asaasClient, log)
	settingsService := service.NewSettingsService(userRepo, metricsCache, asaasClient, log)
	subscriptionService := service.NewSubscriptionService(userRepo, log)

	// Установка режима Gin
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Настройка маршрутизатора
	router := rest.SetupRouter(log, promRegistry, rest.Handlers{
		Webhook:      handlers.NewWebhookHandler(verifier, normalizer, reconciler, auditLogger, webhookMetrics, log),
		Checkout:     handlers.NewCheckoutHandler(checkoutService, log),
		Settings:     handlers.NewSettingsHandler(settingsService, log),
		Subscription: handlers.NewSubscriptionHandler(subscriptionService, webhookLogRepo, log),
		Payment:      handlers.NewPaymentHandler(asaasClient, log),
	})

	// Создание и запуск HTTP сервера
	server := rest.NewServer(router, cfg, log)

	// Запуск сервера в горутине
	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Останавливаем сервер
	shutdownTimeout := time.Duration(cfg.Server.ShutdownTimeout) * time.Second
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatal("Server forced to shutdown: %v", err)
	}

	log.Info("Server stopped gracefully")
}
