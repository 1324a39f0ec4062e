package rest

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/creatorly/billing-service/internal/api/rest/handlers"
	"github.com/creatorly/billing-service/internal/api/rest/middleware"
	"github.com/creatorly/billing-service/pkg/logger"
)

// Handlers группирует обработчики, которые подключаются к роутеру
type Handlers struct {
	Webhook      *handlers.WebhookHandler
	Checkout     *handlers.CheckoutHandler
	Settings     *handlers.SettingsHandler
	Subscription *handlers.SubscriptionHandler
	Payment      *handlers.PaymentHandler
}

// SetupRouter настраивает маршрутизатор Gin с маршрутами и middleware
func SetupRouter(log *logger.Logger, registry *prometheus.Registry, h Handlers) *gin.Engine {
	r := gin.New()

	// Подключение middleware
	r.Use(middleware.LoggerMiddleware(log))
	r.Use(gin.Recovery())

	// Endpoint для проверки работоспособности сервиса
	r.GET("/health", handlers.HealthCheck)

	// Prometheus метрики
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	v1 := r.Group("/api/v1")
	{
		// Чекаут
		v1.POST("/checkout", h.Checkout.CreateCheckout)

		// Подписки
		subscriptions := v1.Group("/subscriptions")
		{
			subscriptions.GET("/:userId/status", h.Subscription.GetStatus)
			subscriptions.GET("/:userId/payments", h.Subscription.GetPaymentHistory)
		}

		// Платежи
		payments := v1.Group("/payments")
		{
			payments.GET("/:id/pix", h.Payment.GetPixQRCode)
		}

		// Действия со страницы настроек
		settings := v1.Group("/settings/:userId")
		{
			settings.POST("/reset-last-sync", h.Settings.ResetLastSync)
			settings.POST("/reset-metrics", h.Settings.ResetMetrics)
			settings.POST("/cancel-subscription", h.Settings.CancelSubscription)
			settings.POST("/reactivate-subscription", h.Settings.ReactivateSubscription)
		}

		// Журнал вебхуков
		v1.GET("/webhook-logs", h.Subscription.GetWebhookLogs)
	}

	// Вебхуки на корневом уровне роутера
	webhooks := r.Group("/webhooks")
	{
		webhooks.POST("/asaas", h.Webhook.HandleAsaasWebhook)
	}

	return r
}
