package domain

import (
	"errors"
)

// Application errors
var (
	// ErrUserNotFound пользователь не найден. Обработчик вебхука отвечает 500,
	// чтобы провайдер повторил доставку: документ пользователя может еще не
	// успеть записаться (создается только при регистрации аккаунта).
	ErrUserNotFound = errors.New("user not found")

	// ErrMalformedPayload тело вебхука не является корректным JSON
	ErrMalformedPayload = errors.New("malformed webhook payload")

	// ErrPayloadWithoutPayment событие не содержит объекта платежа
	ErrPayloadWithoutPayment = errors.New("payload carries no payment object")

	// ErrMissingUserReference в платеже нет externalReference с ID пользователя
	ErrMissingUserReference = errors.New("payment carries no user reference")

	// ErrMissingPlanInfo не удалось извлечь план и период из описания позиции
	ErrMissingPlanInfo = errors.New("payment carries no plan info")

	// ErrWebhookUnauthorized неверный или отсутствующий токен вебхука
	ErrWebhookUnauthorized = errors.New("webhook token verification failed")

	// ErrExternalServiceUnavailable внешний сервис недоступен
	ErrExternalServiceUnavailable = errors.New("external service unavailable")

	// ErrInvalidInput неверные входные данные
	ErrInvalidInput = errors.New("invalid input data")
)
