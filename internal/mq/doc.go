// Package mq публикует события воркера в RabbitMQ.
//
// Структура:
//   - connection.go — соединение с автоматическим переподключением
//   - topology.go   — объявление exchange и очереди событий
//   - publisher.go  — публикация task.completed
//
// Топология:
//
//	musiclet.tasks (direct)
//	└── tasks.completed [routing: completed]
//
// Публикация best effort: воркер логирует ошибку и продолжает цикл.
// Пакет подключается, только если задан events.rabbitmq_url.
package mq
