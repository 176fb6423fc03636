// Package outbox хранит результаты, которые не удалось отправить на сервер задач.
//
// Store — локальная sqlite-база с неотправленными Result.
// Flusher повторяет отправку по cron-расписанию (outbox.replay, например "@every 1m")
// между итерациями цикла воркера, от старых к новым.
//
// Запись удаляется, если:
//   - сервер принял результат
//   - сервер отклонил его с кодом 4xx (повтор бессмыслен, например task уже неизвестна)
//   - исчерпано outbox.max_attempts попыток
//
// Outbox включается явно ([outbox] enabled = true). Без него неотправленный
// результат теряется и только логируется.
package outbox
