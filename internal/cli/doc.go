// Package cli реализует команды musiclet.
//
// # Команды
//
//	musiclet [--config PATH] [--json] <command>
//
//   - run (по умолчанию) — цикл воркера с /healthz и /metrics
//   - migrate — применить миграции схемы и выйти
//   - config init — записать пример конфигурации
//   - config show — показать итоговую конфигурацию (секреты скрыты)
//
// Каждая команда создаётся фабричной функцией (NewRunCmd и т.д.),
// принимающей замыкания для ленивого чтения PersistentFlags после парсинга.
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - пары ключ/значение (text/tabwriter) — по умолчанию
//   - JSON — с флагом --json
//
// Данные выводятся в stdout, сообщения — в stderr.
//
// ## RunWorker
//
// Собирает компоненты в порядке зависимостей: конфигурация → object store →
// пул БД и миграции → pipeline и поиск → клиент сервера задач →
// RabbitMQ и outbox (если включены) → Worker. Ошибка конфигурации или
// подключения к БД завершает процесс; недоступный RabbitMQ — только предупреждение.
package cli
