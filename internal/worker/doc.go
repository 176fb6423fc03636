// Package worker получает tasks с сервера задач, выполняет их и отправляет результаты.
//
// # Обзор
//
// Worker — однопоточный цикл. Одна итерация:
//
//  1. Poll — long-poll следующей task (TaskSource)
//  2. Dispatch — разбор payload и вызов обработчика (Dispatcher)
//  3. Submit — отправка Result (ResultChannel)
//
// Паузы фиксированные, без экспоненциального роста:
//   - task нет — idle_backoff (1s)
//   - ошибка poll или submit — error_backoff (5s)
//   - task обработана и принята — следующий poll сразу
//
// # Остановка
//
// Отмена контекста или Stop() прерывают long-poll и паузы, но не начатую task:
// dispatch и submit выполняются на context.WithoutCancel.
//
//	w := worker.New(worker.Config{
//	    Source:     client,
//	    Results:    client,
//	    Dispatcher: worker.NewDispatcher(registry, logger),
//	    Logger:     logger,
//	})
//	err := w.Run(ctx)
//
// # Dispatcher и Registry
//
// Dispatcher один раз разбирает payload через domain.ParseRequest и выбирает
// Handler из Registry по виду запроса:
//   - domain.KindMusic  — MusicHandler (pipeline)
//   - domain.KindSearch — SearchHandler (search)
//
// Любая ошибка, включая панику обработчика, превращается в Result с Success=false.
//
// # Опционально
//
//   - Events — событие task.completed в RabbitMQ на каждую task (best effort)
//   - Outbox — неотправленные результаты сохраняются и повторяются между итерациями
package worker
