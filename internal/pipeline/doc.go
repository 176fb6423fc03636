// Package pipeline реализует загрузку медиа: resolve → обложка → аудио → БД → перечитывание.
//
// # Стадии
//
//  1. Resolve — скачивание аудио и обложки (resolver.Resolver)
//  2. Обложка — загрузка в object store; при неудаче остаётся адрес источника.
//     Локальная обложка удаляется всегда.
//  3. Аудио — загрузка под ключом "<media id>.mp3"
//  4. Upsert — запись в music_models по ключу task (не по id медиа)
//  5. Удаление локального аудио — ровно один раз, если дошли до стадии 3
//  6. Перечитывание записи по ключу
//
// Ошибки стадий публичны: их текст уходит на сервер задач как Result.Error.
package pipeline
