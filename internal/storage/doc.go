// Package storage загружает файлы в object store и возвращает их публичные адреса.
//
// Реализации Uploader:
//   - S3 — Amazon S3 и совместимые хранилища (minio через endpoint_url)
//   - Qiniu — Qiniu Kodo
//
// Бэкенд выбирается по storage.type через New. Неизвестный тип — ошибка старта.
package storage
