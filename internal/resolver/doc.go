// Package resolver скачивает медиа по URL и возвращает метаданные и локальные файлы.
//
// Реализация по умолчанию YTDLP запускает внешний бинарник yt-dlp:
// лучшая аудиодорожка перекодируется в mp3, обложка пишется рядом
// в download_dir под именем "<id>.<ext>". Метаданные берутся из --dump-json.
//
// Частота запусков ограничивается rate.Limiter (resolver.rate_limit).
package resolver
