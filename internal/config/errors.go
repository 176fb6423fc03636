package config

import "errors"

// Ошибки конфигурации. Все они фатальны при запуске.
var (
	// ErrLoad — файл не прочитан или не разобран.
	ErrLoad = errors.New("load config")

	// ErrInvalid — не заполнено обязательное поле или значение вне диапазона.
	ErrInvalid = errors.New("invalid config")

	// ErrUnsupportedStorage — неизвестный storage.type.
	ErrUnsupportedStorage = errors.New("unsupported storage type")

	// ErrExists — файл конфигурации уже существует.
	ErrExists = errors.New("config file already exists")
)
