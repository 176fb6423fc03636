package repo

import "errors"

// Общие ошибки репозиториев.
var (
	// ErrNotFound — запись не найдена в БД (или помечена удалённой).
	ErrNotFound = errors.New("not found")

	// ErrMigration — миграция схемы не применилась.
	ErrMigration = errors.New("migration failed")
)
