// errors.go — ошибки бизнес-логики сервисного слоя.
//
// Ошибки состояния выдачи (носитель уже выдан / не выдан) живут в доменном
// пакете media рядом с переходами состояния и поднимаются наверх как есть.
package service

import "errors"

var (
	// ErrNotFound — носитель не найден.
	ErrNotFound = errors.New("носитель не найден")
	// ErrConflict — конфликт (дублирующийся ресурс).
	ErrConflict = errors.New("конфликт — ресурс уже существует")
	// ErrValidation — ошибка валидации входных данных.
	ErrValidation = errors.New("ошибка валидации")
	// ErrNotDownloadable — тип носителя не поддерживает скачивание.
	ErrNotDownloadable = errors.New("носитель не поддерживает скачивание")
	// ErrNotBorrowable — тип носителя не поддерживает выдачу.
	ErrNotBorrowable = errors.New("носитель не поддерживает выдачу")
	// ErrNoTrailer — трейлер есть только у фильмов.
	ErrNoTrailer = errors.New("у носителя нет трейлера")
)
