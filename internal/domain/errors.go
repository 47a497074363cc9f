package domain

import "errors"

// Доменные ошибки сервиса каталога
var (
	// ErrValidation возвращается при некорректных или неполных входных данных
	ErrValidation = errors.New("validation failed")

	// ErrNotFound возвращается когда группа сервисов не найдена или удалена
	ErrNotFound = errors.New("service group not found")

	// ErrForbidden возвращается когда доступ к группе запрещен проверкой владения
	ErrForbidden = errors.New("access to service group denied")

	// ErrConflict возвращается при нарушении инварианта версионирования:
	// ноль или несколько активных версий, либо гонка на уникальном индексе
	ErrConflict = errors.New("version invariant violated")

	// ErrUserNotFound возвращается когда пользователь не найден
	ErrUserNotFound = errors.New("user not found")

	// ErrTeamNotFound возвращается когда команда не найдена
	ErrTeamNotFound = errors.New("team not found")

	// ErrUserExists возвращается при регистрации с уже занятым email
	ErrUserExists = errors.New("user already exists")

	// ErrUnauthorized возвращается при неудачной аутентификации
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidToken возвращается когда JWT токен невалиден
	ErrInvalidToken = errors.New("invalid token")
)

// ErrorCode представляет коды ошибок API
type ErrorCode string

// Коды ошибок API
const (
	CodeValidation   ErrorCode = "VALIDATION_ERROR" // Некорректные входные данные
	CodeNotFound     ErrorCode = "NOT_FOUND"        // Ресурс не найден
	CodeForbidden    ErrorCode = "FORBIDDEN"        // Доступ запрещен
	CodeConflict     ErrorCode = "CONFLICT"         // Нарушение инварианта версионирования
	CodeUserExists   ErrorCode = "USER_EXISTS"      // Пользователь уже существует
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"     // Аутентификация не пройдена
	CodeInternal     ErrorCode = "INTERNAL_ERROR"   // Неожиданная ошибка хранилища или инфраструктуры
)

// MapErrorToCode преобразует доменные ошибки в коды ошибок API
func MapErrorToCode(err error) ErrorCode {
	switch {
	case errors.Is(err, ErrValidation):
		return CodeValidation
	case errors.Is(err, ErrForbidden):
		return CodeForbidden
	case errors.Is(err, ErrConflict):
		return CodeConflict
	case errors.Is(err, ErrUserExists):
		return CodeUserExists
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrInvalidToken):
		return CodeUnauthorized
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrTeamNotFound):
		return CodeNotFound
	default:
		return CodeInternal
	}
}
