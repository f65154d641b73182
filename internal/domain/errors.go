package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound возвращается, когда аккаунт или профиль не найден —
// локально или у источника.
var ErrNotFound = errors.New("аккаунт не найден")

// ErrFavoriteNotFound возвращается при отсутствии закладки.
var ErrFavoriteNotFound = errors.New("закладка не найдена")

// ErrInvalidInput возвращается, когда входные данные запроса не проходят
// валидацию.
var ErrInvalidInput = errors.New("некорректные входные данные")

// ConfigError означает отсутствие обязательного ключа или идентификатора.
// Проверяется до любого сетевого вызова.
type ConfigError struct {
	Name string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("не задан параметр конфигурации %s", e.Name)
}

// UpstreamKind различает транспортный сбой и ошибку, которую источник
// сообщил внутри успешного ответа.
type UpstreamKind string

const (
	UpstreamTransport UpstreamKind = "transport"
	UpstreamData      UpstreamKind = "data"
)

// UpstreamError — сбой адаптера источника. Сохраняет код и сообщение
// источника дословно для диагностики; прерывает всю операцию выгрузки.
type UpstreamError struct {
	Kind      UpstreamKind
	Source    string
	Operation string
	Status    int
	Code      string
	Message   string
}

func (e *UpstreamError) Error() string {
	switch {
	case e.Code != "":
		return fmt.Sprintf("%s %s: %s (%s)", e.Source, e.Operation, e.Message, e.Code)
	case e.Status != 0:
		return fmt.Sprintf("%s %s: статус %d: %s", e.Source, e.Operation, e.Status, e.Message)
	default:
		return fmt.Sprintf("%s %s: %s", e.Source, e.Operation, e.Message)
	}
}

// IsUpstreamData сообщает, содержит ли цепочка ошибку данных источника.
func IsUpstreamData(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue) && ue.Kind == UpstreamData
}
