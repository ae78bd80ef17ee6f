// Package sl содержит вспомогательные функции для работы с логгером slog.
// Основная цель: упростить формирование структурированных полей лога,
// например, для передачи информации об ошибках и текущем отеле.
package sl

import (
	"log/slog"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Err возвращает slog.Attr с ключом "error" и значением текста ошибки.
// Для nil возвращается пустая строка, чтобы лог не падал в отложенных вызовах.
//
// Пример:
//
//	log.Error("failed to do something", sl.Err(err))
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}

// Hotel возвращает slog.Attr с идентификатором отеля (тенанта).
func Hotel(id primitive.ObjectID) slog.Attr {
	return slog.String("hotel_id", id.Hex())
}
