// Package response содержит вспомогательные типы и функции для формирования
// унифицированных JSON-ответов HTTP-обработчиков. Пакет упрощает возврат
// успешных ответов, ошибок и сообщений валидации в едином формате.
package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/hotel-console/internal/apperr"
	"github.com/magabrotheeeer/hotel-console/internal/lib/metrics"
	"github.com/magabrotheeeer/hotel-console/internal/lib/sl"
)

// Response описывает стандартную структуру JSON-ответа сервера.
// Status принимает "OK" или "Error". Error содержит машинный код ошибки,
// Message текст для человека, Data данные успешного ответа.
type Response struct {
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// ErrorResponse структура ошибки для Swagger-документации.
type ErrorResponse struct {
	Status  string `json:"status" example:"Error"`
	Error   string `json:"error" example:"validation_failed"`
	Message string `json:"message" example:"field Email is a required field"`
}

const (
	// StatusOK значение статуса для успешного ответа.
	StatusOK = "OK"
	// StatusError значение статуса для ответа с ошибкой.
	StatusError = "Error"
)

// OKWithData возвращает успешный Response с переданными данными.
func OKWithData(data any) Response {
	return Response{
		Status: StatusOK,
		Data:   data,
	}
}

// OK пишет успешный ответ с кодом 200.
func OK(w http.ResponseWriter, r *http.Request, data any) {
	render.JSON(w, r, OKWithData(data))
}

// Created пишет успешный ответ с кодом 201.
func Created(w http.ResponseWriter, r *http.Request, data any) {
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, OKWithData(data))
}

// Error возвращает тело ответа для классифицированной ошибки.
func Error(err *apperr.Error) Response {
	return Response{
		Status:  StatusError,
		Error:   err.Code,
		Message: err.Message,
	}
}

// Fail пишет ответ с ошибкой. Клиент получает только код и сообщение,
// внутренняя причина уходит в лог.
func Fail(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	e := apperr.From(err)
	status := apperr.HTTPStatus(e)
	if e.Kind == apperr.KindInternal {
		log.Error("request failed", sl.Err(err))
	} else {
		log.Warn("request rejected", slog.String("code", e.Code), sl.Err(err))
		metrics.ObserveRejection(e.Code)
	}
	render.Status(r, status)
	render.JSON(w, r, Error(e))
}

// ValidationError формирует ошибку валидации по нарушениям validator.
// Каждое нарушение превращается в человекочитаемый текст, тексты объединяются через запятую.
func ValidationError(errs validator.ValidationErrors) *apperr.Error {
	var errsMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "alphanum":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s can contain only numbers and letters", err.Field()))
		case "email":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be a valid email", err.Field()))
		case "min", "max", "len":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must have %s %s", err.Field(), err.ActualTag(), err.Param()))
		case "gte", "lte":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is out of range", err.Field()))
		case "hexadecimal":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be a valid id", err.Field()))
		case "gtfield":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be after %s", err.Field(), err.Param()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not valid", err.Field()))
		}
	}
	return apperr.Validation(strings.Join(errsMsgs, ", "))
}

// Bind декодирует JSON-тело запроса в dst и проверяет его тегами validate.
func Bind(r *http.Request, validate *validator.Validate, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Validation("invalid request body").Wrap(err)
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return ValidationError(verrs)
		}
		return apperr.Validation("invalid request body").Wrap(err)
	}
	return nil
}
