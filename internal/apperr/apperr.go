// Package apperr определяет категории ошибок, видимые клиентам API.
package apperr

import (
	"errors"
	"fmt"
)

// Kind определяет категорию ошибки.
type Kind string

const (
	KindValidation     Kind = "validation"
	KindAuthorization  Kind = "authorization"
	KindNotFound       Kind = "not_found"
	KindConflict       Kind = "conflict"
	KindRepository     Kind = "repository"
	KindExternalSource Kind = "external_source"
	KindInternal       Kind = "internal"
)

// Error содержит категорию, необязательное поле или причину и исходную ошибку.
type Error struct {
	Kind    Kind
	Field   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Field != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Field)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation возвращает ошибку некорректных входных данных.
func Validation(field, message string) error {
	return &Error{Kind: KindValidation, Field: field, Message: message}
}

// Authorization возвращает ошибку недостаточных прав.
func Authorization(reason, message string) error {
	return &Error{Kind: KindAuthorization, Field: reason, Message: message}
}

// NotFound возвращает ошибку отсутствующего или недоступного ресурса.
func NotFound(message string, err error) error {
	return &Error{Kind: KindNotFound, Message: message, Err: err}
}

// Conflict возвращает ошибку конфликта с уже существующими данными.
func Conflict(message string, err error) error {
	return &Error{Kind: KindConflict, Message: message, Err: err}
}

// Repository оборачивает ошибку хранилища с указанием операции.
func Repository(op string, err error) error {
	return &Error{Kind: KindRepository, Field: op, Message: "repository failure", Err: err}
}

// ExternalSource оборачивает ошибку внешнего источника данных.
func ExternalSource(err error) error {
	return &Error{Kind: KindExternalSource, Message: "external source unavailable", Err: err}
}

// KindOf возвращает категорию ошибки или KindInternal для неизвестных ошибок.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is сообщает, относится ли ошибка к указанной категории.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
