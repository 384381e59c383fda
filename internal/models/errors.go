package models

import (
	"errors"
	"strings"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidToken       = errors.New("invalid classroom token")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError: ошибка ввода, до обращения к хранилищу.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Msg
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// RequireText возвращает обрезанное значение или ValidationError.
func RequireText(field, value, msg string) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", &ValidationError{Field: field, Msg: msg}
	}
	return v, nil
}
