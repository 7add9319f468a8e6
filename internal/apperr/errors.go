package apperr

import (
	"errors"
	"fmt"
)

// ValidationError representa un error de validación que se expone al cliente
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NotFoundError indica que la entidad solicitada no existe
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Entity)
}

// Validation crea un ValidationError sin campo asociado
func Validation(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// FieldValidation crea un ValidationError para un campo concreto
func FieldValidation(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NotFound crea un NotFoundError para la entidad indicada
func NotFound(entity string) error {
	return &NotFoundError{Entity: entity}
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsNotFound(err error) bool {
	var n *NotFoundError
	return errors.As(err, &n)
}
