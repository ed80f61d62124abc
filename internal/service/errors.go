package service

import "fmt"

type BusinessError struct {
	Code    string
	Message string
	Details map[string]any
	Err     error
}

func (b *BusinessError) Error() string {
	if b.Err != nil {
		return fmt.Sprintf("[%s] %s: %s", b.Code, b.Message, b.Err.Error())
	}
	return fmt.Sprintf("[%s] %s", b.Code, b.Message)
}

func NewNotFound(id string) *BusinessError {
	return &BusinessError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("задача %s не найдена", id),
		Details: map[string]any{
			"id": id,
		},
	}
}

func NewValidationError(field, reason string) *BusinessError {
	return &BusinessError{
		Code:    "VALIDATION_ERROR",
		Message: fmt.Sprintf("Неверное значение поля '%s': %s", field, reason),
		Details: map[string]any{
			"field":  field,
			"reason": reason,
		},
	}
}

// отказ в правах отличается от NOT_FOUND: задача видима, но действие запрещено
func NewPermissionDenied(action string) *BusinessError {
	return &BusinessError{
		Code:    "PERMISSION_DENIED",
		Message: fmt.Sprintf("Недостаточно прав для действия '%s'", action),
		Details: map[string]any{
			"action": action,
		},
	}
}
