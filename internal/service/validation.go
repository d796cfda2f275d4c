package service

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Dhoini/primeconnect-dashboard/internal/domain"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateStruct проверяет структуру запроса и возвращает domain.ValidationErrors
func ValidateStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	var out domain.ValidationErrors
	for _, fe := range fieldErrs {
		out.Add(toSnakeCase(fe.Field()), messageFor(fe))
	}
	return out
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	default:
		return "failed on " + fe.Tag()
	}
}

func toSnakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 && !(s[i-1] >= 'A' && s[i-1] <= 'Z') {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
