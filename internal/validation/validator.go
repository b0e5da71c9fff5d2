// Package validation wraps go-playground/validator for request DTOs.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// Validator validates structs and reports failures keyed by JSON field name.
type Validator struct {
	v *validator.Validate
}

// New returns a Validator that names fields by their json tag and
// understands the "notblank" tag.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// RegisterValidation only fails for empty or reserved tag names.
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}

	return &Validator{v: v}
}

// ValidateStruct returns nil when s is valid, otherwise a field -> message map.
func (va *Validator) ValidateStruct(s any) map[string]string {
	err := va.v.Struct(s)
	if err == nil {
		return nil
	}

	var valErrs validator.ValidationErrors
	if !errors.As(err, &valErrs) {
		return map[string]string{"": err.Error()}
	}

	errMap := make(map[string]string, len(valErrs))
	for _, e := range valErrs {
		// Keep the first failure per field; tags are checked in declaration order.
		if _, seen := errMap[e.Field()]; !seen {
			errMap[e.Field()] = message(e)
		}
	}

	return errMap
}

func message(e validator.FieldError) string {
	switch e.Tag() {
	case "required", "notblank":
		return fmt.Sprintf("O campo '%s' é obrigatório.", e.Field())
	case "max":
		return fmt.Sprintf("O campo '%s' deve ter no máximo %s caracteres.", e.Field(), e.Param())
	case "min":
		return fmt.Sprintf("O campo '%s' deve ter no mínimo %s caracteres.", e.Field(), e.Param())
	default:
		return fmt.Sprintf("O campo '%s' é inválido.", e.Field())
	}
}
