package validator

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator valide les corps de requête de l'API locale.
type Validator struct {
	cli *validator.Validate
}

// ValidationError décrit un champ rejeté, nommé comme dans le JSON reçu.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// New active WithRequiredStructEnabled et remonte les noms de champ JSON.
func New() *Validator {
	cli := validator.New(validator.WithRequiredStructEnabled())
	cli.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{cli: cli}
}

// ValidateStruct retourne nil si s est valide.
func (v *Validator) ValidateStruct(s any) []ValidationError {
	if err := v.cli.Struct(s); err != nil {
		return formatError(err)
	}
	return nil
}

// Validate contrôle une valeur isolée (ex: query string) contre un tag.
func (v *Validator) Validate(value any, tag string) []ValidationError {
	if err := v.cli.Var(value, tag); err != nil {
		return formatError(err)
	}
	return nil
}

func formatError(err error) []ValidationError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []ValidationError{{Message: err.Error()}}
	}

	out := make([]ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, ValidationError{
			Field:   fe.Field(),
			Message: message(fe),
		})
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "min":
		return "must contain at least " + fe.Param() + " item(s)"
	default:
		return "failed on " + fe.Tag()
	}
}
