package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ednar28/user-admin/internal/core/domain"
)

// nonString stands in for a JSON value that was not a string.
type nonString int

// echoValidator wraps go-playground/validator so Echo can call c.Validate(req).
type echoValidator struct {
	v *validator.Validate
}

// NewValidator returns an echoValidator ready to be assigned to echo.Echo.Validator.
func NewValidator() *echoValidator {
	v := validator.New()

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterCustomTypeFunc(func(f reflect.Value) any {
		var s jsonString
		switch x := f.Interface().(type) {
		case jsonString:
			s = x
		case jsonSecret:
			s = jsonString(x)
		}
		if s.Invalid {
			return nonString(1)
		}
		return s.Value
	}, jsonString{}, jsonSecret{})

	v.RegisterCustomTypeFunc(func(f reflect.Value) any {
		b := f.Interface().(jsonBool)
		switch {
		case !b.Present:
			return ""
		case b.Invalid:
			return "invalid"
		case b.Value:
			return "true"
		}
		return "false"
	}, jsonBool{})

	mustRegister(v, "string", func(fl validator.FieldLevel) bool {
		return fl.Field().Kind() == reflect.String
	})
	mustRegister(v, "boolean", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "true" || s == "false"
	})

	return &echoValidator{v: v}
}

// mustRegister panics on a bad tag so the mistake surfaces at startup.
func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register validation %q: %v", tag, err))
	}
}

// Validate satisfies the echo.Validator interface. Field failures come back
// as a *domain.ValidationError keyed by JSON field name.
func (ev *echoValidator) Validate(i any) error {
	if err := ev.v.Struct(i); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			out := domain.NewValidationError()
			for _, fe := range ve {
				out.Add(fe.Field(), fieldError(fe))
			}
			return out
		}
		return err
	}
	return nil
}

// fieldError converts a single FieldError into the client-facing message.
func fieldError(fe validator.FieldError) string {
	attr := strings.ReplaceAll(fe.Field(), "_", " ")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", attr)
	case "string":
		if fe.Field() == "role" {
			return domain.MsgRoleInvalid
		}
		return fmt.Sprintf("The %s must be a string.", attr)
	case "email":
		return fmt.Sprintf("The %s must be a valid email address.", attr)
	case "max":
		return fmt.Sprintf("The %s must not be greater than %s characters.", attr, fe.Param())
	case "boolean":
		return fmt.Sprintf("The %s field must be true or false.", attr)
	default:
		return fmt.Sprintf("The %s is invalid.", attr)
	}
}
