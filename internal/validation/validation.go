// Package validation checks user input, both single values and decoded
// request bodies.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

const maxPasswordBytes = 72

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report json field names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Struct validates a request body using its `validate` tags. It returns the
// first failing field as a ValidationError.
func Struct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return toValidationError(fieldErrs[0].Field(), fieldErrs[0])
	}
	return err
}

func field(name, value, tag string) error {
	err := validate.Var(value, tag)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return toValidationError(name, fieldErrs[0])
	}
	return ValidationError{Field: name, Message: err.Error()}
}

func toValidationError(name string, fe validator.FieldError) ValidationError {
	switch fe.Tag() {
	case "required":
		return ValidationError{Field: name, Message: name + " is required"}
	case "email":
		return ValidationError{Field: name, Message: "invalid email format"}
	case "min":
		return ValidationError{Field: name, Message: fmt.Sprintf("%s must be at least %s characters", name, fe.Param())}
	case "max":
		return ValidationError{Field: name, Message: fmt.Sprintf("%s must be at most %s characters", name, fe.Param())}
	case "oneof":
		return ValidationError{Field: name, Message: fmt.Sprintf("%s must be one of %s", name, fe.Param())}
	default:
		return ValidationError{Field: name, Message: fmt.Sprintf("%s failed on %s", name, fe.Tag())}
	}
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	return field("email", strings.TrimSpace(email), "required,email,max=255")
}

// ValidatePassword checks if a password meets requirements. bcrypt ignores
// input past 72 bytes, so longer passwords are rejected.
func ValidatePassword(password string) error {
	if err := field("password", password, "required,min=8,max=72"); err != nil {
		return err
	}
	// max counts runes; bcrypt counts bytes
	if len(password) > maxPasswordBytes {
		return ValidationError{Field: "password", Message: fmt.Sprintf("password must be at most %d bytes", maxPasswordBytes)}
	}
	return nil
}

// ValidateName checks if a name is valid
func ValidateName(name string) error {
	return field("name", strings.TrimSpace(name), "required,min=2,max=100")
}
