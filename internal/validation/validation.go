package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"sukesh_education/internal/apperror"
	"sukesh_education/internal/auth"

	"github.com/go-playground/validator/v10"
)

// PhonePattern accepts "+1 (123) 456-7890", "123-456-7890", "123.456.7890" and similar.
var PhonePattern = regexp.MustCompile(`^(\+\d{1,3}\s?)?(\(\d{3}\)|\d{3})[\s.-]?\d{3}[\s.-]?\d{4}$`)

const DateLayout = "2006-01-02"

// Messages overrides the default text for "field.tag" keys, e.g. "password.min".
type Messages map[string]string

type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return PhonePattern.MatchString(fl.Field().String())
	})

	_ = v.RegisterValidation("notfuture", func(fl validator.FieldLevel) bool {
		d, err := time.Parse(DateLayout, fl.Field().String())
		if err != nil {
			return false
		}
		return !d.After(time.Now())
	})

	// max counts runes; bcrypt limits bytes.
	_ = v.RegisterValidation("bcryptlen", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= auth.MaxPasswordBytes
	})

	return &Validator{validate: v}
}

// Struct validates s and returns nil or a ValidationError listing every bad field.
func (v *Validator) Struct(s any, messages Messages) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.NewInternal(err)
	}

	fields := make([]apperror.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperror.FieldError{
			Field:   fe.Field(),
			Message: message(fe, messages),
		})
	}
	return apperror.NewValidationError(fields...)
}

// Email reports whether s is a syntactically valid address.
func (v *Validator) Email(s string) bool {
	return v.validate.Var(s, "required,email") == nil
}

func message(fe validator.FieldError, messages Messages) string {
	if msg, ok := messages[fe.Field()+"."+fe.Tag()]; ok {
		return msg
	}

	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address"
	case "max":
		return fmt.Sprintf("Field cannot be longer than %s characters.", fe.Param())
	case "min":
		return fmt.Sprintf("Field must be at least %s characters long.", fe.Param())
	case "eqfield":
		return "Passwords must match"
	case "phone":
		return "Invalid phone number format"
	case "datetime":
		return "Not a valid date value."
	case "notfuture":
		return "Date cannot be in the future."
	case "bcryptlen":
		return fmt.Sprintf("Password cannot be longer than %d bytes", auth.MaxPasswordBytes)
	default:
		return fmt.Sprintf("Invalid value for %s.", fe.Field())
	}
}
