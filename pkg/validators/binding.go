package validators

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Register adds the custom tags used in request bodies:
//
//	email        - EmailValidator, replacing the built-in rule
//	password     - PasswordValidator
//	otp          - six ASCII digits
//
// Field errors are reported with the json or form name of the field.
func Register(v *validator.Validate) error {
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})

	if err := v.RegisterValidation("email", func(fl validator.FieldLevel) bool {
		return EmailValidator(fl.Field().String()) == nil
	}); err != nil {
		return err
	}

	if err := v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return PasswordValidator(fl.Field().String()) == nil
	}); err != nil {
		return err
	}

	return v.RegisterValidation("otp", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if len(s) != 6 {
			return false
		}
		for i := range len(s) {
			if s[i] < '0' || s[i] > '9' {
				return false
			}
		}
		return true
	})
}
