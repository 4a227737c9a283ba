package validation

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/go-playground/validator/v10"
)

const (
	TagEmail      = "sf_email"
	TagMpesaPhone = "mpesa_phone"
)

var (
	emailRe      = regexp.MustCompile(`^\S+@\S+\.\S+$`)
	mpesaPhoneRe = regexp.MustCompile(`^(07|2547)\d{8}$`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	_ = v.RegisterValidation(TagEmail, func(fl validator.FieldLevel) bool {
		return IsEmail(fl.Field().String())
	})
	_ = v.RegisterValidation(TagMpesaPhone, func(fl validator.FieldLevel) bool {
		return IsMpesaPhone(fl.Field().String())
	})
	return v
}

// IsEmail applies the loose shape check used by the account forms.
func IsEmail(s string) bool {
	return emailRe.MatchString(strings.TrimSpace(s))
}

// NormalizePhone strips all whitespace from a phone number.
func NormalizePhone(s string) string {
	return whitespaceRe.ReplaceAllString(s, "")
}

// IsMpesaPhone accepts 07XXXXXXXX or 2547XXXXXXXX once whitespace is removed.
func IsMpesaPhone(s string) bool {
	return mpesaPhoneRe.MatchString(NormalizePhone(s))
}

// Struct validates dest and returns a VALIDATION_ERROR carrying per-field
// messages keyed by json name.
func Struct(dest any) error {
	if err := validate.Struct(dest); err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

func formatValidationErrors(err error) *pkgerrors.Error {
	if errs, ok := err.(validator.ValidationErrors); ok {
		details := map[string]string{}
		for _, fieldErr := range errs {
			details[fieldErr.Field()] = validationMessage(fieldErr)
		}
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "email", TagEmail:
		return "must be a valid email"
	case TagMpesaPhone:
		return "must be a valid M-Pesa phone number"
	}
	return "is invalid"
}
