// AngelaMos | 2026
// validation.go

package user

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

const (
	passwordMinLength = 8
	passwordMaxLength = 20
	passwordSpecials  = "@$!%*#?&"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]{2,15}$`)

// NewValidator returns a validator with the username and password rules
// registered.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	//nolint:errcheck // tags are static and non-empty
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return ValidUsername(fl.Field().String())
	})
	//nolint:errcheck // tags are static and non-empty
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return ValidPassword(fl.Field().String())
	})

	return v
}

// ValidUsername: a letter, then 2-15 letters, digits, '-' or '_'.
func ValidUsername(s string) bool {
	return usernamePattern.MatchString(s)
}

// ValidPassword: 8-20 characters from letters, digits and @$!%*#?&, with at
// least one of each class.
func ValidPassword(s string) bool {
	if len(s) < passwordMinLength || len(s) > passwordMaxLength {
		return false
	}

	var letter, digit, special bool
	for _, r := range s {
		switch {
		case r < unicode.MaxASCII && unicode.IsLetter(r):
			letter = true
		case r < unicode.MaxASCII && unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		default:
			return false
		}
	}

	return letter && digit && special
}

func validationMessages(err error) []string {
	verrs, ok := err.(validator.ValidationErrors) //nolint:errorlint // validator returns the slice unwrapped
	if !ok {
		return []string{"invalid request"}
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "username":
			msgs = append(msgs, field+" must start with a letter and be 3-16 letters, digits, '-' or '_'")
		case "password":
			msgs = append(msgs, field+" must be 8-20 characters with a letter, a digit and one of "+passwordSpecials)
		case "required":
			msgs = append(msgs, field+" is required")
		case "email":
			msgs = append(msgs, field+" must be a valid email")
		default:
			msgs = append(msgs, field+" failed "+fe.Tag()+" validation")
		}
	}
	return msgs
}
