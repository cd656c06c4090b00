// Package validation holds the request schemas shared by the HTTP handlers.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// messages maps "<field>.<tag>" to the text reported to clients.
var messages = map[string]string{
	"username.required":       "Username is required",
	"username.min":            "Username must be at least 3 characters long",
	"username.username":       "Username must not contain special characters",
	"email.required":          "Email is required",
	"email.email":             "Invalid email address",
	"password.required":       "Password is required",
	"password.min":            "Password should be at least 3 characters",
	"password.max":            "Password should be at most 8 characters",
	"identifier.required":     "Identifier is required",
	"identifier.email":        "Identifier must be a valid email address",
	"code.required":           "Verification code is required",
	"code.len":                "Verification code must be 6 digits",
	"code.numeric":            "Verification code must be 6 digits",
	"content.required":        "Content is required",
	"content.max":             "Content must not be longer than 300 characters",
	"acceptMessages.required": "acceptMessages is required",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	return v
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error lists every failed field of a payload.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Message)
	}
	return strings.Join(parts, "; ")
}

// Struct validates one of the schema structs below.
func Struct(schema any) error {
	return translate(validate.Struct(schema), "")
}

// Username applies the username rules to a bare value.
func Username(username string) error {
	return translate(validate.Var(username, "required,min=3,username"), "username")
}

func translate(err error, field string) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := &Error{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		name := fe.Field()
		if field != "" {
			name = field
		}
		msg, ok := messages[name+"."+fe.Tag()]
		if !ok {
			msg = fmt.Sprintf("%s is invalid", name)
		}
		out.Fields = append(out.Fields, FieldError{Field: name, Message: msg})
	}
	return out
}
