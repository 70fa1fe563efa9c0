// Package validation checks request structs with go-playground/validator
// and reports failures as a VALIDATION error keyed by JSON field name.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/heyprompt/heyprompt-server/internal/domain"
	domainerrors "github.com/heyprompt/heyprompt-server/internal/errors"
)

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// rules are the HeyPrompt-specific tags. An empty value passes both, so
// "required" decides presence.
var rules = map[string]validator.Func{
	"token_usage": func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || domain.TokenUsage(s).Valid()
	},
	"hexcolor_or_empty": func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || hexColor.MatchString(s)
	},
}

// fixed are messages that do not depend on the tag parameter.
var fixed = map[string]string{
	"required":          "is required",
	"email":             "must be a valid email address",
	"url":               "must be a valid URL",
	"uuid4":             "must be a valid device identifier",
	"alphanumunicode":   "may only contain letters and digits",
	"token_usage":       "must be one of: low medium high",
	"hexcolor_or_empty": "must be a #rrggbb color",
}

type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonName)
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("register %s: %v", tag, err))
		}
	}
	return &Validator{v: v}
}

func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return f.Name
	}
	return name
}

// Validate checks s against its validate tags.
func (v *Validator) Validate(s any) error {
	return v.wrap(v.v.Struct(s), "")
}

// Var checks one value against tag, reporting a failure under field.
func (v *Validator) Var(field string, value any, tag string) error {
	return v.wrap(v.v.Var(value, tag), field)
}

func (v *Validator) wrap(err error, field string) error {
	var fieldErrs validator.ValidationErrors
	if err == nil || !errors.As(err, &fieldErrs) {
		return err
	}
	details := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		name := field
		if name == "" {
			name = fe.Field()
		}
		if _, seen := details[name]; !seen {
			details[name] = message(fe)
		}
	}
	return domainerrors.ValidationWithDetails("validation failed", details)
}

func message(fe validator.FieldError) string {
	if msg, ok := fixed[fe.Tag()]; ok {
		return msg
	}
	p := fe.Param()
	counted := fe.Kind() == reflect.Slice || fe.Kind() == reflect.Map
	switch fe.Tag() {
	case "min":
		if counted {
			return "must contain at least " + p + " items"
		}
		return "must be at least " + p + " characters"
	case "max":
		if counted {
			return "must contain at most " + p + " items"
		}
		return "must not exceed " + p + " characters"
	case "oneof":
		return "must be one of: " + p
	case "gte":
		return "must be greater than or equal to " + p
	case "lte":
		return "must be less than or equal to " + p
	}
	return "is invalid"
}
