package http

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/dmitrijs2005/timereport/internal/common"
	"github.com/go-playground/validator/v10"
)

// Request structs declare their rules with `validate` tags. Field names in
// messages are the JSON names.
var validate = newValidator()

// fieldMessages replaces the generic range messages for these fields.
var fieldMessages = map[string]string{
	"name":        "name must be 1 to 100 characters",
	"description": "description must be at most 500 characters",
	"minutes":     "minutes must be between 1 and 1440",
	"hourlyRate":  "hourly rate cannot be negative",
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	// day accepts a calendar date or an RFC 3339 timestamp
	if err := v.RegisterValidation("day", func(fl validator.FieldLevel) bool {
		_, err := normalizeDate(fl.Field().String())
		return err == nil
	}); err != nil {
		panic(err)
	}
	return v
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", common.ErrorValidation, fmt.Sprintf(format, args...))
}

// validateStruct checks s against its tags and reports the first violation
// as a validation error.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return invalid("invalid request")
	}
	return describe(errs[0])
}

func describe(fe validator.FieldError) error {
	field := fe.Field()
	switch fe.Tag() {
	case "email":
		return invalid("invalid email address")
	case "uuid":
		return invalid("invalid %s", field)
	case "datetime", "day":
		return invalid("%s must be a date (YYYY-MM-DD)", field)
	case "len":
		return invalid("%s must be %s digits", field, fe.Param())
	case "number":
		return invalid("%s must contain digits only", field)
	}
	if msg, ok := fieldMessages[field]; ok {
		return invalid("%s", msg)
	}
	if fe.Tag() == "required" {
		return invalid("%s is required", field)
	}
	return invalid("invalid %s", field)
}

// normalizeDate accepts YYYY-MM-DD or an RFC 3339 timestamp and returns the
// UTC calendar date.
func normalizeDate(v string) (string, error) {
	if _, err := time.Parse(common.DateLayout, v); err == nil {
		return v, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC().Format(common.DateLayout), nil
	}
	return "", errors.New("not a date")
}
