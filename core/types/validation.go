package types

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

var validate = validator.New()

// ValidateStruct validates any tagged struct, such as a client configuration,
// with the same messages as the SDK's own inputs.
func ValidateStruct(s any) error {
	return validateStruct(s)
}

// validateStruct runs the struct's `validate` tags and folds any failures into
// a single ValidationError naming each offending field.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return ValidationErrorf("%v", err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return ValidationErrorf("%s", strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	name := lowerFirst(fe.Field())
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "eth_addr":
		return name + " must be a 0x-prefixed 20-byte hex address"
	case "url":
		return name + " must be a valid URL"
	case "oneof":
		return name + " must be one of: " + fe.Param()
	case "min":
		return name + " must have at least " + fe.Param() + " element(s)"
	case "gte":
		return name + " must be >= " + fe.Param()
	case "lte":
		return name + " must be <= " + fe.Param()
	default:
		return name + " failed " + fe.Tag() + " validation"
	}
}

// lowerFirst turns a field name into its camelCase form, lowering a leading
// acronym as a whole: MarketID -> marketID, APIURL -> apiurl, URLPath -> urlPath.
func lowerFirst(s string) string {
	n := 0
	for n < len(s) && s[n] >= 'A' && s[n] <= 'Z' {
		n++
	}
	switch {
	case n == 0:
		return s
	case n == len(s):
		return strings.ToLower(s)
	case n > 1:
		n--
	}
	return strings.ToLower(s[:n]) + s[n:]
}
