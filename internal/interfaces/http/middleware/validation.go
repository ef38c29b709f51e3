package middleware

import (
	"errors"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// SetupValidator configures gin's validator with JSON field names and the
// custom tags request DTOs use. Call once at startup.
func SetupValidator() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// cartmode accepts the two service modes; empty values pass through
	// omitempty and default server-side
	_ = v.RegisterValidation("cartmode", func(fl validator.FieldLevel) bool {
		mode := fl.Field().String()
		return mode == "dine_in" || mode == "takeaway"
	})
}

// ValidationMessage renders a bind error as a client-facing message. Only
// the first field error is reported; clients fix one problem at a time.
func ValidationMessage(err error) string {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return "Invalid request body"
	}
	e := errs[0]
	switch e.Tag() {
	case "required":
		return "Field '" + e.Field() + "' is required"
	case "cartmode":
		return "Field '" + e.Field() + "' must be 'dine_in' or 'takeaway'"
	case "min":
		return "Field '" + e.Field() + "' must be at least " + e.Param()
	case "max":
		return "Field '" + e.Field() + "' must be at most " + e.Param()
	default:
		return "Field '" + e.Field() + "' is invalid"
	}
}
