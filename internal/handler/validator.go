package handler

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// Validator adapts go-playground/validator to echo.Validator. Field names in
// errors are the JSON names of the request fields.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return &Validator{v: v}
}

func (cv *Validator) Validate(i any) error {
	return cv.v.Struct(i)
}

type fieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// validationResponse renders validator errors as a 400 with per-field
// details. It returns false when err is not a validation error.
func validationResponse(c echo.Context, err error) (bool, error) {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return false, nil
	}
	fields := make([]fieldError, 0, len(ve))
	for _, fe := range ve {
		fields = append(fields, fieldError{Field: fieldPath(fe), Code: fe.Tag(), Message: fieldMessage(fe)})
	}
	return true, c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": fields})
}

// fieldPath drops the root struct name from the namespace ("signupReq.org.org_name" -> "org.org_name").
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters long", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters long", fe.Param())
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "gt":
		return "must be greater than " + fe.Param()
	case "url":
		return "must be a valid URL"
	}
	return "is invalid"
}
