package handler

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/supritimishra/FuelOne-1-sub007/internal/model"
)

// Validator adapts go-playground/validator to echo.Validator
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a validator reporting fields by their JSON names
func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// an unset date counts as missing for the required tag
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(model.Date); ok && !d.IsZero() {
			return d.Time
		}
		return nil
	}, model.Date{})
	return &Validator{validate: v}
}

// Validate implements echo.Validator
func (v *Validator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}
