package dto

import (
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const dayFormat = "2006-01-02"

// RegisterValidations installs custom binding validations on gin's validator
// engine. Call once at startup before serving requests.
func RegisterValidations() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("day", validDay)
}

// validDay accepts a calendar day in YYYY-MM-DD form. Empty values pass so
// the tag composes with omitempty and required.
func validDay(fl validator.FieldLevel) bool {
	value, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	if value == "" {
		return true
	}
	_, err := time.Parse(dayFormat, value)
	return err == nil
}
