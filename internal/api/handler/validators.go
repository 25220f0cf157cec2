package handler

import (
	"errors"
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/d60-Lab/social-publisher/internal/content"
)

var graphIDPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,64}$`)

// RegisterValidators installs the graphid and weekday binding tags.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin validator engine is not go-playground/validator")
	}
	if err := v.RegisterValidation("graphid", func(fl validator.FieldLevel) bool {
		return graphIDPattern.MatchString(fl.Field().String())
	}); err != nil {
		return err
	}
	return v.RegisterValidation("weekday", func(fl validator.FieldLevel) bool {
		return content.IsWeekday(fl.Field().String())
	})
}
