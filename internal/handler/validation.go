package handler

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/partyhub/partyhub/pkg/model"
)

func oneOf(fl validator.FieldLevel) bool {
	matches := strings.Split(fl.Param(), " ")
	value := fl.Field().String()
	for _, match := range matches {
		if match == value {
			return true
		}
	}
	return false
}

func score(fl validator.FieldLevel) bool {
	value := fl.Field().Int()
	return value >= model.MinScore && value <= model.MaxScore
}

func notBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// RegisterValidation Inspiration: https://blog.logrocket.com/gin-binding-in-go-a-tutorial-with-examples/
func RegisterValidation() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("error getting validation engine")
	}

	if err := v.RegisterValidation("oneOf", oneOf); err != nil {
		return err
	}
	if err := v.RegisterValidation("score", score); err != nil {
		return err
	}
	return v.RegisterValidation("notBlank", notBlank)
}
