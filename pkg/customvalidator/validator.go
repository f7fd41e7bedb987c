package customvalidator

import (
	"time"

	"gearguard/pkg/constants"
	"gearguard/pkg/utils"

	"github.com/go-playground/validator/v10"
)

// RegisterCustomValidations "собирает" все наши кастомные правила валидации
// и регистрирует их в переданном экземпляре валидатора.
func RegisterCustomValidations(v *validator.Validate) error {
	if err := v.RegisterValidation("notpastdate", isNotPastDate); err != nil {
		return err
	}
	if err := v.RegisterValidation("stage", isStage); err != nil {
		return err
	}
	if err := v.RegisterValidation("role", isRole); err != nil {
		return err
	}
	if err := v.RegisterValidation("priority", isPriority); err != nil {
		return err
	}
	if err := v.RegisterValidation("request_type", isRequestType); err != nil {
		return err
	}
	return nil
}

// Дата не раньше сегодняшней. Сегодня — допустимо, сравниваем без времени суток.
func isNotPastDate(fl validator.FieldLevel) bool {
	switch value := fl.Field().Interface().(type) {
	case time.Time:
		return !utils.IsPastDate(value, time.Now())
	case *time.Time:
		if value == nil {
			return true
		}
		return !utils.IsPastDate(*value, time.Now())
	}
	return false
}

func isStage(fl validator.FieldLevel) bool {
	_, ok := constants.ParseStage(fl.Field().String())
	return ok
}

func isRole(fl validator.FieldLevel) bool {
	_, ok := constants.ParseRole(fl.Field().String())
	return ok
}

func isPriority(fl validator.FieldLevel) bool {
	_, ok := constants.ParsePriority(fl.Field().String())
	return ok
}

func isRequestType(fl validator.FieldLevel) bool {
	_, ok := constants.ParseRequestType(fl.Field().String())
	return ok
}
