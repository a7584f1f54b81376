package services

import (
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var pinPattern = regexp.MustCompile(`^[0-9]{4}$`)

// NewValidator создает валидатор с правилами, общими для сервисов и контроллеров
func NewValidator() *validator.Validate {
	v := validator.New()

	// Пароль: минимум одна цифра и одна буква
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		password := fl.Field().String()
		hasNumber := regexp.MustCompile(`[0-9]`).MatchString(password)
		hasLetter := regexp.MustCompile(`[A-Za-z]`).MatchString(password)
		return hasNumber && hasLetter
	})

	_ = v.RegisterValidation("pin", func(fl validator.FieldLevel) bool {
		return pinPattern.MatchString(fl.Field().String())
	})

	return v
}

// ValidateStruct валидирует DTO и собирает ошибки в одно сообщение
func ValidateStruct(v *validator.Validate, dto interface{}) error {
	err := v.Struct(dto)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return &ValidationError{Message: err.Error()}
	}

	var errorMessages []string
	for _, e := range validationErrors {
		switch e.Tag() {
		case "required":
			errorMessages = append(errorMessages, "field "+e.Field()+" is required")
		case "min":
			errorMessages = append(errorMessages, "field "+e.Field()+" must be at least "+e.Param()+" characters")
		case "max":
			errorMessages = append(errorMessages, "field "+e.Field()+" must be at most "+e.Param()+" characters")
		case "len":
			errorMessages = append(errorMessages, "field "+e.Field()+" must be exactly "+e.Param()+" characters")
		case "oneof":
			errorMessages = append(errorMessages, "field "+e.Field()+" must be one of: "+e.Param())
		case "email":
			errorMessages = append(errorMessages, "field "+e.Field()+" must be a valid email")
		case "uuid4", "uuid":
			errorMessages = append(errorMessages, "field "+e.Field()+" must be a valid id")
		case "pin":
			errorMessages = append(errorMessages, ErrInvalidPin.Error())
		case "password":
			errorMessages = append(errorMessages, "field "+e.Field()+" must contain letters and digits")
		default:
			errorMessages = append(errorMessages, "field "+e.Field()+" is invalid")
		}
	}
	return &ValidationError{Message: strings.Join(errorMessages, "; ")}
}
